package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *StructuredError
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeStartupConfig, "unknown scheduler"),
			want: "[STARTUP_CONFIG] unknown scheduler",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeCollection, "reading process table", errors.New("exit status 1")),
			want: "[COLLECTION] reading process table: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(ErrCodeEnforcement, "renice failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var se *StructuredError
	if !errors.As(err, &se) {
		t.Fatal("errors.As should extract StructuredError")
	}
	if se.Code != ErrCodeEnforcement {
		t.Errorf("Code = %v, want %v", se.Code, ErrCodeEnforcement)
	}
}

func TestIsCode(t *testing.T) {
	base := New(ErrCodeEnforcement, "kill failed")
	wrapped := fmt.Errorf("applying action: %w", base)

	if !IsCode(base, ErrCodeEnforcement) {
		t.Error("IsCode should match on the error itself")
	}
	if !IsCode(wrapped, ErrCodeEnforcement) {
		t.Error("IsCode should match through fmt.Errorf wrapping")
	}
	if IsCode(wrapped, ErrCodeCollection) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(nil, ErrCodeInternal) {
		t.Error("IsCode(nil) should be false")
	}
}

func TestWrapWithContext(t *testing.T) {
	err := WrapWithContext(ErrCodeEnforcement, "command failed", errors.New("exit status 2"),
		map[string]any{"command": "renice -n 19 -p 42", "exit": 2})

	if err.Context["exit"] != 2 {
		t.Errorf("Context[exit] = %v, want 2", err.Context["exit"])
	}
}
