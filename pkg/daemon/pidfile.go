package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/fairshared/fairshared/pkg/errors"
)

// WritePidfile records pid at path, creating parent directories as needed.
func WritePidfile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "creating pidfile directory", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "writing pidfile", err)
	}
	return nil
}

// ReadPidfile returns the pid recorded at path.
func ReadPidfile(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0, errors.WrapWithContext(errors.ErrCodeInternal,
			"malformed pidfile", err, map[string]any{"path": path})
	}
	return pid, nil
}

// RemovePidfile deletes the pidfile, tolerating its absence.
func RemovePidfile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, "removing pidfile", err)
	}
	return nil
}

// Alive reports whether a process with the given pid exists. Signal 0
// probes existence without delivering anything; EPERM still means the
// process is there.
func Alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
