package registrar

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fairshared/fairshared/pkg/errors"
)

// accountTimeout bounds the account creation commands.
const accountTimeout = 30 * time.Second

// AccountCreator provisions a unix account for a registered user.
type AccountCreator interface {
	Create(ctx context.Context, username, password string) error
}

// ExecAccountCreator creates accounts with useradd and sets the password
// through chpasswd's stdin so it never appears in the process table.
type ExecAccountCreator struct{}

// Create implements AccountCreator.
func (c *ExecAccountCreator) Create(ctx context.Context, username, password string) error {
	cctx, cancel := context.WithTimeout(ctx, accountTimeout)
	defer cancel()

	useradd, err := exec.LookPath("useradd")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "locating useradd", err)
	}
	out, err := exec.CommandContext(cctx, useradd, "-m", "-s", "/bin/bash", username).CombinedOutput()
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal,
			"creating account", fmt.Errorf("%w: %s", err, out),
			map[string]any{"username": username})
	}

	chpasswd, err := exec.LookPath("chpasswd")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "locating chpasswd", err)
	}
	cmd := exec.CommandContext(cctx, chpasswd)
	cmd.Stdin = strings.NewReader(username + ":" + password + "\n")
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal,
			"setting password", fmt.Errorf("%w: %s", err, out),
			map[string]any{"username": username})
	}
	return nil
}
