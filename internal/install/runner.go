package install

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/texbld/texbld-manager/internal/models"
)

// Runner executes external programs on behalf of a backend.
type Runner interface {
	// Run streams the program's output to the user.
	Run(ctx context.Context, name string, args ...string) error
	// Output captures stdout, trimmed.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs programs with os/exec. Nil writers default to os.Stderr so
// installer chatter never mixes with command output on stdout.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: installer programs are resolved from config and the root layout
	cmd.Stdout = orStderr(r.Stdout)
	cmd.Stderr = orStderr(r.Stderr)
	return subprocessErr(append([]string{name}, args...), cmd.Run())
}

// Output implements Runner.
func (r ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: see Run
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = orStderr(r.Stderr)
	if err := subprocessErr(append([]string{name}, args...), cmd.Run()); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

func orStderr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// subprocessErr maps an exec error to *models.SubprocessError. A program that
// never started reports exit code -1.
func subprocessErr(command []string, err error) error {
	if err == nil {
		return nil
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &models.SubprocessError{Command: command, ExitCode: code, Err: err}
}
