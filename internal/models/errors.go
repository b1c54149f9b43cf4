package models

import (
	"errors"
	"fmt"
	"strconv"
)

// RecoverableError is implemented by enriched errors that carry structured
// context and remediation hints. Both the manager and output packages use this
// interface to render failures consistently.
type RecoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

// Sentinels for the error taxonomy. Match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrNothingToRollback = errors.New("nothing to rollback to")
	ErrInvalidVersion    = errors.New("invalid version")
	ErrTransport         = errors.New("transport error")
	ErrSubprocess        = errors.New("subprocess failed")
	ErrFilesystem        = errors.New("filesystem error")
)

// NotFoundError reports a build identity with no record.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("texbld package with id %d not found", e.ID)
}
func (e *NotFoundError) ErrorCode() string { return "NOT_FOUND" }
func (e *NotFoundError) Context() map[string]string {
	return map[string]string{"id": strconv.FormatInt(e.ID, 10)}
}
func (e *NotFoundError) SuggestedAction() string {
	return "run `texbld-manager list` to see installed packages"
}
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NothingToRollbackError is returned when no previously used, non-current build exists.
type NothingToRollbackError struct{}

func (e *NothingToRollbackError) Error() string {
	return "nothing to rollback to, consider switching"
}
func (e *NothingToRollbackError) ErrorCode() string          { return "NOTHING_TO_ROLLBACK" }
func (e *NothingToRollbackError) Context() map[string]string { return map[string]string{} }
func (e *NothingToRollbackError) SuggestedAction() string {
	return "texbld-manager switch <id>"
}
func (e *NothingToRollbackError) Is(target error) bool { return target == ErrNothingToRollback }

// InvalidVersionError reports a stable version outside the published release set.
type InvalidVersionError struct {
	Version string
	Reason  string
}

func (e *InvalidVersionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid texbld version %q: %s", e.Version, e.Reason)
	}
	return fmt.Sprintf("invalid texbld version %q", e.Version)
}
func (e *InvalidVersionError) ErrorCode() string { return "INVALID_VERSION" }
func (e *InvalidVersionError) Context() map[string]string {
	return map[string]string{"version": e.Version}
}
func (e *InvalidVersionError) SuggestedAction() string {
	return "install a published release version or `nightly`"
}
func (e *InvalidVersionError) Is(target error) bool { return target == ErrInvalidVersion }

// TransportError wraps a failed download.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
}
func (e *TransportError) Unwrap() error     { return e.Err }
func (e *TransportError) ErrorCode() string { return "TRANSPORT_ERROR" }
func (e *TransportError) Context() map[string]string {
	ctx := map[string]string{"url": e.URL}
	if e.StatusCode != 0 {
		ctx["status"] = strconv.Itoa(e.StatusCode)
	}
	return ctx
}
func (e *TransportError) SuggestedAction() string {
	return "check network connectivity and retry the install"
}
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// SubprocessError reports a delegated process exiting non-zero, or exiting
// cleanly with output that rules the install out (Reason).
type SubprocessError struct {
	Command  []string
	ExitCode int
	Reason   string
	Err      error
}

func (e *SubprocessError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("subprocess %v: %s", e.Command, e.Reason)
	}
	return fmt.Sprintf("subprocess %v exited with status %d", e.Command, e.ExitCode)
}
func (e *SubprocessError) Unwrap() error     { return e.Err }
func (e *SubprocessError) ErrorCode() string { return "SUBPROCESS_ERROR" }
func (e *SubprocessError) Context() map[string]string {
	return map[string]string{
		"command":   fmt.Sprint(e.Command),
		"exit_code": strconv.Itoa(e.ExitCode),
	}
}
func (e *SubprocessError) SuggestedAction() string {
	return "inspect the installer output above, fix the cause and reinstall"
}
func (e *SubprocessError) Is(target error) bool { return target == ErrSubprocess }

// FilesystemError wraps a failed directory or file operation.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}
func (e *FilesystemError) Unwrap() error     { return e.Err }
func (e *FilesystemError) ErrorCode() string { return "FILESYSTEM_ERROR" }
func (e *FilesystemError) Context() map[string]string {
	return map[string]string{"op": e.Op, "path": e.Path}
}
func (e *FilesystemError) SuggestedAction() string {
	return "check permissions under the texbld root, then run `texbld-manager doctor`"
}
func (e *FilesystemError) Is(target error) bool { return target == ErrFilesystem }
