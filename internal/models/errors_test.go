package models

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecoverableError_Is verifies each struct type matches its own sentinel
// via errors.Is and does not cross-match the others.
func TestRecoverableError_Is(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{&NotFoundError{ID: 1}, ErrNotFound},
		{&NothingToRollbackError{}, ErrNothingToRollback},
		{&InvalidVersionError{Version: "9.9.9"}, ErrInvalidVersion},
		{&TransportError{URL: "https://example.invalid", StatusCode: 404}, ErrTransport},
		{&SubprocessError{Command: []string{"pip"}, ExitCode: 2}, ErrSubprocess},
		{&FilesystemError{Op: "mkdir", Path: "/x", Err: fs.ErrPermission}, ErrFilesystem},
	}

	sentinels := []error{ErrNotFound, ErrNothingToRollback, ErrInvalidVersion, ErrTransport, ErrSubprocess, ErrFilesystem}
	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.sentinel)
		for _, other := range sentinels {
			if other == tc.sentinel {
				continue
			}
			assert.False(t, errors.Is(tc.err, other), "%T should not match %v", tc.err, other)
		}
	}
}

func TestRecoverableError_WrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("switch: %w", &NotFoundError{ID: 42})
	require.ErrorIs(t, err, ErrNotFound)

	var rec RecoverableError
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, "NOT_FOUND", rec.ErrorCode())
	assert.Equal(t, "42", rec.Context()["id"])
}

func TestFilesystemError_UnwrapsCause(t *testing.T) {
	err := &FilesystemError{Op: "remove", Path: "/root/store/3", Err: fs.ErrPermission}
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, "remove /root/store/3: permission denied", err.Error())
}

func TestTransportError_Message(t *testing.T) {
	withStatus := &TransportError{URL: "https://x/y", StatusCode: 503}
	assert.Equal(t, "download https://x/y: unexpected status 503", withStatus.Error())
	assert.Equal(t, "503", withStatus.Context()["status"])

	cause := errors.New("connection refused")
	withCause := &TransportError{URL: "https://x/y", Err: cause}
	assert.ErrorIs(t, withCause, cause)
	assert.NotContains(t, withCause.Context(), "status")
}

func TestSubprocessError_Message(t *testing.T) {
	failed := &SubprocessError{Command: []string{"pip", "install"}, ExitCode: 2}
	assert.Equal(t, "subprocess [pip install] exited with status 2", failed.Error())

	rejected := &SubprocessError{Command: []string{"python3", "-c", "v"}, Reason: "incompatible python version 3.8"}
	assert.Equal(t, "subprocess [python3 -c v]: incompatible python version 3.8", rejected.Error())
	assert.Equal(t, "0", rejected.Context()["exit_code"])
}

func TestChannelForVersion(t *testing.T) {
	assert.Equal(t, ChannelNightly, ChannelForVersion("nightly"))
	assert.Equal(t, ChannelStable, ChannelForVersion("0.3.0"))
	assert.Equal(t, ChannelStable, ChannelForVersion("Nightly"))

	b := &Build{ID: 7, Version: "nightly"}
	assert.True(t, b.IsNightly())
	assert.Equal(t, "7-nightly", b.Label())
}
