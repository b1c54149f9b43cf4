package install

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texbld/texbld-manager/internal/models"
)

func TestDownload_WritesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "texbld-manager", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("archive-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "sub", "texbld.pyz")
	require.NoError(t, NewFetcher(srv.Client()).Download(context.Background(), srv.URL, dest))

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(b))
}

func TestDownload_NonOKStatusIsTransportErrorAndLeavesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	err := NewFetcher(srv.Client()).Download(context.Background(), srv.URL, filepath.Join(dir, "texbld.pyz"))
	require.ErrorIs(t, err, models.ErrTransport)

	var te *models.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownload_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewFetcher(nil).Download(context.Background(), url, filepath.Join(t.TempDir(), "x"))
	require.ErrorIs(t, err, models.ErrTransport)
}

func TestGetJSON_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	var v map[string]any
	err := NewFetcher(srv.Client()).GetJSON(context.Background(), srv.URL, &v)
	require.ErrorIs(t, err, models.ErrTransport)
}
