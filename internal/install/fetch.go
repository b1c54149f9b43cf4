package install

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/texbld/texbld-manager/internal/models"
)

// Fetcher downloads release artifacts over HTTP. It sets no timeout of its own;
// a stalled transfer blocks until the transport gives up or ctx is cancelled.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher using client, or a default client when nil.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{client: client}
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.TransportError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", "texbld-manager")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &models.TransportError{URL: url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &models.TransportError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// Download streams url into dest. The body goes to a temp file beside dest
// that is renamed into place only after the transfer completes.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &models.FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return &models.FilesystemError{Op: "create", Path: dir, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &models.TransportError{URL: url, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &models.FilesystemError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return &models.FilesystemError{Op: "rename", Path: dest, Err: err}
	}
	return nil
}

// GetJSON fetches url and decodes the body into v.
func (f *Fetcher) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &models.TransportError{URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
