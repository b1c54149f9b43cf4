package install

import (
	"context"
	"path/filepath"

	"github.com/texbld/texbld-manager/internal/layout"
	"github.com/texbld/texbld-manager/internal/models"
)

// Nightly installs the rolling snapshot: a single archive published under a
// fixed release tag.
type Nightly struct {
	fetcher *Fetcher
	url     string
}

// NewNightly returns the nightly backend downloading from url.
func NewNightly(fetcher *Fetcher, url string) *Nightly {
	return &Nightly{fetcher: fetcher, url: url}
}

// Channel implements Backend.
func (n *Nightly) Channel() models.Channel { return models.ChannelNightly }

// Install downloads the archive to <dir>/texbld.pyz.
func (n *Nightly) Install(ctx context.Context, build *models.Build, dir string) error {
	return n.fetcher.Download(ctx, n.url, filepath.Join(dir, layout.NightlyArchive))
}
