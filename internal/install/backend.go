// Package install populates prepared package directories, one backend per channel.
package install

import (
	"context"

	"github.com/texbld/texbld-manager/internal/models"
)

// Backend populates dir with a runnable build or fails. dir already exists and
// is owned by build; a failed install leaves it as it is.
type Backend interface {
	Channel() models.Channel
	Install(ctx context.Context, build *models.Build, dir string) error
}

// VersionValidator is implemented by backends that can reject a version before
// any record or directory is allocated for it.
type VersionValidator interface {
	ValidateVersion(ctx context.Context, version string) error
}
