package models

import (
	"strings"
	"time"
)

// Channel identifies which release stream a build was installed from.
type Channel string

// Channel constants.
const (
	ChannelNightly Channel = "nightly"
	ChannelStable  Channel = "stable"
)

// NightlyVersion is the literal version label stored for nightly builds.
// Any other label is a stable release tag.
const NightlyVersion = "nightly"

// ChannelForVersion maps a stored or requested version label to its channel.
func ChannelForVersion(version string) Channel {
	if strings.TrimSpace(version) == NightlyVersion {
		return ChannelNightly
	}
	return ChannelStable
}

// Build is one installed copy of texbld, one row in the pkgs table.
//
// ID is assigned by SQLite AUTOINCREMENT and is never reused. UsedAt is nil
// until the build has been switched to at least once.
type Build struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	Current   bool       `json:"current"`
	Version   string     `json:"version"`
}

// Channel returns the release stream this build belongs to.
func (b *Build) Channel() Channel {
	return ChannelForVersion(b.Version)
}

// IsNightly reports whether the build tracks the nightly channel.
func (b *Build) IsNightly() bool {
	return b.Channel() == ChannelNightly
}

// Label renders the build as "<id>-<version>", the form used in progress messages.
func (b *Build) Label() string {
	return FormatLabel(b.ID, b.Version)
}
