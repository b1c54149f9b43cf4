package commands

import (
	"github.com/spf13/cobra"

	"github.com/texbld/texbld-manager/internal/manager"
	"github.com/texbld/texbld-manager/internal/output"
)

// NewReleasesCmd creates the releases command.
func NewReleasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "releases",
		Short: "List stable versions available to install",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(m *manager.Manager, u *ui) error {
				versions, err := m.Releases(cmd.Context())
				if err != nil {
					return err
				}
				type resp struct {
					Versions []string `json:"versions"`
				}
				return u.success(resp{Versions: versions}, func(p *output.Printer) {
					p.Heading("Releases")
					for _, v := range versions {
						p.Line("  %s", v)
					}
				})
			})
		},
	}
}
