package commands

import (
	"github.com/spf13/cobra"

	"github.com/texbld/texbld-manager/internal/manager"
	"github.com/texbld/texbld-manager/internal/models"
	"github.com/texbld/texbld-manager/internal/output"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install <version|nightly>",
		Aliases: []string{"i"},
		Short:   "Install a stable release or the nightly build",
		Long: `Install a new texbld build into its own directory under the root.

"nightly" downloads the latest nightly archive. Any other argument is a stable
release published on PyPI and is installed into an isolated environment.
Every install gets a new id; use switch to start using it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			andSwitch, _ := cmd.Flags().GetBool("switch")

			return withManager(cmd, func(m *manager.Manager, u *ui) error {
				if !u.json {
					u.text.Progress("Installing texbld %s...", args[0])
				}
				build, err := m.Install(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !u.json {
					u.text.Done()
				}

				type resp struct {
					Build  *models.Build         `json:"build"`
					Switch *manager.SwitchResult `json:"switch,omitempty"`
				}
				out := resp{Build: build}

				if andSwitch {
					res, err := m.Switch(build.ID)
					if err != nil {
						return err
					}
					out.Switch = res
				}

				return u.success(out, func(p *output.Printer) {
					p.Line("Installed texbld %s", build.Label())
					if out.Switch != nil {
						printSwitch(p, out.Switch)
					}
				})
			})
		},
	}

	cmd.Flags().Bool("switch", false, "Switch to the new build after installing")

	return cmd
}
