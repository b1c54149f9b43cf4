package commands

import (
	"github.com/spf13/cobra"

	"github.com/texbld/texbld-manager/internal/manager"
	"github.com/texbld/texbld-manager/internal/output"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an installed build and its directory",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return cmdErr(uiFor(cmd), err)
			}

			return withManager(cmd, func(m *manager.Manager, u *ui) error {
				res, err := m.Remove(id)
				if err != nil {
					return err
				}
				return u.success(res, func(p *output.Printer) {
					p.Progress("Removing texbld %s...", res.Build.Label())
					p.Done()
					if res.WasCurrent {
						p.Warn("texbld %s was current; switch to another build to restore the texbld command", res.Build.Label())
					}
				})
			})
		},
	}
}
