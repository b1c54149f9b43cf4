package commands

import (
	"github.com/spf13/cobra"

	"github.com/texbld/texbld-manager/internal/manager"
	"github.com/texbld/texbld-manager/internal/models"
	"github.com/texbld/texbld-manager/internal/output"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed nightly and stable builds",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(m *manager.Manager, u *ui) error {
				listing, err := m.List()
				if err != nil {
					return err
				}
				return u.success(listing, func(p *output.Printer) {
					p.Builds("Nightly", listing.Nightlies)
					p.Builds("Stable", listing.Stables)
				})
			})
		},
	}
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "history",
		Aliases: []string{"h"},
		Short:   "Show builds that have been current, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(m *manager.Manager, u *ui) error {
				builds, err := m.History()
				if err != nil {
					return err
				}
				type resp struct {
					Builds []*models.Build `json:"builds"`
				}
				return u.success(resp{Builds: builds}, func(p *output.Printer) {
					p.Builds("History", builds)
				})
			})
		},
	}
}

// NewCurrentCmd creates the current command.
func NewCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "current",
		Aliases: []string{"c"},
		Short:   "Show the current build",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(m *manager.Manager, u *ui) error {
				build, err := m.Current()
				if err != nil {
					return err
				}
				type resp struct {
					Current *models.Build `json:"current"`
				}
				return u.success(resp{Current: build}, func(p *output.Printer) {
					if build == nil {
						p.Line("No texbld build is current. Install one and switch to it.")
						return
					}
					p.Line("%s", p.BuildRow(build))
				})
			})
		},
	}
}
