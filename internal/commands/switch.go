package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/texbld/texbld-manager/internal/manager"
	"github.com/texbld/texbld-manager/internal/output"
)

// NewSwitchCmd creates the switch command.
func NewSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "switch <id>",
		Aliases: []string{"s"},
		Short:   "Make an installed build the current one",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return cmdErr(uiFor(cmd), err)
			}

			return withManager(cmd, func(m *manager.Manager, u *ui) error {
				res, err := m.Switch(id)
				if err != nil {
					return err
				}
				return u.success(res, func(p *output.Printer) {
					printSwitch(p, res)
				})
			})
		},
	}
}

// NewRollbackCmd creates the rollback command.
func NewRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rollback",
		Aliases: []string{"rb"},
		Short:   "Switch back to the previously used build",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, func(m *manager.Manager, u *ui) error {
				res, err := m.Rollback()
				if err != nil {
					return err
				}
				return u.success(res, func(p *output.Printer) {
					printSwitch(p, res)
				})
			})
		},
	}
}

func printSwitch(p *output.Printer, res *manager.SwitchResult) {
	if res.DirectoryMissing {
		p.Warn("texbld %s has no package directory; reinstall it or switch to another build", res.Build.Label())
	}
	p.Progress("Switching to texbld %s...", res.Build.Label())
	p.Done()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid package id %q", s)
	}
	return id, nil
}
