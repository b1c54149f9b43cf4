package commands

import (
	"github.com/spf13/cobra"

	"github.com/texbld/texbld-manager/internal/app"
	"github.com/texbld/texbld-manager/internal/manager"
	"github.com/texbld/texbld-manager/internal/output"
)

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the root for drift between records, directories and the texbld script",
		Long: `Check that every record has a package directory, that no package directory
lacks a record, that no interrupted remove left a trash directory behind, and
that the texbld script points at the current build.

--prune deletes orphan and trash directories and rewrites a missing or stale
script. It never deletes records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prune, _ := cmd.Flags().GetBool("prune")
			_, rootSource, err := app.ResolveRootDetailed()
			if err != nil {
				return cmdErr(uiFor(cmd), err)
			}

			return withManager(cmd, func(m *manager.Manager, u *ui) error {
				var (
					report *manager.Report
					pruned *manager.PruneResult
					err    error
				)
				if prune {
					report, pruned, err = m.Prune()
				} else {
					report, err = m.Check()
				}
				if err != nil {
					return err
				}

				type resp struct {
					RootSource string               `json:"root_source"`
					Healthy    bool                 `json:"healthy"`
					Report     *manager.Report      `json:"report"`
					Pruned     *manager.PruneResult `json:"pruned,omitempty"`
				}
				return u.success(resp{
					RootSource: rootSource,
					Healthy:    report.Healthy(),
					Report:     report,
					Pruned:     pruned,
				}, func(p *output.Printer) {
					printReport(p, rootSource, report, pruned)
				})
			})
		},
	}

	cmd.Flags().Bool("prune", false, "Delete orphan and trash directories and repair the texbld script")

	return cmd
}

func printReport(p *output.Printer, rootSource string, r *manager.Report, pruned *manager.PruneResult) {
	p.Heading("Root")
	p.Line("  %s (%s)", r.Root, rootSource)
	p.Line("  schema version %d of %d, %d records", r.SchemaVersion, r.LatestSchema, r.Records)
	if r.SchemaVersion != r.LatestSchema {
		p.Warn("database schema is not at the latest version")
	}

	p.Heading("Current")
	if r.Current == nil {
		p.Line("  none")
	} else {
		p.Line("%s", p.BuildRow(r.Current))
	}
	p.Line("  script %s: %s", r.ScriptPath, r.ScriptState)
	switch r.ScriptState {
	case manager.ScriptMissing, manager.ScriptStale:
		if pruned == nil || !pruned.ScriptRewritten {
			p.Warn("the texbld script does not match the current build; run doctor --prune or switch again")
		}
	case manager.ScriptUnmanaged:
		p.Warn("a texbld script exists but no build is current")
	}

	for _, b := range r.MissingDirectories {
		p.Warn("texbld %s has no package directory; reinstall or remove it", b.Label())
	}
	for _, dir := range r.OrphanDirectories {
		p.Warn("%s has no record", dir)
	}
	for _, dir := range r.TrashDirectories {
		p.Warn("%s is left over from an interrupted remove", dir)
	}

	if pruned != nil {
		for _, dir := range pruned.Removed {
			p.Line("Removed %s", dir)
		}
		if pruned.ScriptRewritten {
			p.Line("Rewrote %s", r.ScriptPath)
		}
		return
	}
	if r.Healthy() {
		p.Line("No problems found.")
	}
}
