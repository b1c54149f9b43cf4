package commands

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/texbld/texbld-manager/internal/app"
	"github.com/texbld/texbld-manager/internal/dispatch"
	"github.com/texbld/texbld-manager/internal/install"
	"github.com/texbld/texbld-manager/internal/layout"
	"github.com/texbld/texbld-manager/internal/manager"
	"github.com/texbld/texbld-manager/internal/models"
	"github.com/texbld/texbld-manager/internal/output"
	"github.com/texbld/texbld-manager/internal/store"
)

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// The message has already been shown to the user; main only needs the exit code.
	return "error already printed"
}

func (e printedError) Unwrap() error { return e.err }

// ui picks between the JSON envelope and colored text for one invocation.
type ui struct {
	json bool
	cfg  output.Config
	text *output.Printer
}

func uiFor(cmd *cobra.Command) *ui {
	asJSON, _ := cmd.Flags().GetBool("json")
	cfg := output.DefaultConfig()
	cfg.Writer = cmd.OutOrStdout()
	return &ui{
		json: asJSON,
		cfg:  cfg,
		text: output.NewPrinter(cmd.OutOrStdout()),
	}
}

// success prints data as a JSON envelope in --json mode, otherwise runs human.
func (u *ui) success(data any, human func(p *output.Printer)) error {
	if u.json {
		return output.PrintWith(u.cfg, output.Success(data))
	}
	human(u.text)
	return nil
}

func openManager() (*manager.Manager, func(), error) {
	root, err := app.GetRoot()
	if err != nil {
		return nil, nil, err
	}
	l, err := layout.New(root)
	if err != nil {
		return nil, nil, err
	}

	db, err := store.InitDBWithPath(l.DBPath())
	if err != nil {
		return nil, nil, err
	}

	settings := app.EffectiveInstallSettings()
	m := manager.New(db, l, dispatch.NewWriter(l, settings.Python), newBackends(l, settings), slog.Default())
	return m, func() { _ = db.Close() }, nil
}

func newBackends(l layout.Layout, s app.InstallSettings) []install.Backend {
	fetcher := install.NewFetcher(nil)
	index := install.NewReleaseIndex(fetcher, s.PyPIURL, s.Package)
	stable := install.NewStable(install.StableConfig{
		Python:        s.Python,
		Package:       s.Package,
		BootstrapPath: l.VirtualenvPath(),
		VirtualenvURL: s.VirtualenvURL,
	}, fetcher, index, install.ExecRunner{})

	return []install.Backend{
		install.NewNightly(fetcher, s.NightlyURL),
		stable,
	}
}

func withManager(cmd *cobra.Command, fn func(m *manager.Manager, u *ui) error) error {
	u := uiFor(cmd)
	m, closeDB, err := openManager()
	if err != nil {
		return cmdErr(u, err)
	}
	defer closeDB()

	if err := fn(m, u); err != nil {
		return cmdErr(u, err)
	}
	return nil
}

// cmdErr shows err once, logs it with structured context and returns a
// printedError so Execute does not report it again.
func cmdErr(u *ui, err error) error {
	if err == nil {
		return nil
	}
	var pe printedError
	if errors.As(err, &pe) {
		return err
	}

	attrs := []any{"error", err.Error()}
	var re models.RecoverableError
	if errors.As(err, &re) {
		attrs = append(attrs, "error_code", re.ErrorCode())
		for k, v := range re.Context() {
			attrs = append(attrs, k, v)
		}
	}
	slog.Debug("command error", attrs...)

	if u.json {
		_ = output.PrintWith(u.cfg, output.Error(err))
	} else {
		u.text.Error(err)
	}
	return printedError{err: err}
}
