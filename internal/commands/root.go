package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/texbld/texbld-manager/internal/app"
	"github.com/texbld/texbld-manager/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	setLogger(slog.LevelWarn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(version).ExecuteContext(ctx)
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			// Usage errors from cobra itself: no command ran, so nothing was printed.
			output.NewPrinter(os.Stderr).Error(err)
			slog.Debug("command failed", "error", err.Error())
		}
	}
	return err
}

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "texbld-manager",
		Short:         "Install, switch between and roll back texbld builds",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return uiFor(cmd).success(resp{Version: version}, func(p *output.Printer) {
					p.Line("texbld-manager %s", version)
				})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return cmdErr(uiFor(cmd), err)
			}

			// Wire --root into the app-level resolver.
			if root, err := cmd.Flags().GetString("root"); err == nil && root != "" {
				app.SetRootOverride(root)
			}

			level := app.EffectiveLogLevel()
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			setLogger(level)
			return nil
		},
	}

	root.PersistentFlags().String("root", "", "Override the texbld root directory (default: $"+app.RootEnv+" or ~/.texbld)")
	root.PersistentFlags().Bool("json", false, "Print results as a JSON envelope")
	root.PersistentFlags().Bool("verbose", false, "Log debug details to stderr")
	root.Flags().BoolP("version", "v", false, "version for texbld-manager")

	root.AddCommand(NewInstallCmd())
	root.AddCommand(NewSwitchCmd())
	root.AddCommand(NewRemoveCmd())
	root.AddCommand(NewListCmd())
	root.AddCommand(NewRollbackCmd())
	root.AddCommand(NewHistoryCmd())
	root.AddCommand(NewCurrentCmd())
	root.AddCommand(NewReleasesCmd())
	root.AddCommand(NewDoctorCmd())
	root.AddCommand(newSchemaCmd(root))

	return root
}

func setLogger(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
