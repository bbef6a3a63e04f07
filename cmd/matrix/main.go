package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/interview-matrix/internal/app"
	"github.com/joseph-ayodele/interview-matrix/internal/common"
)

var (
	// Global flags
	verbose   bool
	logFormat string

	cfg    *common.Config
	logger *slog.Logger
)

// buildApp wires the service for commands that call the model. Tests replace it.
var buildApp = func(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*app.App, error) {
	return app.Build(ctx, cfg, common.TerminalPrompter{}, logger)
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Build interview analysis matrices from documents",
	Long: `matrix reads interview documents (txt, pdf, docx, images, xlsx, csv), asks a
language model to extract structured tables from them, and exports the tables as
an Excel workbook.

Workflows:
  diagnostic-puo             Matriz_Diagnostico, then Matriz_PUO
  activities-responsibility  Lista_Actividades, then Matriz_Responsabilidades`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = common.LoadConfig()
		if verbose {
			cfg.Log.Level = "debug"
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		logger = common.NewLogger(cfg.Log, cmd.ErrOrStderr())
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from LOG_FORMAT)")

	rootCmd.AddCommand(ingestCmd, extractCmd, runCmd, serveCmd, dbhealthCmd)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for configuration problems (missing API key included) and 1 otherwise.
func exitCode(err error) int {
	if common.IsConfigurationError(err) {
		return 2
	}
	return 1
}
