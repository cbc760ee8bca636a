package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/nfx/catalog"
	"github.com/s0up4200/nfx/config"
	"github.com/s0up4200/nfx/unogs"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  = zerolog.Nop()
	nfx     *app

	// Command flags
	outputFormat string
	filterExpr   string
	preset       string
	rank         bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nfx",
	Short: "Browse the Netflix catalog from the command line",
	Long: `nfx lists new and expiring Netflix titles and searches the catalog using
the uNoGS API. Responses are cached on disk for a day, and requests stop
before the daily API quota runs out.`,
	PersistentPreRunE: initializeApp,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.config/nfx/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json or yaml")
}

// initializeApp loads the configuration and builds the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("output") {
		cfg.Output.Format = outputFormat
	}

	logger = setupLogger(cfg.Logging)

	nfx = newApp(cfg, logger, cmd.OutOrStdout())
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format, colored only on a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(os.Stderr),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reportError prints the error once and adds a hint for the common failures
func reportError(err error) {
	if errors.Is(err, unogs.ErrInvariantViolation) {
		logger.Error().Err(err).Msg("Rate limit lock is inconsistent, inspect it with 'nfx lock status'")
	}

	fmt.Fprintln(os.Stderr, "Error:", err)

	var fetchErr *unogs.FetchError
	switch {
	case errors.Is(err, unogs.ErrRateLimitExceeded):
		fmt.Fprintln(os.Stderr, "Hint: the lock lifts a day after it was set, see 'nfx lock status'.")
	case errors.As(err, &fetchErr) && fetchErr.IsUnauthorized():
		fmt.Fprintln(os.Stderr, "Hint: check api.key (or NFX_API_KEY).")
	case errors.Is(err, config.ErrConfiguration):
		fmt.Fprintln(os.Stderr, "Hint: see 'nfx --help' for the configuration file locations.")
	}
}

// outputFormatOf validates the configured output format
func outputFormatOf(cfg *config.Config) (catalog.Format, error) {
	format, err := catalog.ParseFormat(cfg.Output.Format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	return format, nil
}
