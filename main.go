package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Afveis/cornerstones/diagram"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile string
	storePath  string
	verbose    bool
	jsonOutput bool

	app *App
)

var rootCmd = &cobra.Command{
	Use:           "cornerstones <command>",
	Short:         "Edit and render radial indicator diagrams",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zap.WarnLevel
		if cmd.Name() == "serve" {
			level = zap.InfoLevel
		}
		if verbose {
			level = zap.DebugLevel
		}
		logger, err := newLogger(level)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}

		config, err := diagram.LoadConfigOrDefault(configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if storePath != "" {
			config.Storage.Path = storePath
		}

		app = NewApp(config, logger)
		return app.Open(cmd.Context(), cmd.Name() == "serve")
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		defer func() { _ = app.Logger.Sync() }()
		return app.Close(context.Background())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "workspace JSON file (overrides storage.path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

// newLogger builds the production logger at the given level
func newLogger(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
