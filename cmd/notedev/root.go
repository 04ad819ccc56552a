package main

import (
	"context"
	"fmt"
	"os"

	"notedev-server/internal/app"
	"notedev-server/internal/config"
	"notedev-server/internal/llm"
	"notedev-server/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "notedev",
	Short: "Operate a NoteDev deployment from the command line",
	Long: `notedev talks to the same storage and AI provider as the server,
configured through the same environment variables and .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["config"] == "none" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		log, err = logger.New(level, "development")
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// openServices connects to storage and returns the service layer with a
// cleanup func. The AI provider is only built when withProvider is set.
func openServices(ctx context.Context, withProvider bool) (*app.Services, func(), error) {
	stores, err := app.OpenStores(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}

	var provider llm.Provider
	if withProvider {
		provider, err = app.NewProvider(ctx, cfg.AI)
		if err != nil {
			stores.Close()
			return nil, nil, err
		}
	}

	return app.NewServices(cfg, stores, provider, nil, log), stores.Close, nil
}
