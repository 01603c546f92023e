package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newscast/service/config"
	"newscast/service/server"
	"newscast/service/util"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

func init() {
	_ = godotenv.Load() //nolint:errcheck // .env is optional
}

var rootCmd = &cobra.Command{
	Use:   "newscast",
	Short: "Push notification routing and deep links for the newscast app",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the newscast server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Newscast %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := util.NewLogger(false)
		logger.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := util.NewLogger(cfg.VerboseLogging)
	logger.Info("Starting Newscast", "version", version)

	srv, err := server.New(cfg, logger, version)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start shuts the server down itself once ctx is cancelled.
	return srv.Start(ctx)
}
