package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	orchestrator "github.com/ERRORIK404/Expression_Calculator/internal/orchestrator_application"
	conf "github.com/ERRORIK404/Expression_Calculator/pkg/config"
	"github.com/ERRORIK404/Expression_Calculator/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Run the expression calculator HTTP and gRPC API",
	Long: `Orchestrator accepts arithmetic expressions over HTTP (POST /calculate) and gRPC,
evaluates them and keeps the history of every submission (GET /expressions).

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := conf.LoadConfig(envFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log := logger.New(cfg.LogLevel, cfg.LogPretty)
		log.Info().
			Str("mode", string(cfg.EvaluationMode)).
			Int("workers", cfg.ComputingPower).
			Msg("starting orchestrator")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return orchestrator.RunServer(ctx, cfg, log)
	},
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional .env file with configuration")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
