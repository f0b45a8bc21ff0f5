package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	agent "github.com/ERRORIK404/Expression_Calculator/internal/agent_application"
	conf "github.com/ERRORIK404/Expression_Calculator/pkg/config"
	"github.com/ERRORIK404/Expression_Calculator/pkg/logger"
)

var (
	envFile string
	addr    string
	timeout time.Duration
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Command line client for the expression calculator",
	Long: `Agent submits expressions to the orchestrator over gRPC and reads back the history.

Use 'agent help <command>' for more information on a specific command.`,
	SilenceUsage: true,
}

var submitCmd = &cobra.Command{
	Use:   "submit <expression>...",
	Short: "Submit expressions and wait for their results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			for _, expr := range args {
				rec, err := a.Submit(ctx, expr)
				if err != nil {
					return err
				}
				printRecord(cmd.OutOrStdout(), rec)
			}
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every submitted expression, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			records, err := a.List(ctx)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one expression by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid id %q", args[0])
		}
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			rec, err := a.Get(ctx, id)
			if err != nil {
				return err
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		})
	},
}

func withAgent(cmd *cobra.Command, fn func(context.Context, *agent.Agent) error) error {
	cfg, err := conf.LoadConfig(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cmd.Flags().Changed("addr") {
		addr = cfg.OrchestratorAddr
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	a, err := agent.Dial(addr, agent.WithLogger(logger.New(level, true)))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return fn(ctx, a)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file with configuration")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "localhost:8081", "Orchestrator gRPC address (default from ORCHESTRATOR_GRPC_ADDR)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Give up after this long")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(submitCmd, listCmd, getCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
