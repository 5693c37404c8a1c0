// Command mcp-server exposes the sympy tools, including the combinatorial
// sequences, as an HTTP endpoint for agent frameworks, and evaluates
// sequences from the command line.
//
// Usage:
//
//	mcp-server serve --port 8080
//	mcp-server eval bernoulli 0 10
//	mcp-server eval fibonacci 1 6 --x t
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gswirski/sympy/combinatorial"
	"github.com/gswirski/sympy/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Symbolic combinatorial sequences over HTTP and the command line",
	Long: `mcp-server serves the sympy tool set (simplify, expand, sub, evalf and one
tool per registered sequence: fibonacci, lucas, bernoulli, bell, harmonic,
euler) as an MCP-style HTTP endpoint.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zc := zap.NewProductionConfig()
		level, _ := cfg.Logging.ZapLevel()
		zc.Level = zap.NewAtomicLevelAt(level)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		combinatorial.SetLogger(logger.Named("combinatorial"))
		combinatorial.SetBernoulliFloatThreshold(cfg.Sequences.BernoulliFloatThreshold)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newEvalCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
