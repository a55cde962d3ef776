// Command collatz computes modified Collatz trajectories and their equations.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/collatz/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
	logger  = slog.New(slog.NewTextHandler(os.Stderr, nil))

	rootCmd = &cobra.Command{
		Use:           "collatz",
		Short:         "Modified Collatz trajectories and their equations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, cmd.ErrOrStderr())
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "YAML configuration file")
	flags.String("db", "", "SQLite database file (overrides config)")
	flags.Int("step-limit", 0, "maximal steps per value, 0 for no limit (overrides config)")
	flags.Int("workers", 0, "concurrent computations, 0 for GOMAXPROCS (overrides config)")

	rootCmd.AddCommand(eqCmd, rangeCmd, showCmd, serveCmd)
}

// setup loads the configuration, applies command line overrides and
// creates the logger.
func setup(cmd *cobra.Command, logOut io.Writer) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBFile, _ = flags.GetString("db")
	}
	if flags.Changed("step-limit") {
		cfg.StepLimit, _ = flags.GetInt("step-limit")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level, _ := cfg.Level()
	logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
