package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/collatz/collatz"
	"github.com/ardanlabs/collatz/store"
)

var (
	eqCmd = &cobra.Command{
		Use:   "eq <m>...",
		Short: "Print the trajectory and equations of each m",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runEq,
	}

	rangeCmd = &cobra.Command{
		Use:   "range <from> <to>",
		Short: "Compute every m in [from, to] and store the results",
		Args:  cobra.ExactArgs(2),
		RunE:  runRange,
	}

	showCmd = &cobra.Command{
		Use:   "show <m>",
		Short: "Print a stored result",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
)

func printResult(w io.Writer, r *collatz.Result) {
	fmt.Fprintf(w, "m:        %s\n", r.M())
	fmt.Fprintf(w, "cycle:    %s\n", r)
	fmt.Fprintf(w, "log2:     %d\n", r.Log2())
	fmt.Fprintf(w, "log3:     %d\n", r.Log3())
	fmt.Fprintf(w, "factored: %s\n", r.FactoredEquation())
	fmt.Fprintf(w, "numeric:  %s\n", r.NumericEquation())
}

func runEq(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for i, arg := range args {
		m, err := collatz.ParseInt(arg)
		if err != nil {
			return err
		}

		r, err := collatz.ComputeLimit(m, cfg.StepLimit)
		if err != nil {
			return err
		}

		if i > 0 {
			fmt.Fprintln(out)
		}
		printResult(out, r)
	}
	return nil
}

func runRange(cmd *cobra.Command, args []string) error {
	from, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	to, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	start := time.Now()
	opts := collatz.BatchOptions{
		Workers:   cfg.Workers,
		StepLimit: cfg.StepLimit,
	}
	results, err := collatz.ComputeRange(cmd.Context(), from, to, opts)
	if err != nil {
		return err
	}
	logger.Debug("computed", "count", len(results), "duration", time.Since(start))

	db, err := store.Open(cfg.DBFile)
	if err != nil {
		return err
	}

	for _, r := range results {
		if err := db.Add(r); err != nil {
			db.Close()
			return err
		}
	}
	if err := db.Close(); err != nil {
		return err
	}

	logger.Info("stored results", "db", cfg.DBFile, "from", from, "to", to, "duration", time.Since(start))
	fmt.Fprintf(cmd.OutOrStdout(), "stored %d results in %s\n", len(results), cfg.DBFile)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	m, err := collatz.ParseInt(args[0])
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DBFile)
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.Get(cmd.Context(), m)
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), r)
	return nil
}
