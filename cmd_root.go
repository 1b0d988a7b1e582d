package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// newRootCommand builds the CLI. The bare command takes no arguments or
// flags and prints the MobileNet v1 table, nothing else.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "convbench",
		Short: "Measure 2-D convolution throughput over the MobileNet v1 layer shapes",
		Long: `convbench times a direct NHWC convolution kernel on every convolution
shape of a network topology and prints GFLOP/s per shape.

Run without arguments to sweep MobileNet v1 with batch 16, 224x224x3 input
and 100 repetitions per shape.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, DefaultSweep(), DefaultTopology, sweepOptions{Workers: 1})
		},
	}

	root.AddCommand(
		newSweepCommand(),
		newShapesCommand(),
		newTopologiesCommand(),
		newDetectCommand(),
	)
	return root
}

// newLogger returns a stderr text logger; verbose enables debug records.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newTopologiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "topologies",
		Short: "List built-in topologies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range Topologies() {
				t, err := LookupTopology(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-20s %2d layers\n", name, len(t.Layers))
			}
			return nil
		},
	}
}

func newDetectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Print host hardware information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			DetectHardware().Print(cmd.OutOrStdout())
			return nil
		},
	}
}

// stdoutColor reports whether the command's output is a colour terminal.
func stdoutColor(cmd *cobra.Command, disabled bool) bool {
	if disabled {
		return false
	}
	if cmd.OutOrStdout() != os.Stdout {
		return false
	}
	return ColorEnabled(os.Stdout)
}
