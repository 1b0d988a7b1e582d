package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// sweepOptions holds the opt-in surfaces of the sweep subcommand. The bare
// command runs with Workers 1 and everything else off.
type sweepOptions struct {
	Workers    int
	OutputJSON string
	OutputCSV  string
	NoColor    bool
	Verbose    bool
	Chart      bool
}

// sweepFlags holds everything the sweep and shapes subcommands accept.
type sweepFlags struct {
	Topology string
	File     string
	Batch    int
	Size     int
	Depth    int
	Reps     int
	Trials   int
	sweepOptions
}

// addShapeFlags registers the flags that change which shapes are derived.
func (f *sweepFlags) addShapeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Topology, "topology", "t", DefaultTopology, "built-in topology name")
	cmd.Flags().StringVarP(&f.File, "file", "f", "", "YAML topology file (overrides --topology)")
	cmd.Flags().IntVar(&f.Batch, "batch", 0, "batch size (default: topology's, else 16)")
	cmd.Flags().IntVar(&f.Size, "size", 0, "initial spatial size (default: topology's, else 224)")
	cmd.Flags().IntVar(&f.Depth, "depth", 0, "initial channel depth (default: topology's, else 3)")
}

// build resolves the topology and applies flag overrides on top of it.
func (f *sweepFlags) build() (Sweep, string, error) {
	var (
		t   Topology
		err error
	)
	if f.File != "" {
		t, err = LoadTopology(f.File)
	} else {
		t, err = LookupTopology(f.Topology)
	}
	if err != nil {
		return Sweep{}, "", err
	}

	s := DefaultSweep().WithTopology(t)
	if f.Batch > 0 {
		s.Batch = f.Batch
	}
	if f.Size > 0 {
		s.Size = f.Size
	}
	if f.Depth > 0 {
		s.Depth = f.Depth
	}
	if f.Reps > 0 {
		s.Reps = f.Reps
	}
	if f.Trials > 0 {
		s.Trials = f.Trials
	}

	name := t.Name
	if name == "" {
		name = f.File
	}
	return s, name, nil
}

func newSweepCommand() *cobra.Command {
	var f sweepFlags

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Benchmark every layer of a topology",
		Example: `  convbench sweep --topology mobilenet-v1-head --reps 10
  convbench sweep --file tiny.yaml --trials 5 --json run.json
  convbench sweep --workers 0 --csv run.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, name, err := f.build()
			if err != nil {
				return err
			}
			return runSweep(cmd, s, name, f.sweepOptions)
		},
	}

	f.addShapeFlags(cmd)
	cmd.Flags().IntVarP(&f.Reps, "reps", "r", 0, "Run calls per measurement (default 100)")
	cmd.Flags().IntVar(&f.Trials, "trials", 0, "measurements per layer (default 1)")
	cmd.Flags().IntVarP(&f.Workers, "workers", "w", 1, "kernel worker goroutines, 0 = all CPUs")
	cmd.Flags().StringVar(&f.OutputJSON, "json", "", "write the run as JSON to this file")
	cmd.Flags().StringVar(&f.OutputCSV, "csv", "", "write the rows as CSV to this file")
	cmd.Flags().BoolVar(&f.Chart, "chart", false, "draw a throughput bar chart after the table")
	cmd.Flags().BoolVar(&f.NoColor, "no-color", false, "disable coloured output")
	cmd.Flags().BoolVarP(&f.Verbose, "verbose", "v", false, "log each measurement to stderr")
	return cmd
}

func newShapesCommand() *cobra.Command {
	var f sweepFlags

	cmd := &cobra.Command{
		Use:   "shapes",
		Short: "Print the convolution shapes a sweep would measure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := f.build()
			if err != nil {
				return err
			}
			return NewReporter(cmd.OutOrStdout(), false).Shapes(s.Shapes())
		},
	}

	f.addShapeFlags(cmd)
	return cmd
}

// runSweep measures s and prints the table. Rows go to the exporter as they
// are measured; the exporter is flushed on normal completion and from an
// exit handler when the sweep ends early.
func runSweep(cmd *cobra.Command, s Sweep, topology string, opts sweepOptions) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	s.Logger = logger

	if opts.Workers != 1 {
		cfg := DefaultComputeConfig()
		cfg.Workers = opts.Workers
		s.Kernel = NewParallelKernel(s.Kernel, cfg)
	}

	exporter := &Exporter{JSONPath: opts.OutputJSON, CSVPath: opts.OutputCSV}
	if exporter.Enabled() {
		exporter.Run = NewSweepRun(topology, s, opts.Workers, DetectHardware())
		atexit.Register(func() {
			if err := exporter.Flush(); err != nil {
				logger.Error("export failed", "err", err)
			}
		})
	}

	reporter := NewReporter(cmd.OutOrStdout(), stdoutColor(cmd, opts.NoColor))
	if err := reporter.Header(); err != nil {
		return errors.Wrap(err, "write header")
	}

	logger.Info("starting sweep", "topology", topology, "layers", len(s.Layers),
		"batch", s.Batch, "size", s.Size, "depth", s.Depth, "reps", s.Reps)

	rows, err := s.Run(cmd.Context(), func(row Row) error {
		if err := reporter.Row(row); err != nil {
			return errors.Wrap(err, "write row")
		}
		if exporter.Enabled() {
			return exporter.Add(row)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "sweep stopped")
	}

	if opts.Chart {
		if err := reporter.Chart(rows); err != nil {
			return errors.Wrap(err, "write chart")
		}
	}

	if exporter.Enabled() {
		return exporter.Flush()
	}
	return nil
}
