package main

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// SweepRun is everything needed to compare a sweep against one taken on
// another machine or another day.
type SweepRun struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Hardware  HardwareInfo `json:"hardware"`
	Topology  string       `json:"topology"`
	Batch     int          `json:"batch"`
	Size      int          `json:"size"`
	Depth     int          `json:"depth"`
	Reps      int          `json:"reps"`
	Trials    int          `json:"trials"`
	Workers   int          `json:"workers"`
	Rows      []Row        `json:"rows"`
}

// NewSweepRun starts an empty run record for s.
func NewSweepRun(topology string, s Sweep, workers int, hw HardwareInfo) *SweepRun {
	return &SweepRun{
		ID:        xid.New().String(),
		Timestamp: time.Now(),
		Hardware:  hw,
		Topology:  topology,
		Batch:     s.Batch,
		Size:      s.Size,
		Depth:     s.Depth,
		Reps:      s.Reps,
		Trials:    s.Trials,
		Workers:   workers,
		Rows:      make([]Row, 0, len(s.Layers)),
	}
}

// WriteJSON saves the run as indented JSON.
func (r *SweepRun) WriteJSON(filename string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal run")
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", filename)
	}
	return nil
}

var csvHeader = []string{
	"run_id", "layer", "n", "h", "w", "in_c", "out_c", "kernel", "stride",
	"depthwise", "reps", "per_call_ns", "stddev_s", "gflops", "gflops_per_sec",
}

// WriteCSV saves one line per row, with the run ID repeated so files from
// several machines can be concatenated.
func (r *SweepRun) WriteCSV(filename string) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", filename)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, row := range r.Rows {
		s := row.Shape
		record := []string{
			r.ID,
			strconv.Itoa(row.Layer),
			strconv.Itoa(s.N),
			strconv.Itoa(s.H),
			strconv.Itoa(s.W),
			strconv.Itoa(s.InC),
			strconv.Itoa(s.OutC),
			strconv.Itoa(s.Kernel),
			strconv.Itoa(s.Stride),
			strconv.FormatBool(s.Depthwise),
			strconv.Itoa(row.Measurement.Reps),
			strconv.FormatInt(row.Measurement.PerCall.Nanoseconds(), 10),
			strconv.FormatFloat(row.StdDev, 'g', 6, 64),
			strconv.FormatFloat(row.GFLOPs, 'f', 6, 64),
			strconv.FormatFloat(row.Throughput, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}

// Exporter collects rows as a sweep produces them and writes the requested
// files once, either at the end of the sweep or from an exit handler when
// the sweep is cut short.
type Exporter struct {
	Run      *SweepRun
	JSONPath string
	CSVPath  string

	mu   sync.Mutex
	once sync.Once
	err  error
}

// Enabled reports whether any output file was requested.
func (e *Exporter) Enabled() bool {
	return e.JSONPath != "" || e.CSVPath != ""
}

// Add records one row. It has the signature Sweep.Run expects of emit.
func (e *Exporter) Add(row Row) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Run.Rows = append(e.Run.Rows, row)
	return nil
}

// Flush writes the output files. Calls after the first return the first
// call's error without writing again.
func (e *Exporter) Flush() error {
	e.once.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.JSONPath != "" {
			if err := e.Run.WriteJSON(e.JSONPath); err != nil {
				e.err = err
				return
			}
		}
		if e.CSVPath != "" {
			e.err = e.Run.WriteCSV(e.CSVPath)
		}
	})
	return e.err
}
