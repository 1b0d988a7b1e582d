package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Column layout of the result table. Kept byte-for-byte compatible with the
// numbers collected by earlier runs of this benchmark so old and new output
// can be diffed.
const (
	tableHeader = "     N,    InW,    InH,    InC,   OutC, Kernel, Stride, gflops/s, "
	tableRow    = "%6d, %6d, %6d, %6d, %6d, %6d, %6d, %6.2f\n"
)

// Reporter writes sweep results as a comma-aligned table.
type Reporter struct {
	output io.Writer
	header *color.Color
}

// NewReporter creates a reporter. Colour is used for the header only, and
// only when useColor is set.
func NewReporter(output io.Writer, useColor bool) *Reporter {
	r := &Reporter{output: output}
	if useColor {
		r.header = color.New(color.Bold, color.FgCyan)
		r.header.EnableColor()
	}
	return r
}

// ColorEnabled reports whether w is a terminal and NO_COLOR is unset.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Header writes the column header line.
func (r *Reporter) Header() error {
	if r.header != nil {
		_, err := r.header.Fprintln(r.output, tableHeader)
		return err
	}
	_, err := fmt.Fprintln(r.output, tableHeader)
	return err
}

// Row writes one measured layer. Width and height are written in the
// order the header names them.
func (r *Reporter) Row(row Row) error {
	s := row.Shape
	_, err := fmt.Fprintf(r.output, tableRow,
		s.N, s.W, s.H, s.InC, s.OutC, s.Kernel, s.Stride, row.Throughput)
	return err
}

// Shapes writes derived shapes without timings, one per line.
func (r *Reporter) Shapes(shapes []Shape) error {
	for i, s := range shapes {
		kind := "pointwise"
		if s.Depthwise {
			kind = "depthwise"
		} else if s.Kernel > 1 {
			kind = "standard"
		}
		in := NewDims(s.N, s.H, s.W, s.InC)
		out := NewDims(s.N, s.H/s.Stride, s.W/s.Stride, s.OutC)
		if _, err := fmt.Fprintf(r.output, "%2d  %-9s  k=%d s=%d  %v -> %v\n",
			i, kind, s.Kernel, s.Stride, in, out); err != nil {
			return err
		}
	}
	return nil
}
