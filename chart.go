package main

import (
	"fmt"
	"math"
	"strings"
)

// chartWidth is the bar length, in characters, of the fastest layer.
const chartWidth = 50

// Chart writes a terminal bar chart of throughput per layer, scaled so the
// fastest layer fills chartWidth characters. Depthwise layers are marked,
// since they are usually the slow ones and the reason to run this at all.
func (r *Reporter) Chart(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	maxGFLOPS := 0.0
	for _, row := range rows {
		if row.Throughput > maxGFLOPS {
			maxGFLOPS = row.Throughput
		}
	}

	if _, err := fmt.Fprintf(r.output, "\n=== Throughput per layer (GFLOP/s) ===\nScale: %.2f GFLOP/s = %d chars\n\n",
		maxGFLOPS, chartWidth); err != nil {
		return err
	}

	for _, row := range rows {
		barLen := 0
		if maxGFLOPS > 0 && !math.IsInf(row.Throughput, 0) {
			barLen = int(math.Round(row.Throughput / maxGFLOPS * chartWidth))
		}

		kind := "  "
		if row.Shape.Depthwise {
			kind = "dw"
		}

		label := fmt.Sprintf("%2d %s %3dx%-3d k%d/s%d", row.Layer, kind,
			row.Shape.H, row.Shape.W, row.Shape.Kernel, row.Shape.Stride)

		if _, err := fmt.Fprintf(r.output, "%-22s │%s %.2f\n",
			label, strings.Repeat("█", barLen), row.Throughput); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(r.output)
	return err
}
