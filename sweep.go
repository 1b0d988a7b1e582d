package main

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// This file turns a compact network description into a sequence of concrete
// convolution benchmarks and times each one.
//
// INTENTION:
// "How fast is convolution shape X on this machine?" is only interesting for
// shapes a real network uses. A network is described layer by layer as
// (kernel, stride, depth), and the sweep carries two pieces of running state
// through the list:
//
//   size:  current spatial extent (starts at 224, the MobileNet input)
//   depth: current channel count  (starts at 3, RGB)
//
// PER LAYER:
//
//   depthwise (depth == 0)       pointwise/standard (depth > 0)
//   N    = batch * depth         N    = batch
//   InC  = 1                     InC  = depth
//   OutC = 1                     OutC = layer.Depth
//
// Depthwise convolution has no cross-channel mixing, so each channel of
// each image is an independent single-channel image. Folding channels into
// the batch expresses exactly that with an ordinary convolution call.
//
// After the layer is measured:
//   size  = size / layer.Stride       (always, integer division)
//   depth = layer.Depth               (only when layer.Depth != 0)
//
// Nothing checks that strides divide size. A topology that does not divide
// evenly produces truncated shapes, silently.
//
// ===========================================================================

import (
	"context"
	"log/slog"
)

// Shape is one concrete convolution the sweep measures.
type Shape struct {
	N         int  `json:"n"`
	H         int  `json:"h"`
	W         int  `json:"w"`
	InC       int  `json:"in_c"`
	OutC      int  `json:"out_c"`
	Kernel    int  `json:"kernel"`
	Stride    int  `json:"stride"`
	Depthwise bool `json:"depthwise"`
}

// Bench builds the workload for s.
func (s Shape) Bench(k Kernel) *ConvBench {
	return NewConvBench(s.N, s.H, s.W, s.InC, s.OutC, s.Kernel, s.Stride, k)
}

// Row is one measured layer.
type Row struct {
	Layer       int         `json:"layer"`
	Shape       Shape       `json:"shape"`
	GFLOPs      float64     `json:"gflops"`
	Measurement Measurement `json:"measurement"`
	StdDev      float64     `json:"stddev_seconds,omitempty"`
	Throughput  float64     `json:"gflops_per_sec"`
}

// Sweep walks a topology and benchmarks every layer.
type Sweep struct {
	Batch  int // Images per pointwise layer
	Size   int // Initial spatial extent
	Depth  int // Initial channel count
	Reps   int // Run calls per measurement
	Trials int // Measurements per layer, see Run
	Layers []Layer
	Kernel Kernel
	Logger *slog.Logger
}

// DefaultSweep returns the MobileNet v1 sweep: batch 16, 224x224x3 input,
// 100 repetitions, single-threaded direct kernel.
func DefaultSweep() Sweep {
	return Sweep{
		Batch:  16,
		Size:   224,
		Depth:  3,
		Reps:   100,
		Trials: 1,
		Layers: MobileNetV1,
		Kernel: DirectKernel{},
	}
}

// WithTopology applies t's layers and any sweep parameters it sets.
func (s Sweep) WithTopology(t Topology) Sweep {
	s.Layers = t.Layers
	if t.Batch > 0 {
		s.Batch = t.Batch
	}
	if t.Size > 0 {
		s.Size = t.Size
	}
	if t.Depth > 0 {
		s.Depth = t.Depth
	}
	return s
}

// Shapes derives the concrete shape of every layer without timing anything.
func (s Sweep) Shapes() []Shape {
	shapes := make([]Shape, 0, len(s.Layers))

	size := s.Size
	depth := s.Depth
	for _, layer := range s.Layers {
		shape := Shape{
			H:      size,
			W:      size,
			Kernel: layer.Kernel,
			Stride: layer.Stride,
		}
		if layer.Depthwise() {
			shape.N = s.Batch * depth
			shape.InC = 1
			shape.OutC = 1
			shape.Depthwise = true
		} else {
			shape.N = s.Batch
			shape.InC = depth
			shape.OutC = layer.Depth
		}
		shapes = append(shapes, shape)

		size /= layer.Stride
		if layer.Depth != 0 {
			depth = layer.Depth
		}
	}

	return shapes
}

// Run measures every layer in order and passes each row to emit as soon as
// it is measured. It returns the rows measured so far.
//
// ctx is checked between layers only; a measurement in progress is never
// interrupted. An error from emit stops the sweep.
//
// With Trials > 1 each layer is measured Trials times and the row reports
// the mean per-call time, with the spread in StdDev.
func (s Sweep) Run(ctx context.Context, emit func(Row) error) ([]Row, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	kernel := s.Kernel
	if kernel == nil {
		kernel = DirectKernel{}
	}

	shapes := s.Shapes()
	rows := make([]Row, 0, len(shapes))
	for i, shape := range shapes {
		if err := ctx.Err(); err != nil {
			return rows, err
		}

		logger.Debug("measuring layer",
			"layer", i, "n", shape.N, "size", shape.H,
			"in_c", shape.InC, "out_c", shape.OutC,
			"kernel", shape.Kernel, "stride", shape.Stride)

		b := shape.Bench(kernel)
		row := Row{
			Layer:  i,
			Shape:  shape,
			GFLOPs: b.GFLOPs(),
		}

		if s.Trials > 1 {
			ts := MeasureTrials(b, s.Reps, s.Trials)
			row.Measurement = ts.MeanMeasurement()
			row.StdDev = ts.StdDev
			row.Throughput = b.Throughput(ts.Mean)
		} else {
			row.Measurement = Measure(b, s.Reps)
			row.Throughput = b.Throughput(row.Measurement.Seconds())
		}

		logger.Debug("measured layer",
			"layer", i, "per_call", row.Measurement.PerCall,
			"gflops_per_sec", row.Throughput)

		rows = append(rows, row)
		if emit != nil {
			if err := emit(row); err != nil {
				return rows, err
			}
		}
	}

	return rows, nil
}
