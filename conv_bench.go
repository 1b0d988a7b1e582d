package main

import (
	"math/rand"
)

// Fixed values the published MobileNet measurements were taken with. The
// kernel may ignore either; GFLOPs never looks at them.
const (
	convGroup       = 4
	convDepthUnroll = 4
)

// fillSeed seeds every buffer fill. Each fill starts its own generator from
// this seed, so all four buffers begin with the same value sequence and
// every run of the binary sees identical data.
const fillSeed = 5489

// ConvBench benchmarks one convolution shape.
//
//	input:  n x h x w x inC
//	filter: outC x kernel x kernel x inC, plus outC biases
//	stride: stride along both spatial axes
//	output: n x h/stride x w/stride x outC
//
// h and w should be divisible by stride; otherwise the output shape
// silently truncates.
type ConvBench struct {
	kernel Kernel

	filter []float32
	in     []float32
	out    []float32
	bias   []float32

	filterDims Dims
	inDims     Dims
	outDims    Dims
	biasDims   Dims
}

// NewConvBench derives the four shape descriptors. Buffers are not
// allocated until Setup.
func NewConvBench(n, h, w, inC, outC, kernel, stride int, k Kernel) *ConvBench {
	return &ConvBench{
		kernel:     k,
		filterDims: NewDims(outC, kernel, kernel, inC),
		inDims:     NewDims(n, h, w, inC),
		outDims:    NewDims(n, h/stride, w/stride, outC),
		biasDims:   NewDims(outC),
	}
}

// Setup fills all buffers with uniform values in [-1, 1). The output buffer
// is filled too; Run uses it as scratch.
func (b *ConvBench) Setup() {
	b.filter = randomFill(b.filterDims, b.filter)
	b.in = randomFill(b.inDims, b.in)
	b.out = randomFill(b.outDims, b.out)
	b.bias = randomFill(b.biasDims, b.bias)
}

// Run performs one convolution.
func (b *ConvBench) Run() {
	stride := b.inDims[1] / b.outDims[1]
	strides := [2]int{stride, stride}
	pads := [2]int{0, 0}
	filterSizes := [2]int{b.filterDims[1], b.filterDims[2]}

	b.kernel.Convolve(b.out, b.in, b.filter, b.bias,
		b.outDims, b.inDims, b.filterDims, b.biasDims,
		filterSizes, strides, pads, convGroup, convDepthUnroll)
}

// Teardown is a no-op: buffers live until the benchmark is dropped, and the
// sweep drops it right after the measurement.
func (b *ConvBench) Teardown() {}

// GFLOPs returns the theoretical work of one Run in billions of floating
// point operations: two per multiply-accumulate of a dense convolution of
// this shape. The group hint passed to the kernel is not taken into account.
func (b *ConvBench) GFLOPs() float64 {
	return 2.0 *
		float64(b.filterDims[0]) * float64(b.filterDims[1]) *
		float64(b.filterDims[2]) * float64(b.filterDims[3]) *
		float64(b.outDims[0]) * float64(b.outDims[1]) * float64(b.outDims[2]) / 1e9
}

// Throughput converts a per-call duration in seconds into GFLOP/s.
func (b *ConvBench) Throughput(seconds float64) float64 {
	return b.GFLOPs() / seconds
}

// FilterDims, InDims, OutDims and BiasDims expose the derived shapes.
func (b *ConvBench) FilterDims() Dims { return b.filterDims }
func (b *ConvBench) InDims() Dims     { return b.inDims }
func (b *ConvBench) OutDims() Dims    { return b.outDims }
func (b *ConvBench) BiasDims() Dims   { return b.biasDims }

// randomFill returns buf resized to d.Size() and filled from a freshly
// seeded generator. buf is reused when it is already the right length.
func randomFill(d Dims, buf []float32) []float32 {
	size := d.Size()
	if len(buf) != size {
		buf = make([]float32, size)
	}

	r := rand.New(rand.NewSource(fillSeed))
	for i := range buf {
		// Float32 is in [0, 1) and the affine map is exact in float32,
		// so the result never reaches 1.
		buf[i] = r.Float32()*2 - 1
	}
	return buf
}
