package main

import "fmt"

//go:generate mockgen -source=kernel.go -destination=mock_kernel_test.go -package=main

// Kernel is the numeric convolution backend the harness drives.
//
// The call mirrors a C-style kernel ABI: raw buffers, one shape descriptor
// per buffer, and scalar hyperparameters. Implementations read in, filter
// and bias, and write exactly outDims.Size() values into out. There is no
// return status; a kernel that cannot handle its arguments may panic.
//
//	filterSizes: kernel extent along (H, W)
//	strides:     step along (H, W)
//	pads:        zero padding before the first row/column along (H, W)
//	group:       number of channel groups
//	depthUnroll: how many output channels to compute together (a hint)
type Kernel interface {
	Convolve(out, in, filter, bias []float32,
		outDims, inDims, filterDims, biasDims Dims,
		filterSizes, strides, pads [2]int, group, depthUnroll int)
}

// KernelFunc adapts a plain function to the Kernel interface.
type KernelFunc func(out, in, filter, bias []float32,
	outDims, inDims, filterDims, biasDims Dims,
	filterSizes, strides, pads [2]int, group, depthUnroll int)

// Convolve calls f.
func (f KernelFunc) Convolve(out, in, filter, bias []float32,
	outDims, inDims, filterDims, biasDims Dims,
	filterSizes, strides, pads [2]int, group, depthUnroll int) {
	f(out, in, filter, bias, outDims, inDims, filterDims, biasDims,
		filterSizes, strides, pads, group, depthUnroll)
}

// checkBuffer panics when buf is shorter than its descriptor requires.
func checkBuffer(name string, buf []float32, d Dims) {
	if len(buf) < d.Size() {
		panic(fmt.Sprintf("kernel: %s buffer has %d values, shape %v needs %d",
			name, len(buf), d, d.Size()))
	}
}

// checkRank panics when d does not have the expected number of axes.
func checkRank(name string, d Dims, rank int) {
	if len(d) != rank {
		panic(fmt.Sprintf("kernel: %s shape %v must have %d extents", name, d, rank))
	}
}
