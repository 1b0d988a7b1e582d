package main

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// This file lets any Kernel use more than one core by splitting the batch
// axis across workers.
//
// INTENTION:
// The harness itself is strictly single-threaded: one workload, one Run at a
// time. Parallelism, when wanted, belongs to the numeric backend. Wrapping a
// Kernel in ParallelKernel is the seam for that, and it keeps the harness
// and sweep code unaware of it.
//
// PARTITIONING:
// Images in a batch are independent, and NHWC stores each image as one
// contiguous run of H*W*C values. Worker w gets images [start, end) and
// calls the inner kernel on sub-slices with N rewritten to end-start. No two
// workers touch the same output value, so no locking is needed.
//
// Depthwise layers fold channels into the batch (N = 16 * depth), which
// gives them plenty of independent work too.
//
// ===========================================================================

// ComputeConfig controls how many workers a ParallelKernel uses.
type ComputeConfig struct {
	// Workers is the number of concurrent kernel calls.
	// 0 means runtime.NumCPU(); 1 means single-threaded.
	Workers int

	// MinBatchForParallel is the smallest batch that is split at all.
	MinBatchForParallel int
}

// DefaultComputeConfig returns a single-threaded configuration, which is
// what the default sweep measures.
func DefaultComputeConfig() ComputeConfig {
	return ComputeConfig{
		Workers:             1,
		MinBatchForParallel: 2,
	}
}

// numWorkers returns the actual number of workers to use.
func (c ComputeConfig) numWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// shouldParallelize reports whether a batch of n images is worth splitting.
func (c ComputeConfig) shouldParallelize(n int) bool {
	return c.numWorkers() > 1 && n >= c.MinBatchForParallel
}

// ParallelKernel runs Inner on disjoint batch ranges concurrently.
type ParallelKernel struct {
	Inner Kernel
	Cfg   ComputeConfig
}

// NewParallelKernel wraps inner with cfg.
func NewParallelKernel(inner Kernel, cfg ComputeConfig) *ParallelKernel {
	return &ParallelKernel{Inner: inner, Cfg: cfg}
}

// Convolve implements Kernel.
func (k *ParallelKernel) Convolve(out, in, filter, bias []float32,
	outDims, inDims, filterDims, biasDims Dims,
	filterSizes, strides, pads [2]int, group, depthUnroll int) {
	checkRank("output", outDims, 4)
	checkRank("input", inDims, 4)

	n := outDims[0]
	if !k.Cfg.shouldParallelize(n) {
		k.Inner.Convolve(out, in, filter, bias, outDims, inDims, filterDims,
			biasDims, filterSizes, strides, pads, group, depthUnroll)
		return
	}

	workers := k.Cfg.numWorkers()
	if workers > n {
		workers = n
	}
	perWorker := (n + workers - 1) / workers // Ceiling division

	outImage := outDims[1] * outDims[2] * outDims[3]
	inImage := inDims[1] * inDims[2] * inDims[3]

	var g errgroup.Group
	g.SetLimit(workers)

	for start := 0; start < n; start += perWorker {
		end := start + perWorker
		if end > n {
			end = n
		}

		subOut := NewDims(end-start, outDims[1], outDims[2], outDims[3])
		subIn := NewDims(end-start, inDims[1], inDims[2], inDims[3])
		outPart := out[start*outImage : end*outImage]
		inPart := in[start*inImage : end*inImage]

		g.Go(func() error {
			k.Inner.Convolve(outPart, inPart, filter, bias, subOut, subIn,
				filterDims, biasDims, filterSizes, strides, pads, group, depthUnroll)
			return nil
		})
	}

	// Workers never return errors; Wait is only the join.
	_ = g.Wait()
}
