package main

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// This file is the reference convolution backend: a direct (no im2col, no
// FFT, no Winograd) 2-D convolution over NHWC tensors.
//
// MEMORY LAYOUT:
//   input  [N][H][W][InC]
//   filter [OutC][KH][KW][InC/group]
//   output [N][H'][W'][OutC]
//
// Because channels are the innermost axis of both input and filter, the
// reduction for one filter tap (ky, kx) is a dot product of two contiguous
// slices. That is the only hot loop, and it goes through the SIMD dot
// product from github.com/tphakala/simd. Short reductions (depthwise layers
// have one input channel) stay in plain Go where the call overhead would
// dominate, same crossover idea as DotProduct in the tensor code.
//
// GROUPS:
// Output channels [g*OutC/G, (g+1)*OutC/G) read input channels
// [g*InC/G, (g+1)*InC/G). A group count that does not split both channel
// counts evenly runs dense (G = 1). The MobileNet sweep always passes 4,
// including for depthwise layers with a single channel.
//
// DEPTH UNROLL:
// depthUnroll output channels share one pass over the input window, so each
// input slice is loaded once per block instead of once per output channel.
//
// ===========================================================================

import (
	"github.com/tphakala/simd/f32"
)

// simdMinChannels is the reduction length below which the scalar loop wins.
const simdMinChannels = 16

// DirectKernel is a single-threaded direct convolution.
type DirectKernel struct{}

// Convolve implements Kernel.
func (DirectKernel) Convolve(out, in, filter, bias []float32,
	outDims, inDims, filterDims, biasDims Dims,
	filterSizes, strides, pads [2]int, group, depthUnroll int) {
	checkRank("output", outDims, 4)
	checkRank("input", inDims, 4)
	checkRank("filter", filterDims, 4)
	checkBuffer("output", out, outDims)
	checkBuffer("input", in, inDims)
	checkBuffer("filter", filter, filterDims)
	checkBuffer("bias", bias, biasDims)

	inH, inW, inC := inDims[1], inDims[2], inDims[3]
	outN, outH, outW, outC := outDims[0], outDims[1], outDims[2], outDims[3]
	fKH, fKW, fC := filterDims[1], filterDims[2], filterDims[3]
	kh, kw := filterSizes[0], filterSizes[1]
	sh, sw := strides[0], strides[1]
	ph, pw := pads[0], pads[1]

	if group < 1 || inC%group != 0 || outC%group != 0 || inC < group || outC < group {
		group = 1
	}
	inCPerG := inC / group
	outCPerG := outC / group
	if fC < inCPerG {
		inCPerG = fC
	}

	unroll := depthUnroll
	if unroll < 1 {
		unroll = 1
	}
	sums := make([]float32, unroll)

	for n := 0; n < outN; n++ {
		for g := 0; g < group; g++ {
			groupEnd := (g + 1) * outCPerG
			for ocBase := g * outCPerG; ocBase < groupEnd; ocBase += unroll {
				block := unroll
				if ocBase+block > groupEnd {
					block = groupEnd - ocBase
				}

				for oy := 0; oy < outH; oy++ {
					for ox := 0; ox < outW; ox++ {
						for j := 0; j < block; j++ {
							if ocBase+j < len(bias) {
								sums[j] = bias[ocBase+j]
							} else {
								sums[j] = 0
							}
						}

						for ky := 0; ky < kh; ky++ {
							iy := oy*sh - ph + ky
							if iy < 0 || iy >= inH {
								continue
							}
							for kx := 0; kx < kw; kx++ {
								ix := ox*sw - pw + kx
								if ix < 0 || ix >= inW {
									continue
								}

								inOff := ((n*inH+iy)*inW+ix)*inC + g*inCPerG
								window := in[inOff : inOff+inCPerG]
								for j := 0; j < block; j++ {
									fOff := (((ocBase+j)*fKH+ky)*fKW + kx) * fC
									sums[j] += dot(window, filter[fOff:fOff+inCPerG])
								}
							}
						}

						outOff := ((n*outH+oy)*outW+ox)*outC + ocBase
						copy(out[outOff:outOff+block], sums[:block])
					}
				}
			}
		}
	}
}

// dot returns the inner product of two equal-length slices.
func dot(a, b []float32) float32 {
	if len(a) < simdMinChannels {
		var sum float32
		for i := range a {
			sum += a[i] * b[i]
		}
		return sum
	}
	return f32.DotProductUnsafe(a, b)
}
