package main

import (
	"fmt"
	"math"
	"testing"
)

// convCase is one kernel invocation checked against referenceConv.
type convCase struct {
	n, h, w, inC, outC int
	k, stride, pad     int
	group, unroll      int
}

func (c convCase) String() string {
	return fmt.Sprintf("n%d_%dx%dx%d_to_%d_k%d_s%d_p%d_g%d_u%d",
		c.n, c.h, c.w, c.inC, c.outC, c.k, c.stride, c.pad, c.group, c.unroll)
}

// effectiveGroup mirrors the kernel's fallback to a dense convolution.
func (c convCase) effectiveGroup() int {
	g := c.group
	if g < 1 || c.inC%g != 0 || c.outC%g != 0 || c.inC < g || c.outC < g {
		return 1
	}
	return g
}

func (c convCase) dims() (outDims, inDims, filterDims, biasDims Dims) {
	g := c.effectiveGroup()
	outH := (c.h+2*c.pad-c.k)/c.stride + 1
	outW := (c.w+2*c.pad-c.k)/c.stride + 1
	return NewDims(c.n, outH, outW, c.outC),
		NewDims(c.n, c.h, c.w, c.inC),
		NewDims(c.outC, c.k, c.k, c.inC/g),
		NewDims(c.outC)
}

// referenceConv is a textbook grouped NHWC convolution with float64
// accumulation.
func referenceConv(c convCase, in, filter, bias []float32) []float32 {
	outDims, _, filterDims, _ := c.dims()
	g := c.effectiveGroup()
	inCPerG, outCPerG := c.inC/g, c.outC/g
	outH, outW, fC := outDims[1], outDims[2], filterDims[3]

	out := make([]float32, outDims.Size())
	for n := 0; n < c.n; n++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				for oc := 0; oc < c.outC; oc++ {
					grp := oc / outCPerG
					sum := float64(bias[oc])
					for ky := 0; ky < c.k; ky++ {
						for kx := 0; kx < c.k; kx++ {
							iy := oy*c.stride - c.pad + ky
							ix := ox*c.stride - c.pad + kx
							if iy < 0 || iy >= c.h || ix < 0 || ix >= c.w {
								continue
							}
							for ic := 0; ic < inCPerG; ic++ {
								x := in[((n*c.h+iy)*c.w+ix)*c.inC+grp*inCPerG+ic]
								f := filter[((oc*c.k+ky)*c.k+kx)*fC+ic]
								sum += float64(x) * float64(f)
							}
						}
					}
					out[((n*outH+oy)*outW+ox)*c.outC+oc] = float32(sum)
				}
			}
		}
	}
	return out
}

// runDirect fills buffers deterministically and runs DirectKernel.
func runDirect(c convCase) (got, want []float32) {
	outDims, inDims, filterDims, biasDims := c.dims()
	in := randomFill(inDims, nil)
	filter := randomFill(filterDims, nil)
	// Different data from the filter so the bias is not a filter prefix.
	bias := make([]float32, biasDims.Size())
	for i := range bias {
		bias[i] = float32(i%7) * 0.125
	}
	out := randomFill(outDims, nil)

	DirectKernel{}.Convolve(out, in, filter, bias, outDims, inDims, filterDims, biasDims,
		[2]int{c.k, c.k}, [2]int{c.stride, c.stride}, [2]int{c.pad, c.pad},
		c.group, c.unroll)

	return out, referenceConv(c, in, filter, bias)
}

func assertClose(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length %d, want %d", len(got), len(want))
	}
	for i := range want {
		diff := math.Abs(float64(got[i]) - float64(want[i]))
		if diff > tol*(1+math.Abs(float64(want[i]))) {
			t.Fatalf("out[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDirectKernelMatchesReference(t *testing.T) {
	cases := []convCase{
		// Dense, scalar reduction path.
		{n: 1, h: 5, w: 5, inC: 1, outC: 1, k: 3, stride: 1, group: 1, unroll: 1},
		{n: 2, h: 8, w: 8, inC: 3, outC: 8, k: 3, stride: 2, group: 1, unroll: 4},
		// Dense, SIMD reduction path.
		{n: 2, h: 6, w: 6, inC: 32, outC: 8, k: 1, stride: 1, group: 1, unroll: 4},
		{n: 1, h: 7, w: 7, inC: 24, outC: 5, k: 3, stride: 1, group: 1, unroll: 3},
		// Grouped.
		{n: 1, h: 6, w: 6, inC: 8, outC: 8, k: 3, stride: 1, group: 4, unroll: 4},
		{n: 2, h: 4, w: 4, inC: 64, outC: 32, k: 1, stride: 1, group: 2, unroll: 4},
		// Group that cannot split the channels runs dense.
		{n: 3, h: 6, w: 6, inC: 1, outC: 1, k: 3, stride: 1, group: 4, unroll: 4},
		{n: 1, h: 6, w: 6, inC: 3, outC: 8, k: 3, stride: 2, group: 4, unroll: 4},
		// Padding and odd unroll remainders.
		{n: 1, h: 5, w: 5, inC: 4, outC: 6, k: 3, stride: 1, pad: 1, group: 1, unroll: 4},
		{n: 1, h: 9, w: 9, inC: 2, outC: 3, k: 3, stride: 2, pad: 1, group: 1, unroll: 0},
	}

	for _, c := range cases {
		t.Run(c.String(), func(t *testing.T) {
			got, want := runDirect(c)
			assertClose(t, got, want, 1e-3)
		})
	}
}

func TestDirectKernelKnownValues(t *testing.T) {
	// 4x4 single channel, 3x3 box filter of ones, bias 1: each output is
	// one plus the sum of its 3x3 window.
	in := make([]float32, 16)
	for i := range in {
		in[i] = float32(i + 1)
	}
	filter := make([]float32, 9)
	for i := range filter {
		filter[i] = 1
	}
	bias := []float32{1}
	out := make([]float32, 4)

	DirectKernel{}.Convolve(out, in, filter, bias,
		NewDims(1, 2, 2, 1), NewDims(1, 4, 4, 1), NewDims(1, 3, 3, 1), NewDims(1),
		[2]int{3, 3}, [2]int{1, 1}, [2]int{0, 0}, 1, 1)

	want := []float32{1 + 54, 1 + 63, 1 + 90, 1 + 99}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestDirectKernelShortBufferPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for short input buffer")
		}
	}()

	DirectKernel{}.Convolve(make([]float32, 4), make([]float32, 3), make([]float32, 9), []float32{0},
		NewDims(1, 2, 2, 1), NewDims(1, 4, 4, 1), NewDims(1, 3, 3, 1), NewDims(1),
		[2]int{3, 3}, [2]int{1, 1}, [2]int{0, 0}, 1, 1)
}

func BenchmarkDirectKernel(b *testing.B) {
	shapes := []struct {
		name string
		s    Shape
	}{
		{"pointwise_28x28_128to128", Shape{N: 1, H: 28, W: 28, InC: 128, OutC: 128, Kernel: 1, Stride: 1}},
		{"depthwise_56x56", Shape{N: 128, H: 56, W: 56, InC: 1, OutC: 1, Kernel: 3, Stride: 1}},
		{"first_56x56_3to32", Shape{N: 1, H: 56, W: 56, InC: 3, OutC: 32, Kernel: 3, Stride: 2}},
	}

	for _, tc := range shapes {
		b.Run(tc.name, func(b *testing.B) {
			cb := tc.s.Bench(DirectKernel{})
			cb.Setup()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				cb.Run()
			}
			b.ReportMetric(cb.GFLOPs()*float64(b.N)/b.Elapsed().Seconds(), "gflops/s")
		})
	}
}
