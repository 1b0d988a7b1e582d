package main

import (
	"fmt"
	"strings"
)

// Dims is a tensor shape descriptor: one extent per logical axis.
//
// Layouts used by the convolution contract:
//
//	input, output: [N, H, W, C]
//	filter:        [OutC, KH, KW, InC]
//	bias:          [OutC]
//
// A Dims is never modified after construction; use NewDims to take a
// private copy of a caller's slice.
type Dims []int

// NewDims copies extents into a new Dims.
// Panics on a negative extent; shape errors are programmer bugs.
func NewDims(extents ...int) Dims {
	d := make(Dims, len(extents))
	for i, e := range extents {
		if e < 0 {
			panic(fmt.Sprintf("dims: extent[%d] must be non-negative, got %d", i, e))
		}
		d[i] = e
	}
	return d
}

// Size returns the product of the extents, which is the buffer length a
// tensor of this shape needs. A zero extent gives a zero size.
func (d Dims) Size() int {
	size := 1
	for _, e := range d {
		size *= e
	}
	return size
}

// String formats d as (a, b, c, d).
func (d Dims) String() string {
	parts := make([]string, len(d))
	for i, e := range d {
		parts[i] = fmt.Sprint(e)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
