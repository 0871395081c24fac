// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the dense float32 tensors
// consumed and produced by pocket models.
//
// A Tensor stores its elements in row-major order. Strides are derived from
// the dimensions on every resize, so the flat buffer returned by Data can be
// indexed directly:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6, 7, 8}, 4, 2)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(x.At(3, 1)) // 8
package tensor

import (
	"github.com/born-ml/pocket/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{4, 2} is a matrix of 4 rows (steps) and 2 columns (features).
type Shape = tensor.Shape

// Tensor is a row-major float32 tensor with reusable storage.
//
// Resize keeps the underlying buffer when it is large enough, which lets a
// model reuse intermediate outputs across requests.
type Tensor = tensor.Tensor

// New creates a zero-filled tensor with the given dimensions.
// New() with no dimensions yields a rank-0 tensor; layers resize their output.
func New(dims ...int) *Tensor {
	return tensor.New(dims...)
}

// FromSlice wraps data as a tensor with the given dimensions.
// The data is copied; len(data) must equal the product of dims.
func FromSlice(data []float32, dims ...int) (*Tensor, error) {
	return tensor.FromSlice(data, dims...)
}
