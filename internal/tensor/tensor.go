// Package tensor provides the dense float32 tensor used by the inference engine.
package tensor

import "fmt"

// Tensor is a dense n-dimensional array of float32 values stored row-major
// (last dimension fastest-varying) in one contiguous buffer.
//
// The buffer length always equals the product of the dimensions. A Tensor is
// owned by exactly one pipeline step at a time; it is not safe for concurrent
// mutation except through disjoint index ranges.
type Tensor struct {
	dims   Shape
	stride []int
	data   []float32
}

// New creates a zero-filled tensor with the given dimensions.
// Panics if any dimension is negative.
//
// Example:
//
//	t := tensor.New(4, 2) // 4 steps x 2 features
func New(dims ...int) *Tensor {
	t := &Tensor{}
	t.Resize(dims...)
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, dims ...int) (*Tensor, error) {
	shape := Shape(dims)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	t := &Tensor{}
	t.Resize(dims...)
	copy(t.data, data)
	return t, nil
}

// Resize replaces the tensor's dimensions and storage so it holds the product
// of the given extents. The existing backing array is reused when it is large
// enough, so element values are unspecified until Fill or explicit writes.
//
// Panics on a negative extent.
func (t *Tensor) Resize(dims ...int) {
	n := 1
	for i, dim := range dims {
		if dim < 0 {
			panic(fmt.Sprintf("tensor: negative extent %d at dimension %d", dim, i))
		}
		n *= dim
	}

	t.dims = Shape(dims).Clone()
	t.stride = t.dims.ComputeStrides()
	if cap(t.data) >= n {
		t.data = t.data[:n]
	} else {
		t.data = make([]float32, n)
	}
}

// Fill overwrites every element with v.
func (t *Tensor) Fill(v float32) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Dims returns the tensor's extents. The returned shape must not be modified.
func (t *Tensor) Dims() Shape {
	return t.dims
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.dims)
}

// Size returns the total number of elements.
func (t *Tensor) Size() int {
	return len(t.data)
}

// Data returns the flat element buffer (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Offset maps a multi-index to its flat buffer offset without any bounds or
// arity checks. It is meant for hot loops whose indices were validated up front.
func (t *Tensor) Offset(indices ...int) int {
	offset := 0
	for i, idx := range indices {
		offset += idx * t.stride[i]
	}
	return offset
}

// At returns the element at the given indices.
// Panics if the number of indices does not match the rank or an index is out of bounds.
//
// Example:
//
//	v := t.At(1, 0) // step 1, feature 0
func (t *Tensor) At(indices ...int) float32 {
	return t.data[t.checkedOffset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) Set(value float32, indices ...int) {
	t.data[t.checkedOffset(indices)] = value
}

func (t *Tensor) checkedOffset(indices []int) int {
	if len(indices) != len(t.dims) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.dims), len(indices)))
	}

	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.dims[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.dims[i]))
		}
		offset += idx * t.stride[i]
	}
	return offset
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{}
	c.Resize(t.dims...)
	copy(c.data, t.data)
	return c
}

// String returns a short description such as "Tensor(4, 2)".
func (t *Tensor) String() string {
	return "Tensor" + t.dims.String()
}
