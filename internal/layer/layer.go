// Package layer implements the forward-computation units of a model.
//
// Every layer satisfies the same contract: Apply validates the input tensor
// of a Data context, resizes the output tensor, and fills it using the shared
// Dispatcher. Validation happens before any work is dispatched so that
// worker tasks never encounter a failure.
//
// Supported layers:
//   - Dense: fully connected layer over the last dimension
//   - Activation: element-wise activation function
//   - AveragePooling1D: mean over fixed windows of steps
//   - GlobalAveragePooling1D: mean over all steps
package layer

import (
	"errors"
	"fmt"

	"github.com/born-ml/pocket/internal/parallel"
	"github.com/born-ml/pocket/internal/simd"
	"github.com/born-ml/pocket/internal/tensor"
)

// Kind is the type tag that precedes a layer's fields in the model stream.
type Kind uint32

// Layer kinds.
const (
	KindDense                  Kind = 1
	KindActivation             Kind = 2
	KindAveragePooling1D       Kind = 3
	KindGlobalAveragePooling1D Kind = 4
)

// String returns the layer type name.
func (k Kind) String() string {
	switch k {
	case KindDense:
		return "Dense"
	case KindActivation:
		return "Activation"
	case KindAveragePooling1D:
		return "AveragePooling1D"
	case KindGlobalAveragePooling1D:
		return "GlobalAveragePooling1D"
	default:
		return fmt.Sprintf("Kind(%d)", uint32(k))
	}
}

// Data is the execution context of one pipeline step. It references the
// step's input and output tensors and the model's dispatcher; it owns none
// of them and is discarded after the step.
type Data struct {
	In         *tensor.Tensor
	Out        *tensor.Tensor
	Dispatcher *parallel.Dispatcher
}

// Layer is a single forward-computation unit.
//
// Apply reads d.In, resizes and writes d.Out, and returns a non-nil error if
// the input is not acceptable. On error d.Out must not be consumed. Layers
// are immutable after construction and safe to apply repeatedly.
type Layer interface {
	Kind() Kind
	Apply(d Data) error
}

// Encoder is implemented by layers that can write their fields back to the
// model stream (after the kind tag).
type Encoder interface {
	Encode(w Writer)
}

// Writer is the subset of serialization.Writer used by Encode.
type Writer interface {
	PutUint32(v uint32)
	PutFloat32s(vs []float32)
}

// Common errors.
var (
	ErrInvalidShape     = errors.New("invalid input shape")
	ErrInvalidParameter = errors.New("invalid layer parameter")
	ErrUnknownKind      = errors.New("unknown layer kind")
)

// ShapeError reports an input tensor a layer cannot process.
type ShapeError struct {
	Layer  Kind         // Layer that rejected the input
	Dims   tensor.Shape // Offending input dimensions
	Reason string       // Human-readable constraint
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s (input dims: %v)", e.Layer, e.Reason, e.Dims)
}

// Unwrap returns ErrInvalidShape so callers can use errors.Is.
func (e *ShapeError) Unwrap() error {
	return ErrInvalidShape
}

func shapeError(k Kind, dims tensor.Shape, format string, args ...any) error {
	return &ShapeError{Layer: k, Dims: dims.Clone(), Reason: fmt.Sprintf(format, args...)}
}

// adderFor picks the arithmetic tier once per Apply from the per-thread
// share of the feature dimension.
func adderFor(d *parallel.Dispatcher, features int) simd.Adder {
	return simd.Select(features/d.Threads(), simd.Lanes(), d.Unroll())
}
