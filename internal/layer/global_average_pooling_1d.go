package layer

import (
	"github.com/born-ml/pocket/internal/parallel"
	"github.com/born-ml/pocket/internal/serialization"
	"github.com/born-ml/pocket/internal/simd"
)

// GlobalAveragePooling1D collapses a (steps, features) tensor along the steps
// axis into a vector holding the mean of each feature column.
//
// Input shape:  [steps, features]
// Output shape: [features]
type GlobalAveragePooling1D struct{}

// NewGlobalAveragePooling1D creates the layer.
func NewGlobalAveragePooling1D() *GlobalAveragePooling1D {
	return &GlobalAveragePooling1D{}
}

// ReadGlobalAveragePooling1D decodes the layer. It has no fields and always
// succeeds.
func ReadGlobalAveragePooling1D(_ *serialization.Reader) (*GlobalAveragePooling1D, error) {
	return NewGlobalAveragePooling1D(), nil
}

// Kind implements Layer.
func (l *GlobalAveragePooling1D) Kind() Kind {
	return KindGlobalAveragePooling1D
}

// Encode implements Encoder.
func (l *GlobalAveragePooling1D) Encode(Writer) {}

// Apply implements Layer.
func (l *GlobalAveragePooling1D) Apply(d Data) error {
	dims := d.In.Dims()
	if len(dims) != 2 {
		return shapeError(KindGlobalAveragePooling1D, dims, "input tensor dims count must be 2")
	}

	steps, features := dims[0], dims[1]
	if steps <= 0 || features <= 0 {
		return shapeError(KindGlobalAveragePooling1D, dims, "steps and features must be > 0")
	}

	d.Out.Resize(features)

	adder := adderFor(d.Dispatcher, features)
	in := d.In.Data()
	out := d.Out.Data()
	div := float32(steps)

	// Each task owns the feature columns [begin, end) and sums them row by row.
	parallel.For(d.Dispatcher, features, func(begin, end int) {
		acc := out[begin:end]
		clear(acc)
		for i := 0; i < steps; i++ {
			row := i * features
			adder.Add(acc, in[row+begin:row+end])
		}
		simd.Div(acc, div)
	})

	return nil
}
