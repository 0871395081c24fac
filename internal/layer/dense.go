package layer

import (
	"fmt"

	"github.com/born-ml/pocket/internal/parallel"
	"github.com/born-ml/pocket/internal/serialization"
)

// Dense is a fully connected layer applied over the last dimension:
// y = x @ W + b.
//
// Input shape:  [inputs] or [rows, inputs]
// Output shape: [units]  or [rows, units]
type Dense struct {
	inputs  int
	units   int
	weights []float32 // [inputs, units], row-major
	biases  []float32 // [units]
}

// NewDense creates the layer from row-major [inputs, units] weights and
// [units] biases. The slices are copied.
func NewDense(inputs, units int, weights, biases []float32) (*Dense, error) {
	if inputs <= 0 || units <= 0 {
		return nil, fmt.Errorf("%w: dense dims %dx%d (must be > 0)", ErrInvalidParameter, inputs, units)
	}
	if len(weights) != inputs*units {
		return nil, fmt.Errorf("%w: dense weights length %d, expected %d", ErrInvalidParameter, len(weights), inputs*units)
	}
	if len(biases) != units {
		return nil, fmt.Errorf("%w: dense biases length %d, expected %d", ErrInvalidParameter, len(biases), units)
	}

	return &Dense{
		inputs:  inputs,
		units:   units,
		weights: append([]float32(nil), weights...),
		biases:  append([]float32(nil), biases...),
	}, nil
}

// ReadDense decodes inputs, units, weights and biases.
func ReadDense(r *serialization.Reader) (*Dense, error) {
	inputs, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("inputs parse failed: %w", err)
	}
	units, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("units parse failed: %w", err)
	}
	if inputs == 0 || units == 0 {
		return nil, fmt.Errorf("%w: dense dims %dx%d (must be > 0)", ErrInvalidParameter, inputs, units)
	}
	if err := serialization.ValidateParameterCount("weights", uint64(inputs)*uint64(units)); err != nil {
		return nil, err
	}

	weights, err := r.ReadFloat32s(int(inputs) * int(units))
	if err != nil {
		return nil, fmt.Errorf("weights parse failed: %w", err)
	}
	biases, err := r.ReadFloat32s(int(units))
	if err != nil {
		return nil, fmt.Errorf("biases parse failed: %w", err)
	}

	return &Dense{
		inputs:  int(inputs),
		units:   int(units),
		weights: weights,
		biases:  biases,
	}, nil
}

// Inputs returns the expected size of the input's last dimension.
func (l *Dense) Inputs() int {
	return l.inputs
}

// Units returns the size of the output's last dimension.
func (l *Dense) Units() int {
	return l.units
}

// Kind implements Layer.
func (l *Dense) Kind() Kind {
	return KindDense
}

// Encode implements Encoder.
func (l *Dense) Encode(w Writer) {
	w.PutUint32(uint32(l.inputs))
	w.PutUint32(uint32(l.units))
	w.PutFloat32s(l.weights)
	w.PutFloat32s(l.biases)
}

// Apply implements Layer.
func (l *Dense) Apply(d Data) error {
	dims := d.In.Dims()
	if len(dims) != 1 && len(dims) != 2 {
		return shapeError(KindDense, dims, "input tensor dims count must be 1 or 2")
	}
	if dims[len(dims)-1] != l.inputs {
		return shapeError(KindDense, dims, "last dimension must be %d", l.inputs)
	}

	adder := adderFor(d.Dispatcher, l.units)
	in := d.In.Data()
	units := l.units

	if len(dims) == 1 {
		// Single sample: split the output units across threads.
		d.Out.Resize(units)
		out := d.Out.Data()
		parallel.For(d.Dispatcher, units, func(begin, end int) {
			o := out[begin:end]
			copy(o, l.biases[begin:end])
			for k, x := range in {
				row := k * units
				adder.AddScaled(o, l.weights[row+begin:row+end], x)
			}
		})
		return nil
	}

	rows := dims[0]
	d.Out.Resize(rows, units)
	out := d.Out.Data()
	parallel.For(d.Dispatcher, rows, func(begin, end int) {
		for r := begin; r < end; r++ {
			o := out[r*units : (r+1)*units]
			x := in[r*l.inputs : (r+1)*l.inputs]
			copy(o, l.biases)
			for k, v := range x {
				adder.AddScaled(o, l.weights[k*units:(k+1)*units], v)
			}
		}
	})
	return nil
}
