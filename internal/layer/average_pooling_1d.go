package layer

import (
	"fmt"

	"github.com/born-ml/pocket/internal/parallel"
	"github.com/born-ml/pocket/internal/serialization"
	"github.com/born-ml/pocket/internal/simd"
)

// AveragePooling1D shrinks a (steps, features) tensor along the steps axis by
// an integer pool factor p. Each output row is the mean of p consecutive
// input rows, per feature.
//
// Input shape:  [steps, features]
// Output shape: [steps / p, features]
//
// When p does not divide steps, the trailing steps % p rows are dropped
// (valid padding). Inputs with fewer than p steps are rejected.
//
// Example (p=2):
//
//	Input: [[1,2],    Output: [[2,3],
//	        [3,4],             [6,7]]
//	        [5,6],
//	        [7,8]]
type AveragePooling1D struct {
	poolSize int
}

// NewAveragePooling1D creates the layer. poolSize must be positive.
func NewAveragePooling1D(poolSize int) (*AveragePooling1D, error) {
	if poolSize <= 0 {
		return nil, fmt.Errorf("%w: pool size %d (must be > 0)", ErrInvalidParameter, poolSize)
	}
	return &AveragePooling1D{poolSize: poolSize}, nil
}

// ReadAveragePooling1D decodes the layer's single uint32 pool size field.
func ReadAveragePooling1D(r *serialization.Reader) (*AveragePooling1D, error) {
	poolSize, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("pool size parse failed: %w", err)
	}
	return NewAveragePooling1D(int(poolSize))
}

// PoolSize returns the pool factor.
func (l *AveragePooling1D) PoolSize() int {
	return l.poolSize
}

// Kind implements Layer.
func (l *AveragePooling1D) Kind() Kind {
	return KindAveragePooling1D
}

// Encode implements Encoder.
func (l *AveragePooling1D) Encode(w Writer) {
	w.PutUint32(uint32(l.poolSize))
}

// Apply implements Layer.
func (l *AveragePooling1D) Apply(d Data) error {
	dims := d.In.Dims()
	if len(dims) != 2 {
		return shapeError(KindAveragePooling1D, dims, "input tensor dims count must be 2")
	}

	steps, features := dims[0], dims[1]
	p := l.poolSize
	if steps < p {
		return shapeError(KindAveragePooling1D, dims, "steps must be at least the pool size %d", p)
	}
	if features <= 0 {
		return shapeError(KindAveragePooling1D, dims, "features must be > 0")
	}

	outSteps := steps / p
	d.Out.Resize(outSteps, features)

	adder := adderFor(d.Dispatcher, features)
	in := d.In.Data()
	out := d.Out.Data()
	window := p * features
	div := float32(p)

	parallel.For(d.Dispatcher, outSteps, func(begin, end int) {
		for i := begin; i < end; i++ {
			row := out[i*features : (i+1)*features]
			src := in[i*window : (i+1)*window]

			clear(row)
			for k := 0; k < p; k++ {
				adder.Add(row, src[k*features:(k+1)*features])
			}
			simd.Div(row, div)
		}
	})

	return nil
}
