package layer

import (
	"fmt"
	"math"

	"github.com/born-ml/pocket/internal/parallel"
	"github.com/born-ml/pocket/internal/serialization"
)

// ActivationFunc identifies an element-wise activation function.
type ActivationFunc uint32

// Supported activation functions (stream ids).
const (
	Linear      ActivationFunc = 1
	ReLU        ActivationFunc = 2
	Sigmoid     ActivationFunc = 3
	Tanh        ActivationFunc = 4
	Softplus    ActivationFunc = 5
	HardSigmoid ActivationFunc = 6
)

// String returns the Keras name of the function.
func (f ActivationFunc) String() string {
	switch f {
	case Linear:
		return "linear"
	case ReLU:
		return "relu"
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	case Softplus:
		return "softplus"
	case HardSigmoid:
		return "hard_sigmoid"
	default:
		return fmt.Sprintf("ActivationFunc(%d)", uint32(f))
	}
}

func (f ActivationFunc) kernel() func(float32) float32 {
	switch f {
	case Linear:
		return func(x float32) float32 { return x }
	case ReLU:
		return func(x float32) float32 { return max(x, 0) }
	case Sigmoid:
		return func(x float32) float32 { return float32(1 / (1 + math.Exp(-float64(x)))) }
	case Tanh:
		return func(x float32) float32 { return float32(math.Tanh(float64(x))) }
	case Softplus:
		return func(x float32) float32 {
			if x > 20 {
				return x // log1p(exp(x)) == x at float32 precision
			}
			return float32(math.Log1p(math.Exp(float64(x))))
		}
	case HardSigmoid:
		return func(x float32) float32 { return min(max(0.2*x+0.5, 0), 1) }
	default:
		return nil
	}
}

// Activation applies an activation function to every element.
//
// Input shape:  any rank >= 1
// Output shape: same as input
type Activation struct {
	fn     ActivationFunc
	kernel func(float32) float32
}

// NewActivation creates the layer. Unknown functions are rejected.
func NewActivation(fn ActivationFunc) (*Activation, error) {
	k := fn.kernel()
	if k == nil {
		return nil, fmt.Errorf("%w: activation %d", ErrInvalidParameter, uint32(fn))
	}
	return &Activation{fn: fn, kernel: k}, nil
}

// ReadActivation decodes the layer's uint32 function id.
func ReadActivation(r *serialization.Reader) (*Activation, error) {
	id, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("activation parse failed: %w", err)
	}
	return NewActivation(ActivationFunc(id))
}

// Func returns the activation function.
func (l *Activation) Func() ActivationFunc {
	return l.fn
}

// Kind implements Layer.
func (l *Activation) Kind() Kind {
	return KindActivation
}

// Encode implements Encoder.
func (l *Activation) Encode(w Writer) {
	w.PutUint32(uint32(l.fn))
}

// Apply implements Layer.
func (l *Activation) Apply(d Data) error {
	dims := d.In.Dims()
	if len(dims) == 0 {
		return shapeError(KindActivation, dims, "input tensor must have at least one dimension")
	}

	d.Out.Resize(dims...)
	in := d.In.Data()
	out := d.Out.Data()
	f := l.kernel

	parallel.For(d.Dispatcher, len(in), func(begin, end int) {
		for i := begin; i < end; i++ {
			out[i] = f(in[i])
		}
	})
	return nil
}
