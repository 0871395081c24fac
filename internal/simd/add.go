package simd

// Tier identifies an arithmetic width tier.
type Tier int

// Supported tiers, narrowest first.
const (
	Scalar Tier = iota
	Vector
	Vector2
)

// String returns a human-readable tier name.
func (t Tier) String() string {
	switch t {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	case Vector2:
		return "vector2"
	default:
		return "unknown"
	}
}

// Adder accumulates a source block into a destination block element-wise.
//
// Both methods touch dst[0:len(dst)] and read the same positions of src;
// src must be at least as long as dst.
type Adder interface {
	// Add computes dst[i] += src[i].
	Add(dst, src []float32)

	// AddScaled computes dst[i] += s * src[i].
	AddScaled(dst, src []float32, s float32)

	// Tier reports which width tier the adder implements.
	Tier() Tier
}

// ScalarAdd processes one element per step.
type ScalarAdd struct{}

// Add implements Adder.
func (ScalarAdd) Add(dst, src []float32) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] += src[i]
	}
}

// AddScaled implements Adder.
func (ScalarAdd) AddScaled(dst, src []float32, s float32) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] += s * src[i]
	}
}

// Tier implements Adder.
func (ScalarAdd) Tier() Tier { return Scalar }

// VectorAdd processes one lane group of Lanes elements per step and finishes
// the tail element-wise.
type VectorAdd struct {
	Lanes int
}

// Add implements Adder.
func (a VectorAdd) Add(dst, src []float32) {
	w := max(a.Lanes, 1)
	n := len(dst) - len(dst)%w
	for i := 0; i < n; i += w {
		d := dst[i : i+w : i+w]
		s := src[i : i+w : i+w]
		for j := range d {
			d[j] += s[j]
		}
	}
	ScalarAdd{}.Add(dst[n:], src[n:])
}

// AddScaled implements Adder.
func (a VectorAdd) AddScaled(dst, src []float32, s float32) {
	w := max(a.Lanes, 1)
	n := len(dst) - len(dst)%w
	for i := 0; i < n; i += w {
		d := dst[i : i+w : i+w]
		x := src[i : i+w : i+w]
		for j := range d {
			d[j] += s * x[j]
		}
	}
	ScalarAdd{}.AddScaled(dst[n:], src[n:], s)
}

// Tier implements Adder.
func (VectorAdd) Tier() Tier { return Vector }

// Vector2Add processes two lane groups per step, halving loop overhead
// relative to VectorAdd, and finishes the tail with VectorAdd.
type Vector2Add struct {
	Lanes int
}

// Add implements Adder.
func (a Vector2Add) Add(dst, src []float32) {
	w := max(a.Lanes, 1)
	step := 2 * w
	n := len(dst) - len(dst)%step
	for i := 0; i < n; i += step {
		d0 := dst[i : i+w : i+w]
		s0 := src[i : i+w : i+w]
		d1 := dst[i+w : i+step : i+step]
		s1 := src[i+w : i+step : i+step]
		for j := range d0 {
			d0[j] += s0[j]
			d1[j] += s1[j]
		}
	}
	VectorAdd{Lanes: w}.Add(dst[n:], src[n:])
}

// AddScaled implements Adder.
func (a Vector2Add) AddScaled(dst, src []float32, s float32) {
	w := max(a.Lanes, 1)
	step := 2 * w
	n := len(dst) - len(dst)%step
	for i := 0; i < n; i += step {
		d0 := dst[i : i+w : i+w]
		x0 := src[i : i+w : i+w]
		d1 := dst[i+w : i+step : i+step]
		x1 := src[i+w : i+step : i+step]
		for j := range d0 {
			d0[j] += s * x0[j]
			d1[j] += s * x1[j]
		}
	}
	VectorAdd{Lanes: w}.AddScaled(dst[n:], src[n:], s)
}

// Tier implements Adder.
func (Vector2Add) Tier() Tier { return Vector2 }

// Select picks the widest tier whose block evenly divides threadSize, the
// per-thread share of the feature dimension. The double-vector tier is only
// considered when unroll is set. The choice is a throughput heuristic: every
// tier is correct for any length.
func Select(threadSize, lanes int, unroll bool) Adder {
	lanes = max(lanes, 1)
	switch {
	case unroll && threadSize > 0 && threadSize%(2*lanes) == 0:
		return Vector2Add{Lanes: lanes}
	case threadSize > 0 && threadSize%lanes == 0:
		return VectorAdd{Lanes: lanes}
	default:
		return ScalarAdd{}
	}
}

// Div divides every element of dst by d.
func Div(dst []float32, d float32) {
	for i := range dst {
		dst[i] /= d
	}
}
