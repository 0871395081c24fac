package simd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSlice(rng *rand.Rand, n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = rng.Float32()*20 - 10
	}
	return s
}

func allAdders() []Adder {
	return []Adder{
		ScalarAdd{},
		VectorAdd{Lanes: 4},
		VectorAdd{Lanes: 8},
		VectorAdd{Lanes: 16},
		Vector2Add{Lanes: 4},
		Vector2Add{Lanes: 8},
		Vector2Add{Lanes: 16},
	}
}

// TestAdders_EquivalentForAllLengths checks every tier against the scalar
// reference, including lengths that are not multiples of the lane count.
func TestAdders_EquivalentForAllLengths(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for n := 0; n <= 67; n++ {
		src := randomSlice(rng, n)
		base := randomSlice(rng, n)

		want := append([]float32(nil), base...)
		ScalarAdd{}.Add(want, src)

		for _, a := range allAdders() {
			got := append([]float32(nil), base...)
			a.Add(got, src)
			require.Equal(t, want, got, "n=%d adder=%#v", n, a)
		}
	}
}

func TestAdders_AddScaled(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for n := 0; n <= 67; n++ {
		src := randomSlice(rng, n)
		base := randomSlice(rng, n)

		for _, a := range allAdders() {
			got := append([]float32(nil), base...)
			a.AddScaled(got, src, 0.5)
			for i := range got {
				require.InDelta(t, base[i]+0.5*src[i], got[i], 1e-5, "n=%d i=%d adder=%#v", n, i, a)
			}
		}
	}
}

func TestAdders_LongerSourceIsIgnored(t *testing.T) {
	for _, a := range allAdders() {
		dst := []float32{1, 1, 1}
		src := []float32{1, 2, 3, 100, 100}
		a.Add(dst, src)
		assert.Equal(t, []float32{2, 3, 4}, dst, "%#v", a)
	}
}

func TestAdders_Tier(t *testing.T) {
	assert.Equal(t, Scalar, ScalarAdd{}.Tier())
	assert.Equal(t, Vector, VectorAdd{Lanes: 8}.Tier())
	assert.Equal(t, Vector2, Vector2Add{Lanes: 8}.Tier())

	assert.Equal(t, "scalar", Scalar.String())
	assert.Equal(t, "vector", Vector.String())
	assert.Equal(t, "vector2", Vector2.String())
	assert.Equal(t, "unknown", Tier(42).String())
}

func TestSelect(t *testing.T) {
	tests := []struct {
		threadSize int
		lanes      int
		unroll     bool
		want       Tier
	}{
		{0, 8, true, Scalar},
		{3, 8, true, Scalar},
		{8, 8, true, Vector},
		{16, 8, true, Vector2},
		{16, 8, false, Vector},
		{24, 8, true, Vector},
		{32, 8, true, Vector2},
		{12, 4, true, Vector},
		{8, 4, true, Vector2},
		{17, 16, true, Scalar},
		{5, 0, false, Vector}, // lanes clamped to 1
	}

	for _, tt := range tests {
		got := Select(tt.threadSize, tt.lanes, tt.unroll)
		assert.Equal(t, tt.want, got.Tier(), "Select(%d, %d, %v)", tt.threadSize, tt.lanes, tt.unroll)
	}
}

func TestDiv(t *testing.T) {
	dst := []float32{2, 4, 9}
	Div(dst, 2)
	assert.Equal(t, []float32{1, 2, 4.5}, dst)
}

func TestLanes(t *testing.T) {
	w := Lanes()
	assert.Contains(t, []int{4, 8, 16}, w)
	assert.Equal(t, w, Lanes(), "detection is stable")
	assert.NotEmpty(t, Features())
}

func BenchmarkAdd(b *testing.B) {
	rng := rand.New(rand.NewSource(3))
	src := randomSlice(rng, 4096)
	dst := randomSlice(rng, 4096)

	for _, a := range []Adder{ScalarAdd{}, VectorAdd{Lanes: Lanes()}, Vector2Add{Lanes: Lanes()}} {
		b.Run(a.Tier().String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				a.Add(dst, src)
			}
		})
	}
}
