// Package simd provides width-graded float32 arithmetic used by layer kernels.
//
// Three interchangeable tiers accumulate one block into another: scalar (one
// element per step), vector (one lane group of W elements per step) and
// double-vector (two lane groups per step). W is the host's native float32
// SIMD lane count. All tiers produce identical results for every length; the
// tier only changes how the loop is blocked.
package simd

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
)

var (
	lanesOnce sync.Once
	lanes     int
)

// Lanes returns the number of float32 values a single SIMD register holds on
// this host: 16 with AVX-512, 8 with AVX, otherwise 4 (SSE2, NEON).
func Lanes() int {
	lanesOnce.Do(func() {
		lanes = detectLanes()
	})
	return lanes
}

func detectLanes() int {
	switch runtime.GOARCH {
	case "amd64", "386":
		switch {
		case cpu.X86.HasAVX512F:
			return 16
		case cpu.X86.HasAVX:
			return 8
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			return 4
		}
	}
	return 4
}

// Features describes the host CPU for diagnostics.
func Features() string {
	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = runtime.GOARCH
	}
	return fmt.Sprintf("%s (%d float32 lanes, %d logical cores)", brand, Lanes(), runtime.NumCPU())
}
