// Package cpuid reports what the processor says about itself, as a
// second cross-check against probed values. It shares nothing with the
// probing core: the point of probing is to observe behavior, and the
// point of this package is to show the datasheet next to it.
package cpuid

import (
	"github.com/klauspost/cpuid/v2"
)

// Info holds the processor's self-reported identity and cache geometry.
// Values the processor does not report are zero.
type Info struct {
	Brand    string
	LineSize int
	L1Data   int
	L1Inst   int
	L2       int
	L3       int
}

// Describe reads the processor's identification leaves.
func Describe() Info {
	cpu := cpuid.CPU

	return Info{
		Brand:    cpu.BrandName,
		LineSize: known(cpu.CacheLine),
		L1Data:   known(cpu.Cache.L1D),
		L1Inst:   known(cpu.Cache.L1I),
		L2:       known(cpu.Cache.L2),
		L3:       known(cpu.Cache.L3),
	}
}

// known maps the library's -1 unknown marker to 0.
func known(v int) int {
	if v < 0 {
		return 0
	}

	return v
}
