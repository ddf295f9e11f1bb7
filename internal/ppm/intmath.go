package ppm

import (
	"math/bits"

	"github.com/klauspost/cpuid"
)

// haveBitScan records whether the host CPU exposes a hardware bit-scan
// instruction (LZCNT/BSR-family). The original C used an MSVC inline-asm
// fast path on machines that had one and a portable loop-based fallback
// everywhere else; cpuid.CPU gives us the same fork in pure Go, since
// math/bits.Len already compiles to the hardware instruction when the
// target supports it.
var haveBitScan = cpuid.CPU.BMI1() || cpuid.CPU.BMI2()

// floorLog2 returns floor(log2(v)) for v >= 1. Two code paths are kept,
// mirroring the original's hardware/portable split, even though in Go
// both ultimately bottom out in math/bits: the hardware path trusts
// bits.Len directly, the portable path walks bit-by-bit the way the
// table-free fallback in intmath.c does.
func floorLog2(v uint32) int {
	if haveBitScan {
		return bits.Len32(v) - 1
	}
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// ilog2round returns round(log2(v)) for v >= 1 (and 0 for v == 0),
// matching the original's ilog2round/ilog2round_tab: compute the floor
// log2, then normalize v into the 17-bit mantissa window [65536,
// 131072) and round up whenever that mantissa, read as a value in
// [1, 2), is at least sqrt(2), the usual rule for rounding a log to the nearest integer
// rather than truncating it.
func ilog2round(v uint32) int {
	if v == 0 {
		return 0
	}
	u := floorLog2(v)

	var frac uint32
	switch {
	case u < 16:
		frac = v << uint(16-u)
	case u > 16:
		frac = v >> uint(u-16)
	default:
		frac = v
	}

	const sqrt2Times65536 = 92682
	if frac >= sqrt2Times65536 {
		u++
	}
	return u
}

// ilog2floor returns floor(log2(v)) for v >= 1.
func ilog2floor(v uint32) int {
	if v == 0 {
		return 0
	}
	return floorLog2(v)
}

// ilog2ceil returns ceil(log2(v)) for v >= 1.
func ilog2ceil(v uint32) int {
	if v <= 1 {
		return 0
	}
	return floorLog2(v-1) + 1
}

// intlog2rBits is the rounded-log2 lookup table for an 8-bit mantissa,
// used only by intlog2r below. Kept as its own table (rather than
// reusing ilog2round) because the escape predictor (det_escape.c) was
// tuned against this exact table, distinct from the one SEE (see.go)
// uses — merging them would subtly change both modules' behavior.
var intlog2rBits = [256]uint8{
	0, 0, 1, 2, 2, 2, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5,
	6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6,
	6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
	8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
	8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
	8, 8, 8, 8, 8,
}

// intlog2r returns a rounded log2 of n across the full uint32 range, by
// finding which byte of n holds its most significant bit and looking up
// that byte's fine-grained rounding correction in intlog2rBits.
func intlog2r(n uint32) int {
	switch {
	case n>>16 != 0:
		if n>>24 != 0 {
			return 24 + int(intlog2rBits[n>>24])
		}
		return 16 + int(intlog2rBits[n>>16])
	default:
		if n>>8 != 0 {
			return 8 + int(intlog2rBits[n>>8])
		}
		return int(intlog2rBits[n])
	}
}
