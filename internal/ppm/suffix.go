package ppm

// Suffix identifies a context by the literal bytes immediately preceding
// the coding position: Lo packs bytes 0..7 (most recent first in the low
// byte), Hi packs bytes 8..15. Since MaxOrder is 8, Hi is always zero in
// this build, but the two-word shape is kept so a future order increase
// needs no change to the key type, mirroring the Suffix union in
// pzip-0.83's hash.c (._0_to_7 / ._8_to_F).
//
// Using the literal contiguous run-up bytes (rather than the original's
// order-6..8 "pack non-adjacent bytes to extend the horizon" trick) means
// this format owes the original encoder no bit-for-bit compatibility,
// which the spec lists as an explicit non-goal.
type Suffix struct {
	Lo, Hi uint64
}

// suffixAt builds the Suffix for an n-byte context (2 <= n <= MaxOrder)
// out of the n bytes immediately preceding hist[pos].
func suffixAt(hist []byte, pos, n int) Suffix {
	var s Suffix
	for i := 0; i < n && i < 8; i++ {
		s.Lo |= uint64(hist[pos-1-i]) << (8 * uint(i))
	}
	for i := 8; i < n; i++ {
		s.Hi |= uint64(hist[pos-1-i]) << (8 * uint(i-8))
	}
	return s
}
