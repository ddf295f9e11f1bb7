package ppm

// EncodeOrderMinusOne (C3) codes symbol under a flat distribution over
// the charCount possible byte values, with any currently excluded
// symbols skipped. This is the model of last resort: every higher-order
// context has escaped, so every remaining unexcluded symbol is treated
// as equally likely.
func EncodeOrderMinusOne(c *Coder, symbol, charCount int, excl *ExcludedSymbols) {
	low := 0
	for i := 0; i < symbol; i++ {
		if !excl.Contains(i) {
			low++
		}
	}
	total := low + 1
	for i := symbol + 1; i < charCount; i++ {
		if !excl.Contains(i) {
			total++
		}
	}
	c.Encode1ofN(uint32(low), uint32(low+1), uint32(total))
}

// DecodeOrderMinusOne is the mirror of EncodeOrderMinusOne.
func DecodeOrderMinusOne(c *Coder, charCount int, excl *ExcludedSymbols) int {
	total := 0
	for i := 0; i < charCount; i++ {
		if !excl.Contains(i) {
			total++
		}
	}

	target := int(c.Get1ofN(uint32(total)))
	c.Decode1ofN(uint32(target), uint32(target+1), uint32(total))

	symbol := 0
	for {
		for excl.Contains(symbol) {
			symbol++
		}
		if target == 0 {
			return symbol
		}
		symbol++
		target--
	}
}
