package ppm

// Escape predictor (C5a): a dedicated escape-probability estimator used
// only by the deterministic long-context extender (deterministic.go) to
// code its single binary "did the prediction hold" event. It partitions
// (key, escape-count, call-count, follow-set-size) space three different
// ways — one coarse, two finer — and blends the three resulting
// escape/call ratios by entropy, the same blending idea SEE (see.go)
// uses for the regular context cascade, just with its own independent
// set of tables and tuning constants.
const escapePartitions = 3

var escapePartitionBits = [escapePartitions]uint{7, 15, 16}

const (
	zEscInitEsc   = 8
	zEscInitTot   = 12
	zEscInitScale = 7
	zEscEscInc    = 17
	zEscEscTotInc = 1
	zEscTotInc    = 17
)

// Escape owns the three partitions' hashed escape/call counters.
type Escape struct {
	esc [escapePartitions][]uint32
	tot [escapePartitions][]uint32
}

// NewEscape returns an Escape with every bin seeded from the (escape,
// call) counts its bin index itself encodes, exactly as the original
// recovers esc/tot from the low bits of j during escape_Create.
func NewEscape() *Escape {
	e := &Escape{}
	for i := 0; i < escapePartitions; i++ {
		n := 1 << escapePartitionBits[i]
		e.esc[i] = make([]uint32, n)
		e.tot[i] = make([]uint32, n)
		for j := 0; j < n; j++ {
			esc := uint32(j) & 0x03
			tot := (uint32(j) >> 2) & 0x07
			e.esc[i][j] = 1 + zEscInitScale*esc + zEscInitEsc
			e.tot[i][j] = 2 + zEscInitScale*tot + zEscInitTot + zEscInitEsc
		}
	}
	return e
}

type escapeBins struct {
	bin   [escapePartitions]uint32
	found bool
}

var escapeTotalCode = [13]uint32{0, 1, 2, 3, 3, 4, 4, 5, 5, 5, 6, 6, 6}

func pickEscapeBins(key uint64, escapeCount, totalSymbolsCount, followsetSize int) escapeBins {
	var x escapeBins

	totalCount := escapeCount + totalSymbolsCount

	if followsetSize > 3 {
		followsetSize = 3
	}
	if escapeCount >= 4 {
		return x
	}

	counts := uint32(escapeCount - 1)
	var total uint32
	if totalCount >= 15 {
		total = 7
	} else {
		total = escapeTotalCode[totalCount-2]
	}
	counts |= total << 2

	fs := uint32(followsetSize)
	x.bin[2] = counts | ((uint32(key)&0x7F)+((uint32(key>>13)&0x3)<<7)+(fs<<9))<<5
	x.bin[1] = counts | ((uint32(key>>5)&0x03)+((uint32(key>>13)&0x3)<<2)+((uint32(key>>21)&0x3)<<4)+((uint32(key>>29)&0x3)<<6)+(fs<<8))<<5
	x.bin[0] = counts | (fs << 5)
	x.found = true

	return x
}

type escapeEstimate struct {
	escapeCount, totalCount uint32
	bins                    escapeBins
}

func (e *Escape) estimate(key uint64, escapeCount, totalSymbolCount, followsetSize int) escapeEstimate {
	bins := pickEscapeBins(key, escapeCount, totalSymbolCount, followsetSize)

	if !bins.found {
		return escapeEstimate{
			escapeCount: uint32(escapeCount),
			totalCount:  uint32(escapeCount + totalSymbolCount),
			bins:        bins,
		}
	}

	e0, t0 := e.esc[0][bins.bin[0]], e.tot[0][bins.bin[0]]
	e1, t1 := e.esc[1][bins.bin[1]], e.tot[1][bins.bin[1]]
	e2, t2 := e.esc[2][bins.bin[2]], e.tot[2][bins.bin[2]]

	weight := func(esc, tot uint32) uint32 {
		return (1 << 16) / (tot*uint32(intlog2r(tot)) -
			esc*uint32(intlog2r(esc)) -
			(tot-esc)*uint32(intlog2r(tot-esc)) + 1)
	}

	w0, w1, w2 := weight(e0, t0), weight(e1, t1), weight(e2, t2)

	total := w0*t0 + w1*t1 + w2*t2
	escapes := w0*e0 + w1*e1 + w2*e2

	for total >= 1<<(13+8) {
		total >>= 8
		escapes >>= 8
	}
	if total >= 1<<(13+4) {
		total >>= 4
		escapes >>= 4
	}
	if total >= 1<<(13+2) {
		total >>= 2
		escapes >>= 2
	}
	if total >= 1<<(13+1) {
		total >>= 1
		escapes >>= 1
	}

	if escapes < 1 {
		escapes = 1
	}
	if total <= escapes {
		total = escapes + 1
	}

	return escapeEstimate{escapeCount: escapes, totalCount: total, bins: bins}
}

func (e *Escape) update(escape bool, x escapeEstimate) {
	if !x.bins.found {
		return
	}
	for p := escapePartitions - 1; p >= 0; p-- {
		h := x.bins.bin[p]
		if !escape {
			e.tot[p][h] += zEscTotInc
		} else {
			e.tot[p][h] += zEscEscInc + zEscEscTotInc
			e.esc[p][h] += zEscEscInc
		}
		if e.tot[p][h] > 16000 {
			e.tot[p][h] >>= 1
			e.esc[p][h] >>= 1
			if e.esc[p][h] < 1 {
				e.esc[p][h] = 1
			}
		}
	}
}

// Encode codes the binary "did the deterministic prediction hold" event.
func (e *Escape) Encode(c *Coder, key uint64, escapeCount, totalSymbolCount, followsetSize int, escape bool) {
	x := e.estimate(key, escapeCount, totalSymbolCount, followsetSize)
	e.update(escape, x)
	c.EncodeBit(x.totalCount-x.escapeCount, x.totalCount, escape)
}

// Decode is the mirror of Encode.
func (e *Escape) Decode(c *Coder, key uint64, escapeCount, totalSymbolCount, followsetSize int) bool {
	x := e.estimate(key, escapeCount, totalSymbolCount, followsetSize)
	escape := c.DecodeBit(x.totalCount-x.escapeCount, x.totalCount)
	e.update(escape, x)
	return escape
}
