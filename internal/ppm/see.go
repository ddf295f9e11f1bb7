package ppm

// Secondary Escape Estimation (C6): rather than coding every escape bit
// against one fixed probability, SEE looks up a small per-situation
// counter pair (escapes-seen, calls-seen) hashed from the coding
// context, and blends three such lookups — at three different hash
// granularities — weighted by how confident (low-entropy) each one's
// prediction currently is. This is "3-order weighting by entropy" per
// the original's own file header.
const (
	order0Bits = 9
	order1Bits = 16
	order2Bits = 23

	order0Size = 1 << order0Bits
	order1Size = 1 << order1Bits

	maxSeeEscapeCount = 3
	maxSeeTotalCount  = 64
)

// SeeState is one hashed counter-pair entry, chained to the coarser
// entry it was seeded from so getStats can blend across granularities.
type SeeState struct {
	parent         *SeeState
	seen           uint32
	escapes, total uint32
}

// See owns the three tiers of hashed counter-pair tables.
type See struct {
	order0 [order0Size]SeeState
	order1 [order1Size]SeeState
	order2 map[uint32]*SeeState
}

// seeSeedTotals maps a 3-bit quantized call-count bucket to the
// actual count it seeds SEE state with. Keep as a literal lookup table,
// the same shape as the original's module-level tottab[], rather than a
// formula: the specific values are tuned, not derived.
var seeSeedTotals = [8]uint32{0, 1, 2, 3, 5, 8, 11, 20}

// NewSee returns a See with its order0/order1 tables pre-seeded exactly
// as the original's initialize() does: walking every (escape-count,
// call-count) bucket and writing its seed into every order1 hash slot
// whose top 5 bits encode that bucket, which also happens to touch every
// order0 slot those order1 slots fall under — slots claimed by more than
// one bucket end up with whichever bucket's seed was written last, the
// same way the original's nested loop leaves them.
func NewSee() *See {
	s := &See{order2: make(map[uint32]*SeeState)}

	shift := uint(order1Bits - 5)
	for e := uint32(0); e <= 3; e++ {
		escapeCount := e + 1
		for t := uint32(0); t <= 7; t++ {
			totalCount := seeSeedTotals[t]
			totalSymbolCount := totalCount + escapeCount

			hHi := (e << 3) + t
			seedEscape := escapeCount*seeInitScale + seeInitEsc
			seedTotal := (escapeCount+totalSymbolCount)*seeInitScale + seeInitTot

			for hLo := uint32(0); hLo < (1 << shift); hLo++ {
				hash := (hHi << shift) | hLo
				ss := &s.order1[hash]
				ss.escapes = seedEscape
				ss.total = seedTotal
				ss.parent = &s.order0[hash>>(order1Bits-order0Bits)]
				ss.parent.escapes = seedEscape
				ss.parent.total = seedTotal
			}
		}
	}
	return s
}

type seeBlend struct {
	escapes, total uint32
}

func (s *See) getStats(ss2 *SeeState, inEsc, inTot uint32) seeBlend {
	ss1 := ss2.parent
	ss0 := ss1.parent

	weight := func(e, t uint32) uint32 {
		return (1 << 16) / (t*uint32(ilog2round(t)) - e*uint32(ilog2round(e)) - (t-e)*uint32(ilog2round(t-e)) + 1)
	}

	w0 := weight(ss0.escapes, ss0.total)
	w1 := weight(ss1.escapes, ss1.total)
	w2 := weight(ss2.escapes, ss2.total)

	// Give less weight to states that are still at their seeded default.
	if ss0.seen != 0 {
		w0 <<= 2
	}
	if ss1.seen != 0 {
		w1 <<= 2
	}
	if ss2.seen != 0 {
		w2 <<= 2
	}

	wi := weight(inEsc, inTot)

	x := seeBlend{
		total:   w0*ss0.total + w1*ss1.total + w2*ss2.total + wi*inTot,
		escapes: w0*ss0.escapes + w1*ss1.escapes + w2*ss2.escapes + wi*inEsc,
	}

	for x.total >= 16000 {
		x.total >>= 1
		x.escapes >>= 1
	}
	if x.escapes < 1 {
		x.escapes = 1
	}
	if x.total <= x.escapes {
		x.total = x.escapes + 1
	}
	return x
}

// EncodeEscape codes the escape/no-escape bit for a single coding step.
// ss may be nil, in which case the raw escapeCount/totalSymbolCount
// ratio is coded directly with no SEE blending (used when a context's
// statistics are too far out of SEE's tuned range to look up a state).
func (s *See) EncodeEscape(c *Coder, ss *SeeState, escapeCount, totalSymbolCount uint32, escape bool) {
	if ss == nil {
		c.EncodeBit(totalSymbolCount, escapeCount+totalSymbolCount, escape)
		return
	}
	x := s.getStats(ss, escapeCount, escapeCount+totalSymbolCount)
	c.EncodeBit(x.escapes, x.total, !escape)
	s.AdjustState(ss, escape)
}

// DecodeEscape is the mirror of EncodeEscape.
func (s *See) DecodeEscape(c *Coder, ss *SeeState, escapeCount, totalSymbolCount uint32) bool {
	if ss == nil {
		return c.DecodeBit(totalSymbolCount, escapeCount+totalSymbolCount)
	}
	x := s.getStats(ss, escapeCount, escapeCount+totalSymbolCount)
	escape := c.DecodeBit(x.escapes, x.total)
	s.AdjustState(ss, !escape)
	return !escape
}

// EstimateEscapeProbability returns a fixed-point (intProbBits) estimate
// of the escape probability, used only by chooseContext's heuristic
// rating — it never drives an actual bit of coded output.
func (s *See) EstimateEscapeProbability(ss *SeeState, escapeCount, totalSymbolCount uint32) uint32 {
	if ss != nil {
		x := s.getStats(ss, escapeCount, escapeCount+totalSymbolCount)
		return (x.escapes << intProbBits) / x.total
	}
	return (escapeCount << intProbBits) / (escapeCount + totalSymbolCount)
}

// AdjustState trains ss and every coarser state it was seeded from,
// given whether the coding step it was used for escaped.
func (s *See) AdjustState(ss *SeeState, escape bool) {
	for ; ss != nil; ss = ss.parent {
		ss.seen++

		if escape {
			ss.escapes += seeInc
			ss.total += seeInc + seeEscTotExtraInc
		} else {
			if ss.escapes >= seeEscScaleDown {
				ss.escapes = (ss.escapes >> 1) + 1
				ss.total = (ss.total >> 1) + 2
			}
			ss.total += seeInc
		}

		if ss.total >= seeScaleDown {
			ss.escapes = (ss.escapes >> 1) + 1
			ss.total = (ss.total >> 1) + 2
		}
	}
}

// seeStatsFromHashBins is the 14-entry call-count quantizer used only by
// GetState's own 23-bit hash, distinct from seeSeedTotals above: the two
// tables are tuned against different input ranges (seeding buckets vs.
// escape/total hash bits) and collapsing them into one would subtly
// change both.
var seeStatsFromHashBins = [14]uint32{0, 1, 2, 3, 3, 4, 4, 5, 5, 5, 6, 6, 6, 6}

func (s *See) statsFromHash(ss *SeeState, fiveBits uint32) {
	e := fiveBits >> 3
	t := fiveBits & 7

	totalCount := seeSeedTotals[t]
	escapeCount := e + 1
	totalSymbolCount := totalCount + escapeCount

	ss.escapes = escapeCount*seeInitScale + seeInitEsc
	ss.total = (escapeCount+totalSymbolCount)*seeInitScale + seeInitTot
}

// GetState returns the SEE state relevant to a coding step with the
// given escape/total counts, hashed context key, and trie context,
// or nil if the counts are out of SEE's tuned range (the caller then
// codes the escape bit directly against the raw ratio).
func (s *See) GetState(escapeCount, totalSymbolCount uint32, key uint64, t *Trie, id contextID) *SeeState {
	order := t.order(id)

	escapes := escapeCount
	total := totalSymbolCount
	if total == 0 {
		return nil
	}

	total -= escapes
	escapes--

	if escapes > maxSeeEscapeCount || total >= maxSeeTotalCount {
		return nil
	}

	hash2 := escapes << 3
	if total <= 13 {
		hash2 |= seeStatsFromHashBins[total]
	} else {
		hash2 |= 7
	}

	hash2 <<= 2
	if escapes >= 1 {
		if order >= 3 {
			hash2 |= 1
		}
	} else {
		o := uint32(order) >> 1
		if o > 3 {
			o = 3
		}
		hash2 |= o
	}

	hash2 <<= 2
	if pfs := t.parentFollowsetSize(id); pfs > 0 {
		p := uint32(pfs)
		if p > 3 {
			p = 3
		}
		hash2 |= p
	}

	hash2 <<= 1
	if t.followsetSize(id) == 1 {
		hash2 |= 1
	}

	if order > 0 {
		hash2 <<= 2
		hash2 |= uint32(key>>5) & 0x3
	}
	if order > 1 {
		hash2 <<= 2
		hash2 |= uint32(key>>13) & 0x3
	}
	if escapes <= 1 {
		if order > 2 {
			hash2 <<= 2
			hash2 |= uint32(key>>21) & 0x3
		}
		if order > 3 {
			hash2 <<= 2
			hash2 |= uint32(key>>29) & 0x3
		}
	}

	hash2 <<= 5
	hash2 |= uint32(key) & 31
	hash2 &= (1 << order2Bits) - 1

	hash1 := hash2 >> (order2Bits - order1Bits)
	ss1 := &s.order1[hash1]

	ss2, ok := s.order2[hash2]
	if !ok {
		ss2 = &SeeState{}
		ss2.parent = ss1
		s.statsFromHash(ss2, hash2>>(order2Bits-5))
		s.order2[hash2] = ss2
	}
	return ss2
}
