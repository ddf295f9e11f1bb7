package ppm

// Model (C7) is the end-to-end encode/decode driver: it owns one Trie,
// one ExcludedSymbols set, one See, and one Deterministic extender (the
// Coder is created afresh inside each EncodeBuffer/DecodeBuffer call),
// and drives them through the per-symbol loop pzip.c's
// pzip_Encode/pzip_Decode implement. The deterministic extender always
// gets the first try at a symbol; if it declines or misses, the trie
// order to start from, and the next lower order after each escape, is
// chosen by chooseContext's rating heuristic, with the order-(-1)
// fallback used once order 0 has escaped.
type Model struct {
	trie *Trie
	excl *ExcludedSymbols
	see  *See
	det  *Deterministic
}

// NewModel returns a Model with all of its collaborators freshly
// constructed; a Model is good for exactly one Encode or Decode call,
// mirroring pzip_create/pzip_destroy's per-call lifetime.
func NewModel() *Model {
	return &Model{
		trie: NewTrie(),
		excl: NewExcludedSymbols(),
		see:  NewSee(),
		det:  NewDeterministic(),
	}
}

// Stats reports how a single Encode/Decode call's symbols were coded,
// the same breakdown pzip.c prints under -v: how often each order was
// picked as the starting point (ChosenAtOrder), how often it was actually
// tried (TriedAtOrder) once picked (and demoted past, on escape), and how
// often it was the one that actually coded the symbol (CodedAtOrder).
type Stats struct {
	CodedByDeterministic int
	ChosenAtOrder        [MaxOrder + 1]int
	TriedAtOrder         [MaxOrder + 1]int
	CodedAtOrder         [MaxOrder + 1]int
}

// chooseContext picks which of the active contexts ac.C[0:bound] is most
// likely to cheaply code the next symbol, rating each by its estimated
// (1 - escape probability) * max follow-set count / total count, and
// falling back to order 0 if nothing rates above zero once bound reaches
// it. bound narrows on every subsequent call within one symbol's encode
// loop, since a context that has already escaped must not be picked
// again.
func chooseContext(t *Trie, ac *ActiveContexts, bound int, key uint64, excl *ExcludedSymbols, see *See) int {
	bestI := 0
	bestRating := 0

	for i := bound - 1; i >= 0; i-- {
		if i == 0 && bestRating == 0 {
			return 0
		}

		id := ac.C[i]
		c := t.ctx(id)
		if c.totalSymbolCount == 0 {
			continue
		}

		stats := t.FollowsetStats(id, excl)
		if stats.totalCount == 0 {
			continue
		}

		// Favor deterministic contexts: a context with more than one
		// follow-set symbol is charged its own escape count as if it
		// were additional "total", making it rate worse relative to a
		// context whose follow-set is a single, confident symbol.
		if c.followsetSize > 1 {
			stats.totalCount += stats.escapeCount
		}

		var ss *SeeState
		if stats.totalCount >= stats.escapeCount {
			ss = see.GetState(stats.escapeCount, stats.totalCount, key, t, id)
		}

		escProb := see.EstimateEscapeProbability(ss, stats.escapeCount, stats.totalCount)
		rating := int(((intProbOne - escProb) * stats.maxCount) / stats.totalCount)
		if rating > bestRating {
			bestRating = rating
			bestI = i
		}
	}

	return bestI
}

// seedLenFor returns how many bytes of a buffer of the given length are
// coded literally (rather than arithmetically), capping SeedBytes to the
// buffer's actual length so tiny inputs don't read past either end.
func seedLenFor(n int) int {
	if n < SeedBytes {
		return n
	}
	return SeedBytes
}

// newHistory returns a MaxContextLen-padded buffer of length
// MaxContextLen+n, with the padding set to SeedByte so that contexts near
// the start of the real data have a well-defined (if arbitrary) history
// to key off of, exactly as pzip.c's memset of input_ptr-MaxContextLen
// does.
func newHistory(n int) []byte {
	hist := make([]byte, MaxContextLen+n)
	for i := 0; i < MaxContextLen; i++ {
		hist[i] = SeedByte
	}
	return hist
}

// EncodeBuffer compresses data, returning the literal seed prefix
// followed by the arithmetic-coded payload for the remaining bytes.
func (m *Model) EncodeBuffer(data []byte) ([]byte, Stats) {
	var stats Stats

	seedLen := seedLenFor(len(data))
	hist := newHistory(len(data))
	copy(hist[MaxContextLen:], data)

	c := &Coder{}
	c.StartEncoding()

	start := MaxContextLen + seedLen
	for pos := start; pos < len(hist); pos++ {
		symbol := hist[pos]
		key := suffixAt(hist, pos, 4).Lo

		ac := m.trie.GetActiveContexts(hist, pos)
		m.excl.Clear()
		detCtx := m.trie.ctx(ac.C[MaxOrder])

		if m.det.Encode(c, hist, pos, key, symbol, m.excl, detCtx) {
			stats.CodedByDeterministic++
		} else {
			order := chooseContext(m.trie, &ac, MaxOrder+1, key, m.excl, m.see)
			stats.ChosenAtOrder[order]++

			for {
				stats.TriedAtOrder[order]++

				if m.trie.Encode(ac.C[order], c, m.excl, m.see, key, symbol) {
					stats.CodedAtOrder[order]++
					break
				}
				if order == 0 {
					EncodeOrderMinusOne(c, int(symbol), 256, m.excl)
					break
				}
				order = chooseContext(m.trie, &ac, order, key, m.excl, m.see)
			}

			codedOrder := order
			if codedOrder < 0 {
				codedOrder = 0
			}
			for o := 0; o <= MaxOrder; o++ {
				m.trie.Update(ac.C[o], symbol, key, m.see, codedOrder)
			}
		}

		m.det.Update(hist, pos, symbol, detCtx)
	}

	payload := c.FinishEncoding()
	out := make([]byte, seedLen+len(payload))
	copy(out, data[:seedLen])
	copy(out[seedLen:], payload)
	return out, stats
}

// DecodeBuffer reverses EncodeBuffer, given the encoded bytes and the
// known original length (the container format, not this package, is
// responsible for recording that length).
func (m *Model) DecodeBuffer(encoded []byte, outputLen int) ([]byte, Stats) {
	var stats Stats

	seedLen := seedLenFor(outputLen)
	hist := newHistory(outputLen)
	copy(hist[MaxContextLen:MaxContextLen+seedLen], encoded[:seedLen])

	c := &Coder{}
	c.StartDecoding(encoded[seedLen:])

	start := MaxContextLen + seedLen
	for pos := start; pos < len(hist); pos++ {
		key := suffixAt(hist, pos, 4).Lo

		ac := m.trie.GetActiveContexts(hist, pos)
		m.excl.Clear()
		detCtx := m.trie.ctx(ac.C[MaxOrder])

		var symbol uint8
		if s, ok := m.det.Decode(c, hist, pos, key, m.excl, detCtx); ok {
			symbol = s
			stats.CodedByDeterministic++
		} else {
			order := chooseContext(m.trie, &ac, MaxOrder+1, key, m.excl, m.see)
			stats.ChosenAtOrder[order]++

			for {
				stats.TriedAtOrder[order]++

				if s, ok := m.trie.Decode(ac.C[order], c, m.excl, m.see, key); ok {
					symbol = s
					stats.CodedAtOrder[order]++
					break
				}
				if order == 0 {
					symbol = uint8(DecodeOrderMinusOne(c, 256, m.excl))
					break
				}
				order = chooseContext(m.trie, &ac, order, key, m.excl, m.see)
			}

			codedOrder := order
			if codedOrder < 0 {
				codedOrder = 0
			}
			for o := 0; o <= MaxOrder; o++ {
				m.trie.Update(ac.C[o], symbol, key, m.see, codedOrder)
			}
		}

		hist[pos] = symbol
		m.det.Update(hist, pos, symbol, detCtx)
	}

	return hist[MaxContextLen:], stats
}
