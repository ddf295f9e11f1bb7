package ppm

// Context Trie (C4): one node per distinct order-0..8 context observed so
// far, each tracking the follow-set of symbols seen after it. Unlike the
// original's intrusive sibling/child pointer trie walked one byte at a
// time, child lookup here goes straight to a hash table keyed on the
// full contiguous suffix for that order (see suffix.go) — the "clearer
// structure" the spec's Open Questions ask for, grounded on the
// pzip-0.83 revision's hash.c rather than pzip-0.82's circular
// sibling-list walk.
//
// Context storage itself lives in a flat arena (a Go slice indexed by
// contextID) so that least-recently-used eviction can recycle a slot in
// place instead of chasing pointers through the allocator, following the
// "cyclic graphs -> arena + indices" guidance for ports of this kind of
// C structure.

type contextID int32

const noContext contextID = -1

type followEntry struct {
	symbol uint8
	count  uint32
}

// context is one node of the trie: order n (0..8), reached either as the
// Trie's singleton order-0 root, one of its 256 order-1 children, or (for
// order 2..8) a value found in that order's hash table.
type context struct {
	parent  contextID
	order   int
	suffix  Suffix // key this node is stored under in its order's hash table (unused for order 0/1)
	byteKey uint8  // the order-1 byte this node is stored under, when order == 1

	followset        []followEntry
	followsetSize    int
	totalSymbolCount uint32
	maxCount         uint32
	escapeCount      uint32

	seeState *SeeState

	det *deterministicContext // only ever set when order == MaxOrder

	lruPrev, lruNext contextID
	inLRU            bool
}

// followsetStats summarizes a context's follow-set, optionally with some
// symbols excluded from consideration.
type followsetStats struct {
	totalCount  uint32
	maxCount    uint32
	escapeCount uint32
}

// Trie is the master index of all Context nodes.
type Trie struct {
	arena    []context
	freeList []contextID

	order0  contextID
	order1  [256]contextID
	byOrder [MaxOrder + 1]map[Suffix]contextID // indices 2..MaxOrder used

	// children tracks, for every context with order in 1..MaxOrder-1, the
	// set of order-(n+1) contexts created beneath it. The original trie
	// finds children by walking an intrusive sibling list hung directly
	// off the parent; this port finds a context's siblings/children via
	// the flat per-order hash tables instead (see findOrCreate), so
	// nothing would otherwise reach a context's children. This index lets
	// maybeRecycle pick only childless contexts for eviction, and lets
	// deleteContext cascade to any children the way context_delete's
	// recursive descent does in the original, keeping no context's parent
	// field pointing at a freed arena slot.
	children map[contextID][]contextID

	lruHead, lruTail contextID
	lruCount         int
	maxLRU           int

	// recycleCount counts every deleteContext call, i.e. every context
	// (top-level LRU victim or cascaded child) actually recycled.
	recycleCount int
}

// NewTrie returns an empty Trie with its order-0 and 256 order-1 contexts
// already materialized, exactly as the original always keeps those
// around regardless of what the input stream contains.
func NewTrie() *Trie {
	t := &Trie{
		lruHead:  noContext,
		lruTail:  noContext,
		maxLRU:   TrieBudgetContexts,
		children: make(map[contextID][]contextID),
	}
	for i := 2; i <= MaxOrder; i++ {
		t.byOrder[i] = make(map[Suffix]contextID)
	}
	t.order0 = t.newContext(noContext, 0)
	for i := range t.order1 {
		id := t.newContext(t.order0, 1)
		t.arena[id].byteKey = uint8(i)
		t.order1[i] = id
	}
	return t
}

func (t *Trie) alloc() contextID {
	if n := len(t.freeList); n > 0 {
		id := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		return id
	}
	t.arena = append(t.arena, context{})
	return contextID(len(t.arena) - 1)
}

func (t *Trie) newContext(parent contextID, order int) contextID {
	id := t.alloc()
	c := &t.arena[id]
	*c = context{parent: parent, order: order, lruPrev: noContext, lruNext: noContext}
	return id
}

func (t *Trie) ctx(id contextID) *context { return &t.arena[id] }

func (t *Trie) lruUnlink(id contextID) {
	c := t.ctx(id)
	if !c.inLRU {
		return
	}
	if c.lruPrev != noContext {
		t.ctx(c.lruPrev).lruNext = c.lruNext
	} else {
		t.lruHead = c.lruNext
	}
	if c.lruNext != noContext {
		t.ctx(c.lruNext).lruPrev = c.lruPrev
	} else {
		t.lruTail = c.lruPrev
	}
	c.inLRU = false
	c.lruPrev, c.lruNext = noContext, noContext
	t.lruCount--
}

func (t *Trie) lruPushFront(id contextID) {
	c := t.ctx(id)
	c.lruPrev = noContext
	c.lruNext = t.lruHead
	if t.lruHead != noContext {
		t.ctx(t.lruHead).lruPrev = id
	}
	t.lruHead = id
	if t.lruTail == noContext {
		t.lruTail = id
	}
	c.inLRU = true
	t.lruCount++
}

func (t *Trie) touch(id contextID) {
	t.lruUnlink(id)
	t.lruPushFront(id)
}

// maybeRecycle evicts the least-recently-used childless order
// 2..MaxOrder context when the trie has grown past its budget, walking
// from the LRU tail toward the head past any context that still has
// children. Only these contexts ever enter the LRU list in the first
// place (order 0 and the 256 order-1 contexts are permanent), so
// eviction is always of a leaf that can be safely forgotten and
// recreated later.
func (t *Trie) maybeRecycle() {
	for t.lruCount > t.maxLRU {
		victim := t.lruTail
		for victim != noContext && len(t.children[victim]) > 0 {
			victim = t.ctx(victim).lruPrev
		}
		if victim == noContext {
			return
		}
		t.deleteContext(victim)
	}
}

func (t *Trie) deleteContext(id contextID) {
	// Recursively drop any children first: once id's arena slot is
	// recycled, nothing may still reference it as a parent.
	for _, child := range t.children[id] {
		t.deleteContext(child)
	}
	delete(t.children, id)
	t.recycleCount++

	c := t.ctx(id)

	// Deterministic state hanging off an order-8 leaf is owned by the
	// deterministic ring buffer, not by the trie; just drop our
	// reference to it.
	c.det = nil

	if c.order >= 2 {
		delete(t.byOrder[c.order], c.suffix)
	}
	if c.parent != noContext {
		siblings := t.children[c.parent]
		for i, s := range siblings {
			if s == id {
				siblings[i] = siblings[len(siblings)-1]
				t.children[c.parent] = siblings[:len(siblings)-1]
				break
			}
		}
	}

	t.lruUnlink(id)

	c.followset = nil
	c.seeState = nil
	t.freeList = append(t.freeList, id)
}

// findOrCreate returns the context for an n-byte suffix, creating it (and
// marking it most-recently-used) if this is the first time it has been
// seen.
func (t *Trie) findOrCreate(order int, parent contextID, suffix Suffix) contextID {
	m := t.byOrder[order]
	if id, ok := m[suffix]; ok {
		t.touch(id)
		return id
	}
	id := t.newContext(parent, order)
	t.ctx(id).suffix = suffix
	m[suffix] = id
	t.children[parent] = append(t.children[parent], id)
	t.touch(id)
	t.maybeRecycle()
	return id
}

// ActiveContexts holds the order-0..MaxOrder contexts relevant to the
// current coding position, longest (highest order) last.
type ActiveContexts struct {
	C [MaxOrder + 1]contextID
}

// GetActiveContexts locates (creating as needed) every order-0..MaxOrder
// context matching the bytes preceding hist[pos].
func (t *Trie) GetActiveContexts(hist []byte, pos int) ActiveContexts {
	var ac ActiveContexts
	ac.C[0] = t.order0

	b1 := hist[pos-1]
	ac.C[1] = t.order1[b1]

	for n := 2; n <= MaxOrder; n++ {
		suffix := suffixAt(hist, pos, n)
		ac.C[n] = t.findOrCreate(n, ac.C[n-1], suffix)
	}
	return ac
}

// maybeHalveCounts keeps the follow-set counts from growing without
// bound, by periodically halving them once their sum passes a threshold.
func (t *Trie) maybeHalveCounts(c *context) {
	if c.totalSymbolCount < contextCountHalveThreshold {
		return
	}

	c.followsetSize = 0
	c.totalSymbolCount = 0
	c.maxCount = 0

	kept := c.followset[:0]
	for _, e := range c.followset {
		e.count >>= 1
		if e.count == 0 {
			continue
		}
		if e.count <= contextSymbolIncNovel {
			e.count = contextSymbolIncNovel + 1
		}
		c.totalSymbolCount += e.count
		c.followsetSize++
		if e.count > c.maxCount {
			c.maxCount = e.count
		}
		kept = append(kept, e)
	}
	c.followset = kept

	c.escapeCount = (c.escapeCount >> 1) + 1
}

// Update records that symbol followed context id, training the
// follow-set statistics (and, through see, the SEE module). It is a no-op
// for a context whose order is below codedOrder, the order that actually
// coded the symbol, so only that context and the higher-order ones above
// it are trained.
func (t *Trie) Update(id contextID, symbol uint8, key uint64, see *See, codedOrder int) {
	c := t.ctx(id)
	if c.order < codedOrder {
		return
	}

	t.maybeHalveCounts(c)

	escape := true
	var matched *followEntry
	for i := range c.followset {
		if c.followset[i].symbol == symbol {
			matched = &c.followset[i]
			break
		}
	}

	if matched != nil {
		if matched.count <= contextSymbolIncNovel {
			c.escapeCount -= contextEscapeInc
			if c.escapeCount < 1 {
				c.escapeCount = 1
			}
			matched.count += contextSymbolInc - contextSymbolIncNovel
			c.totalSymbolCount += contextSymbolInc - contextSymbolIncNovel
		}
		matched.count += contextSymbolInc
		c.totalSymbolCount += contextSymbolInc
		if matched.count > c.maxCount {
			c.maxCount = matched.count
		}
		escape = false
		moveToFront(c, matched.symbol)
	} else {
		c.followset = append(c.followset, followEntry{symbol: symbol, count: contextSymbolIncNovel})
		c.totalSymbolCount += contextSymbolIncNovel
		if c.escapeCount < contextEscapeMax {
			c.escapeCount += contextEscapeInc
		}
		c.followsetSize++
		if contextSymbolIncNovel > c.maxCount {
			c.maxCount = contextSymbolIncNovel
		}
		moveToFront(c, symbol)
	}

	if see == nil {
		c.seeState = nil
	} else {
		see.AdjustState(c.seeState, escape)
		c.seeState = see.GetState(c.escapeCount, c.totalSymbolCount, key, t, id)
	}
}

// moveToFront moves the entry for symbol to the front of the follow-set
// slice, the same "recently seen symbols are cheapest to find again"
// policy as the original's singly-linked-list move-to-front, expressed
// here as a slice rotation instead of pointer surgery.
func moveToFront(c *context, symbol uint8) {
	for i := range c.followset {
		if c.followset[i].symbol == symbol {
			if i != 0 {
				e := c.followset[i]
				copy(c.followset[1:i+1], c.followset[:i])
				c.followset[0] = e
			}
			return
		}
	}
}

// FollowsetStats gathers follow-set statistics for context id, optionally
// excluding symbols present in excl.
func (t *Trie) FollowsetStats(id contextID, excl *ExcludedSymbols) followsetStats {
	c := t.ctx(id)

	if excl.IsEmpty() {
		return followsetStats{
			totalCount:  c.totalSymbolCount,
			maxCount:    c.maxCount,
			escapeCount: c.escapeCount,
		}
	}

	var stats followsetStats
	stats.escapeCount = excludedEscapeInit

	for _, e := range c.followset {
		if excl.Contains(int(e.symbol)) {
			if e.count <= contextSymbolIncNovel {
				stats.escapeCount += excludedEscapeExcludeInc
			}
			continue
		}
		stats.totalCount += e.count
		if e.count > stats.maxCount {
			stats.maxCount = e.count
		}
		if e.count <= contextSymbolIncNovel {
			stats.escapeCount += excludedEscapeInc
		}
	}
	stats.escapeCount >>= excludedEscapeShift

	return stats
}

// Encode attempts to code symbol under context id, returning false (an
// escape) if the context's follow-set, once excluded symbols are
// removed, does not contain symbol. On escape, every unexcluded symbol
// in the follow-set is added to excl, so that no lower-order context (or
// the order-(-1) fallback) will try to re-predict them.
func (t *Trie) Encode(id contextID, c *Coder, excl *ExcludedSymbols, see *See, key uint64, symbol uint8) bool {
	self := t.ctx(id)
	if self.totalSymbolCount == 0 {
		return false
	}

	stats := t.FollowsetStats(id, excl)
	if stats.totalCount == 0 {
		return false
	}

	var low, high uint32
	for _, e := range self.followset {
		if excl.Contains(int(e.symbol)) {
			continue
		}
		if e.symbol == symbol {
			high = low + e.count
		} else if high == 0 {
			low += e.count
		}
		excl.Add(int(e.symbol))
	}

	var ss *SeeState
	if stats.escapeCount <= stats.totalCount {
		ss = see.GetState(stats.escapeCount, stats.totalCount, key, t, id)
	}

	if high != 0 {
		see.EncodeEscape(c, ss, stats.escapeCount, stats.totalCount, false)
		c.Encode1ofN(low, high, stats.totalCount)
		return true
	}
	see.EncodeEscape(c, ss, stats.escapeCount, stats.totalCount, true)
	return false
}

// Decode is the mirror of Encode.
func (t *Trie) Decode(id contextID, c *Coder, excl *ExcludedSymbols, see *See, key uint64) (uint8, bool) {
	self := t.ctx(id)
	if self.totalSymbolCount == 0 {
		return 0, false
	}

	stats := t.FollowsetStats(id, excl)
	if stats.totalCount == 0 {
		return 0, false
	}

	var ss *SeeState
	if stats.escapeCount <= stats.totalCount {
		ss = see.GetState(stats.escapeCount, stats.totalCount, key, t, id)
	}

	if see.DecodeEscape(c, ss, stats.escapeCount, stats.totalCount) {
		for _, e := range self.followset {
			excl.Add(int(e.symbol))
		}
		return 0, false
	}

	got := c.Get1ofN(stats.totalCount)
	var low uint32
	for _, e := range self.followset {
		if excl.Contains(int(e.symbol)) {
			continue
		}
		high := low + e.count
		if got < high {
			c.Decode1ofN(low, high, stats.totalCount)
			return e.symbol, true
		}
		low = high
	}

	panic(Error("context decode fell through an exhausted follow-set"))
}

// parentFollowsetSize reports the follow-set size of id's parent, or 0 if
// id has no parent. Used only by the SEE hash (see.go), which mixes in a
// couple of bits from the parent context's shape.
func (t *Trie) parentFollowsetSize(id contextID) int {
	c := t.ctx(id)
	if c.parent == noContext {
		return 0
	}
	return t.ctx(c.parent).followsetSize
}

func (t *Trie) order(id contextID) int        { return t.ctx(id).order }
func (t *Trie) followsetSize(id contextID) int { return t.ctx(id).followsetSize }
