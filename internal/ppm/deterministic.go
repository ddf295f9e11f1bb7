package ppm

// Deterministic long-context extender (C5): a context is "deterministic"
// when every time its preceding bytes have been seen before, the same one
// symbol followed. Such contexts escape far less often than a uniform
// prior would predict, so once the regular trie has grown a context deep
// enough to look promising, this module tracks positions in the input at
// which that same order-MaxOrder context occurred and, each time around,
// looks for the longest suffix match among them whose
// recorded minimum length is satisfied — extending prediction far past
// MaxOrder without growing the trie itself.
//
// Grounded on deterministic.c/det_escape.c: the intrusive node/pool/Node
// machinery there is replaced here with a fixed-size ring buffer of
// deterministicNode values (stable addresses, so a circular doubly linked
// list can still be threaded through them) and an index-based "next ring
// slot" lookup in place of raw pointer increment.
const (
	deterministicMaxMatchLen     = 1024
	deterministicMaxNodesToVisit = 100
	deterministicForceMatchLen   = 64
	deterministicForceCount      = 99999
)

// deterministicNode records one position in the input whose preceding
// MaxOrder bytes are the suffix of the trie context owning its
// deterministicContext: the byte at pos is that match's prediction. Nodes live in a
// single fixed-size ring (Deterministic.nodes) and are threaded into
// whichever context currently owns them via prev/next; allocating a node
// unlinks it from its previous owner first, the same recycling the
// original's pool-free ring buffer did.
type deterministicNode struct {
	prev, next *deterministicNode
	idx        int
	minLen     int
	pos        int
}

func (n *deterministicNode) initSelfLoop() { n.prev, n.next = n, n }

func (n *deterministicNode) cut() {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.initSelfLoop()
}

func (n *deterministicNode) addAfter(head *deterministicNode) {
	n.prev = head
	n.next = head.next
	n.prev.next = n
	n.next.prev = n
}

// deterministicContext is the per-leaf state attached to an order-MaxOrder
// trie context (context.det), owning the ring of deterministicNode
// entries sharing that leaf's suffix and a running match/escape tally.
type deterministicContext struct {
	head        deterministicNode // sentinel; head.next/head.prev are the real list ends
	matchesSeen uint32
	escapesSeen uint32
}

// Deterministic is the long-context extender itself: one global ring of
// candidate nodes shared by every deterministicContext, a dedicated
// escape-probability estimator (escape.go), and the handful of fields the
// original's comment wryly calls "stuff saved by Encode/Decode for
// Update" — state that must survive from the coding call to the training
// call immediately after it.
type Deterministic struct {
	escape *Escape

	nodes  [deterministicRingSize]deterministicNode
	cursor int

	nextNode *deterministicNode

	cachedContext   *deterministicContext
	cachedNode      *deterministicNode
	cachedMatchLen  int
	longestMatchLen int
}

// NewDeterministic returns a Deterministic with every ring slot
// initialized to an empty self-looped list, ready to be cut and
// reassigned as contexts claim nodes.
func NewDeterministic() *Deterministic {
	d := &Deterministic{escape: NewEscape()}
	for i := range d.nodes {
		d.nodes[i].idx = i
		d.nodes[i].initSelfLoop()
	}
	return d
}

func (d *Deterministic) allocNode() *deterministicNode {
	n := &d.nodes[d.cursor]
	d.cursor++
	if d.cursor == deterministicRingSize {
		d.cursor = 0
	}
	n.cut()
	return n
}

func (d *Deterministic) nextRingNode(n *deterministicNode) *deterministicNode {
	i := n.idx + 1
	if i == deterministicRingSize {
		i = 0
	}
	return &d.nodes[i]
}

func (d *Deterministic) fetchOrMakeContext(c *context) *deterministicContext {
	if c.det != nil {
		return c.det
	}
	dc := &deterministicContext{matchesSeen: 1, escapesSeen: 1}
	dc.head.initSelfLoop()
	c.det = dc
	return dc
}

func (d *Deterministic) addNodeToContext(c *context, pos, minLen int) *deterministicNode {
	dc := d.fetchOrMakeContext(c)
	n := d.allocNode()
	n.addAfter(&dc.head)

	if minLen < deterministicMinOrder {
		minLen = deterministicMinOrder
	}
	n.minLen = minLen
	n.pos = pos
	return n
}

// longestCommonSuffix returns the length of the longest common suffix of
// the runs ending just before hist[p] and hist[q], capped at
// deterministicMaxMatchLen to avoid quadratic blowup on a degenerate input
// that endlessly repeats one byte. Both positions are already known (by
// the caller) to share at least the MaxOrder-byte suffix of the trie
// context they were recorded under, so the compare starts MaxOrder+1
// bytes back.
func longestCommonSuffix(hist []byte, p, q int) int {
	p -= MaxOrder + 1
	q -= MaxOrder + 1

	maxLen := p
	if q < maxLen {
		maxLen = q
	}
	if maxLen > deterministicMaxMatchLen {
		maxLen = deterministicMaxMatchLen
	}

	length := 0
	for p >= 0 && q >= 0 && hist[p] == hist[q] {
		p--
		q--
		length++
		if length >= maxLen {
			break
		}
	}
	return length + MaxOrder
}

// findBestNode scans dc's ring of candidate nodes (most recently added
// first) for the longest match whose minLen requirement the current
// position satisfies, visiting at most deterministicMaxNodesToVisit nodes
// as insurance against a pathological context with a huge node list.
func (d *Deterministic) findBestNode(dc *deterministicContext, hist []byte, pos int) {
	if dc == nil {
		d.cachedContext = nil
		d.cachedNode = nil
		d.longestMatchLen = 0
		d.cachedMatchLen = 0
		return
	}

	if pos < deterministicMinOrder {
		return
	}

	var bestNode *deterministicNode
	var bestLen, longestLen int

	visited := 0
	for n := dc.head.next; n != &dc.head; n = n.next {
		l := longestCommonSuffix(hist, pos, n.pos)
		if l > longestLen {
			longestLen = l
		}
		if l >= n.minLen && l > bestLen {
			bestLen = l
			bestNode = n
		}

		visited++
		if visited == deterministicMaxNodesToVisit {
			break
		}
	}

	d.cachedContext = dc
	d.cachedNode = bestNode
	d.longestMatchLen = longestLen
	d.cachedMatchLen = bestLen
}

// findMatch decides what, if anything, this coding step will predict. If
// the previous step's prediction held, the walk is extended for free by
// stepping to the next ring slot (nextRingNode) rather than rescanning the
// whole node list — an optimization the original calls "a hack I don't
// quite understand" but keeps because it measurably helps both speed and
// ratio.
func (d *Deterministic) findMatch(hist []byte, pos int, c *context) {
	if d.nextNode == nil {
		d.cachedContext = nil
		d.cachedNode = nil
		d.findBestNode(c.det, hist, pos)
		return
	}

	d.cachedContext = c.det
	if d.cachedContext == nil {
		d.findBestNode(c.det, hist, pos)
		return
	}

	d.cachedNode = d.nextNode
	d.cachedMatchLen++
	if d.cachedMatchLen > d.longestMatchLen {
		d.longestMatchLen = d.cachedMatchLen
	}

	if d.cachedMatchLen >= deterministicForceMatchLen {
		if d.cachedNode.minLen > d.cachedMatchLen {
			d.cachedNode.minLen = d.cachedMatchLen
		}
	} else if d.cachedMatchLen < d.cachedNode.minLen {
		d.findBestNode(c.det, hist, pos)
	}
}

// Encode attempts to predict the symbol at hist[pos] using the longest
// viable deterministic match under ctx (the active order-MaxOrder
// context), coding a single escape/match bit if a match candidate exists.
// It reports false (meaning: the regular trie cascade should run as
// usual) whenever it has no candidate to offer or the candidate's
// prediction is not symbol.
func (d *Deterministic) Encode(c *Coder, hist []byte, pos int, key uint64, symbol uint8, excl *ExcludedSymbols, ctx *context) bool {
	d.findMatch(hist, pos, ctx)
	if d.cachedNode == nil {
		return false
	}

	count := d.cachedContext.matchesSeen
	prediction := hist[d.cachedNode.pos]
	if d.cachedMatchLen >= deterministicForceMatchLen {
		count = deterministicForceCount
	}

	match := symbol == prediction
	d.escape.Encode(c, key, 1, int(count), ctx.followsetSize, !match)
	excl.Add(int(prediction))
	return match
}

// Decode is the mirror of Encode: ok is false when there was no candidate
// to try or the coded bit says its prediction missed (the caller must then
// fall back to the regular trie cascade), and true together with the
// decoded symbol when the prediction held.
func (d *Deterministic) Decode(c *Coder, hist []byte, pos int, key uint64, excl *ExcludedSymbols, ctx *context) (symbol uint8, ok bool) {
	d.findMatch(hist, pos, ctx)
	if d.cachedNode == nil {
		return 0, false
	}

	count := d.cachedContext.matchesSeen
	prediction := hist[d.cachedNode.pos]
	if d.cachedMatchLen >= deterministicForceMatchLen {
		count = deterministicForceCount
	}

	match := !d.escape.Decode(c, key, 1, int(count), ctx.followsetSize)
	excl.Add(int(prediction))
	return prediction, match
}

// Update trains the extender on the symbol actually observed at hist[pos]
// (already written into hist by the caller, whether encoding or
// decoding), and registers a fresh candidate node for future matches.
func (d *Deterministic) Update(hist []byte, pos int, symbol uint8, ctx *context) {
	node := d.cachedNode
	d.nextNode = nil

	if node != nil {
		if hist[node.pos] == symbol {
			d.cachedContext.matchesSeen++
			d.nextNode = d.nextRingNode(node)
		} else {
			d.cachedContext.escapesSeen++
			node.minLen = d.cachedMatchLen + deterministicMinLenInc
		}
	}

	d.addNodeToContext(ctx, pos, d.longestMatchLen+1)
}
