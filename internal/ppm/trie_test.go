package ppm

import (
	"math/rand"
	"testing"
)

func checkFollowsetInvariants(t *testing.T, tag string, c *context) {
	t.Helper()

	var sum, max uint32
	for _, e := range c.followset {
		sum += e.count
		if e.count > max {
			max = e.count
		}
	}
	if sum != c.totalSymbolCount {
		t.Fatalf("%s: totalSymbolCount = %d, want sum of counts %d", tag, c.totalSymbolCount, sum)
	}
	if max != c.maxCount {
		t.Fatalf("%s: maxCount = %d, want max count %d", tag, c.maxCount, max)
	}
	if len(c.followset) != c.followsetSize {
		t.Fatalf("%s: followsetSize = %d, want len(followset) %d", tag, c.followsetSize, len(c.followset))
	}
	if c.escapeCount < 1 || c.escapeCount > contextEscapeMax {
		t.Fatalf("%s: escapeCount = %d, want in [1,%d]", tag, c.escapeCount, contextEscapeMax)
	}
}

// TestContextFollowsetInvariants drives a single context through many
// Update calls with random symbols and checks the redundant summary
// statistics stay consistent with the follow-set after every call.
func TestContextFollowsetInvariants(t *testing.T) {
	tr := NewTrie()
	see := NewSee()
	id := tr.order0

	r := rand.New(rand.NewSource(3))
	for i := 0; i < 20000; i++ {
		symbol := uint8(r.Intn(256))
		tr.Update(id, symbol, uint64(i), see, 0)
		checkFollowsetInvariants(t, "order0", tr.ctx(id))
	}
}

// TestLRURecyclingLeavesOnly forces frequent recycling (by shrinking the
// trie's LRU budget well below what a realistic input needs) and checks
// that every context reachable through the trie's own indices has a
// live parent, i.e. no evicted context still has a dangling child
// pointing back at it.
func TestLRURecyclingLeavesOnly(t *testing.T) {
	tr := NewTrie()
	tr.maxLRU = 64 // force frequent eviction well under default budget

	hist := newHistory(1 << 16)
	r := rand.New(rand.NewSource(4))
	for i := MaxContextLen; i < len(hist); i++ {
		hist[i] = byte(r.Intn(256))
	}

	for pos := MaxContextLen; pos < len(hist); pos++ {
		tr.GetActiveContexts(hist, pos)
	}

	live := map[contextID]bool{tr.order0: true}
	for _, id := range tr.order1 {
		live[id] = true
	}
	for order := 2; order <= MaxOrder; order++ {
		for _, id := range tr.byOrder[order] {
			live[id] = true
		}
	}

	for id := range live {
		c := tr.ctx(id)
		if c.order >= 1 && c.parent != noContext && !live[c.parent] {
			t.Fatalf("context %d (order %d) has dangling parent %d", id, c.order, c.parent)
		}
	}

	// Every context still listed as someone's child must itself be live.
	for parent, kids := range tr.children {
		if parent != noContext && !live[parent] {
			continue // parent itself was deleted along with its children entry
		}
		for _, kid := range kids {
			if !live[kid] {
				t.Fatalf("children[%d] lists dead context %d", parent, kid)
			}
		}
	}
}
