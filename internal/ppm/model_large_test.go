package ppm

import (
	"bytes"
	"testing"

	"github.com/dsnet-pzip/pzip/internal/testutil"
)

// TestModelLargeRandomRoundTrip is spec scenario 5: a 1 MiB random input
// round-trips and its encoded length lands within 1% of the input
// length, since near-incompressible random bytes should neither inflate
// nor shrink meaningfully under a PPM model falling back to its
// order-(-1) coder almost every symbol.
func TestModelLargeRandomRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large round-trip in short mode")
	}

	data := testutil.RandomBytes(42, 1<<20)

	m := NewModel()
	enc, _ := m.EncodeBuffer(data)

	dm := NewModel()
	dec, _ := dm.DecodeBuffer(enc, len(data))
	if !bytes.Equal(dec, data) {
		t.Fatalf("round-trip mismatch on 1 MiB random input")
	}

	want := len(data)
	got := len(enc)
	if diff := float64(got-want) / float64(want); diff < -0.01 || diff > 0.01 {
		t.Errorf("encoded length = %d, want within 1%% of input length %d (diff %.3f%%)", got, want, diff*100)
	}
}

// TestModelLargeInputRecyclesContexts is spec scenario 6: a large enough
// input (>=72 MiB, half pseudo-random bytes and half English-like text)
// must exhaust the trie's context budget and force at
// least one LRU recycle during encode, with decode still reproducing
// the input exactly despite contexts being evicted and recreated along
// the way.
func TestModelLargeInputRecyclesContexts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large recycling round-trip in short mode")
	}

	const size = 72 << 20
	data := append(testutil.RandomBytes(7, size/2), testutil.EnglishText(7, size/2)...)

	m := NewModel()
	enc, _ := m.EncodeBuffer(data)
	if m.trie.recycleCount == 0 {
		t.Fatalf("expected at least one LRU recycle over a %d-byte input budgeted for %d contexts, got 0", size, TrieBudgetContexts)
	}

	dm := NewModel()
	dec, _ := dm.DecodeBuffer(enc, len(data))
	if !bytes.Equal(dec, data) {
		t.Fatalf("round-trip mismatch on large recycling input")
	}
}
