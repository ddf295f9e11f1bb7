package ppm

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// followEntrySnapshot is a comparable, exported view of a followEntry,
// used to diff follow-set contents between an encoder's and a decoder's
// tries with cmp.Diff.
type followEntrySnapshot struct {
	Symbol uint8
	Count  uint32
}

// contextSnapshot is a comparable, exported view of a context's
// follow-set statistics.
type contextSnapshot struct {
	Order     int
	Total     uint32
	Max       uint32
	Escape    uint32
	Followset []followEntrySnapshot
}

func snapshotContext(tr *Trie, id contextID) contextSnapshot {
	c := tr.ctx(id)
	follows := make([]followEntrySnapshot, len(c.followset))
	for i, e := range c.followset {
		follows[i] = followEntrySnapshot{Symbol: e.symbol, Count: e.count}
	}
	sort.Slice(follows, func(i, j int) bool { return follows[i].Symbol < follows[j].Symbol })
	return contextSnapshot{
		Order:     c.order,
		Total:     c.totalSymbolCount,
		Max:       c.maxCount,
		Escape:    c.escapeCount,
		Followset: follows,
	}
}

// trieSnapshot captures every live context's follow-set statistics,
// independent of allocation order, so two tries built by different
// traversals (encode vs. decode) can be compared for deep equality.
func trieSnapshot(tr *Trie) []contextSnapshot {
	var ids []contextID
	ids = append(ids, tr.order0)
	for _, id := range tr.order1 {
		ids = append(ids, id)
	}
	for order := 2; order <= MaxOrder; order++ {
		for _, id := range tr.byOrder[order] {
			ids = append(ids, id)
		}
	}

	snaps := make([]contextSnapshot, len(ids))
	for i, id := range ids {
		snaps[i] = snapshotContext(tr, id)
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Order != snaps[j].Order {
			return snaps[i].Order < snaps[j].Order
		}
		if snaps[i].Total != snaps[j].Total {
			return snaps[i].Total < snaps[j].Total
		}
		if snaps[i].Max != snaps[j].Max {
			return snaps[i].Max < snaps[j].Max
		}
		if snaps[i].Escape != snaps[j].Escape {
			return snaps[i].Escape < snaps[j].Escape
		}
		if len(snaps[i].Followset) != len(snaps[j].Followset) {
			return len(snaps[i].Followset) < len(snaps[j].Followset)
		}
		for k, a := range snaps[i].Followset {
			if b := snaps[j].Followset[k]; a != b {
				if a.Symbol != b.Symbol {
					return a.Symbol < b.Symbol
				}
				return a.Count < b.Count
			}
		}
		return false
	})
	return snaps
}

func roundTrip(t *testing.T, data []byte) {
	t.Helper()

	m := NewModel()
	enc, _ := m.EncodeBuffer(data)

	dm := NewModel()
	dec, _ := dm.DecodeBuffer(enc, len(data))

	if !bytes.Equal(dec, data) {
		t.Fatalf("round-trip mismatch: got %d bytes, want %d bytes", len(dec), len(data))
	}
}

func TestModelRoundTripSizes(t *testing.T) {
	sizes := []int{0, 1, 7, 8, 9, 100, 4096, 1 << 16}
	r := rand.New(rand.NewSource(5))
	for _, n := range sizes {
		data := make([]byte, n)
		r.Read(data)
		roundTrip(t, data)
	}
}

func TestModelRoundTripZeros(t *testing.T) {
	roundTrip(t, make([]byte, 4096))
}

func TestModelRoundTripOnes(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = 0xFF
	}
	roundTrip(t, data)
}

func TestModelRoundTripRepeating(t *testing.T) {
	roundTrip(t, bytes.Repeat([]byte("abracadabra"), 1000))
}

func TestModelEmptyInput(t *testing.T) {
	roundTrip(t, nil)
}

func TestModelSeedLengthInput(t *testing.T) {
	roundTrip(t, []byte("abcdefgh"))
}

// TestModelEncodeDecodeSymmetry encodes an input, decodes the result with
// a second Model, and checks that the two tries' per-context follow-set
// statistics end up identical after the last symbol, the "deterministic-update symmetry"
// property: an encoder and a decoder fed the same bytes must reach
// bit-for-bit identical model state, or future symbols would diverge.
func TestModelEncodeDecodeSymmetry(t *testing.T) {
	data := make([]byte, 1<<15)
	r := rand.New(rand.NewSource(6))
	for i := range data {
		// Biased toward a small alphabet so higher-order contexts
		// actually accumulate repeat observations.
		data[i] = byte(r.Intn(16))
	}

	em := NewModel()
	enc, encStats := em.EncodeBuffer(data)

	dm := NewModel()
	dec, decStats := dm.DecodeBuffer(enc, len(data))

	if !bytes.Equal(dec, data) {
		t.Fatalf("round-trip mismatch on biased-alphabet input")
	}
	if encStats != decStats {
		t.Fatalf("encoder/decoder Stats diverged: enc=%+v dec=%+v", encStats, decStats)
	}

	eSnap := trieSnapshot(em.trie)
	dSnap := trieSnapshot(dm.trie)
	if diff := cmp.Diff(eSnap, dSnap); diff != "" {
		t.Fatalf("encoder/decoder trie follow-sets diverged (-encoder +decoder):\n%s", diff)
	}
}

func TestModelCompressesRepeatingInput(t *testing.T) {
	data := bytes.Repeat([]byte("abracadabra"), 1000)
	m := NewModel()
	enc, _ := m.EncodeBuffer(data)
	if ratio := float64(len(enc)) / float64(len(data)); ratio > 0.4 {
		t.Errorf("poor compression ratio on repeating input: %0.3f, want < 0.4", ratio)
	}
}
