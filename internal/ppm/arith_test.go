package ppm

import (
	"math/rand"
	"testing"
)

// TestArithBitIsolation scripts a long sequence of EncodeBit events with
// randomized (mid, total, bit) triples and checks that decoding the
// encoder's own output reproduces every bit exactly, independent of any
// higher-level model.
func TestArithBitIsolation(t *testing.T) {
	const n = 100000
	r := rand.New(rand.NewSource(1))

	type event struct {
		mid, total uint32
		bit        bool
	}
	events := make([]event, n)
	for i := range events {
		total := uint32(2 + r.Intn(int(CumulativeProbabilityMax-2)))
		mid := uint32(1 + r.Intn(int(total-1)))
		events[i] = event{mid: mid, total: total, bit: r.Intn(2) == 1}
	}

	var c Coder
	c.StartEncoding()
	for _, e := range events {
		c.EncodeBit(e.mid, e.total, e.bit)
	}
	payload := c.FinishEncoding()

	var d Coder
	d.StartDecoding(payload)
	for i, e := range events {
		got := d.DecodeBit(e.mid, e.total)
		if got != e.bit {
			t.Fatalf("event %d: DecodeBit(%d,%d) = %v, want %v", i, e.mid, e.total, got, e.bit)
		}
	}
}

// TestArith1ofNIsolation does the same for Encode1ofN/Get1ofN/Decode1ofN.
func TestArith1ofNIsolation(t *testing.T) {
	const n = 20000
	r := rand.New(rand.NewSource(2))

	type event struct {
		low, high, total uint32
	}
	events := make([]event, n)
	for i := range events {
		total := uint32(2 + r.Intn(int(CumulativeProbabilityMax-2)))
		low := uint32(r.Intn(int(total)))
		high := low + 1 + uint32(r.Intn(int(total-low)))
		events[i] = event{low: low, high: high, total: total}
	}

	var c Coder
	c.StartEncoding()
	for _, e := range events {
		c.Encode1ofN(e.low, e.high, e.total)
	}
	payload := c.FinishEncoding()

	var d Coder
	d.StartDecoding(payload)
	for i, e := range events {
		got := d.Get1ofN(e.total)
		if got < e.low || got >= e.high {
			t.Fatalf("event %d: Get1ofN(%d) = %d, want in [%d,%d)", i, e.total, got, e.low, e.high)
		}
		d.Decode1ofN(e.low, e.high, e.total)
	}
}
