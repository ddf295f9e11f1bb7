// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package testutil generates the input corpora used by pzip's and
// internal/ppm's tests.
package testutil

import "math/rand"

// Zeros returns n zero bytes.
func Zeros(n int) []byte {
	return make([]byte, n)
}

// Ones returns n bytes of 0xFF.
func Ones(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}

// RandomBytes returns n pseudo-random bytes, deterministic for a given
// seed so a failing test is reproducible.
func RandomBytes(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}

// englishWords is a small fixed vocabulary used by EnglishText to
// synthesize English-like prose without needing an external corpus file.
var englishWords = []string{
	"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
	"compression", "context", "model", "symbol", "escape", "order",
	"arithmetic", "coder", "trie", "suffix", "predict", "entropy",
	"adaptive", "follow", "set", "count", "history", "probability",
}

// EnglishText returns roughly n bytes of space-separated lowercase words
// drawn from a small fixed vocabulary with occasional sentence-ending
// punctuation, deterministic for a given seed. Real prose compresses far
// better than random bytes but still carries structure a flat order-0
// model can't fully exploit, exercising the higher-order contexts.
func EnglishText(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, 0, n+32)
	for len(b) < n {
		w := englishWords[r.Intn(len(englishWords))]
		b = append(b, w...)
		if r.Intn(20) == 0 {
			b = append(b, '.', ' ')
		} else {
			b = append(b, ' ')
		}
	}
	return b[:n]
}

// RepeatingPattern returns n bytes built from copy-distance/copy-length
// pairs drawn the way testdata/repeats.go seeds its LZ-friendly corpus:
// most of the output is a copy from some earlier (usually nearby)
// offset, with an occasional fresh random byte, so the data is rich in
// long deterministic contexts without being perfectly periodic.
func RepeatingPattern(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, 0, n)

	randLen := func() int {
		switch p := r.Float32(); {
		case p <= 0.15:
			return 4 + r.Intn(4)
		case p <= 0.30:
			return 8 + r.Intn(8)
		case p <= 0.45:
			return 16 + r.Intn(16)
		case p <= 0.60:
			return 32 + r.Intn(32)
		case p <= 0.75:
			return 64 + r.Intn(64)
		case p <= 0.90:
			return 128 + r.Intn(128)
		default:
			return 256 + r.Intn(256)
		}
	}
	randDist := func(max int) int {
		for {
			var d int
			switch p := r.Float32(); {
			case p <= 0.15:
				d = 1 + r.Intn(2)
			case p <= 0.30:
				d = 2 + r.Intn(4)
			case p <= 0.45:
				d = 4 + r.Intn(8)
			case p <= 0.60:
				d = 8 + r.Intn(16)
			case p <= 0.75:
				d = 16 + r.Intn(64)
			case p <= 0.90:
				d = 64 + r.Intn(256)
			default:
				d = 256 + r.Intn(1024)
			}
			if d > 0 && d <= max {
				return d
			}
		}
	}

	for len(b) < n {
		if len(b) < 16 || r.Intn(8) == 0 {
			b = append(b, byte(r.Intn(256)))
			continue
		}
		l := randLen()
		d := randDist(len(b))
		for i := 0; i < l && len(b) < n; i++ {
			b = append(b, b[len(b)-d])
		}
	}
	return b[:n]
}

// Corpus is one named test input.
type Corpus struct {
	Name string
	Data []byte
}

// StandardCorpus returns the mix of random, zero-only, all-0xFF, English
// text, and repeating-pattern inputs used by the universal round-trip
// property: every byte sequence from these families must survive
// Compress followed by Decompress unchanged.
func StandardCorpus(n int) []Corpus {
	return []Corpus{
		{"Random", RandomBytes(1, n)},
		{"Zeros", Zeros(n)},
		{"Ones", Ones(n)},
		{"English", EnglishText(2, n)},
		{"Repeats", RepeatingPattern(3, n)},
	}
}
