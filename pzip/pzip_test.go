// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package pzip

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/dsnet-pzip/pzip/internal/testutil"
)

func TestRoundTripCompress(t *testing.T) {
	for _, c := range testutil.StandardCorpus(1 << 16) {
		t.Run(c.Name, func(t *testing.T) {
			enc, err := Compress(c.Data)
			if err != nil {
				t.Fatalf("Compress() error: %v", err)
			}
			dec, err := Decompress(enc)
			if err != nil {
				t.Fatalf("Decompress() error: %v", err)
			}
			if !bytes.Equal(dec, c.Data) {
				t.Errorf("round-trip mismatch: got %d bytes, want %d bytes", len(dec), len(c.Data))
			}
		})
	}
}

func TestRoundTripStreams(t *testing.T) {
	for _, c := range testutil.StandardCorpus(1 << 14) {
		t.Run(c.Name, func(t *testing.T) {
			var buf bytes.Buffer

			wr := NewWriter(&buf)
			n, err := io.Copy(wr, bytes.NewReader(c.Data))
			if n != int64(len(c.Data)) || err != nil {
				t.Fatalf("Copy() = (%d, %v), want (%d, nil)", n, err, len(c.Data))
			}
			if err := wr.Close(); err != nil {
				t.Fatalf("Close() = %v, want nil", err)
			}

			var out bytes.Buffer
			rd := NewReader(&buf)
			if _, err := io.Copy(&out, rd); err != nil {
				t.Fatalf("Copy() error: %v", err)
			}
			if !bytes.Equal(out.Bytes(), c.Data) {
				t.Errorf("round-trip mismatch through Reader/Writer")
			}
		})
	}
}

func TestEmptyInput(t *testing.T) {
	enc, err := Compress(nil)
	if err != nil {
		t.Fatalf("Compress(nil) error: %v", err)
	}
	if len(enc) < hdrLen {
		t.Fatalf("Compress(nil) produced %d bytes, want at least the %d-byte header", len(enc), hdrLen)
	}
	dec, err := Decompress(enc)
	if err != nil {
		t.Fatalf("Decompress() error: %v", err)
	}
	if len(dec) != 0 {
		t.Errorf("Decompress(Compress(nil)) = %d bytes, want 0", len(dec))
	}
}

func TestSeedLengthInput(t *testing.T) {
	data := []byte("abcdefgh") // exactly SeedBytes long
	enc, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	dec, err := Decompress(enc)
	if err != nil {
		t.Fatalf("Decompress() error: %v", err)
	}
	if !bytes.Equal(dec, data) {
		t.Errorf("round-trip mismatch: got %q, want %q", dec, data)
	}
}

func TestRepeatingInputCompresses(t *testing.T) {
	data := bytes.Repeat([]byte("abracadabra"), 1000)
	enc, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	if ratio := float64(len(enc)) / float64(len(data)); ratio > 0.4 {
		t.Errorf("poor compression ratio on repeating input: %0.3f, want < 0.4", ratio)
	}
	dec, err := Decompress(enc)
	if err != nil {
		t.Fatalf("Decompress() error: %v", err)
	}
	if !bytes.Equal(dec, data) {
		t.Errorf("round-trip mismatch on repeating input")
	}
}

func TestCorruptMagic(t *testing.T) {
	enc, err := Compress([]byte("hello world"))
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	enc[0] ^= 0xFF
	if _, err := Decompress(enc); err != ErrCorrupt {
		t.Errorf("Decompress() error = %v, want %v", err, ErrCorrupt)
	}
}

func TestCorruptCRC(t *testing.T) {
	enc, err := Compress([]byte("hello world"))
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	enc[8] ^= 0xFF
	if _, err := Decompress(enc); err != ErrCorrupt {
		t.Errorf("Decompress() error = %v, want %v", err, ErrCorrupt)
	}
}

func TestWriterDoubleClose(t *testing.T) {
	var buf bytes.Buffer
	wr := NewWriter(&buf)
	io.Copy(wr, strings.NewReader("hello world"))
	if err := wr.Close(); err != nil {
		t.Fatalf("first Close() = %v, want nil", err)
	}
	if err := wr.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}

func TestTruncatedContainer(t *testing.T) {
	if _, err := Decompress([]byte{0x70, 0x70}); err != ErrCorrupt {
		t.Errorf("Decompress() error = %v, want %v", err, ErrCorrupt)
	}
}
