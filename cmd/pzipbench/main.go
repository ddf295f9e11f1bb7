// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command pzipbench compares pzip's compression ratio and throughput
// against a handful of other codecs on a set of input files, the same
// comparison internal/tool/bench/main.go performs for bzip2/flate/xz/
// brotli, scaled down to a single report (no level/size sweep) and
// registering pzip itself as one of the codecs under test.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz"

	"github.com/dsnet/golib/strconv"

	"github.com/dsnet-pzip/pzip/pzip"
)

type codec struct {
	name   string
	encode func([]byte) ([]byte, error)
	decode func([]byte) ([]byte, error)
}

var codecs = []codec{
	{"pzip", pzip.Compress, pzip.Decompress},
	{"flate", flateEncode, flateDecode},
	{"xz", xzEncode, xzDecode},
}

func flateEncode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flateDecode(src []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()
	return ioutil.ReadAll(r)
}

func xzEncode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xzDecode(src []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	return ioutil.ReadAll(r)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <file> [file...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	for _, name := range flag.Args() {
		data, err := ioutil.ReadFile(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		report(name, data)
	}
}

func report(name string, data []byte) {
	fmt.Printf("%s (%s)\n", name, humanSize(len(data)))
	fmt.Printf("  %-8s %10s %10s %8s %12s %12s\n", "codec", "size", "ratio", "bpc", "enc rate", "dec rate")
	for _, c := range codecs {
		t0 := time.Now()
		enc, err := c.encode(data)
		encDur := time.Since(t0)
		if err != nil {
			fmt.Printf("  %-8s error: %v\n", c.name, err)
			continue
		}

		t1 := time.Now()
		dec, err := c.decode(enc)
		decDur := time.Since(t1)
		if err != nil {
			fmt.Printf("  %-8s error: %v\n", c.name, err)
			continue
		}
		if !bytes.Equal(dec, data) {
			fmt.Printf("  %-8s round-trip mismatch\n", c.name)
			continue
		}

		ratio := float64(len(data)) / float64(max1(len(enc)))
		bpc := float64(len(enc)) * 8 / float64(max1(len(data)))
		encRate := rate(len(data), encDur)
		decRate := rate(len(data), decDur)
		fmt.Printf("  %-8s %10s %10.3f %8.3f %12s %12s\n",
			c.name, humanSize(len(enc)), ratio, bpc, humanRate(encRate), humanRate(decRate))
	}
}

func rate(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

func humanSize(n int) string {
	return strconv.FormatPrefix(float64(n), strconv.Base1024, 2) + "B"
}

func humanRate(bps float64) string {
	return strconv.FormatPrefix(bps, strconv.Base1024, 2) + "B/s"
}

func max1(n int) int {
	if n == 0 {
		return 1
	}
	return n
}
