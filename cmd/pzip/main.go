// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command pzip compresses and decompresses files using the PZIP format,
// auto-detecting which direction to run from the input file's magic
// number (the same 4-byte sniff original_source/pzip-0.82/main.c does),
// adapted here to a single flag set instead of positional in/out
// filename parsing.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"hash/crc32"
	"io/ioutil"
	"os"

	"github.com/dsnet-pzip/pzip/pzip"
)

var (
	encodeOnly = flag.Bool("e", false, "encode only; skip the decode/compare sanity check")
	verbose    = flag.Bool("v", false, "print compression stats to stderr")
	output     = flag.String("o", "", "output file (default: stdout)")
)

const pzipMagic = 0x70707a32

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inName string) error {
	input, err := ioutil.ReadFile(inName)
	if err != nil {
		return err
	}

	var out []byte
	if len(input) >= 4 && binary.BigEndian.Uint32(input[:4]) == pzipMagic {
		out, err = decode(input)
	} else {
		out, err = encode(input)
	}
	if err != nil {
		return err
	}

	if *output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return ioutil.WriteFile(*output, out, 0644)
}

func encode(input []byte) ([]byte, error) {
	enc, err := pzip.Compress(input)
	if err != nil {
		return nil, err
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "%8d -> %8d = %1.3f bpc\n",
			len(input), len(enc), float64(len(enc))*8/float64(max1(len(input))))
	}
	if !*encodeOnly {
		if _, err := roundTripCheck(input, enc); err != nil {
			return nil, err
		}
	}
	return enc, nil
}

func decode(input []byte) ([]byte, error) {
	dec, err := pzip.Decompress(input)
	if err != nil {
		return nil, err
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "%8d -> %8d\n", len(input), len(dec))
	}
	return dec, nil
}

// roundTripCheck decompresses a freshly encoded buffer and compares it
// against the original, the Go analogue of main.c's unconditional
// encode-then-decode-then-memcmp sanity check (skipped only with -e).
func roundTripCheck(input, enc []byte) ([]byte, error) {
	dec, err := pzip.Decompress(enc)
	if err != nil {
		return nil, fmt.Errorf("round-trip check failed: %v", err)
	}
	if crc32.ChecksumIEEE(dec) != crc32.ChecksumIEEE(input) {
		return nil, fmt.Errorf("round-trip check failed: decoded output does not match input")
	}
	return dec, nil
}

func max1(n int) int {
	if n == 0 {
		return 1
	}
	return n
}
