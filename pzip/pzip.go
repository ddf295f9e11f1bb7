// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package pzip implements the PZIP compressed data format: a symmetric
// PPM (Prediction by Partial Match) compressor with arithmetic coding.
// The statistical modeling and coding core lives in internal/ppm; this
// package only adds the container framing (magic, length, CRC32) and
// the io.Reader/io.Writer convenience wrappers around it.
package pzip

import (
	"encoding/binary"
	"hash/crc32"
	"runtime"

	"github.com/dsnet-pzip/pzip/internal/ppm"
)

// Error is the wrapper type for errors specific to this library.
type Error string

func (e Error) Error() string { return "pzip: " + string(e) }

var (
	// ErrCorrupt indicates that the decoder found an invalid container:
	// a bad magic number or a CRC32 mismatch.
	ErrCorrupt error = Error("stream is corrupted")

	// ErrClosed indicates that a Writer was already closed.
	ErrClosed error = Error("writer is closed")
)

// errRecover is shared by Compress/Decompress and Reader/Writer: it turns
// any error panicked out of internal/ppm (an ppm.Error, signaling an
// internal invariant violation or a truncated input) into a plain
// returned error, while letting a runtime.Error or any other panic
// continue to propagate, matching bzip2.errRecover's split exactly.
func errRecover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}

const (
	// magic identifies a PZIP container: the ASCII bytes "ppz2" read as
	// a big-endian uint32.
	magic = 0x70707a32

	// hdrLen is the fixed-size container header: magic + original
	// length + CRC32, each a big-endian uint32.
	hdrLen = 4 + 4 + 4
)

// Compress returns src framed as a complete PZIP container: a 12-byte
// header (magic, original length, CRC32 of src) followed by the
// PPM-compressed payload.
func Compress(src []byte) (dst []byte, err error) {
	defer errRecover(&err)

	m := ppm.NewModel()
	payload, _ := m.EncodeBuffer(src)

	dst = make([]byte, hdrLen+len(payload))
	binary.BigEndian.PutUint32(dst[0:4], magic)
	binary.BigEndian.PutUint32(dst[4:8], uint32(len(src)))
	binary.BigEndian.PutUint32(dst[8:12], crc32.ChecksumIEEE(src))
	copy(dst[hdrLen:], payload)
	return dst, nil
}

// Decompress reverses Compress, verifying the container's magic number
// and CRC32 before returning the decompressed bytes.
func Decompress(src []byte) (dst []byte, err error) {
	defer errRecover(&err)

	if len(src) < hdrLen {
		return nil, ErrCorrupt
	}
	if binary.BigEndian.Uint32(src[0:4]) != magic {
		return nil, ErrCorrupt
	}
	origLen := binary.BigEndian.Uint32(src[4:8])
	wantCRC := binary.BigEndian.Uint32(src[8:12])

	m := ppm.NewModel()
	dst, _ = m.DecodeBuffer(src[hdrLen:], int(origLen))

	if crc32.ChecksumIEEE(dst) != wantCRC {
		return nil, ErrCorrupt
	}
	return dst, nil
}
