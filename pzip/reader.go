// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package pzip

import (
	"io"
	"io/ioutil"
)

// Reader decompresses a complete PZIP container read from the wrapped
// io.Reader. Like Writer, it departs from bzip2.Reader's incremental
// block-at-a-time design: it reads the entirety of the underlying
// io.Reader and performs a single Model.DecodeBuffer call on first Read,
// since the decoder needs the container's declared original length
// before it can produce its first output byte.
type Reader struct {
	// OutputOffset is the total number of bytes emitted from Read.
	OutputOffset int64

	r   io.Reader
	err error
	rd  bool // have we already decompressed?
	out []byte
}

// NewReader returns a Reader that decompresses the PZIP container read
// from r.
func NewReader(r io.Reader) *Reader {
	zr := new(Reader)
	zr.Reset(r)
	return zr
}

// Reset discards any decompressed output and prepares zr to read a fresh
// container from r.
func (zr *Reader) Reset(r io.Reader) {
	*zr = Reader{r: r}
}

func (zr *Reader) decompress() {
	src, err := ioutil.ReadAll(zr.r)
	if err != nil {
		zr.err = err
		return
	}
	zr.out, zr.err = Decompress(src)
}

func (zr *Reader) Read(buf []byte) (int, error) {
	if !zr.rd {
		zr.rd = true
		zr.decompress()
	}
	if zr.err != nil {
		return 0, zr.err
	}
	if len(zr.out) == 0 {
		return 0, io.EOF
	}

	cnt := copy(buf, zr.out)
	zr.out = zr.out[cnt:]
	zr.OutputOffset += int64(cnt)
	return cnt, nil
}
