// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package pzip

import "io"

// Writer buffers every byte written to it and, on Close, compresses the
// whole buffer in a single Model.EncodeBuffer call and writes the
// resulting container to the wrapped io.Writer. This is a deliberate
// departure from bzip2.Writer's true block-at-a-time streaming: PPM's
// model state is built incrementally over the entire input, so there is
// no block boundary at which a partial encode could be flushed without
// changing the format (spec Non-goal: streaming/incremental encode
// across call boundaries).
type Writer struct {
	// InputOffset is the total number of bytes issued to Write.
	InputOffset int64

	w   io.Writer
	buf []byte
	err error
}

// NewWriter returns a Writer that writes a complete PZIP container to w
// when Close is called.
func NewWriter(w io.Writer) *Writer {
	zw := new(Writer)
	zw.Reset(w)
	return zw
}

// Reset discards the Writer's buffered input and any error, and prepares
// it to write to w.
func (zw *Writer) Reset(w io.Writer) {
	*zw = Writer{w: w, buf: zw.buf[:0]}
}

func (zw *Writer) Write(buf []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	zw.buf = append(zw.buf, buf...)
	zw.InputOffset += int64(len(buf))
	return len(buf), nil
}

// Close compresses everything written so far and flushes the framed
// container to the underlying io.Writer. Calling Close more than once is
// a no-op returning the first error encountered.
func (zw *Writer) Close() error {
	if zw.err == ErrClosed {
		return nil
	}
	if zw.err != nil {
		return zw.err
	}

	out, err := Compress(zw.buf)
	if err != nil {
		zw.err = err
		return zw.err
	}
	if _, err := zw.w.Write(out); err != nil {
		zw.err = err
		return zw.err
	}

	zw.err = ErrClosed
	return nil
}
