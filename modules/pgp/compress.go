// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"code.gitea.io/pgp/modules/log"
)

// pushSink adapts a PushFilter to io.Writer for the deflate writers.
type pushSink struct {
	next *PushFilter
}

func (s *pushSink) Write(p []byte) (int, error) {
	if err := s.next.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// compressWriter deflates its input into the downstream filter. The deflate
// end-of-stream marker is emitted on flush.
type compressWriter struct {
	ctx    *Context
	wr     io.WriteCloser
	closed bool
}

func (c *compressWriter) init(next *PushFilter) (int, error) {
	sink := &pushSink{next: next}
	var err error
	switch c.ctx.compressAlgo {
	case CompressZIP:
		c.wr, err = flate.NewWriter(sink, c.ctx.compressLevel)
	case CompressZLIB:
		c.wr, err = zlib.NewWriterLevel(sink, c.ctx.compressLevel)
	default:
		return 0, fmt.Errorf("%w: bad compression algorithm %d", ErrBug, c.ctx.compressAlgo)
	}
	if err != nil {
		return 0, err
	}
	return 0, nil
}

func (c *compressWriter) push(_ *PushFilter, data []byte) error {
	_, err := c.wr.Write(data)
	return err
}

func (c *compressWriter) flush(_ *PushFilter) error {
	c.closed = true
	return c.wr.Close()
}

func (c *compressWriter) free() {
	if !c.closed {
		_ = c.wr.Close()
	}
}

func newCompressFilter(ctx *Context, dst *PushFilter) (*PushFilter, error) {
	return newPushFilter(&compressWriter{ctx: ctx}, dst)
}

// pullSource adapts a PullFilter to io.Reader. Implementing io.ByteReader
// keeps the inflater from consuming bytes past the deflate end-of-stream, so
// trailing garbage stays visible to the excess check.
type pullSource struct {
	src *PullFilter
	rem []byte
}

func (s *pullSource) Read(p []byte) (int, error) {
	if len(s.rem) == 0 {
		res, err := s.src.Read(len(p))
		if err != nil {
			return 0, err
		}
		if len(res) == 0 {
			return 0, io.EOF
		}
		s.rem = res
	}
	n := copy(p, s.rem)
	s.rem = s.rem[n:]
	return n, nil
}

func (s *pullSource) ReadByte() (byte, error) {
	var b [1]byte
	n, err := s.Read(b[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return b[0], nil
}

// decompressReader inflates the compressed sub-stream and rejects any input
// left over after the deflate end-of-stream.
type decompressReader struct {
	ctx    *Context
	rd     io.ReadCloser
	source *pullSource
	eof    bool
}

func (d *decompressReader) init(src *PullFilter) (int, error) {
	d.source = &pullSource{src: src}
	var err error
	switch d.ctx.compressAlgo {
	case CompressZIP:
		d.rd = flate.NewReader(d.source)
	case CompressZLIB:
		d.rd, err = zlib.NewReader(d.source)
		if err != nil {
			log.Debug("zlib init failed: %v", err)
			return 0, ErrCorruptData
		}
	default:
		return 0, fmt.Errorf("%w: bad compression algorithm %d", ErrBug, d.ctx.compressAlgo)
	}
	return 8192, nil
}

func (d *decompressReader) checkExcess(src *PullFilter) error {
	if len(d.source.rem) > 0 {
		log.Debug("decompress: extra data after deflate stream")
		return ErrCorruptData
	}
	res, err := src.Read(1)
	if err != nil {
		return err
	}
	if len(res) > 0 {
		log.Debug("decompress: extra data after deflate stream")
		return ErrCorruptData
	}
	return nil
}

func (d *decompressReader) pull(src *PullFilter, want int, buf []byte) ([]byte, error) {
	if d.eof {
		return nil, nil
	}
	for {
		n, err := d.rd.Read(buf[:want])
		if err == io.EOF {
			d.eof = true
			if cerr := d.checkExcess(src); cerr != nil {
				return nil, cerr
			}
			return buf[:n], nil
		}
		if err != nil {
			log.Debug("decompress failed: %v", err)
			return nil, ErrCorruptData
		}
		if n > 0 {
			return buf[:n], nil
		}
	}
}

func (d *decompressReader) free() {
	if d.rd != nil {
		_ = d.rd.Close()
	}
}

func newDecompressFilter(ctx *Context, src *PullFilter) (*PullFilter, error) {
	return newPullFilter(&decompressReader{ctx: ctx}, src)
}
