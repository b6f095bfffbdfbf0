// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import "fmt"

// The streaming core: one-way pipelines of push (write) and pull (read)
// filters. A filter owns its private state and releases it from free; data
// buffers handed out by a pull are valid only until the next pull.

// pushOps is implemented by every stage of a push pipeline.
type pushOps interface {
	// init returns the preferred chunk size. Zero means unbuffered: every
	// write is forwarded as-is. A positive size makes the filter
	// accumulate and forward exact-size chunks.
	init(next *PushFilter) (int, error)
	// push must consume all of data or fail.
	push(next *PushFilter, data []byte) error
	// flush is called once at end-of-stream, outermost filter first,
	// after its buffered tail has been pushed.
	flush(next *PushFilter) error
	free()
}

// PushFilter is a node in a write pipeline.
type PushFilter struct {
	ops  pushOps
	next *PushFilter
	buf  []byte
	pos  int
}

func newPushFilter(ops pushOps, next *PushFilter) (*PushFilter, error) {
	size, err := ops.init(next)
	if err != nil {
		return nil, err
	}
	pf := &PushFilter{ops: ops, next: next}
	if size > 0 {
		pf.buf = make([]byte, size)
	}
	return pf, nil
}

func (pf *PushFilter) process(data []byte) error {
	return pf.ops.push(pf.next, data)
}

// Write feeds bytes into the filter, forwarding them in exact buffer-size
// chunks when the filter asked for buffering.
func (pf *PushFilter) Write(data []byte) error {
	if pf.buf == nil {
		return pf.process(data)
	}
	for len(data) > 0 {
		n := len(pf.buf) - pf.pos
		if n > len(data) {
			n = len(data)
		}
		copy(pf.buf[pf.pos:], data[:n])
		pf.pos += n
		data = data[n:]
		if pf.pos == len(pf.buf) {
			if err := pf.process(pf.buf); err != nil {
				return err
			}
			pf.pos = 0
		}
	}
	return nil
}

// WriteByte feeds a single byte into the filter.
func (pf *PushFilter) WriteByte(b byte) error {
	return pf.Write([]byte{b})
}

// Flush drains every filter in the chain, outermost first. Each filter's
// partial tail is forwarded exactly once before its flush hook runs.
func (pf *PushFilter) Flush() error {
	for st := pf; st != nil; st = st.next {
		if st.pos > 0 {
			if err := st.process(st.buf[:st.pos]); err != nil {
				return err
			}
			st.pos = 0
		}
		if err := st.ops.flush(st.next); err != nil {
			return err
		}
	}
	return nil
}

// Free releases this filter only.
func (pf *PushFilter) Free() {
	pf.ops.free()
	zeroize(pf.buf)
}

// FreeAll releases the whole chain, outermost first.
func (pf *PushFilter) FreeAll() {
	for st := pf; st != nil; st = st.next {
		st.ops.free()
		zeroize(st.buf)
	}
}

// pullOps is implemented by every stage of a pull pipeline.
type pullOps interface {
	// init returns the scratch buffer size the filter wants for pull.
	init(src *PullFilter) (int, error)
	// pull returns up to want bytes. The result may alias buf or the
	// upstream filter's storage and is valid until the next pull. An
	// empty result means end-of-stream.
	pull(src *PullFilter, want int, buf []byte) ([]byte, error)
	free()
}

// PullFilter is a node in a read pipeline.
type PullFilter struct {
	ops pullOps
	src *PullFilter
	buf []byte
}

func newPullFilter(ops pullOps, src *PullFilter) (*PullFilter, error) {
	size, err := ops.init(src)
	if err != nil {
		return nil, err
	}
	pf := &PullFilter{ops: ops, src: src}
	if size > 0 {
		pf.buf = make([]byte, size)
	}
	return pf, nil
}

// Read returns up to want bytes; empty means end-of-stream.
func (pf *PullFilter) Read(want int) ([]byte, error) {
	if pf.buf != nil && want > len(pf.buf) {
		want = len(pf.buf)
	}
	return pf.ops.pull(pf.src, want, pf.buf)
}

// ReadMax drains up to n bytes, concatenating short pulls into tmp when the
// first pull comes back short. A short result happens only at end-of-stream.
func (pf *PullFilter) ReadMax(n int, tmp []byte) ([]byte, error) {
	res, err := pf.Read(n)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 || len(res) == n {
		return res, nil
	}

	// slow path
	total := copy(tmp, res)
	for total < n {
		res, err = pf.Read(n - total)
		if err != nil {
			return nil, err
		}
		if len(res) == 0 {
			break
		}
		total += copy(tmp[total:], res)
	}
	return tmp[:total], nil
}

// ReadFixed requires exactly n bytes.
func (pf *PullFilter) ReadFixed(n int, tmp []byte) ([]byte, error) {
	res, err := pf.ReadMax(n, tmp)
	if err != nil {
		return nil, err
	}
	if len(res) != n {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", errShortRead, n, len(res))
	}
	return res, nil
}

// ReadFixedCopy fills dst with exactly len(dst) bytes.
func (pf *PullFilter) ReadFixedCopy(dst []byte) (int, error) {
	res, err := pf.ReadFixed(len(dst), dst)
	if err != nil {
		return 0, err
	}
	copy(dst, res)
	return len(dst), nil
}

// GetByte reads exactly one byte.
func (pf *PullFilter) GetByte() (byte, error) {
	var tmp [1]byte
	res, err := pf.ReadFixed(1, tmp[:])
	if err != nil {
		return 0, err
	}
	return res[0], nil
}

// Free releases this filter only, leaving the upstream chain alive.
func (pf *PullFilter) Free() {
	pf.ops.free()
	zeroize(pf.buf)
	pf.src = nil
}

// mbufReader is the pull endpoint feeding from an MBuf.
type mbufReader struct {
	src *MBuf
}

func (*mbufReader) init(*PullFilter) (int, error) { return 0, nil }

func (r *mbufReader) pull(_ *PullFilter, want int, _ []byte) ([]byte, error) {
	return r.src.Grab(want), nil
}

func (*mbufReader) free() {}

func newMBufReader(src *MBuf) (*PullFilter, error) {
	return newPullFilter(&mbufReader{src: src}, nil)
}

// mbufWriter is the push endpoint appending to an MBuf.
type mbufWriter struct {
	dst *MBuf
}

func (*mbufWriter) init(*PushFilter) (int, error) { return 0, nil }

func (w *mbufWriter) push(_ *PushFilter, data []byte) error {
	return w.dst.Append(data)
}

func (*mbufWriter) flush(*PushFilter) error { return nil }

func (*mbufWriter) free() {}

func newMBufWriter(dst *MBuf) (*PushFilter, error) {
	return newPushFilter(&mbufWriter{dst: dst}, nil)
}
