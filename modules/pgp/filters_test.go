// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkRecorder remembers the size of every chunk pushed through it.
type chunkRecorder struct {
	bufSize int
	chunks  []int
	flushed bool
}

func (r *chunkRecorder) init(*PushFilter) (int, error) { return r.bufSize, nil }

func (r *chunkRecorder) push(next *PushFilter, data []byte) error {
	r.chunks = append(r.chunks, len(data))
	return next.Write(data)
}

func (r *chunkRecorder) flush(*PushFilter) error {
	r.flushed = true
	return nil
}

func (*chunkRecorder) free() {}

func TestPushFilterChunking(t *testing.T) {
	dst := NewMBuf(64)
	sink, err := newMBufWriter(dst)
	require.NoError(t, err)

	rec := &chunkRecorder{bufSize: 8}
	pf, err := newPushFilter(rec, sink)
	require.NoError(t, err)

	payload := make([]byte, 21)
	for i := range payload {
		payload[i] = byte(i)
	}
	for _, b := range payload {
		require.NoError(t, pf.WriteByte(b))
	}
	require.NoError(t, pf.Flush())
	pf.FreeAll()

	// two full chunks, then the tail at flush
	assert.Equal(t, []int{8, 8, 5}, rec.chunks)
	assert.True(t, rec.flushed)
	assert.Equal(t, payload, dst.StealData())
}

func TestPushFilterUnbuffered(t *testing.T) {
	dst := NewMBuf(16)
	sink, err := newMBufWriter(dst)
	require.NoError(t, err)

	rec := &chunkRecorder{bufSize: 0}
	pf, err := newPushFilter(rec, sink)
	require.NoError(t, err)

	require.NoError(t, pf.Write([]byte("abcdef")))
	require.NoError(t, pf.Write([]byte("gh")))
	require.NoError(t, pf.Flush())

	assert.Equal(t, []int{6, 2}, rec.chunks)
	assert.Equal(t, []byte("abcdefgh"), dst.StealData())
}

// trickleReader returns at most two bytes per pull.
type trickleReader struct {
	data []byte
}

func (*trickleReader) init(*PullFilter) (int, error) { return 0, nil }

func (r *trickleReader) pull(_ *PullFilter, want int, _ []byte) ([]byte, error) {
	if len(r.data) == 0 {
		return nil, nil
	}
	n := want
	if n > 2 {
		n = 2
	}
	if n > len(r.data) {
		n = len(r.data)
	}
	res := r.data[:n]
	r.data = r.data[n:]
	return res, nil
}

func (*trickleReader) free() {}

func TestPullFilterReadMax(t *testing.T) {
	pf, err := newPullFilter(&trickleReader{data: []byte("0123456789")}, nil)
	require.NoError(t, err)

	tmp := make([]byte, 16)
	res, err := pf.ReadMax(7, tmp)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456"), res)

	// the rest is shorter than asked
	res, err = pf.ReadMax(7, tmp)
	require.NoError(t, err)
	assert.Equal(t, []byte("789"), res)

	res, err = pf.ReadMax(7, tmp)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestPullFilterReadFixed(t *testing.T) {
	pf, err := newPullFilter(&trickleReader{data: []byte("abc")}, nil)
	require.NoError(t, err)

	tmp := make([]byte, 8)
	_, err = pf.ReadFixed(5, tmp)
	assert.Error(t, err)
}

func TestPullFilterGetByte(t *testing.T) {
	src := NewMBufFromData([]byte{0xAA, 0xBB})
	pf, err := newMBufReader(src)
	require.NoError(t, err)

	b, err := pf.GetByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), b)
	b, err = pf.GetByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xBB), b)
	_, err = pf.GetByte()
	assert.Error(t, err)
}
