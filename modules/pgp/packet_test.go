// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLenRoundTrip(t *testing.T) {
	for _, length := range []int{0, 1, 191, 192, 8383, 8384, 65535, 65536, 16777215} {
		var hdr [5]byte
		enc := encodeNewLen(hdr[:0], length)

		src, err := newMBufReader(NewMBufFromData(enc))
		require.NoError(t, err)
		got, kind, err := parseNewLen(src)
		require.NoError(t, err)
		assert.Equal(t, pktNormal, kind, "len %d", length)
		assert.Equal(t, length, got, "len %d", length)

		// shortest possible encoding
		switch {
		case length <= 191:
			assert.Len(t, enc, 1)
		case length <= 8383:
			assert.Len(t, enc, 2)
		default:
			assert.Len(t, enc, 5)
		}
	}
}

func TestNewLenPartial(t *testing.T) {
	src, err := newMBufReader(NewMBufFromData([]byte{0xE0 | 14}))
	require.NoError(t, err)
	length, kind, err := parseNewLen(src)
	require.NoError(t, err)
	assert.Equal(t, pktStream, kind)
	assert.Equal(t, 16*1024, length)
}

func TestNewLenTooLarge(t *testing.T) {
	// 4-byte length above the 16 MiB cap
	src, err := newMBufReader(NewMBufFromData([]byte{255, 0x01, 0x00, 0x00, 0x01}))
	require.NoError(t, err)
	_, _, err = parseNewLen(src)
	assert.ErrorIs(t, err, ErrCorruptData)
}

func TestParsePktHdr(t *testing.T) {
	// new format, tag 11, length 5
	src, err := newMBufReader(NewMBufFromData([]byte{0xC0 | tagLiteralData, 5}))
	require.NoError(t, err)
	tag, length, kind, err := parsePktHdr(src, false)
	require.NoError(t, err)
	assert.Equal(t, uint8(tagLiteralData), tag)
	assert.Equal(t, 5, length)
	assert.Equal(t, pktNormal, kind)

	// old format, tag 8, 1-byte length
	src, err = newMBufReader(NewMBufFromData([]byte{0x80 | tagCompressedData<<2, 7}))
	require.NoError(t, err)
	tag, length, kind, err = parsePktHdr(src, false)
	require.NoError(t, err)
	assert.Equal(t, uint8(tagCompressedData), tag)
	assert.Equal(t, 7, length)
	assert.Equal(t, pktNormal, kind)

	// eof
	src, err = newMBufReader(NewMBufFromData(nil))
	require.NoError(t, err)
	_, _, kind, err = parsePktHdr(src, false)
	require.NoError(t, err)
	assert.Equal(t, pktEOF, kind)

	// bit 7 clear is not a packet header
	src, err = newMBufReader(NewMBufFromData([]byte{0x01}))
	require.NoError(t, err)
	_, _, _, err = parsePktHdr(src, false)
	assert.ErrorIs(t, err, ErrCorruptData)
}

func TestParsePktHdrContext(t *testing.T) {
	// old format, tag 11, length type 3
	hdr := []byte{0x80 | tagLiteralData<<2 | 3}

	src, err := newMBufReader(NewMBufFromData(hdr))
	require.NoError(t, err)
	_, _, kind, err := parsePktHdr(src, true)
	require.NoError(t, err)
	assert.Equal(t, pktContext, kind)

	src, err = newMBufReader(NewMBufFromData(hdr))
	require.NoError(t, err)
	_, _, _, err = parsePktHdr(src, false)
	assert.ErrorIs(t, err, ErrCorruptData)
}

func TestPktWriterReaderRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("short"),
		make([]byte, streamChunk),
		make([]byte, streamChunk+1),
		make([]byte, 3*streamChunk+100),
	}
	for i := range payloads {
		for j := range payloads[i] {
			payloads[i][j] = byte(i + j)
		}
	}

	for _, payload := range payloads {
		dst := NewMBuf(len(payload) + 64)
		sink, err := newMBufWriter(dst)
		require.NoError(t, err)
		w, err := newPktWriter(sink, tagLiteralData)
		require.NoError(t, err)
		require.NoError(t, w.Write(payload))
		require.NoError(t, w.Flush())

		wire := dst.StealData()
		src, err := newMBufReader(NewMBufFromData(wire))
		require.NoError(t, err)
		tag, length, kind, err := parsePktHdr(src, false)
		require.NoError(t, err)
		assert.Equal(t, uint8(tagLiteralData), tag)

		pkt, err := newPktReader(src, length, kind)
		require.NoError(t, err)
		var got []byte
		for {
			res, err := pkt.Read(1000)
			require.NoError(t, err)
			if len(res) == 0 {
				break
			}
			got = append(got, res...)
		}
		assert.Equal(t, len(payload), len(got))
		assert.True(t, bytes.Equal(payload, got))
		require.NoError(t, expectPacketEnd(pkt))
	}
}

func TestSkipPacket(t *testing.T) {
	dst := NewMBuf(64)
	sink, err := newMBufWriter(dst)
	require.NoError(t, err)
	require.NoError(t, writeNormalHeader(sink, tagMarker, 3))
	require.NoError(t, sink.Write([]byte("PGP")))
	require.NoError(t, sink.Write([]byte{0xC0 | tagLiteralData, 0}))

	src, err := newMBufReader(NewMBufFromData(dst.StealData()))
	require.NoError(t, err)
	tag, length, kind, err := parsePktHdr(src, false)
	require.NoError(t, err)
	assert.Equal(t, uint8(tagMarker), tag)
	pkt, err := newPktReader(src, length, kind)
	require.NoError(t, err)
	require.NoError(t, skipPacket(pkt))
	pkt.Free()

	// the next packet header must follow immediately
	tag, _, _, err = parsePktHdr(src, false)
	require.NoError(t, err)
	assert.Equal(t, uint8(tagLiteralData), tag)
}
