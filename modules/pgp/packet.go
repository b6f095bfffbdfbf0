// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"fmt"

	"code.gitea.io/pgp/modules/log"
)

// Packet tags (RFC 4880 §4.3).
const (
	tagPubEncSesskey  = 1
	tagSignature      = 2
	tagSymEncSesskey  = 3
	tagSecretKey      = 5
	tagPublicKey      = 6
	tagSecretSubkey   = 7
	tagCompressedData = 8
	tagSymEncData     = 9
	tagMarker         = 10
	tagLiteralData    = 11
	tagTrust          = 12
	tagUserID         = 13
	tagPublicSubkey   = 14
	tagUserAttr       = 17
	tagSymEncMDCData  = 18
	tagMDC            = 19
	tagPriv61         = 61
)

// Packet length kinds as seen by the header parser.
const (
	pktEOF     = 0
	pktNormal  = 1
	pktStream  = 2
	pktContext = 3
)

// maxChunk caps any decoded body or chunk length.
const maxChunk = 16 * 1024 * 1024

// streamChunk is the partial-length chunk size the packet writer emits.
const streamChunk = 16 * 1024

func parseNewLen(src *PullFilter) (length, kind int, err error) {
	b, err := src.GetByte()
	if err != nil {
		return 0, 0, err
	}
	kind = pktNormal
	switch {
	case b <= 191:
		length = int(b)
	case b >= 192 && b <= 223:
		b2, err := src.GetByte()
		if err != nil {
			return 0, 0, err
		}
		length = (int(b)-192)<<8 + 192 + int(b2)
	case b == 255:
		var tmp [4]byte
		p, err := src.ReadFixed(4, tmp[:])
		if err != nil {
			return 0, 0, err
		}
		length = int(p[0])<<24 | int(p[1])<<16 | int(p[2])<<8 | int(p[3])
	default:
		length = 1 << (b & 0x1F)
		kind = pktStream
	}
	if length < 0 || length > maxChunk {
		log.Debug("parseNewLen: weird length")
		return 0, 0, ErrCorruptData
	}
	return length, kind, nil
}

func parseOldLen(src *PullFilter, lenType int) (int, error) {
	nbytes := 1
	switch lenType {
	case 1:
		nbytes = 2
	case 2:
		nbytes = 4
	}
	length := 0
	for i := 0; i < nbytes; i++ {
		b, err := src.GetByte()
		if err != nil {
			return 0, err
		}
		length = length<<8 | int(b)
	}
	if length < 0 || length > maxChunk {
		log.Debug("parseOldLen: weird length")
		return 0, ErrCorruptData
	}
	return length, nil
}

// parsePktHdr reads one packet header. kind is pktEOF at clean end-of-stream;
// context-length (old format, length type 3) is accepted only when allowCtx
// is set.
func parsePktHdr(src *PullFilter, allowCtx bool) (tag uint8, length, kind int, err error) {
	// EOF is normal here
	p, err := src.Read(1)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(p) == 0 {
		return 0, 0, pktEOF, nil
	}
	b := p[0]
	if b&0x80 == 0 {
		log.Debug("parsePktHdr: not packet header")
		return 0, 0, 0, ErrCorruptData
	}
	if b&0x40 != 0 {
		tag = b & 0x3F
		length, kind, err = parseNewLen(src)
		return tag, length, kind, err
	}
	tag = (b >> 2) & 0x0F
	if b&3 == 3 {
		if !allowCtx {
			return 0, 0, 0, ErrCorruptData
		}
		return tag, 0, pktContext, nil
	}
	length, err = parseOldLen(src, int(b&3))
	return tag, length, pktNormal, err
}

// pktReader delivers exactly one packet body, transparently consuming
// subsequent partial-length chunks.
type pktReader struct {
	kind int
	len  int
}

func (*pktReader) init(*PullFilter) (int, error) { return 0, nil }

func (p *pktReader) pull(src *PullFilter, want int, _ []byte) ([]byte, error) {
	// context length means: whatever there is
	if p.kind == pktContext {
		return src.Read(want)
	}

	for p.len == 0 {
		if p.kind == pktNormal {
			return nil, nil
		}

		// next chunk in stream
		length, kind, err := parseNewLen(src)
		if err != nil {
			return nil, err
		}
		p.len = length
		p.kind = kind
	}

	if want > p.len {
		want = p.len
	}
	res, err := src.Read(want)
	if err == nil {
		p.len -= len(res)
	}
	return res, err
}

func (p *pktReader) free() {
	p.kind = 0
	p.len = 0
}

func newPktReader(src *PullFilter, length, kind int) (*PullFilter, error) {
	return newPullFilter(&pktReader{kind: kind, len: length}, src)
}

// encodeNewLen appends the new-format encoding of a normal length.
func encodeNewLen(hdr []byte, length int) []byte {
	switch {
	case length <= 191:
		hdr = append(hdr, byte(length))
	case length <= 8383:
		length -= 192
		hdr = append(hdr, byte(length>>8)+192, byte(length))
	default:
		hdr = append(hdr, 0xFF,
			byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	}
	return hdr
}

// writeNormalHeader emits a complete new-format header for a one-shot packet.
func writeNormalHeader(dst *PushFilter, tag uint8, length int) error {
	hdr := make([]byte, 0, 6)
	hdr = append(hdr, 0xC0|tag)
	hdr = encodeNewLen(hdr, length)
	return dst.Write(hdr)
}

// pktWriter frames output as partial-length streamChunk blocks terminated by
// a normal-length final block (possibly empty) on flush.
type pktWriter struct {
	finalDone bool
}

// streamChunk is a power of two; partial headers encode the exponent.
var partialHdr = [1]byte{0xE0 | 14}

func (*pktWriter) init(*PushFilter) (int, error) { return streamChunk, nil }

func (w *pktWriter) push(next *PushFilter, data []byte) error {
	if w.finalDone {
		return fmt.Errorf("%w: write past final packet chunk", ErrBug)
	}
	var hdr []byte
	if len(data) == streamChunk {
		hdr = partialHdr[:]
	} else {
		hdr = encodeNewLen(nil, len(data))
		w.finalDone = true
	}
	if err := next.Write(hdr); err != nil {
		return err
	}
	return next.Write(data)
}

func (w *pktWriter) flush(next *PushFilter) error {
	if w.finalDone {
		return nil
	}
	// terminate the chunk stream with an empty normal packet
	w.finalDone = true
	return next.Write(encodeNewLen(nil, 0))
}

func (*pktWriter) free() {}

// newPktWriter emits the tag byte and returns a filter whose input becomes
// the packet body.
func newPktWriter(dst *PushFilter, tag uint8) (*PushFilter, error) {
	if err := dst.WriteByte(0xC0 | tag); err != nil {
		return nil, err
	}
	return newPushFilter(&pktWriter{}, dst)
}

// skipPacket drains a packet body.
func skipPacket(pkt *PullFilter) error {
	for {
		res, err := pkt.Read(32 * 1024)
		if err != nil {
			return err
		}
		if len(res) == 0 {
			return nil
		}
	}
}

// expectPacketEnd verifies the packet has no trailing bytes.
func expectPacketEnd(pkt *PullFilter) error {
	res, err := pkt.Read(32 * 1024)
	if err != nil {
		return err
	}
	if len(res) > 0 {
		log.Debug("expectPacketEnd: got data")
		return ErrCorruptData
	}
	return nil
}
