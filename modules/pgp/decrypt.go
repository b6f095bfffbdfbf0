// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"bytes"
	"crypto/sha1"

	"code.gitea.io/pgp/modules/log"
)

const (
	decBufSize     = 8192
	discardBufSize = 8192
)

// decryptReader runs the payload CFB over everything pulled through it.
type decryptReader struct {
	cfb *cfbState
}

func (*decryptReader) init(*PullFilter) (int, error) { return decBufSize, nil }

func (d *decryptReader) pull(src *PullFilter, want int, buf []byte) ([]byte, error) {
	res, err := src.Read(want)
	if err != nil || len(res) == 0 {
		return nil, err
	}
	d.cfb.decrypt(res, buf[:len(res)])
	return buf[:len(res)], nil
}

func (d *decryptReader) free() {
	d.cfb.free()
}

// prefixReader consumes the random prefix on creation and verifies the
// two repeated bytes. A mismatch is only latched; reporting it right away
// would give an attacker a decryption oracle.
type prefixReader struct {
	ctx *Context
}

func (p *prefixReader) init(src *PullFilter) (int, error) {
	bs := p.ctx.cipherAlgo.BlockSize()
	var tmp [maxBlockSize + 2]byte
	defer zeroize(tmp[:])

	res, err := src.ReadMax(bs+2, tmp[:])
	if err != nil {
		return 0, err
	}
	if len(res) != bs+2 {
		log.Debug("prefix: short read")
		return 0, ErrCorruptData
	}
	if res[bs-2] != res[bs] || res[bs-1] != res[bs+1] {
		log.Debug("prefix: corrupt prefix")
		p.ctx.corruptPrefix = true
	}
	return 0, nil
}

func (*prefixReader) pull(src *PullFilter, want int, _ []byte) ([]byte, error) {
	return src.Read(want)
}

func (*prefixReader) free() {}

// mdcReader hashes the stream for the trailing MDC packet. The packet
// headers pass through it too, so the 0xD3 0x14 trailer enters the hash
// before finish suppresses further updates.
type mdcReader struct {
	ctx *Context
}

func (m *mdcReader) init(*PullFilter) (int, error) {
	m.ctx.mdcHash = sha1.New()
	return 0, nil
}

func (m *mdcReader) pull(src *PullFilter, want int, _ []byte) ([]byte, error) {
	if m.ctx.useMdcbufFilter || m.ctx.inMdcPkt {
		return src.Read(want)
	}
	res, err := src.Read(want)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		log.Debug("mdc: unexpected eof")
		return nil, ErrCorruptData
	}
	m.ctx.mdcHash.Write(res)
	return res, nil
}

func (*mdcReader) free() {}

// mdcFinish reads the tag-19 body and checks it against the running hash.
func mdcFinish(ctx *Context, pkt *PullFilter, length int) error {
	if ctx.useMdcbufFilter {
		return ErrBug
	}
	if length != sha1.Size {
		return ErrCorruptData
	}

	// the hash body must not be hashed into itself
	ctx.inMdcPkt = true

	var tmp [sha1.Size]byte
	defer zeroize(tmp[:])
	res, err := pkt.ReadMax(sha1.Size, tmp[:])
	if err != nil {
		return err
	}
	if len(res) != sha1.Size {
		log.Debug("mdcFinish: read failed, got=%d", len(res))
		return ErrCorruptData
	}

	hash := ctx.mdcHash.Sum(nil)
	defer zeroize(hash)
	if !bytes.Equal(hash, res) {
		log.Debug("mdcFinish: mdc does not match")
		return ErrCorruptData
	}
	ctx.mdcChecked = true
	return nil
}

// mdcBufReader handles a context-length packet inside an MDC-protected
// stream: the packet runs to end of stream, so the last 22 bytes have to be
// held back as the MDC packet while everything before them is both returned
// and hashed.
type mdcBufReader struct {
	ctx      *Context
	eof      bool
	avail    int
	pos      int
	mdcAvail int
	mdcBuf   [2 + sha1.Size]byte
	buf      [decBufSize]byte
}

func (m *mdcBufReader) init(*PullFilter) (int, error) {
	// takes over the digest mdcReader started; the prefix and this
	// packet's header byte are already in it
	m.ctx.useMdcbufFilter = true
	return 0, nil
}

func (m *mdcBufReader) finish() error {
	m.eof = true
	if m.mdcBuf[0] != 0xD3 || m.mdcBuf[1] != 0x14 {
		log.Debug("mdcBufReader: bad MDC pkt hdr")
		return ErrCorruptData
	}
	m.ctx.mdcHash.Write(m.mdcBuf[:2])
	hash := m.ctx.mdcHash.Sum(nil)
	defer zeroize(hash)
	if !bytes.Equal(hash, m.mdcBuf[2:]) {
		log.Debug("mdcBufReader: MDC does not match")
		return ErrCorruptData
	}
	m.ctx.mdcChecked = true
	return nil
}

func (m *mdcBufReader) loadData(src []byte) {
	copy(m.buf[m.pos+m.avail:], src)
	m.ctx.mdcHash.Write(src)
	m.avail += len(src)
}

func (m *mdcBufReader) loadMDC(src []byte) {
	copy(m.mdcBuf[m.mdcAvail:], src)
	m.mdcAvail += len(src)
}

func (m *mdcBufReader) refill(src *PullFilter) error {
	if m.avail > 0 && m.pos != 0 {
		copy(m.buf[:], m.buf[m.pos:m.pos+m.avail])
	}
	m.pos = 0

	need := len(m.buf) + len(m.mdcBuf) - m.avail - m.mdcAvail
	data, err := src.Read(need)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return m.finish()
	}

	if len(data) >= len(m.mdcBuf) {
		m.loadData(m.mdcBuf[:m.mdcAvail])
		m.mdcAvail = 0

		m.loadData(data[:len(data)-len(m.mdcBuf)])
		m.loadMDC(data[len(data)-len(m.mdcBuf):])
	} else {
		canMove := m.mdcAvail + len(data) - len(m.mdcBuf)
		if canMove > 0 {
			m.loadData(m.mdcBuf[:canMove])
			m.mdcAvail -= canMove
			copy(m.mdcBuf[:], m.mdcBuf[canMove:canMove+m.mdcAvail])
		}
		m.loadMDC(data)
	}
	return nil
}

func (m *mdcBufReader) pull(src *PullFilter, want int, _ []byte) ([]byte, error) {
	if !m.eof && want > m.avail {
		if err := m.refill(src); err != nil {
			return nil, err
		}
	}
	if want > m.avail {
		want = m.avail
	}
	res := m.buf[m.pos : m.pos+want]
	m.pos += want
	m.avail -= want
	return res, nil
}

func (m *mdcBufReader) free() {
	zeroize(m.buf[:])
	zeroize(m.mdcBuf[:])
}

// copyCRLF appends data to dst converting \r\n to \n. A \r at the end of a
// chunk is carried over to the next call.
func copyCRLF(dst *MBuf, data []byte, gotCR *bool) error {
	if *gotCR {
		if len(data) == 0 || data[0] != '\n' {
			if err := dst.AppendByte('\r'); err != nil {
				return err
			}
		}
		*gotCR = false
	}
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\r')
		if idx < 0 {
			return dst.Append(data)
		}
		if err := dst.Append(data[:idx]); err != nil {
			return err
		}
		data = data[idx+1:]
		if len(data) == 0 {
			*gotCR = true
			return nil
		}
		if data[0] != '\n' {
			// lone \r stays
			if err := dst.AppendByte('\r'); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseLiteralData(ctx *Context, dst *MBuf, pkt *PullFilter) error {
	format, err := pkt.GetByte()
	if err != nil {
		return err
	}
	nameLen, err := pkt.GetByte()
	if err != nil {
		return err
	}

	// skip name
	left := int(nameLen)
	for left > 0 {
		res, err := pkt.Read(left)
		if err != nil {
			return err
		}
		if len(res) == 0 {
			log.Debug("parseLiteralData: unexpected eof")
			return ErrCorruptData
		}
		left -= len(res)
	}

	// skip date
	var date [4]byte
	if _, err := pkt.ReadFixedCopy(date[:]); err != nil {
		return err
	}

	if ctx.textMode && format != 't' && format != 'u' {
		log.Debug("parseLiteralData: data type=%c", format)
		ctx.unexpectedBinary = true
	}
	ctx.unicodeMode = format == 'u'

	gotCR := false
	for {
		res, err := pkt.Read(32 * 1024)
		if err != nil {
			return err
		}
		if len(res) == 0 {
			break
		}
		if ctx.textMode && ctx.convertCRLF {
			err = copyCRLF(dst, res, &gotCR)
		} else {
			err = dst.Append(res)
		}
		if err != nil {
			return err
		}
	}
	if gotCR {
		return dst.AppendByte('\r')
	}
	return nil
}

func parseCompressedData(ctx *Context, dst *MBuf, pkt *PullFilter) error {
	algo, err := pkt.GetByte()
	if err != nil {
		return err
	}
	ctx.compressAlgo = int(algo)

	switch int(algo) {
	case CompressNone:
		return processDataPackets(ctx, dst, pkt, false, false)

	case CompressZIP, CompressZLIB:
		decompr, err := newDecompressFilter(ctx, pkt)
		if err != nil {
			return err
		}
		err = processDataPackets(ctx, dst, decompr, false, false)
		decompr.Free()
		return err

	case CompressBZIP2:
		log.Debug("parseCompressedData: bzip2 unsupported")
		// consume the packet so the error surfaces only at the end
		for {
			res, err := pkt.Read(discardBufSize)
			if err != nil {
				return err
			}
			if len(res) == 0 {
				break
			}
		}
		ctx.unsupportedCompr = true
		return nil

	default:
		log.Debug("parseCompressedData: unknown compr type %d", algo)
		return ErrCorruptData
	}
}

// processDataPackets walks the plaintext packet sequence inside an
// encrypted-data packet: literal data, optional compressed wrapper (one
// level only) and, when allowMDC is set, the trailing MDC packet.
func processDataPackets(ctx *Context, dst *MBuf, src *PullFilter, allowCompr, allowMDC bool) error {
	gotData := false
	gotMDC := false

	for {
		tag, length, kind, err := parsePktHdr(src, true)
		if err != nil {
			return err
		}
		if kind == pktEOF {
			break
		}

		// mdc packet must be last
		if gotMDC {
			log.Debug("processDataPackets: data after mdc")
			return ErrCorruptData
		}

		var pkt *PullFilter
		if allowMDC && kind == pktContext {
			pkt, err = newPullFilter(&mdcBufReader{ctx: ctx}, src)
		} else {
			pkt, err = newPktReader(src, length, kind)
		}
		if err != nil {
			return err
		}

		switch tag {
		case tagLiteralData:
			gotData = true
			err = parseLiteralData(ctx, dst, pkt)
		case tagCompressedData:
			if !allowCompr {
				log.Debug("processDataPackets: compressed data not allowed")
				err = ErrCorruptData
				break
			}
			if gotData {
				log.Debug("processDataPackets: compressed data after literal data")
				err = ErrCorruptData
				break
			}
			gotData = true
			err = parseCompressedData(ctx, dst, pkt)
		case tagMDC:
			if !allowMDC {
				log.Debug("processDataPackets: unexpected MDC")
				err = ErrCorruptData
				break
			}
			if err = mdcFinish(ctx, pkt, length); err == nil {
				gotMDC = true
			}
		default:
			log.Debug("processDataPackets: unknown tag: 0x%02x", tag)
			err = ErrCorruptData
		}
		pkt.Free()
		if err != nil {
			return err
		}
	}

	if !gotData {
		log.Debug("processDataPackets: no data")
		return ErrCorruptData
	}
	if allowMDC && !gotMDC && !ctx.mdcChecked {
		log.Debug("processDataPackets: got no mdc")
		return ErrCorruptData
	}
	return nil
}

// parseSymencData handles the legacy tag-9 packet: resync CFB, no MDC.
func parseSymencData(ctx *Context, pkt *PullFilter, dst *MBuf) error {
	cfb, err := newCFB(ctx.cipherAlgo, ctx.sessKey, nil, true)
	if err != nil {
		return err
	}
	decrypt, err := newPullFilter(&decryptReader{cfb: cfb}, pkt)
	if err != nil {
		cfb.free()
		return err
	}
	defer decrypt.Free()

	prefix, err := newPullFilter(&prefixReader{ctx: ctx}, decrypt)
	if err != nil {
		return err
	}
	defer prefix.Free()

	return processDataPackets(ctx, dst, prefix, true, false)
}

// parseSymencMDCData handles the tag-18 packet: non-resync CFB with a
// trailing MDC.
func parseSymencMDCData(ctx *Context, pkt *PullFilter, dst *MBuf) error {
	ver, err := pkt.GetByte()
	if err != nil {
		return err
	}
	if ver != 1 {
		log.Debug("parseSymencMDCData: pkt ver != 1")
		return ErrCorruptData
	}

	cfb, err := newCFB(ctx.cipherAlgo, ctx.sessKey, nil, false)
	if err != nil {
		return err
	}
	decrypt, err := newPullFilter(&decryptReader{cfb: cfb}, pkt)
	if err != nil {
		cfb.free()
		return err
	}
	defer decrypt.Free()

	mdc, err := newPullFilter(&mdcReader{ctx: ctx}, decrypt)
	if err != nil {
		return err
	}
	defer mdc.Free()

	prefix, err := newPullFilter(&prefixReader{ctx: ctx}, mdc)
	if err != nil {
		return err
	}
	defer prefix.Free()

	return processDataPackets(ctx, dst, prefix, true, true)
}

// decrypt walks the top-level packets of a binary message: session-key
// packets first, then exactly one encrypted-data packet. Failures after key
// setup all degrade to the one generic error so a decryption oracle cannot
// distinguish them.
func (ctx *Context) decrypt(src, dst *MBuf) error {
	pr, err := newMBufReader(src)
	if err != nil {
		return err
	}
	defer ctx.Free()

	gotKey := false
	gotData := false

	for {
		tag, length, kind, err := parsePktHdr(pr, false)
		if err != nil {
			return err
		}
		if kind == pktEOF {
			break
		}

		pkt, err := newPktReader(pr, length, kind)
		if err != nil {
			return err
		}

		err = ErrCorruptData
		switch tag {
		case tagMarker:
			err = skipPacket(pkt)
		case tagPubEncSesskey:
			if err = parsePubencSesskey(ctx, pkt); err == nil {
				gotKey = true
			}
		case tagSymEncSesskey:
			if gotKey {
				// several keys may wrap the same session key; only the
				// first one is tried
				log.Debug("decrypt: using first of several keys")
				err = skipPacket(pkt)
			} else {
				if err = parseSymencSesskey(ctx, pkt); err == nil {
					gotKey = true
				}
			}
		case tagSymEncData:
			if !gotKey {
				log.Debug("decrypt: have data but no key")
			} else if gotData {
				log.Debug("decrypt: got second data packet")
			} else {
				gotData = true
				ctx.disableMDC = true
				err = collapseErr(parseSymencData(ctx, pkt, dst))
			}
		case tagSymEncMDCData:
			if !gotKey {
				log.Debug("decrypt: have data but no key")
			} else if gotData {
				log.Debug("decrypt: got second data packet")
			} else {
				gotData = true
				ctx.disableMDC = false
				err = collapseErr(parseSymencMDCData(ctx, pkt, dst))
			}
		default:
			// unknown tags in a message are an error; the skip list for
			// signatures, trust and user ids applies to keyring parsing only
			log.Debug("decrypt: unknown tag: 0x%02x", tag)
		}
		pkt.Free()
		if err != nil {
			return err
		}
	}

	if !gotData {
		log.Debug("decrypt: no data")
		return ErrCorruptData
	}

	// latched failures, reported only now that the whole message has been
	// consumed
	if ctx.corruptPrefix {
		return ErrCorruptData
	}
	if ctx.unsupportedCompr {
		return ErrUnsupportedCompression
	}
	if ctx.unexpectedBinary {
		return ErrNotText
	}
	return nil
}
