// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"bytes"
	"crypto/sha1"
	"fmt"
)

const encBufSize = 8192

// cfbWriter encrypts everything pushed through it.
type cfbWriter struct {
	cfb *cfbState
	buf [encBufSize]byte
}

func (*cfbWriter) init(*PushFilter) (int, error) { return 0, nil }

func (c *cfbWriter) push(next *PushFilter, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > encBufSize {
			n = encBufSize
		}
		c.cfb.encrypt(data[:n], c.buf[:n])
		if err := next.Write(c.buf[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (*cfbWriter) flush(*PushFilter) error { return nil }

func (c *cfbWriter) free() {
	c.cfb.free()
	zeroize(c.buf[:])
}

// mdcWriter hashes the plaintext stream and appends the MDC packet on
// flush. The packet's own two-byte header is part of the hashed domain.
type mdcWriter struct {
	ctx *Context
}

func (m *mdcWriter) init(*PushFilter) (int, error) {
	m.ctx.mdcHash = sha1.New()
	return 0, nil
}

func (m *mdcWriter) push(next *PushFilter, data []byte) error {
	m.ctx.mdcHash.Write(data)
	return next.Write(data)
}

func (m *mdcWriter) flush(next *PushFilter) error {
	var pkt [2 + sha1.Size]byte
	pkt[0] = 0xD3
	pkt[1] = 0x14
	m.ctx.mdcHash.Write(pkt[:2])
	m.ctx.mdcHash.Sum(pkt[:2])

	err := next.Write(pkt[:])
	zeroize(pkt[:])
	return err
}

func (*mdcWriter) free() {}

// crlfWriter converts \n to \r\n on the way in.
type crlfWriter struct{}

var crlf = []byte{'\r', '\n'}

func (crlfWriter) init(*PushFilter) (int, error) { return 0, nil }

func (crlfWriter) push(next *PushFilter, data []byte) error {
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return next.Write(data)
		}
		if idx > 0 {
			if err := next.Write(data[:idx]); err != nil {
				return err
			}
		}
		if err := next.Write(crlf); err != nil {
			return err
		}
		data = data[idx+1:]
	}
	return nil
}

func (crlfWriter) flush(*PushFilter) error { return nil }

func (crlfWriter) free() {}

// initEncdataPacket opens the encrypted-data packet: tag 18 with a version
// byte when the MDC is enabled, legacy tag 9 otherwise.
func initEncdataPacket(ctx *Context, dst *PushFilter) (*PushFilter, error) {
	var tag uint8 = tagSymEncMDCData
	if ctx.disableMDC {
		tag = tagSymEncData
	}
	pkt, err := newPktWriter(dst, tag)
	if err != nil {
		return nil, err
	}
	if !ctx.disableMDC {
		if err := pkt.WriteByte(1); err != nil {
			return nil, err
		}
	}
	return pkt, nil
}

// initSessCipher installs the payload CFB encryptor; the legacy tag-9
// format uses the resync variant.
func initSessCipher(ctx *Context, dst *PushFilter) (*PushFilter, error) {
	cfb, err := newCFB(ctx.cipherAlgo, ctx.sessKey, nil, ctx.disableMDC)
	if err != nil {
		return nil, err
	}
	return newPushFilter(&cfbWriter{cfb: cfb}, dst)
}

// writePrefix emits the random prefix: blocksize bytes plus a repeat of the
// last two. It passes through the MDC hasher when one is installed.
func writePrefix(ctx *Context, dst *PushFilter) error {
	bs := ctx.cipherAlgo.BlockSize()
	var prefix [maxBlockSize + 2]byte
	if err := randomBytes(prefix[:bs]); err != nil {
		return err
	}
	prefix[bs] = prefix[bs-2]
	prefix[bs+1] = prefix[bs-1]

	err := dst.Write(prefix[:bs+2])
	zeroize(prefix[:])
	return err
}

// initCompress opens the compressed-data packet and installs the deflater.
func initCompress(ctx *Context, dst *PushFilter) (*PushFilter, error) {
	pkt, err := newPktWriter(dst, tagCompressedData)
	if err != nil {
		return nil, err
	}
	if err := pkt.WriteByte(byte(ctx.compressAlgo)); err != nil {
		return nil, err
	}
	return newCompressFilter(ctx, pkt)
}

// initLitdataPacket opens the literal-data packet and writes its header:
// format byte, empty name, zero timestamp.
func initLitdataPacket(ctx *Context, dst *PushFilter) (*PushFilter, error) {
	var format byte = 'b'
	if ctx.textMode {
		if ctx.unicodeMode {
			format = 'u'
		} else {
			format = 't'
		}
	}
	pkt, err := newPktWriter(dst, tagLiteralData)
	if err != nil {
		return nil, err
	}
	hdr := []byte{format, 0, 0, 0, 0, 0}
	if err := pkt.Write(hdr); err != nil {
		return nil, err
	}
	return pkt, nil
}

func initS2KKey(ctx *Context) error {
	if ctx.s2kCipherAlgo == CipherNone {
		ctx.s2kCipherAlgo = ctx.cipherAlgo
	}
	if err := ctx.s2k.fill(ctx.s2kMode, ctx.s2kDigestAlgo, ctx.s2kCount); err != nil {
		return err
	}
	return ctx.s2k.process(ctx.s2kCipherAlgo, ctx.symKey)
}

func initSessKey(ctx *Context) error {
	if ctx.useSessKey || ctx.pubKey != nil {
		ctx.sessKey = make([]byte, ctx.cipherAlgo.KeySize())
		return randomBytes(ctx.sessKey)
	}
	ctx.sessKey = make([]byte, len(ctx.s2k.key))
	copy(ctx.sessKey, ctx.s2k.key)
	return nil
}

// encrypt drives the push chain: session-key packet, encrypted-data packet,
// CFB, optional MDC hasher, prefix, optional compressor, literal framer and
// optional CRLF normalization outermost.
func (ctx *Context) encrypt(src, dst *MBuf) error {
	if ctx.symKey == nil && ctx.pubKey == nil {
		return fmt.Errorf("%w: no key given", ErrArgument)
	}

	pf, err := newMBufWriter(dst)
	if err != nil {
		return err
	}
	defer func() {
		pf.FreeAll()
		ctx.Free()
	}()

	if ctx.symKey != nil {
		if err := initS2KKey(ctx); err != nil {
			return err
		}
	}
	if err := initSessKey(ctx); err != nil {
		return err
	}

	if ctx.pubKey != nil {
		err = writePubencSesskey(ctx, pf)
	} else {
		err = writeSymencSesskey(ctx, pf)
	}
	if err != nil {
		return err
	}

	if pf, err = initEncdataPacket(ctx, pf); err != nil {
		return err
	}
	if pf, err = initSessCipher(ctx, pf); err != nil {
		return err
	}
	if !ctx.disableMDC {
		if pf, err = newPushFilter(&mdcWriter{ctx: ctx}, pf); err != nil {
			return err
		}
	}
	if err = writePrefix(ctx, pf); err != nil {
		return err
	}
	if ctx.compressAlgo > 0 && ctx.compressLevel > 0 {
		if pf, err = initCompress(ctx, pf); err != nil {
			return err
		}
	}
	if pf, err = initLitdataPacket(ctx, pf); err != nil {
		return err
	}
	if ctx.textMode && ctx.convertCRLF {
		if pf, err = newPushFilter(crlfWriter{}, pf); err != nil {
			return err
		}
	}

	if err = pf.Write(src.Grab(src.Avail())); err != nil {
		return err
	}
	return pf.Flush()
}
