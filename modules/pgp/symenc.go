// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"code.gitea.io/pgp/modules/log"
)

// maxKeyLen is the largest session-key size of any supported cipher.
const maxKeyLen = 32

// decryptSesskey unwraps a separate session key carried in a tag-3 packet:
// CFB with an all-zero feedback register keyed by the S2K key, plaintext is
// the cipher id followed by the key.
func decryptSesskey(ctx *Context, data []byte) error {
	cfb, err := newCFB(ctx.s2kCipherAlgo, ctx.s2k.key, nil, false)
	if err != nil {
		return err
	}
	defer cfb.free()

	var algo [1]byte
	cfb.decrypt(data[:1], algo[:])
	data = data[1:]

	ctx.sessKey = make([]byte, len(data))
	cfb.decrypt(data, ctx.sessKey)
	ctx.cipherAlgo = CipherAlgo(algo[0])

	if ctx.cipherAlgo.KeySize() != len(ctx.sessKey) {
		log.Debug("sesskey bad len: algo=%d, expected=%d, got=%d",
			int(ctx.cipherAlgo), ctx.cipherAlgo.KeySize(), len(ctx.sessKey))
		return ErrCorruptData
	}
	return nil
}

// parseSymencSesskey handles a tag-3 packet on the decrypt path. The S2K key
// either is the session key or decrypts the one carried in the packet.
func parseSymencSesskey(ctx *Context, src *PullFilter) error {
	ver, err := src.GetByte()
	if err != nil {
		return err
	}
	algo, err := src.GetByte()
	if err != nil {
		return err
	}
	ctx.s2kCipherAlgo = CipherAlgo(algo)
	if ver != 4 {
		log.Debug("bad key pkt ver")
		return ErrCorruptData
	}

	if err := ctx.s2k.read(src); err != nil {
		return err
	}
	ctx.s2kMode = ctx.s2k.mode
	ctx.s2kCount = decodeIterCount(ctx.s2k.iter)
	ctx.s2kDigestAlgo = ctx.s2k.digestAlgo

	if err := ctx.s2k.process(ctx.s2kCipherAlgo, ctx.symKey); err != nil {
		return err
	}

	// do we have a separate session key?
	tmp := make([]byte, maxKeyLen+2)
	defer zeroize(tmp)
	p, err := src.ReadMax(maxKeyLen+2, tmp)
	if err != nil {
		return err
	}

	if len(p) == 0 {
		// no, the s2k key is the session key
		ctx.sessKey = make([]byte, len(ctx.s2k.key))
		copy(ctx.sessKey, ctx.s2k.key)
		ctx.cipherAlgo = ctx.s2kCipherAlgo
		ctx.useSessKey = false
		return nil
	}

	if len(p) < 17 || len(p) > maxKeyLen+1 {
		log.Debug("expect key, but bad data")
		return ErrCorruptData
	}
	ctx.useSessKey = true
	return decryptSesskey(ctx, p)
}

// writeSymencSesskey emits the tag-3 packet on the encrypt path.
func writeSymencSesskey(ctx *Context, dst *PushFilter) error {
	var enc []byte
	if ctx.useSessKey {
		cfb, err := newCFB(ctx.s2kCipherAlgo, ctx.s2k.key, nil, false)
		if err != nil {
			return err
		}
		plain := append([]byte{byte(ctx.cipherAlgo)}, ctx.sessKey...)
		enc = make([]byte, len(plain))
		cfb.encrypt(plain, enc)
		cfb.free()
		zeroize(plain)
		defer zeroize(enc)
	}

	pktLen := 2 + ctx.s2k.specLen() + len(enc)
	if err := writeNormalHeader(dst, tagSymEncSesskey, pktLen); err != nil {
		return err
	}
	if err := dst.Write([]byte{4, byte(ctx.s2kCipherAlgo)}); err != nil {
		return err
	}
	if err := ctx.s2k.write(dst); err != nil {
		return err
	}
	if len(enc) > 0 {
		return dst.Write(enc)
	}
	return nil
}
