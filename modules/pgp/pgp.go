// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pgp implements the OpenPGP (RFC 4880) message engine used by the
// pgp tool: symmetric and public-key encryption and decryption of literal
// data with optional compression, MDC integrity protection and ASCII armor.
//
// Signatures, key generation and multi-recipient messages are out of scope.
package pgp

import (
	"fmt"
	"hash"
)

// Compression algorithm ids (RFC 4880 §9.3).
const (
	CompressNone  = 0
	CompressZIP   = 1
	CompressZLIB  = 2
	CompressBZIP2 = 3
)

// Context carries the per-operation configuration and transient state of one
// encrypt or decrypt call. A Context must not be reused across operations.
type Context struct {
	cipherAlgo    CipherAlgo
	s2kMode       int
	s2kCount      int
	s2kDigestAlgo DigestAlgo
	s2kCipherAlgo CipherAlgo

	compressAlgo  int
	compressLevel int

	disableMDC  bool
	useSessKey  bool
	textMode    bool
	convertCRLF bool
	unicodeMode bool

	pubKey *pubKey
	symKey []byte

	s2k     s2k
	sessKey []byte

	// latched failure flags, reported only after the whole message has
	// been consumed
	corruptPrefix    bool
	unsupportedCompr bool
	unexpectedBinary bool

	useMdcbufFilter bool
	inMdcPkt        bool
	mdcChecked      bool
	mdcHash         hash.Hash

	expect expectChecks
}

// NewContext returns a Context with the default option surface: aes128, no
// compression, MDC enabled, iterated+salted SHA-1 S2K.
func NewContext() *Context {
	return &Context{
		cipherAlgo:    CipherAES128,
		s2kMode:       s2kIteratedSalt,
		s2kDigestAlgo: DigestSHA1,
		compressAlgo:  CompressNone,
		compressLevel: 6,
		expect:        newExpectChecks(),
	}
}

// Free zeroizes the key material held by the context.
func (ctx *Context) Free() {
	ctx.s2k.free()
	zeroize(ctx.sessKey)
	ctx.sessKey = nil
	if ctx.pubKey != nil {
		ctx.pubKey.free()
		ctx.pubKey = nil
	}
	ctx.symKey = nil
}

// SetSymmetricKey attaches the password for symmetric operation. The context
// borrows the bytes.
func (ctx *Context) SetSymmetricKey(password []byte) error {
	if len(password) == 0 {
		return fmt.Errorf("%w: empty password", ErrArgument)
	}
	ctx.symKey = password
	return nil
}

// SetCipherAlgo selects the payload cipher by option name.
func (ctx *Context) SetCipherAlgo(name string) error {
	algo, err := CipherAlgoByName(name)
	if err != nil {
		return err
	}
	ctx.cipherAlgo = algo
	return nil
}

// SetS2KCipherAlgo selects the session-key-wrapping cipher by option name.
func (ctx *Context) SetS2KCipherAlgo(name string) error {
	algo, err := CipherAlgoByName(name)
	if err != nil {
		return err
	}
	ctx.s2kCipherAlgo = algo
	return nil
}

// SetS2KDigestAlgo selects the S2K hash by option name.
func (ctx *Context) SetS2KDigestAlgo(name string) error {
	algo, err := DigestAlgoByName(name)
	if err != nil {
		return err
	}
	ctx.s2kDigestAlgo = algo
	return nil
}

// SetS2KMode selects the S2K mode (0, 1 or 3).
func (ctx *Context) SetS2KMode(mode int) error {
	switch mode {
	case s2kSimple, s2kSalted, s2kIteratedSalt:
		ctx.s2kMode = mode
		return nil
	}
	return fmt.Errorf("%w: bad s2k mode %d", ErrArgument, mode)
}

// SetS2KCount requests an iteration count for mode 3; the count is rounded
// up to the next encodable value.
func (ctx *Context) SetS2KCount(count int) error {
	if count < 1024 || count > 65011712 {
		return fmt.Errorf("%w: s2k count %d out of range", ErrArgument, count)
	}
	ctx.s2kCount = count
	return nil
}

// SetCompressAlgo selects the compression algorithm for encryption.
func (ctx *Context) SetCompressAlgo(algo int) error {
	switch algo {
	case CompressNone, CompressZIP, CompressZLIB:
		ctx.compressAlgo = algo
		return nil
	}
	return fmt.Errorf("%w: bad compression algorithm %d", ErrArgument, algo)
}

// SetCompressLevel selects the deflate level, 0 (off) to 9.
func (ctx *Context) SetCompressLevel(level int) error {
	if level < 0 || level > 9 {
		return fmt.Errorf("%w: bad compression level %d", ErrArgument, level)
	}
	ctx.compressLevel = level
	return nil
}

// SetDisableMDC disables the modification detection code (legacy format).
func (ctx *Context) SetDisableMDC(disable bool) {
	ctx.disableMDC = disable
}

// SetSessKey forces a separate random session key even for symmetric
// operation.
func (ctx *Context) SetSessKey(use bool) {
	ctx.useSessKey = use
}

// SetTextMode marks the payload as text.
func (ctx *Context) SetTextMode(text bool) {
	ctx.textMode = text
}

// SetConvertCRLF enables newline normalization in text mode.
func (ctx *Context) SetConvertCRLF(convert bool) {
	ctx.convertCRLF = convert
}

// SetUnicodeMode marks text as UTF-8 ('u' literal format instead of 't').
func (ctx *Context) SetUnicodeMode(unicode bool) {
	ctx.unicodeMode = unicode
}

// UnicodeMode reports whether the last decrypted literal was marked UTF-8.
func (ctx *Context) UnicodeMode() bool {
	return ctx.unicodeMode
}

// Encrypt encrypts data into a binary OpenPGP message.
func (ctx *Context) Encrypt(data []byte) ([]byte, error) {
	src := NewMBufFromData(data)
	dst := NewMBuf(len(data) + 256)
	if err := ctx.encrypt(src, dst); err != nil {
		dst.Free()
		return nil, err
	}
	return dst.StealData(), nil
}

// Decrypt decrypts a binary OpenPGP message.
func (ctx *Context) Decrypt(data []byte) ([]byte, error) {
	src := NewMBufFromData(data)
	dst := NewMBuf(len(data))
	if err := ctx.decrypt(src, dst); err != nil {
		dst.Free()
		return nil, err
	}
	out := dst.StealData()
	ctx.expect.report(ctx)
	return out, nil
}
