// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"fmt"

	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/twofish"
)

// CipherAlgo identifies a symmetric cipher by its OpenPGP id (RFC 4880 §9.2).
type CipherAlgo int

const (
	CipherNone     CipherAlgo = 0
	Cipher3DES     CipherAlgo = 2
	CipherCAST5    CipherAlgo = 3
	CipherBlowfish CipherAlgo = 4
	CipherAES128   CipherAlgo = 7
	CipherAES192   CipherAlgo = 8
	CipherAES256   CipherAlgo = 9
	CipherTwofish  CipherAlgo = 10
)

// maxBlockSize is the largest block size of any supported cipher.
const maxBlockSize = 16

type cipherInfo struct {
	name      string
	keySize   int
	blockSize int
	new       func(key []byte) (cipher.Block, error)
}

var cipherTable = map[CipherAlgo]*cipherInfo{
	Cipher3DES: {"3des", 24, 8, des.NewTripleDESCipher},
	CipherCAST5: {"cast5", 16, 8, func(key []byte) (cipher.Block, error) {
		return cast5.NewCipher(key)
	}},
	CipherBlowfish: {"bf", 16, 8, func(key []byte) (cipher.Block, error) {
		return blowfish.NewCipher(key)
	}},
	CipherAES128: {"aes128", 16, 16, aes.NewCipher},
	CipherAES192: {"aes192", 24, 16, aes.NewCipher},
	CipherAES256: {"aes256", 32, 16, aes.NewCipher},
	CipherTwofish: {"twofish", 32, 16, func(key []byte) (cipher.Block, error) {
		return twofish.NewCipher(key)
	}},
}

var cipherNames = map[string]CipherAlgo{
	"3des":     Cipher3DES,
	"cast5":    CipherCAST5,
	"bf":       CipherBlowfish,
	"blowfish": CipherBlowfish,
	"aes":      CipherAES128,
	"aes128":   CipherAES128,
	"aes192":   CipherAES192,
	"aes256":   CipherAES256,
	"twofish":  CipherTwofish,
}

// CipherAlgoByName resolves a cipher option value.
func CipherAlgoByName(name string) (CipherAlgo, error) {
	if algo, ok := cipherNames[name]; ok {
		return algo, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedCipher, name)
}

func (a CipherAlgo) String() string {
	if info, ok := cipherTable[a]; ok {
		return info.name
	}
	return fmt.Sprintf("cipher-%d", int(a))
}

// KeySize returns the key size in bytes, or 0 for unknown algorithms.
func (a CipherAlgo) KeySize() int {
	if info, ok := cipherTable[a]; ok {
		return info.keySize
	}
	return 0
}

// BlockSize returns the block size in bytes, or 0 for unknown algorithms.
func (a CipherAlgo) BlockSize() int {
	if info, ok := cipherTable[a]; ok {
		return info.blockSize
	}
	return 0
}

func (a CipherAlgo) newCipher(key []byte) (cipher.Block, error) {
	info, ok := cipherTable[a]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnsupportedCipher, int(a))
	}
	if len(key) != info.keySize {
		return nil, fmt.Errorf("%w: bad key length %d for %s", ErrArgument, len(key), info.name)
	}
	return info.new(key)
}
