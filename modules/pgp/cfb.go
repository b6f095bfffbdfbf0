// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"crypto/cipher"
)

// cfbState implements the OpenPGP variant of cipher feedback mode over a
// generic 8- or 16-byte block cipher (RFC 4880 §13.9). With resync set it
// reproduces the legacy behavior of tag-9 packets: block #2 carries exactly
// two bytes of ciphertext and the feedback register is then rebuilt from the
// trailing bytes of blocks 1 and 2.
type cfbState struct {
	ciph      cipher.Block
	blockSize int
	pos       int
	blockNo   int
	resync    bool
	fr        [maxBlockSize]byte
	fre       [maxBlockSize]byte
	encbuf    [maxBlockSize]byte
}

// newCFB creates a CFB instance. A nil iv means an all-zero feedback
// register, used for standalone session-key decryption.
func newCFB(algo CipherAlgo, key, iv []byte, resync bool) (*cfbState, error) {
	ciph, err := algo.newCipher(key)
	if err != nil {
		return nil, err
	}
	st := &cfbState{
		ciph:      ciph,
		blockSize: algo.BlockSize(),
		resync:    resync,
	}
	if iv != nil {
		copy(st.fr[:st.blockSize], iv)
	}
	return st, nil
}

func (st *cfbState) free() {
	zeroize(st.fr[:])
	zeroize(st.fre[:])
	zeroize(st.encbuf[:])
	st.ciph = nil
}

// step advances the keystream position after one byte, performing the
// block-boundary feedback reload and, in resync mode, the one-time register
// rebuild between blocks 2 and 3.
func (st *cfbState) step() {
	st.pos++
	if st.resync && st.blockNo == 2 {
		if st.pos == 2 {
			// encbuf[0:2] holds block-2 ciphertext, encbuf[2:] still
			// holds the tail of block-1 ciphertext
			n := st.blockSize
			var tmp [maxBlockSize]byte
			copy(tmp[:n-2], st.encbuf[2:n])
			copy(tmp[n-2:n], st.encbuf[:2])
			copy(st.fr[:n], tmp[:n])
			zeroize(tmp[:])
			st.pos = 0
		}
		return
	}
	if st.pos == st.blockSize {
		copy(st.fr[:st.blockSize], st.encbuf[:st.blockSize])
		st.pos = 0
	}
}

func (st *cfbState) refill() {
	if st.pos == 0 {
		st.ciph.Encrypt(st.fre[:st.blockSize], st.fr[:st.blockSize])
		if st.blockNo < 5 {
			st.blockNo++
		}
	}
}

func (st *cfbState) encrypt(src, dst []byte) {
	for i := range src {
		st.refill()
		c := st.fre[st.pos] ^ src[i]
		st.encbuf[st.pos] = c
		dst[i] = c
		st.step()
	}
}

func (st *cfbState) decrypt(src, dst []byte) {
	for i := range src {
		st.refill()
		c := src[i]
		st.encbuf[st.pos] = c
		dst[i] = st.fre[st.pos] ^ c
		st.step()
	}
}
