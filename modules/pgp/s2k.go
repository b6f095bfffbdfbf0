// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"fmt"
	"hash"

	"code.gitea.io/pgp/modules/log"
)

// S2K modes (RFC 4880 §3.7.1).
const (
	s2kSimple       = 0
	s2kSalted       = 1
	s2kIteratedSalt = 3
)

const s2kSaltLen = 8

// s2k holds a password-to-key derivation specifier plus the derived key.
type s2k struct {
	mode       int
	digestAlgo DigestAlgo
	salt       [s2kSaltLen]byte
	iter       byte
	key        []byte
}

func (s *s2k) free() {
	zeroize(s.key)
	zeroize(s.salt[:])
	s.key = nil
}

// decodeIterCount expands the one-byte iteration encoding into a byte count
// in [1024, 65011712].
func decodeIterCount(c byte) int {
	return (16 + int(c&15)) << ((c >> 4) + 6)
}

// encodeIterCount picks the smallest encoding whose decoded value is at
// least count.
func encodeIterCount(count int) byte {
	for c := 0; c < 256; c++ {
		if decodeIterCount(byte(c)) >= count {
			return byte(c)
		}
	}
	return 255
}

// fill initializes a fresh specifier for encryption. A zero count requests
// the default range of roughly 64k-256k iterations.
func (s *s2k) fill(mode int, digestAlgo DigestAlgo, count int) error {
	s.mode = mode
	s.digestAlgo = digestAlgo

	switch mode {
	case s2kSimple:
	case s2kSalted:
		if err := randomBytes(s.salt[:]); err != nil {
			return err
		}
	case s2kIteratedSalt:
		if err := randomBytes(s.salt[:]); err != nil {
			return err
		}
		if count == 0 {
			b, err := randomByte()
			if err != nil {
				return err
			}
			s.iter = 96 + b%32
		} else {
			s.iter = encodeIterCount(count)
		}
	default:
		return fmt.Errorf("%w: bad s2k mode %d", ErrArgument, mode)
	}
	return nil
}

// read parses a wire-format specifier.
func (s *s2k) read(src *PullFilter) error {
	mode, err := src.GetByte()
	if err != nil {
		return err
	}
	algo, err := src.GetByte()
	if err != nil {
		return err
	}
	s.mode = int(mode)
	s.digestAlgo = DigestAlgo(algo)

	switch s.mode {
	case s2kSimple:
		return nil
	case s2kSalted:
		_, err = src.ReadFixedCopy(s.salt[:])
		return err
	case s2kIteratedSalt:
		if _, err = src.ReadFixedCopy(s.salt[:]); err != nil {
			return err
		}
		s.iter, err = src.GetByte()
		return err
	}
	log.Debug("s2k read: unknown mode %d", s.mode)
	return ErrCorruptData
}

// specLen returns the wire length of the specifier.
func (s *s2k) specLen() int {
	n := 2
	if s.mode > s2kSimple {
		n += s2kSaltLen
	}
	if s.mode == s2kIteratedSalt {
		n++
	}
	return n
}

// write emits the wire-format specifier.
func (s *s2k) write(dst *PushFilter) error {
	if err := dst.Write([]byte{byte(s.mode), byte(s.digestAlgo)}); err != nil {
		return err
	}
	switch s.mode {
	case s2kSimple:
		return nil
	case s2kSalted:
		return dst.Write(s.salt[:])
	case s2kIteratedSalt:
		if err := dst.Write(s.salt[:]); err != nil {
			return err
		}
		return dst.WriteByte(s.iter)
	}
	return fmt.Errorf("%w: bad s2k mode %d", ErrBug, s.mode)
}

var zeroByte = [1]byte{0}

// deriveBlocks fills out by hashing with an increasing zero-byte preload per
// output block, feeding each block through fill.
func deriveBlocks(out []byte, h hash.Hash, fill func(hash.Hash)) {
	done := 0
	for preload := 0; done < len(out); preload++ {
		h.Reset()
		for i := 0; i < preload; i++ {
			h.Write(zeroByte[:])
		}
		fill(h)
		done += copy(out[done:], h.Sum(nil))
	}
}

// process derives the key for the given cipher from the password.
func (s *s2k) process(cipherAlgo CipherAlgo, password []byte) error {
	keyLen := cipherAlgo.KeySize()
	if keyLen == 0 {
		return fmt.Errorf("%w: id %d", ErrUnsupportedCipher, int(cipherAlgo))
	}
	h, err := s.digestAlgo.newHash()
	if err != nil {
		return err
	}
	s.key = make([]byte, keyLen)

	switch s.mode {
	case s2kSimple:
		deriveBlocks(s.key, h, func(h hash.Hash) {
			h.Write(password)
		})
	case s2kSalted:
		deriveBlocks(s.key, h, func(h hash.Hash) {
			h.Write(s.salt[:])
			h.Write(password)
		})
	case s2kIteratedSalt:
		// the salt+password unit is repeated in whole copies until at
		// least count bytes have been hashed
		count := decodeIterCount(s.iter)
		deriveBlocks(s.key, h, func(h hash.Hash) {
			written := 0
			for written < count {
				h.Write(s.salt[:])
				h.Write(password)
				written += s2kSaltLen + len(password)
			}
		})
	default:
		return fmt.Errorf("%w: bad s2k mode %d", ErrBug, s.mode)
	}
	return nil
}
