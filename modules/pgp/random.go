// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"crypto/rand"
	"fmt"
	"io"
)

// randomSource is the process-wide CSPRNG behind session keys, salts, padding
// and ElGamal exponents. It defaults to the host generator; tests may swap it
// for a deterministic reader.
var randomSource io.Reader = rand.Reader

// SetRandomSource replaces the random source and returns the previous one.
// Passing nil restores the host generator.
func SetRandomSource(r io.Reader) io.Reader {
	old := randomSource
	if r == nil {
		r = rand.Reader
	}
	randomSource = r
	return old
}

func randomBytes(buf []byte) error {
	if _, err := io.ReadFull(randomSource, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrNoRandom, err)
	}
	return nil
}

func randomByte() (byte, error) {
	var b [1]byte
	if err := randomBytes(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
