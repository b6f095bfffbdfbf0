// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/ripemd160"
)

// DigestAlgo identifies a hash by its OpenPGP id (RFC 4880 §9.4).
type DigestAlgo int

const (
	DigestMD5       DigestAlgo = 1
	DigestSHA1      DigestAlgo = 2
	DigestRIPEMD160 DigestAlgo = 3
	DigestSHA256    DigestAlgo = 8
	DigestSHA384    DigestAlgo = 9
	DigestSHA512    DigestAlgo = 10
	DigestSHA224    DigestAlgo = 11
)

type digestInfo struct {
	name string
	new  func() hash.Hash
}

var digestTable = map[DigestAlgo]*digestInfo{
	DigestMD5:       {"md5", md5.New},
	DigestSHA1:      {"sha1", sha1.New},
	DigestRIPEMD160: {"ripemd160", ripemd160.New},
	DigestSHA256:    {"sha256", sha256.New},
	DigestSHA384:    {"sha384", sha512.New384},
	DigestSHA512:    {"sha512", sha512.New},
	DigestSHA224:    {"sha224", sha256.New224},
}

// DigestAlgoByName resolves a digest option value.
func DigestAlgoByName(name string) (DigestAlgo, error) {
	for algo, info := range digestTable {
		if info.name == name {
			return algo, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedHash, name)
}

func (a DigestAlgo) String() string {
	if info, ok := digestTable[a]; ok {
		return info.name
	}
	return fmt.Sprintf("digest-%d", int(a))
}

func (a DigestAlgo) newHash() (hash.Hash, error) {
	info, ok := digestTable[a]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnsupportedHash, int(a))
	}
	return info.new(), nil
}
