// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"hash"
	"math/big"

	"code.gitea.io/pgp/modules/log"
)

// mpi is a multi-precision integer as it appears on the wire: a big-endian
// 16-bit bit count followed by the minimal big-endian payload.
type mpi struct {
	bits int
	data []byte
}

func mpiFromBytes(data []byte) *mpi {
	// strip leading zeros, then count bits in the top byte
	for len(data) > 0 && data[0] == 0 {
		data = data[1:]
	}
	bits := len(data) * 8
	if len(data) > 0 {
		b := data[0]
		for mask := byte(0x80); mask != 0 && b&mask == 0; mask >>= 1 {
			bits--
		}
	}
	n := &mpi{bits: bits, data: make([]byte, len(data))}
	copy(n.data, data)
	return n
}

func mpiFromBig(x *big.Int) *mpi {
	return &mpi{bits: x.BitLen(), data: x.Bytes()}
}

func (n *mpi) big() *big.Int {
	return new(big.Int).SetBytes(n.data)
}

func (n *mpi) byteLen() int {
	return (n.bits + 7) / 8
}

func (n *mpi) free() {
	zeroize(n.data)
	n.bits = 0
	n.data = nil
}

// readMPI reads one wire-format integer.
func readMPI(src *PullFilter) (*mpi, error) {
	var hdr [2]byte
	p, err := src.ReadFixed(2, hdr[:])
	if err != nil {
		return nil, err
	}
	bits := int(p[0])<<8 | int(p[1])
	nbytes := (bits + 7) / 8

	n := &mpi{bits: bits, data: make([]byte, nbytes)}
	p, err = src.ReadFixed(nbytes, n.data)
	if err != nil {
		return nil, err
	}
	copy(n.data, p)

	// the top bit of the top byte must match the bit count
	if nbytes > 0 && mpiFromBytes(n.data).bits != bits {
		log.Debug("readMPI: padded mpi")
	}
	return n, nil
}

func (n *mpi) write(dst *PushFilter) error {
	hdr := []byte{byte(n.bits >> 8), byte(n.bits)}
	if err := dst.Write(hdr); err != nil {
		return err
	}
	return dst.Write(n.data)
}

func (n *mpi) hash(h hash.Hash) {
	h.Write([]byte{byte(n.bits >> 8), byte(n.bits)})
	h.Write(n.data)
}

func (n *mpi) cksum(sum uint) uint {
	sum += uint(n.bits>>8) + uint(n.bits&0xFF)
	for _, b := range n.data {
		sum += uint(b)
	}
	return sum & 0xFFFF
}

// The big-integer backend is consumed through exactly four operations.

func mpiModExp(a, b, m *mpi) *mpi {
	res := new(big.Int).Exp(a.big(), b.big(), m.big())
	return mpiFromBig(res)
}

func mpiModInv(a, m *mpi) (*mpi, error) {
	res := new(big.Int).ModInverse(a.big(), m.big())
	if res == nil {
		return nil, ErrCorruptData
	}
	return mpiFromBig(res), nil
}

func mpiModMul(a, b, m *mpi) *mpi {
	res := new(big.Int).Mul(a.big(), b.big())
	res.Mod(res, m.big())
	return mpiFromBig(res)
}

// mpiRandomBits draws a random integer of exactly the given bit length.
func mpiRandomBits(bits int) (*mpi, error) {
	nbytes := (bits + 7) / 8
	buf := make([]byte, nbytes)
	if err := randomBytes(buf); err != nil {
		return nil, err
	}
	// clear excess top bits, then pin the top bit for an exact length
	if extra := nbytes*8 - bits; extra > 0 {
		buf[0] &= 0xFF >> extra
	}
	buf[0] |= 1 << ((bits - 1) % 8)
	n := mpiFromBytes(buf)
	zeroize(buf)
	return n, nil
}
