// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import "fmt"

// MBuf is a byte buffer with an independent read cursor. It either owns its
// bytes (zeroized on Free) or borrows them from the caller. Once a pointer
// into the buffer has been handed out via Grab or StealData the buffer
// becomes read-only: a later Append is a caller bug, not a silent overwrite.
type MBuf struct {
	data    []byte
	readPos int
	ownData bool
	noWrite bool
}

// NewMBuf returns an owning buffer with the given initial capacity.
func NewMBuf(capacity int) *MBuf {
	return &MBuf{
		data:    make([]byte, 0, capacity),
		ownData: true,
	}
}

// NewMBufFromData returns a buffer borrowing the caller's bytes. The caller
// keeps ownership; the buffer starts read-only.
func NewMBufFromData(data []byte) *MBuf {
	return &MBuf{
		data:    data,
		noWrite: true,
	}
}

// Size returns the number of bytes stored.
func (mb *MBuf) Size() int {
	return len(mb.data)
}

// Avail returns the number of unread bytes.
func (mb *MBuf) Avail() int {
	return len(mb.data) - mb.readPos
}

// Append adds bytes at the end.
func (mb *MBuf) Append(data []byte) error {
	if mb.noWrite {
		return fmt.Errorf("%w: append to read-only mbuf", ErrBug)
	}
	mb.data = append(mb.data, data...)
	return nil
}

// AppendByte adds a single byte at the end.
func (mb *MBuf) AppendByte(b byte) error {
	return mb.Append([]byte{b})
}

// Rewind resets the read cursor to the start.
func (mb *MBuf) Rewind() {
	mb.readPos = 0
}

// Grab returns up to n unread bytes without copying and marks the buffer
// read-only. A short result happens only at end of buffer.
func (mb *MBuf) Grab(n int) []byte {
	if n > mb.Avail() {
		n = mb.Avail()
	}
	mb.noWrite = true
	res := mb.data[mb.readPos : mb.readPos+n]
	mb.readPos += n
	return res
}

// StealData transfers the contents out of the buffer. The buffer keeps no
// reference and further appends fail.
func (mb *MBuf) StealData() []byte {
	res := mb.data
	mb.data = nil
	mb.readPos = 0
	mb.noWrite = true
	mb.ownData = false
	return res
}

// Free zeroizes owned contents and detaches the buffer.
func (mb *MBuf) Free() {
	if mb.ownData {
		zeroize(mb.data[:cap(mb.data)])
	}
	mb.data = nil
	mb.readPos = 0
	mb.noWrite = true
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
