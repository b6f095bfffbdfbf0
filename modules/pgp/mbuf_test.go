// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMBufAppendGrab(t *testing.T) {
	b := NewMBuf(4)
	require.NoError(t, b.Append([]byte("hello ")))
	require.NoError(t, b.AppendByte('w'))
	require.NoError(t, b.Append([]byte("orld")))
	assert.Equal(t, 11, b.Size())
	assert.Equal(t, 11, b.Avail())

	assert.Equal(t, []byte("hello"), b.Grab(5))
	assert.Equal(t, 6, b.Avail())
	assert.Equal(t, []byte(" world"), b.Grab(100))
	assert.Equal(t, 0, b.Avail())
	assert.Empty(t, b.Grab(1))
}

func TestMBufReadOnlyAfterGrab(t *testing.T) {
	b := NewMBuf(16)
	require.NoError(t, b.Append([]byte("data")))
	b.Grab(2)

	err := b.Append([]byte("more"))
	assert.ErrorIs(t, err, ErrBug)
}

func TestMBufRewind(t *testing.T) {
	b := NewMBuf(16)
	require.NoError(t, b.Append([]byte("abc")))
	assert.Equal(t, []byte("abc"), b.Grab(3))
	b.Rewind()
	assert.Equal(t, []byte("abc"), b.Grab(3))
}

func TestMBufFromData(t *testing.T) {
	src := []byte("borrowed")
	b := NewMBufFromData(src)
	assert.Equal(t, len(src), b.Avail())
	assert.ErrorIs(t, b.Append([]byte("x")), ErrBug)
	assert.True(t, bytes.Equal(src, b.Grab(len(src))))
}

func TestMBufStealData(t *testing.T) {
	b := NewMBuf(4)
	require.NoError(t, b.Append([]byte("steal me")))
	data := b.StealData()
	assert.Equal(t, []byte("steal me"), data)
}
