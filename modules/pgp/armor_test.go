// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC24(t *testing.T) {
	assert.Equal(t, uint32(0x00B704CE), crc24(nil))
	assert.Equal(t, uint32(0x0021CF02), crc24([]byte("123456789")))
}

func TestArmorRoundTrip(t *testing.T) {
	body := make([]byte, 1024)
	for i := range body {
		body[i] = byte(i * 13)
	}
	headers := []ArmorHeader{
		{Key: "Version", Value: "Test 1.0"},
		{Key: "Comment", Value: "abc"},
	}

	armored, err := Armor(body, headers)
	require.NoError(t, err)

	lines := strings.Split(armored, "\n")
	assert.Equal(t, armorBegin, lines[0])
	assert.Equal(t, "Version: Test 1.0", lines[1])
	assert.Equal(t, "Comment: abc", lines[2])
	assert.Equal(t, "", lines[3])
	for _, line := range lines[4:] {
		assert.LessOrEqual(t, len(line), armorLineLen)
	}
	assert.Contains(t, armored, "\n=")

	got, gotHeaders, err := Dearmor(armored)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, headers, gotHeaders)
}

func TestArmorNoHeaders(t *testing.T) {
	armored, err := Armor([]byte("payload"), nil)
	require.NoError(t, err)
	got, headers, err := Dearmor(armored)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
	assert.Empty(t, headers)
}

func TestArmorEmptyBody(t *testing.T) {
	armored, err := Armor(nil, nil)
	require.NoError(t, err)
	got, _, err := Dearmor(armored)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestArmorBadHeaders(t *testing.T) {
	_, err := Armor(nil, []ArmorHeader{{Key: "Bad: Key", Value: "v"}})
	assert.ErrorIs(t, err, ErrArgument)
	_, err = Armor(nil, []ArmorHeader{{Key: "K", Value: "line\nbreak"}})
	assert.ErrorIs(t, err, ErrArgument)
	_, err = Armor(nil, []ArmorHeader{{Key: "", Value: "v"}})
	assert.ErrorIs(t, err, ErrArgument)
}

func TestDearmorLeadingGarbage(t *testing.T) {
	armored, err := Armor([]byte("data"), nil)
	require.NoError(t, err)
	got, _, err := Dearmor("some text before\n" + armored + "trailing text\n")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestDearmorCorrupt(t *testing.T) {
	armored, err := Armor([]byte("hello world"), nil)
	require.NoError(t, err)

	t.Run("no begin marker", func(t *testing.T) {
		_, _, err := Dearmor("not armored at all")
		assert.ErrorIs(t, err, ErrCorruptArmor)
	})

	t.Run("missing crc line", func(t *testing.T) {
		broken := strings.Replace(armored, "\n=", "\n", 1)
		_, _, err := Dearmor(broken)
		assert.ErrorIs(t, err, ErrCorruptArmor)
	})

	t.Run("crc mismatch", func(t *testing.T) {
		idx := strings.Index(armored, "\n=")
		require.Positive(t, idx)
		crcChar := armored[idx+2]
		flip := byte('A')
		if crcChar == 'A' {
			flip = 'B'
		}
		broken := armored[:idx+2] + string(flip) + armored[idx+3:]
		_, _, err := Dearmor(broken)
		assert.ErrorIs(t, err, ErrCorruptArmor)
	})

	t.Run("missing end marker", func(t *testing.T) {
		broken := strings.Replace(armored, armorEnd, "", 1)
		_, _, err := Dearmor(broken)
		assert.ErrorIs(t, err, ErrCorruptArmor)
	})

	t.Run("bad base64", func(t *testing.T) {
		broken := strings.Replace(armored, "\n\n", "\n\n!!!!\n", 1)
		_, _, err := Dearmor(broken)
		assert.ErrorIs(t, err, ErrCorruptArmor)
	})

	t.Run("truncated", func(t *testing.T) {
		_, _, err := Dearmor(armored[:len(armored)/2])
		assert.ErrorIs(t, err, ErrCorruptArmor)
	})
}

func TestDearmorCRLF(t *testing.T) {
	armored, err := Armor([]byte("crlf body"), []ArmorHeader{{Key: "K", Value: "v"}})
	require.NoError(t, err)
	crlf := strings.ReplaceAll(armored, "\n", "\r\n")
	got, headers, err := Dearmor(crlf)
	require.NoError(t, err)
	assert.Equal(t, []byte("crlf body"), got)
	assert.Equal(t, []ArmorHeader{{Key: "K", Value: "v"}}, headers)
}
