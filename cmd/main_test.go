// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"code.gitea.io/pgp/modules/pgp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTool(t *testing.T, args ...string) error {
	t.Helper()
	return NewMainCommand().Run(context.Background(), append([]string{"pgp"}, args...))
}

func TestEncryptDecryptFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "msg.pgp")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("file round trip"), 0o600))

	require.NoError(t, runTool(t, "encrypt", "-p", "pw", "-O", enc, in))
	require.NoError(t, runTool(t, "decrypt", "-p", "pw", "-O", out, enc))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("file round trip"), got)
}

func TestEncryptArmoredOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "msg.asc")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("armored tool output"), 0o600))

	require.NoError(t, runTool(t, "encrypt", "-p", "pw", "-a",
		"-o", "cipher-algo=aes256, compress-algo=1", "-O", enc, in))

	text, err := os.ReadFile(enc)
	require.NoError(t, err)
	assert.Contains(t, string(text), "-----BEGIN PGP MESSAGE-----")

	// decrypt accepts the armored file directly
	require.NoError(t, runTool(t, "decrypt", "-p", "pw", "-O", out, enc))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("armored tool output"), got)
}

func TestArmorDearmorFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "data.bin")
	asc := filepath.Join(dir, "data.asc")
	out := filepath.Join(dir, "data.out")
	require.NoError(t, os.WriteFile(in, []byte{0, 1, 2, 3, 0xFF}, 0o600))

	require.NoError(t, runTool(t, "armor", "-H", "Comment=test", "-O", asc, in))
	require.NoError(t, runTool(t, "dearmor", "-O", out, asc))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 0xFF}, got)
}

func TestEncryptRequiresKey(t *testing.T) {
	assert.Error(t, runTool(t, "encrypt", "/dev/null"))
	assert.Error(t, runTool(t, "decrypt", "/dev/null"))
}

func TestLoadKeyringDearmors(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "key.asc")
	armored, err := pgp.Armor([]byte("binary key material"), nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(name, []byte(armored), 0o600))

	got, err := loadKeyring(name)
	require.NoError(t, err)
	assert.Equal(t, []byte("binary key material"), got)
}
