// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, DEBUG, LevelFromString("debug"))
	assert.Equal(t, WARN, LevelFromString("Warning"))
	assert.Equal(t, INFO, LevelFromString("no-such-level"))
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := GetLogger()
	oldLevel := l.GetLevel()
	defer func() {
		l.SetOutput(&buf)
		l.SetLevel(oldLevel)
	}()

	l.SetOutput(&buf)
	l.SetLevel(WARN)

	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	Warn("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "[warn]")

	assert.False(t, l.LevelEnabled(INFO))
	assert.True(t, l.LevelEnabled(ERROR))
}
