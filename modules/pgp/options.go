// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"fmt"
	"strconv"
	"strings"

	"code.gitea.io/pgp/modules/log"
)

// expectChecks holds the expect-* debug options for decryption. After a
// successful decrypt each set field is compared against what the message
// actually used; mismatches are only logged, never errors.
type expectChecks struct {
	enabled bool

	cipherAlgo    int
	s2kMode       int
	s2kCount      int
	s2kCipherAlgo int
	s2kDigestAlgo int
	compressAlgo  int
	useSessKey    int
	disableMDC    int
	unicodeMode   int
}

func newExpectChecks() expectChecks {
	return expectChecks{
		cipherAlgo:    -1,
		s2kMode:       -1,
		s2kCount:      -1,
		s2kCipherAlgo: -1,
		s2kDigestAlgo: -1,
		compressAlgo:  -1,
		useSessKey:    -1,
		disableMDC:    -1,
		unicodeMode:   -1,
	}
}

func expectCheck(name string, want, got int) {
	if want >= 0 && want != got {
		log.Warn("pgp-debug: %s: expected %d, got %d", name, want, got)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (ex *expectChecks) report(ctx *Context) {
	if !ex.enabled {
		return
	}
	expectCheck("cipher-algo", ex.cipherAlgo, int(ctx.cipherAlgo))
	expectCheck("s2k-mode", ex.s2kMode, ctx.s2kMode)
	expectCheck("s2k-count", ex.s2kCount, ctx.s2kCount)
	expectCheck("s2k-digest-algo", ex.s2kDigestAlgo, int(ctx.s2kDigestAlgo))
	expectCheck("sess-key", ex.useSessKey, boolInt(ctx.useSessKey))
	if ctx.useSessKey {
		expectCheck("s2k-cipher-algo", ex.s2kCipherAlgo, int(ctx.s2kCipherAlgo))
	}
	expectCheck("disable-mdc", ex.disableMDC, boolInt(ctx.disableMDC))
	expectCheck("compress-algo", ex.compressAlgo, ctx.compressAlgo)
	expectCheck("unicode-mode", ex.unicodeMode, boolInt(ctx.unicodeMode))
}

func parseInt(key, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: not a number: %q", ErrArgument, key, val)
	}
	return n, nil
}

func parseBool(key, val string) (bool, error) {
	n, err := parseInt(key, val)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// SetOption applies one key=value option to the context. The expect-*
// debug options are accepted only when forDecrypt is set.
func (ctx *Context) SetOption(key, val string, forDecrypt bool) error {
	key = strings.ToLower(strings.TrimSpace(key))
	val = strings.ToLower(strings.TrimSpace(val))

	switch key {
	case "cipher-algo":
		return ctx.SetCipherAlgo(val)
	case "disable-mdc":
		b, err := parseBool(key, val)
		if err != nil {
			return err
		}
		ctx.SetDisableMDC(b)
		return nil
	case "sess-key":
		b, err := parseBool(key, val)
		if err != nil {
			return err
		}
		ctx.SetSessKey(b)
		return nil
	case "s2k-mode":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		return ctx.SetS2KMode(n)
	case "s2k-count":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		return ctx.SetS2KCount(n)
	case "s2k-digest-algo":
		return ctx.SetS2KDigestAlgo(val)
	case "s2k-cipher-algo":
		return ctx.SetS2KCipherAlgo(val)
	case "compress-algo":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		return ctx.SetCompressAlgo(n)
	case "compress-level":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		return ctx.SetCompressLevel(n)
	case "convert-crlf":
		b, err := parseBool(key, val)
		if err != nil {
			return err
		}
		ctx.SetConvertCRLF(b)
		return nil
	case "unicode-mode":
		b, err := parseBool(key, val)
		if err != nil {
			return err
		}
		ctx.SetUnicodeMode(b)
		return nil
	}

	if forDecrypt {
		if err := ctx.setExpectOption(key, val); err == nil {
			return nil
		} else if err != errUnknownOption {
			return err
		}
	}
	return fmt.Errorf("%w: unknown option %q", ErrArgument, key)
}

var errUnknownOption = fmt.Errorf("unknown option")

func (ctx *Context) setExpectOption(key, val string) error {
	ex := &ctx.expect
	switch key {
	case "expect-cipher-algo":
		algo, err := CipherAlgoByName(val)
		if err != nil {
			return err
		}
		ex.cipherAlgo = int(algo)
	case "expect-s2k-cipher-algo":
		algo, err := CipherAlgoByName(val)
		if err != nil {
			return err
		}
		ex.s2kCipherAlgo = int(algo)
	case "expect-s2k-digest-algo":
		algo, err := DigestAlgoByName(val)
		if err != nil {
			return err
		}
		ex.s2kDigestAlgo = int(algo)
	case "expect-s2k-mode":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		ex.s2kMode = n
	case "expect-s2k-count":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		ex.s2kCount = n
	case "expect-compress-algo":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		ex.compressAlgo = n
	case "expect-sess-key":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		ex.useSessKey = n
	case "expect-disable-mdc":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		ex.disableMDC = n
	case "expect-unicode-mode":
		n, err := parseInt(key, val)
		if err != nil {
			return err
		}
		ex.unicodeMode = n
	default:
		return errUnknownOption
	}
	ex.enabled = true
	return nil
}

// ParseOptions applies a comma separated "key=value, key=value" option
// string to the context.
func (ctx *Context) ParseOptions(args string, forDecrypt bool) error {
	for _, part := range strings.Split(args, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("%w: bad option %q, expected key=value", ErrArgument, part)
		}
		if err := ctx.SetOption(key, val, forDecrypt); err != nil {
			return err
		}
	}
	return nil
}
