// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	armorBegin = "-----BEGIN PGP MESSAGE-----"
	armorEnd   = "-----END PGP MESSAGE-----"

	armorLineLen = 76

	crc24Init = 0x00B704CE
	crc24Poly = 0x01864CFB
)

// ArmorHeader is one "Key: Value" line of an armored message.
type ArmorHeader struct {
	Key   string
	Value string
}

func crc24(data []byte) uint32 {
	crc := uint32(crc24Init)
	for _, b := range data {
		crc ^= uint32(b) << 16
		for i := 0; i < 8; i++ {
			crc <<= 1
			if crc&0x1000000 != 0 {
				crc ^= crc24Poly
			}
		}
	}
	return crc & 0xFFFFFF
}

func checkArmorHeader(h ArmorHeader) error {
	for _, s := range []string{h.Key, h.Value} {
		for i := 0; i < len(s); i++ {
			if s[i] < 32 || s[i] > 126 {
				return fmt.Errorf("%w: invalid character in armor header", ErrArgument)
			}
		}
	}
	if h.Key == "" || strings.Contains(h.Key, ": ") {
		return fmt.Errorf("%w: invalid armor header key", ErrArgument)
	}
	return nil
}

// Armor wraps a binary message in ASCII armor with the given headers.
func Armor(data []byte, headers []ArmorHeader) (string, error) {
	var b strings.Builder
	b.Grow(base64.StdEncoding.EncodedLen(len(data)) + 256)

	b.WriteString(armorBegin)
	b.WriteByte('\n')
	for _, h := range headers {
		if err := checkArmorHeader(h); err != nil {
			return "", err
		}
		b.WriteString(h.Key)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 0 {
		n := len(enc)
		if n > armorLineLen {
			n = armorLineLen
		}
		b.WriteString(enc[:n])
		b.WriteByte('\n')
		enc = enc[n:]
	}

	crc := crc24(data)
	crcBytes := []byte{byte(crc >> 16), byte(crc >> 8), byte(crc)}
	b.WriteByte('=')
	b.WriteString(base64.StdEncoding.EncodeToString(crcBytes))
	b.WriteByte('\n')
	b.WriteString(armorEnd)
	b.WriteByte('\n')
	return b.String(), nil
}

// splitArmorLine returns the next line with any trailing \r removed.
func splitArmorLine(text string) (line, rest string) {
	line, rest, found := strings.Cut(text, "\n")
	if !found {
		rest = ""
	}
	return strings.TrimSuffix(line, "\r"), rest
}

// Dearmor decodes an ASCII-armored message, verifying the CRC24 trailer, and
// returns the binary body together with the armor headers in their original
// order.
func Dearmor(text string) ([]byte, []ArmorHeader, error) {
	// find the begin marker at start of line
	rest := text
	for {
		var line string
		line, rest = splitArmorLine(rest)
		if strings.TrimSpace(line) == armorBegin {
			break
		}
		if rest == "" {
			return nil, nil, ErrCorruptArmor
		}
	}

	// armor headers run to the first blank line
	var headers []ArmorHeader
	for {
		if rest == "" {
			return nil, nil, ErrCorruptArmor
		}
		var line string
		line, rest = splitArmorLine(rest)
		if strings.TrimSpace(line) == "" {
			break
		}
		key, val, found := strings.Cut(line, ": ")
		if !found {
			return nil, nil, ErrCorruptArmor
		}
		headers = append(headers, ArmorHeader{Key: key, Value: val})
	}

	// body runs to the "=" crc line
	var body strings.Builder
	var crcLine string
	for {
		if rest == "" {
			return nil, nil, ErrCorruptArmor
		}
		var line string
		line, rest = splitArmorLine(rest)
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "=") {
			crcLine = line[1:]
			break
		}
		if strings.HasPrefix(line, "-----") {
			// end marker without a crc line
			return nil, nil, ErrCorruptArmor
		}
		body.WriteString(line)
	}

	line, _ := splitArmorLine(rest)
	if strings.TrimSpace(line) != armorEnd {
		return nil, nil, ErrCorruptArmor
	}

	data, err := base64.StdEncoding.DecodeString(body.String())
	if err != nil {
		return nil, nil, ErrCorruptArmor
	}
	crcBytes, err := base64.StdEncoding.DecodeString(crcLine)
	if err != nil || len(crcBytes) != 3 {
		return nil, nil, ErrCorruptArmor
	}
	want := uint32(crcBytes[0])<<16 | uint32(crcBytes[1])<<8 | uint32(crcBytes[2])
	if crc24(data) != want {
		return nil, nil, ErrCorruptArmor
	}
	return data, headers, nil
}
