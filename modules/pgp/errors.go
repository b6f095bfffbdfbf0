// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import "errors"

// The closed set of errors the engine reports. Callers match them with
// errors.Is; everything the engine wraps around them is informational only.
var (
	// ErrCorruptData covers any structural violation of packet framing,
	// S2K, MPI, MDC, prefix or literal-data layout. Once payload
	// processing has started, almost every failure is collapsed into this
	// one so that a chosen-ciphertext attacker learns nothing from the
	// error kind (Mister-Zuccherato).
	ErrCorruptData = errors.New("wrong key or corrupt data")

	// ErrCorruptArmor is returned for malformed ASCII armor.
	ErrCorruptArmor = errors.New("corrupt ascii-armor")

	// ErrWrongKey is returned for a key-id mismatch, a PKCS#1 unwrap
	// failure or a session-key length mismatch. It is only raised before
	// any payload has been fed into the cipher.
	ErrWrongKey = errors.New("wrong key")

	// ErrNoUsableKey means the supplied keyring has no
	// encryption-capable subkey.
	ErrNoUsableKey = errors.New("no encryption key found")

	// ErrMultipleKeys means the keyring contains more than one primary key.
	ErrMultipleKeys = errors.New("several primary keys in keyring")

	// ErrMultipleSubkeys means the keyring contains more than one
	// encryption-capable subkey.
	ErrMultipleSubkeys = errors.New("several encryption subkeys in keyring")

	// ErrNeedSecretPassword means encrypted secret key material was
	// supplied without a password.
	ErrNeedSecretPassword = errors.New("need password for secret key")

	// ErrUnsupportedCompression is reported for bzip2-compressed input.
	// It is surfaced only after the whole message has been consumed, so
	// the MDC covering the compressed stream is still validated.
	ErrUnsupportedCompression = errors.New("unsupported compression algorithm")

	// ErrUnsupportedCipher is reported immediately for unknown cipher ids.
	ErrUnsupportedCipher = errors.New("unsupported cipher algorithm")

	// ErrUnsupportedHash is reported immediately for unknown digest ids.
	ErrUnsupportedHash = errors.New("unsupported digest algorithm")

	// ErrNotText means a text-mode caller decrypted a binary literal
	// packet. Surfaced only at end of message and only when nothing else
	// failed first.
	ErrNotText = errors.New("not text data")

	// ErrShortElGamalKey rejects ElGamal keys whose prime is shorter
	// than 1024 bits.
	ErrShortElGamalKey = errors.New("elgamal key too short")

	// ErrArgument flags invalid caller-supplied parameters.
	ErrArgument = errors.New("invalid argument")

	// ErrBug flags states that must be unreachable.
	ErrBug = errors.New("internal error")

	// ErrNoRandom is returned when the random source fails.
	ErrNoRandom = errors.New("no random source available")

	// errShortRead is an internal marker for a truncated read inside a
	// structure. The drivers collapse it into ErrCorruptData before it
	// can reach a caller.
	errShortRead = errors.New("short read")
)

// collapseErr implements the oracle-denial rule: while interpreting
// purportedly-decrypted data, no error other than ErrCorruptData (and ErrBug,
// which stays unreachable) may escape.
func collapseErr(err error) error {
	if err == nil || errors.Is(err, ErrBug) || errors.Is(err, ErrNoRandom) {
		return err
	}
	if errors.Is(err, ErrCorruptData) {
		return err
	}
	return ErrCorruptData
}
