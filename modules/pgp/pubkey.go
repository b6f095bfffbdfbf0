// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"crypto/sha1"
	"crypto/subtle"

	"code.gitea.io/pgp/modules/log"
)

// Public-key algorithm ids (RFC 4880 §9.1).
const (
	pubRSAEncryptSign = 1
	pubRSAEncrypt     = 2
	pubRSASign        = 3
	pubElgamalEncrypt = 16
	pubDSASign        = 17
)

// pubKey is one key loaded from a v4 key packet, public or secret.
type pubKey struct {
	ver        int
	time       [4]byte
	algo       int
	keyID      [8]byte
	canEncrypt bool

	// RSA
	rsaN, rsaE *mpi
	rsaD       *mpi

	// ElGamal
	elgP, elgG, elgY *mpi
	elgX             *mpi

	// DSA (parsed so the keyring walk can skip signing subkeys)
	dsaP, dsaQ, dsaG, dsaY *mpi
}

func (pk *pubKey) free() {
	for _, n := range []*mpi{
		pk.rsaN, pk.rsaE, pk.rsaD,
		pk.elgP, pk.elgG, pk.elgY, pk.elgX,
		pk.dsaP, pk.dsaQ, pk.dsaG, pk.dsaY,
	} {
		if n != nil {
			n.free()
		}
	}
	zeroize(pk.keyID[:])
}

func (pk *pubKey) publicMPIs() []*mpi {
	switch pk.algo {
	case pubRSAEncryptSign, pubRSAEncrypt, pubRSASign:
		return []*mpi{pk.rsaN, pk.rsaE}
	case pubElgamalEncrypt:
		return []*mpi{pk.elgP, pk.elgG, pk.elgY}
	case pubDSASign:
		return []*mpi{pk.dsaP, pk.dsaQ, pk.dsaG, pk.dsaY}
	}
	return nil
}

// calcKeyID computes the key id: the low 64 bits of SHA-1 over
// 0x99 ‖ len16 ‖ version ‖ time ‖ algo ‖ public MPIs.
func (pk *pubKey) calcKeyID() {
	mpis := pk.publicMPIs()
	bodyLen := 6
	for _, n := range mpis {
		bodyLen += 2 + len(n.data)
	}

	h := sha1.New()
	h.Write([]byte{0x99, byte(bodyLen >> 8), byte(bodyLen)})
	h.Write([]byte{byte(pk.ver)})
	h.Write(pk.time[:])
	h.Write([]byte{byte(pk.algo)})
	for _, n := range mpis {
		n.hash(h)
	}
	digest := h.Sum(nil)
	copy(pk.keyID[:], digest[len(digest)-8:])
}

// parsePublicKeyBody reads the public part of a v4 key packet.
func parsePublicKeyBody(pkt *PullFilter) (*pubKey, error) {
	pk := &pubKey{}

	ver, err := pkt.GetByte()
	if err != nil {
		return nil, err
	}
	if ver != 4 {
		log.Debug("parsePublicKeyBody: unsupported key version %d", ver)
		return nil, ErrCorruptData
	}
	pk.ver = int(ver)
	if _, err := pkt.ReadFixedCopy(pk.time[:]); err != nil {
		return nil, err
	}
	algo, err := pkt.GetByte()
	if err != nil {
		return nil, err
	}
	pk.algo = int(algo)

	switch pk.algo {
	case pubRSAEncryptSign, pubRSAEncrypt, pubRSASign:
		if pk.rsaN, err = readMPI(pkt); err != nil {
			return nil, err
		}
		if pk.rsaE, err = readMPI(pkt); err != nil {
			return nil, err
		}
		pk.canEncrypt = pk.algo != pubRSASign
	case pubElgamalEncrypt:
		if pk.elgP, err = readMPI(pkt); err != nil {
			return nil, err
		}
		if pk.elgG, err = readMPI(pkt); err != nil {
			return nil, err
		}
		if pk.elgY, err = readMPI(pkt); err != nil {
			return nil, err
		}
		pk.canEncrypt = true
	case pubDSASign:
		if pk.dsaP, err = readMPI(pkt); err != nil {
			return nil, err
		}
		if pk.dsaQ, err = readMPI(pkt); err != nil {
			return nil, err
		}
		if pk.dsaG, err = readMPI(pkt); err != nil {
			return nil, err
		}
		if pk.dsaY, err = readMPI(pkt); err != nil {
			return nil, err
		}
	default:
		log.Debug("parsePublicKeyBody: unknown algorithm %d", pk.algo)
		return nil, ErrCorruptData
	}

	pk.calcKeyID()
	return pk, nil
}

// readSecretPayload drains the remaining packet body: the secret MPIs plus
// their checksum, possibly encrypted.
func readSecretPayload(pkt *PullFilter) ([]byte, error) {
	var out []byte
	for {
		res, err := pkt.Read(32 * 1024)
		if err != nil {
			return nil, err
		}
		if len(res) == 0 {
			return out, nil
		}
		out = append(out, res...)
	}
}

// parseSecretMPIs decodes the decrypted secret part and verifies its
// checksum: a 16-bit byte sum for s2k-usage 0/255, SHA-1 for 254.
func parseSecretMPIs(pk *pubKey, data []byte, sha1Cksum bool) error {
	var cksumLen int
	if sha1Cksum {
		cksumLen = sha1.Size
	} else {
		cksumLen = 2
	}
	if len(data) < cksumLen {
		return ErrCorruptData
	}
	body, cksum := data[:len(data)-cksumLen], data[len(data)-cksumLen:]

	src, err := newMBufReader(NewMBufFromData(body))
	if err != nil {
		return err
	}
	defer src.Free()

	var secret []*mpi
	switch pk.algo {
	case pubRSAEncryptSign, pubRSAEncrypt, pubRSASign:
		// d, p, q, u; only d is used
		for i := 0; i < 4; i++ {
			n, err := readMPI(src)
			if err != nil {
				return err
			}
			secret = append(secret, n)
		}
		pk.rsaD = secret[0]
	case pubElgamalEncrypt:
		n, err := readMPI(src)
		if err != nil {
			return err
		}
		secret = append(secret, n)
		pk.elgX = n
	default:
		log.Debug("parseSecretMPIs: no secret part for algorithm %d", pk.algo)
		return ErrCorruptData
	}
	if err := expectPacketEnd(src); err != nil {
		return err
	}

	if sha1Cksum {
		digest := sha1.Sum(body)
		if subtle.ConstantTimeCompare(digest[:], cksum) != 1 {
			log.Debug("parseSecretMPIs: sha1 checksum mismatch")
			return ErrCorruptData
		}
		return nil
	}
	var sum uint
	for _, n := range secret {
		sum = n.cksum(sum)
	}
	if sum != uint(cksum[0])<<8|uint(cksum[1]) {
		log.Debug("parseSecretMPIs: checksum mismatch")
		return ErrCorruptData
	}
	return nil
}

// parseSecretKeyBody reads a v4 secret-key packet: the public part followed
// by the possibly-encrypted secret MPIs.
func parseSecretKeyBody(pkt *PullFilter, password []byte) (*pubKey, error) {
	pk, err := parsePublicKeyBody(pkt)
	if err != nil {
		return nil, err
	}

	usage, err := pkt.GetByte()
	if err != nil {
		return nil, err
	}

	var lock s2k
	defer lock.free()
	cipherAlgo := CipherNone
	switch usage {
	case 0:
		// secret part in the clear
	case 254, 255:
		algo, err := pkt.GetByte()
		if err != nil {
			return nil, err
		}
		cipherAlgo = CipherAlgo(algo)
		if err := lock.read(pkt); err != nil {
			return nil, err
		}
	default:
		// legacy: the usage byte is the cipher id, keyed by simple MD5
		cipherAlgo = CipherAlgo(usage)
		lock.mode = s2kSimple
		lock.digestAlgo = DigestMD5
	}

	payload, err := readSecretPayload(pkt)
	if err != nil {
		return nil, err
	}
	defer zeroize(payload)

	if cipherAlgo != CipherNone {
		if len(password) == 0 {
			return nil, ErrNeedSecretPassword
		}
		if err := lock.process(cipherAlgo, password); err != nil {
			return nil, err
		}
		bs := cipherAlgo.BlockSize()
		if len(payload) < bs {
			return nil, ErrCorruptData
		}
		iv, body := payload[:bs], payload[bs:]
		cfb, err := newCFB(cipherAlgo, lock.key, iv, false)
		if err != nil {
			return nil, err
		}
		plain := make([]byte, len(body))
		cfb.decrypt(body, plain)
		cfb.free()
		defer zeroize(plain)
		payload = plain
	}

	if err := parseSecretMPIs(pk, payload, usage == 254); err != nil {
		return nil, err
	}
	return pk, nil
}

// internalReadKey walks a binary keyring and returns the single
// encryption-capable subkey. The primary key is never used for encryption.
func internalReadKey(src *PullFilter, password []byte, wantSecret bool) (*pubKey, error) {
	var encKey *pubKey
	gotMainKey := false

	for {
		tag, length, kind, err := parsePktHdr(src, false)
		if err != nil {
			return nil, err
		}
		if kind == pktEOF {
			break
		}
		pkt, err := newPktReader(src, length, kind)
		if err != nil {
			return nil, err
		}

		var pk *pubKey
		switch tag {
		case tagPublicKey, tagSecretKey:
			if gotMainKey {
				err = ErrMultipleKeys
			} else {
				gotMainKey = true
				err = skipPacket(pkt)
			}
		case tagPublicSubkey:
			if wantSecret {
				log.Debug("internalReadKey: expected secret subkey")
				err = ErrCorruptData
			} else {
				pk, err = parsePublicKeyBody(pkt)
			}
		case tagSecretSubkey:
			if !wantSecret {
				log.Debug("internalReadKey: expected public subkey")
				err = ErrCorruptData
			} else {
				pk, err = parseSecretKeyBody(pkt, password)
			}
		case tagSignature, tagMarker, tagTrust, tagUserID, tagUserAttr, tagPriv61:
			err = skipPacket(pkt)
		default:
			log.Debug("internalReadKey: unknown packet tag=%d", tag)
			err = ErrCorruptData
		}
		if err == nil {
			err = skipPacket(pkt)
		}
		pkt.Free()

		if pk != nil {
			if err == nil && pk.canEncrypt {
				if encKey == nil {
					encKey = pk
					pk = nil
				} else {
					err = ErrMultipleSubkeys
				}
			}
			if pk != nil {
				pk.free()
			}
		}
		if err != nil {
			if encKey != nil {
				encKey.free()
			}
			return nil, err
		}
	}

	if encKey == nil {
		return nil, ErrNoUsableKey
	}
	return encKey, nil
}

// SetPublicKey attaches the encryption subkey found in a binary public
// keyring.
func (ctx *Context) SetPublicKey(keyring []byte) error {
	src, err := newMBufReader(NewMBufFromData(keyring))
	if err != nil {
		return err
	}
	defer src.Free()

	pk, err := internalReadKey(src, nil, false)
	if err != nil {
		return err
	}
	ctx.pubKey = pk
	return nil
}

// SetSecretKey attaches the decryption subkey found in a binary secret
// keyring, unlocking it with the password when the material is encrypted.
func (ctx *Context) SetSecretKey(keyring, password []byte) error {
	src, err := newMBufReader(NewMBufFromData(keyring))
	if err != nil {
		return err
	}
	defer src.Free()

	pk, err := internalReadKey(src, password, true)
	if err != nil {
		return err
	}
	ctx.pubKey = pk
	return nil
}

// checkKeyID verifies a session-key packet's key id against the attached
// key; an all-zero id means "any key".
func (pk *pubKey) checkKeyID(keyID []byte) error {
	allZero := true
	for _, b := range keyID {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil
	}
	if subtle.ConstantTimeCompare(keyID, pk.keyID[:]) != 1 {
		log.Debug("checkKeyID: key id mismatch")
		return ErrWrongKey
	}
	return nil
}
