// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pgp

import (
	"fmt"

	"code.gitea.io/pgp/modules/log"
)

// padEMEPKCS1v15 pads data to resLen bytes: 0x02 ‖ nonzero random pad ‖ 0x00
// ‖ data. The leading 0x00 of the full EME block is implicit in the integer
// encoding.
func padEMEPKCS1v15(data []byte, resLen int) ([]byte, error) {
	padLen := resLen - 2 - len(data)
	if padLen < 8 {
		return nil, fmt.Errorf("%w: pkcs1 pad too short", ErrBug)
	}

	buf := make([]byte, resLen)
	buf[0] = 0x02
	pad := buf[1 : 1+padLen]
	if err := randomBytes(pad); err != nil {
		return nil, err
	}
	// pad must not contain zero bytes
	for i := 0; i < padLen; {
		if pad[i] == 0 {
			if err := randomBytes(pad[i : i+1]); err != nil {
				return nil, err
			}
			continue
		}
		i++
	}
	buf[1+padLen] = 0
	copy(buf[2+padLen:], data)
	return buf, nil
}

// checkEMEPKCS1v15 validates the padding and returns the embedded message.
func checkEMEPKCS1v15(data []byte) []byte {
	if len(data) < 1+8+1 {
		return nil
	}
	if data[0] != 2 {
		return nil
	}
	i := 1
	for i < len(data) && data[i] != 0 {
		i++
	}
	if len(data)-i < 2 {
		return nil
	}
	if i-1 < 8 {
		return nil
	}
	return data[i+1:]
}

// controlCksum verifies the 16-bit checksum trailing the session key.
func controlCksum(msg []byte) error {
	if len(msg) < 3 {
		return ErrWrongKey
	}
	var sum uint
	for _, b := range msg[1 : len(msg)-2] {
		sum += uint(b)
	}
	sum &= 0xFFFF
	got := uint(msg[len(msg)-2])<<8 + uint(msg[len(msg)-1])
	if sum != got {
		log.Debug("pubenc checksum failed")
		return ErrWrongKey
	}
	return nil
}

// decideKBits returns the bit length of the random ElGamal exponent.
func decideKBits(pBits int) int {
	if pBits <= 5120 {
		return pBits/10 + 160
	}
	return (pBits/8 + 200) * 3 / 2
}

func encryptElgamal(pk *pubKey, m *mpi) (c1, c2 *mpi, err error) {
	k, err := mpiRandomBits(decideKBits(pk.elgP.bits))
	if err != nil {
		return nil, nil, err
	}
	defer k.free()

	c1 = mpiModExp(pk.elgG, k, pk.elgP)
	yk := mpiModExp(pk.elgY, k, pk.elgP)
	c2 = mpiModMul(m, yk, pk.elgP)
	yk.free()
	return c1, c2, nil
}

func decryptElgamal(pk *pubKey, c1, c2 *mpi) (*mpi, error) {
	t := mpiModExp(c1, pk.elgX, pk.elgP)
	ti, err := mpiModInv(t, pk.elgP)
	t.free()
	if err != nil {
		return nil, err
	}
	m := mpiModMul(c2, ti, pk.elgP)
	ti.free()
	return m, nil
}

func encryptRSA(pk *pubKey, m *mpi) *mpi {
	return mpiModExp(m, pk.rsaE, pk.rsaN)
}

func decryptRSA(pk *pubKey, c *mpi) *mpi {
	return mpiModExp(c, pk.rsaD, pk.rsaN)
}

// createSecmsg builds the padded integer wrapping the session key:
// EME-PKCS1-v1.5 over algo ‖ key ‖ cksum16.
func createSecmsg(ctx *Context, fullBytes int) (*mpi, error) {
	klen := len(ctx.sessKey)
	secmsg := make([]byte, klen+3)
	secmsg[0] = byte(ctx.cipherAlgo)
	copy(secmsg[1:], ctx.sessKey)
	var cksum uint
	for _, b := range ctx.sessKey {
		cksum += uint(b)
	}
	secmsg[klen+1] = byte(cksum >> 8)
	secmsg[klen+2] = byte(cksum)

	padded, err := padEMEPKCS1v15(secmsg, fullBytes)
	zeroize(secmsg)
	if err != nil {
		return nil, err
	}
	m := mpiFromBytes(padded)
	zeroize(padded)
	return m, nil
}

// writePubencSesskey emits the tag-1 packet wrapping the session key for the
// attached public key.
func writePubencSesskey(ctx *Context, dst *PushFilter) error {
	pk := ctx.pubKey
	if pk == nil {
		return fmt.Errorf("%w: no public key", ErrBug)
	}

	var mpis []*mpi
	switch pk.algo {
	case pubElgamalEncrypt:
		if pk.elgP.bits < 1024 {
			return ErrShortElGamalKey
		}
		m, err := createSecmsg(ctx, pk.elgP.byteLen()-1)
		if err != nil {
			return err
		}
		c1, c2, err := encryptElgamal(pk, m)
		m.free()
		if err != nil {
			return err
		}
		mpis = []*mpi{c1, c2}
	case pubRSAEncrypt, pubRSAEncryptSign:
		m, err := createSecmsg(ctx, pk.rsaN.byteLen()-1)
		if err != nil {
			return err
		}
		c := encryptRSA(pk, m)
		m.free()
		mpis = []*mpi{c}
	default:
		log.Debug("writePubencSesskey: unsupported algorithm %d", pk.algo)
		return ErrNoUsableKey
	}
	defer func() {
		for _, n := range mpis {
			n.free()
		}
	}()

	pktLen := 1 + 8 + 1
	for _, n := range mpis {
		pktLen += 2 + len(n.data)
	}
	if err := writeNormalHeader(dst, tagPubEncSesskey, pktLen); err != nil {
		return err
	}
	if err := dst.WriteByte(3); err != nil {
		return err
	}
	if err := dst.Write(pk.keyID[:]); err != nil {
		return err
	}
	if err := dst.WriteByte(byte(pk.algo)); err != nil {
		return err
	}
	for _, n := range mpis {
		if err := n.write(dst); err != nil {
			return err
		}
	}
	return nil
}

// parsePubencSesskey handles a tag-1 packet on the decrypt path.
func parsePubencSesskey(ctx *Context, pkt *PullFilter) error {
	pk := ctx.pubKey
	if pk == nil {
		log.Debug("parsePubencSesskey: no secret key attached")
		return fmt.Errorf("%w: no secret key", ErrBug)
	}

	ver, err := pkt.GetByte()
	if err != nil {
		return err
	}
	if ver != 3 {
		log.Debug("unknown pubenc sesskey pkt version")
		return ErrCorruptData
	}

	var keyID [8]byte
	if _, err := pkt.ReadFixedCopy(keyID[:]); err != nil {
		return err
	}
	if err := pk.checkKeyID(keyID[:]); err != nil {
		return err
	}

	algo, err := pkt.GetByte()
	if err != nil {
		return err
	}

	var m *mpi
	switch int(algo) {
	case pubElgamalEncrypt:
		c1, err := readMPI(pkt)
		if err != nil {
			return err
		}
		c2, err := readMPI(pkt)
		if err != nil {
			c1.free()
			return err
		}
		m, err = decryptElgamal(pk, c1, c2)
		c1.free()
		c2.free()
		if err != nil {
			return err
		}
	case pubRSAEncrypt, pubRSAEncryptSign:
		c, err := readMPI(pkt)
		if err != nil {
			return err
		}
		m = decryptRSA(pk, c)
		c.free()
	default:
		log.Debug("parsePubencSesskey: unknown algorithm %d", algo)
		return ErrCorruptData
	}
	defer m.free()

	msg := checkEMEPKCS1v15(m.data)
	if msg == nil {
		log.Debug("eme-pkcs1 check failed")
		return ErrWrongKey
	}
	if err := controlCksum(msg); err != nil {
		return err
	}

	ctx.cipherAlgo = CipherAlgo(msg[0])
	keyLen := len(msg) - 3
	if ctx.cipherAlgo.KeySize() != keyLen {
		log.Debug("sesskey length does not match cipher")
		return ErrWrongKey
	}
	ctx.sessKey = make([]byte, keyLen)
	copy(ctx.sessKey, msg[1:1+keyLen])

	return expectPacketEnd(pkt)
}
