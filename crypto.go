// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"crypto/aes"
	"encoding/binary"

	"github.com/pion/transport/v3/utils/xor"
)

// xorBytes computes the exclusive-or of src1 and src2 and stores it in dst.
// It returns the number of bytes written.
func xorBytes(dst, src1, src2 []byte) int {
	n := len(src1)
	if len(src2) < n {
		n = len(src2)
	}
	if len(dst) < n {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}

	return xor.XorBytes(dst[:n], src1[:n], src2[:n])
}

// generateCounter builds the AES-CM counter block of RFC 3711 section 4.1.1:
//
//	IV = (k_s * 2^16) XOR (SSRC * 2^64) XOR (i * 2^16)
//
// where i is the 48 bit packet index made of the rollover counter and the
// sequence number. The low 16 bits are the block counter and start at zero.
func generateCounter(sequenceNumber uint16, rolloverCounter uint32, ssrc uint32, sessionSalt []byte) (counter [aes.BlockSize]byte) {
	copy(counter[:], sessionSalt)

	counter[4] ^= byte(ssrc >> 24)
	counter[5] ^= byte(ssrc >> 16)
	counter[6] ^= byte(ssrc >> 8)
	counter[7] ^= byte(ssrc)
	counter[8] ^= byte(rolloverCounter >> 24)
	counter[9] ^= byte(rolloverCounter >> 16)
	counter[10] ^= byte(rolloverCounter >> 8)
	counter[11] ^= byte(rolloverCounter)
	counter[12] ^= byte(sequenceNumber >> 8)
	counter[13] ^= byte(sequenceNumber)

	return counter
}

// gcmRTPIV builds the 12 byte AEAD nonce of RFC 7714 section 8.1.
//
//	    0  0  0  0  0  0  0  0  0  0  1  1
//	    0  1  2  3  4  5  6  7  8  9  0  1
//	  +--+--+--+--+--+--+--+--+--+--+--+--+
//	  |00|00|    SSRC   |     ROC   | SEQ |---+
//	  +--+--+--+--+--+--+--+--+--+--+--+--+   |
//	                                          |
//	  +--+--+--+--+--+--+--+--+--+--+--+--+   |
//	  |         Encryption Salt           |->(+)
//	  +--+--+--+--+--+--+--+--+--+--+--+--+   |
//	                                          |
//	  +--+--+--+--+--+--+--+--+--+--+--+--+   |
//	  |       Initialization Vector       |<--+
//	  +--+--+--+--+--+--+--+--+--+--+--+--+
func gcmRTPIV(ssrc, roc uint32, seq uint16, salt []byte) (iv [aesGCMSaltLen]byte) {
	binary.BigEndian.PutUint32(iv[2:], ssrc)
	binary.BigEndian.PutUint32(iv[6:], roc)
	binary.BigEndian.PutUint16(iv[10:], seq)
	xorBytes(iv[:], iv[:], salt)

	return iv
}

// gcmRTCPIV builds the 12 byte AEAD nonce of RFC 7714 section 9.1, the
// sequence number and rollover counter are replaced by the 31 bit SRTCP
// index.
func gcmRTCPIV(ssrc, index uint32, salt []byte) (iv [aesGCMSaltLen]byte) {
	binary.BigEndian.PutUint32(iv[2:], ssrc)
	binary.BigEndian.PutUint32(iv[8:], index)
	xorBytes(iv[:], iv[:], salt)

	return iv
}

// growBufferSize grows buf to size, reallocating when its capacity is
// too small. The prefix of buf is preserved.
func growBufferSize(buf []byte, size int) []byte {
	if size <= cap(buf) {
		return buf[:size]
	}

	buf2 := make([]byte, size)
	copy(buf2, buf)

	return buf2
}

// isSameBuffer reports whether a and b start at the same address.
func isSameBuffer(a, b []byte) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}
