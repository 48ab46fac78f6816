// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

// transform applies one CryptoPolicy to packets. A stream owns one
// transform for RTP and one for RTCP, each keyed with its own labels.
// Transforms keep scratch state and are not safe for concurrent use.
//
// The encrypt and decrypt methods follow the buffer convention of the
// package: the result is written to dst, which is grown when its capacity
// is too small and may be the input itself.
type transform interface {
	// encryptRTP protects plaintext whose header is headerLen bytes long.
	encryptRTP(dst, plaintext []byte, headerLen int, ssrc uint32, index uint64) ([]byte, error)
	// decryptRTP verifies and decrypts ciphertext. No output is written
	// when authentication fails.
	decryptRTP(dst, ciphertext []byte, headerLen int, ssrc uint32, index uint64) ([]byte, error)

	encryptRTCP(dst, plaintext []byte, ssrc, index uint32) ([]byte, error)
	decryptRTCP(dst, ciphertext []byte, ssrc, index uint32, encrypted bool) ([]byte, error)

	// rtcpIndex reads the E flag and SRTCP index of a protected packet of
	// at least srtcpHeaderLen+policy.RTCPOverhead() bytes.
	rtcpIndex(ciphertext []byte) (index uint32, encrypted bool)
}

func newTransform(policy CryptoPolicy, keys sessionKeys) (transform, error) {
	if policy.Cipher == CipherAESGCM {
		t, err := newAEADTransform(policy, keys)
		if err != nil {
			return nil, err
		}

		return t, nil
	}

	t, err := newCTRTransform(policy, keys)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// rtpIndexParts splits a 48 bit packet index into rollover counter and
// sequence number.
func rtpIndexParts(index uint64) (roc uint32, seq uint16) {
	return uint32(index >> 16), uint16(index)
}
