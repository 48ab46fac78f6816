// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/pion/go-srtp/internal/aesctr"
)

const gcmFullTagLen = 16

// aeadTransform implements AES-GCM for SRTP and SRTCP, RFC 7714. Tags
// shorter than 16 bytes are the leading bytes of the full GCM tag. The
// standard library only opens tags of 12 bytes or more, so short tags are
// verified by decrypting with the GCM counter stream and recomputing the
// tag.
type aeadTransform struct {
	aead   cipher.AEAD
	stream *aesctr.Stream
	salt   []byte
	tagLen int
	conf   bool

	sealed []byte
	opened []byte
	aad    []byte
}

func newAEADTransform(policy CryptoPolicy, keys sessionKeys) (*aeadTransform, error) {
	block, err := aes.NewCipher(keys.cipherKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", StatusCipherFail, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", StatusCipherFail, err)
	}

	var iv [aes.BlockSize]byte
	stream, err := aesctr.New(block, iv[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", StatusCipherFail, err)
	}

	return &aeadTransform{
		aead:   aead,
		stream: stream,
		salt:   append([]byte{}, keys.salt...),
		tagLen: policy.AuthTagLen,
		conf:   policy.Services.Confidentiality(),
	}, nil
}

// seal encrypts plaintext and returns ciphertext followed by the truncated
// tag. The result aliases scratch space of t.
func (t *aeadTransform) seal(iv, plaintext, aad []byte) []byte {
	t.sealed = t.aead.Seal(t.sealed[:0], iv, plaintext, aad)

	return t.sealed[:len(plaintext)+t.tagLen]
}

// open verifies and decrypts ciphertext followed by its truncated tag. The
// result aliases scratch space of t.
func (t *aeadTransform) open(iv, ciphertext, aad []byte) ([]byte, error) {
	if t.tagLen == gcmFullTagLen {
		out, err := t.aead.Open(t.opened[:0], iv, ciphertext, aad)
		if err != nil {
			return nil, StatusAuthFail
		}
		t.opened = out

		return out, nil
	}

	payload := ciphertext[:len(ciphertext)-t.tagLen]
	tag := ciphertext[len(payload):]

	// GCM encrypts the payload with counter blocks starting at IV||2.
	var counter [aes.BlockSize]byte
	copy(counter[:], iv)
	counter[aes.BlockSize-1] = 2

	t.opened = growBufferSize(t.opened[:0], len(payload))
	if err := t.stream.Reset(counter[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", StatusCipherFail, err)
	}
	if err := t.stream.XORKeyStream(t.opened, payload); err != nil {
		return nil, fmt.Errorf("%w: %w", StatusCipherFail, err)
	}

	expected := t.seal(iv, t.opened, aad)[len(payload):]
	if subtle.ConstantTimeCompare(expected, tag) != 1 {
		return nil, StatusAuthFail
	}

	return t.opened, nil
}

// authTag authenticates aad without encrypting anything.
func (t *aeadTransform) authTag(iv, aad []byte) []byte {
	return t.seal(iv, nil, aad)
}

func (t *aeadTransform) encryptRTP(dst, plaintext []byte, headerLen int, ssrc uint32, index uint64) ([]byte, error) {
	n := len(plaintext)
	dst = growBufferSize(dst, n+t.tagLen)
	sameBuffer := isSameBuffer(dst, plaintext)

	roc, seq := rtpIndexParts(index)
	iv := gcmRTPIV(ssrc, roc, seq, t.salt)

	if !t.conf {
		if !sameBuffer {
			copy(dst, plaintext)
		}
		copy(dst[n:], t.authTag(iv[:], dst[:n]))

		return dst, nil
	}

	if !sameBuffer {
		copy(dst, plaintext[:headerLen])
	}
	copy(dst[headerLen:], t.seal(iv[:], plaintext[headerLen:], dst[:headerLen]))

	return dst, nil
}

func (t *aeadTransform) decryptRTP(dst, ciphertext []byte, headerLen int, ssrc uint32, index uint64) ([]byte, error) {
	if len(ciphertext) < headerLen+t.tagLen {
		return nil, fmt.Errorf("%w: %w", StatusParseErr, errTooShortRTP)
	}

	n := len(ciphertext) - t.tagLen
	roc, seq := rtpIndexParts(index)
	iv := gcmRTPIV(ssrc, roc, seq, t.salt)

	if !t.conf {
		if subtle.ConstantTimeCompare(t.authTag(iv[:], ciphertext[:n]), ciphertext[n:]) != 1 {
			return nil, StatusAuthFail
		}

		dst = growBufferSize(dst, n)
		if !isSameBuffer(dst, ciphertext) {
			copy(dst, ciphertext[:n])
		}

		return dst, nil
	}

	payload, err := t.open(iv[:], ciphertext[headerLen:], ciphertext[:headerLen])
	if err != nil {
		return nil, err
	}

	dst = growBufferSize(dst, n)
	if !isSameBuffer(dst, ciphertext) {
		copy(dst, ciphertext[:headerLen])
	}
	copy(dst[headerLen:], payload)

	return dst, nil
}

// encryptRTCP follows RFC 7714 section 9. With confidentiality the output
// is header, ciphertext, tag, E flag with index, and the header plus the
// index word are the associated data. Without it the whole packet and the
// index word are associated data and the tag precedes the index word.
func (t *aeadTransform) encryptRTCP(dst, plaintext []byte, ssrc, index uint32) ([]byte, error) {
	n := len(plaintext)
	dst = growBufferSize(dst, n+t.tagLen+srtcpIndexLen)
	sameBuffer := isSameBuffer(dst, plaintext)
	iv := gcmRTCPIV(ssrc, index, t.salt)

	word := index
	if t.conf {
		word |= srtcpEncrypt
	}

	if !t.conf {
		if !sameBuffer {
			copy(dst, plaintext)
		}
		t.aad = append(append(t.aad[:0], dst[:n]...), 0, 0, 0, 0)
		binary.BigEndian.PutUint32(t.aad[n:], word)
		copy(dst[n:], t.authTag(iv[:], t.aad))
		binary.BigEndian.PutUint32(dst[n+t.tagLen:], word)

		return dst, nil
	}

	var aad [srtcpHeaderLen + srtcpIndexLen]byte
	copy(aad[:], plaintext[:srtcpHeaderLen])
	binary.BigEndian.PutUint32(aad[srtcpHeaderLen:], word)

	if !sameBuffer {
		copy(dst, plaintext[:srtcpHeaderLen])
	}
	copy(dst[srtcpHeaderLen:], t.seal(iv[:], plaintext[srtcpHeaderLen:], aad[:]))
	binary.BigEndian.PutUint32(dst[n+t.tagLen:], word)

	return dst, nil
}

func (t *aeadTransform) decryptRTCP(dst, ciphertext []byte, ssrc, index uint32, encrypted bool) ([]byte, error) {
	if len(ciphertext) < srtcpHeaderLen+t.tagLen+srtcpIndexLen {
		return nil, fmt.Errorf("%w: %w", StatusParseErr, errTooShortRTCP)
	}

	wordStart := len(ciphertext) - srtcpIndexLen
	n := wordStart - t.tagLen
	iv := gcmRTCPIV(ssrc, index, t.salt)

	if !encrypted {
		t.aad = append(append(t.aad[:0], ciphertext[:n]...), ciphertext[wordStart:]...)
		if subtle.ConstantTimeCompare(t.authTag(iv[:], t.aad), ciphertext[n:wordStart]) != 1 {
			return nil, StatusAuthFail
		}

		dst = growBufferSize(dst, n)
		if !isSameBuffer(dst, ciphertext) {
			copy(dst, ciphertext[:n])
		}

		return dst, nil
	}

	var aad [srtcpHeaderLen + srtcpIndexLen]byte
	copy(aad[:], ciphertext[:srtcpHeaderLen])
	copy(aad[srtcpHeaderLen:], ciphertext[wordStart:])

	payload, err := t.open(iv[:], ciphertext[srtcpHeaderLen:wordStart], aad[:])
	if err != nil {
		return nil, err
	}

	dst = growBufferSize(dst, n)
	if !isSameBuffer(dst, ciphertext) {
		copy(dst, ciphertext[:srtcpHeaderLen])
	}
	copy(dst[srtcpHeaderLen:], payload)

	return dst, nil
}

func (t *aeadTransform) rtcpIndex(ciphertext []byte) (uint32, bool) {
	word := binary.BigEndian.Uint32(ciphertext[len(ciphertext)-srtcpIndexLen:])

	return word &^ srtcpEncrypt, word&srtcpEncrypt != 0
}
