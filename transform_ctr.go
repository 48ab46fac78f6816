// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"crypto/aes"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/pion/go-srtp/internal/aesctr"
)

// ctrTransform implements AES-CM and the null cipher combined with
// HMAC-SHA1 or no authentication, RFC 3711 sections 4.1.1 and 4.2.1.
type ctrTransform struct {
	stream *aesctr.Stream // nil without confidentiality
	salt   []byte

	mac    hash.Hash // nil without authentication
	tagLen int
	tag    [sha1.Size]byte
}

func newCTRTransform(policy CryptoPolicy, keys sessionKeys) (*ctrTransform, error) {
	t := &ctrTransform{
		salt: append([]byte{}, keys.salt...),
	}

	if policy.confidentiality() {
		block, err := aes.NewCipher(keys.cipherKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", StatusCipherFail, err)
		}

		var iv [aes.BlockSize]byte
		if t.stream, err = aesctr.New(block, iv[:]); err != nil {
			return nil, fmt.Errorf("%w: %w", StatusCipherFail, err)
		}
	}

	if policy.authentication() {
		t.mac = hmac.New(sha1.New, keys.authKey)
		t.tagLen = policy.AuthTagLen
	}

	return t, nil
}

// xorPayload runs the keystream for counter over src into dst.
func (t *ctrTransform) xorPayload(dst, src []byte, seq uint16, roc, ssrc uint32) error {
	counter := generateCounter(seq, roc, ssrc, t.salt)
	if err := t.stream.Reset(counter[:]); err != nil {
		return fmt.Errorf("%w: %w", StatusCipherFail, err)
	}
	if err := t.stream.XORKeyStream(dst, src); err != nil {
		return fmt.Errorf("%w: %w", StatusCipherFail, err)
	}

	return nil
}

// authTag computes the truncated HMAC over buf followed by the optional
// rollover counter. The result aliases scratch space of t.
func (t *ctrTransform) authTag(buf []byte, roc *uint32) []byte {
	t.mac.Reset()
	_, _ = t.mac.Write(buf)
	if roc != nil {
		var rocBytes [4]byte
		binary.BigEndian.PutUint32(rocBytes[:], *roc)
		_, _ = t.mac.Write(rocBytes[:])
	}

	return t.mac.Sum(t.tag[:0])[:t.tagLen]
}

func (t *ctrTransform) encryptRTP(dst, plaintext []byte, headerLen int, ssrc uint32, index uint64) ([]byte, error) {
	n := len(plaintext)
	dst = growBufferSize(dst, n+t.tagLen)
	sameBuffer := isSameBuffer(dst, plaintext)

	if !sameBuffer {
		copy(dst, plaintext[:headerLen])
	}

	roc, seq := rtpIndexParts(index)
	if t.stream != nil {
		if err := t.xorPayload(dst[headerLen:n], plaintext[headerLen:], seq, roc, ssrc); err != nil {
			return nil, err
		}
	} else if !sameBuffer {
		copy(dst[headerLen:n], plaintext[headerLen:])
	}

	if t.mac != nil {
		copy(dst[n:], t.authTag(dst[:n], &roc))
	}

	return dst, nil
}

func (t *ctrTransform) decryptRTP(dst, ciphertext []byte, headerLen int, ssrc uint32, index uint64) ([]byte, error) {
	if len(ciphertext) < headerLen+t.tagLen {
		return nil, fmt.Errorf("%w: %w", StatusParseErr, errTooShortRTP)
	}

	n := len(ciphertext) - t.tagLen
	roc, seq := rtpIndexParts(index)

	if t.mac != nil {
		expected := t.authTag(ciphertext[:n], &roc)
		if subtle.ConstantTimeCompare(ciphertext[n:], expected) != 1 {
			return nil, StatusAuthFail
		}
	}

	dst = growBufferSize(dst, n)
	sameBuffer := isSameBuffer(dst, ciphertext)
	if !sameBuffer {
		copy(dst, ciphertext[:headerLen])
	}

	if t.stream != nil {
		if err := t.xorPayload(dst[headerLen:], ciphertext[headerLen:n], seq, roc, ssrc); err != nil {
			return nil, err
		}
	} else if !sameBuffer {
		copy(dst[headerLen:], ciphertext[headerLen:n])
	}

	return dst, nil
}

// encryptRTCP lays the packet out as RFC 3711 section 3.4 describes:
// header, encrypted payload, E flag with index, then the tag over all of it.
func (t *ctrTransform) encryptRTCP(dst, plaintext []byte, ssrc, index uint32) ([]byte, error) {
	n := len(plaintext)
	dst = growBufferSize(dst, n+srtcpIndexLen+t.tagLen)
	sameBuffer := isSameBuffer(dst, plaintext)

	if !sameBuffer {
		copy(dst, plaintext[:srtcpHeaderLen])
	}

	word := index
	if t.stream != nil {
		if err := t.xorPayload(dst[srtcpHeaderLen:n], plaintext[srtcpHeaderLen:], uint16(index), index>>16, ssrc); err != nil {
			return nil, err
		}
		word |= srtcpEncrypt
	} else if !sameBuffer {
		copy(dst[srtcpHeaderLen:n], plaintext[srtcpHeaderLen:])
	}
	binary.BigEndian.PutUint32(dst[n:], word)

	if t.mac != nil {
		copy(dst[n+srtcpIndexLen:], t.authTag(dst[:n+srtcpIndexLen], nil))
	}

	return dst, nil
}

func (t *ctrTransform) decryptRTCP(dst, ciphertext []byte, ssrc, index uint32, encrypted bool) ([]byte, error) {
	if len(ciphertext) < srtcpHeaderLen+srtcpIndexLen+t.tagLen {
		return nil, fmt.Errorf("%w: %w", StatusParseErr, errTooShortRTCP)
	}

	tagStart := len(ciphertext) - t.tagLen
	if t.mac != nil {
		expected := t.authTag(ciphertext[:tagStart], nil)
		if subtle.ConstantTimeCompare(ciphertext[tagStart:], expected) != 1 {
			return nil, StatusAuthFail
		}
	}

	n := tagStart - srtcpIndexLen
	dst = growBufferSize(dst, n)
	sameBuffer := isSameBuffer(dst, ciphertext)
	if !sameBuffer {
		copy(dst, ciphertext[:srtcpHeaderLen])
	}

	if encrypted && t.stream != nil {
		if err := t.xorPayload(dst[srtcpHeaderLen:], ciphertext[srtcpHeaderLen:n], uint16(index), index>>16, ssrc); err != nil {
			return nil, err
		}
	} else if !sameBuffer {
		copy(dst[srtcpHeaderLen:], ciphertext[srtcpHeaderLen:n])
	}

	return dst, nil
}

func (t *ctrTransform) rtcpIndex(ciphertext []byte) (uint32, bool) {
	word := binary.BigEndian.Uint32(ciphertext[len(ciphertext)-t.tagLen-srtcpIndexLen:])

	return word &^ srtcpEncrypt, word&srtcpEncrypt != 0
}
