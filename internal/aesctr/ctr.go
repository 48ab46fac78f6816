// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aesctr implements the AES counter mode keystream used by the
// SRTP AES-CM cipher and key derivation function. The counter block is
// treated as a single 128 bit big endian integer, see NIST SP 800-38A.
package aesctr

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// Must be multiple of aes.BlockSize
const streamBufferSize = 32 * aes.BlockSize

var (
	errBadIVLength    = errors.New("aesctr: iv length must equal the AES block size")
	errShortOutput    = errors.New("aesctr: output smaller than input")
	errInvalidOverlap = errors.New("aesctr: invalid buffer overlap")
)

// Stream is a CTR keystream bound to one block cipher. It is rewound with
// Reset for every packet so a single Stream serves a whole SRTP stream.
type Stream struct {
	block   cipher.Block
	ctr     [aes.BlockSize]byte
	out     [streamBufferSize]byte
	outUsed int
}

// New returns a Stream positioned at iv. The length of iv must equal
// aes.BlockSize.
func New(block cipher.Block, iv []byte) (*Stream, error) {
	s := &Stream{block: block}
	if err := s.Reset(iv); err != nil {
		return nil, err
	}

	return s, nil
}

// Reset rewinds the keystream to the counter block iv.
func (s *Stream) Reset(iv []byte) error {
	if len(iv) != aes.BlockSize {
		return errBadIVLength
	}

	copy(s.ctr[:], iv)
	s.outUsed = len(s.out)

	return nil
}

// XORKeyStream XORs src with the keystream into dst. Dst and src must
// overlap entirely or not at all. Consecutive calls continue the keystream
// where the previous call stopped.
func (s *Stream) XORKeyStream(dst, src []byte) error {
	if len(dst) < len(src) {
		return errShortOutput
	}
	if inexactOverlap(dst[:len(src)], src) {
		return errInvalidOverlap
	}

	for len(src) > 0 {
		if s.outUsed == len(s.out) {
			s.refill()
		}

		n := xorBytes(dst, src, s.out[s.outUsed:])
		dst = dst[n:]
		src = src[n:]
		s.outUsed += n
	}

	return nil
}

// refill encrypts the next run of counter blocks into the output buffer.
func (s *Stream) refill() {
	for i := 0; i < len(s.out); i += aes.BlockSize {
		s.block.Encrypt(s.out[i:], s.ctr[:])

		for j := len(s.ctr) - 1; j >= 0; j-- {
			s.ctr[j]++
			if s.ctr[j] != 0 {
				break
			}
		}
	}
	s.outUsed = 0
}

// KeyStream writes len(dst) bytes of raw keystream starting at iv.
func KeyStream(block cipher.Block, iv, dst []byte) error {
	s, err := New(block, iv)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = 0
	}

	return s.XORKeyStream(dst, dst)
}
