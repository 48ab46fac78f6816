// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"bytes"
	"crypto/aes"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"fmt"

	"github.com/pion/go-srtp/internal/aesctr"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}

	return b
}

type selfTest struct {
	name string
	run  func() error
}

var selfTests = []selfTest{
	{"AES-CM keystream RFC 3711 B.2", selfTestKeystream},
	{"AES-CM key derivation RFC 3711 B.3", selfTestKeyDerivation},
	{"HMAC-SHA1 RFC 2202", selfTestHMAC},
	{"AES-GCM RFC 7714 section 16", selfTestGCM},
}

func runSelfTests() error {
	for _, t := range selfTests {
		if err := t.run(); err != nil {
			return fmt.Errorf("%w: %s: %w", errSelfTest, t.name, err)
		}
	}

	return nil
}

func expectEqual(got, want []byte) error {
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: got %x, want %x", StatusAlgoFail, got, want)
	}

	return nil
}

func selfTestKeystream() error {
	block, err := aes.NewCipher(mustHex("2b7e151628aed2a6abf7158809cf4f3c"))
	if err != nil {
		return err
	}

	got := make([]byte, 48)
	if err := aesctr.KeyStream(block, mustHex("f0f1f2f3f4f5f6f7f8f9fafbfcfd0000"), got); err != nil {
		return err
	}

	return expectEqual(got, mustHex("e03ead0935c95e80e166b16dd92b4eb4"+
		"d23513162b02d0f72a43a2fe4a5f97ab"+
		"41e95b3bb0a2e8dd477901e4fca894c0"))
}

func selfTestKeyDerivation() error {
	masterKey := mustHex("e1f97a0d3e018be0d64fa32c06de4139")
	masterSalt := mustHex("0ec675ad498afeebb6960b3aabe6")

	keys, err := deriveSessionKeys(PolicyAESCM128HMACSHA1_80(), srtpLabels, masterKey, masterSalt)
	if err != nil {
		return err
	}
	if err := expectEqual(keys.cipherKey, mustHex("c61e7a93744f39ee10734afe3ff7a087")); err != nil {
		return err
	}
	if err := expectEqual(keys.salt, mustHex("30cbbc08863d8c85d49db34a9ae1")); err != nil {
		return err
	}

	return expectEqual(keys.authKey, mustHex("cebe321f6ff7716b6fd4ab49af256a156d38baa4"))
}

func selfTestHMAC() error {
	mac := hmac.New(sha1.New, bytes.Repeat([]byte{0x0b}, 20))
	_, _ = mac.Write([]byte("Hi There"))

	return expectEqual(mac.Sum(nil), mustHex("b617318655057264e28bc0b6fb378c8ef146be00"))
}

func selfTestGCM() error {
	policy := PolicyAESGCM128_16Auth()
	t, err := newAEADTransform(policy, sessionKeys{
		cipherKey: mustHex("000102030405060708090a0b0c0d0e0f"),
		salt:      mustHex("517569642070726f2071756f"),
	})
	if err != nil {
		return err
	}

	plaintext := mustHex("8040f17b8041f8d35501a0b2" +
		"47616c6c696120657374206f6d6e6973" +
		"2064697669736120696e207061727465" +
		"732074726573")
	want := mustHex("8040f17b8041f8d35501a0b2" +
		"f24de3a3fb34de6cacba861c9d7e4bca" +
		"be633bd50d294e6f42a5f47a51c7d19b" +
		"36de3adf8833899d7f27beb16a9152cf" +
		"765ee4390cce")

	got, err := t.encryptRTP(nil, plaintext, rtpFixedHeaderLen, 0x5501a0b2, 0xf17b)
	if err != nil {
		return err
	}
	if err := expectEqual(got, want); err != nil {
		return err
	}

	opened, err := t.decryptRTP(nil, got, rtpFixedHeaderLen, 0x5501a0b2, 0xf17b)
	if err != nil {
		return err
	}

	return expectEqual(opened, plaintext)
}
