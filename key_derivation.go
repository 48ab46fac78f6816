// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"crypto/aes"
	"fmt"

	"github.com/pion/go-srtp/internal/aesctr"
)

// Key derivation labels, RFC 3711 section 4.3.2.
const (
	labelSRTPEncryption        = 0x00
	labelSRTPAuthenticationTag = 0x01
	labelSRTPSalt              = 0x02

	labelSRTCPEncryption        = 0x03
	labelSRTCPAuthenticationTag = 0x04
	labelSRTCPSalt              = 0x05
)

// aesCmKeyDerivation implements the AES-CM PRF of RFC 3711 section 4.3.3
// for a key derivation rate of zero. The input block is the master salt
// with the label XORed into byte 7, the trailing two bytes count the
// output blocks.
func aesCmKeyDerivation(label byte, masterKey, masterSalt []byte, outLen int) ([]byte, error) {
	if len(masterSalt) > aes.BlockSize-2 {
		return nil, fmt.Errorf("%w: %w", StatusBadParam, errBadSaltLength)
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", StatusCipherFail, err)
	}

	var iv [aes.BlockSize]byte
	copy(iv[:], masterSalt)
	iv[7] ^= label

	out := make([]byte, outLen)
	if err := aesctr.KeyStream(block, iv[:], out); err != nil {
		return nil, fmt.Errorf("%w: %w", StatusCipherFail, err)
	}

	return out, nil
}

// sessionKeys are the per direction keys derived from one master key.
type sessionKeys struct {
	cipherKey []byte
	authKey   []byte
	salt      []byte
}

type keyLabels struct {
	cipher, auth, salt byte
}

var (
	srtpLabels  = keyLabels{labelSRTPEncryption, labelSRTPAuthenticationTag, labelSRTPSalt}
	srtcpLabels = keyLabels{labelSRTCPEncryption, labelSRTCPAuthenticationTag, labelSRTCPSalt}
)

// deriveSessionKeys runs the key derivation for one policy. masterKey is
// the raw key without the salt.
func deriveSessionKeys(policy CryptoPolicy, labels keyLabels, masterKey, masterSalt []byte) (keys sessionKeys, err error) {
	if policy.Cipher != CipherNull {
		if keys.cipherKey, err = aesCmKeyDerivation(labels.cipher, masterKey, masterSalt, policy.CipherKeyLen); err != nil {
			return sessionKeys{}, err
		}
	}
	if policy.AuthKeyLen > 0 {
		if keys.authKey, err = aesCmKeyDerivation(labels.auth, masterKey, masterSalt, policy.AuthKeyLen); err != nil {
			return sessionKeys{}, err
		}
	}
	if keys.salt, err = aesCmKeyDerivation(labels.salt, masterKey, masterSalt, policy.SaltLen); err != nil {
		return sessionKeys{}, err
	}

	return keys, nil
}

// wipe overwrites key material that is no longer needed.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// clone copies k so that wiping one copy leaves the other intact.
func (k sessionKeys) clone() sessionKeys {
	return sessionKeys{
		cipherKey: append([]byte(nil), k.cipherKey...),
		authKey:   append([]byte(nil), k.authKey...),
		salt:      append([]byte(nil), k.salt...),
	}
}

func (k *sessionKeys) wipe() {
	wipe(k.cipherKey)
	wipe(k.authKey)
	wipe(k.salt)
}
