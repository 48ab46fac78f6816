// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 3711 Appendix B.3.
var (
	kdfMasterKey  = []byte{0xE1, 0xF9, 0x7A, 0x0D, 0x3E, 0x01, 0x8B, 0xE0, 0xD6, 0x4F, 0xA3, 0x2C, 0x06, 0xDE, 0x41, 0x39}
	kdfMasterSalt = []byte{0x0E, 0xC6, 0x75, 0xAD, 0x49, 0x8A, 0xFE, 0xEB, 0xB6, 0x96, 0x0B, 0x3A, 0xAB, 0xE6}

	kdfSessionKey     = []byte{0xC6, 0x1E, 0x7A, 0x93, 0x74, 0x4F, 0x39, 0xEE, 0x10, 0x73, 0x4A, 0xFE, 0x3F, 0xF7, 0xA0, 0x87}
	kdfSessionSalt    = []byte{0x30, 0xCB, 0xBC, 0x08, 0x86, 0x3D, 0x8C, 0x85, 0xD4, 0x9D, 0xB3, 0x4A, 0x9A, 0xE1}
	kdfSessionAuthKey = []byte{0xCE, 0xBE, 0x32, 0x1F, 0x6F, 0xF7, 0x71, 0x6B, 0x6F, 0xD4, 0xAB, 0x49, 0xAF, 0x25, 0x6A, 0x15, 0x6D, 0x38, 0xBA, 0xA4}
)

func TestValidSessionKeys(t *testing.T) {
	sessionKey, err := aesCmKeyDerivation(labelSRTPEncryption, kdfMasterKey, kdfMasterSalt, len(kdfMasterKey))
	require.NoError(t, err)
	assert.Equal(t, kdfSessionKey, sessionKey, "session key")

	sessionSalt, err := aesCmKeyDerivation(labelSRTPSalt, kdfMasterKey, kdfMasterSalt, len(kdfMasterSalt))
	require.NoError(t, err)
	assert.Equal(t, kdfSessionSalt, sessionSalt, "session salt")

	sessionAuthKey, err := aesCmKeyDerivation(labelSRTPAuthenticationTag, kdfMasterKey, kdfMasterSalt, hmacKeyLen)
	require.NoError(t, err)
	assert.Equal(t, kdfSessionAuthKey, sessionAuthKey, "session auth key")
}

func TestDeriveSessionKeys(t *testing.T) {
	keys, err := deriveSessionKeys(PolicyAESCM128HMACSHA1_80(), srtpLabels, kdfMasterKey, kdfMasterSalt)
	require.NoError(t, err)
	assert.Equal(t, kdfSessionKey, keys.cipherKey)
	assert.Equal(t, kdfSessionAuthKey, keys.authKey)
	assert.Equal(t, kdfSessionSalt, keys.salt)

	rtcpKeys, err := deriveSessionKeys(PolicyAESCM128HMACSHA1_80(), srtcpLabels, kdfMasterKey, kdfMasterSalt)
	require.NoError(t, err)
	assert.NotEqual(t, keys.cipherKey, rtcpKeys.cipherKey)
	assert.NotEqual(t, keys.authKey, rtcpKeys.authKey)
	assert.NotEqual(t, keys.salt, rtcpKeys.salt)

	t.Run("NullCipher", func(t *testing.T) {
		keys, err := deriveSessionKeys(PolicyNullCipherHMACSHA1_80(), srtpLabels, kdfMasterKey, kdfMasterSalt)
		require.NoError(t, err)
		assert.Nil(t, keys.cipherKey)
		assert.Equal(t, kdfSessionAuthKey, keys.authKey)
	})

	t.Run("AESGCM", func(t *testing.T) {
		keys, err := deriveSessionKeys(PolicyAESGCM128_16Auth(), srtpLabels, kdfMasterKey, kdfMasterSalt[:aesGCMSaltLen])
		require.NoError(t, err)
		assert.Len(t, keys.cipherKey, 16)
		assert.Nil(t, keys.authKey)
		assert.Len(t, keys.salt, aesGCMSaltLen)
	})
}

func TestKeyDerivationRejectsLongSalt(t *testing.T) {
	_, err := aesCmKeyDerivation(labelSRTPEncryption, kdfMasterKey, make([]byte, 15), 16)
	assert.ErrorIs(t, err, StatusBadParam)
	assert.ErrorIs(t, err, errBadSaltLength)

	_, err = aesCmKeyDerivation(labelSRTPEncryption, make([]byte, 7), kdfMasterSalt, 16)
	assert.ErrorIs(t, err, StatusCipherFail)
}

func TestSessionKeysWipe(t *testing.T) {
	keys, err := deriveSessionKeys(PolicyAESCM128HMACSHA1_80(), srtpLabels, kdfMasterKey, kdfMasterSalt)
	require.NoError(t, err)

	keys.wipe()
	assert.Equal(t, make([]byte, 16), keys.cipherKey)
	assert.Equal(t, make([]byte, hmacKeyLen), keys.authKey)
	assert.Equal(t, make([]byte, aesCMSaltLen), keys.salt)
}
