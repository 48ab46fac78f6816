// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoliciesAreValid(t *testing.T) {
	names := map[string]bool{}

	for _, p := range Policies() {
		assert.NoErrorf(t, p.Validate(), "policy %s", p.Name)
		assert.Falsef(t, names[p.Name], "duplicate policy name %s", p.Name)
		names[p.Name] = true

		byName, err := PolicyByName(p.Name)
		require.NoError(t, err)
		assert.Equal(t, p, byName)
	}
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("aes_cm_128_hmac_sha1_32")
	require.NoError(t, err)
	assert.Equal(t, PolicyAESCM128HMACSHA1_32(), p)

	_, err = PolicyByName("AES_CM_512")
	assert.ErrorIs(t, err, StatusBadParam)
	assert.ErrorIs(t, err, errNoSuchPolicy)
}

func TestPolicyLengths(t *testing.T) {
	for _, tc := range []struct {
		policy       CryptoPolicy
		masterKeyLen int
		rtpOverhead  int
		rtcpOverhead int
	}{
		{PolicyAESCM128HMACSHA1_80(), 30, 10, 14},
		{PolicyAESCM128HMACSHA1_32(), 30, 4, 8},
		{PolicyAESCM192HMACSHA1_80(), 38, 10, 14},
		{PolicyAESCM256HMACSHA1_32(), 46, 4, 8},
		{PolicyAESCM256NullAuth(), 46, 0, 4},
		{PolicyNullCipherHMACNull(), 30, 0, 4},
		{PolicyAESGCM128_16Auth(), 28, 16, 20},
		{PolicyAESGCM256_8Auth(), 44, 8, 12},
		{PolicyAESGCM128_8OnlyAuth(), 28, 8, 12},
	} {
		assert.Equalf(t, tc.masterKeyLen, tc.policy.MasterKeyLen(), "%s master key", tc.policy.Name)
		assert.Equalf(t, tc.rtpOverhead, tc.policy.RTPOverhead(), "%s rtp overhead", tc.policy.Name)
		assert.Equalf(t, tc.rtcpOverhead, tc.policy.RTCPOverhead(), "%s rtcp overhead", tc.policy.Name)
	}
}

func TestPolicyServices(t *testing.T) {
	assert.True(t, PolicyAESCM128HMACSHA1_80().confidentiality())
	assert.True(t, PolicyAESCM128HMACSHA1_80().authentication())

	assert.True(t, PolicyAESCM128NullAuth().confidentiality())
	assert.False(t, PolicyAESCM128NullAuth().authentication())

	assert.False(t, PolicyNullCipherHMACSHA1_80().confidentiality())
	assert.True(t, PolicyNullCipherHMACSHA1_80().authentication())

	assert.False(t, PolicyAESGCM256_8OnlyAuth().confidentiality())
	assert.True(t, PolicyAESGCM256_8OnlyAuth().authentication())

	assert.False(t, PolicyNullCipherHMACNull().confidentiality())
	assert.False(t, PolicyNullCipherHMACNull().authentication())
}

func TestPolicyValidate(t *testing.T) {
	for name, mutate := range map[string]func(*CryptoPolicy){
		"AESCMKeyLength":      func(p *CryptoPolicy) { p.CipherKeyLen = 20 },
		"AESCMSaltLength":     func(p *CryptoPolicy) { p.SaltLen = 12 },
		"UnknownCipher":       func(p *CryptoPolicy) { p.Cipher = CipherType(9) },
		"UnknownAuth":         func(p *CryptoPolicy) { p.Auth = AuthType(9) },
		"HMACKeyLength":       func(p *CryptoPolicy) { p.AuthKeyLen = 21 },
		"HMACTagTooLong":      func(p *CryptoPolicy) { p.AuthTagLen = 21 },
		"HMACWithoutService":  func(p *CryptoPolicy) { p.Services = ServiceConfidentiality },
		"ServiceWithoutHMAC":  func(p *CryptoPolicy) { p.Auth, p.AuthKeyLen, p.AuthTagLen = AuthNull, 0, 0 },
		"TagWithoutHMAC":      func(p *CryptoPolicy) { p.Auth, p.Services = AuthNull, ServiceConfidentiality },
		"NullCipherEncrypts":  func(p *CryptoPolicy) { p.Cipher = CipherNull },
		"NullCipherKeyLength": func(p *CryptoPolicy) { p.Cipher, p.Services, p.CipherKeyLen = CipherNull, ServiceAuthentication, 32 },
	} {
		t.Run(name, func(t *testing.T) {
			p := PolicyAESCM128HMACSHA1_80()
			mutate(&p)
			err := p.Validate()
			assert.ErrorIs(t, err, StatusBadParam)
			assert.ErrorIs(t, err, errInvalidPolicy)
		})
	}

	for name, mutate := range map[string]func(*CryptoPolicy){
		"GCMKeyLength":   func(p *CryptoPolicy) { p.CipherKeyLen = 24 },
		"GCMSaltLength":  func(p *CryptoPolicy) { p.SaltLen = aesCMSaltLen },
		"GCMWithHMAC":    func(p *CryptoPolicy) { p.Auth = AuthHMACSHA1 },
		"GCMWithoutAuth": func(p *CryptoPolicy) { p.Services = ServiceConfidentiality },
		"GCMShortTag":    func(p *CryptoPolicy) { p.AuthTagLen = 4 },
		"GCMTagTooLong":  func(p *CryptoPolicy) { p.AuthTagLen = 17 },
	} {
		t.Run(name, func(t *testing.T) {
			p := PolicyAESGCM128_16Auth()
			mutate(&p)
			assert.ErrorIs(t, p.Validate(), errInvalidPolicy)
		})
	}
}

func TestPolicyStringers(t *testing.T) {
	assert.Equal(t, "AES_GCM", CipherAESGCM.String())
	assert.Equal(t, "CipherType(7)", CipherType(7).String())
	assert.Equal(t, "HMAC_SHA1", AuthHMACSHA1.String())
	assert.Equal(t, "AuthType(7)", AuthType(7).String())
	assert.True(t, ServicesConfAndAuth.Confidentiality())
	assert.True(t, ServicesConfAndAuth.Authentication())
	assert.False(t, ServicesNone.Authentication())
}
