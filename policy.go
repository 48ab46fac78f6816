// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"fmt"
	"strings"
)

// CipherType selects the payload cipher of a CryptoPolicy.
type CipherType int

// Supported ciphers.
const (
	CipherNull CipherType = iota
	CipherAESCM
	CipherAESGCM
)

func (c CipherType) String() string {
	switch c {
	case CipherNull:
		return "NULL"
	case CipherAESCM:
		return "AES_CM"
	case CipherAESGCM:
		return "AES_GCM"
	default:
		return fmt.Sprintf("CipherType(%d)", int(c))
	}
}

// AuthType selects the message authentication function of a CryptoPolicy.
// AEAD ciphers authenticate on their own and use AuthNull.
type AuthType int

// Supported authentication functions.
const (
	AuthNull AuthType = iota
	AuthHMACSHA1
)

func (a AuthType) String() string {
	switch a {
	case AuthNull:
		return "NULL"
	case AuthHMACSHA1:
		return "HMAC_SHA1"
	default:
		return fmt.Sprintf("AuthType(%d)", int(a))
	}
}

// SecurityServices is the set of protections a policy applies.
type SecurityServices int

// Security service flags.
const (
	ServicesNone           SecurityServices = 0
	ServiceConfidentiality SecurityServices = 1 << 0
	ServiceAuthentication  SecurityServices = 1 << 1
	ServicesConfAndAuth                     = ServiceConfidentiality | ServiceAuthentication
)

// Confidentiality reports whether payloads are encrypted.
func (s SecurityServices) Confidentiality() bool {
	return s&ServiceConfidentiality != 0
}

// Authentication reports whether packets carry an authentication tag.
func (s SecurityServices) Authentication() bool {
	return s&ServiceAuthentication != 0
}

// CryptoPolicy describes how one of the RTP or RTCP halves of a stream is
// protected. All lengths are in bytes.
type CryptoPolicy struct {
	Name string

	Cipher       CipherType
	CipherKeyLen int
	SaltLen      int

	Auth       AuthType
	AuthKeyLen int
	AuthTagLen int

	Services SecurityServices
}

const (
	aesCMSaltLen  = 14
	aesGCMSaltLen = 12
	hmacKeyLen    = 20
	srtcpIndexLen = 4
)

func aesCMPolicy(name string, keyLen, tagLen int, services SecurityServices) CryptoPolicy {
	p := CryptoPolicy{
		Name:         name,
		Cipher:       CipherAESCM,
		CipherKeyLen: keyLen,
		SaltLen:      aesCMSaltLen,
		Services:     services,
	}
	if services.Authentication() {
		p.Auth = AuthHMACSHA1
		p.AuthKeyLen = hmacKeyLen
		p.AuthTagLen = tagLen
	}

	return p
}

func aesGCMPolicy(name string, keyLen, tagLen int, services SecurityServices) CryptoPolicy {
	return CryptoPolicy{
		Name:         name,
		Cipher:       CipherAESGCM,
		CipherKeyLen: keyLen,
		SaltLen:      aesGCMSaltLen,
		Auth:         AuthNull,
		AuthTagLen:   tagLen,
		Services:     services,
	}
}

func nullCipherPolicy(name string, tagLen int) CryptoPolicy {
	p := CryptoPolicy{
		Name:   name,
		Cipher: CipherNull,
		// The key derivation still runs AES-128 over the master key.
		CipherKeyLen: 16,
		SaltLen:      aesCMSaltLen,
	}
	if tagLen > 0 {
		p.Auth = AuthHMACSHA1
		p.AuthKeyLen = hmacKeyLen
		p.AuthTagLen = tagLen
		p.Services = ServiceAuthentication
	}

	return p
}

// PolicyAESCM128HMACSHA1_80 is AES-128 counter mode with an 80 bit HMAC-SHA1 tag.
func PolicyAESCM128HMACSHA1_80() CryptoPolicy { //nolint:revive
	return aesCMPolicy("AES_CM_128_HMAC_SHA1_80", 16, 10, ServicesConfAndAuth)
}

// PolicyAESCM128HMACSHA1_32 is AES-128 counter mode with a 32 bit HMAC-SHA1 tag.
// RFC 5764 keeps SRTCP at 80 bits for this profile, pair it with
// PolicyAESCM128HMACSHA1_80 on the RTCP side.
func PolicyAESCM128HMACSHA1_32() CryptoPolicy { //nolint:revive
	return aesCMPolicy("AES_CM_128_HMAC_SHA1_32", 16, 4, ServicesConfAndAuth)
}

// PolicyAESCM128NullAuth encrypts with AES-128 counter mode without authentication.
func PolicyAESCM128NullAuth() CryptoPolicy {
	return aesCMPolicy("AES_CM_128_NULL_AUTH", 16, 0, ServiceConfidentiality)
}

// PolicyAESCM192HMACSHA1_80 is AES-192 counter mode with an 80 bit HMAC-SHA1 tag.
func PolicyAESCM192HMACSHA1_80() CryptoPolicy { //nolint:revive
	return aesCMPolicy("AES_192_CM_HMAC_SHA1_80", 24, 10, ServicesConfAndAuth)
}

// PolicyAESCM192HMACSHA1_32 is AES-192 counter mode with a 32 bit HMAC-SHA1 tag.
func PolicyAESCM192HMACSHA1_32() CryptoPolicy { //nolint:revive
	return aesCMPolicy("AES_192_CM_HMAC_SHA1_32", 24, 4, ServicesConfAndAuth)
}

// PolicyAESCM192NullAuth encrypts with AES-192 counter mode without authentication.
func PolicyAESCM192NullAuth() CryptoPolicy {
	return aesCMPolicy("AES_192_CM_NULL_AUTH", 24, 0, ServiceConfidentiality)
}

// PolicyAESCM256HMACSHA1_80 is AES-256 counter mode with an 80 bit HMAC-SHA1 tag.
func PolicyAESCM256HMACSHA1_80() CryptoPolicy { //nolint:revive
	return aesCMPolicy("AES_256_CM_HMAC_SHA1_80", 32, 10, ServicesConfAndAuth)
}

// PolicyAESCM256HMACSHA1_32 is AES-256 counter mode with a 32 bit HMAC-SHA1 tag.
func PolicyAESCM256HMACSHA1_32() CryptoPolicy { //nolint:revive
	return aesCMPolicy("AES_256_CM_HMAC_SHA1_32", 32, 4, ServicesConfAndAuth)
}

// PolicyAESCM256NullAuth encrypts with AES-256 counter mode without authentication.
func PolicyAESCM256NullAuth() CryptoPolicy {
	return aesCMPolicy("AES_256_CM_NULL_AUTH", 32, 0, ServiceConfidentiality)
}

// PolicyNullCipherHMACSHA1_80 authenticates with an 80 bit HMAC-SHA1 tag and
// leaves payloads in the clear.
func PolicyNullCipherHMACSHA1_80() CryptoPolicy { //nolint:revive
	return nullCipherPolicy("NULL_HMAC_SHA1_80", 10)
}

// PolicyNullCipherHMACSHA1_32 authenticates with a 32 bit HMAC-SHA1 tag and
// leaves payloads in the clear.
func PolicyNullCipherHMACSHA1_32() CryptoPolicy { //nolint:revive
	return nullCipherPolicy("NULL_HMAC_SHA1_32", 4)
}

// PolicyNullCipherHMACNull applies no protection at all. Protected RTP
// packets are byte identical to their input.
func PolicyNullCipherHMACNull() CryptoPolicy {
	return nullCipherPolicy("NULL_NULL", 0)
}

// PolicyAESGCM128_16Auth is AES-128 GCM with a 16 byte tag.
func PolicyAESGCM128_16Auth() CryptoPolicy { //nolint:revive
	return aesGCMPolicy("AEAD_AES_128_GCM", 16, 16, ServicesConfAndAuth)
}

// PolicyAESGCM128_8Auth is AES-128 GCM with the tag truncated to 8 bytes.
func PolicyAESGCM128_8Auth() CryptoPolicy { //nolint:revive
	return aesGCMPolicy("AEAD_AES_128_GCM_8", 16, 8, ServicesConfAndAuth)
}

// PolicyAESGCM256_16Auth is AES-256 GCM with a 16 byte tag.
func PolicyAESGCM256_16Auth() CryptoPolicy { //nolint:revive
	return aesGCMPolicy("AEAD_AES_256_GCM", 32, 16, ServicesConfAndAuth)
}

// PolicyAESGCM256_8Auth is AES-256 GCM with the tag truncated to 8 bytes.
func PolicyAESGCM256_8Auth() CryptoPolicy { //nolint:revive
	return aesGCMPolicy("AEAD_AES_256_GCM_8", 32, 8, ServicesConfAndAuth)
}

// PolicyAESGCM128_8OnlyAuth authenticates with AES-128 GMAC and an 8 byte
// tag, payloads are not encrypted.
func PolicyAESGCM128_8OnlyAuth() CryptoPolicy { //nolint:revive
	return aesGCMPolicy("AEAD_AES_128_GCM_8_AUTH_ONLY", 16, 8, ServiceAuthentication)
}

// PolicyAESGCM256_8OnlyAuth authenticates with AES-256 GMAC and an 8 byte
// tag, payloads are not encrypted.
func PolicyAESGCM256_8OnlyAuth() CryptoPolicy { //nolint:revive
	return aesGCMPolicy("AEAD_AES_256_GCM_8_AUTH_ONLY", 32, 8, ServiceAuthentication)
}

// PolicyRTPDefault is the policy libsrtp applies to RTP when nothing else
// is configured.
func PolicyRTPDefault() CryptoPolicy {
	return PolicyAESCM128HMACSHA1_80()
}

// PolicyRTCPDefault is the policy libsrtp applies to RTCP when nothing else
// is configured.
func PolicyRTCPDefault() CryptoPolicy {
	return PolicyAESCM128HMACSHA1_80()
}

// Policies returns every policy in the catalogue.
func Policies() []CryptoPolicy {
	return []CryptoPolicy{
		PolicyAESCM128HMACSHA1_80(),
		PolicyAESCM128HMACSHA1_32(),
		PolicyAESCM128NullAuth(),
		PolicyAESCM192HMACSHA1_80(),
		PolicyAESCM192HMACSHA1_32(),
		PolicyAESCM192NullAuth(),
		PolicyAESCM256HMACSHA1_80(),
		PolicyAESCM256HMACSHA1_32(),
		PolicyAESCM256NullAuth(),
		PolicyNullCipherHMACSHA1_80(),
		PolicyNullCipherHMACSHA1_32(),
		PolicyNullCipherHMACNull(),
		PolicyAESGCM128_16Auth(),
		PolicyAESGCM128_8Auth(),
		PolicyAESGCM256_16Auth(),
		PolicyAESGCM256_8Auth(),
		PolicyAESGCM128_8OnlyAuth(),
		PolicyAESGCM256_8OnlyAuth(),
	}
}

// PolicyByName looks a catalogue policy up by its name, case insensitive.
func PolicyByName(name string) (CryptoPolicy, error) {
	for _, p := range Policies() {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}

	return CryptoPolicy{}, fmt.Errorf("%w: %w %q", StatusBadParam, errNoSuchPolicy, name)
}

// MasterKeyLen is the length of the master key and master salt concatenated.
func (p CryptoPolicy) MasterKeyLen() int {
	return p.CipherKeyLen + p.SaltLen
}

// RTPOverhead is the number of bytes protection adds to an RTP packet.
func (p CryptoPolicy) RTPOverhead() int {
	return p.AuthTagLen
}

// RTCPOverhead is the number of bytes protection adds to an RTCP packet.
func (p CryptoPolicy) RTCPOverhead() int {
	return p.AuthTagLen + srtcpIndexLen
}

func (p CryptoPolicy) confidentiality() bool {
	return p.Cipher != CipherNull && p.Services.Confidentiality()
}

func (p CryptoPolicy) authentication() bool {
	return p.Services.Authentication() && (p.Auth != AuthNull || p.Cipher == CipherAESGCM)
}

// Validate reports whether the policy describes a combination this package
// can run. Errors wrap StatusBadParam.
func (p CryptoPolicy) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %w: %s", StatusBadParam, errInvalidPolicy, fmt.Sprintf(format, args...))
	}

	switch p.Cipher {
	case CipherNull:
		if p.CipherKeyLen != 16 || p.SaltLen != aesCMSaltLen {
			return invalid("null cipher derives keys with a 16 byte key and 14 byte salt")
		}
		if p.Services.Confidentiality() {
			return invalid("null cipher cannot provide confidentiality")
		}
	case CipherAESCM:
		if p.CipherKeyLen != 16 && p.CipherKeyLen != 24 && p.CipherKeyLen != 32 {
			return invalid("AES-CM key length %d", p.CipherKeyLen)
		}
		if p.SaltLen != aesCMSaltLen {
			return invalid("AES-CM salt length %d", p.SaltLen)
		}
	case CipherAESGCM:
		if p.CipherKeyLen != 16 && p.CipherKeyLen != 32 {
			return invalid("AES-GCM key length %d", p.CipherKeyLen)
		}
		if p.SaltLen != aesGCMSaltLen {
			return invalid("AES-GCM salt length %d", p.SaltLen)
		}
		if p.Auth != AuthNull {
			return invalid("AES-GCM does not take a separate authentication function")
		}
		if !p.Services.Authentication() {
			return invalid("AES-GCM always authenticates")
		}
		if p.AuthTagLen < 8 || p.AuthTagLen > 16 {
			return invalid("AES-GCM tag length %d", p.AuthTagLen)
		}
		return nil
	default:
		return invalid("unknown cipher %v", p.Cipher)
	}

	switch p.Auth {
	case AuthNull:
		if p.Services.Authentication() {
			return invalid("authentication requested without an authentication function")
		}
		if p.AuthTagLen != 0 {
			return invalid("tag length %d without an authentication function", p.AuthTagLen)
		}
	case AuthHMACSHA1:
		if p.AuthKeyLen < 1 || p.AuthKeyLen > hmacKeyLen {
			return invalid("HMAC-SHA1 key length %d", p.AuthKeyLen)
		}
		if p.AuthTagLen < 1 || p.AuthTagLen > hmacKeyLen {
			return invalid("HMAC-SHA1 tag length %d", p.AuthTagLen)
		}
		if !p.Services.Authentication() {
			return invalid("HMAC-SHA1 configured without the authentication service")
		}
	default:
		return invalid("unknown authentication %v", p.Auth)
	}

	return nil
}
