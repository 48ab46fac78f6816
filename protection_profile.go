// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"fmt"

	"github.com/pion/dtls/v2"
)

// ProtectionProfile is a DTLS-SRTP protection profile as registered by
// IANA, RFC 5764 section 4.1.2 and RFC 7714 section 14.2.
type ProtectionProfile uint16

// Supported protection profiles.
const (
	ProtectionProfileAes128CmHmacSha1_80 ProtectionProfile = 0x0001
	ProtectionProfileAes128CmHmacSha1_32 ProtectionProfile = 0x0002
	ProtectionProfileNullHmacSha1_80     ProtectionProfile = 0x0005
	ProtectionProfileNullHmacSha1_32     ProtectionProfile = 0x0006
	ProtectionProfileAeadAes128Gcm       ProtectionProfile = 0x0007
	ProtectionProfileAeadAes256Gcm       ProtectionProfile = 0x0008
)

// ProtectionProfiles lists the supported profiles in order of preference.
func ProtectionProfiles() []ProtectionProfile {
	return []ProtectionProfile{
		ProtectionProfileAeadAes128Gcm,
		ProtectionProfileAeadAes256Gcm,
		ProtectionProfileAes128CmHmacSha1_80,
		ProtectionProfileAes128CmHmacSha1_32,
		ProtectionProfileNullHmacSha1_80,
		ProtectionProfileNullHmacSha1_32,
	}
}

func (p ProtectionProfile) String() string {
	switch p {
	case ProtectionProfileAes128CmHmacSha1_80:
		return "SRTP_AES128_CM_HMAC_SHA1_80"
	case ProtectionProfileAes128CmHmacSha1_32:
		return "SRTP_AES128_CM_HMAC_SHA1_32"
	case ProtectionProfileNullHmacSha1_80:
		return "SRTP_NULL_HMAC_SHA1_80"
	case ProtectionProfileNullHmacSha1_32:
		return "SRTP_NULL_HMAC_SHA1_32"
	case ProtectionProfileAeadAes128Gcm:
		return "SRTP_AEAD_AES_128_GCM"
	case ProtectionProfileAeadAes256Gcm:
		return "SRTP_AEAD_AES_256_GCM"
	default:
		return fmt.Sprintf("ProtectionProfile(%#04x)", uint16(p))
	}
}

// Policies returns the RTP and RTCP policies of the profile. The 32 bit
// HMAC profiles keep the 80 bit tag for SRTCP as RFC 5764 requires.
func (p ProtectionProfile) Policies() (rtp, rtcp CryptoPolicy, err error) {
	switch p {
	case ProtectionProfileAes128CmHmacSha1_80:
		return PolicyAESCM128HMACSHA1_80(), PolicyAESCM128HMACSHA1_80(), nil
	case ProtectionProfileAes128CmHmacSha1_32:
		return PolicyAESCM128HMACSHA1_32(), PolicyAESCM128HMACSHA1_80(), nil
	case ProtectionProfileNullHmacSha1_80:
		return PolicyNullCipherHMACSHA1_80(), PolicyNullCipherHMACSHA1_80(), nil
	case ProtectionProfileNullHmacSha1_32:
		return PolicyNullCipherHMACSHA1_32(), PolicyNullCipherHMACSHA1_80(), nil
	case ProtectionProfileAeadAes128Gcm:
		return PolicyAESGCM128_16Auth(), PolicyAESGCM128_16Auth(), nil
	case ProtectionProfileAeadAes256Gcm:
		return PolicyAESGCM256_16Auth(), PolicyAESGCM256_16Auth(), nil
	default:
		return CryptoPolicy{}, CryptoPolicy{}, fmt.Errorf("%w: %w %#v", StatusBadParam, errNoSuchSRTPProfile, p)
	}
}

// DTLSProfile converts p to the profile type negotiated by pion/dtls.
func (p ProtectionProfile) DTLSProfile() dtls.SRTPProtectionProfile {
	return dtls.SRTPProtectionProfile(p)
}

// ProfileFromDTLS converts the profile negotiated by a DTLS handshake.
func ProfileFromDTLS(profile dtls.SRTPProtectionProfile) (ProtectionProfile, error) {
	p := ProtectionProfile(profile)
	if _, _, err := p.Policies(); err != nil {
		return 0, err
	}

	return p, nil
}

// PolicyFromDTLSProfile returns the RTP and RTCP policies of the profile
// negotiated by a DTLS handshake.
func PolicyFromDTLSProfile(profile dtls.SRTPProtectionProfile) (rtp, rtcp CryptoPolicy, err error) {
	return ProtectionProfile(profile).Policies()
}

// DTLSProfiles lists ProtectionProfiles in the form dtls.Config expects.
func DTLSProfiles() []dtls.SRTPProtectionProfile {
	profiles := ProtectionProfiles()
	out := make([]dtls.SRTPProtectionProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.DTLSProfile())
	}

	return out
}
