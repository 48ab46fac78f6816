// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"fmt"
)

const (
	labelExtractorDtlsSrtp   = "EXTRACTOR-dtls_srtp"
	labelExtractorSharedSrtp = "EXTRACTOR-shared_srtp"
)

// KeyingMaterialExporter allows package SRTP to extract keying material.
// The connection state of a *dtls.Conn satisfies it.
type KeyingMaterialExporter interface {
	ExportKeyingMaterial(label string, context []byte, length int) ([]byte, error)
}

// MasterKeys are the master key and salt pairs of both directions of a
// session, each as key followed by salt.
type MasterKeys struct {
	Local  []byte
	Remote []byte
}

// ExtractMasterKeys derives the master keys of both directions from a DTLS
// handshake, RFC 5764 section 4.2. The exported block is laid out as
// client key, server key, client salt, server salt.
func ExtractMasterKeys(exporter KeyingMaterialExporter, policy CryptoPolicy, isClient bool) (MasterKeys, error) {
	if err := policy.Validate(); err != nil {
		return MasterKeys{}, err
	}

	keyLen, saltLen := policy.CipherKeyLen, policy.SaltLen
	material, err := exporter.ExportKeyingMaterial(labelExtractorDtlsSrtp, nil, (keyLen*2)+(saltLen*2))
	if err != nil {
		return MasterKeys{}, fmt.Errorf("%w: %w", StatusFail, err)
	}
	defer wipe(material)

	offset := 0
	clientWriteKey := append([]byte{}, material[offset:offset+keyLen]...)
	offset += keyLen

	serverWriteKey := append([]byte{}, material[offset:offset+keyLen]...)
	offset += keyLen

	clientWriteKey = append(clientWriteKey, material[offset:offset+saltLen]...)
	offset += saltLen

	serverWriteKey = append(serverWriteKey, material[offset:offset+saltLen]...)

	if isClient {
		return MasterKeys{Local: clientWriteKey, Remote: serverWriteKey}, nil
	}

	return MasterKeys{Local: serverWriteKey, Remote: clientWriteKey}, nil
}

// ExtractSharedMasterKey derives one master key used in both directions.
func ExtractSharedMasterKey(exporter KeyingMaterialExporter, policy CryptoPolicy) ([]byte, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	material, err := exporter.ExportKeyingMaterial(labelExtractorSharedSrtp, nil, policy.MasterKeyLen())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", StatusFail, err)
	}

	return material, nil
}

// DTLSStreams builds the wildcard stream pair of a session keyed by a DTLS
// handshake that negotiated profile.
func DTLSStreams(exporter KeyingMaterialExporter, profile ProtectionProfile, isClient bool) ([]StreamConfig, error) {
	rtp, rtcp, err := profile.Policies()
	if err != nil {
		return nil, err
	}

	keys, err := ExtractMasterKeys(exporter, rtp, isClient)
	if err != nil {
		return nil, err
	}

	return []StreamConfig{
		{Direction: DirectionAnyOutbound, RTP: rtp, RTCP: rtcp, MasterKey: keys.Local},
		{Direction: DirectionAnyInbound, RTP: rtp, RTCP: rtcp, MasterKey: keys.Remote},
	}, nil
}
