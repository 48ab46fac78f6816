// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roundTripSSRC = 0xCAFEBABE

func roundTripPacket(t *testing.T, seq uint16) []byte {
	t.Helper()

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    96,
			SequenceNumber: seq,
			Timestamp:      0xDECAFBAD + uint32(seq/10)*3000,
			SSRC:           roundTripSSRC,
		},
		Payload: bytes.Repeat([]byte{0xAB}, 1000),
	}
	raw, err := pkt.Marshal()
	require.NoError(t, err)

	return raw
}

func TestRoundTripAllPolicies(t *testing.T) {
	for _, policy := range Policies() {
		t.Run(policy.Name, func(t *testing.T) {
			pair := newSessionPair(t, roundTripSSRC, StreamConfig{
				RTP:       policy,
				MasterKey: testMasterKey(policy.MasterKeyLen()),
			})

			for seq := uint16(0x1234); seq < 0x1434; seq++ {
				plain := roundTripPacket(t, seq)

				protected, err := pair.sender.ProtectRTP(nil, plain)
				require.NoError(t, err)
				require.Len(t, protected, len(plain)+policy.RTPOverhead())

				if policy.Name == PolicyNullCipherHMACNull().Name {
					assert.Equal(t, plain, protected)
				} else {
					assert.NotEqual(t, plain, protected)
				}
				assert.Equal(t, plain[:rtpFixedHeaderLen], protected[:rtpFixedHeaderLen])
				if !policy.confidentiality() {
					assert.Equal(t, plain, protected[:len(plain)])
				}

				decrypted, err := pair.receiver.UnprotectRTP(nil, protected)
				require.NoError(t, err)
				require.Equal(t, plain, decrypted)
			}

			stats, err := pair.receiver.Stats(pair.in)
			require.NoError(t, err)
			assert.Equal(t, uint64(0x200), stats.RTPPackets)
			assert.Equal(t, uint16(0x1433), stats.HighestSequence)

			for i := 0; i < 3; i++ {
				plain := append([]byte{}, rtcpTestCases[0].decrypted...)
				binary.BigEndian.PutUint32(plain[4:], roundTripSSRC)

				protected, err := pair.sender.ProtectRTCP(nil, plain)
				require.NoError(t, err)
				require.Len(t, protected, len(plain)+policy.RTCPOverhead())

				decrypted, err := pair.receiver.UnprotectRTCP(nil, protected)
				require.NoError(t, err)
				require.Equal(t, plain, decrypted)
			}

			index, err := pair.receiver.RTCPIndex(pair.in)
			require.NoError(t, err)
			assert.Equal(t, uint32(3), index)
		})
	}
}

func TestRoundTripInPlaceAllPolicies(t *testing.T) {
	for _, policy := range Policies() {
		t.Run(policy.Name, func(t *testing.T) {
			pair := newSessionPair(t, roundTripSSRC, StreamConfig{
				RTP:       policy,
				MasterKey: testMasterKey(policy.MasterKeyLen()),
			})

			plain := roundTripPacket(t, 1)
			buf := make([]byte, len(plain), len(plain)+policy.RTPOverhead())
			copy(buf, plain)

			protected, err := pair.sender.ProtectRTP(buf, buf)
			require.NoError(t, err)
			require.True(t, isSameBuffer(buf, protected))

			decrypted, err := pair.receiver.UnprotectRTP(protected, protected)
			require.NoError(t, err)
			require.True(t, isSameBuffer(buf, decrypted))
			assert.Equal(t, plain, decrypted)
		})
	}
}

func TestRoundTripAcrossRollover(t *testing.T) {
	if testing.Short() {
		t.Skip("sends 70000 packets")
	}

	pair := newSessionPair(t, roundTripSSRC, StreamConfig{})

	seq := uint16(0xFF00)
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	for i := 0; i < 70000; i++ {
		plain := testRTPPacket(t, roundTripSSRC, seq, payload)

		protected, err := pair.sender.ProtectRTP(nil, plain)
		require.NoError(t, err)

		decrypted, err := pair.receiver.UnprotectRTP(nil, protected)
		require.NoError(t, err)
		require.Equal(t, plain, decrypted)

		seq++
	}

	roc, err := pair.receiver.ROC(pair.in)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), roc)

	roc, err = pair.sender.ROC(pair.out)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), roc)
}

func TestRoundTripAllPoliciesAcrossRollover(t *testing.T) {
	for _, policy := range Policies() {
		t.Run(policy.Name, func(t *testing.T) {
			pair := newSessionPair(t, roundTripSSRC, StreamConfig{
				RTP:       policy,
				MasterKey: testMasterKey(policy.MasterKeyLen()),
			})

			for seq := uint16(0xFFF0); seq != 0x0010; seq++ {
				plain := roundTripPacket(t, seq)

				protected, err := pair.sender.ProtectRTP(nil, plain)
				require.NoError(t, err)
				if policy.Name != PolicyNullCipherHMACNull().Name {
					require.NotEqual(t, plain, protected)
				}

				decrypted, err := pair.receiver.UnprotectRTP(nil, protected)
				require.NoErrorf(t, err, "seq %#04x", seq)
				require.Equal(t, plain, decrypted)
			}

			for _, session := range []struct {
				s *Session
				h StreamHandle
			}{{pair.sender, pair.out}, {pair.receiver, pair.in}} {
				stats, err := session.s.Stats(session.h)
				require.NoError(t, err)
				assert.Equal(t, uint32(1), stats.ROC)
				assert.Equal(t, uint16(0x000F), stats.HighestSequence)
				assert.Equal(t, uint64(0x20), stats.RTPPackets)
			}
		})
	}
}
