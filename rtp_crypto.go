// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"fmt"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

// Protector is the packet level API of a Session. Transports depend on it
// rather than on *Session so tests can substitute it.
type Protector interface {
	ProtectRTP(dst, packet []byte) ([]byte, error)
	UnprotectRTP(dst, packet []byte) ([]byte, error)
	ProtectRTCP(dst, packet []byte) ([]byte, error)
	UnprotectRTCP(dst, packet []byte) ([]byte, error)
}

var _ Protector = (*Session)(nil)

// maxTrailerLen bounds what protection appends to a packet, the SRTCP
// index plus the longest tag.
const maxTrailerLen = srtcpIndexLen + hmacKeyLen

// ProtectRTPPacket marshals pkt and protects it.
func (s *Session) ProtectRTPPacket(pkt *rtp.Packet) ([]byte, error) {
	size := pkt.MarshalSize()
	buf := make([]byte, size, size+maxTrailerLen)
	n, err := pkt.MarshalTo(buf)
	if err != nil {
		return nil, s.fail(fmt.Errorf("%w: %w", StatusEncodeErr, err))
	}

	return s.ProtectRTP(buf, buf[:n])
}

// UnprotectRTPPacket verifies an SRTP packet and unmarshals the result.
func (s *Session) UnprotectRTPPacket(packet []byte) (*rtp.Packet, error) {
	plain, err := s.UnprotectRTP(nil, packet)
	if err != nil {
		return nil, err
	}

	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(plain); err != nil {
		return nil, fmt.Errorf("%w: %w", StatusParseErr, err)
	}

	return pkt, nil
}

// ProtectRTCPPackets marshals pkts into one compound packet and protects it.
func (s *Session) ProtectRTCPPackets(pkts []rtcp.Packet) ([]byte, error) {
	raw, err := rtcp.Marshal(pkts)
	if err != nil {
		return nil, s.fail(fmt.Errorf("%w: %w", StatusEncodeErr, err))
	}

	return s.ProtectRTCP(nil, raw)
}

// UnprotectRTCPPackets verifies an SRTCP packet and unmarshals the compound
// packet it carries.
func (s *Session) UnprotectRTCPPackets(packet []byte) ([]rtcp.Packet, error) {
	plain, err := s.UnprotectRTCP(nil, packet)
	if err != nil {
		return nil, err
	}

	pkts, err := rtcp.Unmarshal(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", StatusParseErr, err)
	}

	return pkts, nil
}
