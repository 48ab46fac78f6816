// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"encoding/binary"
	"fmt"

	"github.com/pion/rtcp"
)

// parseRTCPSender validates the common header of the first packet of a
// compound RTCP packet and returns the sender SSRC.
func parseRTCPSender(buf []byte) (uint32, error) {
	var header rtcp.Header
	if err := header.Unmarshal(buf); err != nil {
		return 0, fmt.Errorf("%w: %w", StatusParseErr, err)
	}
	if len(buf) < srtcpHeaderLen {
		return 0, fmt.Errorf("%w: %w", StatusParseErr, errTooShortRTCP)
	}

	return binary.BigEndian.Uint32(buf[srtcpSenderSSRCStart:]), nil
}

func (s *streamContext) commitRTCP(octets int) {
	s.useKey()
	s.counters.rtcpIndex.Store(s.rtcpIndex)
	s.counters.rtcpPackets.Add(1)
	s.counters.rtcpOctets.Add(uint64(octets))
}

func (s *streamContext) protectRTCP(dst, plaintext []byte, ssrc uint32) ([]byte, error) {
	if s.rtcpIndex >= maxSRTCPIndex {
		return nil, fmt.Errorf("%w: %w: srtcp ssrc %d", StatusKeyExpired, errIndexExhausted, ssrc)
	}
	if err := s.checkKeyLimit(); err != nil {
		return nil, err
	}

	octets := len(plaintext)
	index := s.rtcpIndex + 1
	out, err := s.rtcp.encryptRTCP(dst, plaintext, ssrc, index)
	if err != nil {
		return nil, err
	}

	s.rtcpIndex = index
	s.commitRTCP(octets)

	return out, nil
}

func (s *streamContext) unprotectRTCP(dst, ciphertext []byte, ssrc uint32) ([]byte, error) {
	if len(ciphertext) < srtcpHeaderLen+s.config.RTCP.RTCPOverhead() {
		return nil, fmt.Errorf("%w: %w", StatusParseErr, errTooShortRTCP)
	}

	index, encrypted := s.rtcp.rtcpIndex(ciphertext)
	accept, status := s.rtcpWindow.check(uint64(index))
	if status != StatusOK {
		return nil, &replayError{Proto: "srtcp", SSRC: ssrc, Index: uint64(index), Status: status}
	}
	if err := s.checkKeyLimit(); err != nil {
		return nil, err
	}

	out, err := s.rtcp.decryptRTCP(dst, ciphertext, ssrc, index, encrypted)
	if err != nil {
		return nil, err
	}

	accept()
	if index > s.rtcpIndex {
		s.rtcpIndex = index
	}
	s.commitRTCP(len(out))

	return out, nil
}

// ProtectRTCP protects a compound RTCP packet and writes the result to dst.
// If dst cannot hold the packet plus the policy's RTCPOverhead a new buffer
// is allocated. dst may be packet itself.
func (s *Session) ProtectRTCP(dst, packet []byte) ([]byte, error) {
	ssrc, err := parseRTCPSender(packet)
	if err != nil {
		return nil, s.fail(err)
	}

	stream, bound, err := s.streamFor(ssrc, true)
	if err != nil {
		return nil, s.fail(err)
	}

	out, err := stream.protectRTCP(dst, packet, ssrc)
	if err != nil {
		s.log.Tracef("failed to protect rtcp ssrc=%d: %v", ssrc, err)
		discard(stream, bound)

		return nil, s.fail(err)
	}
	if bound {
		s.adopt(stream)
	}

	return out, nil
}

// UnprotectRTCP verifies and decrypts an SRTCP packet and writes the plain
// compound RTCP packet to dst, which may be packet itself.
func (s *Session) UnprotectRTCP(dst, packet []byte) ([]byte, error) {
	ssrc, err := parseRTCPSender(packet)
	if err != nil {
		return nil, s.fail(err)
	}

	stream, bound, err := s.streamFor(ssrc, false)
	if err != nil {
		return nil, s.fail(err)
	}

	out, err := stream.unprotectRTCP(dst, packet, ssrc)
	if err != nil {
		s.log.Tracef("failed to unprotect srtcp ssrc=%d: %v", ssrc, err)
		discard(stream, bound)

		return nil, s.fail(err)
	}
	if bound {
		s.adopt(stream)
	}

	return out, nil
}
