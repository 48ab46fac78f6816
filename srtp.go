// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import "fmt"

func (s *streamContext) estimateIndex(seq uint16) (uint64, error) {
	index, status := s.rollover.estimate(seq)
	switch status {
	case StatusOK:
		return index, nil
	case StatusKeyExpired:
		return 0, fmt.Errorf("%w: %w: ssrc %d", StatusKeyExpired, errIndexExhausted, s.ssrc)
	default:
		return 0, &replayError{Proto: "srtp", SSRC: s.ssrc, Index: uint64(seq), Status: status}
	}
}

func (s *streamContext) commitRTP(index uint64, octets int, accept func()) {
	accept()
	s.rollover.update(index)
	s.useKey()

	s.counters.index.Store(s.rollover.index)
	s.counters.rtpPackets.Add(1)
	s.counters.rtpOctets.Add(uint64(octets))
}

func (s *streamContext) protectRTP(dst, plaintext []byte, header rtpHeaderInfo) ([]byte, error) {
	index, err := s.estimateIndex(header.seq)
	if err != nil {
		return nil, err
	}

	accept, status := s.rtpWindow.check(index)
	if status != StatusOK {
		if status != StatusReplayFail || !s.config.AllowRepeatTx {
			return nil, &replayError{Proto: "srtp", SSRC: s.ssrc, Index: index, Status: status}
		}
	}
	if err := s.checkKeyLimit(); err != nil {
		return nil, err
	}

	octets := len(plaintext)
	out, err := s.rtp.encryptRTP(dst, plaintext, header.len, header.ssrc, index)
	if err != nil {
		return nil, err
	}
	s.commitRTP(index, octets, accept)

	return out, nil
}

func (s *streamContext) unprotectRTP(dst, ciphertext []byte, header rtpHeaderInfo) ([]byte, error) {
	index, err := s.estimateIndex(header.seq)
	if err != nil {
		return nil, err
	}

	accept, status := s.rtpWindow.check(index)
	if status != StatusOK {
		return nil, &replayError{Proto: "srtp", SSRC: s.ssrc, Index: index, Status: status}
	}
	if err := s.checkKeyLimit(); err != nil {
		return nil, err
	}

	out, err := s.rtp.decryptRTP(dst, ciphertext, header.len, header.ssrc, index)
	if err != nil {
		return nil, err
	}
	s.commitRTP(index, len(out), accept)

	return out, nil
}

// ProtectRTP protects an RTP packet and writes the result to dst. If dst
// cannot hold the packet plus the policy's RTPOverhead a new buffer is
// allocated. dst may be packet itself.
func (s *Session) ProtectRTP(dst, packet []byte) ([]byte, error) {
	header, err := parseRTPHeaderInfo(packet)
	if err != nil {
		return nil, s.fail(err)
	}

	stream, bound, err := s.streamFor(header.ssrc, true)
	if err != nil {
		return nil, s.fail(err)
	}

	out, err := stream.protectRTP(dst, packet, header)
	if err != nil {
		s.log.Tracef("failed to protect rtp ssrc=%d seq=%d: %v", header.ssrc, header.seq, err)
		discard(stream, bound)

		return nil, s.fail(err)
	}
	if bound {
		s.adopt(stream)
	}

	return out, nil
}

// UnprotectRTP verifies and decrypts an SRTP packet and writes the plain
// RTP packet to dst, which may be packet itself. On failure no stream state
// changes and nothing is written to dst.
func (s *Session) UnprotectRTP(dst, packet []byte) ([]byte, error) {
	header, err := parseRTPHeaderInfo(packet)
	if err != nil {
		return nil, s.fail(err)
	}

	stream, bound, err := s.streamFor(header.ssrc, false)
	if err != nil {
		return nil, s.fail(err)
	}

	out, err := stream.unprotectRTP(dst, packet, header)
	if err != nil {
		s.log.Tracef("failed to unprotect srtp ssrc=%d seq=%d: %v", header.ssrc, header.seq, err)
		discard(stream, bound)

		return nil, s.fail(err)
	}
	if bound {
		s.adopt(stream)
	}

	return out, nil
}
