// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"fmt"
	"sync/atomic"

	"github.com/pion/logging"
)

// Direction tells whether a stream protects outgoing or verifies incoming
// packets, and whether it is bound to one SSRC or is a wildcard template.
type Direction int

// Stream directions.
const (
	DirectionOutbound Direction = iota + 1
	DirectionInbound
	// DirectionAnyOutbound matches every outgoing SSRC without a stream of its own.
	DirectionAnyOutbound
	// DirectionAnyInbound matches every incoming SSRC without a stream of its own.
	DirectionAnyInbound
)

func (d Direction) String() string {
	switch d {
	case DirectionOutbound:
		return "outbound"
	case DirectionInbound:
		return "inbound"
	case DirectionAnyOutbound:
		return "any-outbound"
	case DirectionAnyInbound:
		return "any-inbound"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

func (d Direction) valid() bool {
	return d >= DirectionOutbound && d <= DirectionAnyInbound
}

// Outbound reports whether the direction protects outgoing packets.
func (d Direction) Outbound() bool {
	return d == DirectionOutbound || d == DirectionAnyOutbound
}

// Wildcard reports whether the direction matches any SSRC.
func (d Direction) Wildcard() bool {
	return d == DirectionAnyOutbound || d == DirectionAnyInbound
}

func (d Direction) bound() Direction {
	switch d {
	case DirectionAnyOutbound:
		return DirectionOutbound
	case DirectionAnyInbound:
		return DirectionInbound
	default:
		return d
	}
}

// StreamConfig describes one stream of a Session.
type StreamConfig struct {
	// SSRC is ignored for wildcard directions.
	SSRC      uint32
	Direction Direction

	// RTP defaults to PolicyRTPDefault and RTCP to the RTP policy when
	// left as the zero value.
	RTP  CryptoPolicy
	RTCP CryptoPolicy

	// MasterKey is the master key followed by the master salt. The slice
	// is copied and the copy is wiped once session keys are derived.
	MasterKey []byte

	// WindowSize is the replay window in packets, 0 selects 128.
	WindowSize uint

	// AllowRepeatTx lets the sender protect the same index twice, which
	// is needed to retransmit a packet.
	AllowRepeatTx bool

	// KeyLimit is the number of packets the master key may protect or
	// verify, 0 selects 2^48.
	KeyLimit uint64
}

func (c StreamConfig) withDefaults() StreamConfig {
	if c.RTP == (CryptoPolicy{}) {
		c.RTP = PolicyRTPDefault()
	}
	if c.RTCP == (CryptoPolicy{}) {
		c.RTCP = c.RTP
	}
	if c.WindowSize == 0 {
		c.WindowSize = defaultWindowSize
	}
	if c.KeyLimit == 0 {
		c.KeyLimit = maxSRTPIndex + 1
	}

	return c
}

// Validate checks the configuration without deriving any keys. Errors
// wrap StatusBadParam.
func (c StreamConfig) Validate() error {
	c = c.withDefaults()

	if !c.Direction.valid() {
		return fmt.Errorf("%w: %w: %v", StatusBadParam, errBadDirection, c.Direction)
	}
	if err := c.RTP.Validate(); err != nil {
		return err
	}
	if err := c.RTCP.Validate(); err != nil {
		return err
	}
	if c.RTP.MasterKeyLen() != c.RTCP.MasterKeyLen() || c.RTP.CipherKeyLen != c.RTCP.CipherKeyLen {
		return fmt.Errorf("%w: %w", StatusBadParam, errPolicyMismatch)
	}
	if len(c.MasterKey) != c.RTP.MasterKeyLen() {
		return fmt.Errorf("%w: %w: got %d, want %d", StatusBadParam, errMasterKeyLength, len(c.MasterKey), c.RTP.MasterKeyLen())
	}
	if c.WindowSize < minWindowSize || c.WindowSize > maxWindowSize {
		return fmt.Errorf("%w: %w: %d", StatusBadParam, errWindowSize, c.WindowSize)
	}

	return nil
}

// streamCounters are read by Stats while the owner of the stream keeps
// processing packets.
type streamCounters struct {
	rtpPackets  atomic.Uint64
	rtpOctets   atomic.Uint64
	rtcpPackets atomic.Uint64
	rtcpOctets  atomic.Uint64
	index       atomic.Uint64
	rtcpIndex   atomic.Uint32
}

// streamContext is the crypto state of one SSRC in one direction, or of a
// wildcard template. It is not safe for concurrent use, callers serialize
// packets per stream.
type streamContext struct {
	ssrc      uint32
	direction Direction
	config    StreamConfig

	// Derived keys are kept so that wildcard templates can be cloned.
	rtpKeys  sessionKeys
	rtcpKeys sessionKeys
	rtp      transform
	rtcp     transform

	rollover   rolloverState
	rtpWindow  *replayWindow
	rtcpIndex  uint32
	rtcpWindow *replayWindow

	keyUses       uint64
	softLimit     uint64
	softLimitSeen bool

	counters streamCounters
	log      logging.LeveledLogger
}

func newStreamContext(config StreamConfig, log logging.LeveledLogger) (*streamContext, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &streamContext{
		ssrc:      config.SSRC,
		direction: config.Direction,
		log:       log,
	}
	if config.Direction.Wildcard() {
		s.ssrc = 0
	}

	masterKey := append([]byte{}, config.MasterKey...)
	config.MasterKey = nil
	s.config = config
	defer wipe(masterKey)

	if err := s.rekey(masterKey); err != nil {
		return nil, err
	}

	return s, nil
}

// rekey derives fresh session keys and resets every counter of the stream.
func (s *streamContext) rekey(masterKey []byte) error {
	keyLen := s.config.RTP.CipherKeyLen
	key, salt := masterKey[:keyLen], masterKey[keyLen:]

	rtpKeys, err := deriveSessionKeys(s.config.RTP, srtpLabels, key, salt)
	if err != nil {
		return err
	}
	rtcpKeys, err := deriveSessionKeys(s.config.RTCP, srtcpLabels, key, salt)
	if err != nil {
		return err
	}

	if err := s.install(rtpKeys, rtcpKeys); err != nil {
		return err
	}

	s.rtpKeys.wipe()
	s.rtcpKeys.wipe()
	s.rtpKeys, s.rtcpKeys = rtpKeys, rtcpKeys

	return nil
}

// install builds transforms from derived keys and starts the stream over.
func (s *streamContext) install(rtpKeys, rtcpKeys sessionKeys) error {
	rtp, err := newTransform(s.config.RTP, rtpKeys)
	if err != nil {
		return err
	}
	rtcp, err := newTransform(s.config.RTCP, rtcpKeys)
	if err != nil {
		return err
	}

	s.rtp, s.rtcp = rtp, rtcp
	s.rollover = rolloverState{}
	s.rtpWindow = newReplayWindow(s.config.WindowSize, maxSRTPIndex)
	s.rtcpIndex = 0
	s.rtcpWindow = newReplayWindow(s.config.WindowSize, maxSRTCPIndex)
	s.keyUses = 0
	s.softLimitSeen = false
	s.softLimit = 0
	if s.config.KeyLimit > seqNumMax {
		s.softLimit = s.config.KeyLimit - seqNumMax
	}
	s.counters.index.Store(0)
	s.counters.rtcpIndex.Store(0)

	return nil
}

// bind clones a wildcard template into a fresh stream for ssrc. Transforms
// carry per packet scratch state, so the clone gets its own built from the
// cached session keys.
func (s *streamContext) bind(ssrc uint32) (*streamContext, error) {
	c := &streamContext{
		ssrc:      ssrc,
		direction: s.direction.bound(),
		config:    s.config,
		log:       s.log,
	}
	c.config.SSRC = ssrc
	c.config.Direction = c.direction

	c.rtpKeys, c.rtcpKeys = s.rtpKeys.clone(), s.rtcpKeys.clone()
	if err := c.install(c.rtpKeys, c.rtcpKeys); err != nil {
		c.wipe()
		return nil, err
	}

	// A rollover counter or SRTCP index preset on the template carries over.
	c.rollover = s.rollover
	c.rtcpIndex = s.rtcpIndex
	c.counters.index.Store(c.rollover.index)
	c.counters.rtcpIndex.Store(c.rtcpIndex)

	return c, nil
}

// checkKeyLimit fails once the master key has been used KeyLimit times.
func (s *streamContext) checkKeyLimit() error {
	if s.keyUses >= s.config.KeyLimit {
		return fmt.Errorf("%w: %w: ssrc %d", StatusKeyExpired, errKeyLimit, s.ssrc)
	}

	return nil
}

// useKey counts one packet against the key limit.
func (s *streamContext) useKey() {
	s.keyUses++
	if !s.softLimitSeen && s.keyUses >= s.softLimit {
		s.softLimitSeen = true
		s.log.Warnf("master key of ssrc %d is close to its usage limit (%d of %d packets)", s.ssrc, s.keyUses, s.config.KeyLimit)
	}
}

func (s *streamContext) wipe() {
	s.rtpKeys.wipe()
	s.rtcpKeys.wipe()
}

// StreamStats is a snapshot of the counters of one stream.
type StreamStats struct {
	SSRC      uint32
	Direction Direction
	Policy    string

	ROC             uint32
	HighestSequence uint16
	RTCPIndex       uint32

	RTPPackets  uint64
	RTPOctets   uint64
	RTCPPackets uint64
	RTCPOctets  uint64
}

func (s *streamContext) stats() StreamStats {
	index := s.counters.index.Load()

	return StreamStats{
		SSRC:            s.ssrc,
		Direction:       s.direction,
		Policy:          s.config.RTP.Name,
		ROC:             uint32(index >> 16),
		HighestSequence: uint16(index),
		RTCPIndex:       s.counters.rtcpIndex.Load(),
		RTPPackets:      s.counters.rtpPackets.Load(),
		RTPOctets:       s.counters.rtpOctets.Load(),
		RTCPPackets:     s.counters.rtcpPackets.Load(),
		RTCPOctets:      s.counters.rtcpOctets.Load(),
	}
}
