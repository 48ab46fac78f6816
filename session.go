// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/logging"
)

// StreamHandle refers to a stream of a Session. Handles of removed streams
// stay invalid even when their slot is reused. The zero value refers to no
// stream.
type StreamHandle struct {
	slot       uint32
	generation uint32
}

// IsZero reports whether h is the zero handle.
func (h StreamHandle) IsZero() bool {
	return h.generation == 0
}

type streamKey struct {
	ssrc     uint32
	outbound bool
}

type streamSlot struct {
	generation uint32
	stream     *streamContext
}

const noTemplate = -1

// Session holds the streams of one SRTP session and protects and verifies
// RTP and RTCP packets with them.
//
// The stream table is safe for concurrent use. Packets of one stream must
// not be processed concurrently, distinct streams may be used from
// distinct goroutines.
type Session struct {
	log logging.LeveledLogger

	mu        sync.RWMutex
	slots     []streamSlot
	free      []uint32
	streams   map[streamKey]uint32
	templates [2]int64
	closed    bool

	failures [statusCount]atomic.Uint64
}

func newSession(loggerFactory logging.LoggerFactory) *Session {
	return &Session{
		log:       loggerFactory.NewLogger("srtp"),
		streams:   map[streamKey]uint32{},
		templates: [2]int64{noTemplate, noTemplate},
	}
}

func templateIndex(outbound bool) int {
	if outbound {
		return 1
	}

	return 0
}

// AddStream adds a stream described by config. At most one stream may
// exist per SSRC and direction and at most one wildcard stream per
// direction.
func (s *Session) AddStream(config StreamConfig) (StreamHandle, error) {
	stream, err := newStreamContext(config, s.log)
	if err != nil {
		return StreamHandle{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		stream.wipe()
		return StreamHandle{}, fmt.Errorf("%w: %w", StatusNoContext, errSessionClosed)
	}

	if stream.direction.Wildcard() {
		if s.templates[templateIndex(stream.direction.Outbound())] != noTemplate {
			stream.wipe()
			return StreamHandle{}, fmt.Errorf("%w: %w: %v", StatusBadParam, errTemplateExists, stream.direction)
		}
	} else if _, ok := s.streams[streamKey{stream.ssrc, stream.direction.Outbound()}]; ok {
		stream.wipe()
		return StreamHandle{}, fmt.Errorf("%w: %w: ssrc %d %v", StatusBadParam, errStreamExists, stream.ssrc, stream.direction)
	}

	h := s.insertLocked(stream)
	s.log.Debugf("added %v stream ssrc=%d policy=%s", stream.direction, stream.ssrc, stream.config.RTP.Name)

	return h, nil
}

func (s *Session) insertLocked(stream *streamContext) StreamHandle {
	var slot uint32
	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, streamSlot{})
		slot = uint32(len(s.slots) - 1)
	}

	s.slots[slot].generation++
	s.slots[slot].stream = stream

	if stream.direction.Wildcard() {
		s.templates[templateIndex(stream.direction.Outbound())] = int64(slot)
	} else {
		s.streams[streamKey{stream.ssrc, stream.direction.Outbound()}] = slot
	}

	return StreamHandle{slot: slot, generation: s.slots[slot].generation}
}

func (s *Session) streamLocked(h StreamHandle) (*streamContext, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: %w", StatusNoContext, errSessionClosed)
	}
	if h.IsZero() || int(h.slot) >= len(s.slots) {
		return nil, fmt.Errorf("%w: %w", StatusNoContext, errUnknownStream)
	}

	slot := s.slots[h.slot]
	if slot.generation != h.generation || slot.stream == nil {
		return nil, fmt.Errorf("%w: %w", StatusNoContext, errUnknownStream)
	}

	return slot.stream, nil
}

func (s *Session) stream(h StreamHandle) (*streamContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.streamLocked(h)
}

// RemoveStream removes a stream and wipes its keys. Removing a wildcard
// stream keeps the streams it has already been bound to.
func (s *Session) RemoveStream(h StreamHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.streamLocked(h)
	if err != nil {
		return err
	}

	if stream.direction.Wildcard() {
		s.templates[templateIndex(stream.direction.Outbound())] = noTemplate
	} else {
		delete(s.streams, streamKey{stream.ssrc, stream.direction.Outbound()})
	}
	s.slots[h.slot].stream = nil
	s.free = append(s.free, h.slot)
	stream.wipe()

	s.log.Debugf("removed %v stream ssrc=%d", stream.direction, stream.ssrc)

	return nil
}

// Lookup returns the stream bound to ssrc in the given direction. For the
// wildcard directions ssrc is ignored and the template is returned.
func (s *Session) Lookup(ssrc uint32, direction Direction) (StreamHandle, error) {
	if !direction.valid() {
		return StreamHandle{}, fmt.Errorf("%w: %w: %v", StatusBadParam, errBadDirection, direction)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return StreamHandle{}, fmt.Errorf("%w: %w", StatusNoContext, errSessionClosed)
	}

	slot := int64(noTemplate)
	if direction.Wildcard() {
		slot = s.templates[templateIndex(direction.Outbound())]
	} else if i, ok := s.streams[streamKey{ssrc, direction.Outbound()}]; ok {
		slot = int64(i)
	}
	if slot == noTemplate {
		return StreamHandle{}, fmt.Errorf("%w: %w %d", StatusNoContext, errNoStream, ssrc)
	}

	return StreamHandle{slot: uint32(slot), generation: s.slots[slot].generation}, nil
}

// resolve finds the stream that handles ssrc. When only a wildcard template
// matches, template is true and the caller binds a clone of it once the
// packet has been processed successfully.
func (s *Session) resolve(ssrc uint32, outbound bool) (stream *streamContext, template bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, fmt.Errorf("%w: %w", StatusNoContext, errSessionClosed)
	}
	if slot, ok := s.streams[streamKey{ssrc, outbound}]; ok {
		return s.slots[slot].stream, false, nil
	}
	if slot := s.templates[templateIndex(outbound)]; slot != noTemplate {
		return s.slots[slot].stream, true, nil
	}

	return nil, false, fmt.Errorf("%w: %w %d", StatusNoContext, errNoStream, ssrc)
}

// streamFor resolves ssrc and clones the template if needed.
func (s *Session) streamFor(ssrc uint32, outbound bool) (stream *streamContext, bound bool, err error) {
	stream, template, err := s.resolve(ssrc, outbound)
	if err != nil {
		return nil, false, err
	}
	if !template {
		return stream, false, nil
	}

	stream, err = stream.bind(ssrc)
	if err != nil {
		return nil, false, err
	}

	return stream, true, nil
}

// adopt inserts a stream cloned from a template. If another goroutine
// bound the same SSRC first its stream wins.
func (s *Session) adopt(stream *streamContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.streams[streamKey{stream.ssrc, stream.direction.Outbound()}]; ok || s.closed {
		stream.wipe()
		return
	}

	s.insertLocked(stream)
	s.log.Debugf("bound wildcard template to %v ssrc=%d", stream.direction, stream.ssrc)
}

// discard wipes a template clone that is not going to be adopted.
func discard(stream *streamContext, bound bool) {
	if bound {
		stream.wipe()
	}
}

// Stats returns a snapshot of the counters of a stream.
func (s *Session) Stats(h StreamHandle) (StreamStats, error) {
	stream, err := s.stream(h)
	if err != nil {
		return StreamStats{}, err
	}

	return stream.stats(), nil
}

// Streams returns a snapshot of every stream, templates included.
func (s *Session) Streams() []StreamStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StreamStats, 0, len(s.slots))
	for _, slot := range s.slots {
		if slot.stream != nil {
			out = append(out, slot.stream.stats())
		}
	}

	return out
}

// Failures returns how many packets failed per Status since the session
// was created.
func (s *Session) Failures() map[Status]uint64 {
	out := map[Status]uint64{}
	for i := range s.failures {
		if n := s.failures[i].Load(); n > 0 {
			out[Status(i)] = n
		}
	}

	return out
}

func (s *Session) fail(err error) error {
	status := StatusOf(err)
	if status >= 0 && status < statusCount {
		s.failures[status].Add(1)
	}

	return err
}

// UpdateStreamKey replaces the master key of a stream. The stream starts
// over as if it had just been added, with its rollover counter, replay
// windows, SRTCP index and key usage reset.
func (s *Session) UpdateStreamKey(h StreamHandle, masterKey []byte) error {
	stream, err := s.stream(h)
	if err != nil {
		return err
	}
	if len(masterKey) != stream.config.RTP.MasterKeyLen() {
		return fmt.Errorf("%w: %w: got %d, want %d", StatusBadParam, errMasterKeyLength, len(masterKey), stream.config.RTP.MasterKeyLen())
	}

	key := append([]byte{}, masterKey...)
	defer wipe(key)

	if err := stream.rekey(key); err != nil {
		return err
	}
	s.log.Infof("updated master key of %v stream ssrc=%d", stream.direction, stream.ssrc)

	return nil
}

// ROC returns the rollover counter of a stream.
func (s *Session) ROC(h StreamHandle) (uint32, error) {
	stream, err := s.stream(h)
	if err != nil {
		return 0, err
	}

	return stream.rollover.roc(), nil
}

// SetROC presets the rollover counter a stream assumes for its next
// packet, for receivers joining a stream that has already wrapped.
func (s *Session) SetROC(h StreamHandle, roc uint32) error {
	stream, err := s.stream(h)
	if err != nil {
		return err
	}

	stream.rollover.setROC(roc)
	stream.rtpWindow = newReplayWindow(stream.config.WindowSize, maxSRTPIndex)
	stream.counters.index.Store(stream.rollover.index)

	return nil
}

// RTCPIndex returns the last SRTCP index a stream protected or accepted.
func (s *Session) RTCPIndex(h StreamHandle) (uint32, error) {
	stream, err := s.stream(h)
	if err != nil {
		return 0, err
	}

	return stream.rtcpIndex, nil
}

// SetRTCPIndex sets the last SRTCP index of a stream, the next protected
// packet uses index+1.
func (s *Session) SetRTCPIndex(h StreamHandle, index uint32) error {
	stream, err := s.stream(h)
	if err != nil {
		return err
	}

	stream.rtcpIndex = index & maxSRTCPIndex
	stream.counters.rtcpIndex.Store(stream.rtcpIndex)

	return nil
}

// Close removes every stream and wipes their keys. Further calls fail with
// StatusNoContext.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for i := range s.slots {
		if s.slots[i].stream != nil {
			s.slots[i].stream.wipe()
			s.slots[i].stream = nil
		}
	}
	s.streams = map[streamKey]uint32{}
	s.templates = [2]int64{noTemplate, noTemplate}
	s.free = nil

	return nil
}
