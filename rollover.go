// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

const (
	seqNumMedian = 1 << 15
	seqNumMax    = 1 << 16

	maxSRTPIndex  = 1<<48 - 1
	maxSRTCPIndex = 1<<31 - 1
	srtcpEncrypt  = 1 << 31
)

// seqDelta is the signed distance from the sequence number of the highest
// index seen to seq, taken modulo 2^16 into the range (-2^15, 2^15]. A
// distance of exactly half the sequence space counts as newer.
func seqDelta(highestSeq, seq uint16) int64 {
	d := int64(seq - highestSeq)
	if d > seqNumMedian {
		d -= seqNumMax
	}

	return d
}

// rolloverState tracks the highest 48 bit packet index of an SRTP stream,
// RFC 3711 section 3.3.1. The rollover counter is the upper 32 bits.
type rolloverState struct {
	index   uint64
	started bool
}

// estimate returns the packet index of seq relative to the highest index
// seen. It does not modify the state. The first packet of a stream takes
// the preset rollover counter as is.
func (r *rolloverState) estimate(seq uint16) (uint64, Status) {
	if !r.started {
		return r.index&^0xFFFF | uint64(seq), StatusOK
	}

	est := int64(r.index) + seqDelta(uint16(r.index), seq)
	switch {
	case est < 0:
		return 0, StatusReplayOld
	case est > maxSRTPIndex:
		return 0, StatusKeyExpired
	}

	return uint64(est), StatusOK
}

// update commits an authenticated index.
func (r *rolloverState) update(index uint64) {
	if !r.started || index > r.index {
		r.index = index
	}
	r.started = true
}

// roc returns the rollover counter of the highest index.
func (r *rolloverState) roc() uint32 {
	return uint32(r.index >> 16)
}

// highestSeq returns the sequence number of the highest index.
func (r *rolloverState) highestSeq() uint16 {
	return uint16(r.index)
}

// setROC presets the rollover counter for the next packet.
func (r *rolloverState) setROC(roc uint32) {
	r.index = uint64(roc) << 16
	r.started = false
}
