// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"errors"
	"fmt"
)

// Status is the closed set of outcomes an SRTP operation can report.
// The values follow the error codes of libsrtp so that callers porting
// from it can branch on the same kinds. Every error returned by this
// package wraps exactly one Status, use errors.Is or StatusOf to test it.
type Status int

// Status values.
const (
	StatusOK Status = iota
	StatusFail
	StatusBadParam
	StatusAllocFail
	StatusDeallocFail
	StatusInitFail
	StatusTerminus
	StatusAuthFail
	StatusCipherFail
	StatusReplayFail
	StatusReplayOld
	StatusAlgoFail
	StatusNoSuchOp
	StatusNoContext
	StatusCantCheck
	StatusKeyExpired
	StatusSocketErr
	StatusSignalErr
	StatusNonceBad
	StatusReadFail
	StatusWriteFail
	StatusParseErr
	StatusEncodeErr
	StatusSemaphoreErr
	StatusPfkeyErr
	StatusBadMKI
	StatusPktIdxOld
	StatusPktIdxAdv

	statusCount
)

var statusText = [statusCount]string{
	StatusOK:           "ok",
	StatusFail:         "unspecified failure",
	StatusBadParam:     "unsupported parameter",
	StatusAllocFail:    "couldn't allocate memory",
	StatusDeallocFail:  "couldn't deallocate properly",
	StatusInitFail:     "couldn't initialize",
	StatusTerminus:     "can't process as much data as requested",
	StatusAuthFail:     "authentication failure",
	StatusCipherFail:   "cipher failure",
	StatusReplayFail:   "replay check failed (bad index)",
	StatusReplayOld:    "replay check failed (index too old)",
	StatusAlgoFail:     "algorithm failed test routine",
	StatusNoSuchOp:     "unsupported operation",
	StatusNoContext:    "no appropriate context found",
	StatusCantCheck:    "unable to perform desired validation",
	StatusKeyExpired:   "can't use key any more",
	StatusSocketErr:    "error in use of socket",
	StatusSignalErr:    "error in use POSIX signals",
	StatusNonceBad:     "nonce check failed",
	StatusReadFail:     "couldn't read data",
	StatusWriteFail:    "couldn't write data",
	StatusParseErr:     "error parsing data",
	StatusEncodeErr:    "error encoding data",
	StatusSemaphoreErr: "error while using semaphores",
	StatusPfkeyErr:     "error while using pfkey",
	StatusBadMKI:       "error MKI present in packet is invalid",
	StatusPktIdxOld:    "packet index is too old to consider",
	StatusPktIdxAdv:    "packet index advanced, reset needed",
}

// Error implements the error interface.
func (s Status) Error() string {
	return "srtp: " + s.String()
}

func (s Status) String() string {
	if s < 0 || s >= statusCount {
		return fmt.Sprintf("status(%d)", int(s))
	}

	return statusText[s]
}

// Transient reports whether the status concerns a single packet only.
// Transient failures leave all stream state untouched and the caller is
// expected to drop the packet and carry on.
func (s Status) Transient() bool {
	switch s {
	case StatusAuthFail, StatusReplayFail, StatusReplayOld, StatusParseErr:
		return true
	default:
		return false
	}
}

// StatusOf extracts the Status wrapped by err. A nil error is StatusOK and
// an error from outside this package is StatusFail.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}

	var s Status
	if errors.As(err, &s) {
		return s
	}

	return StatusFail
}

var (
	// ErrHeaderTooShort is returned when a buffer cannot hold the RTP header it announces.
	ErrHeaderTooShort = errors.New("rtp header too short")
	// ErrBadVersion is returned for RTP packets whose version field is not 2.
	ErrBadVersion = errors.New("rtp version must be 2")
	// ErrTooManyCSRC is returned when serializing a header with more than 15 CSRCs.
	ErrTooManyCSRC = errors.New("rtp header carries more than 15 csrc")
	// ErrBadExtensionLength is returned when an extension payload is not a whole number of words.
	ErrBadExtensionLength = errors.New("rtp extension length must be a multiple of 4")

	errTooShortRTP       = errors.New("packet too short to be a valid srtp packet")
	errTooShortRTCP      = errors.New("packet too short to be a valid srtcp packet")
	errShortBuffer       = errors.New("buffer too small")
	errNoSuchPolicy      = errors.New("no such crypto policy")
	errInvalidPolicy     = errors.New("invalid crypto policy")
	errMasterKeyLength   = errors.New("master key length does not match crypto policy")
	errPolicyMismatch    = errors.New("rtp and rtcp policies need the same master key length")
	errWindowSize        = errors.New("replay window size out of range")
	errStreamExists      = errors.New("a stream for this ssrc and direction already exists")
	errTemplateExists    = errors.New("a wildcard stream for this direction already exists")
	errUnknownStream     = errors.New("stream handle does not refer to a live stream")
	errNoStream          = errors.New("no stream matches ssrc")
	errSessionClosed     = errors.New("session closed")
	errBadDirection      = errors.New("invalid stream direction")
	errIndexExhausted    = errors.New("packet index space exhausted")
	errKeyLimit          = errors.New("key usage limit reached")
	errSelfTest          = errors.New("crypto self test failed")
	errNoSuchSRTPProfile = errors.New("no such SRTP protection profile")
	errBadSaltLength     = errors.New("master salt too long for key derivation")
)

// replayError reports a packet refused by the replay window.
type replayError struct {
	Proto  string // srtp or srtcp
	SSRC   uint32
	Index  uint64 // extended sequence number or srtcp index
	Status Status
}

func (e *replayError) Error() string {
	return fmt.Sprintf("%s ssrc=%d index=%d: %v", e.Proto, e.SSRC, e.Index, e.Status)
}

func (e *replayError) Unwrap() error {
	return e.Status
}
