// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"encoding/binary"
	"fmt"
)

const (
	rtpVersion           = 2
	rtpFixedHeaderLen    = 12
	rtpExtensionHeadLen  = 4
	rtpMaxCSRC           = 15
	versionShift         = 6
	versionMask          = 0x3
	paddingShift         = 5
	paddingMask          = 0x1
	extensionShift       = 4
	extensionMask        = 0x1
	ccMask               = 0xF
	markerShift          = 7
	markerMask           = 0x1
	ptMask               = 0x7F
	seqNumOffset         = 2
	timestampOffset      = 4
	ssrcOffset           = 8
	csrcOffset           = 12
	srtcpHeaderLen       = 8
	srtcpSenderSSRCStart = 4
)

// Header is the fixed RTP header of RFC 3550 section 5.1 with its CSRC list
// and an optional extension. The extension is kept as raw bytes so that a
// parsed header serializes back to exactly the input it was read from.
type Header struct {
	Version          uint8
	Padding          bool
	Extension        bool
	Marker           bool
	PayloadType      uint8
	SequenceNumber   uint16
	Timestamp        uint32
	SSRC             uint32
	CSRC             []uint32
	ExtensionProfile uint16
	ExtensionPayload []byte
}

// ParseHeader reads the RTP header at the start of buf and returns it with
// its length in bytes. Errors wrap StatusParseErr.
func ParseHeader(buf []byte) (Header, int, error) {
	var h Header
	n, err := h.Unmarshal(buf)
	if err != nil {
		return Header{}, 0, err
	}

	return h, n, nil
}

// Unmarshal parses the header at the start of buf into h and returns the
// number of bytes consumed.
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|V=2|P|X|  CC   |M|     PT      |       sequence number         |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                           timestamp                           |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|           synchronization source (SSRC) identifier            |
//	+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
//	|            contributing source (CSRC) identifiers             |
//	|                             ....                              |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
func (h *Header) Unmarshal(buf []byte) (int, error) {
	if len(buf) < rtpFixedHeaderLen {
		return 0, fmt.Errorf("%w: %w: %d < %d", StatusParseErr, ErrHeaderTooShort, len(buf), rtpFixedHeaderLen)
	}

	h.Version = buf[0] >> versionShift & versionMask
	if h.Version != rtpVersion {
		return 0, fmt.Errorf("%w: %w: got %d", StatusParseErr, ErrBadVersion, h.Version)
	}
	h.Padding = (buf[0] >> paddingShift & paddingMask) > 0
	h.Extension = (buf[0] >> extensionShift & extensionMask) > 0
	cc := int(buf[0] & ccMask)
	h.Marker = (buf[1] >> markerShift & markerMask) > 0
	h.PayloadType = buf[1] & ptMask
	h.SequenceNumber = binary.BigEndian.Uint16(buf[seqNumOffset:])
	h.Timestamp = binary.BigEndian.Uint32(buf[timestampOffset:])
	h.SSRC = binary.BigEndian.Uint32(buf[ssrcOffset:])

	n := csrcOffset + cc*4
	if len(buf) < n {
		return 0, fmt.Errorf("%w: %w: %d csrc need %d bytes, have %d", StatusParseErr, ErrHeaderTooShort, cc, n, len(buf))
	}
	h.CSRC = nil
	if cc > 0 {
		h.CSRC = make([]uint32, cc)
		for i := range h.CSRC {
			h.CSRC[i] = binary.BigEndian.Uint32(buf[csrcOffset+i*4:])
		}
	}

	h.ExtensionProfile = 0
	h.ExtensionPayload = nil
	if h.Extension {
		if len(buf) < n+rtpExtensionHeadLen {
			return 0, fmt.Errorf("%w: %w: extension header truncated", StatusParseErr, ErrHeaderTooShort)
		}
		h.ExtensionProfile = binary.BigEndian.Uint16(buf[n:])
		extLen := int(binary.BigEndian.Uint16(buf[n+2:])) * 4
		n += rtpExtensionHeadLen

		if len(buf) < n+extLen {
			return 0, fmt.Errorf("%w: %w: extension of %d bytes overruns packet", StatusParseErr, ErrHeaderTooShort, extLen)
		}
		h.ExtensionPayload = append([]byte{}, buf[n:n+extLen]...)
		n += extLen
	}

	return n, nil
}

// MarshalSize returns the serialized size of the header.
func (h Header) MarshalSize() int {
	n := rtpFixedHeaderLen + len(h.CSRC)*4
	if h.Extension {
		n += rtpExtensionHeadLen + len(h.ExtensionPayload)
	}

	return n
}

// Marshal serializes the header. Errors wrap StatusEncodeErr.
func (h Header) Marshal() ([]byte, error) {
	buf := make([]byte, h.MarshalSize())
	n, err := h.MarshalTo(buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}

// MarshalTo serializes the header into buf and returns the number of bytes
// written.
func (h Header) MarshalTo(buf []byte) (int, error) {
	if h.Version != rtpVersion {
		return 0, fmt.Errorf("%w: %w: got %d", StatusEncodeErr, ErrBadVersion, h.Version)
	}
	if len(h.CSRC) > rtpMaxCSRC {
		return 0, fmt.Errorf("%w: %w", StatusEncodeErr, ErrTooManyCSRC)
	}
	if h.Extension && (len(h.ExtensionPayload)%4 != 0 || len(h.ExtensionPayload)/4 > 0xFFFF) {
		return 0, fmt.Errorf("%w: %w: %d", StatusEncodeErr, ErrBadExtensionLength, len(h.ExtensionPayload))
	}

	size := h.MarshalSize()
	if len(buf) < size {
		return 0, fmt.Errorf("%w: %w", StatusEncodeErr, errShortBuffer)
	}

	buf[0] = rtpVersion<<versionShift | uint8(len(h.CSRC))
	if h.Padding {
		buf[0] |= 1 << paddingShift
	}
	if h.Extension {
		buf[0] |= 1 << extensionShift
	}
	buf[1] = h.PayloadType & ptMask
	if h.Marker {
		buf[1] |= 1 << markerShift
	}
	binary.BigEndian.PutUint16(buf[seqNumOffset:], h.SequenceNumber)
	binary.BigEndian.PutUint32(buf[timestampOffset:], h.Timestamp)
	binary.BigEndian.PutUint32(buf[ssrcOffset:], h.SSRC)

	n := csrcOffset
	for _, csrc := range h.CSRC {
		binary.BigEndian.PutUint32(buf[n:], csrc)
		n += 4
	}

	if h.Extension {
		binary.BigEndian.PutUint16(buf[n:], h.ExtensionProfile)
		binary.BigEndian.PutUint16(buf[n+2:], uint16(len(h.ExtensionPayload)/4))
		n += rtpExtensionHeadLen
		n += copy(buf[n:], h.ExtensionPayload)
	}

	return n, nil
}

// rtpHeaderInfo is the part of the header the protect and unprotect paths
// need. It avoids allocating for CSRCs and extensions.
type rtpHeaderInfo struct {
	seq  uint16
	ssrc uint32
	len  int
}

func parseRTPHeaderInfo(buf []byte) (rtpHeaderInfo, error) {
	if len(buf) < rtpFixedHeaderLen {
		return rtpHeaderInfo{}, fmt.Errorf("%w: %w: %d < %d", StatusParseErr, ErrHeaderTooShort, len(buf), rtpFixedHeaderLen)
	}
	if v := buf[0] >> versionShift & versionMask; v != rtpVersion {
		return rtpHeaderInfo{}, fmt.Errorf("%w: %w: got %d", StatusParseErr, ErrBadVersion, v)
	}

	n := csrcOffset + int(buf[0]&ccMask)*4
	if len(buf) < n {
		return rtpHeaderInfo{}, fmt.Errorf("%w: %w: csrc list truncated", StatusParseErr, ErrHeaderTooShort)
	}
	if (buf[0] >> extensionShift & extensionMask) > 0 {
		if len(buf) < n+rtpExtensionHeadLen {
			return rtpHeaderInfo{}, fmt.Errorf("%w: %w: extension header truncated", StatusParseErr, ErrHeaderTooShort)
		}
		n += rtpExtensionHeadLen + int(binary.BigEndian.Uint16(buf[n+2:]))*4
		if len(buf) < n {
			return rtpHeaderInfo{}, fmt.Errorf("%w: %w: extension overruns packet", StatusParseErr, ErrHeaderTooShort)
		}
	}

	return rtpHeaderInfo{
		seq:  binary.BigEndian.Uint16(buf[seqNumOffset:]),
		ssrc: binary.BigEndian.Uint32(buf[ssrcOffset:]),
		len:  n,
	}, nil
}
