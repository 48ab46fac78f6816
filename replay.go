// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"github.com/pion/transport/v3/replaydetector"
)

const (
	defaultWindowSize = 128
	minWindowSize     = 64
	maxWindowSize     = 0x7FFF
)

// replayWindow is the replay list of RFC 3711 section 3.3.2 over the packet
// indices of one stream. It tells indices that fell behind the window apart
// from indices seen within it.
type replayWindow struct {
	detector replaydetector.ReplayDetector
	size     uint64
	latest   uint64
}

func newReplayWindow(size uint, maxIndex uint64) *replayWindow {
	// The detector is sized in whole words, check enforces size itself.
	words := (size + 63) / 64

	return &replayWindow{
		detector: replaydetector.New(words*64, maxIndex),
		size:     uint64(size),
	}
}

func nopAccept() {}

// check classifies index against the window without changing it. The
// returned accept marks index as received and is called only once the
// packet has been authenticated.
func (w *replayWindow) check(index uint64) (accept func(), status Status) {
	if index <= w.latest && w.latest-index >= w.size {
		return nopAccept, StatusReplayOld
	}

	commit, ok := w.detector.Check(index)
	if !ok {
		return nopAccept, StatusReplayFail
	}

	return func() {
		commit()
		if index > w.latest {
			w.latest = index
		}
	}, StatusOK
}
