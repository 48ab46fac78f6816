// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package srtp implements the Secure Real-time Transport Protocol of
// RFC 3711 with the AES-GCM extension of RFC 7714.
package srtp

import (
	"fmt"
	"sync"

	"github.com/pion/logging"
)

// Engine owns the one time initialization of the crypto kernel and creates
// sessions. Engines are independent of each other, a process may hold any
// number of them.
type Engine struct {
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
	selfTest      bool

	initOnce sync.Once
	initErr  error
}

// NewEngine creates an Engine. Init runs lazily on the first NewSession.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		selfTest: true,
	}

	for _, o := range opts {
		if err := o(e); err != nil {
			return nil, err
		}
	}

	if e.loggerFactory == nil {
		e.loggerFactory = logging.NewDefaultLoggerFactory()
	}
	e.log = e.loggerFactory.NewLogger("srtp")

	return e, nil
}

// Init verifies the cipher and authentication primitives against known
// answers. It runs once, later calls return the first result.
func (e *Engine) Init() error {
	e.initOnce.Do(func() {
		if !e.selfTest {
			e.log.Debug("crypto self test disabled")
			return
		}

		if err := runSelfTests(); err != nil {
			e.initErr = fmt.Errorf("%w: %w", StatusInitFail, err)
			e.log.Errorf("srtp engine failed to initialize: %v", err)

			return
		}
		e.log.Debug("crypto self test passed")
	})

	return e.initErr
}

// NewSession creates a session holding the given streams.
func (e *Engine) NewSession(streams ...StreamConfig) (*Session, error) {
	if err := e.Init(); err != nil {
		return nil, err
	}

	s := newSession(e.loggerFactory)
	for _, config := range streams {
		if _, err := s.AddStream(config); err != nil {
			_ = s.Close()

			return nil, err
		}
	}

	return s, nil
}
