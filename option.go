// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"github.com/pion/logging"
)

// EngineOption configures an Engine.
type EngineOption func(*Engine) error

// WithLoggerFactory sets the factory that creates the loggers of the engine
// and of every session it creates.
func WithLoggerFactory(loggerFactory logging.LoggerFactory) EngineOption {
	return func(e *Engine) error {
		e.loggerFactory = loggerFactory

		return nil
	}
}

// WithSelfTest toggles the known answer tests Init runs. They are on by
// default.
func WithSelfTest(enabled bool) EngineOption {
	return func(e *Engine) error {
		e.selfTest = enabled

		return nil
	}
}
