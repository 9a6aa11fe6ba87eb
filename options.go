// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package spimaster

// Option specifies a construction option for the Engine.
type Option func(*Engine)

// WithClockDivide sets the number of host ticks per serial clock period.
//
// The divide must be even, so the serial clock has a 50% duty cycle, and at
// least 4.  New fails with ErrClockDivide otherwise.
func WithClockDivide(div int) Option {
	return func(e *Engine) {
		e.clkDiv = div
	}
}

// WithMaxLen sets the maximum transfer length in bits, from 1 to
// MaxLenLimit.  New fails with ErrMaxLen otherwise.
func WithMaxLen(bits int) Option {
	return func(e *Engine) {
		e.maxLen = bits
	}
}
