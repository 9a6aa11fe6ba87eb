// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package spimaster provides a tick driven SPI master protocol engine.
//
// The engine serialises a data word onto Mosi while sampling Miso, driving
// Sclk at a configurable sub-multiple of the host tick rate, and asserting
// the active-low Ssz for the duration of the transfer.  It is the logical
// core of a bit bashed SPI master - what to drive onto the lines and when -
// with the physical lines themselves left to the caller.  The gpio
// sub-package drives the lines using GPIO pins, while the host sub-package
// drives them against simulated peripherals.
//
// The engine is clocked externally - the caller applies inputs and advances
// it one host tick at a time using Tick:
//
//  e, err := spimaster.New()
//  if err != nil {
//  	panic(err)
//  }
//  out := e.Tick(spimaster.In{Request: true, Data: 0xa5, Length: 8})
//  for !out.Ready {
//  	out = e.Tick(spimaster.In{Miso: miso})
//  	// drive out.Sclk, out.Ssz and out.Mosi onto the lines,
//  	// and sample miso for the next tick...
//  }
//  rx := out.Result
//
// All state transitions occur within Tick, so an engine requires no
// synchronisation beyond having a single caller.
package spimaster

import "errors"

const (
	// DefaultClockDivide is the number of host ticks per serial clock
	// period if not overridden by WithClockDivide.
	DefaultClockDivide = 4

	// DefaultMaxLen is the maximum transfer length, in bits, if not
	// overridden by WithMaxLen.
	DefaultMaxLen = 16

	// MaxLenLimit is the largest supported transfer length in bits, set by
	// the width of the transfer words.
	MaxLenLimit = 64
)

var (
	// ErrClockDivide indicates the clock divide option is odd or too small
	// to generate a 50% duty cycle serial clock.
	ErrClockDivide = errors.New("clock divide must be even and at least 4")

	// ErrMaxLen indicates the max length option is outside the supported
	// range.
	ErrMaxLen = errors.New("max length must be between 1 and 64")
)

// In contains the engine inputs applied for one host tick.
type In struct {
	// Request indicates Data and Length describe a transfer to be started.
	//
	// A request is only accepted while the engine is idle - Ready deasserts
	// on the tick the request is accepted.  Requests applied while busy are
	// ignored, as are requests with a Length outside [1, MaxLen].
	Request bool

	// Data is the word to shift out, in the low Length bits.
	//
	// Bit Length-1 is shifted out first.  Only sampled on the tick a
	// request is accepted.
	Data uint64

	// Length is the number of bits to transfer.
	Length int

	// Miso is the current level of the serial input line.
	//
	// Sampled on serial clock rising edges.
	Miso int
}

// Out contains the engine outputs as of the end of a host tick.
type Out struct {
	// Ready indicates the engine is idle and will accept a request.
	//
	// Ready falling means a request has just been accepted, and Ready
	// rising means a transfer has just completed.
	Ready bool

	// Sclk is the serial clock level - idle low, toggling with 50% duty
	// cycle during a transfer.
	Sclk int

	// Mosi is the serial output level - the current outbound bit during a
	// transfer and low otherwise.
	Mosi int

	// Ssz is the active-low slave select - low exactly while a transfer is
	// in flight.
	Ssz int

	// Result is the word captured by the most recently completed transfer,
	// in the low bits corresponding to its length.
	//
	// Cleared when a request is accepted and stable from the completion of
	// the transfer until the next request is accepted.
	Result uint64
}

type phase int

const (
	idle phase = iota
	busy
)

// Engine is a SPI master protocol engine.
//
// The zero value is not usable - engines must be constructed with New.
type Engine struct {
	// construction time configuration
	clkDiv int
	half   int
	maxLen int

	phase phase
	// host ticks into the current serial clock half period
	div  int
	sclk int
	// serial clock rising edges produced so far this transfer
	edges  int
	target int
	mosi   int
	// latched copy of the requested data word
	tx uint64
	// bits captured from Miso during the current transfer
	rx uint64
	// rx as of the last completed transfer
	result uint64
}

// New creates a new Engine in the reset state.
func New(options ...Option) (*Engine, error) {
	e := Engine{
		clkDiv: DefaultClockDivide,
		maxLen: DefaultMaxLen,
	}
	for _, option := range options {
		option(&e)
	}
	if e.clkDiv < 4 || e.clkDiv%2 != 0 {
		return nil, ErrClockDivide
	}
	if e.maxLen < 1 || e.maxLen > MaxLenLimit {
		return nil, ErrMaxLen
	}
	e.half = e.clkDiv / 2
	return &e, nil
}

// ClockDivide returns the number of host ticks per serial clock period.
func (e *Engine) ClockDivide() int {
	return e.clkDiv
}

// MaxLen returns the maximum transfer length in bits.
func (e *Engine) MaxLen() int {
	return e.maxLen
}

// Busy returns true while a transfer is in flight.
func (e *Engine) Busy() bool {
	return e.phase == busy
}

// Reset forces the engine to idle.
//
// Any transfer in flight is discarded without completing - it never produces
// a Ready rising edge or a result.
func (e *Engine) Reset() {
	e.phase = idle
	e.div = 0
	e.sclk = 0
	e.edges = 0
	e.target = 0
	e.mosi = 0
	e.tx = 0
	e.rx = 0
	e.result = 0
}

// Tick advances the engine by one host tick.
//
// All four behaviours - request handshake, serial clock generation, shift
// out and sample in - advance in lock-step within the one call, so the
// returned outputs are always mutually consistent.
func (e *Engine) Tick(in In) Out {
	switch e.phase {
	case idle:
		if in.Request && in.Length >= 1 && in.Length <= e.maxLen {
			e.accept(in)
		}
	case busy:
		e.div++
		if e.div == e.half {
			e.div = 0
			if e.sclk == 0 {
				e.rise(in.Miso)
			} else {
				e.fall()
			}
		}
	}
	return e.out()
}

// accept latches a transfer request and starts the serial clock low phase.
//
// The first outbound bit is presented immediately so it is stable well
// before the first rising edge.
func (e *Engine) accept(in In) {
	e.phase = busy
	e.div = 0
	e.sclk = 0
	e.edges = 0
	e.target = in.Length
	e.tx = in.Data
	e.rx = 0
	e.result = 0
	e.mosi = bit(e.tx, e.target-1)
}

// rise produces a serial clock rising edge, capturing the inbound bit.
//
// The capture lands at the bit position matching the outbound bit presented
// for this edge, so a loopback of Mosi to Miso reproduces the low target
// bits of the request exactly.
func (e *Engine) rise(miso int) {
	e.sclk = 1
	e.rx = setBit(e.rx, e.target-e.edges-1, miso)
	e.edges++
}

// fall produces a serial clock falling edge, presenting the next outbound
// bit, or completes the transfer once all edges have been produced.
func (e *Engine) fall() {
	e.sclk = 0
	if e.edges == e.target {
		e.result = e.rx
		e.mosi = 0
		e.phase = idle
		return
	}
	e.mosi = bit(e.tx, e.target-e.edges-1)
}

func (e *Engine) out() Out {
	o := Out{
		Sclk:   e.sclk,
		Mosi:   e.mosi,
		Ssz:    1,
		Result: e.result,
	}
	if e.phase == idle {
		o.Ready = true
	} else {
		o.Ssz = 0
	}
	return o
}

// bit returns the value of bit n of v.
func bit(v uint64, n int) int {
	return int(v>>uint(n)) & 1
}

// setBit returns v with bit n set to b.
func setBit(v uint64, n, b int) uint64 {
	if b == 0 {
		return v &^ (1 << uint(n))
	}
	return v | (1 << uint(n))
}
