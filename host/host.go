// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package host provides a synchronous controller for the SPI master engine.
//
// The Host owns an engine and the connection its signals are driven onto,
// and runs the tick loop and request/ready handshake so callers can exchange
// whole words or byte streams with blocking calls.
package host

import (
	"errors"
	"time"

	"github.com/warthog618/go-spimaster"
)

var (
	// ErrInvalidLength indicates a transfer length outside the range
	// supported by the engine.
	ErrInvalidLength = errors.New("length must be between 1 and the engine max length")

	// ErrTickLimit indicates a transfer did not complete within the
	// allowed number of host ticks.
	//
	// The abandoned transfer is left in flight - Reset the host before
	// reuse.
	ErrTickLimit = errors.New("tick limit exceeded")
)

// Conn is a connection the engine outputs are driven onto.
//
// The gpio package provides a Conn backed by GPIO lines, and NewSim wraps a
// simulated peripheral in one.
type Conn interface {
	// Apply drives the engine outputs onto the connection.
	Apply(spimaster.Out) error

	// Sample returns the current level of the serial input line.
	Sample() (int, error)
}

// Host drives an Engine against a Conn.
type Host struct {
	eng  *spimaster.Engine
	conn Conn
	// host ticks allowed per transfer, 0 for a length-derived default
	tickLimit int
	// real time per host tick, 0 to tick flat out
	tclk    time.Duration
	monitor func(tick int, out spimaster.Out, miso int)
	// line state carried between ticks
	miso int
	tick int
}

// New creates a Host for the engine and connection.
func New(eng *spimaster.Engine, conn Conn, options ...Option) *Host {
	h := Host{eng: eng, conn: conn}
	for _, option := range options {
		option(&h)
	}
	return &h
}

// Reset forces the engine to idle and reapplies the idle levels to the
// connection.
func (h *Host) Reset() error {
	h.eng.Reset()
	h.miso = 0
	out := h.eng.Tick(spimaster.In{})
	return h.conn.Apply(out)
}

// Transfer exchanges a single word of length bits, returning the captured
// word.
//
// Blocks until the transfer completes, ticking the engine and updating the
// connection once per host tick.
func (h *Host) Transfer(data uint64, length int) (uint64, error) {
	if length < 1 || length > h.eng.MaxLen() {
		return 0, ErrInvalidLength
	}
	limit := h.tickLimit
	if limit == 0 {
		// a transfer occupies length periods plus the accept tick
		limit = 2 * (1 + length*h.eng.ClockDivide())
	}
	// request until accepted - ready falling
	in := spimaster.In{Request: true, Data: data, Length: length}
	out, err := h.step(in)
	if err != nil {
		return 0, err
	}
	for ticks := 1; out.Ready; ticks++ {
		if ticks >= limit {
			return 0, ErrTickLimit
		}
		out, err = h.step(in)
		if err != nil {
			return 0, err
		}
	}
	// accepted, so deassert request and run to completion - ready rising
	in = spimaster.In{}
	for ticks := 1; !out.Ready; ticks++ {
		if ticks >= limit {
			return 0, ErrTickLimit
		}
		out, err = h.step(in)
		if err != nil {
			return 0, err
		}
	}
	return out.Result, nil
}

// Tx exchanges bytes full-duplex, w outbound and r inbound, as a sequence of
// 8-bit transfers.
//
// The exchange continues for the longer of the two buffers, with w padded
// with zeros and excess inbound bytes discarded.  Requires an engine with a
// max length of at least 8.
func (h *Host) Tx(w, r []byte) error {
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		var d uint64
		if i < len(w) {
			d = uint64(w[i])
		}
		v, err := h.Transfer(d, 8)
		if err != nil {
			return err
		}
		if i < len(r) {
			r[i] = byte(v)
		}
	}
	return nil
}

// Write shifts out the bytes in w, discarding the inbound bytes.
func (h *Host) Write(w []byte) error {
	return h.Tx(w, nil)
}

// Read shifts in len(r) bytes while shifting out zeros.
func (h *Host) Read(r []byte) error {
	return h.Tx(nil, r)
}

// step advances the engine and connection by one host tick.
func (h *Host) step(in spimaster.In) (spimaster.Out, error) {
	if h.tclk != 0 {
		time.Sleep(h.tclk)
	}
	in.Miso = h.miso
	out := h.eng.Tick(in)
	if err := h.conn.Apply(out); err != nil {
		return out, err
	}
	miso, err := h.conn.Sample()
	if err != nil {
		return out, err
	}
	h.miso = miso
	h.tick++
	if h.monitor != nil {
		h.monitor(h.tick, out, miso)
	}
	return out, nil
}

// Option specifies a construction option for the Host.
type Option func(*Host)

// WithTickLimit caps the number of host ticks a single transfer may take
// before failing with ErrTickLimit.
//
// The default limit is derived from the transfer length and clock divide.
func WithTickLimit(ticks int) Option {
	return func(h *Host) {
		h.tickLimit = ticks
	}
}

// WithTickPeriod sets the real time per host tick.
//
// The default is to tick as fast as possible, which suits simulated
// connections.  Connections to physical lines need a period long enough to
// satisfy the timing of the device on the other end - the serial clock
// period is the tick period times the engine clock divide.
func WithTickPeriod(tclk time.Duration) Option {
	return func(h *Host) {
		h.tclk = tclk
	}
}

// WithMonitor sets a function called after every host tick with the engine
// outputs and sampled input for that tick, such as the Sample method of a
// wave.Recorder.
func WithMonitor(m func(tick int, out spimaster.Out, miso int)) Option {
	return func(h *Host) {
		h.monitor = m
	}
}
