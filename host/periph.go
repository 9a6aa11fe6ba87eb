// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package host

import "github.com/warthog618/go-spimaster"

// Peripheral models the device on the far end of the serial lines, one host
// tick at a time.
type Peripheral interface {
	// Update presents the current line levels to the peripheral and
	// returns the level it drives back on the serial input line.
	//
	// Called once per host tick, after the master has updated its
	// outputs, so edges can be detected by comparing against the levels
	// from the previous call.
	Update(sclk, ssz, mosi int) int
}

// PeripheralFunc adapts a function to the Peripheral interface.
type PeripheralFunc func(sclk, ssz, mosi int) int

// Update calls f.
func (f PeripheralFunc) Update(sclk, ssz, mosi int) int {
	return f(sclk, ssz, mosi)
}

// Loopback is a Peripheral that wires the serial output straight back into
// the serial input, so a transfer captures exactly the word it shifted out.
type Loopback struct{}

// Update returns mosi.
func (Loopback) Update(sclk, ssz, mosi int) int {
	return mosi
}

// ShiftSlave is a Peripheral modelling a full-duplex SPI slave built around
// a single shift register.
//
// While selected it presents a fixed response word, most significant bit
// first, shifting one bit per serial clock period and wrapping once the
// word is exhausted, while capturing the inbound bits.  Deselecting rewinds
// the response to its first bit, so each transfer sees the response from
// the start.
type ShiftSlave struct {
	resp  uint64
	width int
	// next response bit to present
	pos int
	// bits captured while last selected
	rx       uint64
	selected bool
	sclk     int
}

// NewShiftSlave creates a ShiftSlave with a response word of width bits.
func NewShiftSlave(resp uint64, width int) *ShiftSlave {
	return &ShiftSlave{resp: resp, width: width}
}

// Received returns the bits captured while the slave was last selected, the
// most recent in bit 0.
func (s *ShiftSlave) Received() uint64 {
	return s.rx
}

// SetResponse replaces the response word presented on subsequent selects.
func (s *ShiftSlave) SetResponse(resp uint64) {
	s.resp = resp
}

// Update advances the slave by one host tick.
func (s *ShiftSlave) Update(sclk, ssz, mosi int) int {
	if ssz != 0 {
		s.selected = false
		s.sclk = sclk
		return 0
	}
	if !s.selected {
		s.selected = true
		s.pos = s.width - 1
		s.rx = 0
	}
	switch {
	case sclk == 1 && s.sclk == 0:
		s.rx = s.rx<<1 | uint64(mosi&1)
	case sclk == 0 && s.sclk == 1:
		s.pos--
		if s.pos < 0 {
			s.pos = s.width - 1
		}
	}
	s.sclk = sclk
	return int(s.resp>>uint(s.pos)) & 1
}

// sim is a Conn backed by a simulated peripheral - no real lines, so Apply
// and Sample cannot fail.
type sim struct {
	p    Peripheral
	miso int
}

// NewSim returns a Conn connecting the engine outputs to a simulated
// peripheral.
func NewSim(p Peripheral) Conn {
	return &sim{p: p}
}

func (s *sim) Apply(out spimaster.Out) error {
	s.miso = s.p.Update(out.Sclk, out.Ssz, out.Mosi)
	return nil
}

func (s *sim) Sample() (int, error) {
	return s.miso, nil
}
