// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// Package gpio connects the SPI master engine to physical lines using the
// GPIO character device.
//
// Pins implements the host.Conn interface, so a host drives real hardware
// simply by being constructed with one:
//
//  c, _ := gpiocdev.NewChip("gpiochip0")
//  p, _ := gpio.New(c, 11, 8, 10, 9)
//  h := host.New(e, p, host.WithTickPeriod(time.Microsecond))
//
package gpio

import (
	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-spimaster"
)

// Pins holds the GPIO lines carrying the engine signals.
type Pins struct {
	Sclk *gpiocdev.Line
	Ssz  *gpiocdev.Line
	Mosi *gpiocdev.Line
	Miso *gpiocdev.Line
}

// New requests the four lines for the engine signals by offset.
//
// The outputs are claimed at their idle levels - serial clock and data low,
// select inactive high.
func New(c *gpiocdev.Chip, sclk, ssz, mosi, miso int) (*Pins, error) {
	p := Pins{}
	var err error
	defer func() {
		if err != nil {
			p.Close()
		}
	}()
	// hold the slave deselected until needed...
	p.Ssz, err = c.RequestLine(ssz, gpiocdev.AsOutput(1))
	if err != nil {
		return nil, err
	}
	p.Sclk, err = c.RequestLine(sclk, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	p.Mosi, err = c.RequestLine(mosi, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	p.Miso, err = c.RequestLine(miso, gpiocdev.AsInput)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Close releases the requested lines.
func (p *Pins) Close() {
	if p.Sclk != nil {
		p.Sclk.Close()
	}
	if p.Ssz != nil {
		p.Ssz.Close()
	}
	if p.Mosi != nil {
		p.Mosi.Close()
	}
	if p.Miso != nil {
		p.Miso.Close()
	}
}

// Apply drives the engine outputs onto the lines.
//
// The select and data lines are updated before the clock so they are stable
// when the slave sees the clock edge.
func (p *Pins) Apply(out spimaster.Out) error {
	if err := p.Ssz.SetValue(out.Ssz); err != nil {
		return err
	}
	if err := p.Mosi.SetValue(out.Mosi); err != nil {
		return err
	}
	return p.Sclk.SetValue(out.Sclk)
}

// Sample returns the current level of the serial input line.
func (p *Pins) Sample() (int, error) {
	return p.Miso.Value()
}
