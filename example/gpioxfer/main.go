// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// An example driving the engine onto physical GPIO lines.
//
// The default offsets match the Raspberry Pi SPI0 pins.  All lines other
// than Miso are driven as outputs, so do not run this example on a board
// where those pins serve other purposes.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-spimaster"
	"github.com/warthog618/go-spimaster/gpio"
	"github.com/warthog618/go-spimaster/host"
)

func main() {
	c, err := gpiocdev.NewChip("gpiochip0", gpiocdev.WithConsumer("gpioxfer"))
	if err != nil {
		die(err)
	}
	p, err := gpio.New(c, 11, 8, 10, 9)
	c.Close()
	if err != nil {
		die(err)
	}
	defer p.Close()
	e, err := spimaster.New(spimaster.WithClockDivide(4))
	if err != nil {
		die(err)
	}
	// 4 ticks per period at 1µs per tick - a 250kHz serial clock
	h := host.New(e, p, host.WithTickPeriod(time.Microsecond))
	res, err := h.Transfer(0xBFA3, 16)
	if err != nil {
		die(err)
	}
	fmt.Printf("received 0x%04x\n", res)
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "gpioxfer: %s\n", err)
	os.Exit(1)
}
