// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// A minimal example exchanging words through the engine with Mosi looped
// back into Miso.
package main

import (
	"fmt"
	"os"

	"github.com/warthog618/go-spimaster"
	"github.com/warthog618/go-spimaster/host"
)

func main() {
	e, err := spimaster.New(spimaster.WithClockDivide(4))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loopback: %s\n", err)
		os.Exit(1)
	}
	h := host.New(e, host.NewSim(host.Loopback{}))
	for _, xfer := range []struct {
		data   uint64
		length int
	}{
		{0xBFA3, 16},
		{0x12BE, 8},
		{0x45EF, 4},
	} {
		res, err := h.Transfer(xfer.data, xfer.length)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loopback: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("sent 0x%04x/%2d => received 0x%04x\n",
			xfer.data, xfer.length, res)
	}
}
