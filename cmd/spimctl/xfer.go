// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-spimaster"
	"github.com/warthog618/go-spimaster/host"
)

func init() {
	xferCmd.Flags().IntVarP(&xferOpts.Divide, "divide", "d", spimaster.DefaultClockDivide, "host ticks per serial clock period")
	xferCmd.Flags().IntVarP(&xferOpts.MaxLen, "maxlen", "n", spimaster.DefaultMaxLen, "maximum transfer length in bits")
	xferCmd.Flags().BoolVarP(&xferOpts.Echo, "echo", "e", false, "exchange with an echo slave instead of a loopback")
	xferCmd.Flags().StringVarP(&xferOpts.Response, "response", "r", "0xa5", "response word presented by the echo slave")
	rootCmd.AddCommand(xferCmd)
}

var (
	xferCmd = &cobra.Command{
		Use:                   "xfer [flags] <data>=<length>...",
		Short:                 "Run transfers through the engine",
		Long:                  `Run a sequence of transfers through the SPI master engine and print the captured words.`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  xfer,
		DisableFlagsInUseLine: true,
	}
	xferOpts = struct {
		Divide   int
		MaxLen   int
		Echo     bool
		Response string
	}{}
)

func xfer(cmd *cobra.Command, args []string) error {
	h, e, err := makeHost(xferOpts.Divide, xferOpts.MaxLen, xferOpts.Echo,
		xferOpts.Response, nil)
	if err != nil {
		return err
	}
	width := (e.MaxLen() + 3) / 4
	for _, arg := range args {
		data, length, err := parseTransfer(arg)
		if err != nil {
			return err
		}
		res, err := h.Transfer(data, length)
		if err != nil {
			return err
		}
		fmt.Printf("0x%0*x\n", width, res)
	}
	return nil
}

// makeHost builds an engine and host against the selected simulated slave.
func makeHost(divide, maxlen int, echo bool, response string,
	monitor func(int, spimaster.Out, int)) (*host.Host, *spimaster.Engine, error) {
	e, err := spimaster.New(
		spimaster.WithClockDivide(divide),
		spimaster.WithMaxLen(maxlen))
	if err != nil {
		return nil, nil, err
	}
	var p host.Peripheral = host.Loopback{}
	if echo {
		resp, err := strconv.ParseUint(response, 0, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("can't parse response '%s'", response)
		}
		p = host.NewShiftSlave(resp, 8)
	}
	opts := []host.Option(nil)
	if monitor != nil {
		opts = append(opts, host.WithMonitor(monitor))
	}
	return host.New(e, host.NewSim(p), opts...), e, nil
}

// parseTransfer splits a <data>=<length> argument.
func parseTransfer(arg string) (uint64, int, error) {
	f := strings.SplitN(arg, "=", 2)
	if len(f) != 2 {
		return 0, 0, fmt.Errorf("expected <data>=<length>, got '%s'", arg)
	}
	data, err := strconv.ParseUint(f[0], 0, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("can't parse data '%s'", f[0])
	}
	length, err := strconv.ParseUint(f[1], 10, 7)
	if err != nil {
		return 0, 0, fmt.Errorf("can't parse length '%s'", f[1])
	}
	return data, int(length), nil
}
