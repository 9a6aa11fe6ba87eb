// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-spimaster"
	"github.com/warthog618/go-spimaster/wave"
)

func init() {
	waveCmd.Flags().IntVarP(&waveOpts.Divide, "divide", "d", spimaster.DefaultClockDivide, "host ticks per serial clock period")
	waveCmd.Flags().IntVarP(&waveOpts.MaxLen, "maxlen", "n", spimaster.DefaultMaxLen, "maximum transfer length in bits")
	waveCmd.Flags().BoolVarP(&waveOpts.Echo, "echo", "e", false, "exchange with an echo slave instead of a loopback")
	waveCmd.Flags().StringVarP(&waveOpts.Response, "response", "r", "0xa5", "response word presented by the echo slave")
	waveCmd.Flags().StringVarP(&waveOpts.Format, "format", "f", "txt", "output format - txt or vcd")
	waveCmd.Flags().StringVarP(&waveOpts.Output, "output", "o", "", "write the waveform to a file instead of stdout")
	rootCmd.AddCommand(waveCmd)
}

var (
	waveCmd = &cobra.Command{
		Use:                   "wave [flags] <data>=<length>...",
		Short:                 "Capture the waveform of transfers",
		Long:                  `Run a sequence of transfers through the SPI master engine and write the captured waveform as an ASCII timing diagram or a VCD.`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  waveform,
		DisableFlagsInUseLine: true,
	}
	waveOpts = struct {
		Divide   int
		MaxLen   int
		Echo     bool
		Response string
		Format   string
		Output   string
	}{}
)

func waveform(cmd *cobra.Command, args []string) error {
	r := wave.Recorder{}
	h, _, err := makeHost(waveOpts.Divide, waveOpts.MaxLen, waveOpts.Echo,
		waveOpts.Response, r.Sample)
	if err != nil {
		return err
	}
	for _, arg := range args {
		data, length, err := parseTransfer(arg)
		if err != nil {
			return err
		}
		if _, err = h.Transfer(data, length); err != nil {
			return err
		}
	}
	var w io.Writer = os.Stdout
	if waveOpts.Output != "" {
		f, err := os.Create(waveOpts.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	switch waveOpts.Format {
	case "txt":
		return r.WriteText(w)
	case "vcd":
		return r.WriteVCD(w)
	}
	return fmt.Errorf("unknown format '%s'", waveOpts.Format)
}
