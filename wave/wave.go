// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package wave captures and analyses the engine signals, one sample per
// host tick.
//
// A Recorder plugs into a host as its monitor, and the resulting capture
// can be checked for protocol properties, dumped as a VCD for a waveform
// viewer, or rendered as an ASCII timing diagram.
package wave

import (
	"fmt"
	"io"

	"github.com/warthog618/go-spimaster"
)

// Sample is the engine line state for one host tick.
type Sample struct {
	Tick  int
	Sclk  int
	Ssz   int
	Mosi  int
	Miso  int
	Ready bool
}

// Recorder accumulates samples of the engine signals.
type Recorder struct {
	samples []Sample
}

// Sample appends one host tick of signal state to the capture.
//
// Matches the monitor function signature of host.WithMonitor.
func (r *Recorder) Sample(tick int, out spimaster.Out, miso int) {
	r.samples = append(r.samples, Sample{
		Tick:  tick,
		Sclk:  out.Sclk,
		Ssz:   out.Ssz,
		Mosi:  out.Mosi,
		Miso:  miso,
		Ready: out.Ready,
	})
}

// Samples returns the captured samples, oldest first.
func (r *Recorder) Samples() []Sample {
	return r.samples
}

// Reset discards the capture.
func (r *Recorder) Reset() {
	r.samples = nil
}

// HalfPeriods returns the length in ticks of each serial clock half period,
// measured between successive serial clock transitions while the select is
// active.
//
// The leading low phase of each transfer, from select asserting to the
// first rising edge, is included, as is the final high phase, whose closing
// falling edge lands on the tick the select deasserts.
func (r *Recorder) HalfPeriods() []int {
	var hp []int
	sel := false
	sclk := 0
	start := 0
	for _, s := range r.samples {
		if !sel {
			if s.Ssz == 0 {
				sel = true
				sclk = s.Sclk
				start = s.Tick
			}
			continue
		}
		if s.Sclk != sclk {
			hp = append(hp, s.Tick-start)
			sclk = s.Sclk
			start = s.Tick
		}
		if s.Ssz != 0 {
			sel = false
		}
	}
	return hp
}

// Edges returns the number of serial clock rising and falling edges in the
// capture.
func (r *Recorder) Edges() (rising, falling int) {
	sclk := 0
	for _, s := range r.samples {
		switch {
		case s.Sclk == 1 && sclk == 0:
			rising++
		case s.Sclk == 0 && sclk == 1:
			falling++
		}
		sclk = s.Sclk
	}
	return
}

// ReadyTransitions returns the number of falling and rising transitions of
// the ready signal in the capture.
func (r *Recorder) ReadyTransitions() (falls, rises int) {
	ready := true
	for _, s := range r.samples {
		switch {
		case !s.Ready && ready:
			falls++
		case s.Ready && !ready:
			rises++
		}
		ready = s.Ready
	}
	return
}

// SelectSpans returns the tick ranges, as [first, last] sample ticks, for
// which the select was active.
func (r *Recorder) SelectSpans() [][2]int {
	var spans [][2]int
	sel := false
	for _, s := range r.samples {
		if s.Ssz == 0 {
			if !sel {
				spans = append(spans, [2]int{s.Tick, s.Tick})
				sel = true
			} else {
				spans[len(spans)-1][1] = s.Tick
			}
		} else {
			sel = false
		}
	}
	return spans
}

// vcd identifier codes for the captured signals, in Sample field order.
var vcdVars = []struct {
	name string
	id   byte
}{
	{"sclk", '!'},
	{"ssz", '"'},
	{"mosi", '#'},
	{"miso", '$'},
	{"ready", '%'},
}

// WriteVCD writes the capture as a value change dump, one timescale unit
// per host tick.
func (r *Recorder) WriteVCD(w io.Writer) error {
	_, err := fmt.Fprintf(w, "$timescale 1ns $end\n$scope module spimaster $end\n")
	if err != nil {
		return err
	}
	for _, v := range vcdVars {
		_, err = fmt.Fprintf(w, "$var wire 1 %c %s $end\n", v.id, v.name)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "$upscope $end\n$enddefinitions $end\n")
	if err != nil {
		return err
	}
	last := []int{-1, -1, -1, -1, -1}
	for _, s := range r.samples {
		levels := []int{s.Sclk, s.Ssz, s.Mosi, s.Miso, b2i(s.Ready)}
		dumped := false
		for i, l := range levels {
			if l == last[i] {
				continue
			}
			if !dumped {
				if _, err = fmt.Fprintf(w, "#%d\n", s.Tick); err != nil {
					return err
				}
				dumped = true
			}
			if _, err = fmt.Fprintf(w, "%d%c\n", l, vcdVars[i].id); err != nil {
				return err
			}
			last[i] = l
		}
	}
	return nil
}

// WriteText writes the capture as an ASCII timing diagram, one column per
// host tick.
func (r *Recorder) WriteText(w io.Writer) error {
	if len(r.samples) == 0 {
		return nil
	}
	rows := []struct {
		name  string
		level func(Sample) int
	}{
		{"sclk ", func(s Sample) int { return s.Sclk }},
		{"ssz  ", func(s Sample) int { return s.Ssz }},
		{"mosi ", func(s Sample) int { return s.Mosi }},
		{"miso ", func(s Sample) int { return s.Miso }},
		{"ready", func(s Sample) int { return b2i(s.Ready) }},
	}
	for _, row := range rows {
		line := make([]byte, len(r.samples))
		for i, s := range r.samples {
			if row.level(s) == 0 {
				line[i] = '_'
			} else {
				line[i] = '-'
			}
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", row.name, line); err != nil {
			return err
		}
	}
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
