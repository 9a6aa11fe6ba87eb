// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package spimaster_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-spimaster"
)

func TestNew(t *testing.T) {
	// default
	e, err := spimaster.New()
	assert.Nil(t, err)
	require.NotNil(t, e)
	assert.Equal(t, spimaster.DefaultClockDivide, e.ClockDivide())
	assert.Equal(t, spimaster.DefaultMaxLen, e.MaxLen())
	assert.False(t, e.Busy())

	// options
	e, err = spimaster.New(
		spimaster.WithClockDivide(10),
		spimaster.WithMaxLen(32))
	assert.Nil(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 10, e.ClockDivide())
	assert.Equal(t, 32, e.MaxLen())

	// bad clock divide
	for _, div := range []int{-4, 0, 2, 5, 7} {
		e, err = spimaster.New(spimaster.WithClockDivide(div))
		assert.Equal(t, spimaster.ErrClockDivide, err, "divide %d", div)
		assert.Nil(t, e)
	}

	// bad max length
	for _, bits := range []int{-1, 0, 65} {
		e, err = spimaster.New(spimaster.WithMaxLen(bits))
		assert.Equal(t, spimaster.ErrMaxLen, err, "maxlen %d", bits)
		assert.Nil(t, e)
	}
}

func TestTickIdle(t *testing.T) {
	e := getEngine(t)
	for i := 0; i < 10; i++ {
		out := e.Tick(spimaster.In{})
		assert.True(t, out.Ready)
		assert.Equal(t, 0, out.Sclk)
		assert.Equal(t, 0, out.Mosi)
		assert.Equal(t, 1, out.Ssz)
		assert.Equal(t, uint64(0), out.Result)
	}
}

func TestTickAccept(t *testing.T) {
	e := getEngine(t)
	out := e.Tick(spimaster.In{Request: true, Data: 0xBFA3, Length: 16})
	assert.False(t, out.Ready)
	assert.Equal(t, 0, out.Sclk)
	assert.Equal(t, 0, out.Ssz)
	// msb of the requested word presented immediately
	assert.Equal(t, 1, out.Mosi)
	assert.Equal(t, uint64(0), out.Result)
	assert.True(t, e.Busy())
}

func TestTransferLoopback(t *testing.T) {
	patterns := []struct {
		data   uint64
		length int
		xk     uint64
	}{
		{0xBFA3, 16, 0xBFA3},
		{0x12BE, 8, 0x00BE},
		{0x45EF, 4, 0x000F},
		{0x0001, 1, 0x0001},
		{0xFFFE, 1, 0x0000},
		{0xAAAA, 16, 0xAAAA},
		{0x5555, 15, 0x5555},
		{0xFFFF, 16, 0xFFFF},
		{0x0000, 16, 0x0000},
	}
	for _, div := range []int{4, 6, 10} {
		for _, p := range patterns {
			tname := fmt.Sprintf("div%d_%#x/%d", div, p.data, p.length)
			t.Run(tname, func(t *testing.T) {
				e, err := spimaster.New(spimaster.WithClockDivide(div))
				require.Nil(t, err)
				res, ticks := xfer(t, e, p.data, p.length)
				assert.Equal(t, p.xk, res)
				// accept tick plus one serial clock period per bit
				assert.Equal(t, 1+p.length*div, ticks)
			})
		}
	}
}

func TestTransferAllLengths(t *testing.T) {
	e, err := spimaster.New(spimaster.WithMaxLen(spimaster.MaxLenLimit))
	require.Nil(t, err)
	data := uint64(0xBFA3_45EF_12BE_A55A)
	for length := 1; length <= spimaster.MaxLenLimit; length++ {
		res, _ := xfer(t, e, data, length)
		xk := data
		if length < 64 {
			xk = data & (1<<uint(length) - 1)
		}
		assert.Equal(t, xk, res, "length %d", length)
	}
}

func TestSerialClockHalfPeriods(t *testing.T) {
	for _, div := range []int{4, 6, 8, 12} {
		t.Run(fmt.Sprintf("div%d", div), func(t *testing.T) {
			e, err := spimaster.New(spimaster.WithClockDivide(div))
			require.Nil(t, err)
			out := e.Tick(spimaster.In{Request: true, Data: 0xA3, Length: 8})
			require.False(t, out.Ready)
			sclk := out.Sclk
			run := 1
			for !out.Ready {
				out = e.Tick(spimaster.In{Miso: out.Mosi})
				if out.Sclk == sclk {
					run++
					continue
				}
				assert.Equal(t, div/2, run)
				sclk = out.Sclk
				run = 1
			}
			// the final falling edge coincides with completion
			assert.Equal(t, 0, out.Sclk)
		})
	}
}

func TestReadyHandshake(t *testing.T) {
	e := getEngine(t)
	falls, rises := 0, 0
	ready := true
	out := e.Tick(spimaster.In{Request: true, Data: 0x2B, Length: 6})
	for i := 0; i < 100; i++ {
		if out.Ready != ready {
			if out.Ready {
				rises++
			} else {
				falls++
			}
			ready = out.Ready
		}
		out = e.Tick(spimaster.In{Miso: out.Mosi})
	}
	// exactly one acceptance and one completion - no glitches
	assert.Equal(t, 1, falls)
	assert.Equal(t, 1, rises)
}

func TestRequestWhileBusyIgnored(t *testing.T) {
	e := getEngine(t)
	out := e.Tick(spimaster.In{Request: true, Data: 0xA3, Length: 8})
	require.False(t, out.Ready)
	ticks := 1
	for !out.Ready {
		require.True(t, ticks < 100)
		// conflicting request - held while busy so never accepted
		out = e.Tick(spimaster.In{
			Request: true,
			Data:    0x51,
			Length:  4,
			Miso:    out.Mosi,
		})
		ticks++
	}
	assert.Equal(t, uint64(0xA3), out.Result)
	assert.Equal(t, 1+8*e.ClockDivide(), ticks)
}

func TestRequestBadLengthIgnored(t *testing.T) {
	e := getEngine(t)
	for _, length := range []int{-1, 0, e.MaxLen() + 1} {
		out := e.Tick(spimaster.In{Request: true, Data: 0xff, Length: length})
		assert.True(t, out.Ready, "length %d", length)
		assert.Equal(t, 1, out.Ssz, "length %d", length)
		assert.False(t, e.Busy(), "length %d", length)
	}
}

func TestReset(t *testing.T) {
	e := getEngine(t)

	// mid transfer
	out := e.Tick(spimaster.In{Request: true, Data: 0xBFA3, Length: 16})
	for i := 0; i < 9; i++ {
		out = e.Tick(spimaster.In{Miso: out.Mosi})
	}
	require.True(t, e.Busy())
	e.Reset()
	assert.False(t, e.Busy())
	out = e.Tick(spimaster.In{})
	assert.True(t, out.Ready)
	assert.Equal(t, 0, out.Sclk)
	assert.Equal(t, 0, out.Mosi)
	assert.Equal(t, 1, out.Ssz)
	// the discarded transfer never produces a result
	assert.Equal(t, uint64(0), out.Result)

	// engine fully usable after reset
	res, _ := xfer(t, e, 0x45EF, 4)
	assert.Equal(t, uint64(0x000F), res)
}

func TestResultStable(t *testing.T) {
	e := getEngine(t)
	res, _ := xfer(t, e, 0x12BE, 8)
	require.Equal(t, uint64(0x00BE), res)
	for i := 0; i < 20; i++ {
		out := e.Tick(spimaster.In{})
		assert.Equal(t, uint64(0x00BE), out.Result)
	}
	// cleared on the next acceptance
	out := e.Tick(spimaster.In{Request: true, Data: 0xffff, Length: 16})
	require.False(t, out.Ready)
	assert.Equal(t, uint64(0), out.Result)
}

func TestMosiSequence(t *testing.T) {
	e := getEngine(t)
	data := uint64(0xB5)
	length := 8
	out := e.Tick(spimaster.In{Request: true, Data: data, Length: length})
	bits := []int{out.Mosi}
	sclk := 0
	for !out.Ready {
		out = e.Tick(spimaster.In{Miso: out.Mosi})
		if out.Sclk == 0 && sclk == 1 && !out.Ready {
			bits = append(bits, out.Mosi)
		}
		sclk = out.Sclk
	}
	require.Equal(t, length, len(bits))
	for i, b := range bits {
		assert.Equal(t, int(data>>uint(length-i-1))&1, b, "bit %d", i)
	}
}

func getEngine(t *testing.T) *spimaster.Engine {
	t.Helper()
	e, err := spimaster.New()
	require.Nil(t, err)
	require.NotNil(t, e)
	return e
}

// xfer runs a complete transfer through e with Mosi looped back to Miso,
// returning the captured word and the total number of host ticks taken.
func xfer(t *testing.T, e *spimaster.Engine, data uint64, length int) (uint64, int) {
	t.Helper()
	out := e.Tick(spimaster.In{Request: true, Data: data, Length: length})
	require.False(t, out.Ready)
	ticks := 1
	limit := (length + 2) * e.ClockDivide() * 2
	for !out.Ready {
		require.True(t, ticks < limit, "transfer did not complete")
		// select active exactly while busy
		require.Equal(t, 0, out.Ssz)
		out = e.Tick(spimaster.In{Miso: out.Mosi})
		ticks++
	}
	require.Equal(t, 1, out.Ssz)
	return out.Result, ticks
}
