// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package spimaster_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-spimaster"
)

func BenchmarkTick(b *testing.B) {
	e, err := spimaster.New(spimaster.WithMaxLen(spimaster.MaxLenLimit))
	require.Nil(b, err)
	out := e.Tick(spimaster.In{Request: true, Data: 0xBFA3, Length: 64})
	for i := 0; i < b.N; i++ {
		out = e.Tick(spimaster.In{Miso: out.Mosi})
		if out.Ready {
			out = e.Tick(spimaster.In{Request: true, Data: 0xBFA3, Length: 64})
		}
	}
}

func BenchmarkTransfer(b *testing.B) {
	e, err := spimaster.New()
	require.Nil(b, err)
	for i := 0; i < b.N; i++ {
		out := e.Tick(spimaster.In{Request: true, Data: 0xBFA3, Length: 16})
		for !out.Ready {
			out = e.Tick(spimaster.In{Miso: out.Mosi})
		}
	}
}
