// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// A utility to run SPI master transfers against a simulated slave.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/keys"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/go-spimaster"
	"github.com/warthog618/go-spimaster/host"
)

var version = "undefined"

func main() {
	cfg, flags := loadConfig()
	e, err := spimaster.New(
		spimaster.WithClockDivide(int(cfg.MustGet("divide").Int())),
		spimaster.WithMaxLen(int(cfg.MustGet("maxlen").Int())))
	if err != nil {
		die(err.Error())
	}
	var p host.Peripheral = host.Loopback{}
	if cfg.MustGet("echo").Bool() {
		resp, err := strconv.ParseUint(cfg.MustGet("response").String(), 0, 64)
		if err != nil {
			die("can't parse response: " + err.Error())
		}
		p = host.NewShiftSlave(resp, 8)
	}
	h := host.New(e, host.NewSim(p))
	width := (e.MaxLen() + 3) / 4
	for _, arg := range flags.Args() {
		data, length, err := parseTransfer(arg)
		if err != nil {
			die(err.Error())
		}
		res, err := h.Transfer(data, length)
		if err != nil {
			die(err.Error())
		}
		fmt.Printf("0x%0*x\n", width, res)
	}
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

func loadConfig() (*config.Config, *pflag.Getter) {
	ff := []pflag.Flag{
		{Short: 'h', Name: "help", Options: pflag.IsBool},
		{Short: 'v', Name: "version", Options: pflag.IsBool},
		{Short: 'c', Name: "config-file"},
		{Short: 'd', Name: "divide"},
		{Short: 'n', Name: "maxlen"},
		{Short: 'e', Name: "echo", Options: pflag.IsBool},
		{Short: 'r', Name: "response"},
	}
	defaults := dict.New(dict.WithMap(
		map[string]interface{}{
			"help":        false,
			"version":     false,
			"config-file": "spixfer.json",
			"divide":      spimaster.DefaultClockDivide,
			"maxlen":      spimaster.DefaultMaxLen,
			"echo":        false,
			"response":    "0xa5",
		}))
	flags := pflag.New(pflag.WithFlags(ff),
		pflag.WithKeyReplacer(keys.NullReplacer()),
	)
	cfg := config.New(flags,
		env.New(env.WithEnvPrefix("SPIXFER_")),
		config.WithDefault(defaults))
	cfg.Append(
		blob.NewConfigFile(cfg, "config-file", "spixfer.json", json.NewDecoder()))
	if cfg.MustGet("help").Bool() {
		printHelp()
		os.Exit(0)
	}
	if cfg.MustGet("version").Bool() {
		printVersion()
		os.Exit(0)
	}
	if flags.NArg() == 0 {
		die("at least one transfer must be specified")
	}
	return cfg, flags
}

func die(reason string) {
	fmt.Fprintln(os.Stderr, "spixfer: "+reason)
	os.Exit(1)
}

func printHelp() {
	fmt.Printf("Usage: %s [OPTIONS] <data>=<length>...\n", os.Args[0])
	fmt.Println("Run SPI master transfers against a simulated slave and print the captured words.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help:\t\tdisplay this message and exit")
	fmt.Println("  -v, --version:\tdisplay the version and exit")
	fmt.Println("  -d, --divide=NUM:\thost ticks per serial clock period (even, at least 4)")
	fmt.Println("  -n, --maxlen=NUM:\tmaximum transfer length in bits")
	fmt.Println("  -e, --echo:\t\texchange with an echo slave instead of a loopback")
	fmt.Println("  -r, --response=WORD:\tresponse word presented by the echo slave")
}

func printVersion() {
	fmt.Printf("%s (go-spimaster) %s\n", os.Args[0], version)
}
