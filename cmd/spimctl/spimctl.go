// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// A utility to exercise the SPI master engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spimctl",
	Short: "spimctl is a utility to exercise the SPI master engine",
	Long:  "spimctl runs transfers through the SPI master protocol engine against simulated slaves, and captures the resulting waveforms",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
