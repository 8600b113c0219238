// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Behavior flags
	replyTimeout time.Duration
	debugMode    bool
)

var rootCmd = &cobra.Command{
	Use:   "bs21 [flags] <mac|alias> [pin] -command [params] ...",
	Short: "Renkforce BS-21 Bluetooth power switch command line interface",
	Long: `bs21 controls a Renkforce BS-21 Bluetooth power switch over its
serial command protocol.

The first positional argument selects the device, either as a MAC
address (5C:B6:CC:xx:xx:xx) or as an alias from ~/.known_bs21. An
optional second argument overrides the PIN; without it the PIN comes
from the alias table or an interactive prompt.

Everything after the device is an ordered command queue executed over
one connection, e.g. power on and synchronize the clock:

  bs21 --port /dev/rfcomm0 livingroom -sync -on

Connection modes:
  Serial:    --port /dev/rfcomm0 (an RFCOMM tty bound by the platform
             pairing tool)
  WebSocket: --url ws://host/path [--username user] for a serial bridge

Defaults for the connection flags can live in
~/.config/bs21/config.yaml.

` + commandHelp(),
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		applyConfigDefaults(cmd)
		initLogging()
		return nil
	},
	RunE: runQueue,
}

func init() {
	// Stop flag parsing at the first positional argument so queue
	// commands like "-on" pass through untouched.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (e.g. /dev/rfcomm0)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	rootCmd.PersistentFlags().DurationVar(&replyTimeout, "timeout", 20*time.Second, "Per-command reply timeout")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Log raw frames sent and received")
}

func initLogging() {
	level := zerolog.InfoLevel
	if debugMode {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).With().Timestamp().Logger()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
