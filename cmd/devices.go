// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the known devices from ~/.known_bs21",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := knownDevicesPath()
		devices, err := loadKnownDevices(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(devices) == 0 {
			fmt.Fprintf(out, "no known devices, add lines \"<mac> <pin> [alias]\" to %s\n", path)
			return nil
		}
		for _, dev := range devices {
			fmt.Fprintf(out, "%s  %s  %s\n", dev.Address, dev.PIN, dev.Alias)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
