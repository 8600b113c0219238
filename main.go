// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package main

import (
	"fmt"
	"os"

	"github.com/Heckie75/renkforce-bs21-bluetooth-switch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
