// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Heckie75/renkforce-bs21-bluetooth-switch/pkg/bs21"
)

// runQueue executes the root command: resolve the device, build the
// queue and run it over a single connection.
func runQueue(cmd *cobra.Command, args []string) error {
	target, pin, plan, err := parseQueueArgs(args)
	if err != nil {
		return err
	}

	if plan.enableDebug && !debugMode {
		debugMode = true
		initLogging()
	}

	device, err := resolveDevice(target, pin)
	if err != nil {
		return err
	}
	if device.PIN == "" {
		device.PIN, err = promptPIN()
		if err != nil {
			return err
		}
	}

	dialer, connInfo, err := newDialer()
	if err != nil {
		return err
	}
	log.Debug().Str("connection", connInfo).Str("device", device.Address).Msg("starting queue")

	// An interrupt closes the session from whatever state the
	// executor is in.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := bs21.NewExecutor(dialer, device)
	exec.ReplyTimeout = replyTimeout

	state, runErr := exec.Run(ctx, plan.commands)

	if runErr != nil {
		logTrace(exec.Trace())
		return runErr
	}

	return printResults(cmd, plan, state)
}

func printResults(cmd *cobra.Command, plan *queuePlan, state *bs21.State) error {
	out := cmd.OutOrStdout()

	if plan.printJSON {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if plan.printStatus && state.Status != nil {
		fmt.Fprint(out, formatStatus(state))
	}
	if plan.printTimers && state.Timers != nil {
		fmt.Fprint(out, formatTimers(state))
	}
	return nil
}

// logTrace dumps the raw traffic of a failed queue so the offending
// exchange is visible.
func logTrace(trace []bs21.TraceEntry) {
	for _, entry := range trace {
		log.Debug().
			Str("dir", entry.Direction.String()).
			Str("data", entry.Data).
			Msg("trace")
	}
}
