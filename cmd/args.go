// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Heckie75/renkforce-bs21-bluetooth-switch/pkg/bs21"
)

// commandSpec describes one user-facing queue command: its parameter
// arity and the translation into a logical engine command. The engine
// receives typed commands, never raw argv.
type commandSpec struct {
	usage  string
	descr  string
	params int
	build  func(q *queuePlan, params []string) error
}

// queuePlan is the parsed queue plus the output the user asked for.
type queuePlan struct {
	commands     []bs21.Command
	printStatus  bool
	printTimers  bool
	printJSON    bool
	enableDebug  bool
}

func parseAction(s string) (bs21.Action, error) {
	switch strings.ToLower(s) {
	case "on":
		return bs21.ActionOn, nil
	case "off":
		return bs21.ActionOff, nil
	}
	return 0, fmt.Errorf("expected on or off, got %q", s)
}

func parseSlot(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > bs21.TimerSlotCount {
		return 0, fmt.Errorf("timer slot must be 1-%d, got %q", bs21.TimerSlotCount, s)
	}
	return n, nil
}

func clockDuration(s string) (time.Duration, error) {
	t, err := bs21.ParseClock(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second, nil
}

// untilDuration computes the span from now until the next occurrence
// of the given wall-clock time.
func untilDuration(s string, now time.Time) (time.Duration, error) {
	t, err := bs21.ParseClock(s)
	if err != nil {
		return 0, err
	}
	then := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, t.Second, 0, now.Location())
	if !then.After(now) {
		then = then.Add(24 * time.Hour)
	}
	return then.Sub(now), nil
}

var commandTable = map[string]commandSpec{
	"on": {
		usage: "-on",
		descr: "power switch on",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.PowerOn())
			return nil
		},
	},
	"off": {
		usage: "-off",
		descr: "power switch off",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.PowerOff())
			return nil
		},
	},
	"status": {
		usage: "-status",
		descr: "read and print the basic information of the switch",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.QueryStatus())
			q.printStatus = true
			return nil
		},
	},
	"timers": {
		usage: "-timers",
		descr: "print all timer, random mode and countdown information",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.QueryInfo())
			q.printTimers = true
			return nil
		},
	},
	"json": {
		usage: "-json",
		descr: "query status and timers, print everything as JSON",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.QueryStatus(), bs21.QueryInfo())
			q.printJSON = true
			return nil
		},
	},
	"sync": {
		usage: "-sync",
		descr: "synchronize the device clock with this computer",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.SyncTime(time.Now()))
			return nil
		},
	},
	"timer": {
		usage:  "-timer <n:1-20> <on|off> <mtwtfss> <hh:mm>",
		descr:  "program a timer slot with action, day mask and start time",
		params: 4,
		build: func(q *queuePlan, p []string) error {
			slot, err := parseSlot(p[0])
			if err != nil {
				return err
			}
			action, err := parseAction(p[1])
			if err != nil {
				return err
			}
			days, err := bs21.ParseDayMask(p[2])
			if err != nil {
				return err
			}
			start, err := bs21.ParseClock(p[3])
			if err != nil {
				return err
			}
			q.commands = append(q.commands,
				bs21.ProgramTimer(slot, action, bs21.Schedule{Days: days, Time: start}))
			return nil
		},
	},
	"timer-clear": {
		usage:  "-timer-clear <n:1-20> <on|off>",
		descr:  "reset a timer slot",
		params: 2,
		build: func(q *queuePlan, p []string) error {
			slot, err := parseSlot(p[0])
			if err != nil {
				return err
			}
			action, err := parseAction(p[1])
			if err != nil {
				return err
			}
			q.commands = append(q.commands, bs21.ClearTimer(slot, action))
			return nil
		},
	},
	"random": {
		usage:  "-random <mtwtfss> <hh:mm> <hh:mm>",
		descr:  "activate random mode with day mask, start time and duration",
		params: 3,
		build: func(q *queuePlan, p []string) error {
			days, err := bs21.ParseDayMask(p[0])
			if err != nil {
				return err
			}
			start, err := bs21.ParseClock(p[1])
			if err != nil {
				return err
			}
			window, err := clockDuration(p[2])
			if err != nil {
				return err
			}
			q.commands = append(q.commands,
				bs21.ProgramRandom(bs21.Schedule{Days: days, Time: start}, window))
			return nil
		},
	},
	"random-clear": {
		usage: "-random-clear",
		descr: "stop random mode",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.ClearRandom())
			return nil
		},
	},
	"countdown-for": {
		usage:  "-countdown-for <on|off> <hh:mm>",
		descr:  "start a countdown with action and duration",
		params: 2,
		build: func(q *queuePlan, p []string) error {
			action, err := parseAction(p[0])
			if err != nil {
				return err
			}
			d, err := clockDuration(p[1])
			if err != nil {
				return err
			}
			q.commands = append(q.commands, bs21.StartCountdown(action, d))
			return nil
		},
	},
	"countdown-until": {
		usage:  "-countdown-until <on|off> <hh:mm>",
		descr:  "start a countdown with action and end time",
		params: 2,
		build: func(q *queuePlan, p []string) error {
			action, err := parseAction(p[0])
			if err != nil {
				return err
			}
			d, err := untilDuration(p[1], time.Now())
			if err != nil {
				return err
			}
			q.commands = append(q.commands, bs21.StartCountdown(action, d))
			return nil
		},
	},
	"countdown-clear": {
		usage: "-countdown-clear",
		descr: "reset the countdown",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.ClearCountdown())
			return nil
		},
	},
	"clear-all": {
		usage: "-clear-all",
		descr: "clear all timers, random mode and countdown",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.ClearAll())
			return nil
		},
	},
	"pin": {
		usage:  "-pin <nnnn>",
		descr:  "set a new 4-digit PIN",
		params: 1,
		build: func(q *queuePlan, p []string) error {
			if err := bs21.ValidatePIN(p[0]); err != nil {
				return err
			}
			q.commands = append(q.commands, bs21.ChangePIN(p[0]))
			return nil
		},
	},
	"visible": {
		usage: "-visible",
		descr: "make the switch discoverable for a while",
		build: func(q *queuePlan, _ []string) error {
			q.commands = append(q.commands, bs21.SetVisible())
			return nil
		},
	},
	"sleep": {
		usage:  "-sleep <seconds>",
		descr:  "stay connected and idle for n seconds between commands",
		params: 1,
		build: func(q *queuePlan, p []string) error {
			n, err := strconv.Atoi(p[0])
			if err != nil || n < 0 || n > 999 {
				return fmt.Errorf("sleep seconds must be 0-999, got %q", p[0])
			}
			q.commands = append(q.commands, bs21.Sleep(time.Duration(n)*time.Second))
			return nil
		},
	},
	"debug": {
		usage: "-debug",
		descr: "log raw frames sent and received",
		build: func(q *queuePlan, _ []string) error {
			q.enableDebug = true
			return nil
		},
	},
}

// parseQueueArgs splits the positional arguments into the target
// device, an optional PIN and the command queue.
func parseQueueArgs(args []string) (target, pin string, plan *queuePlan, err error) {
	plan = &queuePlan{}

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		target = args[0]
		args = args[1:]
	}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		pin = args[0]
		args = args[1:]
	}
	if target == "" {
		return "", "", nil, fmt.Errorf("no device given; pass a MAC address or an alias from ~/.known_bs21")
	}

	for len(args) > 0 {
		name := strings.TrimPrefix(args[0], "-")
		args = args[1:]

		spec, ok := commandTable[name]
		if !ok {
			return "", "", nil, fmt.Errorf("invalid command -%s", name)
		}
		if len(args) < spec.params {
			return "", "", nil, fmt.Errorf("usage: %s: %s", spec.usage, spec.descr)
		}
		if err := spec.build(plan, args[:spec.params]); err != nil {
			return "", "", nil, fmt.Errorf("%s: %w", spec.usage, err)
		}
		args = args[spec.params:]
	}

	if len(plan.commands) == 0 && !plan.enableDebug {
		return "", "", nil, fmt.Errorf("no commands given, what can I do for you?")
	}
	return target, pin, plan, nil
}

// commandHelp renders the queue command reference for the root help
// text.
func commandHelp() string {
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Queue commands:\n")
	for _, name := range names {
		spec := commandTable[name]
		fmt.Fprintf(&b, "  %-42s %s\n", spec.usage, spec.descr)
	}
	return b.String()
}
