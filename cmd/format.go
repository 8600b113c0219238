// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"fmt"
	"strings"

	"github.com/Heckie75/renkforce-bs21-bluetooth-switch/pkg/bs21"
)

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// formatStatus renders the identity block of a snapshot.
func formatStatus(state *bs21.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Device:    %s", state.Device.Address)
	if state.Device.Alias != "" {
		fmt.Fprintf(&b, " (%s)", state.Device.Alias)
	}
	b.WriteByte('\n')

	st := state.Status
	fmt.Fprintf(&b, "Model:     %s, serial %s, firmware %s\n", st.Model, st.Serial, st.Firmware)
	fmt.Fprintf(&b, "Relay:     %s\n", onOff(st.On))
	fmt.Fprintf(&b, "Power:     %s\n", yesNo(st.Power))
	fmt.Fprintf(&b, "Overtemp:  %s\n", yesNo(st.OverTemp))
	fmt.Fprintf(&b, "Random:    %s\n", onOff(st.Random))
	fmt.Fprintf(&b, "Countdown: %s\n", onOff(st.Countdown))

	if t := state.Time; t != nil {
		fmt.Fprintf(&b, "Time:      %s, %s\n", t.Days, t.Time)
	}
	return b.String()
}

// formatTimers renders the programmed timers, the random slot and the
// countdown slot.
func formatTimers(state *bs21.State) string {
	var b strings.Builder

	programmed := state.ProgrammedTimers()
	if len(programmed) == 0 {
		b.WriteString("Timers:    none programmed\n")
	} else {
		b.WriteString("Timers:\n")
		for _, t := range programmed {
			fmt.Fprintf(&b, "  %-3s #%02d  %-27s %s\n",
				t.Kind, t.Slot, t.Schedule.Days, t.Schedule.Time)
		}
	}

	if r := state.Random; r != nil {
		fmt.Fprintf(&b, "Random:    %s", onOff(r.Active))
		if !r.Schedule.IsZero() {
			fmt.Fprintf(&b, ", %s from %s for %s",
				r.Schedule.Days, r.Schedule.Time, r.Duration)
			if r.Simultaneous {
				b.WriteString(", all days simultaneously")
			}
		}
		b.WriteByte('\n')
	}

	if c := state.Countdown; c != nil {
		fmt.Fprintf(&b, "Countdown: %s", onOff(c.Active))
		if c.Active {
			fmt.Fprintf(&b, ", switches %s in %s (of %s, %s elapsed)",
				c.Action, c.TimeRemaining(), c.Original, c.Elapsed)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
