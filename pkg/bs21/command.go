// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import "time"

// Op identifies a logical command.
type Op int

// Logical command operations
const (
	OpPowerOn Op = iota
	OpPowerOff
	OpQueryStatus
	OpQueryInfo
	OpSyncTime
	OpProgramTimer
	OpClearTimer
	OpProgramRandom
	OpClearRandom
	OpStartCountdown
	OpClearCountdown
	OpClearAll
	OpChangePIN
	OpSetVisible
	OpSleep
)

var opNames = map[Op]string{
	OpPowerOn:        "power-on",
	OpPowerOff:       "power-off",
	OpQueryStatus:    "query-status",
	OpQueryInfo:      "query-info",
	OpSyncTime:       "sync-time",
	OpProgramTimer:   "program-timer",
	OpClearTimer:     "clear-timer",
	OpProgramRandom:  "program-random",
	OpClearRandom:    "clear-random",
	OpStartCountdown: "start-countdown",
	OpClearCountdown: "clear-countdown",
	OpClearAll:       "clear-all",
	OpChangePIN:      "change-pin",
	OpSetVisible:     "set-visible",
	OpSleep:          "sleep",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown-op"
}

// Action is the relay action a timer or countdown performs.
type Action int

// Relay actions
const (
	ActionOff Action = iota
	ActionOn
)

func (a Action) String() string {
	if a == ActionOn {
		return "on"
	}
	return "off"
}

// MarshalJSON renders the action as "on" or "off".
func (a Action) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// Command is one logical request to the device. Build commands with the
// constructor functions; only the fields a given Op uses are meaningful.
type Command struct {
	Op       Op
	Slot     int           // timer slot, 1-20 per kind
	Action   Action        // timer kind or countdown action
	Schedule Schedule      // timer or random mode schedule
	Duration time.Duration // random/countdown/sleep duration
	NewPIN   string        // change-pin only
	At       time.Time     // sync-time reference
}

// PowerOn switches the relay on.
func PowerOn() Command { return Command{Op: OpPowerOn} }

// PowerOff switches the relay off.
func PowerOff() Command { return Command{Op: OpPowerOff} }

// QueryStatus reads the identity/status record.
func QueryStatus() Command { return Command{Op: OpQueryStatus} }

// QueryInfo reads all timer, random mode and countdown slots.
func QueryInfo() Command { return Command{Op: OpQueryInfo} }

// SyncTime writes the given wall-clock time and weekday to the device
// clock.
func SyncTime(at time.Time) Command { return Command{Op: OpSyncTime, At: at} }

// ProgramTimer programs one timer slot. Slot is the user-facing index
// 1-20 within the kind's own slot space.
func ProgramTimer(slot int, kind Action, schedule Schedule) Command {
	return Command{Op: OpProgramTimer, Slot: slot, Action: kind, Schedule: schedule}
}

// ClearTimer resets one timer slot to the empty schedule.
func ClearTimer(slot int, kind Action) Command {
	return Command{Op: OpClearTimer, Slot: slot, Action: kind}
}

// ProgramRandom activates random mode with a start schedule and a
// duration window.
func ProgramRandom(schedule Schedule, duration time.Duration) Command {
	return Command{Op: OpProgramRandom, Schedule: schedule, Duration: duration}
}

// ClearRandom deactivates random mode.
func ClearRandom() Command { return Command{Op: OpClearRandom} }

// StartCountdown starts a countdown that performs action when the
// duration elapses.
func StartCountdown(action Action, duration time.Duration) Command {
	return Command{Op: OpStartCountdown, Action: action, Duration: duration}
}

// ClearCountdown resets the countdown slot.
func ClearCountdown() Command { return Command{Op: OpClearCountdown} }

// ClearAll resets every timer slot, random mode and the countdown.
func ClearAll() Command { return Command{Op: OpClearAll} }

// ChangePIN sets a new 4-digit PIN.
func ChangePIN(newPIN string) Command { return Command{Op: OpChangePIN, NewPIN: newPIN} }

// SetVisible makes the device discoverable for a couple of minutes.
func SetVisible() Command { return Command{Op: OpSetVisible} }

// Sleep holds the session open idle for the given duration without any
// wire I/O. Useful between dependent commands, e.g. on-sleep-off.
func Sleep(d time.Duration) Command { return Command{Op: OpSleep, Duration: d} }
