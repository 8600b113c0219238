// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import "sort"

// Device identifies one switch: its hardware address, the session PIN
// and an optional alias from the local name table. The PIN lives only
// for the lifetime of one invocation.
type Device struct {
	Address string `json:"mac"`
	PIN     string `json:"pin"`
	Alias   string `json:"alias"`
}

// Status is the read-only snapshot from an identity reply. It is
// rebuilt on every status query, never cached across invocations.
type Status struct {
	Model     string `json:"model"`
	Serial    string `json:"serial"`
	Firmware  string `json:"firmware"`
	On        bool   `json:"on"`
	OverTemp  bool   `json:"overtemp"`
	Power     bool   `json:"power"`
	Random    bool   `json:"random"`
	Countdown bool   `json:"countdown"`
}

// CurrentTime is the device clock. The weekday set holds exactly one
// day.
type CurrentTime struct {
	Days WeekdaySet `json:"weekday"`
	Time TimeOfDay  `json:"time"`
}

// TimerSlot is one of the 40 weekly timers. Slot is the user-facing
// index 1-20 within the kind's own slot space.
type TimerSlot struct {
	Slot     int      `json:"slot"`
	Kind     Action   `json:"type"`
	Schedule Schedule `json:"schedule"`
}

// RandomMode is the single random-activation slot at device address 41.
type RandomMode struct {
	Slot         int      `json:"slot"`
	Active       bool     `json:"active"`
	Simultaneous bool     `json:"simultaneously"`
	Schedule     Schedule `json:"schedule"`
	Duration     Span     `json:"duration"`
}

// Countdown is the single countdown slot at device address 43.
type Countdown struct {
	Slot      int    `json:"slot"`
	Active    bool   `json:"active"`
	Action    Action `json:"type"`
	Remaining Span   `json:"remaining"`
	Elapsed   Span   `json:"elapsed"`
	Original  Span   `json:"original"`
}

// TimeRemaining recomputes the remaining span from the original length
// and the elapsed span, clamped at zero.
func (c Countdown) TimeRemaining() Span {
	left := c.Original - c.Elapsed
	if left < 0 {
		left = 0
	}
	return left
}

// State is the queryable device snapshot a queue execution assembles
// from parsed replies. Only sections a command actually populated are
// non-nil.
type State struct {
	Device    Device       `json:"device"`
	Status    *Status      `json:"status"`
	Time      *CurrentTime `json:"time"`
	Timers    []TimerSlot  `json:"timers"`
	Random    *RandomMode  `json:"random"`
	Countdown *Countdown   `json:"countdown"`
}

// NewState creates an empty snapshot for one device.
func NewState(dev Device) *State {
	return &State{Device: dev}
}

// Apply folds one decoded reply into the snapshot. Acknowledgments and
// rejections carry no state.
func (s *State) Apply(r Reply) {
	switch reply := r.(type) {
	case StatusReply:
		status := reply.Status
		now := reply.Time
		s.Status = &status
		s.Time = &now
	case InfoReply:
		timers := make([]TimerSlot, len(reply.Timers))
		copy(timers, reply.Timers)
		sortTimers(timers)
		s.Timers = timers
		random := reply.Random
		countdown := reply.Countdown
		s.Random = &random
		s.Countdown = &countdown
	}
}

// sortTimers orders slots by (kind, slot index): on-timers 1-20, then
// off-timers 1-20.
func sortTimers(timers []TimerSlot) {
	sort.SliceStable(timers, func(i, j int) bool {
		if timers[i].Kind != timers[j].Kind {
			return timers[i].Kind == ActionOn
		}
		return timers[i].Slot < timers[j].Slot
	})
}

// ProgrammedTimers returns the timers with a non-empty schedule, in
// (kind, slot) order.
func (s *State) ProgrammedTimers() []TimerSlot {
	var set []TimerSlot
	for _, t := range s.Timers {
		if !t.Schedule.Days.IsEmpty() {
			set = append(set, t)
		}
	}
	return set
}
