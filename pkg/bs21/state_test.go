// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdown_TimeRemaining(t *testing.T) {
	cd := Countdown{
		Original: NewSpan(7, 26, 13),
		Elapsed:  NewSpan(0, 23, 36),
	}
	assert.Equal(t, "07:02:37", cd.TimeRemaining().String())

	overrun := Countdown{
		Original: NewSpan(0, 10, 0),
		Elapsed:  NewSpan(0, 15, 0),
	}
	assert.Equal(t, Span(0), overrun.TimeRemaining(), "remaining clamps at zero")
}

func TestState_ApplyStatus(t *testing.T) {
	state := NewState(testDevice())
	reply, err := DecodeReply([]byte(statusLine))
	require.NoError(t, err)

	state.Apply(reply)
	require.NotNil(t, state.Status)
	require.NotNil(t, state.Time)
	assert.Nil(t, state.Timers, "info sections stay unpopulated")

	// Acks carry no state.
	state.Apply(AckReply{Echo: "$OK"})
	assert.NotNil(t, state.Status)
}

func TestState_TimerOrdering(t *testing.T) {
	state := NewState(testDevice())
	frame := emptyInfoTokens().
		setTimer(2, ActionOff, "7F", "08", "00").
		setTimer(9, ActionOn, "1F", "07", "00")
	reply, err := DecodeReply(frame.build())
	require.NoError(t, err)
	state.Apply(reply)

	require.Len(t, state.Timers, 40)
	for i, timer := range state.Timers {
		wantKind := ActionOn
		wantSlot := i + 1
		if i >= TimerSlotCount {
			wantKind = ActionOff
			wantSlot = i - TimerSlotCount + 1
		}
		assert.Equal(t, wantKind, timer.Kind, "timer %d kind", i)
		assert.Equal(t, wantSlot, timer.Slot, "timer %d slot", i)
	}

	programmed := state.ProgrammedTimers()
	require.Len(t, programmed, 2)
	assert.Equal(t, ActionOn, programmed[0].Kind)
	assert.Equal(t, 9, programmed[0].Slot)
	assert.Equal(t, ActionOff, programmed[1].Kind)
	assert.Equal(t, 2, programmed[1].Slot)
}

func TestState_JSONShape(t *testing.T) {
	state := NewState(testDevice())

	statusReply, err := DecodeReply([]byte(statusLine))
	require.NoError(t, err)
	state.Apply(statusReply)

	frame := emptyInfoTokens().setTimer(3, ActionOn, "1F", "06", "30")
	frame.countdown = []string{"01", "07", "02", "37", "01", "07", "26", "13"}
	infoReply, err := DecodeReply(frame.build())
	require.NoError(t, err)
	state.Apply(infoReply)

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var view map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &view))
	for _, section := range []string{"device", "status", "time", "timers", "random", "countdown"} {
		assert.Contains(t, view, section)
	}

	var device map[string]string
	require.NoError(t, json.Unmarshal(view["device"], &device))
	assert.Equal(t, "5C:B6:CC:00:1A:AE", device["mac"])
	assert.Equal(t, "socket", device["alias"])

	var timers []struct {
		Slot     int    `json:"slot"`
		Type     string `json:"type"`
		Schedule struct {
			Weekday []string `json:"weekday"`
			Time    string   `json:"time"`
		} `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(view["timers"], &timers))
	require.Len(t, timers, 40)
	assert.Equal(t, "on", timers[0].Type)
	assert.Equal(t, "off", timers[39].Type)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri"}, timers[2].Schedule.Weekday)
	assert.Equal(t, "06:30:00", timers[2].Schedule.Time)
	assert.Empty(t, timers[0].Schedule.Weekday)

	var countdown struct {
		Slot      int    `json:"slot"`
		Active    bool   `json:"active"`
		Type      string `json:"type"`
		Remaining string `json:"remaining"`
		Elapsed   string `json:"elapsed"`
		Original  string `json:"original"`
	}
	require.NoError(t, json.Unmarshal(view["countdown"], &countdown))
	assert.Equal(t, 43, countdown.Slot)
	assert.True(t, countdown.Active)
	assert.Equal(t, "on", countdown.Type)
	assert.Equal(t, "07:02:37", countdown.Remaining)
	assert.Equal(t, "00:23:36", countdown.Elapsed)
	assert.Equal(t, "07:26:13", countdown.Original)

	var now struct {
		Weekday []string `json:"weekday"`
		Time    string   `json:"time"`
	}
	require.NoError(t, json.Unmarshal(view["time"], &now))
	assert.Equal(t, []string{"Tue"}, now.Weekday)
	assert.Equal(t, "05:41:59", now.Time)
}
