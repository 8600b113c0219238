// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import (
	"regexp"
	"strconv"
	"strings"
)

// Reply is one decoded device response. The concrete type is one of
// StatusReply, InfoReply, AckReply or NackReply; anything outside these
// shapes decodes to a ProtocolError instead.
type Reply interface {
	replyTag()
}

// StatusReply is the identity/status record the device answers to RELX,
// REL0, REL1 and TIME requests.
type StatusReply struct {
	Status Status
	Time   CurrentTime
}

// AckReply acknowledges a write command by echoing the request.
type AckReply struct {
	Echo string
}

// InfoReply carries every timer, random mode and countdown slot.
type InfoReply struct {
	Timers    []TimerSlot
	Random    RandomMode
	Countdown Countdown
}

// NackReply is an explicit rejection, most commonly a PIN mismatch.
type NackReply struct {
	Raw string
}

func (StatusReply) replyTag() {}
func (AckReply) replyTag()    {}
func (InfoReply) replyTag()   {}
func (NackReply) replyTag()   {}

// statusRe matches the identity reply:
//
//	$BS-21-004593-1-A V1.18 02 05 41 59
//
// model, serial, relay state, flags character, firmware, then the clock
// as weekday mask (hex) and hour/minute/second.
var statusRe = regexp.MustCompile(
	`\$(BS-21)-([0-9]+)-([01])-(.) (V[0-9]+\.[0-9]+) ([0-9A-F]{2}) ([0-9]{2}) ([0-9]{2}) ([0-9]{2})`)

// DecodeReply classifies and parses one raw reply line (terminator
// included). Replies outside the known shapes return a ProtocolError
// carrying the raw bytes; truncated or garbled frames never panic.
func DecodeReply(raw []byte) (Reply, error) {
	line := strings.TrimRight(string(raw), "\r\n")

	switch {
	case strings.HasPrefix(line, replyNack):
		return NackReply{Raw: line}, nil

	case strings.HasPrefix(line, replyIdentity):
		return decodeStatus(raw, line)

	case strings.HasPrefix(line, replyAck):
		if len(raw) == infoFrameLen {
			return decodeInfo(raw)
		}
		return AckReply{Echo: line}, nil

	default:
		return nil, &ProtocolError{Reason: "unknown reply shape", Raw: raw}
	}
}

func decodeStatus(raw []byte, line string) (Reply, error) {
	m := statusRe.FindStringSubmatch(line)
	if m == nil {
		return nil, &ProtocolError{Reason: "malformed status reply", Raw: raw}
	}

	flags := m[4][0]
	status := Status{
		Model:     m[1],
		Serial:    m[2],
		Firmware:  m[5],
		On:        m[3] == "1",
		OverTemp:  flags&flagOverTemp != 0,
		Power:     flags&flagPowerOK != 0,
		Random:    flags&flagRandomOn != 0,
		Countdown: flags&flagCountdownOn != 0,
	}

	mask, err := strconv.ParseUint(m[6], 16, 8)
	if err != nil {
		return nil, &ProtocolError{Reason: "malformed weekday field", Raw: raw}
	}
	hour, _ := strconv.Atoi(m[7])
	minute, _ := strconv.Atoi(m[8])
	second, _ := strconv.Atoi(m[9])

	now := CurrentTime{
		Days: WeekdaySetFromMask(uint8(mask)),
		Time: decodeClockFields(hour, minute, second),
	}

	return StatusReply{Status: status, Time: now}, nil
}

// decodeInfo parses the fixed-width INFO frame. The 40 timer records,
// the random mode record and the countdown record sit at fixed byte
// ranges within the 442-byte line.
func decodeInfo(raw []byte) (Reply, error) {
	if len(raw) != infoFrameLen {
		return nil, &ProtocolError{Reason: "short info reply", Raw: raw}
	}
	s := string(raw)

	timerFields := strings.Fields(s[infoTimersStart:infoTimersEnd])
	if len(timerFields) < 3*2*TimerSlotCount {
		return nil, &ProtocolError{Reason: "truncated timer records", Raw: raw}
	}

	timers := make([]TimerSlot, 0, 2*TimerSlotCount)
	for i := 0; i < 2*TimerSlotCount; i++ {
		sched, err := decodeScheduleFields(timerFields[i*3 : i*3+3])
		if err != nil {
			return nil, &ProtocolError{Reason: "malformed timer record", Raw: raw}
		}
		kind := ActionOn
		if i >= TimerSlotCount {
			kind = ActionOff
		}
		timers = append(timers, TimerSlot{
			Slot:     i%TimerSlotCount + 1,
			Kind:     kind,
			Schedule: sched,
		})
	}

	randomFields := strings.Fields(s[infoRandomStart:infoRandomEnd])
	if len(randomFields) < 7 {
		return nil, &ProtocolError{Reason: "truncated random record", Raw: raw}
	}
	randSched, err := decodeScheduleFields(randomFields[:3])
	if err != nil {
		return nil, &ProtocolError{Reason: "malformed random record", Raw: raw}
	}
	durs, err := atoiFields(randomFields[3:5])
	if err != nil {
		return nil, &ProtocolError{Reason: "malformed random duration", Raw: raw}
	}
	random := RandomMode{
		Slot:         slotAddressRandom,
		Active:       randomFields[5] != "00",
		Simultaneous: randomFields[6] != "00",
		Schedule:     randSched,
		Duration:     NewSpan(durs[0], durs[1], 0),
	}

	countdownFields := strings.Fields(s[infoCountdownStart:infoCountdownEnd])
	if len(countdownFields) < 8 {
		return nil, &ProtocolError{Reason: "truncated countdown record", Raw: raw}
	}
	nums, err := atoiFields(append(countdownFields[1:4:4], countdownFields[5:8]...))
	if err != nil {
		return nil, &ProtocolError{Reason: "malformed countdown record", Raw: raw}
	}
	action := ActionOff
	if countdownFields[0] != "00" {
		action = ActionOn
	}
	remaining := NewSpan(nums[0], nums[1], nums[2])
	original := NewSpan(nums[3], nums[4], nums[5])
	elapsed := original - remaining
	if elapsed < 0 {
		elapsed = 0
	}
	countdown := Countdown{
		Slot:      slotAddressCountdown,
		Active:    countdownFields[4] != "00",
		Action:    action,
		Remaining: remaining,
		Elapsed:   elapsed,
		Original:  original,
	}

	return InfoReply{Timers: timers, Random: random, Countdown: countdown}, nil
}

// decodeScheduleFields builds a schedule from a (hex daymask, hour,
// minute) field triple.
func decodeScheduleFields(fields []string) (Schedule, error) {
	mask, err := strconv.ParseUint(fields[0], 16, 8)
	if err != nil {
		return Schedule{}, err
	}
	nums, err := atoiFields(fields[1:3])
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{
		Days: WeekdaySetFromMask(uint8(mask)),
		Time: decodeClockFields(nums[0], nums[1], 0),
	}, nil
}

func atoiFields(fields []string) ([]int, error) {
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}
