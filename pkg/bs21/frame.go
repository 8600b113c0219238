// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import (
	"fmt"
	"time"
)

// ValidatePIN checks the 4-digit numeric PIN contract.
func ValidatePIN(pin string) error {
	if len(pin) != 4 {
		return fmt.Errorf("pin must be 4-digit numeric, got %q", pin)
	}
	for i := 0; i < 4; i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return fmt.Errorf("pin must be 4-digit numeric, got %q", pin)
		}
	}
	return nil
}

// deviceTimerSlot maps a user-facing timer slot (1-20 within its kind)
// to the device-internal slot address: on-timers occupy 1-20,
// off-timers 21-40.
func deviceTimerSlot(slot int, kind Action) (int, error) {
	if slot < 1 || slot > TimerSlotCount {
		return 0, scheduleErrorf("timer slot %d out of range 1-%d", slot, TimerSlotCount)
	}
	if kind == ActionOff {
		return slot + TimerSlotCount, nil
	}
	return slot, nil
}

// durationFields splits a duration into wire hour/minute/second fields.
// The device stores at most 23:59:59.
func durationFields(d time.Duration) (hours, minutes, seconds int, err error) {
	if d < 0 || d >= 24*time.Hour {
		return 0, 0, 0, scheduleErrorf("duration %s out of range 00:00:00-23:59:59", d)
	}
	h, m, s := Span(d).Clock()
	return h, m, s, nil
}

// EncodeFrame builds the complete wire frame for one command: the
// command payload, the "#pppp" credential suffix and the CRLF
// terminator. All validation happens here, before any wire I/O.
//
// The trailing "01" (and "01 00") fields of the SET payloads are fixed
// protocol constants, not a computed checksum over the payload.
func EncodeFrame(cmd Command, pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}

	credential := pin
	var payload string

	switch cmd.Op {
	case OpPowerOn:
		payload = payloadRelayOn

	case OpPowerOff:
		payload = payloadRelayOff

	case OpQueryStatus:
		payload = payloadStatus

	case OpQueryInfo:
		payload = payloadInfo

	case OpSyncTime:
		at := cmd.At
		if at.IsZero() {
			at = time.Now()
		}
		mask := NewWeekdaySet(FromTime(at.Weekday()))
		payload = fmt.Sprintf("%s %s %02d %02d %02d",
			payloadTime, mask.wireMask(), at.Hour(), at.Minute(), at.Second())

	case OpProgramTimer:
		addr, err := deviceTimerSlot(cmd.Slot, cmd.Action)
		if err != nil {
			return "", err
		}
		if err := cmd.Schedule.validate(); err != nil {
			return "", err
		}
		t := cmd.Schedule.Time
		payload = fmt.Sprintf("%s%02d %s %02d %02d %02d 01",
			payloadSet, addr, cmd.Schedule.Days.wireMask(), t.Hour, t.Minute, t.Second)

	case OpClearTimer:
		addr, err := deviceTimerSlot(cmd.Slot, cmd.Action)
		if err != nil {
			return "", err
		}
		payload = fmt.Sprintf("%s%02d", payloadClear, addr)

	case OpProgramRandom:
		if err := cmd.Schedule.validate(); err != nil {
			return "", err
		}
		dh, dm, _, err := durationFields(cmd.Duration)
		if err != nil {
			return "", err
		}
		t := cmd.Schedule.Time
		payload = fmt.Sprintf("%s%02d %s %02d %02d %02d %02d 01 00",
			payloadSet, slotAddressRandom, cmd.Schedule.Days.wireMask(), t.Hour, t.Minute, dh, dm)

	case OpClearRandom:
		payload = fmt.Sprintf("%s%02d", payloadClear, slotAddressRandom)

	case OpStartCountdown:
		h, m, s, err := durationFields(cmd.Duration)
		if err != nil {
			return "", err
		}
		payload = fmt.Sprintf("%s%02d %02d %02d %02d %02d 01",
			payloadSet, slotAddressCountdown, int(cmd.Action), h, m, s)

	case OpClearCountdown:
		payload = fmt.Sprintf("%s%02d", payloadClear, slotAddressCountdown)

	case OpClearAll:
		payload = fmt.Sprintf("%s%02d", payloadClear, slotAddressAll)

	case OpChangePIN:
		if err := ValidatePIN(cmd.NewPIN); err != nil {
			return "", err
		}
		// The old PIN moves into the payload; the new PIN takes the
		// credential position.
		payload = fmt.Sprintf("%s %s%s ", payloadNewPIN, credentialMark, pin)
		credential = cmd.NewPIN

	case OpSetVisible:
		payload = payloadVisible

	case OpSleep:
		return "", fmt.Errorf("%s is a local command with no wire form", cmd.Op)

	default:
		return "", fmt.Errorf("unknown command op %d", int(cmd.Op))
	}

	return payload + credentialMark + credential + FrameTerminator, nil
}
