// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

// Package bs21 implements the command protocol of the Renkforce BS-21
// Bluetooth power switch.
//
// The device speaks a line-oriented ASCII protocol over an RFCOMM serial
// link. Every request is a payload followed by a "#" and the 4-digit PIN,
// terminated with CRLF. The package provides frame encoding, reply
// decoding, a single-connection session, a sequential command queue
// executor and a typed device state model.
package bs21

import "time"

// Wire framing
const (
	FrameTerminator = "\r\n"
	credentialMark  = "#"
)

// Request payload keywords
const (
	payloadRelayOn  = "REL1"
	payloadRelayOff = "REL0"
	payloadStatus   = "RELX"
	payloadInfo     = "INFO"
	payloadTime     = "TIME"
	payloadSet      = "SET"
	payloadClear    = "CLEAR"
	payloadNewPIN   = "NEWC"
	payloadVisible  = "VISB"
)

// Reply markers
const (
	replyIdentity = "$BS-21"
	replyAck      = "$OK"
	replyNack     = "$ERR"
)

// Device-internal slot addressing. Timer slots occupy addresses 1-40:
// user-facing "on" slots 1-20 map to 1-20, "off" slots 1-20 map to
// 21-40. The random mode and countdown slots sit above the timer range
// at fixed addresses (confirmed against the original client, which
// hard-codes them).
const (
	TimerSlotCount       = 20 // per kind
	slotAddressAll       = 0  // CLEAR00 resets every slot
	slotAddressRandom    = 41
	slotAddressCountdown = 43
)

// Status flag bits carried in the single flags character of an identity
// reply.
const (
	flagOverTemp    = 0x02
	flagPowerOK     = 0x04
	flagRandomOn    = 0x08
	flagCountdownOn = 0x10
)

// INFO reply geometry. The device answers INFO with one fixed-width
// 442-byte line (CRLF included): 40 timer records, the random mode
// record and the countdown record at fixed offsets.
const (
	infoFrameLen       = 442
	infoTimersStart    = 14
	infoTimersEnd      = 372
	infoRandomStart    = 374
	infoRandomEnd      = 414
	infoCountdownStart = 416
	infoCountdownEnd   = 439
)

// Default timeouts. The device needs several seconds to answer some
// write commands, so the reply timeout is generous.
const (
	DefaultConnectTimeout = 20 * time.Second
	DefaultReplyTimeout   = 20 * time.Second
)
