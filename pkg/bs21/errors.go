// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import (
	"fmt"
	"time"
)

// ConnectionError reports a transport failure: the connection could not
// be established or a write failed mid-session. It always aborts the
// remaining queue.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports that no terminated reply arrived within the
// per-command bound.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no reply from device within %s", e.Op, e.Timeout)
}

// ProtocolError reports a reply that matches none of the known shapes.
// Raw carries the reply verbatim for diagnostics.
type ProtocolError struct {
	Reason string
	Raw    []byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected reply (%s): %q", e.Reason, e.Raw)
}

// NackError reports an explicit "$ERR" rejection from the device. The
// most common cause is a PIN mismatch.
type NackError struct {
	Raw []byte
}

func (e *NackError) Error() string {
	return "device rejected the request, double-check the PIN"
}

// InvalidScheduleError reports a malformed day mask, time value or slot
// index. It is raised before any wire I/O.
type InvalidScheduleError struct {
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return "invalid schedule: " + e.Reason
}

func scheduleErrorf(format string, args ...interface{}) error {
	return &InvalidScheduleError{Reason: fmt.Sprintf(format, args...)}
}
