// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ExecState is the executor's position in its lifecycle.
type ExecState int

// Executor states
const (
	StateIdle ExecState = iota
	StateConnecting
	StateExecuting
	StateClosing
	StateDone
	StateFailed
)

var execStateNames = map[ExecState]string{
	StateIdle:       "idle",
	StateConnecting: "connecting",
	StateExecuting:  "executing",
	StateClosing:    "closing",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s ExecState) String() string {
	if name, ok := execStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ExecState(%d)", int(s))
}

// CommandError reports which queued command failed and why. Commands
// before it completed on the device; commands after it never ran.
type CommandError struct {
	Index   int
	Command Command
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %d (%s): %v", e.Index+1, e.Command.Op, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Executor runs an ordered command queue over exactly one session.
// Connection setup dominates latency, so it is paid once for the whole
// queue; commands then execute strictly in input order, each one
// acknowledged before the next is sent. There are no transactional
// semantics: on failure the queue stops, but completed commands stay
// applied on the device.
type Executor struct {
	session *Session
	device  Device
	state   ExecState
	model   *State

	// ReplyTimeout bounds the wait for each command's reply.
	ReplyTimeout time.Duration
}

// NewExecutor prepares an executor for one device over the given
// transport.
func NewExecutor(dialer Dialer, dev Device) *Executor {
	return &Executor{
		session:      NewSession(dialer, dev.Address),
		device:       dev,
		state:        StateIdle,
		model:        NewState(dev),
		ReplyTimeout: DefaultReplyTimeout,
	}
}

// State returns the executor's current lifecycle state.
func (e *Executor) State() ExecState { return e.state }

// Trace returns the session's raw traffic trace.
func (e *Executor) Trace() []TraceEntry { return e.session.Trace() }

func (e *Executor) transition(next ExecState) {
	log.Debug().Stringer("from", e.state).Stringer("to", next).Msg("executor state")
	e.state = next
}

// Run executes the queue and returns the assembled device snapshot.
// The first failing command aborts the remainder; its classification
// and raw diagnostic are carried in a CommandError. The session is
// closed on every exit path, including cancellation.
func (e *Executor) Run(ctx context.Context, commands []Command) (*State, error) {
	if len(commands) == 0 {
		return e.model, nil
	}

	e.transition(StateConnecting)
	if err := e.session.Open(ctx); err != nil {
		e.transition(StateFailed)
		return e.model, err
	}

	// Unblock pending reads when the caller cancels.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			e.session.Close()
		case <-watchDone:
		}
	}()

	e.transition(StateExecuting)
	err := e.executeAll(ctx, commands)

	e.transition(StateClosing)
	close(watchDone)
	e.session.Close()

	if err != nil {
		e.transition(StateFailed)
		return e.model, err
	}
	e.transition(StateDone)
	return e.model, nil
}

func (e *Executor) executeAll(ctx context.Context, commands []Command) error {
	pin := e.device.PIN

	for i, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return &CommandError{Index: i, Command: cmd, Err: err}
		}

		if cmd.Op == OpSleep {
			if err := e.sleep(ctx, cmd.Duration); err != nil {
				return &CommandError{Index: i, Command: cmd, Err: err}
			}
			continue
		}

		reply, err := e.execute(cmd, pin)
		if err != nil {
			return &CommandError{Index: i, Command: cmd, Err: err}
		}
		e.model.Apply(reply)

		// The device expects the next frame under the new PIN.
		if cmd.Op == OpChangePIN {
			pin = cmd.NewPIN
			e.device.PIN = cmd.NewPIN
			e.model.Device.PIN = cmd.NewPIN
		}
	}
	return nil
}

// execute performs one encode-send-receive-decode cycle.
func (e *Executor) execute(cmd Command, pin string) (Reply, error) {
	frame, err := EncodeFrame(cmd, pin)
	if err != nil {
		return nil, err
	}
	if err := e.session.SendLine(frame); err != nil {
		return nil, err
	}
	raw, err := e.session.ReceiveLine(e.ReplyTimeout)
	if err != nil {
		return nil, err
	}
	reply, err := DecodeReply([]byte(raw))
	if err != nil {
		return nil, err
	}
	if nack, ok := reply.(NackReply); ok {
		return nil, &NackError{Raw: []byte(nack.Raw)}
	}

	// The reply shape must match the request.
	switch cmd.Op {
	case OpQueryInfo:
		if _, ok := reply.(InfoReply); !ok {
			return nil, &ProtocolError{Reason: "expected info reply", Raw: []byte(raw)}
		}
	case OpPowerOn, OpPowerOff, OpQueryStatus, OpSyncTime:
		if _, ok := reply.(StatusReply); !ok {
			return nil, &ProtocolError{Reason: "expected status reply", Raw: []byte(raw)}
		}
	}
	return reply, nil
}

// sleep keeps the session open and idle for d.
func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	log.Debug().Dur("duration", d).Msg("sleeping")
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
