// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusLine = "$BS-21-004593-1-\x14 V1.18 02 05 41 59\r\n"

// scriptedConn is an in-memory transport: every written frame is
// answered by the respond callback, and the reply becomes readable.
type scriptedConn struct {
	respond func(frame string) string

	mu     sync.Mutex
	sent   []string
	closes int

	lines     chan string
	closeOnce sync.Once
	closed    chan struct{}
}

func newScriptedConn(respond func(frame string) string) *scriptedConn {
	return &scriptedConn{
		respond: respond,
		lines:   make(chan string, 8),
		closed:  make(chan struct{}),
	}
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	frame := string(p)
	c.mu.Lock()
	c.sent = append(c.sent, frame)
	c.mu.Unlock()
	if reply := c.respond(frame); reply != "" {
		c.lines <- reply
	}
	return len(p), nil
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	select {
	case line := <-c.lines:
		return copy(p, line), nil
	case <-c.closed:
		return 0, io.EOF
	}
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *scriptedConn) sentFrames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *scriptedConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

type fakeDialer struct {
	conn *scriptedConn
	err  error
}

func (d *fakeDialer) Dial(ctx context.Context, address string) (io.ReadWriteCloser, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func ackEverything(frame string) string {
	switch {
	case strings.HasPrefix(frame, "REL"), strings.HasPrefix(frame, "TIME"):
		return statusLine
	default:
		return "$OK " + strings.TrimRight(frame, "\r\n") + "\r\n"
	}
}

func testDevice() Device {
	return Device{Address: "5C:B6:CC:00:1A:AE", PIN: "1234", Alias: "socket"}
}

func TestExecutor_HappyQueue(t *testing.T) {
	conn := newScriptedConn(ackEverything)
	exec := NewExecutor(&fakeDialer{conn: conn}, testDevice())

	queue := []Command{
		PowerOn(),
		SyncTime(time.Date(2018, 10, 2, 5, 41, 59, 0, time.UTC)),
		StartCountdown(ActionOff, 10*time.Minute),
	}

	state, err := exec.Run(context.Background(), queue)
	require.NoError(t, err)
	assert.Equal(t, StateDone, exec.State())

	sent := conn.sentFrames()
	require.Len(t, sent, 3)
	assert.True(t, strings.HasPrefix(sent[0], "REL1"))
	assert.True(t, strings.HasPrefix(sent[1], "TIME"))
	assert.True(t, strings.HasPrefix(sent[2], "SET43"))

	assert.Equal(t, 1, conn.closeCount(), "session must close exactly once")

	require.NotNil(t, state.Status)
	assert.Equal(t, "BS-21", state.Status.Model)
	require.NotNil(t, state.Time)

	trace := exec.Trace()
	require.Len(t, trace, 6)
	assert.Equal(t, TraceSent, trace[0].Direction)
	assert.Equal(t, TraceReceived, trace[1].Direction)
}

func TestExecutor_NackAbortsQueue(t *testing.T) {
	conn := newScriptedConn(func(frame string) string {
		if strings.HasPrefix(frame, "TIME") {
			return "$ERR\r\n"
		}
		return statusLine
	})
	exec := NewExecutor(&fakeDialer{conn: conn}, testDevice())

	queue := []Command{PowerOn(), SyncTime(time.Now()), PowerOff()}

	_, err := exec.Run(context.Background(), queue)
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.Index)
	assert.Equal(t, OpSyncTime, cmdErr.Command.Op)

	var nack *NackError
	assert.ErrorAs(t, err, &nack)

	// The first command ran, the third never went on the wire.
	sent := conn.sentFrames()
	require.Len(t, sent, 2)
	assert.True(t, strings.HasPrefix(sent[0], "REL1"))
	assert.True(t, strings.HasPrefix(sent[1], "TIME"))

	assert.Equal(t, StateFailed, exec.State())
	assert.Equal(t, 1, conn.closeCount())
}

func TestExecutor_ConnectFailure(t *testing.T) {
	exec := NewExecutor(&fakeDialer{err: fmt.Errorf("host is down")}, testDevice())

	_, err := exec.Run(context.Background(), []Command{PowerOn()})
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, StateFailed, exec.State())
}

func TestExecutor_ReplyTimeout(t *testing.T) {
	conn := newScriptedConn(func(string) string { return "" })
	exec := NewExecutor(&fakeDialer{conn: conn}, testDevice())
	exec.ReplyTimeout = 20 * time.Millisecond

	_, err := exec.Run(context.Background(), []Command{PowerOn(), PowerOff()})

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 0, cmdErr.Index)
	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)

	assert.Len(t, conn.sentFrames(), 1)
	assert.Equal(t, 1, conn.closeCount())
}

func TestExecutor_ProtocolErrorOnShapeMismatch(t *testing.T) {
	// A bare ack where a status record is required.
	conn := newScriptedConn(func(frame string) string {
		return "$OK " + strings.TrimRight(frame, "\r\n") + "\r\n"
	})
	exec := NewExecutor(&fakeDialer{conn: conn}, testDevice())

	_, err := exec.Run(context.Background(), []Command{QueryStatus()})
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.NotEmpty(t, protoErr.Raw)
}

func TestExecutor_SleepIsLocal(t *testing.T) {
	conn := newScriptedConn(ackEverything)
	exec := NewExecutor(&fakeDialer{conn: conn}, testDevice())

	queue := []Command{PowerOn(), Sleep(10 * time.Millisecond), PowerOff()}
	start := time.Now()
	_, err := exec.Run(context.Background(), queue)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Len(t, conn.sentFrames(), 2, "sleep must not reach the wire")
	assert.Equal(t, StateDone, exec.State())
}

func TestExecutor_CancelDuringSleep(t *testing.T) {
	conn := newScriptedConn(ackEverything)
	exec := NewExecutor(&fakeDialer{conn: conn}, testDevice())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := exec.Run(ctx, []Command{PowerOn(), Sleep(5 * time.Second), PowerOff()})

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.Index)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateFailed, exec.State())
	assert.GreaterOrEqual(t, conn.closeCount(), 1)
}

func TestExecutor_EmptyQueue(t *testing.T) {
	exec := NewExecutor(&fakeDialer{err: fmt.Errorf("must not dial")}, testDevice())

	state, err := exec.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, StateIdle, exec.State())
}

func TestExecutor_PINChangeSwitchesCredential(t *testing.T) {
	conn := newScriptedConn(ackEverything)
	exec := NewExecutor(&fakeDialer{conn: conn}, testDevice())

	_, err := exec.Run(context.Background(), []Command{ChangePIN("5678"), PowerOn()})
	require.NoError(t, err)

	sent := conn.sentFrames()
	require.Len(t, sent, 2)
	assert.Equal(t, "NEWC #1234 #5678\r\n", sent[0])
	assert.Equal(t, "REL1#5678\r\n", sent[1])
}

func TestExecutor_InfoPopulatesModel(t *testing.T) {
	info := emptyInfoTokens().setTimer(3, ActionOn, "1F", "06", "30")
	conn := newScriptedConn(func(frame string) string {
		if strings.HasPrefix(frame, "INFO") {
			return string(info.build())
		}
		return statusLine
	})
	exec := NewExecutor(&fakeDialer{conn: conn}, testDevice())

	state, err := exec.Run(context.Background(), []Command{QueryStatus(), QueryInfo()})
	require.NoError(t, err)

	require.NotNil(t, state.Status)
	require.Len(t, state.Timers, 40)
	require.NotNil(t, state.Random)
	require.NotNil(t, state.Countdown)
	assert.Len(t, state.ProgrammedTimers(), 1)
}
