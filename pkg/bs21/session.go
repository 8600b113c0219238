// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Dialer establishes the transport to a device address. Implementations
// wrap an RFCOMM serial port, a network bridge, or a test double.
type Dialer interface {
	Dial(ctx context.Context, address string) (io.ReadWriteCloser, error)
}

// TraceDirection marks a trace entry as sent or received.
type TraceDirection int

// Trace directions
const (
	TraceSent TraceDirection = iota
	TraceReceived
)

func (d TraceDirection) String() string {
	if d == TraceSent {
		return ">"
	}
	return "<"
}

// TraceEntry is one verbatim frame from the raw traffic trace.
type TraceEntry struct {
	Direction TraceDirection
	Data      string
	At        time.Time
}

type lineResult struct {
	line string
	err  error
}

// Session owns one physical connection to a device. It provides
// line-oriented send and receive with a bounded timeout and an
// idempotent Close that is safe from any goroutine.
type Session struct {
	address string
	dialer  Dialer

	mu     sync.Mutex
	conn   io.ReadWriteCloser
	closed bool

	lines chan lineResult
	trace []TraceEntry
}

// NewSession prepares a session for one device address. Nothing is
// connected until Open.
func NewSession(dialer Dialer, address string) *Session {
	return &Session{dialer: dialer, address: address}
}

// Open establishes the transport. It blocks until connected, the
// context is done, or the default connect timeout expires.
func (s *Session) Open(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultConnectTimeout)
		defer cancel()
	}

	conn, err := s.dialer.Dial(ctx, s.address)
	if err != nil {
		return &ConnectionError{Op: "open", Err: err}
	}

	s.mu.Lock()
	s.conn = conn
	s.closed = false
	s.mu.Unlock()

	s.lines = make(chan lineResult, 4)
	go s.readLoop(conn)

	log.Debug().Str("address", s.address).Msg("connected")
	return nil
}

// readLoop delivers terminated lines from the transport. It ends when
// the transport errors, which includes Close from another goroutine.
func (s *Session) readLoop(conn io.Reader) {
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			s.lines <- lineResult{line: line}
		}
		if err != nil {
			s.lines <- lineResult{err: err}
			return
		}
	}
}

// SendLine writes one complete frame to the device.
func (s *Session) SendLine(frame string) error {
	s.mu.Lock()
	conn := s.conn
	closed := s.closed
	s.mu.Unlock()

	if closed || conn == nil {
		return &ConnectionError{Op: "send", Err: io.ErrClosedPipe}
	}

	s.record(TraceSent, frame)
	log.Debug().Str("frame", strings.TrimRight(frame, "\r\n")).Msg("send")

	if _, err := io.WriteString(conn, frame); err != nil {
		return &ConnectionError{Op: "send", Err: err}
	}
	return nil
}

// ReceiveLine blocks for at most timeout waiting for one terminated
// reply. The returned line includes its terminator.
func (s *Session) ReceiveLine(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-s.lines:
		if res.err != nil {
			return "", &ConnectionError{Op: "receive", Err: res.err}
		}
		s.record(TraceReceived, res.line)
		log.Debug().Str("frame", strings.TrimRight(res.line, "\r\n")).Msg("receive")
		return res.line, nil
	case <-timer.C:
		return "", &TimeoutError{Op: "receive", Timeout: timeout}
	}
}

// Close releases the transport. It is idempotent and must be reachable
// from every exit path of a queue execution.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.conn == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

func (s *Session) record(dir TraceDirection, data string) {
	s.mu.Lock()
	s.trace = append(s.trace, TraceEntry{Direction: dir, Data: data, At: time.Now()})
	s.mu.Unlock()
}

// Trace returns every sent frame and received reply verbatim, in
// order, independent of parsing success.
func (s *Session) Trace() []TraceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TraceEntry, len(s.trace))
	copy(out, s.trace)
	return out
}
