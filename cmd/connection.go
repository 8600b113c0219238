// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Heckie75/renkforce-bs21-bluetooth-switch/pkg/bs21"
)

// serialDialer opens the RFCOMM tty the platform pairing tool bound to
// the device address. Discovery and pairing are outside this tool; the
// tty stands in for the Bluetooth link.
type serialDialer struct {
	port string
	baud int
}

func (d serialDialer) Dial(ctx context.Context, address string) (io.ReadWriteCloser, error) {
	if d.port == "" {
		return nil, fmt.Errorf("no serial port configured for %s; bind the device (e.g. rfcomm bind) and pass --port", address)
	}

	mode := &serial.Mode{
		BaudRate: d.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	type result struct {
		port serial.Port
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		port, err := serial.Open(d.port, mode)
		ch <- result{port: port, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("failed to open serial port %s: %w", d.port, res.err)
		}
		return res.port, nil
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.err == nil {
				res.port.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// wsConn adapts a message-oriented WebSocket serial bridge to the
// byte-stream the session expects.
type wsConn struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
}

func (w *wsConn) Read(p []byte) (int, error) {
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}
		w.buf = data
		w.bufOffset = copy(p, data)
		return w.bufOffset, nil
	}
}

func (w *wsConn) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// wsDialer connects to a serial-over-WebSocket bridge with optional
// HTTP Basic auth.
type wsDialer struct {
	url      string
	username string
	password string
	insecure bool
}

func (d wsDialer) Dial(ctx context.Context, address string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(d.url)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: d.insecure}
	}

	headers := http.Header{}
	if d.username != "" && d.password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(d.username + ":" + d.password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, d.url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}
	return &wsConn{conn: conn}, nil
}

// newDialer picks the transport from the connection flags.
func newDialer() (bs21.Dialer, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = bridgePassword()
			if err != nil {
				return nil, "", err
			}
		}
		return wsDialer{
			url:      wsURL,
			username: wsUsername,
			password: password,
			insecure: wsNoSSLVerify,
		}, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	return serialDialer{port: portName, baud: baudRate},
		fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
}

// bridgePassword reads the bridge password from the environment or
// prompts for it. There is no --password flag so credentials never end
// up in shell history.
func bridgePassword() (string, error) {
	if pw := os.Getenv("BS21_BRIDGE_PASSWORD"); pw != "" {
		return pw, nil
	}
	return promptSecret("Password: ")
}

// promptPIN asks for the device PIN when neither argv nor the alias
// table provide one.
func promptPIN() (string, error) {
	pin, err := promptSecret("PIN: ")
	if err != nil {
		return "", err
	}
	if err := bs21.ValidatePIN(pin); err != nil {
		return "", err
	}
	return pin, nil
}

func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	secret, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal; fall back to plain input.
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(line), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(secret), nil
}
