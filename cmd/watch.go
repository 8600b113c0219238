// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Heckie75/renkforce-bs21-bluetooth-switch/pkg/bs21"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <mac|alias> [pin]",
	Short: "Poll the switch status in a live terminal view",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "Poll interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	pin := ""
	if len(args) > 1 {
		pin = args[1]
	}
	device, err := resolveDevice(args[0], pin)
	if err != nil {
		return err
	}
	if device.PIN == "" {
		device.PIN, err = promptPIN()
		if err != nil {
			return err
		}
	}

	dialer, connInfo, err := newDialer()
	if err != nil {
		return err
	}

	m := newWatchModel(device, dialer, connInfo, watchInterval)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

// Messages
type watchConnectedMsg struct{ err error }
type watchStatusMsg struct {
	status bs21.Status
	clock  bs21.CurrentTime
	err    error
}
type watchTickMsg time.Time

type watchModel struct {
	device   bs21.Device
	session  *bs21.Session
	connInfo string
	interval time.Duration

	spinner   spinner.Model
	connected bool
	status    *bs21.Status
	clock     *bs21.CurrentTime
	updatedAt time.Time
	lastErr   error
	quitting  bool
}

func newWatchModel(device bs21.Device, dialer bs21.Dialer, connInfo string, interval time.Duration) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return watchModel{
		device:   device,
		session:  bs21.NewSession(dialer, device.Address),
		connInfo: connInfo,
		interval: interval,
		spinner:  sp,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.connectCmd(),
		tea.EnterAltScreen,
	)
}

func (m watchModel) connectCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return watchConnectedMsg{err: session.Open(context.Background())}
	}
}

// pollCmd runs one status exchange on the open session.
func (m watchModel) pollCmd() tea.Cmd {
	session := m.session
	pin := m.device.PIN
	return func() tea.Msg {
		frame, err := bs21.EncodeFrame(bs21.QueryStatus(), pin)
		if err != nil {
			return watchStatusMsg{err: err}
		}
		if err := session.SendLine(frame); err != nil {
			return watchStatusMsg{err: err}
		}
		raw, err := session.ReceiveLine(replyTimeout)
		if err != nil {
			return watchStatusMsg{err: err}
		}
		reply, err := bs21.DecodeReply([]byte(raw))
		if err != nil {
			return watchStatusMsg{err: err}
		}
		status, ok := reply.(bs21.StatusReply)
		if !ok {
			return watchStatusMsg{err: fmt.Errorf("unexpected reply %q", strings.TrimSpace(raw))}
		}
		return watchStatusMsg{status: status.Status, clock: status.Time}
	}
}

func watchTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.session.Close()
			return m, tea.Quit
		}

	case watchConnectedMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.quitting = true
			return m, tea.Quit
		}
		m.connected = true
		return m, m.pollCmd()

	case watchStatusMsg:
		if msg.err != nil {
			m.lastErr = msg.err
		} else {
			status := msg.status
			clock := msg.clock
			m.status = &status
			m.clock = &clock
			m.updatedAt = time.Now()
			m.lastErr = nil
		}
		return m, watchTickCmd(m.interval)

	case watchTickMsg:
		return m, m.pollCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		if m.lastErr != nil {
			return fmt.Sprintf("watch: %v\n", m.lastErr)
		}
		return "Disconnected.\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("BS-21 WATCH"))
	s.WriteString("\n")
	name := m.device.Address
	if m.device.Alias != "" {
		name = fmt.Sprintf("%s (%s)", m.device.Address, m.device.Alias)
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Device: %s | %s | every %s | Press 'q' to quit",
		name, m.connInfo, m.interval)))
	s.WriteString("\n\n")

	if !m.connected {
		s.WriteString(m.spinner.View())
		s.WriteString(headerStyle.Render(" connecting..."))
		s.WriteString("\n")
		return s.String()
	}

	if m.status != nil {
		content := strings.Builder{}
		content.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			labelStyle.Render("Relay:"), valueStyle.Render(onOff(m.status.On)),
			labelStyle.Render("Power:"), valueStyle.Render(yesNo(m.status.Power)),
			labelStyle.Render("Overtemp:"), func() string {
				if m.status.OverTemp {
					return errorStyle.Render("yes")
				}
				return valueStyle.Render("no")
			}(),
		))
		content.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Random:"), valueStyle.Render(onOff(m.status.Random)),
			labelStyle.Render("Countdown:"), valueStyle.Render(onOff(m.status.Countdown)),
		))
		if m.clock != nil {
			content.WriteString(fmt.Sprintf("%s %s, %s\n",
				labelStyle.Render("Clock:"),
				valueStyle.Render(m.clock.Days.String()),
				valueStyle.Render(m.clock.Time.String()),
			))
		}
		content.WriteString(fmt.Sprintf("%s %s, serial %s, firmware %s",
			labelStyle.Render("Model:"),
			valueStyle.Render(m.status.Model), m.status.Serial, m.status.Firmware,
		))
		s.WriteString(boxStyle.Render(content.String()))
		s.WriteString("\n")
	} else {
		s.WriteString(m.spinner.View())
		s.WriteString(headerStyle.Render(" waiting for first reply..."))
		s.WriteString("\n")
	}

	if !m.updatedAt.IsZero() {
		s.WriteString(headerStyle.Render(fmt.Sprintf("Updated %s", m.updatedAt.Format("15:04:05"))))
		s.WriteString("\n")
	}
	if m.lastErr != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.lastErr)))
		s.WriteString("\n")
	}
	return s.String()
}
