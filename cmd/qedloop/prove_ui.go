package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lexcodex/qedloop/proof"
	"github.com/lexcodex/qedloop/telemetry"
)

type eventMsg struct {
	Event telemetry.Event
}

type runFinishedMsg struct {
	Result proof.RunResult
	Err    error
}

// proveModel renders one run: a bold status bar on top and a scrolling
// transcript of telemetry events underneath.
type proveModel struct {
	session  proof.Session
	spinner  spinner.Model
	viewport viewport.Model
	events   <-chan telemetry.Event
	results  <-chan runFinishedMsg
	lines    []string
	status   string
	round    int
	done     bool
	result   proof.RunResult
	err      error
}

func newProveModel(session proof.Session, events <-chan telemetry.Event, results <-chan runFinishedMsg) *proveModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	port := viewport.New(80, 20)
	return &proveModel{
		session:  session,
		spinner:  spin,
		viewport: port,
		events:   events,
		results:  results,
		status:   "starting",
	}
}

func (m *proveModel) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, m.spinner.Tick, m.listenEvents(), m.listenResult())
}

func (m *proveModel) listenEvents() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return nil
		}
		return eventMsg{Event: evt}
	}
}

func (m *proveModel) listenResult() tea.Cmd {
	if m.results == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-m.results
		if !ok {
			return nil
		}
		return res
	}
}

func (m *proveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		if msg.Height > 4 {
			m.viewport.Height = msg.Height - 4
		}
	case eventMsg:
		m.consumeEvent(msg.Event)
		cmds = append(cmds, m.listenEvents())
	case runFinishedMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *proveModel) consumeEvent(evt telemetry.Event) {
	if evt.Round > m.round {
		m.round = evt.Round
	}
	switch evt.Type {
	case telemetry.EventRunStart:
		m.status = "run started"
	case telemetry.EventRoundStart:
		m.status = fmt.Sprintf("round %d: building prompt", evt.Round+1)
	case telemetry.EventPrompt:
		m.status = fmt.Sprintf("round %d: waiting for model", evt.Round+1)
	case telemetry.EventModelReply:
		m.status = fmt.Sprintf("round %d: reading reply", evt.Round+1)
	case telemetry.EventExtract:
		m.status = fmt.Sprintf("round %d: running checker", evt.Round+1)
	case telemetry.EventExtractFail:
		m.status = "no code block in reply"
	case telemetry.EventCheckPass:
		m.status = "proof accepted"
	case telemetry.EventCheckFail:
		m.status = fmt.Sprintf("round %d: checker rejected the proof", evt.Round+1)
	case telemetry.EventRunFinish:
		m.status = "finished"
	}
	line := fmt.Sprintf("[%s] round %d %s", evt.Timestamp.Format(time.Kitchen), evt.Round+1, evt.Type)
	if evt.Message != "" {
		line += ": " + evt.Message
	}
	m.appendLine(line)
}

func (m *proveModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > 400 {
		m.lines = m.lines[len(m.lines)-400:]
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *proveModel) View() string {
	var b strings.Builder
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\nq to quit")
	return b.String()
}

func (m *proveModel) renderStatusBar() string {
	status := fmt.Sprintf("Task: %s | Model: %s | Round %d/%d", m.session.Task, m.session.Model, m.round+1, m.maxAttempts())
	if m.done {
		status += " | " + string(m.result.Outcome)
	} else {
		status += " | " + m.spinner.View() + m.status
	}
	return lipgloss.NewStyle().Bold(true).Render(status)
}

func (m *proveModel) maxAttempts() int {
	if m.session.MaxAttempts > 0 {
		return m.session.MaxAttempts
	}
	return proof.DefaultMaxAttempts
}

// runProveUI drives the controller in a background goroutine while the TUI
// consumes its telemetry stream. The final summary prints after the program
// restores the terminal.
func runProveUI(cmd *cobra.Command, ctrl *proof.Controller, channel *telemetry.ChannelTelemetry) (proof.RunResult, error) {
	results := make(chan runFinishedMsg, 1)
	go func() {
		res, err := ctrl.Run(cmd.Context())
		results <- runFinishedMsg{Result: res, Err: err}
		channel.Close()
	}()
	model := newProveModel(ctrl.Session, channel.Events(), results)
	program := tea.NewProgram(model, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	final, err := program.Run()
	if err != nil {
		return proof.RunResult{}, err
	}
	m, ok := final.(*proveModel)
	if !ok || !m.done {
		return proof.RunResult{}, errors.New("run aborted")
	}
	return m.result, m.err
}
