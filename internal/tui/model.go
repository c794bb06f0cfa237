package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/keybinds"
	"github.com/studiowebux/apiquest/internal/types"
	"github.com/studiowebux/apiquest/internal/workspace"
)

// Model adapts key presses onto workspace operations and renders its state.
// It holds no request data of its own.
type Model struct {
	ws     *workspace.Workspace
	keys   *keybinds.Registry
	logger *log.Logger
	ctx    context.Context

	width  int
	height int

	responseView viewport.Model // response pane on the main screen
	detailView   viewport.Model // full-screen response
	spinner      spinner.Model

	// failureHint explains the last transport failure
	failureHint string
	// lastResponse detects when the response pane needs new content
	lastResponse *types.Response
}

// responseMsg carries the result of a background send
type responseMsg struct {
	sent types.Request
	resp *types.Response
	err  error
}

// pasteMsg carries clipboard contents for the focused buffer
type pasteMsg struct {
	text string
	err  error
}

// statusMsg reports the outcome of a side effect
type statusMsg struct {
	text string
	err  error
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case responseMsg:
		m.ws.SetResponse(msg.sent, msg.resp, msg.err)
		m.failureHint = ""
		if msg.err != nil && errdef.Is(msg.err, errdef.CodeNetwork) {
			m.failureHint = categorizeError(msg.err)
		}
		m.updateResponseView()
		m.updateDetailView()

	case pasteMsg:
		if msg.err != nil {
			m.ws.SetError(errdef.Wrap(errdef.CodeValidation, msg.err, "clipboard unavailable"))
			break
		}
		m.ws.Paste(msg.text)

	case statusMsg:
		if msg.err != nil {
			m.ws.SetError(msg.err)
			break
		}
		m.ws.SetStatus("%s", msg.text)

	case spinner.TickMsg:
		if m.ws.Busy() {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	default:
		// cursor blink and other component messages
		cmd = m.ws.Edit(msg)
	}

	if m.ws.Response() != m.lastResponse {
		m.updateResponseView()
	}
	return m, cmd
}

func (m *Model) View() string {
	return m.render()
}

// Cleanup flushes pending edits before the program exits
func (m *Model) Cleanup() {
	m.ws.Commit()
}
