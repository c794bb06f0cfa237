package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/studiowebux/apiquest/internal/keybinds"
	"github.com/studiowebux/apiquest/internal/logging"
	"github.com/studiowebux/apiquest/internal/workspace"
)

// New creates a new TUI model over ws
func New(ctx context.Context, ws *workspace.Workspace, keys *keybinds.Registry, logger *log.Logger) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleWarning

	m := &Model{
		ws:           ws,
		keys:         keys,
		logger:       logging.OrNop(logger),
		ctx:          ctx,
		responseView: viewport.New(80, 10),
		detailView:   viewport.New(80, 20),
		spinner:      s,
	}
	m.updateResponseView()
	return m
}

// Run starts the TUI and blocks until the user quits. Pending edits are
// flushed on the way out, even when the program fails.
func Run(ctx context.Context, ws *workspace.Workspace, keys *keybinds.Registry, logger *log.Logger) error {
	m := New(ctx, ws, keys, logger)
	defer m.Cleanup()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		m.logger.Error("tui stopped", "err", err)
		return err
	}
	return nil
}
