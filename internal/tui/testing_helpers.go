package tui

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/apiquest/internal/keybinds"
	"github.com/studiowebux/apiquest/internal/store"
	"github.com/studiowebux/apiquest/internal/workspace"
)

// CreateTestModel creates a sized Model over a fresh database
func CreateTestModel(t *testing.T) *Model {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ws, err := workspace.New(s, workspace.Options{})
	if err != nil {
		t.Fatalf("Failed to create workspace: %v", err)
	}

	m := New(context.Background(), ws, keybinds.NewDefaultRegistry(), nil)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

// Press feeds key presses to the model and returns the last command
func Press(m *Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

// Runes builds a key press for typed text
func Runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// Key builds a key press for a special key
func Key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// AssertModelField compares a model field against its expected value
func AssertModelField(t *testing.T, fieldName string, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", fieldName, got, want)
	}
}
