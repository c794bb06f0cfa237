package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/apiquest/internal/keybinds"
	"github.com/studiowebux/apiquest/internal/navigation"
	"github.com/studiowebux/apiquest/internal/tree"
)

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if action, ok := m.keys.Match(keybinds.ContextGlobal, msg.String()); ok && action == keybinds.ActionQuitForce {
		m.Cleanup()
		return tea.Quit
	}

	state := m.ws.State()
	if _, open := state.Overlay(); open {
		return m.handleOverlayKeys(msg)
	}

	switch sc := state.Screen().(type) {
	case navigation.Main:
		if state.InDetails() {
			return m.handleDetailsKeys(msg)
		}
		return m.handleTreeKeys(msg)
	case navigation.Editing:
		return m.handlePromptKeys(msg, func() { m.ws.ConfirmGroup() })
	case navigation.AddingRequest:
		return m.handlePromptKeys(msg, func() { m.ws.ConfirmRequest() })
	case navigation.Searching:
		return m.handlePromptKeys(msg, m.ws.ConfirmSearch)
	case navigation.Deleting:
		return m.handlePickerKeys(msg)
	case navigation.DeleteConfirm:
		return m.handleConfirmKeys(msg, func() tea.Cmd {
			m.ws.ConfirmDelete()
			return nil
		}, m.ws.Cancel)
	case navigation.Exiting:
		return m.handleConfirmKeys(msg, func() tea.Cmd {
			m.Cleanup()
			return tea.Quit
		}, m.ws.DenyQuit)
	case navigation.RequestDetail:
		if sc.EditingFilter {
			return m.handlePromptKeys(msg, func() {
				m.ws.ApplyFilter()
				m.updateDetailView()
			})
		}
		return m.handleViewerKeys(msg)
	}
	return nil
}

// handleTreeKeys handles the main screen with the tree focused
func (m *Model) handleTreeKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok, partial := m.keys.MatchSequence(keybinds.ContextTree, msg.String())
	if partial || !ok {
		return nil
	}
	m.ws.ClearStatus()

	switch action {
	case keybinds.ActionNavigateUp:
		m.ws.MoveUp()
	case keybinds.ActionNavigateDown:
		m.ws.MoveDown()
	case keybinds.ActionGoToTop:
		m.ws.MoveFirst()
	case keybinds.ActionGoToBottom:
		m.ws.MoveLast()
	case keybinds.ActionExpand:
		if m.selectedAddress().IsRequest() {
			return m.ws.FocusDetails()
		}
		m.ws.ExpandNode()
	case keybinds.ActionCollapse:
		m.ws.CollapseNode()
	case keybinds.ActionToggleNode:
		m.ws.ToggleNode()
	case keybinds.ActionSelect:
		if m.selectedAddress().IsRequest() {
			return m.ws.FocusDetails()
		}
		m.ws.ToggleNode()
	case keybinds.ActionFocusDetails:
		return m.ws.FocusDetails()
	case keybinds.ActionNewGroup:
		m.ws.OpenGroupEditor()
	case keybinds.ActionAddRequest:
		m.ws.StartAddRequest()
	case keybinds.ActionDelete:
		m.ws.StartDelete()
	case keybinds.ActionNextMethod:
		m.ws.CycleMethod(true)
	case keybinds.ActionPrevMethod:
		m.ws.CycleMethod(false)
	case keybinds.ActionSend:
		return m.send()
	case keybinds.ActionOpenResponse:
		m.ws.OpenDetail()
		m.updateDetailView()
	case keybinds.ActionOpenSearch:
		m.ws.StartSearch()
	case keybinds.ActionQuit:
		m.ws.Quit()
	}
	return nil
}

// handleDetailsKeys handles the details panel. Keys without a binding go to
// the focused text buffer.
func (m *Model) handleDetailsKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keys.Match(keybinds.ContextDetails, msg.String())
	if !ok || msg.Paste {
		return m.ws.Edit(msg)
	}

	field := m.ws.State().Field()
	switch action {
	case keybinds.ActionNextField:
		return m.ws.NextField()
	case keybinds.ActionPrevField:
		return m.ws.PrevField()
	case keybinds.ActionFocusTree:
		m.ws.FocusTree()
	case keybinds.ActionLeft:
		return m.ws.Left(msg)
	case keybinds.ActionRight:
		return m.ws.Right(msg)
	case keybinds.ActionTogglePassword:
		if field == navigation.FieldAuthPassword {
			m.ws.TogglePasswordVisible()
			return nil
		}
		return m.ws.Edit(msg)
	case keybinds.ActionOpenOverlay:
		if field == navigation.FieldHeaders || field == navigation.FieldParams {
			m.ws.OpenOverlay()
			return nil
		}
		return m.ws.Edit(msg)
	case keybinds.ActionSend:
		return m.send()
	case keybinds.ActionPaste:
		return readClipboard
	}
	return nil
}

// handleOverlayKeys edits the header/param entry
func (m *Model) handleOverlayKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keys.Match(keybinds.ContextOverlay, msg.String())
	if !ok {
		if text, printable := typed(msg); printable {
			m.ws.OverlayType(text)
		}
		return nil
	}

	switch action {
	case keybinds.ActionSubmit:
		m.ws.SaveOverlay()
	case keybinds.ActionCancel:
		m.ws.Cancel()
	case keybinds.ActionErase:
		m.ws.OverlayErase()
	case keybinds.ActionSwitchKV:
		m.ws.OverlaySwitch()
	case keybinds.ActionRemoveKey:
		m.ws.RemoveOverlayKey()
	}
	return nil
}

// handlePromptKeys drives the single-line prompts. submit runs on enter.
func (m *Model) handlePromptKeys(msg tea.KeyMsg, submit func()) tea.Cmd {
	action, ok := m.keys.Match(keybinds.ContextPrompt, msg.String())
	if !ok {
		if text, printable := typed(msg); printable {
			m.ws.TypeDraft(text)
		}
		return nil
	}

	switch action {
	case keybinds.ActionSubmit:
		submit()
	case keybinds.ActionCancel:
		m.ws.Cancel()
		m.updateDetailView()
	case keybinds.ActionErase:
		m.ws.EraseDraft()
	case keybinds.ActionNextMethod:
		m.ws.CycleDraftMethod(true)
	case keybinds.ActionPrevMethod:
		m.ws.CycleDraftMethod(false)
	}
	return nil
}

// handlePickerKeys moves the cursor to the node to delete
func (m *Model) handlePickerKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keys.Match(keybinds.ContextPicker, msg.String())
	if !ok {
		return nil
	}

	switch action {
	case keybinds.ActionNavigateUp:
		m.ws.MoveUp()
	case keybinds.ActionNavigateDown:
		m.ws.MoveDown()
	case keybinds.ActionExpand:
		m.ws.ExpandNode()
	case keybinds.ActionCollapse:
		m.ws.CollapseNode()
	case keybinds.ActionSubmit:
		m.ws.PickDeleteTarget()
	case keybinds.ActionCancel:
		m.ws.Cancel()
	}
	return nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg, confirm func() tea.Cmd, deny func()) tea.Cmd {
	action, ok := m.keys.Match(keybinds.ContextConfirm, msg.String())
	if !ok {
		return nil
	}

	switch action {
	case keybinds.ActionConfirm:
		return confirm()
	case keybinds.ActionDeny:
		deny()
	}
	return nil
}

// handleViewerKeys handles the full-screen response
func (m *Model) handleViewerKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok, partial := m.keys.MatchSequence(keybinds.ContextViewer, msg.String())
	if partial || !ok {
		return nil
	}

	switch action {
	case keybinds.ActionScrollUp:
		m.detailView.ScrollUp(1)
	case keybinds.ActionScrollDown:
		m.detailView.ScrollDown(1)
	case keybinds.ActionPageUp:
		m.detailView.PageUp()
	case keybinds.ActionPageDown:
		m.detailView.PageDown()
	case keybinds.ActionGoToTop:
		m.detailView.GotoTop()
	case keybinds.ActionGoToBottom:
		m.detailView.GotoBottom()
	case keybinds.ActionEditFilter:
		m.ws.EditFilter()
	case keybinds.ActionClearFilter:
		m.ws.ClearFilter()
		m.updateDetailView()
	case keybinds.ActionCopyToClipboard:
		return m.copyResponse()
	case keybinds.ActionSend:
		return m.send()
	case keybinds.ActionCloseViewer:
		m.ws.CloseDetail()
	}
	return nil
}

// typed returns the text a key press would insert
func typed(msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		return string(msg.Runes), true
	case tea.KeySpace:
		return " ", true
	}
	return "", false
}

// selectedAddress is the node under the tree cursor
func (m *Model) selectedAddress() tree.Address {
	return m.ws.Navigator().Selected()
}
