package navigation

import (
	"strings"
	"unicode/utf8"

	"github.com/studiowebux/apiquest/internal/tree"
	"github.com/studiowebux/apiquest/internal/types"
)

// State is the complete UI state. It is a value: every transition returns a
// new State and leaves the receiver untouched. A transition that does not
// apply to the current screen returns the receiver unchanged.
type State struct {
	screen          Screen
	panel           Panel
	field           Field
	selection       Selection
	overlay         KeyValue
	hasOverlay      bool
	passwordVisible bool
}

// New starts on the main screen with the tree focused and nothing selected
func New() State {
	return State{screen: Main{}, panel: PanelTree, field: FieldNone}
}

func (s State) Screen() Screen       { return s.screen }
func (s State) Panel() Panel         { return s.panel }
func (s State) Field() Field         { return s.field }
func (s State) Selection() Selection { return s.selection }

// PasswordVisible reports whether the password field is shown in clear
func (s State) PasswordVisible() bool { return s.passwordVisible }

// Overlay returns the key/value overlay, if one is open
func (s State) Overlay() (KeyValue, bool) { return s.overlay, s.hasOverlay }

// IsMain reports whether the main layout is showing
func (s State) IsMain() bool {
	_, ok := s.screen.(Main)
	return ok
}

// IsExiting reports whether quit is awaiting confirmation
func (s State) IsExiting() bool {
	_, ok := s.screen.(Exiting)
	return ok
}

// InDetails reports whether keystrokes go to the details panel
func (s State) InDetails() bool {
	return s.IsMain() && s.panel == PanelDetails
}

// TogglePasswordVisible flips masking of the password field
func (s State) TogglePasswordVisible() State {
	s.passwordVisible = !s.passwordVisible
	return s
}

// Draft returns the text being typed on screens that collect one
func (s State) Draft() (string, bool) {
	switch sc := s.screen.(type) {
	case Editing:
		return sc.Draft, true
	case AddingRequest:
		return sc.Draft, true
	case Searching:
		return sc.Query, true
	case RequestDetail:
		return sc.Filter, sc.EditingFilter
	}
	return "", false
}

// OpenGroupEditor starts collecting a new group name
func (s State) OpenGroupEditor() State {
	if !s.IsMain() {
		return s
	}
	s.screen = Editing{}
	return s
}

// TypeDraft appends text to the current draft
func (s State) TypeDraft(text string) State {
	switch sc := s.screen.(type) {
	case Editing:
		sc.Draft += text
		s.screen = sc
	case AddingRequest:
		sc.Draft += text
		s.screen = sc
	case Searching:
		sc.Query += text
		s.screen = sc
	case RequestDetail:
		if sc.EditingFilter {
			sc.Filter += text
			s.screen = sc
		}
	}
	return s
}

// EraseDraft removes the last rune of the current draft
func (s State) EraseDraft() State {
	trim := func(v string) string {
		if v == "" {
			return v
		}
		_, size := utf8.DecodeLastRuneInString(v)
		return v[:len(v)-size]
	}
	switch sc := s.screen.(type) {
	case Editing:
		sc.Draft = trim(sc.Draft)
		s.screen = sc
	case AddingRequest:
		sc.Draft = trim(sc.Draft)
		s.screen = sc
	case Searching:
		sc.Query = trim(sc.Query)
		s.screen = sc
	case RequestDetail:
		if sc.EditingFilter {
			sc.Filter = trim(sc.Filter)
			s.screen = sc
		}
	}
	return s
}

// ConfirmGroup returns to Main once the draft holds a non-blank name. The
// caller creates the group first and only confirms on success.
func (s State) ConfirmGroup() State {
	sc, ok := s.screen.(Editing)
	if !ok || strings.TrimSpace(sc.Draft) == "" {
		return s
	}
	s.screen = Main{}
	return s
}

// Cancel closes an open overlay, or leaves any secondary screen for Main
func (s State) Cancel() State {
	if s.hasOverlay {
		return s.CloseOverlay()
	}
	if sc, ok := s.screen.(RequestDetail); ok && sc.EditingFilter {
		sc.EditingFilter = false
		s.screen = sc
		return s
	}
	s.screen = Main{}
	return s
}

// StartDelete enters the pick-a-target step of deletion
func (s State) StartDelete() State {
	if !s.IsMain() {
		return s
	}
	s.screen = Deleting{}
	s.panel = PanelTree
	s.field = FieldNone
	return s
}

// ConfirmDeleteTarget captures addr as the node to delete. The root cannot
// be deleted.
func (s State) ConfirmDeleteTarget(addr tree.Address) State {
	if _, ok := s.screen.(Deleting); !ok || addr.IsRoot() {
		return s
	}
	s.screen = DeleteConfirm{Pending: addr}
	return s
}

// ConfirmDelete returns to Main and hands back the captured target
func (s State) ConfirmDelete() (State, tree.Address, bool) {
	sc, ok := s.screen.(DeleteConfirm)
	if !ok {
		return s, tree.Address{}, false
	}
	s.screen = Main{}
	return s, sc.Pending, true
}

// AddRequest starts collecting a request for group
func (s State) AddRequest(group string) State {
	if !s.IsMain() || group == "" {
		return s
	}
	s.screen = AddingRequest{Group: group, Method: types.MethodGet}
	return s
}

// CycleDraftMethod moves the method picker of the add-request screen
func (s State) CycleDraftMethod(forward bool) State {
	sc, ok := s.screen.(AddingRequest)
	if !ok {
		return s
	}
	if forward {
		sc.Method = sc.Method.Next()
	} else {
		sc.Method = sc.Method.Previous()
	}
	s.screen = sc
	return s
}

// ConfirmRequest returns to Main once a non-blank name was typed, selecting
// the new request
func (s State) ConfirmRequest() State {
	sc, ok := s.screen.(AddingRequest)
	if !ok || strings.TrimSpace(sc.Draft) == "" {
		return s
	}
	s.screen = Main{}
	s.selection = Selection{Group: sc.Group, Request: strings.TrimSpace(sc.Draft)}
	return s
}

// OpenDetail shows the response screen for the selected request
func (s State) OpenDetail() State {
	if !s.IsMain() || !s.selection.HasRequest() {
		return s
	}
	s.screen = RequestDetail{}
	return s
}

// CloseDetail returns from the response screen
func (s State) CloseDetail() State {
	if _, ok := s.screen.(RequestDetail); !ok {
		return s
	}
	s.screen = Main{}
	return s
}

// EditFilter starts typing a response filter on the detail screen
func (s State) EditFilter() State {
	sc, ok := s.screen.(RequestDetail)
	if !ok {
		return s
	}
	sc.EditingFilter = true
	s.screen = sc
	return s
}

// ApplyFilter stops editing the filter and keeps it
func (s State) ApplyFilter() State {
	sc, ok := s.screen.(RequestDetail)
	if !ok {
		return s
	}
	sc.EditingFilter = false
	s.screen = sc
	return s
}

// ClearFilter drops the response filter
func (s State) ClearFilter() State {
	if _, ok := s.screen.(RequestDetail); !ok {
		return s
	}
	s.screen = RequestDetail{}
	return s
}

// StartSearch opens the tree search prompt
func (s State) StartSearch() State {
	if !s.IsMain() {
		return s
	}
	s.screen = Searching{}
	s.panel = PanelTree
	s.field = FieldNone
	return s
}

// Quit asks for confirmation from any screen
func (s State) Quit() State {
	s.hasOverlay = false
	s.screen = Exiting{}
	return s
}

// DenyQuit returns to Main
func (s State) DenyQuit() State {
	if !s.IsExiting() {
		return s
	}
	s.screen = Main{}
	return s
}

// FocusDetails moves focus to the details panel, defaulting to the URL field
func (s State) FocusDetails() State {
	if !s.IsMain() || !s.selection.HasRequest() {
		return s
	}
	s.panel = PanelDetails
	if s.field == FieldNone {
		s.field = FieldURL
	}
	return s
}

// FocusTree moves focus back to the tree and clears the field
func (s State) FocusTree() State {
	s.panel = PanelTree
	s.field = FieldNone
	s.hasOverlay = false
	return s
}

// NextField advances the details field per the tab order for auth
func (s State) NextField(auth types.AuthType) State {
	if !s.InDetails() || s.hasOverlay {
		return s
	}
	s.field = NextField(s.field, auth)
	return s
}

// PrevField moves the details field backward
func (s State) PrevField(auth types.AuthType) State {
	if !s.InDetails() || s.hasOverlay {
		return s
	}
	s.field = PrevField(s.field, auth)
	return s
}

// FitField moves off a field that the current auth type does not have
func (s State) FitField(auth types.AuthType) State {
	if s.field == FieldNone || fieldIndex(FieldOrder(auth), s.field) >= 0 {
		return s
	}
	s.field = FieldAuthType
	return s
}

// Select points the selection at sel. Changing request drops the details
// focus since the buffers are rebuilt.
func (s State) Select(sel Selection) State {
	if sel != s.selection {
		s.panel = PanelTree
		s.field = FieldNone
		s.hasOverlay = false
	}
	s.selection = sel
	return s
}

// ClearSelection selects nothing
func (s State) ClearSelection() State {
	return s.Select(Selection{})
}

// ForgetGroup drops the selection if it refers to the deleted group
func (s State) ForgetGroup(group string) State {
	if s.selection.Group != group {
		return s
	}
	return s.ClearSelection()
}

// ForgetRequest drops the request part of the selection if it refers to the
// deleted request
func (s State) ForgetRequest(group, request string) State {
	if s.selection.Group != group || s.selection.Request != request {
		return s
	}
	return s.Select(Selection{Group: group})
}

// Horizontal is what a left or right key press resolves to
type Horizontal int

const (
	HorizontalNone Horizontal = iota
	HorizontalForward
	HorizontalFocusTree
	HorizontalAuthBack
	HorizontalAuthForward
)

// Left resolves a left key press in the details panel. atStart reports
// whether the text cursor sits at column 0 of line 0.
func (s State) Left(auth types.AuthType, atStart bool) Horizontal {
	if !s.InDetails() {
		return HorizontalNone
	}
	switch {
	case s.field.IsText():
		if atStart {
			return HorizontalFocusTree
		}
		return HorizontalForward
	case s.field == FieldAuthType:
		if auth != types.AuthNone {
			return HorizontalAuthBack
		}
		return HorizontalFocusTree
	default:
		return HorizontalFocusTree
	}
}

// Right resolves a right key press in the details panel
func (s State) Right() Horizontal {
	if !s.InDetails() {
		return HorizontalNone
	}
	switch {
	case s.field.IsText():
		return HorizontalForward
	case s.field == FieldAuthType:
		return HorizontalAuthForward
	default:
		return HorizontalNone
	}
}

// OpenOverlay starts header or param entry. It only opens from the matching
// details field.
func (s State) OpenOverlay(target OverlayTarget) State {
	if !s.InDetails() {
		return s
	}
	if (target == OverlayHeader && s.field != FieldHeaders) || (target == OverlayParam && s.field != FieldParams) {
		return s
	}
	s.overlay = KeyValue{Target: target, Input: InputKey}
	s.hasOverlay = true
	return s
}

// OverlayType appends text to the active half of the overlay
func (s State) OverlayType(text string) State {
	if !s.hasOverlay {
		return s
	}
	if s.overlay.Input == InputKey {
		s.overlay.Key += text
	} else {
		s.overlay.Value += text
	}
	return s
}

// OverlayErase removes the last rune of the active half
func (s State) OverlayErase() State {
	if !s.hasOverlay {
		return s
	}
	target := &s.overlay.Key
	if s.overlay.Input == InputValue {
		target = &s.overlay.Value
	}
	if *target != "" {
		_, size := utf8.DecodeLastRuneInString(*target)
		*target = (*target)[:len(*target)-size]
	}
	return s
}

// OverlaySwitch toggles typing between key and value
func (s State) OverlaySwitch() State {
	if !s.hasOverlay {
		return s
	}
	if s.overlay.Input == InputKey {
		s.overlay.Input = InputValue
	} else {
		s.overlay.Input = InputKey
	}
	return s
}

// CloseOverlay discards the overlay
func (s State) CloseOverlay() State {
	s.hasOverlay = false
	s.overlay = KeyValue{}
	return s
}
