package workspace

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/apiquest/internal/collection"
	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/executor"
	"github.com/studiowebux/apiquest/internal/filter"
	"github.com/studiowebux/apiquest/internal/navigation"
	"github.com/studiowebux/apiquest/internal/tree"
	"github.com/studiowebux/apiquest/internal/types"
)

// Tree panel

// MoveDown moves the tree cursor and selects what it lands on
func (w *Workspace) MoveDown() {
	w.nav.MoveDown(w.tree)
	w.selectCursor()
}

// MoveUp moves the tree cursor and selects what it lands on
func (w *Workspace) MoveUp() {
	w.nav.MoveUp(w.tree)
	w.selectCursor()
}

// MoveFirst jumps to the root
func (w *Workspace) MoveFirst() {
	w.nav.First()
	w.selectCursor()
}

// MoveLast jumps to the last visible row
func (w *Workspace) MoveLast() {
	w.nav.Last(w.tree)
	w.selectCursor()
}

// ExpandNode opens the group under the cursor
func (w *Workspace) ExpandNode() { w.nav.Open() }

// CollapseNode closes the group under the cursor, or climbs to it from a request
func (w *Workspace) CollapseNode() {
	w.nav.Close()
	w.selectCursor()
}

// ToggleNode flips the group under the cursor
func (w *Workspace) ToggleNode() { w.nav.Toggle() }

// Select moves the cursor to addr. Addresses that do not resolve select
// nothing.
func (w *Workspace) Select(addr tree.Address) {
	if !w.nav.Select(w.tree, addr) {
		w.nav.First()
	}
	w.selectCursor()
}

// CycleMethod moves the selected request to the next method
func (w *Workspace) CycleMethod(forward bool) {
	sel := w.state.Selection()
	req, ok := w.SelectedRequest()
	if !ok {
		return
	}
	next := req.Method.Next()
	if !forward {
		next = req.Method.Previous()
	}
	if _, err := w.update(sel.Group, sel.Request, collection.SetMethod(next)); err != nil {
		w.SetError(err)
		return
	}
	w.rebuild()
}

// Group creation

// OpenGroupEditor starts typing a new group name
func (w *Workspace) OpenGroupEditor() {
	w.commit()
	w.state = w.state.OpenGroupEditor()
}

// TypeDraft appends to the draft of the current prompt
func (w *Workspace) TypeDraft(text string) { w.state = w.state.TypeDraft(text) }

// EraseDraft removes the last rune of the draft
func (w *Workspace) EraseDraft() { w.state = w.state.EraseDraft() }

// Cancel leaves the current prompt or overlay
func (w *Workspace) Cancel() {
	w.state = w.state.Cancel()
	w.ClearStatus()
}

// ConfirmGroup creates the drafted group. Validation and storage failures
// keep the prompt open with the error on the status line.
func (w *Workspace) ConfirmGroup() error {
	draft, ok := w.state.Draft()
	if _, editing := w.state.Screen().(navigation.Editing); !ok || !editing {
		return nil
	}
	name := trimName(draft)

	if err := w.coll.ValidateNewGroup(name); err != nil {
		w.SetError(err)
		return err
	}
	id, err := w.store.CreateGroup(name)
	if err != nil {
		w.SetError(err)
		return err
	}
	if err := w.coll.AddGroup(types.Group{ID: id, Name: name}); err != nil {
		w.SetError(err)
		return err
	}

	w.state = w.state.ConfirmGroup()
	w.rebuild()
	w.Select(tree.GroupAddr(name))
	w.SetStatus("Created group %q", name)
	w.logger.Info("group created", "name", name)
	return nil
}

// Request creation

// StartAddRequest opens the add-request prompt for the selected group
func (w *Workspace) StartAddRequest() {
	sel := w.state.Selection()
	if !sel.HasGroup() {
		w.SetError(errdef.New(errdef.CodeValidation, "select a group first"))
		return
	}
	w.commit()
	w.state = w.state.AddRequest(sel.Group)
}

// CycleDraftMethod moves the method picker of the add-request prompt
func (w *Workspace) CycleDraftMethod(forward bool) {
	w.state = w.state.CycleDraftMethod(forward)
}

// ConfirmRequest creates the drafted request and selects it
func (w *Workspace) ConfirmRequest() error {
	sc, ok := w.state.Screen().(navigation.AddingRequest)
	if !ok {
		return nil
	}
	name := trimName(sc.Draft)

	if err := w.coll.ValidateNewRequest(sc.Group, name); err != nil {
		w.SetError(err)
		return err
	}
	group, _ := w.coll.Group(sc.Group)

	req := types.NewRequest(name, sc.Method)
	id, err := w.store.CreateRequest(group.ID, req)
	if err != nil {
		w.SetError(err)
		return err
	}
	req.ID = id
	if err := w.coll.AddRequest(sc.Group, req); err != nil {
		w.SetError(err)
		return err
	}

	w.state = w.state.ConfirmRequest()
	w.rebuild()
	w.nav.Select(w.tree, tree.RequestAddr(sc.Group, name))
	w.syncBuffers()
	w.SetStatus("Created %s", req.Label())
	w.logger.Info("request created", "group", sc.Group, "name", name, "method", req.Method)
	return nil
}

// Deletion

// StartDelete enters the pick-a-target step
func (w *Workspace) StartDelete() {
	w.commit()
	w.buffers.Blur()
	w.state = w.state.StartDelete()
	w.SetStatus("Move to the item to delete and press enter")
}

// PickDeleteTarget captures the node under the cursor
func (w *Workspace) PickDeleteTarget() {
	addr := w.nav.Selected()
	if addr.IsRoot() {
		w.SetError(errdef.New(errdef.CodeValidation, "the root cannot be deleted"))
		return
	}
	w.state = w.state.ConfirmDeleteTarget(addr)
	w.SetStatus("%s", w.DeletePrompt())
}

// DeletePrompt describes the pending deletion
func (w *Workspace) DeletePrompt() string {
	sc, ok := w.state.Screen().(navigation.DeleteConfirm)
	if !ok {
		return ""
	}
	addr := sc.Pending
	switch addr.Kind {
	case tree.KindGroup:
		g, _ := w.coll.Group(addr.Group)
		return fmt.Sprintf("Delete group %q and its %d request(s)? (y/n)", addr.Group, len(g.Requests))
	case tree.KindRequest:
		return fmt.Sprintf("Delete request %q from %q? (y/n)", addr.Request, addr.Group)
	}
	return ""
}

// ConfirmDelete deletes the target captured by PickDeleteTarget. A target
// that no longer resolves deletes nothing.
func (w *Workspace) ConfirmDelete() error {
	state, addr, ok := w.state.ConfirmDelete()
	if !ok {
		return nil
	}
	w.state = state

	var err error
	switch addr.Kind {
	case tree.KindGroup:
		err = w.deleteGroup(addr.Group)
	case tree.KindRequest:
		err = w.deleteRequest(addr.Group, addr.Request)
	}
	if err != nil {
		w.SetError(err)
		return err
	}

	w.rebuild()
	if sel := w.state.Selection(); sel.HasGroup() {
		w.nav.Select(w.tree, sel.Address())
	}
	w.SetStatus("Deleted %s", addr)
	return nil
}

func (w *Workspace) deleteGroup(name string) error {
	g, ok := w.coll.Group(name)
	if !ok {
		return fmt.Errorf("%w: %q", collection.ErrUnknownGroup, name)
	}
	if err := w.store.DeleteGroup(g.ID); err != nil {
		return err
	}
	if _, err := w.coll.DeleteGroup(name); err != nil {
		return err
	}
	w.state = w.state.ForgetGroup(name)
	w.logger.Info("group deleted", "name", name, "requests", len(g.Requests))
	return nil
}

func (w *Workspace) deleteRequest(group, name string) error {
	req, ok := w.coll.Request(group, name)
	if !ok {
		return fmt.Errorf("%w: %q in %q", collection.ErrUnknownRequest, name, group)
	}
	if err := w.store.DeleteRequest(req.ID); err != nil {
		return err
	}
	if _, err := w.coll.DeleteRequest(group, name); err != nil {
		return err
	}
	w.state = w.state.ForgetRequest(group, name)
	w.logger.Info("request deleted", "group", group, "name", name)
	return nil
}

// Details panel

// FocusDetails moves focus into the details panel
func (w *Workspace) FocusDetails() tea.Cmd {
	w.state = w.state.FocusDetails()
	return w.focusBuffer()
}

// FocusTree flushes pending edits and returns focus to the tree
func (w *Workspace) FocusTree() {
	w.commit()
	w.state = w.state.FocusTree()
	w.buffers.Blur()
}

// NextField moves to the following details field
func (w *Workspace) NextField() tea.Cmd {
	w.state = w.state.NextField(w.authType())
	return w.focusBuffer()
}

// PrevField moves to the previous details field
func (w *Workspace) PrevField() tea.Cmd {
	w.state = w.state.PrevField(w.authType())
	return w.focusBuffer()
}

// Left handles a left key press in the details panel
func (w *Workspace) Left(msg tea.Msg) tea.Cmd {
	atStart := true
	if tf, ok := w.state.Field().TextField(); ok {
		atStart = w.buffers.AtStart(tf)
	}
	switch w.state.Left(w.authType(), atStart) {
	case navigation.HorizontalFocusTree:
		w.FocusTree()
	case navigation.HorizontalForward:
		return w.Edit(msg)
	case navigation.HorizontalAuthBack:
		w.CycleAuth(false)
	}
	return nil
}

// Right handles a right key press in the details panel
func (w *Workspace) Right(msg tea.Msg) tea.Cmd {
	switch w.state.Right() {
	case navigation.HorizontalForward:
		return w.Edit(msg)
	case navigation.HorizontalAuthForward:
		w.CycleAuth(true)
	}
	return nil
}

// Edit forwards msg to the focused buffer and flushes the result
func (w *Workspace) Edit(msg tea.Msg) tea.Cmd {
	if !w.state.InDetails() || !w.state.Field().IsText() {
		return nil
	}
	cmd := w.buffers.Update(msg)
	w.commit()
	return cmd
}

// Paste inserts text into the focused buffer
func (w *Workspace) Paste(text string) {
	tf, ok := w.state.Field().TextField()
	if !w.state.InDetails() || !ok {
		return
	}
	w.buffers.Paste(tf, text)
	w.commit()
}

// CycleAuth switches the auth type of the selected request. The Basic
// payload always starts empty.
func (w *Workspace) CycleAuth(forward bool) {
	sel := w.state.Selection()
	req, ok := w.SelectedRequest()
	if !ok {
		return
	}
	next := req.Details.AuthType.Next()
	if !forward {
		next = req.Details.AuthType.Previous()
	}
	if _, err := w.update(sel.Group, sel.Request, collection.SetAuthType(next)); err != nil {
		w.SetError(err)
		return
	}
	w.syncBuffers()
	w.state = w.state.FitField(next)
}

// TogglePasswordVisible masks or reveals the password buffer
func (w *Workspace) TogglePasswordVisible() {
	w.state = w.state.TogglePasswordVisible()
	w.buffers.SetPasswordVisible(w.state.PasswordVisible())
}

func (w *Workspace) authType() types.AuthType {
	req, ok := w.SelectedRequest()
	if !ok {
		return types.AuthNone
	}
	return req.Details.AuthType
}

func (w *Workspace) focusBuffer() tea.Cmd {
	tf, ok := w.state.Field().TextField()
	if !w.state.InDetails() || !ok {
		w.buffers.Blur()
		return nil
	}
	return w.buffers.Focus(tf)
}

// Header and param overlay

// OpenOverlay starts entry of a header or a param, depending on the field
func (w *Workspace) OpenOverlay() {
	switch w.state.Field() {
	case navigation.FieldHeaders:
		w.state = w.state.OpenOverlay(navigation.OverlayHeader)
	case navigation.FieldParams:
		w.state = w.state.OpenOverlay(navigation.OverlayParam)
	}
}

// OverlayType appends to the active half of the overlay
func (w *Workspace) OverlayType(text string) { w.state = w.state.OverlayType(text) }

// OverlayErase removes the last rune of the active half
func (w *Workspace) OverlayErase() { w.state = w.state.OverlayErase() }

// OverlaySwitch toggles between key and value
func (w *Workspace) OverlaySwitch() { w.state = w.state.OverlaySwitch() }

// SaveOverlay upserts the typed entry. On a rejected entry the overlay stays
// open.
func (w *Workspace) SaveOverlay() error {
	kv, open := w.state.Overlay()
	if !open {
		return nil
	}
	m := collection.UpsertHeader(kv.Key, kv.Value)
	if kv.Target == navigation.OverlayParam {
		m = collection.UpsertParam(kv.Key, kv.Value)
	}
	if err := w.mutateSelected(m); err != nil {
		w.SetError(err)
		return err
	}
	w.state = w.state.CloseOverlay()
	w.SetStatus("Saved %s %q", kv.Target, kv.Key)
	return nil
}

// RemoveOverlayKey deletes the entry named by the overlay key
func (w *Workspace) RemoveOverlayKey() error {
	kv, open := w.state.Overlay()
	if !open {
		return nil
	}
	m := collection.RemoveHeader(kv.Key)
	if kv.Target == navigation.OverlayParam {
		m = collection.RemoveParam(kv.Key)
	}
	if err := w.mutateSelected(m); err != nil {
		w.SetError(err)
		return err
	}
	w.state = w.state.CloseOverlay()
	w.SetStatus("Removed %s %q", kv.Target, kv.Key)
	return nil
}

func (w *Workspace) mutateSelected(m collection.Mutation) error {
	sel := w.state.Selection()
	if !sel.HasRequest() {
		return errdef.New(errdef.CodeAddressing, "no request selected")
	}
	w.commit()
	_, err := w.update(sel.Group, sel.Request, m)
	return err
}

// Execution

// Send flushes pending edits and reserves the execution slot for a snapshot
// of the selected request. The returned job runs off the event loop; the
// snapshot goes back to SetResponse with the job's result.
func (w *Workspace) Send() (types.Request, executor.Job, error) {
	w.commit()
	req, ok := w.SelectedRequest()
	if !ok {
		err := errdef.New(errdef.CodeValidation, "select a request to send")
		w.SetError(err)
		return types.Request{}, nil, err
	}
	job, err := w.runner.Start(req)
	if err != nil {
		w.SetError(err)
		return types.Request{}, nil, err
	}
	w.SetStatus("Sending %s %s", req.Method, req.Details.URL)
	w.logger.Debug("sending", "method", req.Method, "url", req.Details.URL)
	return req, job, nil
}

// SetResponse shows the result of an execution and adds the response to the
// history of sent, the snapshot Send returned. A zero sent is not recorded.
func (w *Workspace) SetResponse(sent types.Request, resp *types.Response, err error) {
	if resp != nil {
		w.response = resp
		w.record(sent, resp)
	}
	if err != nil {
		if resp == nil {
			w.response = &types.Response{Error: errdef.Message(err)}
		}
		w.SetError(err)
		return
	}
	if resp == nil {
		return
	}
	w.SetStatus("%d %s in %s", resp.Status, resp.StatusText, executor.FormatDuration(resp.Duration))
	w.logger.Info("response", "status", resp.Status, "duration", resp.Duration, "size", resp.ResponseSize)
}

func (w *Workspace) record(req types.Request, resp *types.Response) {
	if w.history == nil || req.ID == 0 {
		return
	}
	if err := w.history.Record(req, resp); err != nil {
		w.logger.Warn("failed to record history", "request", req.Name, "err", err)
	}
}

// Response screen

// OpenDetail shows the response full screen
func (w *Workspace) OpenDetail() {
	w.commit()
	w.state = w.state.OpenDetail()
}

// CloseDetail leaves the response screen
func (w *Workspace) CloseDetail() { w.state = w.state.CloseDetail() }

// EditFilter starts typing a response filter
func (w *Workspace) EditFilter() { w.state = w.state.EditFilter() }

// ApplyFilter keeps the typed filter
func (w *Workspace) ApplyFilter() { w.state = w.state.ApplyFilter() }

// ClearFilter drops the filter
func (w *Workspace) ClearFilter() { w.state = w.state.ClearFilter() }

// ResponseBody returns the last body with the current filter applied
func (w *Workspace) ResponseBody(ctx context.Context) (string, error) {
	if w.response == nil {
		return "", nil
	}
	sc, ok := w.state.Screen().(navigation.RequestDetail)
	if !ok || sc.EditingFilter || sc.Filter == "" {
		return w.response.Body, nil
	}
	return filter.Apply(ctx, w.response.Body, sc.Filter)
}

// Search

// StartSearch opens the tree search prompt
func (w *Workspace) StartSearch() {
	w.commit()
	w.buffers.Blur()
	w.state = w.state.StartSearch()
}

// SearchResults are the fuzzy hits for the typed query
func (w *Workspace) SearchResults() []tree.Match {
	sc, ok := w.state.Screen().(navigation.Searching)
	if !ok {
		return nil
	}
	return w.tree.Search(sc.Query)
}

// ConfirmSearch selects the best hit and returns to the tree
func (w *Workspace) ConfirmSearch() {
	hits := w.SearchResults()
	w.state = w.state.Cancel()
	if len(hits) == 0 {
		w.SetStatus("No match")
		return
	}
	w.Select(hits[0].Node.Address)
}

// Quitting

// Quit asks for confirmation
func (w *Workspace) Quit() {
	w.commit()
	w.buffers.Blur()
	w.state = w.state.Quit()
}

// DenyQuit returns to the main screen
func (w *Workspace) DenyQuit() { w.state = w.state.DenyQuit() }
