package workspace

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/studiowebux/apiquest/internal/collection"
	"github.com/studiowebux/apiquest/internal/editor"
	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/executor"
	"github.com/studiowebux/apiquest/internal/logging"
	"github.com/studiowebux/apiquest/internal/navigation"
	"github.com/studiowebux/apiquest/internal/tree"
	"github.com/studiowebux/apiquest/internal/types"
)

// Persister is the subset of the store the workspace writes through
type Persister interface {
	CreateGroup(name string) (int64, error)
	DeleteGroup(id int64) error
	CreateRequest(groupID int64, req types.Request) (int64, error)
	UpdateRequest(id int64, req types.Request) error
	DeleteRequest(id int64) error
	LoadAll() ([]types.Group, error)
}

// Recorder keeps the responses of executed requests
type Recorder interface {
	Record(req types.Request, resp *types.Response) error
}

// Status is the one-line message under the panels
type Status struct {
	Text  string
	Error bool
}

// Workspace owns the request model and everything derived from it. Every
// mutation is written to the store before the in-memory model changes, so a
// failed write leaves both untouched.
type Workspace struct {
	coll    *collection.Collection
	store   Persister
	state   navigation.State
	buffers *editor.Buffers
	nav     *tree.Navigator
	tree    *tree.Tree
	runner  *executor.Runner
	history Recorder
	logger  *log.Logger

	response *types.Response
	status   Status
}

// Options tunes a new workspace
type Options struct {
	Runner          *executor.Runner
	History         Recorder
	Logger          *log.Logger
	PasswordVisible bool
}

// New loads every group and request from p
func New(p Persister, opts Options) (*Workspace, error) {
	groups, err := p.LoadAll()
	if err != nil {
		return nil, err
	}
	coll, err := collection.FromGroups(groups)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "stored collection is inconsistent")
	}

	runner := opts.Runner
	if runner == nil {
		runner = executor.NewRunner(executor.DefaultOptions())
	}

	w := &Workspace{
		coll:    coll,
		store:   p,
		state:   navigation.New(),
		buffers: editor.New(),
		nav:     tree.NewNavigator(),
		runner:  runner,
		history: opts.History,
		logger:  logging.OrNop(opts.Logger),
	}
	if opts.PasswordVisible {
		w.state = w.state.TogglePasswordVisible()
	}
	w.buffers.SetPasswordVisible(w.state.PasswordVisible())
	w.rebuild()

	w.logger.Info("workspace loaded", "groups", coll.Len())
	return w, nil
}

// State is the current UI state value
func (w *Workspace) State() navigation.State { return w.state }

// Tree is the projection of the current model
func (w *Workspace) Tree() *tree.Tree { return w.tree }

// Navigator holds the tree cursor and expansion
func (w *Workspace) Navigator() *tree.Navigator { return w.nav }

// Buffers are the live text views of the selected request
func (w *Workspace) Buffers() *editor.Buffers { return w.buffers }

// Response is the result of the last execution, if any
func (w *Workspace) Response() *types.Response { return w.response }

// Status is the current status line
func (w *Workspace) Status() Status { return w.status }

// Busy reports whether a request is in flight
func (w *Workspace) Busy() bool { return w.runner.Busy() }

// Groups lists every group sorted by name
func (w *Workspace) Groups() []types.Group { return w.coll.Groups() }

// SelectedRequest returns the selected request, if the selection still
// resolves to one
func (w *Workspace) SelectedRequest() (types.Request, bool) {
	sel := w.state.Selection()
	if !sel.HasRequest() {
		return types.Request{}, false
	}
	return w.coll.Request(sel.Group, sel.Request)
}

// SelectedGroup returns the group of the selection
func (w *Workspace) SelectedGroup() (types.Group, bool) {
	sel := w.state.Selection()
	if !sel.HasGroup() {
		return types.Group{}, false
	}
	return w.coll.Group(sel.Group)
}

// SelectionIndices exposes the selection as positions in the sorted group
// list and in the group's request list; -1 means none
func (w *Workspace) SelectionIndices() (group, request int) {
	sel := w.state.Selection()
	group = sel.GroupIndex(w.coll.GroupNames())
	request = -1
	if g, ok := w.coll.Group(sel.Group); ok {
		names := make([]string, len(g.Requests))
		for i, r := range g.Requests {
			names[i] = r.Name
		}
		request = sel.RequestIndex(names)
	}
	return group, request
}

// SetStatus shows an informational message
func (w *Workspace) SetStatus(format string, args ...any) {
	w.status = Status{Text: fmt.Sprintf(format, args...)}
}

// SetError shows err on the status line and logs it. Validation problems are
// expected user input and only logged at debug level.
func (w *Workspace) SetError(err error) {
	if err == nil {
		return
	}
	w.status = Status{Text: errdef.Message(err), Error: true}
	if errdef.Is(err, errdef.CodeValidation) {
		w.logger.Debug("rejected", "err", err)
		return
	}
	w.logger.Error("operation failed", "code", errdef.CodeOf(err), "err", err)
}

// ClearStatus empties the status line
func (w *Workspace) ClearStatus() {
	w.status = Status{}
}

// rebuild recomputes the tree after a structural change and drops any
// selection that no longer resolves
func (w *Workspace) rebuild() {
	w.tree = tree.Build(w.coll.Groups())
	w.nav.Reconcile(w.tree)

	sel := w.state.Selection()
	if sel.HasGroup() && !w.tree.Contains(sel.Address()) {
		w.logger.Debug("selection no longer resolves", "selection", sel.Address())
		w.state = w.state.ClearSelection()
	}
	w.syncBuffers()
}

// syncBuffers rebuilds the buffers from the model
func (w *Workspace) syncBuffers() {
	req, ok := w.SelectedRequest()
	if !ok {
		w.buffers.Clear()
		return
	}
	w.buffers.Sync(req)
}

// selectCursor makes the tree cursor the selection
func (w *Workspace) selectCursor() {
	next := navigation.SelectionFor(w.nav.Selected())
	if next == w.state.Selection() {
		return
	}
	w.commit()
	w.state = w.state.Select(next)
	w.buffers.Blur()
	w.syncBuffers()
}

// update persists m applied to a copy of the request and only then swaps the
// copy into the model. On failure the buffers are rebuilt from the model so
// they show what is actually stored.
func (w *Workspace) update(group, name string, m collection.Mutation) (types.Request, error) {
	updated, err := w.coll.Preview(group, name, m)
	if err != nil {
		return types.Request{}, err
	}
	if err := w.store.UpdateRequest(updated.ID, updated); err != nil {
		w.syncBuffers()
		return types.Request{}, err
	}
	if err := w.coll.Replace(group, updated); err != nil {
		return types.Request{}, err
	}
	return updated, nil
}

// commit flushes the buffers into the selected request when they differ
func (w *Workspace) commit() {
	sel := w.state.Selection()
	if !sel.HasRequest() {
		return
	}
	if _, ok := w.coll.Request(sel.Group, sel.Request); !ok {
		return
	}

	changed := false
	updated, err := w.coll.Preview(sel.Group, sel.Request, func(req *types.Request) error {
		changed = w.buffers.Flush(req)
		return nil
	})
	if err != nil || !changed {
		return
	}
	if _, err := w.update(sel.Group, sel.Request, func(req *types.Request) error {
		*req = updated
		return nil
	}); err != nil {
		w.SetError(err)
	}
}

// Commit flushes pending buffer edits, used before quitting
func (w *Workspace) Commit() {
	w.commit()
}

func trimName(s string) string {
	return strings.TrimSpace(s)
}
