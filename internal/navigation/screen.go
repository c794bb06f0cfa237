package navigation

import (
	"github.com/studiowebux/apiquest/internal/tree"
	"github.com/studiowebux/apiquest/internal/types"
)

// Screen is one of the variants below. The set is closed.
type Screen interface {
	Name() string
	screen()
}

// Main is the tree plus details layout
type Main struct{}

// Editing collects the name of a new group
type Editing struct {
	Draft string
}

// Deleting waits for the user to pick the node to delete
type Deleting struct{}

// DeleteConfirm holds the node captured when deletion was picked
type DeleteConfirm struct {
	Pending tree.Address
}

// AddingRequest collects name and method of a new request in Group
type AddingRequest struct {
	Group  string
	Draft  string
	Method types.Method
}

// RequestDetail shows the last response full screen
type RequestDetail struct {
	Filter        string
	EditingFilter bool
}

// Searching filters the tree with a fuzzy query
type Searching struct {
	Query string
}

// Exiting asks for quit confirmation
type Exiting struct{}

func (Main) Name() string          { return "main" }
func (Editing) Name() string       { return "editing" }
func (Deleting) Name() string      { return "deleting" }
func (DeleteConfirm) Name() string { return "delete-confirm" }
func (AddingRequest) Name() string { return "adding-request" }
func (RequestDetail) Name() string { return "request-detail" }
func (Searching) Name() string     { return "searching" }
func (Exiting) Name() string       { return "exiting" }

func (Main) screen()          {}
func (Editing) screen()       {}
func (Deleting) screen()      {}
func (DeleteConfirm) screen() {}
func (AddingRequest) screen() {}
func (RequestDetail) screen() {}
func (Searching) screen()     {}
func (Exiting) screen()       {}

// OverlayTarget is the map a key/value overlay writes to
type OverlayTarget int

const (
	OverlayHeader OverlayTarget = iota
	OverlayParam
)

func (t OverlayTarget) String() string {
	if t == OverlayParam {
		return "param"
	}
	return "header"
}

// KVInput is the half of the overlay receiving keystrokes
type KVInput int

const (
	InputKey KVInput = iota
	InputValue
)

// KeyValue is the header/param entry overlay drawn over the details panel
type KeyValue struct {
	Target OverlayTarget
	Key    string
	Value  string
	Input  KVInput
}

// Selection names the selected group and request. Empty strings mean none.
type Selection struct {
	Group   string
	Request string
}

func (s Selection) HasGroup() bool   { return s.Group != "" }
func (s Selection) HasRequest() bool { return s.Group != "" && s.Request != "" }

// Address converts the selection into a tree address
func (s Selection) Address() tree.Address {
	switch {
	case s.HasRequest():
		return tree.RequestAddr(s.Group, s.Request)
	case s.HasGroup():
		return tree.GroupAddr(s.Group)
	default:
		return tree.Root()
	}
}

// SelectionFor derives the selection implied by a tree address
func SelectionFor(addr tree.Address) Selection {
	switch addr.Kind {
	case tree.KindRequest:
		return Selection{Group: addr.Group, Request: addr.Request}
	case tree.KindGroup:
		return Selection{Group: addr.Group}
	default:
		return Selection{}
	}
}

// GroupIndex is the position of the selected group in the sorted names, or -1
func (s Selection) GroupIndex(groupNames []string) int {
	return indexOf(groupNames, s.Group)
}

// RequestIndex is the position of the selected request among the group's
// request names, or -1
func (s Selection) RequestIndex(requestNames []string) int {
	if !s.HasRequest() {
		return -1
	}
	return indexOf(requestNames, s.Request)
}

func indexOf(names []string, name string) int {
	if name == "" {
		return -1
	}
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
