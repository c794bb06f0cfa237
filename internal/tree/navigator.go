package tree

// Navigator keeps the cursor and the set of expanded nodes across rebuilds
// of the tree. Both are stored as addresses, so they survive structural
// changes as long as the node they name still exists.
type Navigator struct {
	cursor   Address
	expanded map[string]bool
}

// NewNavigator starts on the root with every group collapsed
func NewNavigator() *Navigator {
	return &Navigator{cursor: Root(), expanded: make(map[string]bool)}
}

// Selected returns the address under the cursor
func (n *Navigator) Selected() Address {
	return n.cursor
}

// IsOpen reports whether addr is expanded
func (n *Navigator) IsOpen(addr Address) bool {
	return addr.IsRoot() || n.expanded[addr.Key()]
}

// Rows returns the visible rows of t for the current expansion state
func (n *Navigator) Rows(t *Tree) []Row {
	return t.Flatten(n.IsOpen)
}

// CursorIndex is the position of the cursor among the visible rows
func (n *Navigator) CursorIndex(t *Tree) int {
	for i, row := range n.Rows(t) {
		if row.Node.Address == n.cursor {
			return i
		}
	}
	return 0
}

// Reconcile drops a cursor that no longer resolves in t, moving it to the
// root, and forgets expansion state of vanished nodes. It reports whether the
// cursor moved.
func (n *Navigator) Reconcile(t *Tree) bool {
	for key := range n.expanded {
		if _, ok := t.index[key]; !ok {
			delete(n.expanded, key)
		}
	}
	if t.Contains(n.cursor) && n.visible(t) {
		return false
	}
	n.cursor = Root()
	return true
}

// Select moves the cursor to addr and opens its group so it is visible.
// Unknown addresses leave the navigator unchanged.
func (n *Navigator) Select(t *Tree, addr Address) bool {
	if !t.Contains(addr) {
		return false
	}
	if addr.IsRequest() {
		n.expanded[addr.Parent().Key()] = true
	}
	n.cursor = addr
	return true
}

// MoveDown advances the cursor one visible row, stopping at the last row
func (n *Navigator) MoveDown(t *Tree) {
	n.move(t, 1)
}

// MoveUp moves the cursor one visible row back, stopping at the root
func (n *Navigator) MoveUp(t *Tree) {
	n.move(t, -1)
}

// First jumps to the root row
func (n *Navigator) First() {
	n.cursor = Root()
}

// Last jumps to the last visible row
func (n *Navigator) Last(t *Tree) {
	rows := n.Rows(t)
	n.cursor = rows[len(rows)-1].Node.Address
}

func (n *Navigator) move(t *Tree, delta int) {
	rows := n.Rows(t)
	i := n.CursorIndex(t) + delta
	if i < 0 {
		i = 0
	}
	if i >= len(rows) {
		i = len(rows) - 1
	}
	n.cursor = rows[i].Node.Address
}

// Open expands the group under the cursor
func (n *Navigator) Open() {
	if n.cursor.IsGroup() {
		n.expanded[n.cursor.Key()] = true
	}
}

// Close collapses the group under the cursor. On a request it moves the
// cursor up to the enclosing group instead.
func (n *Navigator) Close() {
	switch n.cursor.Kind {
	case KindGroup:
		delete(n.expanded, n.cursor.Key())
	case KindRequest:
		n.cursor = n.cursor.Parent()
	}
}

// Toggle flips the expansion of the group under the cursor
func (n *Navigator) Toggle() {
	if !n.cursor.IsGroup() {
		return
	}
	if n.expanded[n.cursor.Key()] {
		delete(n.expanded, n.cursor.Key())
		return
	}
	n.expanded[n.cursor.Key()] = true
}

func (n *Navigator) visible(t *Tree) bool {
	if !n.cursor.IsRequest() {
		return true
	}
	return n.IsOpen(n.cursor.Parent())
}
