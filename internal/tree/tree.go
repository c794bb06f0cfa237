package tree

import (
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/studiowebux/apiquest/internal/types"
)

// Node is one entry of the projected tree
type Node struct {
	Address  Address
	Label    string
	Method   types.Method
	Children []*Node
}

// Row is a visible node together with its indentation depth
type Row struct {
	Node  *Node
	Depth int
}

// Tree is a read-only projection of the request model
type Tree struct {
	Root  *Node
	index map[string]*Node
}

// Build projects groups into a tree: "/" → groups sorted by name → requests
// in the order the model holds them
func Build(groups []types.Group) *Tree {
	sorted := make([]types.Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	t := &Tree{
		Root:  &Node{Address: Root(), Label: "/"},
		index: make(map[string]*Node),
	}
	t.index[t.Root.Address.Key()] = t.Root

	for _, g := range sorted {
		gn := &Node{Address: GroupAddr(g.Name), Label: g.Name}
		for _, r := range g.Requests {
			rn := &Node{
				Address: RequestAddr(g.Name, r.Name),
				Label:   r.Label(),
				Method:  r.Method,
			}
			gn.Children = append(gn.Children, rn)
			t.index[rn.Address.Key()] = rn
		}
		t.Root.Children = append(t.Root.Children, gn)
		t.index[gn.Address.Key()] = gn
	}
	return t
}

// Find resolves an address to its node
func (t *Tree) Find(addr Address) (*Node, bool) {
	n, ok := t.index[addr.Key()]
	return n, ok
}

// Contains reports whether addr resolves to a live node
func (t *Tree) Contains(addr Address) bool {
	_, ok := t.index[addr.Key()]
	return ok
}

// Flatten lists the visible rows in display order. The root is always
// expanded; other nodes show their children only when isOpen reports true.
func (t *Tree) Flatten(isOpen func(Address) bool) []Row {
	var rows []Row
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		rows = append(rows, Row{Node: n, Depth: depth})
		if n.Address.IsRoot() || (isOpen != nil && isOpen(n.Address)) {
			for _, child := range n.Children {
				walk(child, depth+1)
			}
		}
	}
	walk(t.Root, 0)
	return rows
}

// Requests lists every request node in display order
func (t *Tree) Requests() []*Node {
	var out []*Node
	for _, g := range t.Root.Children {
		out = append(out, g.Children...)
	}
	return out
}

// Match is a search hit with the label positions that matched
type Match struct {
	Node    *Node
	Indexes []int
	Score   int
}

// Search fuzzy-matches query against "<group>/<request label>" of every
// request and returns hits best first. An empty query returns nothing.
func (t *Tree) Search(query string) []Match {
	if query == "" {
		return nil
	}
	nodes := t.Requests()
	haystack := make([]string, len(nodes))
	for i, n := range nodes {
		haystack[i] = n.Address.Group + "/" + n.Label
	}

	results := fuzzy.Find(query, haystack)
	out := make([]Match, 0, len(results))
	for _, r := range results {
		out = append(out, Match{
			Node:    nodes[r.Index],
			Indexes: r.MatchedIndexes,
			Score:   r.Score,
		})
	}
	return out
}
