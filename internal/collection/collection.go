package collection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/types"
)

var (
	ErrEmptyName        = errdef.New(errdef.CodeValidation, "name is required")
	ErrDuplicateGroup   = errdef.New(errdef.CodeValidation, "group already exists")
	ErrDuplicateRequest = errdef.New(errdef.CodeValidation, "request already exists in group")
	ErrReservedHeader   = errdef.New(errdef.CodeValidation, "the Authorization header is derived from the auth settings")
	ErrEmptyKey         = errdef.New(errdef.CodeValidation, "key and value are required")
	ErrUnknownGroup     = errdef.New(errdef.CodeAddressing, "group not found")
	ErrUnknownRequest   = errdef.New(errdef.CodeAddressing, "request not found")
)

// Collection is the in-memory request model: groups keyed by name, each with
// its requests in insertion order
type Collection struct {
	groups map[string]*types.Group
}

// New creates an empty collection
func New() *Collection {
	return &Collection{groups: make(map[string]*types.Group)}
}

// FromGroups builds a collection from loaded groups, keeping their IDs
func FromGroups(groups []types.Group) (*Collection, error) {
	c := New()
	for _, g := range groups {
		if err := c.AddGroup(g); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ValidateNewGroup reports whether CreateGroup(name) would succeed
func (c *Collection) ValidateNewGroup(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if _, exists := c.groups[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateGroup, name)
	}
	return nil
}

// CreateGroup adds an empty group
func (c *Collection) CreateGroup(name string) error {
	return c.AddGroup(types.Group{Name: name})
}

// AddGroup inserts a fully formed group (used when loading from the store)
func (c *Collection) AddGroup(g types.Group) error {
	if err := c.ValidateNewGroup(g.Name); err != nil {
		return err
	}
	clone := g.Clone()
	c.groups[g.Name] = &clone
	return nil
}

// ValidateNewRequest reports whether CreateRequest(group, name, ...) would succeed
func (c *Collection) ValidateNewRequest(group, name string) error {
	g, ok := c.groups[group]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	for _, r := range g.Requests {
		if r.Name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateRequest, name)
		}
	}
	return nil
}

// CreateRequest appends a new empty request to group
func (c *Collection) CreateRequest(group, name string, method types.Method) (types.Request, error) {
	req := types.NewRequest(name, method)
	if err := c.AddRequest(group, req); err != nil {
		return types.Request{}, err
	}
	return req, nil
}

// AddRequest appends a fully formed request to group
func (c *Collection) AddRequest(group string, req types.Request) error {
	if err := c.ValidateNewRequest(group, req.Name); err != nil {
		return err
	}
	g := c.groups[group]
	g.Requests = append(g.Requests, req.Clone())
	return nil
}

// DeleteGroup removes a group and all its requests, returning what was removed
func (c *Collection) DeleteGroup(name string) (types.Group, error) {
	g, ok := c.groups[name]
	if !ok {
		return types.Group{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	delete(c.groups, name)
	return *g, nil
}

// DeleteRequest removes one request, returning it
func (c *Collection) DeleteRequest(group, name string) (types.Request, error) {
	g, ok := c.groups[group]
	if !ok {
		return types.Request{}, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	for i, r := range g.Requests {
		if r.Name == name {
			g.Requests = append(g.Requests[:i], g.Requests[i+1:]...)
			return r, nil
		}
	}
	return types.Request{}, fmt.Errorf("%w: %q in %q", ErrUnknownRequest, name, group)
}

// Group returns a copy of the named group
func (c *Collection) Group(name string) (types.Group, bool) {
	g, ok := c.groups[name]
	if !ok {
		return types.Group{}, false
	}
	return g.Clone(), true
}

// Request returns a copy of the named request
func (c *Collection) Request(group, name string) (types.Request, bool) {
	r := c.find(group, name)
	if r == nil {
		return types.Request{}, false
	}
	return r.Clone(), true
}

// Groups returns copies of all groups sorted by name
func (c *Collection) Groups() []types.Group {
	names := c.GroupNames()
	out := make([]types.Group, 0, len(names))
	for _, name := range names {
		out = append(out, c.groups[name].Clone())
	}
	return out
}

// GroupNames returns the group names in lexicographic order
func (c *Collection) GroupNames() []string {
	names := make([]string, 0, len(c.groups))
	for name := range c.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of groups
func (c *Collection) Len() int {
	return len(c.groups)
}

// Replace overwrites the stored request that has the same name
func (c *Collection) Replace(group string, req types.Request) error {
	r := c.find(group, req.Name)
	if r == nil {
		if _, ok := c.groups[group]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownGroup, group)
		}
		return fmt.Errorf("%w: %q in %q", ErrUnknownRequest, req.Name, group)
	}
	*r = req.Clone()
	return nil
}

// Preview applies m to a copy of the request and returns the result without
// touching the collection
func (c *Collection) Preview(group, name string, m Mutation) (types.Request, error) {
	r := c.find(group, name)
	if r == nil {
		if _, ok := c.groups[group]; !ok {
			return types.Request{}, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
		}
		return types.Request{}, fmt.Errorf("%w: %q in %q", ErrUnknownRequest, name, group)
	}
	clone := r.Clone()
	if err := m(&clone); err != nil {
		return types.Request{}, err
	}
	return clone, nil
}

// Apply mutates the stored request in place. A failing mutation leaves it unchanged.
func (c *Collection) Apply(group, name string, m Mutation) error {
	updated, err := c.Preview(group, name, m)
	if err != nil {
		return err
	}
	return c.Replace(group, updated)
}

// SetAuthType switches the auth scheme of a request
func (c *Collection) SetAuthType(group, name string, t types.AuthType) error {
	return c.Apply(group, name, SetAuthType(t))
}

// SetField sets url, body, username or password
func (c *Collection) SetField(group, name string, field types.TextField, value string) error {
	return c.Apply(group, name, SetField(field, value))
}

// SetMethod changes the HTTP method of a request
func (c *Collection) SetMethod(group, name string, method types.Method) error {
	return c.Apply(group, name, SetMethod(method))
}

// UpsertHeader adds or replaces a user header
func (c *Collection) UpsertHeader(group, name, key, value string) error {
	return c.Apply(group, name, UpsertHeader(key, value))
}

// UpsertParam adds or replaces a query parameter
func (c *Collection) UpsertParam(group, name, key, value string) error {
	return c.Apply(group, name, UpsertParam(key, value))
}

// RemoveHeader deletes a user header
func (c *Collection) RemoveHeader(group, name, key string) error {
	return c.Apply(group, name, RemoveHeader(key))
}

// RemoveParam deletes a query parameter
func (c *Collection) RemoveParam(group, name, key string) error {
	return c.Apply(group, name, RemoveParam(key))
}

func (c *Collection) find(group, name string) *types.Request {
	g, ok := c.groups[group]
	if !ok {
		return nil
	}
	for i := range g.Requests {
		if g.Requests[i].Name == name {
			return &g.Requests[i]
		}
	}
	return nil
}
