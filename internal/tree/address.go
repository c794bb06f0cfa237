package tree

import (
	"fmt"
	"strconv"
)

// Kind tags which level of the tree an Address points at
type Kind int

const (
	KindRoot Kind = iota
	KindGroup
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindRequest:
		return "request"
	default:
		return "root"
	}
}

// Address identifies a node of the tree. Names are carried verbatim, so any
// character (including "-") is allowed in group and request names.
type Address struct {
	Kind    Kind
	Group   string
	Request string
}

// Root is the address of the "/" node
func Root() Address {
	return Address{Kind: KindRoot}
}

// GroupAddr addresses a group node
func GroupAddr(group string) Address {
	return Address{Kind: KindGroup, Group: group}
}

// RequestAddr addresses a request node
func RequestAddr(group, request string) Address {
	return Address{Kind: KindRequest, Group: group, Request: request}
}

func (a Address) IsRoot() bool    { return a.Kind == KindRoot }
func (a Address) IsGroup() bool   { return a.Kind == KindGroup }
func (a Address) IsRequest() bool { return a.Kind == KindRequest }

// Parent returns the enclosing node; the root is its own parent
func (a Address) Parent() Address {
	switch a.Kind {
	case KindRequest:
		return GroupAddr(a.Group)
	default:
		return Root()
	}
}

// Key is an unambiguous map key. Each name is length-prefixed so no pair of
// distinct addresses can collide.
func (a Address) Key() string {
	switch a.Kind {
	case KindGroup:
		return "g:" + strconv.Itoa(len(a.Group)) + ":" + a.Group
	case KindRequest:
		return "r:" + strconv.Itoa(len(a.Group)) + ":" + a.Group + strconv.Itoa(len(a.Request)) + ":" + a.Request
	default:
		return "/"
	}
}

func (a Address) String() string {
	switch a.Kind {
	case KindGroup:
		return fmt.Sprintf("group %q", a.Group)
	case KindRequest:
		return fmt.Sprintf("request %q in %q", a.Request, a.Group)
	default:
		return "/"
	}
}
