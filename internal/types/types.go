package types

import (
	"encoding/base64"
	"strings"
	"time"
)

// Method is the HTTP verb of a request
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// Methods is the canonical cycling order
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch}

func (m Method) index() int {
	for i, candidate := range Methods {
		if candidate == m {
			return i
		}
	}
	return 0
}

// Next returns the following method in the cycle, wrapping PATCH back to GET
func (m Method) Next() Method {
	return Methods[(m.index()+1)%len(Methods)]
}

// Previous is the exact inverse of Next
func (m Method) Previous() Method {
	return Methods[(m.index()+len(Methods)-1)%len(Methods)]
}

// Symbol returns the glyph shown in front of a request in the tree
func (m Method) Symbol() string {
	switch m {
	case MethodPost:
		return "+"
	case MethodPut:
		return "↺"
	case MethodDelete:
		return "-"
	case MethodPatch:
		return "~"
	default:
		return "○"
	}
}

func (m Method) String() string {
	return string(m)
}

// ParseMethod accepts a method name in any case
func ParseMethod(s string) (Method, bool) {
	upper := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range Methods {
		if m == upper {
			return m, true
		}
	}
	return MethodGet, false
}

// AuthType selects how a request authenticates
type AuthType string

const (
	AuthNone  AuthType = "None"
	AuthBasic AuthType = "Basic"
)

// Next toggles between None and Basic
func (a AuthType) Next() AuthType {
	if a == AuthBasic {
		return AuthNone
	}
	return AuthBasic
}

// Previous toggles between None and Basic
func (a AuthType) Previous() AuthType {
	return a.Next()
}

func (a AuthType) String() string {
	if a == "" {
		return string(AuthNone)
	}
	return string(a)
}

// ParseAuthType falls back to None for anything unrecognised
func ParseAuthType(s string) AuthType {
	if strings.EqualFold(strings.TrimSpace(s), string(AuthBasic)) {
		return AuthBasic
	}
	return AuthNone
}

// BasicAuth is the payload of a Basic-authenticated request
type BasicAuth struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// AuthorizationHeader is derived from the auth payload and never set by hand
const AuthorizationHeader = "Authorization"

// IsAuthorizationHeader reports whether key names the reserved header
func IsAuthorizationHeader(key string) bool {
	return strings.EqualFold(strings.TrimSpace(key), AuthorizationHeader)
}

// BasicAuthorization builds the Authorization header value for Basic auth
func BasicAuthorization(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// RequestDetails holds the editable parts of a request
type RequestDetails struct {
	URL      string            `json:"url" yaml:"url"`
	Body     string            `json:"body,omitempty" yaml:"body,omitempty"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	AuthType AuthType          `json:"authType" yaml:"authType"`
	Basic    *BasicAuth        `json:"basic,omitempty" yaml:"basic,omitempty"`
}

// NewRequestDetails returns empty details with initialised maps
func NewRequestDetails() RequestDetails {
	return RequestDetails{
		Headers:  make(map[string]string),
		Params:   make(map[string]string),
		AuthType: AuthNone,
	}
}

// SetAuthType switches the auth scheme. Entering Basic always starts from an
// empty payload; leaving it drops the payload and the derived header.
func (d *RequestDetails) SetAuthType(t AuthType) {
	if t == AuthBasic {
		d.AuthType = AuthBasic
		d.Basic = &BasicAuth{}
	} else {
		d.AuthType = AuthNone
		d.Basic = nil
	}
	d.SyncAuthorization()
}

// SyncAuthorization recomputes the Authorization header from the auth payload
func (d *RequestDetails) SyncAuthorization() {
	if d.Headers == nil {
		d.Headers = make(map[string]string)
	}
	for key := range d.Headers {
		if IsAuthorizationHeader(key) {
			delete(d.Headers, key)
		}
	}
	if d.AuthType == AuthBasic && d.Basic != nil && d.Basic.Username != "" {
		d.Headers[AuthorizationHeader] = BasicAuthorization(d.Basic.Username, d.Basic.Password)
	}
}

// Clone returns a deep copy
func (d RequestDetails) Clone() RequestDetails {
	out := d
	out.Headers = cloneMap(d.Headers)
	out.Params = cloneMap(d.Params)
	if d.Basic != nil {
		basic := *d.Basic
		out.Basic = &basic
	}
	return out
}

// Request is one HTTP call definition
type Request struct {
	ID      int64          `json:"-" yaml:"-"`
	Name    string         `json:"name" yaml:"name"`
	Method  Method         `json:"method" yaml:"method"`
	Details RequestDetails `json:"details" yaml:"details"`
}

// NewRequest creates a request with empty details
func NewRequest(name string, method Method) Request {
	return Request{
		Name:    name,
		Method:  method,
		Details: NewRequestDetails(),
	}
}

// Clone returns a deep copy suitable as an execution snapshot
func (r Request) Clone() Request {
	out := r
	out.Details = r.Details.Clone()
	return out
}

// Label is the tree display text, e.g. "+ POST create-user"
func (r Request) Label() string {
	return r.Method.Symbol() + " " + r.Method.String() + " " + r.Name
}

// Group is a named collection of requests
type Group struct {
	ID       int64     `json:"-" yaml:"-"`
	Name     string    `json:"name" yaml:"name"`
	Requests []Request `json:"requests" yaml:"requests"`
}

// Clone returns a deep copy
func (g Group) Clone() Group {
	out := g
	out.Requests = make([]Request, len(g.Requests))
	for i, r := range g.Requests {
		out.Requests[i] = r.Clone()
	}
	return out
}

// TextField names the free-text fields of a request
type TextField int

const (
	TextURL TextField = iota
	TextBody
	TextUsername
	TextPassword
)

// Response contains the HTTP response data of the last executed request
type Response struct {
	Status       int               `json:"status" yaml:"status"`
	StatusText   string            `json:"statusText" yaml:"statusText"`
	Headers      map[string]string `json:"headers" yaml:"headers"`
	Body         string            `json:"body" yaml:"body"`
	Duration     time.Duration     `json:"duration" yaml:"duration"`
	RequestSize  int               `json:"requestSize" yaml:"requestSize"`
	ResponseSize int               `json:"responseSize" yaml:"responseSize"`
	Error        string            `json:"error,omitempty" yaml:"error,omitempty"`
}

func cloneMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
