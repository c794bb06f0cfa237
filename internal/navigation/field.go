package navigation

import "github.com/studiowebux/apiquest/internal/types"

// Panel is the focused half of the main screen
type Panel int

const (
	PanelTree Panel = iota
	PanelDetails
)

func (p Panel) String() string {
	if p == PanelDetails {
		return "details"
	}
	return "tree"
}

// Field is the focused part of the details panel
type Field int

const (
	FieldNone Field = iota
	FieldURL
	FieldBody
	FieldParams
	FieldHeaders
	FieldAuthType
	FieldAuthUsername
	FieldAuthPassword
)

var fieldNames = map[Field]string{
	FieldNone:         "none",
	FieldURL:          "url",
	FieldBody:         "body",
	FieldParams:       "params",
	FieldHeaders:      "headers",
	FieldAuthType:     "auth type",
	FieldAuthUsername: "username",
	FieldAuthPassword: "password",
}

func (f Field) String() string {
	return fieldNames[f]
}

// TextField maps the field onto the text buffer it edits, if any
func (f Field) TextField() (types.TextField, bool) {
	switch f {
	case FieldURL:
		return types.TextURL, true
	case FieldBody:
		return types.TextBody, true
	case FieldAuthUsername:
		return types.TextUsername, true
	case FieldAuthPassword:
		return types.TextPassword, true
	}
	return 0, false
}

// IsText reports whether the field is backed by a text buffer
func (f Field) IsText() bool {
	_, ok := f.TextField()
	return ok
}

var (
	noneOrder  = []Field{FieldURL, FieldBody, FieldParams, FieldHeaders, FieldAuthType}
	basicOrder = []Field{FieldURL, FieldBody, FieldParams, FieldHeaders, FieldAuthType, FieldAuthUsername, FieldAuthPassword}
)

// FieldOrder is the tab order of the details panel for the given auth type
func FieldOrder(auth types.AuthType) []Field {
	if auth == types.AuthBasic {
		return basicOrder
	}
	return noneOrder
}

func fieldIndex(order []Field, f Field) int {
	for i, candidate := range order {
		if candidate == f {
			return i
		}
	}
	return -1
}

// NextField advances in tab order, wrapping around. A field that is not part
// of the current order (including FieldNone) moves to the first field.
func NextField(f Field, auth types.AuthType) Field {
	order := FieldOrder(auth)
	i := fieldIndex(order, f)
	if i < 0 {
		return order[0]
	}
	return order[(i+1)%len(order)]
}

// PrevField is the mirror of NextField. A field outside the current order
// moves to the last field.
func PrevField(f Field, auth types.AuthType) Field {
	order := FieldOrder(auth)
	i := fieldIndex(order, f)
	if i < 0 {
		return order[len(order)-1]
	}
	return order[(i+len(order)-1)%len(order)]
}
