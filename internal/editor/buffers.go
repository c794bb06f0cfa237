package editor

import (
	"maps"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/apiquest/internal/types"
)

// Buffers are the editable views of the selected request. They are rebuilt
// from the request with Sync and written back only through Flush; nothing
// else reads them as the source of truth.
type Buffers struct {
	URL      textinput.Model
	Username textinput.Model
	Password textinput.Model
	Body     textarea.Model

	focused  types.TextField
	hasFocus bool
}

// New creates empty buffers
func New() *Buffers {
	url := textinput.New()
	url.Prompt = ""
	url.Placeholder = "https://api.example.com/resource"

	username := textinput.New()
	username.Prompt = ""
	username.Placeholder = "username"

	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	body := textarea.New()
	body.Placeholder = "request body"
	body.ShowLineNumbers = false
	body.CharLimit = 0
	body.MaxHeight = 0

	return &Buffers{URL: url, Username: username, Password: password, Body: body}
}

// Values is a plain snapshot of the four buffers
type Values struct {
	URL      string
	Body     string
	Username string
	Password string
}

// Values reads the current buffer contents
func (b *Buffers) Values() Values {
	return Values{
		URL:      b.URL.Value(),
		Body:     b.Body.Value(),
		Username: b.Username.Value(),
		Password: b.Password.Value(),
	}
}

// Sync materialises the buffers from req. Credentials are empty when the
// request carries no Basic payload.
func (b *Buffers) Sync(req types.Request) {
	b.URL.SetValue(req.Details.URL)
	b.Body.SetValue(req.Details.Body)

	username, password := "", ""
	if req.Details.Basic != nil {
		username = req.Details.Basic.Username
		password = req.Details.Basic.Password
	}
	b.Username.SetValue(username)
	b.Password.SetValue(password)

	b.URL.CursorEnd()
	b.Username.CursorEnd()
	b.Password.CursorEnd()
}

// Clear empties every buffer, used when nothing is selected
func (b *Buffers) Clear() {
	b.Sync(types.NewRequest("", types.MethodGet))
	b.Blur()
}

// Flush writes the buffers into req, recomputes the Authorization header and
// reports whether anything changed. Flushing twice without edits in between
// changes nothing the second time.
func (b *Buffers) Flush(req *types.Request) bool {
	before := req.Details.Clone()
	v := b.Values()

	req.Details.URL = v.URL
	req.Details.Body = v.Body
	if req.Details.AuthType == types.AuthBasic {
		if req.Details.Basic == nil {
			req.Details.Basic = &types.BasicAuth{}
		}
		req.Details.Basic.Username = v.Username
		req.Details.Basic.Password = v.Password
	}
	req.Details.SyncAuthorization()

	return !sameDetails(before, req.Details)
}

func sameDetails(a, b types.RequestDetails) bool {
	if a.URL != b.URL || a.Body != b.Body || a.AuthType != b.AuthType {
		return false
	}
	if (a.Basic == nil) != (b.Basic == nil) {
		return false
	}
	if a.Basic != nil && *a.Basic != *b.Basic {
		return false
	}
	return maps.Equal(a.Headers, b.Headers) && maps.Equal(a.Params, b.Params)
}

// Focus gives keyboard focus to one buffer and blurs the others
func (b *Buffers) Focus(field types.TextField) tea.Cmd {
	b.Blur()
	b.focused = field
	b.hasFocus = true

	switch field {
	case types.TextURL:
		return b.URL.Focus()
	case types.TextBody:
		return b.Body.Focus()
	case types.TextUsername:
		return b.Username.Focus()
	case types.TextPassword:
		return b.Password.Focus()
	}
	return nil
}

// Blur removes focus from every buffer
func (b *Buffers) Blur() {
	b.URL.Blur()
	b.Body.Blur()
	b.Username.Blur()
	b.Password.Blur()
	b.hasFocus = false
}

// Focused returns the buffer with focus, if any
func (b *Buffers) Focused() (types.TextField, bool) {
	return b.focused, b.hasFocus
}

// Update forwards msg to the focused buffer
func (b *Buffers) Update(msg tea.Msg) tea.Cmd {
	if !b.hasFocus {
		return nil
	}

	var cmd tea.Cmd
	switch b.focused {
	case types.TextURL:
		b.URL, cmd = b.URL.Update(msg)
	case types.TextBody:
		b.Body, cmd = b.Body.Update(msg)
	case types.TextUsername:
		b.Username, cmd = b.Username.Update(msg)
	case types.TextPassword:
		b.Password, cmd = b.Password.Update(msg)
	}
	return cmd
}

// AtStart reports whether the cursor of field sits at column 0 of line 0
func (b *Buffers) AtStart(field types.TextField) bool {
	switch field {
	case types.TextURL:
		return b.URL.Position() == 0
	case types.TextUsername:
		return b.Username.Position() == 0
	case types.TextPassword:
		return b.Password.Position() == 0
	case types.TextBody:
		info := b.Body.LineInfo()
		return b.Body.Line() == 0 && info.StartColumn+info.ColumnOffset == 0
	}
	return true
}

// SetPasswordVisible switches the password buffer between masked and clear
func (b *Buffers) SetPasswordVisible(visible bool) {
	if visible {
		b.Password.EchoMode = textinput.EchoNormal
		return
	}
	b.Password.EchoMode = textinput.EchoPassword
}

// Paste inserts text at the cursor of field. Single-line buffers drop
// newlines.
func (b *Buffers) Paste(field types.TextField, text string) {
	if field == types.TextBody {
		b.Body.InsertString(text)
		return
	}

	input := b.input(field)
	if input == nil {
		return
	}
	text = singleLine(text)
	value := []rune(input.Value())
	pos := input.Position()
	if pos > len(value) {
		pos = len(value)
	}
	inserted := []rune(text)
	merged := make([]rune, 0, len(value)+len(inserted))
	merged = append(merged, value[:pos]...)
	merged = append(merged, inserted...)
	merged = append(merged, value[pos:]...)
	input.SetValue(string(merged))
	input.SetCursor(pos + len(inserted))
}

// SetSize fits the buffers to the details panel
func (b *Buffers) SetSize(width, bodyHeight int) {
	if width < 4 {
		width = 4
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	b.URL.Width = width
	b.Username.Width = width
	b.Password.Width = width
	b.Body.SetWidth(width)
	b.Body.SetHeight(bodyHeight)
}

// View renders one buffer
func (b *Buffers) View(field types.TextField) string {
	switch field {
	case types.TextBody:
		return b.Body.View()
	default:
		if input := b.input(field); input != nil {
			return input.View()
		}
	}
	return ""
}

func (b *Buffers) input(field types.TextField) *textinput.Model {
	switch field {
	case types.TextURL:
		return &b.URL
	case types.TextUsername:
		return &b.Username
	case types.TextPassword:
		return &b.Password
	}
	return nil
}

func singleLine(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
