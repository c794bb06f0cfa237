package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/executor"
	"github.com/studiowebux/apiquest/internal/types"
)

// send starts the selected request in the background. The workspace refuses
// a second send while one is in flight.
func (m *Model) send() tea.Cmd {
	sent, job, err := m.ws.Send()
	if err != nil {
		return nil
	}
	ctx := m.ctx
	logger := m.logger
	run := func() tea.Msg {
		resp, err := job(ctx)
		if err != nil {
			logger.Debug("send failed", "err", err)
		}
		return responseMsg{sent: sent, resp: resp, err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

// copyResponse copies the displayed body, filter applied
func (m *Model) copyResponse() tea.Cmd {
	if m.ws.Response() == nil {
		m.ws.SetError(errdef.New(errdef.CodeValidation, "no response to copy"))
		return nil
	}
	body, err := m.ws.ResponseBody(m.ctx)
	if err != nil {
		m.ws.SetError(err)
		return nil
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(body); err != nil {
			return statusMsg{err: errdef.Wrap(errdef.CodeValidation, err, "failed to copy to clipboard")}
		}
		return statusMsg{text: "Response copied to clipboard"}
	}
}

func readClipboard() tea.Msg {
	text, err := clipboard.ReadAll()
	return pasteMsg{text: text, err: err}
}

// updateResponseView refreshes the response pane of the main screen
func (m *Model) updateResponseView() {
	resp := m.ws.Response()
	m.lastResponse = resp
	if resp == nil {
		m.responseView.SetContent(styleSubtle.Render("No response yet. Press s to send."))
		return
	}

	var b strings.Builder
	b.WriteString(responseSummary(resp))
	b.WriteString("\n")
	if m.failureHint != "" {
		b.WriteString(styleWarning.Render(m.failureHint))
		b.WriteString("\n")
	}
	if len(resp.Headers) > 0 {
		b.WriteString("\n")
		b.WriteString(renderHeaders(resp.Headers))
	}
	if resp.Body != "" {
		b.WriteString("\n")
		b.WriteString(formatBody(resp.Body, resp.Headers))
	}
	m.responseView.SetContent(b.String())
	m.responseView.GotoTop()
}

// updateDetailView refreshes the full-screen response with the filter applied
func (m *Model) updateDetailView() {
	resp := m.ws.Response()
	if resp == nil {
		m.detailView.SetContent(styleSubtle.Render("No response yet."))
		return
	}

	body, err := m.ws.ResponseBody(m.ctx)
	if err != nil {
		m.detailView.SetContent(styleError.Render(errdef.Message(err)))
		return
	}

	var b strings.Builder
	b.WriteString(responseSummary(resp))
	b.WriteString("\n\n")
	b.WriteString(formatBody(body, resp.Headers))
	m.detailView.SetContent(b.String())
	m.detailView.GotoTop()
}

// responseSummary is the status line of a response, colored by class
func responseSummary(resp *types.Response) string {
	if resp.Status == 0 {
		return styleError.Render("Error: " + resp.Error)
	}

	status := fmt.Sprintf("%d %s", resp.Status, resp.StatusText)
	style := styleRedirect
	switch {
	case executor.IsSuccessStatus(resp.Status):
		style = styleSuccess
	case executor.IsClientErrorStatus(resp.Status):
		style = styleWarning
	case executor.IsServerErrorStatus(resp.Status):
		style = styleError
	}

	meta := fmt.Sprintf("  %s  %s", executor.FormatDuration(resp.Duration), executor.FormatSize(resp.ResponseSize))
	return style.Render(status) + styleSubtle.Render(meta)
}

func renderHeaders(headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(styleTitle.Render(k))
		b.WriteString(": ")
		b.WriteString(headers[k])
		b.WriteString("\n")
	}
	return b.String()
}

// formatBody pretty prints JSON and highlights known content types. Anything
// else comes back unchanged.
func formatBody(body string, headers map[string]string) string {
	lexer := lexerFor(body, headers)
	if lexer == "json" {
		var out bytes.Buffer
		if err := json.Indent(&out, []byte(body), "", "  "); err == nil {
			body = out.String()
		}
	}
	if lexer == "" {
		return body
	}
	if highlighted, ok := highlight(body, lexer); ok {
		return highlighted
	}
	return body
}

func lexerFor(body string, headers map[string]string) string {
	if json.Valid([]byte(body)) {
		return "json"
	}
	contentType := ""
	for k, v := range headers {
		if strings.EqualFold(k, "Content-Type") {
			contentType = strings.ToLower(v)
			break
		}
	}
	switch {
	case strings.Contains(contentType, "html"):
		return "html"
	case strings.Contains(contentType, "xml"):
		return "xml"
	case strings.Contains(contentType, "yaml"):
		return "yaml"
	}
	return ""
}

func highlight(content, lexer string) (string, bool) {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, content, lexer, "terminal16m", "monokai"); err != nil {
		return "", false
	}
	return buf.String(), true
}
