package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/studiowebux/apiquest/internal/keybinds"
	"github.com/studiowebux/apiquest/internal/navigation"
	"github.com/studiowebux/apiquest/internal/tree"
	"github.com/studiowebux/apiquest/internal/types"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#00008b", Dark: "#5f87ff"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleRedirect = lipgloss.NewStyle().
			Foreground(colorBlue)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleLabel = lipgloss.NewStyle().
			Width(labelWidth).
			Foreground(colorGray)

	styleFocusedLabel = styleLabel.
				Foreground(colorCyan).
				Bold(true)
)

var methodColors = map[types.Method]lipgloss.AdaptiveColor{
	types.MethodGet:    colorGreen,
	types.MethodPost:   colorYellow,
	types.MethodPut:    colorBlue,
	types.MethodDelete: colorRed,
	types.MethodPatch:  colorCyan,
}

const (
	labelWidth = 10
	cursorMark = "█"
)

// layout holds the panel sizes derived from the window size
type layout struct {
	treeWidth      int
	rightWidth     int
	contentHeight  int
	detailsHeight  int
	responseHeight int
}

func (m *Model) layout() layout {
	l := layout{contentHeight: m.height - 1}
	l.treeWidth = max(24, m.width*30/100)
	if m.width < 80 {
		l.treeWidth = m.width / 2
	}
	l.rightWidth = m.width - l.treeWidth
	l.detailsHeight = l.contentHeight * 55 / 100
	l.responseHeight = l.contentHeight - l.detailsHeight
	return l
}

// updateLayout resizes buffers and viewports. It MUST match the widths used
// by renderMain.
func (m *Model) updateLayout() {
	l := m.layout()

	inner := l.rightWidth - 4
	bodyHeight := l.detailsHeight - 2 - 12
	m.ws.Buffers().SetSize(inner-labelWidth-2, max(3, bodyHeight))

	m.responseView.Width = max(1, l.rightWidth-4)
	m.responseView.Height = max(1, l.responseHeight-3)

	m.detailView.Width = max(1, m.width-4)
	m.detailView.Height = max(1, m.height-1-2-2)

	m.updateResponseView()
	m.updateDetailView()
}

func (m *Model) render() string {
	if m.width == 0 {
		return ""
	}

	state := m.ws.State()
	switch sc := state.Screen().(type) {
	case navigation.Editing:
		return m.renderModal("New group", "Name: "+sc.Draft+cursorMark)
	case navigation.AddingRequest:
		body := fmt.Sprintf("Group:  %s\nMethod: %s\nName:   %s%s",
			sc.Group, methodStyle(sc.Method).Render("< "+sc.Method.String()+" >"), sc.Draft, cursorMark)
		return m.renderModal("New request", body)
	case navigation.Searching:
		return m.renderModal("Search", m.renderSearch(sc.Query))
	case navigation.DeleteConfirm:
		return m.renderModal("Delete", styleWarning.Render(m.ws.DeletePrompt()))
	case navigation.Exiting:
		return m.renderModal("Quit", "Quit apiquest? (y/n)")
	case navigation.RequestDetail:
		return m.renderDetail(sc)
	}
	return m.renderMain()
}

// renderMain renders the tree, the details panel and the response pane
func (m *Model) renderMain() string {
	l := m.layout()
	state := m.ws.State()

	treeBorder := colorGreen
	detailsBorder := colorGray
	if state.InDetails() {
		treeBorder, detailsBorder = colorGray, colorGreen
	}
	if _, deleting := state.Screen().(navigation.Deleting); deleting {
		treeBorder = colorRed
	}

	treeBox := panel(treeBorder, l.treeWidth, l.contentHeight).
		Render(m.renderTree(l.treeWidth-4, l.contentHeight-2))
	detailsBox := panel(detailsBorder, l.rightWidth, l.detailsHeight).
		Render(m.renderDetails(l.rightWidth - 4))
	responseBox := panel(colorGray, l.rightWidth, l.responseHeight).
		Render(m.renderResponse())

	right := lipgloss.JoinVertical(lipgloss.Left, detailsBox, responseBox)
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, treeBox, right)
	return lipgloss.JoinVertical(lipgloss.Left, mainView, m.renderStatusBar())
}

// panel is a bordered box of the given outer size
func panel(border lipgloss.AdaptiveColor, width, height int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(1, width-2)).
		Height(max(1, height-2)).
		MaxHeight(max(1, height))
}

func methodStyle(method types.Method) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(methodColors[method])
}

// renderTree draws the visible rows, scrolled so the cursor stays in view
func (m *Model) renderTree(width, height int) string {
	t := m.ws.Tree()
	nav := m.ws.Navigator()
	rows := nav.Rows(t)
	cursor := nav.CursorIndex(t)
	selected := m.ws.State().Selection().Address()

	lines := []string{styleTitle.Render("Requests")}
	pageSize := max(1, height-1)
	offset := max(0, cursor-pageSize+1)
	end := min(len(rows), offset+pageSize)

	for i := offset; i < end; i++ {
		row := rows[i]
		line := m.treeLine(row, nav, width)
		switch {
		case i == cursor:
			line = styleSelected.Render(line)
		case !row.Node.Address.IsRoot() && row.Node.Address == selected:
			line = styleTitle.Render(line)
		case row.Node.Address.IsRequest():
			line = methodStyle(row.Node.Method).Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) treeLine(row tree.Row, nav *tree.Navigator, width int) string {
	indent := strings.Repeat("  ", row.Depth)
	marker := ""
	if row.Node.Address.IsGroup() {
		marker = "▸ "
		if nav.IsOpen(row.Node.Address) {
			marker = "▾ "
		}
	}
	return runewidth.Truncate(indent+marker+row.Node.Label, max(1, width), "…")
}

// renderDetails shows the editable fields of the selected request
func (m *Model) renderDetails(width int) string {
	req, ok := m.ws.SelectedRequest()
	if !ok {
		return styleTitle.Render("Details") + "\n\n" +
			styleSubtle.Render("Select a request in the tree")
	}

	state := m.ws.State()
	buffers := m.ws.Buffers()
	focused := navigation.FieldNone
	if state.InDetails() {
		focused = state.Field()
	}

	lines := []string{methodStyle(req.Method).Render(req.Label())}
	for _, f := range navigation.FieldOrder(req.Details.AuthType) {
		label := styleLabel.Render(f.String())
		if f == focused {
			label = styleFocusedLabel.Render(f.String())
		}

		switch f {
		case navigation.FieldBody:
			lines = append(lines, label)
			lines = append(lines, buffers.View(types.TextBody))
		case navigation.FieldParams:
			lines = append(lines, label+keyValueSummary(req.Details.Params, width-labelWidth))
		case navigation.FieldHeaders:
			lines = append(lines, label+keyValueSummary(req.Details.Headers, width-labelWidth))
		case navigation.FieldAuthType:
			lines = append(lines, label+"< "+req.Details.AuthType.String()+" >")
		default:
			if text, ok := f.TextField(); ok {
				lines = append(lines, label+buffers.View(text))
			}
		}
	}

	if kv, open := state.Overlay(); open {
		lines = append(lines, "", m.renderOverlay(kv, width))
	}
	return strings.Join(lines, "\n")
}

// keyValueSummary lists the entries of a header or param map on one line
func keyValueSummary(values map[string]string, width int) string {
	if len(values) == 0 {
		return styleSubtle.Render("(none, enter to add)")
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + values[k]
	}
	return runewidth.Truncate(strings.Join(parts, ", "), max(1, width), "…")
}

func (m *Model) renderOverlay(kv navigation.KeyValue, width int) string {
	key, value := kv.Key, kv.Value
	if kv.Input == navigation.InputKey {
		key += cursorMark
	} else {
		value += cursorMark
	}

	content := fmt.Sprintf("%s\nKey:   %s\nValue: %s\n%s",
		styleTitle.Render("Edit "+kv.Target.String()),
		key, value,
		styleSubtle.Render(m.help(keybinds.ContextOverlay, []helpItem{
			{keybinds.ActionSubmit, "save"},
			{keybinds.ActionSwitchKV, "key/value"},
			{keybinds.ActionRemoveKey, "remove"},
			{keybinds.ActionCancel, "cancel"},
		})))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorYellow).
		Padding(0, 1).
		Width(max(1, width-2)).
		Render(content)
}

func (m *Model) renderResponse() string {
	title := styleTitle.Render("Response")
	if m.ws.Busy() {
		title += " " + m.spinner.View()
	}
	return title + "\n" + m.responseView.View()
}

// renderDetail is the full-screen response with its filter line
func (m *Model) renderDetail(sc navigation.RequestDetail) string {
	filterLine := styleSubtle.Render("Filter: none (f to edit)")
	switch {
	case sc.EditingFilter:
		filterLine = "Filter: " + sc.Filter + cursorMark
	case sc.Filter != "":
		filterLine = styleWarning.Render("Filter: " + sc.Filter)
	}

	title := styleTitle.Render("Response")
	if m.ws.Busy() {
		title += " " + m.spinner.View()
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGreen).
		Padding(0, 1).
		Width(max(1, m.width-2)).
		Height(max(1, m.height-3)).
		Render(title + "  " + filterLine + "\n" + m.detailView.View())

	return lipgloss.JoinVertical(lipgloss.Left, box, m.renderStatusBar())
}

func (m *Model) renderSearch(query string) string {
	lines := []string{"Query: " + query + cursorMark, ""}
	matches := m.ws.SearchResults()
	if query != "" && len(matches) == 0 {
		lines = append(lines, styleSubtle.Render("No match"))
	}
	for i, match := range matches {
		if i == 10 {
			lines = append(lines, styleSubtle.Render(fmt.Sprintf("… %d more", len(matches)-10)))
			break
		}
		line := highlightMatch(match.Node.Address.Group+"/"+match.Node.Label, match.Indexes)
		if i == 0 {
			line = "> " + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// highlightMatch colors the byte positions fuzzy matching reported
func highlightMatch(s string, indexes []int) string {
	hit := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(styleWarning.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// renderModal centers a titled box on the screen
func (m *Model) renderModal(title, body string) string {
	width := min(60, m.width-4)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCyan).
		Padding(1, 2).
		Width(max(1, width)).
		Render(styleTitle.Render(title) + "\n\n" + body + "\n\n" + m.renderModalHelp())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderModalHelp() string {
	switch m.ws.State().Screen().(type) {
	case navigation.DeleteConfirm, navigation.Exiting:
		return styleSubtle.Render(m.help(keybinds.ContextConfirm, []helpItem{
			{keybinds.ActionConfirm, "yes"},
			{keybinds.ActionDeny, "no"},
		}))
	case navigation.AddingRequest:
		return styleSubtle.Render(m.help(keybinds.ContextPrompt, []helpItem{
			{keybinds.ActionSubmit, "create"},
			{keybinds.ActionNextMethod, "method"},
			{keybinds.ActionCancel, "cancel"},
		}))
	}
	return styleSubtle.Render(m.help(keybinds.ContextPrompt, []helpItem{
		{keybinds.ActionSubmit, "confirm"},
		{keybinds.ActionCancel, "cancel"},
	}))
}

// renderStatusBar shows the status message, or key help when there is none
func (m *Model) renderStatusBar() string {
	status := m.ws.Status()

	left := ""
	switch {
	case status.Error:
		left = styleError.Render(status.Text)
	case status.Text != "":
		left = styleSuccess.Render(status.Text)
	default:
		left = styleSubtle.Render(m.contextHelp())
	}

	right := ""
	if m.ws.Busy() {
		right = m.spinner.View() + " sending"
	}

	spacing := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return runewidth.Truncate(left+strings.Repeat(" ", spacing)+right, max(1, m.width), "")
}

type helpItem struct {
	action keybinds.Action
	label  string
}

func (m *Model) help(ctx keybinds.Context, items []helpItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		keys := m.keys.GetBinding(ctx, item.action)
		if len(keys) == 0 {
			continue
		}
		key := keys[0]
		if key == " " {
			key = "space"
		}
		parts = append(parts, key+" "+item.label)
	}
	return strings.Join(parts, " | ")
}

// contextHelp picks the hint line for the focused area
func (m *Model) contextHelp() string {
	state := m.ws.State()
	switch state.Screen().(type) {
	case navigation.Deleting:
		return "Pick the node to delete: " + m.help(keybinds.ContextPicker, []helpItem{
			{keybinds.ActionSubmit, "pick"},
			{keybinds.ActionCancel, "cancel"},
		})
	case navigation.RequestDetail:
		return m.help(keybinds.ContextViewer, []helpItem{
			{keybinds.ActionEditFilter, "filter"},
			{keybinds.ActionClearFilter, "clear"},
			{keybinds.ActionCopyToClipboard, "copy"},
			{keybinds.ActionSend, "send"},
			{keybinds.ActionCloseViewer, "close"},
		})
	}

	if state.InDetails() {
		items := []helpItem{
			{keybinds.ActionNextField, "next"},
			{keybinds.ActionFocusTree, "tree"},
			{keybinds.ActionSend, "send"},
		}
		switch state.Field() {
		case navigation.FieldHeaders, navigation.FieldParams:
			items = append(items, helpItem{keybinds.ActionOpenOverlay, "edit"})
		case navigation.FieldAuthType:
			items = append(items, helpItem{keybinds.ActionRight, "switch"})
		case navigation.FieldAuthPassword:
			items = append(items, helpItem{keybinds.ActionTogglePassword, "show"})
		}
		return m.help(keybinds.ContextDetails, items)
	}

	return m.help(keybinds.ContextTree, []helpItem{
		{keybinds.ActionNewGroup, "group"},
		{keybinds.ActionAddRequest, "request"},
		{keybinds.ActionDelete, "delete"},
		{keybinds.ActionNextMethod, "method"},
		{keybinds.ActionSend, "send"},
		{keybinds.ActionOpenResponse, "response"},
		{keybinds.ActionOpenSearch, "search"},
		{keybinds.ActionQuit, "quit"},
	})
}
