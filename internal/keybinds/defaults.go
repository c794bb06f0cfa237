package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerTreeBindings(r)
	registerDetailsBindings(r)
	registerOverlayBindings(r)
	registerPromptBindings(r)
	registerPickerBindings(r)
	registerConfirmBindings(r)
	registerViewerBindings(r)

	return r
}

func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
}

// registerTreeBindings covers the main screen with the tree focused
func registerTreeBindings(r *Registry) {
	r.RegisterMultiple(ContextTree, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(ContextTree, []string{"down", "j"}, ActionNavigateDown)
	r.RegisterMultiple(ContextTree, []string{"gg", "home"}, ActionGoToTop)
	r.RegisterMultiple(ContextTree, []string{"G", "end"}, ActionGoToBottom)
	r.RegisterMultiple(ContextTree, []string{"right", "l"}, ActionExpand)
	r.RegisterMultiple(ContextTree, []string{"left", "h"}, ActionCollapse)
	r.Register(ContextTree, " ", ActionToggleNode)
	r.Register(ContextTree, "enter", ActionSelect)
	r.Register(ContextTree, "tab", ActionFocusDetails)

	r.Register(ContextTree, "e", ActionNewGroup)
	r.Register(ContextTree, "a", ActionAddRequest)
	r.Register(ContextTree, "d", ActionDelete)
	r.Register(ContextTree, "m", ActionNextMethod)
	r.Register(ContextTree, "M", ActionPrevMethod)
	r.RegisterMultiple(ContextTree, []string{"s", "ctrl+s"}, ActionSend)
	r.Register(ContextTree, "v", ActionOpenResponse)
	r.Register(ContextTree, "/", ActionOpenSearch)
	r.Register(ContextTree, "q", ActionQuit)
}

// registerDetailsBindings covers the details panel. Printable keys are not
// bound here so they reach the text buffers.
func registerDetailsBindings(r *Registry) {
	r.RegisterMultiple(ContextDetails, []string{"tab", "down"}, ActionNextField)
	r.RegisterMultiple(ContextDetails, []string{"shift+tab", "up"}, ActionPrevField)
	r.Register(ContextDetails, "esc", ActionFocusTree)
	r.Register(ContextDetails, "left", ActionLeft)
	r.Register(ContextDetails, "right", ActionRight)
	r.Register(ContextDetails, "ctrl+w", ActionTogglePassword)
	r.Register(ContextDetails, "enter", ActionOpenOverlay)
	r.Register(ContextDetails, "ctrl+s", ActionSend)
	r.RegisterMultiple(ContextDetails, []string{"ctrl+v", "shift+insert"}, ActionPaste)
}

func registerOverlayBindings(r *Registry) {
	r.Register(ContextOverlay, "enter", ActionSubmit)
	r.Register(ContextOverlay, "esc", ActionCancel)
	r.Register(ContextOverlay, "backspace", ActionErase)
	r.Register(ContextOverlay, "tab", ActionSwitchKV)
	r.Register(ContextOverlay, "ctrl+d", ActionRemoveKey)
}

func registerPromptBindings(r *Registry) {
	r.Register(ContextPrompt, "enter", ActionSubmit)
	r.Register(ContextPrompt, "esc", ActionCancel)
	r.Register(ContextPrompt, "backspace", ActionErase)
	r.Register(ContextPrompt, "left", ActionPrevMethod)
	r.Register(ContextPrompt, "right", ActionNextMethod)
}

func registerPickerBindings(r *Registry) {
	r.RegisterMultiple(ContextPicker, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(ContextPicker, []string{"down", "j"}, ActionNavigateDown)
	r.RegisterMultiple(ContextPicker, []string{"right", "l"}, ActionExpand)
	r.RegisterMultiple(ContextPicker, []string{"left", "h"}, ActionCollapse)
	r.Register(ContextPicker, "enter", ActionSubmit)
	r.Register(ContextPicker, "esc", ActionCancel)
}

func registerConfirmBindings(r *Registry) {
	r.RegisterMultiple(ContextConfirm, []string{"y", "Y"}, ActionConfirm)
	r.RegisterMultiple(ContextConfirm, []string{"n", "N", "esc"}, ActionDeny)
}

func registerViewerBindings(r *Registry) {
	r.RegisterMultiple(ContextViewer, []string{"up", "k"}, ActionScrollUp)
	r.RegisterMultiple(ContextViewer, []string{"down", "j"}, ActionScrollDown)
	r.RegisterMultiple(ContextViewer, []string{"pgup", "ctrl+u"}, ActionPageUp)
	r.RegisterMultiple(ContextViewer, []string{"pgdown", "ctrl+d"}, ActionPageDown)
	r.RegisterMultiple(ContextViewer, []string{"gg", "home"}, ActionGoToTop)
	r.RegisterMultiple(ContextViewer, []string{"G", "end"}, ActionGoToBottom)
	r.Register(ContextViewer, "f", ActionEditFilter)
	r.Register(ContextViewer, "F", ActionClearFilter)
	r.Register(ContextViewer, "y", ActionCopyToClipboard)
	r.Register(ContextViewer, "s", ActionSend)
	r.RegisterMultiple(ContextViewer, []string{"esc", "q"}, ActionCloseViewer)
}
