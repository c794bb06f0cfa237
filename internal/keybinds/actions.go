package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the context in which keybindings are active
type Context string

const (
	ContextGlobal  Context = "global"  // Available everywhere
	ContextTree    Context = "tree"    // Tree panel on the main screen
	ContextDetails Context = "details" // Details panel on the main screen
	ContextOverlay Context = "overlay" // Header/param entry overlay
	ContextPrompt  Context = "prompt"  // Single-line prompts (group name, request name, search, filter)
	ContextPicker  Context = "picker"  // Picking a node to delete
	ContextConfirm Context = "confirm" // Yes/no questions
	ContextViewer  Context = "viewer"  // Response screen
)

const (
	// Global actions
	ActionQuit      Action = "quit"       // Ask to quit
	ActionQuitForce Action = "quit_force" // Quit without asking

	// Tree navigation
	ActionNavigateUp   Action = "navigate_up"
	ActionNavigateDown Action = "navigate_down"
	ActionGoToTop      Action = "go_to_top"
	ActionGoToBottom   Action = "go_to_bottom"
	ActionExpand       Action = "expand"
	ActionCollapse     Action = "collapse"
	ActionToggleNode   Action = "toggle_node"
	ActionSelect       Action = "select" // Enter on a node

	// Model operations from the tree
	ActionNewGroup     Action = "new_group"
	ActionAddRequest   Action = "add_request"
	ActionDelete       Action = "delete"
	ActionNextMethod   Action = "next_method"
	ActionPrevMethod   Action = "prev_method"
	ActionSend         Action = "send"
	ActionOpenResponse Action = "open_response"
	ActionOpenSearch   Action = "open_search"
	ActionFocusDetails Action = "focus_details"

	// Details panel
	ActionNextField      Action = "next_field"
	ActionPrevField      Action = "prev_field"
	ActionFocusTree      Action = "focus_tree"
	ActionLeft           Action = "left"
	ActionRight          Action = "right"
	ActionTogglePassword Action = "toggle_password"
	ActionOpenOverlay    Action = "open_overlay"
	ActionPaste          Action = "paste"

	// Overlay and prompts
	ActionSubmit    Action = "submit"
	ActionCancel    Action = "cancel"
	ActionErase     Action = "erase"
	ActionSwitchKV  Action = "switch_key_value"
	ActionRemoveKey Action = "remove_key"

	// Confirmation
	ActionConfirm Action = "confirm"
	ActionDeny    Action = "deny"

	// Response screen
	ActionScrollUp        Action = "scroll_up"
	ActionScrollDown      Action = "scroll_down"
	ActionPageUp          Action = "page_up"
	ActionPageDown        Action = "page_down"
	ActionEditFilter      Action = "edit_filter"
	ActionClearFilter     Action = "clear_filter"
	ActionCopyToClipboard Action = "copy_to_clipboard"
	ActionCloseViewer     Action = "close_viewer"
)

// KnownActions lists every action the TUI handles
func KnownActions() []Action {
	return []Action{
		ActionQuit, ActionQuitForce,
		ActionNavigateUp, ActionNavigateDown, ActionGoToTop, ActionGoToBottom,
		ActionExpand, ActionCollapse, ActionToggleNode, ActionSelect,
		ActionNewGroup, ActionAddRequest, ActionDelete, ActionNextMethod, ActionPrevMethod,
		ActionSend, ActionOpenResponse, ActionOpenSearch, ActionFocusDetails,
		ActionNextField, ActionPrevField, ActionFocusTree, ActionLeft, ActionRight,
		ActionTogglePassword, ActionOpenOverlay, ActionPaste,
		ActionSubmit, ActionCancel, ActionErase, ActionSwitchKV, ActionRemoveKey,
		ActionConfirm, ActionDeny,
		ActionScrollUp, ActionScrollDown, ActionPageUp, ActionPageDown,
		ActionEditFilter, ActionClearFilter, ActionCopyToClipboard, ActionCloseViewer,
	}
}

// IsKnownAction reports whether a is handled anywhere
func IsKnownAction(a Action) bool {
	for _, known := range KnownActions() {
		if known == a {
			return true
		}
	}
	return false
}

// Contexts lists every context in lookup order
func Contexts() []Context {
	return []Context{
		ContextGlobal, ContextTree, ContextDetails, ContextOverlay,
		ContextPrompt, ContextPicker, ContextConfirm, ContextViewer,
	}
}
