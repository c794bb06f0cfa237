/*
Package tui implements the terminal user interface for apiquest.

# Architecture

The TUI follows the Bubble Tea framework's Model-Update-View pattern, but
the Model here is thin: every piece of request data and navigation state
lives in a workspace.Workspace. The tui package only maps key presses onto
workspace operations and renders what the workspace exposes.

  - model.go: Model struct and message dispatch
  - keys.go: keyboard input routed per screen through the keybinds.Registry
  - actions.go: side effects (background sends, clipboard, response views)
  - render.go: lipgloss rendering of the tree, details, response and modals
  - init.go: construction and program startup

# Screens

The active navigation.Screen picks the key context:

  - Main: tree or details context, depending on the focused panel
  - Editing, AddingRequest, Searching: prompt context
  - Deleting: picker context
  - DeleteConfirm, Exiting: confirm context
  - RequestDetail: viewer context, or prompt while the filter is edited

An open header/param overlay takes precedence over the screen.

# Threading Model

The TUI runs in Bubble Tea's event loop. Sending a request reserves the
single execution slot of the workspace runner and runs the returned job as
a tea.Cmd; the result comes back as a responseMsg.
*/
package tui
