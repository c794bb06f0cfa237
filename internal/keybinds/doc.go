/*
Package keybinds maps key presses to actions per input context.

# Contexts

  - global: available everywhere (ctrl+c)
  - tree: main screen, tree panel focused
  - details: main screen, details panel focused
  - overlay: header/param entry
  - prompt: group name, request name, search and filter prompts
  - picker: choosing the node to delete
  - confirm: yes/no questions
  - viewer: the response screen

A key bound in a context shadows the same key in global.

# Configuration File Format

Overrides live in keybinds.jsonc next to config.yaml. Comments and trailing
commas are accepted:

	{
	  // delete with x instead of d
	  "tree": {
	    "x": "delete",
	    "d": "none",
	  },
	}

The value "none" removes a default binding. Unknown contexts and actions are
rejected when the file is loaded.

# Multi-Key Sequences

Runs of the same character such as "gg" are matched with MatchSequence. The
first key is held until the next press decides the match.

# Example Usage

	registry, err := keybinds.LoadOrDefault(config.KeybindsFile)
	if err != nil {
		return err
	}
	if result := keybinds.NewValidator().ValidateRegistry(registry); result.HasErrors() {
		return errors.New(result.String())
	}

	if action, ok, _ := registry.MatchSequence(keybinds.ContextTree, msg.String()); ok {
		// handle action
	}
*/
package keybinds
