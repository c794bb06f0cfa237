package keybinds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/studiowebux/apiquest/internal/errdef"
)

// Unbound removes a default binding when used as the action of a key
const Unbound = "none"

// Config maps context name -> key -> action name
type Config map[string]map[string]string

// LoadConfig loads keybinding overrides from a JSONC file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes JSONC keybinding overrides. Comments and trailing
// commas are allowed.
func ParseConfig(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return nil, errdef.Wrap(errdef.CodeConfig, err, "invalid keybinds file")
	}
	return config, nil
}

// ApplyConfig applies user configuration to a registry. User bindings
// override default bindings.
func ApplyConfig(registry *Registry, config Config) error {
	known := make(map[Context]bool)
	for _, c := range Contexts() {
		known[c] = true
	}

	for name, bindings := range config {
		context := Context(name)
		if !known[context] {
			return errdef.New(errdef.CodeConfig, "unknown keybinds context %q", name)
		}
		for key, actionStr := range bindings {
			if err := ValidateKey(key); err != nil {
				return errdef.Wrap(errdef.CodeConfig, err, "context %q", name)
			}
			if actionStr == Unbound {
				registry.Unregister(context, key)
				continue
			}
			action := Action(actionStr)
			if !IsKnownAction(action) {
				return errdef.New(errdef.CodeConfig, "unknown action %q for key %q in context %q", actionStr, key, name)
			}
			registry.Register(context, key, action)
		}
	}
	return nil
}

// LoadOrDefault loads user config if it exists, otherwise returns the
// default registry
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()

	if _, err := os.Stat(configPath); err != nil {
		return registry, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(configPath), err)
	}
	if err := ApplyConfig(registry, config); err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", filepath.Base(configPath), err)
	}
	return registry, nil
}

// ExportDefaults renders the default bindings as a JSONC document users can
// start from
func ExportDefaults() []byte {
	registry := NewDefaultRegistry()

	var buf bytes.Buffer
	buf.WriteString("// apiquest keybindings\n")
	buf.WriteString("// Map a key to an action per context. Use \"" + Unbound + "\" to remove a default.\n")
	buf.WriteString("{\n")

	contexts := Contexts()
	for i, context := range contexts {
		keys := make([]string, 0, len(registry.bindings[context]))
		for key := range registry.bindings[context] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(&buf, "  %q: {\n", context)
		for j, key := range keys {
			sep := ","
			if j == len(keys)-1 {
				sep = ""
			}
			fmt.Fprintf(&buf, "    %q: %q%s\n", key, registry.bindings[context][key], sep)
		}
		sep := ","
		if i == len(contexts)-1 {
			sep = ""
		}
		fmt.Fprintf(&buf, "  }%s\n", sep)
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

// WriteDefaults writes ExportDefaults to path unless a file already exists
func WriteDefaults(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, ExportDefaults(), 0o644)
}
