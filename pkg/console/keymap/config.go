// Package keymap provides user-configurable key bindings for the console,
// loaded from keymap.json next to the console configuration.
package keymap

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Config represents user key binding configuration
type Config struct {
	// Bindings maps "context:key" to command ID
	// Example: {"actions:x": "submit", "global:ctrl+q": "quit"}
	Bindings map[string]string `json:"bindings"`
}

// LoadConfig loads key binding overrides from a JSON file.
// Returns an empty config if the file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Bindings: make(map[string]string)}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Bindings == nil {
		cfg.Bindings = make(map[string]string)
	}
	return &cfg, nil
}

// ApplyConfig applies user overrides to the registry. Entries naming an
// unknown context or command are skipped and returned for reporting.
func ApplyConfig(r *Registry, cfg *Config) []string {
	if cfg == nil {
		return nil
	}
	var skipped []string
	for binding, cmdStr := range cfg.Bindings {
		ctx, key := parseBinding(binding)
		if key == "" || !validContext(ctx) || !Command(cmdStr).IsKnown() {
			skipped = append(skipped, binding)
			continue
		}
		r.SetUserOverride(ctx, key, Command(cmdStr))
	}
	sort.Strings(skipped)
	return skipped
}

func validContext(ctx Context) bool {
	for _, c := range Contexts {
		if c == ctx {
			return true
		}
	}
	return false
}

// parseBinding parses a "context:key" string into context and key parts.
func parseBinding(s string) (Context, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return Context(s[:i]), s[i+1:]
		}
	}
	// If no colon, assume global context
	return ContextGlobal, s
}
