// Package prefs persists the choices an operator makes in the console.
// Preferences are stored in ~/.config/webtail/prefs.toml, separate from the
// hand-edited config file.
package prefs

import (
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/five82/webtail/internal/config"
)

// Prefs holds console preferences. Empty fields mean "not chosen yet".
type Prefs struct {
	Theme       string `toml:"theme,omitempty"`
	PauseFollow bool   `toml:"pause_follow,omitempty"`
}

const defaultPrefsPath = "~/.config/webtail/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. A missing or unreadable file yields zero
// Prefs; preferences never stop webtail from starting.
func Load(fs afero.Fs, path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{}
	}
	data, err := afero.ReadFile(fs, resolved)
	if err != nil {
		return Prefs{}
	}
	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{}
	}
	p.Theme = strings.TrimSpace(p.Theme)
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(fs afero.Fs, path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := afero.WriteFile(fs, resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return config.ExpandPath(defaultPrefsPath)
	}
	return config.ExpandPath(path)
}
