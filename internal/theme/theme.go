// Package theme loads the system theme and font selections that the shell
// pushes to every renderer it launches, and watches the theme file so edits
// can be re-pushed without restarting the renderer.
package theme

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultThemeName is the theme file loaded when no other is configured.
const DefaultThemeName = "Default"

// Theme is a parsed theme file. Sections mirror the INI layout
// ([Colors], [Metrics], [Paths], [Flags], ...) and are sent verbatim to the
// renderer, which interprets the roles it knows.
type Theme struct {
	Name     string                       `json:"name"`
	Sections map[string]map[string]string `json:"sections"`
}

// Path returns the location of the named theme under resourceRoot.
func Path(resourceRoot, name string) string {
	if name == "" {
		name = DefaultThemeName
	}
	return filepath.Join(resourceRoot, "res", "themes", name+".ini")
}

// Load reads and parses the theme file at path.
func Load(path string) (Theme, error) {
	// Color values start with '#', so inline comment parsing must be off.
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return Theme{}, fmt.Errorf("load theme %s: %w", path, err)
	}

	t := Theme{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Sections: make(map[string]map[string]string),
	}
	for _, sec := range f.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		values := make(map[string]string, len(keys))
		for _, k := range keys {
			values[k.Name()] = k.String()
		}
		t.Sections[sec.Name()] = values
	}
	if len(t.Sections) == 0 {
		return Theme{}, fmt.Errorf("load theme %s: no sections", path)
	}
	return t, nil
}

// LoadDefault loads the default theme from resourceRoot.
func LoadDefault(resourceRoot string) (Theme, error) {
	return Load(Path(resourceRoot, DefaultThemeName))
}

// Color returns the [Colors] entry for role parsed as #rrggbb or #rrggbbaa.
func (t Theme) Color(role string) (color.RGBA, bool) {
	v, ok := t.Sections["Colors"][role]
	if !ok {
		return color.RGBA{}, false
	}
	c, err := ParseColor(v)
	if err != nil {
		return color.RGBA{}, false
	}
	return c, true
}

// Metric returns the [Metrics] entry for name as an integer.
func (t Theme) Metric(name string) (int, bool) {
	v, ok := t.Sections["Metrics"][name]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseColor parses "#rrggbb" or "#rrggbbaa". Alpha defaults to opaque.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
