// Package config provides configuration parsing for the ladybird shell.
// This file implements the Lua configuration parser.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// LuaConfigParser parses Lua configuration files. The file assigns a table
// to ladybird.config; arbitrary Lua may run first to compute it.
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser whose print goes
// to stdout.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// Parse executes content and extracts the configuration from
// ladybird.config. Keys that are not set keep their defaults.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"config",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	ctx := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    10_000_000,
			Memory: 50 * 1024 * 1024,
		},
	}
	p.runtime.PushContext(ctx)
	defer p.runtime.PopContext()

	if _, err := rt.Call1(p.runtime.MainThread(), rt.FunctionValue(closure)); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	return p.extractConfig()
}

func (p *LuaConfigParser) initGlobal() {
	root := rt.NewTable()
	root.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	p.runtime.GlobalEnv().Set(rt.StringValue("ladybird"), rt.TableValue(root))
}

func (p *LuaConfigParser) extractConfig() (*Config, error) {
	cfg := DefaultConfig()

	rootVal := p.runtime.GlobalEnv().Get(rt.StringValue("ladybird"))
	if rootVal == rt.NilValue {
		return &cfg, nil
	}
	root, ok := rootVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("ladybird is not a table")
	}

	configVal := root.Get(rt.StringValue("config"))
	if configVal == rt.NilValue {
		return &cfg, nil
	}
	table, ok := configVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("ladybird.config is not a table")
	}
	extractConfigTable(&cfg, table)
	return &cfg, nil
}

func extractConfigTable(cfg *Config, table *rt.Table) {
	stringFields := []struct {
		key    string
		target *string
	}{
		{"resource_root", &cfg.ResourceRoot},
		{"webcontent_path", &cfg.WebContentPath},
		{"start_url", &cfg.StartURL},
		{"title", &cfg.Window.Title},
		{"default_font", &cfg.Fonts.Default},
		{"fixed_width_font", &cfg.Fonts.FixedWidth},
		{"window_title_font", &cfg.Fonts.WindowTitle},
	}
	for _, f := range stringFields {
		if val := getTableString(table, f.key); val != nil {
			*f.target = *val
		}
	}

	boolFields := []struct {
		key    string
		target *bool
	}{
		{"use_lagom_networking", &cfg.Renderer.UseLagomNetworking},
		{"profile_webcontent", &cfg.Renderer.EnableProfiling},
		{"watch_theme", &cfg.WatchTheme},
	}
	for _, f := range boolFields {
		if val := getTableBool(table, f.key); val != nil {
			*f.target = *val
		}
	}

	if val := getTableFloat(table, "device_pixel_ratio"); val != nil {
		cfg.DevicePixelRatio = *val
	}
	if val := getTableInt(table, "width"); val != nil {
		cfg.Window.Width = *val
	}
	if val := getTableInt(table, "height"); val != nil {
		cfg.Window.Height = *val
	}
	if val := getTableInt(table, "max_consecutive_crashes"); val != nil {
		cfg.Recovery.MaxConsecutiveCrashes = *val
	}
	if val := getTableFloat(table, "crash_initial_delay"); val != nil {
		cfg.Recovery.InitialDelay = seconds(*val)
	}
	if val := getTableFloat(table, "crash_max_delay"); val != nil {
		cfg.Recovery.MaxDelay = seconds(*val)
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

// getTableBool retrieves a boolean value from a Lua table.
// Returns nil if the key doesn't exist or is not a boolean.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if b, ok := val.TryBool(); ok {
		return &b
	}
	// Strings are accepted for compatibility with hand-edited files.
	if s, ok := val.TryString(); ok {
		b := parseBool(s)
		return &b
	}
	return nil
}

// parseBool accepts the usual spellings of true; anything else is false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}

// getTableString retrieves a string value from a Lua table.
// Returns nil if the key doesn't exist or is not a string.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if s, ok := val.TryString(); ok {
		return &s
	}
	return nil
}

// getTableFloat retrieves a float64 value from a Lua table.
func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if n, ok := val.TryFloat(); ok {
		return &n
	}
	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f
	}
	return nil
}

// getTableInt retrieves an int value from a Lua table. Floats truncate.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}
	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}
	return nil
}
