// Package config provides configuration parsing for the ladybird shell.
// This file implements the file-level parser entry points.
package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Parser reads configuration files. Every successful parse has its paths
// expanded and is validated before it is returned.
type Parser struct {
	luaParser *LuaConfigParser
	validator *Validator
}

// NewParser creates a new Parser.
func NewParser() (*Parser, error) {
	luaParser, err := NewLuaConfigParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua parser: %w", err)
	}
	return &Parser{
		luaParser: luaParser,
		validator: NewValidator(),
	}, nil
}

// ParseFile reads and parses a configuration file.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return p.Parse(content)
}

// ParseFromFS reads and parses a configuration file from fsys.
func (p *Parser) ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}
	return p.Parse(content)
}

// ParseReader parses configuration from r.
func (p *Parser) ParseReader(r io.Reader) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return p.Parse(content)
}

// Parse parses configuration content.
func (p *Parser) Parse(content []byte) (*Config, error) {
	cfg, err := p.luaParser.Parse(content)
	if err != nil {
		return nil, err
	}
	ExpandEnvConfig(cfg)
	if err := p.validator.Validate(cfg).Error(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Close releases resources associated with the parser.
func (p *Parser) Close() error {
	if p.luaParser != nil {
		return p.luaParser.Close()
	}
	return nil
}

// Load returns the defaults when path is empty, otherwise the parsed file.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		ExpandEnvConfig(&cfg)
		return &cfg, nil
	}
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ParseFile(path)
}
