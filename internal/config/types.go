// Package config provides configuration parsing for the ladybird shell.
// This file defines the configuration data structures.
package config

import "time"

// Config is the complete shell configuration.
type Config struct {
	// ResourceRoot holds res/themes and the other shared resources.
	ResourceRoot string
	// WebContentPath, when set, is tried before the discovered helper paths.
	WebContentPath string
	// DevicePixelRatio is device pixels per CSS pixel. Zero means 1.
	DevicePixelRatio float64
	// StartURL is loaded once the first renderer is up.
	StartURL string

	Window     WindowConfig
	Fonts      FontConfig
	Renderer   RendererConfig
	Recovery   RecoveryConfig
	WatchTheme bool
}

// WindowConfig describes the shell window.
type WindowConfig struct {
	Width  int
	Height int
	Title  string
}

// FontConfig holds the system font queries pushed to renderers.
type FontConfig struct {
	Default     string
	FixedWidth  string
	WindowTitle string
}

// RendererConfig controls how renderer helpers are started.
type RendererConfig struct {
	UseLagomNetworking bool
	EnableProfiling    bool
}

// RecoveryConfig bounds automatic recovery from renderer crashes.
type RecoveryConfig struct {
	// MaxConsecutiveCrashes is how many crashes without a successful paint
	// in between are recovered before giving up.
	MaxConsecutiveCrashes int
	// InitialDelay is the wait before the second consecutive recovery.
	InitialDelay time.Duration
	// MaxDelay caps the wait between recoveries.
	MaxDelay time.Duration
}
