package config

import (
	"time"

	"github.com/opd-ai/go-ladybird/internal/theme"
)

// Default values for configuration options.
const (
	// DefaultResourceRoot is where shared resources are looked up.
	DefaultResourceRoot = "${LADYBIRD_RESOURCE_ROOT:-/usr/local/share/ladybird}"
	// DefaultWidth is the default window width in pixels.
	DefaultWidth = 800
	// DefaultHeight is the default window height in pixels.
	DefaultHeight = 600
	// DefaultTitle is the default window title.
	DefaultTitle = "Ladybird"
	// DefaultStartURL is loaded when nothing else is configured.
	DefaultStartURL = "about:blank"
	// DefaultMaxConsecutiveCrashes bounds crash recovery.
	DefaultMaxConsecutiveCrashes = 3
	// DefaultInitialDelay is the first backoff between recoveries.
	DefaultInitialDelay = 250 * time.Millisecond
	// DefaultMaxDelay caps the backoff between recoveries.
	DefaultMaxDelay = 5 * time.Second
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	fonts := theme.DefaultFontQueries()
	return Config{
		ResourceRoot:     DefaultResourceRoot,
		DevicePixelRatio: 1,
		StartURL:         DefaultStartURL,
		Window: WindowConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			Title:  DefaultTitle,
		},
		Fonts: FontConfig{
			Default:     fonts.Default,
			FixedWidth:  fonts.FixedWidth,
			WindowTitle: fonts.WindowTitle,
		},
		Renderer: RendererConfig{
			UseLagomNetworking: true,
		},
		Recovery: RecoveryConfig{
			MaxConsecutiveCrashes: DefaultMaxConsecutiveCrashes,
			InitialDelay:          DefaultInitialDelay,
			MaxDelay:              DefaultMaxDelay,
		},
		WatchTheme: true,
	}
}

// FontQueries converts the font settings for the renderer protocol.
func (f FontConfig) FontQueries() theme.FontQueries {
	return theme.FontQueries{
		Default:     f.Default,
		FixedWidth:  f.FixedWidth,
		WindowTitle: f.WindowTitle,
	}.WithDefaults()
}
