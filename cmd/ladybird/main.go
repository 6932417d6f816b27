// Package main is the ladybird shell: a window that hosts one out-of-process
// WebContent renderer through the webview bridge.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/opd-ai/go-ladybird/internal/config"
	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/process"
	"github.com/opd-ai/go-ladybird/internal/profiling"
	"github.com/opd-ai/go-ladybird/internal/screen"
	"github.com/opd-ai/go-ladybird/internal/theme"
	"github.com/opd-ai/go-ladybird/internal/view"
	"github.com/opd-ai/go-ladybird/pkg/webview"
)

// Version is the current version of the shell.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("c", "", "Path to Lua configuration file")
	startURL := flag.String("url", "", "URL to load instead of the configured start page")
	debug := flag.Bool("debug", false, "Log debug output")
	version := flag.Bool("v", false, "Print version and exit")
	cpuProfile := flag.String("cpuprofile", "", "Write CPU profile to file")
	memProfile := flag.String("memprofile", "", "Write memory profile to file")
	flag.Parse()

	if *version {
		fmt.Printf("ladybird version %s\n", Version)
		return 0
	}

	profConfig := profiling.Config{
		CPUProfilePath: *cpuProfile,
		MemProfilePath: *memProfile,
	}
	if profConfig.Enabled() {
		profiler := profiling.New(profConfig)
		if err := profiler.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start profiling: %v\n", err)
			return 1
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to stop profiling: %v\n", err)
			}
		}()
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return 1
	}
	for _, w := range config.NewValidator().Validate(cfg).Warnings {
		logger.Warn("configuration", "field", w.Field, "message", w.Message)
	}
	url := cfg.StartURL
	if *startURL != "" {
		url = *startURL
	}
	if flag.NArg() > 0 {
		url = flag.Arg(0)
	}

	viewConfig := windowConfig(cfg)
	if t, err := theme.LoadDefault(cfg.ResourceRoot); err == nil {
		viewConfig = viewConfig.WithTheme(t)
	} else {
		logger.Warn("theme unavailable, using built-in colors", "error", err)
	}
	fonts, err := view.NewFonts(cfg.Fonts.FontQueries())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fonts: %v\n", err)
		return 1
	}
	game := view.NewGame(viewConfig, fonts)

	opts := bridgeOptions(cfg, webview.NewSlogAdapter(logger), game)
	rects := screen.RectsOrFallback(gfx.IntSize{Width: cfg.Window.Width, Height: cfg.Window.Height})
	bridge, err := webview.New(rects, cfg.DevicePixelRatio, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start renderer: %v\n", err)
		return 1
	}
	defer func() {
		if err := bridge.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing renderer: %v\n", err)
		}
	}()

	bridge.SetErrorHandler(func(err error) {
		logger.Warn("renderer", "error", err)
	})
	bridge.SetEventHandler(func(e webview.Event) {
		logger.Info("renderer event", "type", e.Type, "message", e.Message)
		if e.Type == webview.EventThemeReloaded {
			if t, err := theme.LoadDefault(cfg.ResourceRoot); err == nil {
				game.SetConfig(windowConfig(cfg).WithTheme(t))
			}
		}
	})
	game.SetErrorHandler(func(err error) {
		logger.Warn("view", "error", err)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	game.SetContext(ctx)
	game.Attach(bridge)

	if err := bridge.Load(url); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", url, err)
		return 1
	}

	logger.Info("ladybird starting", "version", Version, "url", url)
	if err := game.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// windowConfig is the view configuration before theme colors are applied.
func windowConfig(cfg *config.Config) view.Config {
	vc := view.DefaultConfig()
	vc.Width = cfg.Window.Width
	vc.Height = cfg.Window.Height
	vc.Title = cfg.Window.Title
	return vc
}

// bridgeOptions translates the shell configuration. game receives every
// host callback.
func bridgeOptions(cfg *config.Config, logger webview.Logger, game *view.Game) webview.Options {
	opts := webview.DefaultOptions()
	opts.ResourceRoot = cfg.ResourceRoot
	opts.Fonts = cfg.Fonts.FontQueries()
	opts.EnableProfiling = cfg.Renderer.EnableProfiling
	opts.WatchTheme = cfg.WatchTheme
	opts.Logger = logger
	opts.ViewHost = game
	opts.DialogHost = game
	opts.InputHost = game

	if cfg.Renderer.UseLagomNetworking {
		opts.Networking = process.NetworkingLagom
	} else {
		opts.Networking = process.NetworkingSystem
	}

	opts.Recovery = webview.RecoveryPolicy{
		MaxConsecutiveCrashes: cfg.Recovery.MaxConsecutiveCrashes,
		InitialDelay:          cfg.Recovery.InitialDelay,
		MaxDelay:              cfg.Recovery.MaxDelay,
		Disabled:              cfg.Recovery.MaxConsecutiveCrashes == 0,
	}

	if cfg.WebContentPath != "" {
		opts.HelperPaths = func(role string) ([]string, error) {
			paths, err := process.PathsForHelperProcess(role)
			if err != nil {
				return []string{cfg.WebContentPath}, nil
			}
			return append([]string{cfg.WebContentPath}, paths...), nil
		}
	}
	return opts
}
