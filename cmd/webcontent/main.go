// Package main is the WebContent helper. The shell starts it with the
// renderer protocol on standard input and output; diagnostics go to
// standard error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/creachadair/jrpc2/channel"

	"github.com/opd-ai/go-ladybird/internal/process"
	"github.com/opd-ai/go-ladybird/internal/profiling"
	"github.com/opd-ai/go-ladybird/internal/webcontent"
)

// Version is the current version of the helper.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options are the parsed command line.
type options struct {
	profile        bool
	testMode       bool
	lagom          bool
	systemNetwork  bool
	verbose        bool
	version        bool
	profileDir     string
	networkingMode process.NetworkingMode
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("webcontent", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&o.profile, "profile", false, "Write CPU and heap profiles on exit")
	fs.StringVar(&o.profileDir, "profile-dir", "", "Directory for profiles (default: temp dir)")
	fs.BoolVar(&o.testMode, "layout-test-mode", false, "Disable network loads")
	fs.BoolVar(&o.lagom, "use-lagom-networking", false, "Use the bundled networking stack")
	fs.BoolVar(&o.systemNetwork, "use-system-networking", false, "Use the platform networking stack")
	fs.BoolVar(&o.verbose, "v", false, "Log debug output")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.lagom && o.systemNetwork {
		return o, fmt.Errorf("--use-lagom-networking and --use-system-networking are exclusive")
	}
	if o.systemNetwork {
		o.networkingMode = process.NetworkingSystem
	}
	return o, nil
}

func run(args []string, stdin io.Reader, stdout io.WriteCloser, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "webcontent: %v\n", err)
		return 2
	}
	if o.version {
		fmt.Fprintf(stderr, "webcontent version %s\n", Version)
		return 0
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("process", "webcontent", "pid", os.Getpid())

	if o.profile {
		profiler := profiling.New(profiling.ForProcess(o.profileDir, process.RoleWebContent, os.Getpid()))
		if err := profiler.Start(); err != nil {
			logger.Error("starting profiler", "error", err)
			return 1
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				logger.Warn("stopping profiler", "error", err)
			}
			logger.Info("profiles written", "cpu", profiler.Config().CPUProfilePath, "heap", profiler.Config().MemProfilePath)
		}()
	}

	r, err := webcontent.New(webcontent.Options{
		Networking: o.networkingMode,
		TestMode:   o.testMode,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("creating renderer", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Debug("serving", "networking", o.networkingMode, "test_mode", o.testMode)
	if err := r.Serve(ctx, channel.Line(stdin, stdout)); err != nil {
		logger.Error("renderer stopped", "error", err)
		return 1
	}
	return 0
}
