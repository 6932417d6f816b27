package webview

import (
	"context"
	"os"
	"time"

	"github.com/creachadair/jrpc2/channel"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/process"
	"github.com/opd-ai/go-ladybird/internal/theme"
)

// Process is a running renderer as the bridge sees it.
type Process interface {
	// Channel is the protocol channel to the renderer.
	Channel() channel.Channel
	// Exited is closed when the renderer process has gone away.
	Exited() <-chan struct{}
	// Kill terminates the renderer. It must be safe to call more than once.
	Kill() error
}

// LaunchFunc starts a renderer process.
type LaunchFunc func(ctx context.Context, req process.LaunchRequest) (Process, error)

// HelperPathsFunc lists candidate executables for a helper role.
type HelperPathsFunc func(role string) ([]string, error)

// FileOpener opens a path on behalf of the renderer. It must only grant
// read access.
type FileOpener func(path string) (*os.File, error)

// Options configures a Bridge.
type Options struct {
	// ResourceRoot holds res/themes/Default.ini.
	ResourceRoot string

	// Fonts are pushed to every new renderer. Empty queries use defaults.
	Fonts theme.FontQueries

	// Networking selects the renderer's network stack.
	Networking process.NetworkingMode

	// EnableProfiling asks renderers to profile themselves.
	EnableProfiling bool

	// Launch starts renderers. Nil uses process.Launch.
	Launch LaunchFunc

	// HelperPaths discovers renderer executables. Nil uses
	// process.PathsForHelperProcess.
	HelperPaths HelperPathsFunc

	// FileOpener services renderer file requests. Nil uses os.Open.
	FileOpener FileOpener

	// ViewHost, DialogHost and InputHost receive forwarded notifications.
	// Nil hosts drop them.
	ViewHost   ViewHost
	DialogHost DialogHost
	InputHost  InputHost

	// Recovery bounds automatic recovery from renderer crashes.
	Recovery RecoveryPolicy

	// WatchTheme re-pushes the theme to the renderer when the theme file
	// changes on disk.
	WatchTheme bool

	// WatchDebounce sets the debounce interval for theme file changes.
	// Zero means theme.DefaultWatchDebounce.
	WatchDebounce time.Duration

	// Logger sets a custom logger. If nil, no logging is performed.
	Logger Logger

	// Metrics sets a custom metrics collector. If nil, DefaultMetrics() is used.
	Metrics *Metrics
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Fonts:      theme.DefaultFontQueries(),
		Networking: process.NetworkingLagom,
		Recovery:   DefaultRecoveryPolicy(),
	}
}

func (o *Options) applyDefaults() {
	o.Fonts = o.Fonts.WithDefaults()
	if o.Launch == nil {
		o.Launch = launchProcess
	}
	if o.HelperPaths == nil {
		o.HelperPaths = process.PathsForHelperProcess
	}
	if o.FileOpener == nil {
		o.FileOpener = os.Open
	}
	if o.ViewHost == nil {
		o.ViewHost = NopHost{}
	}
	if o.DialogHost == nil {
		o.DialogHost = NopHost{}
	}
	if o.InputHost == nil {
		o.InputHost = NopHost{}
	}
	if o.Logger == nil {
		o.Logger = NopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = DefaultMetrics()
	}
	if o.WatchDebounce <= 0 {
		o.WatchDebounce = theme.DefaultWatchDebounce
	}
	o.Recovery = o.Recovery.withDefaults()
}

func launchProcess(ctx context.Context, req process.LaunchRequest) (Process, error) {
	h, err := process.Launch(ctx, req)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Logger interface for custom logging.
// It follows the slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

// ViewHost receives renderer requests that concern the view.
type ViewHost interface {
	DidLayout(contentSize gfx.IntSize)
	DidRequestCursorChange(cursor gfx.StandardCursor)
	DidRequestScroll(deltaX, deltaY int)
	DidRequestScrollTo(position gfx.IntPoint)
	DidRequestScrollIntoView(rect gfx.IntRect)
	DidEnterTooltipArea(position gfx.IntPoint, title string)
	DidLeaveTooltipArea()
	DidChangeTitle(title string)
	DidFinishLoad(url string)
}

// DialogHost shows modal dialogs for the renderer. Answers go back through
// Bridge.AlertClosed, ConfirmClosed and PromptClosed.
type DialogHost interface {
	DidRequestAlert(message string)
	DidRequestConfirm(message string)
	DidRequestPrompt(message, defaultValue string)
	DidRequestSetPromptText(text string)
	DidRequestAcceptDialog()
	DidRequestDismissDialog()
}

// InputHost learns whether forwarded input was consumed by the page.
type InputHost interface {
	DidFinishHandlingInputEvent(accepted bool)
}

// NopHost implements every host interface by doing nothing.
type NopHost struct{}

func (NopHost) DidLayout(gfx.IntSize)                     {}
func (NopHost) DidRequestCursorChange(gfx.StandardCursor) {}
func (NopHost) DidRequestScroll(int, int)                 {}
func (NopHost) DidRequestScrollTo(gfx.IntPoint)           {}
func (NopHost) DidRequestScrollIntoView(gfx.IntRect)      {}
func (NopHost) DidEnterTooltipArea(gfx.IntPoint, string)  {}
func (NopHost) DidLeaveTooltipArea()                      {}
func (NopHost) DidChangeTitle(string)                     {}
func (NopHost) DidFinishLoad(string)                      {}
func (NopHost) DidRequestAlert(string)                    {}
func (NopHost) DidRequestConfirm(string)                  {}
func (NopHost) DidRequestPrompt(string, string)           {}
func (NopHost) DidRequestSetPromptText(string)            {}
func (NopHost) DidRequestAcceptDialog()                   {}
func (NopHost) DidRequestDismissDialog()                  {}
func (NopHost) DidFinishHandlingInputEvent(bool)          {}
