package webview

import "time"

// State is where the bridge is in its renderer lifecycle.
type State int

const (
	// StateConnected means a renderer is attached and serving paints.
	StateConnected State = iota
	// StateCrashPending means the renderer exited and recovery is scheduled
	// but has not run yet.
	StateCrashPending
	// StateRecreating means a replacement renderer is being started.
	StateRecreating
	// StateFailed means recovery gave up; Err reports why.
	StateFailed
	// StateClosed means Close was called.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateCrashPending:
		return "crash-pending"
	case StateRecreating:
		return "recreating"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrorHandler is a callback for runtime errors.
// It is called asynchronously; do not block in the handler.
type ErrorHandler func(err error)

// EventHandler is a callback for lifecycle events.
// It is called asynchronously; do not block in the handler.
type EventHandler func(event Event)

// Event represents a renderer lifecycle event.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
}

// EventType enumerates lifecycle event types.
type EventType int

const (
	// EventClientCreated is emitted whenever a renderer connection is made.
	EventClientCreated EventType = iota
	// EventRendererCrashed is emitted when the renderer exits unexpectedly.
	EventRendererCrashed
	// EventRecovered is emitted once a replacement renderer is connected.
	EventRecovered
	// EventThemeReloaded is emitted after the theme is pushed again.
	EventThemeReloaded
	// EventFatal is emitted when the bridge can no longer render.
	EventFatal
	// EventClosed is emitted by Close.
	EventClosed
)

// String returns a human-readable representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventClientCreated:
		return "client_created"
	case EventRendererCrashed:
		return "renderer_crashed"
	case EventRecovered:
		return "recovered"
	case EventThemeReloaded:
		return "theme_reloaded"
	case EventFatal:
		return "fatal"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}
