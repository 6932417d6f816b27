package webview

import (
	"fmt"
	"time"
)

// HealthStatus grades the bridge or one of its parts.
type HealthStatus string

const (
	HealthOK        HealthStatus = "ok"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck is a snapshot taken by Bridge.Health. Components holds the
// "renderer" and "frames" entries.
type HealthCheck struct {
	Status     HealthStatus
	Timestamp  time.Time
	State      State
	Components map[string]ComponentHealth
	Message    string
}

// ComponentHealth grades one part of the bridge.
type ComponentHealth struct {
	Status      HealthStatus
	Message     string
	LastUpdated time.Time
}

func (h HealthCheck) IsHealthy() bool   { return h.Status == HealthOK }
func (h HealthCheck) IsDegraded() bool  { return h.Status == HealthDegraded }
func (h HealthCheck) IsUnhealthy() bool { return h.Status == HealthUnhealthy }

// Health grades the renderer connection and whether there is a frame to
// present. A crash being recovered from, or a view still waiting for its
// first paint, is degraded rather than unhealthy.
func (b *Bridge) Health() HealthCheck {
	now := time.Now()
	state := b.State()

	components := map[string]ComponentHealth{
		"renderer": b.rendererHealth(state, now),
		"frames":   b.frameHealth(now),
	}
	status := worst(components)
	return HealthCheck{
		Status:     status,
		Timestamp:  now,
		State:      state,
		Components: components,
		Message:    "bridge is " + string(status),
	}
}

func (b *Bridge) rendererHealth(state State, now time.Time) ComponentHealth {
	c := ComponentHealth{LastUpdated: now, Message: "renderer " + state.String()}
	switch state {
	case StateConnected:
		c.Status = HealthOK
	case StateCrashPending, StateRecreating:
		c.Status = HealthDegraded
	default:
		c.Status = HealthUnhealthy
		if err := b.Err(); err != nil {
			c.Message += ": " + err.Error()
		}
	}
	return c
}

func (b *Bridge) frameHealth(now time.Time) ComponentHealth {
	switch {
	case b.client.hasUsableBitmap:
		return ComponentHealth{
			Status:      HealthOK,
			Message:     fmt.Sprintf("last paint %s ago", now.Sub(b.lastPaint).Round(time.Millisecond)),
			LastUpdated: now,
		}
	case b.backup != nil:
		return ComponentHealth{Status: HealthDegraded, Message: "showing the previous renderer's last frame", LastUpdated: now}
	default:
		return ComponentHealth{Status: HealthDegraded, Message: "no frame painted yet", LastUpdated: now}
	}
}

// worst returns the lowest grade among components.
func worst(components map[string]ComponentHealth) HealthStatus {
	status := HealthOK
	for _, c := range components {
		switch c.Status {
		case HealthUnhealthy:
			return HealthUnhealthy
		case HealthDegraded:
			status = HealthDegraded
		}
	}
	return status
}
