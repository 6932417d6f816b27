package webview

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RecoveryPolicy bounds automatic recovery from renderer crashes.
type RecoveryPolicy struct {
	// MaxConsecutiveCrashes is how many crashes are recovered without a
	// successful paint in between. Zero means 3.
	MaxConsecutiveCrashes int

	// InitialDelay is the wait before the second consecutive recovery; the
	// first one runs on the next Pump. Zero means 250ms.
	InitialDelay time.Duration

	// MaxDelay caps the exponential wait between recoveries. Zero means 5s.
	MaxDelay time.Duration

	// ShowCrashPage loads a notice page after recovery instead of reloading
	// the last URL.
	ShowCrashPage bool

	// Disabled makes the first crash fatal.
	Disabled bool
}

// DefaultRecoveryPolicy returns the policy used when none is configured.
func DefaultRecoveryPolicy() RecoveryPolicy {
	return RecoveryPolicy{
		MaxConsecutiveCrashes: 3,
		InitialDelay:          250 * time.Millisecond,
		MaxDelay:              5 * time.Second,
	}
}

func (p RecoveryPolicy) withDefaults() RecoveryPolicy {
	def := DefaultRecoveryPolicy()
	if p.MaxConsecutiveCrashes <= 0 {
		p.MaxConsecutiveCrashes = def.MaxConsecutiveCrashes
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	return p
}

// recoveryTracker counts consecutive crashes and spaces out recoveries.
type recoveryTracker struct {
	policy      RecoveryPolicy
	consecutive int
	backoff     *backoff.ExponentialBackOff
}

func newRecoveryTracker(p RecoveryPolicy) *recoveryTracker {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return &recoveryTracker{policy: p, backoff: b}
}

// crashed records a crash and returns how long to wait before recovering.
// ok is false once the policy is exhausted.
func (t *recoveryTracker) crashed() (delay time.Duration, ok bool) {
	if t.policy.Disabled {
		return 0, false
	}
	t.consecutive++
	if t.consecutive > t.policy.MaxConsecutiveCrashes {
		return 0, false
	}
	if t.consecutive == 1 {
		return 0, true
	}
	d := t.backoff.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	return d, true
}

// succeeded clears the crash streak after a renderer proved healthy.
func (t *recoveryTracker) succeeded() {
	if t.consecutive == 0 {
		return
	}
	t.consecutive = 0
	t.backoff.Reset()
}
