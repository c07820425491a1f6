// Package notify implements the debounced, threshold-gated,
// foreground-aware notification pipeline described in spec §4.9.
package notify

import (
	"sync"
	"time"
)

// Backend is the external delivery collaborator. Implementations must be
// best-effort, bounded-latency, and never panic.
type Backend interface {
	IsAvailable() bool
	Send(title, message, sound string) error
}

// Config is parsed from the [notifications] section of the configuration
// file.
type Config struct {
	Enabled          bool
	Sound            string
	ThresholdSeconds float64
	DebounceSeconds  float64
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{Enabled: false, Sound: "default", ThresholdSeconds: 60, DebounceSeconds: 5}
}

// Normalize clamps ThresholdSeconds to >= 60, per spec.
func (c Config) Normalize() Config {
	if c.ThresholdSeconds < 60 {
		c.ThresholdSeconds = 60
	}
	if c.DebounceSeconds <= 0 {
		c.DebounceSeconds = 5
	}
	return c
}

// ForegroundChecker reports whether the terminal application is currently
// the frontmost application.
type ForegroundChecker func() bool

// Notifier is the single-threaded cooperative state machine. All exported
// methods are intended to be called from the one cooperative task; the
// only concurrency is the worker goroutine used for delivery hand-off.
type Notifier struct {
	mu          sync.Mutex
	cfg         Config
	backend     Backend
	foreground  ForegroundChecker
	turnStart   time.Time
	pending     string
	hasPending  bool
	timer       *time.Timer
	appName     string
	now         func() time.Time
}

// New builds a Notifier. backend or foreground may be nil (treated as
// unavailable / always-background respectively).
func New(cfg Config, backend Backend, foreground ForegroundChecker, appName string) *Notifier {
	return &Notifier{
		cfg:        cfg.Normalize(),
		backend:    backend,
		foreground: foreground,
		appName:    appName,
		now:        time.Now,
	}
}

// SetEnabled toggles delivery at runtime without touching configuration
// storage.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cfg.Enabled = enabled
}

// Enabled reports the current runtime toggle state.
func (n *Notifier) Enabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cfg.Enabled
}

// MarkTurnStart records a monotonic timestamp used by the threshold gate.
func (n *Notifier) MarkTurnStart() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.turnStart = n.now()
}

// Queue considers message for delivery. It bails unless enabled, a backend
// is available, and the elapsed time since turn-start is >= the threshold.
// A subsequent Queue call within the debounce window replaces the pending
// snippet and restarts the timer (U19).
func (n *Notifier) Queue(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.cfg.Enabled || n.backend == nil || !n.backend.IsAvailable() {
		return
	}
	if n.now().Sub(n.turnStart).Seconds() < n.cfg.ThresholdSeconds {
		return
	}

	n.pending = truncateSnippet(message)
	n.hasPending = true

	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(time.Duration(n.cfg.DebounceSeconds*float64(time.Second)), func() {
		n.deliverIfPending()
	})
}

// Flush cancels the pending timer and attempts delivery immediately.
func (n *Notifier) Flush() {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.mu.Unlock()
	n.deliverIfPending()
}

func (n *Notifier) deliverIfPending() {
	n.mu.Lock()
	if !n.hasPending {
		n.mu.Unlock()
		return
	}
	message := n.pending
	n.hasPending = false
	backend := n.backend
	sound := n.cfg.Sound
	appName := n.appName
	isForeground := n.foreground != nil && n.foreground()
	n.mu.Unlock()

	if isForeground || backend == nil {
		return
	}
	// Dispatch on a worker so the cooperative loop is never blocked.
	go func() {
		_ = backend.Send(appName, message, sound)
	}()
}

func truncateSnippet(message string) string {
	if message == "" {
		return "Response complete"
	}
	if len(message) <= 80 {
		return message
	}
	return message[:80]
}
