package auth

import (
	"sync"
	"time"

	"ruralsite/internal/config"
	"ruralsite/internal/models"
)

// Interaction events that count as activity. Anything else is ignored.
const (
	EventPointerDown = "pointerdown"
	EventKeyDown     = "keydown"
	EventScroll      = "scroll"
	EventTouchStart  = "touchstart"
	EventClick       = "click"
)

var qualifyingEvents = map[string]bool{
	EventPointerDown: true,
	EventKeyDown:     true,
	EventScroll:      true,
	EventTouchStart:  true,
	EventClick:       true,
}

// IsQualifyingEvent reports whether event resets the idle countdown.
func IsQualifyingEvent(event string) bool {
	return qualifyingEvents[event]
}

// Timer is the part of *time.Timer the monitor uses.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ActivityHooks are called from timer goroutines, never under the
// monitor's lock.
type ActivityHooks struct {
	// OnWarning gets the time left before logout.
	OnWarning func(remaining time.Duration)
	// OnLogout clears the local session, calls the logout endpoint and
	// navigates to the login view.
	OnLogout func()
}

// ActivityMonitor logs an admin out after a period without interaction.
// It sits on top of token expiry and does not revoke the token.
type ActivityMonitor struct {
	mu         sync.Mutex
	clock      Clock
	timeout    time.Duration
	warnBefore time.Duration
	hooks      ActivityHooks

	armed       bool
	generation  uint64
	warnTimer   Timer
	logoutTimer Timer
}

type MonitorOption func(*ActivityMonitor)

func WithClock(c Clock) MonitorOption {
	return func(m *ActivityMonitor) { m.clock = c }
}

func NewActivityMonitor(cfg config.ActivityConfig, hooks ActivityHooks, opts ...MonitorOption) *ActivityMonitor {
	timeout := cfg.IdleTimeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	m := &ActivityMonitor{
		clock:      realClock{},
		timeout:    timeout,
		warnBefore: cfg.WarnBefore,
		hooks:      hooks,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Arm starts the countdown for admins. Other roles leave the monitor idle.
func (m *ActivityMonitor) Arm(role models.Role) bool {
	if role != models.RoleAdmin {
		m.Stop()
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = true
	m.resetLocked()
	return true
}

// Touch records an interaction event and restarts the countdown when the
// event qualifies. It reports whether the countdown was restarted.
func (m *ActivityMonitor) Touch(event string) bool {
	if !IsQualifyingEvent(event) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.armed {
		return false
	}
	m.resetLocked()
	return true
}

// Stop clears every pending timer. Safe to call more than once.
func (m *ActivityMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = false
	m.stopTimersLocked()
}

func (m *ActivityMonitor) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

func (m *ActivityMonitor) resetLocked() {
	m.stopTimersLocked()
	m.generation++
	gen := m.generation

	if m.warnBefore > 0 && m.warnBefore < m.timeout {
		m.warnTimer = m.clock.AfterFunc(m.timeout-m.warnBefore, func() { m.fireWarning(gen) })
	}
	m.logoutTimer = m.clock.AfterFunc(m.timeout, func() { m.fireLogout(gen) })
}

func (m *ActivityMonitor) stopTimersLocked() {
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.logoutTimer != nil {
		m.logoutTimer.Stop()
		m.logoutTimer = nil
	}
	m.generation++
}

func (m *ActivityMonitor) fireWarning(gen uint64) {
	m.mu.Lock()
	if !m.armed || gen != m.generation || m.warnTimer == nil {
		m.mu.Unlock()
		return
	}
	m.warnTimer = nil
	remaining := m.warnBefore
	hook := m.hooks.OnWarning
	m.mu.Unlock()

	if hook != nil {
		hook(remaining)
	}
}

func (m *ActivityMonitor) fireLogout(gen uint64) {
	m.mu.Lock()
	if !m.armed || gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.armed = false
	m.stopTimersLocked()
	hook := m.hooks.OnLogout
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
}
