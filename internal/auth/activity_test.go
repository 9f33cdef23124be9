package auth

import (
	"sort"
	"sync"
	"testing"
	"time"

	"ruralsite/internal/config"
	"ruralsite/internal/models"

	"github.com/stretchr/testify/assert"
)

// manualClock fires timers only when Advance moves past their deadline.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*manualTimer
		for _, t := range c.timers {
			if !t.stopped && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
		next := due[0]
		next.stopped = true
		c.now = next.at
		c.mu.Unlock()

		next.fn()
	}
}

func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type monitorCalls struct {
	mu       sync.Mutex
	warnings []time.Duration
	logouts  int
}

func (m *monitorCalls) hooks() ActivityHooks {
	return ActivityHooks{
		OnWarning: func(remaining time.Duration) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.warnings = append(m.warnings, remaining)
		},
		OnLogout: func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.logouts++
		},
	}
}

func (m *monitorCalls) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.warnings), m.logouts
}

func newMonitor() (*ActivityMonitor, *manualClock, *monitorCalls) {
	clock := &manualClock{}
	calls := &monitorCalls{}
	cfg := config.ActivityConfig{IdleTimeout: 15 * time.Minute, WarnBefore: 2 * time.Minute}
	return NewActivityMonitor(cfg, calls.hooks(), WithClock(clock)), clock, calls
}

func TestWarningThenSingleLogout(t *testing.T) {
	m, clock, calls := newMonitor()
	assert.True(t, m.Arm(models.RoleAdmin))

	clock.Advance(12*time.Minute + 59*time.Second)
	warnings, logouts := calls.counts()
	assert.Zero(t, warnings)
	assert.Zero(t, logouts)

	clock.Advance(2 * time.Second)
	warnings, logouts = calls.counts()
	assert.Equal(t, 1, warnings)
	assert.Zero(t, logouts)
	assert.Equal(t, 2*time.Minute, calls.warnings[0])

	clock.Advance(2 * time.Minute)
	warnings, logouts = calls.counts()
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1, logouts)
	assert.False(t, m.Armed())
	assert.Zero(t, clock.pending())

	clock.Advance(time.Hour)
	warnings, logouts = calls.counts()
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1, logouts)
}

func TestQualifyingEventResetsCountdown(t *testing.T) {
	m, clock, calls := newMonitor()
	m.Arm(models.RoleAdmin)

	clock.Advance(14 * time.Minute)
	assert.True(t, m.Touch(EventKeyDown))

	clock.Advance(10 * time.Minute)
	warnings, logouts := calls.counts()
	assert.Equal(t, 1, warnings)
	assert.Zero(t, logouts)

	assert.True(t, m.Touch(EventScroll))
	clock.Advance(13 * time.Minute)
	warnings, logouts = calls.counts()
	assert.Equal(t, 2, warnings)
	assert.Zero(t, logouts)
}

func TestNonQualifyingEventIsIgnored(t *testing.T) {
	m, clock, calls := newMonitor()
	m.Arm(models.RoleAdmin)

	clock.Advance(14 * time.Minute)
	assert.False(t, m.Touch("mousemove"))
	clock.Advance(time.Minute)

	_, logouts := calls.counts()
	assert.Equal(t, 1, logouts)
}

func TestOnlyAdminsAreMonitored(t *testing.T) {
	m, clock, calls := newMonitor()

	assert.False(t, m.Arm(models.RoleEditor))
	assert.False(t, m.Touch(EventClick))
	clock.Advance(time.Hour)

	warnings, logouts := calls.counts()
	assert.Zero(t, warnings)
	assert.Zero(t, logouts)
	assert.Zero(t, clock.pending())
}

func TestStopClearsTimers(t *testing.T) {
	m, clock, calls := newMonitor()
	m.Arm(models.RoleAdmin)
	assert.Equal(t, 2, clock.pending())

	m.Stop()
	m.Stop()
	assert.Zero(t, clock.pending())

	clock.Advance(time.Hour)
	warnings, logouts := calls.counts()
	assert.Zero(t, warnings)
	assert.Zero(t, logouts)
}

func TestNoWarningWhenTimeoutIsShort(t *testing.T) {
	clock := &manualClock{}
	calls := &monitorCalls{}
	cfg := config.ActivityConfig{IdleTimeout: time.Minute, WarnBefore: 2 * time.Minute}
	m := NewActivityMonitor(cfg, calls.hooks(), WithClock(clock))

	m.Arm(models.RoleAdmin)
	clock.Advance(time.Minute)

	warnings, logouts := calls.counts()
	assert.Zero(t, warnings)
	assert.Equal(t, 1, logouts)
}

func TestRealClockLogsOut(t *testing.T) {
	done := make(chan struct{})
	cfg := config.ActivityConfig{IdleTimeout: 20 * time.Millisecond}
	m := NewActivityMonitor(cfg, ActivityHooks{OnLogout: func() { close(done) }})
	m.Arm(models.RoleAdmin)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("logout hook did not run")
	}
}
