package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ruralsite/internal/config"
	console "ruralsite/internal/utils/logger"
)

var log = console.New("LOGIN-GUARD")

const (
	maxLockout    = 24 * time.Hour
	maxIPLimiters = 10000
)

// LoginGuard combines per-address throttling with per-account lockout.
// Store failures fail open: a broken counter never blocks a correct password.
type LoginGuard struct {
	store       AttemptStore
	maxFailures int
	lockout     time.Duration
	window      time.Duration

	ipRate  rate.Limit
	ipBurst int
	ipMu    sync.Mutex
	ips     map[string]*rate.Limiter
}

func NewLoginGuard(cfg config.LoginConfig, store AttemptStore) *LoginGuard {
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = 15 * time.Minute
	}
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = 0.5
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = 5
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &LoginGuard{
		store:       store,
		maxFailures: cfg.MaxFailedAttempts,
		lockout:     min(cfg.LockoutDuration, maxLockout),
		window:      cfg.AttemptWindow,
		ipRate:      rate.Limit(cfg.IPRateLimit),
		ipBurst:     cfg.IPBurst,
		ips:         map[string]*rate.Limiter{},
	}
}

// AllowIP consumes one token from the address's bucket.
func (g *LoginGuard) AllowIP(ip string) bool {
	g.ipMu.Lock()
	limiter, ok := g.ips[ip]
	if !ok {
		if len(g.ips) >= maxIPLimiters {
			g.ips = map[string]*rate.Limiter{}
		}
		limiter = rate.NewLimiter(g.ipRate, g.ipBurst)
		g.ips[ip] = limiter
	}
	g.ipMu.Unlock()
	return limiter.Allow()
}

// Locked returns how long the account stays locked.
func (g *LoginGuard) Locked(ctx context.Context, email string) time.Duration {
	d, err := g.store.LockedFor(ctx, email)
	if err != nil {
		_ = log.Error("Failed to read lockout for %s", err, email)
		return 0
	}
	return d
}

// Failed records a wrong password. It returns the lockout applied, if any.
func (g *LoginGuard) Failed(ctx context.Context, email string) time.Duration {
	count, err := g.store.RecordFailure(ctx, email, g.window)
	if err != nil {
		_ = log.Error("Failed to record login failure for %s", err, email)
		return 0
	}
	if count < g.maxFailures {
		return 0
	}
	if err := g.store.Lock(ctx, email, g.lockout); err != nil {
		_ = log.Error("Failed to lock %s", err, email)
		return 0
	}
	log.Warn("Account %s locked for %s after %d failed sign-ins", email, g.lockout, count)
	return g.lockout
}

// Succeeded clears the account's failure history.
func (g *LoginGuard) Succeeded(ctx context.Context, email string) {
	if err := g.store.Reset(ctx, email); err != nil {
		_ = log.Error("Failed to reset login failures for %s", err, email)
	}
}
