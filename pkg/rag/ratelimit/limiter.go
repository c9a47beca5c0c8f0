package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// State is the admission outcome for a model call.
type State string

const (
	StateOK         State = "ok"
	StateDegraded   State = "degraded"
	StateCachedOnly State = "cached_only"
	StateBlocked    State = "blocked"
)

const (
	degradedPercent   = 80.0
	cachedOnlyPercent = 95.0
)

type Config struct {
	TPMLimit int
	RPDLimit int
	MinDelay time.Duration
	// CommunityURL is linked from the throttling messages when set.
	CommunityURL string
}

func DefaultConfig() Config {
	return Config{
		TPMLimit: 30000,
		RPDLimit: 1000,
		MinDelay: 100 * time.Millisecond,
	}
}

// Status is returned by Acquire.
type Status struct {
	Allowed bool
	State   State
	Message string
}

// Info is the snapshot served by the rate-status endpoint.
type Info struct {
	TokensThisMinute int     `json:"tokens_this_minute"`
	TPMLimit         int     `json:"tpm_limit"`
	RequestsToday    int     `json:"requests_today"`
	RPDLimit         int     `json:"rpd_limit"`
	TPMPercent       float64 `json:"tpm_percent"`
	RPDPercent       float64 `json:"rpd_percent"`
}

// Limiter tracks usage against a per-minute token budget and a per-day
// request budget. Counters are process-local and reset lazily.
type Limiter struct {
	mu  sync.Mutex
	cfg Config

	tokensThisMinute int
	minuteStart      time.Time
	requestsToday    int
	dayKey           string
	lastRequest      time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config) *Limiter {
	l := &Limiter{
		cfg:   cfg,
		now:   time.Now,
		sleep: sleepCtx,
	}
	now := l.now()
	l.minuteStart = now
	l.dayKey = utcDay(now)
	return l
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func utcDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// rollover must be called with mu held.
func (l *Limiter) rollover(now time.Time) {
	if now.Sub(l.minuteStart) >= time.Minute {
		l.tokensThisMinute = 0
		l.minuteStart = now
	}
	if day := utcDay(now); day != l.dayKey {
		l.requestsToday = 0
		l.dayKey = day
	}
}

func percent(used, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(used) / float64(limit) * 100
}

// Acquire decides whether a model call may proceed. The decision and the
// counter update happen atomically; concurrent callers are serialized.
// The error is non-nil only when ctx is cancelled while pacing.
func (l *Limiter) Acquire(ctx context.Context) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollover(now)

	if l.requestsToday >= l.cfg.RPDLimit {
		return Status{
			Allowed: false,
			State:   StateBlocked,
			Message: blockedMessage(now, l.cfg.CommunityURL),
		}, nil
	}

	dailyPct := percent(l.requestsToday, l.cfg.RPDLimit)
	if dailyPct >= cachedOnlyPercent {
		return Status{
			Allowed: false,
			State:   StateCachedOnly,
			Message: cachedOnlyMessage(l.cfg.CommunityURL),
		}, nil
	}

	if !l.lastRequest.IsZero() {
		if wait := l.cfg.MinDelay - now.Sub(l.lastRequest); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return Status{}, err
			}
		}
	}

	l.lastRequest = l.now()
	l.requestsToday++

	if dailyPct >= degradedPercent {
		return Status{Allowed: true, State: StateDegraded}, nil
	}
	return Status{Allowed: true, State: StateOK}, nil
}

// RecordUsage adds tokens consumed by a completed model call.
func (l *Limiter) RecordUsage(tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollover(l.now())
	l.tokensThisMinute += tokens
}

func (l *Limiter) Snapshot() Info {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollover(l.now())
	return Info{
		TokensThisMinute: l.tokensThisMinute,
		TPMLimit:         l.cfg.TPMLimit,
		RequestsToday:    l.requestsToday,
		RPDLimit:         l.cfg.RPDLimit,
		TPMPercent:       round1(percent(l.tokensThisMinute, l.cfg.TPMLimit)),
		RPDPercent:       round1(percent(l.requestsToday, l.cfg.RPDLimit)),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func blockedMessage(now time.Time, communityURL string) string {
	utc := now.UTC()
	midnight := time.Date(utc.Year(), utc.Month(), utc.Day()+1, 0, 0, 0, 0, time.UTC)
	hours := midnight.Sub(utc).Hours()

	when := "tomorrow"
	if hours > 1 {
		when = fmt.Sprintf("in about %d hours", int(hours))
	}

	msg := "Looks like we've used up all of today's questions. You've been learning hard!\n\n" +
		fmt.Sprintf("The limit resets every 24 hours at midnight UTC, so you'll be back **%s**.\n\n", when) +
		"Tip for next time: focused, lecture-specific questions get you the most out of each answer."
	return msg + communityLine(communityURL)
}

func cachedOnlyMessage(communityURL string) string {
	msg := "Heads up, we're almost out of capacity for today, so I can only serve answers I've already given.\n\n" +
		"Everything resets at **midnight UTC**."
	return msg + communityLine(communityURL)
}

func communityLine(url string) string {
	if url == "" {
		return ""
	}
	return fmt.Sprintf("\n\nIf you're stuck on something urgent, the [community](%s) is always active.", url)
}
