package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"sigmine/internal/apperr"
	"sigmine/internal/keylock"
	"sigmine/internal/models"
	"sigmine/internal/repository"
)

const (
	ActionSignal = "signal"
	ActionClaim  = "claim"
	ActionTask   = "task"
)

// RateLimiter enforces fixed (non-sliding) windows per agent and action.
// The counter increments on every allowed call, so a denied request does
// not consume budget but the call that triggered the denial check already
// did when it was admitted earlier in the window.
type RateLimiter struct {
	Repo   repository.Repository
	Locks  *keylock.KeyLock
	Window time.Duration
	Now    func() time.Time
}

type RateStatus struct {
	Current int
	Limit   int
	ResetIn int
}

func (l *RateLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now().UTC()
}

func (l *RateLimiter) window() time.Duration {
	if l.Window > 0 {
		return l.Window
	}
	return time.Hour
}

// Allow admits or rejects one action. Rejections carry the window reset
// metadata for the 429 payload.
func (l *RateLimiter) Allow(ctx context.Context, agentID, action string, limit int) (RateStatus, error) {
	key := agentID + ":" + action
	unlock := l.Locks.Lock("rate:" + key)
	defer unlock()

	now := l.now()
	win, err := l.Repo.GetRateWindow(ctx, key)
	if err != nil {
		return RateStatus{}, err
	}
	if win == nil || now.Sub(win.WindowStart) > l.window() {
		win = &models.RateWindow{Key: key, Count: 0, WindowStart: now}
	}

	if win.Count >= limit {
		resetIn := int(math.Ceil(win.WindowStart.Add(l.window()).Sub(now).Seconds()))
		if resetIn < 0 {
			resetIn = 0
		}
		return RateStatus{Current: win.Count, Limit: limit, ResetIn: resetIn},
			apperr.RateLimit("rate limit exceeded").WithMeta(map[string]any{
				"message":          fmt.Sprintf("Max %d %ss per window", limit, action),
				"reset_in_seconds": resetIn,
				"current":          win.Count,
				"limit":            limit,
			})
	}

	win.Count++
	win.UpdatedAt = now
	if err := l.Repo.SaveRateWindow(ctx, win); err != nil {
		return RateStatus{}, err
	}
	return RateStatus{Current: win.Count, Limit: limit}, nil
}

// GC drops windows that ended before the cutoff.
func (l *RateLimiter) GC(ctx context.Context) (int64, error) {
	return l.Repo.DeleteExpiredRateWindows(ctx, l.now().Add(-l.window()))
}
