// Package ratelimit implements per-connection, per-category sliding-window
// action counters.
package ratelimit

import (
	"sync"
	"time"
)

// Category is the kind of action being limited.
type Category int

const (
	CategoryPlacement Category = iota
	CategoryShot
	CategoryOther
	numCategories
)

// Limit is the budget for one category.
type Limit struct {
	MaxCount int
	Window   time.Duration
}

type windowState struct {
	windowStart time.Time
	count       int
}

type key struct {
	identity string
	category Category
}

// Limiter counts actions per (connection identity, category) in fixed
// windows. A window resets once its duration has elapsed.
type Limiter struct {
	limits  [numCategories]Limit
	windows map[key]*windowState
	mutex   sync.Mutex
	now     func() time.Time
}

func NewLimiter(placement, shot, other Limit) *Limiter {
	l := &Limiter{
		windows: make(map[key]*windowState),
		now:     time.Now,
	}
	l.limits[CategoryPlacement] = placement
	l.limits[CategoryShot] = shot
	l.limits[CategoryOther] = other
	return l
}

// Allow records one action for identity in category and reports whether it is
// within budget. A rejected action does not advance the counter, so a burst
// inside one window yields exactly one increment to the limit and rejections
// after it.
func (l *Limiter) Allow(identity string, category Category) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	limit := l.limits[category]
	if limit.MaxCount <= 0 {
		return true
	}

	k := key{identity: identity, category: category}
	now := l.now()

	w, exists := l.windows[k]
	if !exists || now.Sub(w.windowStart) >= limit.Window {
		l.windows[k] = &windowState{windowStart: now, count: 1}
		return true
	}

	if w.count >= limit.MaxCount {
		return false
	}
	w.count++
	return true
}

// Forget discards all state for a connection identity. Called when the
// identity is permanently gone so long-running processes do not accumulate
// windows for dead connections.
func (l *Limiter) Forget(identity string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for c := Category(0); c < numCategories; c++ {
		delete(l.windows, key{identity: identity, category: c})
	}
}
