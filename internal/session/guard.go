package session

import (
	"context"
	"time"
)

// DefaultPollInterval is how often the watcher re-checks validity.
const DefaultPollInterval = 30 * time.Second

// Guard checks session validity against a Storage. A session that fails
// the check is removed from storage, so the next check starts from a
// clean logged-out state.
type Guard struct {
	storage Storage
	now     func() time.Time
}

func NewGuard(storage Storage) *Guard {
	return &Guard{storage: storage, now: time.Now}
}

func NewGuardWithClock(storage Storage, now func() time.Time) *Guard {
	return &Guard{storage: storage, now: now}
}

// Check reports whether a valid session exists. An expired or
// malformed-free absent session yields false; an expired one is cleared.
func (g *Guard) Check() (bool, error) {
	s, ok, err := g.storage.Get()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if !s.Valid(g.now()) {
		if err := g.storage.Clear(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Watch polls validity every interval and calls onExpired exactly once
// the moment the session stops being valid, then returns. It also
// returns, without firing, when ctx is cancelled (the view-teardown
// path: nothing more elaborate than stopping the timer).
func (g *Guard) Watch(ctx context.Context, interval time.Duration, onExpired func()) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ok, err := g.Check()
			if err != nil {
				return err
			}
			if !ok {
				onExpired()
				return nil
			}
		}
	}
}
