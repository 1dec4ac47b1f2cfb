package service

import (
	"context"
	"time"

	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/logging"
)

// CachePurger drops cached payloads older than a cutoff.
type CachePurger interface {
	DeleteCachedBefore(cutoff time.Time) (int64, error)
}

// SweepIdle discards sessions untouched for longer than idle. Sessions busy
// playing a round are skipped until the next sweep.
func (s *BattleService) SweepIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.battles {
		if !entry.mu.TryLock() {
			continue
		}
		if entry.lastTouched.Before(cutoff) {
			delete(s.battles, id)
			removed++
		}
		entry.mu.Unlock()
	}
	return removed
}

// StartSweeper periodically expires idle sessions and, when cache is set,
// stale cache rows. It stops when ctx is done.
func (s *BattleService) StartSweeper(ctx context.Context, interval, idle time.Duration, cache CachePurger, cacheTTL time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if n := s.SweepIdle(idle); n > 0 {
				logging.Info("idle battles discarded", logging.Fields{constants.LogFieldCount: n})
			}
			if cache == nil || cacheTTL <= 0 {
				continue
			}
			n, err := cache.DeleteCachedBefore(s.now().Add(-cacheTTL))
			if err != nil {
				logging.Error("cache purge failed", err, nil)
				continue
			}
			if n > 0 {
				logging.Info("stale cache rows purged", logging.Fields{constants.LogFieldCount: n})
			}
		}
	}()
}
