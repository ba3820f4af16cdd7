package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"partyroom/internal/model"
)

// Reaper periodically deletes sessions that ended long ago or sat idle
type Reaper struct {
	registry *Registry
	interval time.Duration
	endedTTL time.Duration
	idleTTL  time.Duration
	log      *slog.Logger
}

// NewReaper creates a reaper. A zero TTL disables that kind of cleanup.
func NewReaper(registry *Registry, interval, endedTTL, idleTTL time.Duration, log *slog.Logger) *Reaper {
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{
		registry: registry,
		interval: interval,
		endedTTL: endedTTL,
		idleTTL:  idleTTL,
		log:      log,
	}
}

// Run sweeps on every tick until ctx is cancelled
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.log.Info("session reaper disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.log.Info("session reaper started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("session reaper stopped")
			return
		case <-ticker.C:
			n, err := r.Sweep(ctx)
			if err != nil {
				r.log.Error("session sweep failed", "error", err)
			}
			if n > 0 {
				r.log.Info("reaped sessions", "count", n)
			}
		}
	}
}

// Sweep deletes every expired session once and reports how many went
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	sessions, err := r.registry.List(ctx)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, s := range sessions {
		if !r.expired(s) {
			continue
		}
		var removed bool
		// Re-check under the lock; the session may have moved since List.
		err := r.registry.transact(ctx, s.Code, func(cur *model.Session) (change, error) {
			if !r.expired(cur) {
				return change{}, nil
			}
			removed = true
			ch := change{remove: true}
			if cur.Status != model.SessionEnded {
				ch.events = sessionEnded(cur, model.EndReasonIdle)
			}
			return ch, nil
		})
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return reaped, err
		}
		if removed {
			r.log.Debug("session reaped", "code", s.Code, "status", s.Status)
			reaped++
		}
	}
	return reaped, nil
}

func (r *Reaper) expired(s *model.Session) bool {
	age := r.registry.now().Sub(s.UpdatedAt)
	if s.Status == model.SessionEnded {
		return r.endedTTL > 0 && age > r.endedTTL
	}
	return r.idleTTL > 0 && age > r.idleTTL
}
