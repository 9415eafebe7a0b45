package db

import (
	"context"
	"time"

	"github.com/banshee-data/mmwave/internal/monitoring"
	"github.com/banshee-data/mmwave/internal/radar"
	"github.com/banshee-data/mmwave/internal/timeutil"
)

// Recorder stores snapshots for one session. It writes a reading whenever
// the occupancy state changes and otherwise at most once per interval.
type Recorder struct {
	db        *DB
	sessionID string
	interval  time.Duration
	clock     timeutil.Clock

	started bool
	last    radar.Snapshot
	lastAt  time.Time
	written int
}

// NewRecorder returns a Recorder writing to db under sessionID.
func NewRecorder(db *DB, sessionID string, interval time.Duration, clock timeutil.Clock) *Recorder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Recorder{db: db, sessionID: sessionID, interval: interval, clock: clock}
}

func changed(a, b radar.Snapshot) bool {
	return a.Presence != b.Presence ||
		a.Motion != b.Motion ||
		a.Direction != b.Direction ||
		a.Mode != b.Mode
}

// Offer records s if it is due and reports whether it did.
func (r *Recorder) Offer(ctx context.Context, s radar.Snapshot) (bool, error) {
	now := r.clock.Now()
	due := !r.started || changed(r.last, s) || now.Sub(r.lastAt) >= r.interval
	if !due {
		return false, nil
	}
	if err := r.db.RecordSnapshot(ctx, r.sessionID, s, now); err != nil {
		return false, err
	}
	r.started = true
	r.last = s
	r.lastAt = now
	r.written++
	return true, nil
}

// Written returns how many readings have been stored.
func (r *Recorder) Written() int { return r.written }

// Run offers every snapshot from ch until ch closes or ctx is done.
func (r *Recorder) Run(ctx context.Context, ch <-chan radar.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-ch:
			if !ok {
				return nil
			}
			if _, err := r.Offer(ctx, s); err != nil {
				monitoring.Logf("db: %v", err)
			}
		}
	}
}
