package bulk

import (
	"context"
	"sync/atomic"

	"github.com/noah-isme/enrollments-service/internal/models"
)

// Observer is notified around every single-row fetch.
type Observer interface {
	FetchStarted(row int)
	FetchFinished(row int, err error)
}

// Observe wraps fetch so every observer sees each call start and finish.
func Observe(fetch FetchFunc, observers ...Observer) FetchFunc {
	if len(observers) == 0 {
		return fetch
	}
	return func(ctx context.Context, row int) (models.StudentRecord, error) {
		for _, o := range observers {
			o.FetchStarted(row)
		}
		rec, err := fetch(ctx, row)
		for _, o := range observers {
			o.FetchFinished(row, err)
		}
		return rec, err
	}
}

// InFlightTracker counts concurrent fetches and keeps the high-water mark.
type InFlightTracker struct {
	current   atomic.Int64
	highWater atomic.Int64
	started   atomic.Int64
	failed    atomic.Int64
}

// FetchStarted implements Observer.
func (t *InFlightTracker) FetchStarted(int) {
	t.started.Add(1)
	n := t.current.Add(1)
	for {
		hw := t.highWater.Load()
		if n <= hw || t.highWater.CompareAndSwap(hw, n) {
			return
		}
	}
}

// FetchFinished implements Observer.
func (t *InFlightTracker) FetchFinished(_ int, err error) {
	if err != nil {
		t.failed.Add(1)
	}
	t.current.Add(-1)
}

// InFlight is the number of fetches currently running.
func (t *InFlightTracker) InFlight() int64 { return t.current.Load() }

// HighWaterMark is the largest InFlight value observed.
func (t *InFlightTracker) HighWaterMark() int64 { return t.highWater.Load() }

// Started is the number of fetches begun.
func (t *InFlightTracker) Started() int64 { return t.started.Load() }

// Failed is the number of fetches that returned an error.
func (t *InFlightTracker) Failed() int64 { return t.failed.Load() }
