// Package clock declares the frame-clock source capability the
// Inertia Engine drives its decay loop from (spec.md §1, "frame-clock
// source"; §5, "frame-clock callback ... invoked on a media thread").
package clock

import "time"

// Tick carries the elapsed time since the previous tick, in
// milliseconds, matching the unit Coaster.Tick expects (spec.md §4.6).
type Tick func(frameIntervalMs float64)

// Source is a display-refresh-driven clock. It is owned exclusively by
// the Inertia Engine: created lazily on the first coast, destroyed on
// stop (spec.md §5).
type Source interface {
	Start(tick Tick)
	Stop()
}

// Ticker is a Source backed by a plain time.Ticker, standing in for
// the display-refresh callback the real host surface would provide
// (grounded in internal/desktop/manager.go's time.NewTicker loop
// selecting on a shutdown channel).
type Ticker struct {
	interval time.Duration
	stop     chan struct{}
}

// NewTicker returns a Ticker firing every interval (e.g. 16.67ms for a
// 60Hz display).
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

// Start begins firing tick once per interval until Stop is called.
// Calling Start while already running is a no-op.
func (t *Ticker) Start(tick Tick) {
	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})
	stop := t.stop

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		intervalMs := float64(t.interval) / float64(time.Millisecond)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				tick(intervalMs)
			}
		}
	}()
}

// Stop halts the ticker goroutine. Idempotent.
func (t *Ticker) Stop() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}
