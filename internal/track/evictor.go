package track

import (
	"context"
	"log"
	"time"
)

// Evictor periodically ages every track and drops silent ones.
type Evictor struct {
	Store     *Store
	Interval  time.Duration
	Threshold time.Duration

	// OnEvict, if set, is called after each tick with the evicted ids.
	OnEvict func(ids []string)
	// Quiet suppresses the per-tick log line.
	Quiet bool
}

// Run ticks until ctx is done.
func (e *Evictor) Run(ctx context.Context) error {
	if e == nil || e.Store == nil {
		return nil
	}
	interval := e.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			e.Tick()
		}
	}
}

// Tick ages every track by Interval and evicts those at or past Threshold.
func (e *Evictor) Tick() []string {
	interval := e.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	threshold := e.Threshold
	if threshold <= 0 {
		threshold = 6 * interval
	}
	evicted := e.Store.AgeAndEvict(interval, threshold)
	if !e.Quiet {
		log.Printf("tracks=%d evicted=%d", e.Store.Len(), len(evicted))
	}
	if e.OnEvict != nil {
		e.OnEvict(evicted)
	}
	return evicted
}
