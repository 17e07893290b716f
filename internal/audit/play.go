package audit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) bool
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Play feeds records to cb, waiting between records for the recorded gap
// divided by speed. A speed of 0 replays without waiting.
func Play(ctx context.Context, records []Record, speed float64, sleeper Sleeper, cb func(Record) error) error {
	if speed < 0 {
		return fmt.Errorf("speed must be >= 0")
	}
	if cb == nil {
		return errors.New("callback is nil")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}

	var prev time.Time
	for i, r := range records {
		if i > 0 && speed > 0 {
			if wait := time.Duration(float64(r.At.Sub(prev)) / speed); wait > 0 {
				if !sleeper.Sleep(ctx, wait) {
					return ctx.Err()
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cb(r); err != nil {
			return err
		}
		prev = r.At
	}
	return nil
}
