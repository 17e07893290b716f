package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"luftraum/internal/audit"
	"luftraum/internal/feed"
	"luftraum/internal/track"
)

type replayOptions struct {
	Speed         float64
	EvictInterval time.Duration
	EvictAfter    time.Duration
	Sleeper       audit.Sleeper
}

type replayResult struct {
	Records  int
	Rejected int
	Evicted  int
}

// replayAudit feeds records through a fresh pipeline. Eviction ticks run on
// the recorded clock so the resulting store matches what the live service
// held at the end of the capture.
func replayAudit(ctx context.Context, records []audit.Record, opts replayOptions) (*track.Store, replayResult, error) {
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = 10 * time.Second
	}
	if opts.EvictAfter == 0 {
		opts.EvictAfter = 6 * opts.EvictInterval
	}
	if opts.EvictAfter < opts.EvictInterval {
		return nil, replayResult{}, fmt.Errorf("evict-after must be >= evict-interval")
	}

	store := track.NewStore()
	p := feed.NewPipeline(store, nil, nil)

	var res replayResult
	var nextTick time.Time
	err := audit.Play(ctx, records, opts.Speed, opts.Sleeper, func(r audit.Record) error {
		if nextTick.IsZero() {
			nextTick = r.At.Add(opts.EvictInterval)
		}
		for !r.At.Before(nextTick) {
			res.Evicted += len(store.AgeAndEvict(opts.EvictInterval, opts.EvictAfter))
			nextTick = nextTick.Add(opts.EvictInterval)
		}

		res.Records++
		if err := p.Ingest(r.Source, r.Source, r.Raw); err != nil {
			res.Rejected++
		}
		return nil
	})
	if err != nil {
		return nil, res, err
	}
	return store, res, nil
}

func printReplay(ctx context.Context, w io.Writer, path string, opts replayOptions) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := audit.NewReader(f).ReadAll()
	if err != nil {
		return err
	}

	store, res, err := replayAudit(ctx, recs, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "records: %d rejected: %d evicted: %d tracks: %d\n", res.Records, res.Rejected, res.Evicted, store.Len())
	for _, s := range store.Snapshot() {
		pos := "-"
		if s.Position != nil {
			pos = fmt.Sprintf("%.5f,%.5f", s.Position.LatDeg, s.Position.LonDeg)
		}
		alt := "-"
		if s.AltitudeFt != nil {
			alt = fmt.Sprintf("%d", *s.AltitudeFt)
		}
		fmt.Fprintf(w, "%s %-8s msgs=%d pos=%s alt=%s last_seen=%.0fs\n", s.ID, s.CallSign, s.Messages, pos, alt, s.LastSeenSec)
	}
	return nil
}
