package web

import (
	"sync/atomic"
	"time"

	"luftraum/internal/feed"
)

type Status struct {
	startUnixNano int64
	info          atomic.Value // map[string]any
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.info.Store(map[string]any{})
	return s
}

// SetStatic records configuration details shown by /api/status.
func (s *Status) SetStatic(info map[string]any) {
	if info != nil {
		s.info.Store(info)
	}
}

type StatusSnapshot struct {
	Service   string          `json:"service"`
	NowUTC    string          `json:"now_utc"`
	UptimeSec int64           `json:"uptime_sec"`
	Tracks    int             `json:"tracks"`
	Feeds     []feed.Snapshot `json:"feeds"`
	Info      map[string]any  `json:"info"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	return StatusSnapshot{
		Service:   serviceName,
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		Info:      s.info.Load().(map[string]any),
	}
}
