package feed

import (
	"sync"
	"time"
)

// Connector states.
const (
	StateStopped      = "stopped"
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateStreaming    = "streaming"
)

// Snapshot is a point-in-time view of one connector.
type Snapshot struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Addr        string `json:"addr"`
	Topic       string `json:"topic,omitempty"`
	State       string `json:"state"`
	LastError   string `json:"last_error,omitempty"`
	LastSeenUTC string `json:"last_seen_utc,omitempty"`
	Lines       uint64 `json:"lines"`
	Rejected    uint64 `json:"rejected"`
	Dropped     uint64 `json:"dropped,omitempty"`
	Connects    uint64 `json:"connects"`
}

type status struct {
	mu       sync.RWMutex
	state    string
	lastErr  string
	lastSeen time.Time
	lines    uint64
	rejected uint64
	dropped  uint64
	connects uint64
}

func (s *status) setState(state string, lastErr string) {
	s.mu.Lock()
	s.state = state
	if lastErr != "" {
		s.lastErr = lastErr
	} else if state == StateStreaming || state == StateStopped {
		s.lastErr = ""
	}
	if state == StateStreaming {
		s.connects++
	}
	s.mu.Unlock()
}

func (s *status) seen(now time.Time, rejected bool) {
	s.mu.Lock()
	s.lastSeen = now
	s.lines++
	if rejected {
		s.rejected++
	}
	s.mu.Unlock()
}

// drop counts one discarded input and returns the running total.
func (s *status) drop() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped++
	return s.dropped
}

func (s *status) fill(out *Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out.State = s.state
	out.LastError = s.lastErr
	out.Lines = s.lines
	out.Rejected = s.rejected
	out.Dropped = s.dropped
	out.Connects = s.connects
	if !s.lastSeen.IsZero() {
		out.LastSeenUTC = s.lastSeen.UTC().Format(time.RFC3339Nano)
	}
}
