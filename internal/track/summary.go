package track

import (
	"sort"
)

// Summary is the latest known state of one track.
type Summary struct {
	ID          string    `json:"id"`
	CallSign    string    `json:"call_sign"`
	LastSeenSec float64   `json:"last_seen_sec"`
	Messages    int       `json:"messages"`
	Position    *Position `json:"position,omitempty"`

	AltitudeFt      *int     `json:"altitude_ft,omitempty"`
	GroundSpeedKt   *float64 `json:"ground_speed_kt,omitempty"`
	TrackDeg        *float64 `json:"track_deg,omitempty"`
	VerticalRateFpm *int     `json:"vertical_rate_fpm,omitempty"`
	Squawk          string   `json:"squawk,omitempty"`

	Emergency bool `json:"emergency"`
	OnGround  bool `json:"on_ground"`
}

// Snapshot summarizes every track, sorted by id.
func (s *Store) Snapshot() []Summary {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	out := make([]Summary, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, summarize(t))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func summarize(t *Track) Summary {
	sum := Summary{
		ID:          t.ID,
		CallSign:    t.CallSign,
		LastSeenSec: t.LastSeen.Seconds(),
		Messages:    len(t.MessageType),
	}
	if sum.CallSign == "" {
		sum.CallSign = UnknownCallSign
	}
	if p, ok := latestPosition(t); ok {
		sum.Position = &p
	}
	if v, ok := Altitude.Latest(t); ok {
		sum.AltitudeFt = &v
	}
	if v, ok := GroundSpeed.Latest(t); ok {
		sum.GroundSpeedKt = &v
	}
	if v, ok := TrackAngle.Latest(t); ok {
		sum.TrackDeg = &v
	}
	if v, ok := VerticalRate.Latest(t); ok {
		sum.VerticalRateFpm = &v
	}
	sum.Squawk, _ = Squawk.Latest(t)
	sum.Emergency, _ = Emergency.Latest(t)
	sum.OnGround, _ = OnGround.Latest(t)
	return sum
}
