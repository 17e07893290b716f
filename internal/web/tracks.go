package web

import (
	"time"

	"luftraum/internal/sbs"
	"luftraum/internal/squawk"
	"luftraum/internal/track"
)

// TrackView is a track summary annotated with its squawk meaning.
type TrackView struct {
	track.Summary
	SquawkInfo *squawk.Info `json:"squawk_info,omitempty"`
}

func trackViews(sums []track.Summary) []TrackView {
	out := make([]TrackView, 0, len(sums))
	for _, s := range sums {
		v := TrackView{Summary: s}
		if info, ok := squawk.Lookup(s.Squawk); ok {
			v.SquawkInfo = &info
		}
		out = append(out, v)
	}
	return out
}

// TrackDetail is the full history of one track. Absent values are null.
type TrackDetail struct {
	ID          string  `json:"id"`
	CallSign    string  `json:"call_sign"`
	LastSeenSec float64 `json:"last_seen_sec"`
	SessionID   string  `json:"session_id,omitempty"`
	AircraftID  string  `json:"aircraft_id,omitempty"`
	FlightID    string  `json:"flight_id,omitempty"`

	Position   *track.Position `json:"position,omitempty"`
	SquawkInfo *squawk.Info    `json:"squawk_info,omitempty"`

	MessageType      []string   `json:"message_type"`
	TransmissionType []int      `json:"transmission_type"`
	GeneratedUTC     []string   `json:"generated_utc"`
	LoggedUTC        []string   `json:"logged_utc"`
	AltitudeFt       []*int     `json:"altitude_ft"`
	GroundSpeedKt    []*float64 `json:"ground_speed_kt"`
	TrackDeg         []*float64 `json:"track_deg"`
	LatDeg           []*float64 `json:"lat_deg"`
	LonDeg           []*float64 `json:"lon_deg"`
	VerticalRateFpm  []*int     `json:"vertical_rate_fpm"`
	Squawk           []*string  `json:"squawk"`
	Alert            []bool     `json:"alert"`
	Emergency        []bool     `json:"emergency"`
	SPI              []bool     `json:"spi"`
	OnGround         []bool     `json:"on_ground"`
}

func trackDetail(t track.Track) TrackDetail {
	d := TrackDetail{
		ID:               t.ID,
		CallSign:         t.CallSign,
		LastSeenSec:      t.LastSeen.Seconds(),
		SessionID:        t.SessionID,
		AircraftID:       t.AircraftID,
		FlightID:         t.FlightID,
		MessageType:      t.MessageType,
		TransmissionType: t.TransmissionType,
		GeneratedUTC:     timesUTC(t.Generated),
		LoggedUTC:        timesUTC(t.Logged),
		AltitudeFt:       optSlice(t.Altitude),
		GroundSpeedKt:    optSlice(t.GroundSpeed),
		TrackDeg:         optSlice(t.TrackAngle),
		LatDeg:           optSlice(t.Latitude),
		LonDeg:           optSlice(t.Longitude),
		VerticalRateFpm:  optSlice(t.VerticalRate),
		Squawk:           optSlice(t.Squawk),
		Alert:            t.Alert,
		Emergency:        t.Emergency,
		SPI:              t.SPI,
		OnGround:         t.OnGround,
	}
	if d.CallSign == "" {
		d.CallSign = track.UnknownCallSign
	}
	if p, ok := t.Position(); ok {
		d.Position = &p
	}
	if code, ok := track.Squawk.Latest(&t); ok {
		if info, ok := squawk.Lookup(code); ok {
			d.SquawkInfo = &info
		}
	}
	return d
}

func optSlice[T any](s []sbs.Opt[T]) []*T {
	out := make([]*T, len(s))
	for i, o := range s {
		if o.Valid {
			v := o.Value
			out[i] = &v
		}
	}
	return out
}

func timesUTC(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.UTC().Format(time.RFC3339Nano)
	}
	return out
}
