package track

import (
	"slices"
	"time"

	"luftraum/internal/sbs"
)

// UnknownCallSign is returned by Store.CallSign when no call sign is known.
const UnknownCallSign = "unknown"

// Track is the state kept for one transponder address.
//
// The variable attributes are append-only sequences. They grow only when an
// update carries information for that field's category, so sequences of one
// track may have different lengths. The latest value of a field is the tail
// of its own sequence.
type Track struct {
	ID string
	// LastSeen is the time accumulated by the evictor since the last update.
	LastSeen time.Duration

	SessionID  string
	AircraftID string
	FlightID   string
	// CallSign is empty until a non-empty value arrives.
	CallSign string

	MessageType      []string
	TransmissionType []int
	Generated        []time.Time
	Logged           []time.Time

	Altitude     []sbs.Opt[int]
	GroundSpeed  []sbs.Opt[float64]
	TrackAngle   []sbs.Opt[float64]
	Latitude     []sbs.Opt[float64]
	Longitude    []sbs.Opt[float64]
	VerticalRate []sbs.Opt[int]
	Squawk       []sbs.Opt[string]

	Alert     []bool
	Emergency []bool
	SPI       []bool
	OnGround  []bool
}

func newTrack(m sbs.Message) *Track {
	t := &Track{
		ID:         m.Address,
		SessionID:  m.SessionID,
		AircraftID: m.AircraftID,
		FlightID:   m.FlightID,
		CallSign:   m.CallSign,
	}
	t.appendCommon(m)
	t.appendPosition(m)
	t.appendVelocity(m)
	t.appendSurveillance(m)
	return t
}

// apply folds a later message into t according to its transmission type.
func (t *Track) apply(m sbs.Message) {
	t.LastSeen = 0
	if m.SessionID != "" {
		t.SessionID = m.SessionID
	}
	if m.AircraftID != "" {
		t.AircraftID = m.AircraftID
	}
	if m.FlightID != "" {
		t.FlightID = m.FlightID
	}
	t.appendCommon(m)

	switch m.TransmissionType {
	case sbs.TxAirbornePos:
		t.appendPosition(m)
	case sbs.TxAirborneVel:
		t.appendVelocity(m)
	case sbs.TxSurveillanceAlt:
		if m.CallSign != "" {
			t.CallSign = m.CallSign
		}
	case sbs.TxSurveillanceID:
		t.appendSurveillance(m)
	}
}

func (t *Track) appendCommon(m sbs.Message) {
	t.MessageType = append(t.MessageType, m.MessageType)
	t.TransmissionType = append(t.TransmissionType, m.TransmissionType)
	t.Generated = append(t.Generated, m.Generated)
	t.Logged = append(t.Logged, m.Logged)
}

func (t *Track) appendPosition(m sbs.Message) {
	t.Altitude = append(t.Altitude, m.AltitudeFt)
	t.Latitude = append(t.Latitude, m.LatDeg)
	t.Longitude = append(t.Longitude, m.LonDeg)
	t.OnGround = append(t.OnGround, m.OnGround)
}

func (t *Track) appendVelocity(m sbs.Message) {
	t.GroundSpeed = append(t.GroundSpeed, m.GroundSpeedKt)
	t.TrackAngle = append(t.TrackAngle, m.TrackDeg)
	t.VerticalRate = append(t.VerticalRate, m.VerticalRateFm)
}

// appendSurveillance seeds every surveillance field on creation; later type 6
// messages append a squawk only when one is present.
func (t *Track) appendSurveillance(m sbs.Message) {
	if m.Squawk.Valid || len(t.Squawk) == 0 {
		t.Squawk = append(t.Squawk, m.Squawk)
	}
	t.Alert = append(t.Alert, m.Alert)
	t.Emergency = append(t.Emergency, m.Emergency)
	t.SPI = append(t.SPI, m.SPI)
}

// Position returns the latest position when latitude, longitude and
// altitude are all present at the tails of their sequences.
func (t *Track) Position() (Position, bool) {
	lat, okLat := Latitude.Latest(t)
	lon, okLon := Longitude.Latest(t)
	alt, okAlt := Altitude.Latest(t)
	if !okLat || !okLon || !okAlt {
		return Position{}, false
	}
	return Position{LatDeg: lat, LonDeg: lon, AltFt: alt}, true
}

func (t *Track) clone() Track {
	out := *t
	out.MessageType = slices.Clone(t.MessageType)
	out.TransmissionType = slices.Clone(t.TransmissionType)
	out.Generated = slices.Clone(t.Generated)
	out.Logged = slices.Clone(t.Logged)
	out.Altitude = slices.Clone(t.Altitude)
	out.GroundSpeed = slices.Clone(t.GroundSpeed)
	out.TrackAngle = slices.Clone(t.TrackAngle)
	out.Latitude = slices.Clone(t.Latitude)
	out.Longitude = slices.Clone(t.Longitude)
	out.VerticalRate = slices.Clone(t.VerticalRate)
	out.Squawk = slices.Clone(t.Squawk)
	out.Alert = slices.Clone(t.Alert)
	out.Emergency = slices.Clone(t.Emergency)
	out.SPI = slices.Clone(t.SPI)
	out.OnGround = slices.Clone(t.OnGround)
	return out
}
