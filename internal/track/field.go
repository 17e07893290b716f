package track

import (
	"time"

	"luftraum/internal/sbs"
)

// Field selects one variable attribute sequence of a Track.
type Field[T any] struct {
	Name string
	tail func(*Track) (T, bool)
}

// Latest reads the tail of the sequence selected by f.
func (f Field[T]) Latest(t *Track) (T, bool) {
	if t == nil || f.tail == nil {
		var zero T
		return zero, false
	}
	return f.tail(t)
}

var (
	MessageType      = Field[string]{"message_type", func(t *Track) (string, bool) { return last(t.MessageType) }}
	TransmissionType = Field[int]{"transmission_type", func(t *Track) (int, bool) { return last(t.TransmissionType) }}
	Generated        = Field[time.Time]{"generated", func(t *Track) (time.Time, bool) { return last(t.Generated) }}
	Logged           = Field[time.Time]{"logged", func(t *Track) (time.Time, bool) { return last(t.Logged) }}

	Altitude     = Field[int]{"altitude", func(t *Track) (int, bool) { return lastOpt(t.Altitude) }}
	GroundSpeed  = Field[float64]{"ground_speed", func(t *Track) (float64, bool) { return lastOpt(t.GroundSpeed) }}
	TrackAngle   = Field[float64]{"track", func(t *Track) (float64, bool) { return lastOpt(t.TrackAngle) }}
	Latitude     = Field[float64]{"latitude", func(t *Track) (float64, bool) { return lastOpt(t.Latitude) }}
	Longitude    = Field[float64]{"longitude", func(t *Track) (float64, bool) { return lastOpt(t.Longitude) }}
	VerticalRate = Field[int]{"vertical_rate", func(t *Track) (int, bool) { return lastOpt(t.VerticalRate) }}
	Squawk       = Field[string]{"squawk", func(t *Track) (string, bool) { return lastOpt(t.Squawk) }}

	Alert     = Field[bool]{"alert", func(t *Track) (bool, bool) { return last(t.Alert) }}
	Emergency = Field[bool]{"emergency", func(t *Track) (bool, bool) { return last(t.Emergency) }}
	SPI       = Field[bool]{"spi", func(t *Track) (bool, bool) { return last(t.SPI) }}
	OnGround  = Field[bool]{"on_ground", func(t *Track) (bool, bool) { return last(t.OnGround) }}
)

func last[T any](s []T) (T, bool) {
	if len(s) == 0 {
		var zero T
		return zero, false
	}
	return s[len(s)-1], true
}

// lastOpt reports the tail only when it holds a value. An absent tail is not
// replaced by an older present value.
func lastOpt[T any](s []sbs.Opt[T]) (T, bool) {
	o, ok := last(s)
	if !ok {
		var zero T
		return zero, false
	}
	return o.Get()
}
