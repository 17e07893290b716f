package sbs

import "time"

// FieldCount is the number of comma separated fields in an SBS-1 line.
const FieldCount = 22

// MaxLineLen is the exclusive upper bound on accepted line length.
const MaxLineLen = 255

// Transmission types used by BaseStation MSG records.
const (
	TxIDAndCategory   = 1
	TxSurfacePosition = 2
	TxAirbornePos     = 3
	TxAirborneVel     = 4
	TxSurveillanceAlt = 5
	TxSurveillanceID  = 6
	TxAirToAir        = 7
	TxAllCallReply    = 8
)

// Opt is a value that may be absent.
type Opt[T any] struct {
	Value T
	Valid bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] { return Opt[T]{Value: v, Valid: true} }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.Value, o.Valid }

// Message is one decoded SBS-1 record.
type Message struct {
	MessageType      string
	TransmissionType int

	SessionID  string
	AircraftID string
	// Address is the transponder address, trimmed and upper-cased.
	Address  string
	FlightID string

	Generated time.Time
	Logged    time.Time

	CallSign string

	AltitudeFt     Opt[int]
	GroundSpeedKt  Opt[float64]
	TrackDeg       Opt[float64]
	LatDeg         Opt[float64]
	LonDeg         Opt[float64]
	VerticalRateFm Opt[int]
	// Squawk keeps the four digit text so leading zeros survive.
	Squawk Opt[string]

	Alert     bool
	Emergency bool
	SPI       bool
	OnGround  bool
}
