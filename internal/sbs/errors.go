package sbs

import "errors"

var (
	ErrEmpty            = errors.New("sbs: empty line")
	ErrTooLong          = errors.New("sbs: line too long")
	ErrNotPrintable     = errors.New("sbs: line is not printable ascii")
	ErrFieldCount       = errors.New("sbs: wrong field count")
	ErrTransmissionType = errors.New("sbs: bad transmission type")
	ErrTimestamp        = errors.New("sbs: bad date or time")
	ErrNoAddress        = errors.New("sbs: missing transponder address")
)

// Reason maps a Decode error to a short label suitable for metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmpty):
		return "empty"
	case errors.Is(err, ErrTooLong):
		return "too_long"
	case errors.Is(err, ErrNotPrintable):
		return "not_printable"
	case errors.Is(err, ErrFieldCount):
		return "field_count"
	case errors.Is(err, ErrTransmissionType):
		return "transmission_type"
	case errors.Is(err, ErrTimestamp):
		return "timestamp"
	case errors.Is(err, ErrNoAddress):
		return "no_address"
	default:
		return "other"
	}
}
