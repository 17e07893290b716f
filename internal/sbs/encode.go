package sbs

import (
	"strconv"
	"strings"
)

// Encode renders m as an SBS-1 line without a trailing newline.
// Absent values become empty fields.
func Encode(m Message) string {
	f := make([]string, FieldCount)
	f[0] = m.MessageType
	if f[0] == "" {
		f[0] = "MSG"
	}
	f[1] = strconv.Itoa(m.TransmissionType)
	f[2] = m.SessionID
	f[3] = m.AircraftID
	f[4] = m.Address
	f[5] = m.FlightID
	f[6] = m.Generated.UTC().Format(dateLayout)
	f[7] = m.Generated.UTC().Format("15:04:05.000")
	f[8] = m.Logged.UTC().Format(dateLayout)
	f[9] = m.Logged.UTC().Format("15:04:05.000")
	f[10] = m.CallSign
	if v, ok := m.AltitudeFt.Get(); ok {
		f[11] = strconv.Itoa(v)
	}
	if v, ok := m.GroundSpeedKt.Get(); ok {
		f[12] = strconv.FormatFloat(v, 'f', 1, 64)
	}
	if v, ok := m.TrackDeg.Get(); ok {
		f[13] = strconv.FormatFloat(v, 'f', 1, 64)
	}
	if v, ok := m.LatDeg.Get(); ok {
		f[14] = strconv.FormatFloat(v, 'f', 5, 64)
	}
	if v, ok := m.LonDeg.Get(); ok {
		f[15] = strconv.FormatFloat(v, 'f', 5, 64)
	}
	if v, ok := m.VerticalRateFm.Get(); ok {
		f[16] = strconv.Itoa(v)
	}
	if v, ok := m.Squawk.Get(); ok {
		f[17] = v
	}
	f[18] = flag(m.Alert)
	f[19] = flag(m.Emergency)
	f[20] = flag(m.SPI)
	f[21] = flag(m.OnGround)
	return strings.Join(f, ",")
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
