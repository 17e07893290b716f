package sbs

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout     = "2006/01/02"
	dateTimeLayout = "2006/01/02 15:04:05"
)

// Decode parses one SBS-1 line.
//
// Framing problems, a bad transmission type, an unparsable date/time or a
// missing address reject the whole line. Other numeric fields that fail to
// parse are left absent and flag fields default to false.
func Decode(line string) (Message, error) {
	if err := checkFraming(line); err != nil {
		return Message{}, err
	}

	f := strings.Split(line, ",")
	if len(f) != FieldCount {
		return Message{}, fmt.Errorf("%w: got %d", ErrFieldCount, len(f))
	}

	tx, err := strconv.Atoi(strings.TrimSpace(f[1]))
	if err != nil || tx < 0 {
		return Message{}, fmt.Errorf("%w: %q", ErrTransmissionType, f[1])
	}
	gen, err := parseDateTime(f[6], f[7])
	if err != nil {
		return Message{}, fmt.Errorf("%w: generated: %v", ErrTimestamp, err)
	}
	logged, err := parseDateTime(f[8], f[9])
	if err != nil {
		return Message{}, fmt.Errorf("%w: logged: %v", ErrTimestamp, err)
	}
	addr := strings.ToUpper(strings.TrimSpace(f[4]))
	if addr == "" {
		return Message{}, ErrNoAddress
	}

	m := Message{
		MessageType:      strings.TrimSpace(f[0]),
		TransmissionType: tx,
		SessionID:        strings.TrimSpace(f[2]),
		AircraftID:       strings.TrimSpace(f[3]),
		Address:          addr,
		FlightID:         strings.TrimSpace(f[5]),
		Generated:        gen,
		Logged:           logged,
		CallSign:         strings.TrimSpace(f[10]),
		AltitudeFt:       parseInt(f[11]),
		GroundSpeedKt:    parseFloat(f[12]),
		TrackDeg:         parseFloat(f[13]),
		LatDeg:           parseFloat(f[14]),
		LonDeg:           parseFloat(f[15]),
		VerticalRateFm:   parseInt(f[16]),
		Squawk:           parseSquawk(f[17]),
		Alert:            parseFlag(f[18]),
		Emergency:        parseFlag(f[19]),
		SPI:              parseFlag(f[20]),
		OnGround:         parseFlag(f[21]),
	}
	return m, nil
}

func checkFraming(line string) error {
	if len(line) == 0 {
		return ErrEmpty
	}
	if len(line) >= MaxLineLen {
		return fmt.Errorf("%w: %d bytes", ErrTooLong, len(line))
	}
	for i := 0; i < len(line); i++ {
		if c := line[i]; c < 0x20 || c > 0x7e {
			return fmt.Errorf("%w: byte 0x%02x at %d", ErrNotPrintable, c, i)
		}
	}
	return nil
}

func parseDateTime(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return time.Time{}, err
	}
	// time.Parse accepts a fractional second after the seconds field even
	// when the layout omits it.
	return time.ParseInLocation(dateTimeLayout, date+" "+clock, time.UTC)
}

func parseInt(s string) Opt[int] {
	s = strings.TrimSpace(s)
	if s == "" {
		return Opt[int]{}
	}
	if v, err := strconv.ParseInt(s, 10, 32); err == nil {
		return Some(int(v))
	} else if errors.Is(err, strconv.ErrRange) {
		return Opt[int]{}
	}
	// Some feeds send altitudes and rates with a decimal part.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Opt[int]{}
	}
	f = math.Round(f)
	if f < math.MinInt32 || f > math.MaxInt32 {
		return Opt[int]{}
	}
	return Some(int(f))
}

func parseFloat(s string) Opt[float64] {
	s = strings.TrimSpace(s)
	if s == "" {
		return Opt[float64]{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Opt[float64]{}
	}
	return Some(v)
}

func parseSquawk(s string) Opt[string] {
	s = strings.TrimSpace(s)
	if s == "" {
		return Opt[string]{}
	}
	if _, err := strconv.Atoi(s); err != nil {
		return Opt[string]{}
	}
	return Some(s)
}

// parseFlag treats "1" as set. Some feeds send -1 for set; anything other
// than 1 reads as false.
func parseFlag(s string) bool {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && v == 1
}
