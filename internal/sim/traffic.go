package sim

import (
	"fmt"
	"math"
	"time"

	"luftraum/internal/sbs"
)

type TrafficTarget struct {
	Address  string
	CallSign string
	LatDeg   float64
	LonDeg   float64
	AltFeet  int
	TrackDeg float64
	GroundKt int
}

type TrafficSim struct {
	CenterLatDeg float64
	CenterLonDeg float64
	BaseAltFeet  int
	GroundKt     int
	RadiusNm     float64
	Period       time.Duration
	// AddressBase is the first transponder address handed out.
	AddressBase uint32
}

// Targets returns N targets orbiting around the configured center.
func (s TrafficSim) Targets(now time.Time, count int) []TrafficTarget {
	if count <= 0 {
		return nil
	}

	period := s.Period
	if period <= 0 {
		period = 90 * time.Second
	}
	radiusNm := s.RadiusNm
	if radiusNm <= 0 {
		radiusNm = 2.0
	}
	groundKt := s.GroundKt
	if groundKt <= 0 {
		groundKt = 120
	}
	base := s.AddressBase
	if base == 0 {
		base = 0x3C0000
	}

	// ~60 NM per degree of latitude.
	radiusDeg := radiusNm / 60.0

	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())
	baseTheta := 2 * math.Pi * phase

	out := make([]TrafficTarget, 0, count)
	for i := 0; i < count; i++ {
		offset := 2 * math.Pi * (float64(i) / float64(count))
		theta := baseTheta + offset

		latDeg := s.CenterLatDeg + radiusDeg*math.Cos(theta)
		lonDeg := s.CenterLonDeg + radiusDeg*math.Sin(theta)/math.Cos(s.CenterLatDeg*math.Pi/180.0)
		trk := math.Mod((theta*180/math.Pi)+90, 360)

		alt := s.BaseAltFeet
		if alt == 0 {
			alt = 4500
		}
		alt += (i - count/2) * 300

		out = append(out, TrafficTarget{
			Address:  fmt.Sprintf("%06X", (base+uint32(i))&0xFFFFFF),
			CallSign: fmt.Sprintf("SIM%03d", i+1),
			LatDeg:   latDeg,
			LonDeg:   lonDeg,
			AltFeet:  alt,
			TrackDeg: trk,
			GroundKt: groundKt,
		})
	}

	return out
}

// Lines renders each target as an airborne position (MSG,3), airborne
// velocity (MSG,4) and identification (MSG,5) SBS-1 line.
func (s TrafficSim) Lines(now time.Time, count int) []string {
	tgts := s.Targets(now, count)
	if len(tgts) == 0 {
		return nil
	}
	now = now.UTC()
	out := make([]string, 0, 3*len(tgts))
	for _, t := range tgts {
		msg := sbs.Message{
			MessageType: "MSG",
			SessionID:   "1",
			AircraftID:  "1",
			Address:     t.Address,
			FlightID:    "1",
			Generated:   now,
			Logged:      now,
		}

		pos := msg
		pos.TransmissionType = sbs.TxAirbornePos
		pos.AltitudeFt = sbs.Some(t.AltFeet)
		pos.LatDeg = sbs.Some(t.LatDeg)
		pos.LonDeg = sbs.Some(t.LonDeg)

		vel := msg
		vel.TransmissionType = sbs.TxAirborneVel
		vel.GroundSpeedKt = sbs.Some(float64(t.GroundKt))
		vel.TrackDeg = sbs.Some(t.TrackDeg)
		vel.VerticalRateFm = sbs.Some(0)

		id := msg
		id.TransmissionType = sbs.TxSurveillanceAlt
		id.CallSign = t.CallSign

		out = append(out, sbs.Encode(pos), sbs.Encode(vel), sbs.Encode(id))
	}
	return out
}
