// Package squawk describes well-known transponder codes.
package squawk

import (
	"strconv"
	"strings"
)

// Categories of well-known codes.
const (
	Emergency = "emergency"
	Service   = "service"
	Military  = "military"
	Special   = "special"
	VFR       = "vfr"
	IFR       = "ifr"
)

type Info struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Codes assigned in German airspace, keyed by numeric value so that "0020"
// and "20" resolve to the same entry.
var codes = map[int]Info{
	7500: {Description: "Aircraft hijacking", Category: Emergency},
	7600: {Description: "Radio communication failure", Category: Emergency},
	7700: {Description: "General emergency", Category: Emergency},

	20:   {Description: "Helicopter rescue flight", Category: Service},
	23:   {Description: "Federal police operation", Category: Service},
	24:   {Description: "Military night low-level terrain following", Category: Military},
	25:   {Description: "Parachute dropping aircraft", Category: Special},
	27:   {Description: "Aerobatic flight", Category: Special},
	30:   {Description: "Parachute dropping aircraft", Category: Special},
	31:   {Description: "Open Skies", Category: Military},
	32:   {Description: "Civil VFR flight in identification zone", Category: VFR},
	33:   {Description: "Military VFR flight between GND and FL100", Category: VFR},
	34:   {Description: "Search and rescue", Category: Service},
	35:   {Description: "VFR/IFR change procedure", Category: Special},
	36:   {Description: "Police operation", Category: Service},
	37:   {Description: "Police operation with night vision", Category: Service},
	1000: {Description: "IFR, Mode S conspicuity", Category: IFR},
	2000: {Description: "Military night low-level system", Category: Military},
	7000: {Description: "Civil VFR flight", Category: VFR},
}

// Lookup returns the catalogue entry for code. Info.Code echoes the
// normalized four digit code.
func Lookup(code string) (Info, bool) {
	n, ok := parse(code)
	if !ok {
		return Info{}, false
	}
	info, ok := codes[n]
	if !ok {
		return Info{}, false
	}
	info.Code = format(n)
	return info, true
}

// IsEmergency reports whether code is 7500, 7600 or 7700.
func IsEmergency(code string) bool {
	info, ok := Lookup(code)
	return ok && info.Category == Emergency
}

func parse(code string) (int, bool) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > 4 {
		return 0, false
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func format(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
