// Package hexdb looks up aircraft registration data for transponder
// addresses from hexdb.io, caching results in memory and in a local SQLite
// database.
package hexdb

import (
	"fmt"
	"strings"
)

// Aircraft is the registration record hexdb.io returns for one address.
type Aircraft struct {
	ModeS            string `json:"ModeS"`
	Registration     string `json:"Registration"`
	Manufacturer     string `json:"Manufacturer"`
	ICAOTypeCode     string `json:"ICAOTypeCode"`
	Type             string `json:"Type"`
	RegisteredOwners string `json:"RegisteredOwners"`
	OperatorFlagCode string `json:"OperatorFlagCode"`
}

// NormalizeHex upper-cases a 24-bit address and checks that it is six hex
// digits.
func NormalizeHex(hex string) (string, error) {
	hex = strings.ToUpper(strings.TrimSpace(hex))
	if len(hex) != 6 {
		return "", fmt.Errorf("invalid transponder address %q", hex)
	}
	for _, c := range hex {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			return "", fmt.Errorf("invalid transponder address %q", hex)
		}
	}
	return hex, nil
}
