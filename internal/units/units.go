// Package units converts the size and speed units offered by the front-end into
// bytes and bytes/second, and formats them back for display.
package units

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownUnit = errors.New("unknown unit")

// Multipliers are binary (1 KB = 1024 B); the bit rates divide by 8.
var sizeMultipliers = map[string]float64{
	"b":  1,
	"kb": 1 << 10,
	"mb": 1 << 20,
	"gb": 1 << 30,
	"tb": 1 << 40,
}

var speedMultipliers = map[string]float64{
	"bps":  1,
	"kbps": (1 << 10) / 8.0,
	"kbs":  1 << 10,
	"mbps": (1 << 20) / 8.0,
	"mbs":  1 << 20,
	"gbps": (1 << 30) / 8.0,
	"gbs":  1 << 30,
}

var speedAliases = map[string]string{
	"b/s":  "bps",
	"kb/s": "kbs",
	"mb/s": "mbs",
	"gb/s": "gbs",
}

func normalize(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// ToBytes converts size expressed in unit to bytes. An empty unit means bytes.
func ToBytes(size float64, unit string) (float64, error) {
	u := normalize(unit)
	if u == "" {
		return size, nil
	}
	m, ok := sizeMultipliers[u]
	if !ok {
		return 0, fmt.Errorf("%w: size unit %q", ErrUnknownUnit, unit)
	}
	return size * m, nil
}

// ToBytesPerSecond converts speed expressed in unit to bytes/second. An empty
// unit means bytes/second.
func ToBytesPerSecond(speed float64, unit string) (float64, error) {
	m, err := speedMultiplier(unit)
	if err != nil {
		return 0, err
	}
	return speed * m, nil
}

// FromBytesPerSecond is the inverse of ToBytesPerSecond.
func FromBytesPerSecond(bps float64, unit string) (float64, error) {
	m, err := speedMultiplier(unit)
	if err != nil {
		return 0, err
	}
	return bps / m, nil
}

func speedMultiplier(unit string) (float64, error) {
	u := normalize(unit)
	if u == "" {
		return 1, nil
	}
	if alias, ok := speedAliases[u]; ok {
		u = alias
	}
	m, ok := speedMultipliers[u]
	if !ok {
		return 0, fmt.Errorf("%w: speed unit %q", ErrUnknownUnit, unit)
	}
	return m, nil
}
