// Package util provides common utility functions used across the booster simulator.
package util

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"
)

// Clamp restricts v to the closed range [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sign returns -1, 0 or 1 according to the sign of v.
func Sign[T constraints.Signed | constraints.Float](v T) T {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

// IsFinite reports whether every value is neither NaN nor infinite.
func IsFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FormatMissionClock renders elapsed sim seconds as a mission clock, e.g. "T+02:05".
// Hours are folded into the minutes field.
func FormatMissionClock(seconds float64) string {
	if !IsFinite(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("T+%02d:%02d", total/60, total%60)
}

// SanitizeFileName replaces characters that are unsafe in file names with underscores.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '&':
			return '_'
		}
		return r
	}, name)
}
