package domain

import (
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// Fallbacks applied when a numeric store field is absent or unusable.
const (
	DefaultNPS                      = 0.0
	DefaultFillFoundRate            = 0.0
	DefaultDamageRate               = 0.0
	DefaultOutOfStockRate           = 0.0
	DefaultComplaintResolutionHours = 24.0

	// Default map center (Monterrey, NL).
	DefaultLatitude  = 25.6866
	DefaultLongitude = -100.3161
)

// Sanitize returns raw as a float64 when it is a finite JSON number and
// fallback otherwise. Absent keys, null, strings, booleans, objects and
// non-finite numbers all yield fallback.
func Sanitize(raw gjson.Result, fallback float64) float64 {
	if raw.Type != gjson.Number {
		return fallback
	}
	return SanitizeFloat(raw.Num, fallback)
}

// SanitizeFloat returns v unchanged unless it is NaN or ±Inf.
func SanitizeFloat(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// DecodeID reads a store identifier that may be encoded as a JSON number or
// as a numeric string. ok is false when raw is absent, null, outside the
// int64 range, or cannot be parsed as an integer; id is 0 in that case.
func DecodeID(raw gjson.Result) (id int64, ok bool) {
	switch raw.Type {
	case gjson.Number:
		if v, err := strconv.ParseInt(raw.Raw, 10, 64); err == nil {
			return v, true
		}
		if math.IsNaN(raw.Num) || raw.Num < minInt64Float || raw.Num >= maxInt64Float {
			return 0, false
		}
		return int64(raw.Num), true
	case gjson.String:
		v, err := strconv.ParseInt(raw.Str, 10, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Float bounds of the int64 range: [-2^63, 2^63).
const (
	minInt64Float = -(1 << 63)
	maxInt64Float = 1 << 63
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
