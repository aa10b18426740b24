// Package utils provides formatting helpers shared by the binaries.
package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RoundToDecimalPlaces rounds a float to the specified decimal places.
func RoundToDecimalPlaces(v float64, places int32) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(places)
}

// FormatMoney formats an amount with two decimals and thousands separators.
func FormatMoney(v float64) string {
	s := RoundToDecimalPlaces(v, 2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// FormatPercent formats a fraction as a percentage with two decimals.
func FormatPercent(v float64) string {
	return RoundToDecimalPlaces(v*100, 2).StringFixed(2) + "%"
}

// FormatOptionalRatio formats a ratio that may be undefined.
func FormatOptionalRatio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return RoundToDecimalPlaces(*v, 3).StringFixed(3)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return d.Round(time.Millisecond).String()
}
