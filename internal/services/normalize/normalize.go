// Package normalize converts provider units into the engine's canonical units.
// Monetary values are carried in billions of USD.
package normalize

import (
	"fmt"
	"math"

	"LiqPull/internal/domain/models"
)

// ToCanonical converts a raw value reported in unit to its canonical value.
func ToCanonical(raw float64, unit models.RawUnit) float64 {
	switch unit {
	case models.Millions:
		return raw / 1000
	case models.Billions, models.Percent, models.Index:
		return raw
	default:
		panic(fmt.Sprintf("normalize: unhandled unit %q", unit))
	}
}

// IsMonetary reports whether the unit belongs to the monetary family.
func IsMonetary(unit models.RawUnit) bool {
	switch unit {
	case models.Millions, models.Billions:
		return true
	case models.Percent, models.Index:
		return false
	default:
		panic(fmt.Sprintf("normalize: unhandled unit %q", unit))
	}
}

// UnitLabel is the canonical unit label shown next to a value.
func UnitLabel(unit models.RawUnit) string {
	switch unit {
	case models.Percent:
		return "%"
	case models.Index:
		return "Index"
	default:
		return "Billions USD"
	}
}

// Format renders a canonical value for the unit family of unit.
func Format(canonical float64, unit models.RawUnit) string {
	switch unit {
	case models.Percent:
		return FormatPercent(canonical)
	case models.Index:
		return fmt.Sprintf("%.2f", canonical)
	case models.Millions, models.Billions:
		return FormatBillions(canonical)
	default:
		panic(fmt.Sprintf("normalize: unhandled unit %q", unit))
	}
}

// FormatBillions renders a value held in billions as $M, $B or $T.
func FormatBillions(billions float64) string {
	sign := ""
	if billions < 0 {
		sign = "-"
	}
	abs := math.Abs(billions)
	switch {
	case abs >= 1000:
		return fmt.Sprintf("%s$%.2fT", sign, abs/1000)
	case abs >= 1:
		return fmt.Sprintf("%s$%.2fB", sign, abs)
	default:
		return fmt.Sprintf("%s$%.2fM", sign, abs*1000)
	}
}

// FormatPercent renders a percent with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatMultiple renders a ratio as a multiple, e.g. 4.12x.
func FormatMultiple(v float64) string {
	return fmt.Sprintf("%.2fx", v)
}

// FormatUSD renders an absolute dollar amount.
func FormatUSD(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
