package util

import (
	"fmt"
	"math"
)

func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1 || absValue == 0:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatScientific is used for residuals and corrections.
func FormatScientific(value float64) string {
	return fmt.Sprintf("%.3e", value) // "1.234e-07"
}

// FormatDensity prints a carrier or dopant density in cm^-3.
func FormatDensity(value float64) string {
	return fmt.Sprintf("%10.3e cm^-3", value)
}

// FormatCurrentDensity prints a current density given in A/cm^2 with a unit
// prefix, e.g. "-12.345 mA/cm^2".
func FormatCurrentDensity(value float64) string {
	return FormatValueFactor(value, "A/cm^2")
}

func FormatPosition(value float64) string {
	return fmt.Sprintf("%8.3f um", value*1e4) // cm -> um
}
