// Package units provides shared constants and validation for speed units
package units

import "fmt"

// Unit constants. Telemetry and the database carry speeds in m/s; conversion
// happens at the API and report edges only.
const (
	MPS = "mps"
	KMH = "kmh"
	MPH = "mph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, KMH, MPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, kmh, mph"
}

// ConvertSpeed converts a speed from meters per second to the target units.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.23694 // m/s to mph
	case KMH:
		return speedMPS * 3.6 // m/s to km/h
	case MPS:
		return speedMPS
	default:
		return speedMPS // default to m/s if unknown unit
	}
}

// Label returns the display label for a unit.
func Label(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMH:
		return "km/h"
	default:
		return "m/s"
	}
}

// FormatSpeed renders a stored m/s speed in the target units with its label.
func FormatSpeed(speedMPS float64, targetUnits string) string {
	return fmt.Sprintf("%.1f %s", ConvertSpeed(speedMPS, targetUnits), Label(targetUnits))
}
