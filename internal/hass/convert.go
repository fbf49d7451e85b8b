package hass

import "math"

const (
	// fahrenheitOffset is the freezing point of water in Fahrenheit.
	fahrenheitOffset = 32

	// celsiusRounding scales rounding to one decimal place, the
	// resolution climate setpoints are written at.
	celsiusRounding = 10
)

// FahrenheitToCelsius converts a Fahrenheit temperature to Celsius,
// rounded to one decimal place. Used on climate temperature writes when
// the register's units are "C": the point model side works in
// Fahrenheit while the hub expects Celsius.
func FahrenheitToCelsius(f float64) float64 {
	c := (f - fahrenheitOffset) * 5 / 9
	return math.Round(c*celsiusRounding) / celsiusRounding
}
