package models

import "fmt"

// Quantities are stored in fluid ounces; gallons are a display unit.
const (
	UnitOunces  = "Oz"
	UnitGallons = "Gal"

	OuncesPerGallon = 128.0
)

// ToOunces normalizes an entered amount to the base unit.
func ToOunces(amount float64, unit string) float64 {
	if unit == UnitGallons {
		return amount * OuncesPerGallon
	}
	return amount
}

// ToGallons converts an ounce amount to gallons.
func ToGallons(ounces float64) float64 {
	return ounces / OuncesPerGallon
}

// FormatAmount renders an ounce amount in both units, e.g. "256 Oz / 2.00 Gal".
func FormatAmount(ounces float64) string {
	return fmt.Sprintf("%g Oz / %.2f Gal", ounces, ToGallons(ounces))
}
