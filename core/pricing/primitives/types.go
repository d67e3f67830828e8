// Package primitives - Centralized pricing math
// Engines declare quantities and rates; the arithmetic lives here.
// Every primitive clamps usage at zero before applying a rate, so a cost
// component can never be negative.
package primitives

import "github.com/shopspring/decimal"

// Billing calendar. Months are always 30 days.
const (
	DaysPerMonth     = 30
	HoursPerDay      = 24
	MinutesPerHour   = 60
	SecondsPerMinute = 60
)

var (
	// Million is the denominator of per-1M rates
	Million = decimal.NewFromInt(1_000_000)

	// MBPerGB converts megabytes to gigabytes
	MBPerGB = decimal.NewFromInt(1024)

	// FullTimeHoursPerMonth is 30 days of 24 hours
	FullTimeHoursPerMonth = decimal.NewFromInt(DaysPerMonth * HoursPerDay)

	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// Monthly converts a daily count into a 30-day monthly count
func Monthly(perDay int) int64 {
	return int64(perDay) * DaysPerMonth
}

// HoursToSeconds converts hours into seconds
func HoursToSeconds(hours decimal.Decimal) decimal.Decimal {
	return hours.Mul(decimal.NewFromInt(MinutesPerHour * SecondsPerMinute))
}

// HoursToMinutes converts hours into minutes
func HoursToMinutes(hours decimal.Decimal) decimal.Decimal {
	return hours.Mul(decimal.NewFromInt(MinutesPerHour))
}

// MinutesToSeconds converts minutes into seconds
func MinutesToSeconds(minutes decimal.Decimal) decimal.Decimal {
	return minutes.Mul(decimal.NewFromInt(SecondsPerMinute))
}

// NonNegative clamps v at zero
func NonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
