package types

import "math"

// WorkHoursPerMonth converts a monthly salary into an hourly rate.
const WorkHoursPerMonth = 160

// HourlyRate derives the hourly rate from a monthly salary, rounded to two
// decimals. A nil salary yields nil.
func HourlyRate(monthly *float64) *float64 {
	if monthly == nil {
		return nil
	}
	r := math.Round(*monthly/WorkHoursPerMonth*100) / 100
	return &r
}

// Float returns a pointer to v. Handy for nullable numeric fields.
func Float(v float64) *float64 { return &v }
