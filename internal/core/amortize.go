package core

import "time"

// ResizeAmounts adjusts a per-month amount sequence to the given month
// count. Growing appends zero-valued months, preserving existing values;
// shrinking truncates to the first months entries. The input slice is
// never mutated.
func ResizeAmounts(amounts []Money, months int) []Money {
	if months < 0 {
		months = 0
	}
	out := make([]Money, months)
	copy(out, amounts)
	return out
}

// MonthLabel identifies the calendar month a fixed-expense slot maps to.
type MonthLabel struct {
	Month time.Month
	Year  int
}

// LabelForSlot returns the calendar label of month slot idx relative to the
// start date. Slot 0 labels the month after the start month: the month is
// advanced by idx+1 before wrapping, while the year advances only once
// idx+startMonth passes December. A December start therefore labels slot 0
// as January of the same year. This reproduces the shipped behavior; see
// DESIGN.md before changing it.
func LabelForSlot(start time.Time, idx int) MonthLabel {
	m0 := int(start.Month()) - 1
	month := time.Month((m0+idx+1)%12 + 1)
	year := start.Year() + (m0+idx)/12
	return MonthLabel{Month: month, Year: year}
}
