// Package core holds the expense tracking domain model: money values,
// expenses, transactions, categories and fixed (recurring) expenses.
//
// This file contains money parsing and formatting. Amounts are always
// handled as integer cents; floats only appear at the parsing and
// display boundaries.
package core

import (
	"math"
	"strconv"
	"strings"
)

// Money is a fixed-point currency value in minor units (cents).
type Money struct {
	Cents int64
}

// ParseDigits builds a Money from masked currency input by stripping every
// non-digit character and treating the remainder as cents.
//
// Parsing is forgiving: malformed or empty input yields zero rather than an
// error, matching the behavior of a masked currency widget.
//
// Examples:
//
//	ParseDigits("$12.50") -> 1250 cents
//	ParseDigits("1250")   -> 1250 cents
//	ParseDigits("")       -> 0 cents
func ParseDigits(s string) Money {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return Money{}
	}
	cents, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return Money{}
	}
	return Money{Cents: cents}
}

// ParseDecimal builds a Money from free-form decimal text. Every character
// except digits and the dot is stripped, the rest is parsed as a decimal
// number and rounded to cents. Malformed input degrades to zero.
//
// Examples:
//
//	ParseDecimal("$12.50") -> 1250 cents
//	ParseDecimal("7.255")  -> 726 cents (half-up)
//	ParseDecimal("abc")    -> 0 cents
func ParseDecimal(s string) Money {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return Money{}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return Money{}
	}
	return FromFloat(f)
}

// FromFloat converts a decimal amount expressed in major units to Money,
// rounding half-up to the nearest cent. Negative or non-finite input
// degrades to zero; amounts in this domain are costs and never negative.
func FromFloat(f float64) Money {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}
	}
	return Money{Cents: int64(math.Round(f * 100))}
}

// Sum accumulates a list of Money values using integer arithmetic. The
// empty list sums to zero. There is no rounding drift for any list length.
func Sum(amounts []Money) Money {
	var total int64
	for _, m := range amounts {
		total += m.Cents
	}
	return Money{Cents: total}
}

// Add returns m plus other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Float returns the major-unit value for serialization boundaries.
// Use cents for all arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Format renders the amount as "$X.XX" with exactly two decimal places.
func (m Money) Format() string {
	neg := m.Cents < 0
	cents := m.Cents
	if neg {
		cents = -cents
	}
	s := "$" + strconv.FormatInt(cents/100, 10) + "." + twoDigits(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
