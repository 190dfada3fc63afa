package core

import "testing"

func TestParseDigits(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
	}{
		{"1250", 1250},
		{"$12.50", 1250},
		{"1", 1},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"$0.07", 7},
		{"  9 9 ", 99},
	}
	for _, tc := range cases {
		if got := ParseDigits(tc.in); got.Cents != tc.cents {
			t.Fatalf("ParseDigits(%q) = %d, want %d", tc.in, got.Cents, tc.cents)
		}
	}
}

func TestParseDigitsFormatRoundTrip(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"", "$0.00"},
		{"5", "$0.05"},
		{"50", "$0.50"},
		{"1250", "$12.50"},
		{"100000", "$1000.00"},
	}
	for _, tc := range cases {
		if got := ParseDigits(tc.in).Format(); got != tc.out {
			t.Fatalf("Format(ParseDigits(%q)) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
	}{
		{"12.50", 1250},
		{"$12.50", 1250},
		{"7.255", 726}, // half-up on the third decimal
		{"7.254", 725},
		{"0.01", 1},
		{"3", 300},
		{"", 0},
		{"abc", 0},
		{"1.2.3", 0}, // two dots fail the float parse, degrade to zero
		{"-4.20", 420}, // sign is stripped before parsing
	}
	for _, tc := range cases {
		if got := ParseDecimal(tc.in); got.Cents != tc.cents {
			t.Fatalf("ParseDecimal(%q) = %d, want %d", tc.in, got.Cents, tc.cents)
		}
	}
}

func TestFromFloat(t *testing.T) {
	cases := []struct {
		in    float64
		cents int64
	}{
		{12.50, 1250},
		{0.005, 1},
		{0, 0},
		{-3, 0},
	}
	for _, tc := range cases {
		if got := FromFloat(tc.in); got.Cents != tc.cents {
			t.Fatalf("FromFloat(%v) = %d, want %d", tc.in, got.Cents, tc.cents)
		}
	}
}

func TestSum(t *testing.T) {
	cases := []struct {
		name  string
		in    []Money
		cents int64
	}{
		{"empty", nil, 0},
		{"single", []Money{{Cents: 1250}}, 1250},
		{"groceries", []Money{{Cents: 1250}, {Cents: 725}}, 1975},
		{"no drift", []Money{{Cents: 1}, {Cents: 2}, {Cents: 3}, {Cents: 4}}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sum(tc.in); got.Cents != tc.cents {
				t.Fatalf("Sum = %d, want %d", got.Cents, tc.cents)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		cents int64
		out   string
	}{
		{0, "$0.00"},
		{7, "$0.07"},
		{1975, "$19.75"},
		{-150, "-$1.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Format(); got != tc.out {
			t.Fatalf("Format(%d) = %q, want %q", tc.cents, got, tc.out)
		}
	}
}
