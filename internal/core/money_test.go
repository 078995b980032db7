package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyDecimal(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{-1234, "-12.34"},
		{100000, "1000.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Decimal(); got != tc.want {
			t.Fatalf("%d cents: got %q want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyAbsNegate(t *testing.T) {
	if got := (Money{Cents: -500}).Abs(); got.Cents != 500 {
		t.Fatalf("Abs: got %d", got.Cents)
	}
	if got := (Money{Cents: 500}).Abs(); got.Cents != 500 {
		t.Fatalf("Abs positive: got %d", got.Cents)
	}
	if got := (Money{Cents: 500}).Negate(); got.Cents != -500 {
		t.Fatalf("Negate: got %d", got.Cents)
	}
}
