package ui

import (
	"testing"
	"time"
)

func TestFormatInt(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{100000000, "100,000,000"},
	}
	for _, c := range cases {
		if got := FormatInt(c.in); got != c.want {
			t.Errorf("FormatInt(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(0); got != "-" {
		t.Errorf("FormatPrice(0) = %q, want -", got)
	}
	if got := FormatPrice(4567.891); got != "4567.89" {
		t.Errorf("FormatPrice(4567.891) = %q, want 4567.89", got)
	}
}

func TestFormatChange(t *testing.T) {
	if got := FormatChange(12.3, 0.456); got != "+12.30 (+0.46%)" {
		t.Errorf("positive change = %q", got)
	}
	if got := FormatChange(-5.1, -1.2); got != "-5.10 (-1.20%)" {
		t.Errorf("negative change = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "-" {
		t.Errorf("zero time = %q, want -", got)
	}
	if got := FormatTime(time.Now()); got == "-" {
		t.Error("non-zero time rendered as -")
	}
}

func TestPadOrTrunc(t *testing.T) {
	if got := padOrTrunc("ab", 5); got != "ab   " {
		t.Errorf("pad = %q", got)
	}
	if got := padOrTrunc("abcdef", 4); got != "abcd" {
		t.Errorf("trunc = %q", got)
	}
}
