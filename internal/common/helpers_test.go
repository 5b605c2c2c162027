package common

import (
	"testing"
	"time"
)

func TestCapitalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"chase", "Chase"},
		{"Chase", "Chase"},
		{"  bank of nowhere ", "Bank of nowhere"},
		{"", ""},
		{"x", "X"},
		{"0xABC", "0xABC"},
	}
	for _, c := range cases {
		if got := Capitalize(c.in); got != c.want {
			t.Errorf("Capitalize(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	if got := FormatUSD(50); got != "$50" {
		t.Errorf("FormatUSD(50)=%q want $50", got)
	}
	if got := FormatUSD(0); got != "$0" {
		t.Errorf("FormatUSD(0)=%q want $0", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 9, 1, 14, 30, 5, 0, time.UTC)
	if got := FormatTimestamp(ts); got != "2026-09-01 14:30:05" {
		t.Errorf("FormatTimestamp=%q", got)
	}
}
