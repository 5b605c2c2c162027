// Package common contains small utilities used across the project:
// currency formatting, timestamp formatting, text capitalization.
package common

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// TimestampLayout is the format used for last_transaction times.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatUSD formats a whole-dollar amount for display.
// Example: FormatUSD(150) → "$150"
func FormatUSD(amount int64) string {
	return fmt.Sprintf("$%d", amount)
}

// FormatTimestamp formats a time for transaction records and messages.
// Example: 2026-09-01 14:30:05
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Capitalize upper-cases the first letter of s, leaving the rest untouched.
// Used for payment-method types and free-text details ("chase" → "Chase").
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
