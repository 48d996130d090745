// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatScore formats a 0-100 index with two decimals.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatMinutes formats a duration in minutes, e.g. 12.345 -> "12.3m".
func FormatMinutes(m float64) string {
	return fmt.Sprintf("%.1fm", m)
}

// FormatAmount formats a currency amount with two decimals and separators.
func FormatAmount(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(v*100 + 0.5)
	return fmt.Sprintf("%s$%s.%02d", sign, FormatNumber(cents/100), cents%100)
}

// FormatHour formats an hour of day as "09:00".
func FormatHour(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// FormatElapsed formats a run duration, e.g. 1.5s -> "1.5s", 90s -> "1m 30s".
func FormatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	secs := int64(d.Seconds())
	if h := secs / 3600; h > 0 {
		return fmt.Sprintf("%dh %dm", h, (secs%3600)/60)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
