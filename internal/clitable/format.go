// Package clitable provides column-aligned terminal output for collection
// summaries, job listings, and health reports.
package clitable

import "strings"

// ANSI color helpers.

func Green(s string) string  { return "\033[32m" + s + "\033[0m" }
func Yellow(s string) string { return "\033[33m" + s + "\033[0m" }
func Red(s string) string    { return "\033[31m" + s + "\033[0m" }
func Bold(s string) string   { return "\033[1m" + s + "\033[0m" }
func Dim(s string) string    { return "\033[2m" + s + "\033[0m" }

// DotPad pads name with dots to the given width.
// Example: DotPad("sw1", 20) -> "sw1 ................"
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}

// SeverityColor renders label colored by a change-detection severity name
// (minor/moderate/critical), for use in collection and job-run summaries.
func SeverityColor(severity, label string) string {
	switch severity {
	case "critical":
		return Red(label)
	case "moderate":
		return Yellow(label)
	default:
		return Green(label)
	}
}
