package flows

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Explicit date layouts tried in order; the first strict match wins.
// Day-month-year is tried before month-day-year.
var dateLayouts = []string{
	"02-01-2006",
	"01-02-2006",
	"2006-01-02",
	"2 Jan 2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02/01/2006",
	"01/02/2006",
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
}

// Lenient fallback layouts for inputs no explicit format matched
var looseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"Jan 2 2006",
	"2 Jan, 2006",
	"January 2 2006",
}

// ParseUserDate normalizes free-text user input to YYYY-MM-DD. A parsed
// year below 2005 is treated as omitted: the current year is
// substituted, rolling forward one year when the date is already past.
// Returns "" when nothing parses; absence triggers the date prompt.
func ParseUserDate(input string, now time.Time) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		if parsed.Year() < 2005 {
			parsed = time.Date(today.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, now.Location())
			if parsed.Before(today) {
				parsed = parsed.AddDate(1, 0, 0)
			}
		}
		return parsed.Format("2006-01-02")
	}

	for _, layout := range looseLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.Format("2006-01-02")
		}
	}

	return ""
}

// DateCandidate is one interpreted reading of a date/time input.
// Downstream steps use the first candidate's value.
type DateCandidate struct {
	Value string
}

// ResolveDateInput interprets free text as date candidates, accepting
// "today" and "tomorrow" alongside the explicit formats
func ResolveDateInput(input string, now time.Time) []DateCandidate {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "today":
		return []DateCandidate{{Value: now.Format("2006-01-02")}}
	case "tomorrow":
		return []DateCandidate{{Value: now.AddDate(0, 0, 1).Format("2006-01-02")}}
	}
	if v := ParseUserDate(input, now); v != "" {
		return []DateCandidate{{Value: v}}
	}
	return nil
}

var userDurationRe = regexp.MustCompile(`(?i)^\s*(?:(\d+)\s*h)?\s*(?:(\d+)\s*m)?\s*$`)

// ParseUserDuration reads an optional "<n>h" and optional "<n>m" into
// total minutes. Empty, "no", or unparseable input yields nil, treated
// as no filter.
func ParseUserDuration(input string) *int {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" || trimmed == "no" {
		return nil
	}
	m := userDurationRe.FindStringSubmatch(trimmed)
	if m == nil || (m[1] == "" && m[2] == "") {
		return nil
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	total := hours*60 + minutes
	return &total
}

var isoDurationRe = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?`)

// ParseISOMinutes converts an ISO-8601 duration like "PT5H30M" to minutes
func ParseISOMinutes(iso string) int {
	m := isoDurationRe.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes
}

// ISOHours converts an ISO-8601 duration to fractional hours
func ISOHours(iso string) float64 {
	return float64(ParseISOMinutes(iso)) / 60.0
}

// prettyISODuration renders "PT5H30M" as "5h30m" for display
func prettyISODuration(iso string) string {
	return strings.ToLower(strings.TrimPrefix(iso, "PT"))
}

// formatSegmentTime renders a supplier timestamp for display
func formatSegmentTime(at string) string {
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, at); err == nil {
			return t.Format("Jan 2, 2006, 3:04 PM")
		}
	}
	return at
}
