package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tidybook/models"
)

var (
	isoDateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	clockRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// ExtractTime pulls a clock time from free text and normalizes it to "15:04".
// Bare numbers without am/pm or minutes are ignored: "7" is more likely a
// seat count than a time.
func ExtractTime(message string) string {
	for _, match := range clockRe.FindAllStringSubmatch(message, -1) {
		hour, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		minutes := 0
		if match[2] != "" {
			minutes, err = strconv.Atoi(match[2])
			if err != nil || minutes > 59 {
				continue
			}
		}
		meridiem := strings.ToLower(match[3])
		if meridiem == "" && match[2] == "" {
			continue
		}
		switch meridiem {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour > 23 {
			continue
		}
		return fmt.Sprintf("%02d:%02d", hour, minutes)
	}
	return ""
}

// ContainsExplicitDate reports whether the message names a date on its own.
func ContainsExplicitDate(message string) bool {
	return isoDateRe.MatchString(message)
}

// ExtractDate pulls an ISO date ("2026-09-03") from free text.
func ExtractDate(message string) string {
	match := isoDateRe.FindStringSubmatch(message)
	if match == nil {
		return ""
	}
	return match[1]
}

// ResolveTimeFromSuggestions matches a bare time reply ("10am") against the
// most recently suggested options. Returns the resolved (date, time) pair, or
// empty strings when nothing matches or the match is ambiguous: if the same
// slot time was shown on multiple distinct dates, silently picking one would
// risk booking the wrong day.
func ResolveTimeFromSuggestions(mem *models.Memory, message string) (string, string) {
	t := ExtractTime(message)
	if t == "" || ContainsExplicitDate(message) {
		return "", ""
	}

	var matches []string
	for _, day := range mem.LastSuggestedOptions {
		for _, slot := range day.Slots {
			if slot == t {
				matches = append(matches, day.Date)
				break
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], t
	case 0:
		// Fall back to the single most recent suggested day, if any.
		if mem.LastSuggestedDate != "" {
			for _, slot := range mem.LastSuggestedSlots {
				if slot == t {
					return mem.LastSuggestedDate, t
				}
			}
		}
		return "", ""
	default:
		return "", "" // ambiguous across days, exact date required
	}
}
