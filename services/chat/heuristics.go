package chat

import (
	"regexp"
	"strings"
)

// Pre-model field extractors. The model sometimes answers narrowly without
// calling update_memory/update_contact; these pure functions keep the intake
// flow from stalling on that omission. They are heuristics, not parsers with
// formal guarantees.

var (
	zipRe = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)

	phoneRe = regexp.MustCompile(`(?:\+?1[\s.-]?)?\(?([2-9]\d{2})\)?[\s.-]?(\d{3})[\s.-]?(\d{4})\b`)

	namePhraseRe = regexp.MustCompile(`\b(?i:my name is|i am|i'm|me chamo|meu nome é|me llamo|mi nombre es)\s+([A-ZÀ-Ú][a-zà-ú'\-]+(?:\s+[A-ZÀ-Ú][a-zà-ú'\-]+){0,2})`)

	bareNameRe = regexp.MustCompile(`^[A-ZÀ-Ú][a-zà-ú'\-]+(?:\s+[A-ZÀ-Ú][a-zà-ú'\-]+){0,2}$`)

	addressRe = regexp.MustCompile(`(?i)\b\d+\s+[a-zà-ú0-9'.\- ]+\s(?:street|st|avenue|ave|road|rd|drive|dr|lane|ln|boulevard|blvd|court|ct|way|place|pl|terrace|ter|circle|cir|rua|avenida|calle)\b\.?(?:\s*,?\s*(?:apt|apto|suite|ste|unit|#)\s*\w+)?`)
)

// ExtractZip finds a US ZIP code. Phone-number digit runs are masked first so
// "call me at 305 555 0199" never yields a bogus ZIP.
func ExtractZip(message string) string {
	masked := phoneRe.ReplaceAllString(message, " ")
	match := zipRe.FindStringSubmatch(masked)
	if match == nil {
		return ""
	}
	return match[1]
}

// ExtractPhone finds a US phone number and normalizes it to digits.
func ExtractPhone(message string) string {
	match := phoneRe.FindStringSubmatch(message)
	if match == nil {
		return ""
	}
	return match[1] + match[2] + match[3]
}

// ExtractName finds an explicit "my name is ..." style introduction. When
// allowBare is set (the name step is actively pending and there is enough
// turn history), a short message that is nothing but a plausible name also
// counts.
func ExtractName(message string, allowBare bool) string {
	if match := namePhraseRe.FindStringSubmatch(message); match != nil {
		return strings.TrimSpace(match[1])
	}
	if !allowBare {
		return ""
	}
	trimmed := strings.TrimSpace(message)
	if len(trimmed) > 40 {
		return ""
	}
	if bareNameRe.MatchString(trimmed) {
		return trimmed
	}
	return ""
}

// ExtractAddress finds a street-address pattern.
func ExtractAddress(message string) string {
	return strings.TrimSpace(addressRe.FindString(message))
}
