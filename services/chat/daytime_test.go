package chat

import (
	"testing"

	"tidybook/models"

	"github.com/stretchr/testify/assert"
)

func TestExtractTime(t *testing.T) {
	assert.Equal(t, "10:00", ExtractTime("10am works for me"))
	assert.Equal(t, "14:30", ExtractTime("how about 2:30 pm"))
	assert.Equal(t, "09:15", ExtractTime("9:15 please"))
	assert.Equal(t, "00:00", ExtractTime("12am"))
	assert.Equal(t, "12:00", ExtractTime("12pm"))
	assert.Equal(t, "", ExtractTime("we have 7 seats"),
		"a bare number without am/pm or minutes is not a time")
}

func TestExtractDate(t *testing.T) {
	assert.Equal(t, "2026-09-03", ExtractDate("let's do 2026-09-03 at 10am"))
	assert.Equal(t, "", ExtractDate("next Tuesday"))
}

func suggestedMemory(days ...models.SuggestedDay) *models.Memory {
	mem := models.NewMemory()
	mem.LastSuggestedOptions = days
	if len(days) > 0 {
		mem.LastSuggestedDate = days[0].Date
		mem.LastSuggestedSlots = days[0].Slots
	}
	return &mem
}

func TestResolveTimeFromSuggestionsUnambiguous(t *testing.T) {
	mem := suggestedMemory(
		models.SuggestedDay{Date: "2026-09-01", Slots: []string{"09:00", "10:00"}},
		models.SuggestedDay{Date: "2026-09-02", Slots: []string{"14:00"}},
	)

	date, tm := ResolveTimeFromSuggestions(mem, "10am works")
	assert.Equal(t, "2026-09-01", date)
	assert.Equal(t, "10:00", tm)
}

func TestResolveTimeFromSuggestionsAmbiguousAcrossDays(t *testing.T) {
	mem := suggestedMemory(
		models.SuggestedDay{Date: "2026-09-01", Slots: []string{"10:00"}},
		models.SuggestedDay{Date: "2026-09-02", Slots: []string{"10:00"}},
	)

	date, tm := ResolveTimeFromSuggestions(mem, "10am")
	assert.Equal(t, "", date, "the same slot on two days must not silently pick one")
	assert.Equal(t, "", tm)
}

func TestResolveTimeIgnoredWhenExplicitDateGiven(t *testing.T) {
	mem := suggestedMemory(models.SuggestedDay{Date: "2026-09-01", Slots: []string{"10:00"}})

	date, tm := ResolveTimeFromSuggestions(mem, "2026-09-05 at 10am")
	assert.Equal(t, "", date)
	assert.Equal(t, "", tm)
}

func TestResolveTimeNoMatch(t *testing.T) {
	mem := suggestedMemory(models.SuggestedDay{Date: "2026-09-01", Slots: []string{"09:00"}})

	date, tm := ResolveTimeFromSuggestions(mem, "8pm")
	assert.Equal(t, "", date)
	assert.Equal(t, "", tm)
}
