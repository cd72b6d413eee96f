package tools

import (
	"testing"

	"tidybook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testServices = []models.Service{
	{ID: "sofa-3", Name: "Sofa Cleaning (2-4 seater)", MinUnits: 2, MaxUnits: 4, Price: 120},
	{ID: "sofa-7", Name: "Sofa Cleaning (5-7 seater)", MinUnits: 5, MaxUnits: 7, Price: 180},
	{ID: "lshape", Name: "L Shaped Sofa Cleaning", Price: 200},
	{ID: "carpet", Name: "Carpet Cleaning", Price: 90},
	{ID: "window", Name: "Window Cleaning", Price: 60},
}

func TestRankServicesSynonyms(t *testing.T) {
	ranked, matched := rankServices("sectional couch", testServices)
	require.True(t, matched)
	require.NotEmpty(t, ranked)

	// "sectional" expands to "l shaped" and "couch" to "sofa"; the L-shaped
	// package should collect the most overlap.
	assert.Equal(t, "lshape", ranked[0].ID)
}

func TestRankServicesNumericRange(t *testing.T) {
	ranked, matched := rankServices("7 seater sofa", testServices)
	require.True(t, matched)

	assert.Equal(t, "sofa-7", ranked[0].ID,
		"7 falls inside the 5-7 unit range and the name contains the digit")
}

func TestRankServicesRugFindsCarpet(t *testing.T) {
	ranked, matched := rankServices("rug", testServices)
	require.True(t, matched)
	assert.Equal(t, "carpet", ranked[0].ID)
}

func TestRankServicesFallsBackToFullList(t *testing.T) {
	ranked, matched := rankServices("gutter flushing", testServices)
	assert.False(t, matched)
	assert.Len(t, ranked, len(testServices),
		"a zero-hit query must not dead-end with an empty list")
}

func TestRankFAQs(t *testing.T) {
	faqs := []models.FAQ{
		{ID: "f1", Question: "Do you bring your own supplies?", Answer: "Yes, everything is included."},
		{ID: "f2", Question: "What is your cancellation policy?", Answer: "Free up to 24 hours before."},
	}

	ranked, matched := rankFAQs("what is your cancellation policy", faqs)
	require.True(t, matched)
	assert.Equal(t, "f2", ranked[0].ID)
}

func TestMatchServiceByNameExact(t *testing.T) {
	svc := matchServiceByName("Carpet Cleaning", testServices)
	require.NotNil(t, svc)
	assert.Equal(t, "carpet", svc.ID)
}

func TestMatchServiceByNameIgnoresCleaningWord(t *testing.T) {
	svc := matchServiceByName("carpet", testServices)
	require.NotNil(t, svc)
	assert.Equal(t, "carpet", svc.ID)
}

func TestMatchServiceByNameContainment(t *testing.T) {
	svc := matchServiceByName("l shaped sofa", testServices)
	require.NotNil(t, svc)
	assert.Equal(t, "lshape", svc.ID)
}

func TestMatchServiceByNameUnknown(t *testing.T) {
	assert.Nil(t, matchServiceByName("pool maintenance", testServices))
	assert.Nil(t, matchServiceByName("", testServices))
}
