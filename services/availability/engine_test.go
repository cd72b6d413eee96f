package availability

import (
	"context"
	"testing"
	"time"

	"tidybook/models"
	"tidybook/services/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookings struct {
	byDate map[string][]models.Booking
}

func (f *fakeBookings) Create(_ context.Context, _ *models.Booking) error { return nil }
func (f *fakeBookings) ListByDate(_ context.Context, date string) ([]models.Booking, error) {
	return f.byDate[date], nil
}
func (f *fakeBookings) ListByRange(_ context.Context, _, _ string) ([]models.Booking, error) {
	return nil, nil
}
func (f *fakeBookings) SetSyncStatus(_ context.Context, _, _, _ string) error { return nil }

type fakeCatalog struct {
	hours []models.BusinessHours
}

func (f *fakeCatalog) ListServices(_ context.Context) ([]models.Service, error) { return nil, nil }
func (f *fakeCatalog) GetServiceByID(_ context.Context, _ string) (*models.Service, error) {
	return nil, nil
}
func (f *fakeCatalog) ListFAQs(_ context.Context) ([]models.FAQ, error) { return nil, nil }
func (f *fakeCatalog) GetBusinessHours(_ context.Context) ([]models.BusinessHours, error) {
	return f.hours, nil
}
func (f *fakeCatalog) GetIntegrationSettings(_ context.Context) (*models.IntegrationSettings, error) {
	return nil, nil
}

type fakeCalendar struct {
	free  calendar.FreeSlots
	calls int
}

func (f *fakeCalendar) GetFreeSlots(_ context.Context, _ models.CalendarSettings, _, _ string) (calendar.FreeSlots, error) {
	f.calls++
	return f.free, nil
}
func (f *fakeCalendar) CreateAppointment(_ context.Context, _ models.CalendarSettings, _ *models.Booking) (string, error) {
	return "evt-1", nil
}
func (f *fakeCalendar) GetOrCreateContact(_ context.Context, _ models.CalendarSettings, _, _, _ string) (string, error) {
	return "contact-1", nil
}

func weekdayHours(open, close string) []models.BusinessHours {
	hours := make([]models.BusinessHours, 0, 5)
	for wd := 1; wd <= 5; wd++ {
		hours = append(hours, models.BusinessHours{Weekday: wd, Open: open, Close: close})
	}
	return hours
}

func newTestEngine(bookings *fakeBookings, cat *fakeCatalog, cal calendar.Client, now time.Time) *Engine {
	return &Engine{
		Bookings: bookings,
		Catalog:  cat,
		Calendar: cal,
		Timezone: "UTC",
		Now:      func() time.Time { return now },
	}
}

// 2026-08-31 is a Monday; the injected clock sits days earlier so the
// same-day cutoff stays out of the way.
var testNow = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func TestForDateExcludesOverlappingBookings(t *testing.T) {
	bookings := &fakeBookings{byDate: map[string][]models.Booking{
		"2026-08-31": {{BookingDate: "2026-08-31", StartTime: "11:00", EndTime: "12:00"}},
	}}
	e := newTestEngine(bookings, &fakeCatalog{hours: weekdayHours("09:00", "17:00")}, nil, testNow)

	slots, err := e.ForDate(context.Background(), "2026-08-31", 60, false, models.CalendarSettings{})
	require.NoError(t, err)

	// A 60-minute job starting at 10:30, 11:00 or 11:30 would overlap the
	// 11:00-12:00 booking; 12:00 starts exactly at its end and is fine.
	assert.NotContains(t, slots, "10:30")
	assert.NotContains(t, slots, "11:00")
	assert.NotContains(t, slots, "11:30")
	assert.Contains(t, slots, "10:00")
	assert.Contains(t, slots, "12:00")
}

func TestForDateFitsDurationBeforeClose(t *testing.T) {
	e := newTestEngine(&fakeBookings{}, &fakeCatalog{hours: weekdayHours("09:00", "17:00")}, nil, testNow)

	slots, err := e.ForDate(context.Background(), "2026-08-31", 60, false, models.CalendarSettings{})
	require.NoError(t, err)

	assert.Contains(t, slots, "16:00", "the last slot whose end touches closing is allowed")
	assert.NotContains(t, slots, "16:30", "a slot ending past closing is not")
}

func TestForDateClosedDay(t *testing.T) {
	e := newTestEngine(&fakeBookings{}, &fakeCatalog{hours: weekdayHours("09:00", "17:00")}, nil, testNow)

	// 2026-08-30 is a Sunday with no configured hours.
	slots, err := e.ForDate(context.Background(), "2026-08-30", 60, false, models.CalendarSettings{})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestForDateSameDayExcludesPastSlots(t *testing.T) {
	now := time.Date(2026, 8, 27, 13, 5, 0, 0, time.UTC) // a Thursday
	e := newTestEngine(&fakeBookings{}, &fakeCatalog{hours: weekdayHours("09:00", "17:00")}, nil, now)

	slots, err := e.ForDate(context.Background(), "2026-08-27", 60, false, models.CalendarSettings{})
	require.NoError(t, err)

	assert.NotContains(t, slots, "13:00")
	assert.Contains(t, slots, "13:30")
}

func TestForDateIntersectsExternalFreeSlots(t *testing.T) {
	cal := &fakeCalendar{free: calendar.FreeSlots{
		"2026-08-31": {"09:00", "14:00"},
	}}
	e := newTestEngine(&fakeBookings{}, &fakeCatalog{hours: weekdayHours("09:00", "17:00")}, cal, testNow)

	slots, err := e.ForDate(context.Background(), "2026-08-31", 60, true, models.CalendarSettings{Enabled: true})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"09:00", "14:00"}, slots)
}

func TestForRangeSingleExternalQuery(t *testing.T) {
	cal := &fakeCalendar{free: calendar.FreeSlots{}}
	e := newTestEngine(&fakeBookings{}, &fakeCatalog{hours: weekdayHours("09:00", "17:00")}, cal, testNow)

	days, err := e.ForRange(context.Background(), "2026-08-31", "2026-09-04", 60, true, models.CalendarSettings{Enabled: true})
	require.NoError(t, err)

	assert.Len(t, days, 5)
	assert.Equal(t, 1, cal.calls, "one calendar query must cover the whole range")
}

func TestForRangeCoversWeekendAsEmpty(t *testing.T) {
	e := newTestEngine(&fakeBookings{}, &fakeCatalog{hours: weekdayHours("09:00", "17:00")}, nil, testNow)

	days, err := e.ForRange(context.Background(), "2026-08-29", "2026-08-31", 60, false, models.CalendarSettings{})
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Empty(t, days[0].Slots) // Saturday
	assert.Empty(t, days[1].Slots) // Sunday
	assert.NotEmpty(t, days[2].Slots)
}
