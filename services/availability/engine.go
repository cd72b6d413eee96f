package availability

import (
	"context"
	"fmt"
	"time"

	bookingRepo "tidybook/database/repository/booking"
	catalogRepo "tidybook/database/repository/catalog"
	"tidybook/models"
	"tidybook/services/calendar"
	"tidybook/utils"

	"go.uber.org/zap"
)

// SlotStepMinutes is the grid resolution of the availability engine.
const SlotStepMinutes = 30

// Day is one date's open slot start times, ascending.
type Day struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// Engine computes open time slots from business hours, existing bookings and
// an optional external calendar feed. Reads are lock-free and may be stale by
// the lease TTL window; commit-time conflicts are resolved by the lease
// manager, not here.
type Engine struct {
	Bookings bookingRepo.BookingRepository
	Catalog  catalogRepo.CatalogRepository
	Calendar calendar.Client
	Timezone string

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) location(cfg models.CalendarSettings) *time.Location {
	tz := cfg.Timezone
	if tz == "" {
		tz = e.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		utils.GetLogger().Warn("invalid business timezone, using UTC", zap.String("tz", tz))
		return time.UTC
	}
	return loc
}

// parseClock converts "15:04" to minutes from midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ForDate computes the open slot start times for a single date. Closed days
// return an empty slice. For today in the business timezone, slots at or
// before the current time are excluded. Each slot's end (start + duration)
// must fit before closing, must appear in the external calendar's free set
// when one is in use, and must not half-open-overlap any existing booking.
func (e *Engine) ForDate(ctx context.Context, date string, durationMinutes int, useExternal bool, cfg models.CalendarSettings) ([]string, error) {
	var free calendar.FreeSlots
	if useExternal && e.Calendar != nil {
		var err error
		free, err = e.Calendar.GetFreeSlots(ctx, cfg, date, date)
		if err != nil {
			return nil, fmt.Errorf("external calendar query failed: %w", err)
		}
	}
	return e.forDate(ctx, date, durationMinutes, useExternal, cfg, free)
}

func (e *Engine) forDate(ctx context.Context, date string, durationMinutes int, useExternal bool, cfg models.CalendarSettings, free calendar.FreeSlots) ([]string, error) {
	loc := e.location(cfg)
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	hours, err := e.hoursFor(ctx, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	if hours == nil || hours.Open == "" {
		return nil, nil // closed
	}
	openM, err := parseClock(hours.Open)
	if err != nil {
		return nil, err
	}
	closeM, err := parseClock(hours.Close)
	if err != nil {
		return nil, err
	}

	bookings, err := e.Bookings.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", date, err)
	}

	var freeSet map[string]bool
	if useExternal {
		freeSet = map[string]bool{}
		for _, s := range free[date] {
			freeSet[s] = true
		}
	}

	now := e.now().In(loc)
	isToday := now.Format("2006-01-02") == date
	nowMinutes := now.Hour()*60 + now.Minute()

	var slots []string
	for start := openM; start+durationMinutes <= closeM; start += SlotStepMinutes {
		if isToday && start <= nowMinutes {
			continue
		}
		startStr := formatClock(start)
		if useExternal && !freeSet[startStr] {
			continue
		}
		if overlapsAny(start, start+durationMinutes, bookings) {
			continue
		}
		slots = append(slots, startStr)
	}
	return slots, nil
}

// ForRange fans ForDate out over [startDate, endDate]. When an external
// calendar is in use and both bounds are known, one calendar query covers the
// whole span instead of one per day.
func (e *Engine) ForRange(ctx context.Context, startDate, endDate string, durationMinutes int, useExternal bool, cfg models.CalendarSettings) ([]Day, error) {
	loc := e.location(cfg)
	start, err := time.ParseInLocation("2006-01-02", startDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}

	var free calendar.FreeSlots
	if useExternal && e.Calendar != nil {
		free, err = e.Calendar.GetFreeSlots(ctx, cfg, startDate, endDate)
		if err != nil {
			return nil, fmt.Errorf("external calendar query failed: %w", err)
		}
	}

	var days []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		slots, err := e.forDate(ctx, date, durationMinutes, useExternal, cfg, free)
		if err != nil {
			utils.GetLogger().Warn("availability computation failed for day",
				zap.String("date", date), zap.Error(err))
			continue
		}
		days = append(days, Day{Date: date, Slots: slots})
	}
	return days, nil
}

func (e *Engine) hoursFor(ctx context.Context, weekday int) (*models.BusinessHours, error) {
	all, err := e.Catalog.GetBusinessHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load business hours: %w", err)
	}
	for i := range all {
		if all[i].Weekday == weekday {
			return &all[i], nil
		}
	}
	return nil, nil
}

// overlapsAny applies the half-open interval test: a candidate [start, end)
// conflicts when start < existingEnd && end > existingStart.
func overlapsAny(start, end int, bookings []models.Booking) bool {
	for _, b := range bookings {
		bStart, err1 := parseClock(b.StartTime)
		bEnd, err2 := parseClock(b.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if start < bEnd && end > bStart {
			return true
		}
	}
	return false
}
