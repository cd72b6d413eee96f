package tools

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"tidybook/models"
	"tidybook/services/availability"
	"tidybook/utils"

	"go.uber.org/zap"
)

const (
	defaultSuggestions = 3
	maxSuggestionsCap  = 5
	slotsPerDay        = 4
	scanDaysDefault    = 10
	scanDaysSpecific   = 5
	defaultDurationMin = 60
)

// pickRandomSlots keeps responses short without biasing toward one end of the
// day in source order: deterministic, sort ascending and take the first n.
func pickRandomSlots(slots []string, n int) []string {
	out := append([]string(nil), slots...)
	sort.Strings(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (d *Dispatcher) serviceDuration(ctx context.Context, serviceID string) int {
	if serviceID == "" {
		return defaultDurationMin
	}
	services, err := d.loadServices(ctx)
	if err != nil {
		return defaultDurationMin
	}
	for _, svc := range services {
		if svc.ID == serviceID && svc.DurationMinutes > 0 {
			return svc.DurationMinutes
		}
	}
	return defaultDurationMin
}

// cartDuration is the slot length of the whole cart.
func (d *Dispatcher) cartDuration(ctx context.Context, mem *models.Memory) int {
	total := 0
	for _, line := range mem.Cart {
		per := d.serviceDuration(ctx, line.ServiceID)
		total += per * line.Quantity
	}
	if total == 0 {
		return defaultDurationMin
	}
	return total
}

func (d *Dispatcher) businessLocation(turn *Turn) *time.Location {
	tz := ""
	if turn.Settings != nil {
		tz = turn.Settings.Timezone
		if turn.Settings.Calendar.Timezone != "" {
			tz = turn.Settings.Calendar.Timezone
		}
	}
	if tz == "" {
		tz = d.Availability.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (d *Dispatcher) suggestBookingDates(ctx context.Context, turn *Turn, rawArgs json.RawMessage) map[string]any {
	var args struct {
		ServiceID      string `json:"serviceId"`
		Date           string `json:"date"`
		Window         string `json:"window"`
		MaxSuggestions int    `json:"max_suggestions"`
	}
	_ = json.Unmarshal(rawArgs, &args)

	maxSuggestions := args.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = defaultSuggestions
	}
	if maxSuggestions > maxSuggestionsCap {
		maxSuggestions = maxSuggestionsCap
	}

	duration := d.serviceDuration(ctx, args.ServiceID)
	if args.ServiceID == "" && len(turn.Mem.Cart) > 0 {
		duration = d.cartDuration(ctx, turn.Mem)
	}

	loc := d.businessLocation(turn)
	today := time.Now().In(loc)
	start := today
	scanDays := scanDaysDefault

	if args.Date != "" {
		if requested, err := time.ParseInLocation("2006-01-02", args.Date, loc); err == nil {
			if requested.After(today) || requested.Format("2006-01-02") == today.Format("2006-01-02") {
				start = requested
			}
			scanDays = scanDaysSpecific
		}
	} else if strings.Contains(strings.ToLower(args.Window), "next") &&
		strings.Contains(strings.ToLower(args.Window), "week") {
		start = today.AddDate(0, 0, 7)
	}

	useExternal := turn.Settings != nil && turn.Settings.Calendar.Enabled
	var calCfg models.CalendarSettings
	if turn.Settings != nil {
		calCfg = turn.Settings.Calendar
	}

	end := start.AddDate(0, 0, scanDays-1)
	days, err := d.Availability.ForRange(ctx,
		start.Format("2006-01-02"), end.Format("2006-01-02"),
		duration, useExternal, calCfg)
	if err != nil {
		utils.GetLogger().Error("suggest_booking_dates failed", zap.Error(err))
		return fail("availability_error", "I couldn't check our availability just now. Please try again.")
	}

	var suggestions []availability.Day
	for _, day := range days {
		if len(day.Slots) == 0 {
			continue
		}
		suggestions = append(suggestions, availability.Day{
			Date:  day.Date,
			Slots: pickRandomSlots(day.Slots, slotsPerDay),
		})
		if len(suggestions) >= maxSuggestions {
			break
		}
	}

	// Remember what was shown so a bare "10am" or "yes" can be resolved next
	// turn.
	turn.Mem.LastSuggestedOptions = nil
	for _, s := range suggestions {
		turn.Mem.LastSuggestedOptions = append(turn.Mem.LastSuggestedOptions, models.SuggestedDay{
			Date:  s.Date,
			Slots: s.Slots,
		})
	}
	if len(suggestions) > 0 {
		turn.Mem.LastSuggestedDate = suggestions[0].Date
		turn.Mem.LastSuggestedSlots = suggestions[0].Slots
	}

	views := make([]map[string]any, 0, len(suggestions))
	for _, s := range suggestions {
		views = append(views, map[string]any{"date": s.Date, "availableSlots": s.Slots})
	}
	return ok(map[string]any{
		"dates":           views,
		"durationMinutes": duration,
		"noAvailability":  len(suggestions) == 0,
	})
}
