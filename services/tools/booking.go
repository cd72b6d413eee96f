package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tidybook/models"
	"tidybook/services/i18n"
	"tidybook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// createBooking is the sole write path to a real booking. It refuses to run
// before the visitor's final confirmation, takes the slot lease, re-verifies
// availability under the lease, persists the booking, and releases the lease
// on every terminal path. External calendar sync failures downgrade the
// booking to pending_sync; they never fail it.
func (d *Dispatcher) createBooking(ctx context.Context, turn *Turn, rawArgs json.RawMessage) map[string]any {
	logger := utils.GetLogger()

	var args struct {
		Date    string `json:"date"`
		Time    string `json:"time"`
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Address string `json:"address"`
	}
	_ = json.Unmarshal(rawArgs, &args)

	if !turn.BookingConfirmed {
		// The model tends to book proactively while still presenting the
		// summary; push it back to asking for an explicit yes.
		return fail("confirmation_required",
			"Do not create the booking yet. First present the summary and ask the visitor to explicitly confirm the date, time and details.")
	}

	var missing []string
	if len(turn.Mem.Cart) == 0 {
		missing = append(missing, "service")
	}
	if args.Date == "" {
		missing = append(missing, "date")
	}
	if args.Time == "" {
		missing = append(missing, "time")
	}
	if args.Name == "" {
		missing = append(missing, "name")
	}
	if args.Phone == "" {
		missing = append(missing, "phone")
	}
	if args.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return fail("missing_fields",
			fmt.Sprintf(i18n.T(turn.Lang, "missing_fields"), joinList(missing)))
	}
	if _, err := time.Parse("2006-01-02", args.Date); err != nil {
		return fail("invalid_date", "The booking date must be in YYYY-MM-DD format.")
	}
	if _, err := time.Parse("15:04", args.Time); err != nil {
		return fail("invalid_time", "The booking time must be in HH:MM 24h format.")
	}

	ownerID := turn.Conv.ID
	acquired, err := d.Leases.Acquire(ctx, args.Date, args.Time, ownerID)
	if err != nil {
		logger.Error("lease acquisition errored",
			zap.String("date", args.Date), zap.String("time", args.Time), zap.Error(err))
		turn.BookingFailed = true
		return fail("booking_error", i18n.T(turn.Lang, "booking_failed"))
	}
	if !acquired {
		turn.BookingFailed = true
		return d.slotTakenResult(ctx, turn, args.Date)
	}
	// The lease is deleted on success, failure and panic alike; abandoned
	// leases self-heal via TTL.
	defer d.Leases.Release(ctx, args.Date, args.Time, ownerID)

	duration := d.cartDuration(ctx, turn.Mem)
	useExternal := turn.Settings != nil && turn.Settings.Calendar.Enabled
	var calCfg models.CalendarSettings
	if turn.Settings != nil {
		calCfg = turn.Settings.Calendar
	}

	slots, err := d.Availability.ForDate(ctx, args.Date, duration, useExternal, calCfg)
	if err != nil {
		// Fail closed: an unreachable calendar is never "no conflict".
		logger.Error("availability recheck failed during booking",
			zap.String("date", args.Date), zap.Error(err))
		turn.BookingFailed = true
		return fail("booking_error", i18n.T(turn.Lang, "booking_failed"))
	}
	if !containsSlot(slots, args.Time) {
		turn.BookingFailed = true
		return d.slotTakenResult(ctx, turn, args.Date)
	}

	startMinutes := clockMinutes(args.Time)
	booking := &models.Booking{
		ID:             uuid.New().String(),
		ConversationID: turn.Conv.ID,
		CustomerName:   args.Name,
		CustomerPhone:  args.Phone,
		CustomerEmail:  args.Email,
		Address:        args.Address,
		Zipcode:        turn.Mem.Get(models.FieldZipcode),
		BookingDate:    args.Date,
		StartTime:      args.Time,
		EndTime:        fmt.Sprintf("%02d:%02d", (startMinutes+duration)/60, (startMinutes+duration)%60),
		Services:       append([]models.CartLine(nil), turn.Mem.Cart...),
		TotalPrice:     turn.Mem.CartTotal(),
		SyncStatus:     models.BookingConfirmed,
		CreatedAt:      time.Now(),
	}

	if err := d.Bookings.Create(ctx, booking); err != nil {
		logger.Error("failed to persist booking", zap.String("bookingId", booking.ID), zap.Error(err))
		turn.BookingFailed = true
		return fail("booking_error", i18n.T(turn.Lang, "booking_failed"))
	}

	// Calendar sync is fire-and-forget: a failure leaves the booking as
	// pending_sync, never rolls it back.
	if useExternal && d.Calendar != nil {
		eventID, err := d.Calendar.CreateAppointment(ctx, calCfg, booking)
		if err != nil {
			logger.Warn("calendar sync failed, booking marked pending_sync",
				zap.String("bookingId", booking.ID), zap.Error(err))
			if err := d.Bookings.SetSyncStatus(ctx, booking.ID, models.BookingPendingSync, ""); err != nil {
				logger.Warn("failed to mark booking pending_sync",
					zap.String("bookingId", booking.ID), zap.Error(err))
			}
			booking.SyncStatus = models.BookingPendingSync
		} else {
			if err := d.Bookings.SetSyncStatus(ctx, booking.ID, models.BookingConfirmed, eventID); err != nil {
				logger.Warn("failed to store calendar event id",
					zap.String("bookingId", booking.ID), zap.Error(err))
			}
			booking.CalendarEvent = eventID
		}
	}

	if d.Notifier != nil {
		d.Notifier.BookingCreated(ctx, booking)
	}

	turn.Mem.Set(models.FieldSelectedDate, args.Date)
	turn.Mem.Set(models.FieldSelectedTime, args.Time)
	turn.Mem.Set(models.FieldName, args.Name)
	turn.Mem.Set(models.FieldPhone, args.Phone)
	turn.Mem.Set(models.FieldAddress, args.Address)
	if args.Email != "" {
		turn.Mem.Set(models.FieldEmail, args.Email)
	}
	turn.Mem.CompleteStep("date")
	turn.BookingResult = booking
	turn.BookingFailed = false

	serviceNames := make([]string, 0, len(booking.Services))
	for _, line := range booking.Services {
		serviceNames = append(serviceNames, line.ServiceName)
	}
	return ok(map[string]any{
		"bookingId":   booking.ID,
		"date":        booking.BookingDate,
		"time":        booking.StartTime,
		"total":       booking.TotalPrice,
		"services":    serviceNames,
		"syncStatus":  booking.SyncStatus,
		"userMessage": fmt.Sprintf(i18n.T(turn.Lang, "booking_confirmed"), booking.BookingDate, booking.StartTime),
	})
}

// slotTakenResult builds the contention failure with fresh alternative
// suggestions, so the caller can retry instead of dead-ending on a bare
// error.
func (d *Dispatcher) slotTakenResult(ctx context.Context, turn *Turn, date string) map[string]any {
	duration := d.cartDuration(ctx, turn.Mem)
	useExternal := turn.Settings != nil && turn.Settings.Calendar.Enabled
	var calCfg models.CalendarSettings
	if turn.Settings != nil {
		calCfg = turn.Settings.Calendar
	}

	loc := d.businessLocation(turn)
	start, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		start = time.Now().In(loc)
	}
	end := start.AddDate(0, 0, scanDaysDefault-1)

	days, err := d.Availability.ForRange(ctx,
		start.Format("2006-01-02"), end.Format("2006-01-02"),
		duration, useExternal, calCfg)
	if err != nil {
		return fail("slot_unavailable", i18n.T(turn.Lang, "slot_taken_no_alternatives"))
	}

	var alternatives []map[string]any
	for _, day := range days {
		if len(day.Slots) == 0 {
			continue
		}
		alternatives = append(alternatives, map[string]any{
			"date":           day.Date,
			"availableSlots": pickRandomSlots(day.Slots, slotsPerDay),
		})
		if len(alternatives) >= defaultSuggestions {
			break
		}
	}
	if len(alternatives) == 0 {
		return fail("slot_unavailable", i18n.T(turn.Lang, "slot_taken_no_alternatives"))
	}

	result := fail("slot_unavailable", i18n.T(turn.Lang, "slot_taken"))
	result["alternatives"] = alternatives
	return result
}

func containsSlot(slots []string, t string) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

func clockMinutes(s string) int {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	out := items[0]
	for _, s := range items[1 : len(items)-1] {
		out += ", " + s
	}
	return out + " and " + items[len(items)-1]
}
