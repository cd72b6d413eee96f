package chat

import (
	"context"
	"encoding/json"

	"tidybook/models"
	"tidybook/services/tools"
	"tidybook/utils"

	"go.uber.org/zap"
)

// attemptAutoBooking books through the normal dispatcher path without a model
// round trip. It serves two callers: the direct path when the visitor answers
// a booking prompt affirmatively, and the fabrication safety net when the
// model claims success without a booking on record. Memory is reloaded first
// so data written by a concurrent turn still counts. Returns the tool result,
// or nil plus the missing field names when the data is simply not there yet.
func (s *Service) attemptAutoBooking(ctx context.Context, turn *tools.Turn) (map[string]any, []string) {
	logger := utils.GetLogger()

	if stored, err := s.conversations.GetByID(ctx, turn.Conv.ID); err == nil && stored != nil {
		for _, key := range []string{
			models.FieldSelectedDate, models.FieldSelectedTime,
			models.FieldName, models.FieldPhone, models.FieldEmail, models.FieldAddress,
		} {
			if turn.Mem.Get(key) == "" {
				turn.Mem.Set(key, stored.Memory.Get(key))
			}
		}
		if len(turn.Mem.Cart) == 0 {
			turn.Mem.Cart = stored.Memory.Cart
		}
	}

	date := turn.Mem.Get(models.FieldSelectedDate)
	timeOfDay := turn.Mem.Get(models.FieldSelectedTime)
	name := firstNonEmpty(turn.Mem.Get(models.FieldName), turn.Conv.VisitorName)
	phone := firstNonEmpty(turn.Mem.Get(models.FieldPhone), turn.Conv.VisitorPhone)
	email := firstNonEmpty(turn.Mem.Get(models.FieldEmail), turn.Conv.VisitorEmail)
	address := firstNonEmpty(turn.Mem.Get(models.FieldAddress), turn.Conv.VisitorAddr)

	var missing []string
	if len(turn.Mem.Cart) == 0 {
		missing = append(missing, "service")
	}
	if date == "" {
		missing = append(missing, "date")
	}
	if timeOfDay == "" {
		missing = append(missing, "time")
	}
	if name == "" {
		missing = append(missing, "name")
	}
	if phone == "" {
		missing = append(missing, "phone")
	}
	if address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		logger.Warn("reply claimed a booking that cannot be auto-created",
			zap.String("conversationId", turn.Conv.ID),
			zap.Strings("missing", missing))
		s.appendInternal(ctx, turn.Conv.ID,
			"auto-booking aborted, missing: "+joinNames(missing), nil)
		return nil, missing
	}

	raw, _ := json.Marshal(map[string]string{
		"date":    date,
		"time":    timeOfDay,
		"name":    name,
		"phone":   phone,
		"email":   email,
		"address": address,
	})
	s.appendInternal(ctx, turn.Conv.ID, "auto-booking attempt", &models.MessageMeta{
		Internal: true,
		ToolName: "create_booking",
		ToolArgs: string(raw),
	})

	turn.BookingConfirmed = true
	result := s.dispatcher.Execute(ctx, turn, "create_booking", string(raw))

	resultJSON, _ := json.Marshal(result)
	s.appendInternal(ctx, turn.Conv.ID, "auto-booking result", &models.MessageMeta{
		Internal:   true,
		ToolName:   "create_booking",
		ToolResult: string(resultJSON),
	})
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNames(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
