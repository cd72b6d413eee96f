package calendar

import (
	"context"

	"tidybook/models"
)

// FreeSlots maps "2006-01-02" dates to the "15:04" start times the external
// calendar reports as free.
type FreeSlots map[string][]string

// Client is the external calendar collaborator. Implementations must fail
// closed: an error here means "do not book", never "no conflict".
type Client interface {
	GetFreeSlots(ctx context.Context, cfg models.CalendarSettings, startDate, endDate string) (FreeSlots, error)
	CreateAppointment(ctx context.Context, cfg models.CalendarSettings, booking *models.Booking) (string, error)
	GetOrCreateContact(ctx context.Context, cfg models.CalendarSettings, name, phone, email string) (string, error)
}
