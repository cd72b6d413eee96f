package bookingRepo

import (
	"context"

	"tidybook/models"
)

// BookingRepository persists confirmed bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	ListByDate(ctx context.Context, date string) ([]models.Booking, error)
	ListByRange(ctx context.Context, startDate, endDate string) ([]models.Booking, error)
	SetSyncStatus(ctx context.Context, id, status, calendarEvent string) error
}
