package notification

import (
	"context"

	"tidybook/models"
)

// Notifier delivers operator-facing notifications about chat activity.
// Delivery is fire-and-forget: failures are logged and never surface to the
// visitor or roll back a booking.
type Notifier interface {
	NewConversation(ctx context.Context, conv *models.Conversation)
	BookingCreated(ctx context.Context, booking *models.Booking)
	LeadCaptured(ctx context.Context, conv *models.Conversation)
}
