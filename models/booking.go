package models

import "time"

// Booking sync statuses. A booking that persisted locally but failed to reach
// the external calendar is pending_sync, never failed.
const (
	BookingConfirmed   = "confirmed"
	BookingPendingSync = "pending_sync"
)

// Booking is a confirmed service appointment. The chat core is the sole
// legitimate writer-of-intent; a booking is only ever created under a held
// slot lease for its exact (date, startTime).
type Booking struct {
	ID             string     `bson:"id" json:"id"`
	ConversationID string     `bson:"conversation_id" json:"conversationId"`
	CustomerName   string     `bson:"customer_name" json:"customerName"`
	CustomerPhone  string     `bson:"customer_phone" json:"customerPhone"`
	CustomerEmail  string     `bson:"customer_email,omitempty" json:"customerEmail,omitempty"`
	Address        string     `bson:"address" json:"address"`
	Zipcode        string     `bson:"zipcode,omitempty" json:"zipcode,omitempty"`
	BookingDate    string     `bson:"booking_date" json:"bookingDate"` // "2006-01-02"
	StartTime      string     `bson:"start_time" json:"startTime"`     // "15:04"
	EndTime        string     `bson:"end_time" json:"endTime"`
	Services       []CartLine `bson:"services" json:"services"`
	TotalPrice     float64    `bson:"total_price" json:"totalPrice"`
	SyncStatus     string     `bson:"sync_status" json:"syncStatus"`
	CalendarEvent  string     `bson:"calendar_event,omitempty" json:"calendarEvent,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"createdAt"`
}

// TimeSlotLease is the short-TTL mutual-exclusion record that serializes
// booking creation per (bookingDate, startTime). At most one non-expired
// lease may exist per key; this is enforced by a unique index.
type TimeSlotLease struct {
	BookingDate string    `bson:"booking_date" json:"bookingDate"`
	StartTime   string    `bson:"start_time" json:"startTime"`
	OwnerID     string    `bson:"owner_id" json:"ownerId"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expiresAt"`
}

// Expired reports whether the lease TTL has elapsed.
func (l TimeSlotLease) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}
