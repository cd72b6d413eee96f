package leaseRepo

import (
	"context"
	"errors"
	"time"

	"tidybook/models"
)

// ErrDuplicateLease is returned by Insert when another lease already occupies
// the (bookingDate, startTime) key. Two callers racing to insert must resolve
// to exactly one winner; the loser sees this error, not a storage failure.
var ErrDuplicateLease = errors.New("lease already exists for slot")

// LeaseRepository is the storage behind the time-slot lease manager. The
// implementation must provide an atomic insert-if-absent primitive (a
// uniqueness constraint), not an application-level check-then-insert.
type LeaseRepository interface {
	Find(ctx context.Context, date, startTime string) (*models.TimeSlotLease, error) // (nil, nil) when absent
	Insert(ctx context.Context, lease models.TimeSlotLease) error
	Renew(ctx context.Context, date, startTime, ownerID string, expiresAt time.Time) error
	Delete(ctx context.Context, date, startTime string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
