package lease

import (
	"context"
	"fmt"
	"time"

	leaseRepo "tidybook/database/repository/lease"
	"tidybook/models"
	"tidybook/utils"

	"go.uber.org/zap"
)

// DefaultTTL bounds how long a booking attempt may hold a slot. A crashed
// holder self-heals via expiry, not via cleanup from the crashed caller.
const DefaultTTL = 30 * time.Second

// Manager serializes booking creation per (bookingDate, startTime). It is a
// lease, not a permanent lock: expiry always wins over a dead holder.
type Manager struct {
	Repo leaseRepo.LeaseRepository
	TTL  time.Duration
}

// NewManager creates a lease manager with the given TTL (DefaultTTL if zero).
func NewManager(repo leaseRepo.LeaseRepository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{Repo: repo, TTL: ttl}
}

// Acquire attempts to take the lease for a slot. Returns true when the caller
// now holds it: a fresh insert, or a renewal when the same owner re-acquires.
// A lease held by a different, unexpired owner returns false without error.
// Two owners racing the insert resolve to exactly one winner through the
// storage uniqueness constraint.
func (m *Manager) Acquire(ctx context.Context, date, startTime, ownerID string) (bool, error) {
	logger := utils.GetLogger()
	now := time.Now()

	existing, err := m.Repo.Find(ctx, date, startTime)
	if err != nil {
		return false, fmt.Errorf("lease lookup failed: %w", err)
	}
	if existing != nil {
		if existing.Expired(now) {
			// Stale lease from a crashed or slow holder; clear it and race for
			// the insert below.
			if err := m.Repo.Delete(ctx, date, startTime); err != nil {
				return false, fmt.Errorf("failed to clear expired lease: %w", err)
			}
		} else if existing.OwnerID == ownerID {
			if err := m.Repo.Renew(ctx, date, startTime, ownerID, now.Add(m.TTL)); err != nil {
				return false, fmt.Errorf("failed to renew lease: %w", err)
			}
			return true, nil
		} else {
			logger.Debug("slot lease held by another owner",
				zap.String("date", date), zap.String("startTime", startTime),
				zap.String("holder", existing.OwnerID))
			return false, nil
		}
	}

	lease := models.TimeSlotLease{
		BookingDate: date,
		StartTime:   startTime,
		OwnerID:     ownerID,
		ExpiresAt:   now.Add(m.TTL),
	}
	if err := m.Repo.Insert(ctx, lease); err != nil {
		if err == leaseRepo.ErrDuplicateLease {
			// Lost the insert race. Failure, not an error.
			return false, nil
		}
		return false, fmt.Errorf("failed to insert lease: %w", err)
	}
	return true, nil
}

// Release drops the lease for a slot. It is called unconditionally on every
// terminal path of a booking attempt, so it deletes by key and never fails a
// caller for a lease that is already gone.
func (m *Manager) Release(ctx context.Context, date, startTime, ownerID string) {
	if err := m.Repo.Delete(ctx, date, startTime); err != nil {
		utils.GetLogger().Warn("failed to release slot lease",
			zap.String("date", date), zap.String("startTime", startTime),
			zap.String("ownerId", ownerID), zap.Error(err))
	}
}

// SweepExpired deletes all leases past their TTL. Run periodically so a
// crashed holder cannot block a slot beyond the TTL window.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	return m.Repo.DeleteExpired(ctx, time.Now())
}
