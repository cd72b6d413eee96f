package lease

import (
	"context"
	"sync"
	"testing"
	"time"

	leaseRepo "tidybook/database/repository/lease"
	"tidybook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLeaseRepo is an in-memory LeaseRepository with the same atomic
// insert-if-absent contract as the Mongo unique index.
type fakeLeaseRepo struct {
	mu     sync.Mutex
	leases map[string]models.TimeSlotLease
}

func newFakeLeaseRepo() *fakeLeaseRepo {
	return &fakeLeaseRepo{leases: map[string]models.TimeSlotLease{}}
}

func key(date, startTime string) string { return date + "|" + startTime }

func (r *fakeLeaseRepo) Find(_ context.Context, date, startTime string) (*models.TimeSlotLease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.leases[key(date, startTime)]; ok {
		copied := l
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeLeaseRepo) Insert(_ context.Context, lease models.TimeSlotLease) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(lease.BookingDate, lease.StartTime)
	if _, exists := r.leases[k]; exists {
		return leaseRepo.ErrDuplicateLease
	}
	r.leases[k] = lease
	return nil
}

func (r *fakeLeaseRepo) Renew(_ context.Context, date, startTime, ownerID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.leases[key(date, startTime)]
	l.OwnerID = ownerID
	l.ExpiresAt = expiresAt
	r.leases[key(date, startTime)] = l
	return nil
}

func (r *fakeLeaseRepo) Delete(_ context.Context, date, startTime string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.leases, key(date, startTime))
	return nil
}

func (r *fakeLeaseRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, l := range r.leases {
		if l.Expired(now) {
			delete(r.leases, k)
			n++
		}
	}
	return n, nil
}

func TestAcquireFreshSlot(t *testing.T) {
	m := NewManager(newFakeLeaseRepo(), time.Minute)

	acquired, err := m.Acquire(context.Background(), "2026-09-01", "10:00", "conv-a")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestAcquireHeldByOtherOwnerFails(t *testing.T) {
	m := NewManager(newFakeLeaseRepo(), time.Minute)
	ctx := context.Background()

	acquired, err := m.Acquire(ctx, "2026-09-01", "10:00", "conv-a")
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = m.Acquire(ctx, "2026-09-01", "10:00", "conv-b")
	require.NoError(t, err)
	assert.False(t, acquired, "a held lease must refuse a different owner without error")
}

func TestAcquireSameOwnerRenews(t *testing.T) {
	repo := newFakeLeaseRepo()
	m := NewManager(repo, time.Minute)
	ctx := context.Background()

	acquired, err := m.Acquire(ctx, "2026-09-01", "10:00", "conv-a")
	require.NoError(t, err)
	require.True(t, acquired)
	first, err := repo.Find(ctx, "2026-09-01", "10:00")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	acquired, err = m.Acquire(ctx, "2026-09-01", "10:00", "conv-a")
	require.NoError(t, err)
	assert.True(t, acquired)

	renewed, err := repo.Find(ctx, "2026-09-01", "10:00")
	require.NoError(t, err)
	assert.True(t, renewed.ExpiresAt.After(first.ExpiresAt), "re-acquire by the owner must extend the TTL")
}

func TestAcquireExpiredLeaseIsTakenOver(t *testing.T) {
	repo := newFakeLeaseRepo()
	m := NewManager(repo, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, models.TimeSlotLease{
		BookingDate: "2026-09-01",
		StartTime:   "10:00",
		OwnerID:     "conv-dead",
		ExpiresAt:   time.Now().Add(-time.Second),
	}))

	acquired, err := m.Acquire(ctx, "2026-09-01", "10:00", "conv-b")
	require.NoError(t, err)
	assert.True(t, acquired, "an expired lease must not block a new owner")

	current, err := repo.Find(ctx, "2026-09-01", "10:00")
	require.NoError(t, err)
	assert.Equal(t, "conv-b", current.OwnerID)
}

func TestReleaseThenReacquire(t *testing.T) {
	m := NewManager(newFakeLeaseRepo(), time.Minute)
	ctx := context.Background()

	acquired, err := m.Acquire(ctx, "2026-09-01", "10:00", "conv-a")
	require.NoError(t, err)
	require.True(t, acquired)

	m.Release(ctx, "2026-09-01", "10:00", "conv-a")

	acquired, err = m.Acquire(ctx, "2026-09-01", "10:00", "conv-b")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	m := NewManager(newFakeLeaseRepo(), time.Minute)
	ctx := context.Background()

	const contenders = 16
	var wg sync.WaitGroup
	var winners int64
	var mu sync.Mutex

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			owner := "conv-" + string(rune('a'+n))
			acquired, err := m.Acquire(ctx, "2026-09-01", "14:00", owner)
			assert.NoError(t, err)
			if acquired {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, winners, "exactly one contender may win the slot")
}

func TestSweepExpired(t *testing.T) {
	repo := newFakeLeaseRepo()
	m := NewManager(repo, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, models.TimeSlotLease{
		BookingDate: "2026-09-01", StartTime: "09:00",
		OwnerID: "a", ExpiresAt: time.Now().Add(-time.Minute),
	}))
	require.NoError(t, repo.Insert(ctx, models.TimeSlotLease{
		BookingDate: "2026-09-01", StartTime: "10:00",
		OwnerID: "b", ExpiresAt: time.Now().Add(time.Minute),
	}))

	n, err := m.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	live, err := repo.Find(ctx, "2026-09-01", "10:00")
	require.NoError(t, err)
	assert.NotNil(t, live, "unexpired leases must survive the sweep")
}
