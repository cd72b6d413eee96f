package tools

import (
	"context"
	"sync"
	"testing"
	"time"

	leaseRepo "tidybook/database/repository/lease"
	"tidybook/models"
	"tidybook/services/availability"
	"tidybook/services/lease"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogRepo struct {
	services []models.Service
	faqs     []models.FAQ
	hours    []models.BusinessHours
}

func (f *fakeCatalogRepo) ListServices(_ context.Context) ([]models.Service, error) {
	return f.services, nil
}
func (f *fakeCatalogRepo) GetServiceByID(_ context.Context, id string) (*models.Service, error) {
	for i := range f.services {
		if f.services[i].ID == id {
			return &f.services[i], nil
		}
	}
	return nil, nil
}
func (f *fakeCatalogRepo) ListFAQs(_ context.Context) ([]models.FAQ, error) { return f.faqs, nil }
func (f *fakeCatalogRepo) GetBusinessHours(_ context.Context) ([]models.BusinessHours, error) {
	return f.hours, nil
}
func (f *fakeCatalogRepo) GetIntegrationSettings(_ context.Context) (*models.IntegrationSettings, error) {
	return &models.IntegrationSettings{ChatEnabled: true}, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings []models.Booking
}

func (f *fakeBookingRepo) Create(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, *b)
	return nil
}
func (f *fakeBookingRepo) ListByDate(_ context.Context, date string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.BookingDate == date {
			out = append(out, b)
		}
	}
	return out, nil
}
func (f *fakeBookingRepo) ListByRange(_ context.Context, _, _ string) ([]models.Booking, error) {
	return nil, nil
}
func (f *fakeBookingRepo) SetSyncStatus(_ context.Context, _, _, _ string) error { return nil }

type fakeConversationRepo struct {
	contactUpdates []map[string]string
}

func (f *fakeConversationRepo) GetByID(_ context.Context, _ string) (*models.Conversation, error) {
	return nil, nil
}
func (f *fakeConversationRepo) Create(_ context.Context, _ *models.Conversation) error { return nil }
func (f *fakeConversationRepo) UpdateMemory(_ context.Context, _ string, _ models.Memory) error {
	return nil
}
func (f *fakeConversationRepo) UpdateContact(_ context.Context, _ string, fields map[string]string) error {
	f.contactUpdates = append(f.contactUpdates, fields)
	return nil
}
func (f *fakeConversationRepo) Touch(_ context.Context, _ string, _ time.Time) error { return nil }
func (f *fakeConversationRepo) MarkLeadCaptured(_ context.Context, _ string) error   { return nil }
func (f *fakeConversationRepo) Close(_ context.Context, _ string) error              { return nil }
func (f *fakeConversationRepo) ListInactiveSince(_ context.Context, _ time.Time) ([]models.Conversation, error) {
	return nil, nil
}
func (f *fakeConversationRepo) AppendMessage(_ context.Context, _ *models.Message) error { return nil }
func (f *fakeConversationRepo) GetMessages(_ context.Context, _ string, _ bool) ([]models.Message, error) {
	return nil, nil
}
func (f *fakeConversationRepo) CountNonInternal(_ context.Context, _ string) (int, error) {
	return 0, nil
}

type memLeaseRepo struct {
	mu     sync.Mutex
	leases map[string]models.TimeSlotLease
}

func newMemLeaseRepo() *memLeaseRepo {
	return &memLeaseRepo{leases: map[string]models.TimeSlotLease{}}
}

func slotKey(date, startTime string) string { return date + "|" + startTime }

func (r *memLeaseRepo) Find(_ context.Context, date, startTime string) (*models.TimeSlotLease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.leases[slotKey(date, startTime)]; ok {
		copied := l
		return &copied, nil
	}
	return nil, nil
}
func (r *memLeaseRepo) Insert(_ context.Context, l models.TimeSlotLease) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := slotKey(l.BookingDate, l.StartTime)
	if _, exists := r.leases[k]; exists {
		return leaseRepo.ErrDuplicateLease
	}
	r.leases[k] = l
	return nil
}
func (r *memLeaseRepo) Renew(_ context.Context, date, startTime, ownerID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.leases[slotKey(date, startTime)]
	l.OwnerID = ownerID
	l.ExpiresAt = expiresAt
	r.leases[slotKey(date, startTime)] = l
	return nil
}
func (r *memLeaseRepo) Delete(_ context.Context, date, startTime string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.leases, slotKey(date, startTime))
	return nil
}
func (r *memLeaseRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func (r *memLeaseRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leases)
}

func allWeekHours() []models.BusinessHours {
	hours := make([]models.BusinessHours, 0, 7)
	for wd := 0; wd < 7; wd++ {
		hours = append(hours, models.BusinessHours{Weekday: wd, Open: "09:00", Close: "17:00"})
	}
	return hours
}

type testEnv struct {
	dispatcher *Dispatcher
	bookings   *fakeBookingRepo
	leases     *memLeaseRepo
	convs      *fakeConversationRepo
}

func newTestEnv() *testEnv {
	catalog := &fakeCatalogRepo{
		services: []models.Service{
			{ID: "sofa-7", Name: "Sofa Cleaning (5-7 seater)", MinUnits: 5, MaxUnits: 7, Price: 180, DurationMinutes: 60, Active: true},
			{ID: "carpet", Name: "Carpet Cleaning", Price: 90, DurationMinutes: 60, Active: true},
		},
		hours: allWeekHours(),
	}
	bookings := &fakeBookingRepo{}
	leases := newMemLeaseRepo()
	convs := &fakeConversationRepo{}

	engine := &availability.Engine{
		Bookings: bookings,
		Catalog:  catalog,
		Timezone: "UTC",
	}

	d := NewDispatcher(Deps{
		Catalog:       catalog,
		Bookings:      bookings,
		Conversations: convs,
		Leases:        lease.NewManager(leases, time.Minute),
		Availability:  engine,
	})
	return &testEnv{dispatcher: d, bookings: bookings, leases: leases, convs: convs}
}

func newTurn(msgID string) *Turn {
	mem := models.NewMemory()
	return &Turn{
		Conv:             &models.Conversation{ID: "conv-1", Status: models.ConversationOpen},
		Mem:              &mem,
		Settings:         &models.IntegrationSettings{ChatEnabled: true},
		VisitorMessageID: msgID,
		Lang:             "en",
	}
}

func fillBookingMemory(turn *Turn, date, startTime string) {
	turn.Mem.Cart = append(turn.Mem.Cart, models.CartLine{
		ServiceID: "sofa-7", ServiceName: "Sofa Cleaning (5-7 seater)",
		UnitPrice: 180, Quantity: 1, Price: 180,
	})
	turn.Mem.Set(models.FieldSelectedDate, date)
	turn.Mem.Set(models.FieldSelectedTime, startTime)
}

func TestAddServiceMergesLines(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	turn := newTurn("msg-1")

	result := env.dispatcher.Execute(ctx, turn, "add_service", `{"serviceId":"sofa-7"}`)
	require.Equal(t, true, result["success"])

	turn.VisitorMessageID = "msg-2"
	result = env.dispatcher.Execute(ctx, turn, "add_service", `{"serviceId":"sofa-7","quantity":2}`)
	require.Equal(t, true, result["success"])
	assert.Equal(t, true, result["merged"])

	require.Len(t, turn.Mem.Cart, 1, "re-adding must merge, never duplicate the line")
	line := turn.Mem.Cart[0]
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, line.UnitPrice*float64(line.Quantity), line.Price)
	assert.Equal(t, line.Price, turn.Mem.CartTotal())
}

func TestAddServiceDedupWithinOneMessage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	turn := newTurn("msg-1")

	result := env.dispatcher.Execute(ctx, turn, "add_service", `{"serviceId":"sofa-7"}`)
	require.Equal(t, true, result["success"])

	// A heuristic retry and a model call inside the same visitor message.
	result = env.dispatcher.Execute(ctx, turn, "add_service", `{"serviceId":"sofa-7"}`)
	require.Equal(t, true, result["success"])
	assert.Equal(t, true, result["deduped"])

	require.Len(t, turn.Mem.Cart, 1)
	assert.Equal(t, 1, turn.Mem.Cart[0].Quantity)
}

func TestAddServiceByFuzzyName(t *testing.T) {
	env := newTestEnv()
	turn := newTurn("msg-1")

	result := env.dispatcher.Execute(context.Background(), turn, "add_service", `{"serviceName":"carpet"}`)
	require.Equal(t, true, result["success"])
	require.Len(t, turn.Mem.Cart, 1)
	assert.Equal(t, "carpet", turn.Mem.Cart[0].ServiceID)
}

func TestCreateBookingRequiresConfirmation(t *testing.T) {
	env := newTestEnv()
	turn := newTurn("msg-1")
	fillBookingMemory(turn, "2027-06-01", "10:00")

	result := env.dispatcher.Execute(context.Background(), turn, "create_booking",
		`{"date":"2027-06-01","time":"10:00","name":"Ana","phone":"3055550199","address":"100 Main Street"}`)

	assert.Equal(t, false, result["success"])
	assert.Equal(t, "confirmation_required", result["error"])
	assert.Empty(t, env.bookings.bookings)
}

func TestCreateBookingReportsMissingFields(t *testing.T) {
	env := newTestEnv()
	turn := newTurn("msg-1")
	turn.BookingConfirmed = true

	result := env.dispatcher.Execute(context.Background(), turn, "create_booking", `{"date":"2027-06-01"}`)

	assert.Equal(t, false, result["success"])
	assert.Equal(t, "missing_fields", result["error"])
}

func TestCreateBookingHappyPath(t *testing.T) {
	env := newTestEnv()
	turn := newTurn("msg-1")
	turn.BookingConfirmed = true
	fillBookingMemory(turn, "2027-06-01", "10:00")

	result := env.dispatcher.Execute(context.Background(), turn, "create_booking",
		`{"date":"2027-06-01","time":"10:00","name":"Ana Souza","phone":"3055550199","address":"100 Main Street"}`)

	require.Equal(t, true, result["success"])
	require.NotNil(t, turn.BookingResult)
	assert.Equal(t, "2027-06-01", turn.BookingResult.BookingDate)
	assert.Equal(t, "10:00", turn.BookingResult.StartTime)
	assert.Equal(t, "11:00", turn.BookingResult.EndTime)
	assert.Equal(t, 180.0, turn.BookingResult.TotalPrice)
	assert.Equal(t, models.BookingConfirmed, turn.BookingResult.SyncStatus)

	require.Len(t, env.bookings.bookings, 1)
	assert.Equal(t, 0, env.leases.count(), "the lease must be released after the booking commits")
}

func TestCreateBookingSlotConflictOffersAlternatives(t *testing.T) {
	env := newTestEnv()
	require.NoError(t, env.bookings.Create(context.Background(), &models.Booking{
		ID: "existing", BookingDate: "2027-06-01", StartTime: "10:00", EndTime: "11:00",
	}))

	turn := newTurn("msg-1")
	turn.BookingConfirmed = true
	fillBookingMemory(turn, "2027-06-01", "10:00")

	result := env.dispatcher.Execute(context.Background(), turn, "create_booking",
		`{"date":"2027-06-01","time":"10:00","name":"Ana","phone":"3055550199","address":"100 Main Street"}`)

	assert.Equal(t, false, result["success"])
	assert.Equal(t, "slot_unavailable", result["error"])
	assert.True(t, turn.BookingFailed)
	assert.NotEmpty(t, result["alternatives"], "a conflict must come with fresh options")
	assert.Len(t, env.bookings.bookings, 1, "no second booking may exist for the slot")
	assert.Equal(t, 0, env.leases.count())
}

func TestCreateBookingLeaseHeldByOtherConversation(t *testing.T) {
	env := newTestEnv()
	require.NoError(t, env.leases.Insert(context.Background(), models.TimeSlotLease{
		BookingDate: "2027-06-01", StartTime: "10:00",
		OwnerID: "conv-other", ExpiresAt: time.Now().Add(time.Minute),
	}))

	turn := newTurn("msg-1")
	turn.BookingConfirmed = true
	fillBookingMemory(turn, "2027-06-01", "10:00")

	result := env.dispatcher.Execute(context.Background(), turn, "create_booking",
		`{"date":"2027-06-01","time":"10:00","name":"Ana","phone":"3055550199","address":"100 Main Street"}`)

	assert.Equal(t, false, result["success"])
	assert.Equal(t, "slot_unavailable", result["error"])
	assert.Empty(t, env.bookings.bookings)
}

func TestSuggestBookingDatesCaps(t *testing.T) {
	env := newTestEnv()
	turn := newTurn("msg-1")

	result := env.dispatcher.Execute(context.Background(), turn, "suggest_booking_dates",
		`{"serviceId":"sofa-7","date":"2027-06-01","max_suggestions":10}`)
	require.Equal(t, true, result["success"])

	dates, ok := result["dates"].([]map[string]any)
	require.True(t, ok)
	assert.LessOrEqual(t, len(dates), 5, "max_suggestions is capped")
	for _, day := range dates {
		slots, ok := day["availableSlots"].([]string)
		require.True(t, ok)
		assert.LessOrEqual(t, len(slots), 4)
	}
	assert.NotEmpty(t, turn.Mem.LastSuggestedOptions,
		"suggestions must be remembered for bare time replies")
}

func TestUpdateContactWritesThrough(t *testing.T) {
	env := newTestEnv()
	turn := newTurn("msg-1")

	result := env.dispatcher.Execute(context.Background(), turn, "update_contact",
		`{"name":"Ana Souza","phone":"3055550199"}`)
	require.Equal(t, true, result["success"])

	assert.Equal(t, "Ana Souza", turn.Conv.VisitorName)
	assert.Equal(t, "Ana Souza", turn.Mem.Get(models.FieldName))
	require.Len(t, env.convs.contactUpdates, 1)
	assert.Equal(t, "3055550199", env.convs.contactUpdates[0]["visitor_phone"])
}

func TestUnknownToolFailsStructured(t *testing.T) {
	env := newTestEnv()
	turn := newTurn("msg-1")

	result := env.dispatcher.Execute(context.Background(), turn, "drop_tables", `{}`)
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "unknown_tool", result["error"])
}
