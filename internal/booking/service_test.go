package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/booking-backend/internal/booking"
)

// fakeRepo is an in-memory Repository for orchestrator tests.
type fakeRepo struct {
	stores   map[uuid.UUID]*booking.Store
	services map[uuid.UUID]*booking.StoreService
	staff    map[uuid.UUID]*booking.StaffMember
	clients  map[uuid.UUID]*booking.Client
	appts    map[uuid.UUID]*booking.Appointment
	fields   []booking.CustomField
	answers  []booking.CustomFieldAnswer

	createApptErr error
	clientWrites  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		stores:   map[uuid.UUID]*booking.Store{},
		services: map[uuid.UUID]*booking.StoreService{},
		staff:    map[uuid.UUID]*booking.StaffMember{},
		clients:  map[uuid.UUID]*booking.Client{},
		appts:    map[uuid.UUID]*booking.Appointment{},
	}
}

func (r *fakeRepo) GetStoreByID(_ context.Context, id uuid.UUID) (*booking.Store, error) {
	if s, ok := r.stores[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, booking.ErrStoreNotFound
}

func (r *fakeRepo) UpdateStore(_ context.Context, s *booking.Store) error {
	r.stores[s.ID] = s
	return nil
}

func (r *fakeRepo) ListServicesByStore(_ context.Context, storeID uuid.UUID) ([]booking.StoreService, error) {
	var out []booking.StoreService
	for _, s := range r.services {
		if s.StoreID == storeID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetServiceByID(_ context.Context, id uuid.UUID) (*booking.StoreService, error) {
	if s, ok := r.services[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, booking.ErrServiceNotFound
}

func (r *fakeRepo) CreateService(_ context.Context, svc *booking.StoreService) error {
	svc.ID = uuid.New()
	r.services[svc.ID] = svc
	return nil
}

func (r *fakeRepo) UpdateService(_ context.Context, svc *booking.StoreService) error {
	r.services[svc.ID] = svc
	return nil
}

func (r *fakeRepo) DeleteService(_ context.Context, id uuid.UUID) error {
	delete(r.services, id)
	return nil
}

func (r *fakeRepo) ListStaffByStore(_ context.Context, storeID uuid.UUID) ([]booking.StaffMember, error) {
	var out []booking.StaffMember
	for _, m := range r.staff {
		if m.StoreID == storeID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetStaffByID(_ context.Context, id uuid.UUID) (*booking.StaffMember, error) {
	if m, ok := r.staff[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, booking.ErrStaffNotFound
}

func (r *fakeRepo) CreateStaff(_ context.Context, m *booking.StaffMember) error {
	m.ID = uuid.New()
	r.staff[m.ID] = m
	return nil
}

func (r *fakeRepo) UpdateStaff(_ context.Context, m *booking.StaffMember) error {
	r.staff[m.ID] = m
	return nil
}

func (r *fakeRepo) DeleteStaff(_ context.Context, id uuid.UUID) error {
	delete(r.staff, id)
	return nil
}

func (r *fakeRepo) ListClientsByStore(_ context.Context, storeID uuid.UUID) ([]booking.Client, error) {
	var out []booking.Client
	for _, c := range r.clients {
		if c.StoreID == storeID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetClientByID(_ context.Context, id uuid.UUID) (*booking.Client, error) {
	if c, ok := r.clients[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, booking.ErrClientNotFound
}

func (r *fakeRepo) FindClientByEmail(_ context.Context, storeID uuid.UUID, email string) (*booking.Client, error) {
	for _, c := range r.clients {
		if c.StoreID == storeID && c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, booking.ErrClientNotFound
}

func (r *fakeRepo) FindClientByPhone(_ context.Context, storeID uuid.UUID, phone string) (*booking.Client, error) {
	for _, c := range r.clients {
		if c.StoreID == storeID && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, booking.ErrClientNotFound
}

func (r *fakeRepo) CreateClient(_ context.Context, c *booking.Client) error {
	c.ID = uuid.New()
	cp := *c
	r.clients[c.ID] = &cp
	r.clientWrites++
	return nil
}

func (r *fakeRepo) UpdateClient(_ context.Context, c *booking.Client) error {
	cp := *c
	r.clients[c.ID] = &cp
	r.clientWrites++
	return nil
}

func (r *fakeRepo) ListAppointmentsInRange(_ context.Context, storeID uuid.UUID, from, to time.Time) ([]booking.Appointment, error) {
	var out []booking.Appointment
	for _, a := range r.appts {
		if a.StoreID == storeID && !a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAppointmentDetailsByDate(_ context.Context, storeID uuid.UUID, day time.Time) ([]booking.AppointmentDetail, error) {
	return nil, nil
}

func (r *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*booking.Appointment, error) {
	if a, ok := r.appts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, booking.ErrAppointmentNotFound
}

func (r *fakeRepo) CreateAppointment(_ context.Context, appt *booking.Appointment, answers []booking.CustomFieldAnswer) error {
	if r.createApptErr != nil {
		return r.createApptErr
	}
	appt.ID = uuid.New()
	cp := *appt
	r.appts[appt.ID] = &cp
	for _, a := range answers {
		a.AppointmentID = appt.ID
		r.answers = append(r.answers, a)
	}
	return nil
}

func (r *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, status booking.AppointmentStatus) (*booking.Appointment, error) {
	a, ok := r.appts[id]
	if !ok {
		return nil, booking.ErrAppointmentNotFound
	}
	a.Status = status
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) ListCustomFieldsByStore(_ context.Context, storeID uuid.UUID) ([]booking.CustomField, error) {
	var out []booking.CustomField
	for _, f := range r.fields {
		if f.StoreID == storeID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateCustomField(_ context.Context, f *booking.CustomField) error {
	f.ID = uuid.New()
	r.fields = append(r.fields, *f)
	return nil
}

func (r *fakeRepo) DeleteCustomField(_ context.Context, id uuid.UUID) error {
	return nil
}

// noopLocker runs the critical section without any locking.
type noopLocker struct{}

func (noopLocker) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Test fixtures

var bookAt = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC) // Wednesday 10:00

func testStore() *booking.Store {
	return &booking.Store{
		ID:                uuid.New(),
		Name:              "Corner Barbershop",
		Active:            true,
		OpenTime:          "09:00",
		CloseTime:         "18:00",
		SlotInterval:      30,
		RequireClientName: true,
	}
}

func newTestService(repo *fakeRepo) *booking.Service {
	svc := booking.NewService(repo, noopLocker{}, zerolog.Nop(), "US")
	svc.Now = func() time.Time {
		return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestBook_CreatesAppointmentAndClient(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	repo.stores[store.ID] = store
	svc := newTestService(repo)

	appt, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID:  store.ID,
		StartsAt: bookAt,
		Name:     "Ana Souza",
		Phone:    "+14155550100",
		Email:    "Ana@Example.com",
		Notes:    "first visit",
	})
	require.NoError(t, err)

	assert.Equal(t, booking.StatusScheduled, appt.Status)
	assert.Equal(t, bookAt, appt.StartsAt)

	client, err := repo.GetClientByID(context.Background(), appt.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", client.Name)
	assert.Equal(t, "ana@example.com", client.Email, "email is lowercased")
}

func TestBook_RequiredClientFieldsInOrder(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	store.RequireClientPhone = true
	store.RequireClientEmail = true
	repo.stores[store.ID] = store
	svc := newTestService(repo)

	cases := []struct {
		name string
		req  booking.BookingRequest
		want error
	}{
		{"all blank rejects on name first", booking.BookingRequest{}, booking.ErrNameRequired},
		{"name set rejects on phone", booking.BookingRequest{Name: "Ana"}, booking.ErrPhoneRequired},
		{"name and phone set rejects on email", booking.BookingRequest{Name: "Ana", Phone: "+14155550100"}, booking.ErrEmailRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.StoreID = store.ID
			tc.req.StartsAt = bookAt
			_, err := svc.Book(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBook_ServiceRequired(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	store.RequireService = true
	repo.stores[store.ID] = store

	otherStore := testStore()
	repo.stores[otherStore.ID] = otherStore
	foreign := &booking.StoreService{StoreID: otherStore.ID, Name: "Trim"}
	require.NoError(t, repo.CreateService(context.Background(), foreign))

	svc := newTestService(repo)

	_, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: bookAt, Name: "Ana",
	})
	assert.ErrorIs(t, err, booking.ErrServiceRequired)

	unknown := uuid.New()
	_, err = svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: bookAt, Name: "Ana", ServiceID: &unknown,
	})
	assert.ErrorIs(t, err, booking.ErrServiceNotFound)

	// A service belonging to a different store is treated as unknown.
	_, err = svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: bookAt, Name: "Ana", ServiceID: &foreign.ID,
	})
	assert.ErrorIs(t, err, booking.ErrServiceNotFound)
}

func TestBook_SlotNoLongerAvailable(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	repo.stores[store.ID] = store
	svc := newTestService(repo)

	// First booking takes 10:00.
	_, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: bookAt, Name: "Ana",
	})
	require.NoError(t, err)

	apptsBefore := len(repo.appts)
	writesBefore := repo.clientWrites

	_, err = svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: bookAt, Name: "Bruno",
	})
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
	assert.Len(t, repo.appts, apptsBefore, "no appointment persisted")
	assert.Equal(t, writesBefore, repo.clientWrites, "no client mutation on rejection")
}

func TestBook_OutsideGridRejected(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	repo.stores[store.ID] = store
	svc := newTestService(repo)

	// 10:15 is not on the 30-minute grid.
	offGrid := time.Date(2026, time.March, 4, 10, 15, 0, 0, time.UTC)
	_, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: offGrid, Name: "Ana",
	})
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
}

func TestBook_ClientMergeOnWrite(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	repo.stores[store.ID] = store
	svc := newTestService(repo)

	existing := &booking.Client{
		StoreID: store.ID,
		Name:    "Ana S.",
		Phone:   "+14155550100",
		Email:   "ana@example.com",
	}
	require.NoError(t, repo.CreateClient(context.Background(), existing))

	// Same email, new name, blank phone: name updates, phone survives.
	appt, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID:  store.ID,
		StartsAt: bookAt,
		Name:     "Ana Souza",
		Email:    "ana@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, appt.ClientID, "matched the existing client")
	merged, err := repo.GetClientByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", merged.Name)
	assert.Equal(t, "+14155550100", merged.Phone, "blank phone must not erase the stored one")
}

func TestBook_PhoneNormalizedBeforeLookup(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	repo.stores[store.ID] = store
	svc := newTestService(repo)

	existing := &booking.Client{StoreID: store.ID, Name: "Ana", Phone: "+14155550100"}
	require.NoError(t, repo.CreateClient(context.Background(), existing))

	appt, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID:  store.ID,
		StartsAt: bookAt,
		Name:     "Ana",
		Phone:    "(415) 555-0100",
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, appt.ClientID, "formatted number resolves to the same client")
	assert.Len(t, repo.clients, 1)
}

func TestBook_RequiredCustomFieldMissing(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	repo.stores[store.ID] = store

	field := &booking.CustomField{StoreID: store.ID, Question: "Allergies?", AnswerType: "text", Required: true}
	require.NoError(t, repo.CreateCustomField(context.Background(), field))

	svc := newTestService(repo)

	_, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: bookAt, Name: "Ana",
	})
	var missing booking.MissingAnswerError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Allergies?", missing.Question)

	appt, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID:  store.ID,
		StartsAt: bookAt,
		Name:     "Ana",
		Answers:  map[uuid.UUID]string{field.ID: "none"},
	})
	require.NoError(t, err)
	require.Len(t, repo.answers, 1)
	assert.Equal(t, appt.ID, repo.answers[0].AppointmentID)
	assert.Equal(t, "none", repo.answers[0].Answer)
}

func TestBook_StorageConflictSurfaces(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	repo.stores[store.ID] = store
	repo.createApptErr = booking.ErrSlotTaken
	svc := newTestService(repo)

	_, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: bookAt, Name: "Ana",
	})
	assert.ErrorIs(t, err, booking.ErrSlotTaken)
}

func TestBook_StaffFromAnotherStore(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	store.UseStaff = true
	repo.stores[store.ID] = store

	otherStore := testStore()
	repo.stores[otherStore.ID] = otherStore
	foreign := &booking.StaffMember{StoreID: otherStore.ID, Name: "Bruno", Active: true}
	require.NoError(t, repo.CreateStaff(context.Background(), foreign))

	svc := newTestService(repo)

	_, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: bookAt, Name: "Ana", StaffID: &foreign.ID,
	})
	assert.ErrorIs(t, err, booking.ErrStaffNotFound)
}

func TestAvailableSlots_StoreNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo())
	_, err := svc.AvailableSlots(context.Background(), uuid.New(), bookAt, nil, nil)
	assert.ErrorIs(t, err, booking.ErrStoreNotFound)
}

func TestAvailableSlots_StaffScopedCalendar(t *testing.T) {
	repo := newFakeRepo()
	store := testStore()
	store.UseStaff = true
	store.CloseTime = "11:00"
	repo.stores[store.ID] = store

	alice := &booking.StaffMember{StoreID: store.ID, Name: "Alice", Active: true}
	bob := &booking.StaffMember{StoreID: store.ID, Name: "Bob", Active: true}
	require.NoError(t, repo.CreateStaff(context.Background(), alice))
	require.NoError(t, repo.CreateStaff(context.Background(), bob))

	svc := newTestService(repo)

	// Bob is busy at 10:00; Alice's calendar is unaffected.
	_, err := svc.Book(context.Background(), booking.BookingRequest{
		StoreID: store.ID, StartsAt: bookAt, Name: "Carla", StaffID: &bob.ID,
	})
	require.NoError(t, err)

	aliceSlots, err := svc.AvailableSlots(context.Background(), store.ID, bookAt, nil, &alice.ID)
	require.NoError(t, err)
	assert.Contains(t, aliceSlots, "10:00")

	bobSlots, err := svc.AvailableSlots(context.Background(), store.ID, bookAt, nil, &bob.ID)
	require.NoError(t, err)
	assert.NotContains(t, bobSlots, "10:00")
}
