package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"

	"github.com/slotwise/booking-backend/internal/schedule"
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrPhoneRequired   = errors.New("phone is required")
	ErrEmailRequired   = errors.New("email is required")
	ErrServiceRequired = errors.New("service is required")

	// ErrSlotUnavailable means the requested instant was not in the
	// freshly computed slot list at booking time.
	ErrSlotUnavailable = errors.New("slot is no longer available")
)

// MissingAnswerError reports a required custom field left unanswered.
type MissingAnswerError struct {
	Question string
}

func (e MissingAnswerError) Error() string {
	return fmt.Sprintf("answer required for %q", e.Question)
}

// Locker guards the check-then-book critical section for one slot.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// BookingRequest carries everything a public booking submission
// provides.
type BookingRequest struct {
	StoreID   uuid.UUID
	StartsAt  time.Time
	Name      string
	Phone     string
	Email     string
	Notes     string
	ServiceID *uuid.UUID
	StaffID   *uuid.UUID
	Answers   map[uuid.UUID]string // custom field id -> answer
}

type Service struct {
	repo        Repository
	locker      Locker
	log         zerolog.Logger
	phoneRegion string

	// Now supplies the clock for lead-time filtering. Tests override it
	// to keep slot computation deterministic.
	Now func() time.Time
}

func NewService(repo Repository, locker Locker, log zerolog.Logger, phoneRegion string) *Service {
	return &Service{
		repo:        repo,
		locker:      locker,
		log:         log,
		phoneRegion: phoneRegion,
		Now:         time.Now,
	}
}

// AvailableSlots computes the bookable "HH:MM" start times for a store
// on the given date, optionally for a specific service and staff
// member.
func (s *Service) AvailableSlots(ctx context.Context, storeID uuid.UUID, date time.Time, serviceID, staffID *uuid.UUID) ([]string, error) {
	store, err := s.repo.GetStoreByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	duration, err := s.resolveDuration(ctx, store, serviceID)
	if err != nil {
		return nil, err
	}

	staffID, err = s.resolveStaffScope(ctx, store, staffID)
	if err != nil {
		return nil, err
	}

	busy, err := s.busyInstants(ctx, store, date)
	if err != nil {
		return nil, err
	}

	return schedule.AvailableSlots(store.Policy(), date, duration, staffID, busy, s.Now()), nil
}

// Book validates and persists a public booking. Validation failures come
// back as sentinel errors so the HTTP layer can map each to its own
// message; the appointment and any client mutation only happen once the
// requested instant is confirmed free.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	store, err := s.repo.GetStoreByID(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	phone := s.normalizePhone(req.Phone)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if store.RequireClientName && name == "" {
		return nil, ErrNameRequired
	}
	if store.RequireClientPhone && phone == "" {
		return nil, ErrPhoneRequired
	}
	if store.RequireClientEmail && email == "" {
		return nil, ErrEmailRequired
	}

	var service *StoreService
	duration := 0
	if store.RequireService {
		if req.ServiceID == nil {
			return nil, ErrServiceRequired
		}
		service, err = s.storeService(ctx, store.ID, *req.ServiceID)
		if err != nil {
			return nil, err
		}
		if service.DurationMinutes != nil {
			duration = *service.DurationMinutes
		}
	}

	staffID, err := s.resolveStaffScope(ctx, store, req.StaffID)
	if err != nil {
		return nil, err
	}

	if err := s.checkRequiredAnswers(ctx, store.ID, req.Answers); err != nil {
		return nil, err
	}

	lockKey := slotLockKey(store.ID, staffID, req.StartsAt)

	var created *Appointment
	err = s.locker.WithLock(ctx, lockKey, func(lockCtx context.Context) error {
		// Re-check availability inside the critical section to close the
		// window between a client fetching slots and submitting.
		busy, err := s.busyInstants(lockCtx, store, req.StartsAt)
		if err != nil {
			return err
		}
		slots := schedule.AvailableSlots(store.Policy(), req.StartsAt, duration, staffID, busy, s.Now())
		want := req.StartsAt.Format("15:04")
		if !contains(slots, want) {
			return ErrSlotUnavailable
		}

		client, err := s.resolveClient(lockCtx, store.ID, name, phone, email)
		if err != nil {
			return err
		}

		appt := &Appointment{
			StoreID:  store.ID,
			ClientID: client.ID,
			StaffID:  staffID,
			StartsAt: req.StartsAt,
			Status:   StatusScheduled,
			Notes:    strings.TrimSpace(req.Notes),
		}
		if service != nil {
			appt.ServiceID = &service.ID
		}

		answers := make([]CustomFieldAnswer, 0, len(req.Answers))
		for fieldID, answer := range req.Answers {
			answers = append(answers, CustomFieldAnswer{FieldID: fieldID, Answer: answer})
		}

		if err := s.repo.CreateAppointment(lockCtx, appt, answers); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt

		s.log.Info().
			Str("store_id", store.ID.String()).
			Str("appointment_id", appt.ID.String()).
			Time("starts_at", appt.StartsAt).
			Msg("appointment booked")
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// resolveDuration picks the occupancy length for availability queries: a
// resolvable service's duration when the store works with services, the
// slot interval otherwise (signalled as 0).
func (s *Service) resolveDuration(ctx context.Context, store *Store, serviceID *uuid.UUID) (int, error) {
	if !store.RequireService || serviceID == nil {
		return 0, nil
	}
	service, err := s.storeService(ctx, store.ID, *serviceID)
	if err != nil {
		return 0, err
	}
	if service.DurationMinutes == nil {
		return 0, nil
	}
	return *service.DurationMinutes, nil
}

// resolveStaffScope validates the selected staff member and decides
// whether conflict checking narrows to them. Stores that don't schedule
// per staff member always check store-wide.
func (s *Service) resolveStaffScope(ctx context.Context, store *Store, staffID *uuid.UUID) (*uuid.UUID, error) {
	if staffID == nil || !store.UseStaff {
		return nil, nil
	}
	m, err := s.repo.GetStaffByID(ctx, *staffID)
	if err != nil {
		return nil, err
	}
	if m.StoreID != store.ID || !m.Active {
		return nil, ErrStaffNotFound
	}
	return &m.ID, nil
}

func (s *Service) storeService(ctx context.Context, storeID, serviceID uuid.UUID) (*StoreService, error) {
	service, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if service.StoreID != storeID {
		return nil, ErrServiceNotFound
	}
	return service, nil
}

func (s *Service) busyInstants(ctx context.Context, store *Store, date time.Time) ([]schedule.BusyInstant, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	appts, err := s.repo.ListAppointmentsInRange(ctx, store.ID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	busy := make([]schedule.BusyInstant, 0, len(appts))
	for _, a := range appts {
		if a.Status == StatusCancelled {
			continue
		}
		busy = append(busy, schedule.BusyInstant{At: a.StartsAt, StaffID: a.StaffID})
	}
	return busy, nil
}

func (s *Service) checkRequiredAnswers(ctx context.Context, storeID uuid.UUID, answers map[uuid.UUID]string) error {
	fields, err := s.repo.ListCustomFieldsByStore(ctx, storeID)
	if err != nil {
		return fmt.Errorf("list custom fields: %w", err)
	}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if strings.TrimSpace(answers[f.ID]) == "" {
			return MissingAnswerError{Question: f.Question}
		}
	}
	return nil
}

// resolveClient finds the store's client by email, then phone, merging
// non-blank incoming fields over the stored record; when neither
// matches, a new client is created. Blank fields never erase data.
func (s *Service) resolveClient(ctx context.Context, storeID uuid.UUID, name, phone, email string) (*Client, error) {
	var client *Client

	if email != "" {
		c, err := s.repo.FindClientByEmail(ctx, storeID, email)
		if err != nil && !errors.Is(err, ErrClientNotFound) {
			return nil, fmt.Errorf("find client by email: %w", err)
		}
		client = c
	}
	if client == nil && phone != "" {
		c, err := s.repo.FindClientByPhone(ctx, storeID, phone)
		if err != nil && !errors.Is(err, ErrClientNotFound) {
			return nil, fmt.Errorf("find client by phone: %w", err)
		}
		client = c
	}

	if client == nil {
		client = &Client{
			StoreID: storeID,
			Name:    name,
			Phone:   phone,
			Email:   email,
		}
		if err := s.repo.CreateClient(ctx, client); err != nil {
			return nil, fmt.Errorf("create client: %w", err)
		}
		return client, nil
	}

	if name != "" {
		client.Name = name
	}
	if phone != "" {
		client.Phone = phone
	}
	if email != "" {
		client.Email = email
	}
	if err := s.repo.UpdateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

// normalizePhone reduces a phone number to E.164 so the same client is
// found no matter how they typed it. Unparseable input is kept verbatim.
func (s *Service) normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, s.phoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func slotLockKey(storeID uuid.UUID, staffID *uuid.UUID, startsAt time.Time) string {
	scope := "store"
	if staffID != nil {
		scope = staffID.String()
	}
	return fmt.Sprintf("lock:slot:%s:%s:%d", storeID, scope, startsAt.Unix())
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
