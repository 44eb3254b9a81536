package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/slotwise/booking-backend/internal/schedule"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Store is a tenant business with its own schedule, services, staff and
// clients.
type Store struct {
	ID    uuid.UUID
	Name  string
	Phone string
	Email string

	// Branding shown on the public booking page.
	PrimaryColor   string
	SecondaryColor string
	LogoURL        string

	Active bool

	// Scheduling configuration, stored raw and normalized on demand via
	// Policy().
	OpenTime      string // "HH:MM"
	CloseTime     string // "HH:MM"
	SlotInterval  int    // minutes
	WorkingDays   string // ISO weekday CSV, "1,2,3,4,5"
	BufferMinutes int

	BusinessType   string
	RequireService bool
	UseStaff       bool

	// Which client fields are mandatory on a public booking.
	RequireClientName  bool
	RequireClientPhone bool
	RequireClientEmail bool
	ShowNotes          bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Policy resolves the store's raw scheduling configuration into the
// defaulted snapshot the slot engine consumes.
func (s *Store) Policy() schedule.Policy {
	return schedule.NewPolicy(schedule.PolicyConfig{
		Active:         s.Active,
		OpenTime:       s.OpenTime,
		CloseTime:      s.CloseTime,
		SlotInterval:   s.SlotInterval,
		BufferMinutes:  s.BufferMinutes,
		WorkingDays:    s.WorkingDays,
		RequireService: s.RequireService,
		UseStaff:       s.UseStaff,
	})
}

type StoreService struct {
	ID              uuid.UUID
	StoreID         uuid.UUID
	Name            string
	DurationMinutes *int // nil means "use the store's slot interval"
	Price           decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type StaffMember struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Client struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	Name      string
	Phone     string
	Email     string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	ClientID  uuid.UUID
	ServiceID *uuid.UUID
	StaffID   *uuid.UUID
	StartsAt  time.Time
	Status    AppointmentStatus
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomField is an extra question a store asks during booking.
type CustomField struct {
	ID         uuid.UUID
	StoreID    uuid.UUID
	Question   string
	AnswerType string // text, number, boolean, choice
	Required   bool
	CreatedAt  time.Time
}

// CustomFieldAnswer is a client's answer recorded with an appointment.
type CustomFieldAnswer struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	FieldID       uuid.UUID
	Answer        string
}

// AppointmentDetail is an appointment hydrated with its related rows for
// admin listings.
type AppointmentDetail struct {
	Appointment
	Client  *Client
	Service *StoreService
	Staff   *StaffMember
}
