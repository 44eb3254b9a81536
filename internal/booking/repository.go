package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStoreNotFound       = errors.New("store not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrStaffNotFound       = errors.New("staff member not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrFieldNotFound       = errors.New("custom field not found")

	// ErrSlotTaken surfaces the storage-level uniqueness of
	// (store, staff scope, start time). Two concurrent bookings for the
	// same instant produce one success and one of these.
	ErrSlotTaken = errors.New("slot already taken")
)

// Repository contains all DB interactions needed by the booking service
// and the admin API.
type Repository interface {
	// Stores
	GetStoreByID(ctx context.Context, id uuid.UUID) (*Store, error)
	UpdateStore(ctx context.Context, store *Store) error

	// Services
	ListServicesByStore(ctx context.Context, storeID uuid.UUID) ([]StoreService, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*StoreService, error)
	CreateService(ctx context.Context, svc *StoreService) error
	UpdateService(ctx context.Context, svc *StoreService) error
	DeleteService(ctx context.Context, id uuid.UUID) error

	// Staff
	ListStaffByStore(ctx context.Context, storeID uuid.UUID) ([]StaffMember, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (*StaffMember, error)
	CreateStaff(ctx context.Context, m *StaffMember) error
	UpdateStaff(ctx context.Context, m *StaffMember) error
	DeleteStaff(ctx context.Context, id uuid.UUID) error

	// Clients
	ListClientsByStore(ctx context.Context, storeID uuid.UUID) ([]Client, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error)
	FindClientByEmail(ctx context.Context, storeID uuid.UUID, email string) (*Client, error)
	FindClientByPhone(ctx context.Context, storeID uuid.UUID, phone string) (*Client, error)
	CreateClient(ctx context.Context, c *Client) error
	UpdateClient(ctx context.Context, c *Client) error

	// Appointments
	ListAppointmentsInRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]Appointment, error)
	ListAppointmentDetailsByDate(ctx context.Context, storeID uuid.UUID, day time.Time) ([]AppointmentDetail, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// CreateAppointment persists the appointment and its custom-field
	// answers atomically, assigning appt.ID. Returns ErrSlotTaken when
	// the slot uniqueness index rejects the row.
	CreateAppointment(ctx context.Context, appt *Appointment, answers []CustomFieldAnswer) error
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*Appointment, error)

	// Custom fields
	ListCustomFieldsByStore(ctx context.Context, storeID uuid.UUID) ([]CustomField, error)
	CreateCustomField(ctx context.Context, f *CustomField) error
	DeleteCustomField(ctx context.Context, id uuid.UUID) error
}
