package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// uniqueViolation is the Postgres error code raised by the slot
// uniqueness index on appointments.
const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Scan helpers

const storeColumns = `
	id, name, phone, email,
	primary_color, secondary_color, logo_url, active,
	open_time, close_time, slot_interval, working_days, buffer_minutes,
	business_type, require_service, use_staff,
	require_client_name, require_client_phone, require_client_email, show_notes,
	created_at, updated_at`

func scanStore(row pgx.Row) (*Store, error) {
	var s Store
	err := row.Scan(
		&s.ID, &s.Name, &s.Phone, &s.Email,
		&s.PrimaryColor, &s.SecondaryColor, &s.LogoURL, &s.Active,
		&s.OpenTime, &s.CloseTime, &s.SlotInterval, &s.WorkingDays, &s.BufferMinutes,
		&s.BusinessType, &s.RequireService, &s.UseStaff,
		&s.RequireClientName, &s.RequireClientPhone, &s.RequireClientEmail, &s.ShowNotes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanService(row pgx.Row) (*StoreService, error) {
	var s StoreService
	err := row.Scan(&s.ID, &s.StoreID, &s.Name, &s.DurationMinutes, &s.Price, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanStaff(row pgx.Row) (*StaffMember, error) {
	var m StaffMember
	err := row.Scan(&m.ID, &m.StoreID, &m.Name, &m.Email, &m.Phone, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &m, nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.StoreID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.StoreID, &a.ClientID, &a.ServiceID, &a.StaffID, &a.StartsAt, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Stores

func (r *PgRepository) GetStoreByID(ctx context.Context, id uuid.UUID) (*Store, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id)
	return scanStore(row)
}

func (r *PgRepository) UpdateStore(ctx context.Context, s *Store) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE stores
		SET name = $2, phone = $3, email = $4,
		    primary_color = $5, secondary_color = $6, logo_url = $7, active = $8,
		    open_time = $9, close_time = $10, slot_interval = $11, working_days = $12, buffer_minutes = $13,
		    business_type = $14, require_service = $15, use_staff = $16,
		    require_client_name = $17, require_client_phone = $18, require_client_email = $19, show_notes = $20,
		    updated_at = now()
		WHERE id = $1
	`, s.ID, s.Name, s.Phone, s.Email,
		s.PrimaryColor, s.SecondaryColor, s.LogoURL, s.Active,
		s.OpenTime, s.CloseTime, s.SlotInterval, s.WorkingDays, s.BufferMinutes,
		s.BusinessType, s.RequireService, s.UseStaff,
		s.RequireClientName, s.RequireClientPhone, s.RequireClientEmail, s.ShowNotes)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// Services

const serviceColumns = `id, store_id, name, duration_minutes, price, created_at, updated_at`

func (r *PgRepository) ListServicesByStore(ctx context.Context, storeID uuid.UUID) ([]StoreService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceColumns+` FROM store_services WHERE store_id = $1 ORDER BY name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StoreService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*StoreService, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM store_services WHERE id = $1`, id)
	return scanService(row)
}

func (r *PgRepository) CreateService(ctx context.Context, svc *StoreService) error {
	svc.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO store_services (id, store_id, name, duration_minutes, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`, svc.ID, svc.StoreID, svc.Name, svc.DurationMinutes, svc.Price)
	return row.Scan(&svc.CreatedAt, &svc.UpdatedAt)
}

func (r *PgRepository) UpdateService(ctx context.Context, svc *StoreService) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE store_services
		SET name = $2, duration_minutes = $3, price = $4, updated_at = now()
		WHERE id = $1
	`, svc.ID, svc.Name, svc.DurationMinutes, svc.Price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PgRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM store_services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// Staff

const staffColumns = `id, store_id, name, email, phone, active, created_at, updated_at`

func (r *PgRepository) ListStaffByStore(ctx context.Context, storeID uuid.UUID) ([]StaffMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+staffColumns+` FROM staff_members WHERE store_id = $1 ORDER BY name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StaffMember
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*StaffMember, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff_members WHERE id = $1`, id)
	return scanStaff(row)
}

func (r *PgRepository) CreateStaff(ctx context.Context, m *StaffMember) error {
	m.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO staff_members (id, store_id, name, email, phone, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`, m.ID, m.StoreID, m.Name, m.Email, m.Phone, m.Active)
	return row.Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *PgRepository) UpdateStaff(ctx context.Context, m *StaffMember) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE staff_members
		SET name = $2, email = $3, phone = $4, active = $5, updated_at = now()
		WHERE id = $1
	`, m.ID, m.Name, m.Email, m.Phone, m.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}

func (r *PgRepository) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff_members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}

// Clients

const clientColumns = `id, store_id, name, phone, email, notes, created_at, updated_at`

func (r *PgRepository) ListClientsByStore(ctx context.Context, storeID uuid.UUID) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE store_id = $1 ORDER BY name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

func (r *PgRepository) FindClientByEmail(ctx context.Context, storeID uuid.UUID, email string) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE store_id = $1 AND lower(email) = lower($2)
	`, storeID, email)
	return scanClient(row)
}

func (r *PgRepository) FindClientByPhone(ctx context.Context, storeID uuid.UUID, phone string) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE store_id = $1 AND phone = $2
	`, storeID, phone)
	return scanClient(row)
}

func (r *PgRepository) CreateClient(ctx context.Context, c *Client) error {
	c.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (id, store_id, name, phone, email, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`, c.ID, c.StoreID, c.Name, c.Phone, c.Email, c.Notes)
	return row.Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *PgRepository) UpdateClient(ctx context.Context, c *Client) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clients
		SET name = $2, phone = $3, email = $4, notes = $5, updated_at = now()
		WHERE id = $1
	`, c.ID, c.Name, c.Phone, c.Email, c.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

// Appointments

const appointmentColumns = `id, store_id, client_id, service_id, staff_id, starts_at, status, notes, created_at, updated_at`

func (r *PgRepository) ListAppointmentsInRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE store_id = $1 AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at
	`, storeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListAppointmentDetailsByDate(ctx context.Context, storeID uuid.UUID, day time.Time) ([]AppointmentDetail, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.store_id, a.client_id, a.service_id, a.staff_id, a.starts_at, a.status, a.notes, a.created_at, a.updated_at,
		       c.id, c.store_id, c.name, c.phone, c.email, c.notes, c.created_at, c.updated_at,
		       s.id, s.name, s.duration_minutes, s.price,
		       m.id, m.name
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		LEFT JOIN store_services s ON s.id = a.service_id
		LEFT JOIN staff_members m ON m.id = a.staff_id
		WHERE a.store_id = $1 AND a.starts_at >= $2 AND a.starts_at < $3
		ORDER BY a.starts_at
	`, storeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var d AppointmentDetail
		var c Client
		var svcID, staffID *uuid.UUID
		var svcName *string
		var svcDuration *int
		var svcPrice decimal.NullDecimal
		var staffName *string

		err := rows.Scan(
			&d.ID, &d.StoreID, &d.ClientID, &d.ServiceID, &d.StaffID, &d.StartsAt, &d.Status, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
			&c.ID, &c.StoreID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
			&svcID, &svcName, &svcDuration, &svcPrice,
			&staffID, &staffName,
		)
		if err != nil {
			return nil, err
		}

		d.Client = &c
		if svcID != nil {
			d.Service = &StoreService{ID: *svcID, StoreID: storeID, Name: *svcName, DurationMinutes: svcDuration}
			if svcPrice.Valid {
				d.Service.Price = svcPrice.Decimal
			}
		}
		if staffID != nil {
			d.Staff = &StaffMember{ID: *staffID, StoreID: storeID, Name: *staffName}
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment, answers []CustomFieldAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	appt.ID = uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, store_id, client_id, service_id, staff_id, starts_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at
	`, appt.ID, appt.StoreID, appt.ClientID, appt.ServiceID, appt.StaffID, appt.StartsAt, appt.Status, appt.Notes)
	if err := row.Scan(&appt.CreatedAt, &appt.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return err
	}

	for _, ans := range answers {
		_, err := tx.Exec(ctx, `
			INSERT INTO custom_field_answers (id, appointment_id, field_id, answer)
			VALUES ($1, $2, $3, $4)
		`, uuid.New(), appt.ID, ans.FieldID, ans.Answer)
		if err != nil {
			return fmt.Errorf("insert custom field answer: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, status)
	return scanAppointment(row)
}

// Custom fields

func (r *PgRepository) ListCustomFieldsByStore(ctx context.Context, storeID uuid.UUID) ([]CustomField, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, store_id, question, answer_type, required, created_at
		FROM custom_fields
		WHERE store_id = $1
		ORDER BY created_at
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CustomField
	for rows.Next() {
		var f CustomField
		if err := rows.Scan(&f.ID, &f.StoreID, &f.Question, &f.AnswerType, &f.Required, &f.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateCustomField(ctx context.Context, f *CustomField) error {
	f.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO custom_fields (id, store_id, question, answer_type, required, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING created_at
	`, f.ID, f.StoreID, f.Question, f.AnswerType, f.Required)
	return row.Scan(&f.CreatedAt)
}

func (r *PgRepository) DeleteCustomField(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM custom_fields WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFieldNotFound
	}
	return nil
}
