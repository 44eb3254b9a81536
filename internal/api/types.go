package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/slotwise/booking-backend/internal/booking"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type AvailabilityResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type FieldAnswer struct {
	FieldID string `json:"field_id"`
	Answer  string `json:"answer"`
}

type CreateBookingRequest struct {
	StoreID   string        `json:"store_id"`
	StartsAt  string        `json:"starts_at"` // "2006-01-02T15:04", store-local
	Name      string        `json:"name"`
	Phone     string        `json:"phone"`
	Email     string        `json:"email"`
	Notes     string        `json:"notes"`
	ServiceID string        `json:"service_id,omitempty"`
	StaffID   string        `json:"staff_id,omitempty"`
	Answers   []FieldAnswer `json:"answers,omitempty"`
}

type BookingResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Status        string    `json:"status"`
	StartsAt      time.Time `json:"starts_at"`
}

type StorePublicResponse struct {
	Status   string            `json:"status"`
	Message  string            `json:"message,omitempty"`
	Store    *StoreInfo        `json:"store,omitempty"`
	Services []ServiceResponse `json:"services,omitempty"`
	Staff    []StaffResponse   `json:"staff,omitempty"`
	Fields   []FieldResponse   `json:"fields,omitempty"`
}

type StoreInfo struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	LogoURL            string    `json:"logo_url,omitempty"`
	PrimaryColor       string    `json:"primary_color,omitempty"`
	SecondaryColor     string    `json:"secondary_color,omitempty"`
	RequireService     bool      `json:"require_service"`
	UseStaff           bool      `json:"use_staff"`
	RequireClientName  bool      `json:"require_client_name"`
	RequireClientPhone bool      `json:"require_client_phone"`
	RequireClientEmail bool      `json:"require_client_email"`
	ShowNotes          bool      `json:"show_notes"`
}

type ServiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
	Price           decimal.Decimal `json:"price"`
}

type StaffResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

type FieldResponse struct {
	ID         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	AnswerType string    `json:"answer_type"`
	Required   bool      `json:"required"`
}

type AppointmentResponse struct {
	ID        uuid.UUID  `json:"id"`
	ClientID  uuid.UUID  `json:"client_id"`
	ServiceID *uuid.UUID `json:"service_id,omitempty"`
	StaffID   *uuid.UUID `json:"staff_id,omitempty"`
	StartsAt  time.Time  `json:"starts_at"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes,omitempty"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	ClientName  string `json:"client_name,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	StaffName   string `json:"staff_name,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		ClientID:  a.ClientID,
		ServiceID: a.ServiceID,
		StaffID:   a.StaffID,
		StartsAt:  a.StartsAt,
		Status:    string(a.Status),
		Notes:     a.Notes,
	}
}

func toServiceResponse(s booking.StoreService) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
	}
}
