package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/slotwise/booking-backend/internal/booking"
)

// Admin endpoints for store owners: settings, catalog, staff, clients,
// the appointment book and custom booking-form fields.

type SettingsResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	LogoURL        string    `json:"logo_url"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	Active         bool      `json:"active"`

	OpenTime      string   `json:"open_time"`
	CloseTime     string   `json:"close_time"`
	SlotInterval  int      `json:"slot_interval"`
	WorkingDays   []string `json:"working_days"`
	BufferMinutes int      `json:"buffer_minutes"`

	BusinessType       string `json:"business_type"`
	RequireService     bool   `json:"require_service"`
	UseStaff           bool   `json:"use_staff"`
	RequireClientName  bool   `json:"require_client_name"`
	RequireClientPhone bool   `json:"require_client_phone"`
	RequireClientEmail bool   `json:"require_client_email"`
	ShowNotes          bool   `json:"show_notes"`

	Fields []FieldResponse `json:"fields"`
}

type UpdateStoreInfoRequest struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	LogoURL        *string `json:"logo_url"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	Active         *bool   `json:"active"`
}

type UpdateScheduleRequest struct {
	OpenTime      *string `json:"open_time"`
	CloseTime     *string `json:"close_time"`
	SlotInterval  *int    `json:"slot_interval"`
	WorkingDays   *string `json:"working_days"` // ISO weekday CSV
	BufferMinutes *int    `json:"buffer_minutes"`
}

type UpdateBookingRulesRequest struct {
	BusinessType       *string `json:"business_type"`
	RequireService     *bool   `json:"require_service"`
	UseStaff           *bool   `json:"use_staff"`
	RequireClientName  *bool   `json:"require_client_name"`
	RequireClientPhone *bool   `json:"require_client_phone"`
	RequireClientEmail *bool   `json:"require_client_email"`
	ShowNotes          *bool   `json:"show_notes"`
}

type ServiceRequest struct {
	Name            string          `json:"name"`
	DurationMinutes *int            `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"`
}

type StaffRequest struct {
	Name   string  `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Active *bool   `json:"active"`
}

type FieldRequest struct {
	Question   string `json:"question"`
	AnswerType string `json:"answer_type"`
	Required   bool   `json:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ClientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings

func getSettingsHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}

		fields, err := repo.ListCustomFieldsByStore(r.Context(), store.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := SettingsResponse{
			ID:                 store.ID,
			Name:               store.Name,
			Phone:              store.Phone,
			Email:              store.Email,
			LogoURL:            store.LogoURL,
			PrimaryColor:       store.PrimaryColor,
			SecondaryColor:     store.SecondaryColor,
			Active:             store.Active,
			OpenTime:           store.OpenTime,
			CloseTime:          store.CloseTime,
			SlotInterval:       store.SlotInterval,
			WorkingDays:        splitDays(store.WorkingDays),
			BufferMinutes:      store.BufferMinutes,
			BusinessType:       store.BusinessType,
			RequireService:     store.RequireService,
			UseStaff:           store.UseStaff,
			RequireClientName:  store.RequireClientName,
			RequireClientPhone: store.RequireClientPhone,
			RequireClientEmail: store.RequireClientEmail,
			ShowNotes:          store.ShowNotes,
			Fields:             []FieldResponse{},
		}
		for _, f := range fields {
			resp.Fields = append(resp.Fields, FieldResponse{ID: f.ID, Question: f.Question, AnswerType: f.AnswerType, Required: f.Required})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func updateStoreInfoHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}

		var req UpdateStoreInfoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		setString(&store.Name, req.Name)
		setString(&store.Phone, req.Phone)
		setString(&store.Email, req.Email)
		setString(&store.LogoURL, req.LogoURL)
		setString(&store.PrimaryColor, req.PrimaryColor)
		setString(&store.SecondaryColor, req.SecondaryColor)
		if req.Active != nil {
			store.Active = *req.Active
		}

		saveStore(w, r, repo, store)
	}
}

func updateScheduleHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}

		var req UpdateScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		setString(&store.OpenTime, req.OpenTime)
		setString(&store.CloseTime, req.CloseTime)
		setString(&store.WorkingDays, req.WorkingDays)
		if req.SlotInterval != nil {
			store.SlotInterval = *req.SlotInterval
		}
		if req.BufferMinutes != nil {
			store.BufferMinutes = *req.BufferMinutes
		}

		saveStore(w, r, repo, store)
	}
}

func updateBookingRulesHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}

		var req UpdateBookingRulesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		setString(&store.BusinessType, req.BusinessType)
		setBool(&store.RequireService, req.RequireService)
		setBool(&store.UseStaff, req.UseStaff)
		setBool(&store.RequireClientName, req.RequireClientName)
		setBool(&store.RequireClientPhone, req.RequireClientPhone)
		setBool(&store.RequireClientEmail, req.RequireClientEmail)
		setBool(&store.ShowNotes, req.ShowNotes)

		saveStore(w, r, repo, store)
	}
}

// Services

func listServicesHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}
		services, err := repo.ListServicesByStore(r.Context(), store.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		resp := make([]ServiceResponse, 0, len(services))
		for _, s := range services {
			resp = append(resp, toServiceResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createServiceHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}

		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name_required", "service name is required")
			return
		}

		svc := &booking.StoreService{
			StoreID:         store.ID,
			Name:            strings.TrimSpace(req.Name),
			DurationMinutes: req.DurationMinutes,
			Price:           req.Price,
		}
		if err := repo.CreateService(r.Context(), svc); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, toServiceResponse(*svc))
	}
}

func updateServiceHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "id must be a valid UUID")
			return
		}

		svc, err := repo.GetServiceByID(r.Context(), id)
		if err != nil {
			handleAdminError(w, err)
			return
		}

		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if name := strings.TrimSpace(req.Name); name != "" {
			svc.Name = name
		}
		if req.DurationMinutes != nil {
			svc.DurationMinutes = req.DurationMinutes
		}
		if !req.Price.IsZero() {
			svc.Price = req.Price
		}

		if err := repo.UpdateService(r.Context(), svc); err != nil {
			handleAdminError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toServiceResponse(*svc))
	}
}

func deleteServiceHandler(repo booking.Repository) http.HandlerFunc {
	return deleteByIDHandler("invalid_service_id", repo.DeleteService)
}

// Staff

func listStaffHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}
		staff, err := repo.ListStaffByStore(r.Context(), store.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		resp := make([]StaffResponse, 0, len(staff))
		for _, m := range staff {
			resp = append(resp, StaffResponse{ID: m.ID, Name: m.Name, Active: m.Active})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createStaffHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}

		var req StaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name_required", "staff name is required")
			return
		}

		m := &booking.StaffMember{
			StoreID: store.ID,
			Name:    strings.TrimSpace(req.Name),
			Email:   req.Email,
			Phone:   req.Phone,
			Active:  true,
		}
		if req.Active != nil {
			m.Active = *req.Active
		}
		if err := repo.CreateStaff(r.Context(), m); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, StaffResponse{ID: m.ID, Name: m.Name, Active: m.Active})
	}
}

func updateStaffHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "id must be a valid UUID")
			return
		}

		m, err := repo.GetStaffByID(r.Context(), id)
		if err != nil {
			handleAdminError(w, err)
			return
		}

		var req StaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if name := strings.TrimSpace(req.Name); name != "" {
			m.Name = name
		}
		if req.Email != nil {
			m.Email = req.Email
		}
		if req.Phone != nil {
			m.Phone = req.Phone
		}
		if req.Active != nil {
			m.Active = *req.Active
		}

		if err := repo.UpdateStaff(r.Context(), m); err != nil {
			handleAdminError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, StaffResponse{ID: m.ID, Name: m.Name, Active: m.Active})
	}
}

func deleteStaffHandler(repo booking.Repository) http.HandlerFunc {
	return deleteByIDHandler("invalid_staff_id", repo.DeleteStaff)
}

// Clients

func listClientsHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}
		clients, err := repo.ListClientsByStore(r.Context(), store.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		resp := make([]ClientResponse, 0, len(clients))
		for _, c := range clients {
			resp = append(resp, ClientResponse{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, Notes: c.Notes, CreatedAt: c.CreatedAt})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getClientHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "id must be a valid UUID")
			return
		}
		c, err := repo.GetClientByID(r.Context(), id)
		if err != nil {
			handleAdminError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ClientResponse{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, Notes: c.Notes, CreatedAt: c.CreatedAt})
	}
}

// Appointments

func listAppointmentsHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}

		day, err := time.ParseInLocation(dateLayout, r.URL.Query().Get("date"), time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		details, err := repo.ListAppointmentDetailsByDate(r.Context(), store.ID, day)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentDetailResponse, 0, len(details))
		for _, d := range details {
			item := AppointmentDetailResponse{AppointmentResponse: toAppointmentResponse(&d.Appointment)}
			if d.Client != nil {
				item.ClientName = d.Client.Name
			}
			if d.Service != nil {
				item.ServiceName = d.Service.Name
			}
			if d.Staff != nil {
				item.StaffName = d.Staff.Name
			}
			resp = append(resp, item)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

var allowedStatuses = map[booking.AppointmentStatus]bool{
	booking.StatusScheduled: true,
	booking.StatusConfirmed: true,
	booking.StatusCompleted: true,
	booking.StatusCancelled: true,
}

func updateAppointmentStatusHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		status := booking.AppointmentStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if !allowedStatuses[status] {
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be scheduled, confirmed, completed or cancelled")
			return
		}

		appt, err := repo.UpdateAppointmentStatus(r.Context(), id, status)
		if err != nil {
			handleAdminError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// Custom fields

func listFieldsHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}
		fields, err := repo.ListCustomFieldsByStore(r.Context(), store.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		resp := make([]FieldResponse, 0, len(fields))
		for _, f := range fields {
			resp = append(resp, FieldResponse{ID: f.ID, Question: f.Question, AnswerType: f.AnswerType, Required: f.Required})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createFieldHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromPath(w, r, repo)
		if !ok {
			return
		}

		var req FieldRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			writeError(w, http.StatusBadRequest, "question_required", "field question is required")
			return
		}
		answerType := strings.TrimSpace(req.AnswerType)
		if answerType == "" {
			answerType = "text"
		}

		f := &booking.CustomField{
			StoreID:    store.ID,
			Question:   strings.TrimSpace(req.Question),
			AnswerType: answerType,
			Required:   req.Required,
		}
		if err := repo.CreateCustomField(r.Context(), f); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, FieldResponse{ID: f.ID, Question: f.Question, AnswerType: f.AnswerType, Required: f.Required})
	}
}

func deleteFieldHandler(repo booking.Repository) http.HandlerFunc {
	return deleteByIDHandler("invalid_field_id", repo.DeleteCustomField)
}

// Helpers

func storeFromPath(w http.ResponseWriter, r *http.Request, repo booking.Repository) (*booking.Store, bool) {
	storeID, err := uuid.Parse(chi.URLParam(r, "storeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_store_id", "store id must be a valid UUID")
		return nil, false
	}
	store, err := repo.GetStoreByID(r.Context(), storeID)
	if err != nil {
		handleAdminError(w, err)
		return nil, false
	}
	return store, true
}

func saveStore(w http.ResponseWriter, r *http.Request, repo booking.Repository, store *booking.Store) {
	if err := repo.UpdateStore(r.Context(), store); err != nil {
		handleAdminError(w, err)
		return
	}
	getSettingsHandler(repo).ServeHTTP(w, r)
}

func deleteByIDHandler(invalidCode string, del func(ctx context.Context, id uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, invalidCode, "id must be a valid UUID")
			return
		}
		if err := del(r.Context(), id); err != nil {
			handleAdminError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrStoreNotFound),
		errors.Is(err, booking.ErrServiceNotFound),
		errors.Is(err, booking.ErrStaffNotFound),
		errors.Is(err, booking.ErrClientNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, booking.ErrFieldNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func splitDays(csv string) []string {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return []string{}
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
