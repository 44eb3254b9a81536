package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotwise/booking-backend/internal/booking"
	redisclient "github.com/slotwise/booking-backend/internal/redis"
)

const (
	dateLayout = "2006-01-02"
	// Booking submissions carry store-local wall-clock time, no zone.
	dateTimeLayout = "2006-01-02T15:04"
)

func storeInfoHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := uuid.Parse(chi.URLParam(r, "storeID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_store_id", "store id must be a valid UUID")
			return
		}

		store, err := repo.GetStoreByID(r.Context(), storeID)
		if err != nil {
			if errors.Is(err, booking.ErrStoreNotFound) {
				writeError(w, http.StatusNotFound, "store_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		if !store.Active {
			writeJSON(w, http.StatusOK, StorePublicResponse{
				Status:  "offline",
				Message: "store is temporarily unavailable",
			})
			return
		}

		resp := StorePublicResponse{
			Status: "online",
			Store: &StoreInfo{
				ID:                 store.ID,
				Name:               store.Name,
				LogoURL:            store.LogoURL,
				PrimaryColor:       store.PrimaryColor,
				SecondaryColor:     store.SecondaryColor,
				RequireService:     store.RequireService,
				UseStaff:           store.UseStaff,
				RequireClientName:  store.RequireClientName,
				RequireClientPhone: store.RequireClientPhone,
				RequireClientEmail: store.RequireClientEmail,
				ShowNotes:          store.ShowNotes,
			},
		}

		if store.RequireService {
			services, err := repo.ListServicesByStore(r.Context(), store.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
				return
			}
			for _, s := range services {
				resp.Services = append(resp.Services, toServiceResponse(s))
			}
		}

		if store.UseStaff {
			staff, err := repo.ListStaffByStore(r.Context(), store.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
				return
			}
			for _, m := range staff {
				if m.Active {
					resp.Staff = append(resp.Staff, StaffResponse{ID: m.ID, Name: m.Name, Active: m.Active})
				}
			}
		}

		fields, err := repo.ListCustomFieldsByStore(r.Context(), store.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		for _, f := range fields {
			resp.Fields = append(resp.Fields, FieldResponse{ID: f.ID, Question: f.Question, AnswerType: f.AnswerType, Required: f.Required})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func availabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		storeID, err := uuid.Parse(q.Get("store_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_store_id", "store_id must be a valid UUID")
			return
		}

		date, err := time.ParseInLocation(dateLayout, q.Get("date"), time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		serviceID, err := optionalUUID(q.Get("service_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}
		staffID, err := optionalUUID(q.Get("staff_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), storeID, date, serviceID, staffID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		if slots == nil {
			slots = []string{}
		}
		writeJSON(w, http.StatusOK, AvailabilityResponse{
			Date:  date.Format(dateLayout),
			Slots: slots,
		})
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		storeID, err := uuid.Parse(req.StoreID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_store_id", "store_id must be a valid UUID")
			return
		}

		startsAt, err := time.ParseInLocation(dateTimeLayout, req.StartsAt, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_starts_at", "starts_at must be YYYY-MM-DDTHH:MM")
			return
		}

		serviceID, err := optionalUUID(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}
		staffID, err := optionalUUID(req.StaffID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}

		answers := make(map[uuid.UUID]string, len(req.Answers))
		for _, a := range req.Answers {
			fieldID, err := uuid.Parse(a.FieldID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_field_id", "field_id must be a valid UUID")
				return
			}
			answers[fieldID] = a.Answer
		}

		appt, err := svc.Book(r.Context(), booking.BookingRequest{
			StoreID:   storeID,
			StartsAt:  startsAt,
			Name:      req.Name,
			Phone:     req.Phone,
			Email:     req.Email,
			Notes:     req.Notes,
			ServiceID: serviceID,
			StaffID:   staffID,
			Answers:   answers,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookingResponse{
			AppointmentID: appt.ID,
			Status:        string(appt.Status),
			StartsAt:      appt.StartsAt,
		})
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	var missing booking.MissingAnswerError
	switch {
	case errors.Is(err, booking.ErrStoreNotFound):
		writeError(w, http.StatusNotFound, "store_not_found", err.Error())
	case errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, booking.ErrStaffNotFound):
		writeError(w, http.StatusNotFound, "staff_not_found", err.Error())
	case errors.Is(err, booking.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "name_required", err.Error())
	case errors.Is(err, booking.ErrPhoneRequired):
		writeError(w, http.StatusBadRequest, "phone_required", err.Error())
	case errors.Is(err, booking.ErrEmailRequired):
		writeError(w, http.StatusBadRequest, "email_required", err.Error())
	case errors.Is(err, booking.ErrServiceRequired):
		writeError(w, http.StatusBadRequest, "service_required", err.Error())
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, "answer_required", missing.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_already_taken", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func optionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
