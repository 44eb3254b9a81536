package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/slotwise/booking-backend/internal/booking"
)

type RouterConfig struct {
	Service     *booking.Service
	Repo        booking.Repository
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Log         zerolog.Logger
	Env         string
	Version     string
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public booking surface, consumed by the booking widget.
	r.Route("/public", func(r chi.Router) {
		r.Get("/stores/{storeID}", storeInfoHandler(cfg.Repo))
		r.Get("/availability", availabilityHandler(cfg.Service))
		r.Post("/bookings", createBookingHandler(cfg.Service))
	})

	// Admin surface for store owners.
	r.Route("/api", func(r chi.Router) {
		r.Route("/stores/{storeID}", func(r chi.Router) {
			r.Get("/settings", getSettingsHandler(cfg.Repo))
			r.Put("/settings/info", updateStoreInfoHandler(cfg.Repo))
			r.Put("/settings/schedule", updateScheduleHandler(cfg.Repo))
			r.Put("/settings/booking", updateBookingRulesHandler(cfg.Repo))

			r.Get("/services", listServicesHandler(cfg.Repo))
			r.Post("/services", createServiceHandler(cfg.Repo))

			r.Get("/staff", listStaffHandler(cfg.Repo))
			r.Post("/staff", createStaffHandler(cfg.Repo))

			r.Get("/clients", listClientsHandler(cfg.Repo))

			r.Get("/appointments", listAppointmentsHandler(cfg.Repo))

			r.Get("/fields", listFieldsHandler(cfg.Repo))
			r.Post("/fields", createFieldHandler(cfg.Repo))
		})

		r.Put("/services/{id}", updateServiceHandler(cfg.Repo))
		r.Delete("/services/{id}", deleteServiceHandler(cfg.Repo))

		r.Put("/staff/{id}", updateStaffHandler(cfg.Repo))
		r.Delete("/staff/{id}", deleteStaffHandler(cfg.Repo))

		r.Get("/clients/{id}", getClientHandler(cfg.Repo))

		r.Put("/appointments/{id}/status", updateAppointmentStatusHandler(cfg.Repo))

		r.Delete("/fields/{id}", deleteFieldHandler(cfg.Repo))
	})

	return r
}
