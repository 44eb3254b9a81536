package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/slotwise/booking-backend/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	storeID, staffIDs, serviceIDs, err := seedStore(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed store: %v", err)
	}
	clientIDs, err := seedClients(context.Background(), pool, storeID, 200)
	if err != nil {
		log.Fatalf("seed clients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, storeID, staffIDs, serviceIDs, clientIDs, 60); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Printf("seed complete, demo store: %s", storeID)
}

func seedStore(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, []uuid.UUID, []uuid.UUID, error) {
	log.Println("seeding demo store")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, nil, nil, err
	}
	defer tx.Rollback(ctx)

	storeID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO stores (
			id, name, phone, email, primary_color, secondary_color,
			active, open_time, close_time, slot_interval, working_days,
			buffer_minutes, business_type, require_service, use_staff,
			require_client_name, require_client_phone, require_client_email,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, '#1d4ed8', '#f8fafc',
			TRUE, '09:00', '18:00', 30, '1,2,3,4,5,6',
			60, 'salon', TRUE, TRUE,
			TRUE, TRUE, TRUE,
			now(), now()
		)
	`, storeID, gofakeit.Company(), gofakeit.Phone(), gofakeit.Email())
	if err != nil {
		return uuid.Nil, nil, nil, err
	}

	services := []struct {
		name     string
		duration int
		price    string
	}{
		{"Haircut", 30, "35.00"},
		{"Color", 90, "120.00"},
		{"Blowout", 45, "50.00"},
		{"Consultation", 15, "0.00"},
	}
	serviceIDs := make([]uuid.UUID, 0, len(services))
	for _, s := range services {
		id := uuid.New()
		price, _ := decimal.NewFromString(s.price)
		_, err := tx.Exec(ctx, `
			INSERT INTO store_services (id, store_id, name, duration_minutes, price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, storeID, s.name, s.duration, price)
		if err != nil {
			return uuid.Nil, nil, nil, err
		}
		serviceIDs = append(serviceIDs, id)
	}

	staffIDs := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO staff_members (id, store_id, name, email, phone, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, now(), now())
		`, id, storeID, gofakeit.Name(), gofakeit.Email(), gofakeit.Phone())
		if err != nil {
			return uuid.Nil, nil, nil, err
		}
		staffIDs = append(staffIDs, id)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO custom_fields (id, store_id, question, answer_type, required, created_at)
		VALUES ($1, $2, 'How did you hear about us?', 'text', FALSE, now())
	`, uuid.New(), storeID)
	if err != nil {
		return uuid.Nil, nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, nil, nil, err
	}

	log.Println("demo store seeded")
	return storeID, staffIDs, serviceIDs, nil
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, storeID uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO clients (id, store_id, name, phone, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, storeID, gofakeit.Name(), gofakeit.Phone(), gofakeit.Email())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("clients seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, storeID uuid.UUID, staffIDs, serviceIDs, clientIDs []uuid.UUID, days int) error {
	log.Printf("seeding appointments across %d days", days)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	statuses := []string{"scheduled", "scheduled", "confirmed", "completed"}
	day := time.Now().UTC().AddDate(0, 0, -days/2).Truncate(24 * time.Hour)

	for d := 0; d < days; d++ {
		// Sundays are closed for the demo store.
		if day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
			continue
		}

		// A handful of bookings per day on distinct staff/time pairs so
		// the slot uniqueness index never trips during seeding.
		for s, staffID := range staffIDs {
			slots := gofakeit.Number(1, 4)
			for n := 0; n < slots; n++ {
				startsAt := day.Add(time.Duration(9*60+(s*4+n)*30) * time.Minute)
				_, err := tx.Exec(ctx, `
					INSERT INTO appointments (id, store_id, client_id, service_id, staff_id, starts_at, status, notes, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, '', now(), now())
				`,
					uuid.New(), storeID,
					clientIDs[gofakeit.Number(0, len(clientIDs)-1)],
					serviceIDs[gofakeit.Number(0, len(serviceIDs)-1)],
					staffID, startsAt,
					statuses[gofakeit.Number(0, len(statuses)-1)],
				)
				if err != nil {
					return err
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}
