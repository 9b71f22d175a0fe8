package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interviewflow/interviewflow/internal/db"
	"github.com/interviewflow/interviewflow/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

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

	if err := seedAdmin(context.Background(), pool); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedInterviewers(context.Background(), pool, 5); err != nil {
		log.Fatalf("seed interviewers: %v", err)
	}
	if err := seedStudents(context.Background(), pool, 200); err != nil {
		log.Fatalf("seed students: %v", err)
	}
	if err := seedBlocks(context.Background(), pool, 10); err != nil {
		log.Fatalf("seed blocks: %v", err)
	}

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	password := "admin"
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, name, phone, role, password, approved, created_at, updated_at)
		VALUES ($1, 'Admin', 'admin', 'ADMIN', $2, TRUE, now(), now())
		ON CONFLICT (phone) DO NOTHING
	`, uuid.New(), password)
	return err
}

func seedInterviewers(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d interviewers", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		username := gofakeit.Username()
		email := gofakeit.Email()
		password := gofakeit.Password(true, true, true, false, false, 12)

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, phone, email, role, password, approved, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'INTERVIEWER', $5, TRUE, now(), now())
		`, id, name, username, email, password)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("interviewers seeded")
	return nil
}

func seedStudents(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d students", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		phone := gofakeit.Phone()
		approved := gofakeit.Number(0, 3) > 0 // most students already approved

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, phone, role, approved, created_at, updated_at)
			VALUES ($1, $2, $3, 'STUDENT', $4, now(), now())
		`, id, name, phone, approved)
		if err != nil {
			return err
		}

		if approved {
			// approved students start with an unscheduled placeholder
			_, err = tx.Exec(ctx, `
				INSERT INTO interview_slots (id, student_id, stage, duration_minutes, created_at, updated_at)
				VALUES ($1, $2, $3, 0, now(), now())
			`, uuid.New(), id, schedule.StageClasses)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("students seeded")
	return nil
}

func seedBlocks(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d blackout windows", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	reasons := []string{"Staff meeting", "Lunch break", "Facility maintenance", "Holiday", "Training"}

	for i := 0; i < count; i++ {
		date := time.Now().AddDate(0, 0, gofakeit.Number(1, 14)).Format("2006-01-02")
		start := schedule.HoursStartMinutes + gofakeit.Number(0, 40)*schedule.SlotStepMinutes
		end := start + gofakeit.Number(2, 8)*schedule.SlotStepMinutes
		reason := reasons[gofakeit.Number(0, len(reasons)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO blocked_slots (id, date, start_minutes, end_minutes, reason, created_at)
			VALUES ($1, $2::date, $3, $4, $5, now())
		`, uuid.New(), date, start, end, reason)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("blackout windows seeded")
	return nil
}
