// Command simulate hammers the booking endpoint with concurrent candidates
// all targeting the same calendar date, then audits the store to prove the
// no-overlap invariant survived the contention.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interviewflow/interviewflow/internal/config"
	"github.com/interviewflow/interviewflow/internal/db"
	"github.com/interviewflow/interviewflow/internal/schedule"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	TargetDate  string
	PostgresDSN string
}

type Metrics struct {
	Total    int64
	Success  int64
	Conflict int64
	Error    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *Metrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&m.Total, 1)
	switch {
	case err == nil && status == http.StatusCreated:
		atomic.AddInt64(&m.Success, 1)
	case err == nil && status == http.StatusConflict:
		atomic.AddInt64(&m.Conflict, 1)
	default:
		atomic.AddInt64(&m.Error, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("booking simulator starting")

	cfg := loadSimConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	students, err := loadApprovedStudents(context.Background(), pgPool)
	if err != nil {
		log.Fatalf("load students: %v", err)
	}
	if len(students) == 0 {
		log.Fatal("no approved students in store; run cmd/seed first")
	}
	log.Printf("loaded %d approved students, target date %s", len(students), cfg.TargetDate)

	metrics := &Metrics{}
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, stopRun := context.WithTimeout(context.Background(), cfg.Duration)
	defer stopRun()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			worker(runCtx, workerID, cfg, client, students, metrics)
		}(i)
	}
	wg.Wait()

	printReport(metrics)

	if err := auditNoOverlaps(context.Background(), pgPool, cfg.TargetDate); err != nil {
		log.Fatalf("INVARIANT VIOLATED: %v", err)
	}
	log.Println("audit passed: no overlapping active bookings on target date")
}

func worker(ctx context.Context, workerID int, cfg SimConfig, client *http.Client, students []uuid.UUID, metrics *Metrics) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	durations := []int{15, 30, 60, 90, 120}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		studentID := students[rng.Intn(len(students))]
		startMinutes := schedule.HoursStartMinutes + rng.Intn((schedule.HoursEndMinutes-schedule.HoursStartMinutes)/schedule.SlotStepMinutes+1)*schedule.SlotStepMinutes
		duration := durations[rng.Intn(len(durations))]

		body, _ := json.Marshal(map[string]any{
			"student_id":       studentID.String(),
			"date":             cfg.TargetDate,
			"start_time":       schedule.FormatClock(startMinutes),
			"duration_minutes": duration,
			"company_name":     fmt.Sprintf("SimCorp %d", rng.Intn(100)),
		})

		start := time.Now()
		req, _ := http.NewRequestWithContext(ctx, "POST", cfg.APIBaseURL+"/interviews", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		latency := time.Since(start)

		status := 0
		if err == nil {
			status = resp.StatusCode
			resp.Body.Close()
		}
		metrics.Record(latency, status, err)
	}
}

type bookedInterval struct {
	id    uuid.UUID
	start int
	end   int
}

// auditNoOverlaps reads back every active scheduled slot on the date and
// checks pairwise for interval overlap.
func auditNoOverlaps(ctx context.Context, pool *pgxpool.Pool, date string) error {
	rows, err := pool.Query(ctx, `
		SELECT id, start_minutes, duration_minutes
		FROM interview_slots
		WHERE date = $1::date
		  AND duration_minutes > 0
		  AND stage IN ('Classes', 'Interviews')
		ORDER BY start_minutes
	`, date)
	if err != nil {
		return err
	}
	defer rows.Close()

	var intervals []bookedInterval
	for rows.Next() {
		var iv bookedInterval
		var duration int
		if err := rows.Scan(&iv.id, &iv.start, &duration); err != nil {
			return err
		}
		iv.end = iv.start + duration
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := 1; i < len(intervals); i++ {
		prev, cur := intervals[i-1], intervals[i]
		if schedule.Overlaps(prev.start, prev.end, cur.start, cur.end) {
			return fmt.Errorf("slots %s and %s overlap: [%s,%s) vs [%s,%s)",
				prev.id, cur.id,
				schedule.FormatClock(prev.start), schedule.FormatClock(prev.end),
				schedule.FormatClock(cur.start), schedule.FormatClock(cur.end))
		}
	}

	log.Printf("audited %d active bookings on %s", len(intervals), date)
	return nil
}

func loadApprovedStudents(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `
		SELECT id FROM users
		WHERE role = 'STUDENT' AND approved
		LIMIT 1000
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		TargetDate:  getEnv("SIM_TARGET_DATE", time.Now().AddDate(0, 0, 7).Format("2006-01-02")),
		PostgresDSN: baseCfg.PostgresDSN,
	}
}

func printReport(m *Metrics) {
	total := atomic.LoadInt64(&m.Total)
	if total == 0 {
		log.Println("no requests issued")
		return
	}

	success := atomic.LoadInt64(&m.Success)
	conflict := atomic.LoadInt64(&m.Conflict)
	errors := atomic.LoadInt64(&m.Error)

	m.mu.Lock()
	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	m.mu.Unlock()

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg := sum / time.Duration(len(latencies))
	p95 := latencies[len(latencies)*95/100%len(latencies)]

	fmt.Println("\nBOOKING SIMULATION REPORT")
	fmt.Printf("  Total:     %d\n", total)
	fmt.Printf("  Booked:    %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	fmt.Printf("  Errors:    %d (%.1f%%)\n", errors, float64(errors)/float64(total)*100)
	fmt.Printf("  Latency:   avg=%s p95=%s\n", avg.Round(time.Millisecond), p95.Round(time.Millisecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
