package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/interviewflow/interviewflow/internal/schedule"
)

type RouterConfig struct {
	Service *schedule.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  *zap.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/students", registerStudentHandler(cfg.Service))
	r.Post("/students/{id}/approve", approveStudentHandler(cfg.Service))
	r.Post("/candidates", addCandidateHandler(cfg.Service))
	r.Post("/interviewers", createInterviewerHandler(cfg.Service))

	r.Get("/availability", availabilityHandler(cfg.Service))
	r.Post("/interviews", scheduleHandler(cfg.Service))
	r.Delete("/interviews/{id}", cancelHandler(cfg.Service))
	r.Post("/interviews/{id}/admin-cancel", adminCancelHandler(cfg.Service))
	r.Patch("/interviews/{id}/stage", updateStageHandler(cfg.Service))
	r.Patch("/interviews/{id}/interviewer", assignHandler(cfg.Service))

	r.Post("/blocks", createBlockHandler(cfg.Service))
	r.Delete("/blocks/{id}", deleteBlockHandler(cfg.Service))

	r.Get("/notifications", listNotificationsHandler(cfg.Service))
	r.Delete("/notifications/{id}", clearNotificationHandler(cfg.Service))

	r.Get("/state", stateHandler(cfg.Service))

	return r
}
