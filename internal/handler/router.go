package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	activityhandler "github.com/Actual-Reality/ai-master-engineer/internal/handler/activity"
	opshandler "github.com/Actual-Reality/ai-master-engineer/internal/handler/ops"
	"github.com/Actual-Reality/ai-master-engineer/internal/middleware"
	"github.com/Actual-Reality/ai-master-engineer/internal/service/history"
	"github.com/Actual-Reality/ai-master-engineer/internal/service/orchestrator"
	ragservice "github.com/Actual-Reality/ai-master-engineer/internal/service/rag"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(orch *orchestrator.Service, historySvc *history.Service, ragClient *ragservice.Client, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	activityHandler := activityhandler.New(orch)
	opsHandler := opshandler.New(historySvc, ragClient, logger)

	opsHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		activityHandler.RegisterRoutes(api)
		opsHandler.RegisterAPIRoutes(api)
	})

	return r
}
