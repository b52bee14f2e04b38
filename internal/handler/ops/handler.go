package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Actual-Reality/ai-master-engineer/internal/service/history"
	ragservice "github.com/Actual-Reality/ai-master-engineer/internal/service/rag"
	"github.com/Actual-Reality/ai-master-engineer/pkg/utils"
)

const probeTimeout = 5 * time.Second

// Handler serves the operational read-only endpoints.
type Handler struct {
	history *history.Service
	rag     *ragservice.Client
	logger  *zap.Logger
}

// New creates the ops handler.
func New(historySvc *history.Service, ragClient *ragservice.Client, logger *zap.Logger) *Handler {
	return &Handler{history: historySvc, rag: ragClient, logger: logger}
}

// RegisterRoutes registers the root-level probe endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Get("/live", h.handleLive)
}

// RegisterAPIRoutes registers endpoints living under the API prefix.
func (h *Handler) RegisterAPIRoutes(r chi.Router) {
	r.Get("/conversations/{conversationID}/stats", h.handleStats)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	var backendConnected, storageHealthy bool
	g, probeCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := h.rag.Ping(probeCtx); err != nil {
			h.logger.Warn("backend probe failed", zap.Error(err))
			return err
		}
		backendConnected = true
		return nil
	})
	g.Go(func() error {
		if err := h.history.Ping(probeCtx); err != nil {
			h.logger.Warn("storage probe failed", zap.Error(err))
			return nil // storage degrades, does not fail health
		}
		storageHealthy = true
		return nil
	})
	probeErr := g.Wait()

	status := "healthy"
	code := http.StatusOK
	if probeErr != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	utils.RespondJSON(w, code, map[string]any{
		"status":            status,
		"backend_connected": backendConnected,
		"storage":           h.history.Storage(),
		"storage_healthy":   storageHealthy,
	})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	stats, err := h.history.Stats(r.Context(), conversationID)
	if err != nil {
		h.logger.Warn("failed to read conversation stats",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		utils.RespondError(w, http.StatusInternalServerError, "failed to read conversation stats")
		return
	}

	if stats.MessageCount == 0 {
		utils.RespondError(w, http.StatusNotFound, "conversation not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, stats)
}
