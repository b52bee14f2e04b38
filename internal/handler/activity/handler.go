package activity

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	activitymodel "github.com/Actual-Reality/ai-master-engineer/internal/model/activity"
	"github.com/Actual-Reality/ai-master-engineer/internal/service/orchestrator"
)

// Handler receives channel activities and returns rendered reply cards.
type Handler struct {
	orchestrator *orchestrator.Service
}

// New creates the activity handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orchestrator: orch}
}

// RegisterRoutes registers the inbound activity endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handlePostMessage)
}

func (h *Handler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		respondError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}

	var act activitymodel.Activity
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if act.ConversationID == "" {
		respondError(w, http.StatusBadRequest, "conversationId is required")
		return
	}

	// The orchestrator converts every failure into a user-safe card, so the
	// adapter always sees a 200 with a renderable reply.
	card := h.orchestrator.HandleTurn(r.Context(), act)
	respondJSON(w, http.StatusOK, card)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
