package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/advisor"
	"github.com/dvloznov/ledgerchat/internal/api/middleware"
	"github.com/dvloznov/ledgerchat/internal/categories"
	"github.com/dvloznov/ledgerchat/internal/chat"
	"github.com/dvloznov/ledgerchat/internal/conversation"
	"github.com/dvloznov/ledgerchat/internal/quota"
)

// ChatHandler exposes the conversation over HTTP.
type ChatHandler struct {
	orch      *conversation.Orchestrator
	messages  *chat.Log
	advisor   *advisor.Advisor
	creator   categories.Creator
	trackerID string
	plans     quota.PlanTable
	log       zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(orch *conversation.Orchestrator, messages *chat.Log, adv *advisor.Advisor, creator categories.Creator, trackerID string, plans quota.PlanTable, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		orch:      orch,
		messages:  messages,
		advisor:   adv,
		creator:   creator,
		trackerID: trackerID,
		plans:     plans,
		log:       log,
	}
}

// SubmitMessage handles POST /api/chat/messages
func (h *ChatHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.orch.Submit(r.Context(), req.Text)
	switch {
	case errors.Is(err, conversation.ErrEmptySubmission):
		middleware.WriteError(w, http.StatusBadRequest, "Message text is required")
		return
	case errors.Is(err, conversation.ErrTurnInFlight):
		middleware.WriteError(w, http.StatusConflict, "A message is already being processed")
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to process message")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reply": reply,
	})
}

// ListMessages handles GET /api/chat/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs := h.messages.Messages()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"count":    len(msgs),
	})
}

// Usage handles GET /api/chat/usage
func (h *ChatHandler) Usage(w http.ResponseWriter, r *http.Request) {
	record, ceiling := h.orch.Usage(r.Context(), h.plans)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period_key":  record.PeriodKey,
		"total_turns": record.TotalTurns,
		"per_tracker": record.PerTrackerTurns,
		"ceiling":     ceiling,
	})
}

// QuickAddCategory handles POST /api/categories/quick-add
func (h *ChatHandler) QuickAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	if err := h.creator.CreateCategory(r.Context(), h.trackerID, name); err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to create category")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to create category")
		return
	}

	h.advisor.CategoryCreated(name)

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"name": name,
	})
}
