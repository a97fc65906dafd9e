package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/api/middleware"
	"github.com/dvloznov/ledgerchat/internal/domain"
	"github.com/dvloznov/ledgerchat/internal/ledger/bigquery"
	"github.com/dvloznov/ledgerchat/internal/parse/gemini"
)

// LedgerHandler implements the boundary service endpoints.
type LedgerHandler struct {
	parser *gemini.Parser
	repo   *bigquery.Repo
	log    zerolog.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(parser *gemini.Parser, repo *bigquery.Repo, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{
		parser: parser,
		repo:   repo,
		log:    log,
	}
}

// Parse handles POST /api/parse
func (h *LedgerHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input     string `json:"input"`
		TrackerID string `json:"tracker_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Invalid request body",
		})
		return
	}
	if strings.TrimSpace(req.Input) == "" || req.TrackerID == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "input and tracker_id are required",
		})
		return
	}

	drafts, err := h.parser.ParseUtterance(r.Context(), req.Input, req.TrackerID)
	if err != nil {
		var extractionErr *gemini.ExtractionError
		if errors.As(err, &extractionErr) {
			middleware.WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"message":            extractionErr.Message,
				"missing_categories": extractionErr.MissingCategories,
			})
			return
		}
		h.log.Error().Err(err).Msg("Failed to parse utterance")
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"message": "Failed to parse message",
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": drafts,
	})
}

// Commit handles POST /api/expenses
func (h *LedgerHandler) Commit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Expenses  []domain.DraftTransaction `json:"expenses"`
		TrackerID string                    `json:"tracker_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TrackerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "tracker_id is required")
		return
	}

	now := time.Now().UTC()
	committed := make([]domain.CommittedTransaction, 0, len(req.Expenses))
	for _, d := range req.Expenses {
		committed = append(committed, domain.CommittedTransaction{
			DraftTransaction: d,
			ID:               uuid.New().String(),
			TrackerID:        req.TrackerID,
			CreatedAt:        now,
		})
	}

	if err := h.repo.InsertCommitted(ctx, committed); err != nil {
		h.log.Error().Err(err).Int("count", len(committed)).Msg("Failed to insert transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transactions")
		return
	}

	h.log.Info().Int("count", len(committed)).Str("tracker_id", req.TrackerID).Msg("Batch committed")

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"expenses": committed,
	})
}

// ListCategories handles GET /api/categories
func (h *LedgerHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	trackerID := r.URL.Query().Get("tracker_id")
	if trackerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "tracker_id is required")
		return
	}

	cats, err := h.repo.ListActiveCategories(r.Context(), trackerID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": cats,
	})
}

// CreateCategory handles POST /api/categories
func (h *LedgerHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackerID string `json:"tracker_id"`
		Name      string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if req.TrackerID == "" || name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "tracker_id and name are required")
		return
	}

	if err := h.repo.CreateCategory(r.Context(), req.TrackerID, name); err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to create category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"name": name,
	})
}
