package commit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/domain"
	"github.com/dvloznov/ledgerchat/internal/events"
)

// Committer submits a validated draft batch to the ledger.
type Committer interface {
	Commit(ctx context.Context, drafts []domain.DraftTransaction, trackerID string) ([]domain.CommittedTransaction, error)
}

// commitRequest is the wire request of the commit boundary.
type commitRequest struct {
	Expenses  []domain.DraftTransaction `json:"expenses"`
	TrackerID string                    `json:"tracker_id"`
}

// commitResponse is the wire response of the commit boundary.
type commitResponse struct {
	Expenses []domain.CommittedTransaction `json:"expenses"`
}

// HTTPCommitter commits batches over one all-or-nothing HTTP call. The
// boundary's own atomicity is assumed; a failure anywhere aborts the whole
// batch with no partial commit reported.
type HTTPCommitter struct {
	baseURL string
	client  *http.Client
	bus     *events.Bus
	log     zerolog.Logger
}

// NewHTTPCommitter creates a committer against the given boundary base URL.
func NewHTTPCommitter(baseURL string, timeout time.Duration, bus *events.Bus, log zerolog.Logger) *HTTPCommitter {
	return &HTTPCommitter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		bus:     bus,
		log:     log,
	}
}

// Commit implements Committer. On success the committed count must match
// the submitted count, and an expenses-changed signal fires so other views
// refresh.
func (c *HTTPCommitter) Commit(ctx context.Context, drafts []domain.DraftTransaction, trackerID string) ([]domain.CommittedTransaction, error) {
	body, err := json.Marshal(commitRequest{Expenses: drafts, TrackerID: trackerID})
	if err != nil {
		return nil, fmt.Errorf("Commit: encoding batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/expenses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("Commit: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Commit: commit boundary unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Commit: boundary rejected batch: status %d: %s", resp.StatusCode, msg)
	}

	var committed commitResponse
	if err := json.NewDecoder(resp.Body).Decode(&committed); err != nil {
		return nil, fmt.Errorf("Commit: decoding response: %w", err)
	}

	if len(committed.Expenses) != len(drafts) {
		return nil, fmt.Errorf("Commit: boundary echoed %d records for %d drafts",
			len(committed.Expenses), len(drafts))
	}

	c.log.Info().
		Int("count", len(committed.Expenses)).
		Str("tracker_id", trackerID).
		Msg("Batch committed")

	c.bus.Publish(events.TopicExpensesChanged)

	return committed.Expenses, nil
}

var _ Committer = (*HTTPCommitter)(nil)
