package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/domain"
)

// TransportFailureMessage is what the user sees when the boundary is
// unreachable. The failure is retryable; retry policy belongs to the caller,
// not the gateway.
const TransportFailureMessage = "I couldn't reach the expense parser. Please try again in a moment."

// Gateway turns a raw utterance into a draft batch or a typed failure.
type Gateway interface {
	ParseUtterance(ctx context.Context, text, trackerID string) Result
}

// parseRequest is the wire request of the parse boundary.
type parseRequest struct {
	Input     string `json:"input"`
	TrackerID string `json:"tracker_id"`
}

// parseResponse is the wire success shape.
type parseResponse struct {
	Expenses []domain.DraftTransaction `json:"expenses"`
}

// parseErrorResponse is the wire failure shape.
type parseErrorResponse struct {
	Message           string   `json:"message"`
	MissingCategories []string `json:"missing_categories,omitempty"`
}

// HTTPGateway is the Gateway implementation talking JSON over HTTP to the
// extraction service. It performs no retries.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewHTTPGateway creates a gateway against the given boundary base URL.
func NewHTTPGateway(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// ParseUtterance implements Gateway. Transport problems and boundary
// failures are both normalized into a Failure; the caller never sees a raw
// error.
func (g *HTTPGateway) ParseUtterance(ctx context.Context, text, trackerID string) Result {
	body, err := json.Marshal(parseRequest{Input: text, TrackerID: trackerID})
	if err != nil {
		g.log.Error().Err(err).Msg("Failed to encode parse request")
		return failed(Failure{Kind: FailureTransport, Message: TransportFailureMessage})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/parse", bytes.NewReader(body))
	if err != nil {
		return failed(Failure{Kind: FailureTransport, Message: TransportFailureMessage})
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn().Err(err).Msg("Parse boundary unreachable")
		return failed(Failure{Kind: FailureTransport, Message: TransportFailureMessage})
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var ok parseResponse
		if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
			g.log.Warn().Err(err).Msg("Parse boundary returned undecodable success body")
			return failed(Failure{Kind: FailureTransport, Message: TransportFailureMessage})
		}
		return success(ok.Expenses)
	}

	var boundary parseErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&boundary); err != nil {
		g.log.Warn().Err(err).Int("status", resp.StatusCode).
			Msg("Parse boundary returned undecodable failure body")
		return failed(Failure{Kind: FailureTransport, Message: TransportFailureMessage})
	}

	return g.normalizeFailure(boundary, trackerID)
}

// normalizeFailure maps a structured boundary failure into the typed shape.
// Unresolved categories are carried through verbatim and the message is
// wrapped with the sentinel and the single remediation link.
func (g *HTTPGateway) normalizeFailure(boundary parseErrorResponse, trackerID string) Result {
	msg := boundary.Message
	if msg == "" {
		msg = "I couldn't make a transaction out of that."
	}

	if len(boundary.MissingCategories) > 0 {
		return failed(Failure{
			Kind:              FailureMissingCategory,
			Message:           WrapMissingCategoryMessage(msg, trackerID),
			MissingCategories: boundary.MissingCategories,
		})
	}

	return failed(Failure{Kind: FailureValidation, Message: msg})
}

var _ Gateway = (*HTTPGateway)(nil)
