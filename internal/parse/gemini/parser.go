// Package gemini turns free-form chat utterances into draft transactions
// using Gemini, constrained to a tracker's category taxonomy.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/ledgerchat/internal/domain"
	"github.com/dvloznov/ledgerchat/internal/ledger"
)

// ExtractionError is returned when the model output cannot be turned into a
// committable batch. MissingCategories is set when the only problem is
// category names absent from the tracker's taxonomy.
type ExtractionError struct {
	Message           string
	MissingCategories []string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

// Parser extracts draft transactions from chat text.
type Parser struct {
	modelName  string
	categories ledger.CategoryReader
	archiver   *ledger.Archiver
	log        zerolog.Logger
}

func New(modelName string, categories ledger.CategoryReader, archiver *ledger.Archiver, log zerolog.Logger) *Parser {
	return &Parser{
		modelName:  modelName,
		categories: categories,
		archiver:   archiver,
		log:        log,
	}
}

// ParseUtterance sends the utterance to Gemini and validates the extracted
// drafts against the tracker's active taxonomy. An utterance that mentions no
// transactions yields an empty slice and no error.
func (p *Parser) ParseUtterance(ctx context.Context, input, trackerID string) ([]domain.DraftTransaction, error) {
	taxonomy, err := p.categories.ListActiveCategories(ctx, trackerID)
	if err != nil {
		return nil, fmt.Errorf("ParseUtterance: loading categories: %w", err)
	}

	fullPrompt := buildExtractionPrompt(taxonomy, input)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("ParseUtterance: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fullPrompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, p.modelName, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("ParseUtterance: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("ParseUtterance: empty response from model")
	}

	if p.archiver != nil {
		if _, err := p.archiver.Archive(ctx, trackerID, []byte(rawText)); err != nil {
			p.log.Warn().Err(err).Msg("Archiving model output failed")
		}
	}

	clean := cleanModelJSON(rawText)

	var parsed []interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, &ExtractionError{
			Message: fmt.Sprintf("The model returned output I could not read: %v", err),
		}
	}

	drafts, err := transformModelOutputToDrafts(parsed, input)
	if err != nil {
		return nil, &ExtractionError{Message: err.Error()}
	}

	validator := NewValidator(taxonomy)
	if missing := validator.UnknownCategories(drafts); len(missing) > 0 {
		return nil, &ExtractionError{
			Message:           fmt.Sprintf("Some categories are not set up yet: %s.", strings.Join(missing, ", ")),
			MissingCategories: missing,
		}
	}

	return drafts, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// If there's still junk around the JSON array, keep only from the
	// first '[' to the last ']'.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = s[start : end+1]
			s = strings.TrimSpace(s)
		}
	}

	return s
}
