package chat

import (
	"time"

	"github.com/dvloznov/ledgerchat/internal/domain"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation. Messages are never mutated after
// creation and never deleted.
//
// Content is inert text with one sanctioned exception: a message derived
// from a missing-category failure may carry a single remediation hyperlink
// emitted by the parse gateway. Nothing else in the system puts markup into
// Content.
type Message struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`

	Content string `json:"content"`

	// AttachedBatch carries the committed transactions a successful turn
	// produced, attached to exactly one assistant message.
	AttachedBatch []domain.CommittedTransaction `json:"attached_batch,omitempty"`

	// MissingCategories lists the quick-add affordances for a
	// missing-category failure.
	MissingCategories []string `json:"missing_categories,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
