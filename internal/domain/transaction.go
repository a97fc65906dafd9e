package domain

import "time"

// TransactionKind distinguishes money going out from money coming in.
type TransactionKind string

const (
	KindExpense TransactionKind = "expense"
	KindIncome  TransactionKind = "income"
)

// DraftTransaction is a candidate ledger entry extracted from a user
// utterance. Drafts are never persisted; a draft is either discarded or
// promoted to a CommittedTransaction by the commit boundary.
type DraftTransaction struct {
	Kind TransactionKind `json:"kind"`

	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`

	CategoryName    string `json:"category_name"`
	SubcategoryName string `json:"subcategory_name,omitempty"`

	// Exactly one of PaymentMethod (expense) or CreditSource (income)
	// is expected to be set, matching Kind.
	PaymentMethod string `json:"payment_method,omitempty"`
	CreditSource  string `json:"credit_source,omitempty"`

	Description string `json:"description,omitempty"`

	// RawInput is the utterance fragment the draft was extracted from.
	RawInput string `json:"raw_input"`
}

// CommittedTransaction is a draft that the ledger service accepted and
// assigned a durable identifier. The ledger owns these records; the client
// only echoes them back into the conversation.
type CommittedTransaction struct {
	DraftTransaction

	ID        string    `json:"id"`
	TrackerID string    `json:"tracker_id"`
	CreatedAt time.Time `json:"created_at"`
}
