package ledger

import (
	"context"

	"github.com/dvloznov/ledgerchat/internal/domain"
)

// CategoryReader lists the active taxonomy of a tracker.
type CategoryReader interface {
	ListActiveCategories(ctx context.Context, trackerID string) ([]domain.Category, error)
}

// TransactionWriter persists a committed batch. The write is all-or-nothing:
// implementations must not report partial success.
type TransactionWriter interface {
	InsertCommitted(ctx context.Context, batch []domain.CommittedTransaction) error
}

// Repository is the full ledger storage surface.
type Repository interface {
	CategoryReader
	TransactionWriter

	// Close releases underlying connections.
	Close() error
}
