// Package bigquery backs the ledger with BigQuery tables. One dataset holds
// the category taxonomy and the committed chat transactions.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/ledgerchat/internal/domain"
	"github.com/dvloznov/ledgerchat/internal/ledger"
)

// Repo implements ledger.Repository on top of a shared BigQuery client.
type Repo struct {
	client    *bigquery.Client
	datasetID string
}

var _ ledger.Repository = (*Repo)(nil)

// New opens a BigQuery client for the given project and dataset.
func New(ctx context.Context, projectID, datasetID string) (*Repo, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("ledger bigquery: client: %w", err)
	}
	return &Repo{client: client, datasetID: datasetID}, nil
}

func (r *Repo) ListActiveCategories(ctx context.Context, trackerID string) ([]domain.Category, error) {
	rows, err := ListActiveCategoriesWithClient(ctx, r.client, r.datasetID, trackerID)
	if err != nil {
		return nil, err
	}

	cats := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, toCategory(row))
	}
	return cats, nil
}

func (r *Repo) InsertCommitted(ctx context.Context, batch []domain.CommittedTransaction) error {
	rows := make([]*TransactionRow, 0, len(batch))
	for _, tx := range batch {
		rows = append(rows, toRow(tx))
	}
	return InsertTransactionsWithClient(ctx, r.client, r.datasetID, rows)
}

// CreateCategory adds an active top-level category to a tracker's taxonomy.
func (r *Repo) CreateCategory(ctx context.Context, trackerID, name string) error {
	row := &CategoryRow{
		CategoryID:   uuid.New().String(),
		TrackerID:    trackerID,
		CategoryName: name,
		IsActive:     bigquery.NullBool{Bool: true, Valid: true},
		CreatedTS:    bigquery.NullTimestamp{Timestamp: time.Now().UTC(), Valid: true},
	}
	return InsertCategoryWithClient(ctx, r.client, r.datasetID, row)
}

func (r *Repo) Close() error {
	return r.client.Close()
}
