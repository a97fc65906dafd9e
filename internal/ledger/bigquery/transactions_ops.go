package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	categoriesTable   = "categories"
	transactionsTable = "chat_transactions"
)

// InsertTransactions inserts a batch of TransactionRow into <dataset>.chat_transactions.
func InsertTransactions(ctx context.Context, projectID, datasetID string, rows []*TransactionRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertTransactions: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertTransactionsWithClient(ctx, client, datasetID, rows)
}

// InsertTransactionsWithClient inserts a batch of TransactionRow into <dataset>.chat_transactions
// using the provided BigQuery client. The whole batch goes in one Put so a rejected
// row fails the batch rather than leaving a partial write.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := client.Dataset(datasetID).Table(transactionsTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}

	return nil
}
