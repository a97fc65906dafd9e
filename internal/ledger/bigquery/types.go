package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledgerchat/internal/domain"
)

// CategoryRow mirrors the finance.categories table.
type CategoryRow struct {
	CategoryID string `bigquery:"category_id"` // REQUIRED
	TrackerID  string `bigquery:"tracker_id"`  // REQUIRED

	CategoryName    string              `bigquery:"category_name"`    // REQUIRED
	SubcategoryName bigquery.NullString `bigquery:"subcategory_name"` // NULLABLE

	IsActive bigquery.NullBool `bigquery:"is_active"` // NULLABLE

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"` // NULLABLE (defaults to CURRENT_TIMESTAMP())
	RetiredTS bigquery.NullTimestamp `bigquery:"retired_ts"` // NULLABLE
}

// TransactionRow mirrors the finance.chat_transactions table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"`
	TrackerID     string `bigquery:"tracker_id"`

	Kind string `bigquery:"kind"` // "expense" or "income"

	TransactionDate civil.Date `bigquery:"transaction_date"`
	Amount          float64    `bigquery:"amount"`
	Currency        string     `bigquery:"currency"`

	CategoryName    string              `bigquery:"category_name"`
	SubcategoryName bigquery.NullString `bigquery:"subcategory_name"`

	PaymentMethod bigquery.NullString `bigquery:"payment_method"`
	CreditSource  bigquery.NullString `bigquery:"credit_source"`

	Description bigquery.NullString `bigquery:"description"`
	RawInput    string              `bigquery:"raw_input"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// toRow maps a committed transaction onto its table row.
func toRow(tx domain.CommittedTransaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   tx.ID,
		TrackerID:       tx.TrackerID,
		Kind:            string(tx.Kind),
		TransactionDate: civil.DateOf(tx.CreatedAt),
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		CategoryName:    tx.CategoryName,
		RawInput:        tx.RawInput,
		CreatedTS:       tx.CreatedAt,
	}
	if tx.SubcategoryName != "" {
		row.SubcategoryName = bigquery.NullString{StringVal: tx.SubcategoryName, Valid: true}
	}
	if tx.PaymentMethod != "" {
		row.PaymentMethod = bigquery.NullString{StringVal: tx.PaymentMethod, Valid: true}
	}
	if tx.CreditSource != "" {
		row.CreditSource = bigquery.NullString{StringVal: tx.CreditSource, Valid: true}
	}
	if tx.Description != "" {
		row.Description = bigquery.NullString{StringVal: tx.Description, Valid: true}
	}
	return row
}

// toCategory maps a taxonomy row onto the domain shape.
func toCategory(row CategoryRow) domain.Category {
	c := domain.Category{
		Name:     row.CategoryName,
		IsActive: row.IsActive.Valid && row.IsActive.Bool,
	}
	if row.SubcategoryName.Valid {
		c.SubcategoryName = row.SubcategoryName.StringVal
	}
	return c
}
