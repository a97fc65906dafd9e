package commit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/domain"
	"github.com/dvloznov/ledgerchat/internal/events"
)

func twoDrafts() []domain.DraftTransaction {
	return []domain.DraftTransaction{
		{Kind: domain.KindExpense, Amount: 12.50, Currency: "GBP", CategoryName: "Groceries", PaymentMethod: "card"},
		{Kind: domain.KindExpense, Amount: 30.00, Currency: "GBP", CategoryName: "Transport", PaymentMethod: "card"},
	}
}

// echoBoundary promotes every draft the way the real ledger does.
func echoBoundary(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/expenses" {
			t.Errorf("path = %q, want /api/expenses", r.URL.Path)
		}
		var req commitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		out := make([]domain.CommittedTransaction, 0, len(req.Expenses))
		for _, d := range req.Expenses {
			out = append(out, domain.CommittedTransaction{
				DraftTransaction: d,
				ID:               uuid.NewString(),
				TrackerID:        req.TrackerID,
				CreatedAt:        time.Now(),
			})
		}
		json.NewEncoder(w).Encode(commitResponse{Expenses: out})
	}
}

func TestCommit_RoundTripPreservesBatch(t *testing.T) {
	srv := httptest.NewServer(echoBoundary(t))
	defer srv.Close()
	bus := events.NewBus()
	c := NewHTTPCommitter(srv.URL, 5*time.Second, bus, zerolog.Nop())

	drafts := twoDrafts()
	committed, err := c.Commit(context.Background(), drafts, "t1")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(committed) != len(drafts) {
		t.Fatalf("committed %d records for %d drafts", len(committed), len(drafts))
	}
	for i, tx := range committed {
		if tx.Amount != drafts[i].Amount || tx.CategoryName != drafts[i].CategoryName {
			t.Errorf("record %d: amount/category %v/%q, want %v/%q",
				i, tx.Amount, tx.CategoryName, drafts[i].Amount, drafts[i].CategoryName)
		}
		if tx.ID == "" {
			t.Errorf("record %d has no durable ID", i)
		}
		if tx.TrackerID != "t1" {
			t.Errorf("record %d tracker = %q, want t1", i, tx.TrackerID)
		}
	}
}

func TestCommit_FiresExpensesChanged(t *testing.T) {
	srv := httptest.NewServer(echoBoundary(t))
	defer srv.Close()
	bus := events.NewBus()
	fired := 0
	bus.Subscribe(events.TopicExpensesChanged, func(string) { fired++ })
	c := NewHTTPCommitter(srv.URL, 5*time.Second, bus, zerolog.Nop())

	if _, err := c.Commit(context.Background(), twoDrafts(), "t1"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if fired != 1 {
		t.Errorf("expenses-changed fired %d times, want 1", fired)
	}
}

func TestCommit_BoundaryRejectionAbortsWholeBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ledger says no", http.StatusInternalServerError)
	}))
	defer srv.Close()
	bus := events.NewBus()
	fired := 0
	bus.Subscribe(events.TopicExpensesChanged, func(string) { fired++ })
	c := NewHTTPCommitter(srv.URL, 5*time.Second, bus, zerolog.Nop())

	committed, err := c.Commit(context.Background(), twoDrafts(), "t1")

	if err == nil {
		t.Fatal("expected error")
	}
	if committed != nil {
		t.Errorf("committed = %v, want no partial result", committed)
	}
	if fired != 0 {
		t.Errorf("expenses-changed fired %d times on failure, want 0", fired)
	}
}

func TestCommit_CountMismatchIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(commitResponse{Expenses: []domain.CommittedTransaction{}})
	}))
	defer srv.Close()
	c := NewHTTPCommitter(srv.URL, 5*time.Second, events.NewBus(), zerolog.Nop())

	if _, err := c.Commit(context.Background(), twoDrafts(), "t1"); err == nil {
		t.Fatal("expected error on echoed-count mismatch")
	}
}

func TestSummary_SingleItem(t *testing.T) {
	got := Summary([]domain.CommittedTransaction{
		{DraftTransaction: domain.DraftTransaction{Amount: 12.50, Currency: "GBP", CategoryName: "Groceries"}},
	})

	if !strings.Contains(got, "Groceries") || !strings.Contains(got, "12.50") {
		t.Errorf("single-item summary = %q, want category and amount", got)
	}
}

func TestSummary_MultiItemDistinctFromSingle(t *testing.T) {
	multi := Summary([]domain.CommittedTransaction{
		{DraftTransaction: domain.DraftTransaction{Amount: 12.50, Currency: "GBP", CategoryName: "Groceries"}},
		{DraftTransaction: domain.DraftTransaction{Amount: 30.00, Currency: "GBP", CategoryName: "Transport"}},
	})

	if !strings.Contains(multi, "2 transactions") {
		t.Errorf("multi-item summary = %q, want aggregate count", multi)
	}
	if !strings.Contains(multi, "42.50 GBP") {
		t.Errorf("multi-item summary = %q, want summed amount", multi)
	}
	if strings.Contains(multi, "Groceries") {
		t.Errorf("multi-item summary = %q, must not use single-item phrasing", multi)
	}
}

func TestSummary_MixedCurrencies(t *testing.T) {
	got := Summary([]domain.CommittedTransaction{
		{DraftTransaction: domain.DraftTransaction{Amount: 10, Currency: "GBP", CategoryName: "A"}},
		{DraftTransaction: domain.DraftTransaction{Amount: 5, Currency: "EUR", CategoryName: "B"}},
	})

	if !strings.Contains(got, "10.00 GBP") || !strings.Contains(got, "5.00 EUR") {
		t.Errorf("mixed-currency summary = %q, want per-currency totals", got)
	}
}
