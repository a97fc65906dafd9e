package parse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/domain"
)

func testGateway(t *testing.T, handler http.HandlerFunc) *HTTPGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPGateway(srv.URL, 5*time.Second, zerolog.Nop())
}

func TestParseUtterance_Success(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/parse" {
			t.Errorf("path = %q, want /api/parse", r.URL.Path)
		}
		var req parseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Input != "coffee 3.50" || req.TrackerID != "t1" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(parseResponse{Expenses: []domain.DraftTransaction{
			{Kind: domain.KindExpense, Amount: 3.50, Currency: "EUR", CategoryName: "Food"},
		}})
	})

	res := gw.ParseUtterance(context.Background(), "coffee 3.50", "t1")

	if res.Failed() {
		t.Fatalf("result failed: %+v", res.Failure)
	}
	if len(res.Drafts) != 1 || res.Drafts[0].CategoryName != "Food" {
		t.Errorf("drafts = %+v", res.Drafts)
	}
}

func TestParseUtterance_EmptyBatchIsSuccess(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(parseResponse{Expenses: nil})
	})

	res := gw.ParseUtterance(context.Background(), "nothing here", "t1")

	if res.Failed() {
		t.Fatalf("empty batch reported as failure: %+v", res.Failure)
	}
	if res.Drafts == nil {
		t.Error("Drafts is nil on success, want empty slice")
	}
}

func TestParseUtterance_ValidationFailurePassedVerbatim(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(parseErrorResponse{Message: "no amount found"})
	})

	res := gw.ParseUtterance(context.Background(), "hello", "t1")

	if !res.Failed() {
		t.Fatal("expected failure")
	}
	if res.Failure.Kind != FailureValidation {
		t.Errorf("kind = %q, want validation", res.Failure.Kind)
	}
	if res.Failure.Message != "no amount found" {
		t.Errorf("message = %q, want boundary text verbatim", res.Failure.Message)
	}
}

func TestParseUtterance_MissingCategories(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(parseErrorResponse{
			Message:           "unknown categories",
			MissingCategories: []string{"Travel", "Gifts"},
		})
	})

	res := gw.ParseUtterance(context.Background(), "flights and presents", "my tracker")

	if !res.Failed() || res.Failure.Kind != FailureMissingCategory {
		t.Fatalf("result = %+v, want missing_category failure", res)
	}
	if len(res.Failure.MissingCategories) != 2 ||
		res.Failure.MissingCategories[0] != "Travel" ||
		res.Failure.MissingCategories[1] != "Gifts" {
		t.Errorf("missing categories = %v, want [Travel Gifts] verbatim", res.Failure.MissingCategories)
	}
	if !strings.HasPrefix(res.Failure.Message, Sentinel) {
		t.Errorf("message %q lacks sentinel prefix", res.Failure.Message)
	}
	if got := strings.Count(res.Failure.Message, "<a href="); got != 1 {
		t.Errorf("message carries %d links, want exactly 1", got)
	}
	if !strings.Contains(res.Failure.Message, "/trackers/my%20tracker/categories") {
		t.Errorf("link target not escaped: %q", res.Failure.Message)
	}
}

func TestParseUtterance_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // boundary gone
	gw := NewHTTPGateway(srv.URL, time.Second, zerolog.Nop())

	res := gw.ParseUtterance(context.Background(), "coffee", "t1")

	if !res.Failed() || res.Failure.Kind != FailureTransport {
		t.Fatalf("result = %+v, want transport failure", res)
	}
	if res.Failure.Message != TransportFailureMessage {
		t.Errorf("message = %q, want generic retryable text", res.Failure.Message)
	}
}

func TestStripSentinel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "wrapped message",
			in:   WrapMissingCategoryMessage("unknown categories", "t1"),
			want: "unknown categories",
		},
		{
			name: "plain text untouched",
			in:   "just text",
			want: "just text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripSentinel(tt.in); got != tt.want {
				t.Errorf("StripSentinel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
