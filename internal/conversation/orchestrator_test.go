package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/advisor"
	"github.com/dvloznov/ledgerchat/internal/chat"
	"github.com/dvloznov/ledgerchat/internal/domain"
	"github.com/dvloznov/ledgerchat/internal/events"
	"github.com/dvloznov/ledgerchat/internal/parse"
	"github.com/dvloznov/ledgerchat/internal/quota"
	"github.com/dvloznov/ledgerchat/internal/quota/inmemory"
)

// mockGateway returns a scripted parse result, optionally blocking until
// released to test the in-flight guard.
type mockGateway struct {
	result  parse.Result
	calls   int
	release chan struct{}
}

func (m *mockGateway) ParseUtterance(ctx context.Context, text, trackerID string) parse.Result {
	m.calls++
	if m.release != nil {
		<-m.release
	}
	return m.result
}

// mockCommitter promotes drafts in place or fails.
type mockCommitter struct {
	err   error
	calls int
}

func (m *mockCommitter) Commit(ctx context.Context, drafts []domain.DraftTransaction, trackerID string) ([]domain.CommittedTransaction, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.CommittedTransaction, 0, len(drafts))
	for i, d := range drafts {
		out = append(out, domain.CommittedTransaction{
			DraftTransaction: d,
			ID:               trackerID + "-" + string(rune('a'+i)),
			TrackerID:        trackerID,
			CreatedAt:        time.Now(),
		})
	}
	return out, nil
}

type fixture struct {
	orch      *Orchestrator
	messages  *chat.Log
	meter     *quota.Meter
	gateway   *mockGateway
	committer *mockCommitter
	now       time.Time
}

func newFixture(t *testing.T, ceiling int, gw *mockGateway, cm *mockCommitter) *fixture {
	t.Helper()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	meter := quota.NewMeter(inmemory.NewStore(), quota.NewPlanTable(ceiling, 100, 1000), "alice", zerolog.Nop())
	messages := chat.NewLog(nil)
	bus := events.NewBus()

	orch := New(Config{
		Meter:     meter,
		Messages:  messages,
		Gateway:   gw,
		Committer: cm,
		Advisor:   advisor.New(bus, zerolog.Nop()),
		Logger:    zerolog.Nop(),
		PlanTier:  quota.TierFree,
		TrackerID: "t1",
		Clock:     func() time.Time { return now },
	})
	return &fixture{orch: orch, messages: messages, meter: meter, gateway: gw, committer: cm, now: now}
}

func drafts(n int) []domain.DraftTransaction {
	out := make([]domain.DraftTransaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.DraftTransaction{
			Kind: domain.KindExpense, Amount: float64(i+1) * 10, Currency: "GBP",
			CategoryName: "Groceries", PaymentMethod: "card",
		})
	}
	return out
}

func TestSubmit_SuccessfulTurn(t *testing.T) {
	gw := &mockGateway{result: parse.Result{Drafts: drafts(2)}}
	cm := &mockCommitter{}
	f := newFixture(t, 10, gw, cm)

	reply, err := f.orch.Submit(context.Background(), "groceries 10 and 20")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// 2 drafts yield exactly 2 committed records attached to exactly one
	// assistant message with the aggregate phrasing.
	if reply.Role != chat.RoleAssistant {
		t.Errorf("reply role = %q", reply.Role)
	}
	if len(reply.AttachedBatch) != 2 {
		t.Errorf("attached batch has %d records, want 2", len(reply.AttachedBatch))
	}
	if !strings.Contains(reply.Content, "2 transactions") {
		t.Errorf("summary = %q, want multi-item phrasing", reply.Content)
	}

	msgs := f.messages.Messages()
	if len(msgs) != 3 { // welcome, user, assistant
		t.Fatalf("log has %d messages, want 3", len(msgs))
	}
	if msgs[1].Role != chat.RoleUser || msgs[1].Content != "groceries 10 and 20" {
		t.Errorf("user message = %+v", msgs[1])
	}

	withBatch := 0
	for _, m := range msgs {
		if len(m.AttachedBatch) > 0 {
			withBatch++
		}
	}
	if withBatch != 1 {
		t.Errorf("%d messages carry a batch, want exactly 1", withBatch)
	}

	if got := f.meter.Snapshot(context.Background(), f.now).TotalTurns; got != 1 {
		t.Errorf("TotalTurns = %d, want 1", got)
	}
	if f.orch.State() != StateIdle {
		t.Errorf("state = %s after turn, want idle", f.orch.State())
	}
}

func TestSubmit_BlockedTurnRecordsNothing(t *testing.T) {
	gw := &mockGateway{result: parse.Result{Drafts: drafts(1)}}
	cm := &mockCommitter{}
	f := newFixture(t, 1, gw, cm)

	if _, err := f.orch.Submit(context.Background(), "first"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	reply, err := f.orch.Submit(context.Background(), "second")
	if err != nil {
		t.Fatalf("Submit (blocked): %v", err)
	}

	if reply.Content != QuotaExceededText {
		t.Errorf("blocked reply = %q, want quota warning", reply.Content)
	}
	// The blocked submission's user message never appears, no turn is
	// recorded, and the gateway is not called.
	msgs := f.messages.Messages()
	for _, m := range msgs {
		if m.Role == chat.RoleUser && m.Content == "second" {
			t.Error("blocked user message was appended")
		}
	}
	if got := f.meter.Snapshot(context.Background(), f.now).TotalTurns; got != 1 {
		t.Errorf("TotalTurns = %d after blocked turn, want 1", got)
	}
	if gw.calls != 1 {
		t.Errorf("gateway called %d times, want 1", gw.calls)
	}
}

func TestSubmit_ParseFailureKeepsUserMessageAndCharge(t *testing.T) {
	gw := &mockGateway{result: parse.Result{Failure: &parse.Failure{
		Kind:    parse.FailureValidation,
		Message: "no amount found",
	}}}
	cm := &mockCommitter{}
	f := newFixture(t, 10, gw, cm)

	reply, err := f.orch.Submit(context.Background(), "gibberish")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if reply.Content != "no amount found" {
		t.Errorf("reply = %q, want boundary message", reply.Content)
	}
	// Optimistic append: the user turn stays, and the charge sticks.
	msgs := f.messages.Messages()
	if msgs[1].Role != chat.RoleUser || msgs[1].Content != "gibberish" {
		t.Errorf("user message rolled back: %+v", msgs[1])
	}
	if got := f.meter.Snapshot(context.Background(), f.now).TotalTurns; got != 1 {
		t.Errorf("TotalTurns = %d, want 1 (charge-on-attempt)", got)
	}
	if cm.calls != 0 {
		t.Errorf("committer called %d times on parse failure, want 0", cm.calls)
	}
}

func TestSubmit_MissingCategoriesCarryQuickAdds(t *testing.T) {
	gw := &mockGateway{result: parse.Result{Failure: &parse.Failure{
		Kind:              parse.FailureMissingCategory,
		Message:           parse.WrapMissingCategoryMessage("unknown categories", "t1"),
		MissingCategories: []string{"Travel", "Gifts", "Travel"},
	}}}
	f := newFixture(t, 10, gw, &mockCommitter{})

	reply, err := f.orch.Submit(context.Background(), "flights and presents")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(reply.MissingCategories) != 2 {
		t.Errorf("quick adds = %v, want exactly [Travel Gifts]", reply.MissingCategories)
	}
}

func TestSubmit_CommitFailureIsDistinct(t *testing.T) {
	gw := &mockGateway{result: parse.Result{Drafts: drafts(1)}}
	cm := &mockCommitter{err: errors.New("ledger down")}
	f := newFixture(t, 10, gw, cm)

	reply, err := f.orch.Submit(context.Background(), "coffee 3.50")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if reply.Content != CommitFailedText {
		t.Errorf("reply = %q, want commit-error message", reply.Content)
	}
	if len(reply.AttachedBatch) != 0 {
		t.Errorf("failed commit attached a batch: %v", reply.AttachedBatch)
	}
	// The turn was charged before the commit and is not reversed.
	if got := f.meter.Snapshot(context.Background(), f.now).TotalTurns; got != 1 {
		t.Errorf("TotalTurns = %d, want 1", got)
	}
}

func TestSubmit_EmptyBatchIsValidSuccess(t *testing.T) {
	gw := &mockGateway{result: parse.Result{Drafts: []domain.DraftTransaction{}}}
	cm := &mockCommitter{}
	f := newFixture(t, 10, gw, cm)

	reply, err := f.orch.Submit(context.Background(), "nothing financial")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if reply.Role != chat.RoleAssistant {
		t.Errorf("reply role = %q", reply.Role)
	}
	if cm.calls != 1 {
		t.Errorf("committer called %d times, want 1", cm.calls)
	}
}

func TestSubmit_RejectsEmptyInput(t *testing.T) {
	f := newFixture(t, 10, &mockGateway{}, &mockCommitter{})

	if _, err := f.orch.Submit(context.Background(), "   "); !errors.Is(err, ErrEmptySubmission) {
		t.Errorf("err = %v, want ErrEmptySubmission", err)
	}
}

func TestSubmit_SingleInFlightGuard(t *testing.T) {
	release := make(chan struct{})
	gw := &mockGateway{result: parse.Result{Drafts: drafts(1)}, release: release}
	f := newFixture(t, 10, gw, &mockCommitter{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := f.orch.Submit(context.Background(), "slow one"); err != nil {
			t.Errorf("first Submit: %v", err)
		}
	}()

	// Wait until the first submission is parked inside the gateway.
	deadline := time.After(2 * time.Second)
	for f.gateway.calls == 0 {
		select {
		case <-deadline:
			t.Fatal("first submission never reached the gateway")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := f.orch.Submit(context.Background(), "overlapping"); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("overlapping Submit err = %v, want ErrTurnInFlight", err)
	}

	close(release)
	wg.Wait()

	// Cleared guard accepts the next turn.
	gw.release = nil
	if _, err := f.orch.Submit(context.Background(), "next"); err != nil {
		t.Errorf("Submit after clear: %v", err)
	}
}

func TestSubmit_SingleItemSummaryPhrasing(t *testing.T) {
	gw := &mockGateway{result: parse.Result{Drafts: drafts(1)}}
	f := newFixture(t, 10, gw, &mockCommitter{})

	reply, err := f.orch.Submit(context.Background(), "groceries 10")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !strings.Contains(reply.Content, "Groceries") {
		t.Errorf("single-item summary = %q, want the item's category", reply.Content)
	}
	if strings.Contains(reply.Content, "transactions") {
		t.Errorf("single-item summary = %q, must differ from multi-item phrasing", reply.Content)
	}
}
