package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/advisor"
	"github.com/dvloznov/ledgerchat/internal/chat"
	"github.com/dvloznov/ledgerchat/internal/commit"
	"github.com/dvloznov/ledgerchat/internal/parse"
	"github.com/dvloznov/ledgerchat/internal/quota"
)

// State names the orchestrator's position in the per-turn machine. Exposed
// for logging and the usage endpoint; transitions happen only inside Submit.
type State string

const (
	StateIdle       State = "idle"
	StateQuotaCheck State = "quota_check"
	StateBlocked    State = "blocked"
	StateParsing    State = "parsing"
	StateParseFail  State = "parse_failed"
	StateCommitting State = "committing"
	StateCommitFail State = "commit_failed"
	StateDone       State = "done"
)

// ErrTurnInFlight is returned when a submission arrives while another is in
// progress. Submissions are rejected, not queued, so assistant replies can
// never interleave out of order with the user turns that produced them.
var ErrTurnInFlight = errors.New("a submission is already in flight")

// ErrEmptySubmission is returned for blank input.
var ErrEmptySubmission = errors.New("submission is empty")

// QuotaExceededText is the assistant reply for a blocked turn.
const QuotaExceededText = "You've used up this month's conversational turns for your plan. " +
	"Upgrade your plan to keep going, or come back next month."

// CommitFailedText is the assistant reply when the ledger refused the batch.
const CommitFailedText = "I understood that, but I couldn't save it to your ledger. Please try again."

// Orchestrator drives one submitted turn through quota check, parse and
// commit, appending the user and assistant messages as it goes. At most one
// turn is in flight at a time.
type Orchestrator struct {
	meter     *quota.Meter
	messages  *chat.Log
	gateway   parse.Gateway
	committer commit.Committer
	advisor   *advisor.Advisor
	log       zerolog.Logger

	planTier  string
	trackerID string
	clock     func() time.Time

	mu       sync.Mutex
	inFlight bool
	state    State
}

// Config collects the orchestrator's collaborators.
type Config struct {
	Meter     *quota.Meter
	Messages  *chat.Log
	Gateway   parse.Gateway
	Committer commit.Committer
	Advisor   *advisor.Advisor
	Logger    zerolog.Logger

	PlanTier  string
	TrackerID string

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// New creates an idle orchestrator.
func New(cfg Config) *Orchestrator {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		meter:     cfg.Meter,
		messages:  cfg.Messages,
		gateway:   cfg.Gateway,
		committer: cfg.Committer,
		advisor:   cfg.Advisor,
		log:       cfg.Logger,
		planTier:  cfg.PlanTier,
		trackerID: cfg.TrackerID,
		clock:     clock,
		state:     StateIdle,
	}
}

// State returns the current machine state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs one turn. It returns the assistant message that closed the
// turn. Every failure past the quota gate is recovered into an assistant
// message; only the in-flight guard and blank input surface as errors.
func (o *Orchestrator) Submit(ctx context.Context, text string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, ErrEmptySubmission
	}

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return chat.Message{}, ErrTurnInFlight
	}
	o.inFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.state = StateIdle
		o.mu.Unlock()
	}()

	now := o.clock()

	o.setState(StateQuotaCheck)
	if !o.meter.CheckQuota(ctx, o.planTier, now) {
		// Blocked before anything else happens: no user message, no
		// recorded turn, no gateway call.
		o.setState(StateBlocked)
		o.log.Info().Str("plan", o.planTier).Msg("Turn blocked by quota")
		return o.messages.Append(chat.Message{
			Role:    chat.RoleAssistant,
			Content: QuotaExceededText,
		}), nil
	}

	// Optimistic append: the user's turn stays visible whatever happens
	// downstream, and the turn is charged before the parse outcome is
	// known. A failed or empty extraction still consumes quota.
	o.messages.Append(chat.Message{Role: chat.RoleUser, Content: text})
	if _, err := o.meter.RecordTurn(ctx, o.trackerID, now); err != nil {
		o.log.Error().Err(err).Msg("Failed to persist usage record")
	}

	o.setState(StateParsing)
	result := o.gateway.ParseUtterance(ctx, text, o.trackerID)
	if result.Failed() {
		o.setState(StateParseFail)
		return o.appendParseFailure(*result.Failure), nil
	}

	o.setState(StateCommitting)
	committed, err := o.committer.Commit(ctx, result.Drafts, o.trackerID)
	if err != nil {
		o.setState(StateCommitFail)
		o.log.Warn().Err(err).Msg("Commit boundary rejected batch")
		return o.messages.Append(chat.Message{
			Role:    chat.RoleAssistant,
			Content: CommitFailedText,
		}), nil
	}

	o.setState(StateDone)
	return o.messages.Append(chat.Message{
		Role:          chat.RoleAssistant,
		Content:       commit.Summary(committed),
		AttachedBatch: committed,
	}), nil
}

// appendParseFailure turns a typed parse failure into the assistant reply,
// carrying quick-add affordances for missing categories.
func (o *Orchestrator) appendParseFailure(failure parse.Failure) chat.Message {
	rem := o.advisor.DeriveRemediation(failure)

	msg := chat.Message{Role: chat.RoleAssistant, Content: failure.Message}
	if len(rem.QuickAddCategories) > 0 {
		msg.MissingCategories = rem.QuickAddCategories
	}

	o.log.Info().
		Str("kind", string(failure.Kind)).
		Strs("missing_categories", rem.QuickAddCategories).
		Msg("Parse failed")

	return o.messages.Append(msg)
}

// Usage reports the current usage snapshot alongside the plan ceiling.
func (o *Orchestrator) Usage(ctx context.Context, plans quota.PlanTable) (quota.Record, int) {
	rec := o.meter.Snapshot(ctx, o.clock())
	return rec, plans.Ceiling(o.planTier)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// String makes states readable in log output.
func (s State) String() string { return string(s) }
