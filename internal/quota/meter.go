package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// StoreKey is the single record key the meter uses. One device, one record.
const StoreKey = "chat_usage"

// Meter tracks conversational-turn counts for the signed-in user and
// enforces the plan ceiling. Every mutation is persisted immediately.
type Meter struct {
	store RecordStore
	plans PlanTable
	log   zerolog.Logger

	// ownerUserID is the currently signed-in user; counts stored for anyone
	// else are discarded on the next read.
	ownerUserID string

	mu sync.Mutex
}

// NewMeter creates a meter for the given user.
func NewMeter(store RecordStore, plans PlanTable, ownerUserID string, log zerolog.Logger) *Meter {
	return &Meter{
		store:       store,
		plans:       plans,
		ownerUserID: ownerUserID,
		log:         log,
	}
}

// CheckQuota reports whether the user may spend another turn right now.
// A record belonging to another user or billing period counts as absent, so
// the turn is allowed and the reset happens on the next RecordTurn.
func (m *Meter) CheckQuota(ctx context.Context, tier string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.load(ctx, now)
	ceiling := m.plans.Ceiling(tier)
	return rec.TotalTurns < ceiling
}

// RecordTurn charges one turn, attributing it to trackerID when non-empty.
// The store is re-read immediately before the write; a record for another
// user or period is replaced with zeroed counters first. The updated record
// is persisted before returning.
func (m *Meter) RecordTurn(ctx context.Context, trackerID string, now time.Time) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.load(ctx, now)

	rec.TotalTurns++
	if trackerID != "" {
		if rec.PerTrackerTurns == nil {
			rec.PerTrackerTurns = make(map[string]int)
		}
		rec.PerTrackerTurns[trackerID]++
	}

	if err := m.persist(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("RecordTurn: persisting record: %w", err)
	}

	m.log.Debug().
		Str("owner", rec.OwnerUserID).
		Str("period", rec.PeriodKey).
		Int("total_turns", rec.TotalTurns).
		Msg("Recorded conversational turn")

	return *rec, nil
}

// Snapshot returns the current record without charging anything.
func (m *Meter) Snapshot(ctx context.Context, now time.Time) Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.load(ctx, now)
}

// load reads the persisted record, treating read/parse failures and stale
// records as "no prior record". It never returns nil.
func (m *Meter) load(ctx context.Context, now time.Time) *Record {
	period := PeriodKeyFor(now)

	data, found, err := m.store.Get(ctx, StoreKey)
	if err != nil {
		m.log.Warn().Err(err).Msg("Usage record unreadable, starting fresh")
		return newRecord(m.ownerUserID, period)
	}
	if !found {
		return newRecord(m.ownerUserID, period)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		m.log.Warn().Err(err).Msg("Usage record corrupt, starting fresh")
		return newRecord(m.ownerUserID, period)
	}

	if rec.stale(m.ownerUserID, period) {
		return newRecord(m.ownerUserID, period)
	}
	if rec.PerTrackerTurns == nil {
		rec.PerTrackerTurns = make(map[string]int)
	}
	return &rec
}

func (m *Meter) persist(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, StoreKey, data)
}
