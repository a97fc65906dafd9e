package advisor

import (
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/events"
	"github.com/dvloznov/ledgerchat/internal/parse"
)

// Remediation is what the conversation shows the user for a parse failure:
// plain display text plus one quick-add affordance per missing category.
type Remediation struct {
	DisplayText        string
	QuickAddCategories []string
}

// Advisor inspects parse failures for unresolved category references and
// produces remediation affordances.
type Advisor struct {
	bus *events.Bus
	log zerolog.Logger
}

// New creates an advisor publishing taxonomy changes on the given bus.
func New(bus *events.Bus, log zerolog.Logger) *Advisor {
	return &Advisor{bus: bus, log: log}
}

// DeriveRemediation maps a failure to its user-facing remediation. The
// sentinel marker is stripped from the display text; missing categories are
// de-duplicated with their order preserved.
func (a *Advisor) DeriveRemediation(failure parse.Failure) Remediation {
	return Remediation{
		DisplayText:        parse.StripSentinel(failure.Message),
		QuickAddCategories: dedupe(failure.MissingCategories),
	}
}

// CategoryCreated is called when a quick-add affordance reports that a
// category now exists. The advisor never re-parses; it only signals that
// category caches are out of date.
func (a *Advisor) CategoryCreated(name string) {
	a.log.Info().Str("category", name).Msg("Category created via quick add")
	a.bus.Publish(events.TopicCategoriesChanged)
}

// dedupe removes duplicates while preserving first-occurrence order.
func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
