package commit

import (
	"fmt"
	"strings"

	"github.com/dvloznov/ledgerchat/internal/domain"
)

// Summary builds the human-readable confirmation for a committed batch.
// A single-item batch reports that item's category and amount; a multi-item
// batch reports the count and the summed amount per currency.
func Summary(batch []domain.CommittedTransaction) string {
	switch len(batch) {
	case 0:
		return "Nothing to record."
	case 1:
		tx := batch[0]
		return fmt.Sprintf("Recorded %s: %.2f %s.", tx.CategoryName, tx.Amount, tx.Currency)
	}

	totals := make(map[string]float64)
	order := make([]string, 0, 2)
	for _, tx := range batch {
		if _, seen := totals[tx.Currency]; !seen {
			order = append(order, tx.Currency)
		}
		totals[tx.Currency] += tx.Amount
	}

	parts := make([]string, 0, len(order))
	for _, cur := range order {
		parts = append(parts, fmt.Sprintf("%.2f %s", totals[cur], cur))
	}

	return fmt.Sprintf("Recorded %d transactions totalling %s.", len(batch), strings.Join(parts, " + "))
}
