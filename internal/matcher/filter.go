package matcher

import (
	"ledger-reconciliation-service/internal/models"
)

// FilterRows splits rows into those that take part in matching and those
// excluded by rules. Both slices keep the input order. Nil or empty rules
// keep every row.
func FilterRows(rows []models.Row, rules FilterRules) (kept, filtered []models.Row) {
	if len(rules) == 0 {
		return append([]models.Row(nil), rows...), nil
	}

	for _, row := range rows {
		if rules.Excludes(row) {
			filtered = append(filtered, row)
			continue
		}
		kept = append(kept, row)
	}
	return kept, filtered
}
