package matcher

import (
	"ledger-reconciliation-service/internal/models"
)

// ExactResult is the output of the invoice id stage
type ExactResult struct {
	Green  []Pair
	Orange []Pair
	// Depot and Pharmacy hold the records left for the amount stage, in
	// index order.
	Depot    []*models.Record
	Pharmacy []*models.Record
}

// MatchExact pairs every invoice id present in both indices. A pair whose
// records are on the same side with equal amounts is Green; any other pair
// is Orange. Pairs are emitted in depot order.
func MatchExact(depot, pharmacy *RecordIndex) *ExactResult {
	result := &ExactResult{}
	consumed := make(map[*models.Record]bool)

	for _, d := range depot.order {
		if !d.HasInvoiceID() {
			continue
		}
		p, ok := pharmacy.Lookup(d.InvoiceID)
		if !ok {
			continue
		}

		pair := Pair{Depot: d, Pharmacy: p, DaysDiff: d.DaysApart(p)}
		if AmountsAgree(d, p) {
			pair.Category = CategoryGreen
			result.Green = append(result.Green, pair)
		} else {
			pair.Category = CategoryOrange
			result.Orange = append(result.Orange, pair)
		}
		consumed[d] = true
		consumed[p] = true
	}

	result.Depot = remaining(depot.order, consumed)
	result.Pharmacy = remaining(pharmacy.order, consumed)
	return result
}

func remaining(records []*models.Record, consumed map[*models.Record]bool) []*models.Record {
	out := make([]*models.Record, 0, len(records))
	for _, r := range records {
		if !consumed[r] {
			out = append(out, r)
		}
	}
	return out
}
