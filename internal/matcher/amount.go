package matcher

import (
	"ledger-reconciliation-service/internal/models"
)

// AmountResult is the output of the amount stage
type AmountResult struct {
	Yellow   []Pair
	Depot    []*models.Record
	Pharmacy []*models.Record
}

// MatchAmount pairs leftover records by equal effective amount and side.
// Depot records are visited once, in order. Each takes the unmatched pharmacy
// candidate with the fewest days between dates; on a tie the earliest
// candidate in pharmacy order wins. This is a greedy assignment and is not
// globally optimal: an earlier depot record may take a candidate that a later
// one would have fitted better.
func MatchAmount(depot, pharmacy []*models.Record) *AmountResult {
	result := &AmountResult{}
	taken := make([]bool, len(pharmacy))

	for _, d := range depot {
		best := -1
		bestDays := 0
		for i, p := range pharmacy {
			if taken[i] || !AmountsAgree(d, p) {
				continue
			}
			days := d.DaysApart(p)
			if best == -1 || days < bestDays {
				best, bestDays = i, days
			}
		}

		if best == -1 {
			result.Depot = append(result.Depot, d)
			continue
		}

		taken[best] = true
		result.Yellow = append(result.Yellow, Pair{
			Category: CategoryYellow,
			Depot:    d,
			Pharmacy: pharmacy[best],
			DaysDiff: bestDays,
		})
	}

	for i, p := range pharmacy {
		if !taken[i] {
			result.Pharmacy = append(result.Pharmacy, p)
		}
	}
	return result
}
