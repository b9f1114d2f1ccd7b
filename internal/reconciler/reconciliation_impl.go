package reconciler

import (
	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// runStages indexes, matches and categorizes two prepared ledgers
func runStages(depot, pharmacy *PreparedLedger, log logger.Logger) *ReconciliationResult {
	depotIdx := matcher.NewRecordIndex(depot.Records)
	pharmacyIdx := matcher.NewRecordIndex(pharmacy.Records)

	superseded := append([]*models.Record(nil), depotIdx.Superseded...)
	superseded = append(superseded, pharmacyIdx.Superseded...)
	if len(superseded) > 0 {
		log.WithField("count", len(superseded)).Warn("Duplicate invoice ids, earlier rows superseded")
	}
	log.WithFields(logger.Fields{
		"depot_keys":    depotIdx.KeyCount(),
		"pharmacy_keys": pharmacyIdx.KeyCount(),
	}).Debug("Indexed records")

	exact := matcher.MatchExact(depotIdx, pharmacyIdx)
	log.WithFields(logger.Fields{
		"green":  len(exact.Green),
		"orange": len(exact.Orange),
	}).Debug("Invoice id matching done")

	amount := matcher.MatchAmount(exact.Depot, exact.Pharmacy)
	log.WithField("yellow", len(amount.Yellow)).Debug("Amount matching done")

	result := &ReconciliationResult{
		Green:            exact.Green,
		Yellow:           amount.Yellow,
		Orange:           exact.Orange,
		RedDepot:         amount.Depot,
		RedPharmacy:      amount.Pharmacy,
		FilteredDepot:    depot.Filtered,
		FilteredPharmacy: pharmacy.Filtered,
		Superseded:       superseded,
		DepotColumns:     depot.Columns,
		PharmacyColumns:  pharmacy.Columns,
	}
	result.Summary = buildSummary(result, depot, pharmacy)
	return result
}

// buildSummary aggregates counts, per-category sums and net payables
func buildSummary(result *ReconciliationResult, depot, pharmacy *PreparedLedger) *ResultSummary {
	summary := &ResultSummary{
		DepotRecords:     len(depot.Records),
		PharmacyRecords:  len(pharmacy.Records),
		FilteredDepot:    len(depot.Filtered),
		FilteredPharmacy: len(pharmacy.Filtered),
		Superseded:       len(result.Superseded),
		DepotNet:         depot.Net,
		PharmacyNet:      pharmacy.Net,
		NetDifference:    depot.Net.Sub(pharmacy.Net),
	}

	summary.Categories = []CategoryTotals{
		pairTotals(matcher.CategoryGreen, result.Green),
		pairTotals(matcher.CategoryYellow, result.Yellow),
		pairTotals(matcher.CategoryOrange, result.Orange),
		singleTotals(matcher.CategoryRedDepot, result.RedDepot, true),
		singleTotals(matcher.CategoryRedPharmacy, result.RedPharmacy, false),
	}
	return summary
}

func pairTotals(category matcher.Category, pairs []matcher.Pair) CategoryTotals {
	t := CategoryTotals{Category: category, Count: len(pairs)}
	for _, p := range pairs {
		t.DepotSum = t.DepotSum.Add(p.Depot.EffectiveAmount())
		t.PharmacySum = t.PharmacySum.Add(p.Pharmacy.EffectiveAmount())
	}
	t.Difference = t.DepotSum.Sub(t.PharmacySum)
	return t
}

func singleTotals(category matcher.Category, records []*models.Record, depotSide bool) CategoryTotals {
	t := CategoryTotals{Category: category, Count: len(records)}
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.EffectiveAmount())
	}
	if depotSide {
		t.DepotSum = sum
	} else {
		t.PharmacySum = sum
	}
	t.Difference = t.DepotSum.Sub(t.PharmacySum)
	return t
}

// netPayable is sum(debit) - sum(credit) over records
func netPayable(records []*models.Record) decimal.Decimal {
	debit, credit := decimal.Zero, decimal.Zero
	for _, r := range records {
		debit = debit.Add(r.Debit)
		credit = credit.Add(r.Credit)
	}
	return debit.Sub(credit)
}
