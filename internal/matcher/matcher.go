// Package matcher implements the matching stages of a ledger reconciliation.
//
// Records flow through the stages strictly downstream, each stage returning
// fresh "still unmatched" collections instead of mutating shared state:
//
//  1. FilterRows drops rows whose configured column holds an excluded value.
//  2. NewRecordIndex indexes records by invoice id (last row wins).
//  3. MatchExact pairs records sharing an invoice id into Green or Orange.
//  4. MatchAmount pairs leftovers by equal amount and nearest date (Yellow).
//
// Whatever is left after MatchAmount is Red on its own side.
//
// Example usage:
//
//	depotIdx := matcher.NewRecordIndex(depotRecords)
//	pharmacyIdx := matcher.NewRecordIndex(pharmacyRecords)
//	exact := matcher.MatchExact(depotIdx, pharmacyIdx)
//	amount := matcher.MatchAmount(exact.Depot, exact.Pharmacy)
package matcher

import (
	"ledger-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Category is the agreement class of a pair or single record
type Category string

const (
	// CategoryGreen means invoice id and amount agree
	CategoryGreen Category = "green"
	// CategoryYellow means amount and type agree under different or missing ids
	CategoryYellow Category = "yellow"
	// CategoryOrange means the invoice id agrees but amount or type does not
	CategoryOrange Category = "orange"
	// CategoryRedDepot is a depot record with no counterpart
	CategoryRedDepot Category = "red_depot"
	// CategoryRedPharmacy is a pharmacy record with no counterpart
	CategoryRedPharmacy Category = "red_pharmacy"
)

// Categories lists every category in report order
var Categories = []Category{CategoryGreen, CategoryYellow, CategoryOrange, CategoryRedDepot, CategoryRedPharmacy}

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// Pair is a depot record matched with a pharmacy record
type Pair struct {
	Category Category       `json:"category"`
	Depot    *models.Record `json:"depot"`
	Pharmacy *models.Record `json:"pharmacy"`
	DaysDiff int            `json:"days_diff"`
}

// AmountDifference is the depot effective amount minus the pharmacy one
func (p Pair) AmountDifference() decimal.Decimal {
	return p.Depot.EffectiveAmount().Sub(p.Pharmacy.EffectiveAmount())
}

// AmountsAgree reports whether two records are on the same side and their
// effective amounts differ by less than models.Epsilon.
func AmountsAgree(a, b *models.Record) bool {
	if a.IsDebit() != b.IsDebit() {
		return false
	}
	return a.EffectiveAmount().Sub(b.EffectiveAmount()).Abs().LessThan(models.Epsilon)
}
