package reconciler

import (
	"sort"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// DataPreprocessor turns a raw ledger into records ready for matching
type DataPreprocessor struct {
	logger logger.Logger
}

// PreparedLedger is one side after column resolution, filtering and
// normalization
type PreparedLedger struct {
	Source   models.Source
	Columns  models.ColumnMap
	Records  []*models.Record
	Filtered []models.Row
	// Net payable over Records, duplicates included
	Net decimal.Decimal
}

// NewDataPreprocessor creates a new data preprocessor
func NewDataPreprocessor() *DataPreprocessor {
	return &DataPreprocessor{logger: logger.WithComponent("preprocessor")}
}

// Prepare resolves the ledger's columns, drops filtered rows and normalizes
// the rest in input order. A ledger without rows is valid and yields no
// records, whatever its headers.
func (dp *DataPreprocessor) Prepare(
	ledger *models.Ledger,
	source models.Source,
	rules matcher.FilterRules,
	aliases parsers.AliasTable,
) (*PreparedLedger, error) {
	prepared := &PreparedLedger{Source: source, Net: decimal.Zero}
	log := dp.logger.WithField("source", source)

	if len(ledger.Rows) == 0 {
		log.Warn("Ledger has no rows")
		return prepared, nil
	}

	cols, err := parsers.ResolveColumns(source, ledgerHeaders(ledger), aliases)
	if err != nil {
		return nil, err
	}
	prepared.Columns = cols

	if missing := parsers.Unresolved(cols); len(missing) > 0 {
		log.WithField("fields", missing).Debug("Optional columns not found, using defaults")
	}

	kept, filtered := matcher.FilterRows(ledger.Rows, rules)
	prepared.Filtered = filtered

	prepared.Records = make([]*models.Record, 0, len(kept))
	for seq, row := range kept {
		prepared.Records = append(prepared.Records, models.NormalizeRow(source, seq, row, cols))
	}
	prepared.Net = netPayable(prepared.Records)

	log.WithFields(logger.Fields{
		"records":  len(prepared.Records),
		"filtered": len(filtered),
		"columns":  cols,
	}).Debug("Prepared ledger")
	return prepared, nil
}

// ledgerHeaders returns the ledger's headers, or the sorted union of its row
// keys when none were given
func ledgerHeaders(ledger *models.Ledger) []string {
	if len(ledger.Headers) > 0 {
		return ledger.Headers
	}

	seen := make(map[string]bool)
	var headers []string
	for _, row := range ledger.Rows {
		for k := range row.Values {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)
	return headers
}
