package reconciler

import (
	"context"
	"fmt"
	"time"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationService runs the matching pipeline over two parsed ledgers
type ReconciliationService struct {
	config       *Config
	preprocessor *DataPreprocessor
	logger       logger.Logger
}

// Config holds configuration options for the reconciliation service
type Config struct {
	// Row filters applied before matching
	Filters matcher.Filters

	// Header aliases used to find each logical column
	DepotAliases    parsers.AliasTable
	PharmacyAliases parsers.AliasTable
}

// DefaultConfig returns a configuration with no filters and the built-in
// alias tables
func DefaultConfig() *Config {
	return &Config{
		DepotAliases:    parsers.DefaultAliases(models.SourceDepot),
		PharmacyAliases: parsers.DefaultAliases(models.SourcePharmacy),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.DepotAliases[parsers.FieldInvoiceID]) == 0 {
		return fmt.Errorf("depot aliases must name at least one invoice id column")
	}
	if len(c.PharmacyAliases[parsers.FieldInvoiceID]) == 0 {
		return fmt.Errorf("pharmacy aliases must name at least one invoice id column")
	}
	return nil
}

// aliasesFor returns the alias table for source
func (c *Config) aliasesFor(source models.Source) parsers.AliasTable {
	if source == models.SourcePharmacy {
		return c.PharmacyAliases
	}
	return c.DepotAliases
}

// ReconciliationRequest carries the two ledgers to reconcile
type ReconciliationRequest struct {
	Depot    *models.Ledger
	Pharmacy *models.Ledger
}

// Validate validates the reconciliation request
func (r *ReconciliationRequest) Validate() error {
	if r.Depot == nil {
		return fmt.Errorf("depot ledger is required")
	}
	if r.Pharmacy == nil {
		return fmt.Errorf("pharmacy ledger is required")
	}
	if r.Depot.Source != "" && r.Depot.Source != models.SourceDepot {
		return fmt.Errorf("depot ledger has source %q", r.Depot.Source)
	}
	if r.Pharmacy.Source != "" && r.Pharmacy.Source != models.SourcePharmacy {
		return fmt.Errorf("pharmacy ledger has source %q", r.Pharmacy.Source)
	}
	return nil
}

// ReconciliationResult contains the complete results of a reconciliation.
// Every non-filtered record surviving deduplication appears in exactly one of
// the five category collections.
type ReconciliationResult struct {
	RunID string `json:"run_id"`

	Green  []matcher.Pair `json:"green"`
	Yellow []matcher.Pair `json:"yellow"`
	Orange []matcher.Pair `json:"orange"`

	RedDepot    []*models.Record `json:"red_depot"`
	RedPharmacy []*models.Record `json:"red_pharmacy"`

	// Rows excluded by the filters, never matched
	FilteredDepot    []models.Row `json:"filtered_depot,omitempty"`
	FilteredPharmacy []models.Row `json:"filtered_pharmacy,omitempty"`

	// Records replaced by a later row with the same invoice id
	Superseded []*models.Record `json:"superseded,omitempty"`

	DepotColumns    models.ColumnMap `json:"depot_columns"`
	PharmacyColumns models.ColumnMap `json:"pharmacy_columns"`

	Summary *ResultSummary `json:"summary"`
	Inputs  []InputInfo    `json:"inputs,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// InputInfo describes a ledger file the result was built from
type InputInfo struct {
	Source models.Source `json:"source"`
	Path   string        `json:"path"`
	Rows   int           `json:"rows"`
}

// CategoryTotals holds the count and sums of one category. For pair
// categories both sums are set; Red categories only carry their own side.
type CategoryTotals struct {
	Category    matcher.Category `json:"category"`
	Count       int              `json:"count"`
	DepotSum    decimal.Decimal  `json:"depot_sum"`
	PharmacySum decimal.Decimal  `json:"pharmacy_sum"`
	Difference  decimal.Decimal  `json:"difference"`
}

// ResultSummary provides a high-level overview of reconciliation results
type ResultSummary struct {
	Categories []CategoryTotals `json:"categories"`

	DepotRecords     int `json:"depot_records"`
	PharmacyRecords  int `json:"pharmacy_records"`
	FilteredDepot    int `json:"filtered_depot"`
	FilteredPharmacy int `json:"filtered_pharmacy"`
	Superseded       int `json:"superseded"`

	// Net payable, sum(debit) - sum(credit) over non-filtered rows
	DepotNet      decimal.Decimal `json:"depot_net"`
	PharmacyNet   decimal.Decimal `json:"pharmacy_net"`
	NetDifference decimal.Decimal `json:"net_difference"`

	ProcessingDuration time.Duration `json:"processing_duration"`
}

// Totals returns the totals for category
func (s *ResultSummary) Totals(category matcher.Category) CategoryTotals {
	for _, t := range s.Categories {
		if t.Category == category {
			return t
		}
	}
	return CategoryTotals{Category: category}
}

// Discrepancies is the number of records not in a Green pair
func (s *ResultSummary) Discrepancies() int {
	n := 0
	for _, t := range s.Categories {
		switch t.Category {
		case matcher.CategoryGreen:
		case matcher.CategoryRedDepot, matcher.CategoryRedPharmacy:
			n += t.Count
		default:
			n += 2 * t.Count
		}
	}
	return n
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(config *Config) (*ReconciliationService, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "columns", nil, err)
	}

	return &ReconciliationService{
		config:       config,
		preprocessor: NewDataPreprocessor(),
		logger:       logger.WithComponent("reconciler"),
	}, nil
}

// ProcessReconciliation reconciles the two ledgers of request. A ledger
// whose invoice id column cannot be found fails with a configuration error;
// everything else about the row data degrades into Red records.
func (rs *ReconciliationService) ProcessReconciliation(
	ctx context.Context,
	request *ReconciliationRequest,
) (*ReconciliationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := request.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "ledger", nil, err)
	}

	startTime := time.Now()
	runID := uuid.NewString()
	log := rs.logger.WithField("run_id", runID)
	log.WithFields(logger.Fields{
		"depot_rows":    len(request.Depot.Rows),
		"pharmacy_rows": len(request.Pharmacy.Rows),
	}).Info("Starting reconciliation")

	depot, err := rs.preprocessor.Prepare(request.Depot, models.SourceDepot,
		rs.config.Filters.Depot, rs.config.aliasesFor(models.SourceDepot))
	if err != nil {
		log.WithError(err).Error("Depot ledger could not be prepared")
		return nil, err
	}
	pharmacy, err := rs.preprocessor.Prepare(request.Pharmacy, models.SourcePharmacy,
		rs.config.Filters.Pharmacy, rs.config.aliasesFor(models.SourcePharmacy))
	if err != nil {
		log.WithError(err).Error("Pharmacy ledger could not be prepared")
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.ReconciliationError(errors.CodeProcessingError, "matching", err)
	}

	result := runStages(depot, pharmacy, log)
	result.RunID = runID
	result.ProcessedAt = time.Now()
	result.Summary.ProcessingDuration = time.Since(startTime)

	log.WithFields(logger.Fields{
		"green":        len(result.Green),
		"yellow":       len(result.Yellow),
		"orange":       len(result.Orange),
		"red_depot":    len(result.RedDepot),
		"red_pharmacy": len(result.RedPharmacy),
		"net_diff":     result.Summary.NetDifference.StringFixed(2),
		"elapsed":      result.Summary.ProcessingDuration,
	}).Info("Reconciliation completed")

	return result, nil
}

// GetConfiguration returns the current configuration
func (rs *ReconciliationService) GetConfiguration() *Config {
	return rs.config
}
