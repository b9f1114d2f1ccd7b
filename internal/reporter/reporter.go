// Package reporter renders reconciliation results for operators and tools.
//
// Supported output formats:
//   - Console: one colored panel per category plus the net payable totals
//   - JSON: the full result, for programmatic consumption
//   - CSV: one line per pair or single record with a category column
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{Format: reporter.FormatCSV})
//	err = generator.GenerateReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/reconciler"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ParseOutputFormat parses a format name case-insensitively
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid output format '%s': must be console, json or csv", s)
	}
	return f, nil
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeGreen      bool `json:"include_green"`
	IncludeFiltered   bool `json:"include_filtered"`
	IncludeSuperseded bool `json:"include_superseded"`

	// Console formatting options
	UseColors bool `json:"use_colors"`
	MaxItems  int  `json:"max_items"` // per panel, 0 means no limit

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeGreen:      true,
		IncludeFiltered:   true,
		IncludeSuperseded: true,
		UseColors:         true,
		MaxItems:          50,
		CSVDelimiter:      ',',
		CSVHeaders:        true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max items cannot be negative, got %d", c.MaxItems)
	}
	if c.Format == FormatCSV && c.CSVDelimiter == 0 {
		return fmt.Errorf("csv delimiter must be set")
	}
	return nil
}

// ReportGenerator generates reconciliation reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes a report of result to writer
func (rg *ReportGenerator) GenerateReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	if result == nil || result.Summary == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateJSONReport writes the result as indented JSON
func (rg *ReportGenerator) generateJSONReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rg.filterResultForOutput(result))
}

func (rg *ReportGenerator) filterResultForOutput(result *reconciler.ReconciliationResult) map[string]interface{} {
	output := map[string]interface{}{
		"run_id":           result.RunID,
		"processed_at":     result.ProcessedAt,
		"summary":          result.Summary,
		"yellow":           nonNilPairs(result.Yellow),
		"orange":           nonNilPairs(result.Orange),
		"red_depot":        nonNilRecords(result.RedDepot),
		"red_pharmacy":     nonNilRecords(result.RedPharmacy),
		"depot_columns":    result.DepotColumns,
		"pharmacy_columns": result.PharmacyColumns,
	}
	if rg.config.IncludeGreen {
		output["green"] = nonNilPairs(result.Green)
	}
	if rg.config.IncludeFiltered {
		output["filtered_depot"] = nonNilRows(result.FilteredDepot)
		output["filtered_pharmacy"] = nonNilRows(result.FilteredPharmacy)
	}
	if rg.config.IncludeSuperseded {
		output["superseded"] = nonNilRecords(result.Superseded)
	}
	if len(result.Inputs) > 0 {
		output["inputs"] = result.Inputs
	}
	return output
}

var csvHeaders = []string{
	"category",
	"depot_invoice_id",
	"depot_date",
	"depot_amount",
	"pharmacy_invoice_id",
	"pharmacy_date",
	"pharmacy_amount",
	"difference",
	"days_diff",
	"line",
}

// generateCSVReport writes one line per pair or single record
func (rg *ReportGenerator) generateCSVReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(csvHeaders); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	var pairs []matcher.Pair
	if rg.config.IncludeGreen {
		pairs = append(pairs, result.Green...)
	}
	pairs = append(pairs, result.Yellow...)
	pairs = append(pairs, result.Orange...)

	for _, p := range pairs {
		record := []string{
			p.Category.String(),
			p.Depot.InvoiceID,
			formatDate(p.Depot),
			p.Depot.EffectiveAmount().StringFixed(2),
			p.Pharmacy.InvoiceID,
			formatDate(p.Pharmacy),
			p.Pharmacy.EffectiveAmount().StringFixed(2),
			p.AmountDifference().StringFixed(2),
			strconv.Itoa(p.DaysDiff),
			strconv.Itoa(p.Depot.Line),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write %s pair: %w", p.Category, err)
		}
	}

	if err := writeSingles(csvWriter, matcher.CategoryRedDepot, result.RedDepot); err != nil {
		return err
	}
	if err := writeSingles(csvWriter, matcher.CategoryRedPharmacy, result.RedPharmacy); err != nil {
		return err
	}

	if rg.config.IncludeFiltered {
		if err := writeFiltered(csvWriter, "filtered_depot", result.FilteredDepot, result.DepotColumns, true); err != nil {
			return err
		}
		if err := writeFiltered(csvWriter, "filtered_pharmacy", result.FilteredPharmacy, result.PharmacyColumns, false); err != nil {
			return err
		}
	}
	if rg.config.IncludeSuperseded {
		for _, r := range result.Superseded {
			if err := csvWriter.Write(singleRecord("superseded", r)); err != nil {
				return fmt.Errorf("failed to write superseded record: %w", err)
			}
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func writeSingles(w *csv.Writer, category matcher.Category, records []*models.Record) error {
	for _, r := range records {
		if err := w.Write(singleRecord(category.String(), r)); err != nil {
			return fmt.Errorf("failed to write %s record: %w", category, err)
		}
	}
	return nil
}

// singleRecord lays out a record on its own side of the CSV line
func singleRecord(label string, r *models.Record) []string {
	amount := r.EffectiveAmount().StringFixed(2)
	if r.Source == models.SourceDepot {
		return []string{label, r.InvoiceID, formatDate(r), amount, "", "", "", amount, "", strconv.Itoa(r.Line)}
	}
	return []string{label, "", "", "", r.InvoiceID, formatDate(r), amount, r.EffectiveAmount().Neg().StringFixed(2), "", strconv.Itoa(r.Line)}
}

func writeFiltered(w *csv.Writer, label string, rows []models.Row, cols models.ColumnMap, depotSide bool) error {
	for _, row := range rows {
		id, _ := row.Get(cols.InvoiceID)
		line := strconv.Itoa(row.Line)
		record := []string{label, "", "", "", "", "", "", "", "", line}
		if depotSide {
			record[1] = id
		} else {
			record[4] = id
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write %s row: %w", label, err)
		}
	}
	return nil
}

func formatDate(r *models.Record) string {
	if !r.HasDate {
		return ""
	}
	return r.Date.Format("2006-01-02")
}

func nonNilPairs(p []matcher.Pair) []matcher.Pair {
	if p == nil {
		return []matcher.Pair{}
	}
	return p
}

func nonNilRecords(r []*models.Record) []*models.Record {
	if r == nil {
		return []*models.Record{}
	}
	return r
}

func nonNilRows(r []models.Row) []models.Row {
	if r == nil {
		return []models.Row{}
	}
	return r
}
