package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which ledger a row came from
type Source string

const (
	// SourceDepot is the upstream supplier ledger
	SourceDepot Source = "depot"
	// SourcePharmacy is the point-of-sale ledger kept by the pharmacy automation
	SourcePharmacy Source = "pharmacy"
)

// String returns the string representation of Source
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is one of the two known ledgers
func (s Source) IsValid() bool {
	return s == SourceDepot || s == SourcePharmacy
}

// ParseSource parses a source name, accepting the Turkish labels as well
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "depot", "depo":
		return SourceDepot, nil
	case "pharmacy", "eczane":
		return SourcePharmacy, nil
	default:
		return "", fmt.Errorf("invalid source '%s': must be depot or pharmacy", s)
	}
}

// Epsilon is the amount below which two amounts are treated as equal and a
// debit is treated as absent.
var Epsilon = decimal.NewFromFloat(0.01)

// MissingDate stands in for absent or unparseable dates. Any real date is
// nearer to another real date than this one.
var MissingDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Row is one raw ledger row keyed by header name
type Row struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
}

// Get returns the trimmed value of column, matching the header name exactly
// first and case-insensitively second. Among case-insensitive matches the
// lowest sorted header wins.
func (r Row) Get(column string) (string, bool) {
	if v, ok := r.Values[column]; ok {
		return strings.TrimSpace(v), true
	}
	column = strings.TrimSpace(column)
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := strings.TrimSpace(k)
		// config loaders lowercase keys with ToLower, which EqualFold misses for "İ"
		if strings.EqualFold(name, column) || strings.ToLower(name) == strings.ToLower(column) {
			return strings.TrimSpace(r.Values[k]), true
		}
	}
	return "", false
}

// Ledger is one side's table as handed over by the acquisition layer
type Ledger struct {
	Source  Source   `json:"source"`
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// ColumnMap holds the header name resolved for each logical field. Empty
// means the field is absent on that ledger.
type ColumnMap struct {
	InvoiceID string `json:"invoice_id"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit,omitempty"`
	Date      string `json:"date,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// Record is one ledger row after normalization. Records are never mutated
// once built.
type Record struct {
	Source    Source          `json:"source"`
	Seq       int             `json:"seq"`
	Line      int             `json:"line"`
	InvoiceID string          `json:"invoice_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Date      time.Time       `json:"date"`
	HasDate   bool            `json:"has_date"`
	Kind      string          `json:"kind,omitempty"`

	isDebit   bool
	effective decimal.Decimal
}

// NewRecord builds a Record and computes its derived attributes. A zero date
// is replaced by MissingDate.
func NewRecord(source Source, seq int, invoiceID string, debit, credit decimal.Decimal, date time.Time, kind string) *Record {
	r := &Record{
		Source:    source,
		Seq:       seq,
		InvoiceID: strings.TrimSpace(invoiceID),
		Debit:     debit,
		Credit:    credit,
		Date:      MissingDate,
		Kind:      strings.TrimSpace(kind),
	}
	if !date.IsZero() {
		y, m, d := date.Date()
		r.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		r.HasDate = true
	}

	r.isDebit = debit.Abs().GreaterThan(Epsilon)
	if r.isDebit {
		r.effective = debit
	} else {
		r.effective = credit.Abs()
	}
	return r
}

// NormalizeRow turns a raw row into a Record using the resolved columns.
// Unresolved columns and unparseable values fall back to zero, MissingDate,
// or the empty string.
func NormalizeRow(source Source, seq int, row Row, cols ColumnMap) *Record {
	get := func(column string) string {
		if column == "" {
			return ""
		}
		v, _ := row.Get(column)
		return v
	}

	debit, _ := ParseAmount(get(cols.Debit))
	credit, _ := ParseAmount(get(cols.Credit))
	date, _ := ParseDate(get(cols.Date))

	r := NewRecord(source, seq, get(cols.InvoiceID), debit, credit, date, get(cols.Kind))
	r.Line = row.Line
	return r
}

// IsDebit reports whether the debit side of the record is active
func (r *Record) IsDebit() bool {
	return r.isDebit
}

// EffectiveAmount is the debit when the record is a debit, otherwise the
// absolute credit.
func (r *Record) EffectiveAmount() decimal.Decimal {
	return r.effective
}

// HasInvoiceID reports whether the record can take part in exact matching
func (r *Record) HasInvoiceID() bool {
	return r.InvoiceID != ""
}

// DaysApart returns the absolute number of calendar days between two records
func (r *Record) DaysApart(other *Record) int {
	// Sub saturates past ~292 years, so work in whole seconds
	days := (r.Date.Unix() - other.Date.Unix()) / 86400
	if days < 0 {
		days = -days
	}
	return int(days)
}

// String returns a string representation of the Record
func (r *Record) String() string {
	date := "-"
	if r.HasDate {
		date = r.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("Record{%s #%d, ID: %s, Debit: %s, Credit: %s, Date: %s}",
		r.Source, r.Seq, r.InvoiceID, r.Debit.StringFixed(2), r.Credit.StringFixed(2), date)
}

// MarshalJSON renders amounts as fixed two-decimal strings and drops the
// sentinel date.
func (r *Record) MarshalJSON() ([]byte, error) {
	type Alias Record
	var date string
	if r.HasDate {
		date = r.Date.Format("2006-01-02")
	}
	return json.Marshal(&struct {
		Debit     string `json:"debit"`
		Credit    string `json:"credit"`
		Date      string `json:"date,omitempty"`
		IsDebit   bool   `json:"is_debit"`
		Effective string `json:"effective_amount"`
		*Alias
	}{
		Debit:     r.Debit.StringFixed(2),
		Credit:    r.Credit.StringFixed(2),
		Date:      date,
		IsDebit:   r.isDebit,
		Effective: r.effective.StringFixed(2),
		Alias:     (*Alias)(r),
	})
}

// ParseAmount parses ledger amounts such as "1500", "1,500.00", "1.500,00",
// "₺1.234,5" or "(200,00)". A lone separator followed by exactly three digits
// is read as grouping, so "1.500" and "1,500" are both 1500. An empty string
// yields zero without error.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	for _, sym := range []string{"₺", "$", "€", "TL", "TRY", " ", " "} {
		s = strings.ReplaceAll(s, sym, "")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		// "1.500.000" and "1.500" are thousands grouping, same as the comma rule
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02.01.2006",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"2006/01/02",
	"2.1.2006",
}

// ParseDate parses a ledger date. Day-first layouts are tried before
// month-first ones since both ledgers are Turkish exports. Plain numbers in
// a plausible range are read as spreadsheet serial days.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, format := range dateFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 100000 {
		base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		return base.AddDate(0, 0, int(serial)), nil
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}
