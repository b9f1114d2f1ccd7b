package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		input   string
		want    Source
		wantErr bool
	}{
		{"depot", SourceDepot, false},
		{" Depo ", SourceDepot, false},
		{"PHARMACY", SourcePharmacy, false},
		{"eczane", SourcePharmacy, false},
		{"bank", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSource(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSource(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewRecord_DerivedAttributes(t *testing.T) {
	tests := []struct {
		name          string
		debit         string
		credit        string
		wantDebit     bool
		wantEffective string
	}{
		{"plain debit", "1500.00", "0", true, "1500"},
		{"plain credit", "0", "200.00", false, "200"},
		{"negative credit uses absolute", "0", "-200.00", false, "200"},
		{"debit below epsilon is credit side", "0.005", "50", false, "50"},
		{"debit exactly epsilon is not a debit", "0.01", "0", false, "0"},
		{"negative debit stays signed", "-75.50", "0", true, "-75.5"},
		{"both zero", "0", "0", false, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord(SourceDepot, 0, "A1", d(tt.debit), d(tt.credit), time.Time{}, "")
			if r.IsDebit() != tt.wantDebit {
				t.Errorf("IsDebit() = %v, want %v", r.IsDebit(), tt.wantDebit)
			}
			if !r.EffectiveAmount().Equal(d(tt.wantEffective)) {
				t.Errorf("EffectiveAmount() = %s, want %s", r.EffectiveAmount(), tt.wantEffective)
			}
		})
	}
}

func TestNewRecord_MissingDate(t *testing.T) {
	r := NewRecord(SourcePharmacy, 0, " X ", decimal.Zero, decimal.Zero, time.Time{}, "")
	if r.HasDate {
		t.Error("expected HasDate to be false")
	}
	if !r.Date.Equal(MissingDate) {
		t.Errorf("expected sentinel date, got %v", r.Date)
	}
	if r.InvoiceID != "X" {
		t.Errorf("expected trimmed invoice id, got %q", r.InvoiceID)
	}

	other := NewRecord(SourceDepot, 0, "Y", decimal.Zero, decimal.Zero, time.Time{}, "")
	if r.DaysApart(other) != 0 {
		t.Errorf("two missing dates should be 0 days apart, got %d", r.DaysApart(other))
	}
}

func TestDaysApart(t *testing.T) {
	a := NewRecord(SourceDepot, 0, "A", d("1"), decimal.Zero, time.Date(2024, 1, 11, 15, 0, 0, 0, time.UTC), "")
	b := NewRecord(SourcePharmacy, 0, "B", d("1"), decimal.Zero, time.Date(2024, 1, 12, 1, 0, 0, 0, time.UTC), "")
	if got := a.DaysApart(b); got != 1 {
		t.Errorf("expected 1 day apart, got %d", got)
	}
	if got := b.DaysApart(a); got != 1 {
		t.Errorf("expected symmetric distance, got %d", got)
	}

	missing := NewRecord(SourcePharmacy, 0, "C", d("1"), decimal.Zero, time.Time{}, "")
	if a.DaysApart(missing) < 40000 {
		t.Errorf("expected a real date to be far from the sentinel, got %d", a.DaysApart(missing))
	}

	far := NewRecord(SourceDepot, 0, "D", d("1"), decimal.Zero, time.Date(2502, 1, 10, 0, 0, 0, 0, time.UTC), "")
	tests := []struct {
		name  string
		other *Record
		want  int
	}{
		{"beyond duration range", missing, 219885},
		{"real date centuries earlier", NewRecord(SourcePharmacy, 0, "E", d("1"), decimal.Zero, time.Date(2150, 1, 1, 0, 0, 0, 0, time.UTC), ""), 128574},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := far.DaysApart(tt.other); got != tt.want {
				t.Errorf("DaysApart = %d, want %d", got, tt.want)
			}
			if got := tt.other.DaysApart(far); got != tt.want {
				t.Errorf("reverse DaysApart = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "0", false},
		{"1500", "1500", false},
		{"1500.00", "1500", false},
		{"1,500.00", "1500", false},
		{"1.500,00", "1500", false},
		{"1.234.567,89", "1234567.89", false},
		{"950,5", "950.5", false},
		{"1,234,567", "1234567", false},
		{"1.500.000", "1500000", false},
		{"1.500", "1500", false},
		{"1,500", "1500", false},
		{"1.5", "1.5", false},
		{"12.50", "12.5", false},
		{"-1.250", "-1250", false},
		{"₺1.234,50", "1234.5", false},
		{"$ 12.34", "12.34", false},
		{"200 TL", "200", false},
		{"(200,00)", "-200", false},
		{"-75.25", "-75.25", false},
		{"abc", "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				if !got.IsZero() {
					t.Errorf("expected zero on error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2024-01-10", false},
		{"10.01.2024", false},
		{"10/01/2024", false},
		{"10-01-2024", false},
		{"2024/01/10", false},
		{"10.1.2024", false},
		{"2024-01-10 00:00:00", false},
		{"45301", false},
		{"", true},
		{"not a date", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestNormalizeRow(t *testing.T) {
	cols := ColumnMap{InvoiceID: "Fatura No", Debit: "Borç", Credit: "Alacak", Date: "Tarih", Kind: "Tip"}

	t.Run("all columns", func(t *testing.T) {
		row := Row{Line: 2, Values: map[string]string{
			"Fatura No": " A100 ", "Borç": "1.500,00", "Alacak": "", "Tarih": "10.01.2024", "Tip": "Satış",
		}}
		r := NormalizeRow(SourceDepot, 0, row, cols)
		if r.InvoiceID != "A100" || !r.Debit.Equal(d("1500")) || !r.IsDebit() {
			t.Errorf("unexpected record: %s", r)
		}
		if !r.HasDate || r.Date.Format("2006-01-02") != "2024-01-10" {
			t.Errorf("unexpected date: %v", r.Date)
		}
		if r.Kind != "Satış" || r.Line != 2 {
			t.Errorf("unexpected kind/line: %q/%d", r.Kind, r.Line)
		}
	})

	t.Run("garbage values default", func(t *testing.T) {
		row := Row{Values: map[string]string{
			"Fatura No": "B1", "Borç": "n/a", "Tarih": "soon",
		}}
		r := NormalizeRow(SourcePharmacy, 0, row, cols)
		if !r.Debit.IsZero() || !r.Credit.IsZero() {
			t.Errorf("expected zero amounts, got %s", r)
		}
		if r.HasDate || !r.Date.Equal(MissingDate) {
			t.Errorf("expected missing date, got %v", r.Date)
		}
	})

	t.Run("unresolved optional columns", func(t *testing.T) {
		row := Row{Values: map[string]string{"Fatura No": "C1", "Borç": "10"}}
		r := NormalizeRow(SourceDepot, 0, row, ColumnMap{InvoiceID: "Fatura No", Debit: "Borç"})
		if r.Kind != "" || r.HasDate || !r.Credit.IsZero() {
			t.Errorf("expected defaults for unresolved columns, got %s", r)
		}
	})
}

func TestRowGet(t *testing.T) {
	row := Row{Values: map[string]string{"Tip": " İade ", "amount": "5"}}

	if v, ok := row.Get("Tip"); !ok || v != "İade" {
		t.Errorf("Get(Tip) = %q, %v", v, ok)
	}
	if v, ok := row.Get("AMOUNT"); !ok || v != "5" {
		t.Errorf("case-insensitive Get failed: %q, %v", v, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Error("expected missing column to report false")
	}

	ambiguous := Row{Values: map[string]string{"Tip": "Fatura", "TIP": "Devir", "tip ": "İade"}}
	for i := 0; i < 20; i++ {
		if v, _ := ambiguous.Get("tip"); v != "Devir" {
			t.Fatalf("expected lowest sorted header to win, got %q", v)
		}
	}
}

func TestRecordMarshalJSON(t *testing.T) {
	r := NewRecord(SourceDepot, 3, "A100", d("1500"), decimal.Zero, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "Fatura")
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	out := string(data)
	for _, want := range []string{`"debit":"1500.00"`, `"date":"2024-01-10"`, `"is_debit":true`, `"effective_amount":"1500.00"`, `"invoice_id":"A100"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}

	missing := NewRecord(SourceDepot, 0, "", decimal.Zero, d("5"), time.Time{}, "")
	data, _ = json.Marshal(missing)
	if strings.Contains(string(data), "1900") {
		t.Errorf("sentinel date leaked into JSON: %s", data)
	}
}
