package generator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerGenerator_Deterministic(t *testing.T) {
	a := NewLedgerGenerator(42)
	a.Generate(100, 2)
	b := NewLedgerGenerator(42)
	b.Generate(100, 2)

	if a.Expected() != b.Expected() {
		t.Errorf("same seed produced different counts: %+v vs %+v", a.Expected(), b.Expected())
	}
	if len(a.depot) != len(b.depot) || len(a.pharmacy) != len(b.pharmacy) {
		t.Fatalf("same seed produced different ledgers")
	}
	for i := range a.pharmacy {
		if strings.Join(a.pharmacy[i], ",") != strings.Join(b.pharmacy[i], ",") {
			t.Fatalf("pharmacy row %d differs", i)
		}
	}
}

func TestLedgerGenerator_Counts(t *testing.T) {
	g := NewLedgerGenerator(3)
	g.Generate(250, 5)
	e := g.Expected()

	if total := e.Green + e.Yellow + e.Orange + e.RedDepot + e.RedPharmacy; total != 250 {
		t.Errorf("expected categories to cover 250 invoices, got %d", total)
	}
	if e.FilteredDepot != 5 {
		t.Errorf("expected 5 filtered rows, got %d", e.FilteredDepot)
	}

	wantDepot := e.Green + e.Yellow + e.Orange + e.RedDepot + e.FilteredDepot
	if len(g.depot) != wantDepot {
		t.Errorf("expected %d depot rows, got %d", wantDepot, len(g.depot))
	}
	wantPharmacy := e.Green + e.Yellow + e.Orange + e.RedPharmacy
	if len(g.pharmacy) != wantPharmacy {
		t.Errorf("expected %d pharmacy rows, got %d", wantPharmacy, len(g.pharmacy))
	}
}

func TestTurkishAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", ""},
		{"12.5", "12,50"},
		{"999.99", "999,99"},
		{"1234.5", "1.234,50"},
		{"1234567.89", "1.234.567,89"},
	}

	for _, tt := range tests {
		got := turkishAmount(decimal.RequireFromString(tt.amount))
		if got != tt.want {
			t.Errorf("turkishAmount(%s) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestLedgerGenerator_Write(t *testing.T) {
	g := NewLedgerGenerator(9)
	g.Generate(20, 1)

	dir := t.TempDir()
	if err := g.Write(dir); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	depot, err := os.ReadFile(filepath.Join(dir, "depot.csv"))
	if err != nil {
		t.Fatalf("failed to read depot.csv: %v", err)
	}
	if !strings.HasPrefix(string(depot), "Fatura No;Tarih;Borç;Alacak;İşlem Tipi\n") {
		t.Errorf("unexpected depot header: %q", strings.SplitN(string(depot), "\n", 2)[0])
	}

	data, err := os.ReadFile(filepath.Join(dir, "expected.json"))
	if err != nil {
		t.Fatalf("failed to read expected.json: %v", err)
	}
	var e Expected
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("invalid expected.json: %v", err)
	}
	if e != g.Expected() {
		t.Errorf("expected.json = %+v, want %+v", e, g.Expected())
	}

	if _, err := os.Stat(filepath.Join(dir, "filters.yaml")); err != nil {
		t.Errorf("filters.yaml not written: %v", err)
	}
}
