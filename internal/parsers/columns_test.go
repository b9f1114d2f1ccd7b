package parsers

import (
	"testing"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/pkg/errors"
)

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Fatura No":       "faturano",
		"İşlem Tipi":      "islemtipi",
		"BORÇ (TL)":       "borctl",
		"  invoice_id  ":  "invoiceid",
		"Fatura Tarihi:":  "faturatarihi",
		"---":             "",
	}
	for input, want := range tests {
		if got := NormalizeHeader(input); got != want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name    string
		source  models.Source
		headers []string
		want    models.ColumnMap
	}{
		{
			name:    "exact depot headers",
			source:  models.SourceDepot,
			headers: []string{"Tarih", "Evrak No", "Borç", "Alacak", "İşlem Tipi"},
			want:    models.ColumnMap{InvoiceID: "Evrak No", Debit: "Borç", Credit: "Alacak", Date: "Tarih", Kind: "İşlem Tipi"},
		},
		{
			name:    "first alias wins over later alias",
			source:  models.SourceDepot,
			headers: []string{"Evrak No", "Fatura No", "Tutar"},
			want:    models.ColumnMap{InvoiceID: "Fatura No", Debit: "Tutar"},
		},
		{
			name:    "case and diacritics folded",
			source:  models.SourcePharmacy,
			headers: []string{"FATURA NO", "borc", "fatura tarihi"},
			want:    models.ColumnMap{InvoiceID: "FATURA NO", Debit: "borc", Date: "fatura tarihi"},
		},
		{
			name:    "substring fallback",
			source:  models.SourcePharmacy,
			headers: []string{"Eczane Fatura No.", "Toplam Tutar (TL)", "Fatura Tarihi/Saat"},
			want:    models.ColumnMap{InvoiceID: "Eczane Fatura No.", Debit: "Toplam Tutar (TL)", Date: "Fatura Tarihi/Saat"},
		},
		{
			name:    "reverse containment",
			source:  models.SourceDepot,
			headers: []string{"Fatura", "Borç"},
			want:    models.ColumnMap{InvoiceID: "Fatura", Debit: "Borç"},
		},
		{
			name:    "english headers",
			source:  models.SourceDepot,
			headers: []string{"invoice_id", "debit", "credit", "date", "kind"},
			want:    models.ColumnMap{InvoiceID: "invoice_id", Debit: "debit", Credit: "credit", Date: "date", Kind: "kind"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveColumns(tt.source, tt.headers, DefaultAliases(tt.source))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveColumns() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveColumns_MissingInvoice(t *testing.T) {
	headers := []string{"Tarih", "Borç", "Açıklama"}
	cols, err := ResolveColumns(models.SourcePharmacy, headers, DefaultAliases(models.SourcePharmacy))
	if err == nil {
		t.Fatal("expected a configuration error")
	}

	rerr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("expected ReconcilerError, got %T", err)
	}
	if rerr.Category != errors.CategoryConfiguration || rerr.Code != errors.CodeMissingColumn {
		t.Errorf("unexpected category/code %s/%s", rerr.Category, rerr.Code)
	}
	if rerr.Context["source"] != "pharmacy" {
		t.Errorf("expected source in context, got %v", rerr.Context["source"])
	}
	available, _ := rerr.Context["available_columns"].([]string)
	if len(available) != 3 {
		t.Errorf("expected available columns in context, got %v", available)
	}

	if cols.Debit != "Borç" || cols.Date != "Tarih" {
		t.Errorf("expected other fields still resolved, got %+v", cols)
	}
}

func TestAliasTable_Merge(t *testing.T) {
	base := DefaultAliases(models.SourceDepot)
	merged := base.Merge(AliasTable{FieldInvoiceID: {"Belge Kodu"}, FieldDate: nil})

	if len(merged[FieldInvoiceID]) != 1 || merged[FieldInvoiceID][0] != "Belge Kodu" {
		t.Errorf("expected invoice aliases to be replaced, got %v", merged[FieldInvoiceID])
	}
	if len(merged[FieldDate]) != len(base[FieldDate]) {
		t.Error("expected empty override to keep defaults")
	}

	merged[FieldDebit][0] = "changed"
	if DefaultAliases(models.SourceDepot)[FieldDebit][0] == "changed" {
		t.Error("expected defaults to be isolated from merged copies")
	}

	cols, err := ResolveColumns(models.SourceDepot, []string{"Belge Kodu", "Borç"}, merged)
	if err != nil || cols.InvoiceID != "Belge Kodu" {
		t.Errorf("expected custom alias to resolve, got %+v, %v", cols, err)
	}
}

func TestUnresolved(t *testing.T) {
	missing := Unresolved(models.ColumnMap{InvoiceID: "No", Debit: "Tutar"})
	if len(missing) != 3 || missing[0] != FieldCredit || missing[1] != FieldDate || missing[2] != FieldKind {
		t.Errorf("unexpected unresolved fields: %v", missing)
	}
}
