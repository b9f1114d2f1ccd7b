package parsers

import (
	"strings"
	"unicode"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/pkg/errors"
)

// Field is a logical ledger column
type Field string

const (
	FieldInvoiceID Field = "invoice_id"
	FieldDebit     Field = "debit"
	FieldCredit    Field = "credit"
	FieldDate      Field = "date"
	FieldKind      Field = "kind"
)

// Fields lists the logical columns in resolution order
var Fields = []Field{FieldInvoiceID, FieldDebit, FieldCredit, FieldDate, FieldKind}

// AliasTable maps each logical field to the header names accepted for it,
// most preferred first.
type AliasTable map[Field][]string

// Clone returns a deep copy of the table
func (t AliasTable) Clone() AliasTable {
	out := make(AliasTable, len(t))
	for f, aliases := range t {
		out[f] = append([]string(nil), aliases...)
	}
	return out
}

// Merge returns a copy of t where every field present in override replaces
// the field's alias list.
func (t AliasTable) Merge(override AliasTable) AliasTable {
	out := t.Clone()
	for f, aliases := range override {
		if len(aliases) > 0 {
			out[f] = append([]string(nil), aliases...)
		}
	}
	return out
}

var depotAliases = AliasTable{
	FieldInvoiceID: {"Fatura No", "Evrak No", "Belge No", "Fatura Numarası", "Invoice No", "Invoice ID", "invoice_id"},
	FieldDebit:     {"Borç", "Borc", "Fatura Tutarı", "Tutar", "Debit", "Amount"},
	FieldCredit:    {"Alacak", "Credit"},
	FieldDate:      {"Tarih", "Fatura Tarihi", "Evrak Tarihi", "İşlem Tarihi", "Date"},
	FieldKind:      {"İşlem Tipi", "Evrak Tipi", "Tip", "Tür", "Type", "Kind"},
}

var pharmacyAliases = AliasTable{
	FieldInvoiceID: {"Fatura No", "Fatura Numarası", "Belge No", "Evrak No", "Invoice No", "invoice_id"},
	FieldDebit:     {"Borç", "Borc", "Tutar", "Toplam Tutar", "Fatura Tutarı", "Debit", "Amount"},
	FieldCredit:    {"Alacak", "Ödeme", "Credit"},
	FieldDate:      {"Fatura Tarihi", "Tarih", "İşlem Tarihi", "Date"},
	FieldKind:      {"İşlem Tipi", "Tip", "Tür", "Açıklama", "Type", "Kind"},
}

// DefaultAliases returns a copy of the built-in alias table for a source
func DefaultAliases(source models.Source) AliasTable {
	if source == models.SourcePharmacy {
		return pharmacyAliases.Clone()
	}
	return depotAliases.Clone()
}

// ResolveColumns maps each logical field to a header. An exact alias match
// (case-insensitive) wins, with aliases tried in order. Otherwise the first
// alias whose normalized form contains, or is contained in, a normalized
// header not already claimed by another field is used. Failing to resolve
// the invoice id is a configuration error naming the available headers; the
// other fields are left empty.
func ResolveColumns(source models.Source, headers []string, aliases AliasTable) (models.ColumnMap, error) {
	claimed := make(map[string]bool)
	resolved := make(map[Field]string, len(Fields))

	for _, field := range Fields {
		if h := matchExact(headers, aliases[field]); h != "" {
			resolved[field] = h
			claimed[h] = true
		}
	}
	for _, field := range Fields {
		if resolved[field] != "" {
			continue
		}
		if h := matchContains(headers, aliases[field], claimed); h != "" {
			resolved[field] = h
			claimed[h] = true
		}
	}

	cols := models.ColumnMap{
		InvoiceID: resolved[FieldInvoiceID],
		Debit:     resolved[FieldDebit],
		Credit:    resolved[FieldCredit],
		Date:      resolved[FieldDate],
		Kind:      resolved[FieldKind],
	}

	if cols.InvoiceID == "" {
		return cols, errors.MissingColumnError(source.String(), string(FieldInvoiceID), headers)
	}
	return cols, nil
}

// Unresolved lists the optional fields that have no column
func Unresolved(cols models.ColumnMap) []Field {
	var missing []Field
	if cols.Debit == "" {
		missing = append(missing, FieldDebit)
	}
	if cols.Credit == "" {
		missing = append(missing, FieldCredit)
	}
	if cols.Date == "" {
		missing = append(missing, FieldDate)
	}
	if cols.Kind == "" {
		missing = append(missing, FieldKind)
	}
	return missing
}

func matchExact(headers, aliases []string) string {
	for _, alias := range aliases {
		a := strings.TrimSpace(alias)
		for _, h := range headers {
			if h == a {
				return h
			}
		}
		for _, h := range headers {
			if strings.EqualFold(h, a) || NormalizeHeader(h) == NormalizeHeader(a) {
				return h
			}
		}
	}
	return ""
}

func matchContains(headers, aliases []string, claimed map[string]bool) string {
	for _, alias := range aliases {
		a := NormalizeHeader(alias)
		if a == "" {
			continue
		}
		for _, h := range headers {
			if claimed[h] {
				continue
			}
			n := NormalizeHeader(h)
			if n == "" {
				continue
			}
			if strings.Contains(n, a) || strings.Contains(a, n) {
				return h
			}
		}
	}
	return ""
}

var turkishFold = strings.NewReplacer(
	"ı", "i", "İ", "i", "ş", "s", "Ş", "s", "ğ", "g", "Ğ", "g",
	"ü", "u", "Ü", "u", "ö", "o", "Ö", "o", "ç", "c", "Ç", "c",
)

// NormalizeHeader lowercases a header, folds Turkish letters to ASCII and
// strips everything that is not a letter or digit.
func NormalizeHeader(s string) string {
	s = turkishFold.Replace(s)
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
