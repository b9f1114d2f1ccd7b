package matcher

import (
	"ledger-reconciliation-service/internal/models"
)

// RecordIndex holds one source's records keyed by invoice id. When an id
// repeats, the later record replaces the earlier one in the earlier one's
// position and the earlier one is kept in Superseded.
type RecordIndex struct {
	byID       map[string]*models.Record
	order      []*models.Record
	Superseded []*models.Record
}

// NewRecordIndex indexes records in input order. Records without an invoice
// id are not keyed but keep their place in Records.
func NewRecordIndex(records []*models.Record) *RecordIndex {
	idx := &RecordIndex{
		byID:  make(map[string]*models.Record),
		order: make([]*models.Record, 0, len(records)),
	}
	slot := make(map[string]int)

	for _, r := range records {
		if !r.HasInvoiceID() {
			idx.order = append(idx.order, r)
			continue
		}
		if i, seen := slot[r.InvoiceID]; seen {
			idx.Superseded = append(idx.Superseded, idx.order[i])
			idx.order[i] = r
			idx.byID[r.InvoiceID] = r
			continue
		}
		slot[r.InvoiceID] = len(idx.order)
		idx.order = append(idx.order, r)
		idx.byID[r.InvoiceID] = r
	}
	return idx
}

// Lookup returns the surviving record for id
func (idx *RecordIndex) Lookup(id string) (*models.Record, bool) {
	r, ok := idx.byID[id]
	return r, ok
}

// Records returns the surviving records in input order, unkeyed ones included
func (idx *RecordIndex) Records() []*models.Record {
	return append([]*models.Record(nil), idx.order...)
}

// Len returns the number of surviving records
func (idx *RecordIndex) Len() int {
	return len(idx.order)
}

// KeyCount returns the number of distinct invoice ids
func (idx *RecordIndex) KeyCount() int {
	return len(idx.byID)
}
