// Package generator writes depot and pharmacy ledger pairs with a known
// category mix, plus the counts a correct reconciliation must report.
package generator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Expected holds the category counts the generated pair must reconcile to
type Expected struct {
	Seed          int64 `json:"seed"`
	Invoices      int   `json:"invoices"`
	Green         int   `json:"green"`
	Yellow        int   `json:"yellow"`
	Orange        int   `json:"orange"`
	RedDepot      int   `json:"red_depot"`
	RedPharmacy   int   `json:"red_pharmacy"`
	FilteredDepot int   `json:"filtered_depot"`
}

// LedgerGenerator builds ledger pairs from a seeded random source
type LedgerGenerator struct {
	rng      *rand.Rand
	used     map[string]bool
	baseDate time.Time

	depot    [][]string
	pharmacy [][]string
	expected Expected
}

type entry struct {
	invoice string
	date    time.Time
	debit   decimal.Decimal
	credit  decimal.Decimal
	kind    string
}

// NewLedgerGenerator creates a generator for seed
func NewLedgerGenerator(seed int64) *LedgerGenerator {
	return &LedgerGenerator{
		rng:      rand.New(rand.NewSource(seed)),
		used:     make(map[string]bool),
		baseDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		expected: Expected{Seed: seed},
	}
}

// Generate fills both ledgers. Roughly 60% of invoices agree, 15% match on
// amount only, 10% disagree on amount and the rest exist on one side.
func (g *LedgerGenerator) Generate(count, filtered int) {
	var pharmacy []entry
	g.expected.Invoices = count

	for i := 1; i <= count; i++ {
		amount := g.uniqueAmount()
		date := g.baseDate.AddDate(0, 0, g.rng.Intn(90))
		d := entry{invoice: fmt.Sprintf("FT%06d", i), date: date, debit: amount, kind: "Fatura"}

		// one in ten invoices is a payment recorded on the credit side
		if g.rng.Intn(10) == 0 {
			d.debit, d.credit, d.kind = decimal.Zero, amount, "Ödeme"
		}
		p := d

		switch roll := g.rng.Intn(100); {
		case roll < 60:
			g.expected.Green++
		case roll < 75:
			p.invoice = fmt.Sprintf("EC%06d", i)
			p.date = date.AddDate(0, 0, g.rng.Intn(4))
			g.expected.Yellow++
		case roll < 85:
			delta := decimal.New(int64(100+g.rng.Intn(5000)), -2)
			if d.credit.IsPositive() {
				p.credit = d.credit.Add(delta)
			} else {
				p.debit = d.debit.Add(delta)
			}
			g.expected.Orange++
		case roll < 93:
			g.depot = append(g.depot, depotRow(d))
			g.expected.RedDepot++
			continue
		default:
			pharmacy = append(pharmacy, p)
			g.expected.RedPharmacy++
			continue
		}

		g.depot = append(g.depot, depotRow(d))
		pharmacy = append(pharmacy, p)
	}

	for i := 1; i <= filtered; i++ {
		g.depot = append(g.depot, depotRow(entry{
			invoice: fmt.Sprintf("DV%04d", i),
			date:    g.baseDate,
			debit:   g.uniqueAmount(),
			kind:    "Devir",
		}))
		g.expected.FilteredDepot++
	}

	// pharmacy exports are sorted differently from the depot's
	g.rng.Shuffle(len(pharmacy), func(i, j int) { pharmacy[i], pharmacy[j] = pharmacy[j], pharmacy[i] })
	for _, p := range pharmacy {
		g.pharmacy = append(g.pharmacy, pharmacyRow(p))
	}
}

// Expected returns the counts for the generated pair
func (g *LedgerGenerator) Expected() Expected {
	return g.expected
}

// uniqueAmount returns an amount not used before, so that only the intended
// pairs can match on amount
func (g *LedgerGenerator) uniqueAmount() decimal.Decimal {
	for {
		amount := decimal.New(int64(1000+g.rng.Intn(5000000)), -2)
		key := amount.StringFixed(2)
		if !g.used[key] {
			g.used[key] = true
			return amount
		}
	}
}

// Write stores depot.csv, pharmacy.csv, filters.yaml and expected.json in dir
func (g *LedgerGenerator) Write(dir string) error {
	depotHeader := []string{"Fatura No", "Tarih", "Borç", "Alacak", "İşlem Tipi"}
	if err := writeCSV(filepath.Join(dir, "depot.csv"), ';', depotHeader, g.depot); err != nil {
		return err
	}

	pharmacyHeader := []string{"Fatura No", "Fatura Tarihi", "Tutar", "Ödeme", "Tip"}
	if err := writeCSV(filepath.Join(dir, "pharmacy.csv"), ',', pharmacyHeader, g.pharmacy); err != nil {
		return err
	}

	filters := "depot:\n  İşlem Tipi: [Devir]\n"
	if err := os.WriteFile(filepath.Join(dir, "filters.yaml"), []byte(filters), 0644); err != nil {
		return fmt.Errorf("failed to write filters: %w", err)
	}

	data, err := json.MarshalIndent(g.expected, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "expected.json"), append(data, '\n'), 0644)
}

func depotRow(e entry) []string {
	return []string{e.invoice, e.date.Format("02.01.2006"), turkishAmount(e.debit), turkishAmount(e.credit), e.kind}
}

func pharmacyRow(e entry) []string {
	return []string{e.invoice, e.date.Format("2006-01-02"), plainAmount(e.debit), plainAmount(e.credit), e.kind}
}

func plainAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

// turkishAmount formats 1234.5 as 1.234,50
func turkishAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	fixed := d.StringFixed(2)
	whole, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String() + "," + frac
}

func writeCSV(path string, delimiter rune, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = delimiter
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
