// Command ledgergen writes a depot and pharmacy ledger pair with a known
// category mix for manual and load testing.
//
//	go run ./cmd/ledgergen -count 500 -seed 42 -output-dir testdata/generated
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ledger-reconciliation-service/internal/generator"
)

func main() {
	var (
		outputDir = flag.String("output-dir", "generated", "Output directory for ledger files")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
		count     = flag.Int("count", 200, "Number of invoices to generate")
		filtered  = flag.Int("filtered", 3, "Number of opening balance (Devir) rows in the depot ledger")
	)
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	g := generator.NewLedgerGenerator(*seed)
	g.Generate(*count, *filtered)

	if err := g.Write(*outputDir); err != nil {
		log.Fatalf("Failed to write ledgers: %v", err)
	}

	fmt.Printf("Generated %d invoices in %s\n", *count, *outputDir)
	fmt.Printf("Seed used: %d\n", *seed)
}
