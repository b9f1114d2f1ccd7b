package reporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/reconciler"
)

func row(line int, id, amount, date, kind string) models.Row {
	return models.Row{Line: line, Values: map[string]string{
		"Fatura No": id, "Borç": amount, "Tarih": date, "Tip": kind,
	}}
}

func createTestResult(t *testing.T) *reconciler.ReconciliationResult {
	t.Helper()
	headers := []string{"Fatura No", "Borç", "Tarih", "Tip"}

	depot := &models.Ledger{Source: models.SourceDepot, Headers: headers, Rows: []models.Row{
		row(2, "A100", "1500.00", "2024-01-10", "Fatura"),
		row(3, "B200", "800.00", "2024-01-11", "Fatura"),
		row(4, "D400", "300.00", "", "Fatura"),
		row(5, "E500", "1000.00", "", "Fatura"),
		row(6, "Z000", "5000.00", "", "Devir"),
		row(7, "D400", "310.00", "", "Fatura"),
	}}
	pharmacy := &models.Ledger{Source: models.SourcePharmacy, Headers: headers, Rows: []models.Row{
		row(2, "A100", "1500.00", "2024-01-10", ""),
		row(3, "C300", "800.00", "2024-01-12", ""),
		row(4, "E500", "950.00", "", ""),
		row(5, "P900", "12.50", "", ""),
	}}

	config := reconciler.DefaultConfig()
	config.Filters.Depot = matcher.NewFilterRules(map[string][]string{"Tip": {"Devir"}})
	service, err := reconciler.NewReconciliationService(config)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	result, err := service.ProcessReconciliation(context.Background(), &reconciler.ReconciliationRequest{
		Depot:    depot,
		Pharmacy: pharmacy,
	})
	if err != nil {
		t.Fatalf("Reconciliation failed: %v", err)
	}
	return result
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"console", FormatConsole, false},
		{" JSON ", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportConfig_Validate(t *testing.T) {
	if err := DefaultReportConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}

	bad := DefaultReportConfig()
	bad.MaxItems = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative max items")
	}

	bad = DefaultReportConfig()
	bad.Format = FormatCSV
	bad.CSVDelimiter = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing csv delimiter")
	}

	if _, err := NewReportGenerator(&ReportConfig{Format: "pdf"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestGenerateReport_Console(t *testing.T) {
	result := createTestResult(t)

	config := DefaultReportConfig()
	config.UseColors = false
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(result, &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"LEDGER RECONCILIATION REPORT",
		"SUMMARY",
		"NET PAYABLE",
		"GREEN",
		"YELLOW",
		"ORANGE",
		"RED (DEPOT)",
		"RED (PHARMACY)",
		"FILTERED (1)",
		"SUPERSEDED DUPLICATES (1)",
		"A100",
		"C300",
		"diff 50.00",
		"P900",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console report missing %q", want)
		}
	}
}

func TestGenerateReport_ConsoleMaxItems(t *testing.T) {
	result := createTestResult(t)

	config := DefaultReportConfig()
	config.UseColors = false
	config.MaxItems = 1
	generator, _ := NewReportGenerator(config)

	result.RedPharmacy = append(result.RedPharmacy, result.RedPharmacy[0], result.RedPharmacy[0])

	var buf bytes.Buffer
	if err := generator.GenerateReport(result, &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	if !strings.Contains(buf.String(), "... and 2 more") {
		t.Error("expected truncated red pharmacy panel")
	}
}

func TestGenerateReport_JSON(t *testing.T) {
	result := createTestResult(t)

	config := DefaultReportConfig()
	config.Format = FormatJSON
	generator, _ := NewReportGenerator(config)

	var buf bytes.Buffer
	if err := generator.GenerateReport(result, &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}

	for _, key := range []string{"run_id", "summary", "green", "yellow", "orange", "red_depot", "red_pharmacy", "filtered_depot", "superseded"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON output missing %q", key)
		}
	}

	summary := decoded["summary"].(map[string]interface{})
	// superseded duplicates still count towards the net payable
	if summary["depot_net"] != "3910" {
		t.Errorf("depot_net = %v, want 3910", summary["depot_net"])
	}

	orange := decoded["orange"].([]interface{})
	depot := orange[0].(map[string]interface{})["depot"].(map[string]interface{})
	if depot["effective_amount"] != "1000.00" {
		t.Errorf("orange depot effective_amount = %v", depot["effective_amount"])
	}

	config.IncludeGreen = false
	buf.Reset()
	if err := generator.GenerateReport(result, &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	decoded = nil
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if _, ok := decoded["green"]; ok {
		t.Error("green should be omitted when IncludeGreen is false")
	}
}

func TestGenerateReport_CSV(t *testing.T) {
	result := createTestResult(t)

	config := DefaultReportConfig()
	config.Format = FormatCSV
	generator, _ := NewReportGenerator(config)

	var buf bytes.Buffer
	if err := generator.GenerateReport(result, &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV output: %v", err)
	}
	if len(records[0]) != len(csvHeaders) || records[0][0] != "category" {
		t.Fatalf("unexpected header: %v", records[0])
	}

	counts := make(map[string]int)
	for _, r := range records[1:] {
		counts[r[0]]++
	}

	want := map[string]int{
		"green":          1,
		"yellow":         1,
		"orange":         1,
		"red_depot":      1,
		"red_pharmacy":   1,
		"filtered_depot": 1,
		"superseded":     1,
	}
	for category, n := range want {
		if counts[category] != n {
			t.Errorf("%s lines = %d, want %d", category, counts[category], n)
		}
	}

	for _, r := range records[1:] {
		if r[0] == "orange" && r[7] != "50.00" {
			t.Errorf("orange difference = %s, want 50.00", r[7])
		}
		if r[0] == "red_pharmacy" && (r[4] != "P900" || r[6] != "12.50") {
			t.Errorf("unexpected red pharmacy line: %v", r)
		}
		if r[0] == "filtered_depot" && r[1] != "Z000" {
			t.Errorf("unexpected filtered line: %v", r)
		}
	}
}

func TestSafeReportGenerator(t *testing.T) {
	result := createTestResult(t)

	t.Run("invalid config", func(t *testing.T) {
		if _, err := NewSafeReportGenerator(&ReportConfig{Format: "pdf"}, nil); err == nil {
			t.Error("expected configuration error")
		}
	})

	t.Run("nil result", func(t *testing.T) {
		srg, err := NewSafeReportGenerator(nil, nil)
		if err != nil {
			t.Fatalf("Failed to create generator: %v", err)
		}
		if err := srg.GenerateReportSafely(nil, &bytes.Buffer{}); err == nil {
			t.Error("expected validation error for nil result")
		}
	})

	t.Run("write file", func(t *testing.T) {
		config := DefaultReportConfig()
		config.Format = FormatJSON
		srg, err := NewSafeReportGenerator(config, nil)
		if err != nil {
			t.Fatalf("Failed to create generator: %v", err)
		}

		path := filepath.Join(t.TempDir(), "report.json")
		written, err := srg.WriteReportFile(result, path)
		if err != nil {
			t.Fatalf("WriteReportFile failed: %v", err)
		}
		if written != path {
			t.Errorf("written path = %s, want %s", written, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read report: %v", err)
		}
		if !json.Valid(data) {
			t.Error("report file is not valid JSON")
		}
	})
}

func TestGenerateBackupPath(t *testing.T) {
	got := generateBackupPath("/readonly/out/report.csv")
	if filepath.Base(got) != "report_backup.csv" {
		t.Errorf("generateBackupPath() = %s", got)
	}
}
