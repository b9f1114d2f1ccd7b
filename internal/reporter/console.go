package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/reconciler"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorGreen  lipgloss.Color = "#a6e3a1"
	colorYellow lipgloss.Color = "#f9e2af"
	colorPeach  lipgloss.Color = "#fab387"
	colorRed    lipgloss.Color = "#f38ba8"
	colorMaroon lipgloss.Color = "#eba0ac"
	colorText   lipgloss.Color = "#cdd6f4"
	colorMuted  lipgloss.Color = "#7f849c"
)

var categoryColors = map[matcher.Category]lipgloss.Color{
	matcher.CategoryGreen:       colorGreen,
	matcher.CategoryYellow:      colorYellow,
	matcher.CategoryOrange:      colorPeach,
	matcher.CategoryRedDepot:    colorRed,
	matcher.CategoryRedPharmacy: colorMaroon,
}

var categoryTitles = map[matcher.Category]string{
	matcher.CategoryGreen:       "GREEN - invoice and amount agree",
	matcher.CategoryYellow:      "YELLOW - amount agrees, invoice differs",
	matcher.CategoryOrange:      "ORANGE - invoice agrees, amount or type differs",
	matcher.CategoryRedDepot:    "RED (DEPOT) - only in depot ledger",
	matcher.CategoryRedPharmacy: "RED (PHARMACY) - only in pharmacy ledger",
}

// consoleStyles holds the styles bound to one output writer
type consoleStyles struct {
	renderer *lipgloss.Renderer
	useColor bool
}

func newConsoleStyles(w io.Writer, useColor bool) *consoleStyles {
	return &consoleStyles{renderer: lipgloss.NewRenderer(w), useColor: useColor}
}

func (s *consoleStyles) fg(c lipgloss.Color) lipgloss.Style {
	style := s.renderer.NewStyle()
	if s.useColor {
		style = style.Foreground(c)
	}
	return style
}

func (s *consoleStyles) title() lipgloss.Style {
	return s.fg(colorText).Bold(true)
}

func (s *consoleStyles) muted() lipgloss.Style {
	return s.fg(colorMuted)
}

func (s *consoleStyles) panel(c lipgloss.Color) lipgloss.Style {
	style := s.renderer.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if s.useColor {
		style = style.BorderForeground(c)
	}
	return style
}

// generateConsoleReport writes a human-readable report
func (rg *ReportGenerator) generateConsoleReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	styles := newConsoleStyles(writer, rg.config.UseColors)

	var header strings.Builder
	header.WriteString(styles.title().Render("LEDGER RECONCILIATION REPORT") + "\n")
	header.WriteString(styles.muted().Render(fmt.Sprintf("Run: %s", result.RunID)) + "\n")
	header.WriteString(styles.muted().Render(fmt.Sprintf("Generated: %s (%v)",
		result.ProcessedAt.Format(time.RFC3339), result.Summary.ProcessingDuration)))
	for _, in := range result.Inputs {
		header.WriteString("\n" + styles.muted().Render(fmt.Sprintf("%s: %s (%d rows)", in.Source, in.Path, in.Rows)))
	}
	if _, err := fmt.Fprintln(writer, header.String()); err != nil {
		return err
	}

	sections := []string{
		rg.renderSummary(styles, result.Summary),
		rg.renderNet(styles, result.Summary),
	}

	if rg.config.IncludeGreen {
		sections = append(sections, rg.renderPairs(styles, matcher.CategoryGreen, result.Green))
	}
	sections = append(sections,
		rg.renderPairs(styles, matcher.CategoryYellow, result.Yellow),
		rg.renderPairs(styles, matcher.CategoryOrange, result.Orange),
		rg.renderSingles(styles, matcher.CategoryRedDepot, result.RedDepot),
		rg.renderSingles(styles, matcher.CategoryRedPharmacy, result.RedPharmacy),
	)

	if rg.config.IncludeFiltered && len(result.FilteredDepot)+len(result.FilteredPharmacy) > 0 {
		sections = append(sections, rg.renderFiltered(styles, result))
	}
	if rg.config.IncludeSuperseded && len(result.Superseded) > 0 {
		sections = append(sections, rg.renderSuperseded(styles, result.Superseded))
	}

	for _, section := range sections {
		if _, err := fmt.Fprintln(writer, section); err != nil {
			return err
		}
	}
	return nil
}

func (rg *ReportGenerator) renderSummary(styles *consoleStyles, summary *reconciler.ResultSummary) string {
	var b strings.Builder
	b.WriteString(styles.title().Render("SUMMARY") + "\n")
	b.WriteString(fmt.Sprintf("%-16s %7s %16s %16s %16s", "Category", "Count", "Depot", "Pharmacy", "Difference"))
	for _, category := range matcher.Categories {
		t := summary.Totals(category)
		label := styles.fg(categoryColors[category]).Render(fmt.Sprintf("%-16s", category))
		b.WriteString(fmt.Sprintf("\n%s %7d %16s %16s %16s", label, t.Count,
			t.DepotSum.StringFixed(2), t.PharmacySum.StringFixed(2), t.Difference.StringFixed(2)))
	}
	b.WriteString(fmt.Sprintf("\n\nRecords: depot %d, pharmacy %d", summary.DepotRecords, summary.PharmacyRecords))
	b.WriteString(fmt.Sprintf("\nFiltered: depot %d, pharmacy %d", summary.FilteredDepot, summary.FilteredPharmacy))
	if summary.Superseded > 0 {
		b.WriteString(fmt.Sprintf("\nSuperseded duplicates: %d", summary.Superseded))
	}
	return styles.panel(colorText).Render(b.String())
}

func (rg *ReportGenerator) renderNet(styles *consoleStyles, summary *reconciler.ResultSummary) string {
	diffColor := colorGreen
	if !summary.NetDifference.Abs().LessThan(models.Epsilon) {
		diffColor = colorRed
	}
	body := fmt.Sprintf("%s\nDepot:      %16s\nPharmacy:   %16s\nDifference: %s",
		styles.title().Render("NET PAYABLE"),
		summary.DepotNet.StringFixed(2),
		summary.PharmacyNet.StringFixed(2),
		styles.fg(diffColor).Bold(true).Render(fmt.Sprintf("%16s", summary.NetDifference.StringFixed(2))))
	return styles.panel(diffColor).Render(body)
}

func (rg *ReportGenerator) renderPairs(styles *consoleStyles, category matcher.Category, pairs []matcher.Pair) string {
	color := categoryColors[category]
	lines := []string{styles.fg(color).Bold(true).Render(fmt.Sprintf("%s (%d)", categoryTitles[category], len(pairs)))}

	for i, p := range pairs {
		if rg.limitReached(i) {
			lines = append(lines, styles.muted().Render(fmt.Sprintf("... and %d more", len(pairs)-i)))
			break
		}
		line := fmt.Sprintf("%-14s %10s %12s  <->  %-14s %10s %12s",
			orDash(p.Depot.InvoiceID), orDash(formatDate(p.Depot)), p.Depot.EffectiveAmount().StringFixed(2),
			orDash(p.Pharmacy.InvoiceID), orDash(formatDate(p.Pharmacy)), p.Pharmacy.EffectiveAmount().StringFixed(2))
		switch category {
		case matcher.CategoryYellow:
			line += fmt.Sprintf("  %dd", p.DaysDiff)
		case matcher.CategoryOrange:
			line += fmt.Sprintf("  diff %s", p.AmountDifference().StringFixed(2))
			if p.Depot.IsDebit() != p.Pharmacy.IsDebit() {
				line += " (debit/credit)"
			}
		}
		lines = append(lines, line)
	}
	return styles.panel(color).Render(strings.Join(lines, "\n"))
}

func (rg *ReportGenerator) renderSingles(styles *consoleStyles, category matcher.Category, records []*models.Record) string {
	color := categoryColors[category]
	lines := []string{styles.fg(color).Bold(true).Render(fmt.Sprintf("%s (%d)", categoryTitles[category], len(records)))}

	for i, r := range records {
		if rg.limitReached(i) {
			lines = append(lines, styles.muted().Render(fmt.Sprintf("... and %d more", len(records)-i)))
			break
		}
		lines = append(lines, formatRecordLine(r))
	}
	return styles.panel(color).Render(strings.Join(lines, "\n"))
}

func (rg *ReportGenerator) renderFiltered(styles *consoleStyles, result *reconciler.ReconciliationResult) string {
	lines := []string{styles.title().Render(fmt.Sprintf("FILTERED (%d)", len(result.FilteredDepot)+len(result.FilteredPharmacy)))}
	add := func(source models.Source, rows []models.Row, cols models.ColumnMap) {
		for _, row := range rows {
			id, _ := row.Get(cols.InvoiceID)
			kind, _ := row.Get(cols.Kind)
			lines = append(lines, fmt.Sprintf("%-9s line %-5d %-14s %s", source, row.Line, orDash(id), kind))
		}
	}
	add(models.SourceDepot, result.FilteredDepot, result.DepotColumns)
	add(models.SourcePharmacy, result.FilteredPharmacy, result.PharmacyColumns)
	return styles.panel(colorMuted).Render(strings.Join(lines, "\n"))
}

func (rg *ReportGenerator) renderSuperseded(styles *consoleStyles, records []*models.Record) string {
	lines := []string{styles.title().Render(fmt.Sprintf("SUPERSEDED DUPLICATES (%d)", len(records)))}
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%-9s %s", r.Source, formatRecordLine(r)))
	}
	return styles.panel(colorMuted).Render(strings.Join(lines, "\n"))
}

func (rg *ReportGenerator) limitReached(i int) bool {
	return rg.config.MaxItems > 0 && i >= rg.config.MaxItems
}

func formatRecordLine(r *models.Record) string {
	side := "debit"
	if !r.IsDebit() {
		side = "credit"
	}
	return fmt.Sprintf("line %-5d %-14s %10s %12s %-6s %s",
		r.Line, orDash(r.InvoiceID), orDash(formatDate(r)), r.EffectiveAmount().StringFixed(2), side, r.Kind)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
