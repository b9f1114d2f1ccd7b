package cmd

import (
	"fmt"
	"io"
	"strings"

	"ledger-reconciliation-service/cmd/reconciler/config"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/pkg/errors"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	columnsFile   string
	columnsSource string
)

// columnsCmd shows how a ledger file's headers map to the logical columns
var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Show how a ledger file's headers resolve to columns",
	Long: `Columns reads the header of a ledger file and prints which header was
picked for each logical column (invoice_id, debit, credit, date, kind).
Use it to tune the columns.<source>.<field> aliases in the config file.

Example:
  reconciler columns --file depo.csv --source depot`,
	RunE: runColumns,
}

func init() {
	rootCmd.AddCommand(columnsCmd)

	columnsCmd.Flags().StringVar(&columnsFile, "file", "", "ledger CSV file (required)")
	columnsCmd.Flags().StringVar(&columnsSource, "source", "depot", "which ledger the file is: depot, pharmacy")
	columnsCmd.MarkFlagRequired("file")
}

func runColumns(cmd *cobra.Command, args []string) error {
	source, err := models.ParseSource(columnsSource)
	if err != nil {
		return errors.ValidationError(errors.CodeInvalidFormat, "source", columnsSource, err).
			WithSuggestion("Use depot or pharmacy")
	}
	if err := validateFileExists(columnsFile, "file"); err != nil {
		return err
	}

	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	parseConfig, err := settings.ParseConfig()
	if err != nil {
		return err
	}
	reconcilerConfig, err := settings.ReconcilerConfig()
	if err != nil {
		return err
	}

	aliases := reconcilerConfig.DepotAliases
	if source == models.SourcePharmacy {
		aliases = reconcilerConfig.PharmacyAliases
	}

	ledger, stats, err := parsers.NewLedgerParser(parseConfig).ParseFile(commandContext(cmd), columnsFile, source)
	if err != nil {
		return err
	}

	cols, resolveErr := parsers.ResolveColumns(source, ledger.Headers, aliases)
	printColumns(cmd.OutOrStdout(), ledger, stats, cols, aliases)
	return resolveErr
}

func printColumns(w io.Writer, ledger *models.Ledger, stats *parsers.ParseStats, cols models.ColumnMap, aliases parsers.AliasTable) {
	renderer := lipgloss.NewRenderer(w)
	header := renderer.NewStyle().Bold(true)
	missing := renderer.NewStyle().Faint(true)

	resolved := map[parsers.Field]string{
		parsers.FieldInvoiceID: cols.InvoiceID,
		parsers.FieldDebit:     cols.Debit,
		parsers.FieldCredit:    cols.Credit,
		parsers.FieldDate:      cols.Date,
		parsers.FieldKind:      cols.Kind,
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FIELD", "COLUMN", "ALIASES").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return renderer.NewStyle().Padding(0, 1)
		})

	for _, field := range parsers.Fields {
		column := resolved[field]
		if column == "" {
			column = missing.Render("(not found)")
		}
		t.Row(string(field), column, strings.Join(aliases[field], ", "))
	}

	fmt.Fprintf(w, "%s ledger: %s\n", ledger.Source, stats)
	fmt.Fprintf(w, "Headers: %s\n\n", strings.Join(ledger.Headers, " | "))
	fmt.Fprintln(w, t.Render())
}
