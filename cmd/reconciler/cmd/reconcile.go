package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ledger-reconciliation-service/cmd/reconciler/config"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/internal/reporter"
	"ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	depotFile    string
	pharmacyFile string
	filterFile   string
	noColor      bool
	showProgress bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a depot ledger with a pharmacy ledger",
	Long: `Reconcile reads the depot and pharmacy ledger exports, drops rows excluded
by the configured filters and sorts every remaining invoice into one of the
green, yellow, orange or red categories.

Column headers are found through alias lists (for example "Fatura No",
"Evrak No" or "Belge No" for the invoice number). Use 'reconciler columns'
to check how a file's headers resolve.

Examples:
  # Console report
  reconciler reconcile --depot-file depo.csv --pharmacy-file eczane.csv

  # Semicolon separated legacy export with row filters
  reconciler reconcile -d depo.csv -p eczane.csv \
    --delimiter semicolon --encoding windows-1254 --filter-file filters.yaml

  # JSON report written to a file
  reconciler reconcile -d depo.csv -p eczane.csv \
    --output-format json --output-file report.json`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&depotFile, "depot-file", "d", "", "path to the depot (supplier) ledger CSV file (required)")
	reconcileCmd.Flags().StringVarP(&pharmacyFile, "pharmacy-file", "p", "", "path to the pharmacy (customer) ledger CSV file (required)")

	// Input flags
	reconcileCmd.Flags().String("delimiter", "auto", "field delimiter: auto, comma, semicolon, tab, pipe")
	reconcileCmd.Flags().String("encoding", "utf-8", "file encoding: utf-8, windows-1254, iso-8859-9, windows-1252")
	reconcileCmd.Flags().StringVar(&filterFile, "filter-file", "", "YAML file of row filters, replaces filters from the config file")

	// Output flags
	reconcileCmd.Flags().StringP("output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringP("output-file", "o", "", "output file path (default: stdout)")
	reconcileCmd.Flags().Int("max-items", 50, "maximum items listed per console panel, 0 for all")
	reconcileCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored console output")

	// UI flags
	reconcileCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	// Mark required flags
	reconcileCmd.MarkFlagRequired("depot-file")
	reconcileCmd.MarkFlagRequired("pharmacy-file")

	// Bind flags to viper so the config file and environment can set them
	viper.BindPFlag("csv.delimiter", reconcileCmd.Flags().Lookup("delimiter"))
	viper.BindPFlag("csv.encoding", reconcileCmd.Flags().Lookup("encoding"))
	viper.BindPFlag("output.format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output.file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("output.max_items", reconcileCmd.Flags().Lookup("max-items"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(depotFile, "depot-file"); err != nil {
		return err
	}
	if err := validateFileExists(pharmacyFile, "pharmacy-file"); err != nil {
		return err
	}
	if filterFile != "" {
		if err := validateFileExists(filterFile, "filter-file"); err != nil {
			return err
		}
	}

	// Validate output file directory exists if specified
	if outputFile := viper.GetString("output.file"); outputFile != "" {
		dir := filepath.Dir(outputFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "output-file", outputFile, err).
				WithSuggestion(fmt.Sprintf("Create the directory %s first", dir))
		}
	}

	return nil
}

func validateFileExists(filePath, flag string) error {
	if filePath == "" {
		return errors.ValidationError(errors.CodeMissingField, flag, nil, nil)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	if os.IsPermission(err) {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}
	if err != nil {
		return errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	if info.IsDir() {
		return errors.ValidationError(errors.CodeInvalidFormat, flag, filePath, nil).
			WithSuggestion("Pass a CSV file, not a directory")
	}
	return nil
}

// reconcileOptions is everything a run needs, built from settings and flags
type reconcileOptions struct {
	orchestrator *reconciler.ReconciliationOrchestrator
	report       *reporter.ReportConfig
	outputFile   string
}

func buildReconcileOptions(settings *config.Settings) (*reconcileOptions, error) {
	parseConfig, err := settings.ParseConfig()
	if err != nil {
		return nil, err
	}

	reconcilerConfig, err := settings.ReconcilerConfig()
	if err != nil {
		return nil, err
	}
	if filterFile != "" {
		filters, err := config.LoadFilterFile(filterFile)
		if err != nil {
			return nil, err
		}
		reconcilerConfig.Filters = filters
	}

	reportConfig, err := settings.ReportConfig()
	if err != nil {
		return nil, err
	}
	if noColor || settings.Output.File != "" {
		reportConfig.UseColors = false
	}

	service, err := reconciler.NewReconciliationService(reconcilerConfig)
	if err != nil {
		return nil, err
	}
	orchestrator, err := reconciler.NewReconciliationOrchestrator(service, parseConfig)
	if err != nil {
		return nil, err
	}

	return &reconcileOptions{
		orchestrator: orchestrator,
		report:       reportConfig,
		outputFile:   settings.Output.File,
	}, nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.WithComponent("cli")

	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	opts, err := buildReconcileOptions(settings)
	if err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"depot_file":    depotFile,
		"pharmacy_file": pharmacyFile,
		"output_format": opts.report.Format,
		"output_file":   opts.outputFile,
	}).Debug("Starting reconciliation")

	opts.orchestrator.AddProgressCallback(func(progress *reconciler.ReconciliationProgress) {
		if showProgress {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r[%d/%d] %-28s (%.0f%% complete)",
				progress.CompletedSteps, progress.TotalSteps,
				progress.CurrentStep, progress.PercentComplete)
			return
		}
		log.WithField("step", progress.CurrentStep).Debug("Progress")
	})

	result, err := opts.orchestrator.ProcessFiles(ctx, &reconciler.FileRequest{
		DepotFile:    depotFile,
		PharmacyFile: pharmacyFile,
	})
	if showProgress {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return err
	}

	generator, err := reporter.NewSafeReportGenerator(opts.report, log)
	if err != nil {
		return err
	}

	if opts.outputFile == "" {
		if err := generator.GenerateReportSafely(result, cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		written, err := generator.WriteReportFile(result, opts.outputFile)
		if err != nil {
			return err
		}
		if written != opts.outputFile {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not write %s, report saved to %s\n", opts.outputFile, written)
		}
	}

	log.WithFields(logger.Fields{
		"run_id":        result.RunID,
		"discrepancies": result.Summary.Discrepancies(),
		"duration":      result.Summary.ProcessingDuration,
	}).Info("Reconciliation completed")

	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
