// Package reconciler provides high-level orchestration for ledger
// reconciliation.
//
// The ReconciliationService runs the matching pipeline on two parsed ledgers:
// column resolution, row filtering, normalization, invoice id matching,
// amount matching and aggregation. The ReconciliationOrchestrator adds file
// loading and progress reporting on top of it.
//
// Example usage:
//
//	service, _ := reconciler.NewReconciliationService(reconciler.DefaultConfig())
//	orchestrator, _ := reconciler.NewReconciliationOrchestrator(service, parsers.DefaultParseConfig())
//	orchestrator.AddProgressCallback(func(p *reconciler.ReconciliationProgress) {
//		fmt.Printf("%.0f%% %s\n", p.PercentComplete, p.CurrentStep)
//	})
//
//	result, err := orchestrator.ProcessFiles(ctx, &reconciler.FileRequest{
//		DepotFile:    "depo.csv",
//		PharmacyFile: "eczane.csv",
//	})
package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

const totalSteps = 3

// ReconciliationOrchestrator loads both ledger files and reconciles them
type ReconciliationOrchestrator struct {
	service *ReconciliationService
	parser  *parsers.LedgerParser
	logger  logger.Logger

	progressCallbacks []ProgressCallback
	currentProgress   *ReconciliationProgress
	progressMutex     sync.RWMutex
}

// ReconciliationProgress tracks the progress of a file reconciliation
type ReconciliationProgress struct {
	TotalSteps      int           `json:"total_steps"`
	CompletedSteps  int           `json:"completed_steps"`
	CurrentStep     string        `json:"current_step"`
	PercentComplete float64       `json:"percent_complete"`
	StartTime       time.Time     `json:"start_time"`
	ElapsedTime     time.Duration `json:"elapsed_time"`
}

// ProgressCallback is called to report reconciliation progress
type ProgressCallback func(*ReconciliationProgress)

// FileRequest names the two ledger files to reconcile
type FileRequest struct {
	DepotFile    string
	PharmacyFile string
}

// Validate validates the file request
func (r *FileRequest) Validate() error {
	if r.DepotFile == "" {
		return fmt.Errorf("depot file path is required")
	}
	if r.PharmacyFile == "" {
		return fmt.Errorf("pharmacy file path is required")
	}
	return nil
}

// NewReconciliationOrchestrator creates a new reconciliation orchestrator
func NewReconciliationOrchestrator(
	service *ReconciliationService,
	parseConfig *parsers.ParseConfig,
) (*ReconciliationOrchestrator, error) {
	if service == nil {
		return nil, errors.ValidationError(
			errors.CodeMissingField,
			"reconciliation_service",
			nil,
			nil,
		).WithSuggestion("Provide a valid ReconciliationService instance")
	}
	if parseConfig == nil {
		parseConfig = parsers.DefaultParseConfig()
	}
	if err := parseConfig.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "csv", nil, err)
	}

	return &ReconciliationOrchestrator{
		service:         service,
		parser:          parsers.NewLedgerParser(parseConfig),
		logger:          logger.WithComponent("reconciliation_orchestrator"),
		currentProgress: &ReconciliationProgress{TotalSteps: totalSteps},
	}, nil
}

// AddProgressCallback adds a progress callback function
func (ro *ReconciliationOrchestrator) AddProgressCallback(callback ProgressCallback) {
	ro.progressCallbacks = append(ro.progressCallbacks, callback)
}

// ProcessFiles parses both ledger files and reconciles them
func (ro *ReconciliationOrchestrator) ProcessFiles(ctx context.Context, request *FileRequest) (*ReconciliationResult, error) {
	if err := request.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "file", nil, err).
			WithSuggestion("Pass both --depot-file and --pharmacy-file")
	}

	ro.logger.WithFields(logger.Fields{
		"depot_file":    request.DepotFile,
		"pharmacy_file": request.PharmacyFile,
	}).Info("Starting file reconciliation")

	ro.initializeProgress()
	startTime := time.Now()

	ro.updateProgress("Parsing depot ledger", 0, 0)
	depot, depotStats, err := ro.parser.ParseFile(ctx, request.DepotFile, models.SourceDepot)
	if err != nil {
		ro.logger.WithError(err).WithField("file", request.DepotFile).Error("Failed to parse depot ledger")
		return nil, err
	}

	ro.updateProgress("Parsing pharmacy ledger", 1, time.Since(startTime))
	pharmacy, pharmacyStats, err := ro.parser.ParseFile(ctx, request.PharmacyFile, models.SourcePharmacy)
	if err != nil {
		ro.logger.WithError(err).WithField("file", request.PharmacyFile).Error("Failed to parse pharmacy ledger")
		return nil, err
	}

	ro.updateProgress("Matching records", 2, time.Since(startTime))
	result, err := ro.service.ProcessReconciliation(ctx, &ReconciliationRequest{
		Depot:    depot,
		Pharmacy: pharmacy,
	})
	if err != nil {
		return nil, err
	}

	result.Inputs = []InputInfo{
		{Source: models.SourceDepot, Path: request.DepotFile, Rows: depotStats.RowsRead},
		{Source: models.SourcePharmacy, Path: request.PharmacyFile, Rows: pharmacyStats.RowsRead},
	}

	ro.updateProgress("Completed", totalSteps, time.Since(startTime))
	return result, nil
}

// GetProgress returns a snapshot of the current progress
func (ro *ReconciliationOrchestrator) GetProgress() ReconciliationProgress {
	ro.progressMutex.RLock()
	defer ro.progressMutex.RUnlock()
	return *ro.currentProgress
}

func (ro *ReconciliationOrchestrator) initializeProgress() {
	ro.progressMutex.Lock()
	defer ro.progressMutex.Unlock()

	ro.currentProgress = &ReconciliationProgress{
		TotalSteps: totalSteps,
		StartTime:  time.Now(),
	}
}

func (ro *ReconciliationOrchestrator) updateProgress(step string, completed int, elapsed time.Duration) {
	ro.progressMutex.Lock()
	ro.currentProgress.CurrentStep = step
	ro.currentProgress.CompletedSteps = completed
	ro.currentProgress.ElapsedTime = elapsed
	ro.currentProgress.PercentComplete = float64(completed) / float64(ro.currentProgress.TotalSteps) * 100
	snapshot := *ro.currentProgress
	ro.progressMutex.Unlock()

	for _, callback := range ro.progressCallbacks {
		callback(&snapshot)
	}
}
