package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/internal/reporter"
	"ledger-reconciliation-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

var contentTypes = map[reporter.OutputFormat]string{
	reporter.FormatJSON:    "application/json; charset=utf-8",
	reporter.FormatCSV:     "text/csv; charset=utf-8",
	reporter.FormatConsole: "text/plain; charset=utf-8",
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.config.Version})
}

// reconcileJSON reconciles two ledgers sent as JSON rows
func (s *Server) reconcileJSON(c *gin.Context) {
	format, ok := s.outputFormat(c)
	if !ok {
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, BadRequestError("invalid request body: "+err.Error()))
		return
	}

	service, err := s.serviceFor(req.Filters)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := service.ProcessReconciliation(c.Request.Context(), &reconciler.ReconciliationRequest{
		Depot:    req.Depot.toLedger(models.SourceDepot),
		Pharmacy: req.Pharmacy.toLedger(models.SourcePharmacy),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeResult(c, result, format)
}

// reconcileUpload reconciles two CSV files sent as multipart form fields
// depot_file and pharmacy_file
func (s *Server) reconcileUpload(c *gin.Context) {
	format, ok := s.outputFormat(c)
	if !ok {
		return
	}

	parser := parsers.NewLedgerParser(s.parseConfig)
	ctx := c.Request.Context()

	depot, err := s.parseUpload(ctx, c, parser, "depot_file", models.SourceDepot)
	if err != nil {
		s.writeError(c, err)
		return
	}
	pharmacy, err := s.parseUpload(ctx, c, parser, "pharmacy_file", models.SourcePharmacy)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := s.service.ProcessReconciliation(ctx, &reconciler.ReconciliationRequest{
		Depot:    depot,
		Pharmacy: pharmacy,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeResult(c, result, format)
}

func (s *Server) parseUpload(
	ctx context.Context,
	c *gin.Context,
	parser *parsers.LedgerParser,
	field string,
	source models.Source,
) (*models.Ledger, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, errors.ValidationError(errors.CodeMissingField, field, nil, err).
			WithSuggestion("Send both depot_file and pharmacy_file as multipart form files")
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, header.Filename, err)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	ledger, _, err := parser.Parse(ctx, file, header.Filename, source)
	return ledger, err
}

// serviceFor returns the server's service, or one with the request's filters
// in place of the configured ones
func (s *Server) serviceFor(spec *FilterSpec) (*reconciler.ReconciliationService, error) {
	if spec == nil {
		return s.service, nil
	}
	config := *s.service.GetConfiguration()
	config.Filters = matcher.Filters{
		Depot:    matcher.NewFilterRules(spec.Depot),
		Pharmacy: matcher.NewFilterRules(spec.Pharmacy),
	}
	return reconciler.NewReconciliationService(&config)
}

func (s *Server) outputFormat(c *gin.Context) (reporter.OutputFormat, bool) {
	format, err := reporter.ParseOutputFormat(c.DefaultQuery("format", string(reporter.FormatJSON)))
	if err != nil {
		c.JSON(http.StatusBadRequest, BadRequestError(err.Error()))
		return "", false
	}
	return format, true
}

func (s *Server) writeResult(c *gin.Context, result *reconciler.ReconciliationResult, format reporter.OutputFormat) {
	config := reporter.DefaultReportConfig()
	config.Format = format
	config.UseColors = false
	config.MaxItems = 0

	generator, err := reporter.NewReportGenerator(config)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(result, &buf); err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("X-Run-ID", result.RunID)
	c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
}

func (s *Server) writeError(c *gin.Context, err error) {
	reconcilerErr := errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "request failed")

	status := http.StatusInternalServerError
	switch reconcilerErr.Category {
	case errors.CategoryConfiguration, errors.CategoryValidation, errors.CategoryParse, errors.CategoryFile:
		status = http.StatusBadRequest
	}

	log := s.logger.WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		log.Error("Reconciliation request failed")
		c.JSON(status, APIError{Code: ErrCodeInternalError, Message: "an internal error occurred"})
		return
	}
	log.Warn("Reconciliation request rejected")
	c.JSON(status, fromReconcilerError(reconcilerErr))
}
