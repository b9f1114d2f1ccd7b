package api

import (
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/pkg/errors"
)

// LedgerPayload is one ledger sent as JSON rows keyed by header
type LedgerPayload struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// toLedger converts the payload to a ledger. Row lines count from 2, as if
// the header sat on line 1.
func (p LedgerPayload) toLedger(source models.Source) *models.Ledger {
	ledger := &models.Ledger{Source: source, Headers: p.Headers}
	for i, values := range p.Rows {
		ledger.Rows = append(ledger.Rows, models.Row{Line: i + 2, Values: values})
	}
	return ledger
}

// ReconcileRequest is the body of POST /v1/reconcile
type ReconcileRequest struct {
	Depot    LedgerPayload `json:"depot"`
	Pharmacy LedgerPayload `json:"pharmacy"`
	Filters  *FilterSpec   `json:"filters,omitempty"`
}

// FilterSpec overrides the server's row filters for one request
type FilterSpec struct {
	Depot    map[string][]string `json:"depot"`
	Pharmacy map[string][]string `json:"pharmacy"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// APIError represents a structured error response
type APIError struct {
	Code       string                 `json:"code"`
	Category   string                 `json:"category,omitempty"`
	Message    string                 `json:"message"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Common error codes
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInternalError = "internal_error"
)

// BadRequestError creates a bad request error response
func BadRequestError(message string) APIError {
	return APIError{Code: ErrCodeBadRequest, Message: message}
}

// fromReconcilerError converts a ReconcilerError to its response form
func fromReconcilerError(err *errors.ReconcilerError) APIError {
	return APIError{
		Code:       string(err.Code),
		Category:   string(err.Category),
		Message:    err.Message,
		Suggestion: err.Suggestion,
		Context:    err.Context,
	}
}
