package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestReconcilerError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectCode: 2,
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeInvalidFormat,
			message:    "invalid format",
			expectCode: 3,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeMissingColumn,
			message:    "missing column",
			expectCode: 4,
		},
		{
			name:       "reconciliation error",
			category:   CategoryReconciliation,
			code:       CodeProcessingError,
			message:    "processing failed",
			cause:      errors.New("boom"),
			expectCode: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *ReconcilerError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}
			if err.Error() != tt.message {
				t.Errorf("expected error string %s, got %s", tt.message, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
			if len(err.StackTrace) == 0 {
				t.Error("expected a stack trace to be captured")
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CategoryFile, CodeFileNotFound, "x") != nil {
		t.Error("expected Wrap(nil) to return nil")
	}
}

func TestMissingColumnError(t *testing.T) {
	available := []string{"Evrak No", "Tarih", "Borc"}
	err := MissingColumnError("depot", "invoice_id", available)

	if err.Category != CategoryConfiguration || err.Code != CodeMissingColumn {
		t.Fatalf("unexpected category/code: %s/%s", err.Category, err.Code)
	}
	if err.GetExitCode() != 4 {
		t.Errorf("expected exit code 4, got %d", err.GetExitCode())
	}
	if !strings.Contains(err.Message, "Evrak No, Tarih, Borc") {
		t.Errorf("expected available columns in message, got %q", err.Message)
	}
	got, ok := err.Context["available_columns"].([]string)
	if !ok || len(got) != 3 {
		t.Errorf("expected available_columns context, got %v", err.Context["available_columns"])
	}
	if err.Suggestion == "" {
		t.Error("expected a suggestion")
	}
}

func TestClosestHeader(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		headers []string
		want    string
	}{
		{"exact", "date", []string{"amount", "date"}, "date"},
		{"near miss", "invoice", []string{"Invoce", "Total"}, "Invoce"},
		{"empty", "date", nil, ""},
		{"blank headers ignored", "date", []string{" ", "Tarih"}, "Tarih"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClosestHeader(tt.field, tt.headers); got != tt.want {
				t.Errorf("ClosestHeader(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestAsReconcilerError(t *testing.T) {
	base := New(CategoryFile, CodeFileNotFound, "missing")
	wrapped := fmt.Errorf("outer: %w", base)

	got, ok := AsReconcilerError(wrapped)
	if !ok || got != base {
		t.Fatalf("expected to extract the ReconcilerError from the chain")
	}

	if _, ok := AsReconcilerError(errors.New("plain")); ok {
		t.Error("expected plain errors not to match")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	base := New(CategoryParse, CodeInvalidFormat, "bad csv")
	if got := WrapIfNeeded(base, CategoryInternal, CodeUnexpectedError, "x"); got != base {
		t.Error("expected existing ReconcilerError to be returned as-is")
	}

	plain := errors.New("plain")
	got := WrapIfNeeded(plain, CategoryInternal, CodeUnexpectedError, "wrapped")
	if got.Category != CategoryInternal || got.Cause != plain {
		t.Errorf("expected plain error to be wrapped, got %+v", got)
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name     string
		err      *ReconcilerError
		category ErrorCategory
		exitCode int
		message  string
		context  string
	}{
		{"file not found", FileError(CodeFileNotFound, "depo.csv", cause), CategoryFile, 2, "file not found: depo.csv", "file_path"},
		{"unknown file code", FileError(CodeInvalidFormat, "depo.csv", nil), CategoryFile, 2, "problem with file: depo.csv", "file_path"},
		{"encoding", ParseError(CodeEncodingError, "eczane.csv", 7, cause), CategoryParse, 3, "cannot decode eczane.csv at line 7", "line"},
		{"missing field", ValidationError(CodeMissingField, "depot-file", nil, nil), CategoryValidation, 3, "required field 'depot-file' is missing or empty", "field"},
		{"invalid value", ValidationError(CodeInvalidFormat, "source", "supplier", nil), CategoryValidation, 3, "invalid value for 'source': supplier", "value"},
		{"invalid config", ConfigurationError(CodeInvalidConfig, "output.format", "xml", nil), CategoryConfiguration, 4, "invalid value for 'output.format': xml", "setting"},
		{"processing", ReconciliationError(CodeProcessingError, "matching", cause), CategoryReconciliation, 5, "matching failed", "operation"},
		{"internal", InternalError(CodeUnexpectedError, "csv_parsing", cause), CategoryInternal, 5, "unexpected error during csv_parsing", "operation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("category = %s, want %s", tt.err.Category, tt.category)
			}
			if got := tt.err.GetExitCode(); got != tt.exitCode {
				t.Errorf("exit code = %d, want %d", got, tt.exitCode)
			}
			if tt.err.Message != tt.message {
				t.Errorf("message = %q, want %q", tt.err.Message, tt.message)
			}
			if tt.err.Suggestion == "" {
				t.Error("expected a suggestion")
			}
			if _, ok := tt.err.Context[tt.context]; !ok {
				t.Errorf("expected context key %q in %v", tt.context, tt.err.Context)
			}
		})
	}

	if err := FileError(CodeFileNotFound, "depo.csv", cause); !errors.Is(err, cause) {
		t.Error("expected constructors to keep the cause in the chain")
	}
	if unknown := New(ErrorCategory("other"), CodeUnexpectedError, "x"); unknown.GetExitCode() != 1 {
		t.Errorf("expected exit code 1 for unknown category, got %d", unknown.GetExitCode())
	}
}
