package errors

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// template is the operator-facing wording for one code. The message format
// takes the subject of the constructor (a path, a field, a setting).
type template struct {
	format     string
	suggestion string
}

var fileTemplates = map[ErrorCode]template{
	CodeFileNotFound:   {"file not found: %s", "check that the path is right and the file exists"},
	CodeFilePermission: {"cannot read file: %s", "check that you have read access to the file"},
	CodeFileCorrupted:  {"cannot use file: %s", "export the ledger again and retry"},
}

var validationTemplates = map[ErrorCode]template{
	CodeMissingField: {"required field '%s' is missing or empty", "provide a value for this field"},
}

var configTemplates = map[ErrorCode]template{
	CodeInvalidConfig: {"invalid value for '%s'", "see 'reconciler --help' for accepted values"},
}

var reconcileTemplates = map[ErrorCode]template{
	CodeProcessingError: {"%s failed", "check both ledgers and try again"},
}

func lookup(table map[ErrorCode]template, code ErrorCode, fallback template) template {
	if t, ok := table[code]; ok {
		return t
	}
	return fallback
}

func build(err error, category ErrorCategory, code ErrorCode, message, suggestion string) *ReconcilerError {
	var e *ReconcilerError
	if err != nil {
		e = Wrap(err, category, code, message)
	} else {
		e = New(category, code, message)
	}
	return e.WithSuggestion(suggestion)
}

// FileError reports a ledger or config file that cannot be opened or read.
// The path is kept under "file_path" so the CLI can look for similar names.
func FileError(code ErrorCode, path string, err error) *ReconcilerError {
	t := lookup(fileTemplates, code, template{"problem with file: %s", "check the file and try again"})
	return build(err, CategoryFile, code, fmt.Sprintf(t.format, path), t.suggestion).
		WithContext("file_path", path)
}

// ParseError reports a CSV problem at a given line of file
func ParseError(code ErrorCode, file string, line int, err error) *ReconcilerError {
	var message, suggestion string
	switch code {
	case CodeEncodingError:
		message = fmt.Sprintf("cannot decode %s at line %d", file, line)
		suggestion = "pass --encoding windows-1254 for legacy Turkish exports, or save the file as UTF-8"
	case CodeInvalidFormat:
		message = fmt.Sprintf("malformed CSV in %s at line %d", file, line)
		suggestion = "check the delimiter and quoting of the exported ledger"
	default:
		message = fmt.Sprintf("cannot parse %s at line %d", file, line)
		suggestion = "check the exported ledger"
	}
	return build(err, CategoryParse, code, message, suggestion).
		WithContext("file", file).
		WithContext("line", line)
}

// ValidationError reports a bad or absent input value
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ReconcilerError {
	t := lookup(validationTemplates, code, template{"invalid value for '%s'", "check the value and its format"})
	message := fmt.Sprintf(t.format, field)
	if code != CodeMissingField {
		message = fmt.Sprintf("%s: %v", message, value)
	}
	return build(err, CategoryValidation, code, message, t.suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError reports a setting from flags, env or the config file
// that cannot be used.
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ReconcilerError {
	t := lookup(configTemplates, code, template{"configuration problem with '%s'", "check your configuration"})
	message := fmt.Sprintf(t.format+": %v", setting, value)
	return build(err, CategoryConfiguration, code, message, t.suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// MissingColumnError reports a logical field whose column could not be
// resolved from a ledger's headers. The available headers are carried in the
// context so the operator can fix the alias table.
func MissingColumnError(source, field string, available []string) *ReconcilerError {
	message := fmt.Sprintf("%s ledger: no column found for %s (available columns: %s)",
		source, field, strings.Join(available, ", "))

	suggestion := fmt.Sprintf("add the %s column name to the %s aliases", field, source)
	if closest := ClosestHeader(field, available); closest != "" {
		suggestion = fmt.Sprintf("add %q to the %s aliases for %s", closest, source, field)
	}

	return New(CategoryConfiguration, CodeMissingColumn, message).
		WithSuggestion(suggestion).
		WithContext("source", source).
		WithContext("field", field).
		WithContext("available_columns", available)
}

// ClosestHeader returns the header with the smallest edit distance to name,
// or "" when there are no headers.
func ClosestHeader(name string, headers []string) string {
	best := ""
	bestDist := -1
	target := strings.ToLower(name)
	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		d := levenshtein.ComputeDistance(target, strings.ToLower(h))
		if bestDist == -1 || d < bestDist {
			best, bestDist = h, d
		}
	}
	return best
}

// ReconciliationError reports a run that could not finish
func ReconciliationError(code ErrorCode, operation string, err error) *ReconcilerError {
	t := lookup(reconcileTemplates, code, template{"reconciliation stopped during %s", "review the ledgers and configuration"})
	return build(err, CategoryReconciliation, code, fmt.Sprintf(t.format, operation), t.suggestion).
		WithContext("operation", operation)
}

// InternalError reports a failure that points at a bug
func InternalError(code ErrorCode, operation string, err error) *ReconcilerError {
	return build(err, CategoryInternal, code, fmt.Sprintf("unexpected error during %s", operation),
		"please report this with the error details").
		WithContext("operation", operation)
}
