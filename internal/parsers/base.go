// Package parsers reads ledger exports into raw rows and resolves which
// header holds each logical field.
//
// Ledger files come from two unrelated systems, so the package tolerates
// the variations seen in practice:
//   - comma, semicolon or tab separated files (sniffed from the header line)
//   - UTF-8 with or without a byte order mark, or legacy Windows-1254 exports
//   - header names that differ between exports, resolved through an alias
//     table with a substring fallback
//
// Example usage:
//
//	parser := parsers.NewLedgerParser(parsers.DefaultParseConfig())
//	ledger, stats, err := parser.ParseFile(ctx, "depot.csv", models.SourceDepot)
//	cols, err := parsers.ResolveColumns(ledger.Source, ledger.Headers, parsers.DefaultAliases(ledger.Source))
package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

// BaseParser provides common CSV parsing functionality
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	log := logger.WithComponent("base_parser")
	log.WithFields(logger.Fields{
		"delimiter": string(config.Delimiter),
		"encoding":  config.Encoding,
	}).Debug("Created base parser")

	return &BaseParser{
		config: config,
		logger: log,
	}
}

// ReadFile loads a ledger file fully into memory. Ledgers are small enough
// that this keeps the decoding and delimiter sniffing simple.
func (bp *BaseParser) ReadFile(filePath string) ([]byte, error) {
	bp.logger.WithField("file_path", filePath).Debug("Opening ledger file")

	data, err := os.ReadFile(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to read ledger file")
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}
	return data, nil
}

// Decode converts raw file bytes to UTF-8 according to the configured encoding
func (bp *BaseParser) Decode(data []byte, name string) ([]byte, error) {
	enc, err := lookupEncoding(bp.config.Encoding)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "csv.encoding", bp.config.Encoding, err)
	}

	if isUTF8Name(bp.config.Encoding) {
		if line := firstInvalidUTF8Line(data); line > 0 {
			return nil, errors.ParseError(errors.CodeEncodingError, name, line,
				fmt.Errorf("invalid UTF-8 encoding detected"))
		}
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, errors.ParseError(errors.CodeEncodingError, name, 0, err)
	}
	return decoded, nil
}

// NewReader builds a csv.Reader over decoded content, sniffing the delimiter
// when none is configured.
func (bp *BaseParser) NewReader(content []byte) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = bp.config.Delimiter
	if reader.Comma == 0 {
		reader.Comma = SniffDelimiter(content)
	}
	reader.Comment = bp.config.Comment
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// ReadHeaders reads the header row and returns cleaned, de-duplicated names
func (bp *BaseParser) ReadHeaders(reader *csv.Reader, name string) ([]string, error) {
	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		bp.logger.WithError(err).Error("Failed to read header row")
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, 1, err)
	}

	cleaned := cleanHeaders(headers)
	bp.logger.WithField("headers", cleaned).Debug("Successfully read headers")
	return cleaned, nil
}

// ReadRecord reads the next non-empty CSV record. It returns io.EOF at the
// end of input.
func (bp *BaseParser) ReadRecord(ctx context.Context, reader *csv.Reader, name string) ([]string, int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, errors.InternalError(errors.CodeUnexpectedError, "csv_parsing", err)
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, 0, err
			}
			line := 0
			if pe, ok := err.(*csv.ParseError); ok {
				line = pe.Line
			}
			bp.logger.WithError(err).WithField("line_number", line).Warn("Failed to read CSV record")
			return nil, line, errors.ParseError(errors.CodeInvalidFormat, name, line, err)
		}

		line, _ := reader.FieldPos(0)

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			bp.logger.WithField("line_number", line).Debug("Skipping empty record")
			continue
		}

		if bp.config.MaxFieldSize > 0 {
			for _, field := range record {
				if len(field) > bp.config.MaxFieldSize {
					return nil, line, errors.ParseError(errors.CodeInvalidFormat, name, line,
						fmt.Errorf("field exceeds maximum size of %d bytes", bp.config.MaxFieldSize))
				}
			}
		}

		return record, line, nil
	}
}

// SniffDelimiter picks the most frequent candidate separator on the first line
func SniffDelimiter(content []byte) rune {
	first := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		first = content[:i]
	}

	best, bestCount := ',', 0
	for _, candidate := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(string(first), string(candidate)); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, header := range headers {
		h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		seen[h]++
		if seen[h] > 1 {
			h = fmt.Sprintf("%s (%d)", h, seen[h])
		}
		cleaned[i] = h
	}
	return cleaned
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func isUTF8Name(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

func firstInvalidUTF8Line(data []byte) int {
	if utf8.Valid(data) {
		return 0
	}
	for i, line := range bytes.Split(data, []byte("\n")) {
		if !utf8.Valid(line) {
			return i + 1
		}
	}
	return 1
}

// ParseStats holds statistics about a parsing operation
type ParseStats struct {
	TotalLines int
	RowsRead   int
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d rows", ps.TotalLines, ps.RowsRead)
}
