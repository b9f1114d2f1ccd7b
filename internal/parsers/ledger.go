package parsers

import (
	"context"
	"io"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

// LedgerParser reads a ledger export into raw rows keyed by header
type LedgerParser struct {
	*BaseParser
	logger logger.Logger
}

// NewLedgerParser creates a new ledger parser
func NewLedgerParser(config *ParseConfig) *LedgerParser {
	return &LedgerParser{
		BaseParser: NewBaseParser(config),
		logger:     logger.WithComponent("ledger_parser"),
	}
}

// ParseFile reads and parses the ledger file at path
func (lp *LedgerParser) ParseFile(ctx context.Context, path string, source models.Source) (*models.Ledger, *ParseStats, error) {
	data, err := lp.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return lp.ParseBytes(ctx, data, path, source)
}

// Parse reads a ledger from r. name is used in error messages.
func (lp *LedgerParser) Parse(ctx context.Context, r io.Reader, name string, source models.Source) (*models.Ledger, *ParseStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeFileCorrupted, name, err)
	}
	return lp.ParseBytes(ctx, data, name, source)
}

// ParseBytes parses raw, not yet decoded ledger content
func (lp *LedgerParser) ParseBytes(ctx context.Context, data []byte, name string, source models.Source) (*models.Ledger, *ParseStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := lp.logger.WithFields(logger.Fields{"source": source, "file": name})

	content, err := lp.Decode(data, name)
	if err != nil {
		log.WithError(err).Error("Failed to decode ledger")
		return nil, nil, err
	}

	reader := lp.NewReader(content)
	headers, err := lp.ReadHeaders(reader, name)
	if err != nil {
		return nil, nil, err
	}

	ledger := &models.Ledger{Source: source, Headers: headers}
	stats := &ParseStats{}
	if headers == nil {
		log.Warn("Ledger file is empty")
		return ledger, stats, nil
	}
	stats.TotalLines = 1

	for {
		record, line, err := lp.ReadRecord(ctx, reader, name)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, err
		}

		values := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				values[h] = record[i]
			} else {
				values[h] = ""
			}
		}
		ledger.Rows = append(ledger.Rows, models.Row{Line: line, Values: values})
		stats.RowsRead++
		stats.TotalLines = line
	}

	log.WithField("rows", stats.RowsRead).Debug("Parsed ledger")
	return ledger, stats, nil
}
