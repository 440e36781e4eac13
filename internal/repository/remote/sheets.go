package remote

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/harvestledger/internal/config"
)

// SheetsSink writes straight to a spreadsheet through the official Sheets
// API. Used when service-account credentials are configured instead of an
// Apps Script URL; the reconciler semantics are identical either way.
type SheetsSink struct {
	service       *sheetsapi.Service
	spreadsheetID string
	dataRange     string
	logger        *zap.Logger
}

// NewSheetsSink builds a Google Sheets backed sink instance.
func NewSheetsSink(ctx context.Context, cfg config.RemoteConfig, logger *zap.Logger) (*SheetsSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &SheetsSink{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		dataRange:     cfg.DataRange,
		logger:        logger,
	}, nil
}

// Append appends the rows to the configured data range in one request.
func (s *SheetsSink) Append(ctx context.Context, rows [][]any) error {
	payload := &sheetsapi.ValueRange{Values: rows}

	call := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.dataRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append %d rows into range %s: %w", len(rows), s.dataRange, err)
	}

	s.logger.Debug("rows appended to sheet", zap.String("range", s.dataRange), zap.Int("rows", len(rows)))
	return nil
}

// Snapshot fetches the full data range, header row included.
func (s *SheetsSink) Snapshot(ctx context.Context) ([][]any, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.dataRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", s.dataRange, err)
	}

	return resp.Values, nil
}
