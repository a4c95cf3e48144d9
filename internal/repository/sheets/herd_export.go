package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/vimacontrol/internal/config"
	"github.com/mamadbah2/vimacontrol/internal/domain/models"
)

// Exporter appends herd snapshot rows to an external spreadsheet.
type Exporter interface {
	AppendSnapshot(ctx context.Context, snapshot models.HerdSnapshot) error
}

// GoogleSheetExporter implements Exporter using the official Google Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	snapshotRange string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Google Sheets backed exporter instance.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		snapshotRange: cfg.SnapshotRange,
		logger:        logger,
	}, nil
}

// AppendSnapshot appends one dashboard row for one user.
func (e *GoogleSheetExporter) AppendSnapshot(ctx context.Context, snapshot models.HerdSnapshot) error {
	values := []interface{}{
		snapshot.Date,
		snapshot.UserEmail,
		snapshot.Stats.TotalCows,
		snapshot.Stats.TotalMilkToday,
		snapshot.Stats.CowsInTreatment,
		snapshot.Stats.AverageProduction,
	}
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, e.snapshotRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append snapshot into range %s: %w", e.snapshotRange, err)
	}

	e.logger.Debug("snapshot appended to sheet", zap.String("user_email", snapshot.UserEmail))
	return nil
}
