package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"license-key-service/internal/model"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const sheetColumns = "A%d:H%d"

// SheetValues is the subset of the Sheets values API the syncer needs.
type SheetValues interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
	Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error
	Append(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error
	Clear(ctx context.Context, spreadsheetID, rng string) error
}

// SheetSyncService mirrors license keys into a Google Sheet, one row per key
// keyed on column A.
type SheetSyncService struct {
	values        SheetValues
	spreadsheetID string
	sheetName     string
	log           *zap.Logger
}

// NewSheetSyncService returns nil when sync is disabled. A nil
// *SheetSyncService is safe to use.
func NewSheetSyncService(ctx context.Context, enableSync bool, credentialPath, spreadsheetID, sheetName string, log *zap.Logger) (*SheetSyncService, error) {
	if !enableSync {
		return nil, nil
	}

	b, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, fmt.Errorf("read sheet credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("load sheet credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}

	return NewSheetSyncWithValues(&sheetsValues{srv: srv}, spreadsheetID, sheetName, log), nil
}

func NewSheetSyncWithValues(values SheetValues, spreadsheetID, sheetName string, log *zap.Logger) *SheetSyncService {
	return &SheetSyncService{
		values:        values,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           log,
	}
}

// SyncKey updates the row for key, appending one if the key is not in the sheet yet.
func (s *SheetSyncService) SyncKey(ctx context.Context, key *model.LicenseKey) error {
	if s == nil {
		return nil
	}

	existing, err := s.values.Get(ctx, s.spreadsheetID, s.sheetName+"!A2:A")
	if err != nil {
		return fmt.Errorf("read sheet keys: %w", err)
	}

	row := -1
	for i, cells := range existing {
		if len(cells) > 0 && cells[0] == key.Key {
			// data starts on row 2
			row = i + 2
			break
		}
	}

	values := [][]interface{}{keyRow(key)}
	if row > 0 {
		rng := s.sheetName + "!" + fmt.Sprintf(sheetColumns, row, row)
		err = s.values.Update(ctx, s.spreadsheetID, rng, values)
	} else {
		err = s.values.Append(ctx, s.spreadsheetID, s.sheetName+"!A2:H", values)
	}
	if err != nil {
		return fmt.Errorf("write sheet row: %w", err)
	}

	s.log.Debug("key synced to sheet", zap.String("key_id", key.ID))
	return nil
}

// ExportKeys replaces the sheet's rows with keys: existing data rows are
// cleared, the header is rewritten and keys are appended in one call.
func (s *SheetSyncService) ExportKeys(ctx context.Context, keys []model.LicenseKey) error {
	if s == nil {
		return nil
	}

	if err := s.values.Clear(ctx, s.spreadsheetID, s.sheetName+"!A2:H"); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}
	header := [][]interface{}{KeyColumns}
	if err := s.values.Update(ctx, s.spreadsheetID, s.sheetName+"!A1:H1", header); err != nil {
		return fmt.Errorf("write sheet header: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(keys))
	for i := range keys {
		values = append(values, keyRow(&keys[i]))
	}

	if err := s.values.Append(ctx, s.spreadsheetID, s.sheetName+"!A2:H", values); err != nil {
		return fmt.Errorf("export keys to sheet: %w", err)
	}

	s.log.Info("keys exported to sheet", zap.Int("count", len(keys)))
	return nil
}

func keyRow(key *model.LicenseKey) []interface{} {
	activatedAt := ""
	if key.ActivatedAt != nil {
		activatedAt = key.ActivatedAt.UTC().Format(time.RFC3339)
	}
	return []interface{}{
		key.Key,
		key.ID,
		key.ApplicationID,
		string(key.Status),
		key.DurationDays,
		key.ExpirationDate.UTC().Format(time.RFC3339),
		activatedAt,
		key.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type sheetsValues struct {
	srv *sheets.Service
}

func (v *sheetsValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := v.srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v *sheetsValues) Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error {
	_, err := v.srv.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (v *sheetsValues) Append(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error {
	_, err := v.srv.Spreadsheets.Values.Append(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (v *sheetsValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := v.srv.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return err
}
