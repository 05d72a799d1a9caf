package service

import (
	"fmt"
	"io"

	"license-key-service/internal/model"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Keys"

// KeyColumns is the header row shared by the workbook export and the sheet
// mirror.
var KeyColumns = []interface{}{
	"Key", "ID", "Application ID", "Status", "Duration (days)", "Expiration", "Activated At", "Created At",
}

// WriteKeysXLSX writes keys as a single-sheet workbook with a header row.
func WriteKeysXLSX(w io.Writer, keys []model.LicenseKey) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := KeyColumns
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range keys {
		row := keyRow(&keys[i])
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
