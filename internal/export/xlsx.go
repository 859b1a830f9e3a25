package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const holdingsSheet = "Holdings"

// XLSXWriter implements ReportWriter by writing a local .xlsx file.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter targeting the given file path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write renders the rows into a single Holdings sheet and saves the file.
func (w *XLSXWriter) Write(_ context.Context, address string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", holdingsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := []any{"N", "Symbol", "Name", "Mint", "Balance", "Price USD", "Value USD", "Share %"}
	if err := f.SetSheetRow(holdingsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := f.SetCellValue(holdingsSheet, "J1", address); err != nil {
		return fmt.Errorf("writing address: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("locating row %d: %w", i+2, err)
		}
		values := []any{
			row.N, row.Symbol, row.Name, row.Mint,
			toFloat(row.Balance),
			ptrFloat(row.Price),
			ptrFloat(row.Value),
			ptrFloat(row.Share),
		}
		if err := f.SetSheetRow(holdingsSheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving report to %s: %w", w.path, err)
	}
	return nil
}
