package export

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Sheet1"

// WriteXLSX writes ds as a single-sheet workbook with a bold header row.
// Numbers and timestamps keep their cell types; nulls are left empty.
func WriteXLSX(w io.Writer, ds *core.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	for c, col := range ds.Columns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(xlsxSheet, cell, col); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
		if err := f.SetCellStyle(xlsxSheet, cell, cell, bold); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}

	for r, row := range ds.Rows {
		for c, col := range ds.Columns {
			v := row.Get(col)
			if v.IsNull() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(xlsxSheet, cell, v.Any()); err != nil {
				return fmt.Errorf("xlsx row %d: %w", r+2, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
