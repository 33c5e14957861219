package ingest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first sheet of a workbook. The first row is the header.
// excelize needs random access to the zip, so the workbook is read whole.
func (r *Reader) readXLSX(in io.Reader) (*core.Dataset, error) {
	data, err := io.ReadAll(io.LimitReader(in, r.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.maxSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, r.maxSize)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: xlsx has no sheets", ErrEmptyFile)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	b := newBuilder(rows[0], r.nullTokens)
	for i, row := range rows[1:] {
		// GetRows trims trailing empty cells, so short rows are expected.
		if err := b.add(row, i+2); err != nil {
			return nil, err
		}
	}
	return b.ds, nil
}
