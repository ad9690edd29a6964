package ingest

import (
	"fmt"
	"io"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of an XLSX demand export. The sheet
// must carry the same header row as the CSV layout.
func ParseXLSX(r io.Reader) ([]domain.DemandRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var header []string
	var body [][]string
	for rows.Next() {
		row, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if header == nil {
			header = row
			continue
		}
		body = append(body, row)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	if header == nil {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	return ParseRows(header, body)
}
