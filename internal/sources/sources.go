// Package sources reads SIM inventory rows from spreadsheets.
package sources

import (
	"context"

	"simops/internal"
)

// RecordSource returns a snapshot of the inventory sheet: header plus rows
// in sheet order.
type RecordSource interface {
	Rows(ctx context.Context) (internal.Sheet, error)
}

// FromRows treats the first row as the header. The header is padded with
// empty names to the widest row, since APIs drop trailing empty cells.
func FromRows(rows [][]string) internal.Sheet {
	if len(rows) == 0 {
		return internal.Sheet{}
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	header := make([]string, width)
	copy(header, rows[0])

	sheet := internal.Sheet{Header: header, Rows: make([]internal.RawRecord, 0, len(rows)-1)}
	for _, r := range rows[1:] {
		sheet.Rows = append(sheet.Rows, internal.RawRecord{Cells: r})
	}
	return sheet
}
