package internal

import "strings"

// RawRecord is one spreadsheet row as read from the source. Cells are
// positional; Sheet.Header names them.
type RawRecord struct {
	Cells []string
}

// Cell returns the cell at idx or "" when the row is too short.
func (r RawRecord) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return r.Cells[idx]
}

// Sheet is a snapshot of a worksheet: the header row plus data rows in
// source order.
type Sheet struct {
	Header []string
	Rows   []RawRecord
}

// Width is the column count of the widest row, header included.
func (s Sheet) Width() int {
	width := len(s.Header)
	for _, r := range s.Rows {
		if len(r.Cells) > width {
			width = len(r.Cells)
		}
	}
	return width
}

// Get returns the trimmed value of the named column in row, matching the
// header case-insensitively.
func (s Sheet) Get(row RawRecord, column string) string {
	want := strings.ToLower(strings.TrimSpace(column))
	for i, h := range s.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return strings.TrimSpace(row.Cell(i))
		}
	}
	return ""
}

type Pair struct {
	ICCID string
	IMEI  string
}

type UnknownRow struct {
	RowNo int
	ICCID string
	IMEI  string
}

type SimCard struct {
	Number   string
	Operator string
	Raw      string
}

type ExportArtifact struct {
	Carrier string
	Path    string
	Records int
	Content []byte
}

type ExportRunRow struct {
	ID        string
	Stamp     string
	Status    string
	Rows      int
	Matched   int
	Skipped   int
	Unknown   int
	Error     string
	StartedAt string
}

type ArtifactRow struct {
	RunID   string
	Carrier string
	Path    string
	Records int
	Error   string
}

type ScannedSimRow struct {
	ID        int
	Number    string
	Operator  string
	Raw       string
	Source    string
	CreatedAt string
}
