package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"simops/internal"
	"simops/internal/carrier"
	"simops/internal/util"
)

var (
	ErrEmptySheet         = errors.New("sheet is empty or has only a header row")
	ErrIMEIColumnNotFound = errors.New("IMEI column not found")
	ErrICCIDColumnMissing = errors.New("ICCID column missing")
)

type ClassifyOptions struct {
	// IMEIProbe is matched case-insensitively as a substring of header text.
	IMEIProbe string
	// ICCIDColumn is a zero-based position; the ICCID header is not reliable
	// enough to search by name.
	ICCIDColumn int
}

type ClassifyStats struct {
	Rows    int
	Matched int
	Skipped int
	Unknown int
}

type Classification struct {
	IMEIColumn  int
	ICCIDColumn int
	Buckets     map[string][]internal.Pair
	Unknown     []internal.UnknownRow
	Stats       ClassifyStats
}

// Count returns the number of pairs bucketed under label.
func (c Classification) Count(label string) int {
	return len(c.Buckets[label])
}

// Classify buckets every usable row of sheet by carrier. Rows with no IMEI or
// ICCID digits are skipped; rows whose ICCID matches no carrier land in
// Unknown with their sheet row number (the header is row 1).
func Classify(sheet internal.Sheet, table carrier.Table, opts ClassifyOptions) (Classification, error) {
	if len(sheet.Rows) == 0 {
		return Classification{}, ErrEmptySheet
	}

	imeiIdx := findIMEIColumn(sheet.Header, opts.IMEIProbe)
	if imeiIdx < 0 {
		return Classification{}, fmt.Errorf("%w (headers: %s)", ErrIMEIColumnNotFound, strings.Join(sheet.Header, ", "))
	}
	if width := sheet.Width(); opts.ICCIDColumn < 0 || opts.ICCIDColumn >= width {
		return Classification{}, fmt.Errorf("%w: position %d, sheet has %d columns", ErrICCIDColumnMissing, opts.ICCIDColumn, width)
	}

	out := Classification{
		IMEIColumn:  imeiIdx,
		ICCIDColumn: opts.ICCIDColumn,
		Buckets:     map[string][]internal.Pair{},
	}
	for _, label := range table.Labels() {
		out.Buckets[label] = []internal.Pair{}
	}

	for i, row := range sheet.Rows {
		out.Stats.Rows++

		imei := util.Digits(row.Cell(imeiIdx))
		if imei == "" {
			out.Stats.Skipped++
			continue
		}
		iccid := util.Digits(row.Cell(opts.ICCIDColumn))
		if iccid == "" {
			out.Stats.Skipped++
			continue
		}

		c, ok := table.Resolve(iccid)
		if !ok {
			out.Unknown = append(out.Unknown, internal.UnknownRow{RowNo: i + 2, ICCID: iccid, IMEI: imei})
			out.Stats.Unknown++
			continue
		}
		out.Buckets[c.Label] = append(out.Buckets[c.Label], internal.Pair{ICCID: iccid, IMEI: imei})
		out.Stats.Matched++
	}

	return out, nil
}

// findIMEIColumn returns the last header containing probe, or -1.
func findIMEIColumn(headers []string, probe string) int {
	probe = strings.ToLower(strings.TrimSpace(probe))
	if probe == "" {
		probe = "imei"
	}
	idx := -1
	for i, h := range headers {
		if strings.Contains(strings.ToLower(strings.TrimSpace(h)), probe) {
			idx = i
		}
	}
	return idx
}
