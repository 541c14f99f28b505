package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"simops/internal"
	"simops/internal/carrier"
	"simops/internal/storage"
)

type ScanResult struct {
	Fragments  int
	Candidates []string
	Cards      []internal.SimCard
	Stored     int
}

// ReadFragments loads OCR text fragments from a file. Text files yield one
// fragment per line; xlsx files yield every non-empty cell of the first sheet
// in reading order.
func ReadFragments(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: no sheets", path)
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, err
		}
		out := []string{}
		for _, row := range rows {
			for _, cell := range row {
				if strings.TrimSpace(cell) != "" {
					out = append(out, cell)
				}
			}
		}
		return out, nil
	case ".txt", "":
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		out := []string{}
		scanner := bufio.NewScanner(fh)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				out = append(out, line)
			}
		}
		return out, scanner.Err()
	default:
		return nil, fmt.Errorf("unsupported fragments file: %s", path)
	}
}

// ScanFragments joins fragments into SIM numbers, canonicalizes them and, when
// db is set, stores the result under source.
func ScanFragments(db *storage.DB, table carrier.Table, fragments []string, source string) (ScanResult, error) {
	res := ScanResult{Fragments: len(fragments)}
	res.Candidates = carrier.JoinFragments(fragments, table.NumberStem)
	res.Cards = table.ProcessNumbers(res.Candidates)
	if db == nil || len(res.Cards) == 0 {
		return res, nil
	}
	stored, err := db.UpsertScannedSims(res.Cards, source)
	if err != nil {
		return res, fmt.Errorf("store scanned sims: %w", err)
	}
	res.Stored = stored
	return res, nil
}
