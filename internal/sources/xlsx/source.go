package xlsx

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"simops/internal"
	"simops/internal/sources"
)

// Source reads an exported copy of the inventory workbook.
type Source struct {
	path  string
	sheet string
}

// NewSource reads sheet from the workbook at path; an empty sheet name picks
// the first sheet.
func NewSource(path, sheet string) *Source {
	return &Source{path: path, sheet: sheet}
}

func (s *Source) Rows(_ context.Context) (internal.Sheet, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return internal.Sheet{}, err
	}
	defer f.Close()

	name := s.sheet
	if name == "" {
		name = f.GetSheetName(0)
	} else if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return internal.Sheet{}, fmt.Errorf("sheet %q not found in %s", name, s.path)
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return internal.Sheet{}, err
	}
	return sources.FromRows(rows), nil
}
