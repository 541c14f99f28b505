package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"simops/internal"
)

// ExportUnknownToXLSX writes rows whose ICCID matched no carrier so they can
// be fixed in the source sheet.
func ExportUnknownToXLSX(rows []internal.UnknownRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"row", "iccid", "imei", "iccid_prefix"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.RowNo)
		// identifiers stay text so spreadsheet apps don't turn them into floats
		set(2, row.ICCID)
		set(3, row.IMEI)
		set(4, prefixOf(row.ICCID, 7))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func prefixOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
