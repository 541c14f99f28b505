package pipeline

import (
	"testing"

	"simops/internal"
	"simops/internal/carrier"
	"simops/internal/config"
)

func defaultTable(t *testing.T) carrier.Table {
	t.Helper()
	table, err := config.LoadCarrierTable("")
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func sheetOf(header []string, rows ...[]string) internal.Sheet {
	s := internal.Sheet{Header: header}
	for _, r := range rows {
		s.Rows = append(s.Rows, internal.RawRecord{Cells: r})
	}
	return s
}

var simsHeader = []string{"№", "Оператор", "Дата", "IMEI", "ICCID"}

var defaultOpts = ClassifyOptions{IMEIProbe: "imei", ICCIDColumn: 4}
