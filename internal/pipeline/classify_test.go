package pipeline

import (
	"errors"
	"testing"

	"simops/internal"
	"simops/internal/sources"
)

func TestClassifyBucketsByCarrier(t *testing.T) {
	sheet := sheetOf(simsHeader,
		[]string{"1", "", "", "352341", "89701012345678901234"},
		[]string{"2", "", "", "", "8970199000111222333"},
		[]string{"3", "", "", "35-00-11", "8970199 000 111 222 33"},
		[]string{"4", "", "", "490154", "8970120111222333444"},
		[]string{"5", "", "", "111", "1234567890"},
	)

	cls, err := Classify(sheet, defaultTable(t), defaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	if cls.IMEIColumn != 3 || cls.ICCIDColumn != 4 {
		t.Fatalf("columns: imei=%d iccid=%d", cls.IMEIColumn, cls.ICCIDColumn)
	}

	if got := cls.Buckets["МТС"]; len(got) != 1 || got[0] != (internal.Pair{ICCID: "89701012345678901234", IMEI: "352341"}) {
		t.Fatalf("МТС bucket: %+v", got)
	}
	if got := cls.Buckets["Билайн"]; len(got) != 1 || got[0] != (internal.Pair{ICCID: "897019900011122233", IMEI: "350011"}) {
		t.Fatalf("Билайн bucket: %+v", got)
	}
	if cls.Count("Теле2") != 1 {
		t.Fatalf("Теле2 count: %d", cls.Count("Теле2"))
	}
	if _, ok := cls.Buckets["Мегафон"]; !ok {
		t.Fatal("empty buckets must still exist")
	}
	if cls.Count("Мегафон") != 0 {
		t.Fatalf("Мегафон count: %d", cls.Count("Мегафон"))
	}

	if len(cls.Unknown) != 1 {
		t.Fatalf("unknown: %+v", cls.Unknown)
	}
	if cls.Unknown[0] != (internal.UnknownRow{RowNo: 6, ICCID: "1234567890", IMEI: "111"}) {
		t.Fatalf("unknown row: %+v", cls.Unknown[0])
	}

	want := ClassifyStats{Rows: 5, Matched: 3, Skipped: 1, Unknown: 1}
	if cls.Stats != want {
		t.Fatalf("stats: %+v want %+v", cls.Stats, want)
	}
}

func TestClassifySkipsRaggedRows(t *testing.T) {
	sheet := sheetOf(simsHeader,
		[]string{"1", "МТС"},
		[]string{"2", "", "", "352341"},
		[]string{"3", "", "", "352341", "n/a"},
		[]string{"4", "", "", "352342", "89701012345678901234", "extra"},
	)

	cls, err := Classify(sheet, defaultTable(t), defaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	if cls.Stats.Skipped != 3 || cls.Stats.Matched != 1 {
		t.Fatalf("stats: %+v", cls.Stats)
	}
}

func TestClassifyUsesLastIMEIHeader(t *testing.T) {
	header := []string{"imei (old)", "", "", "", "ICCID", "IMEI"}
	sheet := sheetOf(header, []string{"111", "", "", "", "89701012345678901234", "222"})

	cls, err := Classify(sheet, defaultTable(t), defaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	if cls.IMEIColumn != 5 {
		t.Fatalf("imei column: %d", cls.IMEIColumn)
	}
	if got := cls.Buckets["МТС"][0].IMEI; got != "222" {
		t.Fatalf("imei: %q", got)
	}
}

func TestClassifyBlankTrailingICCIDHeader(t *testing.T) {
	sheet := sources.FromRows([][]string{
		{"№", "Оператор", "Дата", "IMEI"},
		{"1", "", "", "352341", "89701012345678901234"},
	})

	cls, err := Classify(sheet, defaultTable(t), defaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	if cls.Count("МТС") != 1 {
		t.Fatalf("МТС count=%d", cls.Count("МТС"))
	}

	// header alone is short, but a data row reaches column E
	raw := sheetOf([]string{"IMEI"}, []string{"352341", "", "", "", "89701012345678901234"})
	cls, err = Classify(raw, defaultTable(t), defaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	if cls.Stats.Matched != 1 {
		t.Fatalf("stats=%+v", cls.Stats)
	}
}

func TestClassifyErrors(t *testing.T) {
	table := defaultTable(t)

	if _, err := Classify(sheetOf(simsHeader), table, defaultOpts); !errors.Is(err, ErrEmptySheet) {
		t.Fatalf("empty sheet: %v", err)
	}

	noIMEI := sheetOf([]string{"a", "b", "c", "d", "ICCID"}, []string{"1", "2", "3", "4", "89701012345678901234"})
	if _, err := Classify(noIMEI, table, defaultOpts); !errors.Is(err, ErrIMEIColumnNotFound) {
		t.Fatalf("missing imei column: %v", err)
	}

	short := sheetOf([]string{"IMEI", "ICCID"}, []string{"352341", "89701012345678901234"})
	if _, err := Classify(short, table, defaultOpts); !errors.Is(err, ErrICCIDColumnMissing) {
		t.Fatalf("short header: %v", err)
	}
}
