package storage

import (
	"path/filepath"
	"testing"

	"simops/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "simops.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunsAndArtifacts(t *testing.T) {
	db := openTestDB(t)

	run := internal.ExportRunRow{ID: "run-1", Stamp: "20250101_120000", Status: "ok", Rows: 10, Matched: 7, Skipped: 2, Unknown: 1}
	if err := db.InsertRun(run); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertArtifact(internal.ArtifactRow{RunID: "run-1", Carrier: "МТС", Path: "/tmp/a.csv", Records: 4}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertArtifact(internal.ArtifactRow{RunID: "run-1", Carrier: "Теле2", Path: "/tmp/b.csv", Records: 3, Error: "permission denied"}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertUnknownRows("run-1", []internal.UnknownRow{{RowNo: 5, ICCID: "8970777", IMEI: "35"}}); err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Matched != 7 || runs[0].Error != "" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	artifacts, err := db.ListArtifacts("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 2 || artifacts[1].Error != "permission denied" {
		t.Fatalf("unexpected artifacts: %+v", artifacts)
	}

	unknown, err := db.ListUnknownRows("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(unknown) != 1 || unknown[0].RowNo != 5 {
		t.Fatalf("unexpected unknown rows: %+v", unknown)
	}
}

func TestUpsertScannedSims(t *testing.T) {
	db := openTestDB(t)

	cards := []internal.SimCard{
		{Number: "897019912345678901", Operator: "Билайн", Raw: "897019912345678901999"},
		{Number: "8970102123456", Operator: "Мегафон", Raw: "8970102123456464"},
		{Number: "", Operator: "x"},
	}
	stored, err := db.UpsertScannedSims(cards, "ocr")
	if err != nil {
		t.Fatal(err)
	}
	if stored != 2 {
		t.Fatalf("stored=%d", stored)
	}

	if _, err := db.UpsertScannedSims(cards[:1], "ocr"); err != nil {
		t.Fatal(err)
	}
	all, err := db.ListScannedSims("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("len=%d", len(all))
	}

	beeline, err := db.ListScannedSims("Билайн")
	if err != nil {
		t.Fatal(err)
	}
	if len(beeline) != 1 || beeline[0].Number != "897019912345678901" {
		t.Fatalf("unexpected rows: %+v", beeline)
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)
	v, err := db.GetMetadata("export.last_stamp")
	if err != nil || v != nil {
		t.Fatalf("expected nil, got %v %v", v, err)
	}
	if err := db.SetMetadata("export.last_stamp", "20250101_000000"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("export.last_stamp", "20250102_000000"); err != nil {
		t.Fatal(err)
	}
	v, err = db.GetMetadata("export.last_stamp")
	if err != nil || v == nil || *v != "20250102_000000" {
		t.Fatalf("unexpected value %v %v", v, err)
	}
}
