package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"simops/internal"
)

func classified(t *testing.T) Classification {
	t.Helper()
	sheet := sheetOf(simsHeader,
		[]string{"1", "", "", "352341", "89701012345678901234"},
		[]string{"2", "", "", "352342", "89701019999999999999"},
		[]string{"3", "", "", "350011", "897019900011122233"},
		[]string{"4", "", "", "777", "89701021112223334"},
	)
	cls, err := Classify(sheet, defaultTable(t), defaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	return cls
}

func TestStamp(t *testing.T) {
	got := Stamp(time.Date(2025, 3, 7, 9, 5, 1, 0, time.UTC))
	if got != "20250307_090501" {
		t.Fatalf("stamp: %s", got)
	}
}

func TestRenderFormats(t *testing.T) {
	artifacts, pending := Render(defaultTable(t), classified(t), "20250307_090501")

	byPath := map[string]internal.ExportArtifact{}
	for _, a := range artifacts {
		byPath[a.Path] = a
	}
	if len(byPath) != 3 {
		t.Fatalf("artifacts: %+v", artifacts)
	}

	mts := byPath["MTS_ICCID_IMEI_20250307_090501.csv"]
	wantMTS := "ICCID;IMEI\n89701012345678901234;352341\n89701019999999999999;352342\n"
	if string(mts.Content) != wantMTS || mts.Records != 2 || mts.Carrier != "МТС" {
		t.Fatalf("mts artifact: %+v %q", mts, mts.Content)
	}

	if got := string(byPath["Билайн_ICCID_20250307_090501.csv"].Content); got != "897019900011122233\n" {
		t.Fatalf("beeline iccid: %q", got)
	}
	if got := string(byPath["Билайн_IMEI_20250307_090501.csv"].Content); got != "IMEI;350011\n" {
		t.Fatalf("beeline imei: %q", got)
	}

	if _, ok := byPath["Теле2_20250307_090501.csv"]; ok {
		t.Fatal("carrier without records must not produce a file")
	}

	if len(pending) != 1 || pending[0].Label != "Мегафон" || pending[0].Records != 1 {
		t.Fatalf("pending: %+v", pending)
	}
	if pending[0].First == nil || pending[0].First.IMEI != "777" {
		t.Fatalf("pending first: %+v", pending[0].First)
	}
}

func TestRenderOrderFollowsSheet(t *testing.T) {
	artifacts, _ := Render(defaultTable(t), classified(t), "s")
	for _, a := range artifacts {
		if a.Carrier != "МТС" {
			continue
		}
		pairs, err := ParsePairs(bytes.NewReader(a.Content))
		if err != nil {
			t.Fatal(err)
		}
		if len(pairs) != 2 || pairs[0].IMEI != "352341" || pairs[1].IMEI != "352342" {
			t.Fatalf("pairs: %+v", pairs)
		}
	}
}

func TestWriteArtifactsIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "blocked.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	results := WriteArtifacts(dir, []internal.ExportArtifact{
		{Carrier: "A", Path: "blocked.csv", Content: []byte("x")},
		{Carrier: "B", Path: "ok.csv", Content: []byte("ICCID;IMEI\n1;2\n")},
	})
	if len(results) != 2 {
		t.Fatalf("results: %+v", results)
	}
	if results[0].Err == nil {
		t.Fatal("expected write error for directory path")
	}
	if results[1].Err != nil {
		t.Fatal(results[1].Err)
	}
	if results[1].Artifact.Path != filepath.Join(dir, "ok.csv") {
		t.Fatalf("path: %s", results[1].Artifact.Path)
	}
	blob, err := os.ReadFile(filepath.Join(dir, "ok.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(blob), "ICCID;IMEI\n") {
		t.Fatalf("content: %q", blob)
	}
}

func TestCleanDirKeepsSubdirs(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "old.csv"), []byte("x"), 0o644)
	_ = os.Mkdir(filepath.Join(dir, "archive"), 0o755)

	if err := CleanDir(dir); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "archive" {
		t.Fatalf("entries: %v", entries)
	}
	if err := CleanDir(filepath.Join(dir, "missing")); err != nil {
		t.Fatalf("missing dir: %v", err)
	}
}

func TestParsePairsRejectsMalformedLine(t *testing.T) {
	if _, err := ParsePairs(strings.NewReader("ICCID;IMEI\nnope\n")); err == nil {
		t.Fatal("expected error")
	}
}
