package pipeline

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"simops/internal"
	"simops/internal/carrier"
)

const pairsHeader = "ICCID;IMEI"

// PendingCarrier is a carrier whose export format is not implemented yet.
// Its records are only counted.
type PendingCarrier struct {
	Label   string
	Records int
	First   *internal.Pair
}

type WriteResult struct {
	Artifact internal.ExportArtifact
	Err      error
}

// Stamp formats the run-wide timestamp embedded in every file name of one run.
func Stamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// Render builds the files for every carrier in table order. Carriers with no
// records produce nothing; pending carriers produce nothing and are returned
// for the summary instead.
func Render(table carrier.Table, cls Classification, stamp string) ([]internal.ExportArtifact, []PendingCarrier) {
	artifacts := []internal.ExportArtifact{}
	pending := []PendingCarrier{}

	for _, c := range table.Carriers {
		pairs := cls.Buckets[c.Label]
		if c.Export == carrier.ExportPending {
			if len(pairs) > 0 {
				first := pairs[0]
				pending = append(pending, PendingCarrier{Label: c.Label, Records: len(pairs), First: &first})
			}
			continue
		}
		if len(pairs) == 0 {
			continue
		}

		switch c.Export {
		case carrier.ExportPairs:
			buf := bytes.Buffer{}
			buf.WriteString(pairsHeader + "\n")
			for _, p := range pairs {
				fmt.Fprintf(&buf, "%s;%s\n", p.ICCID, p.IMEI)
			}
			artifacts = append(artifacts, internal.ExportArtifact{
				Carrier: c.Label,
				Path:    fmt.Sprintf("%s_%s.csv", c.FileStem, stamp),
				Records: len(pairs),
				Content: buf.Bytes(),
			})
		case carrier.ExportSplit:
			iccids := bytes.Buffer{}
			imeis := bytes.Buffer{}
			for _, p := range pairs {
				fmt.Fprintf(&iccids, "%s\n", p.ICCID)
				fmt.Fprintf(&imeis, "IMEI;%s\n", p.IMEI)
			}
			artifacts = append(artifacts,
				internal.ExportArtifact{
					Carrier: c.Label,
					Path:    fmt.Sprintf("%s_ICCID_%s.csv", c.FileStem, stamp),
					Records: len(pairs),
					Content: iccids.Bytes(),
				},
				internal.ExportArtifact{
					Carrier: c.Label,
					Path:    fmt.Sprintf("%s_IMEI_%s.csv", c.FileStem, stamp),
					Records: len(pairs),
					Content: imeis.Bytes(),
				},
			)
		}
	}

	return artifacts, pending
}

// WriteArtifacts writes each artifact under dir. A failed write is reported in
// its result and does not stop the remaining writes.
func WriteArtifacts(dir string, artifacts []internal.ExportArtifact) []WriteResult {
	results := make([]WriteResult, 0, len(artifacts))
	mkErr := os.MkdirAll(dir, 0o755)
	for _, a := range artifacts {
		a.Path = filepath.Join(dir, a.Path)
		if mkErr != nil {
			results = append(results, WriteResult{Artifact: a, Err: mkErr})
			continue
		}
		err := os.WriteFile(a.Path, a.Content, 0o644)
		results = append(results, WriteResult{Artifact: a, Err: err})
	}
	return results
}

// CleanDir removes the regular files directly under dir. A missing dir is
// not an error.
func CleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// ParsePairs reads an "ICCID;IMEI" export back into pairs.
func ParsePairs(r io.Reader) ([]internal.Pair, error) {
	scanner := bufio.NewScanner(r)
	out := []internal.Pair{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 && line == pairsHeader {
			continue
		}
		if line == "" {
			continue
		}
		iccid, imei, ok := strings.Cut(line, ";")
		if !ok {
			return nil, fmt.Errorf("line %d: missing separator", lineNo)
		}
		out = append(out, internal.Pair{ICCID: iccid, IMEI: imei})
	}
	return out, scanner.Err()
}
