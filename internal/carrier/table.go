// Package carrier maps SIM identifiers to mobile operators and canonicalizes
// scanned SIM numbers.
package carrier

import (
	"errors"
	"fmt"
	"strings"

	"simops/internal/util"
)

type ExportKind string

const (
	// ExportPairs writes one "ICCID;IMEI" file with a header line.
	ExportPairs ExportKind = "pairs"
	// ExportSplit writes an ICCID-only file and an "IMEI;<imei>" file.
	ExportSplit ExportKind = "split"
	// ExportPending never writes a file; records only show up in the summary.
	ExportPending ExportKind = "pending"
)

type Carrier struct {
	Label       string     `yaml:"label"`
	Code        string     `yaml:"code"`
	Prefix      string     `yaml:"prefix"`
	Length      int        `yaml:"length"`
	StripSuffix string     `yaml:"strip_suffix"`
	Export      ExportKind `yaml:"export"`
	FileStem    string     `yaml:"file_stem"`
}

// Table is an ordered operator table. Order is significant: lookups return
// the first entry whose prefix matches.
type Table struct {
	Carriers     []Carrier `yaml:"carriers"`
	NumberStem   string    `yaml:"number_stem"`
	UnknownLabel string    `yaml:"unknown_label"`
}

var ErrInvalidTable = errors.New("invalid carrier table")

// Resolve returns the first carrier whose prefix starts iccid. The input is
// expected to be normalized already.
func (t Table) Resolve(iccid string) (Carrier, bool) {
	for _, c := range t.Carriers {
		if strings.HasPrefix(iccid, c.Prefix) {
			return c, true
		}
	}
	return Carrier{}, false
}

func (t Table) ByLabel(label string) (Carrier, bool) {
	for _, c := range t.Carriers {
		if c.Label == label {
			return c, true
		}
	}
	return Carrier{}, false
}

func (t Table) Labels() []string {
	out := make([]string, 0, len(t.Carriers))
	for _, c := range t.Carriers {
		out = append(out, c.Label)
	}
	return out
}

// Validate checks the table shape. An entry whose prefix starts with an
// earlier entry's prefix can never match and is rejected.
func (t Table) Validate() error {
	if len(t.Carriers) == 0 {
		return fmt.Errorf("%w: no carriers", ErrInvalidTable)
	}
	labels := map[string]struct{}{}
	for i, c := range t.Carriers {
		if strings.TrimSpace(c.Label) == "" {
			return fmt.Errorf("%w: entry %d has no label", ErrInvalidTable, i+1)
		}
		if _, dup := labels[c.Label]; dup {
			return fmt.Errorf("%w: duplicate label %s", ErrInvalidTable, c.Label)
		}
		labels[c.Label] = struct{}{}

		if c.Prefix == "" || util.Digits(c.Prefix) != c.Prefix {
			return fmt.Errorf("%w: %s prefix %q must be digits", ErrInvalidTable, c.Label, c.Prefix)
		}
		if c.Length < 0 {
			return fmt.Errorf("%w: %s has negative length", ErrInvalidTable, c.Label)
		}
		if c.StripSuffix != "" && util.Digits(c.StripSuffix) != c.StripSuffix {
			return fmt.Errorf("%w: %s suffix %q must be digits", ErrInvalidTable, c.Label, c.StripSuffix)
		}
		switch c.Export {
		case ExportPairs, ExportSplit:
			if strings.TrimSpace(c.FileStem) == "" {
				return fmt.Errorf("%w: %s needs file_stem for %s export", ErrInvalidTable, c.Label, c.Export)
			}
		case ExportPending:
		default:
			return fmt.Errorf("%w: %s has unsupported export %q", ErrInvalidTable, c.Label, c.Export)
		}

		for _, prev := range t.Carriers[:i] {
			if strings.HasPrefix(c.Prefix, prev.Prefix) {
				return fmt.Errorf("%w: %s prefix %s is shadowed by %s prefix %s", ErrInvalidTable, c.Label, c.Prefix, prev.Label, prev.Prefix)
			}
		}
	}
	return nil
}
