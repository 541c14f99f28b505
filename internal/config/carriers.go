package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"simops/internal/carrier"
)

//go:embed carriers.yaml
var defaultCarriers []byte

// LoadCarrierTable reads the operator table from path, or the built-in table
// when path is empty.
func LoadCarrierTable(path string) (carrier.Table, error) {
	blob := defaultCarriers
	if strings.TrimSpace(path) != "" {
		var err error
		blob, err = os.ReadFile(path)
		if err != nil {
			return carrier.Table{}, fmt.Errorf("read carrier table: %w", err)
		}
	}
	return ParseCarrierTable(blob)
}

func ParseCarrierTable(blob []byte) (carrier.Table, error) {
	var table carrier.Table
	if err := yaml.Unmarshal(blob, &table); err != nil {
		return carrier.Table{}, fmt.Errorf("parse carrier table: %w", err)
	}
	if table.UnknownLabel == "" {
		table.UnknownLabel = "unknown"
	}
	if err := table.Validate(); err != nil {
		return carrier.Table{}, err
	}
	return table, nil
}
