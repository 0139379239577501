package accounts

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"buchhaltung/internal/core"
)

//go:embed skr04.yaml
var defaultChart []byte

type chartFile struct {
	Accounts []chartAccount `yaml:"accounts"`
}

type chartAccount struct {
	Number string           `yaml:"number"`
	Name   string           `yaml:"name"`
	Type   core.AccountType `yaml:"type"`
}

// LoadChart reads the chart of accounts from path, or the embedded SKR04
// chart when path is empty.
func LoadChart(path string) ([]core.Account, error) {
	raw := defaultChart
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read chart file: %w", err)
		}
		raw = b
	}
	return ParseChart(raw)
}

// ParseChart decodes a YAML chart and validates every account.
func ParseChart(raw []byte) ([]core.Account, error) {
	var f chartFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse chart: %w", err)
	}
	seen := make(map[string]bool, len(f.Accounts))
	out := make([]core.Account, 0, len(f.Accounts))
	for _, c := range f.Accounts {
		a := core.Account{
			Number:   c.Number,
			Name:     c.Name,
			Type:     c.Type,
			Category: core.ClassifyAccount(c.Number),
			IsActive: true,
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("chart account %q: %w", c.Number, err)
		}
		if seen[a.Number] {
			return nil, fmt.Errorf("chart account %s listed twice", a.Number)
		}
		seen[a.Number] = true
		out = append(out, a)
	}
	return out, nil
}
