package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/charts"
	"github.com/sfc-gh-sweingartner/CortexCharts/pkg/table"
)

// Override forces a known column combination onto a specific archetype,
// bypassing the count rules. An override matches when every listed column is
// present in the table.
//
// Overrides exist for result shapes where the generic rules pick a
// technically correct but wrong-for-the-domain chart.
type Override struct {
	Name      string              `yaml:"name"`
	Columns   []string            `yaml:"columns"`
	Archetype int                 `yaml:"archetype"`
	Roles     map[string]string   `yaml:"roles,omitempty"`
	RoleLists map[string][]string `yaml:"role_lists,omitempty"`
	Labels    map[string]string   `yaml:"labels,omitempty"`
}

// DefaultOverrides returns the built-in allow-list. The telco cell entry
// predates the configurable list and ships as its first member.
func DefaultOverrides() []Override {
	return []Override{
		{
			Name:      "telco-cell-tickets",
			Columns:   []string{"cell_id_display", "total_tickets", "avg_sentiment"},
			Archetype: int(charts.ArchetypeScatter),
			Roles: map[string]string{
				charts.RoleNum1: "total_tickets",
				charts.RoleNum2: "avg_sentiment",
				charts.RoleText: "cell_id_display",
			},
		},
	}
}

// overrideFile is the YAML document shape.
type overrideFile struct {
	Overrides []Override `yaml:"overrides"`
}

// LoadOverrides reads an override allow-list from a YAML file and appends it
// to the built-in defaults. Entries are validated for an archetype in range
// and a non-empty column list.
func LoadOverrides(path string) ([]Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read overrides: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides parses YAML override entries and prepends the defaults.
func ParseOverrides(data []byte) ([]Override, error) {
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("rules: parse overrides: %w", err)
	}
	for i, o := range f.Overrides {
		if !charts.Archetype(o.Archetype).Valid() {
			return nil, fmt.Errorf("rules: override %d (%s): archetype %d out of range", i, o.Name, o.Archetype)
		}
		if len(o.Columns) == 0 {
			return nil, fmt.Errorf("rules: override %d (%s): empty column list", i, o.Name)
		}
	}
	return append(DefaultOverrides(), f.Overrides...), nil
}

// matchOverride returns the spec of the first override whose columns are all
// present in the table.
func (e *Engine) matchOverride(tbl *table.Table) (charts.Spec, bool) {
	for _, o := range e.Overrides {
		if !tbl.HasColumns(o.Columns...) {
			continue
		}
		e.logf("stage=select override=%s archetype=chart%d", o.Name, o.Archetype)
		return charts.Spec{
			Archetype: charts.Archetype(o.Archetype),
			Roles:     o.Roles,
			RoleLists: o.RoleLists,
			Labels:    o.Labels,
		}, true
	}
	return charts.Spec{}, false
}
