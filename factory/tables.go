/*
Package factory provides YAML to Go conversion for rating data.

PURPOSE:
  Converts YAML definitions into engine types so legislated data and
  rating scripts live outside the code. Benefit tables change with
  session law; scripts describe a rating walk for the CLI and demos.

YAML SCHEMA (benefit tables):
  tables:
    - id: t2023
      label: "Effective DOI ≥ 10/01/2023"
      source: "Minn. Stat. / DLI; effective 10/1/2023"
      window: "2023-10-01 onward"
      rounding: continuous        # or integer
      brackets:
        - {max: 5.5, max_exclusive: true, amount: "114260", label: "< 5.5%"}
        - {min: 5.5, max: 10.5, max_exclusive: true, amount: "121800"}
        ...

KEY FEATURES:
  - Amounts parse as decimal.Decimal, never through float64
  - Every table is validated (contiguous 0-100 coverage)
  - Duplicate table IDs are rejected

USAGE:
  tables, err := factory.ParseBenefitTables(data)

SEE ALSO:
  - generic/benefit.go: BenefitTable and Validate
  - schedule/tables.yaml: The embedded Minnesota tables
  - script.go: Rating scripts
*/
package factory

import (
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/rating-engine/generic"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// TablesYAML is the document root.
type TablesYAML struct {
	Tables []TableYAML `yaml:"tables"`
}

// TableYAML is one benefit table.
type TableYAML struct {
	ID       string        `yaml:"id"`
	Label    string        `yaml:"label"`
	Source   string        `yaml:"source"`
	Window   string        `yaml:"window"`
	Rounding string        `yaml:"rounding"`
	Brackets []BracketYAML `yaml:"brackets"`
}

// BracketYAML is one bracket. Omitted bounds are open.
type BracketYAML struct {
	Min          *float64 `yaml:"min,omitempty"`
	MinExclusive bool     `yaml:"min_exclusive,omitempty"`
	Max          *float64 `yaml:"max,omitempty"`
	MaxExclusive bool     `yaml:"max_exclusive,omitempty"`
	Amount       string   `yaml:"amount"`
	Label        string   `yaml:"label,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseBenefitTables decodes and validates a tables document.
func ParseBenefitTables(data []byte) ([]generic.BenefitTable, error) {
	var doc TablesYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "factory: parse benefit tables")
	}
	if len(doc.Tables) == 0 {
		return nil, eris.New("factory: no benefit tables defined")
	}

	seen := make(map[string]bool, len(doc.Tables))
	tables := make([]generic.BenefitTable, 0, len(doc.Tables))
	for _, ty := range doc.Tables {
		if ty.ID == "" {
			return nil, eris.New("factory: benefit table without id")
		}
		if seen[ty.ID] {
			return nil, eris.Errorf("factory: duplicate benefit table %s", ty.ID)
		}
		seen[ty.ID] = true

		t, err := ty.ToTable()
		if err != nil {
			return nil, err
		}
		if err := t.Validate(); err != nil {
			return nil, eris.Wrapf(err, "factory: table %s", ty.ID)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// ToTable converts the YAML form without validating coverage.
func (ty TableYAML) ToTable() (generic.BenefitTable, error) {
	t := generic.BenefitTable{
		ID:       ty.ID,
		Label:    ty.Label,
		Source:   ty.Source,
		Window:   ty.Window,
		Rounding: generic.RoundingMode(ty.Rounding),
		Brackets: make([]generic.Bracket, 0, len(ty.Brackets)),
	}
	if t.Rounding == "" {
		t.Rounding = generic.RoundContinuous
	}

	for i, by := range ty.Brackets {
		amount, err := decimal.NewFromString(by.Amount)
		if err != nil {
			return generic.BenefitTable{}, eris.Wrapf(err, "factory: table %s bracket %d amount %q", ty.ID, i, by.Amount)
		}
		t.Brackets = append(t.Brackets, generic.Bracket{
			Min:          by.Min,
			MinExclusive: by.MinExclusive,
			Max:          by.Max,
			MaxExclusive: by.MaxExclusive,
			Amount:       amount,
			Label:        by.Label,
		})
	}
	return t, nil
}
