package schedule

import (
	_ "embed"
	"fmt"

	"github.com/warp/rating-engine/factory"
	"github.com/warp/rating-engine/generic"
)

//go:embed tables.yaml
var tablesYAML []byte

var (
	tables     map[string]generic.BenefitTable
	tableOrder []string
)

// A table that fails validation is an authoring defect; refuse to start.
func init() {
	ts, err := factory.ParseBenefitTables(tablesYAML)
	if err != nil {
		panic(fmt.Sprintf("schedule: embedded benefit tables: %v", err))
	}
	tables = make(map[string]generic.BenefitTable, len(ts))
	for _, t := range ts {
		tables[t.ID] = t
		tableOrder = append(tableOrder, t.ID)
	}
	for _, w := range tableWindows {
		if _, ok := tables[w.ID]; !ok {
			panic(fmt.Sprintf("schedule: no benefit table for window %s", w.ID))
		}
	}
}

// Table returns a benefit table by ID.
func Table(id string) (generic.BenefitTable, bool) {
	t, ok := tables[id]
	return t, ok
}

// Tables returns every benefit table, newest first.
func Tables() []generic.BenefitTable {
	out := make([]generic.BenefitTable, 0, len(tableOrder))
	for _, id := range tableOrder {
		out = append(out, tables[id])
	}
	return out
}

// TableFor returns the benefit table for an injury date.
func TableFor(d generic.InjuryDate) (generic.BenefitTable, bool) {
	return Table(ResolveBenefitTableID(d))
}
