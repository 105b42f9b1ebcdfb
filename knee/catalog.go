/*
Package knee rates the knee and lower leg under Minn. R. 5223.0510.

RATING MODES:
  exclusive       One subp. 2 finding. Its percent is the rating.
  combinable_rom  Any subp. 3 items plus a subp. 4 range-of-motion band,
                  merged with the combined values rule.
  rom_only        Only the subp. 4 band.

  Every mode is capped at 34% (subp. 1).

RANGE OF MOTION (subp. 4):
  Either an ankylosis band (20/24/28/36) or the extension x flexion
  table. Some rows collapse several flexion bands into one column at
  the table edge (flex_lt51, flex_lt90, flex_lt121). Extension beyond
  90 degrees is 36% whatever the flexion.

SEE ALSO:
  - flow.go: The questionnaire graph
  - evaluate.go: The evaluator bound to the result node
*/
package knee

import (
	"time"

	"github.com/warp/rating-engine/generic"
)

// Cap is the knee schedule maximum (subp. 1).
const Cap = 34

const cite = "Minn. R. 5223.0510"

// Item is one catalog entry. Gate, when set, is the earliest injury date
// the item applies to.
type Item struct {
	ID       string
	Label    string
	Percent  float64
	Citation string
	InfoOnly bool
	Gate     generic.InjuryDate
	GateNote string
}

// Applies reports whether the item may be rated for the injury date.
func (it Item) Applies(d generic.InjuryDate) bool {
	return it.Gate.IsZero() || d.OnOrAfter(it.Gate)
}

func find(items []Item, id string) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// =============================================================================
// SUBP. 2 - Exclusive findings (pick one)
// =============================================================================

var Exclusive = []Item{
	{ID: "plateau_undisplaced", Label: "Plateau fracture, undisplaced", Percent: 2, Citation: cite + " subp. 2(A)(1)"},
	{ID: "plateau_one_intact", Label: "Plateau fracture, depressed/elevated medial or lateral, cartilage intact", Percent: 7, Citation: cite + " subp. 2(A)(2)(a)"},
	{ID: "plateau_one_excised", Label: "Plateau fracture, depressed/elevated medial or lateral, cartilage excised", Percent: 9, Citation: cite + " subp. 2(A)(2)(b)"},
	{ID: "plateau_both_intact", Label: "Plateau fracture, both plateaus, both intact", Percent: 9, Citation: cite + " subp. 2(A)(3)(a)"},
	{ID: "plateau_both_excised", Label: "Plateau fracture, both plateaus, one or both excised", Percent: 11, Citation: cite + " subp. 2(A)(3)(b)"},
	{ID: "supracondylar_undisplaced", Label: "Supracondylar or intercondylar fracture, undisplaced", Percent: 2, Citation: cite + " subp. 2(B)(1)"},
	{ID: "bicondylar_undisplaced", Label: "Bicondylar fracture, undisplaced", Percent: 5, Citation: cite + " subp. 2(B)(2)"},
	{ID: "supracondylar_displaced", Label: "Supracondylar fracture, displaced", Percent: 4, Citation: cite + " subp. 2(B)(3)"},
	{ID: "unicondylar_displaced", Label: "Unicondylar fracture, displaced", Percent: 6, Citation: cite + " subp. 2(B)(4)"},
	{ID: "bicondylar_displaced", Label: "Bicondylar fracture, displaced", Percent: 10, Citation: cite + " subp. 2(B)(5)"},
	{ID: "patellar_shaving", Label: "Patellar shaving", Percent: 1, Citation: cite + " subp. 2(C)"},
	{ID: "collateral_mild", Label: "Collateral ligament laxity, mild", Percent: 2, Citation: cite + " subp. 2(D)(1)"},
	{ID: "collateral_moderate", Label: "Collateral ligament laxity, moderate", Percent: 4, Citation: cite + " subp. 2(D)(2)"},
	{ID: "repair_patellar_dislocation", Label: "Repair patellar dislocation", Percent: 5, Citation: cite + " subp. 2(E)"},
	{ID: "lateral_retinacular", Label: "Lateral retinacular release", Percent: 1, Citation: cite + " subp. 2(F)"},
	{ID: "painful_organic", Label: "Painful organic syndrome (no passive ROM limitation)", Percent: 0, Citation: cite + " subp. 2(G)"},
	{ID: "nerve_resolved", Label: "Nerve entrapment, resolved", Percent: 0, Citation: cite + " subp. 2(H)(1)"},
	{ID: "nerve_recurring_no_edx", Label: "Nerve entrapment, recurring/persisting, no EDX", Percent: 0, Citation: cite + " subp. 2(H)(2)"},
	{ID: "nerve_edx", Label: "Nerve entrapment, persisting with EDX", Percent: 2, Citation: cite + " subp. 2(H)(3)"},
	{ID: "nerve_motor_sensory", Label: "Nerve entrapment with motor/sensory loss (rate under 5223.0420/0430)", Percent: 0, Citation: cite + " subp. 2(H)(4)", InfoOnly: true},
	{ID: "tibia_nonunion_orthosis", Label: "Tibia nonunion requiring nonweight-bearing orthosis", Percent: 18, Citation: cite + " subp. 2(I)"},
}

// =============================================================================
// SUBP. 3 - Combinable items (check all that apply)
// =============================================================================

var Combinable = []Item{
	{ID: "patellectomy", Label: "Patellectomy (partial or total)", Percent: 4, Citation: cite + " subp. 3(A)"},
	{ID: "men_up50_one", Label: "Meniscectomy: up to 50% of one cartilage", Percent: 2, Citation: cite + " subp. 3(B)(1)"},
	{ID: "men_gt50_one", Label: "Meniscectomy: more than 50% of one cartilage", Percent: 3, Citation: cite + " subp. 3(B)(2)"},
	{ID: "men_up50_both", Label: "Meniscectomy: up to 50% of both cartilages", Percent: 4, Citation: cite + " subp. 3(B)(3)"},
	{ID: "men_gt50_both", Label: "Meniscectomy: more than 50% of both cartilages", Percent: 6, Citation: cite + " subp. 3(B)(4)"},
	{
		ID: "men_mixed_2010", Label: "Meniscectomy: DOI ≥ 8/9/2010, one ≤50%, other >50%", Percent: 5, Citation: cite + " subp. 3(B)(5)",
		Gate:     generic.NewInjuryDate(2010, time.August, 9),
		GateNote: "The “mixed meniscus” 5% option requires DOI ≥ 8/9/2010; not applied.",
	},
	{ID: "arthro_unicondylar", Label: "Arthroplasty: unicondylar", Percent: 7, Citation: cite + " subp. 3(C)(1)"},
	{ID: "arthro_total_condylar", Label: "Arthroplasty: total condylar", Percent: 8, Citation: cite + " subp. 3(C)(2)"},
	{ID: "arthro_patella_replacement", Label: "Arthroplasty: patella replacement", Percent: 7, Citation: cite + " subp. 3(C)(3)"},
	{ID: "cruciate_ant_mild", Label: "Cruciate: anterior mild (positive drawer, no pivot)", Percent: 3, Citation: cite + " subp. 3(D)(1)"},
	{ID: "cruciate_ant_severe", Label: "Cruciate: anterior severe (drawer + pivot)", Percent: 5, Citation: cite + " subp. 3(D)(2)"},
	{ID: "cruciate_posterior", Label: "Cruciate: posterior", Percent: 5, Citation: cite + " subp. 3(D)(3)"},
	{ID: "varus_0", Label: "Varus 0°–5°", Percent: 0, Citation: cite + " subp. 3(E)"},
	{ID: "varus_2", Label: "Varus 6°–10°", Percent: 2, Citation: cite + " subp. 3(E)"},
	{ID: "varus_4", Label: "Varus 11° or more", Percent: 4, Citation: cite + " subp. 3(E)"},
	{ID: "valgus_0", Label: "Valgus 0°–5°", Percent: 0, Citation: cite + " subp. 3(F)"},
	{ID: "valgus_2", Label: "Valgus 6°–10°", Percent: 2, Citation: cite + " subp. 3(F)"},
	{ID: "valgus_4", Label: "Valgus 11° or more", Percent: 4, Citation: cite + " subp. 3(F)"},
	{ID: "prox_tibial_osteotomy", Label: "Proximal tibial osteotomy", Percent: 4, Citation: cite + " subp. 3(G)"},
	{ID: "distal_femoral_osteotomy", Label: "Distal femoral osteotomy", Percent: 4, Citation: cite + " subp. 3(H)"},
	{ID: "not_otherwise_ratable", Label: "Not otherwise ratable", Percent: 0, Citation: cite + " subp. 3(I)"},
}

// =============================================================================
// SUBP. 4 - Range of motion
// =============================================================================

var Ankylosis = []Item{
	{ID: "ank_neutral_20", Label: "Neutral to 20° flexion", Percent: 20, Citation: cite + " subp. 4(7)(a)"},
	{ID: "ank_21_50", Label: "21°–50° flexion", Percent: 24, Citation: cite + " subp. 4(7)(b)"},
	{ID: "ank_51_90", Label: "51°–90° flexion", Percent: 28, Citation: cite + " subp. 4(7)(c)"},
	{ID: "ank_gt90", Label: ">90° flexion", Percent: 36, Citation: cite + " subp. 4(7)(d)"},
}

// Band is one selectable range on an axis of the ROM table.
type Band struct {
	ID    string
	Label string
}

var ExtensionBands = []Band{
	{"ext_0_9", "Extension limited to 0°–9° flexion"},
	{"ext_10_20", "Extension limited to 10°–20° flexion"},
	{"ext_21_35", "Extension limited to 21°–35° flexion"},
	{"ext_36_50", "Extension limited to 36°–50° flexion"},
	{"ext_51_90", "Extension limited to 51°–90° flexion"},
	{ExtensionSevere, "Extension limited to >90° flexion"},
}

var FlexionBands = []Band{
	{"flex_gt120", "Flexion >120°"},
	{"flex_91_120", "Flexion 91°–120°"},
	{"flex_51_90", "Flexion 51°–90°"},
	{"flex_20_50", "Flexion 20°–50°"},
	{"flex_lt20", "Flexion <20°"},
}

// ExtensionSevere is rated flat, flexion is not asked.
const (
	ExtensionSevere        = "ext_gt90"
	ExtensionSeverePercent = 36
)

// romTable is indexed extension row, then flexion column. Rows for the
// more limited extensions carry collapsed columns instead of the fine
// flexion bands.
var romTable = map[string]map[string]float64{
	"ext_0_9":   {"flex_gt120": 0, "flex_91_120": 2, "flex_51_90": 12, "flex_20_50": 16, "flex_lt20": 20},
	"ext_10_20": {"flex_gt120": 2, "flex_91_120": 4, "flex_51_90": 14, "flex_20_50": 18, "flex_lt20": 20},
	"ext_21_35": {"flex_gt120": 8, "flex_91_120": 10, "flex_51_90": 20, "flex_lt51": 24},
	"ext_36_50": {"flex_gt120": 16, "flex_91_120": 18, "flex_lt90": 28},
	"ext_51_90": {"flex_gt120": 26, "flex_lt121": 28},
}

// collapsed lists, in precedence order, the coarse columns a fine
// flexion band falls back to when a row does not carry it.
var collapsed = []struct {
	column string
	covers map[string]bool
}{
	{"flex_lt51", map[string]bool{"flex_20_50": true, "flex_lt20": true}},
	{"flex_lt90", map[string]bool{"flex_51_90": true, "flex_20_50": true, "flex_lt20": true}},
	{"flex_lt121", map[string]bool{"flex_91_120": true, "flex_51_90": true, "flex_20_50": true, "flex_lt20": true}},
}

// LookupROM returns the percent for an extension row and flexion band.
// ok is false when the pair is not in the table.
func LookupROM(ext, flex string) (percent float64, ok bool) {
	if ext == ExtensionSevere {
		return ExtensionSeverePercent, true
	}
	row, ok := romTable[ext]
	if !ok {
		return 0, false
	}
	if v, ok := row[flex]; ok {
		return v, true
	}
	for _, c := range collapsed {
		if !c.covers[flex] {
			continue
		}
		if v, ok := row[c.column]; ok {
			return v, true
		}
	}
	return 0, false
}

func bandLabel(bands []Band, id string) string {
	for _, b := range bands {
		if b.ID == id {
			return b.Label
		}
	}
	return id
}
