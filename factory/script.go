package factory

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// RATING SCRIPTS - A recorded walk through one or more flows
// =============================================================================

// RatingScript describes a whole session: an injury date and the flows to
// walk, in order. Each walk that reaches a result node is accepted.
//
//	id: meniscectomy-ankylosis
//	name: Meniscectomy + ankylosis
//	injury_date: "2024-03-15"
//	ratings:
//	  - flow: knee
//	    steps:
//	      - choose: left
//	      - choose: combinable_rom
//	      - flags: [men_gt50_both]
//	      - choose: "yes"
//	      - choose: ank_neutral_20
type RatingScript struct {
	ID          string         `yaml:"id,omitempty"`
	Name        string         `yaml:"name,omitempty"`
	Description string         `yaml:"description,omitempty"`
	InjuryDate  string         `yaml:"injury_date"`
	Ratings     []ScriptedFlow `yaml:"ratings"`
}

// ScriptedFlow is one walk through a flow.
type ScriptedFlow struct {
	Flow  string       `yaml:"flow"`
	Steps []ScriptStep `yaml:"steps"`

	// Discard drops the result instead of accepting it.
	Discard bool `yaml:"discard,omitempty"`
}

// ScriptStep is exactly one of: a choice, a set of checked flags, or
// continuing past an info node.
type ScriptStep struct {
	Choose   string   `yaml:"choose,omitempty"`
	Flags    []string `yaml:"flags,omitempty"`
	Continue bool     `yaml:"continue,omitempty"`
}

// FlagMap converts the checked flag list to the interpreter's form.
func (s ScriptStep) FlagMap() map[string]bool {
	m := make(map[string]bool, len(s.Flags))
	for _, f := range s.Flags {
		m[f] = true
	}
	return m
}

// IsFlags reports whether the step answers a multi node. An explicit
// empty list (flags: []) counts.
func (s ScriptStep) IsFlags() bool { return s.Flags != nil }

// ParseRatingScript decodes a single script.
func ParseRatingScript(data []byte) (RatingScript, error) {
	var s RatingScript
	if err := yaml.Unmarshal(data, &s); err != nil {
		return RatingScript{}, eris.Wrap(err, "factory: parse rating script")
	}
	if err := s.validate(); err != nil {
		return RatingScript{}, err
	}
	return s, nil
}

// ParseRatingScripts decodes a document holding a list of scripts under
// the "scenarios" key.
func ParseRatingScripts(data []byte) ([]RatingScript, error) {
	var doc struct {
		Scenarios []RatingScript `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "factory: parse rating scripts")
	}
	seen := make(map[string]bool, len(doc.Scenarios))
	for _, s := range doc.Scenarios {
		if s.ID == "" {
			return nil, eris.New("factory: scenario without id")
		}
		if seen[s.ID] {
			return nil, eris.Errorf("factory: duplicate scenario %s", s.ID)
		}
		seen[s.ID] = true
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	return doc.Scenarios, nil
}

func (s RatingScript) validate() error {
	if s.InjuryDate == "" {
		return eris.Errorf("factory: script %s: missing injury_date", s.ID)
	}
	for i, r := range s.Ratings {
		if r.Flow == "" {
			return eris.Errorf("factory: script %s: rating %d: missing flow", s.ID, i)
		}
		for j, st := range r.Steps {
			n := 0
			if st.Choose != "" {
				n++
			}
			if st.IsFlags() {
				n++
			}
			if st.Continue {
				n++
			}
			if n != 1 {
				return eris.Errorf("factory: script %s: rating %d step %d: need exactly one of choose, flags, continue", s.ID, i, j)
			}
		}
	}
	return nil
}
