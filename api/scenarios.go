/*
scenarios.go - Demo rating sessions

PURPOSE:

	Provides recorded walks that create fully rated sessions for demos and
	tests. Each scenario is a factory.RatingScript replayed through the
	same service operations a person would drive step by step.

AVAILABLE SCENARIOS:

	patellar-shaving:  One exclusive knee finding (1%)
	rom-only:          ROM table lookup (2%)
	meniscectomy-rom:  Combinable item merged with ROM (24.8%)
	capped-ankylosis:  Ankylosis beyond the knee cap (36% -> 34%)
	lumbar-fusion:     Additive lumbar rating with fusion (17%)
	multi-body-part:   Knee + lumbar combined in the summary

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "multi-body-part"}

ADDING NEW SCENARIOS:
 1. Add a script to scenarios.yaml
 2. Nothing else; the list is read at startup

SEE ALSO:
  - scenarios.yaml: The scripts
  - factory/script.go: Script format
  - rating/replay.go: Replay
*/
package api

import (
	_ "embed"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/rating-engine/factory"
)

//go:embed scenarios.yaml
var scenariosYAML []byte

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = mustParseScenarios()

func mustParseScenarios() []factory.RatingScript {
	s, err := factory.ParseRatingScripts(scenariosYAML)
	if err != nil {
		panic(err)
	}
	return s
}

func findScenario(id string) (factory.RatingScript, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return factory.RatingScript{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns all available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, 0, len(scenarios))
	for _, s := range scenarios {
		flows := make([]string, 0, len(s.Ratings))
		for _, rt := range s.Ratings {
			flows = append(flows, rt.Flow)
		}
		out = append(out, ScenarioDTO{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			InjuryDate:  s.InjuryDate,
			Flows:       flows,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// LoadScenario replays a scenario into a new session.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	script, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	sess, err := h.Service.Replay(r.Context(), script)
	if err != nil {
		h.logger.Error("scenario failed", zap.String("scenario", script.ID), zap.Error(err))
		h.writeServiceError(w, "Failed to load scenario", err)
		return
	}

	h.logger.Info("scenario loaded",
		zap.String("scenario", script.ID),
		zap.String("session_id", string(sess.ID)),
	)
	writeJSON(w, http.StatusCreated, h.toSessionDTO(sess))
}
