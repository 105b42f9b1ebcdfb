/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - Display strings (dates, dollars) computed once on the server
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Flows:
    FlowDTO

  Resolution:
    ResolveDTO, BenefitDTO

  Sessions:
    SessionDTO, RatingDTO, CreateSessionRequest, ChangeInjuryDateRequest

  Walks:
    StartFlowRequest, AnswerRequest, BackDTO (steps are rating.Step)

  Summary:
    SummaryDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the service, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - rating/flow.go: Step
*/
package api

import (
	"time"

	"github.com/warp/rating-engine/generic"
	"github.com/warp/rating-engine/rating"
	"github.com/warp/rating-engine/schedule"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// FlowDTO describes a registered flow without its nodes.
type FlowDTO struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Schedules   []string `json:"schedules,omitempty"`
	Start       string   `json:"start"`
}

// ResolveDTO is what an injury date resolves to.
type ResolveDTO struct {
	InjuryDate     string              `json:"injury_date"`
	Schedule       generic.ScheduleSet `json:"schedule"`
	BenefitTableID string              `json:"benefit_table_id"`
}

// BenefitDTO is a benefit estimate with display strings.
type BenefitDTO struct {
	generic.BenefitEstimate
	BaseAmountDisplay string `json:"base_amount_display,omitempty"`
	DollarsDisplay    string `json:"dollars_display,omitempty"`
}

// RatingDTO is an accepted rating.
type RatingDTO struct {
	ID         string               `json:"id"`
	FlowID     string               `json:"flow_id"`
	FlowLabel  string               `json:"flow_label"`
	Result     generic.RatingResult `json:"result"`
	Capped     bool                 `json:"capped"`
	AcceptedAt time.Time            `json:"accepted_at"`
}

// SessionDTO is a session with the flows it may start.
type SessionDTO struct {
	ID             string              `json:"id"`
	InjuryDate     string              `json:"injury_date"`
	InjuryDateText string              `json:"injury_date_display"`
	Schedule       generic.ScheduleSet `json:"schedule"`
	BenefitTableID string              `json:"benefit_table_id"`
	Ratings        []RatingDTO         `json:"ratings"`
	AvailableFlows []FlowDTO           `json:"available_flows"`
	ActiveFlow     string              `json:"active_flow,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// SummaryDTO is the combined rating of a session.
type SummaryDTO struct {
	SessionID       string     `json:"session_id"`
	Count           int        `json:"count"`
	Contributing    int        `json:"contributing"`
	Combined        float64    `json:"combined"`
	CombinedDisplay float64    `json:"combined_display"`
	Benefit         BenefitDTO `json:"benefit"`
}

// BackDTO is the answer to a back step. Exited is true when the walk was
// at its start node and has been closed.
type BackDTO struct {
	Exited bool         `json:"exited"`
	Step   *rating.Step `json:"step,omitempty"`
}

// CreateSessionRequest is the request body for opening a session.
type CreateSessionRequest struct {
	InjuryDate string `json:"injury_date"`
}

// ChangeInjuryDateRequest is the request body for changing the DOI.
type ChangeInjuryDateRequest struct {
	InjuryDate string `json:"injury_date"`
}

// StartFlowRequest is the request body for starting a walk.
type StartFlowRequest struct {
	FlowID string `json:"flow_id"`
}

// AnswerRequest answers the current node: Value for a choice, Flags for a
// multi node, neither for an info node.
type AnswerRequest struct {
	Value *string         `json:"value,omitempty"`
	Flags map[string]bool `json:"flags,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InjuryDate  string   `json:"injury_date"`
	Flows       []string `json:"flows"`
}

// LoadScenarioRequest is the request body for loading a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toFlowDTOs(flows []*generic.FlowGraph) []FlowDTO {
	out := make([]FlowDTO, 0, len(flows))
	for _, f := range flows {
		out = append(out, FlowDTO{
			ID:          f.ID,
			Label:       f.Label,
			Description: f.Description,
			Schedules:   f.Schedules,
			Start:       f.Start,
		})
	}
	return out
}

func toBenefitDTO(est generic.BenefitEstimate) BenefitDTO {
	dto := BenefitDTO{BenefitEstimate: est}
	if est.Supported {
		dto.BaseAmountDisplay = schedule.FormatMoney(est.BaseAmount)
		dto.DollarsDisplay = schedule.FormatMoney(est.Dollars)
	}
	return dto
}

func toRatingDTO(r generic.AcceptedRating) RatingDTO {
	return RatingDTO{
		ID:         string(r.ID),
		FlowID:     r.FlowID,
		FlowLabel:  r.FlowLabel,
		Result:     r.Result,
		Capped:     r.Result.Capped(),
		AcceptedAt: r.AcceptedAt,
	}
}

func (h *Handler) toSessionDTO(s generic.Session) SessionDTO {
	dto := SessionDTO{
		ID:             string(s.ID),
		InjuryDate:     s.InjuryDate.String(),
		InjuryDateText: s.InjuryDate.Short(),
		Schedule:       s.Schedule,
		BenefitTableID: s.BenefitTableID,
		Ratings:        make([]RatingDTO, 0, len(s.Ratings)),
		AvailableFlows: toFlowDTOs(h.Service.AvailableFlows(s)),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	for _, r := range s.Ratings {
		dto.Ratings = append(dto.Ratings, toRatingDTO(r))
	}
	if s.Flow != nil {
		dto.ActiveFlow = s.Flow.FlowID
	}
	return dto
}

func toSummaryDTO(id generic.SessionID, s schedule.Summary) SummaryDTO {
	return SummaryDTO{
		SessionID:       string(id),
		Count:           s.Count,
		Contributing:    s.Contributing,
		Combined:        s.Combined,
		CombinedDisplay: s.CombinedDisplay,
		Benefit:         toBenefitDTO(s.Benefit),
	}
}
