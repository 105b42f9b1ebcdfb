/*
handlers.go - HTTP API handlers for the PPD rating engine

PURPOSE:
  Exposes rating sessions via REST API. Handles HTTP request/response and
  JSON serialization, and delegates everything else to rating.Service.

ENDPOINTS:
  Reference:
    GET    /api/flows                          Registered flows
    GET    /api/resolve?date=                  Schedule set + benefit table
    GET    /api/benefit?date=&percent=         Benefit estimate

  Sessions:
    POST   /api/sessions                       Open a session
    GET    /api/sessions                       List sessions
    GET    /api/sessions/{id}                  Session + available flows
    PUT    /api/sessions/{id}/injury-date      Change DOI
    DELETE /api/sessions/{id}                  Delete session
    DELETE /api/sessions/{id}/ratings/{rid}    Remove an accepted rating
    GET    /api/sessions/{id}/summary          Combined percent + benefit

  Walks:
    POST   /api/sessions/{id}/flow             Start a flow
    GET    /api/sessions/{id}/flow             Current step
    POST   /api/sessions/{id}/flow/answer      Answer the current node
    POST   /api/sessions/{id}/flow/back        Previous node
    POST   /api/sessions/{id}/flow/cancel      Abandon the walk
    POST   /api/sessions/{id}/flow/accept      Keep the result
    POST   /api/sessions/{id}/flow/discard     Drop the result

  Scenarios:
    GET    /api/scenarios                      List demo scenarios
    POST   /api/scenarios/load                 Replay a scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Call rating.Service
  3. Serialize response
  4. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON {error, details}:
  - 400: Invalid input, a step that does not fit the node, no walk open
  - 404: Session, rating, flow or scenario not found
  - 500: Storage and other internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warp/rating-engine/generic"
	"github.com/warp/rating-engine/rating"
	"github.com/warp/rating-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *rating.Service
	logger  *zap.Logger
}

// NewHandler creates a handler over svc. A nil logger discards output.
func NewHandler(svc *rating.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, logger: logger}
}

// =============================================================================
// REFERENCE ENDPOINTS
// =============================================================================

// ListFlows returns all registered flows.
// GET /api/flows
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toFlowDTOs(h.Service.Flows()))
}

// Resolve returns the schedule set and benefit table for a date.
// GET /api/resolve?date=2024-03-15
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	d, ok := queryDate(w, r)
	if !ok {
		return
	}
	ctx := schedule.Context(d)
	writeJSON(w, http.StatusOK, ResolveDTO{
		InjuryDate:     d.String(),
		Schedule:       ctx.Schedule,
		BenefitTableID: ctx.BenefitTableID,
	})
}

// Benefit estimates dollars for a whole-body percent.
// GET /api/benefit?date=2024-03-15&percent=12.5
func (h *Handler) Benefit(w http.ResponseWriter, r *http.Request) {
	d, ok := queryDate(w, r)
	if !ok {
		return
	}
	pct, err := strconv.ParseFloat(r.URL.Query().Get("percent"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid percent", err)
		return
	}
	writeJSON(w, http.StatusOK, toBenefitDTO(schedule.Benefit(d, pct)))
}

// =============================================================================
// SESSION ENDPOINTS
// =============================================================================

// CreateSession opens a session for an injury date.
// POST /api/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sess, err := h.Service.CreateSession(r.Context(), req.InjuryDate)
	if err != nil {
		h.writeServiceError(w, "Failed to create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toSessionDTO(sess))
}

// ListSessions returns all sessions.
// GET /api/sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Service.ListSessions(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to list sessions", err)
		return
	}

	out := make([]SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, h.toSessionDTO(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSession returns one session.
// GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Service.GetSession(r.Context(), sessionID(r))
	if err != nil {
		h.writeServiceError(w, "Failed to get session", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toSessionDTO(sess))
}

// ChangeInjuryDate re-resolves a session for a new DOI.
// PUT /api/sessions/{id}/injury-date
func (h *Handler) ChangeInjuryDate(w http.ResponseWriter, r *http.Request) {
	var req ChangeInjuryDateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sess, err := h.Service.ChangeInjuryDate(r.Context(), sessionID(r), req.InjuryDate)
	if err != nil {
		h.writeServiceError(w, "Failed to change injury date", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toSessionDTO(sess))
}

// DeleteSession removes a session and its ratings.
// DELETE /api/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSession(r.Context(), sessionID(r)); err != nil {
		h.writeServiceError(w, "Failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveRating deletes an accepted rating.
// DELETE /api/sessions/{id}/ratings/{rid}
func (h *Handler) RemoveRating(w http.ResponseWriter, r *http.Request) {
	rid := generic.RatingID(chi.URLParam(r, "rid"))
	if err := h.Service.RemoveRating(r.Context(), sessionID(r), rid); err != nil {
		h.writeServiceError(w, "Failed to remove rating", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary combines a session's ratings.
// GET /api/sessions/{id}/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	sum, err := h.Service.Summary(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "Failed to summarize session", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(id, sum))
}

// =============================================================================
// WALK ENDPOINTS
// =============================================================================

// StartFlow begins a walk through a flow.
// POST /api/sessions/{id}/flow
func (h *Handler) StartFlow(w http.ResponseWriter, r *http.Request) {
	var req StartFlowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	step, err := h.Service.StartFlow(r.Context(), sessionID(r), req.FlowID)
	if err != nil {
		h.writeServiceError(w, "Failed to start flow", err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

// CurrentStep returns where the walk is.
// GET /api/sessions/{id}/flow
func (h *Handler) CurrentStep(w http.ResponseWriter, r *http.Request) {
	step, err := h.Service.Current(r.Context(), sessionID(r))
	if err != nil {
		h.writeServiceError(w, "Failed to get current step", err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// Answer answers the current node. A value answers a choice node, flags
// answer a multi node, and an empty body continues past an info node.
// POST /api/sessions/{id}/flow/answer
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx, id := r.Context(), sessionID(r)
	var (
		step rating.Step
		err  error
	)
	switch {
	case req.Value != nil:
		step, err = h.Service.Choose(ctx, id, *req.Value)
	case req.Flags != nil:
		step, err = h.Service.SubmitFlags(ctx, id, req.Flags)
	default:
		step, err = h.Service.Continue(ctx, id)
	}
	if err != nil {
		h.writeServiceError(w, "Failed to answer", err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// Back steps to the previous node, or exits at the start node.
// POST /api/sessions/{id}/flow/back
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	step, ok, err := h.Service.Back(r.Context(), sessionID(r))
	if err != nil {
		h.writeServiceError(w, "Failed to go back", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, BackDTO{Exited: true})
		return
	}
	writeJSON(w, http.StatusOK, BackDTO{Step: &step})
}

// CancelFlow abandons the walk.
// POST /api/sessions/{id}/flow/cancel
func (h *Handler) CancelFlow(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Cancel(r.Context(), sessionID(r)); err != nil {
		h.writeServiceError(w, "Failed to cancel flow", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AcceptResult keeps the result at the current result node.
// POST /api/sessions/{id}/flow/accept
func (h *Handler) AcceptResult(w http.ResponseWriter, r *http.Request) {
	accepted, err := h.Service.Accept(r.Context(), sessionID(r))
	if err != nil {
		h.writeServiceError(w, "Failed to accept result", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRatingDTO(accepted))
}

// DiscardResult drops the result at the current result node.
// POST /api/sessions/{id}/flow/discard
func (h *Handler) DiscardResult(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Discard(r.Context(), sessionID(r)); err != nil {
		h.writeServiceError(w, "Failed to discard result", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func sessionID(r *http.Request) generic.SessionID {
	return generic.SessionID(chi.URLParam(r, "id"))
}

func queryDate(w http.ResponseWriter, r *http.Request) (generic.InjuryDate, bool) {
	raw := r.URL.Query().Get("date")
	d := generic.ParseInjuryDate(raw)
	if d.IsZero() {
		writeError(w, http.StatusBadRequest, "Invalid injury date", generic.ErrInvalidInjuryDate)
		return generic.InjuryDate{}, false
	}
	return d, true
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeServiceError maps service errors to status codes. Internal errors
// are logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
