/*
handlers_test.go - Unit tests for API handlers

Tests for:
- A full knee walk over HTTP (create, answer, accept, summary)
- Info nodes, back and cancel
- Error mapping (400/404)
- Reference endpoints (flows, resolve, benefit) and /metrics
*/
package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rating-engine/generic/store"
	"github.com/warp/rating-engine/metrics"
	"github.com/warp/rating-engine/rating"

	_ "github.com/warp/rating-engine/knee"
	_ "github.com/warp/rating-engine/lumbar"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	m := metrics.NewManager()
	svc := rating.NewService(store.NewMemory(), rating.WithMetrics(m))
	srv := httptest.NewServer(NewRouter(NewHandler(svc, nil), RouterConfig{Metrics: m.Handler()}))
	t.Cleanup(srv.Close)
	return srv
}

// call sends body as JSON (a string is sent verbatim) and decodes the
// response into out when out is non-nil.
func call(t *testing.T, srv *httptest.Server, method, path string, body, out any) int {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

func createSession(t *testing.T, srv *httptest.Server, date string) SessionDTO {
	t.Helper()
	var sess SessionDTO
	status := call(t, srv, http.MethodPost, "/api/sessions", CreateSessionRequest{InjuryDate: date}, &sess)
	require.Equal(t, http.StatusCreated, status)
	return sess
}

func answer(t *testing.T, srv *httptest.Server, id string, req AnswerRequest) rating.Step {
	t.Helper()
	var step rating.Step
	status := call(t, srv, http.MethodPost, "/api/sessions/"+id+"/flow/answer", req, &step)
	require.Equal(t, http.StatusOK, status)
	return step
}

func value(v string) AnswerRequest { return AnswerRequest{Value: &v} }

// =============================================================================
// WALKS
// =============================================================================

func TestSessionWalk_KneeMeniscectomy(t *testing.T) {
	srv := setupTestServer(t)

	// GIVEN: A session for a 2024 injury
	sess := createSession(t, srv, "2024-03-15")
	assert.Equal(t, "03/15/2024", sess.InjuryDateText)
	assert.Equal(t, "post1993", sess.Schedule.ID)
	assert.Equal(t, "t2023", sess.BenefitTableID)
	require.Len(t, sess.AvailableFlows, 2)
	base := "/api/sessions/" + sess.ID

	// WHEN: The knee flow is walked to a result
	var step rating.Step
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, base+"/flow", StartFlowRequest{FlowID: "knee"}, &step))
	assert.Equal(t, "side", step.Node.ID)
	assert.False(t, step.CanGoBack)

	answer(t, srv, sess.ID, value("left"))
	step = answer(t, srv, sess.ID, value("combinable_rom"))
	assert.Equal(t, "combinable", step.Node.ID)
	assert.NotEmpty(t, step.Node.Flags)

	answer(t, srv, sess.ID, AnswerRequest{Flags: map[string]bool{"men_gt50_both": true}})
	answer(t, srv, sess.ID, value("no"))
	answer(t, srv, sess.ID, value("ext_0_9"))
	step = answer(t, srv, sess.ID, value("flex_lt20"))

	// THEN: The result is shown before it is accepted
	require.NotNil(t, step.Result)
	assert.Equal(t, 24.8, step.Result.Percent)

	var current rating.Step
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base+"/flow", nil, &current))
	assert.Equal(t, "result", current.Node.ID)

	// AND: Accepting keeps it on the session
	var accepted RatingDTO
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, base+"/flow/accept", nil, &accepted))
	assert.Equal(t, "knee", accepted.FlowID)
	assert.Equal(t, 24.8, accepted.Result.Percent)
	assert.False(t, accepted.Capped)

	var got SessionDTO
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base, nil, &got))
	require.Len(t, got.Ratings, 1)
	assert.Empty(t, got.ActiveFlow)

	// AND: The summary carries the benefit
	var sum SummaryDTO
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base+"/summary", nil, &sum))
	assert.Equal(t, 1, sum.Count)
	assert.Equal(t, 24.8, sum.CombinedDisplay)
	assert.True(t, sum.Benefit.Supported)
	assert.True(t, strings.HasPrefix(sum.Benefit.DollarsDisplay, "$"))

	// AND: Removing the rating empties the summary
	require.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, base+"/ratings/"+accepted.ID, nil, nil))
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base+"/summary", nil, &sum))
	assert.Equal(t, 0, sum.Count)
}

func TestSessionWalk_InfoNodeContinue(t *testing.T) {
	srv := setupTestServer(t)
	sess := createSession(t, srv, "2024-03-15")
	base := "/api/sessions/" + sess.ID

	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, base+"/flow", StartFlowRequest{FlowID: "lumbar"}, nil))
	step := answer(t, srv, sess.ID, value("no"))
	require.Equal(t, "not_supported", step.Node.ID)

	// An empty body continues past the info node.
	var next rating.Step
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/flow/answer", nil, &next))
	assert.Equal(t, "radicular", next.Node.ID)
}

func TestSessionWalk_BackAndCancel(t *testing.T) {
	srv := setupTestServer(t)
	sess := createSession(t, srv, "2024-03-15")
	base := "/api/sessions/" + sess.ID

	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, base+"/flow", StartFlowRequest{FlowID: "knee"}, nil))
	answer(t, srv, sess.ID, value("right"))

	var back BackDTO
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/flow/back", nil, &back))
	assert.False(t, back.Exited)
	require.NotNil(t, back.Step)
	assert.Equal(t, "side", back.Step.Node.ID)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/flow/back", nil, &back))
	assert.True(t, back.Exited)

	// No walk is open any more
	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodPost, base+"/flow/cancel", nil, nil))

	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, base+"/flow", StartFlowRequest{FlowID: "knee"}, nil))
	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodPost, base+"/flow/cancel", nil, nil))
}

func TestSessionWalk_Discard(t *testing.T) {
	srv := setupTestServer(t)
	sess := createSession(t, srv, "2024-03-15")
	base := "/api/sessions/" + sess.ID

	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, base+"/flow", StartFlowRequest{FlowID: "knee"}, nil))
	for _, v := range []string{"left", "exclusive", "patellar_shaving"} {
		answer(t, srv, sess.ID, value(v))
	}
	require.Equal(t, http.StatusNoContent, call(t, srv, http.MethodPost, base+"/flow/discard", nil, nil))

	var got SessionDTO
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base, nil, &got))
	assert.Empty(t, got.Ratings)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestSessions_ListChangeDelete(t *testing.T) {
	srv := setupTestServer(t)
	sess := createSession(t, srv, "2024-03-15")
	createSession(t, srv, "2001-06-01")

	var list []SessionDTO
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/sessions", nil, &list))
	assert.Len(t, list, 2)

	// Moving the DOI before 1993 leaves no flows to start
	var changed SessionDTO
	status := call(t, srv, http.MethodPut, "/api/sessions/"+sess.ID+"/injury-date",
		ChangeInjuryDateRequest{InjuryDate: "1990-05-01"}, &changed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pre1993", changed.Schedule.ID)
	assert.Empty(t, changed.AvailableFlows)

	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodPost, "/api/sessions/"+sess.ID+"/flow",
		StartFlowRequest{FlowID: "knee"}, nil))

	require.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, "/api/sessions/"+sess.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/api/sessions/"+sess.ID, nil, nil))
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestErrors(t *testing.T) {
	srv := setupTestServer(t)
	sess := createSession(t, srv, "2024-03-15")
	base := "/api/sessions/" + sess.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/missing", nil, http.StatusNotFound},
		{"invalid date", http.MethodPost, "/api/sessions", CreateSessionRequest{InjuryDate: "15/03/2024"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/sessions", "{not json", http.StatusBadRequest},
		{"unknown flow", http.MethodPost, base + "/flow", StartFlowRequest{FlowID: "elbow"}, http.StatusNotFound},
		{"answer without walk", http.MethodPost, base + "/flow/answer", value("left"), http.StatusBadRequest},
		{"accept without walk", http.MethodPost, base + "/flow/accept", nil, http.StatusBadRequest},
		{"unknown rating", http.MethodDelete, base + "/ratings/nope", nil, http.StatusNotFound},
		{"summary of unknown session", http.MethodGet, "/api/sessions/missing/summary", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			status := call(t, srv, tt.method, tt.path, tt.body, &resp)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestErrors_WrongStep(t *testing.T) {
	srv := setupTestServer(t)
	sess := createSession(t, srv, "2024-03-15")
	base := "/api/sessions/" + sess.ID
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, base+"/flow", StartFlowRequest{FlowID: "knee"}, nil))

	var resp ErrorResponse
	status := call(t, srv, http.MethodPost, base+"/flow/answer", value("middle"), &resp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Details, "unknown option")

	status = call(t, srv, http.MethodPost, base+"/flow/answer", AnswerRequest{Flags: map[string]bool{"x": true}}, &resp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Details, "does not match node type")
}

// =============================================================================
// REFERENCE ENDPOINTS
// =============================================================================

func TestListFlows(t *testing.T) {
	srv := setupTestServer(t)

	var flows []FlowDTO
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/flows", nil, &flows))
	require.Len(t, flows, 2)
	assert.Equal(t, "knee", flows[0].ID)
	assert.Equal(t, "side", flows[0].Start)
	assert.Equal(t, "lumbar", flows[1].ID)
}

func TestResolve(t *testing.T) {
	srv := setupTestServer(t)

	var got ResolveDTO
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/resolve?date=2019-02-01", nil, &got))
	assert.Equal(t, "2019-02-01", got.InjuryDate)
	assert.Equal(t, "post1993", got.Schedule.ID)
	assert.Equal(t, "t2018", got.BenefitTableID)

	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodGet, "/api/resolve?date=soon", nil, nil))
}

func TestBenefit(t *testing.T) {
	srv := setupTestServer(t)

	var got BenefitDTO
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/benefit?date=2024-03-15&percent=5.5", nil, &got))
	assert.True(t, got.Supported)
	assert.Equal(t, "$121,800.00", got.BaseAmountDisplay)
	assert.Equal(t, "$6,699.00", got.DollarsDisplay)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/benefit?date=1990-01-01&percent=5", nil, &got))
	assert.False(t, got.Supported)
	assert.NotEmpty(t, got.Reason)

	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodGet, "/api/benefit?date=2024-03-15&percent=lots", nil, nil))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	createSession(t, srv, "2024-03-15")

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ppd_sessions_created_total 1")
}

func TestIndexPage(t *testing.T) {
	srv := setupTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
