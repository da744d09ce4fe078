/*
handlers_test.go - HTTP tests for the API

Tests for:
- Actor and role checks on /api
- Status codes for validation, duplicate, missing and malformed requests
- The payroll flow over HTTP: calculate, close, archive, dossier
- Scenario loading and the dashboard
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamedkandolo/Projet-RH/hr"
	"github.com/Mohamedkandolo/Projet-RH/payroll"
	"github.com/Mohamedkandolo/Projet-RH/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testAPI struct {
	t      *testing.T
	router http.Handler
}

func newTestAPI(t *testing.T, mode AuthzMode) *testAPI {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authorizer, err := NewAuthorizer(mode)
	require.NoError(t, err)

	h := NewHandler(store, hr.NewService(store, logger), payroll.NewService(store, logger), logger)
	return &testAPI{t: t, router: NewRouter(h, RouterOptions{Authorizer: authorizer})}
}

// do sends a request as "tester" with the given role. An empty role sends
// no X-Actor header at all.
func (a *testAPI) do(method, path, role string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(HeaderActor, "tester")
		req.Header.Set(HeaderRole, role)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) admin(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(method, path, "admin", body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// ACTOR AND ROLES
// =============================================================================

func TestAPI_RequiresActor(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)

	// WHEN: calling /api without X-Actor
	rec := a.do(http.MethodGet, "/api/directions", "", nil)

	// THEN: 401
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// AND: the health probe needs no actor
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", nil).Code)
}

func TestAPI_SimpleRoleIsReadOnly(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/directions", "simple", nil).Code)

	rec := a.do(http.MethodPost, "/api/directions", "simple", hr.Direction{Name: "Finances", Code: "DF"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Scenarios are admin-only, reads included
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/scenarios", "simple", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/scenarios", "admin", nil).Code)
}

func TestAPI_UnknownRoleIsDenied(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/directions", "guest", nil).Code)
}

func TestAPI_ShadowModeOnlyLogs(t *testing.T) {
	a := newTestAPI(t, AuthzShadow)

	rec := a.do(http.MethodPost, "/api/directions", "simple", hr.Direction{Name: "Finances", Code: "DF"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

// =============================================================================
// STATUS MAPPING
// =============================================================================

func TestAPI_DirectionCRUDStatuses(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)

	// GIVEN: a created direction
	rec := a.admin(http.MethodPost, "/api/directions", hr.Direction{Name: "Finances", Code: "DF"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[hr.Direction](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)

	// WHEN: the same code is used again
	rec = a.admin(http.MethodPost, "/api/directions", hr.Direction{Name: "Finances bis", Code: "DF"})
	// THEN: 409
	assert.Equal(t, http.StatusConflict, rec.Code)

	// WHEN: required fields are missing
	rec = a.admin(http.MethodPost, "/api/directions", hr.Direction{})
	// THEN: 422 with one message per field
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Contains(t, body.Fields, "name")
	assert.Contains(t, body.Fields, "code")

	// Malformed JSON is 400
	assert.Equal(t, http.StatusBadRequest, a.admin(http.MethodPost, "/api/directions", "{not json").Code)

	// Unknown id is 404
	assert.Equal(t, http.StatusNotFound, a.admin(http.MethodGet, "/api/directions/nope", nil).Code)

	// Update keeps the id
	rec = a.admin(http.MethodPut, "/api/directions/"+created.ID, hr.Direction{Name: "Direction des Finances", Code: "DF"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Direction des Finances", decode[hr.Direction](t, rec).Name)

	// Delete deactivates
	assert.Equal(t, http.StatusNoContent, a.admin(http.MethodDelete, "/api/directions/"+created.ID, nil).Code)
	active := decode[[]hr.Direction](t, a.admin(http.MethodGet, "/api/directions?active=true", nil))
	assert.Empty(t, active)
}

func TestAPI_BudgetPostRoutes(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)

	// GIVEN: a direction, a bureau and a grade
	dir := decode[hr.Direction](t, a.admin(http.MethodPost, "/api/directions", hr.Direction{Name: "Finances", Code: "DF"}))
	bureau := decode[hr.Bureau](t, a.admin(http.MethodPost, "/api/bureaus", hr.Bureau{Name: "Budget", Code: "BB", DirectionID: dir.ID}))
	grade := decode[hr.Grade](t, a.admin(http.MethodPost, "/api/grades", hr.Grade{Name: "Attaché 1", Code: "A1", Level: 1}))

	in := hr.BudgetPost{
		Code: "PB-001", Title: "Analyste budgétaire", Type: hr.PostContractual,
		GradeID: grade.ID, BureauID: bureau.ID,
		Missions: "Préparer le budget", RequiredCompetences: "Finances publiques",
		HierarchicalPosition: "Analyste",
	}

	// WHEN: a post is created
	rec := a.admin(http.MethodPost, "/api/budget-posts", in)
	// THEN: 201 with the joined names
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[hr.BudgetPost](t, rec)
	assert.Equal(t, "Budget", post.BureauName)
	assert.Equal(t, "Attaché 1", post.GradeName)

	// The same code again is 409
	assert.Equal(t, http.StatusConflict, a.admin(http.MethodPost, "/api/budget-posts", in).Code)

	// An unknown type is 422
	bad := in
	bad.Code, bad.Type = "PB-002", "SEASONAL"
	rec = a.admin(http.MethodPost, "/api/budget-posts", bad)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "type")

	listed := decode[[]hr.BudgetPost](t, a.admin(http.MethodGet, "/api/budget-posts?type=CONTRACTUAL&bureau_id="+bureau.ID, nil))
	require.Len(t, listed, 1)
	assert.Equal(t, post.ID, listed[0].ID)

	// Delete deactivates
	assert.Equal(t, http.StatusNoContent, a.admin(http.MethodDelete, "/api/budget-posts/"+post.ID, nil).Code)
	assert.Empty(t, decode[[]hr.BudgetPost](t, a.admin(http.MethodGet, "/api/budget-posts?active=true", nil)))

	// Simple users read but do not write
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/budget-posts/"+post.ID, "simple", nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/budget-posts", "simple", in).Code)
}

func TestAPI_BadQueryParameters(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)

	assert.Equal(t, http.StatusBadRequest, a.admin(http.MethodGet, "/api/periods?year=soon", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.admin(http.MethodGet, "/api/agents?page_size=1000", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.admin(http.MethodGet, "/api/directions?active=maybe", nil).Code)
}

func TestAPI_UnknownScenario(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)

	rec := a.admin(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "scenario_id")
}

// =============================================================================
// PAYROLL FLOW
// =============================================================================

func TestAPI_PayrollFlow(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)

	// GIVEN: grade G1 paid 1000 minus a 100 tax, one agent, period 2024-03 open
	rec := a.admin(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "single-agent"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	current := decode[CurrentScenarioDTO](t, a.admin(http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "single-agent", current.ScenarioID)

	list := decode[PeriodListDTO](t, a.admin(http.MethodGet, "/api/periods", nil))
	require.Len(t, list.Periods, 1)
	period := list.Periods[0]
	assert.Equal(t, "2024-03", period.Label())
	assert.Equal(t, payroll.StatusOpen, period.Status)

	// WHEN: payroll is calculated for everybody
	rec = a.admin(http.MethodPost, "/api/payroll/calculate", payroll.CalculationRequest{
		PeriodID: period.ID, AllEmployees: true,
	})

	// THEN: one payslip with net 900, and a link to the period
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/periods/"+period.ID, rec.Header().Get("Location"))
	result := decode[payroll.RunResult](t, rec)
	assert.Equal(t, 1, result.Computed)
	require.Len(t, result.Payslips, 1)
	assert.True(t, result.Payslips[0].Net.Equal(decimal.NewFromInt(900)), result.Payslips[0].Net.String())

	// AND: running it again changes nothing
	rec = a.admin(http.MethodPost, "/api/payroll/calculate", payroll.CalculationRequest{
		PeriodID: period.ID, AllEmployees: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	again := decode[payroll.RunResult](t, rec)
	assert.Equal(t, 0, again.Computed)
	assert.Equal(t, 1, again.Unchanged)

	movements := decode[Page[payroll.Movement]](t, a.admin(http.MethodGet, "/api/movements?period_id="+period.ID, nil))
	assert.Equal(t, 2, movements.Total)

	// An OPEN period cannot be archived
	rec = a.admin(http.MethodPost, "/api/payroll/archive", payroll.ArchiveRequest{PeriodID: period.ID, Confirm: true})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// WHEN: the period is closed and archived
	rec = a.admin(http.MethodPost, "/api/periods/"+period.ID+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, payroll.StatusClosed, decode[payroll.PayPeriod](t, rec).Status)

	rec = a.admin(http.MethodPost, "/api/payroll/archive", payroll.ArchiveRequest{PeriodID: period.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "archival must be confirmed")

	rec = a.admin(http.MethodPost, "/api/payroll/archive", payroll.ArchiveRequest{PeriodID: period.ID, Confirm: true})

	// THEN: one snapshot and the period is ARCHIVED
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcome := decode[payroll.ArchiveOutcome](t, rec)
	assert.Equal(t, 1, outcome.Archived)
	assert.Equal(t, payroll.StatusArchived, outcome.Period.Status)

	summary := decode[payroll.PeriodSummary](t, a.admin(http.MethodGet, "/api/periods/"+period.ID, nil))
	assert.Equal(t, 1, summary.HistoryCount)
	assert.True(t, summary.Totals.Net.Equal(decimal.NewFromInt(900)))

	// AND: the agent's dossier carries the payslip and the snapshot
	agents := decode[Page[hr.Agent]](t, a.admin(http.MethodGet, "/api/agents", nil))
	require.Len(t, agents.Items, 1)
	agent := agents.Items[0]
	assert.Equal(t, "A", agent.Matricule)

	rec = a.admin(http.MethodGet, "/api/agents/"+agent.ID+"/dossier", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dossier := decode[DossierDTO](t, rec)
	assert.Equal(t, agent.ID, dossier.Agent.ID)
	assert.Len(t, dossier.Payslips, 1)
	assert.Len(t, dossier.History, 1)
}

func TestAPI_CalculateValidation(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)

	rec := a.admin(http.MethodPost, "/api/payroll/calculate", payroll.CalculationRequest{
		PeriodID: "missing", AllEmployees: true,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "period_id")

	rec = a.admin(http.MethodPost, "/api/payroll/calculate", payroll.CalculationRequest{PeriodID: "missing"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "employee_id")
}

// =============================================================================
// SCENARIOS AND DASHBOARD
// =============================================================================

func TestAPI_DemoScenarioAndDashboard(t *testing.T) {
	a := newTestAPI(t, AuthzEnforce)

	// GIVEN: the demo scenario
	rec := a.admin(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "demo-payroll"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: a read-only user opens the dashboard
	rec = a.do(http.MethodGet, "/api/dashboard", "simple", nil)

	// THEN: counters reflect the seeded data
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash := decode[DashboardDTO](t, rec)
	assert.Equal(t, 2, dash.Stats.Directions)
	assert.Equal(t, 3, dash.Stats.Bureaus)
	assert.Equal(t, 3, dash.Stats.Grades)
	assert.Equal(t, 4, dash.Stats.Agents)
	assert.Equal(t, 4, dash.Stats.ActiveAgents)
	assert.Equal(t, 12, dash.Stats.GridEntries)
	assert.Equal(t, 1, dash.Stats.OpenPeriods)
	assert.Len(t, dash.RecentPeriods, 1)
	assert.Len(t, dash.Agents, 4)

	// WHEN: the database is reset
	require.Equal(t, http.StatusOK, a.admin(http.MethodPost, "/api/scenarios/reset", nil).Code)

	// THEN: everything is gone
	dash = decode[DashboardDTO](t, a.admin(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, hr.Stats{}, dash.Stats)
	current := decode[CurrentScenarioDTO](t, a.admin(http.MethodGet, "/api/scenarios/current", nil))
	assert.Empty(t, current.ScenarioID)
}
