/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Populates the database with realistic data through the same services
	the API uses, so every demo record passes the usual validation.

AVAILABLE SCENARIOS:

	demo-payroll:  two directions, three bureaus, three grades, four pay
	               elements with a full salary grid, five agents (one
	               inactive) and an OPEN period for the current month
	single-agent:  grade G1 paid SALARY_BASE 1000 minus TAX 100, one agent
	               and the OPEN period 2024-03; running payroll gives a
	               net of 900

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "demo-payroll"}

NOTE:

	Loading a scenario resets the database first. Only use in development
	and demo environments.

SEE ALSO:
  - server.go: the scenario routes are admin-only (authz.go)
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Mohamedkandolo/Projet-RH/calendar"
	"github.com/Mohamedkandolo/Projet-RH/forms"
	"github.com/Mohamedkandolo/Projet-RH/hr"
	"github.com/Mohamedkandolo/Projet-RH/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "demo-payroll",
		Name:        "Demo Payroll",
		Description: "Small administration with a salary grid and an open period for the current month",
	},
	{
		ID:          "single-agent",
		Name:        "Single Agent Example",
		Description: "Grade G1 paid 1000 with a 100 tax, period 2024-03 open",
	},
}

var scenarioLoaders = map[string]func(*seeder){
	"demo-payroll": loadDemoPayroll,
	"single-agent": loadSingleAgentExample,
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, CurrentScenarioDTO{ScenarioID: h.currentScenario})
}

// LoadScenario resets the database and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		h.fail(w, r, forms.FieldErrors{"scenario_id": "unknown scenario"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, fmt.Errorf("reset database: %w", err))
		return
	}
	h.currentScenario = ""

	s := &seeder{ctx: ctx, hr: h.HR, payroll: h.Payroll, actor: actor(r)}
	load(s)
	if s.err != nil {
		h.fail(w, r, fmt.Errorf("load scenario %s: %w", req.ScenarioID, s.err))
		return
	}
	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID, "actor", actor(r))

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"scenario_id": req.ScenarioID,
	})
}

// ResetDatabase deletes every record.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, fmt.Errorf("reset database: %w", err))
		return
	}
	h.currentScenario = ""
	h.Logger.Info("database reset", "actor", actor(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SEEDER
// =============================================================================

// seeder creates records through the services and keeps the first error;
// once it is set every later call is a no-op.
type seeder struct {
	ctx     context.Context
	hr      *hr.Service
	payroll *payroll.Service
	actor   string
	err     error
}

func seed[T any](s *seeder, create func() (T, error)) T {
	var zero T
	if s.err != nil {
		return zero
	}
	v, err := create()
	if err != nil {
		s.err = err
		return zero
	}
	return v
}

func (s *seeder) direction(name, code string) hr.Direction {
	return seed(s, func() (hr.Direction, error) {
		return s.hr.SaveDirection(s.ctx, "", hr.Direction{Name: name, Code: code})
	})
}

func (s *seeder) bureau(name, code string, dir hr.Direction) hr.Bureau {
	return seed(s, func() (hr.Bureau, error) {
		return s.hr.SaveBureau(s.ctx, "", hr.Bureau{Name: name, Code: code, DirectionID: dir.ID})
	})
}

func (s *seeder) grade(name, code string, level int) hr.Grade {
	return seed(s, func() (hr.Grade, error) {
		return s.hr.SaveGrade(s.ctx, "", hr.Grade{Name: name, Code: code, Level: level})
	})
}

func (s *seeder) agent(a hr.Agent) hr.Agent {
	return seed(s, func() (hr.Agent, error) {
		return s.hr.SaveAgent(s.ctx, "", a, hr.Actor(s.actor))
	})
}

func (s *seeder) element(code, name string, kind payroll.ElementKind) payroll.PayElement {
	return seed(s, func() (payroll.PayElement, error) {
		return s.payroll.SaveElement(s.ctx, "", payroll.ElementInput{Code: code, Name: name, Kind: kind})
	})
}

func (s *seeder) grid(g hr.Grade, el payroll.PayElement, amount int64) {
	seed(s, func() (payroll.GridEntry, error) {
		return s.payroll.SaveGridEntry(s.ctx, "", payroll.GridEntryInput{
			GradeID: g.ID, ElementID: el.ID, Amount: decimal.NewFromInt(amount),
		})
	})
}

func (s *seeder) period(year, month int) payroll.PayPeriod {
	return seed(s, func() (payroll.PayPeriod, error) {
		return s.payroll.OpenPeriod(s.ctx, payroll.PeriodInput{Year: year, Month: month}, payroll.Actor(s.actor))
	})
}

// =============================================================================
// SCENARIOS
// =============================================================================

func loadDemoPayroll(s *seeder) {
	finances := s.direction("Direction des Finances", "DF")
	rh := s.direction("Direction des Ressources Humaines", "DRH")
	paie := s.bureau("Bureau Paie", "BPA", finances)
	compta := s.bureau("Bureau Comptabilité", "BCO", finances)
	carrieres := s.bureau("Bureau Carrières", "BCA", rh)

	attache := s.grade("Attaché de bureau", "AB", 1)
	chef := s.grade("Chef de bureau", "CB", 2)
	directeur := s.grade("Directeur", "DIR", 3)

	base := s.element("SALARY_BASE", "Salaire de base", payroll.KindGain)
	transport := s.element("TRANSPORT", "Indemnité de transport", payroll.KindGain)
	tax := s.element("TAX", "Impôt professionnel", payroll.KindDeduction)
	cnss := s.element("CNSS", "Cotisation CNSS", payroll.KindContribution)

	amounts := []struct {
		grade                      hr.Grade
		base, transport, tax, cnss int64
	}{
		{attache, 450000, 50000, 45000, 22500},
		{chef, 750000, 75000, 90000, 37500},
		{directeur, 1200000, 100000, 180000, 60000},
	}
	for _, a := range amounts {
		s.grid(a.grade, base, a.base)
		s.grid(a.grade, transport, a.transport)
		s.grid(a.grade, tax, a.tax)
		s.grid(a.grade, cnss, a.cnss)
	}

	people := []struct {
		last, first, sex string
		grade            hr.Grade
		bureau           hr.Bureau
		hired            string
	}{
		{"Mukendi", "Patrick", "M", directeur, paie, "2005-02-01"},
		{"Kasongo", "Aline", "F", chef, paie, "2012-06-15"},
		{"Tshibanda", "Joseph", "M", attache, compta, "2019-09-01"},
		{"Ngalula", "Esther", "F", chef, carrieres, "2010-01-04"},
		{"Lukusa", "Didier", "M", attache, carrieres, "2016-03-01"},
	}
	var agents []hr.Agent
	for _, p := range people {
		agents = append(agents, s.agent(hr.Agent{
			LastName:   p.last,
			FirstNames: p.first,
			BirthDate:  calendar.MustParse("1982-05-20"),
			BirthPlace: "Kinshasa",
			Sex:        p.sex,
			GradeID:    p.grade.ID,
			BureauID:   p.bureau.ID,
			HireDate:   calendar.MustParse(p.hired),
		}))
	}
	if s.err == nil {
		s.err = s.hr.DeactivateAgent(s.ctx, agents[len(agents)-1].ID, hr.Actor(s.actor))
	}

	if s.err == nil {
		now := s.payroll.Now()
		_, _, s.err = s.payroll.EnsurePeriod(s.ctx, now.Year(), int(now.Month()))
	}
}

func loadSingleAgentExample(s *seeder) {
	dir := s.direction("Direction Générale", "DG")
	bureau := s.bureau("Bureau Central", "BCE", dir)
	g1 := s.grade("Grade 1", "G1", 1)

	s.grid(g1, s.element("SALARY_BASE", "Salaire de base", payroll.KindGain), 1000)
	s.grid(g1, s.element("TAX", "Impôt", payroll.KindDeduction), 100)

	s.agent(hr.Agent{
		Matricule:  "A",
		LastName:   "Agent",
		FirstNames: "A",
		BirthDate:  calendar.MustParse("1990-01-01"),
		BirthPlace: "Kinshasa",
		Sex:        "M",
		GradeID:    g1.ID,
		BureauID:   bureau.ID,
		HireDate:   calendar.MustParse("2020-01-01"),
	})
	s.period(2024, 3)
}
