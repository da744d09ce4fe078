/*
handlers.go - HTTP API handlers: shared plumbing, dashboard and dossier

PURPOSE:
  Exposes the HR and payroll services over JSON. Handlers parse the
  request, pass the actor explicitly to the domain operation and map
  domain errors to HTTP statuses.

ERROR HANDLING:
  - 400: malformed JSON or query parameters
  - 401: missing X-Actor (authz.go)
  - 403: role not allowed (authz.go)
  - 404: record not found
  - 409: duplicate, wrong period state, full or closed training
  - 422: field validation errors, unknown references
  - 500: everything else (logged with the request id)

SEE ALSO:
  - hr_handlers.go: org units, agents, career and evaluation records
  - payroll_handlers.go: periods, catalog, grid, movements, payslips
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Mohamedkandolo/Projet-RH/forms"
	"github.com/Mohamedkandolo/Projet-RH/hr"
	"github.com/Mohamedkandolo/Projet-RH/payroll"
	"github.com/Mohamedkandolo/Projet-RH/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	HR      *hr.Service
	Payroll *payroll.Service
	Logger  *slog.Logger

	mu              sync.Mutex
	currentScenario string
}

func NewHandler(store *sqlite.Store, hrSvc *hr.Service, paySvc *payroll.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Store: store, HR: hrSvc, Payroll: paySvc, Logger: logger}
}

// =============================================================================
// RESPONSES
// =============================================================================

var errBadRequest = errors.New("bad request")

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

func errorStatus(err error) int {
	if _, ok := forms.AsFieldErrors(err); ok {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case hr.IsNotFound(err), payroll.IsNotFound(err):
		return http.StatusNotFound
	case hr.IsConflict(err), payroll.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, payroll.ErrInvalidPeriod), errors.Is(err, payroll.ErrUnknownReference):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail writes the response for a failed operation.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if fe, ok := forms.AsFieldErrors(err); ok {
		writeJSON(w, status, ErrorResponse{Error: "Validation failed", Fields: fe})
		return
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()))
		writeError(w, status, "Internal error", nil)
		return
	}
	writeError(w, status, http.StatusText(status), err)
}

// respond writes v as 200, or the error.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func actor(r *http.Request) string {
	return ActorFromContext(r.Context())
}

// query reads typed query parameters and collects parse errors.
type query struct {
	values url.Values
	errs   forms.FieldErrors
}

func newQuery(r *http.Request) *query {
	return &query{values: r.URL.Query(), errs: forms.FieldErrors{}}
}

func (q *query) str(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

func (q *query) intParam(key string) int {
	raw := q.str(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.errs.Add(key, "must be a whole number")
	}
	return n
}

func (q *query) boolParam(key string) bool {
	raw := q.str(key)
	if raw == "" {
		return false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.errs.Add(key, "must be true or false")
	}
	return b
}

// page returns limit and offset from ?page= (1-based) and ?page_size=.
func (q *query) page(defaultSize int) (limit, offset int) {
	size := q.intParam("page_size")
	if size <= 0 {
		size = defaultSize
	}
	if size > 500 {
		q.errs.Add("page_size", "must be at most 500")
	}
	page := q.intParam("page")
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}

func (q *query) err() error {
	if q.errs.Empty() {
		return nil
	}
	return fmt.Errorf("%w: %s", errBadRequest, q.errs.Error())
}

// =============================================================================
// GENERIC RESOURCES
// =============================================================================

// resource wires the list/create/get/update/delete routes of one record
// type. In is the request body of create and update, Out the record
// returned. Nil operations are not routed.
type resource[In, Out any] struct {
	list   func(r *http.Request) (any, error)
	get    func(ctx context.Context, id string) (Out, error)
	save   func(ctx context.Context, id string, in In, actor string) (Out, error)
	delete func(ctx context.Context, id string) error
}

func (res resource[In, Out]) routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) { res.mount(h, r) }
}

func (res resource[In, Out]) mount(h *Handler, r chi.Router) {
	if res.list != nil {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			v, err := res.list(req)
			h.respond(w, req, v, err)
		})
	}
	if res.save != nil {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var in In
			if err := decodeJSON(req, &in); err != nil {
				h.fail(w, req, err)
				return
			}
			out, err := res.save(req.Context(), "", in, actor(req))
			if err != nil {
				h.fail(w, req, err)
				return
			}
			writeJSON(w, http.StatusCreated, out)
		})
		r.Put("/{id}", func(w http.ResponseWriter, req *http.Request) {
			var in In
			if err := decodeJSON(req, &in); err != nil {
				h.fail(w, req, err)
				return
			}
			out, err := res.save(req.Context(), chi.URLParam(req, "id"), in, actor(req))
			h.respond(w, req, out, err)
		})
	}
	if res.get != nil {
		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			out, err := res.get(req.Context(), chi.URLParam(req, "id"))
			h.respond(w, req, out, err)
		})
	}
	if res.delete != nil {
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			if err := res.delete(req.Context(), chi.URLParam(req, "id")); err != nil {
				h.fail(w, req, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// =============================================================================
// DASHBOARD AND DOSSIER
// =============================================================================

const dashboardRecent = 5

// Dashboard returns the counters and the latest periods and agents.
// GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.HR.Stats(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	periods, _, err := h.Payroll.ListPeriods(ctx, payroll.PeriodFilter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(periods) > dashboardRecent {
		periods = periods[:dashboardRecent]
	}
	agents, _, err := h.HR.ListAgents(ctx, hr.AgentFilter{Limit: dashboardRecent})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardDTO{Stats: stats, RecentPeriods: periods, Agents: agents})
}

// Dossier returns everything recorded about one agent, pay included.
// GET /api/agents/{id}/dossier
func (h *Handler) Dossier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	d, err := h.HR.Dossier(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slips, err := h.Payroll.ListPayslips(ctx, payroll.PayslipFilter{EmployeeID: id})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	history, err := h.Payroll.ListHistory(ctx, payroll.HistoryFilter{EmployeeID: id})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DossierDTO{Dossier: d, Payslips: slips, History: history})
}

// Health answers liveness probes.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
