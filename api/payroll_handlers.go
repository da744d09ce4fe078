package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mohamedkandolo/Projet-RH/payroll"
)

// routePayroll mounts the payroll endpoints under /api.
func (h *Handler) routePayroll(r chi.Router) {
	svc := h.Payroll

	r.Route("/periods", func(r chi.Router) {
		resource[payroll.PeriodInput, payroll.PayPeriod]{
			list: func(r *http.Request) (any, error) {
				q := newQuery(r)
				f := payroll.PeriodFilter{Year: q.intParam("year"), Status: payroll.PeriodStatus(q.str("status"))}
				if err := q.err(); err != nil {
					return nil, err
				}
				periods, counts, err := svc.ListPeriods(r.Context(), f)
				return PeriodListDTO{Periods: periods, Counts: counts}, err
			},
			save: func(ctx context.Context, id string, in payroll.PeriodInput, actor string) (payroll.PayPeriod, error) {
				if id == "" {
					return svc.OpenPeriod(ctx, in, payroll.Actor(actor))
				}
				return svc.UpdatePeriod(ctx, id, in)
			},
		}.mount(h, r)
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			summary, err := svc.PeriodSummary(r.Context(), chi.URLParam(r, "id"))
			h.respond(w, r, summary, err)
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.DeletePeriod(r.Context(), chi.URLParam(r, "id"), payroll.Actor(actor(r))); err != nil {
				h.fail(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/{id}/close", func(w http.ResponseWriter, r *http.Request) {
			p, err := svc.ClosePeriod(r.Context(), chi.URLParam(r, "id"), payroll.Actor(actor(r)))
			h.respond(w, r, p, err)
		})
	})

	r.Route("/pay-elements", resource[payroll.ElementInput, payroll.PayElement]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			f := payroll.ElementFilter{Kind: payroll.ElementKind(q.str("kind")), ActiveOnly: q.boolParam("active")}
			if err := q.err(); err != nil {
				return nil, err
			}
			return svc.ListElements(r.Context(), f)
		},
		get: svc.GetElement,
		save: func(ctx context.Context, id string, in payroll.ElementInput, _ string) (payroll.PayElement, error) {
			return svc.SaveElement(ctx, id, in)
		},
		delete: svc.DeactivateElement,
	}.routes(h))

	r.Route("/salary-grid", resource[payroll.GridEntryInput, payroll.GridEntry]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			f := payroll.GridFilter{GradeID: q.str("grade_id"), ElementID: q.str("element_id"), ActiveOnly: q.boolParam("active")}
			if err := q.err(); err != nil {
				return nil, err
			}
			return svc.ListGridEntries(r.Context(), f)
		},
		get: svc.GetGridEntry,
		save: func(ctx context.Context, id string, in payroll.GridEntryInput, _ string) (payroll.GridEntry, error) {
			return svc.SaveGridEntry(ctx, id, in)
		},
		delete: svc.DeactivateGridEntry,
	}.routes(h))

	r.Route("/movements", resource[payroll.MovementInput, payroll.Movement]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			f := payroll.MovementFilter{
				PeriodID:   q.str("period_id"),
				EmployeeID: q.str("employee_id"),
				ElementID:  q.str("element_id"),
				Kind:       payroll.ElementKind(q.str("kind")),
			}
			f.Limit, f.Offset = q.page(50)
			if err := q.err(); err != nil {
				return nil, err
			}
			movements, total, err := svc.ListMovements(r.Context(), f)
			return Page[payroll.Movement]{Items: movements, Total: total, Limit: f.Limit, Offset: f.Offset}, err
		},
		get: svc.GetMovement,
		save: func(ctx context.Context, id string, in payroll.MovementInput, actor string) (payroll.Movement, error) {
			return svc.SaveMovement(ctx, id, in, payroll.Actor(actor))
		},
		delete: svc.DeleteMovement,
	}.routes(h))

	r.Route("/payroll", func(r chi.Router) {
		r.Post("/calculate", h.Calculate)
		r.Post("/archive", h.Archive)
	})

	r.Route("/payslips", func(r chi.Router) {
		resource[payroll.PayslipInput, payroll.Payslip]{
			list: func(r *http.Request) (any, error) {
				q := newQuery(r)
				return svc.ListPayslips(r.Context(), payroll.PayslipFilter{
					PeriodID:   q.str("period_id"),
					EmployeeID: q.str("employee_id"),
				})
			},
		}.mount(h, r)
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			detail, err := svc.PayslipDetail(r.Context(), chi.URLParam(r, "id"))
			h.respond(w, r, detail, err)
		})
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			var in payroll.PayslipInput
			if err := decodeJSON(r, &in); err != nil {
				h.fail(w, r, err)
				return
			}
			slip, err := svc.UpdatePayslip(r.Context(), chi.URLParam(r, "id"), in)
			h.respond(w, r, slip, err)
		})
		r.Post("/{id}/recalculate", func(w http.ResponseWriter, r *http.Request) {
			slip, err := svc.RecalculatePayslip(r.Context(), chi.URLParam(r, "id"), payroll.Actor(actor(r)))
			h.respond(w, r, slip, err)
		})
	})

	r.Route("/history", resource[payroll.PayHistory, payroll.PayHistory]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			return svc.ListHistory(r.Context(), payroll.HistoryFilter{
				PeriodID:   q.str("period_id"),
				EmployeeID: q.str("employee_id"),
			})
		},
		get: svc.GetHistory,
	}.routes(h))
}

// Calculate runs payroll for one employee or all of them.
// POST /api/payroll/calculate
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req payroll.CalculationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.Payroll.RunPayroll(r.Context(), req, payroll.Actor(actor(r)))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/periods/"+result.PeriodID)
	writeJSON(w, http.StatusOK, result)
}

// Archive snapshots every payslip of a CLOSED period.
// POST /api/payroll/archive
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	var req payroll.ArchiveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	outcome, err := h.Payroll.ArchivePeriod(r.Context(), req, payroll.Actor(actor(r)))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/periods")
	writeJSON(w, http.StatusOK, outcome)
}
