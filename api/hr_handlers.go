package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mohamedkandolo/Projet-RH/hr"
)

// routeHR mounts the HR endpoints under /api.
func (h *Handler) routeHR(r chi.Router) {
	svc := h.HR

	// Organisation
	r.Route("/directions", resource[hr.Direction, hr.Direction]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			activeOnly := q.boolParam("active")
			if err := q.err(); err != nil {
				return nil, err
			}
			return svc.ListDirections(r.Context(), activeOnly)
		},
		get: svc.GetDirection,
		save: func(ctx context.Context, id string, in hr.Direction, _ string) (hr.Direction, error) {
			return svc.SaveDirection(ctx, id, in)
		},
		delete: svc.DeactivateDirection,
	}.routes(h))

	r.Route("/bureaus", resource[hr.Bureau, hr.Bureau]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			f := hr.OrgFilter{DirectionID: q.str("direction_id"), ActiveOnly: q.boolParam("active")}
			if err := q.err(); err != nil {
				return nil, err
			}
			return svc.ListBureaus(r.Context(), f)
		},
		get: svc.GetBureau,
		save: func(ctx context.Context, id string, in hr.Bureau, _ string) (hr.Bureau, error) {
			return svc.SaveBureau(ctx, id, in)
		},
		delete: svc.DeactivateBureau,
	}.routes(h))

	r.Route("/grades", resource[hr.Grade, hr.Grade]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			activeOnly := q.boolParam("active")
			if err := q.err(); err != nil {
				return nil, err
			}
			return svc.ListGrades(r.Context(), activeOnly)
		},
		get: svc.GetGrade,
		save: func(ctx context.Context, id string, in hr.Grade, _ string) (hr.Grade, error) {
			return svc.SaveGrade(ctx, id, in)
		},
		delete: svc.DeactivateGrade,
	}.routes(h))

	r.Route("/budget-posts", resource[hr.BudgetPost, hr.BudgetPost]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			f := hr.BudgetPostFilter{
				BureauID:   q.str("bureau_id"),
				GradeID:    q.str("grade_id"),
				Type:       hr.BudgetPostType(q.str("type")),
				ActiveOnly: q.boolParam("active"),
			}
			if err := q.err(); err != nil {
				return nil, err
			}
			return svc.ListBudgetPosts(r.Context(), f)
		},
		get: svc.GetBudgetPost,
		save: func(ctx context.Context, id string, in hr.BudgetPost, _ string) (hr.BudgetPost, error) {
			return svc.SaveBudgetPost(ctx, id, in)
		},
		delete: svc.DeactivateBudgetPost,
	}.routes(h))

	// Agents
	r.Route("/agents", func(r chi.Router) {
		resource[hr.Agent, hr.Agent]{
			list: func(r *http.Request) (any, error) {
				q := newQuery(r)
				f := hr.AgentFilter{
					Search:          q.str("search"),
					GradeID:         q.str("grade_id"),
					BureauID:        q.str("bureau_id"),
					Status:          hr.AgentStatus(q.str("status")),
					IncludeInactive: q.boolParam("include_inactive"),
				}
				f.Limit, f.Offset = q.page(50)
				if err := q.err(); err != nil {
					return nil, err
				}
				agents, total, err := svc.ListAgents(r.Context(), f)
				return Page[hr.Agent]{Items: agents, Total: total, Limit: f.Limit, Offset: f.Offset}, err
			},
			get: svc.GetAgent,
			save: func(ctx context.Context, id string, in hr.Agent, actor string) (hr.Agent, error) {
				return svc.SaveAgent(ctx, id, in, hr.Actor(actor))
			},
		}.mount(h, r)
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.DeactivateAgent(r.Context(), chi.URLParam(r, "id"), hr.Actor(actor(r))); err != nil {
				h.fail(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/{id}/dossier", h.Dossier)
	})

	// Career
	r.Route("/affectations", resource[hr.Affectation, hr.Affectation]{
		list: func(r *http.Request) (any, error) {
			f, err := recordFilter(r)
			if err != nil {
				return nil, err
			}
			return svc.ListAffectations(r.Context(), f)
		},
		get: svc.GetAffectation,
		save: func(ctx context.Context, id string, in hr.Affectation, actor string) (hr.Affectation, error) {
			return svc.SaveAffectation(ctx, id, in, hr.Actor(actor))
		},
		delete: svc.DeleteAffectation,
	}.routes(h))

	r.Route("/promotions", resource[hr.Promotion, hr.Promotion]{
		list: func(r *http.Request) (any, error) {
			f, err := recordFilter(r)
			if err != nil {
				return nil, err
			}
			return svc.ListPromotions(r.Context(), f)
		},
		get: svc.GetPromotion,
		save: func(ctx context.Context, id string, in hr.Promotion, actor string) (hr.Promotion, error) {
			return svc.SavePromotion(ctx, id, in, hr.Actor(actor))
		},
		delete: svc.DeletePromotion,
	}.routes(h))

	r.Route("/mutations", resource[hr.Mutation, hr.Mutation]{
		list: func(r *http.Request) (any, error) {
			f, err := recordFilter(r)
			if err != nil {
				return nil, err
			}
			return svc.ListMutations(r.Context(), f)
		},
		get: svc.GetMutation,
		save: func(ctx context.Context, id string, in hr.Mutation, actor string) (hr.Mutation, error) {
			return svc.SaveMutation(ctx, id, in, hr.Actor(actor))
		},
		delete: svc.DeleteMutation,
	}.routes(h))

	// Evaluation and discipline
	r.Route("/cotations", func(r chi.Router) {
		resource[hr.Cotation, hr.Cotation]{
			list: func(r *http.Request) (any, error) {
				f, err := recordFilter(r)
				if err != nil {
					return nil, err
				}
				return svc.ListCotations(r.Context(), f)
			},
			get: svc.GetCotation,
			save: func(ctx context.Context, id string, in hr.Cotation, actor string) (hr.Cotation, error) {
				return svc.SaveCotation(ctx, id, in, hr.Actor(actor))
			},
			delete: svc.DeleteCotation,
		}.mount(h, r)
		r.Post("/{id}/validate", func(w http.ResponseWriter, r *http.Request) {
			c, err := svc.ValidateCotation(r.Context(), chi.URLParam(r, "id"), hr.Actor(actor(r)))
			h.respond(w, r, c, err)
		})
	})

	r.Route("/disciplinary-actions", resource[hr.DisciplinaryAction, hr.DisciplinaryAction]{
		list: func(r *http.Request) (any, error) {
			f, err := recordFilter(r)
			if err != nil {
				return nil, err
			}
			return svc.ListDisciplinaryActions(r.Context(), f)
		},
		get: svc.GetDisciplinaryAction,
		save: func(ctx context.Context, id string, in hr.DisciplinaryAction, actor string) (hr.DisciplinaryAction, error) {
			return svc.SaveDisciplinaryAction(ctx, id, in, hr.Actor(actor))
		},
		delete: svc.DeleteDisciplinaryAction,
	}.routes(h))

	// Competences and training
	r.Route("/competences", resource[hr.Competence, hr.Competence]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			f := hr.CompetenceFilter{Category: hr.CompetenceCategory(q.str("category")), ActiveOnly: q.boolParam("active")}
			if err := q.err(); err != nil {
				return nil, err
			}
			return svc.ListCompetences(r.Context(), f)
		},
		get: svc.GetCompetence,
		save: func(ctx context.Context, id string, in hr.Competence, _ string) (hr.Competence, error) {
			return svc.SaveCompetence(ctx, id, in)
		},
		delete: svc.DeactivateCompetence,
	}.routes(h))

	r.Route("/agent-competences", resource[hr.AgentCompetence, hr.AgentCompetence]{
		list: func(r *http.Request) (any, error) {
			return svc.ListAgentCompetences(r.Context(), newQuery(r).str("agent_id"))
		},
		get: svc.GetAgentCompetence,
		save: func(ctx context.Context, id string, in hr.AgentCompetence, actor string) (hr.AgentCompetence, error) {
			return svc.SaveAgentCompetence(ctx, id, in, hr.Actor(actor))
		},
		delete: svc.DeleteAgentCompetence,
	}.routes(h))

	r.Route("/trainings", resource[hr.Training, hr.Training]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			f := hr.TrainingFilter{
				Status:     hr.TrainingStatus(q.str("status")),
				Type:       hr.TrainingType(q.str("type")),
				ActiveOnly: q.boolParam("active"),
			}
			if err := q.err(); err != nil {
				return nil, err
			}
			return svc.ListTrainings(r.Context(), f)
		},
		get: svc.GetTraining,
		save: func(ctx context.Context, id string, in hr.Training, _ string) (hr.Training, error) {
			return svc.SaveTraining(ctx, id, in)
		},
		delete: svc.DeactivateTraining,
	}.routes(h))

	r.Route("/participations", resource[hr.Participation, hr.Participation]{
		list: func(r *http.Request) (any, error) {
			q := newQuery(r)
			return svc.ListParticipations(r.Context(), hr.ParticipationFilter{
				AgentID:    q.str("agent_id"),
				TrainingID: q.str("training_id"),
				Status:     hr.ParticipationStatus(q.str("status")),
			})
		},
		get: svc.GetParticipation,
		save: func(ctx context.Context, id string, in hr.Participation, actor string) (hr.Participation, error) {
			return svc.SaveParticipation(ctx, id, in, hr.Actor(actor))
		},
		delete: svc.DeleteParticipation,
	}.routes(h))
}

// recordFilter reads ?agent_id=&status=&type=&year= for per-agent records.
func recordFilter(r *http.Request) (hr.RecordFilter, error) {
	q := newQuery(r)
	f := hr.RecordFilter{
		AgentID:      q.str("agent_id"),
		Status:       q.str("status"),
		Type:         q.str("type"),
		Year:         q.intParam("year"),
		BudgetPostID: q.str("budget_post_id"),
	}
	return f, q.err()
}
