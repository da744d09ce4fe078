/*
service.go - HR operations exposed to the API

PURPOSE:
  Validates input, checks that referenced records exist, stamps IDs,
  timestamps and actors, then hands records to the store.

CONVENTIONS:
  - Save*(ctx, id, in, ...) creates when id is "" and updates otherwise.
    Updates keep the stored ID, creation time and creator.
  - Input problems come back as forms.FieldErrors keyed by json field.
  - Missing records come back wrapped in ErrNotFound.
  - Deactivate* hides organization records and agents; Delete* removes
    plain records.

SEE ALSO:
  - records.go: career, evaluation, discipline, competences, training
  - dossier.go: the per-agent aggregate view
*/
package hr

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mohamedkandolo/Projet-RH/forms"
)

type Service struct {
	store  Store
	logger *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, Now: time.Now}
}

func (s *Service) now() time.Time { return s.Now().UTC() }

// =============================================================================
// REFERENCE CHECKS
// =============================================================================

// lookup runs get and records msg on field when the record is missing.
// Store failures are returned as is.
func lookup[T any](fe forms.FieldErrors, field, msg string, get func() (*T, error)) (*T, error) {
	v, err := get()
	if err != nil {
		return nil, err
	}
	if v == nil {
		fe.Add(field, msg)
	}
	return v, nil
}

func (s *Service) checkAgentRef(ctx context.Context, fe forms.FieldErrors, id string) (*Agent, error) {
	return lookup(fe, "agent_id", "unknown agent", func() (*Agent, error) { return s.store.GetAgent(ctx, id) })
}

func (s *Service) checkBureauRef(ctx context.Context, fe forms.FieldErrors, field, id string) (*Bureau, error) {
	return lookup(fe, field, "unknown bureau", func() (*Bureau, error) { return s.store.GetBureau(ctx, id) })
}

func (s *Service) checkGradeRef(ctx context.Context, fe forms.FieldErrors, field, id string) (*Grade, error) {
	return lookup(fe, field, "unknown grade", func() (*Grade, error) { return s.store.GetGrade(ctx, id) })
}

// =============================================================================
// DIRECTIONS
// =============================================================================

func (s *Service) SaveDirection(ctx context.Context, id string, in Direction) (Direction, error) {
	if err := forms.Validate(in).Err(); err != nil {
		return Direction{}, err
	}
	now := s.now()
	d := Direction{ID: uuid.NewString(), CreatedAt: now, Active: true}
	if id != "" {
		existing, err := s.GetDirection(ctx, id)
		if err != nil {
			return Direction{}, err
		}
		d = existing
	}
	d.Name = in.Name
	d.Code = in.Code
	d.Description = in.Description
	d.UpdatedAt = now

	if err := s.store.SaveDirection(ctx, d); err != nil {
		return Direction{}, err
	}
	return d, nil
}

func (s *Service) GetDirection(ctx context.Context, id string) (Direction, error) {
	d, err := s.store.GetDirection(ctx, id)
	if err != nil {
		return Direction{}, err
	}
	if d == nil {
		return Direction{}, notFound("direction", id)
	}
	return *d, nil
}

func (s *Service) ListDirections(ctx context.Context, activeOnly bool) ([]Direction, error) {
	return s.store.ListDirections(ctx, activeOnly)
}

func (s *Service) DeactivateDirection(ctx context.Context, id string) error {
	d, err := s.GetDirection(ctx, id)
	if err != nil {
		return err
	}
	d.Active = false
	d.UpdatedAt = s.now()
	return s.store.SaveDirection(ctx, d)
}

// =============================================================================
// BUREAUS
// =============================================================================

func (s *Service) SaveBureau(ctx context.Context, id string, in Bureau) (Bureau, error) {
	fe := forms.Validate(in)
	if fe.Empty() {
		if _, err := lookup(fe, "direction_id", "unknown direction", func() (*Direction, error) {
			return s.store.GetDirection(ctx, in.DirectionID)
		}); err != nil {
			return Bureau{}, err
		}
	}
	if err := fe.Err(); err != nil {
		return Bureau{}, err
	}

	now := s.now()
	b := Bureau{ID: uuid.NewString(), CreatedAt: now, Active: true}
	if id != "" {
		existing, err := s.GetBureau(ctx, id)
		if err != nil {
			return Bureau{}, err
		}
		b = existing
	}
	b.Name = in.Name
	b.Code = in.Code
	b.DirectionID = in.DirectionID
	b.Description = in.Description
	b.UpdatedAt = now

	if err := s.store.SaveBureau(ctx, b); err != nil {
		return Bureau{}, err
	}
	return s.GetBureau(ctx, b.ID)
}

func (s *Service) GetBureau(ctx context.Context, id string) (Bureau, error) {
	b, err := s.store.GetBureau(ctx, id)
	if err != nil {
		return Bureau{}, err
	}
	if b == nil {
		return Bureau{}, notFound("bureau", id)
	}
	return *b, nil
}

func (s *Service) ListBureaus(ctx context.Context, f OrgFilter) ([]Bureau, error) {
	return s.store.ListBureaus(ctx, f)
}

func (s *Service) DeactivateBureau(ctx context.Context, id string) error {
	b, err := s.GetBureau(ctx, id)
	if err != nil {
		return err
	}
	b.Active = false
	b.UpdatedAt = s.now()
	return s.store.SaveBureau(ctx, b)
}

// =============================================================================
// GRADES
// =============================================================================

func (s *Service) SaveGrade(ctx context.Context, id string, in Grade) (Grade, error) {
	if err := forms.Validate(in).Err(); err != nil {
		return Grade{}, err
	}
	now := s.now()
	g := Grade{ID: uuid.NewString(), CreatedAt: now, Active: true}
	if id != "" {
		existing, err := s.GetGrade(ctx, id)
		if err != nil {
			return Grade{}, err
		}
		g = existing
	}
	g.Name = in.Name
	g.Code = in.Code
	g.Level = in.Level
	g.Description = in.Description
	g.UpdatedAt = now

	if err := s.store.SaveGrade(ctx, g); err != nil {
		return Grade{}, err
	}
	return g, nil
}

func (s *Service) GetGrade(ctx context.Context, id string) (Grade, error) {
	g, err := s.store.GetGrade(ctx, id)
	if err != nil {
		return Grade{}, err
	}
	if g == nil {
		return Grade{}, notFound("grade", id)
	}
	return *g, nil
}

func (s *Service) ListGrades(ctx context.Context, activeOnly bool) ([]Grade, error) {
	return s.store.ListGrades(ctx, activeOnly)
}

// DeactivateGrade hides a grade. Its grid entries are skipped by later
// payroll runs.
func (s *Service) DeactivateGrade(ctx context.Context, id string) error {
	g, err := s.GetGrade(ctx, id)
	if err != nil {
		return err
	}
	g.Active = false
	g.UpdatedAt = s.now()
	return s.store.SaveGrade(ctx, g)
}

// =============================================================================
// BUDGET POSTS
// =============================================================================

func (s *Service) SaveBudgetPost(ctx context.Context, id string, in BudgetPost) (BudgetPost, error) {
	fe := forms.Validate(in)
	if in.GradeID != "" {
		if _, err := s.checkGradeRef(ctx, fe, "grade_id", in.GradeID); err != nil {
			return BudgetPost{}, err
		}
	}
	if in.BureauID != "" {
		if _, err := s.checkBureauRef(ctx, fe, "bureau_id", in.BureauID); err != nil {
			return BudgetPost{}, err
		}
	}
	if err := fe.Err(); err != nil {
		return BudgetPost{}, err
	}

	now := s.now()
	p := in
	p.ID, p.CreatedAt, p.Active = uuid.NewString(), now, true
	if id != "" {
		existing, err := s.GetBudgetPost(ctx, id)
		if err != nil {
			return BudgetPost{}, err
		}
		p.ID, p.CreatedAt, p.Active = existing.ID, existing.CreatedAt, existing.Active
	}
	p.UpdatedAt = now

	if err := s.store.SaveBudgetPost(ctx, p); err != nil {
		return BudgetPost{}, err
	}
	return s.GetBudgetPost(ctx, p.ID)
}

func (s *Service) GetBudgetPost(ctx context.Context, id string) (BudgetPost, error) {
	p, err := s.store.GetBudgetPost(ctx, id)
	if err != nil {
		return BudgetPost{}, err
	}
	if p == nil {
		return BudgetPost{}, notFound("budget post", id)
	}
	return *p, nil
}

func (s *Service) ListBudgetPosts(ctx context.Context, f BudgetPostFilter) ([]BudgetPost, error) {
	return s.store.ListBudgetPosts(ctx, f)
}

// DeactivateBudgetPost hides a post. Affectations that name it keep the link.
func (s *Service) DeactivateBudgetPost(ctx context.Context, id string) error {
	p, err := s.GetBudgetPost(ctx, id)
	if err != nil {
		return err
	}
	p.Active = false
	p.UpdatedAt = s.now()
	return s.store.SaveBudgetPost(ctx, p)
}

// =============================================================================
// AGENTS
// =============================================================================

// SaveAgent creates (id == "") or updates an agent. A new agent without a
// matricule gets the next generated one.
func (s *Service) SaveAgent(ctx context.Context, id string, in Agent, actor Actor) (Agent, error) {
	fe := forms.Validate(in)
	fe.Merge("", checkAgent(in))
	if in.GradeID != "" {
		if _, err := s.checkGradeRef(ctx, fe, "grade_id", in.GradeID); err != nil {
			return Agent{}, err
		}
	}
	if in.BureauID != "" {
		if _, err := s.checkBureauRef(ctx, fe, "bureau_id", in.BureauID); err != nil {
			return Agent{}, err
		}
	}
	if err := fe.Err(); err != nil {
		return Agent{}, err
	}

	now := s.now()
	a := in
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.CreatedBy = actor
	a.Active = true
	if id != "" {
		existing, err := s.GetAgent(ctx, id)
		if err != nil {
			return Agent{}, err
		}
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		a.CreatedBy = existing.CreatedBy
		a.Active = existing.Active
		if a.Matricule == "" {
			a.Matricule = existing.Matricule
		}
	}
	if a.Matricule == "" {
		used, err := s.store.Matricules(ctx)
		if err != nil {
			return Agent{}, err
		}
		a.Matricule = NextMatricule(used)
	}
	if a.Nationality == "" {
		a.Nationality = DefaultNationality
	}
	if a.MaritalStatus == "" {
		a.MaritalStatus = Single
	}
	if a.Status == "" {
		a.Status = AgentActive
	}
	a.UpdatedAt = now

	if err := s.store.SaveAgent(ctx, a); err != nil {
		return Agent{}, err
	}
	s.logger.Info("agent saved", "agent", a.ID, "matricule", a.Matricule, "actor", actor)
	return s.GetAgent(ctx, a.ID)
}

func (s *Service) GetAgent(ctx context.Context, id string) (Agent, error) {
	a, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return Agent{}, err
	}
	if a == nil {
		return Agent{}, notFound("agent", id)
	}
	return *a, nil
}

// ListAgents returns one page of agents and the total match count.
func (s *Service) ListAgents(ctx context.Context, f AgentFilter) ([]Agent, int, error) {
	total, err := s.store.CountAgents(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	agents, err := s.store.ListAgents(ctx, f)
	return agents, total, err
}

// DeactivateAgent hides an agent. Inactive agents are left out of
// payroll runs; their archived pay history stays.
func (s *Service) DeactivateAgent(ctx context.Context, id string, actor Actor) error {
	a, err := s.GetAgent(ctx, id)
	if err != nil {
		return err
	}
	a.Active = false
	a.UpdatedAt = s.now()
	if err := s.store.SaveAgent(ctx, a); err != nil {
		return err
	}
	s.logger.Info("agent deactivated", "agent", id, "actor", actor)
	return nil
}
