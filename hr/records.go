package hr

import (
	"context"

	"github.com/google/uuid"

	"github.com/Mohamedkandolo/Projet-RH/forms"
)

// =============================================================================
// AFFECTATIONS
// =============================================================================

func (s *Service) SaveAffectation(ctx context.Context, id string, in Affectation, actor Actor) (Affectation, error) {
	fe := forms.Validate(in)
	fe.Merge("", checkAffectation(in))
	if in.AgentID != "" {
		if _, err := s.checkAgentRef(ctx, fe, in.AgentID); err != nil {
			return Affectation{}, err
		}
	}
	if in.BureauID != "" {
		if _, err := s.checkBureauRef(ctx, fe, "bureau_id", in.BureauID); err != nil {
			return Affectation{}, err
		}
	}
	if in.BudgetPostID != "" {
		if _, err := lookup(fe, "budget_post_id", "unknown budget post", func() (*BudgetPost, error) {
			return s.store.GetBudgetPost(ctx, in.BudgetPostID)
		}); err != nil {
			return Affectation{}, err
		}
	}
	if err := fe.Err(); err != nil {
		return Affectation{}, err
	}

	now := s.now()
	a := in
	a.ID, a.CreatedAt, a.CreatedBy = uuid.NewString(), now, actor
	if id != "" {
		existing, err := s.GetAffectation(ctx, id)
		if err != nil {
			return Affectation{}, err
		}
		a.ID, a.CreatedAt, a.CreatedBy = existing.ID, existing.CreatedAt, existing.CreatedBy
	}
	if a.Status == "" {
		a.Status = AffectationActive
	}
	a.UpdatedAt = now

	if err := s.store.SaveAffectation(ctx, a); err != nil {
		return Affectation{}, err
	}
	return s.GetAffectation(ctx, a.ID)
}

func (s *Service) GetAffectation(ctx context.Context, id string) (Affectation, error) {
	a, err := s.store.GetAffectation(ctx, id)
	if err != nil {
		return Affectation{}, err
	}
	if a == nil {
		return Affectation{}, notFound("affectation", id)
	}
	return *a, nil
}

func (s *Service) ListAffectations(ctx context.Context, f RecordFilter) ([]Affectation, error) {
	return s.store.ListAffectations(ctx, f)
}

func (s *Service) DeleteAffectation(ctx context.Context, id string) error {
	if _, err := s.GetAffectation(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteAffectation(ctx, id)
}

// =============================================================================
// PROMOTIONS
// =============================================================================

// SavePromotion records a promotion. A blank from_grade_id is filled with
// the agent's current grade.
func (s *Service) SavePromotion(ctx context.Context, id string, in Promotion, actor Actor) (Promotion, error) {
	fe := forms.Validate(in)
	var agent *Agent
	if in.AgentID != "" {
		var err error
		if agent, err = s.checkAgentRef(ctx, fe, in.AgentID); err != nil {
			return Promotion{}, err
		}
	}
	if agent != nil && in.FromGradeID == "" {
		in.FromGradeID = agent.GradeID
	}
	if in.FromGradeID != "" {
		if _, err := s.checkGradeRef(ctx, fe, "from_grade_id", in.FromGradeID); err != nil {
			return Promotion{}, err
		}
	}
	if in.ToGradeID != "" {
		if _, err := s.checkGradeRef(ctx, fe, "to_grade_id", in.ToGradeID); err != nil {
			return Promotion{}, err
		}
	}
	fe.Merge("", checkPromotion(in))
	if err := fe.Err(); err != nil {
		return Promotion{}, err
	}

	now := s.now()
	p := in
	p.ID, p.CreatedAt, p.CreatedBy = uuid.NewString(), now, actor
	if id != "" {
		existing, err := s.GetPromotion(ctx, id)
		if err != nil {
			return Promotion{}, err
		}
		p.ID, p.CreatedAt, p.CreatedBy = existing.ID, existing.CreatedAt, existing.CreatedBy
	}
	p.UpdatedAt = now

	if err := s.store.SavePromotion(ctx, p); err != nil {
		return Promotion{}, err
	}
	return s.GetPromotion(ctx, p.ID)
}

func (s *Service) GetPromotion(ctx context.Context, id string) (Promotion, error) {
	p, err := s.store.GetPromotion(ctx, id)
	if err != nil {
		return Promotion{}, err
	}
	if p == nil {
		return Promotion{}, notFound("promotion", id)
	}
	return *p, nil
}

func (s *Service) ListPromotions(ctx context.Context, f RecordFilter) ([]Promotion, error) {
	return s.store.ListPromotions(ctx, f)
}

func (s *Service) DeletePromotion(ctx context.Context, id string) error {
	if _, err := s.GetPromotion(ctx, id); err != nil {
		return err
	}
	return s.store.DeletePromotion(ctx, id)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// SaveMutation records a transfer. A blank from_bureau_id is filled with
// the agent's current bureau.
func (s *Service) SaveMutation(ctx context.Context, id string, in Mutation, actor Actor) (Mutation, error) {
	fe := forms.Validate(in)
	var agent *Agent
	if in.AgentID != "" {
		var err error
		if agent, err = s.checkAgentRef(ctx, fe, in.AgentID); err != nil {
			return Mutation{}, err
		}
	}
	if agent != nil && in.FromBureauID == "" {
		in.FromBureauID = agent.BureauID
	}
	if in.FromBureauID != "" {
		if _, err := s.checkBureauRef(ctx, fe, "from_bureau_id", in.FromBureauID); err != nil {
			return Mutation{}, err
		}
	}
	if in.ToBureauID != "" {
		if _, err := s.checkBureauRef(ctx, fe, "to_bureau_id", in.ToBureauID); err != nil {
			return Mutation{}, err
		}
	}
	fe.Merge("", checkMutation(in))
	if err := fe.Err(); err != nil {
		return Mutation{}, err
	}

	now := s.now()
	m := in
	m.ID, m.CreatedAt, m.CreatedBy = uuid.NewString(), now, actor
	if id != "" {
		existing, err := s.GetMutation(ctx, id)
		if err != nil {
			return Mutation{}, err
		}
		m.ID, m.CreatedAt, m.CreatedBy = existing.ID, existing.CreatedAt, existing.CreatedBy
	}
	m.UpdatedAt = now

	if err := s.store.SaveMutation(ctx, m); err != nil {
		return Mutation{}, err
	}
	return s.GetMutation(ctx, m.ID)
}

func (s *Service) GetMutation(ctx context.Context, id string) (Mutation, error) {
	m, err := s.store.GetMutation(ctx, id)
	if err != nil {
		return Mutation{}, err
	}
	if m == nil {
		return Mutation{}, notFound("mutation", id)
	}
	return *m, nil
}

func (s *Service) ListMutations(ctx context.Context, f RecordFilter) ([]Mutation, error) {
	return s.store.ListMutations(ctx, f)
}

func (s *Service) DeleteMutation(ctx context.Context, id string) error {
	if _, err := s.GetMutation(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteMutation(ctx, id)
}

// =============================================================================
// COTATIONS
// =============================================================================

// SaveCotation records an evaluation and computes its overall score.
// Validated cotations are frozen.
func (s *Service) SaveCotation(ctx context.Context, id string, in Cotation, actor Actor) (Cotation, error) {
	fe := forms.Validate(in)
	fe.Merge("", checkCotation(in))
	if in.AgentID != "" {
		if _, err := s.checkAgentRef(ctx, fe, in.AgentID); err != nil {
			return Cotation{}, err
		}
	}
	if err := fe.Err(); err != nil {
		return Cotation{}, err
	}

	now := s.now()
	c := in
	c.ID, c.CreatedAt, c.EvaluatedBy = uuid.NewString(), now, actor
	c.ValidatedBy, c.ValidatedAt = "", nil
	if id != "" {
		existing, err := s.GetCotation(ctx, id)
		if err != nil {
			return Cotation{}, err
		}
		if existing.Validated() {
			return Cotation{}, ErrAlreadyValidated
		}
		c.ID, c.CreatedAt, c.EvaluatedBy = existing.ID, existing.CreatedAt, existing.EvaluatedBy
	}
	c.Score()
	c.UpdatedAt = now

	if err := s.store.SaveCotation(ctx, c); err != nil {
		return Cotation{}, err
	}
	return s.GetCotation(ctx, c.ID)
}

// ValidateCotation signs off an evaluation.
func (s *Service) ValidateCotation(ctx context.Context, id string, actor Actor) (Cotation, error) {
	c, err := s.GetCotation(ctx, id)
	if err != nil {
		return Cotation{}, err
	}
	now := s.now()
	if err := c.Validate(actor, now); err != nil {
		return Cotation{}, err
	}
	c.UpdatedAt = now
	if err := s.store.SaveCotation(ctx, c); err != nil {
		return Cotation{}, err
	}
	s.logger.Info("cotation validated", "cotation", id, "agent", c.AgentID, "actor", actor)
	return c, nil
}

func (s *Service) GetCotation(ctx context.Context, id string) (Cotation, error) {
	c, err := s.store.GetCotation(ctx, id)
	if err != nil {
		return Cotation{}, err
	}
	if c == nil {
		return Cotation{}, notFound("cotation", id)
	}
	return *c, nil
}

func (s *Service) ListCotations(ctx context.Context, f RecordFilter) ([]Cotation, error) {
	return s.store.ListCotations(ctx, f)
}

func (s *Service) DeleteCotation(ctx context.Context, id string) error {
	c, err := s.GetCotation(ctx, id)
	if err != nil {
		return err
	}
	if c.Validated() {
		return ErrAlreadyValidated
	}
	return s.store.DeleteCotation(ctx, id)
}

// =============================================================================
// DISCIPLINE
// =============================================================================

func (s *Service) SaveDisciplinaryAction(ctx context.Context, id string, in DisciplinaryAction, actor Actor) (DisciplinaryAction, error) {
	fe := forms.Validate(in)
	fe.Merge("", checkDiscipline(in))
	if in.AgentID != "" {
		if _, err := s.checkAgentRef(ctx, fe, in.AgentID); err != nil {
			return DisciplinaryAction{}, err
		}
	}
	if err := fe.Err(); err != nil {
		return DisciplinaryAction{}, err
	}

	now := s.now()
	d := in
	d.ID, d.CreatedAt, d.CreatedBy = uuid.NewString(), now, actor
	if id != "" {
		existing, err := s.GetDisciplinaryAction(ctx, id)
		if err != nil {
			return DisciplinaryAction{}, err
		}
		d.ID, d.CreatedAt, d.CreatedBy = existing.ID, existing.CreatedAt, existing.CreatedBy
	}
	if d.Status == "" {
		d.Status = DisciplineOpen
	}
	d.UpdatedAt = now

	if err := s.store.SaveDisciplinaryAction(ctx, d); err != nil {
		return DisciplinaryAction{}, err
	}
	return s.GetDisciplinaryAction(ctx, d.ID)
}

func (s *Service) GetDisciplinaryAction(ctx context.Context, id string) (DisciplinaryAction, error) {
	d, err := s.store.GetDisciplinaryAction(ctx, id)
	if err != nil {
		return DisciplinaryAction{}, err
	}
	if d == nil {
		return DisciplinaryAction{}, notFound("disciplinary action", id)
	}
	return *d, nil
}

func (s *Service) ListDisciplinaryActions(ctx context.Context, f RecordFilter) ([]DisciplinaryAction, error) {
	return s.store.ListDisciplinaryActions(ctx, f)
}

func (s *Service) DeleteDisciplinaryAction(ctx context.Context, id string) error {
	if _, err := s.GetDisciplinaryAction(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteDisciplinaryAction(ctx, id)
}

// =============================================================================
// COMPETENCES
// =============================================================================

func (s *Service) SaveCompetence(ctx context.Context, id string, in Competence) (Competence, error) {
	if in.Level == 0 {
		in.Level = 1
	}
	if err := forms.Validate(in).Err(); err != nil {
		return Competence{}, err
	}
	now := s.now()
	c := in
	c.ID, c.CreatedAt, c.Active = uuid.NewString(), now, true
	if id != "" {
		existing, err := s.GetCompetence(ctx, id)
		if err != nil {
			return Competence{}, err
		}
		c.ID, c.CreatedAt, c.Active = existing.ID, existing.CreatedAt, existing.Active
	}
	c.UpdatedAt = now

	if err := s.store.SaveCompetence(ctx, c); err != nil {
		return Competence{}, err
	}
	return c, nil
}

func (s *Service) GetCompetence(ctx context.Context, id string) (Competence, error) {
	c, err := s.store.GetCompetence(ctx, id)
	if err != nil {
		return Competence{}, err
	}
	if c == nil {
		return Competence{}, notFound("competence", id)
	}
	return *c, nil
}

func (s *Service) ListCompetences(ctx context.Context, f CompetenceFilter) ([]Competence, error) {
	return s.store.ListCompetences(ctx, f)
}

func (s *Service) DeactivateCompetence(ctx context.Context, id string) error {
	c, err := s.GetCompetence(ctx, id)
	if err != nil {
		return err
	}
	c.Active = false
	c.UpdatedAt = s.now()
	return s.store.SaveCompetence(ctx, c)
}

// SaveAgentCompetence records an agent's level on a competence. An agent
// holds each competence once.
func (s *Service) SaveAgentCompetence(ctx context.Context, id string, in AgentCompetence, actor Actor) (AgentCompetence, error) {
	fe := forms.Validate(in)
	if in.AgentID != "" {
		if _, err := s.checkAgentRef(ctx, fe, in.AgentID); err != nil {
			return AgentCompetence{}, err
		}
	}
	if in.CompetenceID != "" {
		if _, err := lookup(fe, "competence_id", "unknown competence", func() (*Competence, error) {
			return s.store.GetCompetence(ctx, in.CompetenceID)
		}); err != nil {
			return AgentCompetence{}, err
		}
	}
	if err := fe.Err(); err != nil {
		return AgentCompetence{}, err
	}

	now := s.now()
	a := in
	a.ID, a.CreatedAt = uuid.NewString(), now
	if id != "" {
		existing, err := s.GetAgentCompetence(ctx, id)
		if err != nil {
			return AgentCompetence{}, err
		}
		a.ID, a.CreatedAt = existing.ID, existing.CreatedAt
	}
	a.EvaluatedBy = actor
	a.UpdatedAt = now

	if err := s.store.SaveAgentCompetence(ctx, a); err != nil {
		return AgentCompetence{}, err
	}
	return s.GetAgentCompetence(ctx, a.ID)
}

func (s *Service) GetAgentCompetence(ctx context.Context, id string) (AgentCompetence, error) {
	a, err := s.store.GetAgentCompetence(ctx, id)
	if err != nil {
		return AgentCompetence{}, err
	}
	if a == nil {
		return AgentCompetence{}, notFound("agent competence", id)
	}
	return *a, nil
}

func (s *Service) ListAgentCompetences(ctx context.Context, agentID string) ([]AgentCompetence, error) {
	return s.store.ListAgentCompetences(ctx, agentID)
}

func (s *Service) DeleteAgentCompetence(ctx context.Context, id string) error {
	if _, err := s.GetAgentCompetence(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteAgentCompetence(ctx, id)
}

// =============================================================================
// TRAININGS
// =============================================================================

func (s *Service) SaveTraining(ctx context.Context, id string, in Training) (Training, error) {
	fe := forms.Validate(in)
	if fe.Empty() {
		fe.Merge("", checkTraining(in))
	}
	if err := fe.Err(); err != nil {
		return Training{}, err
	}
	now := s.now()
	t := in
	t.ID, t.CreatedAt, t.Active = uuid.NewString(), now, true
	if id != "" {
		existing, err := s.GetTraining(ctx, id)
		if err != nil {
			return Training{}, err
		}
		t.ID, t.CreatedAt, t.Active = existing.ID, existing.CreatedAt, existing.Active
	}
	if t.Status == "" {
		t.Status = TrainingPlanned
	}
	t.UpdatedAt = now

	if err := s.store.SaveTraining(ctx, t); err != nil {
		return Training{}, err
	}
	return t, nil
}

func (s *Service) GetTraining(ctx context.Context, id string) (Training, error) {
	t, err := s.store.GetTraining(ctx, id)
	if err != nil {
		return Training{}, err
	}
	if t == nil {
		return Training{}, notFound("training", id)
	}
	return *t, nil
}

func (s *Service) ListTrainings(ctx context.Context, f TrainingFilter) ([]Training, error) {
	return s.store.ListTrainings(ctx, f)
}

func (s *Service) DeactivateTraining(ctx context.Context, id string) error {
	t, err := s.GetTraining(ctx, id)
	if err != nil {
		return err
	}
	t.Active = false
	t.UpdatedAt = s.now()
	return s.store.SaveTraining(ctx, t)
}

// =============================================================================
// PARTICIPATIONS
// =============================================================================

// SaveParticipation enrolls an agent or updates an enrolment. New
// enrolments need a training that is still planned or running and has a
// free seat.
func (s *Service) SaveParticipation(ctx context.Context, id string, in Participation, actor Actor) (Participation, error) {
	fe := forms.Validate(in)
	if in.AgentID != "" {
		if _, err := s.checkAgentRef(ctx, fe, in.AgentID); err != nil {
			return Participation{}, err
		}
	}
	var training *Training
	if in.TrainingID != "" {
		var err error
		if training, err = lookup(fe, "training_id", "unknown training", func() (*Training, error) {
			return s.store.GetTraining(ctx, in.TrainingID)
		}); err != nil {
			return Participation{}, err
		}
	}
	if err := fe.Err(); err != nil {
		return Participation{}, err
	}

	now := s.now()
	p := in
	p.ID, p.CreatedAt, p.RegisteredBy = uuid.NewString(), now, actor
	var existing *Participation
	if id != "" {
		found, err := s.GetParticipation(ctx, id)
		if err != nil {
			return Participation{}, err
		}
		existing = &found
		p.ID, p.CreatedAt, p.RegisteredBy = found.ID, found.CreatedAt, found.RegisteredBy
	}
	if p.Status == "" {
		p.Status = ParticipationEnrolled
	}

	joining := existing == nil || existing.TrainingID != p.TrainingID ||
		(!holdsSeat(existing.Status) && holdsSeat(p.Status))
	if joining && holdsSeat(p.Status) {
		if err := s.checkSeat(ctx, *training); err != nil {
			return Participation{}, err
		}
	}
	p.UpdatedAt = now

	if err := s.store.SaveParticipation(ctx, p); err != nil {
		return Participation{}, err
	}
	return s.GetParticipation(ctx, p.ID)
}

func (s *Service) checkSeat(ctx context.Context, t Training) error {
	if t.Status == TrainingCancelled || t.Status == TrainingCompleted || !t.Active {
		return ErrTrainingClosed
	}
	if t.Seats == 0 {
		return nil
	}
	taken, err := s.store.CountSeatsTaken(ctx, t.ID)
	if err != nil {
		return err
	}
	if taken >= t.Seats {
		return ErrTrainingFull
	}
	return nil
}

func (s *Service) GetParticipation(ctx context.Context, id string) (Participation, error) {
	p, err := s.store.GetParticipation(ctx, id)
	if err != nil {
		return Participation{}, err
	}
	if p == nil {
		return Participation{}, notFound("participation", id)
	}
	return *p, nil
}

func (s *Service) ListParticipations(ctx context.Context, f ParticipationFilter) ([]Participation, error) {
	return s.store.ListParticipations(ctx, f)
}

func (s *Service) DeleteParticipation(ctx context.Context, id string) error {
	if _, err := s.GetParticipation(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteParticipation(ctx, id)
}
