package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mohamedkandolo/Projet-RH/hr"
)

// =============================================================================
// COTATIONS
// =============================================================================

var cotationCols = []string{
	"id", "agent_id", "periodicity", "year", "semester",
	"professional_conduct", "attendance", "objectives", "work_quality", "team_spirit", "overall_score",
	"appraisal", "strengths", "improvements", "next_objectives",
	"evaluated_by", "validated_by", "validated_at", "created_at", "updated_at",
}

var cotationSelect = "SELECT " + prefixed("x", cotationCols) + ", " + agentNameExpr + `
	FROM cotations x
	LEFT JOIN agents ag ON ag.id = x.agent_id`

func (s *Store) SaveCotation(ctx context.Context, c hr.Cotation) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("cotations", cotationCols),
		c.ID, c.AgentID, c.Periodicity, c.Year, c.Semester,
		c.ProfessionalConduct, c.Attendance, c.Objectives, c.WorkQuality, c.TeamSpirit, c.OverallScore,
		c.Appraisal, c.Strengths, c.Improvements, c.NextObjectives,
		c.EvaluatedBy, c.ValidatedBy, nullTS(c.ValidatedAt), ts(c.CreatedAt), ts(c.UpdatedAt))
	return saveErr("cotation", err)
}

func scanCotation(r rowScanner) (hr.Cotation, error) {
	var c hr.Cotation
	var validatedAt sql.NullString
	var createdAt, updatedAt string
	err := r.Scan(&c.ID, &c.AgentID, &c.Periodicity, &c.Year, &c.Semester,
		&c.ProfessionalConduct, &c.Attendance, &c.Objectives, &c.WorkQuality, &c.TeamSpirit, &c.OverallScore,
		&c.Appraisal, &c.Strengths, &c.Improvements, &c.NextObjectives,
		&c.EvaluatedBy, &c.ValidatedBy, &validatedAt, &createdAt, &updatedAt, &c.AgentName)
	c.ValidatedAt = parseNullTS(validatedAt)
	c.CreatedAt, c.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return c, err
}

func (s *Store) GetCotation(ctx context.Context, id string) (*hr.Cotation, error) {
	return getOne(ctx, s.q, scanCotation, cotationSelect+" WHERE x.id = ?", id)
}

// ListCotations orders by year and semester, most recent first. Status
// "VALIDATED" or "PENDING" filters on validation.
func (s *Store) ListCotations(ctx context.Context, f hr.RecordFilter) ([]hr.Cotation, error) {
	conds, args := recordConditions("x", hr.RecordFilter{AgentID: f.AgentID, Type: f.Type, Year: f.Year},
		"", "periodicity", "x.year = ?")
	switch strings.ToUpper(f.Status) {
	case "VALIDATED":
		conds = append(conds, "x.validated_at IS NOT NULL")
	case "PENDING":
		conds = append(conds, "x.validated_at IS NULL")
	}
	return list(ctx, s.q, scanCotation,
		cotationSelect+where(conds)+" ORDER BY x.year DESC, x.semester DESC, x.created_at DESC", args...)
}

func (s *Store) DeleteCotation(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "cotations", id)
}

// =============================================================================
// DISCIPLINARY ACTIONS
// =============================================================================

var disciplineCols = []string{
	"id", "agent_id", "fault", "description", "fault_date", "place", "notification_date",
	"commission", "commission_date", "sanction", "sanction_days", "sanction_reason", "status",
	"created_by", "created_at", "updated_at",
}

var disciplineSelect = "SELECT " + prefixed("x", disciplineCols) + ", " + agentNameExpr + `
	FROM disciplinary_actions x
	LEFT JOIN agents ag ON ag.id = x.agent_id`

func (s *Store) SaveDisciplinaryAction(ctx context.Context, d hr.DisciplinaryAction) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("disciplinary_actions", disciplineCols),
		d.ID, d.AgentID, d.Fault, d.Description, d.FaultDate, d.Place, d.NotificationDate,
		d.Commission, d.CommissionDate, d.Sanction, d.SanctionDays, d.SanctionReason, d.Status,
		d.CreatedBy, ts(d.CreatedAt), ts(d.UpdatedAt))
	return saveErr("disciplinary action", err)
}

func scanDiscipline(r rowScanner) (hr.DisciplinaryAction, error) {
	var d hr.DisciplinaryAction
	var createdAt, updatedAt string
	err := r.Scan(&d.ID, &d.AgentID, &d.Fault, &d.Description, &d.FaultDate, &d.Place, &d.NotificationDate,
		&d.Commission, &d.CommissionDate, &d.Sanction, &d.SanctionDays, &d.SanctionReason, &d.Status,
		&d.CreatedBy, &createdAt, &updatedAt, &d.AgentName)
	d.CreatedAt, d.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return d, err
}

func (s *Store) GetDisciplinaryAction(ctx context.Context, id string) (*hr.DisciplinaryAction, error) {
	return getOne(ctx, s.q, scanDiscipline, disciplineSelect+" WHERE x.id = ?", id)
}

func (s *Store) ListDisciplinaryActions(ctx context.Context, f hr.RecordFilter) ([]hr.DisciplinaryAction, error) {
	conds, args := recordConditions("x", f, "status", "fault", "CAST(strftime('%Y', x.fault_date) AS INTEGER) = ?")
	return list(ctx, s.q, scanDiscipline,
		disciplineSelect+where(conds)+" ORDER BY x.fault_date DESC, x.created_at DESC", args...)
}

func (s *Store) DeleteDisciplinaryAction(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "disciplinary_actions", id)
}

// =============================================================================
// COMPETENCES
// =============================================================================

var competenceCols = []string{"id", "code", "name", "category", "description", "level", "active", "created_at", "updated_at"}

func (s *Store) SaveCompetence(ctx context.Context, c hr.Competence) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("competences", competenceCols),
		c.ID, c.Code, c.Name, c.Category, c.Description, c.Level, c.Active, ts(c.CreatedAt), ts(c.UpdatedAt))
	return saveErr("competence", err)
}

func scanCompetence(r rowScanner) (hr.Competence, error) {
	var c hr.Competence
	var createdAt, updatedAt string
	err := r.Scan(&c.ID, &c.Code, &c.Name, &c.Category, &c.Description, &c.Level, &c.Active, &createdAt, &updatedAt)
	c.CreatedAt, c.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return c, err
}

func (s *Store) GetCompetence(ctx context.Context, id string) (*hr.Competence, error) {
	return getOne(ctx, s.q, scanCompetence,
		"SELECT "+strings.Join(competenceCols, ", ")+" FROM competences WHERE id = ?", id)
}

func (s *Store) ListCompetences(ctx context.Context, f hr.CompetenceFilter) ([]hr.Competence, error) {
	var conds []string
	var args []any
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.ActiveOnly {
		conds = append(conds, "active = 1")
	}
	return list(ctx, s.q, scanCompetence,
		"SELECT "+strings.Join(competenceCols, ", ")+" FROM competences"+where(conds)+" ORDER BY category, name", args...)
}

var agentCompetenceCols = []string{
	"id", "agent_id", "competence_id", "level", "evaluated_at", "evaluated_by", "comment", "created_at", "updated_at",
}

var agentCompetenceSelect = "SELECT " + prefixed("x", agentCompetenceCols) + ", " + agentNameExpr + `, COALESCE(c.name, '')
	FROM agent_competences x
	LEFT JOIN agents ag ON ag.id = x.agent_id
	LEFT JOIN competences c ON c.id = x.competence_id`

func (s *Store) SaveAgentCompetence(ctx context.Context, a hr.AgentCompetence) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("agent_competences", agentCompetenceCols),
		a.ID, a.AgentID, a.CompetenceID, a.Level, a.EvaluatedAt, a.EvaluatedBy, a.Comment,
		ts(a.CreatedAt), ts(a.UpdatedAt))
	return saveErr("agent competence", err)
}

func scanAgentCompetence(r rowScanner) (hr.AgentCompetence, error) {
	var a hr.AgentCompetence
	var createdAt, updatedAt string
	err := r.Scan(&a.ID, &a.AgentID, &a.CompetenceID, &a.Level, &a.EvaluatedAt, &a.EvaluatedBy, &a.Comment,
		&createdAt, &updatedAt, &a.AgentName, &a.CompetenceName)
	a.CreatedAt, a.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return a, err
}

func (s *Store) GetAgentCompetence(ctx context.Context, id string) (*hr.AgentCompetence, error) {
	return getOne(ctx, s.q, scanAgentCompetence, agentCompetenceSelect+" WHERE x.id = ?", id)
}

func (s *Store) ListAgentCompetences(ctx context.Context, agentID string) ([]hr.AgentCompetence, error) {
	query := agentCompetenceSelect
	var args []any
	if agentID != "" {
		query += " WHERE x.agent_id = ?"
		args = append(args, agentID)
	}
	return list(ctx, s.q, scanAgentCompetence, query+" ORDER BY c.name", args...)
}

func (s *Store) DeleteAgentCompetence(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "agent_competences", id)
}

// =============================================================================
// TRAININGS
// =============================================================================

var trainingCols = []string{
	"id", "code", "title", "type", "description", "hours", "estimated_cost", "location",
	"start_date", "end_date", "seats", "status", "active", "created_at", "updated_at",
}

func (s *Store) SaveTraining(ctx context.Context, t hr.Training) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("trainings", trainingCols),
		t.ID, t.Code, t.Title, t.Type, t.Description, t.Hours, t.EstimatedCost, t.Location,
		t.StartDate, t.EndDate, t.Seats, t.Status, t.Active, ts(t.CreatedAt), ts(t.UpdatedAt))
	return saveErr("training", err)
}

func scanTraining(r rowScanner) (hr.Training, error) {
	var t hr.Training
	var createdAt, updatedAt string
	err := r.Scan(&t.ID, &t.Code, &t.Title, &t.Type, &t.Description, &t.Hours, &t.EstimatedCost, &t.Location,
		&t.StartDate, &t.EndDate, &t.Seats, &t.Status, &t.Active, &createdAt, &updatedAt)
	t.CreatedAt, t.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return t, err
}

func (s *Store) GetTraining(ctx context.Context, id string) (*hr.Training, error) {
	return getOne(ctx, s.q, scanTraining,
		"SELECT "+strings.Join(trainingCols, ", ")+" FROM trainings WHERE id = ?", id)
}

func (s *Store) ListTrainings(ctx context.Context, f hr.TrainingFilter) ([]hr.Training, error) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if f.ActiveOnly {
		conds = append(conds, "active = 1")
	}
	return list(ctx, s.q, scanTraining,
		"SELECT "+strings.Join(trainingCols, ", ")+" FROM trainings"+where(conds)+" ORDER BY start_date DESC, title", args...)
}

// =============================================================================
// PARTICIPATIONS
// =============================================================================

var participationCols = []string{
	"id", "agent_id", "training_id", "status", "score", "appraisal", "cost",
	"registered_by", "created_at", "updated_at",
}

var participationSelect = "SELECT " + prefixed("x", participationCols) + ", " + agentNameExpr + `, COALESCE(t.title, '')
	FROM participations x
	LEFT JOIN agents ag ON ag.id = x.agent_id
	LEFT JOIN trainings t ON t.id = x.training_id`

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return &d.Decimal
}

func (s *Store) SaveParticipation(ctx context.Context, p hr.Participation) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("participations", participationCols),
		p.ID, p.AgentID, p.TrainingID, p.Status, nullDecimal(p.Score), p.Appraisal, nullDecimal(p.Cost),
		p.RegisteredBy, ts(p.CreatedAt), ts(p.UpdatedAt))
	return saveErr("participation", err)
}

func scanParticipation(r rowScanner) (hr.Participation, error) {
	var p hr.Participation
	var score, cost decimal.NullDecimal
	var createdAt, updatedAt string
	err := r.Scan(&p.ID, &p.AgentID, &p.TrainingID, &p.Status, &score, &p.Appraisal, &cost,
		&p.RegisteredBy, &createdAt, &updatedAt, &p.AgentName, &p.TrainingTitle)
	p.Score, p.Cost = decimalPtr(score), decimalPtr(cost)
	p.CreatedAt, p.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return p, err
}

func (s *Store) GetParticipation(ctx context.Context, id string) (*hr.Participation, error) {
	return getOne(ctx, s.q, scanParticipation, participationSelect+" WHERE x.id = ?", id)
}

func (s *Store) ListParticipations(ctx context.Context, f hr.ParticipationFilter) ([]hr.Participation, error) {
	var conds []string
	var args []any
	if f.AgentID != "" {
		conds = append(conds, "x.agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.TrainingID != "" {
		conds = append(conds, "x.training_id = ?")
		args = append(args, f.TrainingID)
	}
	if f.Status != "" {
		conds = append(conds, "x.status = ?")
		args = append(args, f.Status)
	}
	return list(ctx, s.q, scanParticipation,
		participationSelect+where(conds)+" ORDER BY x.created_at DESC, ag.last_name", args...)
}

func (s *Store) CountSeatsTaken(ctx context.Context, trainingID string) (int, error) {
	return s.count(ctx,
		"SELECT COUNT(*) FROM participations WHERE training_id = ? AND status NOT IN (?, ?)",
		trainingID, hr.ParticipationDropped, hr.ParticipationExcluded)
}

func (s *Store) DeleteParticipation(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "participations", id)
}
