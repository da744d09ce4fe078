package sqlite

import (
	"context"
	"database/sql"

	"github.com/Mohamedkandolo/Projet-RH/hr"
)

// recordConditions filters per-agent records. statusCol and typeCol name
// the columns Status and Type apply to ("" when the table has none);
// yearExpr is a condition on the record's year taking one argument.
func recordConditions(alias string, f hr.RecordFilter, statusCol, typeCol, yearExpr string) ([]string, []any) {
	var conds []string
	var args []any
	if f.AgentID != "" {
		conds = append(conds, alias+".agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.Status != "" && statusCol != "" {
		conds = append(conds, alias+"."+statusCol+" = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" && typeCol != "" {
		conds = append(conds, alias+"."+typeCol+" = ?")
		args = append(args, f.Type)
	}
	if f.Year != 0 && yearExpr != "" {
		conds = append(conds, yearExpr)
		args = append(args, f.Year)
	}
	return conds, args
}

const agentNameExpr = "COALESCE(ag.last_name || ' ' || ag.first_names, '')"

// =============================================================================
// AFFECTATIONS
// =============================================================================

var affectationCols = []string{
	"id", "agent_id", "bureau_id", "budget_post_id", "functions", "start_date", "end_date", "status",
	"reason", "decision", "created_by", "created_at", "updated_at",
}

var affectationSelect = "SELECT " + prefixed("x", affectationCols) + ", " + agentNameExpr + `,
	COALESCE(b.name, ''), COALESCE(bp.title, '')
	FROM affectations x
	LEFT JOIN agents ag ON ag.id = x.agent_id
	LEFT JOIN bureaus b ON b.id = x.bureau_id
	LEFT JOIN budget_posts bp ON bp.id = x.budget_post_id`

func (s *Store) SaveAffectation(ctx context.Context, a hr.Affectation) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("affectations", affectationCols),
		a.ID, a.AgentID, a.BureauID, nullString(a.BudgetPostID), a.Functions, a.StartDate, a.EndDate, a.Status,
		a.Reason, a.Decision, a.CreatedBy, ts(a.CreatedAt), ts(a.UpdatedAt))
	return saveErr("affectation", err)
}

func scanAffectation(r rowScanner) (hr.Affectation, error) {
	var a hr.Affectation
	var budgetPost sql.NullString
	var createdAt, updatedAt string
	err := r.Scan(&a.ID, &a.AgentID, &a.BureauID, &budgetPost, &a.Functions, &a.StartDate, &a.EndDate, &a.Status,
		&a.Reason, &a.Decision, &a.CreatedBy, &createdAt, &updatedAt,
		&a.AgentName, &a.BureauName, &a.BudgetPostTitle)
	a.BudgetPostID = budgetPost.String
	a.CreatedAt, a.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return a, err
}

func (s *Store) GetAffectation(ctx context.Context, id string) (*hr.Affectation, error) {
	return getOne(ctx, s.q, scanAffectation, affectationSelect+" WHERE x.id = ?", id)
}

func (s *Store) ListAffectations(ctx context.Context, f hr.RecordFilter) ([]hr.Affectation, error) {
	conds, args := recordConditions("x", f, "status", "", "CAST(strftime('%Y', x.start_date) AS INTEGER) = ?")
	if f.BudgetPostID != "" {
		conds = append(conds, "x.budget_post_id = ?")
		args = append(args, f.BudgetPostID)
	}
	return list(ctx, s.q, scanAffectation,
		affectationSelect+where(conds)+" ORDER BY x.start_date DESC, x.created_at DESC", args...)
}

func (s *Store) DeleteAffectation(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "affectations", id)
}

// =============================================================================
// PROMOTIONS
// =============================================================================

var promotionCols = []string{
	"id", "agent_id", "from_grade_id", "to_grade_id", "type", "date", "reason",
	"required_seniority", "required_score", "decision", "created_by", "created_at", "updated_at",
}

var promotionSelect = "SELECT " + prefixed("x", promotionCols) + ", " + agentNameExpr + `,
	COALESCE(fg.name, ''), COALESCE(tg.name, '')
	FROM promotions x
	LEFT JOIN agents ag ON ag.id = x.agent_id
	LEFT JOIN grades fg ON fg.id = x.from_grade_id
	LEFT JOIN grades tg ON tg.id = x.to_grade_id`

func (s *Store) SavePromotion(ctx context.Context, p hr.Promotion) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("promotions", promotionCols),
		p.ID, p.AgentID, nullString(p.FromGradeID), p.ToGradeID, p.Type, p.Date, p.Reason,
		p.RequiredSeniority, p.RequiredScore, p.Decision, p.CreatedBy, ts(p.CreatedAt), ts(p.UpdatedAt))
	return saveErr("promotion", err)
}

func scanPromotion(r rowScanner) (hr.Promotion, error) {
	var p hr.Promotion
	var fromGrade sql.NullString
	var createdAt, updatedAt string
	err := r.Scan(&p.ID, &p.AgentID, &fromGrade, &p.ToGradeID, &p.Type, &p.Date, &p.Reason,
		&p.RequiredSeniority, &p.RequiredScore, &p.Decision, &p.CreatedBy, &createdAt, &updatedAt,
		&p.AgentName, &p.FromGradeName, &p.ToGradeName)
	p.FromGradeID = fromGrade.String
	p.CreatedAt, p.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return p, err
}

func (s *Store) GetPromotion(ctx context.Context, id string) (*hr.Promotion, error) {
	return getOne(ctx, s.q, scanPromotion, promotionSelect+" WHERE x.id = ?", id)
}

func (s *Store) ListPromotions(ctx context.Context, f hr.RecordFilter) ([]hr.Promotion, error) {
	conds, args := recordConditions("x", f, "", "type", "CAST(strftime('%Y', x.date) AS INTEGER) = ?")
	return list(ctx, s.q, scanPromotion,
		promotionSelect+where(conds)+" ORDER BY x.date DESC, x.created_at DESC", args...)
}

func (s *Store) DeletePromotion(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "promotions", id)
}

// =============================================================================
// MUTATIONS
// =============================================================================

var mutationCols = []string{
	"id", "agent_id", "type", "from_bureau_id", "to_bureau_id", "date", "reason",
	"decision", "created_by", "created_at", "updated_at",
}

var mutationSelect = "SELECT " + prefixed("x", mutationCols) + ", " + agentNameExpr + `,
	COALESCE(fb.name, ''), COALESCE(tb.name, '')
	FROM mutations x
	LEFT JOIN agents ag ON ag.id = x.agent_id
	LEFT JOIN bureaus fb ON fb.id = x.from_bureau_id
	LEFT JOIN bureaus tb ON tb.id = x.to_bureau_id`

func (s *Store) SaveMutation(ctx context.Context, m hr.Mutation) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("mutations", mutationCols),
		m.ID, m.AgentID, m.Type, nullString(m.FromBureauID), m.ToBureauID, m.Date, m.Reason,
		m.Decision, m.CreatedBy, ts(m.CreatedAt), ts(m.UpdatedAt))
	return saveErr("mutation", err)
}

func scanMutation(r rowScanner) (hr.Mutation, error) {
	var m hr.Mutation
	var fromBureau sql.NullString
	var createdAt, updatedAt string
	err := r.Scan(&m.ID, &m.AgentID, &m.Type, &fromBureau, &m.ToBureauID, &m.Date, &m.Reason,
		&m.Decision, &m.CreatedBy, &createdAt, &updatedAt,
		&m.AgentName, &m.FromBureauName, &m.ToBureauName)
	m.FromBureauID = fromBureau.String
	m.CreatedAt, m.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return m, err
}

func (s *Store) GetMutation(ctx context.Context, id string) (*hr.Mutation, error) {
	return getOne(ctx, s.q, scanMutation, mutationSelect+" WHERE x.id = ?", id)
}

func (s *Store) ListMutations(ctx context.Context, f hr.RecordFilter) ([]hr.Mutation, error) {
	conds, args := recordConditions("x", f, "", "type", "CAST(strftime('%Y', x.date) AS INTEGER) = ?")
	return list(ctx, s.q, scanMutation,
		mutationSelect+where(conds)+" ORDER BY x.date DESC, x.created_at DESC", args...)
}

func (s *Store) DeleteMutation(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "mutations", id)
}
