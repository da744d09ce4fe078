package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mohamedkandolo/Projet-RH/hr"
	"github.com/Mohamedkandolo/Projet-RH/payroll"
)

var (
	_ hr.Store        = (*Store)(nil)
	_ payroll.TxStore = (*Store)(nil)
)

// saveErr turns a write failure into an hr error naming the record kind.
func saveErr(kind string, err error) error {
	if err == nil {
		return nil
	}
	if cols, ok := uniqueViolation(err); ok {
		return &hr.DuplicateError{Kind: kind, Fields: cols}
	}
	return fmt.Errorf("save %s: %w", kind, err)
}

// =============================================================================
// DIRECTIONS
// =============================================================================

var directionCols = []string{"id", "name", "code", "description", "active", "created_at", "updated_at"}

func (s *Store) SaveDirection(ctx context.Context, d hr.Direction) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("directions", directionCols),
		d.ID, d.Name, d.Code, d.Description, d.Active, ts(d.CreatedAt), ts(d.UpdatedAt))
	return saveErr("direction", err)
}

func scanDirection(r rowScanner) (hr.Direction, error) {
	var d hr.Direction
	var createdAt, updatedAt string
	err := r.Scan(&d.ID, &d.Name, &d.Code, &d.Description, &d.Active, &createdAt, &updatedAt)
	d.CreatedAt, d.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return d, err
}

func (s *Store) GetDirection(ctx context.Context, id string) (*hr.Direction, error) {
	return getOne(ctx, s.q, scanDirection,
		"SELECT "+strings.Join(directionCols, ", ")+" FROM directions WHERE id = ?", id)
}

func (s *Store) ListDirections(ctx context.Context, activeOnly bool) ([]hr.Direction, error) {
	query := "SELECT " + strings.Join(directionCols, ", ") + " FROM directions"
	if activeOnly {
		query += " WHERE active = 1"
	}
	return list(ctx, s.q, scanDirection, query+" ORDER BY name")
}

// =============================================================================
// BUREAUS
// =============================================================================

var bureauCols = []string{"id", "name", "code", "direction_id", "description", "active", "created_at", "updated_at"}

func (s *Store) SaveBureau(ctx context.Context, b hr.Bureau) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("bureaus", bureauCols),
		b.ID, b.Name, b.Code, b.DirectionID, b.Description, b.Active, ts(b.CreatedAt), ts(b.UpdatedAt))
	return saveErr("bureau", err)
}

const bureauSelect = `SELECT b.id, b.name, b.code, b.direction_id, b.description, b.active,
	b.created_at, b.updated_at, COALESCE(d.name, '')
	FROM bureaus b LEFT JOIN directions d ON d.id = b.direction_id`

func scanBureau(r rowScanner) (hr.Bureau, error) {
	var b hr.Bureau
	var createdAt, updatedAt string
	err := r.Scan(&b.ID, &b.Name, &b.Code, &b.DirectionID, &b.Description, &b.Active,
		&createdAt, &updatedAt, &b.DirectionName)
	b.CreatedAt, b.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return b, err
}

func (s *Store) GetBureau(ctx context.Context, id string) (*hr.Bureau, error) {
	return getOne(ctx, s.q, scanBureau, bureauSelect+" WHERE b.id = ?", id)
}

func (s *Store) ListBureaus(ctx context.Context, f hr.OrgFilter) ([]hr.Bureau, error) {
	var conds []string
	var args []any
	if f.DirectionID != "" {
		conds = append(conds, "b.direction_id = ?")
		args = append(args, f.DirectionID)
	}
	if f.ActiveOnly {
		conds = append(conds, "b.active = 1")
	}
	return list(ctx, s.q, scanBureau, bureauSelect+where(conds)+" ORDER BY d.name, b.name", args...)
}

// =============================================================================
// GRADES
// =============================================================================

var gradeCols = []string{"id", "name", "code", "level", "description", "active", "created_at", "updated_at"}

func (s *Store) SaveGrade(ctx context.Context, g hr.Grade) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("grades", gradeCols),
		g.ID, g.Name, g.Code, g.Level, g.Description, g.Active, ts(g.CreatedAt), ts(g.UpdatedAt))
	return saveErr("grade", err)
}

func scanGrade(r rowScanner) (hr.Grade, error) {
	var g hr.Grade
	var createdAt, updatedAt string
	err := r.Scan(&g.ID, &g.Name, &g.Code, &g.Level, &g.Description, &g.Active, &createdAt, &updatedAt)
	g.CreatedAt, g.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return g, err
}

func (s *Store) GetGrade(ctx context.Context, id string) (*hr.Grade, error) {
	return getOne(ctx, s.q, scanGrade,
		"SELECT "+strings.Join(gradeCols, ", ")+" FROM grades WHERE id = ?", id)
}

func (s *Store) ListGrades(ctx context.Context, activeOnly bool) ([]hr.Grade, error) {
	query := "SELECT " + strings.Join(gradeCols, ", ") + " FROM grades"
	if activeOnly {
		query += " WHERE active = 1"
	}
	return list(ctx, s.q, scanGrade, query+" ORDER BY level, name")
}

// =============================================================================
// BUDGET POSTS
// =============================================================================

var budgetPostCols = []string{
	"id", "code", "title", "type", "grade_id", "bureau_id", "missions", "required_competences",
	"hierarchical_position", "filled", "active", "created_at", "updated_at",
}

var budgetPostSelect = "SELECT " + prefixed("p", budgetPostCols) + `, COALESCE(g.name, ''), COALESCE(b.name, '')
	FROM budget_posts p
	LEFT JOIN grades g ON g.id = p.grade_id
	LEFT JOIN bureaus b ON b.id = p.bureau_id`

func (s *Store) SaveBudgetPost(ctx context.Context, p hr.BudgetPost) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("budget_posts", budgetPostCols),
		p.ID, p.Code, p.Title, p.Type, p.GradeID, p.BureauID, p.Missions, p.RequiredCompetences,
		p.HierarchicalPosition, p.Filled, p.Active, ts(p.CreatedAt), ts(p.UpdatedAt))
	return saveErr("budget post", err)
}

func scanBudgetPost(r rowScanner) (hr.BudgetPost, error) {
	var p hr.BudgetPost
	var createdAt, updatedAt string
	err := r.Scan(&p.ID, &p.Code, &p.Title, &p.Type, &p.GradeID, &p.BureauID, &p.Missions, &p.RequiredCompetences,
		&p.HierarchicalPosition, &p.Filled, &p.Active, &createdAt, &updatedAt,
		&p.GradeName, &p.BureauName)
	p.CreatedAt, p.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return p, err
}

func (s *Store) GetBudgetPost(ctx context.Context, id string) (*hr.BudgetPost, error) {
	return getOne(ctx, s.q, scanBudgetPost, budgetPostSelect+" WHERE p.id = ?", id)
}

func (s *Store) ListBudgetPosts(ctx context.Context, f hr.BudgetPostFilter) ([]hr.BudgetPost, error) {
	var conds []string
	var args []any
	if f.BureauID != "" {
		conds = append(conds, "p.bureau_id = ?")
		args = append(args, f.BureauID)
	}
	if f.GradeID != "" {
		conds = append(conds, "p.grade_id = ?")
		args = append(args, f.GradeID)
	}
	if f.Type != "" {
		conds = append(conds, "p.type = ?")
		args = append(args, f.Type)
	}
	if f.ActiveOnly {
		conds = append(conds, "p.active = 1")
	}
	return list(ctx, s.q, scanBudgetPost, budgetPostSelect+where(conds)+" ORDER BY p.code", args...)
}

// =============================================================================
// AGENTS
// =============================================================================

var agentCols = []string{
	"id", "matricule", "last_name", "first_names", "birth_date", "birth_place", "sex",
	"nationality", "identification_number", "marital_status", "spouse_name", "children",
	"social_security_number", "diploma", "school", "graduation_year", "speciality",
	"grade_id", "bureau_id", "hire_date", "nomination_date", "status",
	"address", "phone", "email", "bank", "account_number",
	"created_by", "active", "created_at", "updated_at",
}

var agentSelect = "SELECT " + prefixed("a", agentCols) + `, COALESCE(g.name, ''), COALESCE(b.name, '')
	FROM agents a
	LEFT JOIN grades g ON g.id = a.grade_id
	LEFT JOIN bureaus b ON b.id = a.bureau_id`

func (s *Store) SaveAgent(ctx context.Context, a hr.Agent) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("agents", agentCols),
		a.ID, a.Matricule, a.LastName, a.FirstNames, a.BirthDate, a.BirthPlace, a.Sex,
		a.Nationality, a.IdentificationNumber, a.MaritalStatus, a.SpouseName, a.Children,
		a.SocialSecurityNumber, a.Diploma, a.School, a.GraduationYear, a.Speciality,
		a.GradeID, a.BureauID, a.HireDate, a.NominationDate, a.Status,
		a.Address, a.Phone, a.Email, a.Bank, a.AccountNumber,
		a.CreatedBy, a.Active, ts(a.CreatedAt), ts(a.UpdatedAt))
	return saveErr("agent", err)
}

func scanAgent(r rowScanner) (hr.Agent, error) {
	var a hr.Agent
	var createdAt, updatedAt string
	err := r.Scan(
		&a.ID, &a.Matricule, &a.LastName, &a.FirstNames, &a.BirthDate, &a.BirthPlace, &a.Sex,
		&a.Nationality, &a.IdentificationNumber, &a.MaritalStatus, &a.SpouseName, &a.Children,
		&a.SocialSecurityNumber, &a.Diploma, &a.School, &a.GraduationYear, &a.Speciality,
		&a.GradeID, &a.BureauID, &a.HireDate, &a.NominationDate, &a.Status,
		&a.Address, &a.Phone, &a.Email, &a.Bank, &a.AccountNumber,
		&a.CreatedBy, &a.Active, &createdAt, &updatedAt,
		&a.GradeName, &a.BureauName,
	)
	a.CreatedAt, a.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return a, err
}

func (s *Store) GetAgent(ctx context.Context, id string) (*hr.Agent, error) {
	return getOne(ctx, s.q, scanAgent, agentSelect+" WHERE a.id = ?", id)
}

func agentConditions(f hr.AgentFilter) ([]string, []any) {
	var conds []string
	var args []any
	if !f.IncludeInactive {
		conds = append(conds, "a.active = 1")
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		conds = append(conds, "(LOWER(a.matricule) LIKE ? OR LOWER(a.last_name) LIKE ? OR LOWER(a.first_names) LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.GradeID != "" {
		conds = append(conds, "a.grade_id = ?")
		args = append(args, f.GradeID)
	}
	if f.BureauID != "" {
		conds = append(conds, "a.bureau_id = ?")
		args = append(args, f.BureauID)
	}
	if f.Status != "" {
		conds = append(conds, "a.status = ?")
		args = append(args, f.Status)
	}
	return conds, args
}

func (s *Store) ListAgents(ctx context.Context, f hr.AgentFilter) ([]hr.Agent, error) {
	conds, args := agentConditions(f)
	query, args := page(agentSelect+where(conds)+" ORDER BY a.last_name, a.first_names, a.matricule",
		f.Limit, f.Offset, args)
	return list(ctx, s.q, scanAgent, query, args...)
}

func (s *Store) CountAgents(ctx context.Context, f hr.AgentFilter) (int, error) {
	conds, args := agentConditions(f)
	return s.count(ctx, "SELECT COUNT(*) FROM agents a"+where(conds), args...)
}

func (s *Store) Matricules(ctx context.Context) ([]string, error) {
	return list(ctx, s.q, func(r rowScanner) (string, error) {
		var m string
		err := r.Scan(&m)
		return m, err
	}, "SELECT matricule FROM agents")
}

// =============================================================================
// EMPLOYEE DIRECTORY - Agents as payroll sees them
// =============================================================================

const employeeSelect = `SELECT a.id, a.matricule, a.last_name, a.first_names,
	a.grade_id, COALESCE(g.name, ''), a.bureau_id, COALESCE(b.name, ''), a.status, a.active
	FROM agents a
	LEFT JOIN grades g ON g.id = a.grade_id
	LEFT JOIN bureaus b ON b.id = a.bureau_id`

func scanEmployee(r rowScanner) (payroll.Employee, error) {
	var e payroll.Employee
	err := r.Scan(&e.ID, &e.Matricule, &e.LastName, &e.FirstNames,
		&e.GradeID, &e.GradeName, &e.BureauID, &e.BureauName, &e.Status, &e.Active)
	return e, err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*payroll.Employee, error) {
	return getOne(ctx, s.q, scanEmployee, employeeSelect+" WHERE a.id = ?", id)
}

// ListEmployees orders by matricule. payableOnly keeps active agents with
// the ACTIVE status.
func (s *Store) ListEmployees(ctx context.Context, payableOnly bool) ([]payroll.Employee, error) {
	query := employeeSelect
	var args []any
	if payableOnly {
		query += " WHERE a.active = 1 AND a.status = ?"
		args = append(args, payroll.EmployeeActive)
	}
	return list(ctx, s.q, scanEmployee, query+" ORDER BY a.matricule", args...)
}

// =============================================================================
// DASHBOARD
// =============================================================================

func (s *Store) Stats(ctx context.Context) (hr.Stats, error) {
	var st hr.Stats
	err := s.q.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM directions WHERE active = 1),
		(SELECT COUNT(*) FROM bureaus WHERE active = 1),
		(SELECT COUNT(*) FROM grades WHERE active = 1),
		(SELECT COUNT(*) FROM budget_posts WHERE active = 1),
		(SELECT COUNT(*) FROM agents WHERE active = 1),
		(SELECT COUNT(*) FROM agents WHERE active = 1 AND status = ?),
		(SELECT COUNT(*) FROM pay_elements WHERE active = 1),
		(SELECT COUNT(*) FROM salary_grid WHERE active = 1),
		(SELECT COUNT(*) FROM pay_periods),
		(SELECT COUNT(*) FROM pay_periods WHERE status = ?),
		(SELECT COUNT(*) FROM movements),
		(SELECT COUNT(*) FROM payslips),
		(SELECT COUNT(*) FROM cotations WHERE validated_at IS NULL),
		(SELECT COUNT(*) FROM disciplinary_actions WHERE status <> ?),
		(SELECT COUNT(*) FROM trainings WHERE active = 1)`,
		hr.AgentActive, payroll.StatusOpen, hr.DisciplineClosed,
	).Scan(
		&st.Directions, &st.Bureaus, &st.Grades, &st.BudgetPosts, &st.Agents, &st.ActiveAgents,
		&st.PayElements, &st.GridEntries, &st.Periods, &st.OpenPeriods,
		&st.Movements, &st.Payslips, &st.PendingCotation, &st.OpenDiscipline, &st.Trainings,
	)
	if err != nil {
		return hr.Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return st, nil
}
