package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Mohamedkandolo/Projet-RH/payroll"
)

// payrollErr translates constraint failures into payroll errors. dup is
// the error for a UNIQUE collision.
func payrollErr(op string, dup error, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := uniqueViolation(err); ok && dup != nil {
		return dup
	}
	if foreignKeyViolation(err) {
		return fmt.Errorf("%s: %w", op, payroll.ErrUnknownReference)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// WithTx runs fn inside one SQL transaction.
func (s *Store) WithTx(ctx context.Context, fn func(payroll.Store) error) error {
	return s.inTransaction(ctx, func(tx *Store) error { return fn(tx) })
}

// =============================================================================
// PERIODS
// =============================================================================

var periodCols = []string{
	"id", "year", "month", "start_date", "end_date", "status", "opened_at", "closed_at", "archived_at", "comment",
}

var periodSelect = "SELECT " + strings.Join(periodCols, ", ") + " FROM pay_periods"

func (s *Store) SavePeriod(ctx context.Context, p payroll.PayPeriod) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("pay_periods", periodCols),
		p.ID, p.Year, p.Month, p.StartDate, p.EndDate, p.Status,
		ts(p.OpenedAt), nullTS(p.ClosedAt), nullTS(p.ArchivedAt), p.Comment)
	return payrollErr("save period", payroll.ErrDuplicatePeriod, err)
}

func scanPeriod(r rowScanner) (payroll.PayPeriod, error) {
	var p payroll.PayPeriod
	var openedAt string
	var closedAt, archivedAt sql.NullString
	err := r.Scan(&p.ID, &p.Year, &p.Month, &p.StartDate, &p.EndDate, &p.Status,
		&openedAt, &closedAt, &archivedAt, &p.Comment)
	p.OpenedAt = parseTS(openedAt)
	p.ClosedAt, p.ArchivedAt = parseNullTS(closedAt), parseNullTS(archivedAt)
	return p, err
}

func (s *Store) GetPeriod(ctx context.Context, id string) (*payroll.PayPeriod, error) {
	return getOne(ctx, s.q, scanPeriod, periodSelect+" WHERE id = ?", id)
}

func (s *Store) FindPeriod(ctx context.Context, year, month int) (*payroll.PayPeriod, error) {
	return getOne(ctx, s.q, scanPeriod, periodSelect+" WHERE year = ? AND month = ?", year, month)
}

func (s *Store) ListPeriods(ctx context.Context, f payroll.PeriodFilter) ([]payroll.PayPeriod, error) {
	var conds []string
	var args []any
	if f.Year != 0 {
		conds = append(conds, "year = ?")
		args = append(args, f.Year)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	return list(ctx, s.q, scanPeriod, periodSelect+where(conds)+" ORDER BY year DESC, month DESC", args...)
}

// DeletePeriod removes the period; movements and payslips go with it.
func (s *Store) DeletePeriod(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM pay_periods WHERE id = ?", id)
	return payrollErr("delete period", nil, err)
}

// =============================================================================
// CATALOG
// =============================================================================

var elementCols = []string{"id", "code", "name", "kind", "description", "computable", "active", "created_at", "updated_at"}

func (s *Store) SaveElement(ctx context.Context, e payroll.PayElement) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("pay_elements", elementCols),
		e.ID, e.Code, e.Name, e.Kind, e.Description, e.Computable, e.Active, ts(e.CreatedAt), ts(e.UpdatedAt))
	return payrollErr("save pay element", payroll.ErrDuplicateElement, err)
}

func scanElement(r rowScanner) (payroll.PayElement, error) {
	var e payroll.PayElement
	var createdAt, updatedAt string
	err := r.Scan(&e.ID, &e.Code, &e.Name, &e.Kind, &e.Description, &e.Computable, &e.Active, &createdAt, &updatedAt)
	e.CreatedAt, e.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return e, err
}

func (s *Store) GetElement(ctx context.Context, id string) (*payroll.PayElement, error) {
	return getOne(ctx, s.q, scanElement,
		"SELECT "+strings.Join(elementCols, ", ")+" FROM pay_elements WHERE id = ?", id)
}

func (s *Store) ListElements(ctx context.Context, f payroll.ElementFilter) ([]payroll.PayElement, error) {
	var conds []string
	var args []any
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.ActiveOnly {
		conds = append(conds, "active = 1")
	}
	return list(ctx, s.q, scanElement,
		"SELECT "+strings.Join(elementCols, ", ")+" FROM pay_elements"+where(conds)+" ORDER BY code", args...)
}

var gridCols = []string{"id", "grade_id", "element_id", "amount", "active", "created_at", "updated_at"}

var gridSelect = "SELECT " + prefixed("x", gridCols) + `,
	COALESCE(g.name, ''), COALESCE(g.active, 1),
	e.code, e.name, e.kind, e.active, e.computable
	FROM salary_grid x
	JOIN pay_elements e ON e.id = x.element_id
	LEFT JOIN grades g ON g.id = x.grade_id`

func (s *Store) SaveGridEntry(ctx context.Context, g payroll.GridEntry) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("salary_grid", gridCols),
		g.ID, g.GradeID, g.ElementID, g.Amount, g.Active, ts(g.CreatedAt), ts(g.UpdatedAt))
	return payrollErr("save grid entry", payroll.ErrDuplicateGridEntry, err)
}

func scanGridEntry(r rowScanner) (payroll.GridEntry, error) {
	var g payroll.GridEntry
	var createdAt, updatedAt string
	err := r.Scan(&g.ID, &g.GradeID, &g.ElementID, &g.Amount, &g.Active, &createdAt, &updatedAt,
		&g.GradeName, &g.GradeActive,
		&g.ElementCode, &g.ElementName, &g.ElementKind, &g.ElementActive, &g.ElementComputable)
	g.CreatedAt, g.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return g, err
}

func (s *Store) GetGridEntry(ctx context.Context, id string) (*payroll.GridEntry, error) {
	return getOne(ctx, s.q, scanGridEntry, gridSelect+" WHERE x.id = ?", id)
}

func (s *Store) ListGridEntries(ctx context.Context, f payroll.GridFilter) ([]payroll.GridEntry, error) {
	var conds []string
	var args []any
	if f.GradeID != "" {
		conds = append(conds, "x.grade_id = ?")
		args = append(args, f.GradeID)
	}
	if f.ElementID != "" {
		conds = append(conds, "x.element_id = ?")
		args = append(args, f.ElementID)
	}
	if f.ActiveOnly {
		conds = append(conds, "x.active = 1")
	}
	return list(ctx, s.q, scanGridEntry, gridSelect+where(conds)+" ORDER BY g.name, e.code", args...)
}

// =============================================================================
// MOVEMENTS
// =============================================================================

var movementCols = []string{
	"id", "period_id", "employee_id", "element_id", "amount", "comment", "created_by", "created_at", "updated_at",
}

var movementSelect = "SELECT " + prefixed("x", movementCols) + `,
	e.code, e.name, e.kind, COALESCE(ag.last_name || ' ' || ag.first_names, '')
	FROM movements x
	JOIN pay_elements e ON e.id = x.element_id
	LEFT JOIN agents ag ON ag.id = x.employee_id`

// UpsertMovement inserts the movement or, when one exists for the same
// (period, employee, element), refreshes its amount and author. The
// stored ID and comment are kept.
func (s *Store) UpsertMovement(ctx context.Context, m payroll.Movement) (payroll.Movement, error) {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO movements (`+strings.Join(movementCols, ", ")+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(period_id, employee_id, element_id) DO UPDATE SET
			amount = excluded.amount,
			created_by = excluded.created_by,
			updated_at = excluded.updated_at`,
		m.ID, m.PeriodID, m.EmployeeID, m.ElementID, m.Amount, m.Comment, m.CreatedBy,
		ts(m.CreatedAt), ts(m.UpdatedAt))
	if err != nil {
		return payroll.Movement{}, payrollErr("upsert movement", nil, err)
	}
	stored, err := getOne(ctx, s.q, scanMovement,
		movementSelect+" WHERE x.period_id = ? AND x.employee_id = ? AND x.element_id = ?",
		m.PeriodID, m.EmployeeID, m.ElementID)
	if err != nil {
		return payroll.Movement{}, err
	}
	if stored == nil {
		return payroll.Movement{}, payroll.ErrMovementNotFound
	}
	return *stored, nil
}

func (s *Store) SaveMovement(ctx context.Context, m payroll.Movement) error {
	_, err := s.q.ExecContext(ctx, upsertSQL("movements", movementCols),
		m.ID, m.PeriodID, m.EmployeeID, m.ElementID, m.Amount, m.Comment, m.CreatedBy,
		ts(m.CreatedAt), ts(m.UpdatedAt))
	return payrollErr("save movement", payroll.ErrDuplicateMovement, err)
}

func scanMovement(r rowScanner) (payroll.Movement, error) {
	var m payroll.Movement
	var createdAt, updatedAt string
	err := r.Scan(&m.ID, &m.PeriodID, &m.EmployeeID, &m.ElementID, &m.Amount, &m.Comment, &m.CreatedBy,
		&createdAt, &updatedAt, &m.ElementCode, &m.ElementName, &m.ElementKind, &m.EmployeeName)
	m.CreatedAt, m.UpdatedAt = parseTS(createdAt), parseTS(updatedAt)
	return m, err
}

func (s *Store) GetMovement(ctx context.Context, id string) (*payroll.Movement, error) {
	return getOne(ctx, s.q, scanMovement, movementSelect+" WHERE x.id = ?", id)
}

func movementConditions(f payroll.MovementFilter) ([]string, []any) {
	var conds []string
	var args []any
	if f.PeriodID != "" {
		conds = append(conds, "x.period_id = ?")
		args = append(args, f.PeriodID)
	}
	if f.EmployeeID != "" {
		conds = append(conds, "x.employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.ElementID != "" {
		conds = append(conds, "x.element_id = ?")
		args = append(args, f.ElementID)
	}
	if f.Kind != "" {
		conds = append(conds, "e.kind = ?")
		args = append(args, f.Kind)
	}
	return conds, args
}

func (s *Store) ListMovements(ctx context.Context, f payroll.MovementFilter) ([]payroll.Movement, error) {
	conds, args := movementConditions(f)
	query, args := page(movementSelect+where(conds)+" ORDER BY x.employee_id, e.code", f.Limit, f.Offset, args)
	return list(ctx, s.q, scanMovement, query, args...)
}

func (s *Store) CountMovements(ctx context.Context, f payroll.MovementFilter) (int, error) {
	conds, args := movementConditions(f)
	return s.count(ctx, "SELECT COUNT(*) FROM movements x JOIN pay_elements e ON e.id = x.element_id"+where(conds), args...)
}

func (s *Store) DeleteMovement(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "movements", id)
}

// =============================================================================
// PAYSLIPS
// =============================================================================

var payslipCols = []string{
	"id", "period_id", "employee_id", "total_gains", "total_deductions", "total_contributions", "net_pay",
	"worked_days", "worked_hours", "computed_by", "computed_at", "updated_at", "comment",
}

var payslipSelect = "SELECT " + prefixed("x", payslipCols) + `,
	COALESCE(ag.last_name || ' ' || ag.first_names, ''), COALESCE(ag.matricule, ''),
	printf('%04d-%02d', p.year, p.month)
	FROM payslips x
	JOIN pay_periods p ON p.id = x.period_id
	LEFT JOIN agents ag ON ag.id = x.employee_id`

// UpsertPayslip writes the payslip keyed by (period, employee). On
// conflict the stored ID and first computation time are kept.
func (s *Store) UpsertPayslip(ctx context.Context, p payroll.Payslip) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO payslips (`+strings.Join(payslipCols, ", ")+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(period_id, employee_id) DO UPDATE SET
			total_gains = excluded.total_gains,
			total_deductions = excluded.total_deductions,
			total_contributions = excluded.total_contributions,
			net_pay = excluded.net_pay,
			worked_days = excluded.worked_days,
			worked_hours = excluded.worked_hours,
			computed_by = excluded.computed_by,
			updated_at = excluded.updated_at,
			comment = excluded.comment`,
		p.ID, p.PeriodID, p.EmployeeID, p.Gains, p.Deductions, p.Contributions, p.Net,
		p.WorkedDays, p.WorkedHours, p.ComputedBy, ts(p.ComputedAt), ts(p.UpdatedAt), p.Comment)
	return payrollErr("upsert payslip", nil, err)
}

func scanPayslip(r rowScanner) (payroll.Payslip, error) {
	var p payroll.Payslip
	var computedAt, updatedAt string
	err := r.Scan(&p.ID, &p.PeriodID, &p.EmployeeID, &p.Gains, &p.Deductions, &p.Contributions, &p.Net,
		&p.WorkedDays, &p.WorkedHours, &p.ComputedBy, &computedAt, &updatedAt, &p.Comment,
		&p.EmployeeName, &p.EmployeeMatricule, &p.PeriodLabel)
	p.ComputedAt, p.UpdatedAt = parseTS(computedAt), parseTS(updatedAt)
	return p, err
}

func (s *Store) GetPayslip(ctx context.Context, id string) (*payroll.Payslip, error) {
	return getOne(ctx, s.q, scanPayslip, payslipSelect+" WHERE x.id = ?", id)
}

func (s *Store) FindPayslip(ctx context.Context, periodID, employeeID string) (*payroll.Payslip, error) {
	return getOne(ctx, s.q, scanPayslip,
		payslipSelect+" WHERE x.period_id = ? AND x.employee_id = ?", periodID, employeeID)
}

func (s *Store) ListPayslips(ctx context.Context, f payroll.PayslipFilter) ([]payroll.Payslip, error) {
	var conds []string
	var args []any
	if f.PeriodID != "" {
		conds = append(conds, "x.period_id = ?")
		args = append(args, f.PeriodID)
	}
	if f.EmployeeID != "" {
		conds = append(conds, "x.employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	return list(ctx, s.q, scanPayslip,
		payslipSelect+where(conds)+" ORDER BY p.year DESC, p.month DESC, ag.matricule", args...)
}

// =============================================================================
// HISTORY
// =============================================================================

var historyCols = []string{
	"id", "period_id", "employee_id", "payslip_id", "snapshot", "archived_by", "archived_at", "comment",
}

var historySelect = "SELECT " + strings.Join(historyCols, ", ") + " FROM pay_history"

// AppendHistory inserts a history row. A second row for the same payslip
// yields ErrHistoryExists.
func (s *Store) AppendHistory(ctx context.Context, h payroll.PayHistory) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO pay_history ("+strings.Join(historyCols, ", ")+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		h.ID, h.PeriodID, h.EmployeeID, h.PayslipID, string(h.Snapshot), h.ArchivedBy, ts(h.ArchivedAt), h.Comment)
	return payrollErr("append history", payroll.ErrHistoryExists, err)
}

func scanHistory(r rowScanner) (payroll.PayHistory, error) {
	var h payroll.PayHistory
	var snapshot, archivedAt string
	err := r.Scan(&h.ID, &h.PeriodID, &h.EmployeeID, &h.PayslipID, &snapshot, &h.ArchivedBy, &archivedAt, &h.Comment)
	h.Snapshot = []byte(snapshot)
	h.ArchivedAt = parseTS(archivedAt)
	return h, err
}

func (s *Store) GetHistory(ctx context.Context, id string) (*payroll.PayHistory, error) {
	return getOne(ctx, s.q, scanHistory, historySelect+" WHERE id = ?", id)
}

func (s *Store) HasHistory(ctx context.Context, payslipID string) (bool, error) {
	n, err := s.count(ctx, "SELECT COUNT(*) FROM pay_history WHERE payslip_id = ?", payslipID)
	return n > 0, err
}

func (s *Store) ListHistory(ctx context.Context, f payroll.HistoryFilter) ([]payroll.PayHistory, error) {
	var conds []string
	var args []any
	if f.PeriodID != "" {
		conds = append(conds, "period_id = ?")
		args = append(args, f.PeriodID)
	}
	if f.EmployeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	return list(ctx, s.q, scanHistory, historySelect+where(conds)+" ORDER BY archived_at DESC, employee_id", args...)
}
