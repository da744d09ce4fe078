/*
service.go - Payroll operations exposed to the API

PURPOSE:
  Glues the pipeline stages to the store and enforces the rules that span
  several entities: period state checks, reference checks, transactions.

OPERATIONS:
  Periods:    OpenPeriod, EnsurePeriod, UpdatePeriod, DeletePeriod,
              ClosePeriod, GetPeriod, ListPeriods, PeriodSummary
  Catalog:    SaveElement, DeactivateElement, SaveGridEntry, DeactivateGridEntry
  Movements:  SaveMovement, DeleteMovement, ListMovements
  Payslips:   RunPayroll, RecalculatePayslip, UpdatePayslip
  Archival:   ArchivePeriod, ListHistory

TRANSACTIONS:
  RunPayroll generates and calculates each employee inside one store
  transaction, so an employee never ends up with movements but a stale
  payslip. Employees are processed one after another.

SEE ALSO:
  - generator.go, calculator.go, archiver.go
  - api/payroll_handlers.go: HTTP surface
*/
package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mohamedkandolo/Projet-RH/forms"
)

// Service runs payroll operations against a transactional store.
type Service struct {
	store  TxStore
	logger *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
	// WorkedDays and WorkedHours are written on new payslips.
	WorkedDays  int
	WorkedHours decimal.Decimal
}

func NewService(store TxStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		logger:      logger,
		Now:         time.Now,
		WorkedDays:  DefaultWorkedDays,
		WorkedHours: DefaultWorkedHours,
	}
}

func (s *Service) now() time.Time { return s.Now().UTC() }

func (s *Service) generator(st Store) *MovementGenerator {
	return &MovementGenerator{Store: st, Logger: s.logger, Now: s.Now}
}

func (s *Service) calculator(st Store) *PayslipCalculator {
	return &PayslipCalculator{
		Store:       st,
		Logger:      s.logger,
		Now:         s.Now,
		WorkedDays:  s.WorkedDays,
		WorkedHours: s.WorkedHours,
	}
}

// =============================================================================
// PERIODS
// =============================================================================

// PeriodCounts is the number of periods per status.
type PeriodCounts struct {
	Open     int `json:"open"`
	Closed   int `json:"closed"`
	Archived int `json:"archived"`
}

// PeriodSummary is the detail view of a period.
type PeriodSummary struct {
	Period        PayPeriod `json:"period"`
	Payslips      []Payslip `json:"payslips"`
	Totals        Totals    `json:"totals"`
	MovementCount int       `json:"movement_count"`
	HistoryCount  int       `json:"history_count"`
}

// OpenPeriod creates an OPEN period for a month that has none.
func (s *Service) OpenPeriod(ctx context.Context, in PeriodInput, actor Actor) (PayPeriod, error) {
	if err := in.Validate().Err(); err != nil {
		return PayPeriod{}, err
	}
	existing, err := s.store.FindPeriod(ctx, in.Year, in.Month)
	if err != nil {
		return PayPeriod{}, err
	}
	if existing != nil {
		return PayPeriod{}, ErrDuplicatePeriod
	}

	p, err := NewPayPeriod(uuid.NewString(), in.Year, in.Month, in.StartDate, in.EndDate, s.now())
	if err != nil {
		return PayPeriod{}, err
	}
	p.Comment = in.Comment
	if err := s.store.SavePeriod(ctx, p); err != nil {
		return PayPeriod{}, err
	}
	s.logger.Info("pay period opened", "period", p.Label(), "actor", actor)
	return p, nil
}

// EnsurePeriod returns the period of year/month, opening it when missing.
// The boolean is true when a period was created.
func (s *Service) EnsurePeriod(ctx context.Context, year, month int) (PayPeriod, bool, error) {
	existing, err := s.store.FindPeriod(ctx, year, month)
	if err != nil {
		return PayPeriod{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}
	p, err := s.OpenPeriod(ctx, PeriodInput{Year: year, Month: month}, SystemActor)
	if err != nil {
		return PayPeriod{}, false, err
	}
	return p, true, nil
}

func (s *Service) GetPeriod(ctx context.Context, id string) (PayPeriod, error) {
	p, err := s.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}
	if p == nil {
		return PayPeriod{}, ErrPeriodNotFound
	}
	return *p, nil
}

// ListPeriods returns the matching periods and the status counts of all periods.
func (s *Service) ListPeriods(ctx context.Context, f PeriodFilter) ([]PayPeriod, PeriodCounts, error) {
	all, err := s.store.ListPeriods(ctx, PeriodFilter{})
	if err != nil {
		return nil, PeriodCounts{}, err
	}
	var counts PeriodCounts
	for _, p := range all {
		switch p.Status {
		case StatusOpen:
			counts.Open++
		case StatusClosed:
			counts.Closed++
		case StatusArchived:
			counts.Archived++
		}
	}
	if f == (PeriodFilter{}) {
		return all, counts, nil
	}
	periods, err := s.store.ListPeriods(ctx, f)
	return periods, counts, err
}

// UpdatePeriod changes an OPEN period.
func (s *Service) UpdatePeriod(ctx context.Context, id string, in PeriodInput) (PayPeriod, error) {
	if err := in.Validate().Err(); err != nil {
		return PayPeriod{}, err
	}
	p, err := s.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}
	if err := p.Reschedule(in.Year, in.Month, in.StartDate, in.EndDate, in.Comment); err != nil {
		return PayPeriod{}, err
	}
	if err := s.store.SavePeriod(ctx, p); err != nil {
		return PayPeriod{}, err
	}
	return p, nil
}

// DeletePeriod removes an OPEN period together with its movements and payslips.
func (s *Service) DeletePeriod(ctx context.Context, id string, actor Actor) error {
	p, err := s.GetPeriod(ctx, id)
	if err != nil {
		return err
	}
	if err := p.RequireStatus("delete period", StatusOpen); err != nil {
		return err
	}
	if err := s.store.DeletePeriod(ctx, id); err != nil {
		return err
	}
	s.logger.Info("pay period deleted", "period", p.Label(), "actor", actor)
	return nil
}

// ClosePeriod moves an OPEN period to CLOSED.
func (s *Service) ClosePeriod(ctx context.Context, id string, actor Actor) (PayPeriod, error) {
	p, err := s.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}
	if err := p.Close(s.now()); err != nil {
		return PayPeriod{}, err
	}
	if err := s.store.SavePeriod(ctx, p); err != nil {
		return PayPeriod{}, err
	}
	s.logger.Info("pay period closed", "period", p.Label(), "actor", actor)
	return p, nil
}

// PeriodSummary returns the period with its payslips and aggregate totals.
func (s *Service) PeriodSummary(ctx context.Context, id string) (PeriodSummary, error) {
	p, err := s.GetPeriod(ctx, id)
	if err != nil {
		return PeriodSummary{}, err
	}
	slips, err := s.store.ListPayslips(ctx, PayslipFilter{PeriodID: id})
	if err != nil {
		return PeriodSummary{}, err
	}
	movements, err := s.store.CountMovements(ctx, MovementFilter{PeriodID: id})
	if err != nil {
		return PeriodSummary{}, err
	}
	history, err := s.store.ListHistory(ctx, HistoryFilter{PeriodID: id})
	if err != nil {
		return PeriodSummary{}, err
	}

	totals := ComputeTotals(nil)
	for _, slip := range slips {
		totals = totals.Add(Totals{
			Gains:         slip.Gains,
			Deductions:    slip.Deductions,
			Contributions: slip.Contributions,
			Net:           slip.Net,
		})
	}
	if slips == nil {
		slips = []Payslip{}
	}
	return PeriodSummary{
		Period:        p,
		Payslips:      slips,
		Totals:        totals,
		MovementCount: movements,
		HistoryCount:  len(history),
	}, nil
}

// =============================================================================
// CALCULATION TRIGGER
// =============================================================================

// RunResult summarizes a payroll run.
type RunResult struct {
	PeriodID         string         `json:"period_id"`
	Period           string         `json:"period"`
	Employees        int            `json:"employees"`
	Computed         int            `json:"computed"`
	Unchanged        int            `json:"unchanged"`
	MovementsWritten int            `json:"movements_written"`
	Skipped          []SkippedEntry `json:"skipped,omitempty"`
	Payslips         []Payslip      `json:"payslips"`
}

// RunPayroll generates movements and computes payslips for the requested
// employees of an OPEN period.
func (s *Service) RunPayroll(ctx context.Context, req CalculationRequest, actor Actor) (RunResult, error) {
	if err := req.Validate().Err(); err != nil {
		return RunResult{}, err
	}

	period, err := s.store.GetPeriod(ctx, req.PeriodID)
	if err != nil {
		return RunResult{}, err
	}
	if period == nil {
		return RunResult{}, forms.FieldErrors{"period_id": "unknown pay period"}
	}
	if err := period.RequireStatus("run payroll", StatusOpen); err != nil {
		return RunResult{}, err
	}

	employees, err := s.selectEmployees(ctx, req)
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{
		PeriodID:  period.ID,
		Period:    period.Label(),
		Employees: len(employees),
		Payslips:  make([]Payslip, 0, len(employees)),
	}
	for _, emp := range employees {
		err := s.store.WithTx(ctx, func(tx Store) error {
			gen, err := s.generator(tx).Generate(ctx, *period, emp, actor)
			if err != nil {
				return err
			}
			calc, err := s.calculator(tx).Calculate(ctx, *period, emp, actor, req.ForceRecalculate)
			if err != nil {
				return err
			}

			result.MovementsWritten += len(gen.Movements)
			result.Skipped = append(result.Skipped, gen.Skipped...)
			if calc.Computed {
				result.Computed++
			} else {
				result.Unchanged++
			}
			result.Payslips = append(result.Payslips, calc.Payslip)
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("employee %s: %w", emp.Matricule, err)
		}
	}

	s.logger.Info("payroll run finished",
		"period", period.Label(),
		"employees", result.Employees,
		"computed", result.Computed,
		"unchanged", result.Unchanged,
		"movements", result.MovementsWritten,
		"actor", actor)
	return result, nil
}

func (s *Service) selectEmployees(ctx context.Context, req CalculationRequest) ([]Employee, error) {
	if req.AllEmployees {
		return s.store.ListEmployees(ctx, true)
	}
	emp, err := s.store.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, forms.FieldErrors{"employee_id": "unknown employee"}
	}
	if !emp.Payable() {
		return nil, forms.FieldErrors{"employee_id": "employee is not active"}
	}
	return []Employee{*emp}, nil
}

// =============================================================================
// PAYSLIPS
// =============================================================================

func (s *Service) GetPayslip(ctx context.Context, id string) (Payslip, error) {
	slip, err := s.store.GetPayslip(ctx, id)
	if err != nil {
		return Payslip{}, err
	}
	if slip == nil {
		return Payslip{}, ErrPayslipNotFound
	}
	return *slip, nil
}

func (s *Service) ListPayslips(ctx context.Context, f PayslipFilter) ([]Payslip, error) {
	return s.store.ListPayslips(ctx, f)
}

// PayslipDetail is a payslip with the movements behind it.
type PayslipDetail struct {
	Payslip   Payslip    `json:"payslip"`
	Period    PayPeriod  `json:"period"`
	Movements []Movement `json:"movements"`
}

func (s *Service) PayslipDetail(ctx context.Context, id string) (PayslipDetail, error) {
	slip, err := s.GetPayslip(ctx, id)
	if err != nil {
		return PayslipDetail{}, err
	}
	p, err := s.GetPeriod(ctx, slip.PeriodID)
	if err != nil {
		return PayslipDetail{}, err
	}
	movements, err := s.store.ListMovements(ctx, MovementFilter{PeriodID: slip.PeriodID, EmployeeID: slip.EmployeeID})
	if err != nil {
		return PayslipDetail{}, err
	}
	if movements == nil {
		movements = []Movement{}
	}
	return PayslipDetail{Payslip: slip, Period: p, Movements: movements}, nil
}

// RecalculatePayslip recomputes a payslip from its current movements.
func (s *Service) RecalculatePayslip(ctx context.Context, id string, actor Actor) (Payslip, error) {
	slip, err := s.GetPayslip(ctx, id)
	if err != nil {
		return Payslip{}, err
	}
	var out Payslip
	err = s.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.GetPeriod(ctx, slip.PeriodID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPeriodNotFound
		}
		emp, err := tx.GetEmployee(ctx, slip.EmployeeID)
		if err != nil {
			return err
		}
		if emp == nil {
			return ErrEmployeeNotFound
		}
		res, err := s.calculator(tx).Calculate(ctx, *p, *emp, actor, true)
		if err != nil {
			return err
		}
		out = res.Payslip
		return nil
	})
	return out, err
}

// UpdatePayslip edits worked time and comment. Totals are only ever
// written by the calculator.
func (s *Service) UpdatePayslip(ctx context.Context, id string, in PayslipInput) (Payslip, error) {
	if err := in.Validate().Err(); err != nil {
		return Payslip{}, err
	}
	slip, err := s.GetPayslip(ctx, id)
	if err != nil {
		return Payslip{}, err
	}
	p, err := s.GetPeriod(ctx, slip.PeriodID)
	if err != nil {
		return Payslip{}, err
	}
	if err := p.RequireWritable("update payslip"); err != nil {
		return Payslip{}, err
	}

	slip.WorkedDays = in.WorkedDays
	slip.WorkedHours = in.WorkedHours
	slip.Comment = in.Comment
	slip.UpdatedAt = s.now()
	if err := s.store.UpsertPayslip(ctx, slip); err != nil {
		return Payslip{}, err
	}
	return slip, nil
}

// =============================================================================
// MOVEMENTS
// =============================================================================

// SaveMovement creates (id == "") or updates a movement by hand.
func (s *Service) SaveMovement(ctx context.Context, id string, in MovementInput, actor Actor) (Movement, error) {
	fe := in.Validate()
	if !fe.Empty() {
		return Movement{}, fe
	}

	p, err := s.store.GetPeriod(ctx, in.PeriodID)
	if err != nil {
		return Movement{}, err
	}
	if p == nil {
		fe.Add("period_id", "unknown pay period")
	}
	emp, err := s.store.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return Movement{}, err
	}
	if emp == nil {
		fe.Add("employee_id", "unknown employee")
	}
	el, err := s.store.GetElement(ctx, in.ElementID)
	if err != nil {
		return Movement{}, err
	}
	if el == nil {
		fe.Add("element_id", "unknown pay element")
	}
	if err := fe.Err(); err != nil {
		return Movement{}, err
	}
	if err := p.RequireWritable("save movement"); err != nil {
		return Movement{}, err
	}

	now := s.now()
	m := Movement{ID: uuid.NewString(), CreatedAt: now, CreatedBy: actor}
	if id != "" {
		existing, err := s.GetMovement(ctx, id)
		if err != nil {
			return Movement{}, err
		}
		if existing.PeriodID != in.PeriodID {
			old, err := s.GetPeriod(ctx, existing.PeriodID)
			if err != nil {
				return Movement{}, err
			}
			if err := old.RequireWritable("move movement"); err != nil {
				return Movement{}, err
			}
		}
		m = existing
	}
	m.PeriodID = in.PeriodID
	m.EmployeeID = in.EmployeeID
	m.ElementID = in.ElementID
	m.Amount = in.Amount
	m.Comment = in.Comment
	m.UpdatedAt = now

	if err := s.store.SaveMovement(ctx, m); err != nil {
		return Movement{}, err
	}
	return s.GetMovement(ctx, m.ID)
}

func (s *Service) GetMovement(ctx context.Context, id string) (Movement, error) {
	m, err := s.store.GetMovement(ctx, id)
	if err != nil {
		return Movement{}, err
	}
	if m == nil {
		return Movement{}, ErrMovementNotFound
	}
	return *m, nil
}

// ListMovements returns one page of movements and the total match count.
func (s *Service) ListMovements(ctx context.Context, f MovementFilter) ([]Movement, int, error) {
	total, err := s.store.CountMovements(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	movements, err := s.store.ListMovements(ctx, f)
	return movements, total, err
}

// DeleteMovement removes a movement of a writable period.
func (s *Service) DeleteMovement(ctx context.Context, id string) error {
	m, err := s.GetMovement(ctx, id)
	if err != nil {
		return err
	}
	p, err := s.GetPeriod(ctx, m.PeriodID)
	if err != nil {
		return err
	}
	if err := p.RequireWritable("delete movement"); err != nil {
		return err
	}
	return s.store.DeleteMovement(ctx, id)
}

// =============================================================================
// CATALOG
// =============================================================================

// SaveElement creates (id == "") or updates a pay element.
func (s *Service) SaveElement(ctx context.Context, id string, in ElementInput) (PayElement, error) {
	if err := in.Validate().Err(); err != nil {
		return PayElement{}, err
	}
	now := s.now()
	el := PayElement{ID: uuid.NewString(), CreatedAt: now, Computable: true, Active: true}
	if id != "" {
		existing, err := s.GetElement(ctx, id)
		if err != nil {
			return PayElement{}, err
		}
		el = existing
	}
	el.Code = in.Code
	el.Name = in.Name
	el.Kind = in.Kind
	el.Description = in.Description
	el.Computable = boolOr(in.Computable, el.Computable)
	el.Active = boolOr(in.Active, el.Active)
	el.UpdatedAt = now

	if err := s.store.SaveElement(ctx, el); err != nil {
		return PayElement{}, err
	}
	return el, nil
}

func (s *Service) GetElement(ctx context.Context, id string) (PayElement, error) {
	el, err := s.store.GetElement(ctx, id)
	if err != nil {
		return PayElement{}, err
	}
	if el == nil {
		return PayElement{}, ErrElementNotFound
	}
	return *el, nil
}

func (s *Service) ListElements(ctx context.Context, f ElementFilter) ([]PayElement, error) {
	return s.store.ListElements(ctx, f)
}

// DeactivateElement hides an element from future runs. Elements are never
// hard-deleted because movements and archives refer to them.
func (s *Service) DeactivateElement(ctx context.Context, id string) error {
	el, err := s.GetElement(ctx, id)
	if err != nil {
		return err
	}
	el.Active = false
	el.UpdatedAt = s.now()
	return s.store.SaveElement(ctx, el)
}

// SaveGridEntry creates (id == "") or updates a salary grid entry.
func (s *Service) SaveGridEntry(ctx context.Context, id string, in GridEntryInput) (GridEntry, error) {
	fe := in.Validate()
	if fe.Empty() {
		el, err := s.store.GetElement(ctx, in.ElementID)
		if err != nil {
			return GridEntry{}, err
		}
		if el == nil {
			fe.Add("element_id", "unknown pay element")
		}
	}
	if err := fe.Err(); err != nil {
		return GridEntry{}, err
	}

	now := s.now()
	g := GridEntry{ID: uuid.NewString(), CreatedAt: now, Active: true}
	if id != "" {
		existing, err := s.GetGridEntry(ctx, id)
		if err != nil {
			return GridEntry{}, err
		}
		g = existing
	}
	g.GradeID = in.GradeID
	g.ElementID = in.ElementID
	g.Amount = in.Amount
	g.Active = boolOr(in.Active, g.Active)
	g.UpdatedAt = now

	if err := s.store.SaveGridEntry(ctx, g); err != nil {
		return GridEntry{}, err
	}
	return s.GetGridEntry(ctx, g.ID)
}

func (s *Service) GetGridEntry(ctx context.Context, id string) (GridEntry, error) {
	g, err := s.store.GetGridEntry(ctx, id)
	if err != nil {
		return GridEntry{}, err
	}
	if g == nil {
		return GridEntry{}, ErrGridEntryNotFound
	}
	return *g, nil
}

func (s *Service) ListGridEntries(ctx context.Context, f GridFilter) ([]GridEntry, error) {
	return s.store.ListGridEntries(ctx, f)
}

func (s *Service) DeactivateGridEntry(ctx context.Context, id string) error {
	g, err := s.GetGridEntry(ctx, id)
	if err != nil {
		return err
	}
	g.Active = false
	g.UpdatedAt = s.now()
	return s.store.SaveGridEntry(ctx, g)
}

// =============================================================================
// ARCHIVAL TRIGGER
// =============================================================================

// ArchivePeriod archives a CLOSED period after explicit confirmation.
func (s *Service) ArchivePeriod(ctx context.Context, req ArchiveRequest, actor Actor) (ArchiveOutcome, error) {
	if err := req.Validate().Err(); err != nil {
		return ArchiveOutcome{}, err
	}
	p, err := s.store.GetPeriod(ctx, req.PeriodID)
	if err != nil {
		return ArchiveOutcome{}, err
	}
	if p == nil {
		return ArchiveOutcome{}, forms.FieldErrors{"period_id": "unknown pay period"}
	}
	archiver := &Archiver{Store: s.store, Logger: s.logger, Now: s.Now}
	return archiver.Archive(ctx, req.PeriodID, req.Comment, actor)
}

func (s *Service) ListHistory(ctx context.Context, f HistoryFilter) ([]PayHistory, error) {
	return s.store.ListHistory(ctx, f)
}

func (s *Service) GetHistory(ctx context.Context, id string) (PayHistory, error) {
	h, err := s.store.GetHistory(ctx, id)
	if err != nil {
		return PayHistory{}, err
	}
	if h == nil {
		return PayHistory{}, ErrHistoryNotFound
	}
	return *h, nil
}
