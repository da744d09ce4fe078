package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// TOTALS - Pure fold of movements
// =============================================================================

// Totals are the per-kind sums of a set of movements.
type Totals struct {
	Gains         decimal.Decimal `json:"total_gains"`
	Deductions    decimal.Decimal `json:"total_deductions"`
	Contributions decimal.Decimal `json:"total_contributions"`
	Net           decimal.Decimal `json:"net_pay"`
}

// ComputeTotals sums movements by kind. An empty slice gives all zeros.
func ComputeTotals(movements []Movement) Totals {
	t := Totals{
		Gains:         decimal.Zero,
		Deductions:    decimal.Zero,
		Contributions: decimal.Zero,
	}
	for _, m := range movements {
		switch m.ElementKind {
		case KindGain:
			t.Gains = t.Gains.Add(m.Amount)
		case KindDeduction:
			t.Deductions = t.Deductions.Add(m.Amount)
		case KindContribution:
			t.Contributions = t.Contributions.Add(m.Amount)
		}
	}
	t.Net = t.Gains.Sub(t.Deductions).Sub(t.Contributions)
	return t
}

// Add accumulates other into t.
func (t Totals) Add(other Totals) Totals {
	return Totals{
		Gains:         t.Gains.Add(other.Gains),
		Deductions:    t.Deductions.Add(other.Deductions),
		Contributions: t.Contributions.Add(other.Contributions),
		Net:           t.Net.Add(other.Net),
	}
}

// =============================================================================
// PAYSLIP CALCULATOR
// =============================================================================

// Default worked time written on new payslips.
const DefaultWorkedDays = 30

var DefaultWorkedHours = decimal.RequireFromString("173.33")

// PayslipCalculator computes payslips from stored movements.
type PayslipCalculator struct {
	Store       Store
	Logger      *slog.Logger
	Now         func() time.Time
	WorkedDays  int
	WorkedHours decimal.Decimal
}

// CalculateResult tells whether the payslip was (re)computed or left as is.
type CalculateResult struct {
	Payslip  Payslip `json:"payslip"`
	Computed bool    `json:"computed"`
}

// Calculate computes the employee's payslip for the period. An existing
// payslip is returned untouched unless force is set. Archived periods are
// refused.
func (c *PayslipCalculator) Calculate(ctx context.Context, period PayPeriod, emp Employee, actor Actor, force bool) (CalculateResult, error) {
	if err := period.RequireWritable("calculate payslip"); err != nil {
		return CalculateResult{}, err
	}

	existing, err := c.Store.FindPayslip(ctx, period.ID, emp.ID)
	if err != nil {
		return CalculateResult{}, fmt.Errorf("load payslip: %w", err)
	}
	if existing != nil && !force {
		return CalculateResult{Payslip: *existing}, nil
	}

	movements, err := c.Store.ListMovements(ctx, MovementFilter{PeriodID: period.ID, EmployeeID: emp.ID})
	if err != nil {
		return CalculateResult{}, fmt.Errorf("load movements: %w", err)
	}
	totals := ComputeTotals(movements)

	now := c.now()
	slip := Payslip{
		ID:          uuid.NewString(),
		PeriodID:    period.ID,
		EmployeeID:  emp.ID,
		WorkedDays:  c.workedDays(),
		WorkedHours: c.workedHours(),
		ComputedAt:  now,
	}
	if existing != nil {
		slip = *existing
	}
	slip.Gains = totals.Gains
	slip.Deductions = totals.Deductions
	slip.Contributions = totals.Contributions
	slip.Net = totals.Net
	slip.ComputedBy = actor
	slip.UpdatedAt = now

	if slip.Net.IsNegative() {
		c.logger().Warn("negative net pay",
			"period", period.Label(),
			"employee", emp.ID,
			"net", slip.Net.String())
	}

	if err := c.Store.UpsertPayslip(ctx, slip); err != nil {
		return CalculateResult{}, fmt.Errorf("save payslip: %w", err)
	}
	stored, err := c.Store.FindPayslip(ctx, period.ID, emp.ID)
	if err != nil {
		return CalculateResult{}, fmt.Errorf("reload payslip: %w", err)
	}
	if stored != nil {
		slip = *stored
	}
	return CalculateResult{Payslip: slip, Computed: true}, nil
}

func (c *PayslipCalculator) workedDays() int {
	if c.WorkedDays > 0 {
		return c.WorkedDays
	}
	return DefaultWorkedDays
}

func (c *PayslipCalculator) workedHours() decimal.Decimal {
	if c.WorkedHours.IsPositive() {
		return c.WorkedHours
	}
	return DefaultWorkedHours
}

func (c *PayslipCalculator) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *PayslipCalculator) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
