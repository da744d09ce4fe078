package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/Mohamedkandolo/Projet-RH/calendar"
	"github.com/Mohamedkandolo/Projet-RH/forms"
)

// =============================================================================
// TRIGGERS
// =============================================================================

// CalculationRequest starts a payroll run for one employee or for all
// payable employees of an OPEN period.
type CalculationRequest struct {
	PeriodID         string `json:"period_id" validate:"required"`
	EmployeeID       string `json:"employee_id"`
	AllEmployees     bool   `json:"all_employees"`
	ForceRecalculate bool   `json:"force_recalculate"`
}

func (r CalculationRequest) Validate() forms.FieldErrors {
	fe := forms.Validate(r)
	if !r.AllEmployees && r.EmployeeID == "" {
		fe.Add("employee_id", "select an employee or choose all employees")
	}
	return fe
}

// ArchiveRequest archives a CLOSED period. Confirm must be set explicitly.
type ArchiveRequest struct {
	PeriodID string `json:"period_id" validate:"required"`
	Comment  string `json:"comment" validate:"max=2000"`
	Confirm  bool   `json:"confirm"`
}

func (r ArchiveRequest) Validate() forms.FieldErrors {
	fe := forms.Validate(r)
	if !r.Confirm {
		fe.Add("confirm", "archival must be confirmed")
	}
	return fe
}

// =============================================================================
// INPUTS
// =============================================================================

type PeriodInput struct {
	Year      int           `json:"year" validate:"required,gte=1900,lte=9999"`
	Month     int           `json:"month" validate:"required,gte=1,lte=12"`
	StartDate calendar.Date `json:"start_date"`
	EndDate   calendar.Date `json:"end_date"`
	Comment   string        `json:"comment" validate:"max=2000"`
}

func (in PeriodInput) Validate() forms.FieldErrors {
	fe := forms.Validate(in)
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		fe.Add("end_date", "must not be before start_date")
	}
	return fe
}

type ElementInput struct {
	Code        string      `json:"code" validate:"required,max=20"`
	Name        string      `json:"name" validate:"required,max=100"`
	Kind        ElementKind `json:"kind" validate:"required,oneof=GAIN DEDUCTION CONTRIBUTION"`
	Description string      `json:"description" validate:"max=2000"`
	Computable  *bool       `json:"computable"`
	Active      *bool       `json:"active"`
}

func (in ElementInput) Validate() forms.FieldErrors {
	return forms.Validate(in)
}

type GridEntryInput struct {
	GradeID   string          `json:"grade_id" validate:"required"`
	ElementID string          `json:"element_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gte=0"`
	Active    *bool           `json:"active"`
}

func (in GridEntryInput) Validate() forms.FieldErrors {
	return forms.Validate(in)
}

type MovementInput struct {
	PeriodID   string          `json:"period_id" validate:"required"`
	EmployeeID string          `json:"employee_id" validate:"required"`
	ElementID  string          `json:"element_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"gte=0"`
	Comment    string          `json:"comment" validate:"max=500"`
}

func (in MovementInput) Validate() forms.FieldErrors {
	return forms.Validate(in)
}

type PayslipInput struct {
	WorkedDays  int             `json:"worked_days" validate:"gte=0,lte=31"`
	WorkedHours decimal.Decimal `json:"worked_hours" validate:"gte=0,lte=744"`
	Comment     string          `json:"comment" validate:"max=2000"`
}

func (in PayslipInput) Validate() forms.FieldErrors {
	return forms.Validate(in)
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
