/*
Package payroll computes and archives monthly pay.

PURPOSE:
  A pay period is opened for a month. For every payable employee the
  movement generator copies the salary grid of the employee's grade into
  per-period movements, the calculator folds those movements into a
  payslip, and once the period is closed the archiver freezes each
  payslip into a self-contained history record.

KEY CONCEPTS IN THIS FILE (types.go):
  - ElementKind: GAIN adds to pay, DEDUCTION and CONTRIBUTION subtract
  - PayElement: catalog entry (salary base, transport, tax, ...)
  - GridEntry: amount of one element for one grade
  - Movement: one element applied to one employee in one period
  - Payslip: per-period totals for one employee
  - PayHistory: immutable archived snapshot of a payslip

LIFECYCLE:
  OPEN --(close)--> CLOSED --(archive)--> ARCHIVED

  OPEN:     movements are generated, payslips computed
  CLOSED:   no new calculation runs; manual corrections still allowed
  ARCHIVED: read-only, every payslip has a history record

DESIGN PRINCIPLES:
  1. Precision: amounts are decimal.Decimal, never float64
  2. Idempotency: re-running generation for the same period and employee
     updates rows in place, it never duplicates them
  3. Explicit actor: every write names who performed it

SEE ALSO:
  - period.go: state machine
  - generator.go, calculator.go, archiver.go: the three pipeline stages
  - service.go: triggers used by the API
*/
package payroll

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mohamedkandolo/Projet-RH/calendar"
)

// Actor identifies the user performing a write.
type Actor string

// SystemActor stamps writes made by background jobs.
const SystemActor Actor = "system"

// =============================================================================
// ELEMENT KIND
// =============================================================================

type ElementKind string

const (
	KindGain         ElementKind = "GAIN"
	KindDeduction    ElementKind = "DEDUCTION"
	KindContribution ElementKind = "CONTRIBUTION"
)

func (k ElementKind) Valid() bool {
	switch k {
	case KindGain, KindDeduction, KindContribution:
		return true
	}
	return false
}

// ArchiveCode is the kind code written into archived snapshots. Archives
// produced before the kinds were renamed used RETENUE and COTISATION, and
// readers of the archive still expect those codes.
func (k ElementKind) ArchiveCode() string {
	switch k {
	case KindDeduction:
		return "RETENUE"
	case KindContribution:
		return "COTISATION"
	default:
		return string(k)
	}
}

// ParseElementKind accepts both the current names and the archive codes.
func ParseElementKind(s string) (ElementKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GAIN":
		return KindGain, nil
	case "DEDUCTION", "RETENUE":
		return KindDeduction, nil
	case "CONTRIBUTION", "COTISATION":
		return KindContribution, nil
	}
	return "", fmt.Errorf("unknown element kind %q", s)
}

// =============================================================================
// PERIOD STATUS
// =============================================================================

type PeriodStatus string

const (
	StatusOpen     PeriodStatus = "OPEN"
	StatusClosed   PeriodStatus = "CLOSED"
	StatusArchived PeriodStatus = "ARCHIVED"
)

// EmployeeActive is the employment status that makes an employee payable.
const EmployeeActive = "ACTIVE"

// =============================================================================
// ENTITIES
// =============================================================================

// PayPeriod is one month of payroll.
type PayPeriod struct {
	ID         string        `json:"id"`
	Year       int           `json:"year"`
	Month      int           `json:"month"`
	StartDate  calendar.Date `json:"start_date"`
	EndDate    calendar.Date `json:"end_date"`
	Status     PeriodStatus  `json:"status"`
	OpenedAt   time.Time     `json:"opened_at"`
	ClosedAt   *time.Time    `json:"closed_at,omitempty"`
	ArchivedAt *time.Time    `json:"archived_at,omitempty"`
	Comment    string        `json:"comment,omitempty"`
}

// Label renders the period as "2024-03".
func (p PayPeriod) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// PayElement is a catalog entry.
type PayElement struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Kind        ElementKind `json:"kind"`
	Description string      `json:"description,omitempty"`
	Computable  bool        `json:"computable"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// GridEntry is the amount of one element paid to one grade. The element and
// grade fields after Amount are read-only projections filled by the store.
type GridEntry struct {
	ID        string          `json:"id"`
	GradeID   string          `json:"grade_id"`
	ElementID string          `json:"element_id"`
	Amount    decimal.Decimal `json:"amount"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	GradeName         string      `json:"grade_name,omitempty"`
	GradeActive       bool        `json:"grade_active"`
	ElementCode       string      `json:"element_code,omitempty"`
	ElementName       string      `json:"element_name,omitempty"`
	ElementKind       ElementKind `json:"element_kind,omitempty"`
	ElementActive     bool        `json:"element_active"`
	ElementComputable bool        `json:"element_computable"`
}

// Employee is the payroll view of an HR agent.
type Employee struct {
	ID         string `json:"id"`
	Matricule  string `json:"matricule"`
	LastName   string `json:"last_name"`
	FirstNames string `json:"first_names"`
	GradeID    string `json:"grade_id"`
	GradeName  string `json:"grade_name"`
	BureauID   string `json:"bureau_id"`
	BureauName string `json:"bureau_name"`
	Status     string `json:"status"`
	Active     bool   `json:"active"`
}

// Payable reports whether payroll runs include this employee.
func (e Employee) Payable() bool {
	return e.Active && e.Status == EmployeeActive
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.LastName + " " + e.FirstNames)
}

// Movement is one element applied to one employee for one period.
// (PeriodID, EmployeeID, ElementID) is unique.
type Movement struct {
	ID         string          `json:"id"`
	PeriodID   string          `json:"period_id"`
	EmployeeID string          `json:"employee_id"`
	ElementID  string          `json:"element_id"`
	Amount     decimal.Decimal `json:"amount"`
	Comment    string          `json:"comment,omitempty"`
	CreatedBy  Actor           `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	ElementCode  string      `json:"element_code,omitempty"`
	ElementName  string      `json:"element_name,omitempty"`
	ElementKind  ElementKind `json:"element_kind,omitempty"`
	EmployeeName string      `json:"employee_name,omitempty"`
}

// Payslip holds the totals for one employee in one period.
// (PeriodID, EmployeeID) is unique and Net = Gains - Deductions - Contributions.
type Payslip struct {
	ID            string          `json:"id"`
	PeriodID      string          `json:"period_id"`
	EmployeeID    string          `json:"employee_id"`
	Gains         decimal.Decimal `json:"total_gains"`
	Deductions    decimal.Decimal `json:"total_deductions"`
	Contributions decimal.Decimal `json:"total_contributions"`
	Net           decimal.Decimal `json:"net_pay"`
	WorkedDays    int             `json:"worked_days"`
	WorkedHours   decimal.Decimal `json:"worked_hours"`
	ComputedBy    Actor           `json:"computed_by"`
	ComputedAt    time.Time       `json:"computed_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Comment       string          `json:"comment,omitempty"`

	EmployeeName      string `json:"employee_name,omitempty"`
	EmployeeMatricule string `json:"employee_matricule,omitempty"`
	PeriodLabel       string `json:"period_label,omitempty"`
}

// PayHistory is the archived, self-contained copy of a payslip.
type PayHistory struct {
	ID         string          `json:"id"`
	PeriodID   string          `json:"period_id"`
	EmployeeID string          `json:"employee_id"`
	PayslipID  string          `json:"payslip_id"`
	Snapshot   json.RawMessage `json:"snapshot"`
	ArchivedBy Actor           `json:"archived_by"`
	ArchivedAt time.Time       `json:"archived_at"`
	Comment    string          `json:"comment,omitempty"`
}

// =============================================================================
// HELPERS
// =============================================================================

// MustParseDecimal parses s, returning zero for malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
