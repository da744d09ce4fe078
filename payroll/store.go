/*
store.go - Persistence interfaces for the payroll pipeline

PURPOSE:
  Defines what the generator, calculator and archiver need from storage.
  The SQLite store implements every interface; payroll/store.Memory
  implements them for tests.

UNIQUENESS CONTRACT:
  The store, not the caller, enforces the keys below. Two concurrent
  requests that race on the same key collapse to one row.
  - pay periods:  (year, month)
  - movements:    (period, employee, element), written by UpsertMovement
  - payslips:     (period, employee), written by UpsertPayslip
  - pay history:  (payslip), AppendHistory returns ErrHistoryExists

LOOKUPS:
  Get and Find methods return (nil, nil) when nothing matches. Callers turn that
  into the matching Err*NotFound.

SEE ALSO:
  - store/sqlite/payroll.go: SQLite implementation
  - payroll/store/memory.go: in-memory implementation
*/
package payroll

import "context"

// =============================================================================
// FILTERS
// =============================================================================

type PeriodFilter struct {
	Year   int
	Status PeriodStatus
}

type ElementFilter struct {
	Kind       ElementKind
	ActiveOnly bool
}

type GridFilter struct {
	GradeID    string
	ElementID  string
	ActiveOnly bool
}

type MovementFilter struct {
	PeriodID   string
	EmployeeID string
	ElementID  string
	Kind       ElementKind
	Limit      int
	Offset     int
}

type PayslipFilter struct {
	PeriodID   string
	EmployeeID string
}

type HistoryFilter struct {
	PeriodID   string
	EmployeeID string
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

type PeriodStore interface {
	// SavePeriod inserts or updates by ID. A second period for the same
	// (year, month) yields ErrDuplicatePeriod.
	SavePeriod(ctx context.Context, p PayPeriod) error
	GetPeriod(ctx context.Context, id string) (*PayPeriod, error)
	FindPeriod(ctx context.Context, year, month int) (*PayPeriod, error)
	// ListPeriods orders by year and month, most recent first.
	ListPeriods(ctx context.Context, f PeriodFilter) ([]PayPeriod, error)
	// DeletePeriod removes the period with its movements and payslips.
	DeletePeriod(ctx context.Context, id string) error
}

type CatalogStore interface {
	SaveElement(ctx context.Context, e PayElement) error
	GetElement(ctx context.Context, id string) (*PayElement, error)
	ListElements(ctx context.Context, f ElementFilter) ([]PayElement, error)

	SaveGridEntry(ctx context.Context, g GridEntry) error
	GetGridEntry(ctx context.Context, id string) (*GridEntry, error)
	ListGridEntries(ctx context.Context, f GridFilter) ([]GridEntry, error)
}

// EmployeeDirectory exposes HR agents to payroll.
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, payableOnly bool) ([]Employee, error)
}

type MovementStore interface {
	// UpsertMovement writes the movement keyed by (period, employee,
	// element). On conflict it updates amount, creator and update time
	// and keeps the stored ID and comment. It returns the stored row.
	UpsertMovement(ctx context.Context, m Movement) (Movement, error)
	// SaveMovement inserts or updates by ID, comment included.
	SaveMovement(ctx context.Context, m Movement) error
	GetMovement(ctx context.Context, id string) (*Movement, error)
	ListMovements(ctx context.Context, f MovementFilter) ([]Movement, error)
	CountMovements(ctx context.Context, f MovementFilter) (int, error)
	DeleteMovement(ctx context.Context, id string) error
}

type PayslipStore interface {
	// UpsertPayslip writes the payslip keyed by (period, employee) and
	// keeps the stored ID on conflict.
	UpsertPayslip(ctx context.Context, p Payslip) error
	GetPayslip(ctx context.Context, id string) (*Payslip, error)
	FindPayslip(ctx context.Context, periodID, employeeID string) (*Payslip, error)
	ListPayslips(ctx context.Context, f PayslipFilter) ([]Payslip, error)
}

type HistoryStore interface {
	AppendHistory(ctx context.Context, h PayHistory) error
	GetHistory(ctx context.Context, id string) (*PayHistory, error)
	HasHistory(ctx context.Context, payslipID string) (bool, error)
	ListHistory(ctx context.Context, f HistoryFilter) ([]PayHistory, error)
}

// Store is everything the payroll pipeline reads and writes.
type Store interface {
	PeriodStore
	CatalogStore
	EmployeeDirectory
	MovementStore
	PayslipStore
	HistoryStore
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
