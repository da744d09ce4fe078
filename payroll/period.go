package payroll

import (
	"fmt"
	"time"

	"github.com/Mohamedkandolo/Projet-RH/calendar"
)

// =============================================================================
// PAY PERIOD - Construction and state machine
// =============================================================================

// NewPayPeriod builds an OPEN period for year/month. Zero start and end
// dates default to the first and last day of the month.
func NewPayPeriod(id string, year, month int, start, end calendar.Date, now time.Time) (PayPeriod, error) {
	if month < 1 || month > 12 {
		return PayPeriod{}, fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, month)
	}
	if year < 1900 || year > 9999 {
		return PayPeriod{}, fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, year)
	}
	if start.IsZero() {
		start = calendar.StartOfMonth(year, time.Month(month))
	}
	if end.IsZero() {
		end = calendar.EndOfMonth(year, time.Month(month))
	}
	if end.Before(start) {
		return PayPeriod{}, ErrInvalidPeriod
	}

	return PayPeriod{
		ID:        id,
		Year:      year,
		Month:     month,
		StartDate: start,
		EndDate:   end,
		Status:    StatusOpen,
		OpenedAt:  now.UTC(),
	}, nil
}

// Close moves an OPEN period to CLOSED.
func (p *PayPeriod) Close(now time.Time) error {
	if p.Status != StatusOpen {
		return &TransitionError{PeriodID: p.ID, From: p.Status, To: StatusClosed}
	}
	t := now.UTC()
	p.Status = StatusClosed
	p.ClosedAt = &t
	return nil
}

// Archive moves a CLOSED period to ARCHIVED. There is no way back.
func (p *PayPeriod) Archive(now time.Time) error {
	if p.Status != StatusClosed {
		return &TransitionError{PeriodID: p.ID, From: p.Status, To: StatusArchived}
	}
	t := now.UTC()
	p.Status = StatusArchived
	p.ArchivedAt = &t
	return nil
}

// Writable reports whether movements and payslips of the period may change.
func (p PayPeriod) Writable() bool {
	return p.Status == StatusOpen || p.Status == StatusClosed
}

// RequireStatus returns a PreconditionError unless the period is in want.
func (p PayPeriod) RequireStatus(op string, want PeriodStatus) error {
	if p.Status != want {
		return &PreconditionError{Op: op, PeriodID: p.ID, Status: p.Status, Want: want}
	}
	return nil
}

// RequireWritable returns a PreconditionError for archived periods.
func (p PayPeriod) RequireWritable(op string) error {
	if !p.Writable() {
		return &PreconditionError{Op: op, PeriodID: p.ID, Status: p.Status}
	}
	return nil
}

// Reschedule changes the month, dates and comment of an OPEN period.
func (p *PayPeriod) Reschedule(year, month int, start, end calendar.Date, comment string) error {
	if err := p.RequireStatus("update period", StatusOpen); err != nil {
		return err
	}
	updated, err := NewPayPeriod(p.ID, year, month, start, end, p.OpenedAt)
	if err != nil {
		return err
	}
	p.Year, p.Month = updated.Year, updated.Month
	p.StartDate, p.EndDate = updated.StartDate, updated.EndDate
	p.Comment = comment
	return nil
}
