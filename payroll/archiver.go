package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ARCHIVER - CLOSED period -> PayHistory rows -> ARCHIVED
// =============================================================================

// Archiver freezes the payslips of a closed period into pay history.
//
// Each history row is written on its own. If a write fails the period
// stays CLOSED, and the next run skips payslips that already have a
// history row, so an interrupted archival is resumed rather than
// duplicated. The period becomes ARCHIVED only after every payslip is
// archived.
type Archiver struct {
	Store  Store
	Logger *slog.Logger
	Now    func() time.Time
}

// ArchiveOutcome summarizes one archival run.
type ArchiveOutcome struct {
	Period          PayPeriod `json:"period"`
	Archived        int       `json:"archived"`
	AlreadyArchived int       `json:"already_archived"`
}

// Archive archives every payslip of the period and marks it ARCHIVED.
func (a *Archiver) Archive(ctx context.Context, periodID, comment string, actor Actor) (ArchiveOutcome, error) {
	period, err := a.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return ArchiveOutcome{}, err
	}
	if period == nil {
		return ArchiveOutcome{}, ErrPeriodNotFound
	}
	if err := period.RequireStatus("archive period", StatusClosed); err != nil {
		return ArchiveOutcome{}, err
	}

	slips, err := a.Store.ListPayslips(ctx, PayslipFilter{PeriodID: period.ID})
	if err != nil {
		return ArchiveOutcome{}, fmt.Errorf("load payslips: %w", err)
	}

	out := ArchiveOutcome{}
	for _, slip := range slips {
		done, err := a.archivePayslip(ctx, *period, slip, comment, actor)
		if err != nil {
			a.logger().Error("archival interrupted",
				"period", period.Label(),
				"payslip", slip.ID,
				"archived", out.Archived,
				"error", err)
			return out, &ArchiveError{PeriodID: period.ID, Archived: out.Archived, Err: err}
		}
		if done {
			out.Archived++
		} else {
			out.AlreadyArchived++
		}
	}

	if err := period.Archive(a.now()); err != nil {
		return out, err
	}
	if err := a.Store.SavePeriod(ctx, *period); err != nil {
		return out, fmt.Errorf("mark period archived: %w", err)
	}
	out.Period = *period

	a.logger().Info("pay period archived",
		"period", period.Label(),
		"archived", out.Archived,
		"already_archived", out.AlreadyArchived,
		"actor", actor)
	return out, nil
}

// archivePayslip writes the history row for slip. It returns false when
// the payslip was archived by an earlier run.
func (a *Archiver) archivePayslip(ctx context.Context, period PayPeriod, slip Payslip, comment string, actor Actor) (bool, error) {
	exists, err := a.Store.HasHistory(ctx, slip.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	emp, err := a.Store.GetEmployee(ctx, slip.EmployeeID)
	if err != nil {
		return false, err
	}
	if emp == nil {
		return false, fmt.Errorf("%w: %s", ErrEmployeeNotFound, slip.EmployeeID)
	}
	movements, err := a.Store.ListMovements(ctx, MovementFilter{PeriodID: period.ID, EmployeeID: slip.EmployeeID})
	if err != nil {
		return false, err
	}

	raw, err := BuildSnapshot(period, *emp, slip, movements).Encode()
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}

	err = a.Store.AppendHistory(ctx, PayHistory{
		ID:         uuid.NewString(),
		PeriodID:   period.ID,
		EmployeeID: slip.EmployeeID,
		PayslipID:  slip.ID,
		Snapshot:   raw,
		ArchivedBy: actor,
		ArchivedAt: a.now(),
		Comment:    comment,
	})
	if errors.Is(err, ErrHistoryExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *Archiver) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

func (a *Archiver) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
