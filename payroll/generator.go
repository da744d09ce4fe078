package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MOVEMENT GENERATOR - Salary grid -> per-period movements
// =============================================================================

// MovementGenerator copies the salary grid of an employee's grade into
// movements for one period.
type MovementGenerator struct {
	Store  Store
	Logger *slog.Logger
	Now    func() time.Time
}

// SkippedEntry is a grid entry the generator did not apply.
type SkippedEntry struct {
	GridEntryID string `json:"grid_entry_id"`
	ElementCode string `json:"element_code"`
	Reason      string `json:"reason"`
}

// GenerateResult lists what one generation pass wrote.
type GenerateResult struct {
	Movements []Movement     `json:"movements"`
	Skipped   []SkippedEntry `json:"skipped,omitempty"`
}

const (
	skipElementInactive   = "element deactivated"
	skipGradeInactive     = "grade deactivated"
	skipElementManualOnly = "element is not computable"
)

// Generate upserts one movement per active grid entry of the employee's
// grade. The period must be OPEN; nothing is written otherwise. Running it
// twice leaves the same set of movements.
func (g *MovementGenerator) Generate(ctx context.Context, period PayPeriod, emp Employee, actor Actor) (GenerateResult, error) {
	var result GenerateResult
	if err := period.RequireStatus("generate movements", StatusOpen); err != nil {
		return result, err
	}
	if emp.GradeID == "" {
		return result, nil
	}

	entries, err := g.Store.ListGridEntries(ctx, GridFilter{GradeID: emp.GradeID, ActiveOnly: true})
	if err != nil {
		return result, fmt.Errorf("load salary grid for grade %s: %w", emp.GradeID, err)
	}

	now := g.now()
	for _, entry := range entries {
		if reason := skipReason(entry); reason != "" {
			result.Skipped = append(result.Skipped, SkippedEntry{
				GridEntryID: entry.ID,
				ElementCode: entry.ElementCode,
				Reason:      reason,
			})
			if reason != skipElementManualOnly {
				g.logger().Warn("salary grid entry skipped",
					"grid_entry", entry.ID,
					"element", entry.ElementCode,
					"grade", entry.GradeID,
					"reason", reason)
			}
			continue
		}

		stored, err := g.Store.UpsertMovement(ctx, Movement{
			ID:         uuid.NewString(),
			PeriodID:   period.ID,
			EmployeeID: emp.ID,
			ElementID:  entry.ElementID,
			Amount:     entry.Amount,
			CreatedBy:  actor,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return result, fmt.Errorf("upsert movement %s for employee %s: %w", entry.ElementCode, emp.ID, err)
		}
		result.Movements = append(result.Movements, stored)
	}
	return result, nil
}

func skipReason(entry GridEntry) string {
	switch {
	case !entry.ElementActive:
		return skipElementInactive
	case !entry.GradeActive:
		return skipGradeInactive
	case !entry.ElementComputable:
		return skipElementManualOnly
	}
	return ""
}

func (g *MovementGenerator) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func (g *MovementGenerator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
