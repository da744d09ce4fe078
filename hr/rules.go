package hr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mohamedkandolo/Projet-RH/forms"
)

// MatriculePrefix starts every generated matricule.
const MatriculePrefix = "M"

// NextMatricule returns the matricule after the highest generated one in
// use. Matricules that do not follow the M<digits> form are ignored.
func NextMatricule(existing []string) string {
	highest := 0
	for _, m := range existing {
		digits, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(m)), MatriculePrefix)
		if !ok || digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%04d", MatriculePrefix, highest+1)
}

// =============================================================================
// COTATION SCORING
// =============================================================================

var criteriaCount = decimal.NewFromInt(5)

// Score recomputes OverallScore as the mean of the five criteria,
// rounded to two decimals.
func (c *Cotation) Score() {
	sum := c.ProfessionalConduct.
		Add(c.Attendance).
		Add(c.Objectives).
		Add(c.WorkQuality).
		Add(c.TeamSpirit)
	c.OverallScore = sum.DivRound(criteriaCount, 2)
}

func (c Cotation) Validated() bool {
	return c.ValidatedAt != nil
}

// Validate stamps the cotation as validated by actor.
func (c *Cotation) Validate(actor Actor, now time.Time) error {
	if c.Validated() {
		return ErrAlreadyValidated
	}
	c.ValidatedBy = actor
	c.ValidatedAt = &now
	return nil
}

// =============================================================================
// CROSS-FIELD CHECKS - Run after the struct tags pass
// =============================================================================

func checkAgent(a Agent) forms.FieldErrors {
	fe := forms.FieldErrors{}
	if !a.HireDate.IsZero() && !a.BirthDate.IsZero() && a.HireDate.Before(a.BirthDate) {
		fe.Add("hire_date", "must be after the birth date")
	}
	if !a.NominationDate.IsZero() && !a.HireDate.IsZero() && a.NominationDate.Before(a.HireDate) {
		fe.Add("nomination_date", "must be on or after the hire date")
	}
	if a.MaritalStatus == Single && a.SpouseName != "" {
		fe.Add("spouse_name", "must be empty for a single agent")
	}
	return fe
}

func checkAffectation(a Affectation) forms.FieldErrors {
	fe := forms.FieldErrors{}
	if !a.EndDate.IsZero() && a.EndDate.Before(a.StartDate) {
		fe.Add("end_date", "must be on or after the start date")
	}
	if a.Status == AffectationEnded && a.EndDate.IsZero() {
		fe.Add("end_date", "an ended affectation needs an end date")
	}
	return fe
}

func checkPromotion(p Promotion) forms.FieldErrors {
	fe := forms.FieldErrors{}
	if p.Type == PromotionGrade && p.FromGradeID != "" && p.FromGradeID == p.ToGradeID {
		fe.Add("to_grade_id", "must differ from the current grade")
	}
	return fe
}

func checkMutation(m Mutation) forms.FieldErrors {
	fe := forms.FieldErrors{}
	if m.Type != MutationFunction && m.FromBureauID != "" && m.FromBureauID == m.ToBureauID {
		fe.Add("to_bureau_id", "must differ from the current bureau")
	}
	return fe
}

func checkCotation(c Cotation) forms.FieldErrors {
	fe := forms.FieldErrors{}
	switch {
	case c.Periodicity == SemiAnnual && c.Semester == 0:
		fe.Add("semester", "a semi-annual cotation needs a semester")
	case c.Periodicity != SemiAnnual && c.Semester != 0:
		fe.Add("semester", "only semi-annual cotations have a semester")
	}
	return fe
}

func checkDiscipline(d DisciplinaryAction) forms.FieldErrors {
	fe := forms.FieldErrors{}
	if d.Status == DisciplineSanctioned && d.Sanction == "" {
		fe.Add("sanction", "a sanctioned case needs a sanction")
	}
	if !d.NotificationDate.IsZero() && d.NotificationDate.Before(d.FaultDate) {
		fe.Add("notification_date", "must be on or after the fault date")
	}
	if !d.CommissionDate.IsZero() && !d.Commission {
		fe.Add("commission_date", "set only when a commission sat")
	}
	if d.Sanction != SanctionSuspension && d.SanctionDays > 0 {
		fe.Add("sanction_days", "only suspensions have a duration")
	}
	return fe
}

func checkTraining(t Training) forms.FieldErrors {
	fe := forms.FieldErrors{}
	if t.EndDate.Before(t.StartDate) {
		fe.Add("end_date", "must be on or after the start date")
	}
	return fe
}

// holdsSeat reports whether a participation counts against the seat limit.
func holdsSeat(s ParticipationStatus) bool {
	return s != ParticipationDropped && s != ParticipationExcluded
}
