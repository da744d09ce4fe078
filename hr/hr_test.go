package hr_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamedkandolo/Projet-RH/calendar"
	"github.com/Mohamedkandolo/Projet-RH/forms"
	"github.com/Mohamedkandolo/Projet-RH/hr"
	"github.com/Mohamedkandolo/Projet-RH/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const actor hr.Actor = "rh.manager"

var fixedNow = time.Date(2024, time.June, 3, 8, 30, 0, 0, time.UTC)

type fixture struct {
	svc    *hr.Service
	bureau hr.Bureau
	grade  hr.Grade
}

func newTestHR(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := hr.NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.Now = func() time.Time { return fixedNow }

	ctx := context.Background()
	dir, err := svc.SaveDirection(ctx, "", hr.Direction{Name: "Direction RH", Code: "DRH"})
	require.NoError(t, err)
	bureau, err := svc.SaveBureau(ctx, "", hr.Bureau{Name: "Bureau Carrières", Code: "BC", DirectionID: dir.ID})
	require.NoError(t, err)
	grade, err := svc.SaveGrade(ctx, "", hr.Grade{Name: "Attaché 1", Code: "A1", Level: 1})
	require.NoError(t, err)

	return &fixture{svc: svc, bureau: bureau, grade: grade}
}

func (f *fixture) agentInput(lastName string) hr.Agent {
	return hr.Agent{
		LastName:   lastName,
		FirstNames: "Marie",
		BirthDate:  calendar.MustParse("1990-01-15"),
		BirthPlace: "Lubumbashi",
		Sex:        "F",
		GradeID:    f.grade.ID,
		BureauID:   f.bureau.ID,
		HireDate:   calendar.MustParse("2015-03-01"),
	}
}

func (f *fixture) addAgent(t *testing.T, lastName string) hr.Agent {
	t.Helper()
	a, err := f.svc.SaveAgent(context.Background(), "", f.agentInput(lastName), actor)
	require.NoError(t, err)
	return a
}

func fieldErrors(t *testing.T, err error) forms.FieldErrors {
	t.Helper()
	fe, ok := forms.AsFieldErrors(err)
	require.True(t, ok, "expected field errors, got %v", err)
	return fe
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// MATRICULES
// =============================================================================

func TestNextMatricule(t *testing.T) {
	assert.Equal(t, "M0001", hr.NextMatricule(nil))
	assert.Equal(t, "M0008", hr.NextMatricule([]string{"M0002", "M0007", "X-99", "legacy"}))
	assert.Equal(t, "M10000", hr.NextMatricule([]string{"M9999"}))
}

func TestSaveAgent_GeneratesMatriculeAndDefaults(t *testing.T) {
	// GIVEN: No agent yet
	// WHEN: Two agents are created without a matricule
	// THEN: They get M0001 then M0002, with the default nationality and statuses

	f := newTestHR(t)

	first := f.addAgent(t, "Mbuyi")
	second := f.addAgent(t, "Ilunga")

	assert.Equal(t, "M0001", first.Matricule)
	assert.Equal(t, "M0002", second.Matricule)
	assert.Equal(t, hr.DefaultNationality, first.Nationality)
	assert.Equal(t, hr.Single, first.MaritalStatus)
	assert.Equal(t, hr.AgentActive, first.Status)
	assert.True(t, first.Active)
	assert.Equal(t, actor, first.CreatedBy)
	assert.Equal(t, "Attaché 1", first.GradeName)
}

func TestSaveAgent_UpdateKeepsMatricule(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()
	a := f.addAgent(t, "Mbuyi")

	in := f.agentInput("Mbuyi Kalala")
	in.Phone = "+243810000000"
	updated, err := f.svc.SaveAgent(ctx, a.ID, in, "someone.else")
	require.NoError(t, err)

	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, a.Matricule, updated.Matricule)
	assert.Equal(t, actor, updated.CreatedBy)
	assert.Equal(t, "Mbuyi Kalala", updated.LastName)
}

func TestSaveAgent_ValidationErrors(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()

	in := f.agentInput("Mbuyi")
	in.Sex = "X"
	in.HireDate = calendar.MustParse("1980-01-01")
	in.MaritalStatus = hr.Single
	in.SpouseName = "Someone"
	in.GradeID = "no-such-grade"

	_, err := f.svc.SaveAgent(ctx, "", in, actor)
	fe := fieldErrors(t, err)
	assert.True(t, fe.Has("sex"))
	assert.True(t, fe.Has("hire_date"))
	assert.True(t, fe.Has("spouse_name"))
	assert.True(t, fe.Has("grade_id"))
}

func TestSaveAgent_DuplicateMatricule(t *testing.T) {
	f := newTestHR(t)
	a := f.addAgent(t, "Mbuyi")

	in := f.agentInput("Other")
	in.Matricule = a.Matricule
	_, err := f.svc.SaveAgent(context.Background(), "", in, actor)
	assert.ErrorIs(t, err, hr.ErrDuplicate)
	assert.True(t, hr.IsConflict(err))
}

func TestDeactivateAgent_HidesFromDefaultList(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()
	a := f.addAgent(t, "Mbuyi")
	f.addAgent(t, "Ilunga")

	require.NoError(t, f.svc.DeactivateAgent(ctx, a.ID, actor))

	listed, total, err := f.svc.ListAgents(ctx, hr.AgentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, listed, 1)
	assert.Equal(t, "Ilunga", listed[0].LastName)

	_, total, err = f.svc.ListAgents(ctx, hr.AgentFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestGetAgent_NotFound(t *testing.T) {
	f := newTestHR(t)
	_, err := f.svc.GetAgent(context.Background(), "missing")
	assert.True(t, hr.IsNotFound(err))
}

// =============================================================================
// CAREER
// =============================================================================

func TestSavePromotion_FillsFromGradeAndRejectsSameGrade(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()
	a := f.addAgent(t, "Mbuyi")
	next, err := f.svc.SaveGrade(ctx, "", hr.Grade{Name: "Attaché 2", Code: "A2", Level: 2})
	require.NoError(t, err)

	p, err := f.svc.SavePromotion(ctx, "", hr.Promotion{
		AgentID: a.ID, ToGradeID: next.ID, Type: hr.PromotionGrade,
		Date: calendar.MustParse("2024-01-01"), Reason: "Ancienneté",
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, f.grade.ID, p.FromGradeID)
	assert.Equal(t, "Attaché 1", p.FromGradeName)
	assert.Equal(t, "Attaché 2", p.ToGradeName)

	_, err = f.svc.SavePromotion(ctx, "", hr.Promotion{
		AgentID: a.ID, ToGradeID: f.grade.ID, Type: hr.PromotionGrade,
		Date: calendar.MustParse("2024-01-01"), Reason: "Erreur",
	}, actor)
	assert.True(t, fieldErrors(t, err).Has("to_grade_id"))
}

func TestSaveAffectation_EndedNeedsEndDate(t *testing.T) {
	f := newTestHR(t)
	a := f.addAgent(t, "Mbuyi")

	_, err := f.svc.SaveAffectation(context.Background(), "", hr.Affectation{
		AgentID: a.ID, BureauID: f.bureau.ID, Functions: "Chef de bureau",
		StartDate: calendar.MustParse("2020-01-01"), Status: hr.AffectationEnded,
	}, actor)
	assert.True(t, fieldErrors(t, err).Has("end_date"))
}

// =============================================================================
// BUDGET POSTS
// =============================================================================

func (f *fixture) budgetPostInput(code string) hr.BudgetPost {
	return hr.BudgetPost{
		Code:                 code,
		Title:                "Chef de bureau carrières",
		Type:                 hr.PostPermanent,
		GradeID:              f.grade.ID,
		BureauID:             f.bureau.ID,
		Missions:             "Suivi des dossiers de carrière",
		RequiredCompetences:  "Droit administratif",
		HierarchicalPosition: "Chef de bureau",
	}
}

func TestSaveBudgetPost_CreatesAndRejectsDuplicateCode(t *testing.T) {
	// GIVEN: A bureau and a grade
	// WHEN: A post is created, then a second one reuses its code
	// THEN: The first is active with joined names, the second is a conflict

	f := newTestHR(t)
	ctx := context.Background()

	post, err := f.svc.SaveBudgetPost(ctx, "", f.budgetPostInput("PB-001"))
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.True(t, post.Active)
	assert.False(t, post.Filled)
	assert.Equal(t, "Attaché 1", post.GradeName)
	assert.Equal(t, "Bureau Carrières", post.BureauName)

	_, err = f.svc.SaveBudgetPost(ctx, "", f.budgetPostInput("PB-001"))
	assert.ErrorIs(t, err, hr.ErrDuplicate)
	assert.True(t, hr.IsConflict(err))
}

func TestSaveBudgetPost_ValidationErrors(t *testing.T) {
	f := newTestHR(t)

	in := f.budgetPostInput("PB-002")
	in.Type = "TEMPORARY"
	in.GradeID = "no-such-grade"
	in.BureauID = "no-such-bureau"
	in.Missions = ""

	_, err := f.svc.SaveBudgetPost(context.Background(), "", in)
	fe := fieldErrors(t, err)
	assert.True(t, fe.Has("type"))
	assert.True(t, fe.Has("grade_id"))
	assert.True(t, fe.Has("bureau_id"))
	assert.True(t, fe.Has("missions"))
}

func TestBudgetPost_UpdateDeactivateAndList(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()
	post, err := f.svc.SaveBudgetPost(ctx, "", f.budgetPostInput("PB-003"))
	require.NoError(t, err)
	intern := f.budgetPostInput("PB-004")
	intern.Type = hr.PostIntern
	_, err = f.svc.SaveBudgetPost(ctx, "", intern)
	require.NoError(t, err)

	in := f.budgetPostInput("PB-003")
	in.Filled = true
	updated, err := f.svc.SaveBudgetPost(ctx, post.ID, in)
	require.NoError(t, err)
	assert.Equal(t, post.ID, updated.ID)
	assert.True(t, updated.Filled)

	interns, err := f.svc.ListBudgetPosts(ctx, hr.BudgetPostFilter{Type: hr.PostIntern})
	require.NoError(t, err)
	require.Len(t, interns, 1)
	assert.Equal(t, "PB-004", interns[0].Code)

	require.NoError(t, f.svc.DeactivateBudgetPost(ctx, post.ID))
	active, err := f.svc.ListBudgetPosts(ctx, hr.BudgetPostFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "PB-004", active[0].Code)

	_, err = f.svc.GetBudgetPost(ctx, "missing")
	assert.True(t, hr.IsNotFound(err))
}

func TestSaveAffectation_LinksBudgetPost(t *testing.T) {
	// GIVEN: An agent and a budget post
	// WHEN: An affectation names the post, and another names an unknown one
	// THEN: The first carries the post title and lists by post, the second is a field error

	f := newTestHR(t)
	ctx := context.Background()
	a := f.addAgent(t, "Mbuyi")
	post, err := f.svc.SaveBudgetPost(ctx, "", f.budgetPostInput("PB-005"))
	require.NoError(t, err)

	in := hr.Affectation{
		AgentID: a.ID, BureauID: f.bureau.ID, BudgetPostID: post.ID, Functions: "Chef de bureau",
		StartDate: calendar.MustParse("2022-01-01"),
	}
	aff, err := f.svc.SaveAffectation(ctx, "", in, actor)
	require.NoError(t, err)
	assert.Equal(t, post.ID, aff.BudgetPostID)
	assert.Equal(t, "Chef de bureau carrières", aff.BudgetPostTitle)

	byPost, err := f.svc.ListAffectations(ctx, hr.RecordFilter{BudgetPostID: post.ID})
	require.NoError(t, err)
	require.Len(t, byPost, 1)
	assert.Equal(t, aff.ID, byPost[0].ID)

	in.BudgetPostID = "no-such-post"
	_, err = f.svc.SaveAffectation(ctx, "", in, actor)
	assert.True(t, fieldErrors(t, err).Has("budget_post_id"))

	// An affectation without a post stays valid
	in.BudgetPostID = ""
	plain, err := f.svc.SaveAffectation(ctx, "", in, actor)
	require.NoError(t, err)
	assert.Empty(t, plain.BudgetPostID)
	assert.Empty(t, plain.BudgetPostTitle)
}

// =============================================================================
// COTATIONS
// =============================================================================

func TestCotation_ScoreIsMeanOfCriteria(t *testing.T) {
	c := hr.Cotation{
		ProfessionalConduct: dec("15"),
		Attendance:          dec("16"),
		Objectives:          dec("14"),
		WorkQuality:         dec("17"),
		TeamSpirit:          dec("13.5"),
	}
	c.Score()
	assert.True(t, dec("15.1").Equal(c.OverallScore), c.OverallScore.String())
}

func TestSaveCotation_ValidatedIsFrozen(t *testing.T) {
	// GIVEN: A semi-annual cotation
	// WHEN: It is validated
	// THEN: It can no longer be edited, validated again or deleted

	f := newTestHR(t)
	ctx := context.Background()
	a := f.addAgent(t, "Mbuyi")

	in := hr.Cotation{
		AgentID: a.ID, Periodicity: hr.SemiAnnual, Year: 2024, Semester: 1,
		ProfessionalConduct: dec("12"), Attendance: dec("14"), Objectives: dec("16"),
		WorkQuality: dec("18"), TeamSpirit: dec("10"),
	}
	c, err := f.svc.SaveCotation(ctx, "", in, actor)
	require.NoError(t, err)
	assert.True(t, dec("14").Equal(c.OverallScore))
	assert.False(t, c.Validated())
	assert.Equal(t, actor, c.EvaluatedBy)

	validated, err := f.svc.ValidateCotation(ctx, c.ID, "director")
	require.NoError(t, err)
	assert.True(t, validated.Validated())
	assert.Equal(t, hr.Actor("director"), validated.ValidatedBy)

	_, err = f.svc.ValidateCotation(ctx, c.ID, "director")
	assert.ErrorIs(t, err, hr.ErrAlreadyValidated)
	_, err = f.svc.SaveCotation(ctx, c.ID, in, actor)
	assert.ErrorIs(t, err, hr.ErrAlreadyValidated)
	assert.ErrorIs(t, f.svc.DeleteCotation(ctx, c.ID), hr.ErrAlreadyValidated)

	pending, err := f.svc.ListCotations(ctx, hr.RecordFilter{AgentID: a.ID, Status: "PENDING"})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSaveCotation_SemesterRulesAndUniqueness(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()
	a := f.addAgent(t, "Mbuyi")

	_, err := f.svc.SaveCotation(ctx, "", hr.Cotation{AgentID: a.ID, Periodicity: hr.SemiAnnual, Year: 2024}, actor)
	assert.True(t, fieldErrors(t, err).Has("semester"))

	_, err = f.svc.SaveCotation(ctx, "", hr.Cotation{AgentID: a.ID, Periodicity: hr.Annual, Year: 2024, Semester: 2}, actor)
	assert.True(t, fieldErrors(t, err).Has("semester"))

	_, err = f.svc.SaveCotation(ctx, "", hr.Cotation{AgentID: a.ID, Periodicity: hr.Annual, Year: 2024}, actor)
	require.NoError(t, err)
	_, err = f.svc.SaveCotation(ctx, "", hr.Cotation{AgentID: a.ID, Periodicity: hr.Annual, Year: 2024}, actor)
	assert.ErrorIs(t, err, hr.ErrDuplicate)
}

// =============================================================================
// DISCIPLINE
// =============================================================================

func TestSaveDisciplinaryAction_Rules(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()
	a := f.addAgent(t, "Mbuyi")

	_, err := f.svc.SaveDisciplinaryAction(ctx, "", hr.DisciplinaryAction{
		AgentID: a.ID, Fault: hr.FaultLateness, Description: "Retards répétés",
		FaultDate:        calendar.MustParse("2024-05-10"),
		NotificationDate: calendar.MustParse("2024-05-01"),
		Status:           hr.DisciplineSanctioned,
		Sanction:         hr.SanctionWarning,
		SanctionDays:     3,
	}, actor)
	fe := fieldErrors(t, err)
	assert.True(t, fe.Has("notification_date"))
	assert.True(t, fe.Has("sanction_days"))

	d, err := f.svc.SaveDisciplinaryAction(ctx, "", hr.DisciplinaryAction{
		AgentID: a.ID, Fault: hr.FaultLateness, Description: "Retards répétés",
		FaultDate: calendar.MustParse("2024-05-10"),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, hr.DisciplineOpen, d.Status)
	assert.Equal(t, actor, d.CreatedBy)
}

// =============================================================================
// TRAINING
// =============================================================================

func (f *fixture) addTraining(t *testing.T, code string, seats int) hr.Training {
	t.Helper()
	tr, err := f.svc.SaveTraining(context.Background(), "", hr.Training{
		Code: code, Title: "Formation " + code, Type: hr.TrainingType("INTERNAL"),
		StartDate: calendar.MustParse("2024-07-01"), EndDate: calendar.MustParse("2024-07-05"),
		Seats: seats,
	})
	require.NoError(t, err)
	return tr
}

func TestSaveParticipation_SeatLimit(t *testing.T) {
	// GIVEN: A training with one seat
	// WHEN: A second agent enrolls, then the first one drops out
	// THEN: The second enrolment is refused until the seat is released

	f := newTestHR(t)
	ctx := context.Background()
	first := f.addAgent(t, "Mbuyi")
	second := f.addAgent(t, "Ilunga")
	tr := f.addTraining(t, "EXCEL", 1)

	p, err := f.svc.SaveParticipation(ctx, "", hr.Participation{AgentID: first.ID, TrainingID: tr.ID}, actor)
	require.NoError(t, err)
	assert.Equal(t, hr.ParticipationEnrolled, p.Status)

	_, err = f.svc.SaveParticipation(ctx, "", hr.Participation{AgentID: second.ID, TrainingID: tr.ID}, actor)
	assert.ErrorIs(t, err, hr.ErrTrainingFull)

	_, err = f.svc.SaveParticipation(ctx, p.ID, hr.Participation{
		AgentID: first.ID, TrainingID: tr.ID, Status: hr.ParticipationDropped,
	}, actor)
	require.NoError(t, err)

	_, err = f.svc.SaveParticipation(ctx, "", hr.Participation{AgentID: second.ID, TrainingID: tr.ID}, actor)
	require.NoError(t, err)
}

func TestSaveParticipation_ClosedTraining(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()
	a := f.addAgent(t, "Mbuyi")
	tr := f.addTraining(t, "WORD", 0)

	in := tr
	in.Status = hr.TrainingCancelled
	_, err := f.svc.SaveTraining(ctx, tr.ID, in)
	require.NoError(t, err)

	_, err = f.svc.SaveParticipation(ctx, "", hr.Participation{AgentID: a.ID, TrainingID: tr.ID}, actor)
	assert.ErrorIs(t, err, hr.ErrTrainingClosed)
}

func TestSaveParticipation_ScoreRange(t *testing.T) {
	f := newTestHR(t)
	a := f.addAgent(t, "Mbuyi")
	tr := f.addTraining(t, "PPT", 0)

	score := dec("25")
	_, err := f.svc.SaveParticipation(context.Background(), "", hr.Participation{
		AgentID: a.ID, TrainingID: tr.ID, Score: &score,
	}, actor)
	assert.True(t, fieldErrors(t, err).Has("score"))
}

// =============================================================================
// DOSSIER
// =============================================================================

func TestDossier_GathersAgentRecords(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()
	a := f.addAgent(t, "Mbuyi")
	other := f.addAgent(t, "Ilunga")

	_, err := f.svc.SaveAffectation(ctx, "", hr.Affectation{
		AgentID: a.ID, BureauID: f.bureau.ID, Functions: "Gestionnaire",
		StartDate: calendar.MustParse("2022-01-01"),
	}, actor)
	require.NoError(t, err)
	_, err = f.svc.SaveCotation(ctx, "", hr.Cotation{AgentID: a.ID, Periodicity: hr.Annual, Year: 2023}, actor)
	require.NoError(t, err)
	_, err = f.svc.SaveCotation(ctx, "", hr.Cotation{AgentID: other.ID, Periodicity: hr.Annual, Year: 2023}, actor)
	require.NoError(t, err)

	d, err := f.svc.Dossier(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, d.Agent.ID)
	require.NotNil(t, d.CurrentAffectation())
	assert.Equal(t, "Gestionnaire", d.CurrentAffectation().Functions)
	require.Len(t, d.Cotations, 1)
	assert.Equal(t, 2023, d.LatestCotation().Year)
	assert.NotNil(t, d.Promotions)
	assert.Empty(t, d.Promotions)

	_, err = f.svc.Dossier(ctx, "missing")
	assert.True(t, hr.IsNotFound(err))
}

func TestStats_CountsRecords(t *testing.T) {
	f := newTestHR(t)
	ctx := context.Background()
	f.addAgent(t, "Mbuyi")
	post, err := f.svc.SaveBudgetPost(ctx, "", f.budgetPostInput("PB-010"))
	require.NoError(t, err)
	_, err = f.svc.SaveBudgetPost(ctx, "", f.budgetPostInput("PB-011"))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeactivateBudgetPost(ctx, post.ID))

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Directions)
	assert.Equal(t, 1, stats.Bureaus)
	assert.Equal(t, 1, stats.Grades)
	assert.Equal(t, 1, stats.BudgetPosts)
	assert.Equal(t, 1, stats.Agents)
	assert.Equal(t, 1, stats.ActiveAgents)
}
