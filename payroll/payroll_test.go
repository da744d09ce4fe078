package payroll_test

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
	"github.com/Mohamedkandolo/Projet-RH/payroll"
	"github.com/Mohamedkandolo/Projet-RH/payroll/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const actor payroll.Actor = "admin"

var fixedNow = time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *payroll.Service
	store  *store.Memory
	period payroll.PayPeriod
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestPayroll(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	svc := payroll.NewService(mem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.Now = func() time.Time { return fixedNow }

	ctx := context.Background()
	p, err := svc.OpenPeriod(ctx, payroll.PeriodInput{Year: 2024, Month: 3}, actor)
	require.NoError(t, err)

	return &fixture{svc: svc, store: mem, period: p}
}

// addElement creates an active, computable element.
func (f *fixture) addElement(t *testing.T, code string, kind payroll.ElementKind) payroll.PayElement {
	t.Helper()
	el, err := f.svc.SaveElement(context.Background(), "", payroll.ElementInput{
		Code: code, Name: code + " name", Kind: kind,
	})
	require.NoError(t, err)
	return el
}

func (f *fixture) addGrid(t *testing.T, gradeID string, el payroll.PayElement, amount string) payroll.GridEntry {
	t.Helper()
	g, err := f.svc.SaveGridEntry(context.Background(), "", payroll.GridEntryInput{
		GradeID: gradeID, ElementID: el.ID, Amount: dec(amount),
	})
	require.NoError(t, err)
	return g
}

func (f *fixture) addEmployee(id, matricule, gradeID string) payroll.Employee {
	e := payroll.Employee{
		ID: id, Matricule: matricule, LastName: "Agent", FirstNames: matricule,
		GradeID: gradeID, BureauName: "Bureau Paie", Status: payroll.EmployeeActive, Active: true,
	}
	f.store.PutEmployee(e)
	return e
}

// specExample seeds grade G1 = {SALARY_BASE 1000 GAIN, TAX 100 DEDUCTION}
// and one active employee A.
func (f *fixture) specExample(t *testing.T) payroll.Employee {
	f.store.PutGrade("G1", "Grade 1", true)
	base := f.addElement(t, "SALARY_BASE", payroll.KindGain)
	tax := f.addElement(t, "TAX", payroll.KindDeduction)
	f.addGrid(t, "G1", base, "1000")
	f.addGrid(t, "G1", tax, "100")
	return f.addEmployee("emp-a", "M0001", "G1")
}

// =============================================================================
// TOTALS
// =============================================================================

func TestComputeTotals_NetIsGainsMinusDeductionsMinusContributions(t *testing.T) {
	totals := payroll.ComputeTotals([]payroll.Movement{
		{ElementKind: payroll.KindGain, Amount: dec("1000.50")},
		{ElementKind: payroll.KindGain, Amount: dec("200")},
		{ElementKind: payroll.KindDeduction, Amount: dec("100.25")},
		{ElementKind: payroll.KindContribution, Amount: dec("50")},
	})

	assert.True(t, dec("1200.50").Equal(totals.Gains))
	assert.True(t, dec("100.25").Equal(totals.Deductions))
	assert.True(t, dec("50").Equal(totals.Contributions))
	assert.True(t, dec("1050.25").Equal(totals.Net))
}

func TestComputeTotals_NoMovementsIsZero(t *testing.T) {
	totals := payroll.ComputeTotals(nil)
	assert.True(t, totals.Gains.IsZero())
	assert.True(t, totals.Deductions.IsZero())
	assert.True(t, totals.Contributions.IsZero())
	assert.True(t, totals.Net.IsZero())
}

// =============================================================================
// PERIOD STATE MACHINE
// =============================================================================

func TestNewPayPeriod_DefaultsToWholeMonth(t *testing.T) {
	p, err := payroll.NewPayPeriod("p1", 2024, 2, calendar.Date{}, calendar.Date{}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", p.StartDate.String())
	assert.Equal(t, "2024-02-29", p.EndDate.String())
	assert.Equal(t, payroll.StatusOpen, p.Status)
	assert.Equal(t, "2024-02", p.Label())
}

func TestNewPayPeriod_RejectsEndBeforeStart(t *testing.T) {
	_, err := payroll.NewPayPeriod("p1", 2024, 3,
		calendar.MustParse("2024-03-31"), calendar.MustParse("2024-03-01"), fixedNow)
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)

	_, err = payroll.NewPayPeriod("p1", 2024, 13, calendar.Date{}, calendar.Date{}, fixedNow)
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

func TestPayPeriod_Transitions(t *testing.T) {
	p, err := payroll.NewPayPeriod("p1", 2024, 3, calendar.Date{}, calendar.Date{}, fixedNow)
	require.NoError(t, err)

	// OPEN cannot be archived directly
	var terr *payroll.TransitionError
	require.ErrorAs(t, p.Archive(fixedNow), &terr)
	assert.Equal(t, payroll.StatusOpen, terr.From)

	require.NoError(t, p.Close(fixedNow))
	assert.Equal(t, payroll.StatusClosed, p.Status)
	require.NotNil(t, p.ClosedAt)

	// CLOSED cannot be closed again
	assert.ErrorIs(t, p.Close(fixedNow), payroll.ErrInvalidTransition)

	require.NoError(t, p.Archive(fixedNow))
	assert.Equal(t, payroll.StatusArchived, p.Status)
	require.NotNil(t, p.ArchivedAt)

	// ARCHIVED is terminal
	assert.ErrorIs(t, p.Close(fixedNow), payroll.ErrInvalidTransition)
	assert.ErrorIs(t, p.Archive(fixedNow), payroll.ErrInvalidTransition)
	assert.False(t, p.Writable())
	assert.ErrorIs(t, p.RequireWritable("edit"), payroll.ErrPeriodReadOnly)
}

func TestService_OpenPeriod_DuplicateMonthRejected(t *testing.T) {
	f := newTestPayroll(t)

	_, err := f.svc.OpenPeriod(context.Background(), payroll.PeriodInput{Year: 2024, Month: 3}, actor)
	assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)
}

func TestService_UpdateAndDeletePeriod_OnlyWhileOpen(t *testing.T) {
	f := newTestPayroll(t)
	ctx := context.Background()

	updated, err := f.svc.UpdatePeriod(ctx, f.period.ID, payroll.PeriodInput{Year: 2024, Month: 4, Comment: "moved"})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-30", updated.EndDate.String())
	assert.Equal(t, "moved", updated.Comment)

	_, err = f.svc.ClosePeriod(ctx, f.period.ID, actor)
	require.NoError(t, err)

	_, err = f.svc.UpdatePeriod(ctx, f.period.ID, payroll.PeriodInput{Year: 2024, Month: 5})
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
	assert.ErrorIs(t, f.svc.DeletePeriod(ctx, f.period.ID, actor), payroll.ErrInvalidTransition)
}

// =============================================================================
// MOVEMENT GENERATOR
// =============================================================================

func TestGenerator_IsIdempotent(t *testing.T) {
	// GIVEN: Grade G1 with two grid entries and an active employee
	// WHEN: Generation runs twice for the same period
	// THEN: Exactly one movement exists per element, with the grid amount

	f := newTestPayroll(t)
	emp := f.specExample(t)
	ctx := context.Background()
	gen := &payroll.MovementGenerator{Store: f.store, Now: func() time.Time { return fixedNow }}

	first, err := gen.Generate(ctx, f.period, emp, actor)
	require.NoError(t, err)
	assert.Len(t, first.Movements, 2)

	second, err := gen.Generate(ctx, f.period, emp, actor)
	require.NoError(t, err)
	assert.Len(t, second.Movements, 2)

	stored, err := f.store.ListMovements(ctx, payroll.MovementFilter{PeriodID: f.period.ID, EmployeeID: emp.ID})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, first.Movements[0].ID, second.Movements[0].ID, "rerun updates in place")
}

func TestGenerator_KeepsCommentAndFollowsGridChanges(t *testing.T) {
	f := newTestPayroll(t)
	emp := f.specExample(t)
	ctx := context.Background()
	gen := &payroll.MovementGenerator{Store: f.store}

	res, err := gen.Generate(ctx, f.period, emp, actor)
	require.NoError(t, err)

	// A clerk annotates the salary movement
	salary := res.Movements[0]
	require.Equal(t, "SALARY_BASE", salary.ElementCode)
	_, err = f.svc.SaveMovement(ctx, salary.ID, payroll.MovementInput{
		PeriodID: f.period.ID, EmployeeID: emp.ID, ElementID: salary.ElementID,
		Amount: salary.Amount, Comment: "checked",
	}, "clerk")
	require.NoError(t, err)

	// The grid amount changes, then generation runs again
	grid, err := f.store.ListGridEntries(ctx, payroll.GridFilter{GradeID: "G1", ElementID: salary.ElementID})
	require.NoError(t, err)
	_, err = f.svc.SaveGridEntry(ctx, grid[0].ID, payroll.GridEntryInput{
		GradeID: "G1", ElementID: salary.ElementID, Amount: dec("1200"),
	})
	require.NoError(t, err)

	_, err = gen.Generate(ctx, f.period, emp, "payroll-officer")
	require.NoError(t, err)

	got, err := f.svc.GetMovement(ctx, salary.ID)
	require.NoError(t, err)
	assert.True(t, dec("1200").Equal(got.Amount))
	assert.Equal(t, "checked", got.Comment)
	assert.Equal(t, payroll.Actor("payroll-officer"), got.CreatedBy)
}

func TestGenerator_SkipsDeactivatedAndManualElements(t *testing.T) {
	f := newTestPayroll(t)
	emp := f.specExample(t)
	ctx := context.Background()

	bonus := f.addElement(t, "BONUS", payroll.KindGain)
	f.addGrid(t, "G1", bonus, "50")
	require.NoError(t, f.svc.DeactivateElement(ctx, bonus.ID))

	manual, err := f.svc.SaveElement(ctx, "", payroll.ElementInput{
		Code: "OVERTIME", Name: "Overtime", Kind: payroll.KindGain, Computable: boolPtr(false),
	})
	require.NoError(t, err)
	f.addGrid(t, "G1", manual, "75")

	inactiveGrid := f.addGrid(t, "G1", f.addElement(t, "MEAL", payroll.KindGain), "20")
	require.NoError(t, f.svc.DeactivateGridEntry(ctx, inactiveGrid.ID))

	gen := &payroll.MovementGenerator{Store: f.store, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	res, err := gen.Generate(ctx, f.period, emp, actor)
	require.NoError(t, err)

	assert.Len(t, res.Movements, 2, "only SALARY_BASE and TAX apply")
	require.Len(t, res.Skipped, 2)
	reasons := map[string]string{}
	for _, s := range res.Skipped {
		reasons[s.ElementCode] = s.Reason
	}
	assert.Equal(t, "element deactivated", reasons["BONUS"])
	assert.Equal(t, "element is not computable", reasons["OVERTIME"])
}

func TestGenerator_SkipsDeactivatedGrade(t *testing.T) {
	f := newTestPayroll(t)
	emp := f.specExample(t)
	f.store.PutGrade("G1", "Grade 1", false)

	gen := &payroll.MovementGenerator{Store: f.store}
	res, err := gen.Generate(context.Background(), f.period, emp, actor)
	require.NoError(t, err)
	assert.Empty(t, res.Movements)
	assert.Len(t, res.Skipped, 2)
}

func TestGenerator_RequiresOpenPeriod(t *testing.T) {
	// GIVEN: A CLOSED period
	// WHEN: Generation is attempted
	// THEN: It fails with a precondition error and writes nothing

	f := newTestPayroll(t)
	emp := f.specExample(t)
	ctx := context.Background()

	closed, err := f.svc.ClosePeriod(ctx, f.period.ID, actor)
	require.NoError(t, err)

	gen := &payroll.MovementGenerator{Store: f.store}
	_, err = gen.Generate(ctx, closed, emp, actor)

	var perr *payroll.PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, payroll.StatusClosed, perr.Status)

	n, err := f.store.CountMovements(ctx, payroll.MovementFilter{PeriodID: f.period.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGenerator_NoGridEntriesWritesNothing(t *testing.T) {
	f := newTestPayroll(t)
	emp := f.addEmployee("emp-x", "M0099", "G-EMPTY")

	gen := &payroll.MovementGenerator{Store: f.store}
	res, err := gen.Generate(context.Background(), f.period, emp, actor)
	require.NoError(t, err)
	assert.Empty(t, res.Movements)
}

// =============================================================================
// PAYSLIP CALCULATOR
// =============================================================================

func TestCalculator_ComputeOnceUnlessForced(t *testing.T) {
	// GIVEN: A computed payslip
	// WHEN: A movement changes and calculation runs without force
	// THEN: The payslip is unchanged; with force it reflects the new amount

	f := newTestPayroll(t)
	emp := f.specExample(t)
	ctx := context.Background()

	gen := &payroll.MovementGenerator{Store: f.store}
	res, err := gen.Generate(ctx, f.period, emp, actor)
	require.NoError(t, err)

	calc := &payroll.PayslipCalculator{Store: f.store}
	first, err := calc.Calculate(ctx, f.period, emp, actor, false)
	require.NoError(t, err)
	assert.True(t, first.Computed)
	assert.True(t, dec("900").Equal(first.Payslip.Net))
	assert.Equal(t, 30, first.Payslip.WorkedDays)
	assert.True(t, dec("173.33").Equal(first.Payslip.WorkedHours))

	tax := res.Movements[1]
	require.Equal(t, "TAX", tax.ElementCode)
	_, err = f.svc.SaveMovement(ctx, tax.ID, payroll.MovementInput{
		PeriodID: f.period.ID, EmployeeID: emp.ID, ElementID: tax.ElementID, Amount: dec("150"),
	}, actor)
	require.NoError(t, err)

	again, err := calc.Calculate(ctx, f.period, emp, actor, false)
	require.NoError(t, err)
	assert.False(t, again.Computed)
	assert.True(t, dec("900").Equal(again.Payslip.Net))

	forced, err := calc.Calculate(ctx, f.period, emp, actor, true)
	require.NoError(t, err)
	assert.True(t, forced.Computed)
	assert.True(t, dec("850").Equal(forced.Payslip.Net))
	assert.Equal(t, first.Payslip.ID, forced.Payslip.ID)
}

func TestCalculator_NoMovementsGivesZeroPayslip(t *testing.T) {
	f := newTestPayroll(t)
	emp := f.addEmployee("emp-x", "M0099", "G-EMPTY")

	calc := &payroll.PayslipCalculator{Store: f.store}
	res, err := calc.Calculate(context.Background(), f.period, emp, actor, false)
	require.NoError(t, err)
	assert.True(t, res.Payslip.Gains.IsZero())
	assert.True(t, res.Payslip.Net.IsZero())
}

func TestCalculator_NegativeNetIsStored(t *testing.T) {
	f := newTestPayroll(t)
	f.store.PutGrade("G2", "Grade 2", true)
	f.addGrid(t, "G2", f.addElement(t, "BASE", payroll.KindGain), "100")
	f.addGrid(t, "G2", f.addElement(t, "LOAN", payroll.KindDeduction), "300")
	emp := f.addEmployee("emp-n", "M0050", "G2")

	res, err := f.svc.RunPayroll(context.Background(), payroll.CalculationRequest{
		PeriodID: f.period.ID, EmployeeID: emp.ID,
	}, actor)
	require.NoError(t, err)
	require.Len(t, res.Payslips, 1)
	assert.True(t, dec("-200").Equal(res.Payslips[0].Net))
}

// =============================================================================
// CALCULATION TRIGGER
// =============================================================================

func TestRunPayroll_GradeG1GainAndTax(t *testing.T) {
	// GIVEN: Grade G1 = {SALARY_BASE 1000 GAIN, TAX 100 DEDUCTION}, employee A
	//        in G1, period 2024-03 OPEN
	// WHEN: Payroll runs for A
	// THEN: 2 movements, payslip gains 1000, deductions 100, contributions 0, net 900

	f := newTestPayroll(t)
	emp := f.specExample(t)
	ctx := context.Background()

	res, err := f.svc.RunPayroll(ctx, payroll.CalculationRequest{PeriodID: f.period.ID, EmployeeID: emp.ID}, actor)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Employees)
	assert.Equal(t, 1, res.Computed)
	assert.Equal(t, 2, res.MovementsWritten)

	slip, err := f.store.FindPayslip(ctx, f.period.ID, emp.ID)
	require.NoError(t, err)
	require.NotNil(t, slip)
	assert.True(t, dec("1000").Equal(slip.Gains))
	assert.True(t, dec("100").Equal(slip.Deductions))
	assert.True(t, slip.Contributions.IsZero())
	assert.True(t, dec("900").Equal(slip.Net))
	assert.Equal(t, actor, slip.ComputedBy)
}

func TestRunPayroll_AllEmployeesSkipsInactive(t *testing.T) {
	f := newTestPayroll(t)
	f.specExample(t)
	f.addEmployee("emp-b", "M0002", "G1")
	retired := f.addEmployee("emp-c", "M0003", "G1")
	retired.Status = "RETIRED"
	f.store.PutEmployee(retired)
	gone := f.addEmployee("emp-d", "M0004", "G1")
	gone.Active = false
	f.store.PutEmployee(gone)

	res, err := f.svc.RunPayroll(context.Background(), payroll.CalculationRequest{
		PeriodID: f.period.ID, AllEmployees: true,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Employees)
	assert.Len(t, res.Payslips, 2)

	// Running again without force leaves payslips untouched
	res, err = f.svc.RunPayroll(context.Background(), payroll.CalculationRequest{
		PeriodID: f.period.ID, AllEmployees: true,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Computed)
	assert.Equal(t, 2, res.Unchanged)
}

func TestRunPayroll_Validation(t *testing.T) {
	f := newTestPayroll(t)
	f.specExample(t)
	ctx := context.Background()

	_, err := f.svc.RunPayroll(ctx, payroll.CalculationRequest{PeriodID: f.period.ID}, actor)
	fe, ok := forms.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("employee_id"))

	_, err = f.svc.RunPayroll(ctx, payroll.CalculationRequest{AllEmployees: true}, actor)
	fe, ok = forms.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("period_id"))

	_, err = f.svc.RunPayroll(ctx, payroll.CalculationRequest{PeriodID: "missing", AllEmployees: true}, actor)
	fe, ok = forms.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "unknown pay period", fe["period_id"])
}

func TestRunPayroll_ClosedPeriodRejected(t *testing.T) {
	f := newTestPayroll(t)
	emp := f.specExample(t)
	ctx := context.Background()

	_, err := f.svc.ClosePeriod(ctx, f.period.ID, actor)
	require.NoError(t, err)

	_, err = f.svc.RunPayroll(ctx, payroll.CalculationRequest{PeriodID: f.period.ID, EmployeeID: emp.ID}, actor)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
	assert.True(t, payroll.IsConflict(err))
}

// =============================================================================
// ARCHIVAL
// =============================================================================

func runAndClose(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.RunPayroll(ctx, payroll.CalculationRequest{PeriodID: f.period.ID, AllEmployees: true}, actor)
	require.NoError(t, err)
	_, err = f.svc.ClosePeriod(ctx, f.period.ID, actor)
	require.NoError(t, err)
}

func TestArchivePeriod_WritesOneHistoryPerPayslip(t *testing.T) {
	// GIVEN: A CLOSED period with 2 payslips
	// WHEN: It is archived
	// THEN: 2 history rows exist, the period is ARCHIVED, a second run is refused

	f := newTestPayroll(t)
	f.specExample(t)
	f.addEmployee("emp-b", "M0002", "G1")
	runAndClose(t, f)
	ctx := context.Background()

	out, err := f.svc.ArchivePeriod(ctx, payroll.ArchiveRequest{
		PeriodID: f.period.ID, Comment: "march payroll", Confirm: true,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Archived)
	assert.Equal(t, payroll.StatusArchived, out.Period.Status)
	require.NotNil(t, out.Period.ArchivedAt)

	history, err := f.svc.ListHistory(ctx, payroll.HistoryFilter{PeriodID: f.period.ID})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "march payroll", history[0].Comment)
	assert.Equal(t, actor, history[0].ArchivedBy)

	_, err = f.svc.ArchivePeriod(ctx, payroll.ArchiveRequest{PeriodID: f.period.ID, Confirm: true}, actor)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	history, err = f.svc.ListHistory(ctx, payroll.HistoryFilter{PeriodID: f.period.ID})
	require.NoError(t, err)
	assert.Len(t, history, 2, "no duplicates after a refused rerun")
}

func TestArchivePeriod_SnapshotFormat(t *testing.T) {
	f := newTestPayroll(t)
	f.specExample(t)
	runAndClose(t, f)
	ctx := context.Background()

	_, err := f.svc.ArchivePeriod(ctx, payroll.ArchiveRequest{PeriodID: f.period.ID, Confirm: true}, actor)
	require.NoError(t, err)

	history, err := f.svc.ListHistory(ctx, payroll.HistoryFilter{EmployeeID: "emp-a"})
	require.NoError(t, err)
	require.Len(t, history, 1)

	assert.JSONEq(t, `{
		"periode": {"annee": 2024, "mois": 3, "date_debut": "2024-03-01", "date_fin": "2024-03-31"},
		"agent": {"matricule": "M0001", "nom": "Agent", "prenoms": "M0001", "grade": "Grade 1", "bureau": "Bureau Paie"},
		"totaux": {"total_gains": 1000, "total_retenues": 100, "total_cotisations": 0, "net_a_payer": 900},
		"mouvements": [
			{"element_paie": "SALARY_BASE name", "type_element": "GAIN", "montant": 1000, "base_calcul": 1000},
			{"element_paie": "TAX name", "type_element": "RETENUE", "montant": 100, "base_calcul": 100}
		]
	}`, string(history[0].Snapshot))
}

func TestBuildSnapshot_ZeroAmountHasNullBase(t *testing.T) {
	snap := payroll.BuildSnapshot(payroll.PayPeriod{Year: 2024, Month: 3}, payroll.Employee{}, payroll.Payslip{},
		[]payroll.Movement{{ElementName: "Prime", ElementKind: payroll.KindContribution, Amount: decimal.Zero}})

	require.Len(t, snap.Movements, 1)
	assert.Nil(t, snap.Movements[0].Base)
	assert.Equal(t, "COTISATION", snap.Movements[0].Kind)
}

func TestArchivePeriod_RequiresClosedAndConfirmation(t *testing.T) {
	f := newTestPayroll(t)
	f.specExample(t)
	ctx := context.Background()

	_, err := f.svc.ArchivePeriod(ctx, payroll.ArchiveRequest{PeriodID: f.period.ID}, actor)
	fe, ok := forms.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("confirm"))

	_, err = f.svc.ArchivePeriod(ctx, payroll.ArchiveRequest{PeriodID: f.period.ID, Confirm: true}, actor)
	var perr *payroll.PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, payroll.StatusOpen, perr.Status)
}

func TestArchivePeriod_ResumesAfterFailure(t *testing.T) {
	// GIVEN: A CLOSED period with 3 payslips and a store that fails after 1 history row
	// WHEN: Archival runs, then runs again once the store recovers
	// THEN: The first run leaves the period CLOSED; the second archives the rest
	//       without duplicating the first row

	f := newTestPayroll(t)
	f.specExample(t)
	f.addEmployee("emp-b", "M0002", "G1")
	f.addEmployee("emp-c", "M0003", "G1")
	runAndClose(t, f)
	ctx := context.Background()

	f.store.FailHistoryAfter(1)
	_, err := f.svc.ArchivePeriod(ctx, payroll.ArchiveRequest{PeriodID: f.period.ID, Confirm: true}, actor)
	var aerr *payroll.ArchiveError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.Archived)

	p, err := f.svc.GetPeriod(ctx, f.period.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusClosed, p.Status)

	f.store.FailHistoryAfter(-1)
	out, err := f.svc.ArchivePeriod(ctx, payroll.ArchiveRequest{PeriodID: f.period.ID, Confirm: true}, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Archived)
	assert.Equal(t, 1, out.AlreadyArchived)

	history, err := f.svc.ListHistory(ctx, payroll.HistoryFilter{PeriodID: f.period.ID})
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestArchivedPeriod_IsReadOnly(t *testing.T) {
	f := newTestPayroll(t)
	emp := f.specExample(t)
	runAndClose(t, f)
	ctx := context.Background()

	_, err := f.svc.ArchivePeriod(ctx, payroll.ArchiveRequest{PeriodID: f.period.ID, Confirm: true}, actor)
	require.NoError(t, err)

	movements, _, err := f.svc.ListMovements(ctx, payroll.MovementFilter{PeriodID: f.period.ID})
	require.NoError(t, err)
	require.NotEmpty(t, movements)

	assert.ErrorIs(t, f.svc.DeleteMovement(ctx, movements[0].ID), payroll.ErrPeriodReadOnly)

	slip, err := f.store.FindPayslip(ctx, f.period.ID, emp.ID)
	require.NoError(t, err)
	_, err = f.svc.RecalculatePayslip(ctx, slip.ID, actor)
	assert.ErrorIs(t, err, payroll.ErrPeriodReadOnly)
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestPeriodSummary_AggregatesPayslips(t *testing.T) {
	f := newTestPayroll(t)
	f.specExample(t)
	f.addEmployee("emp-b", "M0002", "G1")
	ctx := context.Background()

	_, err := f.svc.RunPayroll(ctx, payroll.CalculationRequest{PeriodID: f.period.ID, AllEmployees: true}, actor)
	require.NoError(t, err)

	sum, err := f.svc.PeriodSummary(ctx, f.period.ID)
	require.NoError(t, err)
	assert.Len(t, sum.Payslips, 2)
	assert.Equal(t, 4, sum.MovementCount)
	assert.True(t, dec("2000").Equal(sum.Totals.Gains))
	assert.True(t, dec("1800").Equal(sum.Totals.Net))

	_, counts, err := f.svc.ListPeriods(ctx, payroll.PeriodFilter{})
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodCounts{Open: 1}, counts)
}

func boolPtr(b bool) *bool { return &b }
