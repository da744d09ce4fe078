// Package store provides an in-memory payroll.TxStore for tests and demos.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Mohamedkandolo/Projet-RH/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data memoryData
}

type memoryData struct {
	periods   map[string]payroll.PayPeriod
	elements  map[string]payroll.PayElement
	grid      map[string]payroll.GridEntry
	grades    map[string]grade
	employees map[string]payroll.Employee
	movements map[string]payroll.Movement
	payslips  map[string]payroll.Payslip
	history   map[string]payroll.PayHistory

	// failHistoryAfter makes AppendHistory fail once that many rows exist.
	failHistoryAfter int
}

type grade struct {
	name   string
	active bool
}

type movementKey struct{ period, employee, element string }

func NewMemory() *Memory {
	return &Memory{data: memoryData{
		periods:          map[string]payroll.PayPeriod{},
		elements:         map[string]payroll.PayElement{},
		grid:             map[string]payroll.GridEntry{},
		grades:           map[string]grade{},
		employees:        map[string]payroll.Employee{},
		movements:        map[string]payroll.Movement{},
		payslips:         map[string]payroll.Payslip{},
		history:          map[string]payroll.PayHistory{},
		failHistoryAfter: -1,
	}}
}

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

// PutGrade registers a grade so grid entries can report its name and state.
func (m *Memory) PutGrade(id, name string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.grades[id] = grade{name: name, active: active}
}

// PutEmployee registers or replaces an employee.
func (m *Memory) PutEmployee(e payroll.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.data.grades[e.GradeID]; ok && e.GradeName == "" {
		e.GradeName = g.name
	}
	m.data.employees[e.ID] = e
}

// FailHistoryAfter makes AppendHistory return an error once n history rows
// are stored. A negative n disables the failure.
func (m *Memory) FailHistoryAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.failHistoryAfter = n
}

// =============================================================================
// PERIODS
// =============================================================================

func (m *Memory) SavePeriod(_ context.Context, p payroll.PayPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.data.periods {
		if id != p.ID && other.Year == p.Year && other.Month == p.Month {
			return payroll.ErrDuplicatePeriod
		}
	}
	m.data.periods[p.ID] = p
	return nil
}

func (m *Memory) GetPeriod(_ context.Context, id string) (*payroll.PayPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data.periods[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) FindPeriod(_ context.Context, year, month int) (*payroll.PayPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.data.periods {
		if p.Year == year && p.Month == month {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListPeriods(_ context.Context, f payroll.PeriodFilter) ([]payroll.PayPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.PayPeriod
	for _, p := range m.data.periods {
		if f.Year != 0 && p.Year != f.Year {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (m *Memory) DeletePeriod(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data.periods, id)
	for mid, mv := range m.data.movements {
		if mv.PeriodID == id {
			delete(m.data.movements, mid)
		}
	}
	for sid, slip := range m.data.payslips {
		if slip.PeriodID == id {
			delete(m.data.payslips, sid)
		}
	}
	return nil
}

// =============================================================================
// CATALOG
// =============================================================================

func (m *Memory) SaveElement(_ context.Context, e payroll.PayElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.data.elements {
		if id != e.ID && (other.Code == e.Code || other.Name == e.Name) {
			return payroll.ErrDuplicateElement
		}
	}
	m.data.elements[e.ID] = e
	return nil
}

func (m *Memory) GetElement(_ context.Context, id string) (*payroll.PayElement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data.elements[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListElements(_ context.Context, f payroll.ElementFilter) ([]payroll.PayElement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.PayElement
	for _, e := range m.data.elements {
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.ActiveOnly && !e.Active {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *Memory) SaveGridEntry(_ context.Context, g payroll.GridEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.elements[g.ElementID]; !ok {
		return payroll.ErrUnknownReference
	}
	for id, other := range m.data.grid {
		if id != g.ID && other.GradeID == g.GradeID && other.ElementID == g.ElementID {
			return payroll.ErrDuplicateGridEntry
		}
	}
	m.data.grid[g.ID] = g
	return nil
}

func (m *Memory) GetGridEntry(_ context.Context, id string) (*payroll.GridEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.data.grid[id]
	if !ok {
		return nil, nil
	}
	g = m.joinGrid(g)
	return &g, nil
}

func (m *Memory) ListGridEntries(_ context.Context, f payroll.GridFilter) ([]payroll.GridEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.GridEntry
	for _, g := range m.data.grid {
		if f.GradeID != "" && g.GradeID != f.GradeID {
			continue
		}
		if f.ElementID != "" && g.ElementID != f.ElementID {
			continue
		}
		if f.ActiveOnly && !g.Active {
			continue
		}
		out = append(out, m.joinGrid(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ElementCode < out[j].ElementCode })
	return out, nil
}

// joinGrid fills the read-only element and grade fields. Unknown grades
// count as active.
func (m *Memory) joinGrid(g payroll.GridEntry) payroll.GridEntry {
	el := m.data.elements[g.ElementID]
	g.ElementCode = el.Code
	g.ElementName = el.Name
	g.ElementKind = el.Kind
	g.ElementActive = el.Active
	g.ElementComputable = el.Computable

	g.GradeActive = true
	if gr, ok := m.data.grades[g.GradeID]; ok {
		g.GradeName = gr.name
		g.GradeActive = gr.active
	}
	return g
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id string) (*payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context, payableOnly bool) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.Employee
	for _, e := range m.data.employees {
		if payableOnly && !e.Payable() {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Matricule < out[j].Matricule })
	return out, nil
}

// =============================================================================
// MOVEMENTS
// =============================================================================

func (m *Memory) UpsertMovement(_ context.Context, mv payroll.Movement) (payroll.Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := movementKey{mv.PeriodID, mv.EmployeeID, mv.ElementID}
	for id, existing := range m.data.movements {
		if (movementKey{existing.PeriodID, existing.EmployeeID, existing.ElementID}) == key {
			existing.Amount = mv.Amount
			existing.CreatedBy = mv.CreatedBy
			existing.UpdatedAt = mv.UpdatedAt
			m.data.movements[id] = existing
			return m.joinMovement(existing), nil
		}
	}
	m.data.movements[mv.ID] = mv
	return m.joinMovement(mv), nil
}

func (m *Memory) SaveMovement(_ context.Context, mv payroll.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := movementKey{mv.PeriodID, mv.EmployeeID, mv.ElementID}
	for id, existing := range m.data.movements {
		if id != mv.ID && (movementKey{existing.PeriodID, existing.EmployeeID, existing.ElementID}) == key {
			return payroll.ErrDuplicateMovement
		}
	}
	m.data.movements[mv.ID] = mv
	return nil
}

func (m *Memory) GetMovement(_ context.Context, id string) (*payroll.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mv, ok := m.data.movements[id]
	if !ok {
		return nil, nil
	}
	mv = m.joinMovement(mv)
	return &mv, nil
}

func (m *Memory) ListMovements(_ context.Context, f payroll.MovementFilter) ([]payroll.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.matchMovements(f)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) CountMovements(_ context.Context, f payroll.MovementFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matchMovements(f)), nil
}

func (m *Memory) matchMovements(f payroll.MovementFilter) []payroll.Movement {
	var out []payroll.Movement
	for _, mv := range m.data.movements {
		mv = m.joinMovement(mv)
		if f.PeriodID != "" && mv.PeriodID != f.PeriodID {
			continue
		}
		if f.EmployeeID != "" && mv.EmployeeID != f.EmployeeID {
			continue
		}
		if f.ElementID != "" && mv.ElementID != f.ElementID {
			continue
		}
		if f.Kind != "" && mv.ElementKind != f.Kind {
			continue
		}
		out = append(out, mv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].ElementCode < out[j].ElementCode
	})
	return out
}

func (m *Memory) joinMovement(mv payroll.Movement) payroll.Movement {
	el := m.data.elements[mv.ElementID]
	mv.ElementCode = el.Code
	mv.ElementName = el.Name
	mv.ElementKind = el.Kind
	mv.EmployeeName = m.data.employees[mv.EmployeeID].FullName()
	return mv
}

func (m *Memory) DeleteMovement(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data.movements, id)
	return nil
}

// =============================================================================
// PAYSLIPS
// =============================================================================

func (m *Memory) UpsertPayslip(_ context.Context, p payroll.Payslip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.data.payslips {
		if existing.PeriodID == p.PeriodID && existing.EmployeeID == p.EmployeeID {
			p.ID = id
			p.ComputedAt = existing.ComputedAt
			break
		}
	}
	m.data.payslips[p.ID] = p
	return nil
}

func (m *Memory) GetPayslip(_ context.Context, id string) (*payroll.Payslip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data.payslips[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) FindPayslip(_ context.Context, periodID, employeeID string) (*payroll.Payslip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.data.payslips {
		if p.PeriodID == periodID && p.EmployeeID == employeeID {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListPayslips(_ context.Context, f payroll.PayslipFilter) ([]payroll.Payslip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.Payslip
	for _, p := range m.data.payslips {
		if f.PeriodID != "" && p.PeriodID != f.PeriodID {
			continue
		}
		if f.EmployeeID != "" && p.EmployeeID != f.EmployeeID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// =============================================================================
// HISTORY
// =============================================================================

func (m *Memory) AppendHistory(_ context.Context, h payroll.PayHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data.failHistoryAfter >= 0 && len(m.data.history) >= m.data.failHistoryAfter {
		return errHistoryUnavailable
	}
	for _, existing := range m.data.history {
		if existing.PayslipID == h.PayslipID {
			return payroll.ErrHistoryExists
		}
	}
	m.data.history[h.ID] = h
	return nil
}

func (m *Memory) GetHistory(_ context.Context, id string) (*payroll.PayHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.data.history[id]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (m *Memory) HasHistory(_ context.Context, payslipID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.data.history {
		if h.PayslipID == payslipID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListHistory(_ context.Context, f payroll.HistoryFilter) ([]payroll.PayHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.PayHistory
	for _, h := range m.data.history {
		if f.PeriodID != "" && h.PeriodID != f.PeriodID {
			continue
		}
		if f.EmployeeID != "" && h.EmployeeID != f.EmployeeID {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn against the store and restores the previous state if
// fn fails. Transactions are serialized with each other but are not
// isolated from concurrent non-transactional writes.
func (m *Memory) WithTx(_ context.Context, fn func(payroll.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	saved := m.data.clone()
	m.mu.RUnlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.data = saved
		m.mu.Unlock()
		return err
	}
	return nil
}

func (d memoryData) clone() memoryData {
	return memoryData{
		periods:          cloneMap(d.periods),
		elements:         cloneMap(d.elements),
		grid:             cloneMap(d.grid),
		grades:           cloneMap(d.grades),
		employees:        cloneMap(d.employees),
		movements:        cloneMap(d.movements),
		payslips:         cloneMap(d.payslips),
		history:          cloneMap(d.history),
		failHistoryAfter: d.failHistoryAfter,
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type memoryError string

func (e memoryError) Error() string { return string(e) }

const errHistoryUnavailable = memoryError("history store unavailable")

var _ payroll.TxStore = (*Memory)(nil)
