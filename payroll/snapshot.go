package payroll

import (
	"encoding/json"
)

// =============================================================================
// ARCHIVE SNAPSHOT - Self-contained JSON copy of a payslip
// =============================================================================

// The json field names below are the archive format read by downstream
// consumers and must not be renamed.

type ArchiveSnapshot struct {
	Period    SnapshotPeriod     `json:"periode"`
	Agent     SnapshotAgent      `json:"agent"`
	Totals    SnapshotTotals     `json:"totaux"`
	Movements []SnapshotMovement `json:"mouvements"`
}

type SnapshotPeriod struct {
	Year      int    `json:"annee"`
	Month     int    `json:"mois"`
	StartDate string `json:"date_debut"`
	EndDate   string `json:"date_fin"`
}

type SnapshotAgent struct {
	Matricule  string `json:"matricule"`
	LastName   string `json:"nom"`
	FirstNames string `json:"prenoms"`
	Grade      string `json:"grade"`
	Bureau     string `json:"bureau"`
}

type SnapshotTotals struct {
	Gains         float64 `json:"total_gains"`
	Deductions    float64 `json:"total_retenues"`
	Contributions float64 `json:"total_cotisations"`
	Net           float64 `json:"net_a_payer"`
}

type SnapshotMovement struct {
	Element string  `json:"element_paie"`
	Kind    string  `json:"type_element"`
	Amount  float64 `json:"montant"`
	// Base is null when the amount is zero.
	Base *float64 `json:"base_calcul"`
}

// BuildSnapshot copies everything a reader of the archive needs, so it
// stays meaningful after the grid, elements or agent change.
func BuildSnapshot(period PayPeriod, emp Employee, slip Payslip, movements []Movement) ArchiveSnapshot {
	snap := ArchiveSnapshot{
		Period: SnapshotPeriod{
			Year:      period.Year,
			Month:     period.Month,
			StartDate: period.StartDate.String(),
			EndDate:   period.EndDate.String(),
		},
		Agent: SnapshotAgent{
			Matricule:  emp.Matricule,
			LastName:   emp.LastName,
			FirstNames: emp.FirstNames,
			Grade:      emp.GradeName,
			Bureau:     emp.BureauName,
		},
		Totals: SnapshotTotals{
			Gains:         slip.Gains.InexactFloat64(),
			Deductions:    slip.Deductions.InexactFloat64(),
			Contributions: slip.Contributions.InexactFloat64(),
			Net:           slip.Net.InexactFloat64(),
		},
		Movements: make([]SnapshotMovement, 0, len(movements)),
	}

	for _, m := range movements {
		amount := m.Amount.InexactFloat64()
		sm := SnapshotMovement{
			Element: m.ElementName,
			Kind:    m.ElementKind.ArchiveCode(),
			Amount:  amount,
		}
		if !m.Amount.IsZero() {
			base := amount
			sm.Base = &base
		}
		snap.Movements = append(snap.Movements, sm)
	}
	return snap
}

// Encode renders the snapshot for storage.
func (s ArchiveSnapshot) Encode() (json.RawMessage, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a stored snapshot.
func DecodeSnapshot(raw json.RawMessage) (ArchiveSnapshot, error) {
	var s ArchiveSnapshot
	err := json.Unmarshal(raw, &s)
	return s, err
}
