/*
dto.go - Request and response shapes specific to the HTTP API

PURPOSE:
  Domain types already carry their JSON tags and are returned as-is.
  This file only holds the wrappers the API adds around them: pages,
  errors, the dashboard, the full dossier and scenarios.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/Mohamedkandolo/Projet-RH/hr"
	"github.com/Mohamedkandolo/Projet-RH/payroll"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Page is a slice of a longer list.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type PeriodListDTO struct {
	Periods []payroll.PayPeriod  `json:"periods"`
	Counts  payroll.PeriodCounts `json:"counts"`
}

// DashboardDTO is the home page of the application.
type DashboardDTO struct {
	Stats         hr.Stats            `json:"stats"`
	RecentPeriods []payroll.PayPeriod `json:"recent_periods"`
	Agents        []hr.Agent          `json:"agents"`
}

// DossierDTO is an agent's HR dossier plus pay records.
type DossierDTO struct {
	hr.Dossier
	Payslips []payroll.Payslip    `json:"payslips"`
	History  []payroll.PayHistory `json:"pay_history"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type CurrentScenarioDTO struct {
	ScenarioID string `json:"scenario_id,omitempty"`
}
