package sqlite

import (
	"context"
	"fmt"
)

// resetOrder lists tables children first so Reset never trips a foreign key.
var resetOrder = []string{
	"pay_history",
	"payslips",
	"movements",
	"pay_periods",
	"salary_grid",
	"pay_elements",
	"participations",
	"trainings",
	"agent_competences",
	"competences",
	"disciplinary_actions",
	"cotations",
	"mutations",
	"promotions",
	"affectations",
	"agents",
	"budget_posts",
	"bureaus",
	"grades",
	"directions",
}

// migrate creates the database schema. Statements are idempotent so it
// runs on every start.
func (s *Store) migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	// -------------------------------------------------------------------------
	// Organization
	// -------------------------------------------------------------------------
	`CREATE TABLE IF NOT EXISTS directions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bureaus (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		direction_id TEXT NOT NULL REFERENCES directions(id),
		description TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (code, direction_id)
	)`,
	`CREATE TABLE IF NOT EXISTS grades (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		code TEXT NOT NULL UNIQUE,
		level INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS budget_posts (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		grade_id TEXT NOT NULL REFERENCES grades(id),
		bureau_id TEXT NOT NULL REFERENCES bureaus(id),
		missions TEXT NOT NULL,
		required_competences TEXT NOT NULL,
		hierarchical_position TEXT NOT NULL,
		filled INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_budget_posts_bureau ON budget_posts(bureau_id)`,

	// -------------------------------------------------------------------------
	// Agents
	// -------------------------------------------------------------------------
	`CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		matricule TEXT NOT NULL UNIQUE,
		last_name TEXT NOT NULL,
		first_names TEXT NOT NULL,
		birth_date TEXT,
		birth_place TEXT NOT NULL DEFAULT '',
		sex TEXT NOT NULL,
		nationality TEXT NOT NULL DEFAULT '',
		identification_number TEXT NOT NULL DEFAULT '',
		marital_status TEXT NOT NULL DEFAULT 'SINGLE',
		spouse_name TEXT NOT NULL DEFAULT '',
		children INTEGER NOT NULL DEFAULT 0,
		social_security_number TEXT NOT NULL DEFAULT '',
		diploma TEXT NOT NULL DEFAULT '',
		school TEXT NOT NULL DEFAULT '',
		graduation_year INTEGER NOT NULL DEFAULT 0,
		speciality TEXT NOT NULL DEFAULT '',
		grade_id TEXT NOT NULL REFERENCES grades(id),
		bureau_id TEXT NOT NULL REFERENCES bureaus(id),
		hire_date TEXT,
		nomination_date TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		bank TEXT NOT NULL DEFAULT '',
		account_number TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_name ON agents(last_name, first_names)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_grade ON agents(grade_id)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_bureau ON agents(bureau_id)`,

	// -------------------------------------------------------------------------
	// Career
	// -------------------------------------------------------------------------
	`CREATE TABLE IF NOT EXISTS affectations (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		bureau_id TEXT NOT NULL REFERENCES bureaus(id),
		budget_post_id TEXT REFERENCES budget_posts(id),
		functions TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		status TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		decision TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_affectations_agent ON affectations(agent_id, start_date DESC)`,
	`CREATE TABLE IF NOT EXISTS promotions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		from_grade_id TEXT REFERENCES grades(id),
		to_grade_id TEXT NOT NULL REFERENCES grades(id),
		type TEXT NOT NULL,
		date TEXT,
		reason TEXT NOT NULL,
		required_seniority INTEGER NOT NULL DEFAULT 0,
		required_score TEXT NOT NULL DEFAULT '0',
		decision TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_promotions_agent ON promotions(agent_id, date DESC)`,
	`CREATE TABLE IF NOT EXISTS mutations (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		from_bureau_id TEXT REFERENCES bureaus(id),
		to_bureau_id TEXT NOT NULL REFERENCES bureaus(id),
		date TEXT,
		reason TEXT NOT NULL,
		decision TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mutations_agent ON mutations(agent_id, date DESC)`,

	// -------------------------------------------------------------------------
	// Evaluation and discipline
	// -------------------------------------------------------------------------
	`CREATE TABLE IF NOT EXISTS cotations (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		periodicity TEXT NOT NULL,
		year INTEGER NOT NULL,
		semester INTEGER NOT NULL DEFAULT 0,
		professional_conduct TEXT NOT NULL,
		attendance TEXT NOT NULL,
		objectives TEXT NOT NULL,
		work_quality TEXT NOT NULL,
		team_spirit TEXT NOT NULL,
		overall_score TEXT NOT NULL,
		appraisal TEXT NOT NULL DEFAULT '',
		strengths TEXT NOT NULL DEFAULT '',
		improvements TEXT NOT NULL DEFAULT '',
		next_objectives TEXT NOT NULL DEFAULT '',
		evaluated_by TEXT NOT NULL DEFAULT '',
		validated_by TEXT NOT NULL DEFAULT '',
		validated_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (agent_id, year, semester, periodicity)
	)`,
	`CREATE TABLE IF NOT EXISTS disciplinary_actions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		fault TEXT NOT NULL,
		description TEXT NOT NULL,
		fault_date TEXT,
		place TEXT NOT NULL DEFAULT '',
		notification_date TEXT,
		commission INTEGER NOT NULL DEFAULT 0,
		commission_date TEXT,
		sanction TEXT NOT NULL DEFAULT '',
		sanction_days INTEGER NOT NULL DEFAULT 0,
		sanction_reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_discipline_agent ON disciplinary_actions(agent_id, fault_date DESC)`,

	// -------------------------------------------------------------------------
	// Competences and training
	// -------------------------------------------------------------------------
	`CREATE TABLE IF NOT EXISTS competences (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		level INTEGER NOT NULL DEFAULT 1,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS agent_competences (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		competence_id TEXT NOT NULL REFERENCES competences(id),
		level INTEGER NOT NULL,
		evaluated_at TEXT,
		evaluated_by TEXT NOT NULL DEFAULT '',
		comment TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (agent_id, competence_id)
	)`,
	`CREATE TABLE IF NOT EXISTS trainings (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		hours INTEGER NOT NULL DEFAULT 0,
		estimated_cost TEXT NOT NULL DEFAULT '0',
		location TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		seats INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS participations (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		training_id TEXT NOT NULL REFERENCES trainings(id),
		status TEXT NOT NULL,
		score TEXT,
		appraisal TEXT NOT NULL DEFAULT '',
		cost TEXT,
		registered_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (agent_id, training_id)
	)`,

	// -------------------------------------------------------------------------
	// Payroll
	// -------------------------------------------------------------------------
	`CREATE TABLE IF NOT EXISTS pay_periods (
		id TEXT PRIMARY KEY,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		opened_at TEXT NOT NULL,
		closed_at TEXT,
		archived_at TEXT,
		comment TEXT NOT NULL DEFAULT '',
		UNIQUE (year, month)
	)`,
	`CREATE TABLE IF NOT EXISTS pay_elements (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		computable INTEGER NOT NULL DEFAULT 1,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS salary_grid (
		id TEXT PRIMARY KEY,
		grade_id TEXT NOT NULL REFERENCES grades(id),
		element_id TEXT NOT NULL REFERENCES pay_elements(id),
		amount TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (grade_id, element_id)
	)`,
	`CREATE TABLE IF NOT EXISTS movements (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL REFERENCES pay_periods(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL REFERENCES agents(id),
		element_id TEXT NOT NULL REFERENCES pay_elements(id),
		amount TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (period_id, employee_id, element_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_employee ON movements(employee_id)`,
	`CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL REFERENCES pay_periods(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL REFERENCES agents(id),
		total_gains TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		total_contributions TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		worked_days INTEGER NOT NULL,
		worked_hours TEXT NOT NULL,
		computed_by TEXT NOT NULL DEFAULT '',
		computed_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		UNIQUE (period_id, employee_id)
	)`,
	`CREATE TABLE IF NOT EXISTS pay_history (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL REFERENCES pay_periods(id),
		employee_id TEXT NOT NULL REFERENCES agents(id),
		payslip_id TEXT NOT NULL UNIQUE REFERENCES payslips(id),
		snapshot TEXT NOT NULL,
		archived_by TEXT NOT NULL DEFAULT '',
		archived_at TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_period ON pay_history(period_id)`,
}
