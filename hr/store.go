package hr

import "context"

// =============================================================================
// FILTERS
// =============================================================================

type OrgFilter struct {
	DirectionID string
	ActiveOnly  bool
}

// AgentFilter narrows ListAgents. Search matches matricule, last name and
// first names, case-insensitively.
type AgentFilter struct {
	Search   string
	GradeID  string
	BureauID string
	Status   AgentStatus
	// IncludeInactive lists deactivated agents too.
	IncludeInactive bool
	Limit           int
	Offset          int
}

// RecordFilter narrows the per-agent record lists. Status and Type apply
// to the records that carry them.
type RecordFilter struct {
	AgentID string
	Status  string
	Type    string
	Year    int
	// BudgetPostID applies to affectations only.
	BudgetPostID string
}

type BudgetPostFilter struct {
	BureauID   string
	GradeID    string
	Type       BudgetPostType
	ActiveOnly bool
}

type CompetenceFilter struct {
	Category   CompetenceCategory
	ActiveOnly bool
}

type TrainingFilter struct {
	Status     TrainingStatus
	Type       TrainingType
	ActiveOnly bool
}

type ParticipationFilter struct {
	AgentID    string
	TrainingID string
	Status     ParticipationStatus
}

// =============================================================================
// STORE
// =============================================================================

// Store persists HR records. Get* methods return (nil, nil) when nothing
// matches. Save* methods insert or update by ID and report unique key
// collisions as *DuplicateError.
type Store interface {
	SaveDirection(ctx context.Context, d Direction) error
	GetDirection(ctx context.Context, id string) (*Direction, error)
	ListDirections(ctx context.Context, activeOnly bool) ([]Direction, error)

	SaveBureau(ctx context.Context, b Bureau) error
	GetBureau(ctx context.Context, id string) (*Bureau, error)
	ListBureaus(ctx context.Context, f OrgFilter) ([]Bureau, error)

	SaveGrade(ctx context.Context, g Grade) error
	GetGrade(ctx context.Context, id string) (*Grade, error)
	ListGrades(ctx context.Context, activeOnly bool) ([]Grade, error)

	SaveBudgetPost(ctx context.Context, p BudgetPost) error
	GetBudgetPost(ctx context.Context, id string) (*BudgetPost, error)
	ListBudgetPosts(ctx context.Context, f BudgetPostFilter) ([]BudgetPost, error)

	SaveAgent(ctx context.Context, a Agent) error
	GetAgent(ctx context.Context, id string) (*Agent, error)
	ListAgents(ctx context.Context, f AgentFilter) ([]Agent, error)
	CountAgents(ctx context.Context, f AgentFilter) (int, error)
	// Matricules returns every matricule in use.
	Matricules(ctx context.Context) ([]string, error)

	SaveAffectation(ctx context.Context, a Affectation) error
	GetAffectation(ctx context.Context, id string) (*Affectation, error)
	ListAffectations(ctx context.Context, f RecordFilter) ([]Affectation, error)
	DeleteAffectation(ctx context.Context, id string) error

	SavePromotion(ctx context.Context, p Promotion) error
	GetPromotion(ctx context.Context, id string) (*Promotion, error)
	ListPromotions(ctx context.Context, f RecordFilter) ([]Promotion, error)
	DeletePromotion(ctx context.Context, id string) error

	SaveMutation(ctx context.Context, m Mutation) error
	GetMutation(ctx context.Context, id string) (*Mutation, error)
	ListMutations(ctx context.Context, f RecordFilter) ([]Mutation, error)
	DeleteMutation(ctx context.Context, id string) error

	SaveCotation(ctx context.Context, c Cotation) error
	GetCotation(ctx context.Context, id string) (*Cotation, error)
	ListCotations(ctx context.Context, f RecordFilter) ([]Cotation, error)
	DeleteCotation(ctx context.Context, id string) error

	SaveDisciplinaryAction(ctx context.Context, d DisciplinaryAction) error
	GetDisciplinaryAction(ctx context.Context, id string) (*DisciplinaryAction, error)
	ListDisciplinaryActions(ctx context.Context, f RecordFilter) ([]DisciplinaryAction, error)
	DeleteDisciplinaryAction(ctx context.Context, id string) error

	SaveCompetence(ctx context.Context, c Competence) error
	GetCompetence(ctx context.Context, id string) (*Competence, error)
	ListCompetences(ctx context.Context, f CompetenceFilter) ([]Competence, error)

	SaveAgentCompetence(ctx context.Context, a AgentCompetence) error
	GetAgentCompetence(ctx context.Context, id string) (*AgentCompetence, error)
	ListAgentCompetences(ctx context.Context, agentID string) ([]AgentCompetence, error)
	DeleteAgentCompetence(ctx context.Context, id string) error

	SaveTraining(ctx context.Context, t Training) error
	GetTraining(ctx context.Context, id string) (*Training, error)
	ListTrainings(ctx context.Context, f TrainingFilter) ([]Training, error)

	SaveParticipation(ctx context.Context, p Participation) error
	GetParticipation(ctx context.Context, id string) (*Participation, error)
	ListParticipations(ctx context.Context, f ParticipationFilter) ([]Participation, error)
	// CountSeatsTaken counts participations of a training that hold a seat
	// (everything except DROPPED and EXCLUDED).
	CountSeatsTaken(ctx context.Context, trainingID string) (int, error)
	DeleteParticipation(ctx context.Context, id string) error

	Stats(ctx context.Context) (Stats, error)
}

// Stats are the dashboard counters.
type Stats struct {
	Directions      int `json:"directions"`
	Bureaus         int `json:"bureaus"`
	Grades          int `json:"grades"`
	BudgetPosts     int `json:"budget_posts"`
	Agents          int `json:"agents"`
	ActiveAgents    int `json:"active_agents"`
	PayElements     int `json:"pay_elements"`
	GridEntries     int `json:"grid_entries"`
	Periods         int `json:"periods"`
	OpenPeriods     int `json:"open_periods"`
	Movements       int `json:"movements"`
	Payslips        int `json:"payslips"`
	PendingCotation int `json:"pending_cotations"`
	OpenDiscipline  int `json:"open_disciplinary_actions"`
	Trainings       int `json:"trainings"`
}
