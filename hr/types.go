/*
Package hr manages the personnel records the payroll runs on.

PURPOSE:
  Organization (directions, bureaus, grades), agents and their career
  (affectations, promotions, mutations), performance evaluation
  (cotations), discipline, competences and training.

KEY CONCEPTS IN THIS FILE (types.go):
  - Direction > Bureau: the organization tree an agent is posted in
  - Grade: rank of an agent; the salary grid is keyed by grade
  - Agent: an employee record; payroll sees it as payroll.Employee
  - Career events: dated records of postings, promotions and transfers
  - Cotation: evaluation on five criteria scored out of 20

SOFT DELETE:
  Directions, bureaus, grades, agents, competences and trainings are never
  removed, only deactivated (Active=false). Deactivated rows stay valid
  targets for existing references. Career events, cotations, disciplinary
  actions and training participations are plain records and can be
  deleted.

SEE ALSO:
  - service.go: operations with validation and actor stamping
  - store.go: persistence interface
  - store/sqlite/hr.go: SQLite implementation
*/
package hr

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mohamedkandolo/Projet-RH/calendar"
)

// Actor identifies the user performing a write.
type Actor string

// =============================================================================
// ENUMERATIONS
// =============================================================================

type AgentStatus string

const (
	AgentActive   AgentStatus = "ACTIVE"
	AgentInactive AgentStatus = "INACTIVE"
	AgentRetired  AgentStatus = "RETIRED"
	AgentResigned AgentStatus = "RESIGNED"
)

type MaritalStatus string

const (
	Single   MaritalStatus = "SINGLE"
	Married  MaritalStatus = "MARRIED"
	Divorced MaritalStatus = "DIVORCED"
	Widowed  MaritalStatus = "WIDOWED"
)

type AffectationStatus string

const (
	AffectationActive    AffectationStatus = "ACTIVE"
	AffectationEnded     AffectationStatus = "ENDED"
	AffectationSuspended AffectationStatus = "SUSPENDED"
)

type PromotionType string

const (
	PromotionGrade    PromotionType = "GRADE"
	PromotionStep     PromotionType = "STEP"
	PromotionFunction PromotionType = "FUNCTION"
)

type MutationType string

const (
	MutationService    MutationType = "SERVICE"
	MutationMinistry   MutationType = "MINISTRY"
	MutationGeographic MutationType = "GEOGRAPHIC"
	MutationFunction   MutationType = "FUNCTION"
)

type Periodicity string

const (
	SemiAnnual  Periodicity = "SEMIANNUAL"
	Annual      Periodicity = "ANNUAL"
	Exceptional Periodicity = "EXCEPTIONAL"
)

type FaultType string

const (
	FaultLateness        FaultType = "LATENESS"
	FaultAbsence         FaultType = "ABSENCE"
	FaultIndiscipline    FaultType = "INDISCIPLINE"
	FaultInsubordination FaultType = "INSUBORDINATION"
	FaultNegligence      FaultType = "NEGLIGENCE"
	FaultOther           FaultType = "OTHER"
)

type SanctionType string

const (
	SanctionWarning    SanctionType = "WARNING"
	SanctionReprimand  SanctionType = "REPRIMAND"
	SanctionSuspension SanctionType = "SUSPENSION"
	SanctionDemotion   SanctionType = "DEMOTION"
	SanctionDismissal  SanctionType = "DISMISSAL"
	SanctionOther      SanctionType = "OTHER"
)

type DisciplineStatus string

const (
	DisciplineOpen       DisciplineStatus = "OPEN"
	DisciplineNotified   DisciplineStatus = "NOTIFIED"
	DisciplineSanctioned DisciplineStatus = "SANCTIONED"
	DisciplineClosed     DisciplineStatus = "CLOSED"
)

type CompetenceCategory string

const (
	CategoryTechnical  CompetenceCategory = "TECHNICAL"
	CategoryManagerial CompetenceCategory = "MANAGERIAL"
	CategorySpecific   CompetenceCategory = "SPECIFIC"
	CategoryGeneral    CompetenceCategory = "GENERAL"
)

type TrainingType string

const (
	TrainingInternal      TrainingType = "INTERNAL"
	TrainingExternal      TrainingType = "EXTERNAL"
	TrainingCertification TrainingType = "CERTIFICATION"
	TrainingConference    TrainingType = "CONFERENCE"
)

type TrainingStatus string

const (
	TrainingPlanned    TrainingStatus = "PLANNED"
	TrainingInProgress TrainingStatus = "IN_PROGRESS"
	TrainingCompleted  TrainingStatus = "COMPLETED"
	TrainingCancelled  TrainingStatus = "CANCELLED"
)

type ParticipationStatus string

const (
	ParticipationEnrolled   ParticipationStatus = "ENROLLED"
	ParticipationInProgress ParticipationStatus = "IN_PROGRESS"
	ParticipationCompleted  ParticipationStatus = "COMPLETED"
	ParticipationDropped    ParticipationStatus = "DROPPED"
	ParticipationExcluded   ParticipationStatus = "EXCLUDED"
)

type BudgetPostType string

const (
	PostPermanent   BudgetPostType = "PERMANENT"
	PostContractual BudgetPostType = "CONTRACTUAL"
	PostIntern      BudgetPostType = "INTERN"
)

// DefaultNationality is written on agents created without one.
const DefaultNationality = "Congolaise"

// =============================================================================
// ORGANIZATION
// =============================================================================

type Direction struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=100"`
	Code        string    `json:"code" validate:"required,max=10"`
	Description string    `json:"description,omitempty" validate:"max=2000"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Bureau belongs to a direction. (Code, DirectionID) is unique.
type Bureau struct {
	ID            string    `json:"id"`
	Name          string    `json:"name" validate:"required,max=100"`
	Code          string    `json:"code" validate:"required,max=10"`
	DirectionID   string    `json:"direction_id" validate:"required"`
	DirectionName string    `json:"direction_name,omitempty"`
	Description   string    `json:"description,omitempty" validate:"max=2000"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Grade struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=50"`
	Code        string    `json:"code" validate:"required,max=10"`
	Level       int       `json:"level" validate:"gte=0"`
	Description string    `json:"description,omitempty" validate:"max=2000"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BudgetPost is a position of the establishment chart, held at a grade in
// a bureau. Code is unique.
type BudgetPost struct {
	ID                   string         `json:"id"`
	Code                 string         `json:"code" validate:"required,max=20"`
	Title                string         `json:"title" validate:"required,max=200"`
	Type                 BudgetPostType `json:"type" validate:"required,oneof=PERMANENT CONTRACTUAL INTERN"`
	GradeID              string         `json:"grade_id" validate:"required"`
	GradeName            string         `json:"grade_name,omitempty"`
	BureauID             string         `json:"bureau_id" validate:"required"`
	BureauName           string         `json:"bureau_name,omitempty"`
	Missions             string         `json:"missions" validate:"required,max=5000"`
	RequiredCompetences  string         `json:"required_competences" validate:"required,max=5000"`
	HierarchicalPosition string         `json:"hierarchical_position" validate:"required,max=100"`
	Filled               bool           `json:"filled"`
	Active               bool           `json:"active"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// =============================================================================
// AGENT
// =============================================================================

type Agent struct {
	ID        string `json:"id"`
	Matricule string `json:"matricule" validate:"max=20"`

	// Identity
	LastName             string        `json:"last_name" validate:"required,max=100"`
	FirstNames           string        `json:"first_names" validate:"required,max=150"`
	BirthDate            calendar.Date `json:"birth_date" validate:"required"`
	BirthPlace           string        `json:"birth_place" validate:"required,max=100"`
	Sex                  string        `json:"sex" validate:"required,oneof=M F"`
	Nationality          string        `json:"nationality" validate:"max=50"`
	IdentificationNumber string        `json:"identification_number,omitempty" validate:"max=50"`

	// Civil status
	MaritalStatus        MaritalStatus `json:"marital_status" validate:"omitempty,oneof=SINGLE MARRIED DIVORCED WIDOWED"`
	SpouseName           string        `json:"spouse_name,omitempty" validate:"max=200"`
	Children             int           `json:"children" validate:"gte=0,lte=50"`
	SocialSecurityNumber string        `json:"social_security_number,omitempty" validate:"max=50"`

	// Education
	Diploma        string `json:"diploma,omitempty" validate:"max=100"`
	School         string `json:"school,omitempty" validate:"max=200"`
	GraduationYear int    `json:"graduation_year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Speciality     string `json:"speciality,omitempty" validate:"max=100"`

	// Employment
	GradeID        string        `json:"grade_id" validate:"required"`
	GradeName      string        `json:"grade_name,omitempty"`
	BureauID       string        `json:"bureau_id" validate:"required"`
	BureauName     string        `json:"bureau_name,omitempty"`
	HireDate       calendar.Date `json:"hire_date" validate:"required"`
	NominationDate calendar.Date `json:"nomination_date"`
	Status         AgentStatus   `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE RETIRED RESIGNED"`

	// Contact
	Address string `json:"address,omitempty" validate:"max=500"`
	Phone   string `json:"phone,omitempty" validate:"max=20"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`

	// Bank
	Bank          string `json:"bank,omitempty" validate:"max=100"`
	AccountNumber string `json:"account_number,omitempty" validate:"max=50"`

	CreatedBy Actor     `json:"created_by"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a Agent) FullName() string {
	return strings.TrimSpace(a.LastName + " " + a.FirstNames)
}

// =============================================================================
// CAREER
// =============================================================================

// Affectation posts an agent in a bureau.
type Affectation struct {
	ID              string            `json:"id"`
	AgentID         string            `json:"agent_id" validate:"required"`
	AgentName       string            `json:"agent_name,omitempty"`
	BureauID        string            `json:"bureau_id" validate:"required"`
	BureauName      string            `json:"bureau_name,omitempty"`
	// BudgetPostID optionally names the budget post the agent fills.
	BudgetPostID    string            `json:"budget_post_id,omitempty"`
	BudgetPostTitle string            `json:"budget_post_title,omitempty"`
	Functions       string            `json:"functions" validate:"required,max=200"`
	StartDate       calendar.Date     `json:"start_date" validate:"required"`
	EndDate         calendar.Date     `json:"end_date"`
	Status          AffectationStatus `json:"status" validate:"omitempty,oneof=ACTIVE ENDED SUSPENDED"`
	Reason          string            `json:"reason,omitempty" validate:"max=2000"`
	Decision        string            `json:"decision,omitempty" validate:"max=100"`
	CreatedBy       Actor             `json:"created_by"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Promotion records a change of grade, step or function. It does not
// change the agent's grade by itself.
type Promotion struct {
	ID                string          `json:"id"`
	AgentID           string          `json:"agent_id" validate:"required"`
	AgentName         string          `json:"agent_name,omitempty"`
	FromGradeID       string          `json:"from_grade_id,omitempty"`
	FromGradeName     string          `json:"from_grade_name,omitempty"`
	ToGradeID         string          `json:"to_grade_id" validate:"required"`
	ToGradeName       string          `json:"to_grade_name,omitempty"`
	Type              PromotionType   `json:"type" validate:"required,oneof=GRADE STEP FUNCTION"`
	Date              calendar.Date   `json:"date" validate:"required"`
	Reason            string          `json:"reason" validate:"required,max=2000"`
	RequiredSeniority int             `json:"required_seniority" validate:"gte=0,lte=60"`
	RequiredScore     decimal.Decimal `json:"required_score" validate:"gte=0,lte=20"`
	Decision          string          `json:"decision,omitempty" validate:"max=100"`
	CreatedBy         Actor           `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Mutation records a transfer between bureaus.
type Mutation struct {
	ID             string        `json:"id"`
	AgentID        string        `json:"agent_id" validate:"required"`
	AgentName      string        `json:"agent_name,omitempty"`
	Type           MutationType  `json:"type" validate:"required,oneof=SERVICE MINISTRY GEOGRAPHIC FUNCTION"`
	FromBureauID   string        `json:"from_bureau_id,omitempty"`
	FromBureauName string        `json:"from_bureau_name,omitempty"`
	ToBureauID     string        `json:"to_bureau_id" validate:"required"`
	ToBureauName   string        `json:"to_bureau_name,omitempty"`
	Date           calendar.Date `json:"date" validate:"required"`
	Reason         string        `json:"reason" validate:"required,max=2000"`
	Decision       string        `json:"decision,omitempty" validate:"max=100"`
	CreatedBy      Actor         `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// =============================================================================
// EVALUATION AND DISCIPLINE
// =============================================================================

// Cotation is a performance evaluation. (AgentID, Year, Semester,
// Periodicity) is unique.
type Cotation struct {
	ID          string      `json:"id"`
	AgentID     string      `json:"agent_id" validate:"required"`
	AgentName   string      `json:"agent_name,omitempty"`
	Periodicity Periodicity `json:"periodicity" validate:"required,oneof=SEMIANNUAL ANNUAL EXCEPTIONAL"`
	Year        int         `json:"year" validate:"required,gte=1900,lte=9999"`
	Semester    int         `json:"semester,omitempty" validate:"omitempty,oneof=1 2"`

	ProfessionalConduct decimal.Decimal `json:"professional_conduct" validate:"gte=0,lte=20"`
	Attendance          decimal.Decimal `json:"attendance" validate:"gte=0,lte=20"`
	Objectives          decimal.Decimal `json:"objectives" validate:"gte=0,lte=20"`
	WorkQuality         decimal.Decimal `json:"work_quality" validate:"gte=0,lte=20"`
	TeamSpirit          decimal.Decimal `json:"team_spirit" validate:"gte=0,lte=20"`
	OverallScore        decimal.Decimal `json:"overall_score"`

	Appraisal      string `json:"appraisal,omitempty" validate:"max=2000"`
	Strengths      string `json:"strengths,omitempty" validate:"max=2000"`
	Improvements   string `json:"improvements,omitempty" validate:"max=2000"`
	NextObjectives string `json:"next_objectives,omitempty" validate:"max=2000"`

	EvaluatedBy Actor      `json:"evaluated_by"`
	ValidatedBy Actor      `json:"validated_by,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type DisciplinaryAction struct {
	ID               string           `json:"id"`
	AgentID          string           `json:"agent_id" validate:"required"`
	AgentName        string           `json:"agent_name,omitempty"`
	Fault            FaultType        `json:"fault" validate:"required,oneof=LATENESS ABSENCE INDISCIPLINE INSUBORDINATION NEGLIGENCE OTHER"`
	Description      string           `json:"description" validate:"required,max=2000"`
	FaultDate        calendar.Date    `json:"fault_date" validate:"required"`
	Place            string           `json:"place,omitempty" validate:"max=200"`
	NotificationDate calendar.Date    `json:"notification_date"`
	Commission       bool             `json:"commission"`
	CommissionDate   calendar.Date    `json:"commission_date"`
	Sanction         SanctionType     `json:"sanction,omitempty" validate:"omitempty,oneof=WARNING REPRIMAND SUSPENSION DEMOTION DISMISSAL OTHER"`
	SanctionDays     int              `json:"sanction_days" validate:"gte=0,lte=3650"`
	SanctionReason   string           `json:"sanction_reason,omitempty" validate:"max=2000"`
	Status           DisciplineStatus `json:"status" validate:"omitempty,oneof=OPEN NOTIFIED SANCTIONED CLOSED"`
	CreatedBy        Actor            `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// =============================================================================
// COMPETENCES AND TRAINING
// =============================================================================

type Competence struct {
	ID          string             `json:"id"`
	Code        string             `json:"code" validate:"required,max=20"`
	Name        string             `json:"name" validate:"required,max=100"`
	Category    CompetenceCategory `json:"category" validate:"required,oneof=TECHNICAL MANAGERIAL SPECIFIC GENERAL"`
	Description string             `json:"description,omitempty" validate:"max=2000"`
	Level       int                `json:"level" validate:"gte=1,lte=5"`
	Active      bool               `json:"active"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// AgentCompetence is an agent's assessed mastery of a competence.
// (AgentID, CompetenceID) is unique.
type AgentCompetence struct {
	ID             string        `json:"id"`
	AgentID        string        `json:"agent_id" validate:"required"`
	AgentName      string        `json:"agent_name,omitempty"`
	CompetenceID   string        `json:"competence_id" validate:"required"`
	CompetenceName string        `json:"competence_name,omitempty"`
	Level          int           `json:"level" validate:"gte=1,lte=5"`
	EvaluatedAt    calendar.Date `json:"evaluated_at" validate:"required"`
	EvaluatedBy    Actor         `json:"evaluated_by"`
	Comment        string        `json:"comment,omitempty" validate:"max=2000"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type Training struct {
	ID            string          `json:"id"`
	Code          string          `json:"code" validate:"required,max=20"`
	Title         string          `json:"title" validate:"required,max=200"`
	Type          TrainingType    `json:"type" validate:"required,oneof=INTERNAL EXTERNAL CERTIFICATION CONFERENCE"`
	Description   string          `json:"description,omitempty" validate:"max=2000"`
	Hours         int             `json:"hours" validate:"gte=0"`
	EstimatedCost decimal.Decimal `json:"estimated_cost" validate:"gte=0"`
	Location      string          `json:"location,omitempty" validate:"max=200"`
	StartDate     calendar.Date   `json:"start_date" validate:"required"`
	EndDate       calendar.Date   `json:"end_date" validate:"required"`
	// Seats is the capacity; 0 means unlimited.
	Seats     int            `json:"seats" validate:"gte=0"`
	Status    TrainingStatus `json:"status" validate:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED CANCELLED"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Participation enrolls an agent in a training. (AgentID, TrainingID) is unique.
type Participation struct {
	ID            string              `json:"id"`
	AgentID       string              `json:"agent_id" validate:"required"`
	AgentName     string              `json:"agent_name,omitempty"`
	TrainingID    string              `json:"training_id" validate:"required"`
	TrainingTitle string              `json:"training_title,omitempty"`
	Status        ParticipationStatus `json:"status" validate:"omitempty,oneof=ENROLLED IN_PROGRESS COMPLETED DROPPED EXCLUDED"`
	Score         *decimal.Decimal    `json:"score,omitempty" validate:"omitempty,gte=0,lte=20"`
	Appraisal     string              `json:"appraisal,omitempty" validate:"max=2000"`
	Cost          *decimal.Decimal    `json:"cost,omitempty" validate:"omitempty,gte=0"`
	RegisteredBy  Actor               `json:"registered_by"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
