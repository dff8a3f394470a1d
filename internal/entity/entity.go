package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Assessment struct {
	ID          uuid.UUID
	TicketID    string
	Status      AssessmentStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
	Steps       []AssessmentStep
	Error       string
}

type AssessmentStatus string

const (
	AssessmentStatusPending    AssessmentStatus = "pending"
	AssessmentStatusInProgress AssessmentStatus = "in_progress"
	AssessmentStatusCompleted  AssessmentStatus = "completed"
	AssessmentStatusFailed     AssessmentStatus = "failed"
)

type AssessmentStep struct {
	ID          uuid.UUID
	Phase       AssessmentPhase
	Description string
	Timestamp   time.Time
	Success     bool
	Error       string
}

type AssessmentPhase string

const (
	PhaseNavigate AssessmentPhase = "navigate"
	PhaseLogin    AssessmentPhase = "login"
	PhaseEditor   AssessmentPhase = "editor"
	PhaseField    AssessmentPhase = "field"
	PhaseSave     AssessmentPhase = "save"
)

// Credential carries the login identity for the IdP flows. Empty fields mean
// the credential is absent, which skips the corresponding injection rather
// than failing.
type Credential struct {
	Username string
	Password string
}

func (c Credential) HasUsername() bool {
	return strings.TrimSpace(c.Username) != ""
}

func (c Credential) HasPassword() bool {
	return strings.TrimSpace(c.Password) != ""
}

type RiskAssessmentConfig struct {
	ChangeImpactAssessment ChangeImpactAssessmentConfig `mapstructure:"change_impact_assessment"`
	ChangeRiskAssessment   *ChangeRiskAssessmentConfig  `mapstructure:"change_risk_assessment"`
}

type ChangeImpactAssessmentConfig struct {
	SecurityControlsImpact string `mapstructure:"security_controls_impact"`
	PerformanceImpact      string `mapstructure:"performance_impact"`
	AvailabilityImpact     string `mapstructure:"availability_impact"`
}

type ChangeRiskAssessmentConfig struct {
	// Reserved for the risk matrix fields once those move to the web form.
}

// FormData is the field map submitted through the service desk REST API.
type FormData struct {
	Fields map[string]any
}
