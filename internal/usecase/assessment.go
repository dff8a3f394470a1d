package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"jsm-form-agent/internal/config"
	"jsm-form-agent/internal/entity"
	"jsm-form-agent/internal/form"
	"jsm-form-agent/internal/login"
	"jsm-form-agent/internal/ports"
	"jsm-form-agent/internal/step"
	"jsm-form-agent/pkg/apperr"
	"jsm-form-agent/pkg/logg"
	"jsm-form-agent/pkg/tracing"
)

const (
	assessmentServiceName = "AssessmentService"
	assessmentTracer      = "usecase.assessment"
)

// impactField binds a config value to the keyword list used to locate its
// dropdown on the form.
type impactField struct {
	name     string
	keywords []string
	value    func(entity.ChangeImpactAssessmentConfig) string
}

var impactFields = []impactField{
	{
		name:     "Security Controls Impact",
		keywords: []string{"security controls impact", "security impact", "security control impact"},
		value: func(c entity.ChangeImpactAssessmentConfig) string {
			return c.SecurityControlsImpact
		},
	},
	{
		name:     "Performance Impact",
		keywords: []string{"performance impact"},
		value: func(c entity.ChangeImpactAssessmentConfig) string {
			return c.PerformanceImpact
		},
	},
	{
		name:     "Availability Impact",
		keywords: []string{"availability impact"},
		value: func(c entity.ChangeImpactAssessmentConfig) string {
			return c.AvailabilityImpact
		},
	},
}

// AssessmentService owns one automation session: navigate to the ticket,
// drive the login flow, mutate the risk assessment form, save.
type AssessmentService struct {
	config  *config.Config
	logger  *zap.Logger
	browser ports.Browser
	steps   *step.Controller
	tracer  trace.Tracer
}

type AssessmentServiceParams struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Browser ports.Browser
	Steps   *step.Controller
}

func NewAssessmentService(params AssessmentServiceParams) *AssessmentService {
	return &AssessmentService{
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, assessmentServiceName)),
		browser: params.Browser,
		steps:   params.Steps,
		tracer:  otel.Tracer(assessmentTracer),
	}
}

func (s *AssessmentService) CompleteRiskAssessment(ctx context.Context, ticketID string, riskConfig *entity.RiskAssessmentConfig) (resp *entity.Assessment, err error) {
	const op = "CompleteRiskAssessment"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.TicketID, ticketID))

	ctx, span := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("ticket_id", ticketID))
	defer func() {
		span.End(err)
	}()

	if strings.TrimSpace(ticketID) == "" {
		return nil, apperr.InvalidReqError(op, "ticket_id", errors.New("ticket id cannot be empty"))
	}

	if riskConfig == nil {
		return nil, apperr.InvalidReqError(op, "risk_config", errors.New("risk assessment configuration cannot be nil"))
	}

	assessment := &entity.Assessment{
		ID:        uuid.New(),
		TicketID:  ticketID,
		Status:    entity.AssessmentStatusInProgress,
		CreatedAt: time.Now(),
		Steps:     make([]entity.AssessmentStep, 0),
	}

	logger = logger.With(zap.String(logg.AssessmentID, assessment.ID.String()))
	logger.Info("Starting risk assessment")
	span.AddEvent("assessment created")

	// The browser is created lazily on first use; the persistent profile dir
	// keeps the session alive between invocations.
	if !s.browser.IsReady() {
		if err := s.browser.Launch(ctx); err != nil {
			return s.fail(assessment, entity.PhaseNavigate, err), err
		}
	}

	ticketURL := fmt.Sprintf("%s/browse/%s", s.config.JsmConfig.BaseURL, ticketID)
	logger.Info("Navigating to ticket page", zap.String(logg.URL, ticketURL))

	if err := s.browser.Navigate(ctx, ticketURL); err != nil {
		return s.fail(assessment, entity.PhaseNavigate, err), err
	}

	_ = s.browser.WaitUntilNavigated(ctx)
	s.recordStep(assessment, entity.PhaseNavigate, "navigated to "+ticketURL)

	cred := entity.Credential{
		Username: strings.TrimSpace(s.config.AuthConfig.Username),
		Password: strings.TrimSpace(s.config.AuthConfig.MicrosoftPassword),
	}

	driver := login.NewDriver(s.browser, s.steps, s.logger, login.Options{
		Timeout: time.Duration(s.config.BrowserConfig.LoginTimeout) * time.Second,
	})

	span.AddEvent("login flow started")

	reached, lastURL, err := driver.WaitForTicketPage(ctx, ticketID, cred)
	if err != nil {
		return s.fail(assessment, entity.PhaseLogin, err), err
	}

	if !reached {
		err = apperr.Wrap(op, apperr.CodeLoginTimeout,
			fmt.Errorf("could not verify the ticket page for %s; current URL: %s (a login page or other redirect may need manual attention)", ticketID, lastURL),
			map[string]any{
				apperr.MetaReason:   "login_not_converged",
				apperr.MetaStage:    apperr.StageLogin,
				apperr.MetaTicketID: ticketID,
				apperr.MetaURL:      lastURL,
			})

		return s.fail(assessment, entity.PhaseLogin, err), err
	}

	logger.Info("Confirmed on correct ticket page")
	s.recordStep(assessment, entity.PhaseLogin, "login converged on "+lastURL)

	engine := form.NewEngine(s.browser, s.logger)

	if err := engine.OpenEditor(ctx); err != nil {
		return s.fail(assessment, entity.PhaseEditor, err), err
	}

	s.recordStep(assessment, entity.PhaseEditor, "risk assessment editor opened")

	for _, field := range impactFields {
		value := strings.TrimSpace(field.value(riskConfig.ChangeImpactAssessment))
		if value == "" {
			logger.Warn("No value provided for field; skipping update",
				zap.String(logg.Field, field.name))

			continue
		}

		logger.Info("Setting field value",
			zap.String(logg.Field, field.name),
			zap.String("value", value))

		if err := engine.SetDropdownValue(ctx, field.keywords, value); err != nil {
			return s.fail(assessment, entity.PhaseField, err), err
		}

		s.recordStep(assessment, entity.PhaseField, fmt.Sprintf("set %s to %q", field.name, value))
	}

	if err := engine.Save(ctx); err != nil {
		return s.fail(assessment, entity.PhaseSave, err), err
	}

	s.recordStep(assessment, entity.PhaseSave, "risk assessment changes submitted")

	completedAt := time.Now()
	assessment.Status = entity.AssessmentStatusCompleted
	assessment.CompletedAt = &completedAt

	logger.Info("Risk assessment updates submitted")
	span.AddEvent("assessment completed")

	return assessment, nil
}

func (s *AssessmentService) recordStep(assessment *entity.Assessment, phase entity.AssessmentPhase, description string) {
	assessment.Steps = append(assessment.Steps, entity.AssessmentStep{
		ID:          uuid.New(),
		Phase:       phase,
		Description: description,
		Timestamp:   time.Now(),
		Success:     true,
	})
}

func (s *AssessmentService) fail(assessment *entity.Assessment, phase entity.AssessmentPhase, err error) *entity.Assessment {
	assessment.Status = entity.AssessmentStatusFailed
	assessment.Error = err.Error()
	assessment.Steps = append(assessment.Steps, entity.AssessmentStep{
		ID:        uuid.New(),
		Phase:     phase,
		Timestamp: time.Now(),
		Success:   false,
		Error:     err.Error(),
	})

	return assessment
}
