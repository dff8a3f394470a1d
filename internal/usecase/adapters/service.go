package adapters

import (
	"context"

	"jsm-form-agent/internal/entity"
)

type AssessmentService interface {
	CompleteRiskAssessment(ctx context.Context, ticketID string, riskConfig *entity.RiskAssessmentConfig) (*entity.Assessment, error)
}

type BrowserService interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	IsReady() bool
}

type RequestService interface {
	Authenticate(ctx context.Context) error
	CreateRequest(ctx context.Context, form entity.FormData) (string, error)
	RequestTypeDetails(ctx context.Context) (string, error)
	RequestTypeFields(ctx context.Context) (string, error)
}
