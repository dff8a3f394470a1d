package usecase

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"jsm-form-agent/internal/config"
	"jsm-form-agent/internal/ports"
	"jsm-form-agent/internal/step"
	"jsm-form-agent/internal/usecase/adapters"
)

type Service struct {
	Assessment adapters.AssessmentService
	Browser    adapters.BrowserService
	Desk       adapters.RequestService
}

type Params struct {
	fx.In

	Logger  *zap.Logger
	Config  *config.Config
	Browser ports.Browser
	Desk    ports.RequestClient
	Steps   *step.Controller
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Assessment: factory.CreateAssessmentService(),
		Browser:    factory.CreateBrowserService(),
		Desk:       factory.CreateRequestService(),
	}
}
