package bootstrap

import (
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"jsm-form-agent/internal/browser"
	"jsm-form-agent/internal/config"
	"jsm-form-agent/internal/ports"
	"jsm-form-agent/internal/servicedesk"
	"jsm-form-agent/internal/step"
	"jsm-form-agent/internal/usecase"
)

// NewApp assembles the application graph. The configuration is supplied by
// the CLI layer (which may have overlaid a config file on the environment).
func NewApp(cfg *config.Config, extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newStepController,

			fx.Annotate(browser.NewManager, fx.As(new(ports.Browser))),
			fx.Annotate(servicedesk.NewClient, fx.As(new(ports.RequestClient))),

			usecase.NewUsecase,
		),

		fx.Invoke(newTraceProvider),

		fx.NopLogger,
		fx.StartTimeout(10 * time.Second),
	}

	opts = append(opts, extra...)

	return fx.New(opts...)
}

func newStepController(cfg *config.Config, logger *zap.Logger) *step.Controller {
	return step.NewController(
		cfg.StepConfig.Enabled,
		cfg.StepConfig.SkipSteps,
		os.Stdin,
		os.Stdout,
		logger,
	)
}
