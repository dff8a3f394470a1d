package bootstrap

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"jsm-form-agent/internal/config"
	"jsm-form-agent/internal/ports"
	"jsm-form-agent/internal/usecase"
)

// RunOneShot starts the application, executes one unit of work against the
// usecase layer, and shuts everything down again. The browser (if the work
// needed one) is closed on the way out.
func RunOneShot(cfg *config.Config, run func(ctx context.Context, svc *usecase.Service) error) error {
	var runErr error

	app := NewApp(cfg, fx.Invoke(
		func(lc fx.Lifecycle, svc *usecase.Service, browser ports.Browser, shutdowner fx.Shutdowner, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						runErr = run(context.Background(), svc)

						if err := shutdowner.Shutdown(); err != nil {
							logger.Error("Failed to trigger shutdown", zap.Error(err))
						}
					}()

					return nil
				},
				OnStop: func(ctx context.Context) error {
					if browser.IsReady() {
						return browser.Close(ctx)
					}

					return nil
				},
			})
		},
	))

	app.Run()

	if err := app.Err(); err != nil && runErr == nil {
		return err
	}

	return runErr
}
