package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"jsm-form-agent/internal/config"
	"jsm-form-agent/internal/ports"
	"jsm-form-agent/pkg/apperr"
	"jsm-form-agent/pkg/logg"
	"jsm-form-agent/pkg/tracing"
)

const (
	browserManagerName = "BrowserManager"
	browserTracer      = "browser.manager"

	navigationSettle = 500 * time.Millisecond
	typeDelayMs      = 40
)

// Manager drives one Chromium page through playwright. One instance owns one
// page; calls are not safe to interleave from multiple goroutines.
type Manager struct {
	config         *config.Config
	logger         *zap.Logger
	tracer         trace.Tracer
	playwright     *playwright.Playwright
	browser        playwright.Browser
	browserContext playwright.BrowserContext
	page           playwright.Page
	ready          bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, browserManagerName)),
		tracer: otel.Tracer(browserTracer),
		ready:  false,
	}
}

func (m *Manager) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, span := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		span.End(err)
	}()

	logger.Info("Launching browser...")
	span.AddEvent("installing playwright")

	if err = playwright.Install(); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_install_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	span.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.playwright = pw

	if m.config.BrowserConfig.UserDataDir != "" {
		return m.launchPersistent(ctx)
	}

	return m.launchNew(ctx)
}

// launchPersistent keeps session data in a profile directory so repeated runs
// reuse existing logins instead of going through the IdP flow every time.
func (m *Manager) launchPersistent(ctx context.Context) (err error) {
	const op = "launchPersistent"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, span := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		span.End(err)
	}()

	logger.Info("Launching persistent browser context")

	userDataDir := m.config.BrowserConfig.UserDataDir

	if err := os.MkdirAll(userDataDir, 0o755); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	options := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(m.config.BrowserConfig.Headless),
		SlowMo:            playwright.Float(float64(m.config.BrowserConfig.SlowMo)),
		Viewport:          &playwright.Size{Width: 1920, Height: 1080},
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--window-size=1920,1080",
		},
	}

	browserContext, err := m.playwright.Chromium.LaunchPersistentContext(userDataDir, options)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "launch_persistent_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	m.browserContext = browserContext

	pages := browserContext.Pages()

	if len(pages) > 0 {
		m.page = pages[0]
		logger.Info("Using existing page")
	} else {
		page, err := browserContext.NewPage()
		if err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "new_page_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
		m.page = page
		logger.Info("Created new page")
	}

	m.ready = true
	logger.Info("Browser launched successfully")

	return nil
}

func (m *Manager) launchNew(ctx context.Context) (err error) {
	const op = "launchNew"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, span := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		span.End(err)
	}()

	logger.Info("Launching new browser")

	browser, err := m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.config.BrowserConfig.Headless),
		SlowMo:   playwright.Float(float64(m.config.BrowserConfig.SlowMo)),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.browser = browser

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: 1920, Height: 1080},
		JavaScriptEnabled: playwright.Bool(true),
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	m.browserContext = browserContext

	page, err := browserContext.NewPage()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.page = page

	m.ready = true
	logger.Info("Browser launched successfully")

	return nil
}

func (m *Manager) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, span := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		span.End(err)
	}()

	logger.Info("Closing connection to browser...")

	if m.config.BrowserConfig.UserDataDir != "" {
		// Persistent sessions stay alive so the next run skips login.
		m.ready = false
		logger.Info("Persistent browser kept running; connection closed")

		return nil
	}

	if m.browserContext != nil {
		if err := m.browserContext.Close(); err != nil {
			logger.Warn("Failed to close context", zap.Error(err))
		}
	}

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}
	}

	if m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_stop_failed",
			})
		}
	}

	m.ready = false
	logger.Info("Browser closed")

	return nil
}

func (m *Manager) IsReady() bool {
	return m.ready
}

func (m *Manager) ensurePageActive() error {
	if m.browserContext == nil {
		return fmt.Errorf("browser context is nil")
	}

	if m.page != nil && !m.page.IsClosed() {
		return nil
	}

	m.logger.Info("Page closed, reconnecting to active page...")

	for _, p := range m.browserContext.Pages() {
		if !p.IsClosed() {
			m.page = p

			return nil
		}
	}

	page, err := m.browserContext.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create new page: %w", err)
	}

	m.page = page

	return nil
}

func (m *Manager) guard(op string) error {
	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	return nil
}

func (m *Manager) Navigate(ctx context.Context, url string) (err error) {
	const op = "Navigate"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	_, span := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("url", url))
	defer func() {
		span.End(err)
	}()

	if err := m.guard(op); err != nil {
		return err
	}

	span.AddEvent("navigating to URL")

	_, err = m.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(m.config.BrowserConfig.Timeout)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "goto_failed",
			apperr.MetaStage:  apperr.StageNavigation,
			apperr.MetaURL:    url,
		})
	}

	time.Sleep(navigationSettle)
	span.AddEvent("navigation completed")

	return nil
}

func (m *Manager) WaitUntilNavigated(ctx context.Context) error {
	const op = "WaitUntilNavigated"

	if err := m.guard(op); err != nil {
		return err
	}

	err := m.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		return apperr.WrapWithReason(op, apperr.CodeTimeout, err, "load_state_not_settled")
	}

	return nil
}

func (m *Manager) CurrentURL(ctx context.Context) (string, error) {
	const op = "CurrentURL"

	if err := m.guard(op); err != nil {
		return "", err
	}

	return m.page.URL(), nil
}

func (m *Manager) Evaluate(ctx context.Context, script string) (result any, err error) {
	const op = "Evaluate"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, span := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		span.End(err)
	}()

	if err := m.guard(op); err != nil {
		return nil, err
	}

	result, err = m.page.Evaluate(script)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	return result, nil
}

func (m *Manager) WaitForSelector(ctx context.Context, selector string, timeoutMs float64) (el ports.Element, err error) {
	const op = "WaitForSelector"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	_, span := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		span.End(err)
	}()

	if err := m.guard(op); err != nil {
		return nil, err
	}

	handle, err := m.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(timeoutMs),
		State:   playwright.WaitForSelectorStateAttached,
	})
	if err != nil {
		// Not appearing in time is an expected outcome for selector probes,
		// not a transport failure.
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, nil
		}

		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:   "wait_selector_failed",
			apperr.MetaSelector: selector,
		})
	}

	if handle == nil {
		return nil, nil
	}

	return &element{handle: handle}, nil
}

func (m *Manager) FindElements(ctx context.Context, selector string) ([]ports.Element, error) {
	const op = "FindElements"

	if err := m.guard(op); err != nil {
		return nil, err
	}

	handles, err := m.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:   "query_selector_all_failed",
			apperr.MetaSelector: selector,
		})
	}

	elements := make([]ports.Element, 0, len(handles))
	for _, handle := range handles {
		elements = append(elements, &element{handle: handle})
	}

	return elements, nil
}

func (m *Manager) Press(ctx context.Context, key string) error {
	const op = "Press"

	if err := m.guard(op); err != nil {
		return err
	}

	if err := m.page.Keyboard().Press(key); err != nil {
		return apperr.WrapWithReason(op, apperr.CodeActionFailed, err, "press_failed")
	}

	return nil
}

func (m *Manager) PressWithModifiers(ctx context.Context, key string, modifiers []string) error {
	const op = "PressWithModifiers"

	if err := m.guard(op); err != nil {
		return err
	}

	combo := strings.Join(append(append([]string{}, modifiers...), key), "+")

	if err := m.page.Keyboard().Press(combo); err != nil {
		return apperr.WrapWithReason(op, apperr.CodeActionFailed, err, "press_failed")
	}

	return nil
}

func (m *Manager) TypeText(ctx context.Context, text string) error {
	const op = "TypeText"

	if err := m.guard(op); err != nil {
		return err
	}

	// Per-character typing with a delay so input listeners fire for each char.
	if err := m.page.Keyboard().Type(text, playwright.KeyboardTypeOptions{
		Delay: playwright.Float(typeDelayMs),
	}); err != nil {
		return apperr.WrapWithReason(op, apperr.CodeActionFailed, err, "type_failed")
	}

	return nil
}
