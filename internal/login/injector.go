package login

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jsm-form-agent/internal/entity"
	"jsm-form-agent/internal/ports"
	"jsm-form-agent/pkg/apperr"
	"jsm-form-agent/pkg/logg"
)

const (
	selectorProbeTimeout = 1500 * time.Millisecond
	clearSettleDelay     = 200 * time.Millisecond
	submitSettleDelay    = 500 * time.Millisecond
)

// InjectorFunc advances a single login step. It returns (true, nil) when the
// control was found and acted on, (false, nil) when the control is not present
// yet and the caller should retry on the next poll, and an error only when the
// browser transport itself failed.
type InjectorFunc func(ctx context.Context, cred entity.Credential) (bool, error)

// injectorSet binds the provider-specific injection routines to one browser
// handle. Selector candidates are ordered most-specific first; the first one
// that exists wins, which tolerates minor DOM drift between deployments.
type injectorSet struct {
	browser ports.Browser
	logger  *zap.Logger
}

func newInjectorSet(browser ports.Browser, logger *zap.Logger) *injectorSet {
	return &injectorSet{
		browser: browser,
		logger:  logger,
	}
}

func (s *injectorSet) table() map[State]InjectorFunc {
	return map[State]InjectorFunc{
		StateAtlassianUsername:       s.fillAtlassianUsername,
		StateAtlassianAccountChooser: s.clickAccountContinue,
		StateMicrosoftUsername:       s.fillMicrosoftUsername,
		StateMicrosoftPassword:       s.fillMicrosoftPassword,
	}
}

var (
	atlassianUsernameSelectors = []string{
		`input[data-testid="username"]`,
		`input[name="username"]`,
		`input#username`,
		`input[type="email"]`,
	}
	atlassianSubmitSelectors = []string{
		`button[data-testid="login-submit-idf-testid"]`,
		`button#login-submit`,
		`button[data-testid="next-button"]`,
		`button[type="submit"]`,
	}
	microsoftUsernameSelectors = []string{
		`input[name="loginfmt"]`,
		`input#i0116`,
		`input[type="email"]`,
	}
	microsoftPasswordSelectors = []string{
		`input[name="passwd"]`,
		`input#i0118`,
		`input[type="password"]`,
	}
	microsoftSubmitSelectors = []string{
		`#idSIButton9`,
		`button[type="submit"]`,
		`input[type="submit"]`,
	}
)

func (s *injectorSet) fillAtlassianUsername(ctx context.Context, cred entity.Credential) (bool, error) {
	const op = "fillAtlassianUsername"

	if !cred.HasUsername() {
		return false, nil
	}

	// Existing-session screens show the account as a button before any text
	// field exists, so scan for one first.
	status, err := s.evaluateStatus(ctx, op, accountChooserScanScript(cred.Username))
	if err != nil {
		return false, err
	}

	switch status {
	case "clicked-account":
		s.logger.Info("Clicked matching Atlassian account button",
			zap.String(logg.Username, cred.Username))

		return true, nil
	case "opened-use-another":
		s.logger.Info("Triggered 'Use another account'; waiting for the username field")

		return false, nil
	}

	input, err := s.locateFirst(ctx, atlassianUsernameSelectors)
	if err != nil {
		return false, err
	}

	if input == nil {
		return false, nil
	}

	if err := s.fillAndSubmit(ctx, input, cred.Username, atlassianSubmitSelectors); err != nil {
		return false, err
	}

	s.logger.Info("Filled Atlassian username and triggered continue")

	return true, nil
}

func (s *injectorSet) clickAccountContinue(ctx context.Context, cred entity.Credential) (bool, error) {
	const op = "clickAccountContinue"

	if !cred.HasUsername() {
		return false, nil
	}

	status, err := s.evaluateStatus(ctx, op, accountContinueScript(cred.Username))
	if err != nil {
		return false, err
	}

	return status == "clicked", nil
}

func (s *injectorSet) fillMicrosoftUsername(ctx context.Context, cred entity.Credential) (bool, error) {
	if !cred.HasUsername() {
		return false, nil
	}

	input, err := s.locateFirst(ctx, microsoftUsernameSelectors)
	if err != nil {
		return false, err
	}

	if input == nil {
		return false, nil
	}

	if err := s.fillAndSubmit(ctx, input, cred.Username, microsoftSubmitSelectors); err != nil {
		return false, err
	}

	s.logger.Info("Filled Microsoft username and pressed Next")

	return true, nil
}

func (s *injectorSet) fillMicrosoftPassword(ctx context.Context, cred entity.Credential) (bool, error) {
	if !cred.HasPassword() {
		return false, nil
	}

	input, err := s.locateFirst(ctx, microsoftPasswordSelectors)
	if err != nil {
		return false, err
	}

	if input == nil {
		return false, nil
	}

	// The password value must never reach the logs.
	if err := s.fillAndSubmit(ctx, input, cred.Password, microsoftSubmitSelectors); err != nil {
		return false, err
	}

	s.logger.Info("Filled Microsoft password and submitted")

	return true, nil
}

// locateFirst probes the ordered candidates and returns the first element that
// exists, or (nil, nil) when none of them appeared within their probe timeout.
func (s *injectorSet) locateFirst(ctx context.Context, selectors []string) (ports.Element, error) {
	for _, selector := range selectors {
		element, err := s.browser.WaitForSelector(ctx, selector, float64(selectorProbeTimeout.Milliseconds()))
		if err != nil {
			return nil, err
		}

		if element != nil {
			s.logger.Debug("Located login control", zap.String(logg.Selector, selector))

			return element, nil
		}
	}

	return nil, nil
}

// fillAndSubmit runs the full interaction sequence on a located input: bring
// it into view, focus it, clear any pre-filled value, type the credential
// character by character so the page's own validation listeners fire, then
// submit with Enter and fall back to an explicit submit control.
func (s *injectorSet) fillAndSubmit(ctx context.Context, input ports.Element, value string, submitSelectors []string) error {
	if err := input.ScrollIntoView(ctx); err != nil {
		return err
	}

	if err := input.Click(ctx); err != nil {
		return err
	}

	// Select-all differs by keyboard layout, so try both modifier families.
	for _, modifiers := range [][]string{{"Control"}, {"Meta"}} {
		if err := s.browser.PressWithModifiers(ctx, "a", modifiers); err == nil {
			_ = s.browser.Press(ctx, "Backspace")

			break
		}
	}

	time.Sleep(clearSettleDelay)

	if err := s.browser.TypeText(ctx, value); err != nil {
		return err
	}

	if err := s.browser.Press(ctx, "Enter"); err != nil {
		return err
	}

	time.Sleep(submitSettleDelay)

	// If Enter had no effect the submit control is still there; click it.
	for _, selector := range submitSelectors {
		element, err := s.browser.WaitForSelector(ctx, selector, float64(clearSettleDelay.Milliseconds()))
		if err != nil || element == nil {
			continue
		}

		if err := element.Click(ctx); err == nil {
			s.logger.Debug("Clicked explicit submit control", zap.String(logg.Selector, selector))
		}

		break
	}

	return nil
}

func (s *injectorSet) evaluateStatus(ctx context.Context, op, script string) (string, error) {
	result, err := s.browser.Evaluate(ctx, script)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "script_evaluation_failed",
			apperr.MetaStage:  apperr.StageLogin,
		})
	}

	status, _ := result.(string)

	return status, nil
}
