package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"jsm-form-agent/internal/ports"
	"jsm-form-agent/pkg/apperr"
	"jsm-form-agent/pkg/logg"
	"jsm-form-agent/pkg/tracing"
)

const (
	engineName   = "FormInteractionEngine"
	engineTracer = "form.engine"

	clickSettleDelay     = 2 * time.Second
	dropdownProbeTimeout = 3 * time.Second
	clearSettleDelay     = 200 * time.Millisecond
	typeSettleDelay      = 400 * time.Millisecond
	confirmSettleDelay   = 500 * time.Millisecond
	selectionAttempts    = 2
)

var (
	editorButtonTexts = []string{"Edit form", "Edit Form", "Edit risk assessment"}
	saveButtonTexts   = []string{"Save", "Update", "Done", "Close"}
)

// Structural fallbacks for when the visible text match fails. These class
// names come from the current Atlassian frontend build and will need tuning
// whenever it changes.
const (
	editorFallbackSelector = "._19itidpf"
	saveFallbackSelector   = "button.css-vl1vwyf"
)

// Engine mutates the risk assessment form once the login driver has delivered
// the ticket page: open the editor, set dropdown values, save.
type Engine struct {
	browser ports.Browser
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewEngine(browser ports.Browser, logger *zap.Logger) *Engine {
	return &Engine{
		browser: browser,
		logger:  logger.With(zap.String(logg.Layer, engineName)),
		tracer:  otel.Tracer(engineTracer),
	}
}

func (e *Engine) OpenEditor(ctx context.Context) (err error) {
	const op = "OpenEditor"
	logger := e.logger.With(zap.String(logg.Operation, op))

	ctx, span := tracing.StartSpan(ctx, e.tracer, logger, op)
	defer func() {
		span.End(err)
	}()

	logger.Info("Opening risk assessment edit form...")

	clicked, err := e.clickByTextOrSelector(ctx, editorButtonTexts, editorFallbackSelector)
	if err != nil {
		return err
	}

	if !clicked {
		logger.Error("Failed to open risk assessment edit form")

		return apperr.Wrap(op, apperr.CodeNotFound,
			errors.New("could not find the 'Edit form' button in the risk assessment section"),
			map[string]any{
				apperr.MetaReason: "editor_button_not_found",
				apperr.MetaStage:  apperr.StageForm,
			})
	}

	// The editor animates open.
	time.Sleep(clickSettleDelay)
	span.AddEvent("editor opened")

	return nil
}

// SetDropdownValue locates the combobox input matching one of the field
// keywords and drives the selection through synthetic keyboard input. After
// confirming with Enter the resulting value is read back; a mismatch retries
// the whole interaction once before failing.
func (e *Engine) SetDropdownValue(ctx context.Context, fieldKeywords []string, desiredValue string) (err error) {
	const op = "SetDropdownValue"
	logger := e.logger.With(zap.String(logg.Operation, op))

	desired := strings.TrimSpace(desiredValue)
	if desired == "" {
		return apperr.InvalidReqError(op, "desired_value",
			fmt.Errorf("desired value for dropdown %v may not be empty", fieldKeywords))
	}

	ctx, span := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.StringSlice("field_keywords", fieldKeywords))
	defer func() {
		span.End(err)
	}()

	input, err := e.locateDropdownInput(ctx, fieldKeywords)
	if err != nil {
		return err
	}

	if input == nil {
		return apperr.Wrap(op, apperr.CodeNotFound,
			fmt.Errorf("could not locate dropdown input for keywords %v", fieldKeywords),
			map[string]any{
				apperr.MetaReason:   "dropdown_not_found",
				apperr.MetaStage:    apperr.StageForm,
				apperr.MetaKeywords: strings.Join(fieldKeywords, ","),
			})
	}

	var lastValue string

	for attempt := 1; attempt <= selectionAttempts; attempt++ {
		span.AddEvent(fmt.Sprintf("selection attempt %d", attempt))

		if err := e.driveSelection(ctx, input, desired); err != nil {
			return err
		}

		lastValue, err = input.InputValue(ctx)
		if err != nil {
			return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
				apperr.MetaReason: "selection_readback_failed",
				apperr.MetaStage:  apperr.StageForm,
			})
		}

		if strings.EqualFold(strings.TrimSpace(lastValue), desired) {
			logger.Info("Dropdown value confirmed", zap.String(logg.Field, fieldKeywords[0]))

			return nil
		}

		logger.Warn("Dropdown value did not stick; retrying",
			zap.String(logg.Field, fieldKeywords[0]),
			zap.Int(logg.Attempt, attempt))
	}

	return apperr.Wrap(op, apperr.CodeActionFailed,
		fmt.Errorf("selected value %q did not stick for keywords %v (got %q)", desired, fieldKeywords, lastValue),
		map[string]any{
			apperr.MetaReason:   "selection_mismatch",
			apperr.MetaStage:    apperr.StageForm,
			apperr.MetaKeywords: strings.Join(fieldKeywords, ","),
			apperr.MetaValue:    desired,
		})
}

func (e *Engine) Save(ctx context.Context) (err error) {
	const op = "Save"
	logger := e.logger.With(zap.String(logg.Operation, op))

	ctx, span := tracing.StartSpan(ctx, e.tracer, logger, op)
	defer func() {
		span.End(err)
	}()

	clicked, err := e.clickByTextOrSelector(ctx, saveButtonTexts, saveFallbackSelector)
	if err != nil {
		return err
	}

	if !clicked {
		return apperr.Wrap(op, apperr.CodeNotFound,
			errors.New("could not find a save/update button after editing the risk assessment"),
			map[string]any{
				apperr.MetaReason: "save_button_not_found",
				apperr.MetaStage:  apperr.StageSave,
			})
	}

	logger.Info("Clicked save/update button to submit risk assessment changes")
	time.Sleep(clickSettleDelay)
	span.AddEvent("changes submitted")

	return nil
}

// clickByTextOrSelector tries the exact visible-text candidates first and
// falls back to the structural selector.
func (e *Engine) clickByTextOrSelector(ctx context.Context, candidateTexts []string, fallbackSelector string) (bool, error) {
	const op = "clickByTextOrSelector"

	result, err := e.browser.Evaluate(ctx, clickButtonByTextScript(candidateTexts))
	if err != nil {
		return false, apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "script_evaluation_failed",
			apperr.MetaStage:  apperr.StageForm,
		})
	}

	if matched, _ := result.(string); matched != "" {
		e.logger.Debug("Clicked control by visible text", zap.String("text", matched))

		return true, nil
	}

	element, err := e.browser.WaitForSelector(ctx, fallbackSelector, float64(dropdownProbeTimeout.Milliseconds()))
	if err != nil {
		return false, err
	}

	if element == nil {
		return false, nil
	}

	if err := element.ScrollIntoView(ctx); err != nil {
		return false, err
	}

	if err := element.Click(ctx); err != nil {
		return false, err
	}

	e.logger.Debug("Clicked control by structural selector",
		zap.String(logg.Selector, fallbackSelector))

	return true, nil
}

// locateDropdownInput probes attribute-substring selectors per keyword and
// falls back to scanning combobox-role inputs by accessible label.
func (e *Engine) locateDropdownInput(ctx context.Context, fieldKeywords []string) (ports.Element, error) {
	escapeCSS := func(value string) string {
		return strings.ReplaceAll(value, `"`, `\"`)
	}

	for _, keyword := range fieldKeywords {
		escaped := escapeCSS(keyword)
		selectors := []string{
			fmt.Sprintf(`input[aria-label*="%s" i]`, escaped),
			fmt.Sprintf(`input[data-testid*="%s" i]`, escaped),
		}

		for _, selector := range selectors {
			element, err := e.browser.WaitForSelector(ctx, selector, float64(dropdownProbeTimeout.Milliseconds()))
			if err != nil {
				return nil, err
			}

			if element != nil {
				e.logger.Info("Found dropdown input via selector", zap.String(logg.Selector, selector))

				return element, nil
			}

			e.logger.Debug("Selector not ready yet", zap.String(logg.Selector, selector))
		}
	}

	candidates, err := e.browser.FindElements(ctx, `input[role="combobox"]`)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		label, err := candidate.GetAttribute(ctx, "aria-label")
		if err != nil {
			continue
		}

		labelLower := strings.ToLower(label)
		for _, keyword := range fieldKeywords {
			if strings.Contains(labelLower, strings.ToLower(keyword)) {
				e.logger.Info("Matched dropdown input via aria-label", zap.String("aria_label", label))

				return candidate, nil
			}
		}
	}

	return nil, nil
}

// driveSelection performs one full keyboard interaction round on the input.
func (e *Engine) driveSelection(ctx context.Context, input ports.Element, desired string) error {
	const op = "driveSelection"

	if err := input.ScrollIntoView(ctx); err != nil {
		return apperr.WrapWithReason(op, apperr.CodeActionFailed, err, "scroll_into_view_failed")
	}

	if err := input.Click(ctx); err != nil {
		return apperr.WrapWithReason(op, apperr.CodeActionFailed, err, "input_click_failed")
	}

	// Select-all varies with the platform keyboard layout; try both.
	for _, modifiers := range [][]string{{"Control"}, {"Meta"}} {
		if err := e.browser.PressWithModifiers(ctx, "a", modifiers); err == nil {
			_ = e.browser.Press(ctx, "Backspace")

			break
		}
	}

	time.Sleep(clearSettleDelay)

	if err := e.browser.TypeText(ctx, desired); err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "dropdown_typing_failed",
			apperr.MetaStage:  apperr.StageForm,
			apperr.MetaValue:  desired,
		})
	}

	time.Sleep(typeSettleDelay)

	if err := e.browser.Press(ctx, "Enter"); err != nil {
		return apperr.WrapWithReason(op, apperr.CodeActionFailed, err, "dropdown_confirm_failed")
	}

	time.Sleep(confirmSettleDelay)

	return nil
}
