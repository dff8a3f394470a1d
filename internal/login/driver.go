package login

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jsm-form-agent/internal/entity"
	"jsm-form-agent/internal/ports"
	"jsm-form-agent/internal/step"
	"jsm-form-agent/pkg/apperr"
	"jsm-form-agent/pkg/logg"
)

const (
	driverName = "LoginFlowDriver"

	defaultTimeout      = 45 * time.Second
	defaultPollInterval = time.Second
	defaultStallGrace   = 5 * time.Second
	defaultMFASettle    = 3 * time.Second
)

// Driver polls the current URL, classifies it, and dispatches to the matching
// credential injector until the ticket page is reached or the flow goes quiet
// for longer than the inactivity timeout. The timeout measures time since the
// last URL change, not total elapsed time: a slow but moving flow never times
// out.
type Driver struct {
	browser      ports.Browser
	steps        *step.Controller
	logger       *zap.Logger
	timeout      time.Duration
	pollInterval time.Duration
	stallGrace   time.Duration
	mfaSettle    time.Duration
	injectors    map[State]InjectorFunc
}

// Options tune the driver. Zero values fall back to production defaults;
// Injectors overrides the provider table (used by tests).
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
	StallGrace   time.Duration
	MFASettle    time.Duration
	Injectors    map[State]InjectorFunc
}

func NewDriver(browser ports.Browser, steps *step.Controller, logger *zap.Logger, opts Options) *Driver {
	d := &Driver{
		browser:      browser,
		steps:        steps,
		logger:       logger.With(zap.String(logg.Layer, driverName)),
		timeout:      opts.Timeout,
		pollInterval: opts.PollInterval,
		stallGrace:   opts.StallGrace,
		mfaSettle:    opts.MFASettle,
		injectors:    opts.Injectors,
	}

	if d.timeout <= 0 {
		d.timeout = defaultTimeout
	}

	if d.pollInterval <= 0 {
		d.pollInterval = defaultPollInterval
	}

	if d.stallGrace <= 0 {
		d.stallGrace = defaultStallGrace
	}

	if d.mfaSettle <= 0 {
		d.mfaSettle = defaultMFASettle
	}

	if d.injectors == nil {
		d.injectors = newInjectorSet(browser, d.logger).table()
	}

	return d
}

// WaitForTicketPage runs the polling loop until the ticket page is reached or
// the inactivity timeout expires. Timeout is a boolean failure carrying the
// last observed URL; the returned error is reserved for broken browser calls.
func (d *Driver) WaitForTicketPage(ctx context.Context, ticketID string, cred entity.Credential) (bool, string, error) {
	const op = "WaitForTicketPage"
	logger := d.logger.With(zap.String(logg.Operation, op), zap.String(logg.TicketID, ticketID))

	logger.Info("Going through login steps...")

	lastChange := time.Now()
	lastURL := ""
	done := make(map[State]bool)
	stallWarned := false
	skipSleep := false

	for time.Since(lastChange) < d.timeout {
		if !skipSleep {
			select {
			case <-ctx.Done():
				return false, lastURL, ctx.Err()
			case <-time.After(d.pollInterval):
			}
		}

		skipSleep = false

		// Redirect chains race the URL read; a settle failure here just means
		// the page is still moving, which the next poll will observe.
		_ = d.browser.WaitUntilNavigated(ctx)

		url, err := d.browser.CurrentURL(ctx)
		if err != nil {
			return false, lastURL, apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
				apperr.MetaReason: "current_url_read_failed",
				apperr.MetaStage:  apperr.StageLogin,
			})
		}

		logger.Debug("Polled current URL", zap.String(logg.URL, url))

		if IsTicketPage(url, ticketID) {
			if err := d.steps.Pause(fmt.Sprintf("Ticket page reached for %s; inspect before editing", ticketID)); err != nil {
				return false, url, err
			}

			return true, url, nil
		}

		if url != lastURL {
			logger.Info("URL changed; resetting inactivity timer", zap.String(logg.URL, url))
			lastChange = time.Now()
			lastURL = url
			// A changed URL means any prior prompt is gone; the same state may
			// legitimately recur later and deserves a fresh attempt.
			done = make(map[State]bool)
			stallWarned = false
		} else if !stallWarned && time.Since(lastChange) > d.stallGrace {
			logger.Warn("Login URL has not changed; check whether manual intervention is needed",
				zap.String(logg.URL, url))
			stallWarned = true
		}

		state := Classify(url)

		switch {
		case state == StateMicrosoftMFAWait:
			// Repeated MFA re-processing redirects are an expected wait, not a
			// stall; hold on and keep the inactivity timer fresh.
			logger.Info("Waiting on Microsoft MFA approval...")
			time.Sleep(d.mfaSettle)
			lastChange = time.Now()
		case !done[state]:
			if injector, handled := d.injectors[state]; handled && credentialConfigured(state, cred) {
				advanced, injErr := injector(ctx, cred)

				switch {
				case injErr != nil:
					// Terminal for this step only: mark it done and keep
					// polling the rest of the flow.
					logger.Warn("Credential injection failed",
						zap.String(logg.State, state.String()),
						zap.Error(injErr))
					done[state] = true

					if err := d.steps.Pause(fmt.Sprintf("Injection failed on %s; intervene manually if needed", state)); err != nil {
						return false, url, err
					}
				case advanced:
					logger.Info("Login step advanced", zap.String(logg.State, state.String()))
					done[state] = true

					if err := d.steps.Pause(fmt.Sprintf("Advanced past %s", state)); err != nil {
						return false, url, err
					}

					// Re-read the URL right away; the page is about to move.
					skipSleep = true
				default:
					logger.Debug("Login control not ready yet; will retry",
						zap.String(logg.State, state.String()))
				}
			}
		}
	}

	logger.Info("Could not verify the ticket page before the inactivity timeout",
		zap.String(logg.URL, lastURL))

	return false, lastURL, nil
}

func credentialConfigured(state State, cred entity.Credential) bool {
	switch state {
	case StateMicrosoftPassword:
		return cred.HasPassword()
	case StateAtlassianUsername, StateAtlassianAccountChooser, StateMicrosoftUsername:
		return cred.HasUsername()
	default:
		return false
	}
}
