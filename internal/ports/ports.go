package ports

import (
	"context"

	"jsm-form-agent/internal/entity"
)

// Browser is the narrow control surface the login state machine and the form
// engine run over. Implementations drive a real browser; tests script it.
type Browser interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	IsReady() bool

	Navigate(ctx context.Context, url string) error
	WaitUntilNavigated(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)

	// Evaluate runs a script against the current page and returns its
	// JSON-serializable result.
	Evaluate(ctx context.Context, script string) (any, error)

	// WaitForSelector returns (nil, nil) when the selector does not appear
	// within the timeout; that is an expected condition, not an error.
	WaitForSelector(ctx context.Context, selector string, timeoutMs float64) (Element, error)
	FindElements(ctx context.Context, selector string) ([]Element, error)

	Press(ctx context.Context, key string) error
	PressWithModifiers(ctx context.Context, key string, modifiers []string) error
	// TypeText synthesizes keystrokes character by character so page-side
	// input listeners fire for every char.
	TypeText(ctx context.Context, text string) error
}

type Element interface {
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context) error
	GetAttribute(ctx context.Context, name string) (string, error)
	InnerText(ctx context.Context) (string, error)
	InputValue(ctx context.Context) (string, error)
}

type AssessmentRunner interface {
	CompleteRiskAssessment(ctx context.Context, ticketID string, riskConfig *entity.RiskAssessmentConfig) (*entity.Assessment, error)
}

type RequestClient interface {
	Authenticate(ctx context.Context) error
	CreateRequest(ctx context.Context, form entity.FormData) (string, error)
	RequestTypeDetails(ctx context.Context) (string, error)
	RequestTypeFields(ctx context.Context) (string, error)
}
