package browser

import (
	"context"

	"github.com/playwright-community/playwright-go"
)

// element adapts a playwright handle to the narrow surface the login and form
// engines interact through.
type element struct {
	handle playwright.ElementHandle
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	return e.handle.ScrollIntoViewIfNeeded()
}

func (e *element) Click(ctx context.Context) error {
	return e.handle.Click()
}

func (e *element) GetAttribute(ctx context.Context, name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e *element) InnerText(ctx context.Context) (string, error) {
	return e.handle.InnerText()
}

func (e *element) InputValue(ctx context.Context) (string, error) {
	return e.handle.InputValue()
}
