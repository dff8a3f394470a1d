package form

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jsm-form-agent/internal/ports"
	"jsm-form-agent/pkg/apperr"
)

type fakeBrowser struct {
	mu sync.Mutex

	evalQ        []any
	evalErr      error
	selectorHits map[string]ports.Element
	found        []ports.Element

	evalCalls int
	probed    []string
	pressed   []string
	typed     []string
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{selectorHits: map[string]ports.Element{}}
}

func (f *fakeBrowser) Launch(ctx context.Context) error               { return nil }
func (f *fakeBrowser) Close(ctx context.Context) error                { return nil }
func (f *fakeBrowser) IsReady() bool                                  { return true }
func (f *fakeBrowser) Navigate(ctx context.Context, url string) error { return nil }
func (f *fakeBrowser) WaitUntilNavigated(ctx context.Context) error   { return nil }
func (f *fakeBrowser) CurrentURL(ctx context.Context) (string, error) { return "", nil }

func (f *fakeBrowser) Evaluate(ctx context.Context, script string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.evalCalls++

	if f.evalErr != nil {
		return nil, f.evalErr
	}

	if len(f.evalQ) == 0 {
		return "", nil
	}

	result := f.evalQ[0]
	f.evalQ = f.evalQ[1:]

	return result, nil
}

func (f *fakeBrowser) WaitForSelector(ctx context.Context, selector string, timeoutMs float64) (ports.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.probed = append(f.probed, selector)

	return f.selectorHits[selector], nil
}

func (f *fakeBrowser) FindElements(ctx context.Context, selector string) ([]ports.Element, error) {
	return f.found, nil
}

func (f *fakeBrowser) Press(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pressed = append(f.pressed, key)
	return nil
}

func (f *fakeBrowser) PressWithModifiers(ctx context.Context, key string, modifiers []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pressed = append(f.pressed, modifiers[0]+"+"+key)
	return nil
}

func (f *fakeBrowser) TypeText(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed = append(f.typed, text)
	return nil
}

type fakeElement struct {
	clicks   int
	attrs    map[string]string
	values   []string
	valueIdx int
}

func (e *fakeElement) ScrollIntoView(ctx context.Context) error { return nil }
func (e *fakeElement) Click(ctx context.Context) error          { e.clicks++; return nil }

func (e *fakeElement) GetAttribute(ctx context.Context, name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) InnerText(ctx context.Context) (string, error) { return "", nil }

func (e *fakeElement) InputValue(ctx context.Context) (string, error) {
	if len(e.values) == 0 {
		return "", nil
	}

	value := e.values[e.valueIdx]
	if e.valueIdx < len(e.values)-1 {
		e.valueIdx++
	}

	return value, nil
}

var securityKeywords = []string{"Security", "Security Controls"}

func TestSetDropdownValueRejectsEmptyValue(t *testing.T) {
	browser := newFakeBrowser()
	engine := NewEngine(browser, zap.NewNop())

	err := engine.SetDropdownValue(context.Background(), securityKeywords, "   ")

	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Zero(t, browser.evalCalls, "validation must fail before touching the page")
	assert.Empty(t, browser.probed)
}

func TestSetDropdownValueConfirmsSelection(t *testing.T) {
	input := &fakeElement{values: []string{"High"}}
	browser := newFakeBrowser()
	browser.selectorHits[`input[aria-label*="Security" i]`] = input
	engine := NewEngine(browser, zap.NewNop())

	err := engine.SetDropdownValue(context.Background(), securityKeywords, "High")

	require.NoError(t, err)
	assert.Equal(t, []string{"High"}, browser.typed)
	assert.Contains(t, browser.pressed, "Enter")
}

func TestSetDropdownValueRetriesOnceWhenValueDidNotStick(t *testing.T) {
	input := &fakeElement{values: []string{"", "High"}}
	browser := newFakeBrowser()
	browser.selectorHits[`input[aria-label*="Security" i]`] = input
	engine := NewEngine(browser, zap.NewNop())

	err := engine.SetDropdownValue(context.Background(), securityKeywords, "High")

	require.NoError(t, err)
	assert.Equal(t, []string{"High", "High"}, browser.typed)
}

func TestSetDropdownValueFailsAfterRetries(t *testing.T) {
	input := &fakeElement{values: []string{"Low"}}
	browser := newFakeBrowser()
	browser.selectorHits[`input[aria-label*="Security" i]`] = input
	engine := NewEngine(browser, zap.NewNop())

	err := engine.SetDropdownValue(context.Background(), securityKeywords, "High")

	require.Error(t, err)
	assert.Equal(t, apperr.CodeActionFailed, apperr.CodeOf(err))
	assert.Len(t, browser.typed, 2)
}

func TestSetDropdownValueAcceptsCaseAndWhitespaceDrift(t *testing.T) {
	input := &fakeElement{values: []string{" high "}}
	browser := newFakeBrowser()
	browser.selectorHits[`input[aria-label*="Security" i]`] = input
	engine := NewEngine(browser, zap.NewNop())

	err := engine.SetDropdownValue(context.Background(), securityKeywords, "High")

	require.NoError(t, err)
}

func TestSetDropdownValueFallsBackToComboboxScan(t *testing.T) {
	input := &fakeElement{
		attrs:  map[string]string{"aria-label": "Security Controls Impact, select an option"},
		values: []string{"High"},
	}
	browser := newFakeBrowser()
	browser.found = []ports.Element{
		&fakeElement{attrs: map[string]string{"aria-label": "Summary"}},
		input,
	}
	engine := NewEngine(browser, zap.NewNop())

	err := engine.SetDropdownValue(context.Background(), securityKeywords, "High")

	require.NoError(t, err)
	assert.Equal(t, []string{"High"}, browser.typed)
}

func TestSetDropdownValueNotFound(t *testing.T) {
	browser := newFakeBrowser()
	engine := NewEngine(browser, zap.NewNop())

	err := engine.SetDropdownValue(context.Background(), securityKeywords, "High")

	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestOpenEditorByVisibleText(t *testing.T) {
	browser := newFakeBrowser()
	browser.evalQ = []any{"Edit form"}
	engine := NewEngine(browser, zap.NewNop())

	require.NoError(t, engine.OpenEditor(context.Background()))
	assert.Empty(t, browser.probed, "text match should not fall back to the structural selector")
}

func TestOpenEditorFallsBackToStructuralSelector(t *testing.T) {
	button := &fakeElement{}
	browser := newFakeBrowser()
	browser.evalQ = []any{""}
	browser.selectorHits[editorFallbackSelector] = button
	engine := NewEngine(browser, zap.NewNop())

	require.NoError(t, engine.OpenEditor(context.Background()))
	assert.Equal(t, 1, button.clicks)
}

func TestOpenEditorButtonMissing(t *testing.T) {
	browser := newFakeBrowser()
	browser.evalQ = []any{""}
	engine := NewEngine(browser, zap.NewNop())

	err := engine.OpenEditor(context.Background())

	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestSaveButtonMissing(t *testing.T) {
	browser := newFakeBrowser()
	browser.evalQ = []any{""}
	engine := NewEngine(browser, zap.NewNop())

	err := engine.Save(context.Background())

	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
