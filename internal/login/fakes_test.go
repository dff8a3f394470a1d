package login

import (
	"context"
	"sync"

	"jsm-form-agent/internal/ports"
)

// fakeBrowser scripts the browser surface: CurrentURL walks a fixed URL
// sequence (staying on the last entry), Evaluate pops queued results, and
// WaitForSelector serves elements out of a selector map.
type fakeBrowser struct {
	mu sync.Mutex

	urls    []string
	urlIdx  int
	urlErr  error
	ready   bool
	evalQ   []any
	evalErr error

	selectorHits map[string]ports.Element
	selectorErr  error

	evalScripts []string
	probed      []string
	pressed     []string
	typed       []string
}

func newFakeBrowser(urls ...string) *fakeBrowser {
	return &fakeBrowser{
		urls:         urls,
		ready:        true,
		selectorHits: map[string]ports.Element{},
	}
}

func (f *fakeBrowser) Launch(ctx context.Context) error { f.ready = true; return nil }
func (f *fakeBrowser) Close(ctx context.Context) error  { f.ready = false; return nil }
func (f *fakeBrowser) IsReady() bool                    { return f.ready }

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error { return nil }
func (f *fakeBrowser) WaitUntilNavigated(ctx context.Context) error   { return nil }

func (f *fakeBrowser) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.urlErr != nil {
		return "", f.urlErr
	}

	if len(f.urls) == 0 {
		return "", nil
	}

	url := f.urls[f.urlIdx]
	if f.urlIdx < len(f.urls)-1 {
		f.urlIdx++
	}

	return url, nil
}

func (f *fakeBrowser) Evaluate(ctx context.Context, script string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.evalScripts = append(f.evalScripts, script)

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

	if f.selectorErr != nil {
		return nil, f.selectorErr
	}

	return f.selectorHits[selector], nil
}

func (f *fakeBrowser) FindElements(ctx context.Context, selector string) ([]ports.Element, error) {
	return nil, nil
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
	mu       sync.Mutex
	clicks   int
	scrolled int
	attrs    map[string]string
	values   []string
	valueIdx int
}

func (e *fakeElement) ScrollIntoView(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scrolled++
	return nil
}

func (e *fakeElement) Click(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clicks++
	return nil
}

func (e *fakeElement) GetAttribute(ctx context.Context, name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) InnerText(ctx context.Context) (string, error) {
	return "", nil
}

func (e *fakeElement) InputValue(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.values) == 0 {
		return "", nil
	}

	value := e.values[e.valueIdx]
	if e.valueIdx < len(e.values)-1 {
		e.valueIdx++
	}

	return value, nil
}
