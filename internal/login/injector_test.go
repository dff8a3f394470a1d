package login

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jsm-form-agent/internal/entity"
	"jsm-form-agent/pkg/apperr"
)

var testCred = entity.Credential{Username: "alice@acme.com", Password: "hunter2!"}

func TestFillAtlassianUsernameClicksExistingAccount(t *testing.T) {
	browser := newFakeBrowser()
	browser.evalQ = []any{"clicked-account"}
	set := newInjectorSet(browser, zap.NewNop())

	advanced, err := set.fillAtlassianUsername(context.Background(), testCred)

	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Empty(t, browser.probed, "account button click should not fall through to field probing")
}

func TestFillAtlassianUsernameWaitsAfterUseAnotherAccount(t *testing.T) {
	browser := newFakeBrowser()
	browser.evalQ = []any{"opened-use-another"}
	set := newInjectorSet(browser, zap.NewNop())

	advanced, err := set.fillAtlassianUsername(context.Background(), testCred)

	require.NoError(t, err)
	assert.False(t, advanced)
}

func TestFillAtlassianUsernameFieldNotReadyYet(t *testing.T) {
	browser := newFakeBrowser()
	browser.evalQ = []any{"no-account-match"}
	set := newInjectorSet(browser, zap.NewNop())

	advanced, err := set.fillAtlassianUsername(context.Background(), testCred)

	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Len(t, browser.probed, len(atlassianUsernameSelectors))
}

func TestFillAtlassianUsernameTypesAndSubmits(t *testing.T) {
	input := &fakeElement{}
	browser := newFakeBrowser()
	browser.evalQ = []any{"no-account-match"}
	browser.selectorHits[`input[data-testid="username"]`] = input
	set := newInjectorSet(browser, zap.NewNop())

	advanced, err := set.fillAtlassianUsername(context.Background(), testCred)

	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, 1, input.clicks)
	assert.Equal(t, []string{testCred.Username}, browser.typed)
	assert.Contains(t, browser.pressed, "Control+a")
	assert.Contains(t, browser.pressed, "Backspace")
	assert.Contains(t, browser.pressed, "Enter")
}

func TestFillAtlassianUsernameScriptFailure(t *testing.T) {
	browser := newFakeBrowser()
	browser.evalErr = errors.New("execution context destroyed")
	set := newInjectorSet(browser, zap.NewNop())

	advanced, err := set.fillAtlassianUsername(context.Background(), testCred)

	require.Error(t, err)
	assert.False(t, advanced)
	assert.Equal(t, apperr.CodeActionFailed, apperr.CodeOf(err))
}

func TestClickAccountContinue(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: "clicked", want: true},
		{status: "email-not-found", want: false},
		{status: "button-not-found", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			browser := newFakeBrowser()
			browser.evalQ = []any{tt.status}
			set := newInjectorSet(browser, zap.NewNop())

			advanced, err := set.clickAccountContinue(context.Background(), testCred)

			require.NoError(t, err)
			assert.Equal(t, tt.want, advanced)
		})
	}
}

func TestFillMicrosoftPasswordTypesSecret(t *testing.T) {
	input := &fakeElement{}
	browser := newFakeBrowser()
	browser.selectorHits[`input[name="passwd"]`] = input
	set := newInjectorSet(browser, zap.NewNop())

	advanced, err := set.fillMicrosoftPassword(context.Background(), testCred)

	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, []string{testCred.Password}, browser.typed)
}

func TestFillMicrosoftPasswordFieldAbsent(t *testing.T) {
	browser := newFakeBrowser()
	set := newInjectorSet(browser, zap.NewNop())

	advanced, err := set.fillMicrosoftPassword(context.Background(), testCred)

	require.NoError(t, err)
	assert.False(t, advanced)
}

func TestInjectorsSkipWithoutCredential(t *testing.T) {
	browser := newFakeBrowser()
	set := newInjectorSet(browser, zap.NewNop())

	for state, injector := range set.table() {
		advanced, err := injector(context.Background(), entity.Credential{})

		require.NoError(t, err, state.String())
		assert.False(t, advanced, state.String())
	}

	assert.Empty(t, browser.evalScripts)
	assert.Empty(t, browser.probed)
}
