package servicedesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jsm-form-agent/internal/config"
	"jsm-form-agent/internal/entity"
	"jsm-form-agent/pkg/apperr"
)

func newTestClient(baseURL string) *Client {
	cfg := &config.Config{
		JsmConfig: &config.JsmConfig{
			BaseURL:       baseURL,
			PortalID:      6,
			RequestTypeID: 73,
		},
		AuthConfig: &config.AuthConfig{
			Username:          "alice@acme.com",
			AtlassianAPIToken: "token123",
		},
	}

	return NewClient(Params{Config: cfg, Logger: zap.NewNop()})
}

func TestAuthenticateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/servicedeskapi/servicedesk", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice@acme.com", user)
		assert.Equal(t, "token123", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"values":[]}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Authenticate(context.Background())

	require.NoError(t, err)
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Authenticate(context.Background())

	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "API token")
}

func TestAuthenticateForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Authenticate(context.Background())

	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestCreateRequestSendsSanitizedPayload(t *testing.T) {
	var received createRequestPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/servicedeskapi/request", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"issueId":"10001","issueKey":"ITH-66035"}`))
	}))
	defer srv.Close()

	form := entity.FormData{Fields: map[string]any{
		"summary":         "Routine cert rotation",
		"description":     "Rotating the edge TLS certs",
		"risk_assessment": map[string]any{"change_impact_assessment": map[string]any{}},
	}}

	issueKey, err := newTestClient(srv.URL).CreateRequest(context.Background(), form)

	require.NoError(t, err)
	assert.Equal(t, "ITH-66035", issueKey)
	assert.Equal(t, 6, received.ServiceDeskID)
	assert.Equal(t, 73, received.RequestTypeID)
	assert.Equal(t, "Routine cert rotation", received.RequestFieldValues["summary"])
	assert.NotContains(t, received.RequestFieldValues, "risk_assessment",
		"browser-only sections must not leak into the REST payload")
}

func TestCreateRequestBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessage":"summary is required"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateRequest(context.Background(),
		entity.FormData{Fields: map[string]any{}})

	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "portal_id")
}

func TestRequestTypeEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/rest/servicedeskapi/servicedesk/6/requesttype/73":
			w.Write([]byte(`{"id":"73","name":"Change request"}`))
		case "/rest/servicedeskapi/servicedesk/6/requesttype/73/field":
			w.Write([]byte(`{"requestTypeFields":[{"fieldId":"summary"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	details, err := client.RequestTypeDetails(context.Background())
	require.NoError(t, err)
	assert.Contains(t, details, "Change request")

	fields, err := client.RequestTypeFields(context.Background())
	require.NoError(t, err)
	assert.Contains(t, fields, "summary")
}

func TestSanitizeRequestFieldsDoesNotMutateInput(t *testing.T) {
	fields := map[string]any{"summary": "x", "risk_assessment": "y"}

	cleaned := sanitizeRequestFields(fields)

	assert.NotContains(t, cleaned, "risk_assessment")
	assert.Contains(t, fields, "risk_assessment")
}
