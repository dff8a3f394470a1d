package servicedesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"jsm-form-agent/internal/config"
	"jsm-form-agent/internal/entity"
	"jsm-form-agent/pkg/apperr"
	"jsm-form-agent/pkg/logg"
	"jsm-form-agent/pkg/tracing"
)

const (
	clientName   = "ServiceDeskClient"
	clientTracer = "servicedesk.client"

	requestTimeout = 30 * time.Second
	retryMax       = 3
)

// configOnlyKeys are present in field files for the browser workflow but are
// not valid request fields for the REST API.
var configOnlyKeys = []string{"risk_assessment"}

// Client talks to the JSM service desk REST API for the workflows that do not
// need a browser: credential validation, request creation, and form analysis.
type Client struct {
	config *config.Config
	logger *zap.Logger
	tracer trace.Tracer
	http   *retryablehttp.Client
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewClient(params Params) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = retryMax
	httpClient.HTTPClient.Timeout = requestTimeout
	httpClient.Logger = nil

	return &Client{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, clientName)),
		tracer: otel.Tracer(clientTracer),
		http:   httpClient,
	}
}

// Authenticate validates the configured credentials with a probe call against
// the service desk listing endpoint.
func (c *Client) Authenticate(ctx context.Context) (err error) {
	const op = "Authenticate"
	logger := c.logger.With(zap.String(logg.Operation, op))

	ctx, span := tracing.StartSpan(ctx, c.tracer, logger, op)
	defer func() {
		span.End(err)
	}()

	testURL := fmt.Sprintf("%s/rest/servicedeskapi/servicedesk", c.config.JsmConfig.BaseURL)

	status, body, err := c.get(ctx, op, testURL)
	if err != nil {
		return err
	}

	switch {
	case status >= 200 && status < 300:
		logger.Info("Authentication successful")

		return nil
	case status == http.StatusUnauthorized:
		return apperr.Wrap(op, apperr.CodeUnauthenticated,
			fmt.Errorf("invalid credentials: use your email address as username and an API token (not your account password) as the secret; create one at https://id.atlassian.com/manage-profile/security/api-tokens"),
			map[string]any{
				apperr.MetaReason: "invalid_credentials",
				apperr.MetaStage:  apperr.StageRequest,
			})
	case status == http.StatusForbidden:
		return apperr.Wrap(op, apperr.CodeForbidden,
			fmt.Errorf("credentials accepted but access to this service desk is denied"),
			map[string]any{
				apperr.MetaReason: "access_denied",
				apperr.MetaStage:  apperr.StageRequest,
			})
	default:
		return apperr.Wrap(op, apperr.CodeInternal,
			fmt.Errorf("authentication failed with status %d: %s", status, body),
			map[string]any{
				apperr.MetaReason: "unexpected_status",
				apperr.MetaStatus: status,
			})
	}
}

// CreateRequest creates a customer request and returns the new issue key.
func (c *Client) CreateRequest(ctx context.Context, form entity.FormData) (issueKey string, err error) {
	const op = "CreateRequest"
	logger := c.logger.With(zap.String(logg.Operation, op))

	ctx, span := tracing.StartSpan(ctx, c.tracer, logger, op)
	defer func() {
		span.End(err)
	}()

	payload := createRequestPayload{
		ServiceDeskID:      c.config.JsmConfig.PortalID,
		RequestTypeID:      c.config.JsmConfig.RequestTypeID,
		RequestFieldValues: sanitizeRequestFields(form.Fields),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.WrapWithReason(op, apperr.CodeInternal, err, "payload_marshal_failed")
	}

	createURL := fmt.Sprintf("%s/rest/servicedeskapi/request", c.config.JsmConfig.BaseURL)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, createURL, bytes.NewReader(body))
	if err != nil {
		return "", apperr.WrapWithReason(op, apperr.CodeInternal, err, "request_build_failed")
	}

	req.SetBasicAuth(c.config.AuthConfig.Username, c.config.AuthConfig.AtlassianAPIToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	logger.Info("Creating service desk request via API...")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "request_send_failed",
			apperr.MetaStage:  apperr.StageRequest,
		})
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.createRequestError(op, resp.StatusCode, string(respBody))
	}

	var created createRequestResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", apperr.WrapWithReason(op, apperr.CodeInternal, err, "response_parse_failed")
	}

	logger.Info("Service desk request created",
		zap.String("issue_key", created.IssueKey),
		zap.String(logg.URL, fmt.Sprintf("%s/browse/%s", c.config.JsmConfig.BaseURL, created.IssueKey)))

	return created.IssueKey, nil
}

func (c *Client) createRequestError(op string, status int, body string) error {
	switch status {
	case http.StatusBadRequest:
		return apperr.Wrap(op, apperr.CodeInvalidArgument,
			fmt.Errorf("bad request: check portal_id (%d) and request_type_id (%d) and that all required fields are provided: %s",
				c.config.JsmConfig.PortalID, c.config.JsmConfig.RequestTypeID, body),
			map[string]any{
				apperr.MetaReason: "bad_request",
				apperr.MetaStage:  apperr.StageRequest,
			})
	case http.StatusUnauthorized:
		return apperr.WrapErrorWithReason(op, apperr.CodeUnauthenticated, "authentication_failed")
	case http.StatusForbidden:
		return apperr.WrapErrorWithReason(op, apperr.CodeForbidden, "create_request_forbidden")
	default:
		return apperr.Wrap(op, apperr.CodeInternal,
			fmt.Errorf("request creation failed with status %d: %s", status, body),
			map[string]any{
				apperr.MetaReason: "unexpected_status",
				apperr.MetaStatus: status,
			})
	}
}

// RequestTypeDetails fetches the request type descriptor used by the analyze
// command.
func (c *Client) RequestTypeDetails(ctx context.Context) (string, error) {
	const op = "RequestTypeDetails"

	url := fmt.Sprintf("%s/rest/servicedeskapi/servicedesk/%d/requesttype/%d",
		c.config.JsmConfig.BaseURL, c.config.JsmConfig.PortalID, c.config.JsmConfig.RequestTypeID)

	return c.getOK(ctx, op, url)
}

// RequestTypeFields fetches the field metadata for the configured request
// type.
func (c *Client) RequestTypeFields(ctx context.Context) (string, error) {
	const op = "RequestTypeFields"

	url := fmt.Sprintf("%s/rest/servicedeskapi/servicedesk/%d/requesttype/%d/field",
		c.config.JsmConfig.BaseURL, c.config.JsmConfig.PortalID, c.config.JsmConfig.RequestTypeID)

	return c.getOK(ctx, op, url)
}

func (c *Client) getOK(ctx context.Context, op, url string) (string, error) {
	status, body, err := c.get(ctx, op, url)
	if err != nil {
		return "", err
	}

	if status < 200 || status >= 300 {
		return "", apperr.Wrap(op, apperr.CodeInternal,
			fmt.Errorf("request failed with status %d: %s", status, body),
			map[string]any{
				apperr.MetaReason: "unexpected_status",
				apperr.MetaStatus: status,
				apperr.MetaURL:    url,
			})
	}

	return body, nil
}

func (c *Client) get(ctx context.Context, op, url string) (int, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", apperr.WrapWithReason(op, apperr.CodeInternal, err, "request_build_failed")
	}

	req.SetBasicAuth(c.config.AuthConfig.Username, c.config.AuthConfig.AtlassianAPIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "request_send_failed",
			apperr.MetaStage:  apperr.StageRequest,
			apperr.MetaURL:    url,
		})
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	return resp.StatusCode, string(body), nil
}

func sanitizeRequestFields(fields map[string]any) map[string]any {
	cleaned := make(map[string]any, len(fields))
	for k, v := range fields {
		cleaned[k] = v
	}

	for _, k := range configOnlyKeys {
		delete(cleaned, k)
	}

	return cleaned
}

type createRequestPayload struct {
	ServiceDeskID      int            `json:"serviceDeskId"`
	RequestTypeID      int            `json:"requestTypeId"`
	RequestFieldValues map[string]any `json:"requestFieldValues"`
	RaiseOnBehalfOf    string         `json:"raiseOnBehalfOf,omitempty"`
}

type createRequestResponse struct {
	IssueID       string `json:"issueId"`
	IssueKey      string `json:"issueKey"`
	RequestTypeID string `json:"requestTypeId"`
	ServiceDeskID string `json:"serviceDeskId"`
}
