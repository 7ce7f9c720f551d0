package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Client calls the Collab-Studio REST API as an author.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a Client with OpenTelemetry instrumentation
func NewClient(baseURL, token string, log *zap.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Logger: log,
	}
}

// envelope mirrors serializer.Response.
type envelope struct {
	Code  int             `json:"code"`
	Data  json.RawMessage `json:"data"`
	Msg   string          `json:"msg"`
	Error string          `json:"error"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	Msg    string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed with status %d: %s: %s", e.Status, e.Msg, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Msg)
}

// StatusOf returns the HTTP status of an APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type SubmitRequest struct {
	ProjectID  uuid.UUID       `json:"project_id"`
	AuthorID   uuid.UUID       `json:"author_id,omitempty"`
	CanvasType canvas.Type     `json:"canvas_type"`
	Payload    json.RawMessage `json:"payload"`
	ClientRef  string          `json:"client_ref,omitempty"`
}

type SubmitResult struct {
	Contribution *model.Contribution `json:"contribution,omitempty"`
	Removed      *canvas.GridKey     `json:"removed,omitempty"`
	RemovedID    int64               `json:"removed_id,omitempty"`
	Project      *model.Project      `json:"project"`
	Noop         bool                `json:"noop,omitempty"`
}

// Submit posts one contribution through the request/response path.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	body, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	var out SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/contributions", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAll returns the full ordered contribution sequence of a project.
func (c *Client) ListAll(ctx context.Context, projectID uuid.UUID) ([]*model.Contribution, error) {
	var out []*model.Contribution
	path := fmt.Sprintf("/api/v1/projects/%s/contributions/all", projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type ContributionPage struct {
	Items      []*model.Contribution `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
	HasMore    bool                  `json:"has_more"`
}

func (c *Client) ListPage(ctx context.Context, projectID uuid.UUID, cursor string, limit int) (*ContributionPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	var out ContributionPage
	path := fmt.Sprintf("/api/v1/projects/%s/contributions", projectID)
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/projects/%s", projectID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the author owning the client token.
func (c *Client) Me(ctx context.Context) (*model.Author, error) {
	var out model.Author
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Contributors(ctx context.Context, projectID uuid.UUID) ([]*model.Contributor, error) {
	var out []*model.Contributor
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/projects/%s/contributors", projectID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Export downloads a rendered artifact and its content type.
func (c *Client) Export(ctx context.Context, projectID uuid.UUID, format string) ([]byte, string, error) {
	q := url.Values{}
	if format != "" {
		q.Set("format", format)
	}
	resp, err := c.send(ctx, http.MethodGet, fmt.Sprintf("/api/v1/projects/%s/export", projectID), q, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", c.apiError("export", resp.StatusCode, respBody)
	}
	return respBody, resp.Header.Get("Content-Type"), nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.apiError(method+" "+path, resp.StatusCode, respBody)
	}

	var env envelope
	if err := sonic.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unmarshal response data: %w", err)
	}
	return nil
}

func (c *Client) apiError(op string, status int, body []byte) error {
	var env envelope
	apiErr := &APIError{Status: status, Msg: http.StatusText(status)}
	if err := sonic.Unmarshal(body, &env); err == nil && env.Msg != "" {
		apiErr.Msg = env.Msg
		apiErr.Detail = env.Error
	}
	if status >= http.StatusInternalServerError {
		c.Logger.Error("canvas api request failed",
			zap.String("op", op),
			zap.Int("status_code", status),
			zap.String("body", string(body)))
	}
	return apiErr
}
