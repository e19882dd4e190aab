package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liveset/internal/persister"
	"github.com/claude/liveset/internal/session"
	"github.com/claude/liveset/internal/storage"
)

// HTTPClient implements Engine by calling the LiveSet REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the session lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Engine.
var _ Engine = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty when the server identifies callers by tailnet identity.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the REST API.
type APIError struct {
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.Status, e.Message)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, in any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Path: path, Status: resp.StatusCode, Message: errorMessage(data)}
	}

	return data, nil
}

// errorMessage extracts the "error" field of a JSON error body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

// state sends a request whose response is the session state.
func (c *HTTPClient) state(ctx context.Context, method, path string, in any) (session.State, error) {
	body, err := c.do(ctx, method, path, nil, in)
	if err != nil {
		return session.State{}, err
	}

	var st session.State
	if err := json.Unmarshal(body, &st); err != nil {
		return session.State{}, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return st, nil
}

func exercisePath(exerciseID string) string {
	return "/api/v1/session/exercises/" + url.PathEscape(exerciseID)
}

func (c *HTTPClient) Session(ctx context.Context) (session.State, error) {
	return c.state(ctx, http.MethodGet, "/api/v1/session", nil)
}

func (c *HTTPClient) StartWorkout(ctx context.Context, name, templateID string) (session.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/session/start", map[string]string{
		"name":        name,
		"template_id": templateID,
	})
}

func (c *HTTPClient) AddExercise(ctx context.Context, spec session.ExerciseSpec) (session.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/session/exercises", map[string]any{
		"exercise_id": spec.ID,
		"name":        spec.Name,
		"type":        spec.Type,
		"muscles":     spec.Muscles,
		"equipment":   spec.Equipment,
	})
}

func (c *HTTPClient) RemoveExercise(ctx context.Context, exerciseID string) (session.State, error) {
	return c.state(ctx, http.MethodDelete, exercisePath(exerciseID), nil)
}

func (c *HTTPClient) AddSet(ctx context.Context, exerciseID string) (session.State, error) {
	return c.state(ctx, http.MethodPost, exercisePath(exerciseID)+"/sets", nil)
}

func (c *HTTPClient) UpdateSet(ctx context.Context, exerciseID string, index int, field, value string) (session.State, error) {
	return c.state(ctx, http.MethodPatch, exercisePath(exerciseID)+"/sets/"+strconv.Itoa(index), map[string]string{
		"field": field,
		"value": value,
	})
}

func (c *HTTPClient) StartRest(ctx context.Context, seconds int) (session.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/session/rest/start", map[string]int{"seconds": seconds})
}

func (c *HTTPClient) Finish(ctx context.Context) (*persister.SaveResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/v1/session/finish", nil, nil)
	if err != nil {
		return nil, err
	}

	var result persister.SaveResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("httpclient: decode finish result: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) Discard(ctx context.Context) (session.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/session/discard", nil)
}

func (c *HTTPClient) RecentWorkouts(ctx context.Context, limit int) ([]storage.WorkoutSummary, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.do(ctx, http.MethodGet, "/api/v1/workouts", params, nil)
	if err != nil {
		return nil, err
	}

	var workouts []storage.WorkoutSummary
	if err := json.Unmarshal(body, &workouts); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}
	return workouts, nil
}
