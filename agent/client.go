// Package agent is the HTTP client for the AG-UI compatible endpoint.
// It posts run requests and hands the response back either as a live
// SSE body (streaming) or as the extracted text of a completed run.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/config"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/logger"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/types"
)

type Client struct {
	log        *logger.Logger
	endpoint   string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	// No overall client timeout: SSE streams outlive any sane value.
	// Stalls are handled by the per-frame watchdog downstream.
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		ResponseHeaderTimeout: cfg.FrameTimeout,
	}
	return &Client{
		log:        logger.NewLogger("AgentClient", uuid.NewString()),
		endpoint:   cfg.EndpointURL,
		httpClient: &http.Client{Transport: transport},
	}
}

// EndpointError reports a non-200 response from the agent endpoint.
type EndpointError struct {
	StatusCode int
	Body       string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("AG-UI endpoint returned %d: %s", e.StatusCode, e.Body)
}

// ValidationError is a decoded 422 response: the endpoint rejected the
// run request's shape.
type ValidationError struct {
	Items []ValidationItem
}

type ValidationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		locs := make([]string, 0, len(item.Loc))
		for _, loc := range item.Loc {
			locs = append(locs, fmt.Sprint(loc))
		}
		msg := item.Msg
		if msg == "" {
			msg = "Unknown error"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(locs, "."), msg))
	}
	return "Validation Error: " + strings.Join(parts, "; ")
}

// IsConnectionError reports whether err is a transport-level failure to
// reach the endpoint, as opposed to a response the endpoint sent.
func IsConnectionError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func (c *Client) post(ctx context.Context, input types.RunAgentInput, accept string) (*http.Response, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode run request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	c.log.Info(fmt.Sprintf("forwarding run %s (thread %s) to %s", input.RunID, input.ThreadID, c.endpoint))
	return c.httpClient.Do(req)
}

// checkStatus converts a non-200 response into an error, decoding 422
// validation lists into readable messages.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var items []ValidationItem
		if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
			return &ValidationError{Items: items}
		}
		// FastAPI-style wrapper: {"detail": [...]}
		var wrapped struct {
			Detail []ValidationItem `json:"detail"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Detail) > 0 {
			return &ValidationError{Items: wrapped.Detail}
		}
	}
	return &EndpointError{StatusCode: resp.StatusCode, Body: string(raw)}
}

// Run posts the run request and returns the live event-stream body.
// The caller owns closing the body.
func (c *Client) Run(ctx context.Context, input types.RunAgentInput) (io.ReadCloser, error) {
	resp, err := c.post(ctx, input, "text/event-stream")
	if err != nil {
		return nil, fmt.Errorf("connect to AG-UI endpoint: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// RunJSON posts the run request with a JSON accept header. Some
// endpoints answer with an event stream regardless, so the caller must
// inspect the response content type before decoding. The caller owns
// closing the body.
func (c *Client) RunJSON(ctx context.Context, input types.RunAgentInput) (*http.Response, error) {
	resp, err := c.post(ctx, input, "application/json")
	if err != nil {
		return nil, fmt.Errorf("connect to AG-UI endpoint: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DecodeDocument extracts the completed run's text from a JSON response
// body.
func DecodeDocument(body io.Reader) (string, error) {
	var doc any
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode run response: %w", err)
	}
	return ExtractText(doc), nil
}

// ExtractText probes a completed-run document for its text content.
// The AG-UI protocol does not pin the non-streaming response shape, so
// well-known fields are tried in order before falling back to the
// pretty-printed document.
func ExtractText(doc any) string {
	obj, ok := doc.(map[string]any)
	if !ok {
		return fmt.Sprint(doc)
	}
	for _, field := range []string{"content", "message", "text", "result"} {
		if v, ok := obj[field]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprint(v)
		}
	}
	pretty, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Sprint(obj)
	}
	return string(pretty)
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Ping checks that the endpoint is reachable. Used at startup to warn
// early about a dead endpoint without failing the process.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
