// Package ragclient is a Go client for the portfolio-rag query API.
package ragclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"portfolio-rag/internal/rag"
)

// maxFrameBytes bounds a single SSE line.
const maxFrameBytes = 1 << 20

// Client talks to a running portfolio-rag API server.
type Client struct {
	BaseURL string
	client  *http.Client
}

// NewClient creates a new client. A zero timeout means no timeout, which is
// what streaming callers usually want.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// QueryRequest is the body of POST /api/rag/query.
type QueryRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Message)
}

// Query sends a non-streaming query and decodes the answer.
func (c *Client) Query(ctx context.Context, req QueryRequest, debug bool) (*rag.AskResponse, error) {
	path := "/api/rag/query"
	if debug {
		path += "?debug=true"
	}

	resp, err := c.post(ctx, path, req, "application/json")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out rag.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// Stream sends a streaming query and yields server events in order. Frames
// that are not valid JSON events are dropped one at a time; iteration ends
// after the done or error event, or when the server closes the stream.
func (c *Client) Stream(ctx context.Context, req QueryRequest) iter.Seq2[rag.StreamEvent, error] {
	return func(yield func(rag.StreamEvent, error) bool) {
		resp, err := c.post(ctx, "/api/rag/query?stream=true", req, "text/event-stream")
		if err != nil {
			yield(rag.StreamEvent{}, err)
			return
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)

		for scanner.Scan() {
			event, ok := parseFrame(scanner.Text())
			if !ok {
				continue
			}
			if !yield(event, nil) {
				return
			}
			if event.Type == rag.EventDone || event.Type == rag.EventError {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(rag.StreamEvent{}, fmt.Errorf("failed to read stream: %w", err))
		}
	}
}

// parseFrame decodes one "data: " line. Blank lines, comments and other
// fields are ignored; malformed payloads are logged and dropped.
func parseFrame(line string) (rag.StreamEvent, bool) {
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return rag.StreamEvent{}, false
	}
	data = strings.TrimSpace(data)
	if data == "" {
		return rag.StreamEvent{}, false
	}

	var event rag.StreamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		slog.Warn("dropping malformed stream frame", "error", err)
		return rag.StreamEvent{}, false
	}
	switch event.Type {
	case rag.EventToken, rag.EventDone, rag.EventError:
		return event, true
	default:
		slog.Warn("dropping stream frame with unknown type", "type", event.Type)
		return rag.StreamEvent{}, false
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, accept string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() {
			_ = resp.Body.Close()
		}()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, nil
}
