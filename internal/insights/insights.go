// Package insights is a client for the external chat backend behind the
// AI insights panel.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Errors returned by the client. Callers map ErrUnavailable to 503 and
// ErrBadResponse to 502.
var (
	ErrUnavailable = errors.New("insights service unavailable")
	ErrBadResponse = errors.New("insights service returned an invalid response")
)

// maxResponseBytes bounds what is read from the backend.
const maxResponseBytes = 1 << 20

// Message is one chat message.
type Message struct {
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Client talks to the chat backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// History returns the stored conversation.
func (c *Client) History(ctx context.Context) ([]Message, error) {
	var msgs []Message
	if err := c.do(ctx, http.MethodGet, "/history", nil, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

// Chat sends a user message and returns the backend's reply.
func (c *Client) Chat(ctx context.Context, text string) (Message, error) {
	body, err := json.Marshal(Message{
		Text:      text,
		Sender:    "user",
		Timestamp: c.now().UTC(),
	})
	if err != nil {
		return Message{}, fmt.Errorf("marshal chat message: %w", err)
	}

	var reply Message
	if err := c.do(ctx, http.MethodPost, "/chat", body, &reply); err != nil {
		return Message{}, err
	}
	return reply, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, dst any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Insights request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "Insights backend error", "method", method, "path", path, "status_code", resp.StatusCode)
		if resp.StatusCode == http.StatusServiceUnavailable {
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return fmt.Errorf("%w: unexpected status code %d", ErrBadResponse, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrBadResponse, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrBadResponse, err)
	}
	return nil
}
