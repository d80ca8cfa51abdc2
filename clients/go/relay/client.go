// Package relay provides a client for the 404AI relay server HTTP API.
package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a relay API client.
type Client struct {
	BaseURL    string
	Operator   string // optional, attached to responses as X-Operator
	HTTPClient *http.Client
}

// Message mirrors a relay queue entry.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Read      bool      `json:"read"`
}

// MessageList is the queue view returned by the relay.
type MessageList struct {
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unreadCount"`
}

// WebhookAck acknowledges an ingested message.
type WebhookAck struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// NewClient creates a relay client for baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send posts a message through the webhook, as the public agent would.
func (c *Client) Send(text string) (*WebhookAck, error) {
	var ack WebhookAck
	err := c.do(http.MethodPost, "/webhook/message", map[string]string{"message": text}, &ack)
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// Messages fetches the pending queue.
func (c *Client) Messages() (*MessageList, error) {
	var list MessageList
	if err := c.do(http.MethodGet, "/api/messages", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// MarkRead acknowledges a message.
func (c *Client) MarkRead(id string) error {
	return c.do(http.MethodPut, "/api/messages/"+id+"/read", nil, nil)
}

// Respond answers a message; the relay evicts it from the queue.
func (c *Client) Respond(id, text string) error {
	return c.do(http.MethodPost, "/api/messages/"+id+"/respond", map[string]string{"response": text}, nil)
}

func (c *Client) do(method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Operator != "" {
		req.Header.Set("X-Operator", c.Operator)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if dest != nil {
		return json.NewDecoder(resp.Body).Decode(dest)
	}
	return nil
}
