package models

import (
	"errors"
	"time"
)

// DefaultSource tags messages that arrive without an explicit origin.
const DefaultSource = "public-agent"

// DefaultSender tags responses that arrive without an explicit sender.
const DefaultSender = "operator"

// Message is a pending message from the public agent. It stays in the
// pending queue until a response is recorded against it.
type Message struct {
	ID        string     `json:"id"` // ULID
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Read      bool       `json:"read"`
	Responses []Response `json:"responses,omitempty"`
}

// Response is an operator reply to a message. Immutable once created.
type Response struct {
	MessageID string    `json:"messageId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
}

// Validate checks required fields on a stored message.
func (m *Message) Validate() error {
	if m.ID == "" {
		return errors.New("message id is required")
	}
	if m.Text == "" {
		return errors.New("message text is required")
	}
	if m.Timestamp.IsZero() {
		return errors.New("message timestamp is required")
	}
	return nil
}

// Validate checks required fields on a stored response.
func (r *Response) Validate() error {
	if r.MessageID == "" {
		return errors.New("response messageId is required")
	}
	if r.Text == "" {
		return errors.New("response text is required")
	}
	if r.Timestamp.IsZero() {
		return errors.New("response timestamp is required")
	}
	return nil
}
