// Package relay holds the in-memory pending queue behind the HTTP relay,
// the cross-process alternative to the store-based bridge.
package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mrkrexx/404AI/internal/models"
)

// ErrEmptyMessage is returned when an ingested payload has no text.
var ErrEmptyMessage = errors.New("message is required")

// Queue is the process-lifetime pending queue shared by all relay
// clients. Unlike the bridge's store, it keeps no response log: a
// message's responses accumulate on the entry itself and leave memory
// with it on Respond. Nothing survives a process restart.
type Queue struct {
	mu       sync.Mutex
	messages []models.Message
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add validates and ingests a message, assigning id, timestamp and source
// defaults, and prepends it to the queue. Returns the stored message.
func (q *Queue) Add(text string, timestamp time.Time, source string) (models.Message, error) {
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	if source == "" {
		source = models.DefaultSource
	}

	msg := models.Message{
		ID:        ulid.Make().String(),
		Text:      text,
		Timestamp: timestamp,
		Source:    source,
	}

	q.mu.Lock()
	q.messages = append([]models.Message{msg}, q.messages...)
	q.mu.Unlock()
	return msg, nil
}

// List returns a copy of the queue (newest first) and the unread count.
func (q *Queue) List() ([]models.Message, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.Message, len(q.messages))
	copy(out, q.messages)

	unread := 0
	for _, m := range out {
		if !m.Read {
			unread++
		}
	}
	return out, unread
}

// MarkRead flags the message with id as read. Reports whether the id was
// found.
func (q *Queue) MarkRead(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.messages {
		if q.messages[i].ID == id {
			q.messages[i].Read = true
			return true
		}
	}
	return false
}

// Respond appends a response to the message with id, then evicts the
// entry from the queue entirely. Reports whether the id was found.
func (q *Queue) Respond(id, text string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.messages {
		if q.messages[i].ID == id {
			q.messages[i].Responses = append(q.messages[i].Responses, models.Response{
				MessageID: id,
				Text:      text,
				Timestamp: time.Now().UTC(),
				Sender:    models.DefaultSender,
			})
			q.messages = append(q.messages[:i], q.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
