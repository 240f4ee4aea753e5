package testutil

import (
	"sync"

	"github.com/mcoot/spacetime-relay/internal/model"
)

// Inbox is a connection stand-in that keeps everything sent to it
type Inbox struct {
	mu       sync.Mutex
	messages []model.Message
}

// NewInbox creates an empty Inbox
func NewInbox() *Inbox {
	return &Inbox{}
}

// Enqueue records msg
func (i *Inbox) Enqueue(msg model.Message) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, msg)
	return true
}

// Messages returns everything received so far
func (i *Inbox) Messages() []model.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]model.Message(nil), i.messages...)
}

// Types returns the received event types in order
func (i *Inbox) Types() []model.EventType {
	msgs := i.Messages()
	types := make([]model.EventType, len(msgs))
	for n, m := range msgs {
		types[n] = m.Type
	}
	return types
}

// Last returns the most recent message of type t
func (i *Inbox) Last(t model.EventType) (model.Message, bool) {
	msgs := i.Messages()
	for n := len(msgs) - 1; n >= 0; n-- {
		if msgs[n].Type == t {
			return msgs[n], true
		}
	}
	return model.Message{}, false
}
