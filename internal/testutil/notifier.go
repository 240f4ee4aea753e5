package testutil

import (
	"sync"

	"github.com/mcoot/spacetime-relay/internal/model"
)

// Delivery is one message sent to one connection
type Delivery struct {
	To  model.PlayerID
	Msg model.Message
}

// RecordingNotifier records every message it is asked to send
type RecordingNotifier struct {
	mu         sync.Mutex
	deliveries []Delivery
}

// NewRecordingNotifier creates an empty RecordingNotifier
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

// Send records the delivery
func (n *RecordingNotifier) Send(id model.PlayerID, msg model.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, Delivery{To: id, Msg: msg})
}

// Deliveries returns everything sent so far, in order
func (n *RecordingNotifier) Deliveries() []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Delivery, len(n.deliveries))
	copy(out, n.deliveries)
	return out
}

// For returns the messages sent to one connection, in order
func (n *RecordingNotifier) For(id model.PlayerID) []model.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Message
	for _, d := range n.deliveries {
		if d.To == id {
			out = append(out, d.Msg)
		}
	}
	return out
}

// OfType returns every delivery of the given event type
func (n *RecordingNotifier) OfType(t model.EventType) []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Delivery
	for _, d := range n.deliveries {
		if d.Msg.Type == t {
			out = append(out, d)
		}
	}
	return out
}

// Recipients returns who received events of the given type, in order
func (n *RecordingNotifier) Recipients(t model.EventType) []model.PlayerID {
	var ids []model.PlayerID
	for _, d := range n.OfType(t) {
		ids = append(ids, d.To)
	}
	return ids
}

// Reset forgets everything recorded so far
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = nil
}
