package realtime

import "sync/atomic"

// Metrics counts traffic through the relay
type Metrics struct {
	EventsHandled   atomic.Int64
	EventsDropped   atomic.Int64
	MessagesSent    atomic.Int64
	MessagesDropped atomic.Int64
	TaskPanics      atomic.Int64
	Connects        atomic.Int64
	Disconnects     atomic.Int64
}

// NewMetrics creates a zeroed Metrics
func NewMetrics() *Metrics {
	return &Metrics{}
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	EventsHandled   int64 `json:"eventsHandled"`
	EventsDropped   int64 `json:"eventsDropped"`
	MessagesSent    int64 `json:"messagesSent"`
	MessagesDropped int64 `json:"messagesDropped"`
	TaskPanics      int64 `json:"taskPanics"`
	Connects        int64 `json:"connects"`
	Disconnects     int64 `json:"disconnects"`
}

// Snapshot returns a read-only copy for HTTP output
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		EventsHandled:   m.EventsHandled.Load(),
		EventsDropped:   m.EventsDropped.Load(),
		MessagesSent:    m.MessagesSent.Load(),
		MessagesDropped: m.MessagesDropped.Load(),
		TaskPanics:      m.TaskPanics.Load(),
		Connects:        m.Connects.Load(),
		Disconnects:     m.Disconnects.Load(),
	}
}
