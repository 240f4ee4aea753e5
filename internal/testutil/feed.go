package testutil

import (
	"context"
	"sync"

	"github.com/mcoot/spacetime-relay/internal/model"
)

// RecordingPublisher records published lobby activity
type RecordingPublisher struct {
	mu         sync.Mutex
	activities []model.Activity
}

// NewRecordingPublisher creates an empty RecordingPublisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records the activity
func (p *RecordingPublisher) Publish(ctx context.Context, activity model.Activity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, activity)
}

// Types returns the recorded activity types in order
func (p *RecordingPublisher) Types() []model.ActivityType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.ActivityType, len(p.activities))
	for i, a := range p.activities {
		types[i] = a.Type
	}
	return types
}

// Activities returns everything published so far
func (p *RecordingPublisher) Activities() []model.Activity {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Activity, len(p.activities))
	copy(out, p.activities)
	return out
}
