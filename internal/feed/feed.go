// Package feed publishes lobby lifecycle activity to external observers.
package feed

import (
	"context"

	"github.com/mcoot/spacetime-relay/internal/model"
)

// Publisher accepts lobby activity. Publish must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, activity model.Activity)
}

// Nop discards all activity
type Nop struct{}

// Ensure Nop implements Publisher
var _ Publisher = Nop{}

// Publish does nothing
func (Nop) Publish(ctx context.Context, activity model.Activity) {}
