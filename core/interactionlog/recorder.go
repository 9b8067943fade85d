package interactionlog

import (
	"context"
	"time"
)

// Entry is one recorded interaction, keyed by caller identity.
type Entry struct {
	ID         string
	UserEmail  string
	ActionType string
	Provider   string
	Payload    string
	CreatedAt  time.Time
}

// Recorder persists interactions. Recording is fire-and-forget: callers
// swallow failures so logging can never fail the primary response.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Noop discards every entry.
type Noop struct{}

func (Noop) Record(context.Context, Entry) error {
	return nil
}
