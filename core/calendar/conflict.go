package calendar

import (
	"context"
	"time"
)

// conflictWindowPadding widens the lookup window so events that merely
// border the proposed slot are fetched and can be ruled out precisely.
const conflictWindowPadding = time.Hour

// CheckConflict reports the first non-task event on the target provider
// overlapping [start, end), or nil when the slot is free. excludeID names
// the event being rescheduled so it cannot conflict with itself. The
// check is best-effort: any fetch failure degrades to nil rather than
// blocking the mutation.
func (s *Service) CheckConflict(ctx context.Context, target ProviderTag, start, end time.Time, excludeID string) *Event {
	ctx, span := tracer.Start(ctx, "calendar check conflict")
	defer span.End()

	min := start.Add(-conflictWindowPadding)
	max := end.Add(conflictWindowPadding)
	events, err := s.GetEvents(ctx, target, ListOptions{TimeMin: &min, TimeMax: &max})
	if err != nil {
		logger.WarnContext(ctx, "conflict lookup failed, treating slot as free", "error", err)
		return nil
	}

	for _, event := range events {
		if event.IsTask || event.ID == excludeID {
			continue
		}
		// Half-open overlap: back-to-back events do not conflict.
		if start.Before(event.End.Instant()) && end.After(event.Start.Instant()) {
			found := event
			return &found
		}
	}
	return nil
}
