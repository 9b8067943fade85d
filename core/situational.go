package orchestration

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/vbracun/aria-core/core/calendar"
	"golang.org/x/sync/errgroup"
)

const (
	correspondentLookback = 14 * 24 * time.Hour
	correspondentLimit    = 5
)

// situationalContext is what the resolver gets to see beyond the
// conversation itself: today's agenda and the people the caller has been
// meeting with lately.
type situationalContext struct {
	agenda         []calendar.Event
	correspondents []string
}

// gatherSituation fans the context reads out concurrently. Both branches
// are best-effort: a failure degrades to an empty branch and never fails
// the request.
func (o *Orchestrator) gatherSituation(ctx context.Context, service *calendar.Service, now time.Time) situationalContext {
	ctx, span := tracer.Start(ctx, "gather situational context")
	defer span.End()

	var situation situationalContext
	var group errgroup.Group
	group.Go(func() error {
		dayStart := now.UTC().Truncate(24 * time.Hour)
		dayEnd := dayStart.Add(24 * time.Hour)
		agenda, err := service.GetEvents(ctx, calendar.ProviderCombined, calendar.ListOptions{
			TimeMin: &dayStart,
			TimeMax: &dayEnd,
		})
		if err != nil {
			logger.WarnContext(ctx, "agenda lookup failed, continuing without it", "error", err)
			return nil
		}
		situation.agenda = agenda
		return nil
	})
	group.Go(func() error {
		since := now.Add(-correspondentLookback)
		until := now
		recent, err := service.GetEvents(ctx, calendar.ProviderCombined, calendar.ListOptions{
			TimeMin: &since,
			TimeMax: &until,
		})
		if err != nil {
			logger.WarnContext(ctx, "correspondent lookup failed, continuing without it", "error", err)
			return nil
		}
		situation.correspondents = frequentCorrespondents(recent, correspondentLimit)
		return nil
	})
	_ = group.Wait()
	return situation
}

func frequentCorrespondents(events []calendar.Event, limit int) []string {
	counts := map[string]int{}
	for _, event := range events {
		for _, attendee := range event.Attendees {
			if attendee.Email != "" {
				counts[attendee.Email]++
			}
		}
	}
	emails := make([]string, 0, len(counts))
	for email := range counts {
		emails = append(emails, email)
	}
	slices.SortFunc(emails, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})
	if len(emails) > limit {
		emails = emails[:limit]
	}
	return emails
}
