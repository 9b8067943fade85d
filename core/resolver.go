package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vbracun/aria-core/core/calendar"
	"github.com/vbracun/aria-core/core/llms"
)

func (o *Orchestrator) resolve(ctx context.Context, history []llms.Turn, situation situationalContext, now time.Time, loc *time.Location, configured []calendar.ProviderTag) (*llms.Response, error) {
	if o.llm == nil {
		return nil, fmt.Errorf("no llm client is configured")
	}
	return o.llm.Prompt(ctx, "",
		llms.WithSystemPrompt(systemPrompt(situation, now, loc, configured)),
		llms.WithTurns(history...),
		llms.WithTools(toolset()...),
	)
}

func systemPrompt(situation situationalContext, now time.Time, loc *time.Location, configured []calendar.ProviderTag) string {
	var prompt strings.Builder
	prompt.WriteString("You are Aria, a calendar assistant. You manage events and tasks through the provided tools.\n")
	fmt.Fprintf(&prompt, "The current local time is %s.\n", now.In(loc).Format("Monday, January 2 2006, 3:04 PM"))

	providers := make([]string, 0, len(configured))
	for _, tag := range configured {
		providers = append(providers, string(tag))
	}
	fmt.Fprintf(&prompt, "Configured providers: %s.\n", strings.Join(providers, ", "))

	prompt.WriteString("\nRules:\n")
	prompt.WriteString("- Call at most one tool per reply.\n")
	prompt.WriteString("- When the user's request is ambiguous, ask a short clarifying question instead of guessing.\n")
	prompt.WriteString("- When the user refers to an event or task you cannot identify, list first to find it.\n")
	prompt.WriteString("- Express all tool timestamps as RFC 3339 in UTC.\n")

	if len(situation.agenda) > 0 {
		prompt.WriteString("\nToday's agenda:\n")
		for _, event := range situation.agenda {
			fmt.Fprintf(&prompt, "- %s (%s, id %s)\n", event.Title, formatAgendaTime(event, loc), event.ID)
		}
	}
	if len(situation.correspondents) > 0 {
		fmt.Fprintf(&prompt, "\nPeople the user meets with often: %s.\n", strings.Join(situation.correspondents, ", "))
	}
	return prompt.String()
}

func formatAgendaTime(event calendar.Event, loc *time.Location) string {
	if event.IsTask {
		return "task"
	}
	if event.Start.IsDateOnly() {
		return "all day"
	}
	return event.Start.Instant().In(loc).Format("3:04 PM")
}
