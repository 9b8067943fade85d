package calendar

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// EventsAPI is the event half of a provider adapter. Update is partial:
// unspecified fields are preserved from the existing object. Delete
// returns the deleted object's canonical form when the adapter managed to
// fetch it beforehand.
type EventsAPI interface {
	GetEvent(ctx context.Context, id string) (*Event, error)
	CreateEvent(ctx context.Context, event Event) (*Event, error)
	UpdateEvent(ctx context.Context, id string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, opts ListOptions) ([]Event, error)
}

// TasksAPI is the task half of a provider adapter.
type TasksAPI interface {
	GetTask(ctx context.Context, id string) (*Task, error)
	CreateTask(ctx context.Context, task Task) (*Task, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (*Task, error)
	DeleteTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, opts ListOptions) ([]Task, error)
}

// Provider is one external calendar/task backend.
type Provider interface {
	EventsAPI
	TasksAPI
}

// Service aggregates the configured providers behind one read/mutate
// surface. Reads in combined mode fan out concurrently and tolerate
// individual provider failures; mutations always route to exactly one
// provider named by an explicit target selector.
type Service struct {
	providers map[ProviderTag]Provider
}

func NewService() *Service {
	return &Service{providers: map[ProviderTag]Provider{}}
}

// Register wires a provider under its tag. Called once per request with
// the providers the request's credentials could construct.
func (s *Service) Register(tag ProviderTag, provider Provider) {
	s.providers[tag] = provider
}

// Configured lists the registered provider tags in stable order.
func (s *Service) Configured() []ProviderTag {
	tags := make([]ProviderTag, 0, len(s.providers))
	for tag := range s.providers {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

func (s *Service) provider(tag ProviderTag) (Provider, error) {
	provider, ok := s.providers[tag]
	if !ok {
		return nil, &CredentialError{Provider: tag, Reason: "no credential supplied for provider"}
	}
	return provider, nil
}

// MutationTarget resolves the provider a mutating action routes to. The
// selector is required whenever more than one provider is configured;
// with a single credential it may be omitted and resolves to that
// provider.
func (s *Service) MutationTarget(target ProviderTag) (ProviderTag, Provider, error) {
	if target == ProviderCombined {
		return "", nil, &ValidationError{Field: "target", Reason: "mutations cannot target the combined mode"}
	}
	if target == "" {
		if len(s.providers) != 1 {
			return "", nil, &ValidationError{Field: "target", Reason: "target provider is required when multiple providers are configured"}
		}
		for tag, provider := range s.providers {
			return tag, provider, nil
		}
	}
	provider, err := s.provider(target)
	if err != nil {
		return "", nil, err
	}
	return target, provider, nil
}

// GetEvents lists events (and task projections) for the selected target.
// In combined mode every provider's events and tasks are fetched
// concurrently and a failed branch degrades to an empty result, so one
// dead provider never fails the whole read. Results are normalized,
// stably sorted by start instant, and truncated to MaxResults.
func (s *Service) GetEvents(ctx context.Context, target ProviderTag, opts ListOptions) ([]Event, error) {
	ctx, span := tracer.Start(ctx, "calendar get events")
	defer span.End()
	span.SetAttributes(attribute.String("request.target", string(target)))

	tags := []ProviderTag{target}
	combined := target == ProviderCombined || target == ""
	if combined {
		tags = s.Configured()
	}

	windowStart := time.Now().UTC()
	if opts.TimeMin != nil {
		windowStart = opts.TimeMin.UTC()
	}

	var (
		group   errgroup.Group
		results = make([][]Event, len(tags)*2)
	)
	for i, tag := range tags {
		provider, err := s.provider(tag)
		if err != nil {
			if combined {
				continue
			}
			return nil, err
		}

		eventsSlot, tasksSlot := i*2, i*2+1
		tag := tag
		group.Go(func() error {
			events, err := provider.ListEvents(ctx, opts)
			if err != nil {
				if !combined {
					return err
				}
				logger.WarnContext(ctx, "provider event listing failed, degrading to empty",
					"provider", tag, "error", err)
				return nil
			}
			results[eventsSlot] = events
			return nil
		})
		group.Go(func() error {
			tasks, err := provider.ListTasks(ctx, opts)
			if err != nil {
				if !combined {
					return err
				}
				logger.WarnContext(ctx, "provider task listing failed, degrading to empty",
					"provider", tag, "error", err)
				return nil
			}
			projected := make([]Event, 0, len(tasks))
			for _, task := range tasks {
				projected = append(projected, NormalizeTask(task).AsEvent(windowStart))
			}
			results[tasksSlot] = projected
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := []Event{}
	for _, branch := range results {
		for _, event := range branch {
			merged = append(merged, NormalizeEvent(event))
		}
	}
	slices.SortStableFunc(merged, func(a, b Event) int {
		return a.Start.Instant().Compare(b.Start.Instant())
	})
	if opts.MaxResults > 0 && len(merged) > opts.MaxResults {
		merged = merged[:opts.MaxResults]
	}
	span.SetAttributes(attribute.Int("response.events", len(merged)))
	return merged, nil
}

// GetTasks lists tasks for the selected target, combined mode included.
func (s *Service) GetTasks(ctx context.Context, target ProviderTag, opts ListOptions) ([]Task, error) {
	ctx, span := tracer.Start(ctx, "calendar get tasks")
	defer span.End()

	tags := []ProviderTag{target}
	combined := target == ProviderCombined || target == ""
	if combined {
		tags = s.Configured()
	}

	merged := []Task{}
	var group errgroup.Group
	results := make([][]Task, len(tags))
	for i, tag := range tags {
		provider, err := s.provider(tag)
		if err != nil {
			if combined {
				continue
			}
			return nil, err
		}
		i, tag := i, tag
		group.Go(func() error {
			tasks, err := provider.ListTasks(ctx, opts)
			if err != nil {
				if !combined {
					return err
				}
				logger.WarnContext(ctx, "provider task listing failed, degrading to empty",
					"provider", tag, "error", err)
				return nil
			}
			results[i] = tasks
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	for _, branch := range results {
		for _, task := range branch {
			merged = append(merged, NormalizeTask(task))
		}
	}
	slices.SortStableFunc(merged, func(a, b Task) int {
		switch {
		case a.Due == nil && b.Due == nil:
			return 0
		case a.Due == nil:
			return -1
		case b.Due == nil:
			return 1
		default:
			return a.Due.Compare(*b.Due)
		}
	})
	if opts.MaxResults > 0 && len(merged) > opts.MaxResults {
		merged = merged[:opts.MaxResults]
	}
	return merged, nil
}

// GetEvent fetches one event from the provider that owns it. Like
// mutations it needs a single resolvable target.
func (s *Service) GetEvent(ctx context.Context, target ProviderTag, id string) (*Event, error) {
	tag, provider, err := s.MutationTarget(target)
	if err != nil {
		return nil, err
	}
	event, err := provider.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event on %s: %w", tag, err)
	}
	normalized := NormalizeEvent(*event)
	return &normalized, nil
}

// GetTask fetches one task from the provider that owns it.
func (s *Service) GetTask(ctx context.Context, target ProviderTag, id string) (*Task, error) {
	tag, provider, err := s.MutationTarget(target)
	if err != nil {
		return nil, err
	}
	task, err := provider.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task on %s: %w", tag, err)
	}
	normalized := NormalizeTask(*task)
	return &normalized, nil
}

func (s *Service) CreateEvent(ctx context.Context, target ProviderTag, event Event) (*Event, error) {
	tag, provider, err := s.MutationTarget(target)
	if err != nil {
		return nil, err
	}
	created, err := provider.CreateEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("create event on %s: %w", tag, err)
	}
	normalized := NormalizeEvent(*created)
	return &normalized, nil
}

func (s *Service) UpdateEvent(ctx context.Context, target ProviderTag, id string, patch EventPatch) (*Event, error) {
	tag, provider, err := s.MutationTarget(target)
	if err != nil {
		return nil, err
	}
	updated, err := provider.UpdateEvent(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update event on %s: %w", tag, err)
	}
	normalized := NormalizeEvent(*updated)
	return &normalized, nil
}

func (s *Service) DeleteEvent(ctx context.Context, target ProviderTag, id string) (*Event, error) {
	tag, provider, err := s.MutationTarget(target)
	if err != nil {
		return nil, err
	}
	deleted, err := provider.DeleteEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete event on %s: %w", tag, err)
	}
	if deleted == nil {
		return nil, nil
	}
	normalized := NormalizeEvent(*deleted)
	return &normalized, nil
}

func (s *Service) CreateTask(ctx context.Context, target ProviderTag, task Task) (*Task, error) {
	tag, provider, err := s.MutationTarget(target)
	if err != nil {
		return nil, err
	}
	created, err := provider.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create task on %s: %w", tag, err)
	}
	normalized := NormalizeTask(*created)
	return &normalized, nil
}

func (s *Service) UpdateTask(ctx context.Context, target ProviderTag, id string, patch TaskPatch) (*Task, error) {
	tag, provider, err := s.MutationTarget(target)
	if err != nil {
		return nil, err
	}
	updated, err := provider.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update task on %s: %w", tag, err)
	}
	normalized := NormalizeTask(*updated)
	return &normalized, nil
}

func (s *Service) DeleteTask(ctx context.Context, target ProviderTag, id string) (*Task, error) {
	tag, provider, err := s.MutationTarget(target)
	if err != nil {
		return nil, err
	}
	deleted, err := provider.DeleteTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete task on %s: %w", tag, err)
	}
	if deleted == nil {
		return nil, nil
	}
	normalized := NormalizeTask(*deleted)
	return &normalized, nil
}
