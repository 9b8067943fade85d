package caldav

import (
	"context"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	cal "github.com/vbracun/aria-core/core/calendar"
)

func (c *Client) ListTasks(ctx context.Context, opts cal.ListOptions) ([]cal.Task, error) {
	objects, err := c.client.QueryCalendar(ctx, c.tasksPath, &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{{Name: ical.CompToDo}},
		},
	})
	if err != nil {
		return nil, wrapError(err, "tasklist", c.tasksPath)
	}

	tasks := []cal.Task{}
	for _, object := range objects {
		if object.Data == nil {
			continue
		}
		for _, component := range object.Data.Children {
			if component.Name != ical.CompToDo {
				continue
			}
			task := toTask(component)
			if opts.Query != "" && !matchesTaskQuery(task, opts.Query) {
				continue
			}
			// Due-date range filtering is client-side: CalDAV time-range
			// filters skip undated todos entirely, which must still list.
			if task.Due != nil {
				if opts.TimeMin != nil && task.Due.Before(opts.TimeMin.UTC().Truncate(24*time.Hour)) {
					continue
				}
				if opts.TimeMax != nil && task.Due.After(opts.TimeMax.UTC()) {
					continue
				}
			}
			tasks = append(tasks, task)
		}
	}
	if opts.MaxResults > 0 && len(tasks) > opts.MaxResults {
		tasks = tasks[:opts.MaxResults]
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*cal.Task, error) {
	object, err := c.client.GetCalendarObject(ctx, c.taskPath(id))
	if err != nil {
		return nil, wrapError(err, "task", id)
	}
	component := findComponent(object.Data, ical.CompToDo)
	if component == nil {
		return nil, &cal.NotFoundError{Kind: "task", ID: id}
	}
	canonical := toTask(component)
	canonical.ID = id
	return &canonical, nil
}

func (c *Client) CreateTask(ctx context.Context, task cal.Task) (*cal.Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	container := newContainer()
	container.Children = append(container.Children, fromTask(task))

	if _, err := c.client.PutCalendarObject(ctx, c.taskPath(task.ID), container); err != nil {
		return nil, wrapError(err, "task", task.ID)
	}
	canonical := cal.NormalizeTask(task)
	return &canonical, nil
}

// UpdateTask requires the stored object to exist: tasks get no upsert
// recovery.
func (c *Client) UpdateTask(ctx context.Context, id string, patch cal.TaskPatch) (*cal.Task, error) {
	object, err := c.client.GetCalendarObject(ctx, c.taskPath(id))
	if err != nil {
		return nil, wrapError(err, "task", id)
	}
	component := findComponent(object.Data, ical.CompToDo)
	if component == nil {
		return nil, &cal.NotFoundError{Kind: "task", ID: id}
	}

	task := toTask(component)
	task.ID = id
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Notes != nil {
		task.Notes = *patch.Notes
	}
	if patch.Due != nil {
		due := patch.Due.UTC()
		task.Due = &due
	}

	container := newContainer()
	container.Children = append(container.Children, fromTask(task))
	if _, err := c.client.PutCalendarObject(ctx, c.taskPath(id), container); err != nil {
		return nil, wrapError(err, "task", id)
	}
	canonical := cal.NormalizeTask(task)
	return &canonical, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) (*cal.Task, error) {
	details := &cal.Task{ID: id, Source: cal.ProviderCalDAV, IsTask: true}
	if object, err := c.client.GetCalendarObject(ctx, c.taskPath(id)); err != nil {
		if isNotFound(err) {
			return nil, &cal.NotFoundError{Kind: "task", ID: id}
		}
		logger.WarnContext(ctx, "pre-delete task fetch failed, continuing without details",
			"taskID", id, "error", err)
	} else if component := findComponent(object.Data, ical.CompToDo); component != nil {
		canonical := toTask(component)
		canonical.ID = id
		details = &canonical
	}

	if err := c.client.RemoveAll(ctx, c.taskPath(id)); err != nil {
		return nil, wrapError(err, "task", id)
	}
	return details, nil
}

func toTask(component *ical.Component) cal.Task {
	task := cal.Task{
		ID:     propText(component, ical.PropUID),
		Title:  propText(component, ical.PropSummary),
		Notes:  propText(component, ical.PropDescription),
		Source: cal.ProviderCalDAV,
		IsTask: true,
	}
	if due := timeFromProp(component.Props.Get(ical.PropDue)); !due.IsZero() {
		day := due.Instant().Truncate(24 * time.Hour)
		task.Due = &day
	}
	return cal.NormalizeTask(task)
}

func fromTask(task cal.Task) *ical.Component {
	component := ical.NewComponent(ical.CompToDo)
	component.Props.SetText(ical.PropUID, task.ID)
	component.Props.SetText(ical.PropSummary, task.Title)
	component.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	if task.Notes != "" {
		component.Props.SetText(ical.PropDescription, task.Notes)
	}
	if task.Due != nil {
		prop := ical.NewProp(ical.PropDue)
		prop.SetValueType(ical.ValueDate)
		prop.Value = task.Due.UTC().Format(icsDateLayout)
		component.Props.Set(prop)
	}
	return component
}

func matchesTaskQuery(task cal.Task, query string) bool {
	query = strings.ToLower(query)
	return strings.Contains(strings.ToLower(task.Title), query) ||
		strings.Contains(strings.ToLower(task.Notes), query)
}
