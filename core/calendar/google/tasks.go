package google

import (
	"context"
	"strings"
	"time"

	cal "github.com/vbracun/aria-core/core/calendar"
	gtasks "google.golang.org/api/tasks/v1"
)

func (c *Client) ListTasks(ctx context.Context, opts cal.ListOptions) ([]cal.Task, error) {
	call := c.tasks.Tasks.List(tasklistID).
		ShowCompleted(false).
		Context(ctx)
	if opts.TimeMin != nil {
		call = call.DueMin(opts.TimeMin.UTC().Format(time.RFC3339))
	}
	if opts.TimeMax != nil {
		call = call.DueMax(opts.TimeMax.UTC().Format(time.RFC3339))
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(int64(opts.MaxResults))
	}

	response, err := call.Do()
	if err != nil {
		return nil, wrapError(err, "tasklist", tasklistID)
	}

	tasks := make([]cal.Task, 0, len(response.Items))
	for _, item := range response.Items {
		task := toTask(item)
		// The tasks API has no free-text query parameter; filter here.
		if opts.Query != "" && !matchesQuery(task, opts.Query) {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*cal.Task, error) {
	item, err := c.tasks.Tasks.Get(tasklistID, id).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err, "task", id)
	}
	canonical := toTask(item)
	return &canonical, nil
}

func (c *Client) CreateTask(ctx context.Context, task cal.Task) (*cal.Task, error) {
	created, err := c.tasks.Tasks.Insert(tasklistID, fromTask(task)).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err, "tasklist", tasklistID)
	}
	canonical := toTask(created)
	return &canonical, nil
}

// UpdateTask applies a partial update. Unlike events there is no upsert
// recovery: a vanished task id fails with NotFoundError.
func (c *Client) UpdateTask(ctx context.Context, id string, patch cal.TaskPatch) (*cal.Task, error) {
	if _, err := c.tasks.Tasks.Get(tasklistID, id).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return nil, &cal.NotFoundError{Kind: "task", ID: id}
		}
		logger.WarnContext(ctx, "pre-update task fetch failed, patching anyway",
			"taskID", id, "error", err)
	}

	payload := &gtasks.Task{}
	if patch.Title != nil {
		payload.Title = *patch.Title
	}
	if patch.Notes != nil {
		payload.Notes = *patch.Notes
	}
	if patch.Due != nil {
		payload.Due = patch.Due.UTC().Format(time.RFC3339)
	}

	updated, err := c.tasks.Tasks.Patch(tasklistID, id, payload).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err, "task", id)
	}
	canonical := toTask(updated)
	return &canonical, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) (*cal.Task, error) {
	var details *cal.Task
	if existing, err := c.tasks.Tasks.Get(tasklistID, id).Context(ctx).Do(); err != nil {
		logger.WarnContext(ctx, "pre-delete task fetch failed, continuing without details",
			"taskID", id, "error", err)
	} else {
		canonical := toTask(existing)
		details = &canonical
	}

	if err := c.tasks.Tasks.Delete(tasklistID, id).Context(ctx).Do(); err != nil {
		return nil, wrapError(err, "task", id)
	}
	if details == nil {
		details = &cal.Task{ID: id, Source: cal.ProviderGoogle, IsTask: true}
	}
	return details, nil
}

func toTask(item *gtasks.Task) cal.Task {
	task := cal.Task{
		ID:     item.Id,
		Title:  item.Title,
		Notes:  item.Notes,
		Source: cal.ProviderGoogle,
		IsTask: true,
	}
	if item.Due != "" {
		if due, err := time.Parse(time.RFC3339, item.Due); err == nil {
			day := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
			task.Due = &day
		} else {
			logger.Warn("unparseable task due date", "value", item.Due, "error", err)
		}
	}
	return cal.NormalizeTask(task)
}

func fromTask(task cal.Task) *gtasks.Task {
	payload := &gtasks.Task{
		Title: task.Title,
		Notes: task.Notes,
	}
	if task.Due != nil {
		payload.Due = task.Due.UTC().Format(time.RFC3339)
	}
	return payload
}

func matchesQuery(task cal.Task, query string) bool {
	query = strings.ToLower(query)
	return strings.Contains(strings.ToLower(task.Title), query) ||
		strings.Contains(strings.ToLower(task.Notes), query)
}
