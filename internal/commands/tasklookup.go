package commands

import (
	"context"

	"todo/internal/service"
	"todo/internal/tasklist"
)

// taskLookup resolves task references against one listing partition,
// caching fetched pages so several references cost at most one call per page.
type taskLookup struct {
	svc       service.Service
	completed bool
	pageSize  int
	pages     map[int][]service.Task
}

func newTaskLookup(svc service.Service, completedOnly bool) *taskLookup {
	return &taskLookup{
		svc:       svc,
		completed: completedOnly,
		pageSize:  tasklist.DefaultPageSize,
		pages:     make(map[int][]service.Task),
	}
}

// Find returns the referenced task.
func (l *taskLookup) Find(ctx context.Context, ref TaskRef) (service.Task, error) {
	if ref.ID != "" {
		return l.svc.GetTask(ctx, ref.ID)
	}

	page := (ref.Num-1)/l.pageSize + 1
	index := (ref.Num - 1) % l.pageSize

	tasks, ok := l.pages[page]
	if !ok {
		q := service.ListQuery{Page: page, PageSize: l.pageSize}
		if l.completed {
			done := true
			q.Completed = &done
		}
		res, err := l.svc.ListTasks(ctx, q)
		if service.IsInvalidPage(err) {
			return service.Task{}, userErrorf("task number out of range: %d", ref.Num)
		}
		if err != nil {
			return service.Task{}, err
		}
		tasks = res.Results
		l.pages[page] = tasks
	}

	if index >= len(tasks) {
		return service.Task{}, userErrorf("task number out of range: %d", ref.Num)
	}
	return tasks[index], nil
}

// FindAll resolves every reference before anything is changed, so numbers
// refer to the listing as it was shown.
func (l *taskLookup) FindAll(ctx context.Context, refs []TaskRef) ([]service.Task, error) {
	tasks := make([]service.Task, 0, len(refs))
	seen := make(map[string]bool)
	for _, ref := range refs {
		t, err := l.Find(ctx, ref)
		if err != nil {
			return nil, err
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}
	return tasks, nil
}
