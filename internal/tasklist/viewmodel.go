// Package tasklist holds the paginated task list state: the current page,
// view filters over its rows, sorting and due date urgency.
package tasklist

import (
	"context"
	"errors"
	"sync"
	"time"

	"todo/internal/service"
)

// DefaultPageSize is the fixed number of tasks per page.
const DefaultPageSize = 10

// ErrStale is returned by a fetch whose response arrived after a newer
// fetch was issued. The model is left untouched.
var ErrStale = errors.New("stale response discarded")

// Lister fetches one page of tasks.
type Lister interface {
	ListTasks(ctx context.Context, q service.ListQuery) (service.TaskPage, error)
}

// Options configure a Model.
type Options struct {
	PageSize      int
	CompletedOnly bool
	Location      *time.Location
	Now           func() time.Time
}

// Model is the task list view model.
type Model struct {
	lister   Lister
	pageSize int
	loc      *time.Location
	now      func() time.Time

	mu            sync.Mutex
	page          int
	count         int
	items         []service.Task
	loaded        bool
	completedOnly bool
	filters       Filters
	sort          Sort
	gen           uint64
}

// New creates a model on page 1 with no filters. Nothing is fetched until
// SetPage or Refresh is called.
func New(lister Lister, opts Options) *Model {
	if opts.PageSize < 1 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Model{
		lister:        lister,
		pageSize:      opts.PageSize,
		loc:           opts.Location,
		now:           opts.Now,
		page:          1,
		items:         []service.Task{},
		completedOnly: opts.CompletedOnly,
	}
}

// SetPage moves to page n and fetches it. n is bounded to [1, TotalPages];
// before the first load the bound comes from the response. Filters are not
// touched.
func (m *Model) SetPage(ctx context.Context, n int) error {
	m.mu.Lock()
	if m.loaded {
		if total := m.totalPages(); n > total {
			n = total
		}
	}
	if n < 1 {
		n = 1
	}
	m.page = n
	m.mu.Unlock()
	return m.fetchBounded(ctx)
}

// Next moves to the following page if there is one.
func (m *Model) Next(ctx context.Context) error {
	return m.SetPage(ctx, m.Page()+1)
}

// Previous moves to the preceding page if there is one.
func (m *Model) Previous(ctx context.Context) error {
	return m.SetPage(ctx, m.Page()-1)
}

// Refresh refetches the current page. If the page is now past the end
// (after a delete, say), the last page is fetched instead.
func (m *Model) Refresh(ctx context.Context) error {
	return m.fetchBounded(ctx)
}

// fetchBounded fetches the current page and falls back to the last page when
// the current one lies past the end. The server may answer such a page with
// an empty result or with an invalid-page error; after the latter, page 1 is
// fetched to learn the count.
func (m *Model) fetchBounded(ctx context.Context) error {
	err := m.fetch(ctx)
	if service.IsInvalidPage(err) && m.Page() > 1 {
		m.mu.Lock()
		m.page = 1
		m.mu.Unlock()
		err = m.fetch(ctx)
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	last := max(m.totalPages(), 1)
	if m.page <= last {
		m.mu.Unlock()
		return nil
	}
	m.page = last
	m.mu.Unlock()
	return m.fetch(ctx)
}

// SetCompletedOnly switches the server-side completed partition and
// refetches from page 1.
func (m *Model) SetCompletedOnly(ctx context.Context, on bool) error {
	m.mu.Lock()
	m.completedOnly = on
	m.page = 1
	m.mu.Unlock()
	return m.fetch(ctx)
}

// CompletedOnly reports whether the completed partition is selected.
func (m *Model) CompletedOnly() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completedOnly
}

func (m *Model) fetch(ctx context.Context) error {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	q := service.ListQuery{Page: m.page, PageSize: m.pageSize}
	if m.completedOnly {
		done := true
		q.Completed = &done
	}
	m.mu.Unlock()

	res, err := m.lister.ListTasks(ctx, q)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return ErrStale
	}
	if err != nil {
		return err
	}
	m.count = res.Count
	m.items = res.Results
	if m.items == nil {
		m.items = []service.Task{}
	}
	m.loaded = true
	return nil
}

// Page returns the current page number.
func (m *Model) Page() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// PageSize returns the number of tasks per page.
func (m *Model) PageSize() int {
	return m.pageSize
}

// Count returns the total number of tasks reported by the server.
func (m *Model) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// TotalPages returns ceil(Count / PageSize).
func (m *Model) TotalPages() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalPages()
}

func (m *Model) totalPages() int {
	return (m.count + m.pageSize - 1) / m.pageSize
}

// HasPrevious reports whether a previous page exists.
func (m *Model) HasPrevious() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page > 1
}

// HasNext reports whether a following page exists.
func (m *Model) HasNext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page < m.totalPages()
}

// Items returns the fetched page in server order, unfiltered.
func (m *Model) Items() []service.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.Task(nil), m.items...)
}

// Rows returns the fetched page with view filters and sorting applied.
func (m *Model) Rows() []service.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]service.Task, 0, len(m.items))
	for _, t := range m.items {
		if m.filters.Matches(t, m.loc) {
			rows = append(rows, t)
		}
	}
	m.sort.Apply(rows)
	return rows
}

// Filters returns the active view filters.
func (m *Model) Filters() Filters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters
}

// SetTitleFilter filters rows by a case-insensitive title substring.
func (m *Model) SetTitleFilter(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters.Title = s
}

// SetStatusFilter filters rows by status; nil clears it.
func (m *Model) SetStatusFilter(s *service.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters.Status = s
}

// SetPriorityFilter filters rows by priority; nil clears it.
func (m *Model) SetPriorityFilter(p *service.Priority) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters.Priority = p
}

// SetDueRange filters rows by due date; nil clears it.
func (m *Model) SetDueRange(r *DateRange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters.Due = r
}

// ClearFilters removes every view filter.
func (m *Model) ClearFilters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = Filters{}
}

// ToggleSort sorts by col, flipping the direction if col is already active.
func (m *Model) ToggleSort(col Column) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sort = m.sort.Toggle(col)
}

// SetSort replaces the active sort.
func (m *Model) SetSort(s Sort) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sort = s
}

// Sort returns the active sort.
func (m *Model) Sort() Sort {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sort
}

// Urgency returns the due date urgency of t relative to today.
func (m *Model) Urgency(t service.Task) Urgency {
	return UrgencyOf(t, m.now(), m.loc)
}

// Location returns the timezone used for calendar-day comparisons.
func (m *Model) Location() *time.Location {
	return m.loc
}

// Number returns the 1-based position of t in the full server ordering, or 0
// if t is not on the current page.
func (m *Model) Number(t service.Task) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID == t.ID {
			return (m.page-1)*m.pageSize + i + 1
		}
	}
	return 0
}

// TaskAt returns the task numbered num if it is on the current page.
func (m *Model) TaskAt(num int) (service.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := num - (m.page-1)*m.pageSize - 1
	if i < 0 || i >= len(m.items) {
		return service.Task{}, false
	}
	return m.items[i], true
}
