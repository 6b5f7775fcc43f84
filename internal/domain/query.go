package domain

import (
	"sort"
	"time"
)

// View selects which tasks a principal is listing.
type View string

const (
	// ViewMine is every task the principal created or is assigned to.
	ViewMine View = "mine"
	// ViewCreated is tasks the principal created.
	ViewCreated View = "created"
	// ViewAssigned is tasks assigned to the principal that someone else created.
	ViewAssigned View = "assigned"
	// ViewOverdue is the principal's tasks past due and not completed.
	ViewOverdue View = "overdue"
)

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	switch v {
	case ViewMine, ViewCreated, ViewAssigned, ViewOverdue:
		return true
	}
	return false
}

// TaskQuery describes a filtered, sorted listing. Empty Status/Priority match anything.
type TaskQuery struct {
	View        View
	PrincipalID string
	Status      Status
	Priority    Priority
	// Now is the reference instant for ViewOverdue.
	Now        time.Time
	Descending bool
}

// Matches evaluates the query predicate against a single task.
// Stores that cannot push the predicate down use it directly.
func (q TaskQuery) Matches(t Task) bool {
	switch q.View {
	case ViewCreated:
		if !t.IsCreator(q.PrincipalID) {
			return false
		}
	case ViewAssigned:
		if !t.IsAssignee(q.PrincipalID) || t.IsCreator(q.PrincipalID) {
			return false
		}
	case ViewOverdue:
		if !t.IsCreator(q.PrincipalID) && !t.IsAssignee(q.PrincipalID) {
			return false
		}
		if !t.Overdue(q.Now) {
			return false
		}
	default:
		if !t.IsCreator(q.PrincipalID) && !t.IsAssignee(q.PrincipalID) {
			return false
		}
	}
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if q.Priority != "" && t.Priority != q.Priority {
		return false
	}
	return true
}

// SortByDueDate orders tasks by due date. A missing due date counts as later than
// any real date, so it lands last ascending and first descending.
// Ties fall back to creation time, oldest first.
func SortByDueDate(tasks []Task, descending bool) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.DueDate == nil:
			return descending
		case b.DueDate == nil:
			return !descending
		case a.DueDate.Equal(*b.DueDate):
			return a.CreatedAt.Before(b.CreatedAt)
		case descending:
			return a.DueDate.After(*b.DueDate)
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})
}
