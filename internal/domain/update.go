package domain

import (
	"errors"
	"time"
)

var (
	ErrEmptyPatch = errors.New("no fields to update")
	ErrStatusOnly = errors.New("assignees may only change status")
)

// DueDateChange sets or clears a due date. A nil Value clears it.
type DueDateChange struct {
	Value *time.Time
}

// TaskPatch carries the fields a caller asked to change; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *DueDateChange
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil && p.DueDate == nil
}

// OnlyStatus reports whether status is the single field present.
func (p TaskPatch) OnlyStatus() bool {
	return p.Status != nil && p.Title == nil && p.Description == nil && p.Priority == nil && p.DueDate == nil
}

// Normalize trims text fields and validates every value present.
func (p TaskPatch) Normalize() (TaskPatch, error) {
	out := p
	if p.Title != nil {
		title, err := NormalizeTitle(*p.Title)
		if err != nil {
			return TaskPatch{}, err
		}
		out.Title = &title
	}
	if p.Description != nil {
		desc, err := NormalizeDescription(*p.Description)
		if err != nil {
			return TaskPatch{}, err
		}
		out.Description = &desc
	}
	if p.Status != nil && !p.Status.Valid() {
		return TaskPatch{}, ErrUnknownStatus
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return TaskPatch{}, ErrUnknownPriority
	}
	return out, nil
}

// SetsStatus reports whether the patch sets status to s.
func (p TaskPatch) SetsStatus(s Status) bool {
	return p.Status != nil && *p.Status == s
}

// Apply returns t with the patch applied. Creator and assignees are never touched.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate.Value
	}
	return t
}

// TaskUpdate is a role-checked patch: either a CreatorUpdate or an AssigneeUpdate.
type TaskUpdate interface {
	Patch() TaskPatch
	taskUpdate()
}

// CreatorUpdate may touch any mutable field.
type CreatorUpdate struct {
	patch TaskPatch
}

// NewCreatorUpdate wraps a patch issued by the task's creator.
func NewCreatorUpdate(p TaskPatch) CreatorUpdate {
	return CreatorUpdate{patch: p}
}

func (u CreatorUpdate) Patch() TaskPatch { return u.patch }
func (CreatorUpdate) taskUpdate()        {}

// AssigneeUpdate changes status and nothing else.
type AssigneeUpdate struct {
	status Status
}

// NewAssigneeUpdate accepts a patch only when status is its single field.
func NewAssigneeUpdate(p TaskPatch) (AssigneeUpdate, error) {
	if !p.OnlyStatus() {
		return AssigneeUpdate{}, ErrStatusOnly
	}
	return AssigneeUpdate{status: *p.Status}, nil
}

func (u AssigneeUpdate) Patch() TaskPatch {
	s := u.status
	return TaskPatch{Status: &s}
}
func (AssigneeUpdate) taskUpdate() {}
