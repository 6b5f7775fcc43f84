package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	dom "taskhub/internal/domain"
)

const dateOnly = "2006-01-02"

// DueAt parses dueDate from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC. It records whether the
// field was present, so an explicit null can clear a date on update.
type DueAt struct {
	t   *time.Time
	set bool
}

func (d *DueAt) UnmarshalJSON(data []byte) error {
	d.set = true
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dueDate: %w", err)
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	for _, layout := range []string{dateOnly, time.RFC3339Nano, "2006-01-02T15:04:05"} {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			parsed = parsed.UTC()
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// NewDueAt returns a present DueAt holding t (nil clears).
func NewDueAt(t *time.Time) DueAt { return DueAt{t: t, set: true} }

// Ptr returns *time.Time for use in service/domain.
func (d DueAt) Ptr() *time.Time { return d.t }

// Change returns the patch entry: nil when the field was absent.
func (d DueAt) Change() *dom.DueDateChange {
	if !d.set {
		return nil
	}
	return &dom.DueDateChange{Value: d.t}
}

// CreateTaskRequest is the body of POST /tasks. Todo is the older name for Title.
type CreateTaskRequest struct {
	Title       string       `json:"title" binding:"max=120"`
	Todo        string       `json:"todo" binding:"max=120"`
	Description string       `json:"description" binding:"max=1000"`
	Status      dom.Status   `json:"status" binding:"omitempty,task_status" swaggertype:"string" enums:"To-Do,In-Progress,Completed"`
	Priority    dom.Priority `json:"priority" binding:"omitempty,task_priority" swaggertype:"string" enums:"Low,Medium,High"`
	DueDate     DueAt        `json:"dueDate" swaggertype:"string" example:"2026-02-19"`
}

// UpdateTaskRequest is the body of PATCH /tasks/{id}. Absent fields are left alone;
// "dueDate": null clears the date. Values are checked by the service after the
// caller's role, so there are no binding tags here.
type UpdateTaskRequest struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *dom.Status   `json:"status" swaggertype:"string" enums:"To-Do,In-Progress,Completed"`
	Priority    *dom.Priority `json:"priority" swaggertype:"string" enums:"Low,Medium,High"`
	DueDate     DueAt         `json:"dueDate" swaggertype:"string" example:"2026-02-19"`
}

// Patch converts the request into a domain patch.
func (r UpdateTaskRequest) Patch() dom.TaskPatch {
	return dom.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate.Change(),
	}
}

// AssignTaskRequest is the body of PATCH /tasks/assign/{id}.
type AssignTaskRequest struct {
	TargetUserID string `json:"targetUserId" binding:"required"`
}

// ListTasksQuery holds the list-view query string.
type ListTasksQuery struct {
	Status   string `form:"status" binding:"omitempty,task_status"`
	Priority string `form:"priority" binding:"omitempty,task_priority"`
	Sort     string `form:"sort" binding:"omitempty,oneof=asc desc"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatorID   string     `json:"creatorId"`
	AssignedTo  []string   `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

type AssignTaskResponse struct {
	Message         string        `json:"message"`
	AlreadyAssigned bool          `json:"alreadyAssigned"`
	Task            *TaskResponse `json:"task,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// NewTaskResponse converts a domain task to its wire form.
func NewTaskResponse(t dom.Task) TaskResponse {
	assignees := t.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatorID:   t.CreatorID,
		AssignedTo:  assignees,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTaskResponses converts a list, never returning nil.
func NewTaskResponses(list []dom.Task) []TaskResponse {
	out := make([]TaskResponse, len(list))
	for i := range list {
		out[i] = NewTaskResponse(list[i])
	}
	return out
}
