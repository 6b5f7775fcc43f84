package notify

import (
	"context"
	"fmt"
	"log/slog"

	dom "taskhub/internal/domain"
	"taskhub/internal/dto"
)

// AssignedPayload is sent to a new assignee.
type AssignedPayload struct {
	Message    string `json:"message"`
	TaskID     string `json:"taskId"`
	AssignedBy string `json:"assignedBy"`
}

// FinishedPayload is sent to a task's creator on completion.
type FinishedPayload struct {
	Message string `json:"message"`
	TaskID  string `json:"taskId"`
}

// DeletedPayload is broadcast when a task is removed.
type DeletedPayload struct {
	TaskID string `json:"taskId"`
}

// Sender is the subset of Dispatcher the Listener needs.
type Sender interface {
	Notify(principalID, event string, payload any)
	Broadcast(event string, payload any)
}

// Listener turns task domain events into push notifications.
type Listener struct {
	out Sender
	log *slog.Logger
}

// NewListener returns a Listener writing to out.
func NewListener(out Sender, log *slog.Logger) *Listener {
	return &Listener{out: out, log: log}
}

// Publish routes ev to its audience: creator/assignee events are targeted,
// everything else is broadcast.
func (l *Listener) Publish(_ context.Context, ev dom.Event) {
	switch e := ev.(type) {
	case dom.TaskCreated:
		l.out.Broadcast(dom.EventTaskCreated, dto.NewTaskResponse(e.Task))
	case dom.TaskUpdated:
		l.out.Broadcast(dom.EventTaskUpdated, dto.NewTaskResponse(e.Task))
	case dom.TaskAssigned:
		l.out.Notify(e.AssigneeID, dom.EventTaskAssigned, AssignedPayload{
			Message:    fmt.Sprintf("%s assigned you to %q", e.AssignedByName, e.Task.Title),
			TaskID:     e.Task.ID,
			AssignedBy: e.AssignedByName,
		})
	case dom.TaskFinished:
		l.out.Notify(e.Task.CreatorID, dom.EventTaskFinished, FinishedPayload{
			Message: fmt.Sprintf("%q was marked as completed by %s", e.Task.Title, e.FinishedByName),
			TaskID:  e.Task.ID,
		})
	case dom.TaskDeleted:
		l.out.Broadcast(dom.EventTaskDeleted, DeletedPayload{TaskID: e.TaskID})
	default:
		l.log.Warn("unhandled event", "event", ev.EventName())
	}
}
