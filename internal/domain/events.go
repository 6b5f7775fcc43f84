package domain

// Push-channel event names.
const (
	EventTaskCreated  = "TASK_CREATED"
	EventTaskUpdated  = "TASK_UPDATED"
	EventTaskAssigned = "TASK_ASSIGNED"
	EventTaskFinished = "TASK_FINISHED"
	EventTaskDeleted  = "TASK_DELETED"
)

// Event is emitted by the task service after a store mutation has succeeded.
type Event interface {
	EventName() string
}

// TaskCreated announces a new task to everyone.
type TaskCreated struct {
	Task Task
}

// TaskUpdated announces a changed task to everyone.
type TaskUpdated struct {
	Task Task
}

// TaskAssigned tells one user they were added to a task.
type TaskAssigned struct {
	Task           Task
	AssigneeID     string
	AssignedByID   string
	AssignedByName string
}

// TaskFinished tells the creator the task was completed.
type TaskFinished struct {
	Task           Task
	FinishedByID   string
	FinishedByName string
}

// TaskDeleted announces a removed task to everyone.
type TaskDeleted struct {
	TaskID string
}

func (TaskCreated) EventName() string  { return EventTaskCreated }
func (TaskUpdated) EventName() string  { return EventTaskUpdated }
func (TaskAssigned) EventName() string { return EventTaskAssigned }
func (TaskFinished) EventName() string { return EventTaskFinished }
func (TaskDeleted) EventName() string  { return EventTaskDeleted }
