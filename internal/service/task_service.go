package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"taskhub/internal/cache"
	dom "taskhub/internal/domain"
	"taskhub/internal/repo"

	"golang.org/x/sync/singleflight"
)

// EventPublisher receives domain events after the store write that caused them.
// Publishing is best effort; implementations must not block on slow consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev dom.Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, dom.Event) {}

// CreateTaskInput is the data for a new task. LegacyTitle is the older "todo"
// field, used only when Title is blank.
type CreateTaskInput struct {
	Title       string
	LegacyTitle string
	Description string
	Status      dom.Status
	Priority    dom.Priority
	DueDate     *time.Time
}

// AssignResult is returned by Assign. Task is the current state in both outcomes.
type AssignResult struct {
	Task            dom.Task
	AlreadyAssigned bool
	Message         string
}

const (
	msgAssigned        = "Task assigned successfully"
	msgAlreadyAssigned = "User is already assigned to this task"
)

// TaskService owns the task lifecycle: who may create, read, assign, update
// and delete, and which events each change produces.
type TaskService struct {
	tasks  repo.TaskRepo
	users  repo.UserRepo
	cache  *cache.TaskCache
	events EventPublisher
	log    *slog.Logger
	now    func() time.Time
	sf     singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled; if
// events is nil, a NopPublisher is used.
func NewTaskService(tasks repo.TaskRepo, users repo.UserRepo, c *cache.TaskCache, events EventPublisher, log *slog.Logger) *TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TaskService{
		tasks:  tasks,
		users:  users,
		cache:  c,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskService) Create(ctx context.Context, creatorID string, in CreateTaskInput) (dom.Task, error) {
	title := in.Title
	if title == "" {
		title = in.LegacyTitle
	}
	title, err := dom.NormalizeTitle(title)
	if err != nil {
		return dom.Task{}, invalidErr(err)
	}
	desc, err := dom.NormalizeDescription(in.Description)
	if err != nil {
		return dom.Task{}, invalidErr(err)
	}
	status := in.Status
	if status == "" {
		status = dom.StatusToDo
	}
	if !status.Valid() {
		return dom.Task{}, invalidErr(dom.ErrUnknownStatus)
	}
	priority := in.Priority
	if priority == "" {
		priority = dom.PriorityMedium
	}
	if !priority.Valid() {
		return dom.Task{}, invalidErr(dom.ErrUnknownPriority)
	}

	t, err := s.tasks.Create(ctx, dom.Task{
		Title:       title,
		Description: desc,
		Status:      status,
		Priority:    priority,
		DueDate:     in.DueDate,
		CreatorID:   creatorID,
		Assignees:   []string{},
	})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx)
	s.publish(ctx, dom.TaskCreated{Task: t})
	return t, nil
}

// Get returns any task by id. Every authenticated user may read every task.
func (s *TaskService) Get(ctx context.Context, taskID string) (dom.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return dom.Task{}, s.storeErr(err, taskID)
	}
	return t, nil
}

// List runs one of the list views for q.PrincipalID. Now is filled in here.
func (s *TaskService) List(ctx context.Context, q dom.TaskQuery) ([]dom.Task, error) {
	if !q.View.Valid() {
		return nil, invalid("unknown view %q", q.View)
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, invalidErr(dom.ErrUnknownStatus)
	}
	if q.Priority != "" && !q.Priority.Valid() {
		return nil, invalidErr(dom.ErrUnknownPriority)
	}
	q.Now = s.now()

	if s.cache == nil {
		return s.tasks.Find(ctx, q)
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("task cache generation read failed", "err", err)
		return s.tasks.Find(ctx, q)
	}
	// The key carries the generation, so a load begun before a write is never
	// shared with callers arriving after it.
	key := cache.ListKey(q, gen)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		if list, err := s.cache.GetList(ctx, q, gen); err == nil && list != nil {
			return list, nil
		} else if err != nil {
			s.log.Warn("task cache read failed", "key", key, "err", err)
		}
		list, err := s.tasks.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetList(ctx, q, gen, list); err != nil {
			s.log.Warn("task cache write failed", "key", key, "err", err)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Task), nil
}

// Assign adds targetUserID to the task's assignees. Only the creator may assign.
// Re-assigning an existing assignee succeeds with AlreadyAssigned and emits nothing.
func (s *TaskService) Assign(ctx context.Context, taskID, targetUserID, requesterID string) (AssignResult, error) {
	if targetUserID == "" {
		return AssignResult{}, invalid("targetUserId is required")
	}
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return AssignResult{}, s.storeErr(err, taskID)
	}
	if !t.IsCreator(requesterID) {
		return AssignResult{}, forbidden("only the task creator can assign it; you are not authorized")
	}
	if _, err := s.users.GetByID(ctx, targetUserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return AssignResult{}, invalid("target user %s does not exist", targetUserID)
		}
		return AssignResult{}, err
	}

	t, added, err := s.tasks.AddAssignee(ctx, taskID, targetUserID)
	if err != nil {
		return AssignResult{}, s.storeErr(err, taskID)
	}
	if !added {
		return AssignResult{Task: t, AlreadyAssigned: true, Message: msgAlreadyAssigned}, nil
	}

	s.invalidateCache(ctx)
	s.publish(ctx, dom.TaskAssigned{
		Task:           t,
		AssigneeID:     targetUserID,
		AssignedByID:   requesterID,
		AssignedByName: s.displayName(ctx, requesterID),
	})
	s.publish(ctx, dom.TaskUpdated{Task: t})
	return AssignResult{Task: t, Message: msgAssigned}, nil
}

// Update applies patch on behalf of requesterID. The creator may change any
// field; an assignee may change status only, and any other field rejects the
// whole patch.
func (s *TaskService) Update(ctx context.Context, taskID, requesterID string, patch dom.TaskPatch) (dom.Task, error) {
	if patch.IsEmpty() {
		return dom.Task{}, invalidErr(dom.ErrEmptyPatch)
	}
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return dom.Task{}, s.storeErr(err, taskID)
	}
	upd, err := updateFor(t, requesterID, patch)
	if err != nil {
		return dom.Task{}, err
	}
	return s.apply(ctx, taskID, requesterID, upd)
}

// updateFor picks the update variant allowed for the requester's role. Roles
// are checked before values.
func updateFor(t dom.Task, requesterID string, patch dom.TaskPatch) (dom.TaskUpdate, error) {
	creator := t.IsCreator(requesterID)
	if !creator {
		if !t.IsAssignee(requesterID) {
			return nil, forbidden("you are not authorized to update this task")
		}
		if !patch.OnlyStatus() {
			return nil, forbidden("%v", dom.ErrStatusOnly)
		}
	}
	patch, err := patch.Normalize()
	if err != nil {
		return nil, invalidErr(err)
	}
	if creator {
		return dom.NewCreatorUpdate(patch), nil
	}
	upd, err := dom.NewAssigneeUpdate(patch)
	if err != nil {
		return nil, forbidden("%v", err)
	}
	return upd, nil
}

func (s *TaskService) apply(ctx context.Context, taskID, requesterID string, upd dom.TaskUpdate) (dom.Task, error) {
	patch := upd.Patch()
	t, err := s.tasks.Update(ctx, taskID, patch)
	if err != nil {
		return dom.Task{}, s.storeErr(err, taskID)
	}
	s.invalidateCache(ctx)
	s.publish(ctx, dom.TaskUpdated{Task: t})
	if patch.SetsStatus(dom.StatusCompleted) {
		s.publish(ctx, dom.TaskFinished{
			Task:           t,
			FinishedByID:   requesterID,
			FinishedByName: s.displayName(ctx, requesterID),
		})
	}
	return t, nil
}

// Delete removes a task. Only the creator may delete.
func (s *TaskService) Delete(ctx context.Context, taskID, requesterID string) error {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return s.storeErr(err, taskID)
	}
	if !t.IsCreator(requesterID) {
		return forbidden("only the task creator can delete it; you are not authorized")
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return s.storeErr(err, taskID)
	}
	s.invalidateCache(ctx)
	s.publish(ctx, dom.TaskDeleted{TaskID: taskID})
	return nil
}

func (s *TaskService) publish(ctx context.Context, ev dom.Event) {
	s.events.Publish(context.WithoutCancel(ctx), ev)
}

func (s *TaskService) displayName(ctx context.Context, userID string) string {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Warn("display name lookup failed", "user_id", userID, "err", err)
		return "Someone"
	}
	return u.Name
}

func (s *TaskService) storeErr(err error, taskID string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return notFound("task %s not found", taskID)
	}
	return err
}

func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("task cache invalidation failed", "err", err)
	}
}
