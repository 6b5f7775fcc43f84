package repo

import (
	"context"
	"errors"

	dom "taskhub/internal/domain"
)

var (
	// ErrNotFound is returned when no record matches the id (including ids the store cannot parse).
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// TaskRepo provides task persistence. AddAssignee and Update are single
// store-level operations; callers never read-modify-write.
type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	GetByID(ctx context.Context, id string) (dom.Task, error)
	Find(ctx context.Context, q dom.TaskQuery) ([]dom.Task, error)
	Update(ctx context.Context, id string, patch dom.TaskPatch) (dom.Task, error)
	// AddAssignee adds userID to the assignee set. added is false when userID
	// was already present; the returned task is then the current state.
	AddAssignee(ctx context.Context, id, userID string) (t dom.Task, added bool, err error)
	Delete(ctx context.Context, id string) error
}

// UserRepo provides user persistence. Emails are stored lower-cased by the caller.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (dom.User, error)
	GetByEmail(ctx context.Context, email string) (dom.User, error)
	Create(ctx context.Context, u dom.User) (dom.User, error)
	List(ctx context.Context) ([]dom.User, error)
	Update(ctx context.Context, id string, patch dom.UserPatch) (dom.User, error)
}
