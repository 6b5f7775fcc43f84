package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	dom "taskhub/internal/domain"

	"github.com/google/uuid"
)

// MemoryTaskRepo is a process-local TaskRepo for development and tests.
// Every method holds the lock for its whole duration, so each call is atomic.
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]dom.Task
	now   func() time.Time
}

// NewMemoryTaskRepo returns an empty MemoryTaskRepo.
func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{
		tasks: make(map[string]dom.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryTaskRepo) Create(_ context.Context, t dom.Task) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	t.ID = uuid.NewString()
	t.Assignees = append([]string{}, t.Assignees...)
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tasks[t.ID] = t
	return cloneTask(t), nil
}

func (r *MemoryTaskRepo) GetByID(_ context.Context, id string) (dom.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, ErrNotFound
	}
	return cloneTask(t), nil
}

func (r *MemoryTaskRepo) Find(_ context.Context, q dom.TaskQuery) ([]dom.Task, error) {
	r.mu.RLock()
	list := []dom.Task{}
	for _, t := range r.tasks {
		if q.Matches(t) {
			list = append(list, cloneTask(t))
		}
	}
	r.mu.RUnlock()
	// Map iteration is random; fix the tie order before the stable due-date sort.
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	dom.SortByDueDate(list, q.Descending)
	return list, nil
}

func (r *MemoryTaskRepo) Update(_ context.Context, id string, patch dom.TaskPatch) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, ErrNotFound
	}
	t = patch.Apply(t)
	t.UpdatedAt = r.now()
	r.tasks[id] = t
	return cloneTask(t), nil
}

func (r *MemoryTaskRepo) AddAssignee(_ context.Context, id, userID string) (dom.Task, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, false, ErrNotFound
	}
	if t.IsAssignee(userID) {
		return cloneTask(t), false, nil
	}
	t.Assignees = append(append([]string{}, t.Assignees...), userID)
	t.UpdatedAt = r.now()
	r.tasks[id] = t
	return cloneTask(t), true, nil
}

func (r *MemoryTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func cloneTask(t dom.Task) dom.Task {
	t.Assignees = append([]string{}, t.Assignees...)
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

// MemoryUserRepo is a process-local UserRepo for development and tests.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]dom.User
}

// NewMemoryUserRepo returns an empty MemoryUserRepo.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]dom.User)}
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (dom.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return dom.User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (dom.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return dom.User{}, ErrNotFound
}

func (r *MemoryUserRepo) Create(_ context.Context, u dom.User) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return dom.User{}, ErrDuplicate
		}
	}
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = u
	return u, nil
}

func (r *MemoryUserRepo) List(_ context.Context) ([]dom.User, error) {
	r.mu.RLock()
	list := make([]dom.User, 0, len(r.users))
	for _, u := range r.users {
		list = append(list, u)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].Email < list[j].Email
	})
	return list, nil
}

func (r *MemoryUserRepo) Update(_ context.Context, id string, patch dom.UserPatch) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return dom.User{}, ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *patch.Email {
				return dom.User{}, ErrDuplicate
			}
		}
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return u, nil
}
