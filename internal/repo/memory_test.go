package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	dom "taskhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTaskRepo_AddAssigneeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTaskRepo()
	task, err := r.Create(ctx, dom.Task{Title: "t", CreatorID: "a", Status: dom.StatusToDo, Priority: dom.PriorityMedium})
	require.NoError(t, err)

	got, added, err := r.AddAssignee(ctx, task.ID, "b")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"b"}, got.Assignees)

	got, added, err = r.AddAssignee(ctx, task.ID, "b")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"b"}, got.Assignees)

	_, _, err = r.AddAssignee(ctx, "missing", "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTaskRepo_ConcurrentAddAssignee(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTaskRepo()
	task, err := r.Create(ctx, dom.Task{Title: "t", CreatorID: "a"})
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		added int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := r.AddAssignee(ctx, task.ID, "b")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, added)
	got, err := r.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Assignees)
}

func TestMemoryTaskRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTaskRepo()
	task, err := r.Create(ctx, dom.Task{Title: "t", CreatorID: "a", Assignees: []string{"b"}})
	require.NoError(t, err)

	task.Assignees[0] = "mutated"
	got, err := r.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Assignees)
}

func TestMemoryTaskRepo_FindAndDelete(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTaskRepo()
	d1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	late, _ := r.Create(ctx, dom.Task{Title: "late", CreatorID: "a", DueDate: &d2, Status: dom.StatusToDo})
	early, _ := r.Create(ctx, dom.Task{Title: "early", CreatorID: "a", DueDate: &d1, Status: dom.StatusToDo})
	none, _ := r.Create(ctx, dom.Task{Title: "none", CreatorID: "a", Status: dom.StatusToDo})
	_, _ = r.Create(ctx, dom.Task{Title: "other", CreatorID: "z", Status: dom.StatusToDo})

	list, err := r.Find(ctx, dom.TaskQuery{View: dom.ViewCreated, PrincipalID: "a"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{early.ID, late.ID, none.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	require.NoError(t, r.Delete(ctx, late.ID))
	assert.ErrorIs(t, r.Delete(ctx, late.ID), ErrNotFound)
	_, err = r.GetByID(ctx, late.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTaskRepo_UpdateClearsDueDate(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTaskRepo()
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	task, _ := r.Create(ctx, dom.Task{Title: "t", CreatorID: "a", DueDate: &due})

	got, err := r.Update(ctx, task.ID, dom.TaskPatch{DueDate: &dom.DueDateChange{}})
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
	assert.Equal(t, "a", got.CreatorID)

	_, err = r.Update(ctx, "missing", dom.TaskPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserRepo_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryUserRepo()
	a, err := r.Create(ctx, dom.User{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	b, err := r.Create(ctx, dom.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = r.Create(ctx, dom.User{Name: "Ann2", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	email := "ann@example.com"
	_, err = r.Update(ctx, b.ID, dom.UserPatch{Email: &email})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := r.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "Ann", list[0].Name)
}
