package cache

import (
	"context"
	"testing"
	"time"

	dom "taskhub/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*TaskCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTaskCache(rdb, time.Minute), mr
}

func TestTaskCache_MissThenHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	q := dom.TaskQuery{View: dom.ViewCreated, PrincipalID: "u1"}

	got, err := c.GetList(ctx, q, 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	due := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	list := []dom.Task{{ID: "t1", Title: "a", CreatorID: "u1", DueDate: &due, Assignees: []string{"u2"}}}
	require.NoError(t, c.SetList(ctx, q, 0, list))

	got, err = c.GetList(ctx, q, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
	assert.True(t, due.Equal(*got[0].DueDate))
	assert.Equal(t, []string{"u2"}, got[0].Assignees)
}

func TestTaskCache_EmptyListIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	q := dom.TaskQuery{View: dom.ViewOverdue, PrincipalID: "u1"}

	require.NoError(t, c.SetList(ctx, q, 0, []dom.Task{}))
	got, err := c.GetList(ctx, q, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTaskCache_KeysSeparateFiltersAndSort(t *testing.T) {
	base := dom.TaskQuery{View: dom.ViewAssigned, PrincipalID: "u1"}
	desc := base
	desc.Descending = true
	filtered := base
	filtered.Status = dom.StatusCompleted

	assert.NotEqual(t, ListKey(base, 0), ListKey(desc, 0))
	assert.NotEqual(t, ListKey(base, 0), ListKey(filtered, 0))
	assert.NotEqual(t, ListKey(base, 0), ListKey(base, 1))
	assert.Equal(t, "task:list:2:u1:assigned::Completed::asc", ListKey(filtered, 2))
}

func TestTaskCache_InvalidateAll(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("unrelated", "keep"))

	for _, p := range []string{"u1", "u2", "u3"} {
		require.NoError(t, c.SetList(ctx, dom.TaskQuery{View: dom.ViewMine, PrincipalID: p}, 0, []dom.Task{}))
	}
	require.NoError(t, c.InvalidateAll(ctx))

	got, err := c.GetList(ctx, dom.TaskQuery{View: dom.ViewMine, PrincipalID: "u2"}, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, mr.Exists("unrelated"))

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	require.NoError(t, c.InvalidateAll(ctx))
	gen, err = c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)
}

func TestTaskCache_LateFillIsUnreachable(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	q := dom.TaskQuery{View: dom.ViewCreated, PrincipalID: "u1"}

	before, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, before)

	require.NoError(t, c.InvalidateAll(ctx))
	// A load that read the old generation finishes after the write.
	require.NoError(t, c.SetList(ctx, q, before, []dom.Task{{ID: "stale"}}))

	now, err := c.Generation(ctx)
	require.NoError(t, err)
	got, err := c.GetList(ctx, q, now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTaskCache_TTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	q := dom.TaskQuery{View: dom.ViewCreated, PrincipalID: "u1"}
	require.NoError(t, c.SetList(ctx, q, 0, []dom.Task{{ID: "t1"}}))

	mr.FastForward(2 * time.Minute)
	got, err := c.GetList(ctx, q, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}
