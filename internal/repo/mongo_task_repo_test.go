package repo

import (
	"context"
	"os"
	"testing"
	"time"

	dom "taskhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoTaskFilter(t *testing.T) {
	f := mongoTaskFilter(dom.TaskQuery{View: dom.ViewAssigned, PrincipalID: "u1", Priority: dom.PriorityLow})
	conds, ok := f["$and"].(bson.A)
	require.True(t, ok)
	assert.Equal(t, bson.A{
		bson.M{"assignees": "u1"},
		bson.M{"creator_id": bson.M{"$ne": "u1"}},
		bson.M{"priority": "Low"},
	}, conds)
}

func TestMongoRepos_InvalidIDIsNotFound(t *testing.T) {
	r := &MongoTaskRepo{}
	_, err := r.GetByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(context.Background(), "zzz"), ErrNotFound)

	u := &MongoUserRepo{}
	_, err = u.GetByID(context.Background(), "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoTaskRepo_Lifecycle(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	db := client.Database("taskhub_test_" + time.Now().Format("150405"))
	t.Cleanup(func() { _ = db.Drop(ctx) })

	tasks := NewMongoTaskRepo(db)
	require.NoError(t, tasks.EnsureIndexes(ctx))

	due := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	task, err := tasks.Create(ctx, dom.Task{Title: "t", CreatorID: "a", Status: dom.StatusToDo, Priority: dom.PriorityMedium, DueDate: &due})
	require.NoError(t, err)
	_, _ = tasks.Create(ctx, dom.Task{Title: "no due", CreatorID: "a", Status: dom.StatusToDo, Priority: dom.PriorityMedium})

	_, added, err := tasks.AddAssignee(ctx, task.ID, "b")
	require.NoError(t, err)
	assert.True(t, added)
	got, added, err := tasks.AddAssignee(ctx, task.ID, "b")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"b"}, got.Assignees)

	created, err := tasks.Find(ctx, dom.TaskQuery{View: dom.ViewCreated, PrincipalID: "a"})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, task.ID, created[0].ID)

	overdue, err := tasks.Find(ctx, dom.TaskQuery{View: dom.ViewOverdue, PrincipalID: "b", Now: time.Now()})
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	updated, err := tasks.Update(ctx, task.ID, dom.TaskPatch{DueDate: &dom.DueDateChange{}})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)

	users := NewMongoUserRepo(db)
	require.NoError(t, users.EnsureIndexes(ctx))
	_, err = users.Create(ctx, dom.User{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	_, err = users.Create(ctx, dom.User{Name: "Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, tasks.Delete(ctx, task.ID))
	_, err = tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
