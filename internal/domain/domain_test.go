package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestStatusAndPriorityValid(t *testing.T) {
	assert.True(t, StatusToDo.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.False(t, Status("Done").Valid())
	assert.False(t, Status("").Valid())

	assert.True(t, PriorityHigh.Valid())
	assert.False(t, Priority("Urgent").Valid())
}

func TestNormalizeTitle(t *testing.T) {
	title, err := NormalizeTitle("  Draft spec  ")
	require.NoError(t, err)
	assert.Equal(t, "Draft spec", title)

	_, err = NormalizeTitle("   ")
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = NormalizeTitle(strings.Repeat("x", TitleMaxLen+1))
	assert.ErrorIs(t, err, ErrTitleTooLong)
}

func TestAssigneeUpdateRejectsNonStatusFields(t *testing.T) {
	_, err := NewAssigneeUpdate(TaskPatch{Status: ptr(StatusCompleted), Title: ptr("new")})
	assert.ErrorIs(t, err, ErrStatusOnly)

	_, err = NewAssigneeUpdate(TaskPatch{Priority: ptr(PriorityHigh)})
	assert.ErrorIs(t, err, ErrStatusOnly)

	u, err := NewAssigneeUpdate(TaskPatch{Status: ptr(StatusInProgress)})
	require.NoError(t, err)
	p := u.Patch()
	require.NotNil(t, p.Status)
	assert.Equal(t, StatusInProgress, *p.Status)
	assert.True(t, p.OnlyStatus())
}

func TestPatchApplyKeepsOwnership(t *testing.T) {
	due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", Title: "old", CreatorID: "a", Assignees: []string{"b"}, DueDate: &due}

	got := NewCreatorUpdate(TaskPatch{
		Title:   ptr("new"),
		DueDate: &DueDateChange{},
	}).Patch().Apply(task)

	assert.Equal(t, "new", got.Title)
	assert.Nil(t, got.DueDate)
	assert.Equal(t, "a", got.CreatorID)
	assert.Equal(t, []string{"b"}, got.Assignees)
}

func TestPatchNormalize(t *testing.T) {
	_, err := TaskPatch{Status: ptr(Status("Done"))}.Normalize()
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = TaskPatch{Priority: ptr(Priority("x"))}.Normalize()
	assert.ErrorIs(t, err, ErrUnknownPriority)

	p, err := TaskPatch{Title: ptr("  t  ")}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "t", *p.Title)

	assert.True(t, TaskPatch{}.IsEmpty())
}

func TestQueryMatches(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	own := Task{CreatorID: "a", Assignees: []string{"a"}, Status: StatusToDo, Priority: PriorityMedium}
	theirs := Task{CreatorID: "b", Assignees: []string{"a"}, Status: StatusToDo, Priority: PriorityHigh, DueDate: &past}
	done := Task{CreatorID: "a", Status: StatusCompleted, Priority: PriorityLow, DueDate: &past}

	tests := []struct {
		name string
		q    TaskQuery
		task Task
		want bool
	}{
		{"created includes own", TaskQuery{View: ViewCreated, PrincipalID: "a"}, own, true},
		{"created excludes others", TaskQuery{View: ViewCreated, PrincipalID: "a"}, theirs, false},
		{"assigned excludes self-created", TaskQuery{View: ViewAssigned, PrincipalID: "a"}, own, false},
		{"assigned includes others", TaskQuery{View: ViewAssigned, PrincipalID: "a"}, theirs, true},
		{"overdue past due", TaskQuery{View: ViewOverdue, PrincipalID: "a", Now: now}, theirs, true},
		{"overdue skips completed", TaskQuery{View: ViewOverdue, PrincipalID: "a", Now: now}, done, false},
		{"overdue skips no due date", TaskQuery{View: ViewOverdue, PrincipalID: "a", Now: now}, own, false},
		{"mine includes assigned", TaskQuery{View: ViewMine, PrincipalID: "a"}, theirs, true},
		{"mine excludes strangers", TaskQuery{View: ViewMine, PrincipalID: "c"}, theirs, false},
		{"status filter", TaskQuery{View: ViewMine, PrincipalID: "a", Status: StatusCompleted}, own, false},
		{"priority filter", TaskQuery{View: ViewMine, PrincipalID: "a", Priority: PriorityHigh}, theirs, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Matches(tt.task))
		})
	}
}

func TestSortByDueDate(t *testing.T) {
	d1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tasks := []Task{
		{ID: "none"},
		{ID: "late", DueDate: &d2},
		{ID: "early", DueDate: &d1},
	}

	SortByDueDate(tasks, false)
	assert.Equal(t, []string{"early", "late", "none"}, ids(tasks))

	SortByDueDate(tasks, true)
	assert.Equal(t, []string{"none", "late", "early"}, ids(tasks))
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
