package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dom "taskhub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, status, priority, due_date, creator_id, assignee_ids, created_at, updated_at`

// PGTaskRepo implements TaskRepo with Postgres.
type PGTaskRepo struct {
	db *pgxpool.Pool
}

// NewPGTaskRepo returns a new PGTaskRepo.
func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO tasks (id, title, description, status, priority, due_date, creator_id, assignee_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + taskColumns
	assignees := t.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	row := r.db.QueryRow(ctx, query,
		uuid.NewString(), t.Title, t.Description, string(t.Status), string(t.Priority),
		t.DueDate, t.CreatorID, assignees,
	)
	return scanTask(row)
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func (r *PGTaskRepo) Find(ctx context.Context, q dom.TaskQuery) ([]dom.Task, error) {
	query, args := buildFindQuery(q)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update applies the patch in one statement; absent fields keep their column value.
func (r *PGTaskRepo) Update(ctx context.Context, id string, patch dom.TaskPatch) (dom.Task, error) {
	query := `
		UPDATE tasks SET
			title       = COALESCE($2::text, title),
			description = COALESCE($3::text, description),
			status      = COALESCE($4::text, status),
			priority    = COALESCE($5::text, priority),
			due_date    = CASE WHEN $6::boolean THEN $7::timestamptz ELSE due_date END,
			updated_at  = NOW()
		WHERE id = $1
		RETURNING ` + taskColumns
	var (
		setDue bool
		due    *time.Time
	)
	if patch.DueDate != nil {
		setDue = true
		due = patch.DueDate.Value
	}
	row := r.db.QueryRow(ctx, query, id,
		patch.Title, patch.Description, statusArg(patch.Status), priorityArg(patch.Priority),
		setDue, due,
	)
	return scanTask(row)
}

// AddAssignee appends userID unless already present. Concurrent duplicates are
// serialized by the row lock: the loser re-checks the predicate and matches nothing.
func (r *PGTaskRepo) AddAssignee(ctx context.Context, id, userID string) (dom.Task, bool, error) {
	query := `
		UPDATE tasks SET assignee_ids = array_append(assignee_ids, $2::text), updated_at = NOW()
		WHERE id = $1 AND NOT ($2::text = ANY(assignee_ids))
		RETURNING ` + taskColumns
	t, err := scanTask(r.db.QueryRow(ctx, query, id, userID))
	if err == nil {
		return t, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return dom.Task{}, false, err
	}
	t, err = r.GetByID(ctx, id)
	if err != nil {
		return dom.Task{}, false, err
	}
	return t, false, nil
}

func (r *PGTaskRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildFindQuery turns a TaskQuery into SQL. $1 is always the principal.
func buildFindQuery(q dom.TaskQuery) (string, []any) {
	args := []any{q.PrincipalID}
	var where []string
	switch q.View {
	case dom.ViewCreated:
		where = append(where, "creator_id = $1")
	case dom.ViewAssigned:
		where = append(where, "$1 = ANY(assignee_ids)", "creator_id <> $1")
	case dom.ViewOverdue:
		args = append(args, q.Now)
		where = append(where,
			"(creator_id = $1 OR $1 = ANY(assignee_ids))",
			fmt.Sprintf("due_date < $%d", len(args)),
			fmt.Sprintf("status <> '%s'", dom.StatusCompleted),
		)
	default:
		where = append(where, "(creator_id = $1 OR $1 = ANY(assignee_ids))")
	}
	if q.Status != "" {
		args = append(args, string(q.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Priority != "" {
		args = append(args, string(q.Priority))
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	order := "due_date ASC NULLS LAST, created_at ASC"
	if q.Descending {
		order = "due_date DESC NULLS FIRST, created_at ASC"
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + order
	return query, args
}

func scanTask(row pgx.Row) (dom.Task, error) {
	var (
		t                dom.Task
		status, priority string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &t.DueDate,
		&t.CreatorID, &t.Assignees, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	t.Status = dom.Status(status)
	t.Priority = dom.Priority(priority)
	return t, nil
}

func statusArg(s *dom.Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func priorityArg(p *dom.Priority) *string {
	if p == nil {
		return nil
	}
	v := string(*p)
	return &v
}
