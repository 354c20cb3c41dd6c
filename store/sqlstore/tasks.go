package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mini-planner/models"
	"mini-planner/store"
)

type taskStore struct {
	c *conn
}

const taskSelect = `SELECT t.id, t.user_id, t.heading, t.description, t.due_date, t.list_id, t.tag_id,
	t.done, t.sub_tasks, t.created_at, t.updated_at,
	l.id, l.heading, l.color, g.id, g.heading, g.color
	FROM tasks t
	LEFT JOIN lists l ON l.id = t.list_id
	LEFT JOIN tags g ON g.id = t.tag_id`

func scanTask(r scanner) (*models.Task, error) {
	var (
		t                  models.Task
		due                sql.NullTime
		listID, tagID      sql.NullString
		subTasks           string
		lID, lHead, lColor sql.NullString
		gID, gHead, gColor sql.NullString
	)
	err := r.Scan(&t.ID, &t.UserID, &t.Heading, &t.Description, &due, &listID, &tagID,
		&t.Done, &subTasks, &t.CreatedAt, &t.UpdatedAt,
		&lID, &lHead, &lColor, &gID, &gHead, &gColor)
	if err != nil {
		return nil, err
	}

	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	if listID.Valid {
		t.ListID = &listID.String
	}
	if tagID.Valid {
		t.TagID = &tagID.String
	}
	if lID.Valid {
		t.List = &models.RefSummary{ID: lID.String, Heading: lHead.String, Color: lColor.String}
	}
	if gID.Valid {
		t.Tag = &models.RefSummary{ID: gID.String, Heading: gHead.String, Color: gColor.String}
	}
	if err := json.Unmarshal([]byte(subTasks), &t.SubTasks); err != nil {
		return nil, fmt.Errorf("decode sub tasks: %w", err)
	}
	if t.SubTasks == nil {
		t.SubTasks = []models.SubTask{}
	}
	return &t, nil
}

func taskWhere(q models.TaskQuery) (string, []any) {
	conds := []string{"t.user_id = ?"}
	args := []any{q.OwnerID}
	if q.Done != nil {
		conds, args = append(conds, "t.done = ?"), append(args, *q.Done)
	}
	if q.DueDateFrom != nil {
		conds, args = append(conds, "t.due_date >= ?"), append(args, q.DueDateFrom.UTC())
	}
	if q.DueDateTo != nil {
		conds, args = append(conds, "t.due_date <= ?"), append(args, q.DueDateTo.UTC())
	}
	if q.ListID != "" {
		conds, args = append(conds, "t.list_id = ?"), append(args, q.ListID)
	}
	if q.TagID != "" {
		conds, args = append(conds, "t.tag_id = ?"), append(args, q.TagID)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *taskStore) FindByID(ctx context.Context, id string) (*models.Task, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	t, err := scanTask(s.c.queryRow(ctx, taskSelect+" WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

func (s *taskStore) FindMany(ctx context.Context, q models.TaskQuery, skip, limit int) ([]*models.Task, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	where, args := taskWhere(q)
	window, wargs := s.c.window(skip, limit)
	rows, err := s.c.query(ctx, taskSelect+where+" ORDER BY t.created_at, t.id"+window, append(args, wargs...)...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *taskStore) Count(ctx context.Context, q models.TaskQuery) (int64, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	where, args := taskWhere(q)
	var n int64
	if err := s.c.queryRow(ctx, "SELECT COUNT(*) FROM tasks t"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func encodeSubTasks(subs []models.SubTask) (string, error) {
	if subs == nil {
		subs = []models.SubTask{}
	}
	b, err := json.Marshal(subs)
	return string(b), err
}

func (s *taskStore) Create(ctx context.Context, t *models.Task) error {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	at := now()
	t.ID = newID()
	t.CreatedAt, t.UpdatedAt = at, at
	if t.SubTasks == nil {
		t.SubTasks = []models.SubTask{}
	}
	if t.ListID != nil && *t.ListID == "" {
		t.ListID = nil
	}
	if t.TagID != nil && *t.TagID == "" {
		t.TagID = nil
	}
	var due any
	if t.DueDate != nil {
		d := t.DueDate.UTC()
		t.DueDate, due = &d, d
	}
	subs, err := encodeSubTasks(t.SubTasks)
	if err != nil {
		return fmt.Errorf("encode sub tasks: %w", err)
	}

	_, err = s.c.exec(ctx, `INSERT INTO tasks
		(id, user_id, heading, description, due_date, list_id, tag_id, done, sub_tasks, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Heading, t.Description, due, nullable(t.ListID), nullable(t.TagID),
		t.Done, subs, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", s.c.constraint(err))
	}
	return nil
}

func (s *taskStore) UpdateOne(ctx context.Context, id string, p models.TaskPatch) (store.UpdateResult, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	var sets []string
	var args []any
	set := func(col string, v any) {
		sets, args = append(sets, col+" = ?"), append(args, v)
	}
	if p.Heading != nil {
		set("heading", *p.Heading)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.DueDate != nil {
		set("due_date", p.DueDate.UTC())
	}
	if p.ListID != nil {
		set("list_id", nullable(p.ListID))
	}
	if p.TagID != nil {
		set("tag_id", nullable(p.TagID))
	}
	if p.Done != nil {
		set("done", *p.Done)
	}
	if p.SubTasks != nil {
		subs, err := encodeSubTasks(*p.SubTasks)
		if err != nil {
			return store.UpdateResult{}, fmt.Errorf("encode sub tasks: %w", err)
		}
		set("sub_tasks", subs)
	}
	set("updated_at", now())

	n, err := s.c.exec(ctx, "UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", append(args, id)...)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("update task: %w", s.c.constraint(err))
	}
	return updated(n), nil
}

func (s *taskStore) DeleteOne(ctx context.Context, id string) (store.DeleteResult, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	n, err := s.c.exec(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("delete task: %w", err)
	}
	return deleted(n), nil
}

func (s *taskStore) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	n, err := s.c.exec(ctx, "DELETE FROM tasks WHERE user_id = ?", ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks by owner: %w", err)
	}
	return n, nil
}

func (s *taskStore) ClearList(ctx context.Context, listID string) (int64, error) {
	return s.clear(ctx, "list_id", listID)
}

func (s *taskStore) ClearTag(ctx context.Context, tagID string) (int64, error) {
	return s.clear(ctx, "tag_id", tagID)
}

func (s *taskStore) clear(ctx context.Context, col, id string) (int64, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	q := fmt.Sprintf("UPDATE tasks SET %s = NULL, updated_at = ? WHERE %s = ?", col, col)
	n, err := s.c.exec(ctx, q, now(), id)
	if err != nil {
		return 0, fmt.Errorf("clear task %s: %w", col, err)
	}
	return n, nil
}
