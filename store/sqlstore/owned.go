package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mini-planner/models"
	"mini-planner/store"
)

// table maps one owned entity kind onto its SQL table.
type table[T any, P any] struct {
	name    string
	columns []string
	scan    func(scanner) (*T, error)
	// values returns the row in columns order after init has run.
	values func(*T) []any
	init   func(e *T, id string, at time.Time)
	// sets returns the assignments a patch produces, excluding updated_at.
	sets func(P) ([]string, []any)
}

type ownedStore[T any, P any] struct {
	c   *conn
	tbl table[T, P]
}

func (s *ownedStore[T, P]) selectCols() string { return strings.Join(s.tbl.columns, ", ") }

func (s *ownedStore[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", s.selectCols(), s.tbl.name)
	e, err := s.tbl.scan(s.c.queryRow(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.tbl.name, err)
	}
	return e, nil
}

func (s *ownedStore[T, P]) FindMany(ctx context.Context, f models.OwnerFilter, skip, limit int) ([]*T, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	window, wargs := s.c.window(skip, limit)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = ? ORDER BY created_at, id%s", s.selectCols(), s.tbl.name, window)
	rows, err := s.c.query(ctx, q, append([]any{f.OwnerID}, wargs...)...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.tbl.name, err)
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		e, err := s.tbl.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.tbl.name, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *ownedStore[T, P]) Count(ctx context.Context, f models.OwnerFilter) (int64, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = ?", s.tbl.name)
	if err := s.c.queryRow(ctx, q, f.OwnerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.tbl.name, err)
	}
	return n, nil
}

func (s *ownedStore[T, P]) Create(ctx context.Context, e *T) error {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	s.tbl.init(e, newID(), now())
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(s.tbl.columns)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.tbl.name, s.selectCols(), marks)
	if _, err := s.c.exec(ctx, q, s.tbl.values(e)...); err != nil {
		return fmt.Errorf("insert %s: %w", s.tbl.name, s.c.constraint(err))
	}
	return nil
}

func (s *ownedStore[T, P]) UpdateOne(ctx context.Context, id string, p P) (store.UpdateResult, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	sets, args := s.tbl.sets(p)
	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", s.tbl.name, strings.Join(sets, ", "))
	n, err := s.c.exec(ctx, q, args...)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("update %s: %w", s.tbl.name, err)
	}
	return updated(n), nil
}

func (s *ownedStore[T, P]) DeleteOne(ctx context.Context, id string) (store.DeleteResult, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	n, err := s.c.exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tbl.name), id)
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("delete %s: %w", s.tbl.name, err)
	}
	return deleted(n), nil
}

func (s *ownedStore[T, P]) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	n, err := s.c.exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", s.tbl.name), ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete %s by owner: %w", s.tbl.name, err)
	}
	return n, nil
}

func colorOrDefault(c string) string {
	if c == "" {
		return models.DefaultColor
	}
	return c
}

var headedColumns = []string{"id", "user_id", "heading", "color", "created_at", "updated_at"}

func newListStore(c *conn) store.ListStore {
	return &ownedStore[models.List, models.ListPatch]{c: c, tbl: table[models.List, models.ListPatch]{
		name:    "lists",
		columns: headedColumns,
		scan: func(r scanner) (*models.List, error) {
			var l models.List
			err := r.Scan(&l.ID, &l.UserID, &l.Heading, &l.Color, &l.CreatedAt, &l.UpdatedAt)
			return &l, err
		},
		values: func(l *models.List) []any {
			return []any{l.ID, l.UserID, l.Heading, l.Color, l.CreatedAt, l.UpdatedAt}
		},
		init: func(l *models.List, id string, at time.Time) {
			l.ID, l.Color = id, colorOrDefault(l.Color)
			l.CreatedAt, l.UpdatedAt = at, at
		},
		sets: func(p models.ListPatch) ([]string, []any) { return headedSets(p.Heading, p.Color) },
	}}
}

func newTagStore(c *conn) store.TagStore {
	return &ownedStore[models.Tag, models.TagPatch]{c: c, tbl: table[models.Tag, models.TagPatch]{
		name:    "tags",
		columns: headedColumns,
		scan: func(r scanner) (*models.Tag, error) {
			var g models.Tag
			err := r.Scan(&g.ID, &g.UserID, &g.Heading, &g.Color, &g.CreatedAt, &g.UpdatedAt)
			return &g, err
		},
		values: func(g *models.Tag) []any {
			return []any{g.ID, g.UserID, g.Heading, g.Color, g.CreatedAt, g.UpdatedAt}
		},
		init: func(g *models.Tag, id string, at time.Time) {
			g.ID, g.Color = id, colorOrDefault(g.Color)
			g.CreatedAt, g.UpdatedAt = at, at
		},
		sets: func(p models.TagPatch) ([]string, []any) { return headedSets(p.Heading, p.Color) },
	}}
}

func headedSets(heading, color *string) ([]string, []any) {
	var sets []string
	var args []any
	if heading != nil {
		sets, args = append(sets, "heading = ?"), append(args, *heading)
	}
	if color != nil {
		sets, args = append(sets, "color = ?"), append(args, *color)
	}
	return sets, args
}

func newStickyNoteStore(c *conn) store.StickyNoteStore {
	return &ownedStore[models.StickyNote, models.StickyNotePatch]{c: c, tbl: table[models.StickyNote, models.StickyNotePatch]{
		name:    "sticky_notes",
		columns: []string{"id", "user_id", "content", "color", "created_at", "updated_at"},
		scan: func(r scanner) (*models.StickyNote, error) {
			var n models.StickyNote
			err := r.Scan(&n.ID, &n.UserID, &n.Content, &n.Color, &n.CreatedAt, &n.UpdatedAt)
			return &n, err
		},
		values: func(n *models.StickyNote) []any {
			return []any{n.ID, n.UserID, n.Content, n.Color, n.CreatedAt, n.UpdatedAt}
		},
		init: func(n *models.StickyNote, id string, at time.Time) {
			n.ID, n.Color = id, colorOrDefault(n.Color)
			n.CreatedAt, n.UpdatedAt = at, at
		},
		sets: func(p models.StickyNotePatch) ([]string, []any) {
			var sets []string
			var args []any
			if p.Content != nil {
				sets, args = append(sets, "content = ?"), append(args, *p.Content)
			}
			if p.Color != nil {
				sets, args = append(sets, "color = ?"), append(args, *p.Color)
			}
			return sets, args
		},
	}}
}
