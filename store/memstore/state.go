package memstore

import (
	"maps"
	"slices"
	"time"

	"mini-planner/models"
)

type state struct {
	users       map[string]*models.User
	lists       map[string]*models.List
	tags        map[string]*models.Tag
	stickyNotes map[string]*models.StickyNote
	tasks       map[string]*models.Task
}

func newState() *state {
	return &state{
		users:       map[string]*models.User{},
		lists:       map[string]*models.List{},
		tags:        map[string]*models.Tag{},
		stickyNotes: map[string]*models.StickyNote{},
		tasks:       map[string]*models.Task{},
	}
}

func (s *state) clone() *state {
	return &state{
		users:       cloneRows(s.users, cloneValue[models.User]),
		lists:       cloneRows(s.lists, cloneValue[models.List]),
		tags:        cloneRows(s.tags, cloneValue[models.Tag]),
		stickyNotes: cloneRows(s.stickyNotes, cloneValue[models.StickyNote]),
		tasks:       cloneRows(s.tasks, cloneTask),
	}
}

func cloneRows[T any](rows map[string]*T, cp func(*T) *T) map[string]*T {
	out := maps.Clone(rows)
	for id, e := range out {
		out[id] = cp(e)
	}
	return out
}

func cloneValue[T any](e *T) *T {
	c := *e
	return &c
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	c.ListID = cloneString(t.ListID)
	c.TagID = cloneString(t.TagID)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	c.SubTasks = slices.Clone(t.SubTasks)
	if c.SubTasks == nil {
		c.SubTasks = []models.SubTask{}
	}
	c.List, c.Tag = nil, nil
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func colorOrDefault(c string) string {
	if c == "" {
		return models.DefaultColor
	}
	return c
}

func stamp(created, updated *time.Time, now time.Time) {
	*created = now
	*updated = now
}
