package memstore

import (
	"context"
	"time"

	"mini-planner/models"
	"mini-planner/store"
)

func byOwner(owner string, f models.OwnerFilter) bool { return owner == f.OwnerID }

func newListStore(r *Repo, inTx bool) store.ListStore {
	return &ownedStore[models.List, models.ListPatch, models.OwnerFilter]{
		repo: r,
		inTx: inTx,
		kind: owned[models.List, models.ListPatch, models.OwnerFilter]{
			table: func(s *state) map[string]*models.List { return s.lists },
			clone: cloneValue[models.List],
			key:   func(e *models.List) (string, string, time.Time) { return e.ID, e.UserID, e.CreatedAt },
			init: func(e *models.List, id string, now time.Time) {
				e.ID = id
				e.Color = colorOrDefault(e.Color)
				stamp(&e.CreatedAt, &e.UpdatedAt, now)
			},
			apply: func(e *models.List, p models.ListPatch, now time.Time) {
				if p.Heading != nil {
					e.Heading = *p.Heading
				}
				if p.Color != nil {
					e.Color = *p.Color
				}
				e.UpdatedAt = now
			},
			match: func(e *models.List, f models.OwnerFilter) bool { return byOwner(e.UserID, f) },
		},
	}
}

func newTagStore(r *Repo, inTx bool) store.TagStore {
	return &ownedStore[models.Tag, models.TagPatch, models.OwnerFilter]{
		repo: r,
		inTx: inTx,
		kind: owned[models.Tag, models.TagPatch, models.OwnerFilter]{
			table: func(s *state) map[string]*models.Tag { return s.tags },
			clone: cloneValue[models.Tag],
			key:   func(e *models.Tag) (string, string, time.Time) { return e.ID, e.UserID, e.CreatedAt },
			init: func(e *models.Tag, id string, now time.Time) {
				e.ID = id
				e.Color = colorOrDefault(e.Color)
				stamp(&e.CreatedAt, &e.UpdatedAt, now)
			},
			apply: func(e *models.Tag, p models.TagPatch, now time.Time) {
				if p.Heading != nil {
					e.Heading = *p.Heading
				}
				if p.Color != nil {
					e.Color = *p.Color
				}
				e.UpdatedAt = now
			},
			match: func(e *models.Tag, f models.OwnerFilter) bool { return byOwner(e.UserID, f) },
		},
	}
}

func newStickyNoteStore(r *Repo, inTx bool) store.StickyNoteStore {
	return &ownedStore[models.StickyNote, models.StickyNotePatch, models.OwnerFilter]{
		repo: r,
		inTx: inTx,
		kind: owned[models.StickyNote, models.StickyNotePatch, models.OwnerFilter]{
			table: func(s *state) map[string]*models.StickyNote { return s.stickyNotes },
			clone: cloneValue[models.StickyNote],
			key:   func(e *models.StickyNote) (string, string, time.Time) { return e.ID, e.UserID, e.CreatedAt },
			init: func(e *models.StickyNote, id string, now time.Time) {
				e.ID = id
				e.Color = colorOrDefault(e.Color)
				stamp(&e.CreatedAt, &e.UpdatedAt, now)
			},
			apply: func(e *models.StickyNote, p models.StickyNotePatch, now time.Time) {
				if p.Content != nil {
					e.Content = *p.Content
				}
				if p.Color != nil {
					e.Color = *p.Color
				}
				e.UpdatedAt = now
			},
			match: func(e *models.StickyNote, f models.OwnerFilter) bool { return byOwner(e.UserID, f) },
		},
	}
}

type taskStore struct {
	*ownedStore[models.Task, models.TaskPatch, models.TaskQuery]
}

func newTaskStore(r *Repo, inTx bool) store.TaskStore {
	return taskStore{&ownedStore[models.Task, models.TaskPatch, models.TaskQuery]{
		repo: r,
		inTx: inTx,
		kind: owned[models.Task, models.TaskPatch, models.TaskQuery]{
			table: func(s *state) map[string]*models.Task { return s.tasks },
			clone: cloneTask,
			key:   func(e *models.Task) (string, string, time.Time) { return e.ID, e.UserID, e.CreatedAt },
			init: func(e *models.Task, id string, now time.Time) {
				e.ID = id
				e.ListID = nonEmpty(e.ListID)
				e.TagID = nonEmpty(e.TagID)
				if e.DueDate != nil {
					d := e.DueDate.UTC()
					e.DueDate = &d
				}
				if e.SubTasks == nil {
					e.SubTasks = []models.SubTask{}
				}
				e.List, e.Tag = nil, nil
				stamp(&e.CreatedAt, &e.UpdatedAt, now)
			},
			apply:    applyTaskPatch,
			match:    matchTask,
			decorate: joinRefs,
		},
	}}
}

func (s taskStore) ClearList(_ context.Context, listID string) (int64, error) {
	defer s.repo.lock(s.inTx)()

	now := s.repo.tick()
	var n int64
	for _, t := range s.repo.st.tasks {
		if t.ListID != nil && *t.ListID == listID {
			t.ListID = nil
			t.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s taskStore) ClearTag(_ context.Context, tagID string) (int64, error) {
	defer s.repo.lock(s.inTx)()

	now := s.repo.tick()
	var n int64
	for _, t := range s.repo.st.tasks {
		if t.TagID != nil && *t.TagID == tagID {
			t.TagID = nil
			t.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func applyTaskPatch(t *models.Task, p models.TaskPatch, now time.Time) {
	if p.Heading != nil {
		t.Heading = *p.Heading
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		d := p.DueDate.UTC()
		t.DueDate = &d
	}
	if p.ListID != nil {
		t.ListID = nonEmpty(p.ListID)
	}
	if p.TagID != nil {
		t.TagID = nonEmpty(p.TagID)
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
	if p.SubTasks != nil {
		t.SubTasks = append([]models.SubTask{}, (*p.SubTasks)...)
	}
	t.UpdatedAt = now
}

func matchTask(t *models.Task, q models.TaskQuery) bool {
	if t.UserID != q.OwnerID {
		return false
	}
	if q.Done != nil && t.Done != *q.Done {
		return false
	}
	if q.DueDateFrom != nil || q.DueDateTo != nil {
		if t.DueDate == nil {
			return false
		}
		if q.DueDateFrom != nil && t.DueDate.Before(*q.DueDateFrom) {
			return false
		}
		if q.DueDateTo != nil && t.DueDate.After(*q.DueDateTo) {
			return false
		}
	}
	if q.ListID != "" && (t.ListID == nil || *t.ListID != q.ListID) {
		return false
	}
	if q.TagID != "" && (t.TagID == nil || *t.TagID != q.TagID) {
		return false
	}
	return true
}

func joinRefs(st *state, t *models.Task) {
	if t.ListID != nil {
		if l, ok := st.lists[*t.ListID]; ok {
			t.List = &models.RefSummary{ID: l.ID, Heading: l.Heading, Color: l.Color}
		}
	}
	if t.TagID != nil {
		if g, ok := st.tags[*t.TagID]; ok {
			t.Tag = &models.RefSummary{ID: g.ID, Heading: g.Heading, Color: g.Color}
		}
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return cloneString(s)
}
