// Package integrity keeps task references consistent. Relation checks and
// cascades run as named step lists inside one Repository.Atomic unit, so a
// failing step leaves nothing half applied.
package integrity

import (
	"context"
	"fmt"

	"mini-planner/apperr"
	"mini-planner/models"
	"mini-planner/store"
)

type Engine struct {
	repo store.Repository
}

func New(repo store.Repository) *Engine {
	return &Engine{repo: repo}
}

type step struct {
	name string
	run  func(ctx context.Context, s store.Stores) error
}

func (e *Engine) run(ctx context.Context, steps ...step) error {
	return e.repo.Atomic(ctx, func(s store.Stores) error {
		for _, st := range steps {
			if err := st.run(ctx, s); err != nil {
				return fmt.Errorf("%s: %w", st.name, err)
			}
		}
		return nil
	})
}

// Create runs insert once the owner is confirmed to still exist.
func (e *Engine) Create(ctx context.Context, ownerID string, insert func(ctx context.Context, s store.Stores) error) error {
	return e.run(ctx,
		requireOwner(ownerID),
		step{"insert", insert},
	)
}

// CreateTask inserts t after confirming its owner, list and tag exist and
// the list and tag belong to the owner.
func (e *Engine) CreateTask(ctx context.Context, t *models.Task) error {
	return e.run(ctx,
		requireOwner(t.UserID),
		requireList(t.UserID, t.ListID),
		requireTag(t.UserID, t.TagID),
		step{"insert task", func(ctx context.Context, s store.Stores) error {
			return s.Tasks.Create(ctx, t)
		}},
	)
}

// UpdateTask applies p to task id. A non-empty listID or tagID in the patch
// must resolve to a row owned by ownerID.
func (e *Engine) UpdateTask(ctx context.Context, id, ownerID string, p models.TaskPatch) (store.UpdateResult, error) {
	var res store.UpdateResult
	err := e.run(ctx,
		requireList(ownerID, p.ListID),
		requireTag(ownerID, p.TagID),
		step{"update task", func(ctx context.Context, s store.Stores) error {
			var err error
			res, err = s.Tasks.UpdateOne(ctx, id, p)
			return err
		}},
	)
	return res, err
}

// DeleteList detaches every task from the list, then removes it.
func (e *Engine) DeleteList(ctx context.Context, id string) (store.DeleteResult, error) {
	var res store.DeleteResult
	err := e.run(ctx,
		step{"clear task lists", func(ctx context.Context, s store.Stores) error {
			_, err := s.Tasks.ClearList(ctx, id)
			return err
		}},
		step{"delete list", func(ctx context.Context, s store.Stores) error {
			var err error
			res, err = s.Lists.DeleteOne(ctx, id)
			return deletedOrFail(res, err)
		}},
	)
	return res, err
}

// DeleteTag detaches every task from the tag, then removes it.
func (e *Engine) DeleteTag(ctx context.Context, id string) (store.DeleteResult, error) {
	var res store.DeleteResult
	err := e.run(ctx,
		step{"clear task tags", func(ctx context.Context, s store.Stores) error {
			_, err := s.Tasks.ClearTag(ctx, id)
			return err
		}},
		step{"delete tag", func(ctx context.Context, s store.Stores) error {
			var err error
			res, err = s.Tags.DeleteOne(ctx, id)
			return deletedOrFail(res, err)
		}},
	)
	return res, err
}

type purger interface {
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

func purge(name, ownerID string, pick func(store.Stores) purger) step {
	return step{name, func(ctx context.Context, s store.Stores) error {
		_, err := pick(s).DeleteByOwner(ctx, ownerID)
		return err
	}}
}

// DeleteUser removes everything the user owns, then the user.
func (e *Engine) DeleteUser(ctx context.Context, id string) (store.DeleteResult, error) {
	var res store.DeleteResult
	err := e.run(ctx,
		purge("delete tasks", id, func(s store.Stores) purger { return s.Tasks }),
		purge("delete sticky notes", id, func(s store.Stores) purger { return s.StickyNotes }),
		purge("delete tags", id, func(s store.Stores) purger { return s.Tags }),
		purge("delete lists", id, func(s store.Stores) purger { return s.Lists }),
		step{"delete user", func(ctx context.Context, s store.Stores) error {
			var err error
			res, err = s.Users.DeleteOne(ctx, id)
			return deletedOrFail(res, err)
		}},
	)
	return res, err
}

// A deleted user keeps a valid access token until it expires.
func requireOwner(ownerID string) step {
	return step{"check owner", func(ctx context.Context, s store.Stores) error {
		u, err := s.Users.FindByID(ctx, ownerID)
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.New(apperr.EntityNotFound)
		}
		return nil
	}}
}

// Another user's list is reported as missing, never as forbidden.
func requireList(ownerID string, listID *string) step {
	return step{"check list", func(ctx context.Context, s store.Stores) error {
		if listID == nil || *listID == "" {
			return nil
		}
		l, err := s.Lists.FindByID(ctx, *listID)
		if err != nil {
			return err
		}
		if l == nil || l.UserID != ownerID {
			return apperr.MissingRelation("listID")
		}
		return nil
	}}
}

func requireTag(ownerID string, tagID *string) step {
	return step{"check tag", func(ctx context.Context, s store.Stores) error {
		if tagID == nil || *tagID == "" {
			return nil
		}
		g, err := s.Tags.FindByID(ctx, *tagID)
		if err != nil {
			return err
		}
		if g == nil || g.UserID != ownerID {
			return apperr.MissingRelation("tagID")
		}
		return nil
	}}
}

// deletedOrFail turns a delete that removed nothing into an error so the
// surrounding unit rolls back.
func deletedOrFail(res store.DeleteResult, err error) error {
	if err != nil {
		return err
	}
	if !res.Acknowledged || res.Deleted == 0 {
		return apperr.New(apperr.EntityNotDeleted)
	}
	return nil
}
