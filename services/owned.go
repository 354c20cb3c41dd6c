// Package services implements the resource operations. Every operation that
// takes a caller-supplied id runs the same fixed sequence: validate the owner,
// validate the id, fetch, fail on absence, fail on foreign ownership, then
// read or mutate.
package services

import (
	"context"
	"fmt"

	"mini-planner/apperr"
	"mini-planner/guard"
	"mini-planner/integrity"
	"mini-planner/models"
	"mini-planner/store"
)

// Entity is the pointer side of an owned model.
type Entity[T any] interface {
	*T
	guard.Owned
	GetID() string
	StripOwner()
}

type remover func(ctx context.Context, id string) (store.DeleteResult, error)

// OwnedService serves the kinds whose operations differ only in their
// payload: lists, tags and sticky notes.
type OwnedService[T any, P any, E Entity[T]] struct {
	store  store.OwnedStore[T, P, models.OwnerFilter]
	create func(ctx context.Context, e *T) error
	remove remover
}

// createVia inserts through the engine so a deleted owner gets nothing new.
func createVia[T any, P any, E Entity[T]](engine *integrity.Engine, pick func(store.Stores) store.OwnedStore[T, P, models.OwnerFilter]) func(context.Context, *T) error {
	return func(ctx context.Context, e *T) error {
		return engine.Create(ctx, E(e).OwnerID(), func(ctx context.Context, s store.Stores) error {
			return pick(s).Create(ctx, e)
		})
	}
}

type (
	ListService       = OwnedService[models.List, models.ListPatch, *models.List]
	TagService        = OwnedService[models.Tag, models.TagPatch, *models.Tag]
	StickyNoteService = OwnedService[models.StickyNote, models.StickyNotePatch, *models.StickyNote]
)

// NewListService deletes lists through the engine so tasks lose the reference.
func NewListService(repo store.Repository, engine *integrity.Engine) *ListService {
	return &ListService{
		store:  repo.Stores().Lists,
		create: createVia[models.List, models.ListPatch, *models.List](engine, func(s store.Stores) store.ListStore { return s.Lists }),
		remove: engine.DeleteList,
	}
}

func NewTagService(repo store.Repository, engine *integrity.Engine) *TagService {
	return &TagService{
		store:  repo.Stores().Tags,
		create: createVia[models.Tag, models.TagPatch, *models.Tag](engine, func(s store.Stores) store.TagStore { return s.Tags }),
		remove: engine.DeleteTag,
	}
}

func NewStickyNoteService(repo store.Repository, engine *integrity.Engine) *StickyNoteService {
	notes := repo.Stores().StickyNotes
	return &StickyNoteService{
		store:  notes,
		create: createVia[models.StickyNote, models.StickyNotePatch, *models.StickyNote](engine, func(s store.Stores) store.StickyNoteStore { return s.StickyNotes }),
		remove: notes.DeleteOne,
	}
}

func checkPage(page models.Page) error {
	if page.Page < 1 || page.PerPage < 1 {
		return apperr.Newf(apperr.ValidationFailed, "page and perPage must be positive integers")
	}
	return nil
}

func (s *OwnedService[T, P, E]) GetAll(ctx context.Context, page models.Page, ownerID string) ([]*T, error) {
	if err := guard.ValidID(ownerID); err != nil {
		return nil, err
	}
	if err := checkPage(page); err != nil {
		return nil, err
	}

	found, err := s.store.FindMany(ctx, models.OwnerFilter{OwnerID: ownerID}, page.Skip(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("get all: %w", err)
	}
	for _, e := range found {
		E(e).StripOwner()
	}
	return found, nil
}

// Count reports how many entities ownerID has.
func (s *OwnedService[T, P, E]) Count(ctx context.Context, ownerID string) (int64, error) {
	if err := guard.ValidID(ownerID); err != nil {
		return 0, err
	}
	n, err := s.store.Count(ctx, models.OwnerFilter{OwnerID: ownerID})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// load runs the shared validate, fetch and authorize sequence.
func (s *OwnedService[T, P, E]) load(ctx context.Context, id, ownerID string) (*T, error) {
	if err := guard.ValidID(ownerID); err != nil {
		return nil, err
	}
	if err := guard.ValidID(id); err != nil {
		return nil, err
	}

	e, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	if e == nil {
		return nil, apperr.New(apperr.EntityNotFound)
	}
	if err := guard.Authorize(ownerID, E(e)); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *OwnedService[T, P, E]) Get(ctx context.Context, id, ownerID string) (*T, error) {
	e, err := s.load(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	E(e).StripOwner()
	return e, nil
}

// Add creates e for its owner and returns the new id.
func (s *OwnedService[T, P, E]) Add(ctx context.Context, e *T) (string, error) {
	if err := guard.ValidID(E(e).OwnerID()); err != nil {
		return "", err
	}
	if err := s.create(ctx, e); err != nil {
		return "", fmt.Errorf("add: %w", err)
	}
	return E(e).GetID(), nil
}

// Update returns the number of modified entities, always 1 on success.
func (s *OwnedService[T, P, E]) Update(ctx context.Context, id string, patch P, ownerID string) (int64, error) {
	if _, err := s.load(ctx, id, ownerID); err != nil {
		return 0, err
	}

	res, err := s.store.UpdateOne(ctx, id, patch)
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	return modifiedOrFail(res)
}

func (s *OwnedService[T, P, E]) Remove(ctx context.Context, id, ownerID string) (int64, error) {
	if _, err := s.load(ctx, id, ownerID); err != nil {
		return 0, err
	}

	res, err := s.remove(ctx, id)
	if err != nil {
		return 0, err
	}
	return deletedOrFail(res)
}

func modifiedOrFail(res store.UpdateResult) (int64, error) {
	if res.Matched == 0 || res.Modified == 0 {
		return 0, apperr.New(apperr.EntityNotUpdated)
	}
	return res.Modified, nil
}

func deletedOrFail(res store.DeleteResult) (int64, error) {
	if !res.Acknowledged || res.Deleted == 0 {
		return 0, apperr.New(apperr.EntityNotDeleted)
	}
	return res.Deleted, nil
}
