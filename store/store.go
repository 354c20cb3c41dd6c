// Package store defines the persistence contracts the services and the
// integrity engine are written against. Two implementations exist:
// store/sqlstore (MySQL, PostgreSQL) and store/memstore.
package store

import (
	"context"

	"mini-planner/models"
)

type UpdateResult struct {
	Matched  int64
	Modified int64
}

type DeleteResult struct {
	Acknowledged bool
	Deleted      int64
}

// OwnedStore is the CRUD contract shared by every user-owned kind.
// T is the entity, P its patch and F the filter FindMany and Count accept.
type OwnedStore[T any, P any, F any] interface {
	// FindByID returns nil, nil when no row has the id.
	FindByID(ctx context.Context, id string) (*T, error)
	// FindMany returns matches ordered by creation time then id.
	FindMany(ctx context.Context, filter F, skip, limit int) ([]*T, error)
	Count(ctx context.Context, filter F) (int64, error)
	// Create assigns the id, timestamps and defaults in place.
	Create(ctx context.Context, entity *T) error
	UpdateOne(ctx context.Context, id string, patch P) (UpdateResult, error)
	DeleteOne(ctx context.Context, id string) (DeleteResult, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

type (
	ListStore       = OwnedStore[models.List, models.ListPatch, models.OwnerFilter]
	TagStore        = OwnedStore[models.Tag, models.TagPatch, models.OwnerFilter]
	StickyNoteStore = OwnedStore[models.StickyNote, models.StickyNotePatch, models.OwnerFilter]
)

type TaskStore interface {
	OwnedStore[models.Task, models.TaskPatch, models.TaskQuery]
	// ClearList nulls list_id on every task pointing at listID.
	ClearList(ctx context.Context, listID string) (int64, error)
	// ClearTag nulls tag_id on every task pointing at tagID.
	ClearTag(ctx context.Context, tagID string) (int64, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
	// Create fails with apperr.DuplicateKey when email or userName is taken.
	Create(ctx context.Context, user *models.User) error
	UpdateOne(ctx context.Context, id string, patch models.UserPatch) (UpdateResult, error)
	DeleteOne(ctx context.Context, id string) (DeleteResult, error)
}

type Stores struct {
	Users       UserStore
	Lists       ListStore
	Tags        TagStore
	StickyNotes StickyNoteStore
	Tasks       TaskStore
}

type Repository interface {
	Stores() Stores
	// Atomic runs fn against stores bound to one unit of work. Nothing fn
	// wrote is kept when it returns an error.
	Atomic(ctx context.Context, fn func(Stores) error) error
	Ping(ctx context.Context) error
	Close() error
}
