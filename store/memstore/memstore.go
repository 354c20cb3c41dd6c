// Package memstore keeps every record in process memory. It backs the
// "memory" driver for local runs and is the store the service tests use.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"mini-planner/store"
)

type Repo struct {
	mu   sync.RWMutex
	st   *state
	now  func() time.Time
	last time.Time
}

var _ store.Repository = (*Repo)(nil)

func New() *Repo {
	return &Repo{st: newState(), now: time.Now}
}

// WithClock replaces the time source. Timestamps stay strictly increasing
// even when the clock stands still.
func (r *Repo) WithClock(now func() time.Time) *Repo {
	r.now = now
	return r
}

func (r *Repo) Stores() store.Stores { return r.bind(false) }

func (r *Repo) Atomic(ctx context.Context, fn func(store.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.st.clone()
	if err := fn(r.bind(true)); err != nil {
		r.st = snapshot
		return err
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error { return ctx.Err() }

func (r *Repo) Close() error { return nil }

func (r *Repo) bind(inTx bool) store.Stores {
	return store.Stores{
		Users:       &userStore{repo: r, inTx: inTx},
		Lists:       newListStore(r, inTx),
		Tags:        newTagStore(r, inTx),
		StickyNotes: newStickyNoteStore(r, inTx),
		Tasks:       newTaskStore(r, inTx),
	}
}

// Stores bound to an Atomic call run under the lock Atomic already holds.
func (r *Repo) rlock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	r.mu.RLock()
	return r.mu.RUnlock
}

func (r *Repo) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// tick must be called with the write lock held.
func (r *Repo) tick() time.Time {
	now := r.now().UTC().Truncate(time.Microsecond)
	if !now.After(r.last) {
		now = r.last.Add(time.Microsecond)
	}
	r.last = now
	return now
}

func newID() string { return uuid.NewString() }

// owned describes how the generic store reads and writes one entity kind.
type owned[T any, P any, F any] struct {
	table    func(*state) map[string]*T
	clone    func(*T) *T
	key      func(*T) (id, owner string, created time.Time)
	init     func(e *T, id string, now time.Time)
	apply    func(e *T, p P, now time.Time)
	match    func(e *T, f F) bool
	decorate func(st *state, e *T)
}

type ownedStore[T any, P any, F any] struct {
	repo *Repo
	inTx bool
	kind owned[T, P, F]
}

func (s *ownedStore[T, P, F]) view(st *state, e *T) *T {
	out := s.kind.clone(e)
	if s.kind.decorate != nil {
		s.kind.decorate(st, out)
	}
	return out
}

func (s *ownedStore[T, P, F]) FindByID(_ context.Context, id string) (*T, error) {
	defer s.repo.rlock(s.inTx)()

	st := s.repo.st
	e, ok := s.kind.table(st)[id]
	if !ok {
		return nil, nil
	}
	return s.view(st, e), nil
}

func (s *ownedStore[T, P, F]) matches(st *state, filter F) []*T {
	var found []*T
	for _, e := range s.kind.table(st) {
		if s.kind.match(e, filter) {
			found = append(found, e)
		}
	}
	slices.SortFunc(found, func(a, b *T) int {
		aID, _, aAt := s.kind.key(a)
		bID, _, bAt := s.kind.key(b)
		if c := aAt.Compare(bAt); c != 0 {
			return c
		}
		return cmp.Compare(aID, bID)
	})
	return found
}

func (s *ownedStore[T, P, F]) FindMany(_ context.Context, filter F, skip, limit int) ([]*T, error) {
	defer s.repo.rlock(s.inTx)()

	st := s.repo.st
	found := s.matches(st, filter)
	out := make([]*T, 0)
	if skip >= len(found) {
		return out, nil
	}
	found = found[max(skip, 0):]
	if limit > 0 && limit < len(found) {
		found = found[:limit]
	}
	for _, e := range found {
		out = append(out, s.view(st, e))
	}
	return out, nil
}

func (s *ownedStore[T, P, F]) Count(_ context.Context, filter F) (int64, error) {
	defer s.repo.rlock(s.inTx)()
	return int64(len(s.matches(s.repo.st, filter))), nil
}

func (s *ownedStore[T, P, F]) Create(_ context.Context, e *T) error {
	defer s.repo.lock(s.inTx)()

	s.kind.init(e, newID(), s.repo.tick())
	id, _, _ := s.kind.key(e)
	s.kind.table(s.repo.st)[id] = s.kind.clone(e)
	return nil
}

func (s *ownedStore[T, P, F]) UpdateOne(_ context.Context, id string, patch P) (store.UpdateResult, error) {
	defer s.repo.lock(s.inTx)()

	e, ok := s.kind.table(s.repo.st)[id]
	if !ok {
		return store.UpdateResult{}, nil
	}
	s.kind.apply(e, patch, s.repo.tick())
	return store.UpdateResult{Matched: 1, Modified: 1}, nil
}

func (s *ownedStore[T, P, F]) DeleteOne(_ context.Context, id string) (store.DeleteResult, error) {
	defer s.repo.lock(s.inTx)()

	rows := s.kind.table(s.repo.st)
	if _, ok := rows[id]; !ok {
		return store.DeleteResult{Acknowledged: true}, nil
	}
	delete(rows, id)
	return store.DeleteResult{Acknowledged: true, Deleted: 1}, nil
}

func (s *ownedStore[T, P, F]) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	defer s.repo.lock(s.inTx)()

	rows := s.kind.table(s.repo.st)
	var n int64
	for id, e := range rows {
		if _, owner, _ := s.kind.key(e); owner == ownerID {
			delete(rows, id)
			n++
		}
	}
	return n, nil
}
