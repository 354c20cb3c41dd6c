package integrity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"mini-planner/apperr"
	"mini-planner/integrity"
	"mini-planner/models"
	"mini-planner/store"
	"mini-planner/store/memstore"
)

type fixture struct {
	repo  *memstore.Repo
	owner string
	list  *models.List
	tag   *models.Tag
	task  *models.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := memstore.New()
	s := repo.Stores()

	user := &models.User{UserName: "owner", Email: "owner@example.com", PasswordHash: "x"}
	if err := s.Users.Create(ctx, user); err != nil {
		t.Fatal(err)
	}
	list := &models.List{UserID: user.ID, Heading: "List"}
	tag := &models.Tag{UserID: user.ID, Heading: "Tag"}
	s.Lists.Create(ctx, list)
	s.Tags.Create(ctx, tag)
	task := &models.Task{UserID: user.ID, Heading: "Task", ListID: &list.ID, TagID: &tag.ID}
	if err := integrity.New(repo).CreateTask(ctx, task); err != nil {
		t.Fatal(err)
	}
	s.StickyNotes.Create(ctx, &models.StickyNote{UserID: user.ID, Content: "note"})
	return &fixture{repo: repo, owner: user.ID, list: list, tag: tag, task: task}
}

func (f *fixture) reload(t *testing.T) *models.Task {
	t.Helper()
	got, err := f.repo.Stores().Tasks.FindByID(context.Background(), f.task.ID)
	if err != nil || got == nil {
		t.Fatalf("reload task = %v, %v", got, err)
	}
	return got
}

func TestCreateTaskChecksRelations(t *testing.T) {
	f := newFixture(t)
	engine := integrity.New(f.repo)
	missing := uuid.NewString()
	stranger := &models.User{UserName: "stranger", Email: "stranger@example.com", PasswordHash: "x"}
	if err := f.repo.Stores().Users.Create(context.Background(), stranger); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		task  *models.Task
		field string
	}{
		{"Missing list", &models.Task{UserID: f.owner, Heading: "x", ListID: &missing}, "listID"},
		{"Missing tag", &models.Task{UserID: f.owner, Heading: "x", TagID: &missing}, "tagID"},
		{"Foreign list", &models.Task{UserID: stranger.ID, Heading: "x", ListID: &f.list.ID}, "listID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.CreateTask(context.Background(), tt.task)
			if !apperr.Is(err, apperr.RelatedEntityMissing) {
				t.Fatalf("err = %v, want RelatedEntityMissing", err)
			}
			want := "The provided " + tt.field + " is not exists"
			var ae *apperr.Error
			if errors.As(err, &ae) && ae.Message != want {
				t.Errorf("message = %q, want %q", ae.Message, want)
			}
		})
	}

	n, _ := f.repo.Stores().Tasks.Count(context.Background(), models.TaskQuery{OwnerID: f.owner})
	if n != 1 {
		t.Errorf("failed creates must not insert, count = %d", n)
	}
}

func TestCreateRequiresLiveOwner(t *testing.T) {
	f := newFixture(t)
	engine := integrity.New(f.repo)
	ctx := context.Background()

	if _, err := engine.DeleteUser(ctx, f.owner); err != nil {
		t.Fatal(err)
	}

	err := engine.CreateTask(ctx, &models.Task{UserID: f.owner, Heading: "late"})
	if !apperr.Is(err, apperr.EntityNotFound) {
		t.Errorf("task for a deleted owner: err = %v, want EntityNotFound", err)
	}

	inserted := false
	err = engine.Create(ctx, f.owner, func(ctx context.Context, s store.Stores) error {
		inserted = true
		return nil
	})
	if !apperr.Is(err, apperr.EntityNotFound) || inserted {
		t.Errorf("Create for a deleted owner: err = %v, inserted = %v", err, inserted)
	}
}

func TestUpdateTaskChecksOnlySetReferences(t *testing.T) {
	f := newFixture(t)
	engine := integrity.New(f.repo)
	ctx := context.Background()

	heading := "renamed"
	if _, err := engine.UpdateTask(ctx, f.task.ID, f.owner, models.TaskPatch{Heading: &heading}); err != nil {
		t.Fatalf("plain update: %v", err)
	}

	missing := uuid.NewString()
	_, err := engine.UpdateTask(ctx, f.task.ID, f.owner, models.TaskPatch{TagID: &missing})
	if !apperr.Is(err, apperr.RelatedEntityMissing) {
		t.Errorf("err = %v, want RelatedEntityMissing", err)
	}

	empty := ""
	res, err := engine.UpdateTask(ctx, f.task.ID, f.owner, models.TaskPatch{ListID: &empty})
	if err != nil || res.Modified != 1 {
		t.Fatalf("clearing list = %+v, %v", res, err)
	}
	if got := f.reload(t); got.ListID != nil || got.Heading != "renamed" {
		t.Errorf("task = %+v", got)
	}
}

func TestDeleteListNullsTaskReferences(t *testing.T) {
	f := newFixture(t)
	res, err := integrity.New(f.repo).DeleteList(context.Background(), f.list.ID)
	if err != nil || res.Deleted != 1 {
		t.Fatalf("DeleteList = %+v, %v", res, err)
	}
	got := f.reload(t)
	if got.ListID != nil || got.List != nil {
		t.Errorf("list reference survived: %v", got.ListID)
	}
	if got.TagID == nil {
		t.Error("tag reference should be untouched")
	}
}

func TestDeleteTagNullsTaskReferences(t *testing.T) {
	f := newFixture(t)
	if _, err := integrity.New(f.repo).DeleteTag(context.Background(), f.tag.ID); err != nil {
		t.Fatal(err)
	}
	got := f.reload(t)
	if got.TagID != nil {
		t.Errorf("tag reference survived: %v", *got.TagID)
	}
	if got.ListID == nil {
		t.Error("list reference should be untouched")
	}
}

func TestDeleteUserRemovesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &models.List{UserID: uuid.NewString(), Heading: "not mine"}
	f.repo.Stores().Lists.Create(ctx, other)

	if _, err := integrity.New(f.repo).DeleteUser(ctx, f.owner); err != nil {
		t.Fatal(err)
	}

	s := f.repo.Stores()
	owner := models.OwnerFilter{OwnerID: f.owner}
	counts := map[string]func() (int64, error){
		"lists":        func() (int64, error) { return s.Lists.Count(ctx, owner) },
		"tags":         func() (int64, error) { return s.Tags.Count(ctx, owner) },
		"sticky notes": func() (int64, error) { return s.StickyNotes.Count(ctx, owner) },
		"tasks":        func() (int64, error) { return s.Tasks.Count(ctx, models.TaskQuery{OwnerID: f.owner}) },
	}
	for kind, count := range counts {
		if n, _ := count(); n != 0 {
			t.Errorf("%s left behind: %d", kind, n)
		}
	}
	if u, _ := s.Users.FindByID(ctx, f.owner); u != nil {
		t.Error("user row survived")
	}
	if l, _ := s.Lists.FindByID(ctx, other.ID); l == nil {
		t.Error("another user's list was deleted")
	}
}

// silentLists acknowledges deletes without removing anything.
type silentLists struct{ store.ListStore }

func (silentLists) DeleteOne(context.Context, string) (store.DeleteResult, error) {
	return store.DeleteResult{Acknowledged: true}, nil
}

type lossyRepo struct{ *memstore.Repo }

func (r lossyRepo) Atomic(ctx context.Context, fn func(store.Stores) error) error {
	return r.Repo.Atomic(ctx, func(s store.Stores) error {
		s.Lists = silentLists{s.Lists}
		return fn(s)
	})
}

func TestFailedCascadeRollsBack(t *testing.T) {
	f := newFixture(t)
	_, err := integrity.New(lossyRepo{f.repo}).DeleteList(context.Background(), f.list.ID)
	if !apperr.Is(err, apperr.EntityNotDeleted) {
		t.Fatalf("err = %v, want EntityNotDeleted", err)
	}
	if got := f.reload(t); got.ListID == nil {
		t.Error("ClearList ran in a failed unit and was kept")
	}
}
