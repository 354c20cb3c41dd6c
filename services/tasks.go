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

type TaskService struct {
	tasks  store.TaskStore
	engine *integrity.Engine
}

func NewTaskService(repo store.Repository, engine *integrity.Engine) *TaskService {
	return &TaskService{tasks: repo.Stores().Tasks, engine: engine}
}

// validRef checks the format of an optional reference. Empty means unset.
func validRef(ref *string) error {
	if ref == nil || *ref == "" {
		return nil
	}
	return guard.ValidID(*ref)
}

func validQuery(q models.TaskQuery) error {
	if err := guard.ValidID(q.OwnerID); err != nil {
		return err
	}
	if err := validRef(&q.ListID); err != nil {
		return err
	}
	return validRef(&q.TagID)
}

// GetAll lists the owner's tasks matching q, joined with their list and tag.
func (s *TaskService) GetAll(ctx context.Context, page models.Page, q models.TaskQuery) ([]*models.Task, error) {
	if err := validQuery(q); err != nil {
		return nil, err
	}
	if err := checkPage(page); err != nil {
		return nil, err
	}

	found, err := s.tasks.FindMany(ctx, q, page.Skip(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("get all tasks: %w", err)
	}
	for _, t := range found {
		t.StripOwner()
	}
	return found, nil
}

func (s *TaskService) GetAllByList(ctx context.Context, page models.Page, ownerID, listID string) ([]*models.Task, error) {
	if err := guard.ValidID(listID); err != nil {
		return nil, err
	}
	return s.GetAll(ctx, page, models.TaskQuery{OwnerID: ownerID, ListID: listID})
}

func (s *TaskService) GetAllByTag(ctx context.Context, page models.Page, ownerID, tagID string) ([]*models.Task, error) {
	if err := guard.ValidID(tagID); err != nil {
		return nil, err
	}
	return s.GetAll(ctx, page, models.TaskQuery{OwnerID: ownerID, TagID: tagID})
}

func (s *TaskService) Count(ctx context.Context, q models.TaskQuery) (int64, error) {
	if err := validQuery(q); err != nil {
		return 0, err
	}
	n, err := s.tasks.Count(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *TaskService) load(ctx context.Context, id, ownerID string) (*models.Task, error) {
	if err := guard.ValidID(ownerID); err != nil {
		return nil, err
	}
	if err := guard.ValidID(id); err != nil {
		return nil, err
	}

	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	if t == nil {
		return nil, apperr.New(apperr.EntityNotFound)
	}
	if err := guard.Authorize(ownerID, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, id, ownerID string) (*models.Task, error) {
	t, err := s.load(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	t.StripOwner()
	return t, nil
}

// Add creates t and returns its id. Referenced list and tag must exist.
func (s *TaskService) Add(ctx context.Context, t *models.Task) (string, error) {
	if err := guard.ValidID(t.UserID); err != nil {
		return "", err
	}
	if err := validRef(t.ListID); err != nil {
		return "", err
	}
	if err := validRef(t.TagID); err != nil {
		return "", err
	}

	if err := s.engine.CreateTask(ctx, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

// Update applies patch. An empty listID or tagID detaches the task.
func (s *TaskService) Update(ctx context.Context, id string, patch models.TaskPatch, ownerID string) (int64, error) {
	if err := guard.ValidID(ownerID); err != nil {
		return 0, err
	}
	if err := guard.ValidID(id); err != nil {
		return 0, err
	}
	if err := validRef(patch.ListID); err != nil {
		return 0, err
	}
	if err := validRef(patch.TagID); err != nil {
		return 0, err
	}
	if _, err := s.load(ctx, id, ownerID); err != nil {
		return 0, err
	}

	res, err := s.engine.UpdateTask(ctx, id, ownerID, patch)
	if err != nil {
		return 0, err
	}
	return modifiedOrFail(res)
}

func (s *TaskService) Remove(ctx context.Context, id, ownerID string) (int64, error) {
	if _, err := s.load(ctx, id, ownerID); err != nil {
		return 0, err
	}

	res, err := s.tasks.DeleteOne(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete task: %w", err)
	}
	return deletedOrFail(res)
}

// ChangeDoneStatus flips done. Each call toggles again.
func (s *TaskService) ChangeDoneStatus(ctx context.Context, id, ownerID string) (int64, error) {
	t, err := s.load(ctx, id, ownerID)
	if err != nil {
		return 0, err
	}

	done := !t.Done
	res, err := s.tasks.UpdateOne(ctx, id, models.TaskPatch{Done: &done})
	if err != nil {
		return 0, fmt.Errorf("toggle task: %w", err)
	}
	return modifiedOrFail(res)
}
