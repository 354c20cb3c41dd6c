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

type UserService struct {
	users  store.UserStore
	engine *integrity.Engine
}

func NewUserService(repo store.Repository, engine *integrity.Engine) *UserService {
	return &UserService{users: repo.Stores().Users, engine: engine}
}

func (s *UserService) exists(ctx context.Context, id string) (*models.User, error) {
	if err := guard.ValidID(id); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, apperr.New(apperr.EntityNotFound)
	}
	return u, nil
}

// Find returns the user without the password hash.
func (s *UserService) Find(ctx context.Context, id string) (*models.User, error) {
	u, err := s.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

// FindWithPassword keeps the hash for credential checks.
func (s *UserService) FindWithPassword(ctx context.Context, id string) (*models.User, error) {
	return s.exists(ctx, id)
}

// FindByEmail keeps the hash; login compares against it.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.found(s.users.FindByEmail(ctx, email))
}

func (s *UserService) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return s.found(s.users.FindByUserName(ctx, userName))
}

func (s *UserService) found(u *models.User, err error) (*models.User, error) {
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, apperr.New(apperr.EntityNotFound)
	}
	return u, nil
}

// Add stores a new user whose password is already hashed.
func (s *UserService) Add(ctx context.Context, u *models.User) (string, error) {
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *UserService) Update(ctx context.Context, id string, patch models.UserPatch) (int64, error) {
	if _, err := s.exists(ctx, id); err != nil {
		return 0, err
	}

	res, err := s.users.UpdateOne(ctx, id, patch)
	if err != nil {
		return 0, err
	}
	return modifiedOrFail(res)
}

// Remove deletes the user and everything the user owns.
func (s *UserService) Remove(ctx context.Context, id string) (int64, error) {
	if _, err := s.exists(ctx, id); err != nil {
		return 0, err
	}

	res, err := s.engine.DeleteUser(ctx, id)
	if err != nil {
		return 0, err
	}
	return deletedOrFail(res)
}
