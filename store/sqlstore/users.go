package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mini-planner/models"
	"mini-planner/store"
)

type userStore struct {
	c *conn
}

const userSelect = `SELECT id, user_name, email, password_hash, first_name, last_name, created_at, updated_at FROM users`

func (s *userStore) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	var u models.User
	err := s.c.queryRow(ctx, userSelect+" WHERE "+where+" = ?", arg).
		Scan(&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by %s: %w", where, err)
	}
	return &u, nil
}

func (s *userStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "id", id)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email", email)
}

func (s *userStore) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return s.findOne(ctx, "user_name", userName)
}

func (s *userStore) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	at := now()
	u.ID = newID()
	u.CreatedAt, u.UpdatedAt = at, at
	_, err := s.c.exec(ctx, `INSERT INTO users
		(id, user_name, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UserName, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", s.c.duplicate(err))
	}
	return nil
}

func (s *userStore) UpdateOne(ctx context.Context, id string, p models.UserPatch) (store.UpdateResult, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	var sets []string
	var args []any
	set := func(col string, v *string) {
		if v != nil {
			sets, args = append(sets, col+" = ?"), append(args, *v)
		}
	}
	set("user_name", p.UserName)
	set("email", p.Email)
	set("first_name", p.FirstName)
	set("last_name", p.LastName)
	set("password_hash", p.PasswordHash)
	sets, args = append(sets, "updated_at = ?"), append(args, now(), id)

	n, err := s.c.exec(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("update user: %w", s.c.duplicate(err))
	}
	return updated(n), nil
}

func (s *userStore) DeleteOne(ctx context.Context, id string) (store.DeleteResult, error) {
	ctx, cancel := s.c.ctx(ctx)
	defer cancel()

	n, err := s.c.exec(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("delete user: %w", err)
	}
	return deleted(n), nil
}
