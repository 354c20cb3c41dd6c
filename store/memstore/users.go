package memstore

import (
	"context"

	"mini-planner/apperr"
	"mini-planner/models"
	"mini-planner/store"
)

type userStore struct {
	repo *Repo
	inTx bool
}

func (s *userStore) FindByID(_ context.Context, id string) (*models.User, error) {
	defer s.repo.rlock(s.inTx)()

	u, ok := s.repo.st.users[id]
	if !ok {
		return nil, nil
	}
	return cloneValue(u), nil
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	defer s.repo.rlock(s.inTx)()
	return s.findBy(func(u *models.User) bool { return u.Email == email }), nil
}

func (s *userStore) FindByUserName(_ context.Context, userName string) (*models.User, error) {
	defer s.repo.rlock(s.inTx)()
	return s.findBy(func(u *models.User) bool { return u.UserName == userName }), nil
}

func (s *userStore) findBy(pred func(*models.User) bool) *models.User {
	for _, u := range s.repo.st.users {
		if pred(u) {
			return cloneValue(u)
		}
	}
	return nil
}

// conflicts lists the unique fields of candidate already held by another user.
func (s *userStore) conflicts(selfID, email, userName string) []string {
	var fields []string
	for _, u := range s.repo.st.users {
		if u.ID != selfID && email != "" && u.Email == email {
			fields = append(fields, "email")
			break
		}
	}
	for _, u := range s.repo.st.users {
		if u.ID != selfID && userName != "" && u.UserName == userName {
			fields = append(fields, "userName")
			break
		}
	}
	return fields
}

func (s *userStore) Create(_ context.Context, u *models.User) error {
	defer s.repo.lock(s.inTx)()

	if dup := s.conflicts("", u.Email, u.UserName); len(dup) > 0 {
		return apperr.Duplicate(dup...)
	}
	u.ID = newID()
	stamp(&u.CreatedAt, &u.UpdatedAt, s.repo.tick())
	s.repo.st.users[u.ID] = cloneValue(u)
	return nil
}

func (s *userStore) UpdateOne(_ context.Context, id string, p models.UserPatch) (store.UpdateResult, error) {
	defer s.repo.lock(s.inTx)()

	u, ok := s.repo.st.users[id]
	if !ok {
		return store.UpdateResult{}, nil
	}

	var email, userName string
	if p.Email != nil {
		email = *p.Email
	}
	if p.UserName != nil {
		userName = *p.UserName
	}
	if dup := s.conflicts(id, email, userName); len(dup) > 0 {
		return store.UpdateResult{}, apperr.Duplicate(dup...)
	}

	if p.UserName != nil {
		u.UserName = *p.UserName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	u.UpdatedAt = s.repo.tick()
	return store.UpdateResult{Matched: 1, Modified: 1}, nil
}

func (s *userStore) DeleteOne(_ context.Context, id string) (store.DeleteResult, error) {
	defer s.repo.lock(s.inTx)()

	if _, ok := s.repo.st.users[id]; !ok {
		return store.DeleteResult{Acknowledged: true}, nil
	}
	delete(s.repo.st.users, id)
	return store.DeleteResult{Acknowledged: true, Deleted: 1}, nil
}
