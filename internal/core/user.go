package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

type UserService struct {
	users store.UserStore
}

func NewUserService(users store.UserStore) *UserService {
	return &UserService{users: users}
}

// UpsertBySubject creates or refreshes the local user for a provider
// subject. Admin and creator flags are never granted here; they are managed
// out of band and preserved by the upsert.
func (s *UserService) UpsertBySubject(ctx context.Context, subject, email, displayName string) (*model.User, error) {
	var name *string
	if displayName != "" {
		name = &displayName
	}

	user, err := s.users.UpsertBySubject(ctx, &model.User{
		ID:          uuid.New().String(),
		Subject:     subject,
		Email:       email,
		DisplayName: name,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	return s.users.GetBySubject(ctx, subject)
}
