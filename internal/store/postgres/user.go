package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

// DB is the subset of pgxpool.Pool used by the stores.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) UpsertBySubject(ctx context.Context, user *model.User) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, subject, email, display_name, is_admin, is_creator, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 ON CONFLICT (subject) DO UPDATE
		 SET email = EXCLUDED.email, display_name = EXCLUDED.display_name, updated_at = now()
		 RETURNING id, subject, email, display_name, is_admin, is_creator, created_at, updated_at`,
		user.ID, user.Subject, user.Email, user.DisplayName, user.IsAdmin, user.IsCreator,
	).Scan(&u.ID, &u.Subject, &u.Email, &u.DisplayName, &u.IsAdmin, &u.IsCreator, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", user.Subject, err)
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getWhere(ctx, "id = $1", id)
}

func (s *UserStore) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	return s.getWhere(ctx, "subject = $1", subject)
}

func (s *UserStore) getWhere(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, subject, email, display_name, is_admin, is_creator, created_at, updated_at
		 FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Subject, &u.Email, &u.DisplayName, &u.IsAdmin, &u.IsCreator, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
