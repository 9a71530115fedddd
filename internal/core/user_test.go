package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocralab/ocra/internal/store/memory"
)

func TestUserUpsert_CreatesThenUpdates(t *testing.T) {
	svc := NewUserService(memory.NewUserStore())
	ctx := context.Background()

	created, err := svc.UpsertBySubject(ctx, "subject-123", "ada@example.org", "Ada Lovelace")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "subject-123", created.Subject)
	require.NotNil(t, created.DisplayName)
	assert.Equal(t, "Ada Lovelace", *created.DisplayName)

	updated, err := svc.UpsertBySubject(ctx, "subject-123", "ada@new.example.org", "Ada L.")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "upsert must not mint a new user")
	assert.Equal(t, "ada@new.example.org", updated.Email)
}

func TestUserUpsert_EmptyDisplayName(t *testing.T) {
	svc := NewUserService(memory.NewUserStore())

	user, err := svc.UpsertBySubject(context.Background(), "subject-123", "ada@example.org", "")
	require.NoError(t, err)
	assert.Nil(t, user.DisplayName)
}

func TestUserGetBySubject_Missing(t *testing.T) {
	svc := NewUserService(memory.NewUserStore())

	_, err := svc.GetBySubject(context.Background(), "nobody")
	assert.Error(t, err)
}
