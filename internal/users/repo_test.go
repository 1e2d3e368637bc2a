package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/pkg/db"
	"github.com/luxemarket/storefront-backend/pkg/db/dbtest"
	"github.com/luxemarket/storefront-backend/pkg/enums"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.NewSQLite(t).DB())

	created, err := repo.Create(ctx, CreateUserDTO{Name: " Ana ", Email: " Ana@Example.COM ", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.Equal(t, enums.RoleUser, created.Role)

	byEmail, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.Create(ctx, CreateUserDTO{Name: "Dup", Email: "ANA@example.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))
	require.NoError(t, repo.EnsureRole(ctx, created.ID, enums.RoleAdmin))
	require.NoError(t, repo.UpdatePasswordHash(ctx, created.ID, "h2"))

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLoginAt)
	assert.True(t, byID.LastLoginAt.Equal(at))
	assert.Equal(t, enums.RoleAdmin, byID.Role)
	assert.Equal(t, "h2", byID.PasswordHash)

	dto := FromModel(byID)
	assert.Equal(t, "Ana", dto.Name)
	assert.Nil(t, FromModel(nil))
}

func TestRepositoryMissingUser(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.NewSQLite(t).DB())
	ghost := uuid.New()

	_, err := repo.FindByID(ctx, ghost)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, ghost, time.Now()), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, ghost, "h"), gorm.ErrRecordNotFound)
}

func TestFindByEmailNormalizesInput(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.NewSQLite(t).DB())
	created, err := repo.Create(ctx, CreateUserDTO{Name: "Bo", Email: "bo@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	found, err := repo.FindByEmail(ctx, "  BO@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}
