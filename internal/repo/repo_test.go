package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skvorcov/blog_backend/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.RefreshToken{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func TestUserCreateIfNotExists(t *testing.T) {
	db := initTestDB(t)
	r := &UserRepo{DB: db}
	ctx := context.Background()

	user := models.User{Name: "alice", Email: "alice@example.com", PasswordHash: "x", Role: "user"}
	require.NoError(t, r.CreateIfNotExists(ctx, &user))
	require.NotEmpty(t, user.ID)

	dup := models.User{Name: "other alice", Email: "alice@example.com", PasswordHash: "y", Role: "user"}
	require.ErrorIs(t, r.CreateIfNotExists(ctx, &dup), ErrAlreadyExist)

	missing, err := r.ByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, missing)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db := initTestDB(t)
	r := &RefreshRepo{DB: db}
	ctx := context.Background()

	raw := "some.signed.token"
	require.NoError(t, r.Save(ctx, raw, "jti-1", 1, time.Now().Add(time.Hour)))

	// Raw token never hits the table.
	var stored models.RefreshToken
	require.NoError(t, db.First(&stored).Error)
	require.NotEqual(t, raw, stored.TokenHash)
	require.Equal(t, Sha256Hex(raw), stored.TokenHash)

	active, err := r.CheckActive(ctx, "jti-1")
	require.NoError(t, err)
	require.Equal(t, uint(1), active.UserID)

	require.NoError(t, r.RevokeByJTI(ctx, "jti-1"))
	_, err = r.CheckActive(ctx, "jti-1")
	require.ErrorIs(t, err, ErrTokenRevoked)

	_, err = r.CheckActive(ctx, "jti-unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshTokenExpired(t *testing.T) {
	db := initTestDB(t)
	r := &RefreshRepo{DB: db}
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "tok", "jti-2", 1, time.Now().Add(-time.Minute)))

	_, err := r.CheckActive(ctx, "jti-2")
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshRevokeByToken(t *testing.T) {
	db := initTestDB(t)
	r := &RefreshRepo{DB: db}
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "tok-a", "jti-a", 1, time.Now().Add(time.Hour)))
	require.NoError(t, r.RevokeByToken(ctx, "tok-a"))

	_, err := r.CheckActive(ctx, "jti-a")
	require.ErrorIs(t, err, ErrTokenRevoked)
}
