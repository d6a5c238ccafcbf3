package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skvorcov/blog_backend/internal/models"
	"github.com/skvorcov/blog_backend/internal/repo"
	"github.com/skvorcov/blog_backend/internal/tokens"
)

var testSecret = []byte("attach_test_secret")

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

func newContext(t *testing.T, header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return c.NoContent(http.StatusOK)
	}
}

func TestAttachIdentityNoHeader(t *testing.T) {
	c, _ := newContext(t, "")

	called := false
	err := AttachIdentity(testSecret)(okHandler(&called))(c)
	require.NoError(t, err)
	require.True(t, called)

	_, ok := IdentityFrom(c)
	require.False(t, ok)
}

func TestAttachIdentityMalformedToken(t *testing.T) {
	for _, header := range []string{
		"Bearer garbage",
		"Bearer ",
		"Basic dXNlcjpwdw==",
		"Bearer eyJhbGciOiJIUzI1NiJ9.broken.sig",
	} {
		c, _ := newContext(t, header)

		called := false
		err := AttachIdentity(testSecret)(okHandler(&called))(c)
		require.NoError(t, err, "header %q must not abort the request", header)
		require.True(t, called, "header %q must reach the handler", header)

		_, ok := IdentityFrom(c)
		require.False(t, ok, "header %q must not attach an identity", header)
	}
}

func TestAttachIdentityValidToken(t *testing.T) {
	token, err := tokens.SignAccessToken(11, "a@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)

	c, _ := newContext(t, "Bearer "+token)

	called := false
	require.NoError(t, AttachIdentity(testSecret)(okHandler(&called))(c))
	require.True(t, called)

	identity, ok := IdentityFrom(c)
	require.True(t, ok)
	require.Equal(t, uint(11), identity.UserID)
	require.Equal(t, "a@example.com", identity.Email)
	require.Equal(t, "user", identity.Role)
}

func TestAttachIdentityExpiredToken(t *testing.T) {
	token, err := tokens.SignAccessToken(11, "a@example.com", "user", testSecret, -time.Minute)
	require.NoError(t, err)

	c, _ := newContext(t, "Bearer "+token)

	called := false
	require.NoError(t, AttachIdentity(testSecret)(okHandler(&called))(c))
	require.True(t, called)

	_, ok := IdentityFrom(c)
	require.False(t, ok)
}

func TestRequireRolesAnonymous(t *testing.T) {
	db := initTestDB(t)
	users := &repo.UserRepo{DB: db}

	c, _ := newContext(t, "")
	called := false
	err := RequireRoles(users)(okHandler(&called))(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
	require.False(t, called)
}

func TestRequireRolesAuthenticatedOnly(t *testing.T) {
	db := initTestDB(t)
	users := &repo.UserRepo{DB: db}

	user := models.User{Name: "alice", Email: "alice@example.com", PasswordHash: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)

	c, _ := newContext(t, "")
	SetIdentity(c, Identity{UserID: user.ID, Email: user.Email, Role: user.Role})

	called := false
	require.NoError(t, RequireRoles(users)(okHandler(&called))(c))
	require.True(t, called)
}

func TestRequireRolesForbidden(t *testing.T) {
	db := initTestDB(t)
	users := &repo.UserRepo{DB: db}

	user := models.User{Name: "bob", Email: "bob@example.com", PasswordHash: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)

	c, _ := newContext(t, "")
	SetIdentity(c, Identity{UserID: user.ID, Email: user.Email, Role: user.Role})

	called := false
	err := RequireRoles(users, "admin")(okHandler(&called))(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusForbidden, he.Code)
	require.False(t, called)
}

func TestRequireRolesUsesCurrentStoredRole(t *testing.T) {
	db := initTestDB(t)
	users := &repo.UserRepo{DB: db}

	user := models.User{Name: "carol", Email: "carol@example.com", PasswordHash: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)

	// Identity still carries the role snapshot from token issuance.
	identity := Identity{UserID: user.ID, Email: user.Email, Role: "user"}

	c, _ := newContext(t, "")
	SetIdentity(c, identity)
	called := false
	err := RequireRoles(users, "admin")(okHandler(&called))(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)

	// Promote in the store; the same stale identity must now pass.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("role", "admin").Error)

	c2, _ := newContext(t, "")
	SetIdentity(c2, identity)
	called = false
	require.NoError(t, RequireRoles(users, "admin")(okHandler(&called))(c2))
	require.True(t, called)
}

func TestRequireRolesDeletedUser(t *testing.T) {
	db := initTestDB(t)
	users := &repo.UserRepo{DB: db}

	user := models.User{Name: "dave", Email: "dave@example.com", PasswordHash: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Delete(&models.User{}, user.ID).Error)

	c, _ := newContext(t, "")
	SetIdentity(c, Identity{UserID: user.ID, Email: user.Email, Role: user.Role})

	called := false
	err := RequireRoles(users)(okHandler(&called))(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
	require.False(t, called)
}

func TestCheckOwnership(t *testing.T) {
	require.NoError(t, CheckOwnership(5, 5))
	require.ErrorIs(t, CheckOwnership(5, 6), ErrNotOwner)
	require.ErrorIs(t, CheckOwnership(0, 6), ErrNotOwner)
}
