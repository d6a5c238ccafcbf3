package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/skvorcov/blog_backend/internal/logging"
	"github.com/skvorcov/blog_backend/internal/models"
	"github.com/skvorcov/blog_backend/internal/repo"
	"github.com/skvorcov/blog_backend/internal/tokens"
)

// CredentialStore is the read side of the user repository that
// authorization needs: resolve a subject id to its current record.
// Implementations return repo.ErrNotFound for a missing subject so the
// middleware can tell "deleted user" apart from "database down".
type CredentialStore interface {
	ByID(ctx context.Context, id uint) (*models.User, error)
}

// AttachIdentity extracts a bearer token if one is present and, when it
// verifies, attaches the claims to the request. It never rejects: a
// missing or bad token just leaves the request anonymous, and routes
// that require authentication fail later in RequireRoles. Routes with
// no role requirement stay reachable with a bad token.
func AttachIdentity(accessSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return next(c)
			}

			claims, err := tokens.AccessClaimsFromToken(raw, accessSecret)
			if err != nil {
				logging.FromContext(c.Request().Context()).Debug("bearer token rejected", "error", err)
				return next(c)
			}

			userID, err := tokens.SubjectID(claims.Subject)
			if err != nil {
				logging.FromContext(c.Request().Context()).Debug("bearer token rejected", "error", err)
				return next(c)
			}

			SetIdentity(c, Identity{
				UserID: userID,
				Email:  claims.Email,
				Role:   claims.Role,
			})
			return next(c)
		}
	}
}

// RequireRoles gates a route on the current role of the acting identity.
// An empty role list means "any authenticated user". The role is always
// re-read from the store: tokens outlive role changes, the database
// does not.
func RequireRoles(store CredentialStore, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return HTTPError(ErrNotAuthenticated)
			}

			user, err := store.ByID(c.Request().Context(), identity.UserID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return HTTPError(ErrNotAuthenticated)
				}
				return HTTPError(ErrStoreUnavailable)
			}

			if len(roles) == 0 {
				return next(c)
			}

			for _, r := range roles {
				if user.Role == r {
					return next(c)
				}
			}
			return HTTPError(ErrForbidden)
		}
	}
}
