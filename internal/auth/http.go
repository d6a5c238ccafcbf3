package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPError translates an authorization failure into the client-visible
// status and message. Token and crypto details never pass through here;
// callers log them and hand over the sentinel instead.
func HTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "you are not logged in")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "you do not have permission to perform this action")
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "you are not the owner of this resource")
	case errors.Is(err, ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot verify permissions")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
