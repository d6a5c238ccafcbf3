package auth

import (
	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// Identity is the verified claims snapshot attached to a request.
type Identity struct {
	UserID uint
	Email  string
	Role   string
}

func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
}

func IdentityFrom(c echo.Context) (Identity, bool) {
	v := c.Get(identityKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
