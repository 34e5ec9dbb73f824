package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/signet-auth/signet/internal/api/middleware"
	"github.com/signet-auth/signet/internal/core/domain"
)

// ctxIdentity extracts the authenticated identity view injected by the HMAC
// middleware. The second return is false on public routes, where no
// authentication ran.
func ctxIdentity(c echo.Context) (domain.IdentityView, bool) {
	view, ok := c.Get(middleware.IdentityContextKey).(domain.IdentityView)
	return view, ok
}
