package handler

import (
	"context"
	"net/http"

	"github.com/haatos/simple-deploy/internal/store"
	"github.com/labstack/echo/v4"
)

type SessionUserServicer interface {
	GetUserBySessionID(ctx context.Context, sessionID string) (*store.User, error)
}

type SessionCookieReader interface {
	GetSessionID(c echo.Context) (string, error)
}

// SessionMiddleware resolves the session cookie into a user and stores it in
// the request context. Requests without a valid session pass through with a
// nil user.
func SessionMiddleware(
	userService SessionUserServicer,
	cookieService SessionCookieReader,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID, err := cookieService.GetSessionID(c)
			if err != nil {
				return next(c)
			}
			u, err := userService.GetUserBySessionID(c.Request().Context(), sessionID)
			if err != nil {
				return next(c)
			}
			c.Set("user", u)
			return next(c)
		}
	}
}

func IsAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if getCtxUser(c) == nil {
			return newError(nil, http.StatusUnauthorized, "not logged in")
		}
		return next(c)
	}
}

func IsAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := getCtxUser(c)
		if u == nil || !u.IsAdmin {
			return newError(nil, http.StatusForbidden, "invalid permissions")
		}
		return next(c)
	}
}
