package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/haatos/simple-deploy/internal/service"
	"github.com/haatos/simple-deploy/internal/settings"
	"github.com/haatos/simple-deploy/internal/store"
	"github.com/labstack/echo/v4"
)

const oauthStateCookie = "oauth_state"

type AuthUserServicer interface {
	LoginGiteaUser(ctx context.Context, gu *service.GiteaUser, accessToken string) (*store.User, error)
	GetUserByLoginAndPassword(ctx context.Context, login, password string) (*store.User, error)
	CreateAuthSession(ctx context.Context, userID int64) (*store.AuthSession, error)
	Logout(ctx context.Context, userID int64) error
}

type GiteaAuthServicer interface {
	AuthorizeURL(state string) string
	GetAccessToken(ctx context.Context, code string) (*service.GiteaToken, error)
	GetUserInfo(ctx context.Context, accessToken string) (*service.GiteaUser, error)
}

type AuthCookieServicer interface {
	SetSessionCookie(echo.Context, string) error
	RemoveSessionCookie(echo.Context)
}

type AuthHandler struct {
	userService   AuthUserServicer
	giteaClient   GiteaAuthServicer
	cookieService AuthCookieServicer
}

func NewAuthHandler(
	userService AuthUserServicer,
	giteaClient GiteaAuthServicer,
	cookieService AuthCookieServicer,
) *AuthHandler {
	return &AuthHandler{userService, giteaClient, cookieService}
}

type UserResponse struct {
	UserID    int64   `json:"user_id"`
	Login     string  `json:"login"`
	Email     *string `json:"email"`
	AvatarURL *string `json:"avatar_url"`
	IsAdmin   bool    `json:"is_admin"`
}

func newUserResponse(u *store.User) UserResponse {
	return UserResponse{
		UserID:    u.UserID,
		Login:     u.Login,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		IsAdmin:   u.IsAdmin,
	}
}

// GetGiteaLogin starts the OAuth flow by redirecting to the Gitea authorize
// endpoint with a random state value pinned in a short lived cookie.
func (h *AuthHandler) GetGiteaLogin(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Secure:   settings.Settings.Domain != "localhost",
		HttpOnly: true,
		Expires:  time.Now().UTC().Add(10 * time.Minute),
	})
	return c.Redirect(http.StatusSeeOther, h.giteaClient.AuthorizeURL(state))
}

func (h *AuthHandler) GetGiteaCallback(c echo.Context) error {
	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		return newError(err, http.StatusBadRequest, "invalid oauth state")
	}

	token, err := h.giteaClient.GetAccessToken(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return newError(err, http.StatusBadGateway, "unable to exchange oauth code")
	}

	gu, err := h.giteaClient.GetUserInfo(c.Request().Context(), token.AccessToken)
	if err != nil {
		return newError(err, http.StatusBadGateway, "unable to read gitea user")
	}

	u, err := h.userService.LoginGiteaUser(c.Request().Context(), gu, token.AccessToken)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to log in user")
	}

	s, err := h.userService.CreateAuthSession(c.Request().Context(), u.UserID)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to create session")
	}

	if err := h.cookieService.SetSessionCookie(c, s.AuthSessionID); err != nil {
		return newError(err, http.StatusInternalServerError, "unable to set session cookie")
	}

	return c.Redirect(http.StatusSeeOther, settings.Settings.FrontendURL)
}

func (h *AuthHandler) PostLogin(c echo.Context) error {
	lp := new(LoginParams)
	if err := c.Bind(lp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid login data")
	}

	u, err := h.userService.GetUserByLoginAndPassword(
		c.Request().Context(),
		lp.Login,
		lp.Password,
	)
	if err != nil {
		return newError(err, http.StatusUnauthorized, "invalid login or password")
	}

	s, err := h.userService.CreateAuthSession(c.Request().Context(), u.UserID)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to create session")
	}

	if err := h.cookieService.SetSessionCookie(c, s.AuthSessionID); err != nil {
		return newError(err, http.StatusInternalServerError, "unable to set session cookie")
	}

	return c.JSON(http.StatusOK, newUserResponse(u))
}

func (h *AuthHandler) PostLogout(c echo.Context) error {
	if u := getCtxUser(c); u != nil {
		if err := h.userService.Logout(c.Request().Context(), u.UserID); err != nil {
			return newError(err, http.StatusInternalServerError, "unable to log out")
		}
	}
	h.cookieService.RemoveSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) GetMe(c echo.Context) error {
	u := getCtxUser(c)
	if u == nil {
		return newError(nil, http.StatusUnauthorized, "not logged in")
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}
