package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haatos/simple-deploy/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSessionUserService struct {
	mock.Mock
}

func (m *MockSessionUserService) GetUserBySessionID(
	ctx context.Context,
	sessionID string,
) (*store.User, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.User), args.Error(1)
}

type MockSessionCookieReader struct {
	mock.Mock
}

func (m *MockSessionCookieReader) GetSessionID(c echo.Context) (string, error) {
	args := m.Called(c)
	return args.String(0), args.Error(1)
}

func TestSessionMiddleware(t *testing.T) {
	t.Run("success - user is stored in context", func(t *testing.T) {
		// arrange
		mockUsers := new(MockSessionUserService)
		mockCookies := new(MockSessionCookieReader)
		mockCookies.On("GetSessionID", mock.Anything).Return("session-id", nil)
		mockUsers.On("GetUserBySessionID", mock.Anything, "session-id").
			Return(&store.User{UserID: 1, Login: "tester"}, nil)
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		var ctxUser *store.User
		next := func(c echo.Context) error {
			ctxUser = getCtxUser(c)
			return nil
		}

		// act
		err := SessionMiddleware(mockUsers, mockCookies)(next)(c)

		// assert
		assert.NoError(t, err)
		assert.NotNil(t, ctxUser)
		assert.Equal(t, "tester", ctxUser.Login)
	})
	t.Run("success - missing cookie passes through with nil user", func(t *testing.T) {
		// arrange
		mockUsers := new(MockSessionUserService)
		mockCookies := new(MockSessionCookieReader)
		mockCookies.On("GetSessionID", mock.Anything).Return("", errors.New("no cookie"))
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		nextCalled := false
		next := func(c echo.Context) error {
			nextCalled = true
			return nil
		}

		// act
		err := SessionMiddleware(mockUsers, mockCookies)(next)(c)

		// assert
		assert.NoError(t, err)
		assert.True(t, nextCalled)
		assert.Nil(t, getCtxUser(c))
		mockUsers.AssertNotCalled(t, "GetUserBySessionID")
	})
	t.Run("success - expired session passes through with nil user", func(t *testing.T) {
		// arrange
		mockUsers := new(MockSessionUserService)
		mockCookies := new(MockSessionCookieReader)
		mockCookies.On("GetSessionID", mock.Anything).Return("session-id", nil)
		mockUsers.On("GetUserBySessionID", mock.Anything, "session-id").
			Return(nil, errors.New("session expired"))
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		next := func(c echo.Context) error { return nil }

		// act
		err := SessionMiddleware(mockUsers, mockCookies)(next)(c)

		// assert
		assert.NoError(t, err)
		assert.Nil(t, getCtxUser(c))
	})
}

func TestIsAuthenticated(t *testing.T) {
	t.Run("success - request with user proceeds", func(t *testing.T) {
		// arrange
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user", &store.User{UserID: 1})
		nextCalled := false
		next := func(c echo.Context) error {
			nextCalled = true
			return nil
		}

		// act
		err := IsAuthenticated(next)(c)

		// assert
		assert.NoError(t, err)
		assert.True(t, nextCalled)
	})
	t.Run("failure - anonymous request is rejected", func(t *testing.T) {
		// arrange
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		next := func(c echo.Context) error { return nil }

		// act
		err := IsAuthenticated(next)(c)

		// assert
		httpErr := new(echo.HTTPError)
		assert.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})
}

func TestIsAdmin(t *testing.T) {
	t.Run("success - admin proceeds", func(t *testing.T) {
		// arrange
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user", &store.User{UserID: 1, IsAdmin: true})
		next := func(c echo.Context) error { return nil }

		// act
		err := IsAdmin(next)(c)

		// assert
		assert.NoError(t, err)
	})
	t.Run("failure - non-admin is rejected", func(t *testing.T) {
		// arrange
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user", &store.User{UserID: 2})
		next := func(c echo.Context) error { return nil }

		// act
		err := IsAdmin(next)(c)

		// assert
		httpErr := new(echo.HTTPError)
		assert.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)
	})
}
