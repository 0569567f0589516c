package store

import (
	"context"
	"database/sql"
	"time"
)

type User struct {
	UserID    int64 `param:"user_id"`
	Login     string
	Email     *string
	AvatarURL *string
	// Gitea account id for OAuth users; nil for the local admin
	GiteaUserID *int64
	// Gitea access token, AES encrypted at rest
	AccessTokenHash *string
	// bcrypt hash; only set for the local admin account
	PasswordHash *string
	IsAdmin     bool
	CreatedOn   time.Time

	SessionExpires sql.NullTime
}

type AuthSession struct {
	AuthSessionID string
	SessionUserID int64
	ExpiresOn     time.Time
}

type UserStore interface {
	CreateAdminUser(context.Context, string, string) (*User, error)
	UpsertGiteaUser(context.Context, int64, string, *string, *string, string) (*User, error)
	ReadUserByID(context.Context, int64) (*User, error)
	ReadUserByLogin(context.Context, string) (*User, error)
	ReadUserBySessionID(context.Context, string) (*User, error)
	ListAdminUsers(context.Context) ([]User, error)

	CreateAuthSession(context.Context, string, int64, time.Time) (*AuthSession, error)
	DeleteAuthSessionsByUserID(context.Context, int64) error
	DeleteExpiredAuthSessions(context.Context) error
}
