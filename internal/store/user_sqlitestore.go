package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/haatos/simple-deploy/internal"
)

type UserSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewUserSQLiteStore(rdb, rwdb *sql.DB) *UserSQLiteStore {
	return &UserSQLiteStore{rdb, rwdb}
}

func (store *UserSQLiteStore) CreateAdminUser(
	ctx context.Context,
	login, passwordHash string,
) (*User, error) {
	u := &User{Login: login, PasswordHash: &passwordHash, IsAdmin: true}
	query := `insert into users (
		login,
		password_hash,
		is_admin
	)
	values ($1, $2, 1)
	returning user_id, created_on`
	if err := sqlscan.Get(ctx, store.rwdb, u, query, u.Login, u.PasswordHash); err != nil {
		return nil, err
	}
	return u, nil
}

// UpsertGiteaUser creates or refreshes the local row for a Gitea account after
// a successful OAuth exchange. The access token arrives already encrypted.
func (store *UserSQLiteStore) UpsertGiteaUser(
	ctx context.Context,
	giteaUserID int64,
	login string,
	email, avatarURL *string,
	accessTokenHash string,
) (*User, error) {
	u := &User{
		Login:           login,
		Email:           email,
		AvatarURL:       avatarURL,
		GiteaUserID:     &giteaUserID,
		AccessTokenHash: &accessTokenHash,
	}
	query := `insert into users (
		login,
		email,
		avatar_url,
		gitea_user_id,
		access_token_hash
	)
	values ($1, $2, $3, $4, $5)
	on conflict (gitea_user_id) do update
	set login = excluded.login,
		email = excluded.email,
		avatar_url = excluded.avatar_url,
		access_token_hash = excluded.access_token_hash
	returning user_id, is_admin, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, u, query,
		u.Login,
		u.Email,
		u.AvatarURL,
		u.GiteaUserID,
		u.AccessTokenHash,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLiteStore) ReadUserByID(ctx context.Context, id int64) (*User, error) {
	u := &User{UserID: id}
	query := "select * from users where user_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, u, query, u.UserID); err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLiteStore) ReadUserByLogin(ctx context.Context, login string) (*User, error) {
	u := &User{Login: login}
	query := "select * from users where login = $1"
	if err := sqlscan.Get(ctx, store.rdb, u, query, u.Login); err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLiteStore) ReadUserBySessionID(
	ctx context.Context,
	sessionID string,
) (*User, error) {
	u := new(User)
	query := `select
		u.user_id,
		u.login,
		u.email,
		u.avatar_url,
		u.gitea_user_id,
		u.access_token_hash,
		u.password_hash,
		u.is_admin,
		u.created_on,
		s.expires_on as session_expires
	from users u
	join auth_sessions s
	on u.user_id = s.session_user_id
	where s.auth_session_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, u, query, sessionID); err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLiteStore) ListAdminUsers(ctx context.Context) ([]User, error) {
	query := "select * from users where is_admin = 1"
	users := make([]User, 0)
	err := sqlscan.Select(ctx, store.rdb, &users, query)
	return users, err
}

func (store *UserSQLiteStore) CreateAuthSession(
	ctx context.Context,
	sessionID string,
	userID int64,
	expiresOn time.Time,
) (*AuthSession, error) {
	as := &AuthSession{
		AuthSessionID: sessionID,
		SessionUserID: userID,
		ExpiresOn:     expiresOn,
	}
	query := `insert into auth_sessions (
		auth_session_id,
		session_user_id,
		expires_on
	)
	values ($1, $2, $3)`
	if _, err := store.rwdb.ExecContext(
		ctx, query,
		as.AuthSessionID,
		as.SessionUserID,
		as.ExpiresOn.Format(internal.DBTimestampLayout),
	); err != nil {
		return nil, err
	}
	return as, nil
}

func (store *UserSQLiteStore) DeleteAuthSessionsByUserID(ctx context.Context, userID int64) error {
	query := "delete from auth_sessions where session_user_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, userID)
	return err
}

func (store *UserSQLiteStore) DeleteExpiredAuthSessions(ctx context.Context) error {
	query := "delete from auth_sessions where expires_on < current_timestamp"
	_, err := store.rwdb.ExecContext(ctx, query)
	return err
}
