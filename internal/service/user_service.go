package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/haatos/simple-deploy/internal/security"
	"github.com/haatos/simple-deploy/internal/settings"
	"github.com/haatos/simple-deploy/internal/store"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

type UserService struct {
	userStore store.UserStore
	encrypter *security.AESEncrypter
}

func NewUserService(s store.UserStore, encrypter *security.AESEncrypter) *UserService {
	return &UserService{userStore: s, encrypter: encrypter}
}

func (s *UserService) GetUserByID(ctx context.Context, userID int64) (*store.User, error) {
	return s.userStore.ReadUserByID(ctx, userID)
}

func (s *UserService) GetUserBySessionID(
	ctx context.Context,
	sessionID string,
) (*store.User, error) {
	u, err := s.userStore.ReadUserBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !u.SessionExpires.Valid || u.SessionExpires.Time.Before(time.Now().UTC()) {
		return nil, errors.New("session expired")
	}
	return u, nil
}

// LoginGiteaUser upserts the user record for a completed OAuth exchange.
// The access token is AES encrypted before it reaches the database.
func (s *UserService) LoginGiteaUser(
	ctx context.Context,
	gu *GiteaUser,
	accessToken string,
) (*store.User, error) {
	var email, avatarURL *string
	if gu.Email != "" {
		email = &gu.Email
	}
	if gu.AvatarURL != "" {
		avatarURL = &gu.AvatarURL
	}
	encrypted := s.encrypter.EncryptAES(accessToken)
	return s.userStore.UpsertGiteaUser(ctx, gu.ID, gu.Login, email, avatarURL, encrypted)
}

// GetUserAccessToken decrypts the stored Gitea token for API calls made on
// the user's behalf. Local admin accounts have no token.
func (s *UserService) GetUserAccessToken(u *store.User) (string, error) {
	if u.AccessTokenHash == nil {
		return "", errors.New("user has no gitea access token")
	}
	b, err := s.encrypter.DecryptAES(*u.AccessTokenHash)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *UserService) GetUserByLoginAndPassword(
	ctx context.Context,
	login, password string,
) (*store.User, error) {
	u, err := s.userStore.ReadUserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == nil {
		return nil, errors.New("user has no password login")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) CreateAuthSession(
	ctx context.Context,
	userID int64,
) (*store.AuthSession, error) {
	as, err := s.userStore.CreateAuthSession(
		ctx,
		generateRandomSessionID(),
		userID,
		time.Now().UTC().Add(settings.Settings.SessionExpires),
	)
	return as, err
}

func (s *UserService) Logout(ctx context.Context, userID int64) error {
	return s.userStore.DeleteAuthSessionsByUserID(ctx, userID)
}

func generateRandomSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// ScheduleSessionCleanup registers a daily job that removes expired auth
// sessions.
func (s *UserService) ScheduleSessionCleanup(scheduler gocron.Scheduler) error {
	_, err := scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			if err := s.userStore.DeleteExpiredAuthSessions(context.Background()); err != nil {
				log.Println("deleting expired auth sessions:", err)
			}
		}),
	)
	return err
}

func (s *UserService) ListAdminUsers(ctx context.Context) ([]store.User, error) {
	users, err := s.userStore.ListAdminUsers(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return users, nil
}

// InitializeAdminUser prompts for a local admin account on first startup,
// when no admin users exist yet.
func (s *UserService) InitializeAdminUser(ctx context.Context) {
	users, err := s.ListAdminUsers(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if len(users) == 0 {
		fmt.Println("Create an admin user")
		fmt.Print("Login: ")
		var login string
		_, err := fmt.Scanln(&login)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print("Password: ")
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}

		hash, err := bcrypt.GenerateFromPassword(passwordBytes, bcrypt.DefaultCost)
		if err != nil {
			log.Fatal(err)
		}

		if _, err = s.userStore.CreateAdminUser(
			ctx,
			login,
			string(hash),
		); err != nil {
			log.Fatal(err)
		}
	}
}
