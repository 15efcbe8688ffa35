package service

import (
	"context"
	"errors"
	"strings"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid user name or password")

type UserStore interface {
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	CreateUserIfMissing(ctx context.Context, user models.User) (bool, error)
}

// UserService struct represents the user service layer
type UserService struct {
	userStore UserStore
}

func NewUserService(userStore UserStore) *UserService {
	return &UserService{userStore: userStore}
}

// Authenticate checks the password against the stored bcrypt hash.
func (s *UserService) Authenticate(ctx context.Context, userName, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userStore.GetByUserName(ctx, userName)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdmin creates the administrator account on first start. An existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, userName, password string) error {
	if password == "" {
		log.Warn("ADMIN_PASSWORD not set, administrator account not seeded")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	created, err := s.userStore.CreateUserIfMissing(ctx, models.User{
		FullName:     "Administrator",
		UserName:     userName,
		PasswordHash: string(hash),
		Role:         models.RoleAdministrator,
	})
	if err != nil {
		return err
	}
	if created {
		log.Infof("administrator account %s created", userName)
	}
	return nil
}
