package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/statspub/measures-backend/internal/data/repos"
	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/platform/logger"
)

type UserService interface {
	CreateUser(ctx context.Context, tx *gorm.DB, email, password, name string) (*types.User, error)
	GetUserByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	// CheckPassword verifies credentials, returning the user on success.
	CheckPassword(ctx context.Context, tx *gorm.DB, email, password string) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      baseLog.With("service", "UserService"),
		userRepo: userRepo,
	}
}

var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

func (s *userService) CreateUser(ctx context.Context, tx *gorm.DB, email, password, name string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	existing, err := s.userRepo.GetByEmail(ctx, transaction, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateEmail, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &types.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, transaction, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return s.userRepo.GetByEmail(ctx, transaction, email)
}

func (s *userService) CheckPassword(ctx context.Context, tx *gorm.DB, email, password string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	u, err := s.userRepo.GetByEmail(ctx, transaction, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil || !u.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
