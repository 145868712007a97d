package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// defaultBcryptCost is the cost factor for bcrypt password hashing.
const defaultBcryptCost = 12

// UserService implements registration, login and user lookups.
type UserService struct {
	userRepo   repository.UserRepository
	cartRepo   repository.CartRepository
	jwtManager *auth.JWTManager
	producer   *event.Producer
	logger     *slog.Logger
	bcryptCost int
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	cartRepo repository.CartRepository,
	jwtManager *auth.JWTManager,
	producer *event.Producer,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		cartRepo:   cartRepo,
		jwtManager: jwtManager,
		producer:   producer,
		logger:     logger,
		bcryptCost: defaultBcryptCost,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Mobile    string
}

// LoginInput holds the parameters for signing in.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a customer account together with its empty cart and
// signs the user in.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.AuthResult, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        domain.NormalizeEmail(input.Email),
		PasswordHash: string(hashed),
		Mobile:       input.Mobile,
		Role:         domain.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if _, err := s.cartRepo.Create(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("create cart for user %s: %w", user.ID, err)
	}

	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
	)

	return domain.NewAuthResult(token, "Signup Success", user), nil
}

// Login authenticates by email and password.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return domain.NewAuthResult(token, "Signin Success", user), nil
}

// GetProfile returns the user behind a verified token.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// ListUsers returns one page of users, newest first.
func (s *UserService) ListUsers(ctx context.Context, page pagination.Params) (pagination.Page[domain.User], error) {
	users, total, err := s.userRepo.List(ctx, page)
	if err != nil {
		return pagination.Page[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.NewPage(users, total, page), nil
}
