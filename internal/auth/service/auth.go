package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/pharmstock/pharmstock-backend/internal/auth/jwt"
	"github.com/pharmstock/pharmstock-backend/internal/auth/repository"
	"github.com/pharmstock/pharmstock-backend/pkg/errors"
	"github.com/pharmstock/pharmstock-backend/pkg/logger"
)

// AuthService handles registration and login
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		logger:     log,
	}
}

// LoginResult is a successful login response
type LoginResult struct {
	User  *repository.User `json:"user"`
	Token *jwt.Token       `json:"token"`
}

// Register creates a new account with a hashed password
func (s *AuthService) Register(ctx context.Context, email, name, password, role string) (*repository.User, error) {
	if role == "" {
		role = repository.RoleSeller
	}
	if role != repository.RoleAdmin && role != repository.RoleSeller {
		return nil, errors.BadRequest("unknown role: " + role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &repository.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	token, err := s.jwtManager.Generate(&jwt.UserInfo{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})
	if err != nil {
		return nil, errors.Internal("failed to issue token")
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user logged in")
	return &LoginResult{User: user, Token: token}, nil
}

// Me loads the authenticated user's profile
func (s *AuthService) Me(ctx context.Context, userID int64) (*repository.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
