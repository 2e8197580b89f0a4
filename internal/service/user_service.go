package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicing-backend/internal/middleware"
	"invoicing-backend/internal/model"
	"invoicing-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=admin manager staff"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	// EnsureAdmin seeds the first admin account when the users table is
	// empty, so a fresh deployment can log in.
	EnsureAdmin(ctx context.Context, username, password string) error
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// --- Implementation ---

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return UserResponse{}, fmt.Errorf("invalid role %q: must be admin, manager, or staff", req.Role)
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return UserResponse{}, fmt.Errorf("username %q already exists", req.Username)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return UserResponse{}, fmt.Errorf("failed to check username: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Password: string(hashed),
		Role:     req.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return UserResponse{}, fmt.Errorf("failed to create user: %w", err)
	}

	return UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return TokenResponse{}, errors.New("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return TokenResponse{}, errors.New("invalid username or password")
	}

	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return TokenResponse{Token: signed}, nil
}

func (s *userService) EnsureAdmin(ctx context.Context, username, password string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err = s.CreateUser(ctx, CreateUserRequest{
		Username: username,
		Password: password,
		Role:     model.RoleAdmin,
	})
	return err
}
