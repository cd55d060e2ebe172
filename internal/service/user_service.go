package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 24 * time.Hour

// --- User DTOs ---

type CreateUserRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       string `json:"role" binding:"required,oneof=admin qs senior_qs supplier"`
	SupplierID string `json:"supplier_id" binding:"omitempty,uuid"` // required for the supplier role
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserDTO never exposes the password hash.
type UserDTO struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  string     `json:"created_at"`
}

// --- Interface ---

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (UserDTO, error)
	Login(ctx context.Context, req LoginUserRequest) (TokenResponse, error)
	GetUser(ctx context.Context, id string) (UserDTO, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserDTO, int64, error)
	// EnsureAdmin creates the bootstrap admin account unless the email is already registered.
	EnsureAdmin(ctx context.Context, email, password string) error
}

// --- Implementation ---

type userService struct {
	repo      repository.UserRepository
	suppliers repository.SupplierRepository
	secret    func() []byte
	tokenTTL  time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewUserService wires account management. secret is read on every login so a
// rotated signing key takes effect without a restart.
func NewUserService(
	repo repository.UserRepository,
	suppliers repository.SupplierRepository,
	secret func() []byte,
	tokenTTL time.Duration,
	logger *slog.Logger,
) UserService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{
		repo:      repo,
		suppliers: suppliers,
		secret:    secret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
		logger:    logger.With("component", "users"),
	}
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		SupplierID: u.SupplierID,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (UserDTO, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return UserDTO{}, err
	}

	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return UserDTO{}, fmt.Errorf("%w: username %s", ErrDuplicateAccount, req.Username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return UserDTO{}, err
	}
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return UserDTO{}, fmt.Errorf("%w: email %s", ErrDuplicateAccount, req.Email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return UserDTO{}, err
	}

	user := &model.User{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: true,
	}

	if req.Role == "supplier" {
		supplierID, err := parseUUID("supplier_id", req.SupplierID)
		if err != nil {
			return UserDTO{}, err
		}
		if _, err := s.suppliers.FindByID(ctx, supplierID); err != nil {
			return UserDTO{}, translateStoreErr(err, "supplier "+req.SupplierID)
		}
		user.SupplierID = &supplierID
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserDTO{}, fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hashed)

	if err := s.repo.Create(ctx, user); err != nil {
		return UserDTO{}, err
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "role", user.Role)
	return toUserDTO(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (TokenResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return TokenResponse{}, err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenResponse{}, ErrInvalidCredentials
		}
		return TokenResponse{}, err
	}
	if !user.IsActive {
		return TokenResponse{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return TokenResponse{}, ErrInvalidCredentials
	}

	subject := user.ID.String()
	if user.SupplierID != nil {
		subject = user.SupplierID.String()
	}

	expiresAt := s.now().Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"uid":  user.ID.String(),
		"role": user.Role,
		"exp":  expiresAt.Unix(),
	})
	signed, err := token.SignedString(s.secret())
	if err != nil {
		return TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return TokenResponse{Token: signed, ExpiresAt: expiresAt}, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (UserDTO, error) {
	userID, err := parseUUID("user id", id)
	if err != nil {
		return UserDTO{}, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, translateStoreErr(err, "user "+id)
	}
	return toUserDTO(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserDTO, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	return out, total, nil
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	username, _, _ := strings.Cut(email, "@")
	_, err := s.CreateUser(ctx, CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     "admin",
	})
	return err
}
