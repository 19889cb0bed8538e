package auth

import (
	"context"

	"tourmarket/internal/domain"
	"tourmarket/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type tokenIssuer interface {
	GenerateToken(userID int64, role domain.UserRole) (string, error)
}

type Service struct {
	users UserStore
	jwt   tokenIssuer
	log   *zap.Logger
}

func NewService(users UserStore, jwt tokenIssuer, log *zap.Logger) *Service {
	return &Service{users: users, jwt: jwt, log: log}
}

// Register creates a tourist or guide account. Admin accounts are seeded,
// never self-registered.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.UserRole(req.Role),
		Name:         req.Name,
		Phone:        req.Phone,
		Bio:          req.Bio,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := s.jwt.GenerateToken(u.ID, u.Role)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return &AuthResponse{Token: token, User: u}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	token, err := s.jwt.GenerateToken(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: u}, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
