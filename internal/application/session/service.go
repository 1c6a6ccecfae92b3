package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agribiz-identity/internal/domain"
)

// dummyHash is compared against when the email is unknown so that a miss costs
// about as much as a wrong password.
const dummyHash = "$2a$10$abcdefghijklmnopqrstuv0123456789ABCDEFGHIJKLMNOPQRSTU"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result is a freshly issued session: the bearer token, when it stops being
// accepted, and the identity it was issued for.
type Result struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      domain.UserInfo `json:"user"`
}

type Service interface {
	Login(ctx context.Context, email, password string) (*Result, error)
	Issue(u *domain.User) (*Result, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type passwordMatcher interface {
	Matches(hash, plain string) bool
}

type jwtSigner interface {
	Sign(userID, email, role string) (string, time.Time, error)
}

type service struct {
	repo                 userStore
	hasher               passwordMatcher
	jwtProvider          jwtSigner
	requireVerifiedLogin bool
}

type ServiceDeps struct {
	UserRepo    userStore
	Hasher      passwordMatcher
	JWTProvider jwtSigner
	// RequireVerifiedLogin rejects password logins for accounts that never
	// completed email verification.
	RequireVerifiedLogin bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:                 deps.UserRepo,
		hasher:               deps.Hasher,
		jwtProvider:          deps.JWTProvider,
		requireVerifiedLogin: deps.RequireVerifiedLogin,
	}
}

func (s *service) Login(ctx context.Context, email, password string) (*Result, error) {
	u, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.hasher.Matches(dummyHash, password)
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	if !s.hasher.Matches(u.PasswordHash, password) {
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	if s.requireVerifiedLogin && !u.IsVerified() {
		return nil, fmt.Errorf("login %s: %w", u.UserID, domain.ErrAccountNotVerified)
	}
	return s.Issue(u)
}

func (s *service) Issue(u *domain.User) (*Result, error) {
	token, expiresAt, err := s.jwtProvider.Sign(u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, ExpiresAt: expiresAt, User: u.Info()}, nil
}
