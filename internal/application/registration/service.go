// Package registration drives an account from creation through email
// verification to an active session.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agribiz-identity/internal/application/session"
	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/pkg/id"
)

type Status string

const (
	StatusVerificationPending Status = "VERIFICATION_PENDING"
	StatusActive              Status = "ACTIVE"
)

// RegistrationResult reports where a new account ended up. Session is only set
// when the account was activated immediately.
type RegistrationResult struct {
	Status  Status          `json:"status"`
	Email   string          `json:"email"`
	Message string          `json:"message"`
	Session *session.Result `json:"session,omitempty"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*RegistrationResult, error)
	ConfirmVerification(ctx context.Context, email, code string) (*session.Result, error)
	ResendVerification(ctx context.Context, email string) error
}

type userStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	MarkVerified(ctx context.Context, email string) (*domain.User, error)
}

type passwordHasher interface {
	Hash(plain string) (string, error)
}

type otpService interface {
	GenerateAndSend(ctx context.Context, email, displayName string) error
	Verify(ctx context.Context, email, code string) bool
	Resend(ctx context.Context, email, displayName string) error
}

type sessionIssuer interface {
	Issue(u *domain.User) (*session.Result, error)
}

type notifier interface {
	Welcome(ctx context.Context, u *domain.User)
}

type service struct {
	repo                userStore
	hasher              passwordHasher
	otp                 otpService
	sessions            sessionIssuer
	notifier            notifier
	requireVerification bool
	now                 func() time.Time
}

type ServiceDeps struct {
	UserRepo userStore
	Hasher   passwordHasher
	OTP      otpService
	Sessions sessionIssuer
	Notifier notifier
	// RequireVerification keeps new accounts UNVERIFIED until the emailed code is
	// confirmed. When false, accounts are activated at registration.
	RequireVerification bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:                deps.UserRepo,
		hasher:              deps.Hasher,
		otp:                 deps.OTP,
		sessions:            deps.Sessions,
		notifier:            deps.Notifier,
		requireVerification: deps.RequireVerification,
		now:                 time.Now,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*RegistrationResult, error) {
	if req.Role == domain.RoleAdmin {
		return nil, fmt.Errorf("admin accounts cannot self-register: %w", domain.ErrForbidden)
	}
	email := domain.NormalizeEmail(req.Email)
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrDuplicateAccount)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	state := domain.Unverified
	if !s.requireVerification {
		state = domain.Verified
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:            id.New(),
		Email:             email,
		PasswordHash:      hash,
		Role:              req.Role,
		VerificationState: state,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	// the conditional put is the authoritative duplicate guard
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if !s.requireVerification {
		s.notifier.Welcome(ctx, u)
		sess, err := s.sessions.Issue(u)
		if err != nil {
			return nil, err
		}
		return &RegistrationResult{
			Status:  StatusActive,
			Email:   email,
			Message: "Account created.",
			Session: sess,
		}, nil
	}

	if err := s.otp.GenerateAndSend(ctx, email, u.FullName()); err != nil {
		return nil, err
	}
	return &RegistrationResult{
		Status:  StatusVerificationPending,
		Email:   email,
		Message: "Account created. Check your email for a verification code.",
	}, nil
}

func (s *service) ConfirmVerification(ctx context.Context, email, code string) (*session.Result, error) {
	email = domain.NormalizeEmail(email)
	if !s.otp.Verify(ctx, email, code) {
		return nil, fmt.Errorf("confirm verification: %w", domain.ErrInvalidOrExpiredOtp)
	}
	u, err := s.repo.MarkVerified(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("confirm verification: %w", domain.ErrAccountNotFound)
		}
		return nil, err
	}
	s.notifier.Welcome(ctx, u)
	return s.sessions.Issue(u)
}

func (s *service) ResendVerification(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("resend verification: %w", domain.ErrAccountNotFound)
		}
		return err
	}
	if u.IsVerified() {
		return fmt.Errorf("resend verification: %w", domain.ErrAlreadyVerified)
	}
	return s.otp.Resend(ctx, email, u.FullName())
}
