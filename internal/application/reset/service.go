// Package reset implements password recovery through a single-use token that is
// stored on the account record.
package reset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/pkg/token"
)

// DefaultTTL is how long a reset link stays usable.
const DefaultTTL = 24 * time.Hour

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type Service interface {
	RequestReset(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, resetToken, newPassword string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetResetToken(ctx context.Context, email, token string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (*domain.User, error)
}

type passwordHasher interface {
	Hash(plain string) (string, error)
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type notifier interface {
	PasswordChanged(ctx context.Context, u *domain.User)
}

type service struct {
	repo        userStore
	hasher      passwordHasher
	mailer      mailer
	notifier    notifier
	newToken    func() (string, error)
	ttl         time.Duration
	frontendURL string
	appName     string
	now         func() time.Time
}

type ServiceDeps struct {
	UserRepo    userStore
	Hasher      passwordHasher
	Mailer      mailer
	Notifier    notifier
	TTL         time.Duration
	FrontendURL string
	AppName     string
	// NewToken defaults to a random UUIDv4.
	NewToken func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:        deps.UserRepo,
		hasher:      deps.Hasher,
		mailer:      deps.Mailer,
		notifier:    deps.Notifier,
		newToken:    deps.NewToken,
		ttl:         deps.TTL,
		frontendURL: strings.TrimRight(deps.FrontendURL, "/"),
		appName:     deps.AppName,
		now:         time.Now,
	}
	if s.newToken == nil {
		s.newToken = token.NewResetToken
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	return s
}

func (s *service) RequestReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("request reset: %w", domain.ErrAccountNotFound)
		}
		return err
	}

	t, err := s.newToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.repo.SetResetToken(ctx, email, t, s.now().Add(s.ttl)); err != nil {
		return err
	}

	subject := fmt.Sprintf("Reset your %s password", s.appName)
	body := fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. It expires in %d hours.\n\n%s\n\n"+
		"If you did not ask for this, you can ignore this email.\n", u.FullName(), int(s.ttl.Hours()), s.link(t))
	if err := s.mailer.SendEmail(ctx, email, subject, body); err != nil {
		slog.Warn("failed to send password reset email", "user_id", u.UserID, "err", fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err))
	}
	return nil
}

func (s *service) ConfirmReset(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return fmt.Errorf("confirm reset: %w", domain.ErrInvalidOrExpiredResetToken)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	u, err := s.repo.ConsumeResetToken(ctx, resetToken, hash)
	if err != nil {
		return err
	}
	slog.Info("password reset completed", "user_id", u.UserID)
	s.notifier.PasswordChanged(ctx, u)
	return nil
}

func (s *service) link(t string) string {
	return s.frontendURL + "/reset-password?token=" + url.QueryEscape(t)
}
