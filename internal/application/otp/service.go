// Package otp issues, mails and checks the 6-digit codes that prove control of an
// email address.
package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/tokenstore"
)

// DefaultTTL is how long an emailed code stays valid.
const DefaultTTL = 10 * time.Minute

type Service interface {
	// GenerateAndSend issues a new code for email and mails it. Only a failure to
	// issue the code is returned; delivery failures are logged.
	GenerateAndSend(ctx context.Context, email, displayName string) error
	// Verify consumes the code if it matches. Every failure looks the same to callers.
	Verify(ctx context.Context, email, code string) bool
	// Resend invalidates the outstanding code and issues a new one, subject to the
	// resend limiter.
	Resend(ctx context.Context, email, displayName string) error
}

type tokenStore interface {
	Issue(subjectKey string, kind domain.TokenKind, ttl time.Duration) (string, error)
	Verify(subjectKey string, kind domain.TokenKind, candidate string) (bool, tokenstore.Reason)
	Invalidate(subjectKey string, kind domain.TokenKind)
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type resendLimiter interface {
	Allow(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

type service struct {
	tokens  tokenStore
	mailer  mailer
	limiter resendLimiter
	ttl     time.Duration
	appName string
}

type ServiceDeps struct {
	Tokens tokenStore
	Mailer mailer
	// Limiter is optional; nil disables resend throttling.
	Limiter resendLimiter
	TTL     time.Duration
	AppName string
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &service{
		tokens:  deps.Tokens,
		mailer:  deps.Mailer,
		limiter: deps.Limiter,
		ttl:     ttl,
		appName: deps.AppName,
	}
}

func (s *service) GenerateAndSend(ctx context.Context, email, displayName string) error {
	code, err := s.tokens.Issue(email, domain.EmailVerification, s.ttl)
	if err != nil {
		return fmt.Errorf("issue verification code: %w", err)
	}

	subject := fmt.Sprintf("Your %s verification code", s.appName)
	body := fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %d minutes.\n",
		displayName, code, int(s.ttl.Minutes()))
	if err := s.mailer.SendEmail(ctx, email, subject, body); err != nil {
		slog.Warn("failed to send verification code", "email", email, "err", fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err))
	}
	return nil
}

func (s *service) Verify(ctx context.Context, email, code string) bool {
	ok, reason := s.tokens.Verify(email, domain.EmailVerification, code)
	if !ok {
		slog.Info("verification code rejected", "email", email, "reason", string(reason))
		return false
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			slog.Warn("failed to reset resend limiter", "email", email, "err", err)
		}
	}
	return true
}

func (s *service) Resend(ctx context.Context, email, displayName string) error {
	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, email); err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				return err
			}
			// limiter backend unavailable: let the resend through
			slog.Warn("resend limiter unavailable", "email", email, "err", err)
		}
	}
	s.tokens.Invalidate(email, domain.EmailVerification)
	return s.GenerateAndSend(ctx, email, displayName)
}
