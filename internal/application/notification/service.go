// Package notification sends best-effort account notices. Failures are logged and
// never returned, so a flaky mail relay cannot undo a committed state change.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agribiz-identity/internal/domain"
)

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type Service interface {
	Welcome(ctx context.Context, u *domain.User)
	PasswordChanged(ctx context.Context, u *domain.User)
}

type service struct {
	mailer  mailer
	sms     smsSender
	appName string
}

type ServiceDeps struct {
	Mailer mailer
	// SMSSender is optional; when nil no SMS alerts are sent.
	SMSSender smsSender
	AppName   string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		mailer:  deps.Mailer,
		sms:     deps.SMSSender,
		appName: deps.AppName,
	}
}

func (s *service) Welcome(ctx context.Context, u *domain.User) {
	subject := fmt.Sprintf("Welcome to %s", s.appName)
	body := fmt.Sprintf("Hello %s,\n\nYour email address has been verified and your %s account is now active.\n",
		u.FullName(), s.appName)
	s.email(ctx, u.Email, subject, body)
}

func (s *service) PasswordChanged(ctx context.Context, u *domain.User) {
	subject := fmt.Sprintf("Your %s password was changed", s.appName)
	body := fmt.Sprintf("Hello %s,\n\nThe password for your %s account was just changed. "+
		"If this was not you, reset your password immediately.\n", u.FullName(), s.appName)
	s.email(ctx, u.Email, subject, body)

	if s.sms == nil || u.Phone == nil || *u.Phone == "" {
		return
	}
	msg := fmt.Sprintf("%s: your account password was changed. Not you? Reset it now.", s.appName)
	if err := s.sms.SendSMS(ctx, *u.Phone, msg); err != nil {
		slog.Warn("failed to send security SMS", "user_id", u.UserID, "err", fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err))
	}
}

func (s *service) email(ctx context.Context, to, subject, body string) {
	if err := s.mailer.SendEmail(ctx, to, subject, body); err != nil {
		slog.Warn("failed to send email", "to", to, "subject", subject, "err", fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err))
	}
}
