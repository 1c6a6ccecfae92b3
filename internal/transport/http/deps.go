package http

import (
	"context"
	"io"

	"github.com/agribiz-identity/internal/infrastructure/dynamo"
	jwtinfra "github.com/agribiz-identity/internal/infrastructure/jwt"
	"github.com/agribiz-identity/internal/infrastructure/smtp"
	"github.com/agribiz-identity/internal/infrastructure/sns"
	"github.com/agribiz-identity/internal/pkg/password"
	"github.com/agribiz-identity/internal/tokenstore"
)

// ImageStore is the minimal interface the router requires from an object storage backend.
type ImageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// ResendLimiter throttles verification-code resends.
type ResendLimiter interface {
	Allow(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	Tokens      *tokenstore.Store
	Images      ImageStore
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
	Hasher      *password.Hasher
	// Optional. Nil disables SMS alerts.
	SMSSender sns.SMSSender
	// Optional. Nil disables resend throttling.
	ResendLimiter ResendLimiter
}
