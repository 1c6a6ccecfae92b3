package handler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/agribiz-identity/internal/application/registration"
	"github.com/agribiz-identity/internal/application/session"
	"github.com/agribiz-identity/internal/domain"
	jwtinfra "github.com/agribiz-identity/internal/infrastructure/jwt"
	"github.com/agribiz-identity/internal/transport/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRegistrationSvc struct{ mock.Mock }

func (m *mockRegistrationSvc) Register(ctx context.Context, req domain.RegisterRequest) (*registration.RegistrationResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*registration.RegistrationResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRegistrationSvc) ConfirmVerification(ctx context.Context, email, code string) (*session.Result, error) {
	args := m.Called(ctx, email, code)
	if r, _ := args.Get(0).(*session.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRegistrationSvc) ResendVerification(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, email, password string) (*session.Result, error) {
	args := m.Called(ctx, email, password)
	if r, _ := args.Get(0).(*session.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionSvc) Issue(u *domain.User) (*session.Result, error) {
	args := m.Called(u)
	if r, _ := args.Get(0).(*session.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockResetSvc struct{ mock.Mock }

func (m *mockResetSvc) RequestReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockResetSvc) ConfirmReset(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

type mockProfileSvc struct{ mock.Mock }

func (m *mockProfileSvc) GetProfile(ctx context.Context, userID string) (*domain.UserInfo, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.UserInfo); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProfileSvc) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.UserInfo, error) {
	args := m.Called(ctx, userID, req)
	if u, _ := args.Get(0).(*domain.UserInfo); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProfileSvc) UpdateProfileImage(ctx context.Context, userID string, r io.Reader, contentType string) (*domain.UserInfo, error) {
	args := m.Called(ctx, userID, r, contentType)
	if u, _ := args.Get(0).(*domain.UserInfo); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProfileSvc) ListByRole(ctx context.Context, role string, limit int, cursor string) ([]domain.UserInfo, string, error) {
	args := m.Called(ctx, role, limit, cursor)
	users, _ := args.Get(0).([]domain.UserInfo)
	return users, args.String(1), args.Error(2)
}
func (m *mockProfileSvc) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return m.Called(ctx, userID, currentPassword, newPassword).Error(0)
}

// --- helpers ---

func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return jwtinfra.NewProviderFromKeys(privKey, &privKey.PublicKey, 24*time.Hour)
}

// withClaims attaches claims for userID/role as the auth middleware would.
func withClaims(r *http.Request, userID, role string) *http.Request {
	return r.WithContext(middleware.WithClaims(r.Context(), &jwtinfra.Claims{UserID: userID, Role: role}))
}
