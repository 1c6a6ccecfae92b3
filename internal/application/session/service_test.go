package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, email, role string) (string, time.Time, error) {
	args := m.Called(userID, email, role)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// --- helpers ---

var hasher = password.NewHasher(bcrypt.MinCost)

func newSvc(us *mockUserStore, jwt *mockJWTSigner, requireVerified bool) Service {
	return NewService(ServiceDeps{
		UserRepo:             us,
		Hasher:               hasher,
		JWTProvider:          jwt,
		RequireVerifiedLogin: requireVerified,
	})
}

func account(t *testing.T, state domain.VerificationState) *domain.User {
	t.Helper()
	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)
	return &domain.User{
		UserID:            "user-1",
		Email:             "a@x.com",
		PasswordHash:      hash,
		Role:              domain.RoleFarmer,
		VerificationState: state,
		FirstName:         "Ama",
	}
}

var expiry = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

// --- Login ---

func TestLogin_Success(t *testing.T) {
	us, jwt := &mockUserStore{}, &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(account(t, domain.Verified), nil)
	jwt.On("Sign", "user-1", "a@x.com", domain.RoleFarmer).Return("bearer", expiry, nil)

	res, err := newSvc(us, jwt, false).Login(context.Background(), "  A@X.com ", "correct-horse")

	require.NoError(t, err)
	assert.Equal(t, "bearer", res.Token)
	assert.Equal(t, expiry, res.ExpiresAt)
	assert.Equal(t, "user-1", res.User.ID)
	assert.True(t, res.User.Verified)
}

func TestLogin_UnknownEmail_InvalidCredentials(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, domain.ErrNotFound)

	_, err := newSvc(us, nil, false).Login(context.Background(), "ghost@x.com", "whatever")

	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLogin_WrongPassword_SameError(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(account(t, domain.Verified), nil)

	_, err := newSvc(us, nil, false).Login(context.Background(), "a@x.com", "wrong")

	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLogin_StoreFailure_Propagates(t *testing.T) {
	us := &mockUserStore{}
	boom := errors.New("throttled")
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, boom)

	_, err := newSvc(us, nil, false).Login(context.Background(), "a@x.com", "x")

	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLogin_Unverified_AllowedByDefault(t *testing.T) {
	us, jwt := &mockUserStore{}, &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(account(t, domain.Unverified), nil)
	jwt.On("Sign", "user-1", "a@x.com", domain.RoleFarmer).Return("bearer", expiry, nil)

	res, err := newSvc(us, jwt, false).Login(context.Background(), "a@x.com", "correct-horse")

	require.NoError(t, err)
	assert.False(t, res.User.Verified)
}

func TestLogin_Unverified_RejectedWhenRequired(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(account(t, domain.Unverified), nil)

	_, err := newSvc(us, nil, true).Login(context.Background(), "a@x.com", "correct-horse")

	assert.True(t, errors.Is(err, domain.ErrAccountNotVerified))
}

func TestLogin_Unverified_WrongPassword_StillInvalidCredentials(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(account(t, domain.Unverified), nil)

	_, err := newSvc(us, nil, true).Login(context.Background(), "a@x.com", "wrong")

	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

// --- Issue ---

func TestIssue_SignerFailure(t *testing.T) {
	jwt := &mockJWTSigner{}
	jwt.On("Sign", "user-1", "a@x.com", domain.RoleFarmer).Return("", time.Time{}, errors.New("no key"))

	_, err := newSvc(nil, jwt, false).Issue(account(t, domain.Verified))

	assert.Error(t, err)
}
