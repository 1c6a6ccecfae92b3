package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) Allow(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockLimiter) Reset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

// --- builder ---

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func codes(seq ...string) tokenstore.SecretFunc {
	i := 0
	return func() (string, error) {
		if i >= len(seq) {
			return "", errors.New("out of codes")
		}
		c := seq[i]
		i++
		return c, nil
	}
}

func newStore(c *clock, seq ...string) *tokenstore.Store {
	return tokenstore.New(
		tokenstore.WithClock(c.now),
		tokenstore.WithGenerator(domain.EmailVerification, codes(seq...)),
	)
}

func okMailer() *mockMailer {
	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return ml
}

// --- GenerateAndSend ---

func TestGenerateAndSend_MailsCode(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, "a@x.com", "Your AgriBiz verification code", mock.MatchedBy(func(b string) bool {
		return strings.Contains(b, "123456") && strings.Contains(b, "10 minutes")
	})).Return(nil)

	svc := NewService(ServiceDeps{Tokens: newStore(c, "123456"), Mailer: ml, AppName: "AgriBiz"})
	require.NoError(t, svc.GenerateAndSend(context.Background(), "a@x.com", "Ama"))
	ml.AssertExpectations(t)
}

func TestGenerateAndSend_DeliveryFailureSwallowed(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("relay down"))

	svc := NewService(ServiceDeps{Tokens: newStore(c, "123456"), Mailer: ml})
	require.NoError(t, svc.GenerateAndSend(context.Background(), "a@x.com", "Ama"))

	// the code is still live even though the mail never left
	assert.True(t, svc.Verify(context.Background(), "a@x.com", "123456"))
}

func TestGenerateAndSend_IssueFailure(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := NewService(ServiceDeps{Tokens: newStore(c), Mailer: okMailer()})
	assert.Error(t, svc.GenerateAndSend(context.Background(), "a@x.com", "Ama"))
}

// --- Verify ---

func TestVerify_WrongThenRightCode(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := NewService(ServiceDeps{Tokens: newStore(c, "123456"), Mailer: okMailer()})
	ctx := context.Background()
	require.NoError(t, svc.GenerateAndSend(ctx, "a@x.com", "Ama"))

	assert.False(t, svc.Verify(ctx, "a@x.com", "000000"))
	assert.True(t, svc.Verify(ctx, "a@x.com", "123456"))
	assert.False(t, svc.Verify(ctx, "a@x.com", "123456"), "a code verifies at most once")
}

func TestVerify_Expired(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := NewService(ServiceDeps{Tokens: newStore(c, "123456"), Mailer: okMailer()})
	ctx := context.Background()
	require.NoError(t, svc.GenerateAndSend(ctx, "a@x.com", "Ama"))

	c.t = c.t.Add(DefaultTTL + time.Second)
	assert.False(t, svc.Verify(ctx, "a@x.com", "123456"))
}

func TestVerify_NoCodeIssued(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := NewService(ServiceDeps{Tokens: newStore(c), Mailer: okMailer()})
	assert.False(t, svc.Verify(context.Background(), "nobody@x.com", "123456"))
}

func TestVerify_Success_ResetsLimiter(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	lim := &mockLimiter{}
	lim.On("Reset", mock.Anything, "a@x.com").Return(errors.New("redis gone"))

	svc := NewService(ServiceDeps{Tokens: newStore(c, "123456"), Mailer: okMailer(), Limiter: lim})
	ctx := context.Background()
	require.NoError(t, svc.GenerateAndSend(ctx, "a@x.com", "Ama"))

	assert.True(t, svc.Verify(ctx, "a@x.com", "123456"))
	lim.AssertExpectations(t)
}

// --- Resend ---

func TestResend_InvalidatesPreviousCode(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := NewService(ServiceDeps{Tokens: newStore(c, "111111", "222222"), Mailer: okMailer()})
	ctx := context.Background()
	require.NoError(t, svc.GenerateAndSend(ctx, "a@x.com", "Ama"))
	require.NoError(t, svc.Resend(ctx, "a@x.com", "Ama"))

	assert.False(t, svc.Verify(ctx, "a@x.com", "111111"))
	assert.True(t, svc.Verify(ctx, "a@x.com", "222222"))
}

func TestResend_RateLimited(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	lim := &mockLimiter{}
	lim.On("Allow", mock.Anything, "a@x.com").Return(fmt.Errorf("too soon: %w", domain.ErrRateLimited))

	svc := NewService(ServiceDeps{Tokens: newStore(c, "111111", "222222"), Mailer: okMailer(), Limiter: lim})
	ctx := context.Background()
	require.NoError(t, svc.GenerateAndSend(ctx, "a@x.com", "Ama"))

	err := svc.Resend(ctx, "a@x.com", "Ama")
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	// rejected resend leaves the first code intact
	assert.True(t, svc.Verify(ctx, "a@x.com", "111111"))
}

func TestResend_LimiterBackendDown_FailsOpen(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	lim := &mockLimiter{}
	lim.On("Allow", mock.Anything, "a@x.com").Return(errors.New("dial tcp: connection refused"))
	lim.On("Reset", mock.Anything, "a@x.com").Return(nil)

	svc := NewService(ServiceDeps{Tokens: newStore(c, "111111"), Mailer: okMailer(), Limiter: lim})
	ctx := context.Background()

	require.NoError(t, svc.Resend(ctx, "a@x.com", "Ama"))
	assert.True(t, svc.Verify(ctx, "a@x.com", "111111"))
}
