// Package tokenstore holds short-lived single-use secrets keyed by subject and kind.
//
// A Store is safe for concurrent use. Verify checks and consumes a token inside a
// single critical section, so a secret validates at most once no matter how many
// callers race on it.
package tokenstore

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/pkg/token"
)

// Reason explains a failed Verify. It is meant for server-side logs only and must
// not be surfaced to clients.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonMissing  Reason = "missing"
	ReasonExpired  Reason = "expired"
	ReasonMismatch Reason = "mismatch"
)

// SecretFunc produces a fresh secret for one kind of token.
type SecretFunc func() (string, error)

type key struct {
	subject string
	kind    domain.TokenKind
}

// Store is an in-memory registry of pending tokens. Restarting the process loses
// every entry.
type Store struct {
	mu         sync.Mutex
	tokens     map[key]*domain.PendingToken
	generators map[domain.TokenKind]SecretFunc
	now        func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithGenerator overrides the secret generator for kind.
func WithGenerator(kind domain.TokenKind, gen SecretFunc) Option {
	return func(s *Store) { s.generators[kind] = gen }
}

// New returns a Store that issues 6-digit codes for domain.EmailVerification.
// Reset tokens live on the account record, so domain.PasswordReset has no default
// generator here; supply one with WithGenerator to hold them in memory.
func New(opts ...Option) *Store {
	s := &Store{
		tokens: make(map[key]*domain.PendingToken),
		generators: map[domain.TokenKind]SecretFunc{
			domain.EmailVerification: token.NewOTP,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue replaces any token held for (subjectKey, kind) with a new secret that
// expires after ttl, and returns the secret.
func (s *Store) Issue(subjectKey string, kind domain.TokenKind, ttl time.Duration) (string, error) {
	gen, ok := s.generators[kind]
	if !ok {
		return "", fmt.Errorf("no generator for token kind %q: %w", kind, domain.ErrBadRequest)
	}
	secret, err := gen()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.tokens[key{subjectKey, kind}] = &domain.PendingToken{
		SubjectKey: subjectKey,
		Kind:       kind,
		Secret:     secret,
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}
	return secret, nil
}

// Verify reports whether candidate is the live secret for (subjectKey, kind).
// A match consumes the token. Expired tokens are evicted on sight.
func (s *Store) Verify(subjectKey string, kind domain.TokenKind, candidate string) (bool, Reason) {
	k := key{subjectKey, kind}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[k]
	if !ok {
		return false, ReasonMissing
	}
	if t.Expired(s.now()) {
		delete(s.tokens, k)
		return false, ReasonExpired
	}
	if subtle.ConstantTimeCompare([]byte(t.Secret), []byte(candidate)) != 1 {
		return false, ReasonMismatch
	}
	t.Consumed = true
	delete(s.tokens, k)
	return true, ReasonNone
}

// Invalidate drops any outstanding token for (subjectKey, kind).
func (s *Store) Invalidate(subjectKey string, kind domain.TokenKind) {
	s.mu.Lock()
	delete(s.tokens, key{subjectKey, kind})
	s.mu.Unlock()
}

// Sweep removes expired tokens and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, t := range s.tokens {
		if t.Expired(now) {
			delete(s.tokens, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tokens currently held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// DefaultSweepInterval is used by Run when given a non-positive interval.
const DefaultSweepInterval = time.Minute

// Run sweeps every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("swept expired tokens", "removed", n)
			}
		}
	}
}
