// Package session holds the signed-in state: the access token, which store
// it lives in, and the identity claims derived from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/hakim/asmctl/internal/models"
)

const (
	keyToken   = "access_token"
	keyPersist = "token_persist"
)

var (
	// ErrNoToken is returned by Validate when nobody is signed in.
	ErrNoToken = errors.New("not signed in")

	// ErrTokenExpired is returned by Validate when the token's exp claim has passed.
	ErrTokenExpired = errors.New("session expired")
)

// Store is a string key/value store. storage.Store and MemoryStore implement it.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Validator exchanges the current token for identity claims.
type Validator interface {
	TokenClaims(ctx context.Context) (*models.Claims, error)
}

// Authenticator is a Validator that can also log in.
type Authenticator interface {
	Validator
	Login(ctx context.Context, username, password string) (string, error)
}

// Session is the single signed-in state of the client.
//
// The token lives in exactly one of two stores: persistent (survives
// restarts) or scoped (survives only the current OS session). Writing to
// one always clears the other. If the token is empty the claims are nil.
type Session struct {
	mu         sync.RWMutex
	persistent Store
	scoped     Store
	logger     *zap.SugaredLogger
	now        func() time.Time

	token   string
	persist bool
	claims  *models.Claims
}

// New restores a session from the stores. The persist flag lives in the
// persistent store and defaults to true.
func New(persistent, scoped Store, logger *zap.SugaredLogger) (*Session, error) {
	if persistent == nil || scoped == nil {
		return nil, errors.New("session: both stores are required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Session{
		persistent: persistent,
		scoped:     scoped,
		logger:     logger,
		now:        time.Now,
		persist:    true,
	}
	token, persist, err := s.load()
	if err != nil {
		return nil, err
	}
	s.token, s.persist = token, persist
	return s, nil
}

func (s *Session) load() (string, bool, error) {
	persist := true
	flag, ok, err := s.persistent.Get(keyPersist)
	if err != nil {
		return "", false, fmt.Errorf("reading persist flag: %w", err)
	}
	if ok {
		if b, perr := strconv.ParseBool(flag); perr == nil {
			persist = b
		}
	}

	store := s.scoped
	if persist {
		store = s.persistent
	}
	token, _, err := store.Get(keyToken)
	if err != nil {
		return "", false, fmt.Errorf("reading token: %w", err)
	}
	return token, persist, nil
}

// Token returns the current token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// GetToken re-reads the token from whichever store the persist flag selects.
func (s *Session) GetToken() (string, error) {
	token, persist, err := s.load()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		s.claims = nil
	}
	s.token, s.persist = token, persist
	return token, nil
}

// Persist reports whether the token is kept in the persistent store.
func (s *Session) Persist() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persist
}

// Claims returns a copy of the validated identity, or nil.
func (s *Session) Claims() *models.Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return nil
	}
	c := *s.claims
	return &c
}

// SetToken stores token in the store selected by persist and deletes it from
// the other. An empty token signs out. Claims are dropped until the next
// Validate.
func (s *Session) SetToken(token string, persist bool) error {
	if token == "" {
		return s.Logout()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, other := s.scoped, s.persistent
	if persist {
		target, other = s.persistent, s.scoped
	}

	if err := other.Delete(keyToken); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	if err := target.Set(keyToken, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	if err := s.persistent.Set(keyPersist, strconv.FormatBool(persist)); err != nil {
		return fmt.Errorf("storing persist flag: %w", err)
	}

	s.token = token
	s.persist = persist
	s.claims = nil
	return nil
}

// Logout clears the token from both stores and forgets the claims.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *Session) clearLocked() error {
	s.token = ""
	s.claims = nil
	return errors.Join(
		s.persistent.Delete(keyToken),
		s.scoped.Delete(keyToken),
	)
}

// Validate exchanges the token for claims. Any failure is a hard sign-out:
// both stores are cleared and the claims are dropped before the error is
// returned. A JWT whose exp has already passed is cleared without a
// network round trip.
func (s *Session) Validate(ctx context.Context, v Validator) (*models.Claims, error) {
	token := s.Token()
	if token == "" {
		s.mu.Lock()
		s.claims = nil
		s.mu.Unlock()
		return nil, ErrNoToken
	}

	if s.expired(token) {
		s.logger.Infow("Token expired, signing out")
		return nil, s.invalidate(token, ErrTokenExpired)
	}

	claims, err := v.TokenClaims(ctx)
	if err != nil {
		s.logger.Warnw("Token validation failed, signing out", "error", err)
		return nil, s.invalidate(token, err)
	}
	if claims == nil {
		return nil, s.invalidate(token, errors.New("token validation returned no claims"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		// Signed out or replaced while the request was in flight.
		return nil, ErrNoToken
	}
	c := *claims
	s.claims = &c
	return claims, nil
}

func (s *Session) invalidate(token string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		return cause
	}
	if err := s.clearLocked(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// expired reports whether token is a JWT with an exp in the past. Opaque
// tokens and tokens without exp are left to the backend.
func (s *Session) expired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

// Login signs in, stores the token and validates it. On any failure the
// session ends signed out.
func (s *Session) Login(ctx context.Context, auth Authenticator, username, password string, persist bool) (*models.Claims, error) {
	token, err := auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.SetToken(token, persist); err != nil {
		return nil, err
	}
	return s.Validate(ctx, auth)
}
