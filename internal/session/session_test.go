package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/asmctl/internal/models"
	"github.com/hakim/asmctl/internal/storage"
)

type fakeBackend struct {
	token  string
	claims *models.Claims
	err    error
	calls  int
}

func (f *fakeBackend) Login(ctx context.Context, username, password string) (string, error) {
	if password != "secret" {
		return "", errors.New("Invalid credentials")
	}
	return f.token, nil
}

func (f *fakeBackend) TokenClaims(ctx context.Context) (*models.Claims, error) {
	f.calls++
	return f.claims, f.err
}

func newSession(t *testing.T) (*Session, *MemoryStore, *MemoryStore) {
	t.Helper()
	p, s := NewMemoryStore(), NewMemoryStore()
	sess, err := New(p, s, nil)
	require.NoError(t, err)
	return sess, p, s
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "alice",
		"tenant": "acme",
		"exp":    exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestSetTokenMutualExclusion(t *testing.T) {
	sess, persistent, scoped := newSession(t)

	require.NoError(t, sess.SetToken("t1", true))
	v, ok, _ := persistent.Get(keyToken)
	assert.True(t, ok)
	assert.Equal(t, "t1", v)
	_, ok, _ = scoped.Get(keyToken)
	assert.False(t, ok)

	require.NoError(t, sess.SetToken("t2", false))
	_, ok, _ = persistent.Get(keyToken)
	assert.False(t, ok, "persistent store must be cleared")
	v, ok, _ = scoped.Get(keyToken)
	assert.True(t, ok)
	assert.Equal(t, "t2", v)
	assert.False(t, sess.Persist())

	require.NoError(t, sess.SetToken("t3", true))
	_, ok, _ = scoped.Get(keyToken)
	assert.False(t, ok, "scoped store must be cleared")
}

func TestGetTokenFollowsPersistFlag(t *testing.T) {
	sess, _, _ := newSession(t)

	require.NoError(t, sess.SetToken("scoped-token", false))
	got, err := sess.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "scoped-token", got)
}

func TestNewRestoresFromStores(t *testing.T) {
	p, s := NewMemoryStore(), NewMemoryStore()
	first, err := New(p, s, nil)
	require.NoError(t, err)
	require.NoError(t, first.SetToken("kept", false))

	second, err := New(p, s, nil)
	require.NoError(t, err)
	assert.Equal(t, "kept", second.Token())
	assert.False(t, second.Persist())
	assert.Nil(t, second.Claims(), "claims are never restored without validation")
}

func TestEmptyTokenSignsOut(t *testing.T) {
	sess, persistent, scoped := newSession(t)
	require.NoError(t, sess.SetToken("t1", true))

	require.NoError(t, sess.SetToken("", true))
	assert.Empty(t, sess.Token())
	assert.Nil(t, sess.Claims())
	_, ok, _ := persistent.Get(keyToken)
	assert.False(t, ok)
	_, ok, _ = scoped.Get(keyToken)
	assert.False(t, ok)
}

func TestValidateSuccess(t *testing.T) {
	sess, _, _ := newSession(t)
	backend := &fakeBackend{claims: &models.Claims{Subject: "alice", Tenant: "acme"}}
	require.NoError(t, sess.SetToken("opaque", true))

	claims, err := sess.Validate(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "acme", sess.Claims().Tenant)
}

func TestValidateFailureIsHardLogout(t *testing.T) {
	for _, persist := range []bool{true, false} {
		sess, persistent, scoped := newSession(t)
		backend := &fakeBackend{claims: &models.Claims{Subject: "alice"}}
		require.NoError(t, sess.SetToken("opaque", persist))
		_, err := sess.Validate(context.Background(), backend)
		require.NoError(t, err)
		require.NotNil(t, sess.Claims())

		backend.err = errors.New("Token validation failed: 401 Unauthorized")
		_, err = sess.Validate(context.Background(), backend)
		require.Error(t, err)

		assert.Empty(t, sess.Token())
		assert.Nil(t, sess.Claims())
		_, ok, _ := persistent.Get(keyToken)
		assert.False(t, ok)
		_, ok, _ = scoped.Get(keyToken)
		assert.False(t, ok)
	}
}

func TestValidateExpiredJWTSkipsNetwork(t *testing.T) {
	sess, _, _ := newSession(t)
	backend := &fakeBackend{claims: &models.Claims{Subject: "alice"}}
	require.NoError(t, sess.SetToken(signed(t, time.Now().Add(-time.Minute)), true))

	_, err := sess.Validate(context.Background(), backend)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Zero(t, backend.calls)
	assert.Empty(t, sess.Token())
	assert.Nil(t, sess.Claims())
}

func TestValidateLiveJWTAsksBackend(t *testing.T) {
	sess, _, _ := newSession(t)
	backend := &fakeBackend{claims: &models.Claims{Subject: "alice"}}
	require.NoError(t, sess.SetToken(signed(t, time.Now().Add(time.Hour)), true))

	_, err := sess.Validate(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls)
}

func TestValidateWithoutToken(t *testing.T) {
	sess, _, _ := newSession(t)
	_, err := sess.Validate(context.Background(), &fakeBackend{})
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Nil(t, sess.Claims())
}

func TestLogin(t *testing.T) {
	sess, _, scoped := newSession(t)
	backend := &fakeBackend{token: "fresh", claims: &models.Claims{Subject: "alice", Tenant: "acme"}}

	claims, err := sess.Login(context.Background(), backend, "alice", "secret", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	v, _, _ := scoped.Get(keyToken)
	assert.Equal(t, "fresh", v)

	_, err = sess.Login(context.Background(), backend, "alice", "wrong", true)
	require.Error(t, err)
	assert.Equal(t, "fresh", sess.Token(), "a failed login leaves the existing session alone")
}

func TestBoltBackedStores(t *testing.T) {
	dir := t.TempDir()
	p, err := storage.NewStore(filepath.Join(dir, "persistent.db"))
	require.NoError(t, err)
	defer p.Close()
	s, err := storage.NewStore(filepath.Join(dir, "scoped.db"))
	require.NoError(t, err)
	defer s.Close()

	sess, err := New(p, s, nil)
	require.NoError(t, err)
	require.NoError(t, sess.SetToken("bolt-token", true))

	v, ok, err := p.Get(keyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bolt-token", v)

	require.NoError(t, sess.Logout())
	_, ok, err = p.Get(keyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}
