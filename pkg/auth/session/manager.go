// Package session keeps refresh sessions in Redis, one key per access ID.
// The access ID doubles as the JWT jti, so deleting the key revokes the
// access token on its next request as well.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/pkg/config"
	pkgredis "github.com/luxemarket/storefront-backend/pkg/redis"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrNoAccessID          = errors.New("access id is required")
)

// Store is the slice of the Redis client sessions need.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware consults per request.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type entry struct {
	UserID   string    `json:"uid"`
	Token    string    `json:"tok"`
	IssuedAt time.Time `json:"iat"`
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	ttl, err := refreshTTL(cfg)
	if err != nil {
		return nil, err
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// refreshTTL must outlive the access token or a client could never refresh.
func refreshTTL(cfg config.JWTConfig) (time.Duration, error) {
	ttl := cfg.RefreshTokenTTL()
	access := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case ttl <= 0:
		return 0, fmt.Errorf("refresh token ttl must be positive")
	case ttl <= access:
		return 0, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, access)
	}
	return ttl, nil
}

// Generate opens a session for accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	if blank(accessID) {
		return "", ErrNoAccessID
	}
	return m.open(ctx, accessID, userID.String())
}

// Rotate trades a valid refresh token for a new access ID and token. The
// old session is removed only after the new one is stored.
func (m *Manager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, presented string) (string, string, error) {
	if blank(oldAccessID) || blank(presented) {
		return "", "", ErrInvalidRefreshToken
	}
	current, err := m.load(ctx, oldAccessID)
	if err != nil {
		return "", "", err
	}
	if current.UserID != userID.String() || subtle.ConstantTimeCompare([]byte(current.Token), []byte(presented)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	nextID := NewAccessID()
	token, err := m.open(ctx, nextID, current.UserID)
	if err != nil {
		return "", "", err
	}
	if err := m.store.Del(ctx, m.store.AccessSessionKey(oldAccessID)); err != nil {
		return "", "", err
	}
	return nextID, token, nil
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if blank(accessID) {
		return ErrNoAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if blank(accessID) {
		return false, ErrNoAccessID
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pkgredis.ErrNil):
		return false, nil
	default:
		return false, err
	}
}

func (m *Manager) open(ctx context.Context, accessID, userID string) (string, error) {
	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(entry{UserID: userID, Token: token, IssuedAt: m.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(raw), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// load maps a missing or unreadable session to ErrInvalidRefreshToken.
func (m *Manager) load(ctx context.Context, accessID string) (entry, error) {
	raw, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	if errors.Is(err, pkgredis.ErrNil) {
		return entry{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return entry{}, ErrInvalidRefreshToken
	}
	return e, nil
}

// NewAccessID is the jti for a fresh access token.
func NewAccessID() string {
	return uuid.NewString()
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
