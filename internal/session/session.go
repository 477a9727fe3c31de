// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides HTTP session management for the admin.
// Sessions are identified by a secure cookie and stored as JSON in Valkey
// (or process memory) with automatic TTL expiry.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "sf_session"

	// DefaultTTL is how long a session lives before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32

	// memorySessions caps the in-memory backend.
	memorySessions = 4096
)

// errNoSession is returned by backends for missing or expired keys.
var errNoSession = errors.New("session not found")

// Data holds the session payload. It contains the authenticated user's
// identity and 2FA completion status.
type Data struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	TwoFADone   bool      `json:"two_fa_done"`
	CreatedAt   time.Time `json:"created_at"`
}

// Backend stores serialized sessions by key.
type Backend interface {
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

type valkeyBackend struct {
	client *redis.Client
}

// NewValkeyBackend stores sessions in Valkey.
func NewValkeyBackend(client *redis.Client) Backend {
	return valkeyBackend{client: client}
}

func (b valkeyBackend) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, payload, ttl).Err()
}

func (b valkeyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := b.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, errNoSession
	}
	return payload, err
}

func (b valkeyBackend) Del(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

type memoryBackend struct {
	cache *expirable.LRU[string, []byte]
}

// NewMemoryBackend keeps sessions in process memory. All sessions share
// ttl; the per-call TTL is ignored.
func NewMemoryBackend(ttl time.Duration) Backend {
	return memoryBackend{cache: expirable.NewLRU[string, []byte](memorySessions, nil, ttl)}
}

func (b memoryBackend) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	b.cache.Add(key, payload)
	return nil
}

func (b memoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	payload, ok := b.cache.Get(key)
	if !ok {
		return nil, errNoSession
	}
	return payload, nil
}

func (b memoryBackend) Del(_ context.Context, key string) error {
	b.cache.Remove(key)
	return nil
}

// Store manages session lifecycle.
type Store struct {
	backend Backend
	ttl     time.Duration
	secure  bool
}

// NewStore creates a session store over backend. When secure is true the
// cookie is only sent over HTTPS.
func NewStore(backend Backend, secure bool) *Store {
	return &Store{
		backend: backend,
		ttl:     DefaultTTL,
		secure:  secure,
	}
}

// Create generates a new session, stores it, and sets the session cookie
// on the response. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}

	if err := s.backend.Set(ctx, keyPrefix+id, payload, s.ttl); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// Get retrieves session data using the session ID from the request
// cookie. Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.backend.Get(ctx, keyPrefix+cookie.Value)
	if errors.Is(err, errNoSession) {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	return &data, nil
}

// Update replaces the session data without changing the session ID or
// cookie. Resets the TTL.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return fmt.Errorf("session update: no cookie")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.backend.Set(ctx, keyPrefix+cookie.Value, payload, s.ttl); err != nil {
		return fmt.Errorf("session update: %w", err)
	}

	return nil
}

// Destroy removes the session and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil // No cookie, nothing to destroy
	}

	if err := s.backend.Del(ctx, keyPrefix+cookie.Value); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})

	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
