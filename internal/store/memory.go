// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"siteflags/internal/models"
)

// MemorySiteSettingStore keeps per-site settings in process memory. It is
// used by tests and by the "memory" storage driver.
type MemorySiteSettingStore struct {
	mu       sync.RWMutex
	settings models.NetworkSettings
}

// NewMemorySiteSettingStore returns an empty in-memory settings store.
func NewMemorySiteSettingStore() *MemorySiteSettingStore {
	return &MemorySiteSettingStore{settings: make(models.NetworkSettings)}
}

// All returns a copy of every site's settings.
func (s *MemorySiteSettingStore) All(_ context.Context) (models.NetworkSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(models.NetworkSettings, len(s.settings))
	for id, settings := range s.settings {
		out[id] = copySettings(settings)
	}
	return out, nil
}

// SiteSettings returns a copy of one site's settings.
func (s *MemorySiteSettingStore) SiteSettings(_ context.Context, siteID int64) (models.SiteSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.settings[siteID]), nil
}

// UpdateSetting stores one setting of a site.
func (s *MemorySiteSettingStore) UpdateSetting(_ context.Context, siteID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings[siteID] == nil {
		s.settings[siteID] = make(models.SiteSettings)
	}
	s.settings[siteID][key] = value
	return nil
}

func copySettings(in models.SiteSettings) models.SiteSettings {
	out := make(models.SiteSettings, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// MemorySiteStore keeps the network's sites in process memory.
type MemorySiteStore struct {
	mu     sync.RWMutex
	sites  map[int64]models.Site
	nextID int64
}

// NewMemorySiteStore returns a MemorySiteStore preloaded with sites.
// Sites without an ID are numbered in order.
func NewMemorySiteStore(sites ...models.Site) *MemorySiteStore {
	s := &MemorySiteStore{sites: make(map[int64]models.Site), nextID: 1}
	for _, site := range sites {
		if site.ID == 0 {
			site.ID = s.nextID
		}
		if site.ID >= s.nextID {
			s.nextID = site.ID + 1
		}
		s.sites[site.ID] = site
	}
	return s
}

// List returns all sites ordered by ID.
func (s *MemorySiteStore) List(_ context.Context) ([]models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Site, 0, len(s.sites))
	for _, site := range s.sites {
		out = append(out, site)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindByID returns the site with the given ID, or nil.
func (s *MemorySiteStore) FindByID(_ context.Context, id int64) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, ok := s.sites[id]
	if !ok {
		return nil, nil
	}
	return &site, nil
}

// Create adds a site and assigns it the next free ID.
func (s *MemorySiteStore) Create(_ context.Context, site models.Site) (*models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sites {
		if existing.Slug == site.Slug {
			return nil, fmt.Errorf("create site: slug %q already taken", site.Slug)
		}
	}

	site.ID = s.nextID
	site.CreatedAt = time.Now()
	s.nextID++
	s.sites[site.ID] = site
	return &site, nil
}

// SiteLanguage returns the language tag of a site.
func (s *MemorySiteStore) SiteLanguage(ctx context.Context, id int64) (string, error) {
	site, _ := s.FindByID(ctx, id)
	if site == nil {
		return "", fmt.Errorf("site %d: %w", id, ErrNotFound)
	}
	return site.Language, nil
}

// MemoryModuleStateStore keeps module activation flags in memory.
type MemoryModuleStateStore struct {
	mu     sync.RWMutex
	states map[string]bool
}

// NewMemoryModuleStateStore returns an empty MemoryModuleStateStore.
func NewMemoryModuleStateStore() *MemoryModuleStateStore {
	return &MemoryModuleStateStore{states: make(map[string]bool)}
}

// States returns a copy of the saved flags.
func (s *MemoryModuleStateStore) States(_ context.Context) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out, nil
}

// SetActive saves a module's activation flag.
func (s *MemoryModuleStateStore) SetActive(_ context.Context, moduleID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[moduleID] = active
	return nil
}

// MemoryUserStore keeps admin users in process memory.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

// NewMemoryUserStore returns an empty MemoryUserStore.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*models.User)}
}

// Create adds a user with a bcrypt-hashed password.
func (s *MemoryUserStore) Create(_ context.Context, email, password, displayName string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, fmt.Errorf("create user: email %q already taken", email)
		}
	}

	now := time.Now()
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	clone := *u
	return &clone, nil
}

// FindByEmail returns the user with the given email, or nil.
func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

// FindByID returns the user with the given ID, or nil.
func (s *MemoryUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

// SetTOTPSecret stores the 2FA secret of a user.
func (s *MemoryUserStore) SetTOTPSecret(_ context.Context, userID uuid.UUID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("set totp secret: %w", ErrNotFound)
	}
	u.TOTPSecret = &secret
	u.UpdatedAt = time.Now()
	return nil
}

// EnableTOTP marks 2FA as enrolled for a user.
func (s *MemoryUserStore) EnableTOTP(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("enable totp: %w", ErrNotFound)
	}
	u.TOTPEnabled = true
	u.UpdatedAt = time.Now()
	return nil
}
