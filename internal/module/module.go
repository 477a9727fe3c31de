// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package module keeps the registry of togglable modules: their
// descriptors, whether each is active, and the persisted activation state.
package module

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrModuleAlreadyRegistered is returned when a module ID is registered twice.
	ErrModuleAlreadyRegistered = errors.New("module already registered")
	// ErrModuleNotFound is returned for unknown module IDs.
	ErrModuleNotFound = errors.New("module not found")
	// ErrModuleDisabled is returned when activating a disabled module.
	ErrModuleDisabled = errors.New("module is disabled")
)

// Module describes a togglable unit of functionality. Active is the
// default state used until an administrator toggles the module. Disabled
// modules are listed but cannot be activated.
type Module struct {
	ID          string
	Name        string
	Description string
	Active      bool
	Disabled    bool
}

// StateStore persists module activation across restarts.
type StateStore interface {
	States(ctx context.Context) (map[string]bool, error)
	SetActive(ctx context.Context, moduleID string, active bool) error
}

// Manager holds registered modules. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	modules map[string]*Module
	order   []string
	saved   map[string]bool
	states  StateStore
}

// NewManager returns an empty manager. states may be nil, in which case
// activation changes live only in memory.
func NewManager(states StateStore) *Manager {
	return &Manager{
		modules: make(map[string]*Module),
		saved:   make(map[string]bool),
		states:  states,
	}
}

// Load reads persisted activation states. Modules registered afterwards
// start in their saved state instead of their default.
func (m *Manager) Load(ctx context.Context) error {
	if m.states == nil {
		return nil
	}
	saved, err := m.states.States(ctx)
	if err != nil {
		return fmt.Errorf("load module states: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = saved
	for id, active := range saved {
		if mod, ok := m.modules[id]; ok && !mod.Disabled {
			mod.Active = active
		}
	}
	return nil
}

// Register adds mod and reports whether it is active.
func (m *Manager) Register(mod Module) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.modules[mod.ID]; dup {
		return false, fmt.Errorf("register %q: %w", mod.ID, ErrModuleAlreadyRegistered)
	}
	if active, ok := m.saved[mod.ID]; ok {
		mod.Active = active
	}
	if mod.Disabled {
		mod.Active = false
	}

	m.modules[mod.ID] = &mod
	m.order = append(m.order, mod.ID)
	slog.Info("module registered", "module", mod.ID, "active", mod.Active)
	return mod.Active, nil
}

// Module returns the descriptor of a registered module.
func (m *Manager) Module(id string) (Module, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mod, ok := m.modules[id]
	if !ok {
		return Module{}, fmt.Errorf("%q: %w", id, ErrModuleNotFound)
	}
	return *mod, nil
}

// Modules returns every registered module in registration order.
func (m *Manager) Modules() []Module {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Module, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.modules[id])
	}
	return out
}

// IsActive reports whether a registered module is active. Unknown IDs are
// inactive.
func (m *Manager) IsActive(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mod, ok := m.modules[id]
	return ok && mod.Active
}

// Activate turns a module on and persists the change.
func (m *Manager) Activate(ctx context.Context, id string) error {
	return m.setActive(ctx, id, true)
}

// Deactivate turns a module off and persists the change.
func (m *Manager) Deactivate(ctx context.Context, id string) error {
	return m.setActive(ctx, id, false)
}

func (m *Manager) setActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mod, ok := m.modules[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrModuleNotFound)
	}
	if active && mod.Disabled {
		return fmt.Errorf("activate %q: %w", id, ErrModuleDisabled)
	}

	if m.states != nil {
		if err := m.states.SetActive(ctx, id, active); err != nil {
			return err
		}
	}
	mod.Active = active
	slog.Info("module state changed", "module", id, "active", active)
	return nil
}
