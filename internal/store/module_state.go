// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ModuleStateStore persists which modules are active.
type ModuleStateStore struct {
	db *sql.DB
}

// NewModuleStateStore returns a ModuleStateStore backed by db.
func NewModuleStateStore(db *sql.DB) *ModuleStateStore {
	return &ModuleStateStore{db: db}
}

// States returns the saved activation flag of every known module.
func (s *ModuleStateStore) States(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT module_id, active FROM module_states`)
	if err != nil {
		return nil, fmt.Errorf("list module states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]bool)
	for rows.Next() {
		var (
			id     string
			active bool
		)
		if err := rows.Scan(&id, &active); err != nil {
			return nil, fmt.Errorf("scan module state: %w", err)
		}
		states[id] = active
	}
	return states, rows.Err()
}

// SetActive saves the activation flag of a module.
func (s *ModuleStateStore) SetActive(ctx context.Context, moduleID string, active bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO module_states (module_id, active, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (module_id)
		DO UPDATE SET active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`,
		moduleID, active,
	)
	if err != nil {
		return fmt.Errorf("set module state %s: %w", moduleID, err)
	}
	return nil
}
