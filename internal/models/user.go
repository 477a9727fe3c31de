// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission level of an admin user.
type Role string

const (
	// RoleNetworkAdmin may manage every site and create new ones.
	RoleNetworkAdmin Role = "network_admin"
	// RoleSiteAdmin may edit site settings but not the network.
	RoleSiteAdmin Role = "site_admin"
)

// User is an admin panel account with TOTP second factor.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"`
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsNetworkAdmin reports whether the user can manage the whole network.
func (u *User) IsNetworkAdmin() bool {
	return u.Role == RoleNetworkAdmin
}

// Needs2FASetup returns true until the user has enrolled a TOTP device.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}
