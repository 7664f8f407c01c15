// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth owns account identity and the session boundary of Gibiteca.

A caller registers, signs in and receives a short-lived RS256 access token plus
a refresh token tracked as a row in users.session. Every other package learns
the caller's identity only from the verified claims placed on the request
context by the authentication middleware.

# Storage

  - Accounts and sessions live in PostgreSQL.
  - Password reset tokens live in Redis with a TTL.
*/
package auth

import (
	"time"

	"github.com/taibuivan/gibiteca/internal/platform/sec"
)

// # Domain Entities

// User is a registered account of the collection tracker.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	DisplayName  string       `json:"display_name"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Session is an active refresh-token session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the caller as seen through the verified access token claims.
type Identity struct {
	UserID   string       `json:"user_id"`
	Username string       `json:"username"`
	Role     sec.UserRole `json:"role"`
	IsAdmin  bool         `json:"is_admin"`
}

// # Field Identifiers

const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldLogin           = "login"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)
