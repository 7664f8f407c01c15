// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account manages the signed-in member's profile and the admin member list.

# Scope

  - Self service: read and rename the profile, list and revoke device sessions,
    delete the account.
  - Administration: list members with their roles, toggle the admin role, and
    issue a password reset token on a member's behalf.

The User entity is owned by the auth package; this package only reads and
mutates the profile and role columns.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/gibiteca/internal/platform/sec"
	"github.com/taibuivan/gibiteca/internal/users/auth"
	"github.com/taibuivan/gibiteca/pkg/pagination"
)

// # Domain Entities

// SessionInfo is the transport view of an active device session.
type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Member is a row of the admin user list.
type Member struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
	Role        sec.UserRole `json:"role"`
	IsAdmin     bool         `json:"is_admin"`
	CreatedAt   time.Time    `json:"created_at"`
}

// PasswordReset is returned to the admin who requested it.
type PasswordReset struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MaxDisplayNameLength bounds the profile display name.
const MaxDisplayNameLength = 80

// FieldDisplayName names the only mutable profile field.
const FieldDisplayName = "display_name"

// # Repository Contracts

// AccountRepository defines the persistence contract for user accounts.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	// UpdateDisplayName renames the account.
	UpdateDisplayName(context context.Context, id, displayName string) error

	// SoftDelete flags an account as logically deleted.
	SoftDelete(context context.Context, id string) error

	/*
		List pages through live accounts, oldest first.

		Returns:
		  - []*auth.User: The requested page
		  - int: Total number of live accounts
		  - error: Storage failures
	*/
	List(context context.Context, params pagination.Params) ([]*auth.User, int, error)

	// SetRole replaces the role of a live account.
	SetRole(context context.Context, id string, role sec.UserRole) error
}

// SessionRepository defines the visibility and revocation contract for user sessions.
type SessionRepository interface {
	// FindActiveByUserID lists live sessions of userID, newest first.
	FindActiveByUserID(context context.Context, userID string) ([]SessionInfo, error)

	// Revoke revokes one session, scoped by its owner.
	Revoke(context context.Context, userID, sessionID string) error

	// RevokeAll terminates every session for a user.
	RevokeAll(context context.Context, userID string) error
}

// ResetIssuer hands out password reset tokens. *auth.Service satisfies it.
type ResetIssuer interface {
	IssueResetToken(context context.Context, userID string) (string, error)
}
