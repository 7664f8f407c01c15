// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the lifetime of a signed JWT access token.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the lifetime of a refresh-token session.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random refresh token.
	RefreshTokenLength = 32

	// ResetTokenTTL is how long a password reset token stays redeemable.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// MinUsernameLength and MinPasswordLength gate registration and password changes.
	MinUsernameLength = 3
	MinPasswordLength = 8

	passwordTooLong = "Must be at most 72 bytes"

	// resetTokenKeyPrefix namespaces reset tokens in Redis.
	resetTokenKeyPrefix = "auth:reset_token:"
)
