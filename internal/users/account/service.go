// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/gibiteca/internal/platform/apperr"
	"github.com/taibuivan/gibiteca/internal/platform/sec"
	"github.com/taibuivan/gibiteca/internal/platform/validate"
	"github.com/taibuivan/gibiteca/internal/users/auth"
	"github.com/taibuivan/gibiteca/pkg/pagination"
	"github.com/taibuivan/gibiteca/pkg/slice"
)

// # Service Layer

// Service orchestrates profile, session and member administration use cases.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	resetIssuer       ResetIssuer
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	sessionRepo SessionRepository,
	resetIssuer ResetIssuer,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionRepository: sessionRepo,
		resetIssuer:       resetIssuer,
		logger:            logger,
	}
}

// # Profile Management

// GetProfile retrieves the private profile of userID.
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	return service.accountRepository.FindByID(context, userID)
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	DisplayName *string
}

/*
UpdateProfile applies a partial set of changes to a user's profile.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Validation or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {
	if input.DisplayName != nil {
		displayName := strings.TrimSpace(*input.DisplayName)

		validator := &validate.Validator{}
		validator.Required(FieldDisplayName, displayName).
			MaxLen(FieldDisplayName, displayName, MaxDisplayNameLength)
		if err := validator.Err(); err != nil {
			return nil, err
		}

		if err := service.accountRepository.UpdateDisplayName(context, userID, displayName); err != nil {
			return nil, err
		}
		service.logger.Info("user_profile_updated", slog.String("user_id", userID))
	}

	return service.accountRepository.FindByID(context, userID)
}

/*
DeleteAccount soft-deletes the account and signs it out everywhere.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {
	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return err
	}

	if err := service.sessionRepository.RevokeAll(context, userID); err != nil {
		return err
	}

	service.logger.Warn("user_account_deleted", slog.String("user_id", userID))
	return nil
}

// # Session Security

// ListSessions lists the live device sessions of userID.
func (service *Service) ListSessions(context context.Context, userID string) ([]SessionInfo, error) {
	sessions, err := service.sessionRepository.FindActiveByUserID(context, userID)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []SessionInfo{}
	}
	return sessions, nil
}

// RevokeSession terminates one of userID's sessions.
func (service *Service) RevokeSession(context context.Context, userID, sessionID string) error {
	if err := service.sessionRepository.Revoke(context, userID, sessionID); err != nil {
		return err
	}

	service.logger.Info("user_session_revoked",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)
	return nil
}

// # Member Administration

/*
ListMembers pages through every live account with its role.

Returns:
  - []Member: The requested page
  - pagination.Meta: Page metadata
  - error: Storage failures
*/
func (service *Service) ListMembers(context context.Context, params pagination.Params) ([]Member, pagination.Meta, error) {
	users, total, err := service.accountRepository.List(context, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	members := slice.Map(users, toMember)
	if members == nil {
		members = []Member{}
	}
	return members, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
ToggleAdmin flips a member between the admin and member roles.

An admin cannot change their own role.

Parameters:
  - context: context.Context
  - actorID: string (The admin performing the change)
  - userID: string (The member being changed)

Returns:
  - *Member: The member with the new role
  - error: Forbidden, NotFound or storage failures
*/
func (service *Service) ToggleAdmin(context context.Context, actorID, userID string) (*Member, error) {
	if actorID == userID {
		return nil, apperr.Forbidden("Admins cannot change their own role")
	}

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	role := user.Role.Toggled()

	if err := service.accountRepository.SetRole(context, userID, role); err != nil {
		return nil, err
	}
	user.Role = role

	service.logger.Info("user_role_changed",
		slog.String("admin_id", actorID),
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)

	member := toMember(user)
	return &member, nil
}

/*
IssuePasswordReset creates a reset token for userID on an admin's behalf.

There is no mail delivery: the token travels back in the response and the
admin passes it on.
*/
func (service *Service) IssuePasswordReset(context context.Context, actorID, userID string) (*PasswordReset, error) {
	if _, err := service.accountRepository.FindByID(context, userID); err != nil {
		return nil, err
	}

	token, err := service.resetIssuer.IssueResetToken(context, userID)
	if err != nil {
		return nil, err
	}

	service.logger.Info("admin_password_reset_issued",
		slog.String("admin_id", actorID),
		slog.String("user_id", userID),
	)

	return &PasswordReset{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(auth.ResetTokenTTL),
	}, nil
}

func toMember(user *auth.User) Member {
	return Member{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		IsAdmin:     user.Role == sec.RoleAdmin,
		CreatedAt:   user.CreatedAt,
	}
}
