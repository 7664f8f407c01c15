// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/gibiteca/internal/platform/database/schema"
	"github.com/taibuivan/gibiteca/internal/platform/dberr"
	"github.com/taibuivan/gibiteca/internal/platform/sec"
	"github.com/taibuivan/gibiteca/internal/users/auth"
	"github.com/taibuivan/gibiteca/pkg/pagination"
)

// # Repository Implementations

// PostgresAccountRepository implements [AccountRepository] on users.account.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// PostgresSessionRepository implements [SessionRepository] on users.session.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL session visibility repository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// # AccountRepository Methods

var accountColumns = fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
	schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Email,
	schema.UserAccount.DisplayName, schema.UserAccount.Role,
	schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
)

func scanAccount(row pgx.Row) (*auth.User, error) {
	user := &auth.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
FindByID retrieves a live account without its password hash.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *auth.User: Hydrated account
  - error: NOT_FOUND or PERSISTENCE_ERROR
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL",
		accountColumns, schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.DeletedAt)

	user, err := scanAccount(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find_account")
	}
	return user, nil
}

// UpdateDisplayName renames a live account.
func (repository *PostgresAccountRepository) UpdateDisplayName(context context.Context, id, displayName string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s IS NULL",
		schema.UserAccount.Table, schema.UserAccount.DisplayName, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt)

	return execOne(context, repository.pool, "update_display_name", query, id, displayName, time.Now())
}

// SoftDelete stamps deletedat on a live account.
func (repository *PostgresAccountRepository) SoftDelete(context context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = $2 WHERE %s = $1 AND %s IS NULL",
		schema.UserAccount.Table, schema.UserAccount.DeletedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt)

	return execOne(context, repository.pool, "soft_delete_account", query, id, time.Now())
}

/*
List pages through live accounts, oldest first.

COUNT(*) OVER () carries the total on every row, so a page past the end
reports a total of zero.
*/
func (repository *PostgresAccountRepository) List(context context.Context, params pagination.Params) ([]*auth.User, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER ()
		FROM %s
		WHERE %s IS NULL
		ORDER BY %s ASC, %s ASC
		LIMIT $1 OFFSET $2`,
		accountColumns, schema.UserAccount.Table, schema.UserAccount.DeletedAt,
		schema.UserAccount.CreatedAt, schema.UserAccount.ID)

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_accounts")
	}
	defer rows.Close()

	var (
		users []*auth.User
		total int
	)
	for rows.Next() {
		user := &auth.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.DisplayName,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_account")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_accounts")
	}

	return users, total, nil
}

// SetRole replaces the role of a live account.
func (repository *PostgresAccountRepository) SetRole(context context.Context, id string, role sec.UserRole) error {
	query := fmt.Sprintf("UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s IS NULL",
		schema.UserAccount.Table, schema.UserAccount.Role, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt)

	return execOne(context, repository.pool, "set_role", query, id, string(role), time.Now())
}

// execOne runs a single-row statement and reports NOT_FOUND when it matched nothing.
func execOne(context context.Context, pool *pgxpool.Pool, action, query string, args ...any) error {
	tag, err := pool.Exec(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// # SessionRepository Methods

// FindActiveByUserID lists live sessions of userID, newest first.
func (repository *PostgresSessionRepository) FindActiveByUserID(context context.Context, userID string) ([]SessionInfo, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = FALSE AND %s > NOW()
		ORDER BY %s DESC`,
		schema.UserSession.ID, schema.UserSession.UserAgent, schema.UserSession.IPAddress,
		schema.UserSession.CreatedAt, schema.UserSession.ExpiresAt,
		schema.UserSession.Table,
		schema.UserSession.UserID, schema.UserSession.IsRevoked, schema.UserSession.ExpiresAt,
		schema.UserSession.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_sessions")
	}
	defer rows.Close()

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SessionInfo, error) {
		var session SessionInfo
		err := row.Scan(&session.ID, &session.UserAgent, &session.IPAddress, &session.CreatedAt, &session.ExpiresAt)
		return session, err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "list_sessions")
	}
	return sessions, nil
}

// Revoke revokes one live session owned by userID.
func (repository *PostgresSessionRepository) Revoke(context context.Context, userID, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = TRUE WHERE %s = $1 AND %s = $2 AND %s = FALSE",
		schema.UserSession.Table, schema.UserSession.IsRevoked,
		schema.UserSession.ID, schema.UserSession.UserID, schema.UserSession.IsRevoked)

	return execOne(context, repository.pool, "revoke_session", query, sessionID, userID)
}

// RevokeAll terminates every session for a user.
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = TRUE WHERE %s = $1 AND %s = FALSE",
		schema.UserSession.Table, schema.UserSession.IsRevoked,
		schema.UserSession.UserID, schema.UserSession.IsRevoked)

	_, err := repository.pool.Exec(context, query, userID)
	return dberr.Wrap(err, "revoke_all_sessions")
}
