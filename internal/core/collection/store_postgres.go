// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package collection

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/gibiteca/internal/platform/database/schema"
	"github.com/taibuivan/gibiteca/internal/platform/dberr"
	"github.com/taibuivan/gibiteca/internal/platform/postgres"
)

// PostgresRepository implements [Repository] on the gibi schema.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Query Fragments

var (
	col = schema.GibiCollection
	iss = schema.GibiIssue
)

// collectionSelect reads collections as "c" with their issue counts.
// The caller appends the WHERE clause on c.userid and optionally c.id.
var collectionSelect = fmt.Sprintf(`
	SELECT c.%s, c.%s, c.%s, c.%s, c.%s, c.%s, c.%s,
		COUNT(i.%s), COUNT(i.%s) FILTER (WHERE i.%s)
	FROM %s c
	LEFT JOIN %s i ON i.%s = c.%s
`,
	col.ID, col.UserID, col.Title, col.Publisher, col.StartYear, col.CoverURL, col.CreatedAt,
	iss.ID, iss.ID, iss.IsOwned,
	col.Table, iss.Table, iss.CollectionID, col.ID,
)

// issueColumns lists the issue columns qualified with alias.
func issueColumns(alias string) string {
	columns := iss.Columns()
	for i, column := range columns {
		columns[i] = alias + "." + column
	}
	return strings.Join(columns, ", ")
}

func scanCollection(row pgx.Row) (*Collection, error) {
	c := &Collection{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.Title, &c.Publisher, &c.StartYear, &c.CoverURL, &c.CreatedAt,
		&c.IssueCount, &c.OwnedCount,
	)
	return c, err
}

func scanIssue(row pgx.Row) (*Issue, error) {
	issue := &Issue{}
	err := row.Scan(
		&issue.ID, &issue.CollectionID, &issue.IssueNumber, &issue.IsOwned, &issue.CoverColor,
		&issue.CoverURL, &issue.Name, &issue.ConditionRating, &issue.CreatedAt,
	)
	return issue, err
}

// # Collections

func (repository *PostgresRepository) ListCollections(context context.Context, userID string) ([]*Collection, error) {
	query := collectionSelect + fmt.Sprintf(`
		WHERE c.%s = $1
		GROUP BY c.%s
		ORDER BY c.%s DESC, c.%s DESC
	`, col.UserID, col.ID, col.CreatedAt, col.ID)

	rows, err := repository.db.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_collections")
	}
	defer rows.Close()

	collections := []*Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_collection")
		}
		collections = append(collections, c)
	}
	return collections, dberr.Wrap(rows.Err(), "list_collections")
}

func (repository *PostgresRepository) GetCollection(context context.Context, userID, id string) (*Collection, error) {
	query := collectionSelect + fmt.Sprintf(`
		WHERE c.%s = $1 AND c.%s = $2
		GROUP BY c.%s
	`, col.UserID, col.ID, col.ID)

	c, err := scanCollection(repository.db.QueryRow(context, query, userID, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_collection")
	}
	return c, nil
}

var insertCollection = fmt.Sprintf(`
	INSERT INTO %s (%s, %s, %s, %s, %s, %s)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING %s
`,
	col.Table, col.ID, col.UserID, col.Title, col.Publisher, col.StartYear, col.CoverURL,
	col.CreatedAt,
)

func (repository *PostgresRepository) CreateCollection(context context.Context, c *Collection) error {
	err := repository.db.QueryRow(context, insertCollection,
		c.ID, c.UserID, c.Title, c.Publisher, c.StartYear, c.CoverURL,
	).Scan(&c.CreatedAt)
	return dberr.Wrap(err, "create_collection")
}

func (repository *PostgresRepository) UpdateCollection(context context.Context, c *Collection) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = $4, %s = $5, %s = $6
		WHERE %s = $1 AND %s = $2
	`,
		col.Table, col.Title, col.Publisher, col.StartYear, col.CoverURL,
		col.ID, col.UserID,
	)

	cmd, err := repository.db.Exec(context, query, c.ID, c.UserID, c.Title, c.Publisher, c.StartYear, c.CoverURL)
	if err != nil {
		return dberr.Wrap(err, "update_collection")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// DeleteCollection relies on the ON DELETE CASCADE of gibi.issue.
func (repository *PostgresRepository) DeleteCollection(context context.Context, userID, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, col.Table, col.ID, col.UserID)

	cmd, err := repository.db.Exec(context, query, id, userID)
	if err != nil {
		return dberr.Wrap(err, "delete_collection")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// # Issues

func (repository *PostgresRepository) ListIssues(context context.Context, userID, collectionID string) ([]*Issue, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s i
		JOIN %s c ON c.%s = i.%s
		WHERE i.%s = $1 AND c.%s = $2
	`,
		issueColumns("i"),
		iss.Table, col.Table, col.ID, iss.CollectionID,
		iss.CollectionID, col.UserID,
	)

	rows, err := repository.db.Query(context, query, collectionID, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_issues")
	}
	defer rows.Close()

	issues := []*Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_issue")
		}
		issues = append(issues, issue)
	}
	return issues, dberr.Wrap(rows.Err(), "list_issues")
}

/*
CreateIssue inserts an issue only if its collection belongs to userID.

The INSERT ... SELECT yields no row for a foreign or missing collection,
which surfaces as NOT_FOUND.
*/
func (repository *PostgresRepository) CreateIssue(context context.Context, userID string, issue *Issue) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		SELECT $1, c.%s, $3, $4, $5, $6, $7, $8
		FROM %s c
		WHERE c.%s = $2 AND c.%s = $9
		RETURNING %s
	`,
		iss.Table, iss.ID, iss.CollectionID, iss.IssueNumber, iss.IsOwned, iss.CoverColor,
		iss.CoverURL, iss.Name, iss.ConditionRating,
		col.ID, col.Table, col.ID, col.UserID,
		iss.CreatedAt,
	)

	err := repository.db.QueryRow(context, query,
		issue.ID, issue.CollectionID, issue.IssueNumber, issue.IsOwned, issue.CoverColor,
		issue.CoverURL, issue.Name, issue.ConditionRating, userID,
	).Scan(&issue.CreatedAt)
	return dberr.Wrap(err, "create_issue")
}

// ownedIssueUpdate builds an UPDATE on one issue of userID that returns the full row.
func ownedIssueUpdate(set string) string {
	return fmt.Sprintf(`
		UPDATE %s i
		SET %s
		FROM %s c
		WHERE i.%s = $1 AND c.%s = i.%s AND c.%s = $2
		RETURNING %s
	`,
		iss.Table, set, col.Table,
		iss.ID, col.ID, iss.CollectionID, col.UserID,
		issueColumns("i"),
	)
}

// ToggleOwned negates the flag in SQL so concurrent toggles of other rows never interfere.
func (repository *PostgresRepository) ToggleOwned(context context.Context, userID, issueID string) (*Issue, error) {
	query := ownedIssueUpdate(fmt.Sprintf("%s = NOT i.%s", iss.IsOwned, iss.IsOwned))

	issue, err := scanIssue(repository.db.QueryRow(context, query, issueID, userID))
	if err != nil {
		return nil, dberr.Wrap(err, "toggle_issue_owned")
	}
	return issue, nil
}

func (repository *PostgresRepository) SetRating(context context.Context, userID, issueID string, rating *int) (*Issue, error) {
	query := ownedIssueUpdate(fmt.Sprintf("%s = $3", iss.ConditionRating))

	issue, err := scanIssue(repository.db.QueryRow(context, query, issueID, userID, rating))
	if err != nil {
		return nil, dberr.Wrap(err, "rate_issue")
	}
	return issue, nil
}

// # Import

/*
ImportCollection writes the collection and its issues in one transaction.

Issues are queued into a single [pgx.Batch]; any failing insert rolls back
the collection as well.
*/
func (repository *PostgresRepository) ImportCollection(context context.Context, c *Collection, issues []*Issue) error {
	err := postgres.WithTx(context, repository.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(context, insertCollection,
			c.ID, c.UserID, c.Title, c.Publisher, c.StartYear, c.CoverURL,
		).Scan(&c.CreatedAt); err != nil {
			return err
		}

		if len(issues) == 0 {
			return nil
		}

		insertIssue := fmt.Sprintf(`
			INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING %s
		`,
			iss.Table, iss.ID, iss.CollectionID, iss.IssueNumber, iss.IsOwned, iss.CoverColor,
			iss.CoverURL, iss.Name,
			iss.CreatedAt,
		)

		batch := &pgx.Batch{}
		for _, issue := range issues {
			batch.Queue(insertIssue,
				issue.ID, c.ID, issue.IssueNumber, issue.IsOwned, issue.CoverColor, issue.CoverURL, issue.Name,
			).QueryRow(func(row pgx.Row) error {
				return row.Scan(&issue.CreatedAt)
			})
		}

		return tx.SendBatch(context, batch).Close()
	})
	return dberr.Wrap(err, "import_collection")
}
