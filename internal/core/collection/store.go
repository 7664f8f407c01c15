// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package collection

import "context"

// Repository persists collections and issues.
//
// Every method takes the owner's user id and must not touch rows of other users.
// Missing or foreign rows are reported as NOT_FOUND.
type Repository interface {
	// ListCollections returns the user's collections, newest first, with issue counts.
	ListCollections(context context.Context, userID string) ([]*Collection, error)

	// GetCollection returns one collection with its issue counts.
	GetCollection(context context.Context, userID, id string) (*Collection, error)

	CreateCollection(context context.Context, collection *Collection) error

	// UpdateCollection overwrites title, publisher, start year and cover.
	UpdateCollection(context context.Context, collection *Collection) error

	// DeleteCollection removes the collection; its issues go with it.
	DeleteCollection(context context.Context, userID, id string) error

	// ListIssues returns the issues of a collection in storage order.
	ListIssues(context context.Context, userID, collectionID string) ([]*Issue, error)

	// CreateIssue inserts an issue into a collection owned by userID.
	CreateIssue(context context.Context, userID string, issue *Issue) error

	// ToggleOwned flips the owned flag of a single issue and returns the new row.
	ToggleOwned(context context.Context, userID, issueID string) (*Issue, error)

	// SetRating stores a condition rating, or clears it when rating is nil.
	SetRating(context context.Context, userID, issueID string, rating *int) (*Issue, error)

	// ImportCollection inserts a collection and all of its issues atomically.
	ImportCollection(context context.Context, collection *Collection, issues []*Issue) error
}
