// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package collection manages a user's comic collections and their issues.

A [Collection] is a tracked series owned by exactly one user; an [Issue] is
one numbered entry in it. Every read and write is scoped by the caller's user
id, so a collection is never visible across accounts.

Issues are always returned in alphanumeric order (see [CompareIssueNumbers]).
Series can be imported from an external catalog with [Service.ImportSeries].
*/
package collection

import (
	"math/rand/v2"
	"time"
)

// # Domain Models

// Collection is a comic series tracked by one user.
type Collection struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Publisher  string    `json:"publisher"`
	StartYear  *int      `json:"start_year"`
	CoverURL   *string   `json:"cover_url"`
	CreatedAt  time.Time `json:"created_at"`
	IssueCount int       `json:"issue_count"`
	OwnedCount int       `json:"owned_count"`
}

// Issue is a single numbered entry of a collection.
type Issue struct {
	ID              string    `json:"id"`
	CollectionID    string    `json:"collection_id"`
	IssueNumber     string    `json:"issue_number"`
	IsOwned         bool      `json:"is_owned"`
	CoverColor      string    `json:"cover_color"`
	CoverURL        *string   `json:"cover_url"`
	Name            *string   `json:"name"`
	ConditionRating *int      `json:"condition_rating"`
	CreatedAt       time.Time `json:"created_at"`
}

// Detail is a collection with its issues in display order.
type Detail struct {
	*Collection
	Issues []*Issue `json:"issues"`
}

// # Limits

const (
	MaxTitleLength     = 255
	MaxPublisherLength = 120
	MaxIssueNumberLen  = 40
	MaxIssueNameLength = 255

	MinStartYear = 1800
	MaxStartYear = 2200

	MinRating = 1
	MaxRating = 5

	// MaxCoverBytes bounds an uploaded cover image.
	MaxCoverBytes = 5 << 20
)

// Field names reported in validation details.
const (
	FieldTitle       = "title"
	FieldPublisher   = "publisher"
	FieldStartYear   = "start_year"
	FieldCoverURL    = "cover_url"
	FieldIssueNumber = "issue_number"
	FieldName        = "name"
	FieldRating      = "rating"
	FieldFile        = "file"
	FieldProvider    = "provider"
)

// # Cover Colours

// CoverColors are the placeholder tokens shown when an issue has no cover image.
var CoverColors = []string{"red", "blue", "green", "yellow", "purple", "orange", "pink", "teal"}

// randomCoverColor picks a placeholder colour. It is cosmetic only.
func randomCoverColor() string {
	return CoverColors[rand.IntN(len(CoverColors))]
}

func countOwned(issues []*Issue) int {
	owned := 0
	for _, issue := range issues {
		if issue.IsOwned {
			owned++
		}
	}
	return owned
}
