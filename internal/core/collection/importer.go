// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package collection

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/taibuivan/gibiteca/internal/catalog"
	"github.com/taibuivan/gibiteca/internal/platform/validate"
	"github.com/taibuivan/gibiteca/pkg/slice"
	"github.com/taibuivan/gibiteca/pkg/uuid"
)

// MaxSyntheticIssues caps the numbered placeholders created when a catalog
// reports an issue count but no issue list.
const MaxSyntheticIssues = 2000

// IssueResolver lists the issues of a catalog series. [*catalog.Service] satisfies it.
type IssueResolver interface {
	ResolveIssues(ctx context.Context, provider, providerRef string) ([]catalog.IssueRecord, error)
}

// ImportInput selects a catalog search result to import.
type ImportInput struct {
	// Provider defaults to Result.Provider when empty.
	Provider string               `json:"provider"`
	Result   catalog.SearchResult `json:"result"`
}

/*
ImportSeries turns a catalog search result into a persisted collection.

Steps:
 1. Build the collection from the result (title, publisher, year, cover).
 2. Resolve the series issues. A failed lookup is logged and treated as an
    empty list.
 3. With issues: one unowned row per record, keeping its cover and name.
    Without: "#1".."#N" placeholders where N is the result's issue count.
 4. Insert the collection and issues in a single transaction.
 5. Re-read the stored state and return it in display order.

Importing the same series twice creates two collections.

Returns:
  - *Detail: The persisted collection with sorted issues
  - err: ValidationError or a persistence failure; nothing is stored on error
*/
func (service *Service) ImportSeries(context context.Context, userID string, input ImportInput) (*Detail, error) {
	result := input.Result
	provider := strings.TrimSpace(input.Provider)
	if provider == "" {
		provider = strings.TrimSpace(result.Provider)
	}

	collection := &Collection{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     strings.TrimSpace(result.Title),
		Publisher: normalizePublisher(&result.Publisher),
		StartYear: parseStartYear(result.Year),
		CoverURL:  trimmedOrNil(result.CoverURL),
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldTitle, collection.Title).
		MaxLen(FieldTitle, collection.Title, MaxTitleLength).
		OptionalURL(FieldCoverURL, collection.CoverURL)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Catalog publishers are clipped rather than rejected.
	collection.Publisher = clip(collection.Publisher, MaxPublisherLength)

	records := service.resolveIssues(context, provider, result.ProviderRef)

	var issues []*Issue
	if len(records) > 0 {
		issues = slice.Map(records, func(record catalog.IssueRecord) *Issue {
			return &Issue{
				ID:           uuid.New(),
				CollectionID: collection.ID,
				IssueNumber:  clip(strings.TrimSpace(record.Number), MaxIssueNumberLen),
				IsOwned:      false,
				CoverColor:   randomCoverColor(),
				CoverURL:     webURLOrNil(record.CoverURL),
				Name:         trimmedOrNil(record.Name),
			}
		})
	} else {
		issues = syntheticIssues(collection.ID, result.IssueCount)
	}

	if err := service.repository.ImportCollection(context, collection, issues); err != nil {
		service.logger.ErrorContext(context, "collection_import_failed",
			slog.String("provider", provider),
			slog.String("title", collection.Title),
			slog.Any("error", err),
		)
		return nil, err
	}

	service.logger.InfoContext(context, "collection_imported",
		slog.String("collection_id", collection.ID),
		slog.String("provider", provider),
		slog.Int("issues", len(issues)),
		slog.Bool("synthetic", len(records) == 0),
	)

	return service.GetCollection(context, userID, collection.ID)
}

func (service *Service) resolveIssues(context context.Context, provider, providerRef string) []catalog.IssueRecord {
	providerRef = strings.TrimSpace(providerRef)
	if service.resolver == nil || provider == "" || providerRef == "" {
		return nil
	}

	records, err := service.resolver.ResolveIssues(context, provider, providerRef)
	if err != nil {
		service.logger.WarnContext(context, "collection_import_issues_unresolved",
			slog.String("provider", provider),
			slog.String("provider_ref", providerRef),
			slog.Any("error", err),
		)
		return nil
	}
	return records
}

// syntheticIssues numbers placeholder issues "#1".."#count" with no cover.
func syntheticIssues(collectionID string, count int) []*Issue {
	count = max(0, min(count, MaxSyntheticIssues))

	issues := make([]*Issue, 0, count)
	for number := 1; number <= count; number++ {
		issues = append(issues, &Issue{
			ID:           uuid.New(),
			CollectionID: collectionID,
			IssueNumber:  fmt.Sprintf("#%d", number),
			IsOwned:      false,
			CoverColor:   randomCoverColor(),
		})
	}
	return issues
}

// parseStartYear reads a catalog year; "N/A" and out-of-range values yield nil.
func parseStartYear(year string) *int {
	value, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || value < MinStartYear || value > MaxStartYear {
		return nil
	}
	return &value
}

// webURLOrNil keeps a resolved cover only when it is an absolute http(s) URL.
func webURLOrNil(raw *string) *string {
	value := trimmedOrNil(raw)
	if value == nil {
		return nil
	}
	parsed, err := url.Parse(*value)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil
	}
	return value
}

func clip(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
