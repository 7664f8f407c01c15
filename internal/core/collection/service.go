// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package collection

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/taibuivan/gibiteca/internal/platform/apperr"
	"github.com/taibuivan/gibiteca/internal/platform/blob"
	"github.com/taibuivan/gibiteca/internal/platform/constants"
	"github.com/taibuivan/gibiteca/internal/platform/validate"
	"github.com/taibuivan/gibiteca/pkg/slice"
	"github.com/taibuivan/gibiteca/pkg/slug"
	"github.com/taibuivan/gibiteca/pkg/uuid"
)

// coverExtensions maps accepted upload types to the stored file extension.
var coverExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Service implements the collection use cases.
type Service struct {
	repository Repository
	covers     blob.Store
	resolver   IssueResolver
	logger     *slog.Logger
}

// NewService wires the service. resolver may be nil, in which case imports
// always fall back to synthetic issues.
func NewService(repository Repository, covers blob.Store, resolver IssueResolver, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		covers:     covers,
		resolver:   resolver,
		logger:     logger,
	}
}

// # Inputs

// CreateInput is the payload of a new collection.
type CreateInput struct {
	Title     string  `json:"title"`
	Publisher *string `json:"publisher"`
	StartYear *int    `json:"start_year"`
	CoverURL  *string `json:"cover_url"`
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	Title     *string `json:"title"`
	Publisher *string `json:"publisher"`
	StartYear *int    `json:"start_year"`
	CoverURL  *string `json:"cover_url"`
}

// IssueInput is the payload of a manually added issue.
type IssueInput struct {
	IssueNumber string  `json:"issue_number"`
	Name        *string `json:"name"`
	CoverURL    *string `json:"cover_url"`
}

// CoverUpload is an image received for a collection cover.
type CoverUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// # Collections

// ListCollections returns the user's collections, newest first.
// A non-blank query keeps those whose title or publisher contains it,
// ignoring case and accents.
func (service *Service) ListCollections(context context.Context, userID, query string) ([]*Collection, error) {
	collections, err := service.repository.ListCollections(context, userID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return collections, nil
	}

	return slice.Filter(collections, func(c *Collection) bool {
		return slug.Contains(c.Title, query) || slug.Contains(c.Publisher, query)
	}), nil
}

// GetCollection returns the collection with its issues in display order.
func (service *Service) GetCollection(context context.Context, userID, id string) (*Detail, error) {
	collection, err := service.repository.GetCollection(context, userID, id)
	if err != nil {
		return nil, err
	}

	issues, err := service.repository.ListIssues(context, userID, id)
	if err != nil {
		return nil, err
	}
	SortIssues(issues)

	collection.IssueCount = len(issues)
	collection.OwnedCount = countOwned(issues)
	return &Detail{Collection: collection, Issues: issues}, nil
}

/*
CreateCollection validates and stores a new collection for userID.

Returns:
  - *Collection: The stored row with no issues
  - err: ValidationError or a persistence failure
*/
func (service *Service) CreateCollection(context context.Context, userID string, input CreateInput) (*Collection, error) {
	collection := &Collection{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     strings.TrimSpace(input.Title),
		Publisher: normalizePublisher(input.Publisher),
		StartYear: input.StartYear,
		CoverURL:  trimmedOrNil(input.CoverURL),
	}

	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	if err := service.repository.CreateCollection(context, collection); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "collection_created",
		slog.String("collection_id", collection.ID),
		slog.String("user_id", userID),
	)
	return collection, nil
}

// UpdateCollection applies a partial update. Concurrent updates of the same
// collection are not serialized; the last write wins.
func (service *Service) UpdateCollection(context context.Context, userID, id string, input UpdateInput) (*Collection, error) {
	collection, err := service.repository.GetCollection(context, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		collection.Title = strings.TrimSpace(*input.Title)
	}
	if input.Publisher != nil {
		collection.Publisher = normalizePublisher(input.Publisher)
	}
	if input.StartYear != nil {
		collection.StartYear = input.StartYear
	}
	if input.CoverURL != nil {
		collection.CoverURL = trimmedOrNil(input.CoverURL)
	}

	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	if err := service.repository.UpdateCollection(context, collection); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "collection_updated", slog.String("collection_id", id))
	return collection, nil
}

// DeleteCollection removes the collection and, by cascade, its issues.
func (service *Service) DeleteCollection(context context.Context, userID, id string) error {
	if err := service.repository.DeleteCollection(context, userID, id); err != nil {
		return err
	}

	service.logger.WarnContext(context, "collection_deleted",
		slog.String("collection_id", id),
		slog.String("user_id", userID),
	)
	return nil
}

/*
UploadCover stores an image and points the collection cover at it.

The object key is "<userID>/<title-slug>-<uuid><ext>". Only JPEG, PNG, WebP
and GIF images up to [MaxCoverBytes] are accepted.
*/
func (service *Service) UploadCover(context context.Context, userID, id string, upload CoverUpload) (*Collection, error) {
	extension, ok := coverExtensions[strings.ToLower(strings.TrimSpace(upload.ContentType))]

	validator := &validate.Validator{}
	validator.Custom(FieldFile, !ok, "Must be a JPEG, PNG, WebP or GIF image")
	validator.Custom(FieldFile, upload.Size > MaxCoverBytes, fmt.Sprintf("Maximum %d bytes", MaxCoverBytes))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	collection, err := service.repository.GetCollection(context, userID, id)
	if err != nil {
		return nil, err
	}

	name := slug.From(collection.Title)
	if name == "" {
		name = "cover"
	}
	key := userID + "/" + name + "-" + uuid.New() + extension

	url, err := service.covers.Put(context, key, upload.ContentType, io.LimitReader(upload.Body, MaxCoverBytes))
	if err != nil {
		return nil, apperr.Persistence("upload_cover", err)
	}

	collection.CoverURL = &url
	if err := service.repository.UpdateCollection(context, collection); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "collection_cover_uploaded",
		slog.String("collection_id", id),
		slog.String("key", key),
		slog.String("filename", upload.Filename),
		slog.Int64("bytes", upload.Size),
	)
	return collection, nil
}

// # Issues

// AddIssue inserts an issue and returns the collection's full issue list,
// re-sorted.
func (service *Service) AddIssue(context context.Context, userID, collectionID string, input IssueInput) ([]*Issue, error) {
	issue := &Issue{
		ID:           uuid.New(),
		CollectionID: collectionID,
		IssueNumber:  strings.TrimSpace(input.IssueNumber),
		IsOwned:      false,
		CoverColor:   randomCoverColor(),
		CoverURL:     trimmedOrNil(input.CoverURL),
		Name:         trimmedOrNil(input.Name),
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldIssueNumber, issue.IssueNumber).
		MaxLen(FieldIssueNumber, issue.IssueNumber, MaxIssueNumberLen).
		OptionalMaxLen(FieldName, issue.Name, MaxIssueNameLength).
		OptionalURL(FieldCoverURL, issue.CoverURL)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repository.CreateIssue(context, userID, issue); err != nil {
		return nil, err
	}

	issues, err := service.repository.ListIssues(context, userID, collectionID)
	if err != nil {
		return nil, err
	}
	SortIssues(issues)

	service.logger.InfoContext(context, "issue_added",
		slog.String("collection_id", collectionID),
		slog.String("issue_number", issue.IssueNumber),
	)
	return issues, nil
}

// ToggleOwned flips the owned flag of exactly one issue.
func (service *Service) ToggleOwned(context context.Context, userID, issueID string) (*Issue, error) {
	issue, err := service.repository.ToggleOwned(context, userID, issueID)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "issue_owned_toggled",
		slog.String("issue_id", issueID),
		slog.Bool("is_owned", issue.IsOwned),
	)
	return issue, nil
}

// RateIssue sets the condition rating (1..5) or clears it with nil.
// The rating does not depend on whether the issue is owned.
func (service *Service) RateIssue(context context.Context, userID, issueID string, rating *int) (*Issue, error) {
	validator := &validate.Validator{}
	if err := validator.OptionalRange(FieldRating, rating, MinRating, MaxRating).Err(); err != nil {
		return nil, err
	}

	issue, err := service.repository.SetRating(context, userID, issueID, rating)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "issue_rated", slog.String("issue_id", issueID))
	return issue, nil
}

// # Helpers

func validateCollection(collection *Collection) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldTitle, collection.Title).
		MaxLen(FieldTitle, collection.Title, MaxTitleLength).
		MaxLen(FieldPublisher, collection.Publisher, MaxPublisherLength).
		OptionalRange(FieldStartYear, collection.StartYear, MinStartYear, MaxStartYear).
		OptionalURL(FieldCoverURL, collection.CoverURL)

	return validator.Err()
}

func normalizePublisher(publisher *string) string {
	if publisher == nil || strings.TrimSpace(*publisher) == "" {
		return constants.UnknownPublisher
	}
	return strings.TrimSpace(*publisher)
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
