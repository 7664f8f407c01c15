// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/gibiteca/internal/platform/validate"
)

// Query field names reported in validation details.
const (
	FieldProvider = "provider"
	FieldQuery    = "q"
	FieldRef      = "ref"
)

// Service dispatches catalog requests to the registered providers.
type Service struct {
	registry *Registry
	logger   *slog.Logger
}

// NewService constructs a [Service] over registry.
func NewService(registry *Registry, logger *slog.Logger) *Service {
	return &Service{registry: registry, logger: logger}
}

// Providers lists the names of the configured providers.
func (service *Service) Providers() []string {
	return service.registry.Names()
}

func (service *Service) provider(name string) (Provider, error) {
	provider, ok := service.registry.Get(name)
	if !ok {
		return nil, UnknownProvider(name)
	}
	return provider, nil
}

/*
Search runs query against the named provider.

A blank query is rejected before any network call. Every returned result
carries the provider name so it can be posted back to the importer as is.

Returns:
  - []SearchResult: At most [PageSize] results, never nil
  - err: ValidationError, unknown provider, or a [*Error] of kind [ErrSearchFailed]
*/
func (service *Service) Search(ctx context.Context, providerName, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)

	validator := &validate.Validator{}
	validator.Required(FieldQuery, query).MaxLen(FieldQuery, query, 200)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	provider, err := service.provider(providerName)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	results, err := provider.SearchSeries(ctx, query)
	if err != nil {
		service.logger.WarnContext(ctx, "catalog_search_failed",
			slog.String("provider", provider.Name()),
			slog.String("query", query),
			slog.Any("error", err),
		)
		return nil, err
	}

	for i := range results {
		results[i].Provider = provider.Name()
	}
	if results == nil {
		results = []SearchResult{}
	}

	service.logger.InfoContext(ctx, "catalog_search_completed",
		slog.String("provider", provider.Name()),
		slog.Int("results", len(results)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return results, nil
}

// ResolveIssues lists the issues of a catalog series in provider order.
func (service *Service) ResolveIssues(ctx context.Context, providerName, providerRef string) ([]IssueRecord, error) {
	providerRef = strings.TrimSpace(providerRef)

	validator := &validate.Validator{}
	validator.Required(FieldRef, providerRef)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	provider, err := service.provider(providerName)
	if err != nil {
		return nil, err
	}

	records, err := provider.ResolveIssues(ctx, providerRef)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []IssueRecord{}
	}

	service.logger.DebugContext(ctx, "catalog_issues_resolved",
		slog.String("provider", provider.Name()),
		slog.Int("issues", len(records)),
	)
	return records, nil
}
