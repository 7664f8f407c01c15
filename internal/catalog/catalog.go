// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog talks to external comic metadata sources.

Every source implements [Provider] and normalizes its own wire format into
[SearchResult] and [IssueRecord]. Provider-specific field names never leave
the provider's file; callers only see the canonical shapes below.

Providers:

  - comicvine: Comic Vine JSON API (requires an API key)
  - metron: Metron JSON API (optional basic auth)
  - guia: Guia dos Quadrinhos HTML search (no issue listing)
*/
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// PageSize is the maximum number of search results returned per query.
const PageSize = 20

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 8 << 20

// # Canonical Shapes

// SearchResult is one series match from a provider, already normalized.
type SearchResult struct {
	Title       string  `json:"title"`
	Publisher   string  `json:"publisher"`
	Year        string  `json:"year"`
	IssueCount  int     `json:"issue_count"`
	CoverURL    *string `json:"cover_url"`
	Description string  `json:"description"`
	Link        string  `json:"link"`
	ProviderRef string  `json:"provider_ref"`
	Provider    string  `json:"provider"`
}

// IssueRecord is a single issue of a catalog series, in provider order.
type IssueRecord struct {
	Number           string  `json:"number"`
	Name             *string `json:"name"`
	CoverURL         *string `json:"cover_url"`
	ProviderIssueRef string  `json:"provider_issue_ref"`
}

// Provider is implemented by each external catalog.
type Provider interface {
	// Name is the stable identifier used in requests ("comicvine").
	Name() string

	// SearchSeries returns at most [PageSize] normalized series matches.
	SearchSeries(ctx context.Context, query string) ([]SearchResult, error)

	// ResolveIssues lists the issues of the series identified by providerRef.
	ResolveIssues(ctx context.Context, providerRef string) ([]IssueRecord, error)
}

// # Registry

// Registry maps provider names to their implementation.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry registers providers in the given order; later duplicates win.
func NewRegistry(providers ...Provider) *Registry {
	registry := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, provider := range providers {
		if _, exists := registry.providers[provider.Name()]; !exists {
			registry.order = append(registry.order, provider.Name())
		}
		registry.providers[provider.Name()] = provider
	}
	return registry
}

// Get looks up a provider by name.
func (registry *Registry) Get(name string) (Provider, bool) {
	provider, ok := registry.providers[strings.ToLower(strings.TrimSpace(name))]
	return provider, ok
}

// Names returns the registered provider names in registration order.
func (registry *Registry) Names() []string {
	return append([]string(nil), registry.order...)
}

// # Shared HTTP plumbing

// fetch performs a GET and returns the status code and the (bounded) body.
// Transport failures are returned as err; status handling is left to the caller.
func fetch(ctx context.Context, client *http.Client, rawURL string, header http.Header) (int, []byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	for key, values := range header {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}

	response, err := client.Do(request)
	if err != nil {
		return 0, nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return response.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return response.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// origin returns "scheme://host" of base.
func origin(base *url.URL) string {
	return base.Scheme + "://" + base.Host
}

// absoluteURL resolves a possibly relative path against siteOrigin.
// Empty input yields nil.
func absoluteURL(siteOrigin, raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return &raw
	}
	if strings.HasPrefix(raw, "//") {
		scheme, _, _ := strings.Cut(siteOrigin, "://")
		resolved := scheme + ":" + raw
		return &resolved
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	resolved := siteOrigin + raw
	return &resolved
}

// firstNonEmpty returns the first value that is not blank after trimming.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func stringOrNil(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func truncate[T any](items []T) []T {
	if len(items) > PageSize {
		return items[:PageSize]
	}
	return items
}
