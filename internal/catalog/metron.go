// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/taibuivan/gibiteca/internal/platform/constants"
	"github.com/taibuivan/gibiteca/pkg/convert"
)

// MetronName identifies the Metron provider.
const MetronName = "metron"

// # Wire Format

type metronPublisher struct {
	Name string `json:"name"`
}

type metronSeries struct {
	ID          int                `json:"id"`
	Name        string             `json:"name"`
	DisplayName string             `json:"display_name"`
	YearBegan   convert.FlexString `json:"year_began"`
	IssueCount  convert.FlexString `json:"issue_count"`
	Image       string             `json:"image"`
	Desc        string             `json:"desc"`
	Publisher   *metronPublisher   `json:"publisher"`
}

type metronIssue struct {
	ID        int                `json:"id"`
	Number    convert.FlexString `json:"number"`
	IssueName string             `json:"issue_name"`
	Image     string             `json:"image"`
}

type metronPage[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// # Provider

// MetronOptions configures [NewMetron].
type MetronOptions struct {
	BaseURL   string
	Username  string
	Password  string
	UserAgent string
}

// Metron implements [Provider] against the Metron API.
type Metron struct {
	base      *url.URL
	origin    string
	username  string
	password  string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

// NewMetron builds the provider. Basic auth is sent only when a username is set.
func NewMetron(opts MetronOptions, client *http.Client, logger *slog.Logger) (*Metron, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("catalog: invalid metron base URL %q", opts.BaseURL)
	}

	return &Metron{
		base:      base,
		origin:    origin(base),
		username:  opts.Username,
		password:  opts.Password,
		userAgent: opts.UserAgent,
		client:    client,
		logger:    logger,
	}, nil
}

// Name implements [Provider].
func (provider *Metron) Name() string { return MetronName }

func (provider *Metron) get(ctx context.Context, endpoint string) (int, []byte, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if provider.userAgent != "" {
		header.Set("User-Agent", provider.userAgent)
	}
	if provider.username != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(provider.username + ":" + provider.password))
		header.Set("Authorization", "Basic "+credentials)
	}
	return fetch(ctx, provider.client, endpoint, header)
}

// SearchSeries queries /series/?name= and truncates the page to [PageSize].
func (provider *Metron) SearchSeries(ctx context.Context, query string) ([]SearchResult, error) {
	endpoint := provider.base.JoinPath("series").String() + "/?" + url.Values{"name": {query}}.Encode()

	status, body, err := provider.get(ctx, endpoint)
	if err != nil {
		return nil, searchFailed(MetronName, "request failed", err)
	}
	if !isSuccess(status) {
		return nil, searchFailed(MetronName, fmt.Sprintf("unexpected status %d", status), nil)
	}

	var page metronPage[metronSeries]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, searchFailed(MetronName, "invalid response body", err)
	}

	results := make([]SearchResult, 0, len(page.Results))
	for _, series := range truncate(page.Results) {
		results = append(results, normalizeMetronSeries(provider.origin, series))
	}
	return results, nil
}

// normalizeMetronSeries maps a series onto [SearchResult]. It is pure.
func normalizeMetronSeries(siteOrigin string, series metronSeries) SearchResult {
	publisher := ""
	if series.Publisher != nil {
		publisher = series.Publisher.Name
	}

	year := series.YearBegan.String()
	if year == "" {
		year = constants.UnknownYear
	}

	id := strconv.Itoa(series.ID)
	return SearchResult{
		Title:       firstNonEmpty(series.DisplayName, series.Name),
		Publisher:   firstNonEmpty(publisher, constants.UnknownPublisher),
		Year:        year,
		IssueCount:  series.IssueCount.Int(0),
		CoverURL:    absoluteURL(siteOrigin, series.Image),
		Description: strings.TrimSpace(series.Desc),
		Link:        fmt.Sprintf("%s/series/%s/", siteOrigin, id),
		ProviderRef: id,
		Provider:    MetronName,
	}
}

/*
ResolveIssues lists /issue/?series_id={ref}.

A non-numeric ref or a 404 is [ErrSeriesNotFound]. Only the first result page
is read; the "next" link is not followed. Metron answers an unknown series_id
with an empty page, so an empty page is checked against /series/{ref}/ and a
404 there is [ErrSeriesNotFound]. When some issue has no image the series
detail is fetched once for a fallback cover; that lookup failing only leaves
the cover empty.
*/
func (provider *Metron) ResolveIssues(ctx context.Context, providerRef string) ([]IssueRecord, error) {
	seriesID, err := strconv.Atoi(strings.TrimSpace(providerRef))
	if err != nil || seriesID <= 0 {
		return nil, seriesNotFound(MetronName, providerRef)
	}

	query := url.Values{"series_id": {strconv.Itoa(seriesID)}}
	endpoint := provider.base.JoinPath("issue").String() + "/?" + query.Encode()

	status, body, err := provider.get(ctx, endpoint)
	if err != nil {
		return nil, fetchFailed(MetronName, "request failed", err)
	}
	if status == http.StatusNotFound {
		return nil, seriesNotFound(MetronName, providerRef)
	}
	if !isSuccess(status) {
		return nil, fetchFailed(MetronName, fmt.Sprintf("unexpected status %d", status), nil)
	}

	var page metronPage[metronIssue]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fetchFailed(MetronName, "invalid response body", err)
	}

	if len(page.Results) == 0 {
		if provider.seriesMissing(ctx, seriesID) {
			return nil, seriesNotFound(MetronName, providerRef)
		}
		return []IssueRecord{}, nil
	}

	var seriesCover *string
	for _, issue := range page.Results {
		if strings.TrimSpace(issue.Image) == "" {
			seriesCover = provider.seriesCover(ctx, seriesID)
			break
		}
	}

	records := make([]IssueRecord, 0, len(page.Results))
	for _, issue := range page.Results {
		records = append(records, normalizeMetronIssue(provider.origin, issue, seriesCover))
	}
	return records, nil
}

func normalizeMetronIssue(siteOrigin string, issue metronIssue, seriesCover *string) IssueRecord {
	number := issue.Number.String()
	if number == "" {
		number = constants.UnknownIssueNumber
	}

	cover := absoluteURL(siteOrigin, issue.Image)
	if cover == nil {
		cover = seriesCover
	}

	return IssueRecord{
		Number:           number,
		Name:             stringOrNil(issue.IssueName),
		CoverURL:         cover,
		ProviderIssueRef: strconv.Itoa(issue.ID),
	}
}

// seriesMissing reports whether /series/{id}/ answers 404. Other failures count
// as present so an empty issue list is returned as is.
func (provider *Metron) seriesMissing(ctx context.Context, seriesID int) bool {
	endpoint := provider.base.JoinPath("series", strconv.Itoa(seriesID)).String() + "/"

	status, _, err := provider.get(ctx, endpoint)
	return err == nil && status == http.StatusNotFound
}

// seriesCover fetches /series/{id}/ for its image; any failure yields nil.
func (provider *Metron) seriesCover(ctx context.Context, seriesID int) *string {
	endpoint := provider.base.JoinPath("series", strconv.Itoa(seriesID)).String() + "/"

	status, body, err := provider.get(ctx, endpoint)
	if err != nil || !isSuccess(status) {
		provider.logger.DebugContext(ctx, "metron_series_cover_unavailable",
			slog.Int("series_id", seriesID),
			slog.Int("status", status),
			slog.Any("error", err),
		)
		return nil
	}

	var series metronSeries
	if err := json.Unmarshal(body, &series); err != nil {
		return nil
	}
	return absoluteURL(provider.origin, series.Image)
}
