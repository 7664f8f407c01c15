// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/gibiteca/internal/platform/constants"
	"github.com/taibuivan/gibiteca/pkg/convert"
)

const (
	// ComicVineName identifies the Comic Vine provider.
	ComicVineName = "comicvine"

	// deepCoverConcurrency bounds the per-issue requests of a deep resolve.
	deepCoverConcurrency = 4

	comicVineOK       = "OK"
	comicVineNotFound = "Object Not Found"
)

// # Wire Format

type comicVineEnvelope struct {
	Error   string          `json:"error"`
	Results json.RawMessage `json:"results"`
}

type comicVineImage struct {
	MediumURL string `json:"medium_url"`
	SmallURL  string `json:"small_url"`
}

type comicVinePublisher struct {
	Name string `json:"name"`
}

type comicVineVolume struct {
	Name          string              `json:"name"`
	Publisher     *comicVinePublisher `json:"publisher"`
	StartYear     convert.FlexString  `json:"start_year"`
	CountOfIssues convert.FlexString  `json:"count_of_issues"`
	Image         *comicVineImage     `json:"image"`
	Deck          string              `json:"deck"`
	Description   string              `json:"description"`
	SiteDetailURL string              `json:"site_detail_url"`
	APIDetailURL  string              `json:"api_detail_url"`
}

type comicVineIssue struct {
	IssueNumber  convert.FlexString `json:"issue_number"`
	Name         string             `json:"name"`
	Image        *comicVineImage    `json:"image"`
	APIDetailURL string             `json:"api_detail_url"`
}

type comicVineVolumeDetail struct {
	Image  *comicVineImage  `json:"image"`
	Issues []comicVineIssue `json:"issues"`
}

// # Provider

// ComicVineOptions configures [NewComicVine].
type ComicVineOptions struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	DeepCovers bool
}

// ComicVine implements [Provider] against the Comic Vine API.
type ComicVine struct {
	base      *url.URL
	apiKey    string
	userAgent string
	deep      bool
	client    *http.Client
	logger    *slog.Logger
}

// NewComicVine validates opts and builds the provider.
func NewComicVine(opts ComicVineOptions, client *http.Client, logger *slog.Logger) (*ComicVine, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("catalog: comicvine requires an API key")
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("catalog: invalid comicvine base URL %q", opts.BaseURL)
	}

	return &ComicVine{
		base:      base,
		apiKey:    opts.APIKey,
		userAgent: opts.UserAgent,
		deep:      opts.DeepCovers,
		client:    client,
		logger:    logger,
	}, nil
}

// Name implements [Provider].
func (provider *ComicVine) Name() string { return ComicVineName }

func (provider *ComicVine) header() http.Header {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if provider.userAgent != "" {
		header.Set("User-Agent", provider.userAgent)
	}
	return header
}

/*
SearchSeries queries the volume search endpoint.

Any transport error, non-2xx status, undecodable body or an envelope error
other than "OK" is reported as [ErrSearchFailed].
*/
func (provider *ComicVine) SearchSeries(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("api_key", provider.apiKey)
	params.Set("query", query)
	params.Set("format", "json")
	params.Set("resources", "volume")
	params.Set("limit", fmt.Sprint(PageSize))

	endpoint := provider.base.JoinPath("search").String() + "/?" + params.Encode()

	status, body, err := fetch(ctx, provider.client, endpoint, provider.header())
	if err != nil {
		return nil, searchFailed(ComicVineName, "request failed", err)
	}
	if !isSuccess(status) {
		return nil, searchFailed(ComicVineName, fmt.Sprintf("unexpected status %d", status), nil)
	}

	var envelope comicVineEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, searchFailed(ComicVineName, "invalid response body", err)
	}
	if envelope.Error != comicVineOK {
		return nil, searchFailed(ComicVineName, envelope.Error, nil)
	}

	var volumes []comicVineVolume
	if len(envelope.Results) > 0 && !isJSONNull(envelope.Results) {
		if err := json.Unmarshal(envelope.Results, &volumes); err != nil {
			return nil, searchFailed(ComicVineName, "invalid results", err)
		}
	}

	results := make([]SearchResult, 0, len(volumes))
	for _, volume := range truncate(volumes) {
		results = append(results, normalizeComicVineVolume(volume))
	}
	return results, nil
}

// normalizeComicVineVolume maps a volume onto [SearchResult]. It is pure.
func normalizeComicVineVolume(volume comicVineVolume) SearchResult {
	publisher := ""
	if volume.Publisher != nil {
		publisher = volume.Publisher.Name
	}

	year := volume.StartYear.String()
	if year == "" {
		year = constants.UnknownYear
	}

	return SearchResult{
		Title:       strings.TrimSpace(volume.Name),
		Publisher:   firstNonEmpty(publisher, constants.UnknownPublisher),
		Year:        year,
		IssueCount:  volume.CountOfIssues.Int(0),
		CoverURL:    comicVineCover(volume.Image),
		Description: firstNonEmpty(volume.Deck, volume.Description),
		Link:        volume.SiteDetailURL,
		ProviderRef: volume.APIDetailURL,
		Provider:    ComicVineName,
	}
}

func comicVineCover(image *comicVineImage) *string {
	if image == nil {
		return nil
	}
	return stringOrNil(firstNonEmpty(image.MediumURL, image.SmallURL))
}

/*
ResolveIssues loads the issue list of the volume at providerRef.

providerRef must be a volume api_detail_url on the configured API host.
In deep mode each issue is fetched individually, bounded by
deepCoverConcurrency; a failed issue keeps its embedded data and the series
cover instead of failing the whole call. Output order always matches the
volume's issue order.
*/
func (provider *ComicVine) ResolveIssues(ctx context.Context, providerRef string) ([]IssueRecord, error) {
	ref, err := url.Parse(strings.TrimSpace(providerRef))
	if err != nil || ref.Host == "" || !strings.EqualFold(ref.Host, provider.base.Host) {
		return nil, seriesNotFound(ComicVineName, providerRef)
	}

	var detail comicVineVolumeDetail
	found, err := provider.getDetail(ctx, ref, "issues,image", &detail)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, seriesNotFound(ComicVineName, providerRef)
	}

	seriesCover := comicVineCover(detail.Image)
	records := make([]IssueRecord, len(detail.Issues))
	for i, issue := range detail.Issues {
		records[i] = comicVineRecord(issue, seriesCover)
	}

	if !provider.deep || len(detail.Issues) == 0 {
		return records, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(deepCoverConcurrency)

	for i, issue := range detail.Issues {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			enriched, ok := provider.fetchIssue(groupCtx, issue)
			if ok {
				records[i] = comicVineRecord(enriched, seriesCover)
			}
			return nil
		})
	}

	// A failed issue fetch keeps its embedded record, so only cancellation
	// reaches Wait.
	if err := group.Wait(); err != nil {
		return nil, fetchFailed(ComicVineName, "issue resolution cancelled", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fetchFailed(ComicVineName, "issue resolution cancelled", err)
	}
	return records, nil
}

// fetchIssue loads a single issue detail for deep mode.
// It reports false when the embedded data should be kept.
func (provider *ComicVine) fetchIssue(ctx context.Context, issue comicVineIssue) (comicVineIssue, bool) {
	ref, err := url.Parse(issue.APIDetailURL)
	if err != nil || ref.Host == "" || !strings.EqualFold(ref.Host, provider.base.Host) {
		return issue, false
	}

	var detail comicVineIssue
	found, err := provider.getDetail(ctx, ref, "issue_number,name,image", &detail)
	if err != nil || !found {
		provider.logger.DebugContext(ctx, "comicvine_issue_detail_degraded",
			slog.String("issue_ref", issue.APIDetailURL),
			slog.Any("error", err),
		)
		return issue, false
	}

	if detail.IssueNumber.String() == "" {
		detail.IssueNumber = issue.IssueNumber
	}
	if strings.TrimSpace(detail.Name) == "" {
		detail.Name = issue.Name
	}
	detail.APIDetailURL = issue.APIDetailURL
	return detail, true
}

// getDetail GETs a detail resource into target. found is false for
// "Object Not Found" responses; other failures are [ErrFetchFailed].
func (provider *ComicVine) getDetail(ctx context.Context, ref *url.URL, fields string, target any) (bool, error) {
	params := ref.Query()
	params.Set("api_key", provider.apiKey)
	params.Set("format", "json")
	params.Set("field_list", fields)

	endpoint := *ref
	endpoint.RawQuery = params.Encode()

	status, body, err := fetch(ctx, provider.client, endpoint.String(), provider.header())
	if err != nil {
		return false, fetchFailed(ComicVineName, "request failed", err)
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if !isSuccess(status) {
		return false, fetchFailed(ComicVineName, fmt.Sprintf("unexpected status %d", status), nil)
	}

	var envelope comicVineEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false, fetchFailed(ComicVineName, "invalid response body", err)
	}

	switch envelope.Error {
	case comicVineOK:
	case comicVineNotFound:
		return false, nil
	default:
		return false, fetchFailed(ComicVineName, envelope.Error, nil)
	}

	// Missing detail objects come back as null or an empty array.
	trimmed := bytes.TrimSpace(envelope.Results)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false, nil
	}
	if err := json.Unmarshal(trimmed, target); err != nil {
		return false, fetchFailed(ComicVineName, "invalid results", err)
	}
	return true, nil
}

func comicVineRecord(issue comicVineIssue, seriesCover *string) IssueRecord {
	number := issue.IssueNumber.String()
	if number == "" {
		number = constants.UnknownIssueNumber
	}

	cover := comicVineCover(issue.Image)
	if cover == nil {
		cover = seriesCover
	}

	return IssueRecord{
		Number:           number,
		Name:             stringOrNil(issue.Name),
		CoverURL:         cover,
		ProviderIssueRef: issue.APIDetailURL,
	}
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
