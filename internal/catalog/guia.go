// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/taibuivan/gibiteca/internal/platform/constants"
)

// GuiaName identifies the Guia dos Quadrinhos provider.
const GuiaName = "guia"

// GuiaOptions configures [NewGuia].
type GuiaOptions struct {
	BaseURL   string
	UserAgent string
}

// Guia implements [Provider] by reading the Guia dos Quadrinhos search page.
// The site has no issue listing, so ResolveIssues always returns an empty list.
type Guia struct {
	base      *url.URL
	origin    string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

// NewGuia builds the provider.
func NewGuia(opts GuiaOptions, client *http.Client, logger *slog.Logger) (*Guia, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("catalog: invalid guia base URL %q", opts.BaseURL)
	}
	return &Guia{base: base, origin: origin(base), userAgent: opts.UserAgent, client: client, logger: logger}, nil
}

// Name implements [Provider].
func (provider *Guia) Name() string { return GuiaName }

// SearchSeries fetches /search/title/{query} and scrapes the result list.
func (provider *Guia) SearchSeries(ctx context.Context, query string) ([]SearchResult, error) {
	endpoint := provider.base.JoinPath("search", "title", url.PathEscape(query)).String()

	header := http.Header{}
	if provider.userAgent != "" {
		header.Set("User-Agent", provider.userAgent)
	}

	status, body, err := fetch(ctx, provider.client, endpoint, header)
	if err != nil {
		return nil, searchFailed(GuiaName, "request failed", err)
	}
	if !isSuccess(status) {
		return nil, searchFailed(GuiaName, fmt.Sprintf("unexpected status %d", status), nil)
	}

	results, err := parseGuiaSearch(provider.origin, body)
	if err != nil {
		return nil, searchFailed(GuiaName, "invalid search page", err)
	}

	provider.logger.DebugContext(ctx, "guia_search_parsed", slog.Int("results", len(results)))
	return truncate(results), nil
}

// ResolveIssues implements [Provider]; the site exposes no issue list.
func (provider *Guia) ResolveIssues(ctx context.Context, providerRef string) ([]IssueRecord, error) {
	return []IssueRecord{}, nil
}

type guiaTitle struct {
	title string
	link  string
}

/*
parseGuiaSearch extracts results from a search page.

Titles come from the first anchor inside each div whose class mentions
"title_search"; covers come from every img whose class mentions "thumb". The two lists are paired by
position and the longer one is cut to the shorter.
*/
func parseGuiaSearch(siteOrigin string, page []byte) ([]SearchResult, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var titles []guiaTitle
	var covers []string

	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch {
			case node.DataAtom == atom.Div && strings.Contains(attr(node, "class"), "title_search"):
				if anchor := firstAnchor(node); anchor != nil {
					titles = append(titles, guiaTitle{
						title: strings.Join(strings.Fields(textContent(anchor)), " "),
						link:  attr(anchor, "href"),
					})
				}
			case node.DataAtom == atom.Img && strings.Contains(attr(node, "class"), "thumb"):
				if src := attr(node, "src"); src != "" {
					covers = append(covers, src)
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	count := min(len(titles), len(covers))
	results := make([]SearchResult, 0, count)
	for i := 0; i < count; i++ {
		link := ""
		if resolved := absoluteURL(siteOrigin, titles[i].link); resolved != nil {
			link = *resolved
		}
		results = append(results, SearchResult{
			Title:       titles[i].title,
			Publisher:   constants.UnknownPublisher,
			Year:        constants.UnknownYear,
			IssueCount:  0,
			CoverURL:    absoluteURL(siteOrigin, covers[i]),
			Description: "",
			Link:        link,
			ProviderRef: link,
			Provider:    GuiaName,
		})
	}
	return results, nil
}

func attr(node *html.Node, key string) string {
	for _, attribute := range node.Attr {
		if attribute.Key == key {
			return strings.TrimSpace(attribute.Val)
		}
	}
	return ""
}

func firstAnchor(node *html.Node) *html.Node {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == atom.A && attr(child, "href") != "" {
			return child
		}
		if found := firstAnchor(child); found != nil {
			return found
		}
	}
	return nil
}

func textContent(node *html.Node) string {
	var builder strings.Builder
	var collect func(*html.Node)
	collect = func(current *html.Node) {
		if current.Type == html.TextNode {
			builder.WriteString(current.Data)
		}
		for child := current.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(node)
	return builder.String()
}
