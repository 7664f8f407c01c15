// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetronStub(t *testing.T, mux *http.ServeMux, username string) (*Metron, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	provider, err := NewMetron(MetronOptions{
		BaseURL:  srv.URL + "/api",
		Username: username,
		Password: "secret",
	}, srv.Client(), discardLogger())
	require.NoError(t, err)
	return provider, srv
}

func TestMetron_SearchSeries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/series/{$}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Saga", r.URL.Query().Get("name"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "reader", user)
		assert.Equal(t, "secret", pass)

		fmt.Fprint(w, `{"count":2,"results":[
			{"id":7,"name":"Saga","display_name":"Saga (2012)","year_began":2012,"issue_count":"66",
			 "image":"/media/series/7.jpg","desc":"Space opera","publisher":{"name":"Image"}},
			{"id":8,"name":"Untitled","image":"https://static.metron.cloud/8.jpg"}
		]}`)
	})
	provider, srv := newMetronStub(t, mux, "reader")

	results, err := provider.SearchSeries(t.Context(), "Saga")
	require.NoError(t, err)
	require.Len(t, results, 2)

	saga := results[0]
	assert.Equal(t, "Saga (2012)", saga.Title)
	assert.Equal(t, "Image", saga.Publisher)
	assert.Equal(t, "2012", saga.Year)
	assert.Equal(t, 66, saga.IssueCount)
	assert.Equal(t, srv.URL+"/media/series/7.jpg", *saga.CoverURL)
	assert.Equal(t, "Space opera", saga.Description)
	assert.Equal(t, srv.URL+"/series/7/", saga.Link)
	assert.Equal(t, "7", saga.ProviderRef)

	untitled := results[1]
	assert.Equal(t, "Untitled", untitled.Title)
	assert.Equal(t, "Desconhecido", untitled.Publisher)
	assert.Equal(t, "N/A", untitled.Year)
	assert.Equal(t, "https://static.metron.cloud/8.jpg", *untitled.CoverURL)
}

func TestMetron_SearchSeries_Truncates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/series/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":25,"results":[`)
		for i := 1; i <= 25; i++ {
			if i > 1 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":%d,"name":"S%d"}`, i, i)
		}
		fmt.Fprint(w, `]}`)
	})
	provider, _ := newMetronStub(t, mux, "")

	results, err := provider.SearchSeries(t.Context(), "S")
	require.NoError(t, err)
	assert.Len(t, results, PageSize)
}

func TestMetron_SearchSeries_Failure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/series/{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.False(t, ok)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	provider, _ := newMetronStub(t, mux, "")

	_, err := provider.SearchSeries(t.Context(), "x")
	assert.ErrorIs(t, err, ErrSearchFailed)
}

/*
TestMetron_ResolveIssues_FallbackCoverOnce checks that the series detail is
fetched a single time however many issues lack an image.
*/
func TestMetron_ResolveIssues_FallbackCoverOnce(t *testing.T) {
	var detailCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issue/{$}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("series_id"))
		fmt.Fprint(w, `{"count":3,"results":[
			{"id":101,"number":"1","issue_name":"Sunrise","image":"https://static.metron.cloud/101.jpg"},
			{"id":102,"number":2,"issue_name":"","image":""},
			{"id":103,"number":null}
		]}`)
	})
	mux.HandleFunc("GET /api/series/{id}/", func(w http.ResponseWriter, r *http.Request) {
		detailCalls.Add(1)
		assert.Equal(t, "7", r.PathValue("id"))
		fmt.Fprint(w, `{"id":7,"name":"Saga","image":"/media/series/7.jpg"}`)
	})
	provider, srv := newMetronStub(t, mux, "")

	records, err := provider.ResolveIssues(t.Context(), "7")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int32(1), detailCalls.Load())

	assert.Equal(t, "1", records[0].Number)
	assert.Equal(t, "Sunrise", *records[0].Name)
	assert.Equal(t, "https://static.metron.cloud/101.jpg", *records[0].CoverURL)
	assert.Equal(t, "101", records[0].ProviderIssueRef)

	assert.Equal(t, "2", records[1].Number)
	assert.Nil(t, records[1].Name)
	assert.Equal(t, srv.URL+"/media/series/7.jpg", *records[1].CoverURL)

	assert.Equal(t, "N/A", records[2].Number)
}

func TestMetron_ResolveIssues_NoFallbackNeeded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issue/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":1,"results":[{"id":1,"number":"1","image":"/a.jpg"}]}`)
	})
	mux.HandleFunc("GET /api/series/{id}/", func(w http.ResponseWriter, r *http.Request) {
		t.Error("series detail must not be requested")
	})
	provider, _ := newMetronStub(t, mux, "")

	records, err := provider.ResolveIssues(t.Context(), "3")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestMetron_ResolveIssues_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issue/{$}", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("series_id") {
		case "404":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	provider, _ := newMetronStub(t, mux, "")

	_, err := provider.ResolveIssues(t.Context(), "abc")
	assert.ErrorIs(t, err, ErrSeriesNotFound)

	_, err = provider.ResolveIssues(t.Context(), "404")
	assert.ErrorIs(t, err, ErrSeriesNotFound)

	_, err = provider.ResolveIssues(t.Context(), "5")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestMetron_ResolveIssues_EmptyPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issue/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":0,"next":null,"results":[]}`)
	})
	mux.HandleFunc("GET /api/series/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "999" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"id":7,"name":"Valentina"}`)
	})
	provider, _ := newMetronStub(t, mux, "")

	_, err := provider.ResolveIssues(t.Context(), "999")
	assert.ErrorIs(t, err, ErrSeriesNotFound, "unknown series")

	records, err := provider.ResolveIssues(t.Context(), "7")
	require.NoError(t, err)
	assert.Empty(t, records, "known series without issues")
	assert.NotNil(t, records)
}
