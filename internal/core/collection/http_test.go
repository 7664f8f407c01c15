// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package collection_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gibiteca/internal/core/collection"
	"github.com/taibuivan/gibiteca/internal/platform/ctxutil"
	"github.com/taibuivan/gibiteca/internal/platform/sec"
)

type envelope[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newRouter(service *collection.Service) http.Handler {
	handler := collection.NewHandler(service)
	router := chi.NewRouter()
	router.Mount("/collections", handler.Routes())
	router.Mount("/issues", handler.IssueRoutes())
	return router
}

func do(t *testing.T, router http.Handler, userID, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, target, reader)
	request.Header.Set("Content-Type", "application/json")
	if userID != "" {
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: userID, Role: string(sec.RoleMember)}))
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &out), recorder.Body.String())
	return out
}

func TestHandler_RequiresSession(t *testing.T) {
	router := newRouter(newService(newMemoryRepository()))

	recorder := do(t, router, "", http.MethodGet, "/collections/", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestHandler_CollectionLifecycle walks create, add issue, toggle, rate, list and delete over HTTP.
*/
func TestHandler_CollectionLifecycle(t *testing.T) {
	router := newRouter(newService(newMemoryRepository()))

	created := do(t, router, alice, http.MethodPost, "/collections/", map[string]any{"title": "Turma da Mônica", "start_year": 1970})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	collectionID := decode[collection.Collection](t, created).Data.ID

	added := do(t, router, alice, http.MethodPost, "/collections/"+collectionID+"/issues", map[string]any{"issue_number": "#2"})
	require.Equal(t, http.StatusCreated, added.Code)
	added = do(t, router, alice, http.MethodPost, "/collections/"+collectionID+"/issues", map[string]any{"issue_number": "#1", "name": "Estreia"})
	require.Equal(t, http.StatusCreated, added.Code)

	issues := decode[[]collection.Issue](t, added).Data
	require.Len(t, issues, 2)
	assert.Equal(t, "#1", issues[0].IssueNumber)
	issueID := issues[0].ID

	toggled := do(t, router, alice, http.MethodPost, "/issues/"+issueID+"/toggle-owned", nil)
	require.Equal(t, http.StatusOK, toggled.Code)
	assert.True(t, decode[collection.Issue](t, toggled).Data.IsOwned)

	rated := do(t, router, alice, http.MethodPut, "/issues/"+issueID+"/rating", map[string]any{"rating": 5})
	require.Equal(t, http.StatusOK, rated.Code)
	assert.Equal(t, 5, *decode[collection.Issue](t, rated).Data.ConditionRating)

	badRating := do(t, router, alice, http.MethodPut, "/issues/"+issueID+"/rating", map[string]any{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, badRating.Code)

	listed := do(t, router, alice, http.MethodGet, "/collections/?q=monica", nil)
	require.Equal(t, http.StatusOK, listed.Code)
	collections := decode[[]collection.Collection](t, listed).Data
	require.Len(t, collections, 1)
	assert.Equal(t, 2, collections[0].IssueCount)
	assert.Equal(t, 1, collections[0].OwnedCount)

	fetched := do(t, router, alice, http.MethodGet, "/collections/"+collectionID, nil)
	require.Equal(t, http.StatusOK, fetched.Code)
	detail := decode[collection.Detail](t, fetched).Data
	assert.Equal(t, "Turma da Mônica", detail.Title)
	assert.Len(t, detail.Issues, 2)

	foreign := do(t, router, bob, http.MethodGet, "/collections/"+collectionID, nil)
	assert.Equal(t, http.StatusNotFound, foreign.Code)

	deleted := do(t, router, alice, http.MethodDelete, "/collections/"+collectionID, nil)
	assert.Equal(t, http.StatusNoContent, deleted.Code)
}

func TestHandler_InvalidInput(t *testing.T) {
	router := newRouter(newService(newMemoryRepository()))

	missingTitle := do(t, router, alice, http.MethodPost, "/collections/", map[string]any{"publisher": "Panini"})
	assert.Equal(t, http.StatusBadRequest, missingTitle.Code)

	badID := do(t, router, alice, http.MethodGet, "/collections/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, badID.Code)

	request := httptest.NewRequest(http.MethodPost, "/collections/", strings.NewReader("{"))
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: alice}))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandler_Import(t *testing.T) {
	router := newRouter(newService(newMemoryRepository()))

	recorder := do(t, router, alice, http.MethodPost, "/collections/import", map[string]any{
		"provider": "guia",
		"result":   map[string]any{"title": "Cebolinha", "publisher": "Panini", "year": "N/A", "issue_count": 3},
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	detail := decode[collection.Detail](t, recorder).Data
	assert.Equal(t, "Panini", detail.Publisher)
	assert.Len(t, detail.Issues, 3)
}

func TestHandler_UploadCover(t *testing.T) {
	store := &memoryBlobStore{}
	router := newRouter(collection.NewService(newMemoryRepository(), store, nil, discardLogger()))

	created := do(t, router, alice, http.MethodPost, "/collections/", map[string]any{"title": "Capas"})
	require.Equal(t, http.StatusCreated, created.Code)
	collectionID := decode[collection.Collection](t, created).Data.ID

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "capa.png")
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	request := httptest.NewRequest(http.MethodPost, "/collections/"+collectionID+"/cover", &body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: alice}))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	updated := decode[collection.Collection](t, recorder).Data
	require.NotNil(t, updated.CoverURL)
	require.Len(t, store.keys, 1)
	assert.Equal(t, png, store.data[store.keys[0]])
}
