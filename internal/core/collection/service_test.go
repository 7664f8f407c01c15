// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package collection_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gibiteca/internal/core/collection"
	"github.com/taibuivan/gibiteca/internal/platform/apperr"
	"github.com/taibuivan/gibiteca/pkg/pointer"
	"github.com/taibuivan/gibiteca/pkg/uuid"
)

const (
	alice = "0190a0a0-0000-7000-8000-00000000000a"
	bob   = "0190a0a0-0000-7000-8000-00000000000b"
)

func newService(repo *memoryRepository) *collection.Service {
	return collection.NewService(repo, &memoryBlobStore{}, nil, discardLogger())
}

func mustCreate(t *testing.T, service *collection.Service, userID, title string) *collection.Collection {
	t.Helper()
	created, err := service.CreateCollection(t.Context(), userID, collection.CreateInput{Title: title})
	require.NoError(t, err)
	return created
}

func TestService_CreateCollection(t *testing.T) {
	service := newService(newMemoryRepository())

	created, err := service.CreateCollection(t.Context(), alice, collection.CreateInput{
		Title:     "  Turma da Mônica ",
		Publisher: pointer.To("   "),
		StartYear: pointer.To(1970),
	})
	require.NoError(t, err)
	assert.True(t, uuid.Valid(created.ID))
	assert.Equal(t, "Turma da Mônica", created.Title)
	assert.Equal(t, "Desconhecido", created.Publisher)
	assert.Equal(t, 1970, *created.StartYear)
	assert.Equal(t, alice, created.UserID)
}

func TestService_CreateCollection_Validation(t *testing.T) {
	service := newService(newMemoryRepository())

	tests := []struct {
		name  string
		input collection.CreateInput
		field string
	}{
		{"blank title", collection.CreateInput{Title: "  "}, collection.FieldTitle},
		{"long title", collection.CreateInput{Title: strings.Repeat("x", collection.MaxTitleLength+1)}, collection.FieldTitle},
		{"year too old", collection.CreateInput{Title: "X", StartYear: pointer.To(1799)}, collection.FieldStartYear},
		{"bad cover", collection.CreateInput{Title: "X", CoverURL: pointer.To("ftp://covers/x.jpg")}, collection.FieldCoverURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateCollection(t.Context(), alice, tt.input)
			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
			require.NotEmpty(t, appErr.Details)
			assert.Equal(t, tt.field, appErr.Details[0].Field)
		})
	}
}

func TestService_ListCollections_Filter(t *testing.T) {
	service := newService(newMemoryRepository())

	mustCreate(t, service, alice, "Turma da Mônica")
	_, err := service.CreateCollection(t.Context(), alice, collection.CreateInput{Title: "Sandman", Publisher: pointer.To("Vertigo")})
	require.NoError(t, err)
	mustCreate(t, service, bob, "Monica Jovem")

	all, err := service.ListCollections(t.Context(), alice, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Sandman", all[0].Title, "newest first")

	byTitle, err := service.ListCollections(t.Context(), alice, "MONICA")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "Turma da Mônica", byTitle[0].Title)

	byPublisher, err := service.ListCollections(t.Context(), alice, "vert")
	require.NoError(t, err)
	require.Len(t, byPublisher, 1)
	assert.Equal(t, "Sandman", byPublisher[0].Title)
}

func TestService_CollectionsAreUserScoped(t *testing.T) {
	service := newService(newMemoryRepository())
	created := mustCreate(t, service, alice, "Private")

	_, err := service.GetCollection(t.Context(), bob, created.ID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = service.UpdateCollection(t.Context(), bob, created.ID, collection.UpdateInput{Title: pointer.To("Mine")})
	assert.True(t, apperr.IsNotFound(err))

	assert.True(t, apperr.IsNotFound(service.DeleteCollection(t.Context(), bob, created.ID)))

	_, err = service.AddIssue(t.Context(), bob, created.ID, collection.IssueInput{IssueNumber: "#1"})
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_UpdateCollection(t *testing.T) {
	service := newService(newMemoryRepository())
	created := mustCreate(t, service, alice, "Draft")

	updated, err := service.UpdateCollection(t.Context(), alice, created.ID, collection.UpdateInput{
		Title:     pointer.To("Watchmen"),
		StartYear: pointer.To(1986),
	})
	require.NoError(t, err)
	assert.Equal(t, "Watchmen", updated.Title)
	assert.Equal(t, "Desconhecido", updated.Publisher)
	assert.Equal(t, 1986, *updated.StartYear)

	_, err = service.UpdateCollection(t.Context(), alice, created.ID, collection.UpdateInput{Title: pointer.To("")})
	assert.Error(t, err)
}

func TestService_DeleteCollection_CascadesIssues(t *testing.T) {
	repo := newMemoryRepository()
	service := newService(repo)
	created := mustCreate(t, service, alice, "Gone")

	_, err := service.AddIssue(t.Context(), alice, created.ID, collection.IssueInput{IssueNumber: "#1"})
	require.NoError(t, err)

	require.NoError(t, service.DeleteCollection(t.Context(), alice, created.ID))
	assert.Empty(t, repo.issues)

	_, err = service.GetCollection(t.Context(), alice, created.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_AddIssue_ReturnsSortedList(t *testing.T) {
	service := newService(newMemoryRepository())
	created := mustCreate(t, service, alice, "Batman")

	var issues []*collection.Issue
	for _, number := range []string{"#10", "#2", "Annual 1", "#1"} {
		var err error
		issues, err = service.AddIssue(t.Context(), alice, created.ID, collection.IssueInput{IssueNumber: number})
		require.NoError(t, err)
	}

	numbers := make([]string, 0, len(issues))
	for _, issue := range issues {
		numbers = append(numbers, issue.IssueNumber)
		assert.False(t, issue.IsOwned)
		assert.Contains(t, collection.CoverColors, issue.CoverColor)
	}
	assert.Equal(t, []string{"#1", "Annual 1", "#2", "#10"}, numbers)

	_, err := service.AddIssue(t.Context(), alice, created.ID, collection.IssueInput{IssueNumber: " "})
	assert.Error(t, err)
}

/*
TestService_ToggleOwned_Isolation flips one issue and checks that no other
issue in the same or another collection changes.
*/
func TestService_ToggleOwned_Isolation(t *testing.T) {
	service := newService(newMemoryRepository())
	first := mustCreate(t, service, alice, "First")
	second := mustCreate(t, service, alice, "Second")

	firstIssues, err := service.AddIssue(t.Context(), alice, first.ID, collection.IssueInput{IssueNumber: "#1"})
	require.NoError(t, err)
	firstIssues, err = service.AddIssue(t.Context(), alice, first.ID, collection.IssueInput{IssueNumber: "#2"})
	require.NoError(t, err)
	_, err = service.AddIssue(t.Context(), alice, second.ID, collection.IssueInput{IssueNumber: "#1"})
	require.NoError(t, err)

	toggled, err := service.ToggleOwned(t.Context(), alice, firstIssues[0].ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsOwned)

	detail, err := service.GetCollection(t.Context(), alice, first.ID)
	require.NoError(t, err)
	assert.True(t, detail.Issues[0].IsOwned)
	assert.False(t, detail.Issues[1].IsOwned)
	assert.Equal(t, 1, detail.OwnedCount)
	assert.Equal(t, 2, detail.IssueCount)

	other, err := service.GetCollection(t.Context(), alice, second.ID)
	require.NoError(t, err)
	assert.False(t, other.Issues[0].IsOwned)

	_, err = service.ToggleOwned(t.Context(), bob, firstIssues[0].ID)
	assert.True(t, apperr.IsNotFound(err))

	toggled, err = service.ToggleOwned(t.Context(), alice, firstIssues[0].ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsOwned)
}

func TestService_RateIssue(t *testing.T) {
	service := newService(newMemoryRepository())
	created := mustCreate(t, service, alice, "Rated")
	issues, err := service.AddIssue(t.Context(), alice, created.ID, collection.IssueInput{IssueNumber: "#1"})
	require.NoError(t, err)
	issueID := issues[0].ID

	// Rating an unowned issue is allowed.
	rated, err := service.RateIssue(t.Context(), alice, issueID, pointer.To(4))
	require.NoError(t, err)
	assert.False(t, rated.IsOwned)
	assert.Equal(t, 4, *rated.ConditionRating)

	for _, invalid := range []int{0, 6, -1} {
		_, err := service.RateIssue(t.Context(), alice, issueID, pointer.To(invalid))
		assert.Error(t, err, invalid)
	}

	cleared, err := service.RateIssue(t.Context(), alice, issueID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.ConditionRating)
}

func TestService_UploadCover(t *testing.T) {
	repo := newMemoryRepository()
	store := &memoryBlobStore{}
	service := collection.NewService(repo, store, nil, discardLogger())
	created := mustCreate(t, service, alice, "Turma da Mônica")

	updated, err := service.UploadCover(t.Context(), alice, created.ID, collection.CoverUpload{
		Filename:    "capa.PNG",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("\x89PNG"),
	})
	require.NoError(t, err)

	require.Len(t, store.keys, 1)
	key := store.keys[0]
	assert.True(t, strings.HasPrefix(key, alice+"/turma-da-monica-"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "\x89PNG", string(store.data[key]))

	require.NotNil(t, updated.CoverURL)
	assert.Equal(t, "https://cdn.gibiteca.app/covers/"+key, *updated.CoverURL)

	detail, err := service.GetCollection(t.Context(), alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated.CoverURL, *detail.CoverURL)
}

func TestService_UploadCover_Rejects(t *testing.T) {
	store := &memoryBlobStore{}
	service := collection.NewService(newMemoryRepository(), store, nil, discardLogger())
	created := mustCreate(t, service, alice, "X")

	_, err := service.UploadCover(t.Context(), alice, created.ID, collection.CoverUpload{ContentType: "text/plain", Size: 1, Body: strings.NewReader("x")})
	assert.Error(t, err)

	_, err = service.UploadCover(t.Context(), alice, created.ID, collection.CoverUpload{ContentType: "image/jpeg", Size: collection.MaxCoverBytes + 1, Body: strings.NewReader("x")})
	assert.Error(t, err)

	_, err = service.UploadCover(t.Context(), bob, created.ID, collection.CoverUpload{ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x")})
	assert.True(t, apperr.IsNotFound(err))

	store.err = errStorageDown
	_, err = service.UploadCover(t.Context(), alice, created.ID, collection.CoverUpload{ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, errStorageDown)

	assert.Empty(t, store.keys)
}
