// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gibiteca/internal/platform/blob"
)

/*
TestFileStore_Put verifies the object lands under root and the URL uses the public prefix.
*/
func TestFileStore_Put(t *testing.T) {
	root := t.TempDir()
	store, err := blob.NewFileStore(root, "http://localhost:8080/covers/")
	require.NoError(t, err)

	publicURL, err := store.Put(context.Background(), "user-1/batman-abc.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/covers/user-1/batman-abc.jpg", publicURL)

	content, err := os.ReadFile(filepath.Join(root, "user-1", "batman-abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(content))

	leftovers, err := filepath.Glob(filepath.Join(root, "user-1", ".upload-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

/*
TestFileStore_RejectsTraversal verifies keys cannot escape the root.
*/
func TestFileStore_RejectsTraversal(t *testing.T) {
	store, err := blob.NewFileStore(t.TempDir(), "http://localhost/covers")
	require.NoError(t, err)

	for _, key := range []string{"../etc/passwd", "a/../../b", "", "/abs.png", "a//b.png"} {
		_, err := store.Put(context.Background(), key, "image/png", strings.NewReader("x"))
		assert.ErrorIs(t, err, blob.ErrInvalidKey, key)
	}
}

func TestFileStore_CancelledContext(t *testing.T) {
	store, err := blob.NewFileStore(t.TempDir(), "http://localhost/covers")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, "u/a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

/*
TestFileStore_Handler verifies objects are served while directories stay hidden.
*/
func TestFileStore_Handler(t *testing.T) {
	root := t.TempDir()
	store, err := blob.NewFileStore(root, "http://localhost/covers")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "user-1/batman-abc.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "user-1", ".upload-123"), []byte("partial"), 0o644))

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/user-1/batman-abc.png", wantStatus: http.StatusOK},
		{path: "/user-1/", wantStatus: http.StatusNotFound},
		{path: "/", wantStatus: http.StatusNotFound},
		{path: "/user-1/.upload-123", wantStatus: http.StatusNotFound},
		{path: "/user-1/missing.png", wantStatus: http.StatusNotFound},
	}

	for _, tc := range tests {
		recorder := httptest.NewRecorder()
		store.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.wantStatus, recorder.Code, tc.path)
	}
}
