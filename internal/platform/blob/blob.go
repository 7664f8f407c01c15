// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob stores uploaded cover images and hands back their public URL.

The [Store] contract mirrors a bucket put: callers pick the object key and the
store decides where the bytes live. [FileStore] keeps objects on local disk and
is served by the API under the configured public prefix.
*/
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned when an object key would escape the store root.
var ErrInvalidKey = errors.New("blob: invalid object key")

// Store persists opaque objects under caller-chosen keys.
type Store interface {
	// Put writes the object and returns the URL clients use to fetch it.
	Put(context context.Context, key, contentType string, body io.Reader) (string, error)
}

// FileStore implements [Store] on the local filesystem.
type FileStore struct {
	root      string
	publicURL string
}

// NewFileStore prepares root and returns a store that publishes objects under publicURL.
func NewFileStore(root, publicURL string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: failed to create root %s: %w", root, err)
	}
	return &FileStore{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

/*
Put streams body into root/key via a temporary file and an atomic rename.

Parameters:
  - context: Checked before the write starts
  - key: Slash-separated object key, e.g. "<userID>/<slug>-<uuid>.jpg"
  - contentType: Ignored on disk; the file server sniffs it from the extension
  - body: Object bytes

Returns:
  - string: Public URL of the stored object
  - error: ErrInvalidKey or filesystem failures
*/
func (store *FileStore) Put(context context.Context, key, contentType string, body io.Reader) (string, error) {
	if err := context.Err(); err != nil {
		return "", err
	}

	cleanKey := path.Clean("/" + key)[1:]
	if cleanKey == "" || cleanKey != key {
		return "", ErrInvalidKey
	}

	target := filepath.Join(store.root, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("blob: failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("blob: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("blob: failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("blob: failed to flush object: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("blob: failed to publish object: %w", err)
	}

	return store.publicURL + "/" + escapeKey(cleanKey), nil
}

// Handler serves stored objects by key. Directories and in-flight uploads are 404.
func (store *FileStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(store.root))

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		name := path.Clean("/" + request.URL.Path)
		if strings.HasPrefix(path.Base(name), ".") {
			http.NotFound(writer, request)
			return
		}

		info, err := os.Stat(filepath.Join(store.root, filepath.FromSlash(name)))
		if err != nil || info.IsDir() {
			http.NotFound(writer, request)
			return
		}

		files.ServeHTTP(writer, request)
	})
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
