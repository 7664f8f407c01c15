// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package collection_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/taibuivan/gibiteca/internal/core/collection"
	"github.com/taibuivan/gibiteca/internal/platform/apperr"
	"github.com/taibuivan/gibiteca/internal/platform/dberr"
)

// memoryRepository is an in-process [collection.Repository] with the same
// ownership rules as the Postgres store.
type memoryRepository struct {
	mu          sync.Mutex
	collections []*collection.Collection
	issues      []*collection.Issue
	importErr   error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{}
}

func (m *memoryRepository) owned(userID, id string) *collection.Collection {
	for _, c := range m.collections {
		if c.ID == id && c.UserID == userID {
			return c
		}
	}
	return nil
}

func (m *memoryRepository) withCounts(c *collection.Collection) *collection.Collection {
	copied := *c
	copied.IssueCount, copied.OwnedCount = 0, 0
	for _, issue := range m.issues {
		if issue.CollectionID == c.ID {
			copied.IssueCount++
			if issue.IsOwned {
				copied.OwnedCount++
			}
		}
	}
	return &copied
}

func (m *memoryRepository) ListCollections(ctx context.Context, userID string) ([]*collection.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []*collection.Collection{}
	for i := len(m.collections) - 1; i >= 0; i-- {
		if m.collections[i].UserID == userID {
			result = append(result, m.withCounts(m.collections[i]))
		}
	}
	return result, nil
}

func (m *memoryRepository) GetCollection(ctx context.Context, userID, id string) (*collection.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.owned(userID, id)
	if c == nil {
		return nil, dberr.ErrNotFound
	}
	return m.withCounts(c), nil
}

func (m *memoryRepository) CreateCollection(ctx context.Context, c *collection.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.CreatedAt = time.Now()
	copied := *c
	m.collections = append(m.collections, &copied)
	return nil
}

func (m *memoryRepository) UpdateCollection(ctx context.Context, c *collection.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.owned(c.UserID, c.ID)
	if existing == nil {
		return dberr.ErrNotFound
	}
	existing.Title, existing.Publisher, existing.StartYear, existing.CoverURL = c.Title, c.Publisher, c.StartYear, c.CoverURL
	return nil
}

func (m *memoryRepository) DeleteCollection(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.owned(userID, id) == nil {
		return dberr.ErrNotFound
	}
	m.collections = slices.DeleteFunc(m.collections, func(c *collection.Collection) bool { return c.ID == id })
	m.issues = slices.DeleteFunc(m.issues, func(issue *collection.Issue) bool { return issue.CollectionID == id })
	return nil
}

func (m *memoryRepository) ListIssues(ctx context.Context, userID, collectionID string) ([]*collection.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []*collection.Issue{}
	if m.owned(userID, collectionID) == nil {
		return result, nil
	}
	for _, issue := range m.issues {
		if issue.CollectionID == collectionID {
			copied := *issue
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *memoryRepository) CreateIssue(ctx context.Context, userID string, issue *collection.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.owned(userID, issue.CollectionID) == nil {
		return dberr.ErrNotFound
	}
	issue.CreatedAt = time.Now()
	copied := *issue
	m.issues = append(m.issues, &copied)
	return nil
}

func (m *memoryRepository) ownedIssue(userID, issueID string) *collection.Issue {
	for _, issue := range m.issues {
		if issue.ID == issueID && m.owned(userID, issue.CollectionID) != nil {
			return issue
		}
	}
	return nil
}

func (m *memoryRepository) ToggleOwned(ctx context.Context, userID, issueID string) (*collection.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	issue := m.ownedIssue(userID, issueID)
	if issue == nil {
		return nil, dberr.ErrNotFound
	}
	issue.IsOwned = !issue.IsOwned
	copied := *issue
	return &copied, nil
}

func (m *memoryRepository) SetRating(ctx context.Context, userID, issueID string, rating *int) (*collection.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	issue := m.ownedIssue(userID, issueID)
	if issue == nil {
		return nil, dberr.ErrNotFound
	}
	issue.ConditionRating = rating
	copied := *issue
	return &copied, nil
}

func (m *memoryRepository) ImportCollection(ctx context.Context, c *collection.Collection, issues []*collection.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.importErr != nil {
		return apperr.Persistence("import_collection", m.importErr)
	}

	c.CreatedAt = time.Now()
	copied := *c
	m.collections = append(m.collections, &copied)
	for _, issue := range issues {
		stored := *issue
		m.issues = append(m.issues, &stored)
	}
	return nil
}

// # Blob store double

type memoryBlobStore struct {
	keys []string
	data map[string][]byte
	err  error
}

func (store *memoryBlobStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if store.err != nil {
		return "", store.err
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if store.data == nil {
		store.data = map[string][]byte{}
	}
	store.keys = append(store.keys, key)
	store.data[key] = payload
	return "https://cdn.gibiteca.app/covers/" + key, nil
}

var errStorageDown = errors.New("storage down")

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
