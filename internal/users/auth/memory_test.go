// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/gibiteca/internal/platform/dberr"
	"github.com/taibuivan/gibiteca/internal/users/auth"
)

// # In-memory Doubles

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*auth.User{}}
}

func (m *memoryUsers) find(match func(*auth.User) bool) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if match(user) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return u.ID == id })
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return u.Email == email })
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return u.Username == username })
}

func (m *memoryUsers) Create(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return dberr.ErrNotFound
	}
	user.PasswordHash = newHash
	return nil
}

type memorySessions struct {
	mu        sync.Mutex
	sessions  map[string]*auth.Session
	revokeErr error
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]*auth.Session{}}
}

func (m *memorySessions) Create(_ context.Context, session *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *memorySessions) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, session := range m.sessions {
		if session.TokenHash == tokenHash && !session.IsRevoked && session.ExpiresAt.After(time.Now()) {
			copied := *session
			return &copied, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (m *memorySessions) Revoke(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[sessionID]; ok {
		session.IsRevoked = true
	}
	return nil
}

func (m *memorySessions) RevokeAll(_ context.Context, userID string) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	return m.RevokeOthers(context.Background(), userID, "")
}

func (m *memorySessions) RevokeOthers(_ context.Context, userID, currentSessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		if session.UserID == userID && id != currentSessionID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (m *memorySessions) DeleteExpired(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		if !session.ExpiresAt.After(time.Now()) {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *memorySessions) active(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, session := range m.sessions {
		if session.UserID == userID && !session.IsRevoked {
			count++
		}
	}
	return count
}

type memoryResetTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemoryResetTokens() *memoryResetTokens {
	return &memoryResetTokens{tokens: map[string]string{}}
}

func (m *memoryResetTokens) Set(_ context.Context, token, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return nil
}

func (m *memoryResetTokens) Consume(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.tokens[token]
	if !ok {
		return "", dberr.ErrNotFound
	}
	delete(m.tokens, token)
	return userID, nil
}

// stubTokens signs nothing; the token text encodes who it was issued to.
type stubTokens struct{}

func (stubTokens) GenerateAccessToken(userID, username, role string, _ time.Duration) (string, error) {
	return "access:" + userID + ":" + username + ":" + role, nil
}

type fixture struct {
	service  *auth.Service
	users    *memoryUsers
	sessions *memorySessions
	resets   *memoryResetTokens
}

func newFixture() *fixture {
	f := &fixture{
		users:    newMemoryUsers(),
		sessions: newMemorySessions(),
		resets:   newMemoryResetTokens(),
	}
	f.service = auth.NewService(f.users, f.sessions, f.resets, stubTokens{})
	return f
}
