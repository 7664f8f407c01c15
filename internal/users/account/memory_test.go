// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/gibiteca/internal/platform/dberr"
	"github.com/taibuivan/gibiteca/internal/platform/sec"
	"github.com/taibuivan/gibiteca/internal/users/account"
	"github.com/taibuivan/gibiteca/internal/users/auth"
	"github.com/taibuivan/gibiteca/pkg/pagination"
)

type memoryAccounts struct {
	mu      sync.Mutex
	users   []*auth.User
	deleted map[string]bool
}

func (m *memoryAccounts) live(id string) *auth.User {
	for _, user := range m.users {
		if user.ID == id && !m.deleted[id] {
			return user
		}
	}
	return nil
}

func (m *memoryAccounts) FindByID(_ context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.live(id)
	if user == nil {
		return nil, dberr.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memoryAccounts) UpdateDisplayName(_ context.Context, id, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.live(id)
	if user == nil {
		return dberr.ErrNotFound
	}
	user.DisplayName = displayName
	return nil
}

func (m *memoryAccounts) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live(id) == nil {
		return dberr.ErrNotFound
	}
	m.deleted[id] = true
	return nil
}

func (m *memoryAccounts) List(_ context.Context, params pagination.Params) ([]*auth.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var live []*auth.User
	for _, user := range m.users {
		if !m.deleted[user.ID] {
			live = append(live, user)
		}
	}
	start := min(params.Offset(), len(live))
	end := min(start+params.Limit, len(live))
	return slices.Clone(live[start:end]), len(live), nil
}

func (m *memoryAccounts) SetRole(_ context.Context, id string, role sec.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.live(id)
	if user == nil {
		return dberr.ErrNotFound
	}
	user.Role = role
	return nil
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]account.SessionInfo
	owners   map[string]string
}

func (m *memorySessions) add(userID, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = account.SessionInfo{ID: sessionID, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	m.owners[sessionID] = userID
}

func (m *memorySessions) FindActiveByUserID(_ context.Context, userID string) ([]account.SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []account.SessionInfo
	for id, session := range m.sessions {
		if m.owners[id] == userID {
			out = append(out, session)
		}
	}
	slices.SortFunc(out, func(a, b account.SessionInfo) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memorySessions) Revoke(_ context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owners[sessionID] != userID {
		return dberr.ErrNotFound
	}
	delete(m.sessions, sessionID)
	delete(m.owners, sessionID)
	return nil
}

func (m *memorySessions) RevokeAll(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, owner := range m.owners {
		if owner == userID {
			delete(m.sessions, id)
			delete(m.owners, id)
		}
	}
	return nil
}

type stubIssuer struct {
	issued []string
}

func (s *stubIssuer) IssueResetToken(_ context.Context, userID string) (string, error) {
	s.issued = append(s.issued, userID)
	return "reset-" + userID, nil
}

const (
	adminID  = "0190a0f2-0000-7000-8000-000000000001"
	memberID = "0190a0f2-0000-7000-8000-000000000002"
)

type fixture struct {
	service  *account.Service
	accounts *memoryAccounts
	sessions *memorySessions
	issuer   *stubIssuer
}

func newFixture() *fixture {
	f := &fixture{
		accounts: &memoryAccounts{
			users: []*auth.User{
				{ID: adminID, Username: "root", Email: "root@example.com", DisplayName: "Root", Role: sec.RoleAdmin},
				{ID: memberID, Username: "ana", Email: "ana@example.com", DisplayName: "Ana", Role: sec.RoleMember},
			},
			deleted: map[string]bool{},
		},
		sessions: &memorySessions{sessions: map[string]account.SessionInfo{}, owners: map[string]string{}},
		issuer:   &stubIssuer{},
	}
	f.service = account.NewService(f.accounts, f.sessions, f.issuer, slog.New(slog.DiscardHandler))
	return f
}
