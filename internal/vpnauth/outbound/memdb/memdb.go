// Package memdb is a process-local store for accounts and access logs, used
// when no database is configured and in tests.
package memdb

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

type MemDB struct {
	mu       sync.RWMutex
	accounts map[string]entity.Account
	logs     []entity.AccessLog
}

func NewMemDB() *MemDB {
	return &MemDB{accounts: make(map[string]entity.Account)}
}

func (m *MemDB) GetAccount(_ context.Context, username string) (*entity.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[username]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return cloneAccount(acc), nil
}

// ProvisionAccount stores acc unless the username already has an account, in
// which case the stored one is returned with created=false.
func (m *MemDB) ProvisionAccount(_ context.Context, acc entity.Account) (*entity.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.accounts[acc.Username]; ok {
		return cloneAccount(stored), false, nil
	}

	acc.Secret = bytes.Clone(acc.Secret)
	acc.Enabled = false
	acc.EnabledAt = nil
	m.accounts[acc.Username] = acc

	return cloneAccount(acc), true, nil
}

// MarkAccountEnabled reports whether the call changed the account.
func (m *MemDB) MarkAccountEnabled(_ context.Context, username string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[username]
	if !ok {
		return false, goerror.ErrNotFound
	}
	if acc.Enabled {
		return false, nil
	}

	acc.Enabled = true
	acc.EnabledAt = &at
	acc.UpdatedAt = at
	m.accounts[username] = acc

	return true, nil
}

func (m *MemDB) CreateAccessLog(_ context.Context, log entity.AccessLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logs = append(m.logs, log)
	return nil
}

// ListRecentAccessLogs returns up to limit entries, newest first. Entries with
// the same access time are ordered by descending ID.
func (m *MemDB) ListRecentAccessLogs(_ context.Context, limit int) ([]entity.AccessLog, error) {
	m.mu.RLock()
	logs := slices.Clone(m.logs)
	m.mu.RUnlock()

	slices.SortStableFunc(logs, func(a, b entity.AccessLog) int {
		if c := b.AccessTime.Compare(a.AccessTime); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (m *MemDB) DeleteAccessLogsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.logs)
	m.logs = slices.DeleteFunc(m.logs, func(l entity.AccessLog) bool {
		return l.AccessTime.Before(cutoff)
	})

	return int64(before - len(m.logs)), nil
}

func cloneAccount(acc entity.Account) *entity.Account {
	acc.Secret = bytes.Clone(acc.Secret)
	if acc.EnabledAt != nil {
		at := *acc.EnabledAt
		acc.EnabledAt = &at
	}
	return &acc
}
