/*
Package user contains core data structures and logic related to user identity.

This file defines the Manager, which owns the userName→User table. All other
components hold non-owning references to the Users it hands out, so name
equality and reference equality coincide for users obtained from one Manager.
*/
package user

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"shogid/internal/app/db"
	"shogid/internal/pkg/errs"
	"shogid/internal/pkg/logx"
)

// Manager resolves userNames to shared User instances, caching profile
// information from the database store on first lookup.
type Manager struct {
	mu    sync.RWMutex
	table map[string]*User

	store  db.Store
	logger zerolog.Logger
}

// NewManager constructs a Manager backed by the given store.
func NewManager(store db.Store) *Manager {
	return &Manager{
		table:  make(map[string]*User),
		store:  store,
		logger: logx.Logger().With().Str("component", "UserManager").Logger(),
	}
}

// Lookup resolves userName to its shared User instance. Unknown names fail
// with an errs.ErrNoSuchUser error; registration only ever happens through
// GetOrCreate at login.
func (m *Manager) Lookup(ctx context.Context, userName string) (*User, error) {
	m.mu.RLock()
	u, ok := m.table[userName]
	m.mu.RUnlock()
	if ok {
		return u, nil
	}

	info, err := m.store.GetUserInfo(ctx, userName)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errs.NewError(errs.ErrNoSuchUser, userName)
	}
	if err != nil {
		m.logger.Error().Err(err).Str("user_name", userName).Msg("User lookup failed.")
		return nil, errs.NewError(errs.ErrDatabaseUnavailable)
	}

	return m.intern(&User{
		Name:        info.Name,
		Email:       info.Email,
		Description: info.Description,
	}), nil
}

// GetOrCreate resolves userName, registering it when unknown. It is the
// handshake's entry point: login implicitly registers a new userName, and the
// database row is created best-effort so a store outage does not block login.
func (m *Manager) GetOrCreate(ctx context.Context, userName string) *User {
	u, err := m.Lookup(ctx, userName)
	if err == nil {
		return u
	}

	var custom *errs.CustomError
	if !errors.As(err, &custom) || custom.Code != errs.ErrNoSuchUser {
		m.logger.Warn().Err(err).Str("user_name", userName).
			Msg("User lookup failed during login. Proceeding with in-memory identity.")
	} else if ensureErr := m.store.EnsureUser(ctx, userName); ensureErr != nil {
		m.logger.Warn().Err(ensureErr).Str("user_name", userName).
			Msg("Could not persist new user row.")
	}

	return m.intern(&User{Name: userName})
}

// intern stores u in the table unless another goroutine won the race, in
// which case the existing instance is returned so references stay shared.
func (m *Manager) intern(u *User) *User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.table[u.Name]; ok {
		return existing
	}
	m.table[u.Name] = u
	return u
}

// Known returns the number of resolved users held in the table.
func (m *Manager) Known() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.table)
}
