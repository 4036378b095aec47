package credentials

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Lookup. Login identifiers are case-sensitive.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[int64]Account
	byLogin map[string]int64
}

// NewMemoryStore returns a store seeded with accounts.
func NewMemoryStore(accounts ...Account) (*MemoryStore, error) {
	s := &MemoryStore{
		byID:    make(map[int64]Account),
		byLogin: make(map[string]int64),
	}
	for _, a := range accounts {
		if err := s.Add(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts an account.
func (s *MemoryStore) Add(a Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.ID]; ok {
		return ErrDuplicateID
	}
	if _, ok := s.byLogin[a.LoginIdentifier]; ok {
		return ErrDuplicateLogin
	}
	s.byID[a.ID] = a
	s.byLogin[a.LoginIdentifier] = a.ID
	return nil
}

// SetActive flips the active flag.
func (s *MemoryStore) SetActive(accountID int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.Active = active
	s.byID[accountID] = a
	return nil
}

// UpdatePasswordHash implements HashUpdater.
func (s *MemoryStore) UpdatePasswordHash(_ context.Context, accountID int64, encodedHash string) error {
	if encodedHash == "" {
		return ErrInvalidAccount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.PasswordHash = encodedHash
	s.byID[accountID] = a
	return nil
}

// Accounts returns a snapshot ordered by id.
func (s *MemoryStore) Accounts() []Account {
	s.mu.RLock()
	out := make([]Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Remove deletes an account. Missing accounts are ignored.
func (s *MemoryStore) Remove(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byID[accountID]; ok {
		delete(s.byLogin, a.LoginIdentifier)
		delete(s.byID, accountID)
	}
}

// Replace swaps the whole account set atomically.
func (s *MemoryStore) Replace(accounts []Account) error {
	next, err := NewMemoryStore(accounts...)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.byID, s.byLogin = next.byID, next.byLogin
	s.mu.Unlock()
	return nil
}

// Len returns the number of accounts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// FindByLoginIdentifier implements Lookup.
func (s *MemoryStore) FindByLoginIdentifier(_ context.Context, loginIdentifier string) (Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLogin[loginIdentifier]
	if !ok {
		return Account{}, false, nil
	}
	return s.byID[id], true, nil
}

// FindByID implements Lookup.
func (s *MemoryStore) FindByID(_ context.Context, accountID int64) (Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[accountID]
	return a, ok, nil
}
