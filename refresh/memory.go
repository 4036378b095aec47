package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one stored refresh token.
type Record struct {
	ID        uuid.UUID
	AccountID int64
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// MemoryStore is a mutex-guarded in-process Store.
type MemoryStore struct {
	cfg Config

	mu        sync.Mutex
	records   map[Hash]*Record
	byAccount map[int64]map[Hash]struct{}
}

// NewMemoryStore returns an empty store. Zero config fields take defaults.
func NewMemoryStore(cfg Config) (*MemoryStore, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		cfg:       cfg,
		records:   make(map[Hash]*Record),
		byAccount: make(map[int64]map[Hash]struct{}),
	}, nil
}

// Issue implements Store.
func (s *MemoryStore) Issue(_ context.Context, accountID int64, now time.Time) (Issued, error) {
	token, hash, err := NewToken()
	if err != nil {
		return Issued{}, err
	}
	rec := &Record{
		ID:        uuid.New(),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}

	s.mu.Lock()
	s.records[hash] = rec
	set, ok := s.byAccount[accountID]
	if !ok {
		set = make(map[Hash]struct{})
		s.byAccount[accountID] = set
	}
	set[hash] = struct{}{}
	s.mu.Unlock()

	return Issued{Value: token, AccountID: accountID, ExpiresAt: rec.ExpiresAt}, nil
}

// ValidateAndRotate implements Store.
func (s *MemoryStore) ValidateAndRotate(_ context.Context, token string, now time.Time) (int64, error) {
	hash, err := HashToken(token)
	if err != nil {
		return 0, ErrUnknownToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[hash]
	switch {
	case !ok:
		return 0, ErrUnknownToken
	case rec.Revoked:
		return 0, ErrTokenRevoked
	case !now.Before(rec.ExpiresAt):
		return 0, ErrTokenExpired
	}
	rec.Revoked = true
	return rec.AccountID, nil
}

// Revoke implements Store.
func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	hash, err := HashToken(token)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	if rec, ok := s.records[hash]; ok {
		rec.Revoked = true
	}
	s.mu.Unlock()
	return nil
}

// RevokeAllForAccount implements Store.
func (s *MemoryStore) RevokeAllForAccount(_ context.Context, accountID int64) error {
	s.mu.Lock()
	for hash := range s.byAccount[accountID] {
		if rec, ok := s.records[hash]; ok {
			rec.Revoked = true
		}
	}
	s.mu.Unlock()
	return nil
}

// PurgeExpired drops records whose retention window has passed.
func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for hash, rec := range s.records {
		if now.Before(rec.ExpiresAt.Add(s.cfg.ExpiredRetention)) {
			continue
		}
		delete(s.records, hash)
		if set := s.byAccount[rec.AccountID]; set != nil {
			delete(set, hash)
			if len(set) == 0 {
				delete(s.byAccount, rec.AccountID)
			}
		}
		purged++
	}
	return purged, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
