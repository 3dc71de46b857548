package fakeledgerrepo

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-google-auth/internal/errors"
	"github.com/jrsteele09/go-google-auth/token/ledger"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var _ ledger.Repo = (*FakeLedgerRepo)(nil)

type FakeLedgerRepo struct {
	// FailWith, when set, makes every ledger operation return it, for
	// exercising storage failure paths.
	FailWith error

	rows   map[string]*ledger.RefreshTokenRecord // token value -> row
	nextID uint
	lock   sync.RWMutex
}

func NewFakeLedgerRepo() *FakeLedgerRepo {
	return &FakeLedgerRepo{
		rows:   make(map[string]*ledger.RefreshTokenRecord),
		nextID: 1,
	}
}

func (lr *FakeLedgerRepo) Record(_ context.Context, tokenValue string, userID uint, expiresAt time.Time) error {
	if lr.FailWith != nil {
		return lr.FailWith
	}
	lr.lock.Lock()
	defer lr.lock.Unlock()
	return lr.record(tokenValue, userID, expiresAt)
}

func (lr *FakeLedgerRepo) record(tokenValue string, userID uint, expiresAt time.Time) error {
	if _, ok := lr.rows[tokenValue]; ok {
		return errors.ErrTokenConflict
	}
	lr.rows[tokenValue] = &ledger.RefreshTokenRecord{
		ID:           lr.nextID,
		RefreshToken: tokenValue,
		UserID:       userID,
		ExpiresAt:    expiresAt.UTC(),
		CreatedAt:    NowTimeFunc().UTC(),
	}
	lr.nextID++
	return nil
}

func (lr *FakeLedgerRepo) FindActive(_ context.Context, tokenValue string) (*ledger.RefreshTokenRecord, error) {
	if lr.FailWith != nil {
		return nil, lr.FailWith
	}
	lr.lock.RLock()
	defer lr.lock.RUnlock()

	row, ok := lr.rows[tokenValue]
	if !ok || row.IsRevoked || !row.ExpiresAt.After(NowTimeFunc().UTC()) {
		return nil, errors.ErrTokenNotActive
	}
	copied := *row
	return &copied, nil
}

func (lr *FakeLedgerRepo) Revoke(_ context.Context, tokenValue string) (bool, error) {
	if lr.FailWith != nil {
		return false, lr.FailWith
	}
	lr.lock.Lock()
	defer lr.lock.Unlock()

	row, ok := lr.rows[tokenValue]
	if !ok {
		return false, nil
	}
	row.IsRevoked = true
	return true, nil
}

func (lr *FakeLedgerRepo) Rotate(_ context.Context, oldValue, newValue string, userID uint, expiresAt time.Time) error {
	if lr.FailWith != nil {
		return lr.FailWith
	}
	lr.lock.Lock()
	defer lr.lock.Unlock()

	if row, ok := lr.rows[oldValue]; ok {
		row.IsRevoked = true
	}
	return lr.record(newValue, userID, expiresAt)
}

// Get returns the raw row regardless of state, for test assertions.
func (lr *FakeLedgerRepo) Get(tokenValue string) *ledger.RefreshTokenRecord {
	lr.lock.RLock()
	defer lr.lock.RUnlock()

	row, ok := lr.rows[tokenValue]
	if !ok {
		return nil
	}
	copied := *row
	return &copied
}

// Len reports the number of ledger rows.
func (lr *FakeLedgerRepo) Len() int {
	lr.lock.RLock()
	defer lr.lock.RUnlock()
	return len(lr.rows)
}
