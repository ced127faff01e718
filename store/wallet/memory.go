package wallet

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/pandodao/gasless-wallet/core"
)

// NewMemory returns a wallet store that lives in process memory. It backs
// the memory driver used for local runs and tests.
func NewMemory() core.WalletStore {
	return &memoryStore{wallets: map[string]core.Wallet{}}
}

type memoryStore struct {
	mux     sync.RWMutex
	wallets map[string]core.Wallet
}

func (s *memoryStore) Create(_ context.Context, wallet *core.Wallet) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.wallets[wallet.UserID]; ok {
		return core.ErrAlreadyRegistered
	}

	now := time.Now()
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = now
	}
	wallet.UpdatedAt = now

	wallet.Username = core.NormalizeUsername(wallet.Username)
	s.releaseUsername(wallet.UserID, wallet.Username)
	s.wallets[wallet.UserID] = *wallet
	return nil
}

// releaseUsername clears username on every wallet except the one of userID.
func (s *memoryStore) releaseUsername(userID, username string) {
	if username == "" {
		return
	}

	for id, w := range s.wallets {
		if id != userID && strings.EqualFold(w.Username, username) {
			w.Username = ""
			w.UpdatedAt = time.Now()
			s.wallets[id] = w
		}
	}
}

func (s *memoryStore) Find(_ context.Context, userID string) (*core.Wallet, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	w, ok := s.wallets[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}

	return &w, nil
}

func (s *memoryStore) FindByUsername(_ context.Context, username string) (*core.Wallet, error) {
	username = core.NormalizeUsername(username)
	if username == "" {
		return nil, sql.ErrNoRows
	}

	s.mux.RLock()
	defer s.mux.RUnlock()

	var found []core.Wallet
	for _, w := range s.wallets {
		if strings.EqualFold(w.Username, username) {
			found = append(found, w)
		}
	}

	switch len(found) {
	case 0:
		return nil, sql.ErrNoRows
	case 1:
		return &found[0], nil
	default:
		return nil, core.ErrAmbiguousUsername
	}
}

func (s *memoryStore) Update(_ context.Context, userID string, update core.WalletUpdate) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	w, ok := s.wallets[userID]
	if !ok {
		return sql.ErrNoRows
	}

	if update.Username != nil {
		w.Username = core.NormalizeUsername(*update.Username)
		s.releaseUsername(userID, w.Username)
	}

	if update.Email != nil {
		w.Email = *update.Email
	}

	w.UpdatedAt = time.Now()
	s.wallets[userID] = w
	return nil
}
