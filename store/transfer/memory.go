package transfer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pandodao/gasless-wallet/core"
)

// NewMemory returns a transfer ledger kept in process memory.
func NewMemory() core.TransferStore {
	return &memoryStore{transfers: map[uint64]core.Transfer{}}
}

type memoryStore struct {
	mux       sync.Mutex
	seq       uint64
	transfers map[uint64]core.Transfer
}

func (s *memoryStore) Create(_ context.Context, transfer *core.Transfer) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	for _, t := range s.transfers {
		if t.TraceID == transfer.TraceID {
			return fmt.Errorf("duplicate trace id %s", transfer.TraceID)
		}
	}

	s.seq++
	transfer.ID = s.seq
	transfer.CreatedAt = time.Now()
	s.transfers[transfer.ID] = *transfer
	return nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, transfer *core.Transfer, to core.TransferStatus) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	t, ok := s.transfers[transfer.ID]
	if !ok || t.Status != transfer.Status {
		return fmt.Errorf("optimistic lock failed")
	}

	t.Status = to
	s.transfers[t.ID] = t
	transfer.Status = to
	return nil
}

func (s *memoryStore) ListStatus(_ context.Context, status core.TransferStatus, limit int) ([]*core.Transfer, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var transfers []*core.Transfer
	for _, t := range s.transfers {
		if t.Status == status {
			t := t
			transfers = append(transfers, &t)
		}
	}

	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].ID < transfers[j].ID
	})

	if len(transfers) > limit {
		transfers = transfers[:limit]
	}

	return transfers, nil
}
