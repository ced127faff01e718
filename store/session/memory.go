package session

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pandodao/gasless-wallet/core"
)

type memoryStore struct {
	sessions *lru.Cache[string, core.Session]
}

// NewMemory keeps up to size sessions in process memory. Evicted users
// simply start over from Idle.
func NewMemory(size int) core.SessionStore {
	sessions, err := lru.New[string, core.Session](size)
	if err != nil {
		panic(err)
	}

	return &memoryStore{sessions: sessions}
}

func (s *memoryStore) Find(_ context.Context, userID string) (*core.Session, error) {
	if session, ok := s.sessions.Get(userID); ok {
		return &session, nil
	}

	return core.NewSession(userID), nil
}

func (s *memoryStore) Save(_ context.Context, session *core.Session) error {
	session.UpdatedAt = time.Now()
	s.sessions.Add(session.UserID, *session)
	return nil
}
